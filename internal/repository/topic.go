package repository

import (
	"context"
	"errors"

	"infinity/internal/cache"
	"infinity/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CategoryCount is one row of the topics-per-category aggregate.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// TopicRepository defines persistence operations for topics.
//
// Lookups that may legitimately match nothing return (nil, nil); operations
// that expect a specific row (GetByID, counter updates, Delete) report a
// not-found error instead. Everything except GetByID is scoped to active
// rows; GetByID deliberately returns inactive rows so audit history stays
// reachable by raw identifier.
type TopicRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Topic, error)
	GetByIDWithCards(ctx context.Context, id uuid.UUID, limit int) (*models.Topic, error)
	GetByName(ctx context.Context, name string) (*models.Topic, error)
	FindByCategory(ctx context.Context, category string) ([]models.Topic, error)
	FindByDifficulty(ctx context.Context, level models.DifficultyLevel) ([]models.Topic, error)
	FindByCategoryAndDifficulty(ctx context.Context, category string, level models.DifficultyLevel) ([]models.Topic, error)
	FindWithMinimumCards(ctx context.Context, minCards int) ([]models.Topic, error)
	List(ctx context.Context, page PageRequest) ([]models.Topic, int64, error)
	ListByCategory(ctx context.Context, category string, page PageRequest) ([]models.Topic, int64, error)
	ListByDifficulty(ctx context.Context, level models.DifficultyLevel, page PageRequest) ([]models.Topic, int64, error)
	Search(ctx context.Context, query string, page PageRequest) ([]models.Topic, int64, error)
	Categories(ctx context.Context) ([]string, error)
	CountByCategory(ctx context.Context) ([]CategoryCount, error)
	IncrementCardsCount(ctx context.Context, id uuid.UUID) error
	DecrementCardsCount(ctx context.Context, id uuid.UUID) error
	Create(ctx context.Context, topic *models.Topic) error
	Update(ctx context.Context, topic *models.Topic) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Allowed sort columns for topic listings.
var topicSortColumns = map[string]string{
	"name":       "name",
	"category":   "category",
	"difficulty": "difficulty_level",
	"cards":      "total_cards_count",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

type topicRepository struct {
	db *gorm.DB
}

// NewTopicRepository returns a new TopicRepository implementation.
func NewTopicRepository(db *gorm.DB) TopicRepository {
	return &topicRepository{db: db}
}

func (r *topicRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Topic, error) {
	var topic models.Topic
	key := cache.TopicKey(id)

	err := cache.Aside(ctx, key, &topic, cache.TopicTTL, func() error {
		if err := r.db.WithContext(ctx).First(&topic, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Topic", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &topic, nil
}

// GetByIDWithCards loads the topic together with its active cards. Card
// loading is explicit and bounded; plain GetByID never fetches the card set.
func (r *topicRepository) GetByIDWithCards(ctx context.Context, id uuid.UUID, limit int) (*models.Topic, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	var topic models.Topic
	if err := r.db.WithContext(ctx).
		Preload("LearningCards", func(db *gorm.DB) *gorm.DB {
			return db.Where("active = ?", true).Order("created_at").Limit(limit)
		}).
		First(&topic, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Topic", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &topic, nil
}

func (r *topicRepository) GetByName(ctx context.Context, name string) (*models.Topic, error) {
	var topic models.Topic
	err := r.db.WithContext(ctx).
		Where("name = ? AND active = ?", name, true).
		First(&topic).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &topic, nil
}

func (r *topicRepository) FindByCategory(ctx context.Context, category string) ([]models.Topic, error) {
	var topics []models.Topic
	err := r.db.WithContext(ctx).
		Where("category = ? AND active = ?", category, true).
		Find(&topics).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return topics, nil
}

func (r *topicRepository) FindByDifficulty(ctx context.Context, level models.DifficultyLevel) ([]models.Topic, error) {
	var topics []models.Topic
	err := r.db.WithContext(ctx).
		Where("difficulty_level = ? AND active = ?", level, true).
		Find(&topics).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return topics, nil
}

func (r *topicRepository) FindByCategoryAndDifficulty(ctx context.Context, category string, level models.DifficultyLevel) ([]models.Topic, error) {
	var topics []models.Topic
	err := r.db.WithContext(ctx).
		Where("category = ? AND difficulty_level = ? AND active = ?", category, level, true).
		Find(&topics).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return topics, nil
}

func (r *topicRepository) FindWithMinimumCards(ctx context.Context, minCards int) ([]models.Topic, error) {
	var topics []models.Topic
	err := r.db.WithContext(ctx).
		Where("total_cards_count >= ? AND active = ?", minCards, true).
		Order("total_cards_count DESC").
		Find(&topics).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return topics, nil
}

func (r *topicRepository) List(ctx context.Context, page PageRequest) ([]models.Topic, int64, error) {
	return r.paged(ctx, page, r.db.WithContext(ctx).Model(&models.Topic{}).Where("active = ?", true))
}

func (r *topicRepository) ListByCategory(ctx context.Context, category string, page PageRequest) ([]models.Topic, int64, error) {
	return r.paged(ctx, page, r.db.WithContext(ctx).Model(&models.Topic{}).
		Where("category = ? AND active = ?", category, true))
}

func (r *topicRepository) ListByDifficulty(ctx context.Context, level models.DifficultyLevel, page PageRequest) ([]models.Topic, int64, error) {
	return r.paged(ctx, page, r.db.WithContext(ctx).Model(&models.Topic{}).
		Where("difficulty_level = ? AND active = ?", level, true))
}

// Search matches the query case-insensitively against name, description, and
// tags of active topics.
func (r *topicRepository) Search(ctx context.Context, query string, page PageRequest) ([]models.Topic, int64, error) {
	pattern := likePattern(query)
	return r.paged(ctx, page, r.db.WithContext(ctx).Model(&models.Topic{}).
		Where("active = ? AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(tags) LIKE ?)",
			true, pattern, pattern, pattern))
}

func (r *topicRepository) paged(ctx context.Context, page PageRequest, tx *gorm.DB) ([]models.Topic, int64, error) {
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	limit, offset := page.limitOffset()
	var topics []models.Topic
	err := tx.
		Order(page.orderClause(topicSortColumns, "created_at DESC")).
		Limit(limit).
		Offset(offset).
		Find(&topics).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return topics, total, nil
}

func (r *topicRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := cache.Aside(ctx, cache.CategoriesKey(), &categories, cache.CategoriesTTL, func() error {
		return r.db.WithContext(ctx).Model(&models.Topic{}).
			Where("active = ?", true).
			Distinct("category").
			Order("category").
			Pluck("category", &categories).Error
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return categories, nil
}

func (r *topicRepository) CountByCategory(ctx context.Context) ([]CategoryCount, error) {
	var counts []CategoryCount
	err := cache.Aside(ctx, cache.CategoryCountsKey(), &counts, cache.CategoriesTTL, func() error {
		return r.db.WithContext(ctx).Model(&models.Topic{}).
			Select("category, COUNT(*) AS count").
			Where("active = ?", true).
			Group("category").
			Order("category").
			Scan(&counts).Error
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return counts, nil
}

// IncrementCardsCount bumps the counter with a single server-side statement
// so concurrent card inserts cannot lose updates.
func (r *topicRepository) IncrementCardsCount(ctx context.Context, id uuid.UUID) error {
	return incrementCardsCount(r.db.WithContext(ctx), id)
}

// DecrementCardsCount lowers the counter server-side, clamping at zero.
func (r *topicRepository) DecrementCardsCount(ctx context.Context, id uuid.UUID) error {
	return decrementCardsCount(r.db.WithContext(ctx), id)
}

func incrementCardsCount(tx *gorm.DB, id uuid.UUID) error {
	res := tx.Model(&models.Topic{}).
		Where("id = ?", id).
		UpdateColumn("total_cards_count", gorm.Expr("total_cards_count + 1"))
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Topic", id)
	}
	cache.InvalidateTopic(tx.Statement.Context, id)
	return nil
}

func decrementCardsCount(tx *gorm.DB, id uuid.UUID) error {
	res := tx.Model(&models.Topic{}).
		Where("id = ?", id).
		UpdateColumn("total_cards_count",
			gorm.Expr("CASE WHEN total_cards_count > 0 THEN total_cards_count - 1 ELSE 0 END"))
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Topic", id)
	}
	cache.InvalidateTopic(tx.Statement.Context, id)
	return nil
}

func (r *topicRepository) Create(ctx context.Context, topic *models.Topic) error {
	if err := r.db.WithContext(ctx).Create(topic).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.Invalidate(ctx, cache.CategoriesKey(), cache.CategoryCountsKey())
	return nil
}

func (r *topicRepository) Update(ctx context.Context, topic *models.Topic) error {
	if err := r.db.WithContext(ctx).Save(topic).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateTopic(ctx, topic.ID)
	return nil
}

// Delete soft-deletes the topic and all of its cards in one transaction.
// The dependent cards go first, then the topic row, mirroring an explicit
// application-level cascade. The counter is zeroed because no active card
// references the topic afterwards.
func (r *topicRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.LearningCard{}).
			Where("topic_id = ? AND active = ?", id, true).
			Update("active", false).Error; err != nil {
			return models.NewInternalError(err)
		}

		res := tx.Model(&models.Topic{}).
			Where("id = ? AND active = ?", id, true).
			Updates(map[string]any{"active": false, "total_cards_count": 0})
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Topic", id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	cache.InvalidateTopic(ctx, id)
	return nil
}
