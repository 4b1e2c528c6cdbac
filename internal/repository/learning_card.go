package repository

import (
	"context"
	"errors"

	"infinity/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LearningCardRepository defines persistence operations for learning cards.
//
// Create and Delete maintain the owning topic's card counter inside the same
// transaction as the card write, with a server-side atomic statement. The
// storage-side statement is the source of truth for the counter; callers must
// not do their own read-modify-write on it.
type LearningCardRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.LearningCard, error)
	ListByTopic(ctx context.Context, topicID uuid.UUID, page PageRequest) ([]models.LearningCard, int64, error)
	FindByTopicAndDifficulty(ctx context.Context, topicID uuid.UUID, level models.DifficultyLevel) ([]models.LearningCard, error)
	FindByContentType(ctx context.Context, contentType models.ContentType, page PageRequest) ([]models.LearningCard, int64, error)
	CountByTopic(ctx context.Context, topicID uuid.UUID) (int64, error)
	Create(ctx context.Context, card *models.LearningCard) error
	Update(ctx context.Context, card *models.LearningCard) error
	Delete(ctx context.Context, id uuid.UUID) error
}

var cardSortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"difficulty": "difficulty_level",
	"type":       "content_type",
}

type learningCardRepository struct {
	db *gorm.DB
}

// NewLearningCardRepository returns a new LearningCardRepository implementation.
func NewLearningCardRepository(db *gorm.DB) LearningCardRepository {
	return &learningCardRepository{db: db}
}

func (r *learningCardRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.LearningCard, error) {
	var card models.LearningCard
	if err := r.db.WithContext(ctx).First(&card, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("LearningCard", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &card, nil
}

func (r *learningCardRepository) ListByTopic(ctx context.Context, topicID uuid.UUID, page PageRequest) ([]models.LearningCard, int64, error) {
	tx := r.db.WithContext(ctx).Model(&models.LearningCard{}).
		Where("topic_id = ? AND active = ?", topicID, true)

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	limit, offset := page.limitOffset()
	var cards []models.LearningCard
	err := tx.
		Order(page.orderClause(cardSortColumns, "created_at")).
		Limit(limit).
		Offset(offset).
		Find(&cards).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return cards, total, nil
}

func (r *learningCardRepository) FindByTopicAndDifficulty(ctx context.Context, topicID uuid.UUID, level models.DifficultyLevel) ([]models.LearningCard, error) {
	var cards []models.LearningCard
	err := r.db.WithContext(ctx).
		Where("topic_id = ? AND difficulty_level = ? AND active = ?", topicID, level, true).
		Order("created_at").
		Find(&cards).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return cards, nil
}

func (r *learningCardRepository) FindByContentType(ctx context.Context, contentType models.ContentType, page PageRequest) ([]models.LearningCard, int64, error) {
	tx := r.db.WithContext(ctx).Model(&models.LearningCard{}).
		Where("content_type = ? AND active = ?", contentType, true)

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	limit, offset := page.limitOffset()
	var cards []models.LearningCard
	err := tx.
		Order(page.orderClause(cardSortColumns, "created_at")).
		Limit(limit).
		Offset(offset).
		Find(&cards).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return cards, total, nil
}

func (r *learningCardRepository) CountByTopic(ctx context.Context, topicID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.LearningCard{}).
		Where("topic_id = ? AND active = ?", topicID, true).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// Create inserts the card and increments the topic counter in one
// transaction. The topic must exist and be active.
func (r *learningCardRepository) Create(ctx context.Context, card *models.LearningCard) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var topic models.Topic
		err := tx.Select("id", "active").First(&topic, "id = ?", card.TopicID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Topic", card.TopicID)
		}
		if err != nil {
			return models.NewInternalError(err)
		}
		if !topic.Active {
			return models.NewNotFoundError("Topic", card.TopicID)
		}

		if err := tx.Create(card).Error; err != nil {
			return models.NewInternalError(err)
		}
		return incrementCardsCount(tx, card.TopicID)
	})
}

func (r *learningCardRepository) Update(ctx context.Context, card *models.LearningCard) error {
	if err := r.db.WithContext(ctx).Save(card).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete soft-deletes the card and decrements the topic counter in one
// transaction. Deleting an already-inactive card is a not-found, which keeps
// the decrement from running twice for the same card.
func (r *learningCardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var card models.LearningCard
		if err := tx.First(&card, "id = ? AND active = ?", id, true).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("LearningCard", id)
			}
			return models.NewInternalError(err)
		}

		if err := tx.Model(&models.LearningCard{}).
			Where("id = ?", id).
			Update("active", false).Error; err != nil {
			return models.NewInternalError(err)
		}
		return decrementCardsCount(tx, card.TopicID)
	})
}
