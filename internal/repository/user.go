package repository

import (
	"context"
	"errors"
	"time"

	"infinity/internal/cache"
	"infinity/internal/middleware"
	"infinity/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
//
// Identifier/token lookups return (nil, nil) when nothing matches so callers
// can treat absence as a normal outcome. Point updates (last login, lockout,
// verification) are single server-side statements; a zero-row match reports
// not-found. GetByID ignores the active flag for audit reads; every listing
// and search is scoped to active users.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsernameOrEmail(ctx context.Context, identifier string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	GetByEmailVerificationToken(ctx context.Context, token string) (*models.User, error)
	GetByPasswordResetToken(ctx context.Context, token string) (*models.User, error)
	List(ctx context.Context, page PageRequest) ([]models.User, int64, error)
	FindRegisteredSince(ctx context.Context, since time.Time) ([]models.User, error)
	FindInactiveSince(ctx context.Context, before time.Time) ([]models.User, error)
	Search(ctx context.Context, query string, page PageRequest) ([]models.User, int64, error)
	CountRegisteredSince(ctx context.Context, since time.Time) (int64, error)
	CountActive(ctx context.Context) (int64, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, loginTime time.Time) error
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
	SetLoginAttempts(ctx context.Context, id uuid.UUID, attempts int) error
	LockAccount(ctx context.Context, id uuid.UUID, until time.Time) error
	SetPasswordResetToken(ctx context.Context, id uuid.UUID, token string) error
	ClearPasswordReset(ctx context.Context, id uuid.UUID, passwordHash string) error
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddFavoriteTopic(ctx context.Context, userID, topicID uuid.UUID) error
	RemoveFavoriteTopic(ctx context.Context, userID, topicID uuid.UUID) error
	ListFavorites(ctx context.Context, userID uuid.UUID) ([]models.Topic, error)
}

var userSortColumns = map[string]string{
	"username":   "username",
	"email":      "email",
	"created_at": "created_at",
	"updated_at": "updated_at",
	"last_login": "last_login_at",
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	key := cache.UserKey(id)

	err := cache.Aside(ctx, key, &user, cache.UserTTL, func() error {
		if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) getOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, "username = ? AND active = ?", username, true)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "email = ? AND active = ?", email, true)
}

// GetByUsernameOrEmail accepts a single login identifier that may be either
// a username or an email address.
func (r *userRepository) GetByUsernameOrEmail(ctx context.Context, identifier string) (*models.User, error) {
	return r.getOne(ctx, "(username = ? OR email = ?) AND active = ?", identifier, identifier, true)
}

func (r *userRepository) GetByEmailVerificationToken(ctx context.Context, token string) (*models.User, error) {
	return r.getOne(ctx, "email_verification_token = ? AND active = ?", token, true)
}

func (r *userRepository) GetByPasswordResetToken(ctx context.Context, token string) (*models.User, error) {
	return r.getOne(ctx, "password_reset_token = ? AND active = ?", token, true)
}

func (r *userRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where(query, args...).Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username = ? AND active = ?", username, true)
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ? AND active = ?", email, true)
}

func (r *userRepository) List(ctx context.Context, page PageRequest) ([]models.User, int64, error) {
	return r.paged(ctx, page, r.db.WithContext(ctx).Model(&models.User{}).Where("active = ?", true))
}

// Search matches the query case-insensitively against username, email, and
// both name fields of active users.
func (r *userRepository) Search(ctx context.Context, query string, page PageRequest) ([]models.User, int64, error) {
	pattern := likePattern(query)
	return r.paged(ctx, page, r.db.WithContext(ctx).Model(&models.User{}).
		Where("active = ? AND (LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?)",
			true, pattern, pattern, pattern, pattern))
}

func (r *userRepository) paged(ctx context.Context, page PageRequest, tx *gorm.DB) ([]models.User, int64, error) {
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	limit, offset := page.limitOffset()
	var users []models.User
	err := tx.
		Order(page.orderClause(userSortColumns, "created_at DESC")).
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return users, total, nil
}

func (r *userRepository) FindRegisteredSince(ctx context.Context, since time.Time) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("created_at >= ? AND active = ?", since, true).
		Order("created_at").
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// FindInactiveSince returns users whose last login predates the given
// instant, including users who have never logged in at all.
func (r *userRepository) FindInactiveSince(ctx context.Context, before time.Time) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("(last_login_at < ? OR last_login_at IS NULL) AND active = ?", before, true).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) CountRegisteredSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *userRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("active = ?", true).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// pointUpdate issues a single server-side UPDATE for the given columns.
func (r *userRepository) pointUpdate(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumns(updates)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, loginTime time.Time) error {
	return r.pointUpdate(ctx, id, map[string]any{"last_login_at": loginTime})
}

// MarkEmailVerified flips the verified flag and clears the verification
// token in one statement; the token is single-use and cannot be replayed
// once cleared.
func (r *userRepository) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	return r.pointUpdate(ctx, id, map[string]any{
		"email_verified":           true,
		"email_verification_token": nil,
	})
}

func (r *userRepository) SetLoginAttempts(ctx context.Context, id uuid.UUID, attempts int) error {
	return r.pointUpdate(ctx, id, map[string]any{"login_attempts": attempts})
}

func (r *userRepository) LockAccount(ctx context.Context, id uuid.UUID, until time.Time) error {
	return r.pointUpdate(ctx, id, map[string]any{"account_locked_until": until})
}

func (r *userRepository) SetPasswordResetToken(ctx context.Context, id uuid.UUID, token string) error {
	return r.pointUpdate(ctx, id, map[string]any{"password_reset_token": token})
}

// ClearPasswordReset installs the new password hash and clears the reset
// token in one statement so a consumed token cannot be reused.
func (r *userRepository) ClearPasswordReset(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.pointUpdate(ctx, id, map[string]any{
		"password_hash":        passwordHash,
		"password_reset_token": nil,
		"login_attempts":       0,
		"account_locked_until": nil,
	})
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			middleware.RepositoryConflicts.WithLabelValues("users").Inc()
			return models.NewConflictError("Username or email already in use")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			middleware.RepositoryConflicts.WithLabelValues("users").Inc()
			return models.NewConflictError("Username or email already in use")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.pointUpdate(ctx, id, map[string]any{"active": false})
}

func (r *userRepository) AddFavoriteTopic(ctx context.Context, userID, topicID uuid.UUID) error {
	user := models.User{AuditBase: models.AuditBase{ID: userID}}
	topic := models.Topic{AuditBase: models.AuditBase{ID: topicID}}
	err := r.db.WithContext(ctx).Model(&user).
		Association("FavoriteTopics").
		Append(&topic)
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) RemoveFavoriteTopic(ctx context.Context, userID, topicID uuid.UUID) error {
	user := models.User{AuditBase: models.AuditBase{ID: userID}}
	topic := models.Topic{AuditBase: models.AuditBase{ID: topicID}}
	err := r.db.WithContext(ctx).Model(&user).
		Association("FavoriteTopics").
		Delete(&topic)
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListFavorites returns the active topics the user has bookmarked. Favorites
// are an unordered set; results come back alphabetically for stable output.
func (r *userRepository) ListFavorites(ctx context.Context, userID uuid.UUID) ([]models.Topic, error) {
	user := models.User{AuditBase: models.AuditBase{ID: userID}}
	var topics []models.Topic
	err := r.db.WithContext(ctx).Model(&user).
		Where("active = ?", true).
		Order("name").
		Association("FavoriteTopics").
		Find(&topics)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return topics, nil
}
