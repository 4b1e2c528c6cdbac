package service

import (
	"context"
	"time"

	"infinity/internal/middleware"
	"infinity/internal/models"
	"infinity/internal/repository"
	"infinity/internal/validation"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxLoginAttempts = 5
	lockoutDuration  = 15 * time.Minute
)

// UserService implements account lifecycle: registration, authentication with
// a lockout policy, email verification, password reset, profile and
// preference updates, and topic favorites.
type UserService struct {
	userRepo  repository.UserRepository
	topicRepo repository.TopicRepository
	now       func() time.Time
}

func NewUserService(userRepo repository.UserRepository, topicRepo repository.TopicRepository) *UserService {
	return &UserService{
		userRepo:  userRepo,
		topicRepo: topicRepo,
		now:       time.Now,
	}
}

type RegisterInput struct {
	Username  string `validate:"required"`
	Email     string `validate:"required"`
	Password  string `validate:"required"`
	FirstName string `validate:"max=100"`
	LastName  string `validate:"max=100"`
}

type UpdateProfileInput struct {
	UserID    uuid.UUID
	Username  string
	FirstName *string
	LastName  *string
}

// UserStats is the aggregate block served to administrators.
type UserStats struct {
	ActiveUsers   int64 `json:"active_users"`
	NewLast7Days  int64 `json:"new_last_7_days"`
	NewLast30Days int64 `json:"new_last_30_days"`
}

// Register creates a new account. Uniqueness is checked up front for a clear
// error message; the database unique indexes remain the authority, so a
// concurrent duplicate still surfaces as a conflict from Create.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	taken, err := s.userRepo.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewConflictError("Username already in use")
	}
	taken, err = s.userRepo.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewConflictError("Email already in use")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := models.NewUser(in.Username, in.Email, string(hash))
	user.FirstName = in.FirstName
	user.LastName = in.LastName
	token := uuid.New().String()
	user.EmailVerificationToken = &token

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Authenticate verifies credentials against a username or email identifier.
// Five consecutive failures lock the account for fifteen minutes; any
// successful login resets the attempt counter and stamps the login time.
func (s *UserService) Authenticate(ctx context.Context, identifier, password string) (*models.User, error) {
	if identifier == "" || password == "" {
		return nil, models.NewValidationError("identifier and password are required")
	}

	user, err := s.userRepo.GetByUsernameOrEmail(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}

	now := s.now()
	if user.Locked(now) {
		return nil, models.NewUnauthorizedError("Account temporarily locked, try again later")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		attempts := user.LoginAttempts + 1
		if err := s.userRepo.SetLoginAttempts(ctx, user.ID, attempts); err != nil {
			return nil, err
		}
		if attempts >= maxLoginAttempts {
			if err := s.userRepo.LockAccount(ctx, user.ID, now.Add(lockoutDuration)); err != nil {
				return nil, err
			}
			if err := s.userRepo.SetLoginAttempts(ctx, user.ID, 0); err != nil {
				return nil, err
			}
			middleware.Logger.WarnContext(ctx, "account locked after repeated login failures",
				"user_id", user.ID)
		}
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}

	if user.LoginAttempts != 0 {
		if err := s.userRepo.SetLoginAttempts(ctx, user.ID, 0); err != nil {
			return nil, err
		}
	}
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LoginAttempts = 0
	user.LastLoginAt = &now
	return user, nil
}

// VerifyEmail consumes a verification token. The repository clears the token
// in the same statement that sets the flag, so a second use of the same token
// no longer matches any account.
func (s *UserService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return models.NewValidationError("verification token is required")
	}
	user, err := s.userRepo.GetByEmailVerificationToken(ctx, token)
	if err != nil {
		return err
	}
	if user == nil {
		return models.NewValidationError("Invalid or already used verification token")
	}
	return s.userRepo.MarkEmailVerified(ctx, user.ID)
}

// RequestPasswordReset issues a reset token for the given email. It reports
// success even when no account matches, so the endpoint does not reveal which
// addresses are registered. The returned token is empty in that case.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", nil
	}

	token := uuid.New().String()
	if err := s.userRepo.SetPasswordResetToken(ctx, user.ID, token); err != nil {
		return "", err
	}
	return token, nil
}

// ResetPassword consumes a reset token and installs the new password. The
// token, attempt counter, and lockout are cleared in the same statement.
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return models.NewValidationError("reset token is required")
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return models.NewValidationError(err.Error())
	}

	user, err := s.userRepo.GetByPasswordResetToken(ctx, token)
	if err != nil {
		return err
	}
	if user == nil {
		return models.NewValidationError("Invalid or already used reset token")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	return s.userRepo.ClearPasswordReset(ctx, user.ID, string(hash))
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Username != "" && in.Username != user.Username {
		if err := validation.ValidateUsername(in.Username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		taken, err := s.userRepo.ExistsByUsername(ctx, in.Username)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, models.NewConflictError("Username already in use")
		}
		user.Username = in.Username
	}
	if in.FirstName != nil {
		if len(*in.FirstName) > 100 {
			return nil, models.NewValidationError("first name must not exceed 100 characters")
		}
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		if len(*in.LastName) > 100 {
			return nil, models.NewValidationError("last name must not exceed 100 characters")
		}
		user.LastName = *in.LastName
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdatePreferences replaces the user's study preferences wholesale. Callers
// send the complete preference block; partial updates go through the handler
// merging into the current set first.
func (s *UserService) UpdatePreferences(ctx context.Context, userID uuid.UUID, prefs models.Preferences) (*models.User, error) {
	if !prefs.LearningStyle.Valid() {
		return nil, models.NewValidationError("unknown learning style")
	}
	if !prefs.DifficultyPreference.Valid() {
		return nil, models.NewValidationError("unknown difficulty preference")
	}
	if prefs.DailyGoalMinutes < 1 || prefs.DailyGoalMinutes > 480 {
		return nil, models.NewValidationError("daily goal must be between 1 and 480 minutes")
	}
	if prefs.CardsPerSession < 1 || prefs.CardsPerSession > 100 {
		return nil, models.NewValidationError("cards per session must be between 1 and 100")
	}
	if err := validation.ValidateSessionTime(prefs.PreferredSessionTime); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if prefs.Timezone == "" {
		prefs.Timezone = "UTC"
	}
	if prefs.LanguageCode == "" {
		prefs.LanguageCode = "en"
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Preferences = prefs
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// AddFavorite bookmarks an active topic for the user.
func (s *UserService) AddFavorite(ctx context.Context, userID, topicID uuid.UUID) error {
	topic, err := s.topicRepo.GetByID(ctx, topicID)
	if err != nil {
		return err
	}
	if !topic.Active {
		return models.NewNotFoundError("Topic", topicID)
	}
	return s.userRepo.AddFavoriteTopic(ctx, userID, topicID)
}

func (s *UserService) RemoveFavorite(ctx context.Context, userID, topicID uuid.UUID) error {
	return s.userRepo.RemoveFavoriteTopic(ctx, userID, topicID)
}

func (s *UserService) ListFavorites(ctx context.Context, userID uuid.UUID) ([]models.Topic, error) {
	return s.userRepo.ListFavorites(ctx, userID)
}

func (s *UserService) ListUsers(ctx context.Context, page repository.PageRequest) ([]models.User, int64, error) {
	return s.userRepo.List(ctx, page)
}

func (s *UserService) SearchUsers(ctx context.Context, query string, page repository.PageRequest) ([]models.User, int64, error) {
	if query == "" {
		return s.userRepo.List(ctx, page)
	}
	return s.userRepo.Search(ctx, query, page)
}

func (s *UserService) Stats(ctx context.Context) (*UserStats, error) {
	now := s.now()

	active, err := s.userRepo.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	week, err := s.userRepo.CountRegisteredSince(ctx, now.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	month, err := s.userRepo.CountRegisteredSince(ctx, now.AddDate(0, 0, -30))
	if err != nil {
		return nil, err
	}

	return &UserStats{
		ActiveUsers:   active,
		NewLast7Days:  week,
		NewLast30Days: month,
	}, nil
}

// DeactivateUser soft-deletes the account. The row stays reachable by raw
// identifier for audit reads.
func (s *UserService) DeactivateUser(ctx context.Context, id uuid.UUID) error {
	return s.userRepo.Delete(ctx, id)
}
