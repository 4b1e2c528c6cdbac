package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"infinity/internal/database"
	"infinity/internal/models"
	"infinity/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testPassword = "Str0ng-Passw0rd!"

func setupUserService(t *testing.T) (*UserService, *TopicService) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	userRepo := repository.NewUserRepository(db)
	topicRepo := repository.NewTopicRepository(db)
	return NewUserService(userRepo, topicRepo), NewTopicService(topicRepo)
}

func registerTestUser(t *testing.T, svc *UserService, username, email string) *models.User {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    email,
		Password: testPassword,
	})
	require.NoError(t, err)
	return user
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestUserService_Register(t *testing.T) {
	svc, _ := setupUserService(t)
	ctx := context.Background()

	user := registerTestUser(t, svc, "ada", "ada@example.com")

	assert.Equal(t, models.RoleUser, user.Role)
	assert.False(t, user.EmailVerified)
	require.NotNil(t, user.EmailVerificationToken)
	assert.Equal(t, models.DefaultPreferences(), user.Preferences)

	// the stored credential is a bcrypt hash, never the raw password
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(testPassword)))

	_, err := svc.Register(ctx, RegisterInput{
		Username: "ada", Email: "new@example.com", Password: testPassword,
	})
	assertCode(t, err, "CONFLICT")

	_, err = svc.Register(ctx, RegisterInput{
		Username: "ada2", Email: "ada@example.com", Password: testPassword,
	})
	assertCode(t, err, "CONFLICT")
}

func TestUserService_RegisterValidation(t *testing.T) {
	svc, _ := setupUserService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"missing username", RegisterInput{Email: "a@b.co", Password: testPassword}},
		{"bad username", RegisterInput{Username: "_ada", Email: "a@b.co", Password: testPassword}},
		{"bad email", RegisterInput{Username: "ada", Email: "nope", Password: testPassword}},
		{"weak password", RegisterInput{Username: "ada", Email: "a@b.co", Password: "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.input)
			assertCode(t, err, "VALIDATION_ERROR")
		})
	}
}

func TestUserService_AuthenticateLockout(t *testing.T) {
	svc, _ := setupUserService(t)
	ctx := context.Background()

	now := time.Now()
	svc.now = func() time.Time { return now }

	registerTestUser(t, svc, "ada", "ada@example.com")

	// five failures lock the account
	for i := 0; i < maxLoginAttempts; i++ {
		_, err := svc.Authenticate(ctx, "ada", "wrong-password")
		assertCode(t, err, "UNAUTHORIZED")
	}

	// even the correct password is rejected while locked
	_, err := svc.Authenticate(ctx, "ada", testPassword)
	assertCode(t, err, "UNAUTHORIZED")

	// after the lockout window the correct password works again
	now = now.Add(lockoutDuration + time.Minute)
	user, err := svc.Authenticate(ctx, "ada", testPassword)
	require.NoError(t, err)
	assert.Zero(t, user.LoginAttempts)
	require.NotNil(t, user.LastLoginAt)
}

func TestUserService_AuthenticateByEmailAndFailureReset(t *testing.T) {
	svc, _ := setupUserService(t)
	ctx := context.Background()

	registerTestUser(t, svc, "ada", "ada@example.com")

	_, err := svc.Authenticate(ctx, "ada", "wrong-password")
	assertCode(t, err, "UNAUTHORIZED")

	// a successful login resets the attempt counter
	user, err := svc.Authenticate(ctx, "ada@example.com", testPassword)
	require.NoError(t, err)
	assert.Zero(t, user.LoginAttempts)

	_, err = svc.Authenticate(ctx, "nobody", testPassword)
	assertCode(t, err, "UNAUTHORIZED")
}

func TestUserService_VerifyEmailSingleUse(t *testing.T) {
	svc, _ := setupUserService(t)
	ctx := context.Background()

	user := registerTestUser(t, svc, "ada", "ada@example.com")
	token := *user.EmailVerificationToken

	require.NoError(t, svc.VerifyEmail(ctx, token))

	verified, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, verified.EmailVerified)

	// replaying the consumed token fails
	err = svc.VerifyEmail(ctx, token)
	assertCode(t, err, "VALIDATION_ERROR")
}

func TestUserService_PasswordReset(t *testing.T) {
	svc, _ := setupUserService(t)
	ctx := context.Background()

	registerTestUser(t, svc, "ada", "ada@example.com")

	// unknown address reports success without a token
	token, err := svc.RequestPasswordReset(ctx, "stranger@example.com")
	require.NoError(t, err)
	assert.Empty(t, token)

	token, err = svc.RequestPasswordReset(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	newPassword := "An0ther-Passw0rd!"
	require.NoError(t, svc.ResetPassword(ctx, token, newPassword))

	_, err = svc.Authenticate(ctx, "ada", testPassword)
	assertCode(t, err, "UNAUTHORIZED")
	_, err = svc.Authenticate(ctx, "ada", newPassword)
	require.NoError(t, err)

	// the reset token is single-use
	err = svc.ResetPassword(ctx, token, newPassword)
	assertCode(t, err, "VALIDATION_ERROR")
}

func TestUserService_UpdatePreferences(t *testing.T) {
	svc, _ := setupUserService(t)
	ctx := context.Background()

	user := registerTestUser(t, svc, "ada", "ada@example.com")

	prefs := user.Preferences
	prefs.LearningStyle = models.StyleVisual
	prefs.DailyGoalMinutes = 45
	prefs.PreferredSessionTime = "18:30"

	updated, err := svc.UpdatePreferences(ctx, user.ID, prefs)
	require.NoError(t, err)
	assert.Equal(t, models.StyleVisual, updated.Preferences.LearningStyle)
	assert.Equal(t, 45, updated.Preferences.DailyGoalMinutes)

	prefs.LearningStyle = "TELEPATHIC"
	_, err = svc.UpdatePreferences(ctx, user.ID, prefs)
	assertCode(t, err, "VALIDATION_ERROR")

	prefs.LearningStyle = models.StyleVisual
	prefs.DailyGoalMinutes = 0
	_, err = svc.UpdatePreferences(ctx, user.ID, prefs)
	assertCode(t, err, "VALIDATION_ERROR")

	prefs.DailyGoalMinutes = 30
	prefs.PreferredSessionTime = "25:99"
	_, err = svc.UpdatePreferences(ctx, user.ID, prefs)
	assertCode(t, err, "VALIDATION_ERROR")
}

func TestUserService_Favorites(t *testing.T) {
	svc, topics := setupUserService(t)
	ctx := context.Background()

	user := registerTestUser(t, svc, "ada", "ada@example.com")

	topic, err := topics.CreateTopic(ctx, CreateTopicInput{
		Name: "Number Theory", Category: "Mathematics",
	})
	require.NoError(t, err)

	require.NoError(t, svc.AddFavorite(ctx, user.ID, topic.ID))

	favorites, err := svc.ListFavorites(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, "Number Theory", favorites[0].Name)

	require.NoError(t, svc.RemoveFavorite(ctx, user.ID, topic.ID))
	favorites, err = svc.ListFavorites(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, favorites)

	// a deleted topic cannot be favorited
	require.NoError(t, topics.DeleteTopic(ctx, topic.ID))
	err = svc.AddFavorite(ctx, user.ID, topic.ID)
	assertCode(t, err, "NOT_FOUND")
}

func TestUserService_Stats(t *testing.T) {
	svc, _ := setupUserService(t)
	ctx := context.Background()

	registerTestUser(t, svc, "ada", "ada@example.com")
	registerTestUser(t, svc, "grace", "grace@example.com")

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.ActiveUsers)
	assert.EqualValues(t, 2, stats.NewLast7Days)
	assert.EqualValues(t, 2, stats.NewLast30Days)
}

func TestUserService_UpdateProfile(t *testing.T) {
	svc, _ := setupUserService(t)
	ctx := context.Background()

	user := registerTestUser(t, svc, "ada", "ada@example.com")
	registerTestUser(t, svc, "grace", "grace@example.com")

	first := "Ada"
	updated, err := svc.UpdateProfile(ctx, UpdateProfileInput{
		UserID:    user.ID,
		FirstName: &first,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", updated.FirstName)
	assert.Equal(t, "ada", updated.Username)

	_, err = svc.UpdateProfile(ctx, UpdateProfileInput{
		UserID:   user.ID,
		Username: "grace",
	})
	assertCode(t, err, "CONFLICT")
}
