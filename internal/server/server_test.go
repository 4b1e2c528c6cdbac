package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"infinity/internal/config"
	"infinity/internal/database"
	"infinity/internal/middleware"
	"infinity/internal/models"
	"infinity/internal/repository"
	"infinity/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testPassword = "Str0ng-Passw0rd!"

// newTestServer builds a server over an in-memory database with routes
// registered but without the global middleware chain (no limiter, no metrics
// registry churn between tests).
func newTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		Port:      "8080",
		JWTSecret: "test-secret-key-at-least-32-chars!!",
		DBName:    "infinity",
		Env:       "test",
	}
	middleware.InitMiddleware(cfg)

	userRepo := repository.NewUserRepository(db)
	topicRepo := repository.NewTopicRepository(db)
	cardRepo := repository.NewLearningCardRepository(db)

	s := &Server{
		config:       cfg,
		db:           db,
		userRepo:     userRepo,
		topicRepo:    topicRepo,
		cardRepo:     cardRepo,
		userService:  service.NewUserService(userRepo, topicRepo),
		topicService: service.NewTopicService(topicRepo),
		cardService:  service.NewCardService(cardRepo),
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return models.RespondWithError(c, models.StatusFor(err), err)
		},
	})
	s.SetupRoutes(app)
	return s, app
}

func jsonRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

// signupUser registers a user over the API and returns its bearer token and
// response body.
func signupUser(t *testing.T, app *fiber.App, username, email string) (string, map[string]any) {
	t.Helper()
	resp, err := app.Test(jsonRequest("POST", "/api/auth/signup", fiber.Map{
		"username": username,
		"email":    email,
		"password": testPassword,
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	user, _ := body["user"].(map[string]any)
	require.NotNil(t, user)
	return token, user
}

func TestHealthEndpoints(t *testing.T) {
	_, app := newTestServer(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/live", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "healthy", body["status"])
	checks, _ := body["checks"].(map[string]any)
	require.NotNil(t, checks)
	assert.Equal(t, "healthy", checks["database"])
	// absent redis is reported but does not fail readiness
	assert.Equal(t, "unavailable", checks["redis"])
}

func TestPublicEndpoints(t *testing.T) {
	_, app := newTestServer(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/public/health", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "UP", body["status"])
	assert.Equal(t, serviceName, body["service"])

	resp, err = app.Test(httptest.NewRequest("GET", "/api/public/ping", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(raw))

	resp, err = app.Test(jsonRequest("POST", "/api/public/echo", fiber.Map{"hello": "world"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	received, _ := body["received"].(map[string]any)
	assert.Equal(t, "world", received["hello"])
}

func TestSignupLoginFlow(t *testing.T) {
	_, app := newTestServer(t)

	token, user := signupUser(t, app, "ada", "ada@example.com")
	assert.Equal(t, "ada", user["username"])
	assert.NotContains(t, user, "password_hash", "credentials must never leave the API")

	// the issued token grants access to the profile
	req := httptest.NewRequest("GET", "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	profile := decodeBody(t, resp)
	assert.Equal(t, "ada", profile["username"])

	// duplicate username conflicts
	resp, err = app.Test(jsonRequest("POST", "/api/auth/signup", fiber.Map{
		"username": "ada", "email": "other@example.com", "password": testPassword,
	}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// login by username and by email
	for _, identifier := range []string{"ada", "ada@example.com"} {
		resp, err = app.Test(jsonRequest("POST", "/api/auth/login", fiber.Map{
			"identifier": identifier, "password": testPassword,
		}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, err = app.Test(jsonRequest("POST", "/api/auth/login", fiber.Map{
		"identifier": "ada", "password": "wrong-password",
	}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	_, app := newTestServer(t)

	paths := []struct {
		method string
		path   string
	}{
		{"GET", "/api/users/me"},
		{"PUT", "/api/users/me"},
		{"GET", "/api/users/me/favorites"},
		{"POST", "/api/topics"},
		{"PUT", "/api/cards/00000000-0000-0000-0000-000000000000"},
	}
	for _, p := range paths {
		resp, err := app.Test(jsonRequest(p.method, p.path, fiber.Map{}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "%s %s", p.method, p.path)
	}
}

func TestTopicAndCardFlow(t *testing.T) {
	_, app := newTestServer(t)
	token, _ := signupUser(t, app, "ada", "ada@example.com")

	authed := func(method, path string, body any) *http.Request {
		req := jsonRequest(method, path, body)
		req.Header.Set("Authorization", "Bearer "+token)
		return req
	}

	resp, err := app.Test(authed("POST", "/api/topics", fiber.Map{
		"name":     "Algebra",
		"category": "Mathematics",
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	topic := decodeBody(t, resp)
	topicID, _ := topic["id"].(string)
	require.NotEmpty(t, topicID)
	assert.Equal(t, string(models.DifficultyBeginner), topic["difficulty_level"])

	resp, err = app.Test(authed("POST", "/api/topics/"+topicID+"/cards", fiber.Map{
		"question":         "What is 2+2?",
		"answer":           "4",
		"difficulty_level": "BEGINNER",
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	card := decodeBody(t, resp)
	cardID, _ := card["id"].(string)
	require.NotEmpty(t, cardID)

	// card creation bumps the topic counter
	resp, err = app.Test(httptest.NewRequest("GET", "/api/topics/"+topicID, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	topic = decodeBody(t, resp)
	assert.EqualValues(t, 1, topic["total_cards_count"])

	resp, err = app.Test(httptest.NewRequest("GET", "/api/topics/"+topicID+"/cards", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	listing := decodeBody(t, resp)
	assert.EqualValues(t, 1, listing["total"])

	resp, err = app.Test(authed("DELETE", "/api/cards/"+cardID, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	// malformed and unknown IDs
	resp, err = app.Test(httptest.NewRequest("GET", "/api/topics/not-a-uuid", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/cards/"+topicID, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestRoleGates(t *testing.T) {
	s, app := newTestServer(t)
	token, _ := signupUser(t, app, "ada", "ada@example.com")

	authed := func(method, path string, body any) *http.Request {
		req := jsonRequest(method, path, body)
		req.Header.Set("Authorization", "Bearer "+token)
		return req
	}

	resp, err := app.Test(authed("POST", "/api/topics", fiber.Map{
		"name": "Algebra", "category": "Mathematics",
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	topicID, _ := decodeBody(t, resp)["id"].(string)

	// a plain user may not delete topics or read admin stats
	resp, err = app.Test(authed("DELETE", "/api/topics/"+topicID, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = app.Test(authed("GET", "/api/users/admin/stats", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// promotion to moderator unlocks deletion but not admin routes
	require.NoError(t, s.db.Model(&models.User{}).
		Where("username = ?", "ada").
		Update("role", models.RoleModerator).Error)

	resp, err = app.Test(authed("DELETE", "/api/topics/"+topicID, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(authed("GET", "/api/users/admin/stats", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	require.NoError(t, s.db.Model(&models.User{}).
		Where("username = ?", "ada").
		Update("role", models.RoleAdmin).Error)

	resp, err = app.Test(authed("GET", "/api/users/admin/stats", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestUpdatePreferencesMergesPartialBody(t *testing.T) {
	_, app := newTestServer(t)
	token, _ := signupUser(t, app, "ada", "ada@example.com")

	req := jsonRequest("PUT", "/api/users/me/preferences", fiber.Map{
		"daily_goal_minutes": 45,
	})
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	prefs, _ := body["preferences"].(map[string]any)
	require.NotNil(t, prefs)
	assert.EqualValues(t, 45, prefs["daily_goal_minutes"])
	// untouched fields keep their defaults
	assert.Equal(t, string(models.StyleMixed), prefs["learning_style"])
	assert.Equal(t, true, prefs["enable_notifications"])

	req = jsonRequest("PUT", "/api/users/me/preferences", fiber.Map{
		"daily_goal_minutes": 0,
	})
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestFavoritesEndpoints(t *testing.T) {
	_, app := newTestServer(t)
	token, _ := signupUser(t, app, "ada", "ada@example.com")

	authed := func(method, path string, body any) *http.Request {
		req := jsonRequest(method, path, body)
		req.Header.Set("Authorization", "Bearer "+token)
		return req
	}

	resp, err := app.Test(authed("POST", "/api/topics", fiber.Map{
		"name": "Number Theory", "category": "Mathematics",
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	topicID, _ := decodeBody(t, resp)["id"].(string)

	resp, err = app.Test(authed("POST", "/api/users/me/favorites/"+topicID, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(authed("GET", "/api/users/me/favorites", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	items, _ := decodeBody(t, resp)["items"].([]any)
	assert.Len(t, items, 1)

	resp, err = app.Test(authed("DELETE", "/api/users/me/favorites/"+topicID, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(authed("GET", "/api/users/me/favorites", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	items, _ = decodeBody(t, resp)["items"].([]any)
	assert.Empty(t, items)

	resp, err = app.Test(authed("POST", "/api/users/me/favorites/not-a-uuid", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestEmailVerificationAndPasswordResetEndpoints(t *testing.T) {
	s, app := newTestServer(t)
	signupUser(t, app, "ada", "ada@example.com")

	var user models.User
	require.NoError(t, s.db.First(&user, "username = ?", "ada").Error)
	require.NotNil(t, user.EmailVerificationToken)

	resp, err := app.Test(jsonRequest("POST", "/api/auth/verify-email", fiber.Map{
		"token": *user.EmailVerificationToken,
	}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// reset requests never reveal whether the address exists, and never the token
	resp, err = app.Test(jsonRequest("POST", "/api/auth/password-reset/request", fiber.Map{
		"email": "stranger@example.com",
	}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(jsonRequest("POST", "/api/auth/password-reset/request", fiber.Map{
		"email": "ada@example.com",
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.NotContains(t, body, "token")

	require.NoError(t, s.db.First(&user, "username = ?", "ada").Error)
	require.NotNil(t, user.PasswordResetToken)

	newPassword := "An0ther-Passw0rd!"
	resp, err = app.Test(jsonRequest("POST", "/api/auth/password-reset/confirm", fiber.Map{
		"token":        *user.PasswordResetToken,
		"new_password": newPassword,
	}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(jsonRequest("POST", "/api/auth/login", fiber.Map{
		"identifier": "ada", "password": newPassword,
	}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
