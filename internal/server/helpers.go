package server

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"infinity/internal/models"
	"infinity/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseUUIDParam extracts a route parameter as a UUID. On failure it writes a
// 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func parseUUIDParam(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return uuid.Nil, errResponseWritten
	}
	return id, nil
}

func humanizeParam(param string) string {
	switch param {
	case "id":
		return "ID"
	case "topicId":
		return "topic ID"
	default:
		return param
	}
}

// currentUserID reads the authenticated user ID placed into locals by the
// auth middleware. On failure it writes a 401 JSON response and returns
// errResponseWritten.
func (s *Server) currentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	raw, ok := c.Locals("userID").(string)
	if !ok {
		_ = models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
		return uuid.Nil, errResponseWritten
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid user identity"))
		return uuid.Nil, errResponseWritten
	}
	return id, nil
}

// parsePage extracts page/size/sort query parameters.
func parsePage(c *fiber.Ctx) repository.PageRequest {
	return repository.PageRequest{
		Page: c.QueryInt("page", 1),
		Size: c.QueryInt("size", 0),
		Sort: c.Query("sort"),
	}
}

// pagedResponse is the uniform envelope for paginated listings.
func pagedResponse(items any, total int64, page repository.PageRequest) fiber.Map {
	p := page.Page
	if p < 1 {
		p = 1
	}
	return fiber.Map{
		"items": items,
		"total": total,
		"page":  p,
	}
}

// respondError maps an application error to its HTTP status and writes the
// standard error envelope.
func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusFor(err), err)
}

// generateToken creates a JWT for the given user.
func (s *Server) generateToken(user *models.User) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      user.ID.String(),
		"username": user.Username,
		"role":     string(user.Role),
		"iss":      "infinity-api",
		"aud":      "infinity-client",
		"exp":      now.Add(time.Hour * 24 * 7).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// generateJTI creates a unique JWT ID to prevent replay attacks.
func generateJTI() string {
	return strconv.FormatInt(time.Now().Unix(), 10) + "-" + uuid.New().String()[:8]
}
