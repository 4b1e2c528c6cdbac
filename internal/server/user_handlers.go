package server

import (
	"infinity/internal/models"
	"infinity/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID, err := s.currentUserID(c)
	if err != nil {
		return nil
	}

	user, err := s.userService.GetUser(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	userID, err := s.currentUserID(c)
	if err != nil {
		return nil
	}

	var req struct {
		Username  string  `json:"username"`
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateProfile(c.Context(), service.UpdateProfileInput{
		UserID:    userID,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyPreferences handles PUT /api/users/me/preferences. The request body
// is merged into the user's current preference set, so clients may send only
// the fields they change.
func (s *Server) UpdateMyPreferences(c *fiber.Ctx) error {
	userID, err := s.currentUserID(c)
	if err != nil {
		return nil
	}

	current, err := s.userService.GetUser(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}

	prefs := current.Preferences
	if err := c.BodyParser(&prefs); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdatePreferences(c.Context(), userID, prefs)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// ListMyFavorites handles GET /api/users/me/favorites
func (s *Server) ListMyFavorites(c *fiber.Ctx) error {
	userID, err := s.currentUserID(c)
	if err != nil {
		return nil
	}

	topics, err := s.userService.ListFavorites(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"items": topics})
}

// AddFavorite handles POST /api/users/me/favorites/:topicId
func (s *Server) AddFavorite(c *fiber.Ctx) error {
	userID, err := s.currentUserID(c)
	if err != nil {
		return nil
	}
	topicID, err := parseUUIDParam(c, "topicId")
	if err != nil {
		return nil
	}

	if err := s.userService.AddFavorite(c.Context(), userID, topicID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RemoveFavorite handles DELETE /api/users/me/favorites/:topicId
func (s *Server) RemoveFavorite(c *fiber.Ctx) error {
	userID, err := s.currentUserID(c)
	if err != nil {
		return nil
	}
	topicID, err := parseUUIDParam(c, "topicId")
	if err != nil {
		return nil
	}

	if err := s.userService.RemoveFavorite(c.Context(), userID, topicID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListUsers handles GET /api/users/admin
func (s *Server) ListUsers(c *fiber.Ctx) error {
	page := parsePage(c)
	users, total, err := s.userService.ListUsers(c.Context(), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(pagedResponse(users, total, page))
}

// SearchUsers handles GET /api/users/admin/search?q=
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	page := parsePage(c)
	users, total, err := s.userService.SearchUsers(c.Context(), c.Query("q"), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(pagedResponse(users, total, page))
}

// GetUserStats handles GET /api/users/admin/stats
func (s *Server) GetUserStats(c *fiber.Ctx) error {
	stats, err := s.userService.Stats(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}
