package server

import (
	"infinity/internal/models"
	"infinity/internal/service"

	"github.com/gofiber/fiber/v2"
)

type topicRequest struct {
	Name            *string                 `json:"name"`
	Description     *string                 `json:"description"`
	Category        *string                 `json:"category"`
	DifficultyLevel *models.DifficultyLevel `json:"difficulty_level"`
	Tags            *string                 `json:"tags"`
	Prerequisites   *string                 `json:"prerequisites"`
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// CreateTopic handles POST /api/topics
func (s *Server) CreateTopic(c *fiber.Ctx) error {
	var req topicRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	in := service.CreateTopicInput{
		Name:          strOrEmpty(req.Name),
		Description:   strOrEmpty(req.Description),
		Category:      strOrEmpty(req.Category),
		Tags:          strOrEmpty(req.Tags),
		Prerequisites: strOrEmpty(req.Prerequisites),
	}
	if req.DifficultyLevel != nil {
		in.DifficultyLevel = *req.DifficultyLevel
	}

	topic, err := s.topicService.CreateTopic(c.Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(topic)
}

// UpdateTopic handles PUT /api/topics/:id
func (s *Server) UpdateTopic(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return nil
	}

	var req topicRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	topic, err := s.topicService.UpdateTopic(c.Context(), service.UpdateTopicInput{
		TopicID:         id,
		Name:            req.Name,
		Description:     req.Description,
		Category:        req.Category,
		DifficultyLevel: req.DifficultyLevel,
		Tags:            req.Tags,
		Prerequisites:   req.Prerequisites,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(topic)
}

// DeleteTopic handles DELETE /api/topics/:id
func (s *Server) DeleteTopic(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return nil
	}

	if err := s.topicService.DeleteTopic(c.Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetTopic handles GET /api/topics/:id
func (s *Server) GetTopic(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return nil
	}

	topic, err := s.topicService.GetTopic(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(topic)
}

// GetTopicWithCards handles GET /api/topics/:id/full
func (s *Server) GetTopicWithCards(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return nil
	}

	topic, err := s.topicService.GetTopicWithCards(c.Context(), id, c.QueryInt("card_limit", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(topic)
}

// ListTopics handles GET /api/topics with optional category and difficulty
// filters.
func (s *Server) ListTopics(c *fiber.Ctx) error {
	page := parsePage(c)
	filter := service.TopicFilter{
		Category:   c.Query("category"),
		Difficulty: models.DifficultyLevel(c.Query("difficulty")),
	}

	topics, total, err := s.topicService.ListTopics(c.Context(), filter, page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(pagedResponse(topics, total, page))
}

// SearchTopics handles GET /api/topics/search?q=
func (s *Server) SearchTopics(c *fiber.Ctx) error {
	page := parsePage(c)
	topics, total, err := s.topicService.SearchTopics(c.Context(), c.Query("q"), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(pagedResponse(topics, total, page))
}

// GetCategories handles GET /api/topics/categories
func (s *Server) GetCategories(c *fiber.Ctx) error {
	categories, err := s.topicService.Categories(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"categories": categories})
}

// GetCategoryStats handles GET /api/topics/categories/stats
func (s *Server) GetCategoryStats(c *fiber.Ctx) error {
	stats, err := s.topicService.CategoryStats(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"categories": stats})
}

// GetTopicsWithMinimumCards handles GET /api/topics/discover?min_cards=
func (s *Server) GetTopicsWithMinimumCards(c *fiber.Ctx) error {
	topics, err := s.topicService.TopicsWithMinimumCards(c.Context(), c.QueryInt("min_cards", 1))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"items": topics})
}
