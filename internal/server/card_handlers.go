package server

import (
	"infinity/internal/models"
	"infinity/internal/service"

	"github.com/gofiber/fiber/v2"
)

type cardRequest struct {
	Question         *string                 `json:"question"`
	Answer           *string                 `json:"answer"`
	Explanation      *string                 `json:"explanation"`
	Hint             *string                 `json:"hint"`
	ContentType      *models.ContentType     `json:"content_type"`
	DifficultyLevel  *models.DifficultyLevel `json:"difficulty_level"`
	Tags             *string                 `json:"tags"`
	LLMModelUsed     *string                 `json:"llm_model_used"`
	GenerationPrompt *string                 `json:"generation_prompt"`
}

// CreateCard handles POST /api/topics/:id/cards
func (s *Server) CreateCard(c *fiber.Ctx) error {
	topicID, err := parseUUIDParam(c, "id")
	if err != nil {
		return nil
	}

	var req cardRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	in := service.CreateCardInput{
		TopicID:          topicID,
		Question:         strOrEmpty(req.Question),
		Answer:           strOrEmpty(req.Answer),
		Explanation:      strOrEmpty(req.Explanation),
		Hint:             strOrEmpty(req.Hint),
		Tags:             strOrEmpty(req.Tags),
		LLMModelUsed:     strOrEmpty(req.LLMModelUsed),
		GenerationPrompt: strOrEmpty(req.GenerationPrompt),
	}
	if req.ContentType != nil {
		in.ContentType = *req.ContentType
	}
	if req.DifficultyLevel != nil {
		in.DifficultyLevel = *req.DifficultyLevel
	}

	card, err := s.cardService.CreateCard(c.Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(card)
}

// ListTopicCards handles GET /api/topics/:id/cards. An optional difficulty
// query narrows the listing without pagination.
func (s *Server) ListTopicCards(c *fiber.Ctx) error {
	topicID, err := parseUUIDParam(c, "id")
	if err != nil {
		return nil
	}

	if difficulty := c.Query("difficulty"); difficulty != "" {
		cards, err := s.cardService.ListByTopicAndDifficulty(c.Context(),
			topicID, models.DifficultyLevel(difficulty))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"items": cards})
	}

	page := parsePage(c)
	cards, total, err := s.cardService.ListByTopic(c.Context(), topicID, page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(pagedResponse(cards, total, page))
}

// ListCardsByContentType handles GET /api/cards?content_type=
func (s *Server) ListCardsByContentType(c *fiber.Ctx) error {
	contentType := models.ContentType(c.Query("content_type"))
	if contentType == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("content_type query parameter is required"))
	}

	page := parsePage(c)
	cards, total, err := s.cardService.ListByContentType(c.Context(), contentType, page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(pagedResponse(cards, total, page))
}

// GetCard handles GET /api/cards/:id
func (s *Server) GetCard(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return nil
	}

	card, err := s.cardService.GetCard(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(card)
}

// UpdateCard handles PUT /api/cards/:id
func (s *Server) UpdateCard(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return nil
	}

	var req cardRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	card, err := s.cardService.UpdateCard(c.Context(), service.UpdateCardInput{
		CardID:          id,
		Question:        req.Question,
		Answer:          req.Answer,
		Explanation:     req.Explanation,
		Hint:            req.Hint,
		ContentType:     req.ContentType,
		DifficultyLevel: req.DifficultyLevel,
		Tags:            req.Tags,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(card)
}

// DeleteCard handles DELETE /api/cards/:id
func (s *Server) DeleteCard(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return nil
	}

	if err := s.cardService.DeleteCard(c.Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
