package server

import (
	"time"

	"infinity/internal/models"

	"github.com/gofiber/fiber/v2"
)

// PublicHealth handles GET /api/public/health
func (s *Server) PublicHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "UP",
		"timestamp": time.Now(),
		"service":   serviceName,
		"version":   serviceVersion,
	})
}

// Ping handles GET /api/public/ping
func (s *Server) Ping(c *fiber.Ctx) error {
	return c.SendString("pong")
}

// Echo handles POST /api/public/echo, reflecting the posted JSON body.
func (s *Server) Echo(c *fiber.Ctx) error {
	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	return c.JSON(fiber.Map{
		"received":  body,
		"timestamp": time.Now(),
		"message":   "Echo successful",
	})
}
