// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"time"

	"infinity/internal/cache"
	"infinity/internal/config"
	"infinity/internal/database"
	"infinity/internal/middleware"
	"infinity/internal/models"
	"infinity/internal/repository"
	"infinity/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	serviceName    = "infinity-backend"
	serviceVersion = "1.0.0"
)

// Server holds all dependencies and provides handlers.
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus

	userRepo  repository.UserRepository
	topicRepo repository.TopicRepository
	cardRepo  repository.LearningCardRepository

	userService  *service.UserService
	topicService *service.TopicService
	cardService  *service.CardService
}

// NewServer creates a server instance, establishing its own database and
// Redis connections from the config.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	topicRepo := repository.NewTopicRepository(db)
	cardRepo := repository.NewLearningCardRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics(serviceName),
		userRepo:       userRepo,
		topicRepo:      topicRepo,
		cardRepo:       cardRepo,
	}
	s.userService = service.NewUserService(userRepo, topicRepo)
	s.topicService = service.NewTopicService(topicRepo)
	s.cardService = service.NewCardService(cardRepo)

	return s, nil
}

// SetupMiddleware configures the middleware chain for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// CORS runs before middlewares that can short-circuit (e.g. limiter) so
	// browser clients still receive CORS headers on error responses.
	app.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowMethods:     s.config.AllowedMethods,
		AllowHeaders:     s.config.AllowedHeaders,
		AllowCredentials: s.config.AllowCredentials,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they are handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Infinity Backend Metrics Dashboard",
	}))

	// Public endpoints, no auth
	public := api.Group("/public")
	public.Get("/health", s.PublicHealth)
	public.Get("/ping", s.Ping)
	public.Post("/echo", s.Echo)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/verify-email", s.VerifyEmail)
	auth.Post("/password-reset/request", middleware.RateLimit(
		s.redis, 3, 15*time.Minute, "password_reset"), s.RequestPasswordReset)
	auth.Post("/password-reset/confirm", s.ConfirmPasswordReset)

	// Topic browse routes are public; mutations require auth.
	topics := api.Group("/topics")
	topics.Get("/", s.ListTopics)
	topics.Get("/search", middleware.RateLimit(
		s.redis, 30, time.Minute, "topic_search"), s.SearchTopics)
	topics.Get("/categories", s.GetCategories)
	topics.Get("/categories/stats", s.GetCategoryStats)
	topics.Get("/discover", s.GetTopicsWithMinimumCards)
	topics.Get("/:id/cards", s.ListTopicCards)
	topics.Get("/:id/full", s.GetTopicWithCards)
	topics.Get("/:id", s.GetTopic)
	topics.Post("/", middleware.AuthRequired, s.CreateTopic)
	topics.Put("/:id", middleware.AuthRequired, s.UpdateTopic)
	topics.Delete("/:id", middleware.AuthRequired, s.ModeratorRequired(), s.DeleteTopic)
	topics.Post("/:id/cards", middleware.AuthRequired, s.CreateCard)

	// Card routes
	cards := api.Group("/cards")
	cards.Get("/", s.ListCardsByContentType)
	cards.Get("/:id", s.GetCard)
	cards.Put("/:id", middleware.AuthRequired, s.UpdateCard)
	cards.Delete("/:id", middleware.AuthRequired, s.DeleteCard)

	// User routes
	users := api.Group("/users", middleware.AuthRequired)
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	users.Put("/me/preferences", s.UpdateMyPreferences)
	users.Get("/me/favorites", s.ListMyFavorites)
	users.Post("/me/favorites/:topicId", s.AddFavorite)
	users.Delete("/me/favorites/:topicId", s.RemoveFavorite)

	// Admin routes
	admin := users.Group("/admin", s.AdminRequired())
	admin.Get("/", s.ListUsers)
	admin.Get("/search", s.SearchUsers)
	admin.Get("/stats", s.GetUserStats)
}

// LivenessCheck handles liveness probe requests.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests, pinging the database and
// Redis.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"service": serviceName,
		"version": serviceVersion,
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// ModeratorRequired rejects users below the moderator tier with 403. Must be
// placed after AuthRequired so that userID is available in locals.
func (s *Server) ModeratorRequired() fiber.Handler {
	return s.roleRequired(func(role models.UserRole) bool {
		return role.HasModeratorPrivileges()
	}, "Moderator access required")
}

// AdminRequired rejects users below the admin tier with 403.
func (s *Server) AdminRequired() fiber.Handler {
	return s.roleRequired(func(role models.UserRole) bool {
		return role.HasAdminPrivileges()
	}, "Admin access required")
}

func (s *Server) roleRequired(allowed func(models.UserRole) bool, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := s.currentUserID(c)
		if err != nil {
			return nil
		}

		role, err := s.roleByUserID(c.Context(), userID)
		if err != nil {
			return models.RespondWithError(c, models.StatusFor(err), err)
		}
		if !allowed(role) {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewUnauthorizedError(message))
		}
		return c.Next()
	}
}

func (s *Server) roleByUserID(ctx context.Context, userID uuid.UUID) (models.UserRole, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Select("role").First(&user, "id = ? AND active = ?", userID, true).Error; err != nil {
		return "", models.NewUnauthorizedError("Account not found or deactivated")
	}
	return user.Role, nil
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName: "Infinity Learning API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, models.StatusFor(err), err)
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	middleware.Logger.Info("server starting", "port", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server and closes its connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
