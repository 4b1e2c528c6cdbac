// Package bootstrap wires up runtime dependencies for the application.
package bootstrap

import (
	"errors"
	"fmt"
	"strings"

	"infinity/internal/cache"
	"infinity/internal/config"
	"infinity/internal/database"
	"infinity/internal/middleware"
	"infinity/internal/models"
	"infinity/internal/seed"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedDemoData bool
	SeedOptions  seed.Options
}

// InitRuntime connects to the database and Redis and optionally seeds demo
// data. The Redis client may be nil if the server is unreachable; the
// application degrades to uncached operation.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := ensureDevAdmin(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development admin: %w", err)
	}

	if opts.SeedDemoData {
		if err := seed.Run(db, opts.SeedOptions); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, r, nil
}

// ensureDevAdmin guarantees a local admin account in development. The account
// is looked up by username so repeated startups are idempotent.
func ensureDevAdmin(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapAdmin {
		return nil
	}

	username := strings.TrimSpace(cfg.DevAdminUsername)
	if username == "" {
		username = "infinity_admin"
	}
	email := strings.TrimSpace(strings.ToLower(cfg.DevAdminEmail))
	if email == "" {
		email = "admin@infinity.local"
	}
	password := cfg.DevAdminPassword
	if password == "" {
		return fmt.Errorf("DEV_ADMIN_PASSWORD must be set when DEV_BOOTSTRAP_ADMIN is enabled")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if err := db.Transaction(func(tx *gorm.DB) error {
		var existing models.User
		findErr := tx.Where("username = ?", username).First(&existing).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			admin := models.NewUser(username, email, string(hash))
			admin.Role = models.RoleAdmin
			admin.EmailVerified = true
			return tx.Create(admin).Error
		case findErr != nil:
			return findErr
		default:
			return tx.Model(&models.User{}).
				Where("id = ?", existing.ID).
				Updates(map[string]any{
					"role":   models.RoleAdmin,
					"active": true,
				}).Error
		}
	}); err != nil {
		return err
	}

	middleware.Logger.Info("development admin bootstrap ensured", "username", username)
	return nil
}
