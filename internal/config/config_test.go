package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() *Config {
	return &Config{
		Port:      "8080",
		JWTSecret: "change-me-in-production",
		DBName:    "infinity",
		Env:       "development",
	}
}

func TestValidateDevelopmentDefaults(t *testing.T) {
	cfg := baseConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidateRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing port", func(c *Config) { c.Port = "" }, "PORT"},
		{"missing jwt secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET"},
		{"missing db name", func(c *Config) { c.DBName = "" }, "DB_NAME"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateProductionHardening(t *testing.T) {
	strongSecret := strings.Repeat("s", 32)

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"default jwt secret rejected", func(c *Config) {}, "default value"},
		{"short jwt secret rejected", func(c *Config) {
			c.JWTSecret = "short-secret"
		}, "at least 32 characters"},
		{"default db password rejected", func(c *Config) {
			c.JWTSecret = strongSecret
			c.DBPassword = "password"
		}, "DB_PASSWORD"},
		{"empty db password rejected", func(c *Config) {
			c.JWTSecret = strongSecret
			c.DBPassword = ""
		}, "DB_PASSWORD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			cfg.Env = "production"
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	cfg := baseConfig()
	cfg.Env = "production"
	cfg.JWTSecret = strongSecret
	cfg.DBPassword = "a-real-password"
	cfg.DBSSLMode = "require"
	assert.NoError(t, cfg.Validate())
}

func TestIsProduction(t *testing.T) {
	assert.True(t, (&Config{Env: "production"}).IsProduction())
	assert.True(t, (&Config{Env: "prod"}).IsProduction())
	assert.False(t, (&Config{Env: "development"}).IsProduction())
	assert.False(t, (&Config{Env: "test"}).IsProduction())
	assert.False(t, (&Config{Env: ""}).IsProduction())
}
