// Package config loads process configuration from the environment,
// grounded on the teacher's config.Config/Load (env-var-with-default
// pattern via godotenv), trimmed to the knobs the game core and its
// HTTP/WS front door actually read.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every environment-derived setting the server needs.
type Config struct {
	Environment string
	Port        string
	FrontendURL string

	DatabaseURL string
	RedisURL    string // empty disables the Redis checkpoint cache and event bus

	// DeckCount is the number of 52-card decks merged into a new game.
	DeckCount int

	// SessionSecret signs reconnect seat tokens (internal/session).
	SessionSecret string

	// MigrateOnStart runs pending migrations against DatabaseURL at boot.
	MigrateOnStart bool
}

// Load reads Config from the environment, applying the same defaults a
// developer's .env would set.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Environment: getEnv("APP_ENV", "development"),
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/rachel?sslmode=disable"),
		RedisURL:    getEnv("REDIS_URL", ""),

		DeckCount: getEnvInt("DECK_COUNT", 1),

		SessionSecret: getEnv("SESSION_SECRET", "change-me-in-production"),

		MigrateOnStart: getEnv("MIGRATE_ON_START", "false") == "true",
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
