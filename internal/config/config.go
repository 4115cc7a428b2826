// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs to start.
type Config struct {
	// Port the HTTP server listens on.
	Port int

	// DBPath is the SQLite database file location.
	DBPath string

	// JWTSecret signs session tokens. Must be set outside development.
	JWTSecret string

	// TokenDuration is how long session tokens stay valid.
	TokenDuration time.Duration

	// RedisAddr enables the Redis room-view cache when non-empty; the
	// in-memory cache is used otherwise.
	RedisAddr string

	// RedisPassword authenticates against Redis when required.
	RedisPassword string

	// CORSOrigin is the allowed browser origin for the API.
	CORSOrigin string
}

// Load reads configuration from a .env file (if present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	cfg := &Config{
		Port:          getEnvInt("PORT", 8080),
		DBPath:        getEnv("DB_PATH", "./data/roomledger.db"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		TokenDuration: 24 * time.Hour,
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		CORSOrigin:    getEnv("CORS_ORIGIN", "http://localhost:3000"),
	}

	if d := getEnv("TOKEN_DURATION", ""); d != "" {
		dur, err := time.ParseDuration(d)
		if err != nil {
			return nil, fmt.Errorf("invalid TOKEN_DURATION %q: %w", d, err)
		}
		cfg.TokenDuration = dur
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("Invalid integer env value, using fallback", "key", key, "value", value)
		return fallback
	}
	return n
}
