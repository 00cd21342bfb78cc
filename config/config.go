// Package config reads runtime configuration from the environment, with a
// .env file loaded first when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App    AppConfig
	DB     DBConfig
	Logger LoggerConfig
	Auth   AuthConfig
	Events EventsConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Host        string
	Port        string
	CORSOrigins []string
}

// DBConfig holds SQLite settings.
type DBConfig struct {
	Path string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int

	// Bootstrap credentials: when set and no users exist yet, an initial
	// administrator account is created at startup.
	AdminEmail    string
	AdminPassword string
}

// EventsConfig sizes the notification dispatch buffer.
type EventsConfig struct {
	Buffer int
}

// Load reads configuration from environment variables, applying defaults
// where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Host:        getEnv("APP_HOST", "0.0.0.0"),
			Port:        getEnv("APP_PORT", "8080"),
			CORSOrigins: splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:8080")),
		},
		DB: DBConfig{
			Path: getEnv("DB_PATH", "vacation.db"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			AdminEmail:            os.Getenv("ADMIN_EMAIL"),
			AdminPassword:         os.Getenv("ADMIN_PASSWORD"),
		},
		Events: EventsConfig{
			Buffer: getEnvAsInt("EVENT_BUFFER", 64),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
