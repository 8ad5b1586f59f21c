package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Environment Environment

	// Server configuration
	ServerPort string
	ServerHost string

	// Model provider configuration
	OpenAIAPIKey  string
	OpenAIBaseURL string
	ChatModel     string
	ImageModel    string
	ImageSize     string
	ImageQuality  string

	// Scratch storage and static frontend
	UploadDir      string
	GeneratedDir   string
	FrontendDir    string
	MaxUploadBytes int64

	// Fan-out and provider call limits
	MaxConcurrency  int
	ModelTimeout    time.Duration
	ModelMaxRetries int

	// HTTP surface
	AllowedOrigins   []string
	RateLimitPerHour int

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Image archive
	S3BucketName string
	AWSRegion    string

	LogLevel string
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	env := GetEnvironment()
	cfg := &Config{Environment: env}

	if err := loadServerConfig(cfg); err != nil {
		return nil, fmt.Errorf("failed to load %s configuration: %w", env, err)
	}
	loadBackingServices(cfg, env)

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadServerConfig(cfg *Config) error {
	cfg.ServerHost = envOr("SERVER_HOST", "0.0.0.0")
	cfg.ServerPort = envOr("SERVER_PORT", "8080")

	cfg.OpenAIBaseURL = envOr("OPENAI_BASE_URL", "https://api.openai.com/v1")
	cfg.ChatModel = envOr("OPENAI_CHAT_MODEL", "gpt-4o-mini")
	cfg.ImageModel = envOr("OPENAI_IMAGE_MODEL", "gpt-image-1")
	cfg.ImageSize = envOr("OPENAI_IMAGE_SIZE", "1024x1024")
	cfg.ImageQuality = envOr("OPENAI_IMAGE_QUALITY", "low")

	uploadDir, err := filepath.Abs(envOr("UPLOAD_DIR", "images"))
	if err != nil {
		return fmt.Errorf("failed to resolve UPLOAD_DIR: %w", err)
	}
	generatedDir, err := filepath.Abs(envOr("GENERATED_DIR", "generated_images"))
	if err != nil {
		return fmt.Errorf("failed to resolve GENERATED_DIR: %w", err)
	}
	cfg.UploadDir = uploadDir
	cfg.GeneratedDir = generatedDir
	cfg.FrontendDir = envOr("FRONTEND_DIR", filepath.Join("frontend", "out"))

	maxUploadMB, err := envInt("MAX_UPLOAD_MB", 20)
	if err != nil {
		return err
	}
	cfg.MaxUploadBytes = int64(maxUploadMB) << 20

	if cfg.MaxConcurrency, err = envInt("MAX_CONCURRENCY", 4); err != nil {
		return err
	}
	if cfg.ModelMaxRetries, err = envInt("MODEL_MAX_RETRIES", 2); err != nil {
		return err
	}
	if cfg.ModelTimeout, err = envDuration("MODEL_TIMEOUT", 90*time.Second); err != nil {
		return err
	}
	if cfg.RateLimitPerHour, err = envInt("RATE_LIMIT_PER_HOUR", 60); err != nil {
		return err
	}

	cfg.AllowedOrigins = splitList(envOr("CORS_ALLOWED_ORIGINS", "http://localhost:3000"))
	cfg.LogLevel = envOr("LOG_LEVEL", "info")

	return nil
}

// loadBackingServices reads the optional Redis, database and S3 settings.
// Passwords and keys go through lookupSecret so that Docker secrets work
// the same way in development and production.
func loadBackingServices(cfg *Config, env Environment) {
	cfg.OpenAIAPIKey = lookupSecret(env, "OPENAI_API_KEY", "openai_api_key")

	cfg.RedisURL = lookupSecret(env, "REDIS_URL", "redis_url")
	cfg.RedisHost = os.Getenv("REDIS_HOST")
	cfg.RedisPort = envOr("REDIS_PORT", "6379")
	cfg.RedisPassword = lookupSecret(env, "REDIS_PASSWORD", "redis_password")
	cfg.RedisDB, _ = strconv.Atoi(os.Getenv("REDIS_DB"))

	cfg.DBHost = os.Getenv("DB_HOST")
	cfg.DBPort = envOr("DB_PORT", "5432")
	cfg.DBUser = lookupSecret(env, "DB_USER", "db_user")
	cfg.DBPassword = lookupSecret(env, "DB_PASSWORD", "db_password")
	cfg.DBName = envOr("DB_NAME", "fridge2fork")
	cfg.DBSSLMode = envOr("DB_SSL_MODE", "disable")
	cfg.SQLitePath = os.Getenv("SQLITE_PATH")

	cfg.S3BucketName = os.Getenv("S3_BUCKET_NAME")
	cfg.AWSRegion = envOr("AWS_REGION", "us-east-1")
}

// RedisEnabled reports whether a Redis endpoint was configured
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != "" || c.RedisHost != ""
}

// DatabaseEnabled reports whether generation history should be persisted
func (c *Config) DatabaseEnabled() bool {
	return c.DBHost != "" || c.SQLitePath != ""
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// lookupSecret resolves a sensitive value. CI only uses plain environment
// variables; everywhere else NAME, NAME_FILE and then the Docker secret
// file are tried in that order.
func lookupSecret(env Environment, envKey, secretName string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	if env == CI {
		return ""
	}
	if file := os.Getenv(envKey + "_FILE"); file != "" {
		if data, err := os.ReadFile(file); err == nil {
			return strings.TrimSpace(string(data))
		}
	}
	return readSecret(secretName)
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, ValidationError{Field: key, Message: fmt.Sprintf("must be an integer, got %q", raw)}
	}
	return v, nil
}

// envDuration accepts Go durations ("90s") or a bare number of seconds.
func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, ValidationError{Field: key, Message: fmt.Sprintf("must be a duration, got %q", raw)}
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
