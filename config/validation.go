package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// squareImageSizes are the sizes the image endpoint accepts for a single square image
var squareImageSizes = map[string]bool{
	"256x256":   true,
	"512x512":   true,
	"1024x1024": true,
}

var imageQualities = map[string]bool{
	"low":      true,
	"medium":   true,
	"high":     true,
	"auto":     true,
	"standard": true,
	"hd":       true,
}

// ValidateConfig checks if the configuration is usable for the current environment
func ValidateConfig(cfg *Config) error {
	var errs []string
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg}.Error())
	}

	if cfg.OpenAIAPIKey == "" {
		if cfg.Environment == CI {
			add("OPENAI_API_KEY", "environment variable is required in CI environment")
		} else {
			add("OPENAI_API_KEY", "set OPENAI_API_KEY, OPENAI_API_KEY_FILE or the openai_api_key secret")
		}
	}
	if port, err := strconv.Atoi(cfg.ServerPort); err != nil || port <= 0 || port > 65535 {
		add("SERVER_PORT", fmt.Sprintf("invalid port %q", cfg.ServerPort))
	}
	if !squareImageSizes[cfg.ImageSize] {
		add("OPENAI_IMAGE_SIZE", fmt.Sprintf("%q is not a square image size", cfg.ImageSize))
	}
	if !imageQualities[cfg.ImageQuality] {
		add("OPENAI_IMAGE_QUALITY", fmt.Sprintf("unknown quality %q", cfg.ImageQuality))
	}
	if cfg.MaxConcurrency < 1 {
		add("MAX_CONCURRENCY", "must be at least 1")
	}
	if cfg.ModelTimeout <= 0 {
		add("MODEL_TIMEOUT", "must be positive")
	}
	if cfg.ModelMaxRetries < 0 {
		add("MODEL_MAX_RETRIES", "must not be negative")
	}
	if cfg.RateLimitPerHour < 0 {
		add("RATE_LIMIT_PER_HOUR", "must not be negative")
	}
	if cfg.MaxUploadBytes <= 0 {
		add("MAX_UPLOAD_MB", "must be positive")
	}
	if cfg.UploadDir == cfg.GeneratedDir {
		add("GENERATED_DIR", "must differ from UPLOAD_DIR")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errs, "\n"))
	}

	return nil
}
