package config

import (
	"os"
)

// Environment represents the current runtime environment
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	CI          Environment = "ci"
	Production  Environment = "production"
)

// GetEnvironment determines the current environment
func GetEnvironment() Environment {
	// CI environment is automatically detected
	if os.Getenv("CI") == "true" {
		return CI
	}

	switch env := os.Getenv("ENV"); env {
	case "production":
		return Production
	case "test":
		return Test
	default:
		return Development
	}
}

// UsesConsoleLogs reports whether logs should be human readable instead of JSON
func (e Environment) UsesConsoleLogs() bool {
	return e == Development || e == Test
}
