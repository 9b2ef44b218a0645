package env

import (
	"os"
	"strings"

	"github.com/ekisa-team/awairs/internal/envvar"
)

// Environment is the deployment environment the process runs in.
type Environment string

const (
	// Development enables human friendly console output.
	Development Environment = "development"

	// Production switches logging to structured JSON.
	Production Environment = "production"
)

// FromEnv reads the environment from AWAIRS_ENV, defaulting to development.
func FromEnv() Environment {
	return Parse(os.Getenv(envvar.AwairsEnv))
}

// Parse converts a raw value into an Environment.
// Unknown values fall back to development.
func Parse(raw string) Environment {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "prod", "production":
		return Production
	default:
		return Development
	}
}

// IsProduction reports whether e is the production environment.
func (e Environment) IsProduction() bool {
	return e == Production
}
