//go:build windows

package registrar

import "github.com/slok/instl/internal/log"

// DefaultConfig is the configuration for the platform registrar.
type DefaultConfig struct {
	HomeDir string
	Product string
	Logger  log.Logger
}

// NewDefault returns the registrar for the current platform. On windows it
// updates the user Path environment variable on the registry.
func NewDefault(cfg DefaultConfig) (Registrar, error) {
	return NewUserEnvRegistry(UserEnvRegistryConfig{Logger: cfg.Logger})
}
