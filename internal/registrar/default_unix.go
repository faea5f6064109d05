//go:build !windows

package registrar

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/slok/instl/internal/log"
)

// DefaultConfig is the configuration for the platform registrar.
type DefaultConfig struct {
	HomeDir string
	Product string
	Logger  log.Logger
}

// NewDefault returns the registrar for the current platform. On unix it updates
// ~/.profile and the bash and zsh rc files that already exist.
func NewDefault(cfg DefaultConfig) (Registrar, error) {
	if cfg.HomeDir == "" {
		return nil, fmt.Errorf("home dir is required")
	}

	profiles := []string{filepath.Join(cfg.HomeDir, ".profile")}
	for _, rc := range []string{".bashrc", ".zshrc"} {
		p := filepath.Join(cfg.HomeDir, rc)
		if _, err := os.Stat(p); err == nil {
			profiles = append(profiles, p)
		}
	}

	return NewShellProfile(ShellProfileConfig{
		Profiles: profiles,
		Product:  cfg.Product,
		Logger:   cfg.Logger,
	})
}
