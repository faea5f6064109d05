// Package pathcheck decides if a destination can receive an installation.
//
// The check is not atomic with respect to the filesystem: something outside the
// installer could change the destination between the check and the write. The
// installer targets interactive single-user installs so this is accepted, the
// extraction re-checks the destination and refuses to overwrite anything.
package pathcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/slok/instl/internal/log"
	"github.com/slok/instl/internal/model"
)

// ValidatorConfig is the configuration for the path validator.
type ValidatorConfig struct {
	FS     afero.Fs
	Logger log.Logger
}

func (c *ValidatorConfig) defaults() error {
	if c.FS == nil {
		c.FS = afero.NewOsFs()
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "pathcheck.Validator"})
	return nil
}

// Validator classifies installation destinations. It never changes the filesystem.
type Validator struct {
	fs     afero.Fs
	logger log.Logger
}

// NewValidator returns a new path validator.
func NewValidator(cfg ValidatorConfig) (*Validator, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Validator{fs: cfg.FS, logger: cfg.Logger}, nil
}

// Normalize returns the clean absolute form of a user supplied destination.
func Normalize(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("empty destination: %w", model.ErrUnreachable)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("could not resolve %q: %w", path, model.ErrUnreachable)
	}
	return abs, nil
}

// Validate returns the verdict for the destination. An error is only returned
// together with an invalid verdict when the destination state could not be read.
func (v *Validator) Validate(ctx context.Context, path string) (model.Verdict, error) {
	if err := ctx.Err(); err != nil {
		return model.VerdictInvalid, err
	}

	dst, err := Normalize(path)
	if err != nil {
		return model.VerdictInvalid, nil
	}

	parent := filepath.Dir(dst)
	if parent == dst {
		v.logger.Debugf("Destination %s has no parent", dst)
		return model.VerdictInvalid, nil
	}

	ok, err := afero.DirExists(v.fs, parent)
	if err != nil {
		return model.VerdictInvalid, fmt.Errorf("could not check parent %s: %w: %w", parent, model.ErrIO, err)
	}
	if !ok {
		v.logger.Debugf("Destination parent %s does not exist", parent)
		return model.VerdictInvalid, nil
	}

	info, err := v.fs.Stat(dst)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return model.VerdictInvalid, fmt.Errorf("could not stat %s: %w: %w", dst, model.ErrIO, err)
		}

		// A dangling symlink still occupies the name.
		if v.linkExists(dst) {
			return model.VerdictConflict, nil
		}
		return model.VerdictProceedAfterCreate, nil
	}

	if !info.IsDir() {
		return model.VerdictConflict, nil
	}

	empty, err := v.isEmptyDir(dst)
	if err != nil {
		return model.VerdictInvalid, fmt.Errorf("could not read %s: %w: %w", dst, model.ErrIO, err)
	}
	if !empty {
		return model.VerdictConflict, nil
	}

	return model.VerdictProceed, nil
}

func (v *Validator) isEmptyDir(path string) (bool, error) {
	f, err := v.fs.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	names, err := f.Readdirnames(1)
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return len(names) == 0, nil
}

func (v *Validator) linkExists(path string) bool {
	lst, ok := v.fs.(afero.Lstater)
	if !ok {
		return false
	}
	_, _, err := lst.LstatIfPossible(path)
	return err == nil
}
