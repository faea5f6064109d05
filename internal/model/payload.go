package model

import (
	"bytes"
	"fmt"
	"strings"
)

// DefaultBinDir is the directory inside the installed product that holds its executables.
const DefaultBinDir = "bin"

// ArchivePayload is the fixed installation payload. It's created once at process
// start and never mutated, so it can be shared without synchronization.
type ArchivePayload struct {
	name   string
	binDir string
	data   []byte
}

// NewArchivePayload returns a validated payload. The data is copied so callers
// can't mutate it afterwards.
func NewArchivePayload(name, binDir string, data []byte) (ArchivePayload, error) {
	if binDir == "" {
		binDir = DefaultBinDir
	}

	p := ArchivePayload{
		name:   name,
		binDir: binDir,
		data:   bytes.Clone(data),
	}
	if err := p.Validate(); err != nil {
		return ArchivePayload{}, err
	}

	return p, nil
}

// Validate checks the payload is usable.
func (p ArchivePayload) Validate() error {
	if p.name == "" {
		return fmt.Errorf("payload name is required: %w", ErrNotValid)
	}
	if strings.ContainsAny(p.name, `/\`) || p.name == "." || p.name == ".." {
		return fmt.Errorf("payload name %q must be a plain name: %w", p.name, ErrNotValid)
	}
	if len(p.data) == 0 {
		return fmt.Errorf("payload archive is empty: %w", ErrNotValid)
	}
	if strings.HasPrefix(p.binDir, "/") || strings.Contains(p.binDir, "..") {
		return fmt.Errorf("payload bin dir %q must be relative to the destination: %w", p.binDir, ErrNotValid)
	}
	return nil
}

// Name is the logical name of the installed product.
func (p ArchivePayload) Name() string { return p.name }

// BinDir is the executables directory, relative to the destination.
func (p ArchivePayload) BinDir() string { return p.binDir }

// Size is the archive size in bytes.
func (p ArchivePayload) Size() int64 { return int64(len(p.data)) }

// Reader returns a new independent reader over the archive bytes.
func (p ArchivePayload) Reader() *bytes.Reader { return bytes.NewReader(p.data) }
