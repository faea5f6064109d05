package payload

import (
	"context"
	"fmt"
	"io/fs"
	"path"

	"gopkg.in/yaml.v3"

	"github.com/slok/instl/internal/model"
)

// ManifestYAMLRepository loads the installation payload from a YAML manifest.
//
// The archive path in the manifest is relative to the manifest location.
type ManifestYAMLRepository struct {
	fs fs.FS
}

// NewManifestYAMLRepository creates a new YAML manifest repository.
func NewManifestYAMLRepository(filesystem fs.FS) *ManifestYAMLRepository {
	return &ManifestYAMLRepository{fs: filesystem}
}

// GetPayload loads the manifest and the archive it points to, and returns a validated payload.
func (r *ManifestYAMLRepository) GetPayload(ctx context.Context, manifestPath string) (model.ArchivePayload, error) {
	data, err := fs.ReadFile(r.fs, manifestPath)
	if err != nil {
		return model.ArchivePayload{}, fmt.Errorf("reading manifest file: %w", err)
	}

	if ctx.Err() != nil {
		return model.ArchivePayload{}, ctx.Err()
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return model.ArchivePayload{}, fmt.Errorf("parsing YAML: %w", err)
	}

	if err := m.validate(); err != nil {
		return model.ArchivePayload{}, fmt.Errorf("invalid manifest: %w", err)
	}

	archivePath := path.Join(path.Dir(manifestPath), m.Archive)
	archive, err := fs.ReadFile(r.fs, archivePath)
	if err != nil {
		return model.ArchivePayload{}, fmt.Errorf("reading archive %s: %w", archivePath, err)
	}

	p, err := model.NewArchivePayload(m.Name, m.BinDir, archive)
	if err != nil {
		return model.ArchivePayload{}, fmt.Errorf("invalid payload: %w", err)
	}

	return p, nil
}

// Manifest represents the YAML structure of the payload manifest.
type Manifest struct {
	Name    string `yaml:"name"`
	Archive string `yaml:"archive"`
	BinDir  string `yaml:"bin_dir"`
}

func (m Manifest) validate() error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if m.Archive == "" {
		return fmt.Errorf("archive is required")
	}
	return nil
}
