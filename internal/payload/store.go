// Package payload holds the fixed installation payload for the whole process.
package payload

import (
	"fmt"
	"io/fs"

	"github.com/klauspost/compress/zip"

	"github.com/slok/instl/internal/model"
)

// Entry is a single archive entry.
type Entry struct {
	Name string
	Size uint64
	Mode fs.FileMode
}

// Store is the read-only archive store. Once created it's safe to share between
// goroutines without synchronization.
type Store struct {
	payload model.ArchivePayload
	entries []Entry
}

// NewStore verifies the payload archive can be parsed and returns the store.
func NewStore(p model.ArchivePayload) (*Store, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}

	zr, err := zip.NewReader(p.Reader(), p.Size())
	if err != nil {
		return nil, fmt.Errorf("could not read %s archive: %w: %w", p.Name(), model.ErrCorrupt, err)
	}

	entries := make([]Entry, 0, len(zr.File))
	for _, f := range zr.File {
		entries = append(entries, Entry{
			Name: f.Name,
			Size: f.UncompressedSize64,
			Mode: f.Mode(),
		})
	}

	return &Store{payload: p, entries: entries}, nil
}

// Payload returns the installation payload.
func (s *Store) Payload() model.ArchivePayload { return s.payload }

// Entries returns a copy of the archive entries.
func (s *Store) Entries() []Entry {
	return append([]Entry(nil), s.entries...)
}
