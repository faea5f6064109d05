package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/slok/instl/internal/log"
	"github.com/slok/instl/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.InstallRepository.
type Repository struct {
	installs map[string]model.InstallRecord
	mu       sync.RWMutex
	logger   log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		installs: make(map[string]model.InstallRecord),
		logger:   cfg.Logger,
	}, nil
}

// SaveInstall creates or replaces an install record.
func (r *Repository) SaveInstall(ctx context.Context, rec model.InstallRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("install id is required: %w", model.ErrNotValid)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec.Warnings = append([]string(nil), rec.Warnings...)
	r.installs[rec.ID] = rec
	r.logger.Debugf("Saved install in repository: %s (%s)", rec.ID, rec.State)

	return nil
}

// GetInstall retrieves an install record by ID.
func (r *Repository) GetInstall(ctx context.Context, id string) (*model.InstallRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.installs[id]
	if !ok {
		return nil, fmt.Errorf("install %s: %w", id, model.ErrNotFound)
	}

	// Return a copy.
	rec.Warnings = append([]string(nil), rec.Warnings...)
	return &rec, nil
}

// ListInstalls returns all install records, newest first.
func (r *Repository) ListInstalls(ctx context.Context) ([]model.InstallRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	recs := make([]model.InstallRecord, 0, len(r.installs))
	for _, rec := range r.installs {
		rec.Warnings = append([]string(nil), rec.Warnings...)
		recs = append(recs, rec)
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].ID > recs[j].ID
		}
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})

	return recs, nil
}
