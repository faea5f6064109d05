package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/slok/instl/internal/log"
	"github.com/slok/instl/internal/model"
	"github.com/slok/instl/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.InstallRepository.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

// NewRepository creates a new SQLite repository.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(migrations.MigratorConfig{DB: db, Logger: cfg.Logger})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}
	version, dirty, err := migrator.Version(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	if dirty {
		db.Close()
		return nil, fmt.Errorf("journal schema version %d is dirty", version)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s with schema version %d", cfg.DBPath, version)

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

// SaveInstall creates or replaces an install record.
func (r *Repository) SaveInstall(ctx context.Context, rec model.InstallRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("install id is required: %w", model.ErrNotValid)
	}

	warnings := rec.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return fmt.Errorf("could not marshal warnings: %w", err)
	}

	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO installs (id, destination, state, progress, reason, warnings, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			destination = excluded.destination,
			state = excluded.state,
			progress = excluded.progress,
			reason = excluded.reason,
			warnings = excluded.warnings,
			updated_at = excluded.updated_at
	`

	_, err = r.db.ExecContext(
		ctx,
		query,
		rec.ID,
		rec.Destination,
		string(rec.State),
		rec.Progress,
		rec.Reason,
		string(warningsJSON),
		rec.CreatedAt.UnixNano(),
		updatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("could not save install: %w", err)
	}

	r.logger.Debugf("Saved install in repository: %s (%s)", rec.ID, rec.State)
	return nil
}

// GetInstall retrieves an install record by ID.
func (r *Repository) GetInstall(ctx context.Context, id string) (*model.InstallRecord, error) {
	query := `
		SELECT id, destination, state, progress, reason, warnings, created_at, updated_at
		FROM installs
		WHERE id = ?
	`

	rec, err := r.scanRow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("install %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query install: %w", err)
	}

	return &rec, nil
}

// ListInstalls returns all install records, newest first.
func (r *Repository) ListInstalls(ctx context.Context) ([]model.InstallRecord, error) {
	query := `
		SELECT id, destination, state, progress, reason, warnings, created_at, updated_at
		FROM installs
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("could not query installs: %w", err)
	}
	defer rows.Close()

	var recs []model.InstallRecord
	for rows.Next() {
		rec, err := r.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return recs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanRow(s scanner) (model.InstallRecord, error) {
	var (
		rec          model.InstallRecord
		state        string
		warningsJSON string
		createdAt    int64
		updatedAt    int64
	)

	err := s.Scan(
		&rec.ID,
		&rec.Destination,
		&state,
		&rec.Progress,
		&rec.Reason,
		&warningsJSON,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return model.InstallRecord{}, err
	}

	if err := json.Unmarshal([]byte(warningsJSON), &rec.Warnings); err != nil {
		return model.InstallRecord{}, fmt.Errorf("could not unmarshal warnings: %w", err)
	}
	if len(rec.Warnings) == 0 {
		rec.Warnings = nil
	}

	rec.State = model.StateKind(state)
	rec.CreatedAt = time.Unix(0, createdAt).UTC()
	rec.UpdatedAt = time.Unix(0, updatedAt).UTC()

	return rec, nil
}
