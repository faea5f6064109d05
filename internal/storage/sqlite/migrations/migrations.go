// Package migrations has the install journal schema and applies it.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/slok/instl/internal/log"
)

//go:embed sql/*.sql
var schemaFiles embed.FS

// MigratorConfig is the configuration of the journal schema migrator.
type MigratorConfig struct {
	DB     *sql.DB
	Logger log.Logger
}

func (c *MigratorConfig) defaults() error {
	if c.DB == nil {
		return fmt.Errorf("db is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.sqlite.Migrator"})
	return nil
}

// Migrator moves the install journal schema between versions.
type Migrator struct {
	db     *sql.DB
	logger log.Logger
}

// NewMigrator returns a new journal schema migrator.
func NewMigrator(cfg MigratorConfig) (*Migrator, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Migrator{db: cfg.DB, logger: cfg.Logger}, nil
}

// Up applies the pending schema versions.
func (m *Migrator) Up(ctx context.Context) error {
	return m.run(ctx, "apply", (*migrate.Migrate).Up)
}

// Down removes the journal schema, records included.
func (m *Migrator) Down(ctx context.Context) error {
	return m.run(ctx, "revert", (*migrate.Migrate).Down)
}

// Version returns the current schema version, 0 when the schema isn't applied.
func (m *Migrator) Version(ctx context.Context) (version uint, dirty bool, err error) {
	inst, done, err := m.instance()
	if err != nil {
		return 0, false, err
	}
	defer done()

	version, dirty, err = inst.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("could not get schema version: %w", err)
	}
	return version, dirty, nil
}

func (m *Migrator) run(ctx context.Context, action string, fn func(*migrate.Migrate) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	inst, done, err := m.instance()
	if err != nil {
		return err
	}
	defer done()

	err = fn(inst)
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Debugf("Journal schema already up to date, nothing to %s", action)
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not %s journal schema: %w", action, err)
	}

	m.logger.Debugf("Journal schema changes %s done", action)
	return nil
}

// instance returns a migrate instance over the embedded schema. done releases
// the schema source, the database stays open.
func (m *Migrator) instance() (inst *migrate.Migrate, done func(), err error) {
	driver, err := sqlite3.WithInstance(m.db, &sqlite3.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("could not create migration driver: %w", err)
	}

	src, err := iofs.New(schemaFiles, "sql")
	if err != nil {
		return nil, nil, fmt.Errorf("could not load journal schema: %w", err)
	}
	done = func() {
		if err := src.Close(); err != nil {
			m.logger.Warningf("Could not close journal schema source: %s", err)
		}
	}

	inst, err = migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		done()
		return nil, nil, fmt.Errorf("could not create migration instance: %w", err)
	}

	return inst, done, nil
}
