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

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/log"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// Migrator applies the embedded plant store schema migrations.
type Migrator struct {
	db     *sql.DB
	logger log.Logger
}

// NewMigrator creates a new migrator instance.
func NewMigrator(db *sql.DB, logger log.Logger) (*Migrator, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if logger == nil {
		logger = log.Noop
	}

	return &Migrator{
		db:     db,
		logger: logger.WithValues(log.Kv{"svc": "storage.SQLiteMigrator"}),
	}, nil
}

// Up runs all available migrations.
func (m *Migrator) Up(ctx context.Context) error {
	return m.run(ctx, "apply", func(inst *migrate.Migrate) error { return inst.Up() })
}

// Down reverts all migrations.
func (m *Migrator) Down(ctx context.Context) error {
	return m.run(ctx, "revert", func(inst *migrate.Migrate) error { return inst.Down() })
}

// Version returns the current schema version, 0 when no migration has been applied.
func (m *Migrator) Version(ctx context.Context) (version uint, dirty bool, err error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	inst, closeFn, err := m.instance()
	defer closeFn()
	if err != nil {
		return 0, false, err
	}

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

	inst, closeFn, err := m.instance()
	defer closeFn()
	if err != nil {
		return err
	}

	err = fn(inst)
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not %s migrations: %w", action, err)
	}

	m.logger.Debugf("Migrations %s finished", action)
	return nil
}

// instance creates a migrate instance with embedded migrations.
func (m *Migrator) instance() (instance *migrate.Migrate, closeFn func(), err error) {
	closeFn = func() {}

	driver, err := sqlite3.WithInstance(m.db, &sqlite3.Config{})
	if err != nil {
		return nil, closeFn, fmt.Errorf("could not create driver: %w", err)
	}

	src, err := iofs.New(migrationFiles, "sql")
	if err != nil {
		return nil, closeFn, fmt.Errorf("could not create fs: %w", err)
	}
	closeFn = func() {
		if err := src.Close(); err != nil {
			m.logger.Errorf("could not close fs: %s", err)
		}
	}

	instance, err = migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return nil, closeFn, fmt.Errorf("could not create migration instance: %w", err)
	}

	return instance, closeFn, nil
}
