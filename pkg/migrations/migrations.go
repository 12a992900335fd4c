package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

const (
	defaultDir   = "migrations"
	defaultTable = "schema_migrations"
)

type migrator interface {
	Up() error
	Version() (uint, bool, error)
	Close() (sourceErr error, databaseErr error)
}

var driverFactory = func(db *sql.DB, cfg Config) (database.Driver, error) {
	return postgres.WithInstance(db, &postgres.Config{MigrationsTable: cfg.MigrationsTable})
}

var migratorFactory = func(src source.Driver, driver database.Driver) (migrator, error) {
	return migrate.NewWithInstance("iofs", src, "postgres", driver)
}

type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type Config struct {
	// FS holds the *.up.sql / *.down.sql files at its root. When nil, Dir is read from disk.
	FS              fs.FS
	Dir             string
	MigrationsTable string
	Logger          Logger
}

// State is the schema version recorded by golang-migrate.
type State struct {
	Version uint
	Dirty   bool
	// Empty is true when no migration has ever been applied.
	Empty bool
}

func (cfg Config) withDefaults() Config {
	if strings.TrimSpace(cfg.Dir) == "" {
		cfg.Dir = defaultDir
	}
	if strings.TrimSpace(cfg.MigrationsTable) == "" {
		cfg.MigrationsTable = defaultTable
	}
	if cfg.FS == nil {
		cfg.FS = os.DirFS(cfg.Dir)
	}
	return cfg
}

func (cfg Config) info(msg string, args ...any) {
	if cfg.Logger != nil {
		cfg.Logger.Info(msg, args...)
	}
}

func (cfg Config) warn(msg string, args ...any) {
	if cfg.Logger != nil {
		cfg.Logger.Warn(msg, args...)
	}
}

// open builds a migrator and a close func that is safe to call more than once.
func open(db *sql.DB, cfg Config) (migrator, func(), error) {
	src, err := iofs.New(cfg.FS, ".")
	if err != nil {
		return nil, nil, fmt.Errorf("migrations: source: %w", err)
	}

	driver, err := driverFactory(db, cfg)
	if err != nil {
		_ = src.Close()
		return nil, nil, fmt.Errorf("migrations: postgres driver: %w", err)
	}

	m, err := migratorFactory(src, driver)
	if err != nil {
		_ = src.Close()
		return nil, nil, fmt.Errorf("migrations: init: %w", err)
	}

	var once sync.Once
	closeMigrator := func() {
		once.Do(func() {
			srcErr, dbErr := m.Close()
			if srcErr != nil {
				cfg.warn("Migrations source close error", "error", srcErr)
			}
			if dbErr != nil {
				cfg.warn("Migrations db close error", "error", dbErr)
			}
		})
	}

	return m, closeMigrator, nil
}

func checkArgs(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("migrations: db is nil")
	}
	return ctx.Err()
}

// Up applies every pending migration. golang-migrate takes no context, so on
// cancellation the migrator is closed and ctx.Err() returned.
func Up(ctx context.Context, db *sql.DB, cfg Config) error {
	if err := checkArgs(ctx, db); err != nil {
		return err
	}
	cfg = cfg.withDefaults()

	m, closeMigrator, err := open(db, cfg)
	if err != nil {
		return err
	}
	defer closeMigrator()

	cfg.info("Running SQL migrations", "table", cfg.MigrationsTable)

	errCh := make(chan error, 1)
	go func() {
		errCh <- m.Up()
	}()

	select {
	case <-ctx.Done():
		closeMigrator()
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, migrate.ErrNoChange) {
			cfg.info("No migrations to apply")
			return nil
		}
		if err != nil {
			return fmt.Errorf("migrations: up: %w", err)
		}
	}

	cfg.info("Migrations applied successfully")
	return nil
}

// Status reports the applied schema version without changing anything.
func Status(ctx context.Context, db *sql.DB, cfg Config) (State, error) {
	if err := checkArgs(ctx, db); err != nil {
		return State{}, err
	}
	cfg = cfg.withDefaults()

	m, closeMigrator, err := open(db, cfg)
	if err != nil {
		return State{}, err
	}
	defer closeMigrator()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return State{Empty: true}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("migrations: version: %w", err)
	}

	return State{Version: version, Dirty: dirty}, nil
}
