package migrations

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	schema "github.com/akeren/lingo-site/migrations"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

type testLogger struct {
	infos []string
	warns []string
}

func (l *testLogger) Info(msg string, _ ...any)  { l.infos = append(l.infos, msg) }
func (l *testLogger) Warn(msg string, _ ...any)  { l.warns = append(l.warns, msg) }
func (l *testLogger) Error(msg string, _ ...any) {}

func (l *testLogger) hasInfo(msg string) bool {
	for _, m := range l.infos {
		if m == msg {
			return true
		}
	}
	return false
}

type fakeMigrator struct {
	upErr      error
	version    uint
	dirty      bool
	versionErr error
}

func (m *fakeMigrator) Up() error                    { return m.upErr }
func (m *fakeMigrator) Version() (uint, bool, error) { return m.version, m.dirty, m.versionErr }
func (m *fakeMigrator) Close() (error, error)        { return nil, nil }

type blockingMigrator struct {
	fakeMigrator
	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
}

func (m *blockingMigrator) Up() error {
	<-m.closeCh
	return nil
}

func (m *blockingMigrator) Close() (error, error) {
	m.closeOnce.Do(func() {
		m.closed.Store(true)
		close(m.closeCh)
	})
	return nil, nil
}

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"000001_create_things.up.sql":   {Data: []byte("CREATE TABLE things (id INT);")},
		"000001_create_things.down.sql": {Data: []byte("DROP TABLE things;")},
	}
}

// stubFactories swaps the driver and migrator constructors for the duration of t.
func stubFactories(t *testing.T, m migrator, initErr error) *atomic.Bool {
	t.Helper()

	origDriverFactory := driverFactory
	origMigratorFactory := migratorFactory
	t.Cleanup(func() {
		driverFactory = origDriverFactory
		migratorFactory = origMigratorFactory
	})

	called := &atomic.Bool{}
	driverFactory = func(_ *sql.DB, cfg Config) (database.Driver, error) {
		called.Store(true)
		if cfg.MigrationsTable != defaultTable {
			t.Fatalf("expected migrations table to default to %q, got %q", defaultTable, cfg.MigrationsTable)
		}
		return nil, nil
	}
	migratorFactory = func(_ source.Driver, _ database.Driver) (migrator, error) {
		called.Store(true)
		return m, initErr
	}
	return called
}

func TestUp_NilDB(t *testing.T) {
	if err := Up(context.Background(), nil, Config{FS: testFS()}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestUp_ContextAlreadyCancelled_ReturnsCtxErr(t *testing.T) {
	called := stubFactories(t, &fakeMigrator{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Up(ctx, &sql.DB{}, Config{FS: testFS()})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if called.Load() {
		t.Fatalf("expected no driver/migrator creation when ctx already cancelled")
	}
}

func TestUp_ContextDeadlineExceeded_ClosesMigrator(t *testing.T) {
	block := &blockingMigrator{closeCh: make(chan struct{})}
	stubFactories(t, block, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := Up(ctx, &sql.DB{}, Config{FS: testFS()})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
	if !block.closed.Load() {
		t.Fatalf("expected migrator.Close on ctx cancellation")
	}
}

func TestUp_ErrNoChange_ReturnsNil(t *testing.T) {
	stubFactories(t, &fakeMigrator{upErr: migrate.ErrNoChange}, nil)
	logger := &testLogger{}

	if err := Up(context.Background(), &sql.DB{}, Config{FS: testFS(), Logger: logger}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !logger.hasInfo("No migrations to apply") {
		t.Fatalf("expected 'No migrations to apply' log, got %v", logger.infos)
	}
}

func TestUp_Success_LogsApplied(t *testing.T) {
	stubFactories(t, &fakeMigrator{}, nil)
	logger := &testLogger{}

	if err := Up(context.Background(), &sql.DB{}, Config{FS: testFS(), Logger: logger}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !logger.hasInfo("Migrations applied successfully") {
		t.Fatalf("expected 'Migrations applied successfully' log, got %v", logger.infos)
	}
}

func TestUp_WrapsFailures(t *testing.T) {
	t.Run("init", func(t *testing.T) {
		stubFactories(t, nil, errors.New("boom"))

		err := Up(context.Background(), &sql.DB{}, Config{FS: testFS()})
		if err == nil || !strings.Contains(err.Error(), "migrations: init") {
			t.Fatalf("expected wrapped init error, got %v", err)
		}
	})

	t.Run("up", func(t *testing.T) {
		stubFactories(t, &fakeMigrator{upErr: errors.New("syntax error")}, nil)

		err := Up(context.Background(), &sql.DB{}, Config{FS: testFS()})
		if err == nil || !strings.Contains(err.Error(), "migrations: up") {
			t.Fatalf("expected wrapped up error, got %v", err)
		}
	})
}

func TestStatus(t *testing.T) {
	t.Run("never migrated", func(t *testing.T) {
		stubFactories(t, &fakeMigrator{versionErr: migrate.ErrNilVersion}, nil)

		state, err := Status(context.Background(), &sql.DB{}, Config{FS: testFS()})
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if !state.Empty {
			t.Fatalf("expected empty state, got %+v", state)
		}
	})

	t.Run("dirty", func(t *testing.T) {
		stubFactories(t, &fakeMigrator{version: 1, dirty: true}, nil)

		state, err := Status(context.Background(), &sql.DB{}, Config{FS: testFS()})
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if state != (State{Version: 1, Dirty: true}) {
			t.Fatalf("unexpected state %+v", state)
		}
	})
}

func TestEmbeddedSchema_IsReadable(t *testing.T) {
	src, err := iofs.New(schema.Files, ".")
	if err != nil {
		t.Fatalf("embedded migrations not readable: %v", err)
	}
	defer src.Close()

	first, err := src.First()
	if err != nil {
		t.Fatalf("expected a first migration: %v", err)
	}
	if first != 1 {
		t.Fatalf("expected first migration version 1, got %d", first)
	}

	body, identifier, err := src.ReadUp(first)
	if err != nil {
		t.Fatalf("read up: %v", err)
	}
	defer body.Close()

	if identifier != "create_waitlist_signups" {
		t.Fatalf("unexpected migration identifier %q", identifier)
	}
}
