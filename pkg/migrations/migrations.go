package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"

	DefaultDir             = "migrations"
	DefaultMigrationsTable = "waitlist_schema_migrations"
)

type migrator interface {
	Up() error
	Version() (version uint, dirty bool, err error)
	Close() (sourceErr error, databaseErr error)
}

var driverFactory = func(db *sql.DB, cfg Config) (database.Driver, error) {
	switch cfg.Dialect {
	case DialectSQLite:
		return sqlite3.WithInstance(db, &sqlite3.Config{MigrationsTable: cfg.MigrationsTable})
	default:
		return postgres.WithInstance(db, &postgres.Config{MigrationsTable: cfg.MigrationsTable})
	}
}

var migratorFactory = func(sourceURL, dialect string, driver database.Driver) (migrator, error) {
	return migrate.NewWithDatabaseInstance(sourceURL, dialect, driver)
}

type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type Config struct {
	Dir             string
	MigrationsTable string
	// Dialect is DialectPostgres (default) or DialectSQLite.
	Dialect string
	Logger  Logger
}

// Status is the schema version recorded in the migrations table.
type Status struct {
	Version uint
	Dirty   bool
	// Applied is false when no migration has run yet.
	Applied bool
}

func (cfg *Config) applyDefaults() error {
	if strings.TrimSpace(cfg.Dir) == "" {
		cfg.Dir = DefaultDir
	}
	if strings.TrimSpace(cfg.MigrationsTable) == "" {
		cfg.MigrationsTable = DefaultMigrationsTable
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Dialect)) {
	case "", DialectPostgres, "postgresql":
		cfg.Dialect = DialectPostgres
	case DialectSQLite, "sqlite":
		cfg.Dialect = DialectSQLite
	default:
		return fmt.Errorf("migrations: unsupported dialect %q", cfg.Dialect)
	}
	return nil
}

func sourceURLFor(dir string) (string, string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", "", fmt.Errorf("migrations: resolve dir: %w", err)
	}

	// ToSlash keeps the file:// URL valid for Windows paths.
	sourceURL := (&url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(absDir),
	}).String()

	return sourceURL, absDir, nil
}

// open builds the migrator and returns a close func that is safe to call
// more than once.
func open(db *sql.DB, cfg Config) (migrator, string, func(), error) {
	sourceURL, absDir, err := sourceURLFor(cfg.Dir)
	if err != nil {
		return nil, "", nil, err
	}

	driver, err := driverFactory(db, cfg)
	if err != nil {
		return nil, "", nil, fmt.Errorf("migrations: %s driver: %w", cfg.Dialect, err)
	}

	m, err := migratorFactory(sourceURL, cfg.Dialect, driver)
	if err != nil {
		return nil, "", nil, fmt.Errorf("migrations: init: %w", err)
	}

	closeOnce := sync.Once{}
	closeMigrator := func() {
		closeOnce.Do(func() {
			srcErr, dbErr := m.Close()
			if cfg.Logger != nil {
				if srcErr != nil {
					cfg.Logger.Warn("Migrations source close error", "error", srcErr)
				}
				if dbErr != nil {
					cfg.Logger.Warn("Migrations db close error", "error", dbErr)
				}
			}
		})
	}

	return m, absDir, closeMigrator, nil
}

func Up(ctx context.Context, db *sql.DB, cfg Config) error {
	if db == nil {
		return fmt.Errorf("migrations: db is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := cfg.applyDefaults(); err != nil {
		return err
	}

	m, absDir, closeMigrator, err := open(db, cfg)
	if err != nil {
		return err
	}
	defer closeMigrator()

	if cfg.Logger != nil {
		cfg.Logger.Info("Running SQL migrations", "dir", absDir, "table", cfg.MigrationsTable, "dialect", cfg.Dialect)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- m.Up()
	}()

	select {
	case <-ctx.Done():
		// migrate has no context support; closing the migrator is the only interrupt.
		closeMigrator()
		return ctx.Err()
	case err := <-errCh:
		if err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				if cfg.Logger != nil {
					cfg.Logger.Info("No migrations to apply")
				}
				return nil
			}
			return fmt.Errorf("migrations: up: %w", err)
		}
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("Migrations applied successfully")
	}
	return nil
}

// CurrentStatus reads the applied schema version without migrating.
func CurrentStatus(ctx context.Context, db *sql.DB, cfg Config) (Status, error) {
	if db == nil {
		return Status{}, fmt.Errorf("migrations: db is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return Status{}, err
	}
	if err := cfg.applyDefaults(); err != nil {
		return Status{}, err
	}

	m, _, closeMigrator, err := open(db, cfg)
	if err != nil {
		return Status{}, err
	}
	defer closeMigrator()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("migrations: version: %w", err)
	}

	return Status{Version: version, Dirty: dirty, Applied: true}, nil
}
