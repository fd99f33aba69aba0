package migrations

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	mu    sync.Mutex
	infos []string
	warns []string
}

func (l *recordingLogger) Info(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *recordingLogger) Error(string, ...any) {}

type stubMigrator struct {
	upErr      error
	version    uint
	dirty      bool
	versionErr error
	closes     atomic.Int32
}

func (m *stubMigrator) Up() error { return m.upErr }

func (m *stubMigrator) Version() (uint, bool, error) { return m.version, m.dirty, m.versionErr }

func (m *stubMigrator) Close() (error, error) {
	m.closes.Add(1)
	return nil, nil
}

// hangingMigrator blocks in Up until Close is called.
type hangingMigrator struct {
	release chan struct{}
	once    sync.Once
}

func (m *hangingMigrator) Up() error {
	<-m.release
	return nil
}

func (m *hangingMigrator) Version() (uint, bool, error) { return 0, false, migrate.ErrNilVersion }

func (m *hangingMigrator) Close() (error, error) {
	m.once.Do(func() { close(m.release) })
	return nil, nil
}

// captured holds what the stubbed factories were called with.
type captured struct {
	cfg       Config
	sourceURL string
	dialect   string
	built     bool
}

func stubFactories(t *testing.T, m migrator, initErr error) *captured {
	t.Helper()

	prevDriver, prevMigrator := driverFactory, migratorFactory
	t.Cleanup(func() {
		driverFactory, migratorFactory = prevDriver, prevMigrator
	})

	got := &captured{}
	driverFactory = func(_ *sql.DB, cfg Config) (database.Driver, error) {
		got.cfg = cfg
		got.built = true
		return nil, nil
	}
	migratorFactory = func(sourceURL, dialect string, _ database.Driver) (migrator, error) {
		got.sourceURL = sourceURL
		got.dialect = dialect
		if initErr != nil {
			return nil, initErr
		}
		return m, nil
	}
	return got
}

func fileURL(t *testing.T, dir string) string {
	t.Helper()
	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}

func TestUp_RequiresDB(t *testing.T) {
	assert.EqualError(t, Up(context.Background(), nil, Config{}), "migrations: db is nil")
}

func TestUp_CancelledBeforeStart(t *testing.T) {
	got := stubFactories(t, &stubMigrator{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Up(ctx, &sql.DB{}, Config{Dir: t.TempDir()})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, got.built)
}

func TestUp_DeadlineClosesMigrator(t *testing.T) {
	m := &hangingMigrator{release: make(chan struct{})}
	stubFactories(t, m, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := Up(ctx, &sql.DB{}, Config{Dir: t.TempDir()})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	select {
	case <-m.release:
	default:
		t.Fatal("migrator was not closed after the deadline")
	}
}

func TestUp_Outcomes(t *testing.T) {
	tests := []struct {
		name    string
		upErr   error
		wantErr string
		wantLog string
	}{
		{name: "applied", wantLog: "Migrations applied successfully"},
		{name: "no change", upErr: migrate.ErrNoChange, wantLog: "No migrations to apply"},
		{name: "failure", upErr: errors.New("syntax error at line 3"), wantErr: "migrations: up: syntax error at line 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &stubMigrator{upErr: tt.upErr}
			stubFactories(t, m, nil)
			logger := &recordingLogger{}

			err := Up(context.Background(), &sql.DB{}, Config{Dir: t.TempDir(), Logger: logger})

			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Contains(t, logger.infos, tt.wantLog)
			}
			assert.Equal(t, int32(1), m.closes.Load())
		})
	}
}

func TestUp_AppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	got := stubFactories(t, &stubMigrator{upErr: migrate.ErrNoChange}, nil)

	require.NoError(t, Up(context.Background(), &sql.DB{}, Config{Dir: dir}))

	assert.Equal(t, DefaultMigrationsTable, got.cfg.MigrationsTable)
	assert.Equal(t, DialectPostgres, got.cfg.Dialect)
	assert.Equal(t, fileURL(t, dir), got.sourceURL)
}

func TestUp_SourceURLWithSpaces(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "waitlist migrations")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	got := stubFactories(t, &stubMigrator{upErr: migrate.ErrNoChange}, nil)

	require.NoError(t, Up(context.Background(), &sql.DB{}, Config{Dir: dir}))

	parsed, err := url.Parse(got.sourceURL)
	require.NoError(t, err)
	assert.Equal(t, "file", parsed.Scheme)

	abs, _ := filepath.Abs(dir)
	assert.Equal(t, filepath.ToSlash(abs), parsed.Path)
}

func TestUp_InitError(t *testing.T) {
	stubFactories(t, nil, errors.New("no such directory"))

	err := Up(context.Background(), &sql.DB{}, Config{Dir: t.TempDir()})

	assert.EqualError(t, err, "migrations: init: no such directory")
}

func TestUp_Dialects(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "", want: DialectPostgres},
		{in: "postgresql", want: DialectPostgres},
		{in: "SQLite", want: DialectSQLite},
		{in: " sqlite3 ", want: DialectSQLite},
		{in: "oracle", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := stubFactories(t, &stubMigrator{}, nil)

			err := Up(context.Background(), &sql.DB{}, Config{Dir: t.TempDir(), Dialect: tt.in})

			if tt.wantErr {
				assert.ErrorContains(t, err, "unsupported dialect")
				assert.False(t, got.built)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.dialect)
		})
	}
}

func TestCurrentStatus(t *testing.T) {
	tests := []struct {
		name    string
		m       *stubMigrator
		want    Status
		wantErr bool
	}{
		{name: "nothing applied", m: &stubMigrator{versionErr: migrate.ErrNilVersion}},
		{name: "applied", m: &stubMigrator{version: 1}, want: Status{Version: 1, Applied: true}},
		{name: "dirty", m: &stubMigrator{version: 2, dirty: true}, want: Status{Version: 2, Dirty: true, Applied: true}},
		{name: "error", m: &stubMigrator{versionErr: errors.New("relation does not exist")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubFactories(t, tt.m, nil)

			got, err := CurrentStatus(context.Background(), &sql.DB{}, Config{Dir: t.TempDir()})

			if tt.wantErr {
				assert.ErrorContains(t, err, "migrations: version")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, int32(1), tt.m.closes.Load())
		})
	}
}

func TestCurrentStatus_RequiresDB(t *testing.T) {
	_, err := CurrentStatus(context.Background(), nil, Config{})
	assert.Error(t, err)
}
