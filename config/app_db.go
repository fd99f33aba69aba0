package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/akeren/waitlist-intake/internal/log"
	"github.com/akeren/waitlist-intake/pkg/migrations"
	"github.com/akeren/waitlist-intake/pkg/retry"
	"github.com/akeren/waitlist-intake/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type DBConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	SSLMode         string // Default: "require" for prod safety
}

// NewDBConfig reads pool sizing from DB_MAX_IDLE_CONNS, DB_MAX_OPEN_CONNS and
// DB_CONN_MAX_LIFETIME.
func NewDBConfig() *DBConfig {
	return &DBConfig{
		MaxIdleConns:    utils.GetEnvPositiveInt("DB_MAX_IDLE_CONNS", 10),
		MaxOpenConns:    utils.GetEnvPositiveInt("DB_MAX_OPEN_CONNS", 100),
		ConnMaxLifetime: utils.GetEnvPositiveDuration("DB_CONN_MAX_LIFETIME", time.Minute),
		SSLMode:         "require",
	}
}

// postgresEnv holds the discrete POSTGRES_* settings.
type postgresEnv struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func envValue(key string) string {
	return utils.Unquote(os.Getenv(key))
}

func loadPostgresEnv() postgresEnv {
	return postgresEnv{
		Host:     envValue("POSTGRES_HOST"),
		Port:     envValue("POSTGRES_PORT"),
		User:     envValue("POSTGRES_USER"),
		Password: envValue("POSTGRES_PASSWORD"),
		DBName:   envValue("POSTGRES_DB_NAME"),
		SSLMode:  envValue("POSTGRES_SSLMODE"),
	}
}

func (p postgresEnv) dsn(defaultSSLMode string) (string, error) {
	var missing []string
	if p.Host == "" {
		missing = append(missing, "POSTGRES_HOST")
	}
	if p.Port == "" {
		missing = append(missing, "POSTGRES_PORT")
	}
	if p.User == "" {
		missing = append(missing, "POSTGRES_USER")
	}
	if p.DBName == "" {
		missing = append(missing, "POSTGRES_DB_NAME")
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("missing required database env vars: %s", strings.Join(missing, ", "))
	}

	port, err := strconv.Atoi(p.Port)
	if err != nil {
		return "", fmt.Errorf("invalid POSTGRES_PORT %q: %w", p.Port, err)
	}

	ssl := p.SSLMode
	if ssl == "" {
		ssl = defaultSSLMode
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, port, p.User, p.Password, p.DBName, ssl,
	), nil
}

// DatabaseDialect returns the migrations dialect for the configured mirror.
// SQLITE_PATH wins over the Postgres settings.
func DatabaseDialect() string {
	if envValue("SQLITE_PATH") != "" {
		return migrations.DialectSQLite
	}
	return migrations.DialectPostgres
}

// IsDatabaseConfigured reports whether SQLITE_PATH, APP_DATABASE_URL or
// POSTGRES_HOST is set. The waitlist runs on the CSV store alone otherwise.
func IsDatabaseConfigured() bool {
	return envValue("SQLITE_PATH") != "" ||
		envValue("APP_DATABASE_URL") != "" ||
		envValue("POSTGRES_HOST") != ""
}

func openDialector(logger *log.Logger, cfg *DBConfig) (gorm.Dialector, error) {
	if path := envValue("SQLITE_PATH"); path != "" {
		logger.Info("Using SQLite database", "path", path)
		return sqlite.Open(path), nil
	}

	if url := envValue("APP_DATABASE_URL"); url != "" {
		logger.Info("Using APP_DATABASE_URL for database connection")
		return postgres.Open(url), nil
	}

	pg := loadPostgresEnv()
	dsn, err := pg.dsn(cfg.SSLMode)
	if err != nil {
		logger.Error("Invalid database configuration", "error", err)
		return nil, err
	}

	logger.Info("Connecting to database",
		"host", pg.Host,
		"port", pg.Port,
		"user", pg.User,
		"dbname", pg.DBName,
	)
	return postgres.Open(dsn), nil
}

func NewDatabase(logger *log.Logger, cfg *DBConfig) (*gorm.DB, error) {
	if cfg == nil {
		cfg = NewDBConfig()
	}

	dialector, err := openDialector(logger, cfg)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		logger.Error("Failed to get database instance", "error", err)
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if dialector.Name() == "sqlite" {
		// SQLite allows a single writer.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingPolicy := retry.NewExponentialBackoff(&retry.Config{
		MaxAttempts: 5,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Multiplier:  2.0,
		OnRetry: func(attempt int, err error) {
			logger.Warn("Database not reachable yet; retrying", "attempt", attempt, "error", err)
		},
	})
	if err := pingPolicy.ExecuteContext(context.Background(), sqlDB.PingContext); err != nil {
		logger.Error("Database ping failed", "error", err)
		_ = sqlDB.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Database connection established successfully", "dialect", dialector.Name())
	return gdb, nil
}

// NewDatabaseOrNil connects only when a database is configured. A configured
// but unreachable database is still an error.
func NewDatabaseOrNil(logger *log.Logger, cfg *DBConfig) (*gorm.DB, error) {
	if !IsDatabaseConfigured() {
		logger.Info("Database is not configured; waitlist entries are kept in CSV only")
		return nil, nil
	}
	return NewDatabase(logger, cfg)
}

func AutoMigrate(logger *log.Logger, db *gorm.DB, models ...interface{}) error {
	if db == nil {
		logger.Error("Cannot migrate: db is empty")
		return fmt.Errorf("cannot migrate: db is empty")
	}

	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Database migration failed", "error", err)
		return fmt.Errorf("auto-migrate failed: %w", err)
	}

	logger.Info("Database migration completed successfully")

	return nil
}

func CloseDatabase(db *gorm.DB, logger *log.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get SQL DB instance", "error", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("Failed to close database", "error", err)
	} else {
		logger.Info("Database closed successfully")
	}
}
