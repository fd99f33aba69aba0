package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/akeren/waitlist-intake/config"
	"github.com/akeren/waitlist-intake/internal/log"
	"github.com/akeren/waitlist-intake/pkg/csvstore"
	"github.com/akeren/waitlist-intake/pkg/migrations"
	"github.com/akeren/waitlist-intake/pkg/utils"
)

func main() {
	logger := log.NewLoggerWithJSONOutput()

	config.InitializeEnvFile(logger)

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "migrate":
		if len(args) > 1 && args[1] == "status" {
			os.Exit(runMigrateStatus(logger))
		}
		os.Exit(runMigrate(logger))

	case "inspect":
		path := config.NewAppConfig().WaitlistCSVPath
		if len(args) > 1 {
			path = args[1]
		}
		os.Exit(runInspect(logger, path))

	case "help", "-h", "--help":
		printUsage()
		return

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func openSQLDB(logger *log.Logger) (*sql.DB, func(), error) {
	db, err := config.NewDatabase(logger, nil)
	if err != nil {
		return nil, nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}

	closeDB := func() {
		if err := sqlDB.Close(); err != nil {
			logger.Warn("Failed to close SQL DB after migration", "error", err.Error())
		}
	}
	return sqlDB, closeDB, nil
}

func migrationsConfig(logger *log.Logger) migrations.Config {
	return migrations.Config{
		Dir:     utils.GetEnvTrimmedOrDefault("MIGRATIONS_DIR", migrations.DefaultDir),
		Dialect: config.DatabaseDialect(),
		Logger:  logger,
	}
}

func runMigrate(logger *log.Logger) int {
	sqlDB, closeDB, err := openSQLDB(logger)
	if err != nil {
		logger.Error("Failed to connect to database for migration", "error", err.Error())
		return 1
	}
	defer closeDB()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := migrations.Up(ctx, sqlDB, migrationsConfig(logger)); err != nil {
		logger.Error("Database migration failed", "error", err.Error())
		return 1
	}

	logger.Info("Database migrations completed")
	return 0
}

func runMigrateStatus(logger *log.Logger) int {
	sqlDB, closeDB, err := openSQLDB(logger)
	if err != nil {
		logger.Error("Failed to connect to database for migration status", "error", err.Error())
		return 1
	}
	defer closeDB()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	status, err := migrations.CurrentStatus(ctx, sqlDB, migrationsConfig(logger))
	if err != nil {
		logger.Error("Failed to read migration status", "error", err.Error())
		return 1
	}

	if !status.Applied {
		fmt.Println("no migrations applied")
		return 0
	}
	fmt.Printf("version %d (dirty=%t)\n", status.Version, status.Dirty)
	return 0
}

func runInspect(logger *log.Logger, path string) int {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	summary, err := csvstore.New(path).Scan(ctx)
	if err != nil {
		logger.Error("Failed to read waitlist file", "path", path, "error", err.Error())
		return 1
	}

	if err := writeSummary(os.Stdout, summary); err != nil {
		logger.Error("Failed to print waitlist summary", "error", err.Error())
		return 1
	}

	if summary.Exists && len(summary.Header) > 0 && !summary.HeaderValid {
		return 2
	}
	return 0
}

func printUsage() {
	fmt.Println("Usage: cli <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  migrate          Run database migrations and exit")
	fmt.Println("  migrate status   Print the applied schema version")
	fmt.Println("  inspect [path]   Report the waitlist CSV header and row counts (default WAITLIST_CSV_PATH)")
}
