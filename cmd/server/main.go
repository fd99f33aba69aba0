package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akeren/waitlist-intake/config"
	"github.com/akeren/waitlist-intake/domain"
	"github.com/akeren/waitlist-intake/internal/log"
	"github.com/akeren/waitlist-intake/pkg/utils"
)

const defaultShutdownTimeout = 30 * time.Second

func main() {
	os.Exit(run(os.Args[1:]))
}

func parseFlags(args []string) (autoMigrate bool, err error) {
	fs := flag.NewFlagSet("waitlist-server", flag.ContinueOnError)
	fs.BoolVar(&autoMigrate, "auto-migrate", false, "run gorm AutoMigrate for the mirror table before serving")
	fs.BoolVar(&autoMigrate, "m", false, "shorthand for --auto-migrate")
	err = fs.Parse(args)
	return autoMigrate, err
}

func run(args []string) int {
	logger := log.NewLoggerWithJSONOutput()

	autoMigrate, err := parseFlags(args)
	if err != nil {
		return 2
	}

	appConfig, err := config.LoadApplicationConfiguration(logger, autoMigrate)
	if err != nil {
		logger.Error("Failed to load application configuration", "error", err.Error())
		return 1
	}
	defer appConfig.Cleanup()

	domain.SetupCoreDomain(appConfig)
	logger.Info("Waitlist intake server initialized", "csv_path", appConfig.Config.WaitlistCSVPath, "auto_migrate", autoMigrate)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- appConfig.RouterService.RunHTTPServer()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server error", "error", err)
			return 1
		}
		return 0
	case <-ctx.Done():
	}

	timeout := utils.GetEnvPositiveDuration("SHUTDOWN_TIMEOUT", defaultShutdownTimeout)
	logger.Info("Shutdown signal received", "timeout", timeout.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := appConfig.RouterService.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
		return 1
	}

	logger.Info("Graceful shutdown completed")
	return 0
}
