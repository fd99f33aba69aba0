package config

import (
	"context"
	"strings"
	"time"

	"github.com/akeren/waitlist-intake/config/router"
	"github.com/akeren/waitlist-intake/internal/log"
	"github.com/akeren/waitlist-intake/internal/models"
	"github.com/akeren/waitlist-intake/pkg/constants"
	"github.com/akeren/waitlist-intake/pkg/csvstore"
	"github.com/akeren/waitlist-intake/pkg/utils"
	"gorm.io/gorm"
)

type ApplicationConfig struct {
	DB              *gorm.DB
	RouterService   *router.RouterService
	Logger          *log.Logger
	Cache           Cache
	Store           *csvstore.Store
	Config          *AppConfig
	TracingShutdown func(context.Context) error

	cleanups []func()
}

type AppConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration

	WaitlistCSVPath           string
	WaitlistRoute             string
	WaitlistRateLimitRequests int
	// WaitlistStatsSchedule drives the CSV stats scan; "off" disables it.
	WaitlistStatsSchedule string
}

func NewAppConfig() *AppConfig {
	config := &AppConfig{
		RateLimitRequests: utils.GetEnvPositiveInt("RATE_LIMIT_REQUESTS", constants.DefaultRateLimitRequests),
		RateLimitWindow:   utils.GetEnvPositiveDuration("RATE_LIMIT_WINDOW", constants.DefaultRateLimitWindow),
		RequestTimeout:    utils.GetEnvPositiveDuration("REQUEST_TIMEOUT", 30*time.Second),

		WaitlistCSVPath:           constants.DefaultWaitlistCSVPath,
		WaitlistRoute:             constants.DefaultWaitlistRoute,
		WaitlistRateLimitRequests: utils.GetEnvPositiveInt("WAITLIST_RATE_LIMIT_REQUESTS", constants.DefaultWaitlistRateLimitRequests),
		WaitlistStatsSchedule:     utils.GetEnvTrimmedOrDefault("WAITLIST_STATS_SCHEDULE", constants.DefaultWaitlistStatsSchedule),
	}

	if csvPath := envValue("WAITLIST_CSV_PATH"); csvPath != "" {
		config.WaitlistCSVPath = csvPath
	}

	if route := envValue("WAITLIST_ROUTE"); route != "" {
		if !strings.HasPrefix(route, "/") {
			route = "/" + route
		}
		config.WaitlistRoute = route
	}

	return config
}

const tracingShutdownTimeout = 5 * time.Second

// OnCleanup registers fn to run before the shared resources are released.
func (ac *ApplicationConfig) OnCleanup(fn func()) {
	ac.cleanups = append(ac.cleanups, fn)
}

// Cleanup releases resources in reverse start order; tracing is flushed last.
func (ac *ApplicationConfig) Cleanup() {
	for i := len(ac.cleanups) - 1; i >= 0; i-- {
		ac.cleanups[i]()
	}
	ac.cleanups = nil

	if ac.RouterService != nil {
		ac.RouterService.Cleanup()
	}
	if ac.Cache != nil {
		CloseCache(ac.Cache, ac.Logger)
	}
	if ac.DB != nil {
		CloseDatabase(ac.DB, ac.Logger)
	}
	shutdownTracing(ac.Logger, ac.TracingShutdown)

	ac.Logger.Info("Application cleanup completed")
}

func shutdownTracing(logger *log.Logger, shutdown func(context.Context) error) {
	if shutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), tracingShutdownTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown tracer provider", "error", err)
	}
}

func checkAutoMigrate(logger *log.Logger) error {
	appEnv := GetAppEnv()
	if err := ValidateAutoMigrateAllowed(appEnv); err != nil {
		return err
	}
	if appEnv == "" {
		logger.Warn("APP_ENV not set; allowing --auto-migrate as development")
	}
	return nil
}

// LoadApplicationConfiguration wires the process. Only the CSV store is
// required; the database, Redis and tracing are attached when configured.
func LoadApplicationConfiguration(logger *log.Logger, autoMigrate bool) (*ApplicationConfig, error) {
	InitializeEnvFile(logger)

	if autoMigrate {
		if err := checkAutoMigrate(logger); err != nil {
			return nil, err
		}
	}

	tracingShutdown, err := SetupTracing(logger)
	if err != nil {
		return nil, err
	}

	db, err := NewDatabaseOrNil(logger, nil)
	if err != nil {
		shutdownTracing(logger, tracingShutdown)
		return nil, err
	}

	switch {
	case !autoMigrate:
	case db == nil:
		logger.Warn("--auto-migrate ignored; no database configured")
	default:
		if err := AutoMigrate(logger, db, models.ModelRegistry...); err != nil {
			CloseDatabase(db, logger)
			shutdownTracing(logger, tracingShutdown)
			return nil, err
		}
	}

	appConfig := NewAppConfig()
	cache := NewCacheConfig().NewCacheOrNil(logger)

	ac := &ApplicationConfig{
		DB:              db,
		Logger:          logger,
		Cache:           cache,
		Store:           NewWaitlistStore(logger, appConfig.WaitlistCSVPath),
		Config:          appConfig,
		TracingShutdown: tracingShutdown,
	}
	ac.RouterService = router.CreateRouterService(logger, cache, &router.RouterConfig{
		RateLimitRequests: appConfig.RateLimitRequests,
		RateLimitWindow:   appConfig.RateLimitWindow,
		RequestTimeout:    appConfig.RequestTimeout,
	})

	logger.Info("Application configuration loaded",
		"csv_path", appConfig.WaitlistCSVPath,
		"route", appConfig.WaitlistRoute,
		"database", db != nil,
		"cache", cache != nil,
		"tracing", tracingShutdown != nil,
	)
	return ac, nil
}

// NewWaitlistStore opens the CSV store and prepares its directory.
// Preparation failures are only logged; each submission checks again.
func NewWaitlistStore(logger *log.Logger, path string) *csvstore.Store {
	store := csvstore.New(path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := store.EnsureReady(ctx); err != nil {
		logger.Error("Waitlist storage is not ready", "path", path, "kind", csvstore.KindOf(err), "error", err)
		return store
	}

	logger.Info("Waitlist storage ready", "path", path)
	return store
}
