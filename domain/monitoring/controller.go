package monitoring

import (
	"context"
	"net/http"
	"time"

	"github.com/akeren/waitlist-intake/config/router"
	"github.com/akeren/waitlist-intake/internal/log"
	"github.com/akeren/waitlist-intake/pkg/csvstore"
	"github.com/akeren/waitlist-intake/pkg/ratelimit"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	healthCheckTimeout          = 3 * time.Second
	monitoringRequestsPerMinute = 10
)

type Cache interface {
	Ping(ctx context.Context) error
}

// Storage is the part of the waitlist store the health checks read. Neither
// method creates files or directories.
type Storage interface {
	CheckWritable(ctx context.Context) error
	Scan(ctx context.Context) (*csvstore.Summary, error)
}

// HealthStatus reports 1 for a healthy dependency and 0 otherwise. Database
// and Cache are 0 when not configured.
type HealthStatus struct {
	Database int `json:"database"`
	Cache    int `json:"cache"`
	Storage  int `json:"storage"` // directory writable and header intact
	Entries  int `json:"entries"` // rows currently in the waitlist file
	Uptime   int `json:"uptime"`  // seconds
}

type MonitoringController struct {
	db        *gorm.DB
	logger    *log.Logger
	cache     Cache
	storage   Storage
	startTime time.Time
}

func NewMonitoringController(db *gorm.DB, logger *log.Logger, cache Cache, storage Storage) *router.RESTController {
	ctrl := &MonitoringController{
		db:        db,
		logger:    logger,
		cache:     cache,
		storage:   storage,
		startTime: time.Now(),
	}

	return router.NewRESTController("MonitoringController", "/",
		func(rs *router.RouterService, c *router.RESTController) {
			limiter := ratelimit.NewRateLimiter(&ratelimit.RateLimitConfig{
				Requests: monitoringRequestsPerMinute,
				Window:   time.Minute,
			})

			rs.AddGetHandler(c, limiter, "", ctrl.monitor)
			rs.AddGetHandler(c, limiter, "health", ctrl.healthCheck)
			rs.AddGetHandler(c, nil, "ready", ctrl.readiness)
		},
	)
}

func (ctrl *MonitoringController) monitor(*router.RequestContext) *router.ServiceResult {
	return router.OKResult("Monitoring endpoint is operational.", "Monitoring successful")
}

func (ctrl *MonitoringController) healthCheck(c *router.RequestContext) *router.ServiceResult {
	logger := router.GetLogger(c)
	logger.Info("Health check endpoint called")

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	return router.OKResult(ctrl.performHealthChecks(ctx, logger), "waitlist-intake health check completed")
}

// readiness answers 503 while an append would fail on permissions. File
// content is not read: a corrupt row or foreign header does not stop Append.
func (ctrl *MonitoringController) readiness(c *router.RequestContext) *router.ServiceResult {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	if !ctrl.checkWritable(ctx, router.GetLogger(c)) {
		return router.ErrorResult(http.StatusServiceUnavailable, "Waitlist storage is not ready", nil)
	}
	return router.OKResult(nil, "ready")
}

// performHealthChecks checks each dependency concurrently. Checks record
// their own result and never fail the group.
func (ctrl *MonitoringController) performHealthChecks(ctx context.Context, logger *log.Logger) HealthStatus {
	var database, cache int
	var storage HealthStatus

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		database = ctrl.checkDatabase(gctx, logger)
		return nil
	})
	g.Go(func() error {
		cache = ctrl.checkCache(gctx, logger)
		return nil
	})
	g.Go(func() error {
		storage = ctrl.checkStorage(gctx, logger)
		return nil
	})
	_ = g.Wait()

	return HealthStatus{
		Database: database,
		Cache:    cache,
		Storage:  storage.Storage,
		Entries:  storage.Entries,
		Uptime:   int(time.Since(ctrl.startTime).Seconds()),
	}
}

func (ctrl *MonitoringController) checkDatabase(ctx context.Context, logger *log.Logger) int {
	if ctrl.db == nil {
		logger.Info("Database not configured, database health check skipped")
		return 0
	}

	sqlDB, err := ctrl.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		logger.Error("Database health check failed", "error", err)
		return 0
	}

	logger.Info("Database health check passed")
	return 1
}

func (ctrl *MonitoringController) checkCache(ctx context.Context, logger *log.Logger) int {
	if ctrl.cache == nil {
		logger.Info("Cache not configured, cache health check skipped")
		return 0
	}

	if err := ctrl.cache.Ping(ctx); err != nil {
		logger.Error("Cache health check failed", "error", err)
		return 0
	}

	logger.Info("Cache health check passed")
	return 1
}

func (ctrl *MonitoringController) checkWritable(ctx context.Context, logger *log.Logger) bool {
	if ctrl.storage == nil {
		logger.Error("Waitlist storage not wired, storage health check skipped")
		return false
	}

	if err := ctrl.storage.CheckWritable(ctx); err != nil {
		logger.Error("Storage health check failed", "kind", csvstore.KindOf(err), "error", err)
		return false
	}
	return true
}

// checkStorage fills Storage and Entries only.
func (ctrl *MonitoringController) checkStorage(ctx context.Context, logger *log.Logger) HealthStatus {
	var status HealthStatus

	if !ctrl.checkWritable(ctx, logger) {
		return status
	}

	summary, err := ctrl.storage.Scan(ctx)
	if err != nil {
		logger.Error("Storage health check failed to read waitlist", "error", err)
		return status
	}

	status.Entries = summary.RowCount()

	// An empty or missing file gets its header on the next append.
	if summary.Exists && len(summary.Header) > 0 && !summary.HeaderValid {
		logger.Error("Storage health check found a foreign header", "path", summary.Path, "header", summary.Header)
		return status
	}

	status.Storage = 1
	logger.Info("Storage health check passed", "entries", status.Entries, "malformed", summary.Malformed)
	return status
}
