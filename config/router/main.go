package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/akeren/waitlist-intake/internal/log"
	"github.com/akeren/waitlist-intake/pkg/ratelimit"
	"github.com/akeren/waitlist-intake/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const DefaultTimeoutDuration = 30 * time.Second

const msgInternalServerError = "Internal server error"

type Cache interface {
	Ping(ctx context.Context) error
}

type RedisClientProvider interface {
	GetClient() *redis.Client
}

type RouterService struct {
	engine   *gin.Engine
	server   *http.Server
	logger   *log.Logger
	settings httpSettings
	registry *prometheus.Registry

	rateLimiter       ratelimit.RateLimiter
	rateLimitRequests int
	rateLimitWindow   time.Duration
	redisClient       *redis.Client
	requestTimeout    time.Duration

	handlerToControllerMap map[string]*RESTController
	rateLimitOverrides     map[string]ratelimit.RateLimiter
	// methodFallbacks renders 405s for mount paths that registered one.
	methodFallbacks map[string]MiddlewareFunc
}

type RouterConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration
}

func redisClientFrom(cache Cache) *redis.Client {
	if provider, ok := cache.(RedisClientProvider); ok {
		return provider.GetClient()
	}
	return nil
}

func CreateRouterService(logger *log.Logger, cache Cache, routerConfig *RouterConfig) *RouterService {
	if mode := utils.GetEnvTrimmed("GIN_MODE"); mode != "" {
		logger.Info("Setting Gin mode", "mode", mode)
		gin.SetMode(mode)
	}

	timeout := routerConfig.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultTimeoutDuration
	}

	settings := loadHTTPSettings()
	engine := gin.New()
	engine.Use(gin.CustomRecovery(recoveryHandler(logger)))

	if utils.IsTracingEnabled() {
		engine.Use(otelgin.Middleware(utils.OTelServiceName()))
		logger.Info("Tracing middleware enabled")
	}

	// ClientIP() honours X-Forwarded-For only from TRUSTED_PROXIES.
	if err := engine.SetTrustedProxies(settings.trustedProxies); err != nil {
		logger.Error("Invalid TRUSTED_PROXIES; disabling trusted proxies", "error", err)
		_ = engine.SetTrustedProxies(nil)
	} else if settings.trustedProxies == nil {
		logger.Info("Trusted proxies disabled (TRUSTED_PROXIES not set)")
	}

	rs := &RouterService{
		engine:            engine,
		logger:            logger,
		settings:          settings,
		rateLimitRequests: routerConfig.RateLimitRequests,
		rateLimitWindow:   routerConfig.RateLimitWindow,
		redisClient:       redisClientFrom(cache),
		requestTimeout:    timeout,

		rateLimitOverrides:     make(map[string]ratelimit.RateLimiter),
		methodFallbacks:        make(map[string]MiddlewareFunc),
		handlerToControllerMap: make(map[string]*RESTController),
	}

	rs.initRateLimiting()
	rs.mountMetrics()

	engine.Use(
		rs.securityHeadersMiddleware(),
		rs.maxBodySizeMiddleware(),
		rs.corsMiddleware(),
		rs.rateLimitMiddleware(),
		rs.timeoutMiddleware(),
		rs.correlationIDMiddleware(),
		rs.loggerInjectionMiddleware(),
		rs.requestLoggingMiddleware(),
	)

	engine.HandleMethodNotAllowed = true
	engine.RedirectTrailingSlash = true
	engine.NoRoute(rs.noRouteHandler)
	engine.NoMethod(rs.noMethodHandler)

	rs.server = &http.Server{
		Addr:    ":" + settings.port,
		Handler: engine,

		// Gin's Context is not goroutine-safe, so hard time limits live on
		// the server rather than in a handler goroutine.
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("Router service initialized", "addr", rs.server.Addr)
	return rs
}

// recoveryHandler keeps panics inside the JSON envelope.
func recoveryHandler(logger *log.Logger) gin.RecoveryFunc {
	return func(c *gin.Context, recovered any) {
		logger.WithCorrelationID(c.Request.Context()).
			Error("Recovered from handler panic", "method", c.Request.Method, "path", c.Request.URL.Path, "panic", fmt.Sprint(recovered))
		c.AbortWithStatusJSON(http.StatusInternalServerError, InternalServerErrorResult(msgInternalServerError).ToJSON())
	}
}

func (routerService *RouterService) noRouteHandler(c *gin.Context) {
	routerService.logger.WithCorrelationID(c.Request.Context()).
		Warn("Route not found", "method", c.Request.Method, "path", c.Request.URL.Path)
	c.JSON(http.StatusNotFound, NotFoundResult("Route not found").ToJSON())
}

func (routerService *RouterService) noMethodHandler(c *gin.Context) {
	if fallback, ok := routerService.methodFallbacks[path.Clean(c.Request.URL.Path)]; ok {
		fallback(c)
		return
	}
	routerService.logger.WithCorrelationID(c.Request.Context()).
		Warn("Method not allowed", "method", c.Request.Method, "path", c.Request.URL.Path)
	c.JSON(http.StatusMethodNotAllowed, MethodNotAllowedResult("Method not allowed").ToJSON())
}

func (routerService *RouterService) GetEngine() *gin.Engine {
	return routerService.engine
}

func (routerService *RouterService) Cleanup() {
	if routerService.rateLimiter != nil {
		if err := routerService.rateLimiter.Close(); err != nil {
			routerService.logger.Error("Failed to close rate limiter", "error", err)
		}
	}
	for key, limiter := range routerService.rateLimitOverrides {
		if err := limiter.Close(); err != nil {
			routerService.logger.Error("Failed to close rate limiter", "handler", key, "error", err)
		}
	}
	routerService.logger.Info("Router service cleanup completed")
}

func (routerService *RouterService) MountController(controller *RESTController) {
	controller.prepare(routerService, controller)

	routerService.logger.Info("Controller mounted",
		"name", controller.name,
		"path", controller.mountPoint,
		"handlers", controller.handlerCount,
	)
}

// RunHTTPServer blocks until the server stops. A graceful Shutdown returns nil.
func (routerService *RouterService) RunHTTPServer() error {
	routerService.logger.Info("Starting HTTP server", "addr", routerService.server.Addr, "pid", os.Getpid())

	if err := routerService.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		routerService.logger.Error("Failed to start HTTP server", "error", err)
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

func (routerService *RouterService) Shutdown(ctx context.Context) error {
	routerService.logger.Info("Shutting down HTTP server gracefully...")
	return routerService.server.Shutdown(ctx)
}
