package router

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/akeren/waitlist-intake/pkg/ratelimit"
	"github.com/gin-gonic/gin"
)

func (routerService *RouterService) initRateLimiting() {
	redisClient := routerService.redisClient

	if redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := redisClient.Ping(ctx).Err()
		cancel()
		if err != nil {
			routerService.logger.Warn("Failed to connect to Redis for rate limiting, falling back to in-memory", "error", err)
			redisClient = nil
		}
	}

	routerService.rateLimiter = ratelimit.NewRateLimiter(&ratelimit.RateLimitConfig{
		Requests: routerService.rateLimitRequests,
		Window:   routerService.rateLimitWindow,
		Redis:    redisClient,
		Logger:   routerService.logger,
	})

	backend := "in-memory"
	if redisClient != nil {
		backend = "redis"
	}
	routerService.logger.Info("Rate limiting initialized",
		"backend", backend,
		"requests", routerService.rateLimitRequests,
		"window", routerService.rateLimitWindow,
	)
}

// limiterFor picks the handler override, then the default limiter. Overrides count under a per-handler key.
func (routerService *RouterService) limiterFor(c *gin.Context) (ratelimit.RateLimiter, string) {
	clientIP := c.ClientIP()
	handlerKey := routerService.keyForPathAndMethod(c.FullPath(), c.Request.Method)

	controller, found := routerService.handlerToControllerMap[handlerKey]
	if !found || controller == nil {
		// NoRoute and NoMethod traffic lands here.
		if c.FullPath() != "" {
			routerService.logger.Error("Handler registered without a controller mapping", "path", c.Request.URL.Path, "method", c.Request.Method)
		}
		return routerService.rateLimiter, "ratelimit:" + clientIP
	}

	if limiter, ok := routerService.rateLimitOverrides[handlerKey]; ok {
		return limiter, "ratelimit:" + handlerKey + ":" + clientIP
	}
	return routerService.rateLimiter, "ratelimit:" + clientIP
}

func retryAfterSeconds(window time.Duration) int {
	if s := int(math.Ceil(window.Seconds())); s > 1 {
		return s
	}
	return 1
}

func (routerService *RouterService) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter, key := routerService.limiterFor(c)
		if limiter == nil {
			c.Next()
			return
		}

		limit, window := limiter.GetLimitDetails()
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Window", window.String())

		limited, err := limiter.IsLimited(key)
		if err != nil {
			// Fail open: an unavailable limiter backend must not reject signups.
			routerService.logger.Error("Rate limiter error", "error", err, "client_ip", c.ClientIP())
			c.Next()
			return
		}

		if !limited {
			c.Next()
			return
		}

		retryAfter := strconv.Itoa(retryAfterSeconds(window))
		routerService.logger.Warn("Rate limit exceeded", "client_ip", c.ClientIP(), "path", c.Request.URL.Path)
		c.Header("Retry-After", retryAfter)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, TooManyRequestsResult(RateLimitResponse{
			Limit:      limit,
			Window:     window.String(),
			RetryAfter: retryAfter,
		}).ToJSON())
	}
}
