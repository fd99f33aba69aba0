package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/akeren/waitlist-intake/internal/log"
	apperrors "github.com/akeren/waitlist-intake/pkg/errors"
	"github.com/gin-gonic/gin"
)

func (routerService *RouterService) correlationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(correlationIDHeader))
		if id == "" {
			id = log.GenerateCorrelationID()
		}
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), log.CorrelatedIDKey, id))
		c.Header(correlationIDHeader, id)
		c.Next()
	}
}

func (routerService *RouterService) loggerInjectionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlatedLogger := routerService.logger.WithCorrelationID(c.Request.Context())
		ctx := context.WithValue(c.Request.Context(), log.LoggerKeyForContext, correlatedLogger)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (routerService *RouterService) requestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.GetLoggerInstanceFromContext(c.Request.Context(), routerService.logger).Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"bytes", c.Writer.Size(),
			"latency_ms", time.Since(start).Milliseconds(),
			"remote_addr", c.ClientIP(),
		)
	}
}

func (routerService *RouterService) securityHeadersMiddleware() gin.HandlerFunc {
	hsts := routerService.settings.hsts

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if hsts.enabled && isHTTPS(c) {
			h.Set("Strict-Transport-Security", hsts.value())
		}
		c.Next()
	}
}

// isHTTPS also trusts X-Forwarded-Proto for TLS terminated at a proxy.
func isHTTPS(c *gin.Context) bool {
	if c.Request.TLS != nil {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(c.GetHeader(forwardedProtoHeader)), "https")
}

// maxBodySizeMiddleware rejects declared oversize bodies up front and caps
// the rest, so handlers see *http.MaxBytesError when reading.
func (routerService *RouterService) maxBodySizeMiddleware() gin.HandlerFunc {
	maxBytes := routerService.settings.maxBodyBytes

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorResult(
				apperrors.StatusPayloadTooLarge,
				"Request payload too large",
				nil,
			).ToJSON())
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// timeoutMiddleware sets a request deadline. Handlers run inline because
// gin.Context is not safe for concurrent use; the server's Read/WriteTimeout
// bound the rest.
func (routerService *RouterService) timeoutMiddleware() gin.HandlerFunc {
	timeout := routerService.requestTimeout

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			routerService.logger.WithCorrelationID(ctx).Warn("Request timeout detected", "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusRequestTimeout, ErrorResult(
				apperrors.StatusRequestTimeout,
				"Request timeout",
				nil,
			).ToJSON())
		}
	}
}
