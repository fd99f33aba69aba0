package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// corsMiddleware answers preflight requests itself and stamps every response
// as JSON. CORS_ALLOWED_ORIGIN takes a comma-separated list and defaults to "*".
func (routerService *RouterService) corsMiddleware() gin.HandlerFunc {
	allowedOrigins := routerService.settings.allowedOrigins

	return func(c *gin.Context) {
		h := c.Writer.Header()

		origin := c.GetHeader("Origin")
		switch allowed := resolveAllowedOrigin(allowedOrigins, origin); allowed {
		case "":
			routerService.logger.Warn("CORS origin not allowed", "origin", origin, "allowed_origins", allowedOrigins)
		case "*":
			h.Set("Access-Control-Allow-Origin", allowed)
		default:
			h.Set("Access-Control-Allow-Origin", allowed)
			h.Add("Vary", "Origin")
		}

		h.Set("Access-Control-Allow-Methods", allowedCORSMethods)
		h.Set("Access-Control-Allow-Headers", allowedCORSHeaders)
		h.Set("Content-Type", "application/json")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}

// resolveAllowedOrigin returns "*", the echoed origin, or "" when origin is
// not in the list.
func resolveAllowedOrigin(allowedOrigins []string, origin string) string {
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			return "*"
		}
		if origin != "" && allowed == origin {
			return origin
		}
	}
	return ""
}
