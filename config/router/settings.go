package router

import (
	"fmt"
	"strings"

	"github.com/akeren/waitlist-intake/pkg/utils"
)

const (
	defaultPort          = "8080"
	defaultMaxBodyBytes  = 1 << 20
	defaultHSTSMaxAge    = 31536000
	allowedCORSMethods   = "POST, OPTIONS"
	allowedCORSHeaders   = "Content-Type"
	correlationIDHeader  = "X-Correlation-ID"
	forwardedProtoHeader = "X-Forwarded-Proto"
)

type hstsPolicy struct {
	enabled           bool
	maxAge            int
	includeSubdomains bool
}

func (p hstsPolicy) value() string {
	v := fmt.Sprintf("max-age=%d", p.maxAge)
	if p.includeSubdomains {
		v += "; includeSubDomains"
	}
	return v
}

// httpSettings is read from the environment once, when the router is built.
type httpSettings struct {
	port           string
	maxBodyBytes   int64
	trustedProxies []string
	allowedOrigins []string
	hsts           hstsPolicy
	metricsEnabled bool
}

func loadHTTPSettings() httpSettings {
	appEnv := strings.ToLower(utils.GetEnvTrimmed("APP_ENV"))
	production := appEnv == "production" || appEnv == "prod"

	return httpSettings{
		port:           utils.GetEnvTrimmedOrDefault("APP_PORT", defaultPort),
		maxBodyBytes:   int64(utils.GetEnvPositiveInt("MAX_REQUEST_BODY_BYTES", defaultMaxBodyBytes)),
		trustedProxies: parseTrustedProxies(utils.GetEnvTrimmed("TRUSTED_PROXIES")),
		allowedOrigins: splitList(utils.GetEnvTrimmedOrDefault("CORS_ALLOWED_ORIGIN", "*")),
		hsts: hstsPolicy{
			enabled:           utils.GetEnvBool("HSTS_ENABLED", production),
			maxAge:            utils.GetEnvPositiveInt("HSTS_MAX_AGE", defaultHSTSMaxAge),
			includeSubdomains: utils.GetEnvBool("HSTS_INCLUDE_SUBDOMAINS", true),
		},
		metricsEnabled: utils.GetEnvBool("METRICS_ENABLED", true),
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseTrustedProxies returns nil to disable proxy trust, so ClientIP() uses
// RemoteAddr. "*" trusts every address.
func parseTrustedProxies(v string) []string {
	if v == "*" {
		return []string{"0.0.0.0/0", "::/0"}
	}
	return splitList(v)
}
