package router

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadHTTPSettings_Defaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "APP_PORT", "MAX_REQUEST_BODY_BYTES", "TRUSTED_PROXIES", "CORS_ALLOWED_ORIGIN", "HSTS_ENABLED", "HSTS_MAX_AGE", "HSTS_INCLUDE_SUBDOMAINS", "METRICS_ENABLED"} {
		t.Setenv(key, "")
	}

	s := loadHTTPSettings()

	assert.Equal(t, "8080", s.port)
	assert.Equal(t, int64(1<<20), s.maxBodyBytes)
	assert.Nil(t, s.trustedProxies)
	assert.Equal(t, []string{"*"}, s.allowedOrigins)
	assert.False(t, s.hsts.enabled)
	assert.True(t, s.metricsEnabled)
	assert.Equal(t, "max-age=31536000; includeSubDomains", s.hsts.value())
}

func TestLoadHTTPSettings_ProductionEnablesHSTS(t *testing.T) {
	t.Setenv("APP_ENV", "Production")
	t.Setenv("HSTS_ENABLED", "")
	t.Setenv("HSTS_MAX_AGE", "600")
	t.Setenv("HSTS_INCLUDE_SUBDOMAINS", "false")

	s := loadHTTPSettings()

	assert.True(t, s.hsts.enabled)
	assert.Equal(t, "max-age=600", s.hsts.value())

	t.Setenv("HSTS_ENABLED", "false")
	assert.False(t, loadHTTPSettings().hsts.enabled)
}

func TestParseTrustedProxies(t *testing.T) {
	assert.Nil(t, parseTrustedProxies(""))
	assert.Nil(t, parseTrustedProxies(" , "))
	assert.Equal(t, []string{"0.0.0.0/0", "::/0"}, parseTrustedProxies("*"))
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.1"}, parseTrustedProxies("10.0.0.0/8, 192.168.1.1"))
}

func TestSecurityHeaders_HSTSOnlyOverHTTPS(t *testing.T) {
	t.Setenv("HSTS_ENABLED", "true")

	rs := newTestRouterService(t)
	mountTestController(rs)

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))

	req = httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("X-Forwarded-Proto", "HTTPS")
	w = httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))

	req = httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.TLS = &tls.ConnectionState{}
	w = httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestCorrelationID_EchoedOrGenerated(t *testing.T) {
	rs := newTestRouterService(t)
	mountTestController(rs)

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("X-Correlation-ID", "signup-123")
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)
	assert.Equal(t, "signup-123", w.Header().Get("X-Correlation-ID"))

	req = httptest.NewRequest(http.MethodGet, "/ip", nil)
	w = httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)
	assert.Len(t, w.Header().Get("X-Correlation-ID"), 36)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Setenv("METRICS_ENABLED", "")

	rs := newTestRouterService(t)
	mountTestController(rs)
	require.NotNil(t, rs.MetricsRegisterer())

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ip", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.True(t, strings.Contains(body, `http_requests_total{method="GET",route="/ip",status="200"} 1`), body)
	assert.Contains(t, body, "http_requests_in_flight")
}

func TestMetricsDisabled(t *testing.T) {
	t.Setenv("METRICS_ENABLED", "false")

	rs := newTestRouterService(t)
	assert.Nil(t, rs.MetricsRegisterer())

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRESTController_MountPoints(t *testing.T) {
	assert.Equal(t, "/", NewRESTController("root", "", nil).mountPoint)
	assert.Equal(t, "/v1/waitlist", NewRESTController("waitlist", "v1/waitlist/", nil).mountPoint)

	c := NewRESTController("waitlist", "/v1/waitlist", nil)
	assert.Equal(t, "/v1/waitlist", c.routePath(""))
	assert.Equal(t, "/v1/waitlist/export", c.routePath("/export/"))
}

func TestAddHandler_DuplicateRegistrationPanics(t *testing.T) {
	rs := newTestRouterService(t)
	handler := func(*RequestContext) *ServiceResult { return OKResult(nil, "ok") }

	first := NewRESTController("First", "/dup", func(rs *RouterService, c *RESTController) {
		rs.AddPostHandler(c, nil, "", handler)
	})
	second := NewRESTController("Second", "/dup", func(rs *RouterService, c *RESTController) {
		rs.AddPostHandler(c, nil, "", handler)
	})

	rs.MountController(first)
	assert.Panics(t, func() { rs.MountController(second) })
}

func TestRenderResult_NilResultIs500(t *testing.T) {
	rs := newTestRouterService(t)
	rs.MountController(NewRESTController("Broken", "/broken", func(rs *RouterService, c *RESTController) {
		rs.AddGetHandler(c, nil, "", func(*RequestContext) *ServiceResult { return nil })
	}))

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/broken", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 1, retryAfterSeconds(0))
	assert.Equal(t, 1, retryAfterSeconds(200*time.Millisecond))
	assert.Equal(t, 60, retryAfterSeconds(time.Minute))
	assert.Equal(t, 61, retryAfterSeconds(60500*time.Millisecond))
}

func TestMethodNotAllowedHandler_CoversEveryMethod(t *testing.T) {
	rs := newTestRouterService(t)
	rs.MountController(NewRESTController("Signup", "/signup", func(rs *RouterService, c *RESTController) {
		rs.AddPostHandler(c, nil, "", func(*RequestContext) *ServiceResult { return OKResult(nil, "ok") })
		rs.AddMethodNotAllowedHandler(c, "", func(*RequestContext) *ServiceResult {
			return MethodNotAllowedResult("Use POST.")
		})
	}))
	rs.MountController(NewRESTController("Other", "/other", func(rs *RouterService, c *RESTController) {
		rs.AddPostHandler(c, nil, "", func(*RequestContext) *ServiceResult { return OKResult(nil, "ok") })
	}))

	for _, method := range []string{http.MethodGet, http.MethodTrace, "PROPFIND", "BREW"} {
		w := httptest.NewRecorder()
		rs.GetEngine().ServeHTTP(w, httptest.NewRequest(method, "/signup", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
		assert.Equal(t, "Use POST.", decodeEnvelope(t, w).Message, method)
	}

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, httptest.NewRequest("PROPFIND", "/other", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "Method not allowed", decodeEnvelope(t, w).Message)
}

func TestMethodNotAllowedHandler_DuplicatePanics(t *testing.T) {
	rs := newTestRouterService(t)
	handler := func(*RequestContext) *ServiceResult { return MethodNotAllowedResult("no") }

	rs.MountController(NewRESTController("First", "/dup405", func(rs *RouterService, c *RESTController) {
		rs.AddMethodNotAllowedHandler(c, "", handler)
	}))
	assert.Panics(t, func() {
		rs.MountController(NewRESTController("Second", "/dup405", func(rs *RouterService, c *RESTController) {
			rs.AddMethodNotAllowedHandler(c, "", handler)
		}))
	})
}

func TestRecovery_RendersJSONEnvelope(t *testing.T) {
	rs := newTestRouterService(t)
	rs.MountController(NewRESTController("Panics", "/panics", func(rs *RouterService, c *RESTController) {
		rs.AddGetHandler(c, nil, "", func(*RequestContext) *ServiceResult { panic("nil map write") })
	}))

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panics", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	body := decodeEnvelope(t, w)
	assert.False(t, body.Success)
	assert.Equal(t, "Internal server error", body.Message)
}
