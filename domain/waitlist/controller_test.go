package waitlist

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/akeren/waitlist-intake/config/router"
	"github.com/akeren/waitlist-intake/internal/log"
	"github.com/akeren/waitlist-intake/pkg/csvstore"
	"github.com/akeren/waitlist-intake/pkg/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submitResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	File         string `json:"file"`
	Timestamp    string `json:"timestamp"`
	ErrorDetails string `json:"error_details"`
}

func newTestEngine(t *testing.T, csvPath string, limiter ratelimit.RateLimiter) http.Handler {
	t.Helper()

	logger := log.NewLoggerWithJSONOutput()
	rs := router.CreateRouterService(logger, nil, &router.RouterConfig{
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
	})
	t.Cleanup(rs.Cleanup)

	svc := NewWaitlistService(logger, csvstore.New(csvPath), nil, nil)
	rs.MountController(NewWaitlistController("/v1/waitlist", svc, limiter))

	return rs.GetEngine()
}

func postJSON(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, submitResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/v1/waitlist", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.10:5555"

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp submitResponse
	require.NoError(t, json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&resp), w.Body.String())
	return w, resp
}

func readRows(t *testing.T, path string) []string {
	t.Helper()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
}

func TestSubmitWaitlistEntry_AcceptsOnEmptyStorage(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "media", "waitlist.csv")
	h := newTestEngine(t, csvPath, nil)

	w, resp := postJSON(t, h, `{"fullName":"Jane Doe","email":"jane@x.com","phone":"+1 555-0100"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "Thank you! You have been added to our waitlist.", resp.Message)
	assert.Equal(t, csvPath, resp.File)
	_, err := time.Parse("2006-01-02 15:04:05", resp.Timestamp)
	assert.NoError(t, err)

	rows := readRows(t, csvPath)
	require.Len(t, rows, 2)
	assert.Equal(t, "Full Name,Email,Country Code,Phone Number,Country,Interests,Timestamp,IP Address", rows[0])
	assert.True(t, strings.HasPrefix(rows[1], "Jane Doe,jane@x.com,,+1 555-0100,,,"), rows[1])
	assert.True(t, strings.HasSuffix(rows[1], ",192.0.2.10"), rows[1])
}

func TestSubmitWaitlistEntry_HeaderWrittenOnce(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "waitlist.csv")
	h := newTestEngine(t, csvPath, nil)

	for i := 0; i < 3; i++ {
		w, _ := postJSON(t, h, `{"fullName":"Jane","email":"jane@example.com","phone":"1","timestamp":"t","ipAddress":"ip"}`)
		require.Equal(t, http.StatusOK, w.Code)
	}

	rows := readRows(t, csvPath)
	require.Len(t, rows, 4)
	for _, row := range rows[1:] {
		assert.Equal(t, "Jane,jane@example.com,,1,,,t,ip", row)
	}
}

func TestSubmitWaitlistEntry_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"empty body", ``, http.StatusBadRequest, "No data received"},
		{"invalid json", `{"fullName":`, http.StatusBadRequest, "Invalid JSON: unexpected EOF"},
		{"non-object", `[1,2]`, http.StatusBadRequest, "Invalid JSON: expected a JSON object, got array"},
		{"null", `null`, http.StatusBadRequest, "Missing required fields: fullName, email, phone"},
		{"blank name", `{"fullName":"","email":"jane@x.com","phone":"1"}`, http.StatusBadRequest, "Missing required fields: fullName"},
		{"bad email", `{"fullName":"Jane","email":"bad-email","phone":"1"}`, http.StatusBadRequest, "Invalid email format: bad-email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			csvPath := filepath.Join(t.TempDir(), "waitlist.csv")
			h := newTestEngine(t, csvPath, nil)

			w, resp := postJSON(t, h, tt.body)

			assert.Equal(t, tt.status, w.Code)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.message, resp.Message)

			_, err := os.Stat(csvPath)
			assert.True(t, os.IsNotExist(err), "rejected submissions must not create the file")
		})
	}
}

func TestSubmitWaitlistEntry_StorageFailure(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "media")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0o644))

	h := newTestEngine(t, filepath.Join(blocker, "waitlist.csv"), nil)

	w, resp := postJSON(t, h, `{"fullName":"Jane","email":"jane@example.com","phone":"1"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "Error saving data: "+csvstore.DetailDirectoryCreateFailed, resp.Message)
	assert.Equal(t, "Check server error logs for more information", resp.ErrorDetails)

	raw, err := os.ReadFile(blocker)
	require.NoError(t, err)
	assert.Equal(t, "not a directory", string(raw))
}

func TestSubmitWaitlistEntry_OtherMethods(t *testing.T) {
	h := newTestEngine(t, filepath.Join(t.TempDir(), "waitlist.csv"), nil)

	methods := []string{
		http.MethodGet,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
		http.MethodTrace,
		http.MethodConnect,
		"PROPFIND",
	}
	for _, method := range methods {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, "/v1/waitlist", nil)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

			var resp submitResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, "Method not allowed. Use POST.", resp.Message)
		})
	}

	t.Run("HEAD", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodHead, "/v1/waitlist", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})

	t.Run("OPTIONS preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/v1/waitlist", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
		assert.Equal(t, "POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	})
}

func TestSubmitWaitlistEntry_RateLimited(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "waitlist.csv")
	h := newTestEngine(t, csvPath, ratelimit.NewInMemoryRateLimiter(1, time.Minute))

	body := `{"fullName":"Jane","email":"jane@example.com","phone":"1"}`

	first, _ := postJSON(t, h, body)
	require.Equal(t, http.StatusOK, first.Code)

	second, resp := postJSON(t, h, body)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.False(t, resp.Success)

	assert.Len(t, readRows(t, csvPath), 2)
}
