package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nest-hub/internal/utils"
)

func newManager(t *testing.T, clock clockwork.Clock) *TokenManager {
	t.Helper()
	tm, err := NewTokenManager("test-secret", time.Hour, clock)
	require.NoError(t, err)
	return tm
}

func TestTokenRoundTrip(t *testing.T) {
	tm := newManager(t, nil)

	token, err := tm.GenerateToken("user-1")
	require.NoError(t, err)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestTokenExpires(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tm := newManager(t, clock)

	token, err := tm.GenerateToken("user-1")
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	_, err = tm.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := newManager(t, nil).GenerateToken("user-1")
	require.NoError(t, err)

	other, err := NewTokenManager("another-secret", time.Hour, nil)
	require.NoError(t, err)
	_, err = other.ValidateToken(token)
	assert.Error(t, err)

	_, err = NewTokenManager("", time.Hour, nil)
	assert.Error(t, err)
}

func TestRequireAuth(t *testing.T) {
	tm := newManager(t, nil)
	var seen string
	handler := tm.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, utils.ErrUnauthorized, body["code"])

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := tm.GenerateToken("user-7")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "user-7", seen)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/chat?token="+token, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCORSMiddleware(t *testing.T) {
	handler := CORSMiddleware(DefaultCORSConfig([]string{"http://app.test"}))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) }))

	req := httptest.NewRequest(http.MethodOptions, "/api/posts", nil)
	req.Header.Set("Origin", "http://app.test")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://app.test", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestMetricsRecordsPattern(t *testing.T) {
	metrics := utils.NewMetricsCollector()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	handler := RequestMetrics(metrics)(mux)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts/p1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	n, err := testutil.GatherAndCount(metrics.Registry(), "nest_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
