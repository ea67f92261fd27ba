package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/carebridge-health/portal/internal/auth"
	"github.com/carebridge-health/portal/internal/config"
	"github.com/carebridge-health/portal/internal/domain/authz"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthRejectsMissingHeader(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret-test-secret-test-1234", time.Hour, "portal-test")
	handler := RequireAuth(tokens, "test")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthRejectsGarbageToken(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret-test-secret-test-1234", time.Hour, "portal-test")
	handler := RequireAuth(tokens, "test")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthStoresIdentity(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret-test-secret-test-1234", time.Hour, "portal-test")
	token, err := tokens.Generate("user-1", "jane@example.org", "org-1", "user")
	require.NoError(t, err)

	var got authz.Identity
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		require.True(t, ok)
		got = identity
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireAuth(tokens, "test")(inner)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "user-1", got.ProfileID)
	require.Equal(t, "org-1", got.OrganizationID)
	require.Equal(t, auth.RoleUser, got.Role)
}

func TestRateLimitEnforcesLoginTier(t *testing.T) {
	cfg := config.RateLimitConfig{PublicPerMinute: 60, APIPerMinute: 300, LoginPerMinute: 2}
	handler := WithRateLimitTierHandler(TierLogin)(RateLimit(cfg)(okHandler()))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestRateLimitKeysByClient(t *testing.T) {
	cfg := config.RateLimitConfig{LoginPerMinute: 1}
	handler := WithRateLimitTierHandler(TierLogin)(RateLimit(cfg)(okHandler()))

	first := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	first.RemoteAddr = "10.0.0.1:5000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	require.Equal(t, http.StatusOK, rec.Code)

	// A different client gets its own bucket.
	second := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	second.RemoteAddr = "10.0.0.2:5000"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitHonorsForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.RemoteAddr = "127.0.0.1:9999"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	require.Equal(t, "203.0.113.7", clientKey(req))
}

func TestRateLimitExemptsProbes(t *testing.T) {
	cfg := config.RateLimitConfig{PublicPerMinute: 1}
	handler := RateLimit(cfg)(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRequestLoggingCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	handler := RequestID(logger)(RequestLogging(logger)(okHandler()))

	req := httptest.NewRequest(http.MethodGet, "/api/trials", nil)
	req.Header.Set("X-Request-ID", "req-123")
	req.RemoteAddr = "10.0.0.1:5000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "req-123", line["request_id"])
	require.Equal(t, http.MethodGet, line["method"])
	require.Equal(t, "/api/trials", line["path"])
	require.Equal(t, float64(http.StatusOK), line["status"])
	require.Equal(t, "10.0.0.1", line["client"])
}

func TestRequestLoggingErrorLevelOnServerError(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	boom := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	handler := RequestID(logger)(RequestLogging(logger)(boom))

	req := httptest.NewRequest(http.MethodGet, "/api/trials", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "error", line["level"])
	require.Equal(t, float64(http.StatusInternalServerError), line["status"])
}

func TestCORSPreflightAllowedOrigin(t *testing.T) {
	cfg := config.CORSConfig{AllowedOrigins: []string{"https://portal.example.org"}}
	handler := CORS(cfg, testLogger())(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/users", nil)
	req.Header.Set("Origin", "https://portal.example.org")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://portal.example.org", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	cfg := config.CORSConfig{AllowedOrigins: []string{"https://portal.example.org"}}
	handler := CORS(cfg, testLogger())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Origin", "https://evil.example.org")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(false)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}
