package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/carebridge-health/portal/internal/audit"
	"github.com/carebridge-health/portal/internal/auth"
	"github.com/carebridge-health/portal/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	return NewRouter(Deps{
		Config: config.Config{
			Environment: "test",
			RateLimit:   config.RateLimitConfig{PublicPerMinute: 1000, APIPerMinute: 1000, LoginPerMinute: 1000},
		},
		Logger:  zerolog.Nop(),
		Tokens:  auth.NewTokenManager("test-secret-test-secret-test-1234", time.Hour, "portal-test"),
		Audit:   audit.NewLogger(),
		Version: "test",
	})
}

func TestHealthz(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
	require.Equal(t, "test", body["version"])
}

func TestMethodNotAllowedListsAllowedMethods(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodPatch, "/api/users", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	allow := rec.Header().Get("Allow")
	require.Contains(t, allow, http.MethodGet)
	require.Contains(t, allow, http.MethodPost)
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, false, body["success"])
	require.Equal(t, "Invalid or expired token", body["message"])
}

func TestLoginRouteRejectsGet(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/login", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}

func TestSecurityHeadersApplied(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestRegisterRouteValidation(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{"email":"bad"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterSharesLoginRateTier(t *testing.T) {
	router := NewRouter(Deps{
		Config: config.Config{
			Environment: "test",
			RateLimit:   config.RateLimitConfig{PublicPerMinute: 1000, APIPerMinute: 1000, LoginPerMinute: 1},
		},
		Logger:  zerolog.Nop(),
		Tokens:  auth.NewTokenManager("test-secret-test-secret-test-1234", time.Hour, "portal-test"),
		Audit:   audit.NewLogger(),
		Version: "test",
	})

	first := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{}`))
	first.RemoteAddr = "10.0.0.9:5000"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, first)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	second := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{}`))
	second.RemoteAddr = "10.0.0.9:5000"
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, second)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/nonexistent", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
