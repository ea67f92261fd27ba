package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/carebridge-health/portal/internal/api/middleware"
	"github.com/carebridge-health/portal/internal/audit"
	"github.com/carebridge-health/portal/internal/auth"
	"github.com/carebridge-health/portal/internal/domain/authz"
	"github.com/carebridge-health/portal/internal/domain/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// stubUsersRepo backs a real users.Service in handler tests.
type stubUsersRepo struct {
	createFn      func(ctx context.Context, params users.CreateParams) (users.Profile, error)
	getByIDFn     func(ctx context.Context, id string) (users.Profile, error)
	credentialsFn func(ctx context.Context, email string) (users.Credentials, error)
	deleteFn      func(ctx context.Context, id string) error
	getOrgFn      func(ctx context.Context, id string) (users.Organization, error)
}

func (s *stubUsersRepo) Create(ctx context.Context, params users.CreateParams) (users.Profile, error) {
	return s.createFn(ctx, params)
}

func (s *stubUsersRepo) GetByID(ctx context.Context, id string) (users.Profile, error) {
	return s.getByIDFn(ctx, id)
}

func (s *stubUsersRepo) GetByEmail(context.Context, string) (users.Profile, error) {
	return users.Profile{}, users.ErrNotFound
}

func (s *stubUsersRepo) Credentials(ctx context.Context, email string) (users.Credentials, error) {
	return s.credentialsFn(ctx, email)
}

func (s *stubUsersRepo) ListByOrganization(context.Context, string, users.ListFilters) ([]users.Profile, int64, error) {
	panic("not implemented")
}

func (s *stubUsersRepo) Update(context.Context, string, users.UpdateParams) (users.Profile, error) {
	panic("not implemented")
}

func (s *stubUsersRepo) UpdateLastLogin(context.Context, string) error { return nil }

func (s *stubUsersRepo) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

func (s *stubUsersRepo) GetOrganizationByID(ctx context.Context, id string) (users.Organization, error) {
	return s.getOrgFn(ctx, id)
}

func (s *stubUsersRepo) GetOrganizationByName(context.Context, string) (users.Organization, error) {
	panic("not implemented")
}

func (s *stubUsersRepo) CreateOrganization(context.Context, string) (users.Organization, error) {
	panic("not implemented")
}

type noAssignments struct{}

func (noAssignments) AccessibleTrialIDs(context.Context, string) ([]string, error) {
	return nil, nil
}

var (
	testAdmin  = authz.Identity{ProfileID: "admin-1", OrganizationID: "org-1", Role: auth.RoleAdmin}
	testMember = authz.Identity{ProfileID: "user-1", OrganizationID: "org-1", Role: auth.RoleUser}
)

func newUsersService(repo *stubUsersRepo) *users.Service {
	policy := authz.NewEvaluator(noAssignments{})
	return users.NewService(repo, repo, policy, nil, "https://portal.example.org", zerolog.Nop())
}

func newTokenManager() *auth.TokenManager {
	return auth.NewTokenManager("test-secret-test-secret-test-1234", time.Hour, "portal-test")
}

func authedRequest(method, target string, body string, caller authz.Identity) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(middleware.ContextWithIdentity(req.Context(), caller))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestLogin(t *testing.T) {
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	repo := &stubUsersRepo{
		credentialsFn: func(_ context.Context, email string) (users.Credentials, error) {
			require.Equal(t, "jane@example.org", email)
			return users.Credentials{ProfileID: "user-1", PasswordHash: hash, IsActive: true}, nil
		},
		getByIDFn: func(_ context.Context, id string) (users.Profile, error) {
			return users.Profile{ID: id, OrganizationID: "org-1", Email: "jane@example.org", Role: "user"}, nil
		},
	}
	handler := NewAuthHandler(newUsersService(repo), newTokenManager(), audit.NewLogger(), "test")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"jane@example.org","password":"password123"}`))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, true, body["success"])
	require.NotEmpty(t, body["token"])
	require.Equal(t, float64(3600), body["expires_in"])

	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "user-1", user["id"])
}

func TestLoginWrongPassword(t *testing.T) {
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	repo := &stubUsersRepo{
		credentialsFn: func(context.Context, string) (users.Credentials, error) {
			return users.Credentials{ProfileID: "user-1", PasswordHash: hash, IsActive: true}, nil
		},
	}
	handler := NewAuthHandler(newUsersService(repo), newTokenManager(), audit.NewLogger(), "test")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"jane@example.org","password":"nope"}`))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, false, body["success"])
	require.Equal(t, "Invalid email or password", body["message"])
}

func TestLoginRejectsMalformedBody(t *testing.T) {
	handler := NewAuthHandler(newUsersService(&stubUsersRepo{}), newTokenManager(), audit.NewLogger(), "test")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"not-an-email"}`))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterUnknownOrganization(t *testing.T) {
	repo := &stubUsersRepo{
		getOrgFn: func(context.Context, string) (users.Organization, error) {
			return users.Organization{}, users.ErrOrganizationNotFound
		},
	}
	handler := NewAuthHandler(newUsersService(repo), newTokenManager(), audit.NewLogger(), "test")

	payload := `{"organization_id":"org-missing","email":"jane@example.org","password":"password123","full_name":"Jane Doe"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.Register(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMeRequiresIdentity(t *testing.T) {
	handler := NewAuthHandler(newUsersService(&stubUsersRepo{}), newTokenManager(), audit.NewLogger(), "test")

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()
	handler.Me(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
