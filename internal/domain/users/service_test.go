package users

import (
	"context"
	"testing"

	"github.com/carebridge-health/portal/internal/auth"
	"github.com/carebridge-health/portal/internal/domain/authz"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	createFn          func(ctx context.Context, params CreateParams) (Profile, error)
	getByIDFn         func(ctx context.Context, id string) (Profile, error)
	getByEmailFn      func(ctx context.Context, email string) (Profile, error)
	credentialsFn     func(ctx context.Context, email string) (Credentials, error)
	listFn            func(ctx context.Context, orgID string, filters ListFilters) ([]Profile, int64, error)
	updateFn          func(ctx context.Context, id string, params UpdateParams) (Profile, error)
	updateLastLoginFn func(ctx context.Context, id string) error
	deleteFn          func(ctx context.Context, id string) error

	getOrgByIDFn func(ctx context.Context, id string) (Organization, error)
}

func (s *stubRepo) Create(ctx context.Context, params CreateParams) (Profile, error) {
	return s.createFn(ctx, params)
}

func (s *stubRepo) GetByID(ctx context.Context, id string) (Profile, error) {
	return s.getByIDFn(ctx, id)
}

func (s *stubRepo) GetByEmail(ctx context.Context, email string) (Profile, error) {
	if s.getByEmailFn != nil {
		return s.getByEmailFn(ctx, email)
	}
	return Profile{}, ErrNotFound
}

func (s *stubRepo) Credentials(ctx context.Context, email string) (Credentials, error) {
	return s.credentialsFn(ctx, email)
}

func (s *stubRepo) ListByOrganization(ctx context.Context, orgID string, filters ListFilters) ([]Profile, int64, error) {
	return s.listFn(ctx, orgID, filters)
}

func (s *stubRepo) Update(ctx context.Context, id string, params UpdateParams) (Profile, error) {
	return s.updateFn(ctx, id, params)
}

func (s *stubRepo) UpdateLastLogin(ctx context.Context, id string) error {
	if s.updateLastLoginFn != nil {
		return s.updateLastLoginFn(ctx, id)
	}
	return nil
}

func (s *stubRepo) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

func (s *stubRepo) GetOrganizationByID(ctx context.Context, id string) (Organization, error) {
	return s.getOrgByIDFn(ctx, id)
}

func (s *stubRepo) GetOrganizationByName(context.Context, string) (Organization, error) {
	panic("not implemented")
}

func (s *stubRepo) CreateOrganization(context.Context, string) (Organization, error) {
	panic("not implemented")
}

type stubAssignments struct{}

func (stubAssignments) AccessibleTrialIDs(context.Context, string) ([]string, error) {
	return nil, nil
}

var (
	admin  = authz.Identity{ProfileID: "admin-1", OrganizationID: "org-1", Role: auth.RoleAdmin}
	member = authz.Identity{ProfileID: "user-1", OrganizationID: "org-1", Role: auth.RoleUser}
)

func newTestService(repo *stubRepo) *Service {
	return NewService(repo, repo, authz.NewEvaluator(stubAssignments{}), nil, "https://portal.example.org", zerolog.Nop())
}

func TestAuthenticate(t *testing.T) {
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)

	lastLoginUpdated := false
	repo := &stubRepo{
		credentialsFn: func(_ context.Context, email string) (Credentials, error) {
			require.Equal(t, "jane@example.org", email)
			return Credentials{ProfileID: "user-1", PasswordHash: hash, IsActive: true}, nil
		},
		getByIDFn: func(_ context.Context, id string) (Profile, error) {
			return Profile{ID: id, Email: "jane@example.org"}, nil
		},
		updateLastLoginFn: func(_ context.Context, id string) error {
			lastLoginUpdated = true
			require.Equal(t, "user-1", id)
			return nil
		},
	}

	// Email is normalized before lookup.
	profile, err := newTestService(repo).Authenticate(context.Background(), "  Jane@Example.org ", "correct horse")
	require.NoError(t, err)
	require.Equal(t, "user-1", profile.ID)
	require.True(t, lastLoginUpdated)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)

	repo := &stubRepo{
		credentialsFn: func(context.Context, string) (Credentials, error) {
			return Credentials{ProfileID: "user-1", PasswordHash: hash, IsActive: true}, nil
		},
	}

	_, err = newTestService(repo).Authenticate(context.Background(), "jane@example.org", "wrong")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuthenticateInactiveAccount(t *testing.T) {
	repo := &stubRepo{
		credentialsFn: func(context.Context, string) (Credentials, error) {
			return Credentials{ProfileID: "user-1", PasswordHash: "irrelevant", IsActive: false}, nil
		},
	}

	_, err := newTestService(repo).Authenticate(context.Background(), "jane@example.org", "whatever")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	repo := &stubRepo{
		credentialsFn: func(context.Context, string) (Credentials, error) {
			return Credentials{}, ErrNotFound
		},
	}

	_, err := newTestService(repo).Authenticate(context.Background(), "nobody@example.org", "whatever")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestRegisterUnknownOrganization(t *testing.T) {
	repo := &stubRepo{
		getOrgByIDFn: func(context.Context, string) (Organization, error) {
			return Organization{}, ErrOrganizationNotFound
		},
	}

	_, err := newTestService(repo).Register(context.Background(), RegisterParams{
		OrganizationID: "org-missing",
		Email:          "jane@example.org",
		Password:       "password123",
	})
	require.ErrorIs(t, err, ErrOrganizationNotFound)
}

func TestRegisterAlwaysGetsUserRole(t *testing.T) {
	repo := &stubRepo{
		getOrgByIDFn: func(_ context.Context, id string) (Organization, error) {
			return Organization{ID: id, Name: "Clinic"}, nil
		},
		createFn: func(_ context.Context, params CreateParams) (Profile, error) {
			require.Equal(t, string(auth.RoleUser), params.Role)
			require.Equal(t, "jane@example.org", params.Email)
			require.NotEmpty(t, params.PasswordHash)
			return Profile{ID: "user-2", Email: params.Email, Role: params.Role}, nil
		},
	}

	profile, err := newTestService(repo).Register(context.Background(), RegisterParams{
		OrganizationID: "org-1",
		Email:          "Jane@Example.org",
		Password:       "password123",
		FullName:       "Jane Doe",
	})
	require.NoError(t, err)
	require.Equal(t, "user-2", profile.ID)
}

func TestRegisterEmailTaken(t *testing.T) {
	repo := &stubRepo{
		getOrgByIDFn: func(_ context.Context, id string) (Organization, error) {
			return Organization{ID: id}, nil
		},
		getByEmailFn: func(_ context.Context, email string) (Profile, error) {
			return Profile{ID: "existing", Email: email}, nil
		},
	}

	_, err := newTestService(repo).Register(context.Background(), RegisterParams{
		OrganizationID: "org-1",
		Email:          "jane@example.org",
		Password:       "password123",
	})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestCreateRequiresAdmin(t *testing.T) {
	_, err := newTestService(&stubRepo{}).Create(context.Background(), member, CreateUserParams{
		Email: "new@example.org",
	})
	require.ErrorIs(t, err, authz.ErrAdminRequired)
}

func TestCreateGeneratesPasswordAndScopesToCallerOrg(t *testing.T) {
	repo := &stubRepo{
		createFn: func(_ context.Context, params CreateParams) (Profile, error) {
			require.Equal(t, "org-1", params.OrganizationID)
			require.Equal(t, string(auth.RoleUser), params.Role)
			require.NotEmpty(t, params.PasswordHash)
			return Profile{ID: "user-9", OrganizationID: params.OrganizationID, Email: params.Email}, nil
		},
	}

	profile, err := newTestService(repo).Create(context.Background(), admin, CreateUserParams{
		Email:    "new@example.org",
		FullName: "New User",
	})
	require.NoError(t, err)
	require.Equal(t, "user-9", profile.ID)
}

func TestUpdateMemberCannotChangeOwnRole(t *testing.T) {
	repo := &stubRepo{
		getByIDFn: func(_ context.Context, id string) (Profile, error) {
			return Profile{ID: id, OrganizationID: "org-1", Role: string(auth.RoleUser)}, nil
		},
	}

	role := "admin"
	_, err := newTestService(repo).Update(context.Background(), member, "user-1", UpdateParams{Role: &role})
	require.ErrorIs(t, err, authz.ErrRoleChangeForbidden)
}

func TestUpdateMemberCannotTouchOtherProfiles(t *testing.T) {
	repo := &stubRepo{
		getByIDFn: func(_ context.Context, id string) (Profile, error) {
			return Profile{ID: id, OrganizationID: "org-1"}, nil
		},
	}

	name := "Impostor"
	_, err := newTestService(repo).Update(context.Background(), member, "user-2", UpdateParams{FullName: &name})
	require.ErrorIs(t, err, authz.ErrNotOwnProfile)
}

func TestUpdateEmailCollision(t *testing.T) {
	repo := &stubRepo{
		getByIDFn: func(_ context.Context, id string) (Profile, error) {
			return Profile{ID: id, OrganizationID: "org-1", Email: "old@example.org"}, nil
		},
		getByEmailFn: func(_ context.Context, email string) (Profile, error) {
			return Profile{ID: "other", Email: email}, nil
		},
	}

	email := "taken@example.org"
	_, err := newTestService(repo).Update(context.Background(), admin, "user-2", UpdateParams{Email: &email})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestDeleteSelfForbidden(t *testing.T) {
	repo := &stubRepo{
		getByIDFn: func(_ context.Context, id string) (Profile, error) {
			return Profile{ID: id, OrganizationID: "org-1"}, nil
		},
	}

	err := newTestService(repo).Delete(context.Background(), admin, "admin-1")
	require.ErrorIs(t, err, authz.ErrSelfDelete)
}

func TestDeleteRequiresAdmin(t *testing.T) {
	repo := &stubRepo{
		getByIDFn: func(_ context.Context, id string) (Profile, error) {
			return Profile{ID: id, OrganizationID: "org-1"}, nil
		},
	}

	err := newTestService(repo).Delete(context.Background(), member, "user-2")
	require.ErrorIs(t, err, authz.ErrAdminRequired)
}

func TestListRequiresAdminAndCapsLimit(t *testing.T) {
	_, _, err := newTestService(&stubRepo{}).List(context.Background(), member, ListFilters{})
	require.ErrorIs(t, err, authz.ErrAdminRequired)

	repo := &stubRepo{
		listFn: func(_ context.Context, orgID string, filters ListFilters) ([]Profile, int64, error) {
			require.Equal(t, "org-1", orgID)
			require.Equal(t, int32(50), filters.Limit)
			return []Profile{}, 0, nil
		},
	}
	_, _, err = newTestService(repo).List(context.Background(), admin, ListFilters{Limit: 0})
	require.NoError(t, err)
}
