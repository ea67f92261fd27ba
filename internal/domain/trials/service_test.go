package trials

import (
	"context"
	"testing"
	"time"

	"github.com/carebridge-health/portal/internal/auth"
	"github.com/carebridge-health/portal/internal/domain/authz"
	"github.com/carebridge-health/portal/internal/domain/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	createFn             func(ctx context.Context, params CreateParams) (Trial, error)
	getByIDFn            func(ctx context.Context, id string) (Trial, error)
	listByOrganizationFn func(ctx context.Context, orgID string) ([]Trial, error)
	listByIDsFn          func(ctx context.Context, ids []string) ([]Trial, error)
	updateFn             func(ctx context.Context, id string, params UpdateParams) (Trial, error)
	deleteFn             func(ctx context.Context, id string) error
	assignFn             func(ctx context.Context, userID, trialID, orgID string) (Assignment, error)
	unassignFn           func(ctx context.Context, userID, trialID string) error
	listAssignmentsFn    func(ctx context.Context, trialID string) ([]Assignment, error)
	accessibleFn         func(ctx context.Context, userID string) ([]string, error)
}

func (s *stubRepo) Create(ctx context.Context, params CreateParams) (Trial, error) {
	return s.createFn(ctx, params)
}

func (s *stubRepo) GetByID(ctx context.Context, id string) (Trial, error) {
	return s.getByIDFn(ctx, id)
}

func (s *stubRepo) ListByOrganization(ctx context.Context, orgID string) ([]Trial, error) {
	return s.listByOrganizationFn(ctx, orgID)
}

func (s *stubRepo) ListByIDs(ctx context.Context, ids []string) ([]Trial, error) {
	return s.listByIDsFn(ctx, ids)
}

func (s *stubRepo) Update(ctx context.Context, id string, params UpdateParams) (Trial, error) {
	return s.updateFn(ctx, id, params)
}

func (s *stubRepo) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

func (s *stubRepo) Assign(ctx context.Context, userID, trialID, orgID string) (Assignment, error) {
	return s.assignFn(ctx, userID, trialID, orgID)
}

func (s *stubRepo) Unassign(ctx context.Context, userID, trialID string) error {
	return s.unassignFn(ctx, userID, trialID)
}

func (s *stubRepo) ListAssignments(ctx context.Context, trialID string) ([]Assignment, error) {
	return s.listAssignmentsFn(ctx, trialID)
}

func (s *stubRepo) AccessibleTrialIDs(ctx context.Context, userID string) ([]string, error) {
	if s.accessibleFn != nil {
		return s.accessibleFn(ctx, userID)
	}
	return nil, nil
}

type stubProfiles struct {
	getByIDFn func(ctx context.Context, id string) (users.Profile, error)
}

func (s *stubProfiles) Create(context.Context, users.CreateParams) (users.Profile, error) {
	panic("not implemented")
}

func (s *stubProfiles) GetByID(ctx context.Context, id string) (users.Profile, error) {
	return s.getByIDFn(ctx, id)
}

func (s *stubProfiles) GetByEmail(context.Context, string) (users.Profile, error) {
	panic("not implemented")
}

func (s *stubProfiles) Credentials(context.Context, string) (users.Credentials, error) {
	panic("not implemented")
}

func (s *stubProfiles) ListByOrganization(context.Context, string, users.ListFilters) ([]users.Profile, int64, error) {
	panic("not implemented")
}

func (s *stubProfiles) Update(context.Context, string, users.UpdateParams) (users.Profile, error) {
	panic("not implemented")
}

func (s *stubProfiles) UpdateLastLogin(context.Context, string) error {
	panic("not implemented")
}

func (s *stubProfiles) Delete(context.Context, string) error {
	panic("not implemented")
}

var (
	admin  = authz.Identity{ProfileID: "admin-1", OrganizationID: "org-1", Role: auth.RoleAdmin}
	member = authz.Identity{ProfileID: "user-1", OrganizationID: "org-1", Role: auth.RoleUser}
)

func newTestService(repo *stubRepo, profiles users.Repository) *Service {
	if profiles == nil {
		profiles = &stubProfiles{}
	}
	return NewService(repo, profiles, authz.NewEvaluator(repo), zerolog.Nop())
}

func TestListAdminSeesWholeOrganization(t *testing.T) {
	want := []Trial{
		{ID: "trial-1", OrganizationID: "org-1", Name: "Alpha"},
		{ID: "trial-2", OrganizationID: "org-1", Name: "Beta"},
	}
	repo := &stubRepo{
		listByOrganizationFn: func(_ context.Context, orgID string) ([]Trial, error) {
			require.Equal(t, "org-1", orgID)
			return want, nil
		},
	}

	got, err := newTestService(repo, nil).List(context.Background(), admin)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestListNonAdminSeesAssignedTrialsOnly(t *testing.T) {
	repo := &stubRepo{
		accessibleFn: func(_ context.Context, userID string) ([]string, error) {
			require.Equal(t, "user-1", userID)
			return []string{"trial-2"}, nil
		},
		listByIDsFn: func(_ context.Context, ids []string) ([]Trial, error) {
			require.Equal(t, []string{"trial-2"}, ids)
			return []Trial{{ID: "trial-2", OrganizationID: "org-1", Name: "Beta"}}, nil
		},
	}

	got, err := newTestService(repo, nil).List(context.Background(), member)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "trial-2", got[0].ID)
}

func TestListNonAdminWithoutAssignmentsIsEmpty(t *testing.T) {
	repo := &stubRepo{
		accessibleFn: func(context.Context, string) ([]string, error) {
			return nil, nil
		},
	}

	got, err := newTestService(repo, nil).List(context.Background(), member)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestGetUnassignedTrialForbidden(t *testing.T) {
	repo := &stubRepo{
		getByIDFn: func(_ context.Context, id string) (Trial, error) {
			return Trial{ID: id, OrganizationID: "org-1"}, nil
		},
		accessibleFn: func(context.Context, string) ([]string, error) {
			return []string{"trial-other"}, nil
		},
	}

	_, err := newTestService(repo, nil).Get(context.Background(), member, "trial-1")
	require.ErrorIs(t, err, authz.ErrTrialNotAssigned)
}

func TestGetCrossOrganizationForbidden(t *testing.T) {
	repo := &stubRepo{
		getByIDFn: func(_ context.Context, id string) (Trial, error) {
			return Trial{ID: id, OrganizationID: "org-2"}, nil
		},
	}

	_, err := newTestService(repo, nil).Get(context.Background(), admin, "trial-1")
	require.ErrorIs(t, err, authz.ErrCrossOrganization)
}

func TestCreateRequiresAdmin(t *testing.T) {
	repo := &stubRepo{}

	_, err := newTestService(repo, nil).Create(context.Background(), member, CreateTrialParams{Name: "Alpha"})
	require.ErrorIs(t, err, authz.ErrAdminRequired)
}

func TestCreateUsesCallerOrganization(t *testing.T) {
	repo := &stubRepo{
		createFn: func(_ context.Context, params CreateParams) (Trial, error) {
			require.Equal(t, "org-1", params.OrganizationID)
			require.Equal(t, "Alpha", params.Name)
			require.True(t, params.IsActive)
			return Trial{ID: "trial-1", OrganizationID: params.OrganizationID, Name: params.Name, IsActive: true, CreatedAt: time.Now()}, nil
		},
	}

	trial, err := newTestService(repo, nil).Create(context.Background(), admin, CreateTrialParams{Name: "Alpha", IsActive: true})
	require.NoError(t, err)
	require.Equal(t, "trial-1", trial.ID)
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	store := map[string]Trial{}
	repo := &stubRepo{
		createFn: func(_ context.Context, params CreateParams) (Trial, error) {
			now := time.Now().UTC().Truncate(time.Second)
			trial := Trial{
				ID:             "trial-1",
				OrganizationID: params.OrganizationID,
				Name:           params.Name,
				Description:    params.Description,
				IsActive:       params.IsActive,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			store[trial.ID] = trial
			return trial, nil
		},
		getByIDFn: func(_ context.Context, id string) (Trial, error) {
			trial, ok := store[id]
			if !ok {
				return Trial{}, ErrNotFound
			}
			return trial, nil
		},
	}
	svc := newTestService(repo, nil)

	created, err := svc.Create(context.Background(), admin, CreateTrialParams{
		Name:        "Alpha",
		Description: "Phase II recruitment",
		IsActive:    true,
	})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), admin, created.ID)
	require.NoError(t, err)
	require.Equal(t, created, got)
	require.Equal(t, "Alpha", got.Name)
	require.Equal(t, "Phase II recruitment", got.Description)
	require.Equal(t, "org-1", got.OrganizationID)
	require.True(t, got.IsActive)
}

func TestUpdateRequiresAdminOfTrialOrganization(t *testing.T) {
	repo := &stubRepo{
		getByIDFn: func(_ context.Context, id string) (Trial, error) {
			return Trial{ID: id, OrganizationID: "org-2"}, nil
		},
	}

	name := "Renamed"
	_, err := newTestService(repo, nil).Update(context.Background(), admin, "trial-1", UpdateParams{Name: &name})
	require.ErrorIs(t, err, authz.ErrCrossOrganization)
}

func TestAssignRejectsCrossOrganizationProfile(t *testing.T) {
	repo := &stubRepo{
		getByIDFn: func(_ context.Context, id string) (Trial, error) {
			return Trial{ID: id, OrganizationID: "org-1"}, nil
		},
	}
	profiles := &stubProfiles{
		getByIDFn: func(_ context.Context, id string) (users.Profile, error) {
			return users.Profile{ID: id, OrganizationID: "org-2"}, nil
		},
	}

	_, err := newTestService(repo, profiles).Assign(context.Background(), admin, "trial-1", "user-9")
	require.ErrorIs(t, err, authz.ErrCrossOrganization)
}

func TestAssignPassesTrialOrganization(t *testing.T) {
	repo := &stubRepo{
		getByIDFn: func(_ context.Context, id string) (Trial, error) {
			return Trial{ID: id, OrganizationID: "org-1"}, nil
		},
		assignFn: func(_ context.Context, userID, trialID, orgID string) (Assignment, error) {
			require.Equal(t, "user-2", userID)
			require.Equal(t, "trial-1", trialID)
			require.Equal(t, "org-1", orgID)
			return Assignment{ID: "assign-1", UserID: userID, TrialID: trialID, OrganizationID: orgID}, nil
		},
	}
	profiles := &stubProfiles{
		getByIDFn: func(_ context.Context, id string) (users.Profile, error) {
			return users.Profile{ID: id, OrganizationID: "org-1"}, nil
		},
	}

	assignment, err := newTestService(repo, profiles).Assign(context.Background(), admin, "trial-1", "user-2")
	require.NoError(t, err)
	require.Equal(t, "assign-1", assignment.ID)
}

func TestUnassignRequiresAdmin(t *testing.T) {
	repo := &stubRepo{
		getByIDFn: func(_ context.Context, id string) (Trial, error) {
			return Trial{ID: id, OrganizationID: "org-1"}, nil
		},
	}

	err := newTestService(repo, nil).Unassign(context.Background(), member, "trial-1", "user-2")
	require.ErrorIs(t, err, authz.ErrAdminRequired)
}
