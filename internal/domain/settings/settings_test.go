package settings

import (
	"context"
	"testing"

	"github.com/carebridge-health/portal/internal/auth"
	"github.com/carebridge-health/portal/internal/domain/authz"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	getAllFn func(ctx context.Context, orgID string) (map[string]string, error)
	upsertFn func(ctx context.Context, orgID string, values map[string]string) error
	deleteFn func(ctx context.Context, orgID, key string) error
}

func (s *stubRepo) GetAll(ctx context.Context, orgID string) (map[string]string, error) {
	return s.getAllFn(ctx, orgID)
}

func (s *stubRepo) Upsert(ctx context.Context, orgID string, values map[string]string) error {
	return s.upsertFn(ctx, orgID, values)
}

func (s *stubRepo) Delete(ctx context.Context, orgID, key string) error {
	return s.deleteFn(ctx, orgID, key)
}

type stubAssignments struct{}

func (stubAssignments) AccessibleTrialIDs(context.Context, string) ([]string, error) {
	return nil, nil
}

var (
	admin  = authz.Identity{ProfileID: "admin-1", OrganizationID: "org-1", Role: auth.RoleAdmin}
	member = authz.Identity{ProfileID: "user-1", OrganizationID: "org-1", Role: auth.RoleUser}

	policy = authz.NewEvaluator(stubAssignments{})
)

func TestGetOpenToAllMembers(t *testing.T) {
	repo := &stubRepo{
		getAllFn: func(_ context.Context, orgID string) (map[string]string, error) {
			require.Equal(t, "org-1", orgID)
			return map[string]string{"portal_name": "CareBridge"}, nil
		},
	}

	got, err := NewService(repo, policy).Get(context.Background(), member)
	require.NoError(t, err)
	require.Equal(t, "CareBridge", got["portal_name"])
}

func TestUpdateRequiresAdmin(t *testing.T) {
	_, err := NewService(&stubRepo{}, policy).Update(context.Background(), member, map[string]string{"k": "v"})
	require.ErrorIs(t, err, authz.ErrAdminRequired)
}

func TestUpdateUpsertsThenReturnsFullSet(t *testing.T) {
	upserted := false
	repo := &stubRepo{
		upsertFn: func(_ context.Context, orgID string, values map[string]string) error {
			upserted = true
			require.Equal(t, "org-1", orgID)
			require.Equal(t, map[string]string{"support_email": "help@example.org"}, values)
			return nil
		},
		getAllFn: func(context.Context, string) (map[string]string, error) {
			return map[string]string{"portal_name": "CareBridge", "support_email": "help@example.org"}, nil
		},
	}

	got, err := NewService(repo, policy).Update(context.Background(), admin, map[string]string{"support_email": "help@example.org"})
	require.NoError(t, err)
	require.True(t, upserted)
	require.Len(t, got, 2)
}

func TestUpdateEmptyValueRemovesKey(t *testing.T) {
	var deletedKeys []string
	repo := &stubRepo{
		deleteFn: func(_ context.Context, orgID, key string) error {
			require.Equal(t, "org-1", orgID)
			deletedKeys = append(deletedKeys, key)
			return nil
		},
		upsertFn: func(_ context.Context, orgID string, values map[string]string) error {
			require.Equal(t, map[string]string{"portal_name": "CareBridge"}, values)
			return nil
		},
		getAllFn: func(context.Context, string) (map[string]string, error) {
			return map[string]string{"portal_name": "CareBridge"}, nil
		},
	}

	got, err := NewService(repo, policy).Update(context.Background(), admin, map[string]string{
		"portal_name":   "CareBridge",
		"support_email": "",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"support_email"}, deletedKeys)
	require.NotContains(t, got, "support_email")
}

func TestUpdateEmptyPayloadSkipsUpsert(t *testing.T) {
	repo := &stubRepo{
		getAllFn: func(context.Context, string) (map[string]string, error) {
			return map[string]string{}, nil
		},
	}

	got, err := NewService(repo, policy).Update(context.Background(), admin, nil)
	require.NoError(t, err)
	require.Empty(t, got)
}
