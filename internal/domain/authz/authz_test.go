package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/carebridge-health/portal/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAssignments struct {
	trials map[string][]string
	err    error
}

func (s *stubAssignments) AccessibleTrialIDs(_ context.Context, userID string) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.trials[userID], nil
}

func evaluator(trials map[string][]string) *Evaluator {
	return NewEvaluator(&stubAssignments{trials: trials})
}

var (
	adminOrg1  = Identity{ProfileID: "admin-1", OrganizationID: "org-1", Role: auth.RoleAdmin}
	userOrg1   = Identity{ProfileID: "user-1", OrganizationID: "org-1", Role: auth.RoleUser}
	doctorOrg1 = Identity{ProfileID: "doc-1", OrganizationID: "org-1", Role: auth.RoleDoctor}
)

func TestRequireAdmin(t *testing.T) {
	e := evaluator(nil)

	assert.NoError(t, e.RequireAdmin(adminOrg1, "org-1"))
	assert.ErrorIs(t, e.RequireAdmin(userOrg1, "org-1"), ErrAdminRequired)
	assert.ErrorIs(t, e.RequireAdmin(adminOrg1, "org-2"), ErrCrossOrganization)
	assert.ErrorIs(t, e.RequireAdmin(adminOrg1, ""), ErrCrossOrganization)
}

func TestCanReadProfile(t *testing.T) {
	e := evaluator(nil)

	// Admin reads anyone in their organization.
	assert.NoError(t, e.CanReadProfile(adminOrg1, "user-1", "org-1"))
	// Admin cannot cross organizations.
	assert.ErrorIs(t, e.CanReadProfile(adminOrg1, "user-9", "org-2"), ErrCrossOrganization)
	// Non-admin reads only self.
	assert.NoError(t, e.CanReadProfile(userOrg1, "user-1", "org-1"))
	assert.ErrorIs(t, e.CanReadProfile(userOrg1, "doc-1", "org-1"), ErrProfileViewForbidden)
	assert.ErrorIs(t, e.CanReadProfile(doctorOrg1, "user-1", "org-1"), ErrProfileViewForbidden)
}

func TestCanUpdateProfile(t *testing.T) {
	e := evaluator(nil)

	assert.NoError(t, e.CanUpdateProfile(adminOrg1, "user-1", "org-1", true))
	assert.NoError(t, e.CanUpdateProfile(userOrg1, "user-1", "org-1", false))

	err := e.CanUpdateProfile(userOrg1, "doc-1", "org-1", false)
	require.ErrorIs(t, err, ErrNotOwnProfile)
	assert.Equal(t, "You can only update your own profile", err.Error())

	assert.ErrorIs(t, e.CanUpdateProfile(userOrg1, "user-1", "org-1", true), ErrRoleChangeForbidden)
	assert.ErrorIs(t, e.CanUpdateProfile(adminOrg1, "user-9", "org-2", false), ErrCrossOrganization)
}

func TestCanDeleteProfile(t *testing.T) {
	e := evaluator(nil)

	assert.NoError(t, e.CanDeleteProfile(adminOrg1, "user-1", "org-1"))

	// Self-deletion is rejected before any role or org check, even for admins.
	err := e.CanDeleteProfile(adminOrg1, "admin-1", "org-1")
	require.ErrorIs(t, err, ErrSelfDelete)
	assert.Equal(t, "You cannot delete your own account", err.Error())

	assert.ErrorIs(t, e.CanDeleteProfile(userOrg1, "doc-1", "org-1"), ErrAdminRequired)
	assert.ErrorIs(t, e.CanDeleteProfile(adminOrg1, "user-9", "org-2"), ErrCrossOrganization)
}

func TestCanAccessTrialContent(t *testing.T) {
	e := evaluator(map[string][]string{
		"user-1": {"trial-a", "trial-b"},
		"doc-1":  {"trial-c"},
	})
	ctx := context.Background()

	// Admin sees every trial in their organization.
	assert.NoError(t, e.CanAccessTrialContent(ctx, adminOrg1, "org-1", "trial-z"))
	// Assigned trial passes, unassigned fails.
	assert.NoError(t, e.CanAccessTrialContent(ctx, userOrg1, "org-1", "trial-a"))
	assert.ErrorIs(t, e.CanAccessTrialContent(ctx, userOrg1, "org-1", "trial-c"), ErrTrialNotAssigned)
	assert.NoError(t, e.CanAccessTrialContent(ctx, doctorOrg1, "org-1", "trial-c"))
	// Org boundary comes first, regardless of assignment.
	assert.ErrorIs(t, e.CanAccessTrialContent(ctx, userOrg1, "org-2", "trial-a"), ErrCrossOrganization)
	assert.ErrorIs(t, e.CanAccessTrialContent(ctx, adminOrg1, "org-2", "trial-a"), ErrCrossOrganization)
}

func TestCanAccessTrialContent_LookupError(t *testing.T) {
	lookupErr := errors.New("db down")
	e := NewEvaluator(&stubAssignments{err: lookupErr})

	err := e.CanAccessTrialContent(context.Background(), userOrg1, "org-1", "trial-a")
	assert.ErrorIs(t, err, lookupErr)
}

func TestAccessibleTrialIDs(t *testing.T) {
	e := evaluator(map[string][]string{"user-1": {"trial-a"}})
	ctx := context.Background()

	ids, err := e.AccessibleTrialIDs(ctx, adminOrg1)
	require.NoError(t, err)
	assert.Nil(t, ids, "admins carry no trial filter")

	ids, err = e.AccessibleTrialIDs(ctx, userOrg1)
	require.NoError(t, err)
	assert.Equal(t, []string{"trial-a"}, ids)
}
