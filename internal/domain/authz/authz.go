// Package authz decides whether a caller may touch a resource. All rules
// branch on three inputs: the caller's role, the caller's organization, and
// (for non-admins) the trials explicitly assigned to the caller.
package authz

import (
	"context"
	"errors"

	"github.com/carebridge-health/portal/internal/auth"
)

var (
	// ErrAdminRequired rejects non-admin callers from admin-only operations.
	ErrAdminRequired = errors.New("admin role required")

	// ErrCrossOrganization rejects any read or write that crosses the
	// caller's organization boundary, including by admins.
	ErrCrossOrganization = errors.New("resource belongs to another organization")

	// ErrNotOwnProfile carries the exact message surfaced to clients when a
	// non-admin updates a profile other than their own.
	ErrNotOwnProfile = errors.New("You can only update your own profile")

	// ErrProfileViewForbidden is the read-side counterpart, surfaced when a
	// non-admin reads a colleague's profile.
	ErrProfileViewForbidden = errors.New("You can only view your own profile")

	// ErrSelfDelete rejects profile self-deletion, even for admins.
	ErrSelfDelete = errors.New("You cannot delete your own account")

	// ErrRoleChangeForbidden rejects role mutations by non-admins.
	ErrRoleChangeForbidden = errors.New("only admins can change roles")

	// ErrTrialNotAssigned rejects non-admin access to content of a trial the
	// caller has no assignment for.
	ErrTrialNotAssigned = errors.New("you are not assigned to this trial")
)

// Identity is the verified caller extracted from session claims.
type Identity struct {
	ProfileID      string
	OrganizationID string
	Role           auth.Role
}

func (id Identity) IsAdmin() bool {
	return id.Role == auth.RoleAdmin
}

// AssignmentSource resolves the trials a user may access. Admins never
// consult it; their visibility is the whole organization.
type AssignmentSource interface {
	AccessibleTrialIDs(ctx context.Context, userID string) ([]string, error)
}

type Evaluator struct {
	assignments AssignmentSource
}

func NewEvaluator(assignments AssignmentSource) *Evaluator {
	return &Evaluator{assignments: assignments}
}

// RequireAdmin gates admin-only operations within the caller's own
// organization.
func (e *Evaluator) RequireAdmin(caller Identity, resourceOrgID string) error {
	if !caller.IsAdmin() {
		return ErrAdminRequired
	}
	return e.RequireSameOrganization(caller, resourceOrgID)
}

// RequireSameOrganization rejects cross-tenant access for every role.
func (e *Evaluator) RequireSameOrganization(caller Identity, resourceOrgID string) error {
	if resourceOrgID == "" || caller.OrganizationID != resourceOrgID {
		return ErrCrossOrganization
	}
	return nil
}

// CanReadProfile: admins see every profile in their organization,
// non-admins only their own.
func (e *Evaluator) CanReadProfile(caller Identity, targetProfileID, targetOrgID string) error {
	if err := e.RequireSameOrganization(caller, targetOrgID); err != nil {
		return err
	}
	if caller.IsAdmin() {
		return nil
	}
	if caller.ProfileID != targetProfileID {
		return ErrProfileViewForbidden
	}
	return nil
}

// CanUpdateProfile applies the profile-mutation rules: same organization
// always, self-or-admin, and role changes only by admins.
func (e *Evaluator) CanUpdateProfile(caller Identity, targetProfileID, targetOrgID string, changesRole bool) error {
	if err := e.RequireSameOrganization(caller, targetOrgID); err != nil {
		return err
	}
	if !caller.IsAdmin() {
		if caller.ProfileID != targetProfileID {
			return ErrNotOwnProfile
		}
		if changesRole {
			return ErrRoleChangeForbidden
		}
	}
	return nil
}

// CanDeleteProfile: admins only, never themselves, never across
// organizations.
func (e *Evaluator) CanDeleteProfile(caller Identity, targetProfileID, targetOrgID string) error {
	if caller.ProfileID == targetProfileID {
		return ErrSelfDelete
	}
	if !caller.IsAdmin() {
		return ErrAdminRequired
	}
	return e.RequireSameOrganization(caller, targetOrgID)
}

// CanAccessTrialContent gates reads and writes of trial-scoped content
// (enrollments, news, training materials, protocols, documents).
func (e *Evaluator) CanAccessTrialContent(ctx context.Context, caller Identity, resourceOrgID, trialID string) error {
	if err := e.RequireSameOrganization(caller, resourceOrgID); err != nil {
		return err
	}
	if caller.IsAdmin() {
		return nil
	}

	trialIDs, err := e.assignments.AccessibleTrialIDs(ctx, caller.ProfileID)
	if err != nil {
		return err
	}
	for _, id := range trialIDs {
		if id == trialID {
			return nil
		}
	}
	return ErrTrialNotAssigned
}

// AccessibleTrialIDs exposes the caller's trial scope for list queries.
// Admins get a nil slice, meaning "no trial filter".
func (e *Evaluator) AccessibleTrialIDs(ctx context.Context, caller Identity) ([]string, error) {
	if caller.IsAdmin() {
		return nil, nil
	}
	return e.assignments.AccessibleTrialIDs(ctx, caller.ProfileID)
}
