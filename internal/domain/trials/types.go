package trials

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("trial not found")
	ErrAlreadyAssigned = errors.New("user is already assigned to this trial")
	ErrAssignmentGone  = errors.New("assignment not found")
)

type Trial struct {
	ID             string
	OrganizationID string
	Name           string
	Description    string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Assignment grants a non-admin user access to one trial's content.
type Assignment struct {
	ID             string
	UserID         string
	UserEmail      string
	UserFullName   string
	TrialID        string
	OrganizationID string
	CreatedAt      time.Time
}

type CreateParams struct {
	OrganizationID string
	Name           string
	Description    string
	IsActive       bool
}

type UpdateParams struct {
	Name        *string
	Description *string
	IsActive    *bool
}

type Repository interface {
	Create(ctx context.Context, params CreateParams) (Trial, error)
	GetByID(ctx context.Context, id string) (Trial, error)
	ListByOrganization(ctx context.Context, orgID string) ([]Trial, error)
	ListByIDs(ctx context.Context, ids []string) ([]Trial, error)
	Update(ctx context.Context, id string, params UpdateParams) (Trial, error)
	Delete(ctx context.Context, id string) error

	Assign(ctx context.Context, userID, trialID, orgID string) (Assignment, error)
	Unassign(ctx context.Context, userID, trialID string) error
	ListAssignments(ctx context.Context, trialID string) ([]Assignment, error)
	AccessibleTrialIDs(ctx context.Context, userID string) ([]string, error)
}
