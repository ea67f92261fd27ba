package users

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound             = errors.New("user not found")
	ErrEmailTaken           = errors.New("email is already registered")
	ErrOrganizationNotFound = errors.New("organization not found")
)

// Profile is the application-level user record: identity plus organization
// and role. The password hash never leaves the storage layer except through
// Credentials.
type Profile struct {
	ID               string
	OrganizationID   string
	OrganizationName string
	Email            string
	FullName         string
	Role             string
	IsActive         bool
	LastLoginAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Credentials is the minimal row needed to verify a login.
type Credentials struct {
	ProfileID      string
	OrganizationID string
	Role           string
	PasswordHash   string
	IsActive       bool
}

type Organization struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

type CreateParams struct {
	OrganizationID string
	Email          string
	FullName       string
	Role           string
	PasswordHash   string
}

type UpdateParams struct {
	Email    *string
	FullName *string
	Role     *string
	IsActive *bool
}

type ListFilters struct {
	Role     *string
	IsActive *bool
	Limit    int32
	Offset   int32
}

type Repository interface {
	Create(ctx context.Context, params CreateParams) (Profile, error)
	GetByID(ctx context.Context, id string) (Profile, error)
	GetByEmail(ctx context.Context, email string) (Profile, error)
	Credentials(ctx context.Context, email string) (Credentials, error)
	ListByOrganization(ctx context.Context, orgID string, filters ListFilters) ([]Profile, int64, error)
	Update(ctx context.Context, id string, params UpdateParams) (Profile, error)
	UpdateLastLogin(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type OrganizationRepository interface {
	GetOrganizationByID(ctx context.Context, id string) (Organization, error)
	GetOrganizationByName(ctx context.Context, name string) (Organization, error)
	CreateOrganization(ctx context.Context, name string) (Organization, error)
}
