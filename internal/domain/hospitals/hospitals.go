// Package hospitals backs the site leaderboard: hospitals ranked by how
// many patients they have enrolled across the organization's trials.
package hospitals

import (
	"context"
	"errors"
	"time"

	"github.com/carebridge-health/portal/internal/domain/authz"
)

var (
	ErrNotFound = errors.New("hospital not found")

	// ErrReadOnlySource rejects writes while the portal runs on the mock
	// data source.
	ErrReadOnlySource = errors.New("hospital writes are unavailable on the mock data source")
)

type Hospital struct {
	ID              string
	OrganizationID  string
	Name            string
	City            string
	EnrollmentCount int32
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DataSource serves leaderboard reads. The live implementation queries
// Postgres; the mock one returns fixtures and is explicitly selected by
// configuration, never used as a silent fallback.
type DataSource interface {
	Leaderboard(ctx context.Context, orgID string) ([]Hospital, error)
}

type CreateParams struct {
	OrganizationID  string
	Name            string
	City            string
	EnrollmentCount int32
}

type UpdateParams struct {
	Name            *string
	City            *string
	EnrollmentCount *int32
}

type Repository interface {
	DataSource
	Create(ctx context.Context, params CreateParams) (Hospital, error)
	GetByID(ctx context.Context, id string) (Hospital, error)
	Update(ctx context.Context, id string, params UpdateParams) (Hospital, error)
	Delete(ctx context.Context, id string) error
}

type Service struct {
	source DataSource
	repo   Repository // nil when running on the mock source
	policy *authz.Evaluator
}

// NewService builds the live service.
func NewService(repo Repository, policy *authz.Evaluator) *Service {
	return &Service{source: repo, repo: repo, policy: policy}
}

// NewMockService builds a read-only service over fixture data.
func NewMockService(source DataSource, policy *authz.Evaluator) *Service {
	return &Service{source: source, policy: policy}
}

// Leaderboard is visible to every member of the organization.
func (s *Service) Leaderboard(ctx context.Context, caller authz.Identity) ([]Hospital, error) {
	return s.source.Leaderboard(ctx, caller.OrganizationID)
}

func (s *Service) Create(ctx context.Context, caller authz.Identity, params CreateParams) (Hospital, error) {
	if s.repo == nil {
		return Hospital{}, ErrReadOnlySource
	}
	if err := s.policy.RequireAdmin(caller, caller.OrganizationID); err != nil {
		return Hospital{}, err
	}
	params.OrganizationID = caller.OrganizationID
	return s.repo.Create(ctx, params)
}

func (s *Service) Update(ctx context.Context, caller authz.Identity, id string, params UpdateParams) (Hospital, error) {
	if s.repo == nil {
		return Hospital{}, ErrReadOnlySource
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Hospital{}, err
	}
	if err := s.policy.RequireAdmin(caller, existing.OrganizationID); err != nil {
		return Hospital{}, err
	}
	return s.repo.Update(ctx, id, params)
}

func (s *Service) Delete(ctx context.Context, caller authz.Identity, id string) error {
	if s.repo == nil {
		return ErrReadOnlySource
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.RequireAdmin(caller, existing.OrganizationID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
