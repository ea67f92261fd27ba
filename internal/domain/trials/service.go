package trials

import (
	"context"
	"fmt"

	"github.com/carebridge-health/portal/internal/domain/authz"
	"github.com/carebridge-health/portal/internal/domain/users"
	"github.com/rs/zerolog"
)

type Service struct {
	repo     Repository
	profiles users.Repository
	policy   *authz.Evaluator
	logger   zerolog.Logger
}

func NewService(repo Repository, profiles users.Repository, policy *authz.Evaluator, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
		policy:   policy,
		logger:   logger.With().Str("component", "trials").Logger(),
	}
}

// List returns the caller's visible trials: the whole organization for
// admins, assigned trials only for everyone else.
func (s *Service) List(ctx context.Context, caller authz.Identity) ([]Trial, error) {
	trialIDs, err := s.policy.AccessibleTrialIDs(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("resolve accessible trials: %w", err)
	}
	if caller.IsAdmin() {
		return s.repo.ListByOrganization(ctx, caller.OrganizationID)
	}
	if len(trialIDs) == 0 {
		return []Trial{}, nil
	}
	return s.repo.ListByIDs(ctx, trialIDs)
}

func (s *Service) Get(ctx context.Context, caller authz.Identity, id string) (Trial, error) {
	trial, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Trial{}, err
	}
	if err := s.policy.CanAccessTrialContent(ctx, caller, trial.OrganizationID, trial.ID); err != nil {
		return Trial{}, err
	}
	return trial, nil
}

type CreateTrialParams struct {
	Name        string
	Description string
	IsActive    bool
}

func (s *Service) Create(ctx context.Context, caller authz.Identity, params CreateTrialParams) (Trial, error) {
	if err := s.policy.RequireAdmin(caller, caller.OrganizationID); err != nil {
		return Trial{}, err
	}
	return s.repo.Create(ctx, CreateParams{
		OrganizationID: caller.OrganizationID,
		Name:           params.Name,
		Description:    params.Description,
		IsActive:       params.IsActive,
	})
}

func (s *Service) Update(ctx context.Context, caller authz.Identity, id string, params UpdateParams) (Trial, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Trial{}, err
	}
	if err := s.policy.RequireAdmin(caller, existing.OrganizationID); err != nil {
		return Trial{}, err
	}
	return s.repo.Update(ctx, id, params)
}

func (s *Service) Delete(ctx context.Context, caller authz.Identity, id string) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.RequireAdmin(caller, existing.OrganizationID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListAssignments(ctx context.Context, caller authz.Identity, trialID string) ([]Assignment, error) {
	trial, err := s.repo.GetByID(ctx, trialID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.RequireAdmin(caller, trial.OrganizationID); err != nil {
		return nil, err
	}
	return s.repo.ListAssignments(ctx, trialID)
}

// Assign grants a user access to a trial. Both the trial and the user must
// live in the caller's organization.
func (s *Service) Assign(ctx context.Context, caller authz.Identity, trialID, userID string) (Assignment, error) {
	trial, err := s.repo.GetByID(ctx, trialID)
	if err != nil {
		return Assignment{}, err
	}
	if err := s.policy.RequireAdmin(caller, trial.OrganizationID); err != nil {
		return Assignment{}, err
	}

	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return Assignment{}, err
	}
	if profile.OrganizationID != trial.OrganizationID {
		return Assignment{}, authz.ErrCrossOrganization
	}

	return s.repo.Assign(ctx, userID, trialID, trial.OrganizationID)
}

func (s *Service) Unassign(ctx context.Context, caller authz.Identity, trialID, userID string) error {
	trial, err := s.repo.GetByID(ctx, trialID)
	if err != nil {
		return err
	}
	if err := s.policy.RequireAdmin(caller, trial.OrganizationID); err != nil {
		return err
	}
	return s.repo.Unassign(ctx, userID, trialID)
}
