package content

import (
	"context"
	"fmt"

	"github.com/carebridge-health/portal/internal/domain/authz"
	"github.com/carebridge-health/portal/internal/domain/trials"
	"github.com/rs/zerolog"
)

type Service struct {
	repo   Repository
	trials trials.Repository
	policy *authz.Evaluator
	logger zerolog.Logger
}

func NewService(repo Repository, trialRepo trials.Repository, policy *authz.Evaluator, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		trials: trialRepo,
		policy: policy,
		logger: logger.With().Str("component", "content").Logger(),
	}
}

// scopeForCreate checks trial access and returns the Meta every new content
// row starts from. The organization is taken from the trial, never from the
// request, which keeps content rows pinned to their trial's tenant.
func (s *Service) scopeForCreate(ctx context.Context, caller authz.Identity, trialID string) (Meta, error) {
	trial, err := s.trials.GetByID(ctx, trialID)
	if err != nil {
		return Meta{}, err
	}
	if err := s.policy.CanAccessTrialContent(ctx, caller, trial.OrganizationID, trial.ID); err != nil {
		return Meta{}, err
	}
	return Meta{
		OrganizationID: trial.OrganizationID,
		TrialID:        trial.ID,
		CreatedBy:      caller.ProfileID,
	}, nil
}

func (s *Service) listScope(ctx context.Context, caller authz.Identity) (ListScope, error) {
	trialIDs, err := s.policy.AccessibleTrialIDs(ctx, caller)
	if err != nil {
		return ListScope{}, fmt.Errorf("resolve accessible trials: %w", err)
	}
	scope := ListScope{OrganizationID: caller.OrganizationID, TrialIDs: trialIDs}
	if !caller.IsAdmin() && len(trialIDs) == 0 {
		// No assignments means an empty result, not an unfiltered query.
		scope.TrialIDs = []string{}
	}
	return scope, nil
}

func (s *Service) checkRecordAccess(ctx context.Context, caller authz.Identity, meta Meta) error {
	return s.policy.CanAccessTrialContent(ctx, caller, meta.OrganizationID, meta.TrialID)
}

// Enrollments

type CreateEnrollmentParams struct {
	TrialID      string
	PatientCount int32
	Notes        string
}

func (s *Service) CreateEnrollment(ctx context.Context, caller authz.Identity, params CreateEnrollmentParams) (Enrollment, error) {
	meta, err := s.scopeForCreate(ctx, caller, params.TrialID)
	if err != nil {
		return Enrollment{}, err
	}
	return s.repo.CreateEnrollment(ctx, Enrollment{
		Meta:         meta,
		PatientCount: params.PatientCount,
		Notes:        params.Notes,
	})
}

func (s *Service) ListEnrollments(ctx context.Context, caller authz.Identity) ([]Enrollment, error) {
	scope, err := s.listScope(ctx, caller)
	if err != nil {
		return nil, err
	}
	if scope.TrialIDs != nil && len(scope.TrialIDs) == 0 {
		return []Enrollment{}, nil
	}
	return s.repo.ListEnrollments(ctx, scope)
}

func (s *Service) UpdateEnrollment(ctx context.Context, caller authz.Identity, id string, params EnrollmentUpdate) (Enrollment, error) {
	existing, err := s.repo.GetEnrollment(ctx, id)
	if err != nil {
		return Enrollment{}, err
	}
	if err := s.checkRecordAccess(ctx, caller, existing.Meta); err != nil {
		return Enrollment{}, err
	}
	return s.repo.UpdateEnrollment(ctx, id, params)
}

func (s *Service) DeleteEnrollment(ctx context.Context, caller authz.Identity, id string) error {
	existing, err := s.repo.GetEnrollment(ctx, id)
	if err != nil {
		return err
	}
	if err := s.checkRecordAccess(ctx, caller, existing.Meta); err != nil {
		return err
	}
	return s.repo.DeleteEnrollment(ctx, id)
}

// News updates

type CreateNewsParams struct {
	TrialID string
	Title   string
	Body    string
}

func (s *Service) CreateNewsUpdate(ctx context.Context, caller authz.Identity, params CreateNewsParams) (NewsUpdate, error) {
	meta, err := s.scopeForCreate(ctx, caller, params.TrialID)
	if err != nil {
		return NewsUpdate{}, err
	}
	return s.repo.CreateNewsUpdate(ctx, NewsUpdate{
		Meta:  meta,
		Title: params.Title,
		Body:  params.Body,
	})
}

func (s *Service) ListNewsUpdates(ctx context.Context, caller authz.Identity) ([]NewsUpdate, error) {
	scope, err := s.listScope(ctx, caller)
	if err != nil {
		return nil, err
	}
	if scope.TrialIDs != nil && len(scope.TrialIDs) == 0 {
		return []NewsUpdate{}, nil
	}
	return s.repo.ListNewsUpdates(ctx, scope)
}

func (s *Service) UpdateNewsUpdate(ctx context.Context, caller authz.Identity, id string, params NewsUpdateUpdate) (NewsUpdate, error) {
	existing, err := s.repo.GetNewsUpdate(ctx, id)
	if err != nil {
		return NewsUpdate{}, err
	}
	if err := s.checkRecordAccess(ctx, caller, existing.Meta); err != nil {
		return NewsUpdate{}, err
	}
	return s.repo.UpdateNewsUpdate(ctx, id, params)
}

func (s *Service) DeleteNewsUpdate(ctx context.Context, caller authz.Identity, id string) error {
	existing, err := s.repo.GetNewsUpdate(ctx, id)
	if err != nil {
		return err
	}
	if err := s.checkRecordAccess(ctx, caller, existing.Meta); err != nil {
		return err
	}
	return s.repo.DeleteNewsUpdate(ctx, id)
}

// Training materials

type CreateTrainingMaterialParams struct {
	TrialID     string
	Title       string
	Description string
	StoragePath string
}

func (s *Service) CreateTrainingMaterial(ctx context.Context, caller authz.Identity, params CreateTrainingMaterialParams) (TrainingMaterial, error) {
	meta, err := s.scopeForCreate(ctx, caller, params.TrialID)
	if err != nil {
		return TrainingMaterial{}, err
	}
	return s.repo.CreateTrainingMaterial(ctx, TrainingMaterial{
		Meta:        meta,
		Title:       params.Title,
		Description: params.Description,
		StoragePath: params.StoragePath,
	})
}

func (s *Service) ListTrainingMaterials(ctx context.Context, caller authz.Identity) ([]TrainingMaterial, error) {
	scope, err := s.listScope(ctx, caller)
	if err != nil {
		return nil, err
	}
	if scope.TrialIDs != nil && len(scope.TrialIDs) == 0 {
		return []TrainingMaterial{}, nil
	}
	return s.repo.ListTrainingMaterials(ctx, scope)
}

func (s *Service) UpdateTrainingMaterial(ctx context.Context, caller authz.Identity, id string, params TrainingMaterialUpdate) (TrainingMaterial, error) {
	existing, err := s.repo.GetTrainingMaterial(ctx, id)
	if err != nil {
		return TrainingMaterial{}, err
	}
	if err := s.checkRecordAccess(ctx, caller, existing.Meta); err != nil {
		return TrainingMaterial{}, err
	}
	return s.repo.UpdateTrainingMaterial(ctx, id, params)
}

func (s *Service) DeleteTrainingMaterial(ctx context.Context, caller authz.Identity, id string) error {
	existing, err := s.repo.GetTrainingMaterial(ctx, id)
	if err != nil {
		return err
	}
	if err := s.checkRecordAccess(ctx, caller, existing.Meta); err != nil {
		return err
	}
	return s.repo.DeleteTrainingMaterial(ctx, id)
}

// Study protocols

type CreateStudyProtocolParams struct {
	TrialID     string
	Title       string
	Version     string
	Summary     string
	StoragePath string
}

func (s *Service) CreateStudyProtocol(ctx context.Context, caller authz.Identity, params CreateStudyProtocolParams) (StudyProtocol, error) {
	meta, err := s.scopeForCreate(ctx, caller, params.TrialID)
	if err != nil {
		return StudyProtocol{}, err
	}
	return s.repo.CreateStudyProtocol(ctx, StudyProtocol{
		Meta:        meta,
		Title:       params.Title,
		Version:     params.Version,
		Summary:     params.Summary,
		StoragePath: params.StoragePath,
	})
}

func (s *Service) ListStudyProtocols(ctx context.Context, caller authz.Identity) ([]StudyProtocol, error) {
	scope, err := s.listScope(ctx, caller)
	if err != nil {
		return nil, err
	}
	if scope.TrialIDs != nil && len(scope.TrialIDs) == 0 {
		return []StudyProtocol{}, nil
	}
	return s.repo.ListStudyProtocols(ctx, scope)
}

func (s *Service) UpdateStudyProtocol(ctx context.Context, caller authz.Identity, id string, params StudyProtocolUpdate) (StudyProtocol, error) {
	existing, err := s.repo.GetStudyProtocol(ctx, id)
	if err != nil {
		return StudyProtocol{}, err
	}
	if err := s.checkRecordAccess(ctx, caller, existing.Meta); err != nil {
		return StudyProtocol{}, err
	}
	return s.repo.UpdateStudyProtocol(ctx, id, params)
}

func (s *Service) DeleteStudyProtocol(ctx context.Context, caller authz.Identity, id string) error {
	existing, err := s.repo.GetStudyProtocol(ctx, id)
	if err != nil {
		return err
	}
	if err := s.checkRecordAccess(ctx, caller, existing.Meta); err != nil {
		return err
	}
	return s.repo.DeleteStudyProtocol(ctx, id)
}
