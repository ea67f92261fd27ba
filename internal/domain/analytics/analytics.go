// Package analytics aggregates per-organization dashboard counts.
package analytics

import (
	"context"
	"fmt"

	"github.com/carebridge-health/portal/internal/domain/authz"
)

// Summary is the dashboard headline block. Counts respect the caller's
// trial scope: admins see the whole organization, others only assigned
// trials.
type Summary struct {
	Trials       int64       `json:"trials"`
	Users        int64       `json:"users"`
	Enrollments  int64       `json:"enrollments"`
	Documents    int64       `json:"documents"`
	PatientTotal int64       `json:"patient_total"`
	PerTrial     []TrialStat `json:"per_trial"`
}

type TrialStat struct {
	TrialID      string `json:"trial_id"`
	TrialName    string `json:"trial_name"`
	PatientCount int64  `json:"patient_count"`
}

// DataSource computes a summary. trialIDs == nil means no trial filter
// (admin view); an empty non-nil slice yields zero trial-scoped counts.
type DataSource interface {
	Summary(ctx context.Context, orgID string, trialIDs []string) (Summary, error)
}

type Service struct {
	source DataSource
	policy *authz.Evaluator
}

func NewService(source DataSource, policy *authz.Evaluator) *Service {
	return &Service{source: source, policy: policy}
}

func (s *Service) Summary(ctx context.Context, caller authz.Identity) (Summary, error) {
	trialIDs, err := s.policy.AccessibleTrialIDs(ctx, caller)
	if err != nil {
		return Summary{}, fmt.Errorf("resolve accessible trials: %w", err)
	}
	if !caller.IsAdmin() && trialIDs == nil {
		trialIDs = []string{}
	}
	return s.source.Summary(ctx, caller.OrganizationID, trialIDs)
}
