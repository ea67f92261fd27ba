// Package settings is the per-organization key/value configuration store
// shown on the portal's settings tab.
package settings

import (
	"context"

	"github.com/carebridge-health/portal/internal/domain/authz"
)

type Repository interface {
	GetAll(ctx context.Context, orgID string) (map[string]string, error)
	Upsert(ctx context.Context, orgID string, values map[string]string) error
	Delete(ctx context.Context, orgID, key string) error
}

type Service struct {
	repo   Repository
	policy *authz.Evaluator
}

func NewService(repo Repository, policy *authz.Evaluator) *Service {
	return &Service{repo: repo, policy: policy}
}

// Get returns every setting for the caller's organization. Reads are open
// to all members.
func (s *Service) Get(ctx context.Context, caller authz.Identity) (map[string]string, error) {
	return s.repo.GetAll(ctx, caller.OrganizationID)
}

// Update applies the given keys. Writes are admin only. An empty value
// removes the key; everything else is upserted.
func (s *Service) Update(ctx context.Context, caller authz.Identity, values map[string]string) (map[string]string, error) {
	if err := s.policy.RequireAdmin(caller, caller.OrganizationID); err != nil {
		return nil, err
	}

	upserts := make(map[string]string, len(values))
	for key, value := range values {
		if value == "" {
			if err := s.repo.Delete(ctx, caller.OrganizationID, key); err != nil {
				return nil, err
			}
			continue
		}
		upserts[key] = value
	}
	if len(upserts) > 0 {
		if err := s.repo.Upsert(ctx, caller.OrganizationID, upserts); err != nil {
			return nil, err
		}
	}
	return s.repo.GetAll(ctx, caller.OrganizationID)
}
