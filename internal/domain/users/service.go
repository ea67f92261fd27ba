package users

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/carebridge-health/portal/internal/auth"
	"github.com/carebridge-health/portal/internal/domain/authz"
	"github.com/carebridge-health/portal/internal/email"
	"github.com/rs/zerolog"
)

// Service handles profile management and authentication.
type Service struct {
	repo     Repository
	orgs     OrganizationRepository
	policy   *authz.Evaluator
	emailSvc *email.Service
	baseURL  string
	logger   zerolog.Logger
}

func NewService(repo Repository, orgs OrganizationRepository, policy *authz.Evaluator, emailSvc *email.Service, baseURL string, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		orgs:     orgs,
		policy:   policy,
		emailSvc: emailSvc,
		baseURL:  baseURL,
		logger:   logger.With().Str("component", "users").Logger(),
	}
}

// Authenticate verifies email/password and returns the matching profile.
// Inactive accounts authenticate like unknown ones to avoid leaking state.
func (s *Service) Authenticate(ctx context.Context, emailAddr, password string) (Profile, error) {
	creds, err := s.repo.Credentials(ctx, normalizeEmail(emailAddr))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Profile{}, auth.ErrInvalidCredentials
		}
		return Profile{}, fmt.Errorf("lookup credentials: %w", err)
	}
	if !creds.IsActive {
		return Profile{}, auth.ErrInvalidCredentials
	}
	if err := auth.ComparePassword(creds.PasswordHash, password); err != nil {
		return Profile{}, auth.ErrInvalidCredentials
	}

	profile, err := s.repo.GetByID(ctx, creds.ProfileID)
	if err != nil {
		return Profile{}, fmt.Errorf("load profile: %w", err)
	}

	if err := s.repo.UpdateLastLogin(ctx, profile.ID); err != nil {
		s.logger.Warn().Err(err).Str("profile_id", profile.ID).Msg("failed to update last login")
	}
	return profile, nil
}

// RegisterParams creates a self-service profile inside an existing
// organization. Self-registered accounts always get the "user" role.
type RegisterParams struct {
	OrganizationID string
	Email          string
	Password       string
	FullName       string
}

func (s *Service) Register(ctx context.Context, params RegisterParams) (Profile, error) {
	if _, err := s.orgs.GetOrganizationByID(ctx, params.OrganizationID); err != nil {
		if errors.Is(err, ErrOrganizationNotFound) {
			return Profile{}, ErrOrganizationNotFound
		}
		return Profile{}, fmt.Errorf("check organization: %w", err)
	}

	if err := s.ensureEmailFree(ctx, params.Email); err != nil {
		return Profile{}, err
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return Profile{}, fmt.Errorf("hash password: %w", err)
	}

	profile, err := s.repo.Create(ctx, CreateParams{
		OrganizationID: params.OrganizationID,
		Email:          normalizeEmail(params.Email),
		FullName:       params.FullName,
		Role:           string(auth.RoleUser),
		PasswordHash:   hash,
	})
	if err != nil {
		return Profile{}, fmt.Errorf("create profile: %w", err)
	}
	return profile, nil
}

// CreateUserParams is an admin-initiated account creation. The new profile
// is always scoped to the creating admin's organization.
type CreateUserParams struct {
	Email    string
	FullName string
	Role     string
	Password string // optional; generated when empty
}

func (s *Service) Create(ctx context.Context, caller authz.Identity, params CreateUserParams) (Profile, error) {
	if err := s.policy.RequireAdmin(caller, caller.OrganizationID); err != nil {
		return Profile{}, err
	}
	if err := s.ensureEmailFree(ctx, params.Email); err != nil {
		return Profile{}, err
	}

	role := params.Role
	if role == "" {
		role = string(auth.RoleUser)
	}

	password := params.Password
	generated := false
	if password == "" {
		random, err := generatePassword()
		if err != nil {
			return Profile{}, fmt.Errorf("generate password: %w", err)
		}
		password = random
		generated = true
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return Profile{}, fmt.Errorf("hash password: %w", err)
	}

	profile, err := s.repo.Create(ctx, CreateParams{
		OrganizationID: caller.OrganizationID,
		Email:          normalizeEmail(params.Email),
		FullName:       params.FullName,
		Role:           role,
		PasswordHash:   hash,
	})
	if err != nil {
		return Profile{}, fmt.Errorf("create profile: %w", err)
	}

	if s.emailSvc != nil {
		invite := email.InvitationParams{
			To:        profile.Email,
			InvitedBy: caller.ProfileID,
			PortalURL: s.baseURL,
		}
		if generated {
			invite.TemporaryPassword = password
		}
		if err := s.emailSvc.SendInvitation(ctx, invite); err != nil {
			// The account exists either way; the admin can resend manually.
			s.logger.Error().Err(err).Str("email", profile.Email).Msg("failed to send invitation email")
		}
	}
	return profile, nil
}

func (s *Service) Get(ctx context.Context, caller authz.Identity, id string) (Profile, error) {
	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	if err := s.policy.CanReadProfile(caller, profile.ID, profile.OrganizationID); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

func (s *Service) List(ctx context.Context, caller authz.Identity, filters ListFilters) ([]Profile, int64, error) {
	if err := s.policy.RequireAdmin(caller, caller.OrganizationID); err != nil {
		return nil, 0, err
	}
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 50
	}
	return s.repo.ListByOrganization(ctx, caller.OrganizationID, filters)
}

func (s *Service) Update(ctx context.Context, caller authz.Identity, id string, params UpdateParams) (Profile, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Profile{}, err
	}

	changesRole := params.Role != nil && !strings.EqualFold(*params.Role, existing.Role)
	if err := s.policy.CanUpdateProfile(caller, existing.ID, existing.OrganizationID, changesRole); err != nil {
		return Profile{}, err
	}

	if params.Email != nil {
		normalized := normalizeEmail(*params.Email)
		params.Email = &normalized
		if !strings.EqualFold(normalized, existing.Email) {
			if err := s.ensureEmailFree(ctx, normalized); err != nil {
				return Profile{}, err
			}
		}
	}

	return s.repo.Update(ctx, id, params)
}

func (s *Service) Delete(ctx context.Context, caller authz.Identity, id string) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.CanDeleteProfile(caller, existing.ID, existing.OrganizationID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) ensureEmailFree(ctx context.Context, emailAddr string) error {
	_, err := s.repo.GetByEmail(ctx, normalizeEmail(emailAddr))
	if err == nil {
		return ErrEmailTaken
	}
	if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("check email: %w", err)
	}
	return nil
}

func normalizeEmail(emailAddr string) string {
	return strings.ToLower(strings.TrimSpace(emailAddr))
}

func generatePassword() (string, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
