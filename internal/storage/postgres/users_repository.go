package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/carebridge-health/portal/internal/domain/users"
	"github.com/jackc/pgx/v5"
)

var _ users.Repository = (*UserRepository)(nil)
var _ users.OrganizationRepository = (*UserRepository)(nil)

func (r *UserRepository) queryer() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

const profileColumns = `
	p.id, p.organization_id, o.name, p.email, p.full_name, p.role,
	p.is_active, p.last_login_at, p.created_at, p.updated_at`

func scanProfile(row pgx.Row) (users.Profile, error) {
	var p users.Profile
	err := row.Scan(
		&p.ID,
		&p.OrganizationID,
		&p.OrganizationName,
		&p.Email,
		&p.FullName,
		&p.Role,
		&p.IsActive,
		&p.LastLoginAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func (r *UserRepository) Create(ctx context.Context, params users.CreateParams) (users.Profile, error) {
	q := r.queryer()
	var id string
	err := q.QueryRow(ctx, `
INSERT INTO profiles (id, organization_id, email, full_name, role, password_hash, is_active)
VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, true)
RETURNING id`,
		params.OrganizationID, params.Email, params.FullName, params.Role, params.PasswordHash,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return users.Profile{}, users.ErrEmailTaken
		}
		return users.Profile{}, fmt.Errorf("create profile: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (users.Profile, error) {
	q := r.queryer()
	profile, err := scanProfile(q.QueryRow(ctx, `
SELECT`+profileColumns+`
  FROM profiles p
  JOIN organizations o ON o.id = p.organization_id
 WHERE p.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return users.Profile{}, users.ErrNotFound
	}
	if err != nil {
		return users.Profile{}, fmt.Errorf("get profile by id: %w", err)
	}
	return profile, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (users.Profile, error) {
	q := r.queryer()
	profile, err := scanProfile(q.QueryRow(ctx, `
SELECT`+profileColumns+`
  FROM profiles p
  JOIN organizations o ON o.id = p.organization_id
 WHERE lower(p.email) = lower($1)`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return users.Profile{}, users.ErrNotFound
	}
	if err != nil {
		return users.Profile{}, fmt.Errorf("get profile by email: %w", err)
	}
	return profile, nil
}

func (r *UserRepository) Credentials(ctx context.Context, email string) (users.Credentials, error) {
	q := r.queryer()
	var creds users.Credentials
	err := q.QueryRow(ctx, `
SELECT id, organization_id, role, password_hash, is_active
  FROM profiles
 WHERE lower(email) = lower($1)`, email).Scan(
		&creds.ProfileID,
		&creds.OrganizationID,
		&creds.Role,
		&creds.PasswordHash,
		&creds.IsActive,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return users.Credentials{}, users.ErrNotFound
	}
	if err != nil {
		return users.Credentials{}, fmt.Errorf("get credentials: %w", err)
	}
	return creds, nil
}

func (r *UserRepository) ListByOrganization(ctx context.Context, orgID string, filters users.ListFilters) ([]users.Profile, int64, error) {
	q := r.queryer()

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := q.Query(ctx, `
SELECT`+profileColumns+`
  FROM profiles p
  JOIN organizations o ON o.id = p.organization_id
 WHERE p.organization_id = $1
   AND ($2::text IS NULL OR p.role = $2)
   AND ($3::boolean IS NULL OR p.is_active = $3)
 ORDER BY p.created_at DESC, p.id
 LIMIT $4 OFFSET $5`,
		orgID, filters.Role, filters.IsActive, limit, filters.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]users.Profile, 0)
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list profiles: %w", err)
	}

	var total int64
	err = q.QueryRow(ctx, `
SELECT count(*)
  FROM profiles
 WHERE organization_id = $1
   AND ($2::text IS NULL OR role = $2)
   AND ($3::boolean IS NULL OR is_active = $3)`,
		orgID, filters.Role, filters.IsActive).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count profiles: %w", err)
	}
	return profiles, total, nil
}

func (r *UserRepository) Update(ctx context.Context, id string, params users.UpdateParams) (users.Profile, error) {
	q := r.queryer()
	tag, err := q.Exec(ctx, `
UPDATE profiles
   SET email      = COALESCE($2, email),
       full_name  = COALESCE($3, full_name),
       role       = COALESCE($4, role),
       is_active  = COALESCE($5, is_active)
 WHERE id = $1`,
		id, params.Email, params.FullName, params.Role, params.IsActive)
	if err != nil {
		if isUniqueViolation(err) {
			return users.Profile{}, users.ErrEmailTaken
		}
		return users.Profile{}, fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return users.Profile{}, users.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string) error {
	q := r.queryer()
	if _, err := q.Exec(ctx, `UPDATE profiles SET last_login_at = now() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	q := r.queryer()
	tag, err := q.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return users.ErrNotFound
	}
	return nil
}

// Organizations

func (r *UserRepository) GetOrganizationByID(ctx context.Context, id string) (users.Organization, error) {
	q := r.queryer()
	var org users.Organization
	err := q.QueryRow(ctx, `SELECT id, name, created_at FROM organizations WHERE id = $1`, id).
		Scan(&org.ID, &org.Name, &org.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return users.Organization{}, users.ErrOrganizationNotFound
	}
	if err != nil {
		return users.Organization{}, fmt.Errorf("get organization: %w", err)
	}
	return org, nil
}

func (r *UserRepository) GetOrganizationByName(ctx context.Context, name string) (users.Organization, error) {
	q := r.queryer()
	var org users.Organization
	err := q.QueryRow(ctx, `SELECT id, name, created_at FROM organizations WHERE lower(name) = lower($1)`, name).
		Scan(&org.ID, &org.Name, &org.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return users.Organization{}, users.ErrOrganizationNotFound
	}
	if err != nil {
		return users.Organization{}, fmt.Errorf("get organization by name: %w", err)
	}
	return org, nil
}

func (r *UserRepository) CreateOrganization(ctx context.Context, name string) (users.Organization, error) {
	q := r.queryer()
	var org users.Organization
	err := q.QueryRow(ctx, `
INSERT INTO organizations (id, name)
VALUES (gen_random_uuid(), $1)
RETURNING id, name, created_at`, name).
		Scan(&org.ID, &org.Name, &org.CreatedAt)
	if err != nil {
		return users.Organization{}, fmt.Errorf("create organization: %w", err)
	}
	return org, nil
}
