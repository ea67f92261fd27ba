package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/carebridge-health/portal/internal/domain/hospitals"
	"github.com/jackc/pgx/v5"
)

var _ hospitals.Repository = (*HospitalRepository)(nil)

func (r *HospitalRepository) queryer() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

const hospitalColumns = `id, organization_id, name, city, enrollment_count, created_at, updated_at`

func scanHospital(row pgx.Row) (hospitals.Hospital, error) {
	var h hospitals.Hospital
	err := row.Scan(
		&h.ID,
		&h.OrganizationID,
		&h.Name,
		&h.City,
		&h.EnrollmentCount,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	return h, err
}

// Leaderboard orders by enrollment count, busiest sites first.
func (r *HospitalRepository) Leaderboard(ctx context.Context, orgID string) ([]hospitals.Hospital, error) {
	q := r.queryer()
	rows, err := q.Query(ctx, `
SELECT `+hospitalColumns+`
  FROM hospitals
 WHERE organization_id = $1
 ORDER BY enrollment_count DESC, name`, orgID)
	if err != nil {
		return nil, fmt.Errorf("hospital leaderboard: %w", err)
	}
	defer rows.Close()

	out := make([]hospitals.Hospital, 0)
	for rows.Next() {
		h, err := scanHospital(rows)
		if err != nil {
			return nil, fmt.Errorf("scan hospital: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("hospital leaderboard: %w", err)
	}
	return out, nil
}

func (r *HospitalRepository) Create(ctx context.Context, params hospitals.CreateParams) (hospitals.Hospital, error) {
	q := r.queryer()
	h, err := scanHospital(q.QueryRow(ctx, `
INSERT INTO hospitals (id, organization_id, name, city, enrollment_count)
VALUES (gen_random_uuid(), $1, $2, $3, $4)
RETURNING `+hospitalColumns,
		params.OrganizationID, params.Name, params.City, params.EnrollmentCount))
	if err != nil {
		return hospitals.Hospital{}, fmt.Errorf("create hospital: %w", err)
	}
	return h, nil
}

func (r *HospitalRepository) GetByID(ctx context.Context, id string) (hospitals.Hospital, error) {
	q := r.queryer()
	h, err := scanHospital(q.QueryRow(ctx, `
SELECT `+hospitalColumns+` FROM hospitals WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return hospitals.Hospital{}, hospitals.ErrNotFound
	}
	if err != nil {
		return hospitals.Hospital{}, fmt.Errorf("get hospital: %w", err)
	}
	return h, nil
}

func (r *HospitalRepository) Update(ctx context.Context, id string, params hospitals.UpdateParams) (hospitals.Hospital, error) {
	q := r.queryer()
	h, err := scanHospital(q.QueryRow(ctx, `
UPDATE hospitals
   SET name             = COALESCE($2, name),
       city             = COALESCE($3, city),
       enrollment_count = COALESCE($4, enrollment_count)
 WHERE id = $1
RETURNING `+hospitalColumns,
		id, params.Name, params.City, params.EnrollmentCount))
	if errors.Is(err, pgx.ErrNoRows) {
		return hospitals.Hospital{}, hospitals.ErrNotFound
	}
	if err != nil {
		return hospitals.Hospital{}, fmt.Errorf("update hospital: %w", err)
	}
	return h, nil
}

func (r *HospitalRepository) Delete(ctx context.Context, id string) error {
	q := r.queryer()
	tag, err := q.Exec(ctx, `DELETE FROM hospitals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete hospital: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return hospitals.ErrNotFound
	}
	return nil
}
