package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/carebridge-health/portal/internal/domain/trials"
	"github.com/jackc/pgx/v5"
)

var _ trials.Repository = (*TrialRepository)(nil)

func (r *TrialRepository) queryer() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

const trialColumns = `id, organization_id, name, description, is_active, created_at, updated_at`

func scanTrial(row pgx.Row) (trials.Trial, error) {
	var t trials.Trial
	var description *string
	err := row.Scan(
		&t.ID,
		&t.OrganizationID,
		&t.Name,
		&description,
		&t.IsActive,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	t.Description = derefString(description)
	return t, err
}

func (r *TrialRepository) Create(ctx context.Context, params trials.CreateParams) (trials.Trial, error) {
	q := r.queryer()
	trial, err := scanTrial(q.QueryRow(ctx, `
INSERT INTO clinical_trials (id, organization_id, name, description, is_active)
VALUES (gen_random_uuid(), $1, $2, $3, $4)
RETURNING `+trialColumns,
		params.OrganizationID, params.Name, params.Description, params.IsActive))
	if err != nil {
		return trials.Trial{}, fmt.Errorf("create trial: %w", err)
	}
	return trial, nil
}

func (r *TrialRepository) GetByID(ctx context.Context, id string) (trials.Trial, error) {
	q := r.queryer()
	trial, err := scanTrial(q.QueryRow(ctx, `
SELECT `+trialColumns+` FROM clinical_trials WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return trials.Trial{}, trials.ErrNotFound
	}
	if err != nil {
		return trials.Trial{}, fmt.Errorf("get trial: %w", err)
	}
	return trial, nil
}

func (r *TrialRepository) ListByOrganization(ctx context.Context, orgID string) ([]trials.Trial, error) {
	q := r.queryer()
	rows, err := q.Query(ctx, `
SELECT `+trialColumns+`
  FROM clinical_trials
 WHERE organization_id = $1
 ORDER BY created_at DESC, id`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list trials: %w", err)
	}
	defer rows.Close()
	return collectTrials(rows)
}

func (r *TrialRepository) ListByIDs(ctx context.Context, ids []string) ([]trials.Trial, error) {
	if len(ids) == 0 {
		return []trials.Trial{}, nil
	}
	q := r.queryer()
	rows, err := q.Query(ctx, `
SELECT `+trialColumns+`
  FROM clinical_trials
 WHERE id = ANY($1)
 ORDER BY created_at DESC, id`, ids)
	if err != nil {
		return nil, fmt.Errorf("list trials by ids: %w", err)
	}
	defer rows.Close()
	return collectTrials(rows)
}

func collectTrials(rows pgx.Rows) ([]trials.Trial, error) {
	out := make([]trials.Trial, 0)
	for rows.Next() {
		trial, err := scanTrial(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trial: %w", err)
		}
		out = append(out, trial)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("collect trials: %w", err)
	}
	return out, nil
}

func (r *TrialRepository) Update(ctx context.Context, id string, params trials.UpdateParams) (trials.Trial, error) {
	q := r.queryer()
	trial, err := scanTrial(q.QueryRow(ctx, `
UPDATE clinical_trials
   SET name        = COALESCE($2, name),
       description = COALESCE($3, description),
       is_active   = COALESCE($4, is_active)
 WHERE id = $1
RETURNING `+trialColumns,
		id, params.Name, params.Description, params.IsActive))
	if errors.Is(err, pgx.ErrNoRows) {
		return trials.Trial{}, trials.ErrNotFound
	}
	if err != nil {
		return trials.Trial{}, fmt.Errorf("update trial: %w", err)
	}
	return trial, nil
}

func (r *TrialRepository) Delete(ctx context.Context, id string) error {
	q := r.queryer()
	tag, err := q.Exec(ctx, `DELETE FROM clinical_trials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete trial: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return trials.ErrNotFound
	}
	return nil
}

// Assignments

func (r *TrialRepository) Assign(ctx context.Context, userID, trialID, orgID string) (trials.Assignment, error) {
	q := r.queryer()
	var id string
	err := q.QueryRow(ctx, `
INSERT INTO trial_assignments (id, user_id, trial_id, organization_id)
VALUES (gen_random_uuid(), $1, $2, $3)
RETURNING id`, userID, trialID, orgID).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return trials.Assignment{}, trials.ErrAlreadyAssigned
		}
		return trials.Assignment{}, fmt.Errorf("assign trial: %w", err)
	}

	var assignment trials.Assignment
	err = q.QueryRow(ctx, `
SELECT a.id, a.user_id, p.email, p.full_name, a.trial_id, a.organization_id, a.created_at
  FROM trial_assignments a
  JOIN profiles p ON p.id = a.user_id
 WHERE a.id = $1`, id).Scan(
		&assignment.ID,
		&assignment.UserID,
		&assignment.UserEmail,
		&assignment.UserFullName,
		&assignment.TrialID,
		&assignment.OrganizationID,
		&assignment.CreatedAt,
	)
	if err != nil {
		return trials.Assignment{}, fmt.Errorf("load assignment: %w", err)
	}
	return assignment, nil
}

func (r *TrialRepository) Unassign(ctx context.Context, userID, trialID string) error {
	q := r.queryer()
	tag, err := q.Exec(ctx, `
DELETE FROM trial_assignments WHERE user_id = $1 AND trial_id = $2`, userID, trialID)
	if err != nil {
		return fmt.Errorf("unassign trial: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return trials.ErrAssignmentGone
	}
	return nil
}

func (r *TrialRepository) ListAssignments(ctx context.Context, trialID string) ([]trials.Assignment, error) {
	q := r.queryer()
	rows, err := q.Query(ctx, `
SELECT a.id, a.user_id, p.email, p.full_name, a.trial_id, a.organization_id, a.created_at
  FROM trial_assignments a
  JOIN profiles p ON p.id = a.user_id
 WHERE a.trial_id = $1
 ORDER BY a.created_at, a.id`, trialID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	out := make([]trials.Assignment, 0)
	for rows.Next() {
		var a trials.Assignment
		if err := rows.Scan(&a.ID, &a.UserID, &a.UserEmail, &a.UserFullName, &a.TrialID, &a.OrganizationID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return out, nil
}

func (r *TrialRepository) AccessibleTrialIDs(ctx context.Context, userID string) ([]string, error) {
	q := r.queryer()
	rows, err := q.Query(ctx, `
SELECT trial_id FROM trial_assignments WHERE user_id = $1 ORDER BY trial_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("accessible trials: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan trial id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("accessible trials: %w", err)
	}
	return ids, nil
}
