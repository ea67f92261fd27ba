package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/carebridge-health/portal/internal/domain/content"
	"github.com/jackc/pgx/v5"
)

var _ content.Repository = (*ContentRepository)(nil)

func (r *ContentRepository) queryer() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

// Every content table carries the same ownership columns and joins
// clinical_trials for the trial name. Queries are written per table so
// each stays a plain string the database can plan.

const metaSelect = `c.id, c.organization_id, c.trial_id, t.name, c.created_by, c.created_at, c.updated_at`

func scanMeta(rows pgx.Row, m *content.Meta, extra ...any) error {
	dest := []any{&m.ID, &m.OrganizationID, &m.TrialID, &m.TrialName, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt}
	dest = append(dest, extra...)
	return rows.Scan(dest...)
}

// scopeClause builds the WHERE fragment shared by all list queries.
// A nil TrialIDs slice means no trial filter; an empty one matches nothing,
// which ANY against an empty array already does.
func scopeArgs(scope content.ListScope) (string, []any) {
	if scope.TrialIDs == nil {
		return `c.organization_id = $1`, []any{scope.OrganizationID}
	}
	return `c.organization_id = $1 AND c.trial_id = ANY($2)`, []any{scope.OrganizationID, scope.TrialIDs}
}

// Enrollments

func (r *ContentRepository) CreateEnrollment(ctx context.Context, record content.Enrollment) (content.Enrollment, error) {
	q := r.queryer()
	var id string
	err := q.QueryRow(ctx, `
INSERT INTO enrollments (id, organization_id, trial_id, created_by, patient_count, notes)
VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
RETURNING id`,
		record.OrganizationID, record.TrialID, record.CreatedBy, record.PatientCount, record.Notes).Scan(&id)
	if err != nil {
		return content.Enrollment{}, fmt.Errorf("create enrollment: %w", err)
	}
	return r.GetEnrollment(ctx, id)
}

func (r *ContentRepository) GetEnrollment(ctx context.Context, id string) (content.Enrollment, error) {
	q := r.queryer()
	var rec content.Enrollment
	err := scanMeta(q.QueryRow(ctx, `
SELECT `+metaSelect+`, c.patient_count, c.notes
  FROM enrollments c
  JOIN clinical_trials t ON t.id = c.trial_id
 WHERE c.id = $1`, id), &rec.Meta, &rec.PatientCount, &rec.Notes)
	if errors.Is(err, pgx.ErrNoRows) {
		return content.Enrollment{}, content.ErrNotFound
	}
	if err != nil {
		return content.Enrollment{}, fmt.Errorf("get enrollment: %w", err)
	}
	return rec, nil
}

func (r *ContentRepository) ListEnrollments(ctx context.Context, scope content.ListScope) ([]content.Enrollment, error) {
	where, args := scopeArgs(scope)
	q := r.queryer()
	rows, err := q.Query(ctx, `
SELECT `+metaSelect+`, c.patient_count, c.notes
  FROM enrollments c
  JOIN clinical_trials t ON t.id = c.trial_id
 WHERE `+where+`
 ORDER BY c.created_at DESC, c.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	out := make([]content.Enrollment, 0)
	for rows.Next() {
		var rec content.Enrollment
		if err := scanMeta(rows, &rec.Meta, &rec.PatientCount, &rec.Notes); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return out, nil
}

func (r *ContentRepository) UpdateEnrollment(ctx context.Context, id string, params content.EnrollmentUpdate) (content.Enrollment, error) {
	q := r.queryer()
	tag, err := q.Exec(ctx, `
UPDATE enrollments
   SET patient_count = COALESCE($2, patient_count),
       notes         = COALESCE($3, notes)
 WHERE id = $1`,
		id, params.PatientCount, params.Notes)
	if err != nil {
		return content.Enrollment{}, fmt.Errorf("update enrollment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return content.Enrollment{}, content.ErrNotFound
	}
	return r.GetEnrollment(ctx, id)
}

func (r *ContentRepository) DeleteEnrollment(ctx context.Context, id string) error {
	return r.deleteRow(ctx, `DELETE FROM enrollments WHERE id = $1`, id, "delete enrollment")
}

// News updates

func (r *ContentRepository) CreateNewsUpdate(ctx context.Context, record content.NewsUpdate) (content.NewsUpdate, error) {
	q := r.queryer()
	var id string
	err := q.QueryRow(ctx, `
INSERT INTO news_updates (id, organization_id, trial_id, created_by, title, body)
VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
RETURNING id`,
		record.OrganizationID, record.TrialID, record.CreatedBy, record.Title, record.Body).Scan(&id)
	if err != nil {
		return content.NewsUpdate{}, fmt.Errorf("create news update: %w", err)
	}
	return r.GetNewsUpdate(ctx, id)
}

func (r *ContentRepository) GetNewsUpdate(ctx context.Context, id string) (content.NewsUpdate, error) {
	q := r.queryer()
	var rec content.NewsUpdate
	err := scanMeta(q.QueryRow(ctx, `
SELECT `+metaSelect+`, c.title, c.body
  FROM news_updates c
  JOIN clinical_trials t ON t.id = c.trial_id
 WHERE c.id = $1`, id), &rec.Meta, &rec.Title, &rec.Body)
	if errors.Is(err, pgx.ErrNoRows) {
		return content.NewsUpdate{}, content.ErrNotFound
	}
	if err != nil {
		return content.NewsUpdate{}, fmt.Errorf("get news update: %w", err)
	}
	return rec, nil
}

func (r *ContentRepository) ListNewsUpdates(ctx context.Context, scope content.ListScope) ([]content.NewsUpdate, error) {
	where, args := scopeArgs(scope)
	q := r.queryer()
	rows, err := q.Query(ctx, `
SELECT `+metaSelect+`, c.title, c.body
  FROM news_updates c
  JOIN clinical_trials t ON t.id = c.trial_id
 WHERE `+where+`
 ORDER BY c.created_at DESC, c.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list news updates: %w", err)
	}
	defer rows.Close()

	out := make([]content.NewsUpdate, 0)
	for rows.Next() {
		var rec content.NewsUpdate
		if err := scanMeta(rows, &rec.Meta, &rec.Title, &rec.Body); err != nil {
			return nil, fmt.Errorf("scan news update: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list news updates: %w", err)
	}
	return out, nil
}

func (r *ContentRepository) UpdateNewsUpdate(ctx context.Context, id string, params content.NewsUpdateUpdate) (content.NewsUpdate, error) {
	q := r.queryer()
	tag, err := q.Exec(ctx, `
UPDATE news_updates
   SET title = COALESCE($2, title),
       body  = COALESCE($3, body)
 WHERE id = $1`,
		id, params.Title, params.Body)
	if err != nil {
		return content.NewsUpdate{}, fmt.Errorf("update news update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return content.NewsUpdate{}, content.ErrNotFound
	}
	return r.GetNewsUpdate(ctx, id)
}

func (r *ContentRepository) DeleteNewsUpdate(ctx context.Context, id string) error {
	return r.deleteRow(ctx, `DELETE FROM news_updates WHERE id = $1`, id, "delete news update")
}

// Training materials

func (r *ContentRepository) CreateTrainingMaterial(ctx context.Context, record content.TrainingMaterial) (content.TrainingMaterial, error) {
	q := r.queryer()
	var id string
	err := q.QueryRow(ctx, `
INSERT INTO training_materials (id, organization_id, trial_id, created_by, title, description, storage_path)
VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6)
RETURNING id`,
		record.OrganizationID, record.TrialID, record.CreatedBy, record.Title, record.Description, record.StoragePath).Scan(&id)
	if err != nil {
		return content.TrainingMaterial{}, fmt.Errorf("create training material: %w", err)
	}
	return r.GetTrainingMaterial(ctx, id)
}

func (r *ContentRepository) GetTrainingMaterial(ctx context.Context, id string) (content.TrainingMaterial, error) {
	q := r.queryer()
	var rec content.TrainingMaterial
	err := scanMeta(q.QueryRow(ctx, `
SELECT `+metaSelect+`, c.title, c.description, c.storage_path
  FROM training_materials c
  JOIN clinical_trials t ON t.id = c.trial_id
 WHERE c.id = $1`, id), &rec.Meta, &rec.Title, &rec.Description, &rec.StoragePath)
	if errors.Is(err, pgx.ErrNoRows) {
		return content.TrainingMaterial{}, content.ErrNotFound
	}
	if err != nil {
		return content.TrainingMaterial{}, fmt.Errorf("get training material: %w", err)
	}
	return rec, nil
}

func (r *ContentRepository) ListTrainingMaterials(ctx context.Context, scope content.ListScope) ([]content.TrainingMaterial, error) {
	where, args := scopeArgs(scope)
	q := r.queryer()
	rows, err := q.Query(ctx, `
SELECT `+metaSelect+`, c.title, c.description, c.storage_path
  FROM training_materials c
  JOIN clinical_trials t ON t.id = c.trial_id
 WHERE `+where+`
 ORDER BY c.created_at DESC, c.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list training materials: %w", err)
	}
	defer rows.Close()

	out := make([]content.TrainingMaterial, 0)
	for rows.Next() {
		var rec content.TrainingMaterial
		if err := scanMeta(rows, &rec.Meta, &rec.Title, &rec.Description, &rec.StoragePath); err != nil {
			return nil, fmt.Errorf("scan training material: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list training materials: %w", err)
	}
	return out, nil
}

func (r *ContentRepository) UpdateTrainingMaterial(ctx context.Context, id string, params content.TrainingMaterialUpdate) (content.TrainingMaterial, error) {
	q := r.queryer()
	tag, err := q.Exec(ctx, `
UPDATE training_materials
   SET title        = COALESCE($2, title),
       description  = COALESCE($3, description),
       storage_path = COALESCE($4, storage_path)
 WHERE id = $1`,
		id, params.Title, params.Description, params.StoragePath)
	if err != nil {
		return content.TrainingMaterial{}, fmt.Errorf("update training material: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return content.TrainingMaterial{}, content.ErrNotFound
	}
	return r.GetTrainingMaterial(ctx, id)
}

func (r *ContentRepository) DeleteTrainingMaterial(ctx context.Context, id string) error {
	return r.deleteRow(ctx, `DELETE FROM training_materials WHERE id = $1`, id, "delete training material")
}

// Study protocols

func (r *ContentRepository) CreateStudyProtocol(ctx context.Context, record content.StudyProtocol) (content.StudyProtocol, error) {
	q := r.queryer()
	var id string
	err := q.QueryRow(ctx, `
INSERT INTO study_protocols (id, organization_id, trial_id, created_by, title, version, summary, storage_path)
VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7)
RETURNING id`,
		record.OrganizationID, record.TrialID, record.CreatedBy, record.Title, record.Version, record.Summary, record.StoragePath).Scan(&id)
	if err != nil {
		return content.StudyProtocol{}, fmt.Errorf("create study protocol: %w", err)
	}
	return r.GetStudyProtocol(ctx, id)
}

func (r *ContentRepository) GetStudyProtocol(ctx context.Context, id string) (content.StudyProtocol, error) {
	q := r.queryer()
	var rec content.StudyProtocol
	err := scanMeta(q.QueryRow(ctx, `
SELECT `+metaSelect+`, c.title, c.version, c.summary, c.storage_path
  FROM study_protocols c
  JOIN clinical_trials t ON t.id = c.trial_id
 WHERE c.id = $1`, id), &rec.Meta, &rec.Title, &rec.Version, &rec.Summary, &rec.StoragePath)
	if errors.Is(err, pgx.ErrNoRows) {
		return content.StudyProtocol{}, content.ErrNotFound
	}
	if err != nil {
		return content.StudyProtocol{}, fmt.Errorf("get study protocol: %w", err)
	}
	return rec, nil
}

func (r *ContentRepository) ListStudyProtocols(ctx context.Context, scope content.ListScope) ([]content.StudyProtocol, error) {
	where, args := scopeArgs(scope)
	q := r.queryer()
	rows, err := q.Query(ctx, `
SELECT `+metaSelect+`, c.title, c.version, c.summary, c.storage_path
  FROM study_protocols c
  JOIN clinical_trials t ON t.id = c.trial_id
 WHERE `+where+`
 ORDER BY c.created_at DESC, c.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list study protocols: %w", err)
	}
	defer rows.Close()

	out := make([]content.StudyProtocol, 0)
	for rows.Next() {
		var rec content.StudyProtocol
		if err := scanMeta(rows, &rec.Meta, &rec.Title, &rec.Version, &rec.Summary, &rec.StoragePath); err != nil {
			return nil, fmt.Errorf("scan study protocol: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list study protocols: %w", err)
	}
	return out, nil
}

func (r *ContentRepository) UpdateStudyProtocol(ctx context.Context, id string, params content.StudyProtocolUpdate) (content.StudyProtocol, error) {
	q := r.queryer()
	tag, err := q.Exec(ctx, `
UPDATE study_protocols
   SET title        = COALESCE($2, title),
       version      = COALESCE($3, version),
       summary      = COALESCE($4, summary),
       storage_path = COALESCE($5, storage_path)
 WHERE id = $1`,
		id, params.Title, params.Version, params.Summary, params.StoragePath)
	if err != nil {
		return content.StudyProtocol{}, fmt.Errorf("update study protocol: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return content.StudyProtocol{}, content.ErrNotFound
	}
	return r.GetStudyProtocol(ctx, id)
}

func (r *ContentRepository) DeleteStudyProtocol(ctx context.Context, id string) error {
	return r.deleteRow(ctx, `DELETE FROM study_protocols WHERE id = $1`, id, "delete study protocol")
}

func (r *ContentRepository) deleteRow(ctx context.Context, sql, id, op string) error {
	q := r.queryer()
	tag, err := q.Exec(ctx, sql, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return content.ErrNotFound
	}
	return nil
}
