package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/carebridge-health/portal/internal/domain/documents"
	"github.com/jackc/pgx/v5"
)

var _ documents.Repository = (*DocumentRepository)(nil)

func (r *DocumentRepository) queryer() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

const documentColumns = `id, organization_id, bucket, object_key, file_name, size_bytes, content_type, uploaded_by, created_at`

func scanDocument(row pgx.Row) (documents.Document, error) {
	var d documents.Document
	err := row.Scan(
		&d.ID,
		&d.OrganizationID,
		&d.Bucket,
		&d.ObjectKey,
		&d.FileName,
		&d.SizeBytes,
		&d.ContentType,
		&d.UploadedBy,
		&d.CreatedAt,
	)
	return d, err
}

func (r *DocumentRepository) Create(ctx context.Context, params documents.CreateParams) (documents.Document, error) {
	q := r.queryer()
	d, err := scanDocument(q.QueryRow(ctx, `
INSERT INTO documents (id, organization_id, bucket, object_key, file_name, size_bytes, content_type, uploaded_by)
VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7)
RETURNING `+documentColumns,
		params.OrganizationID, params.Bucket, params.ObjectKey, params.FileName,
		params.SizeBytes, params.ContentType, params.UploadedBy))
	if err != nil {
		return documents.Document{}, fmt.Errorf("create document: %w", err)
	}
	return d, nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (documents.Document, error) {
	q := r.queryer()
	d, err := scanDocument(q.QueryRow(ctx, `
SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return documents.Document{}, documents.ErrNotFound
	}
	if err != nil {
		return documents.Document{}, fmt.Errorf("get document: %w", err)
	}
	return d, nil
}

func (r *DocumentRepository) ListByOrganization(ctx context.Context, orgID string) ([]documents.Document, error) {
	q := r.queryer()
	rows, err := q.Query(ctx, `
SELECT `+documentColumns+`
  FROM documents
 WHERE organization_id = $1
 ORDER BY created_at DESC, id`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]documents.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return out, nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	q := r.queryer()
	tag, err := q.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return documents.ErrNotFound
	}
	return nil
}

func (r *DocumentRepository) CountByOrganization(ctx context.Context, orgID string) (int64, error) {
	q := r.queryer()
	var n int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM documents WHERE organization_id = $1`, orgID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}
