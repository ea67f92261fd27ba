package postgres

import (
	"context"
	"fmt"

	"github.com/carebridge-health/portal/internal/domain/settings"
)

var _ settings.Repository = (*SettingsRepository)(nil)

func (r *SettingsRepository) queryer() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

func (r *SettingsRepository) GetAll(ctx context.Context, orgID string) (map[string]string, error) {
	q := r.queryer()
	rows, err := q.Query(ctx, `
SELECT key, value FROM portal_settings WHERE organization_id = $1 ORDER BY key`, orgID)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return out, nil
}

func (r *SettingsRepository) Upsert(ctx context.Context, orgID string, values map[string]string) error {
	q := r.queryer()
	for k, v := range values {
		_, err := q.Exec(ctx, `
INSERT INTO portal_settings (id, organization_id, key, value)
VALUES (gen_random_uuid(), $1, $2, $3)
ON CONFLICT (organization_id, key) DO UPDATE SET value = EXCLUDED.value`,
			orgID, k, v)
		if err != nil {
			return fmt.Errorf("upsert setting %q: %w", k, err)
		}
	}
	return nil
}

func (r *SettingsRepository) Delete(ctx context.Context, orgID, key string) error {
	q := r.queryer()
	if _, err := q.Exec(ctx, `
DELETE FROM portal_settings WHERE organization_id = $1 AND key = $2`, orgID, key); err != nil {
		return fmt.Errorf("delete setting %q: %w", key, err)
	}
	return nil
}
