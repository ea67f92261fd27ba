package postgres

import (
	"context"
	"fmt"

	"github.com/carebridge-health/portal/internal/domain/analytics"
)

var _ analytics.DataSource = (*AnalyticsRepository)(nil)

func (r *AnalyticsRepository) queryer() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

// Summary runs the dashboard aggregate in one round trip per block.
// A nil trialIDs slice means the caller sees the whole organization;
// a non-nil slice restricts trial-scoped counts to those trials.
func (r *AnalyticsRepository) Summary(ctx context.Context, orgID string, trialIDs []string) (analytics.Summary, error) {
	q := r.queryer()
	var s analytics.Summary

	err := q.QueryRow(ctx, `
SELECT
  (SELECT COUNT(*) FROM clinical_trials
    WHERE organization_id = $1 AND ($2::uuid[] IS NULL OR id = ANY($2))),
  (SELECT COUNT(*) FROM profiles WHERE organization_id = $1),
  (SELECT COUNT(*) FROM enrollments
    WHERE organization_id = $1 AND ($2::uuid[] IS NULL OR trial_id = ANY($2))),
  (SELECT COUNT(*) FROM documents WHERE organization_id = $1),
  (SELECT COALESCE(SUM(patient_count), 0) FROM enrollments
    WHERE organization_id = $1 AND ($2::uuid[] IS NULL OR trial_id = ANY($2)))`,
		orgID, trialIDs).Scan(&s.Trials, &s.Users, &s.Enrollments, &s.Documents, &s.PatientTotal)
	if err != nil {
		return analytics.Summary{}, fmt.Errorf("analytics summary: %w", err)
	}

	rows, err := q.Query(ctx, `
SELECT t.id, t.name, COALESCE(SUM(e.patient_count), 0)
  FROM clinical_trials t
  LEFT JOIN enrollments e ON e.trial_id = t.id
 WHERE t.organization_id = $1 AND ($2::uuid[] IS NULL OR t.id = ANY($2))
 GROUP BY t.id, t.name
 ORDER BY t.name`, orgID, trialIDs)
	if err != nil {
		return analytics.Summary{}, fmt.Errorf("analytics per trial: %w", err)
	}
	defer rows.Close()

	s.PerTrial = make([]analytics.TrialStat, 0)
	for rows.Next() {
		var st analytics.TrialStat
		if err := rows.Scan(&st.TrialID, &st.TrialName, &st.PatientCount); err != nil {
			return analytics.Summary{}, fmt.Errorf("scan trial stat: %w", err)
		}
		s.PerTrial = append(s.PerTrial, st)
	}
	if err := rows.Err(); err != nil {
		return analytics.Summary{}, fmt.Errorf("analytics per trial: %w", err)
	}
	return s, nil
}
