package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CheckResult struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

// HealthChecker serves the liveness and readiness probes.
type HealthChecker struct {
	pool    *pgxpool.Pool
	version string
}

func NewHealthChecker(pool *pgxpool.Pool, version string) *HealthChecker {
	return &HealthChecker{pool: pool, version: version}
}

// Health is the liveness probe: the process is up and serving.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":    "ok",
			"version":   h.version,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// Readiness checks the database round trip. Load balancers pull the
// instance out of rotation on 503.
func (h *HealthChecker) Readiness() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		check := h.checkDatabase(ctx)

		status := "ready"
		statusCode := http.StatusOK
		if check.Status == "fail" {
			status = "unavailable"
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": status,
			"checks": map[string]CheckResult{"database": check},
		})
	}
}

func (h *HealthChecker) checkDatabase(ctx context.Context) CheckResult {
	if h.pool == nil {
		return CheckResult{Status: "fail", Message: "pool not configured"}
	}

	start := time.Now()
	if err := h.pool.Ping(ctx); err != nil {
		return CheckResult{Status: "fail", Message: err.Error(), LatencyMs: time.Since(start).Milliseconds()}
	}
	return CheckResult{Status: "pass", LatencyMs: time.Since(start).Milliseconds()}
}
