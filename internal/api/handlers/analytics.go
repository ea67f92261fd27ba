package handlers

import (
	"net/http"

	"github.com/carebridge-health/portal/internal/api/respond"
	"github.com/carebridge-health/portal/internal/domain/analytics"
)

type AnalyticsHandler struct {
	Analytics *analytics.Service
	Env       string
}

func NewAnalyticsHandler(analyticsSvc *analytics.Service, env string) *AnalyticsHandler {
	return &AnalyticsHandler{Analytics: analyticsSvc, Env: env}
}

func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	summary, err := h.Analytics.Summary(r.Context(), caller)
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"summary": summary,
	})
}
