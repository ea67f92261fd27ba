package handlers

import (
	"net/http"

	"github.com/carebridge-health/portal/internal/api/respond"
	"github.com/carebridge-health/portal/internal/audit"
	"github.com/carebridge-health/portal/internal/domain/settings"
)

type SettingsHandler struct {
	Settings *settings.Service
	Audit    *audit.Logger
	Env      string
}

func NewSettingsHandler(settingsSvc *settings.Service, auditLog *audit.Logger, env string) *SettingsHandler {
	return &SettingsHandler{Settings: settingsSvc, Audit: auditLog, Env: env}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	values, err := h.Settings.Get(r.Context(), caller)
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"settings": values,
	})
}

type updateSettingsRequest struct {
	Settings map[string]string `json:"settings" validate:"required"`
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	var req updateSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "Invalid request", err, h.Env)
		return
	}

	values, err := h.Settings.Update(r.Context(), caller, req.Settings)
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "settings.update", caller.ProfileID, caller.OrganizationID, "settings", "", "success", nil)
	respond.JSON(w, http.StatusOK, map[string]any{
		"settings": values,
	})
}
