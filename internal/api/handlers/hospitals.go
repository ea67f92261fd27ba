package handlers

import (
	"net/http"

	"github.com/carebridge-health/portal/internal/api/respond"
	"github.com/carebridge-health/portal/internal/audit"
	"github.com/carebridge-health/portal/internal/domain/hospitals"
)

type HospitalsHandler struct {
	Hospitals *hospitals.Service
	Audit     *audit.Logger
	Env       string
}

func NewHospitalsHandler(hospitalsSvc *hospitals.Service, auditLog *audit.Logger, env string) *HospitalsHandler {
	return &HospitalsHandler{Hospitals: hospitalsSvc, Audit: auditLog, Env: env}
}

func (h *HospitalsHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	items, err := h.Hospitals.Leaderboard(r.Context(), caller)
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	payload := make([]map[string]any, 0, len(items))
	for _, hosp := range items {
		payload = append(payload, hospitalPayload(hosp))
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"hospitals": payload,
	})
}

type createHospitalRequest struct {
	Name            string `json:"name" validate:"required"`
	City            string `json:"city"`
	EnrollmentCount int32  `json:"enrollment_count" validate:"gte=0"`
}

func (h *HospitalsHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	var req createHospitalRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "Invalid request", err, h.Env)
		return
	}

	hosp, err := h.Hospitals.Create(r.Context(), caller, hospitals.CreateParams{
		Name:            req.Name,
		City:            req.City,
		EnrollmentCount: req.EnrollmentCount,
	})
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "hospitals.create", caller.ProfileID, caller.OrganizationID, "hospital", hosp.ID, "success", nil)
	respond.JSON(w, http.StatusCreated, map[string]any{
		"hospital": hospitalPayload(hosp),
	})
}

type updateHospitalRequest struct {
	Name            *string `json:"name" validate:"omitempty,min=1"`
	City            *string `json:"city"`
	EnrollmentCount *int32  `json:"enrollment_count" validate:"omitempty,gte=0"`
}

func (h *HospitalsHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	var req updateHospitalRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "Invalid request", err, h.Env)
		return
	}

	id := pathParam(r, "id")
	hosp, err := h.Hospitals.Update(r.Context(), caller, id, hospitals.UpdateParams{
		Name:            req.Name,
		City:            req.City,
		EnrollmentCount: req.EnrollmentCount,
	})
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "hospitals.update", caller.ProfileID, caller.OrganizationID, "hospital", id, "success", nil)
	respond.JSON(w, http.StatusOK, map[string]any{
		"hospital": hospitalPayload(hosp),
	})
}

func (h *HospitalsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	id := pathParam(r, "id")
	if err := h.Hospitals.Delete(r.Context(), caller, id); err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "hospitals.delete", caller.ProfileID, caller.OrganizationID, "hospital", id, "success", nil)
	respond.JSON(w, http.StatusOK, map[string]any{
		"message": "Hospital deleted",
	})
}
