package handlers

import (
	"net/http"

	"github.com/carebridge-health/portal/internal/api/respond"
	"github.com/carebridge-health/portal/internal/audit"
	"github.com/carebridge-health/portal/internal/domain/content"
)

type EnrollmentsHandler struct {
	Content *content.Service
	Audit   *audit.Logger
	Env     string
}

func NewEnrollmentsHandler(contentSvc *content.Service, auditLog *audit.Logger, env string) *EnrollmentsHandler {
	return &EnrollmentsHandler{Content: contentSvc, Audit: auditLog, Env: env}
}

func (h *EnrollmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	items, err := h.Content.ListEnrollments(r.Context(), caller)
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	payload := make([]map[string]any, 0, len(items))
	for _, e := range items {
		payload = append(payload, enrollmentPayload(e))
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"enrollments": payload,
	})
}

type createEnrollmentRequest struct {
	TrialID      string `json:"trial_id" validate:"required"`
	PatientCount int32  `json:"patient_count" validate:"gte=0"`
	Notes        string `json:"notes"`
}

func (h *EnrollmentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	var req createEnrollmentRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "Invalid request", err, h.Env)
		return
	}

	rec, err := h.Content.CreateEnrollment(r.Context(), caller, content.CreateEnrollmentParams{
		TrialID:      req.TrialID,
		PatientCount: req.PatientCount,
		Notes:        req.Notes,
	})
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "enrollments.create", caller.ProfileID, caller.OrganizationID, "enrollment", rec.ID, "success", nil)
	respond.JSON(w, http.StatusCreated, map[string]any{
		"enrollment": enrollmentPayload(rec),
	})
}

type updateEnrollmentRequest struct {
	PatientCount *int32  `json:"patient_count" validate:"omitempty,gte=0"`
	Notes        *string `json:"notes"`
}

func (h *EnrollmentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	var req updateEnrollmentRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "Invalid request", err, h.Env)
		return
	}

	id := pathParam(r, "id")
	rec, err := h.Content.UpdateEnrollment(r.Context(), caller, id, content.EnrollmentUpdate{
		PatientCount: req.PatientCount,
		Notes:        req.Notes,
	})
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "enrollments.update", caller.ProfileID, caller.OrganizationID, "enrollment", id, "success", nil)
	respond.JSON(w, http.StatusOK, map[string]any{
		"enrollment": enrollmentPayload(rec),
	})
}

func (h *EnrollmentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	id := pathParam(r, "id")
	if err := h.Content.DeleteEnrollment(r.Context(), caller, id); err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "enrollments.delete", caller.ProfileID, caller.OrganizationID, "enrollment", id, "success", nil)
	respond.JSON(w, http.StatusOK, map[string]any{
		"message": "Enrollment deleted",
	})
}
