package handlers

import (
	"net/http"

	"github.com/carebridge-health/portal/internal/api/respond"
	"github.com/carebridge-health/portal/internal/audit"
	"github.com/carebridge-health/portal/internal/domain/trials"
)

type TrialsHandler struct {
	Trials *trials.Service
	Audit  *audit.Logger
	Env    string
}

func NewTrialsHandler(trialsSvc *trials.Service, auditLog *audit.Logger, env string) *TrialsHandler {
	return &TrialsHandler{Trials: trialsSvc, Audit: auditLog, Env: env}
}

func (h *TrialsHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	items, err := h.Trials.List(r.Context(), caller)
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	payload := make([]map[string]any, 0, len(items))
	for _, t := range items {
		payload = append(payload, trialPayload(t))
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"trials": payload,
	})
}

func (h *TrialsHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	trial, err := h.Trials.Get(r.Context(), caller, pathParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"trial": trialPayload(trial),
	})
}

type createTrialRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

func (h *TrialsHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	var req createTrialRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "Invalid request", err, h.Env)
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	trial, err := h.Trials.Create(r.Context(), caller, trials.CreateTrialParams{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    isActive,
	})
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "trials.create", caller.ProfileID, caller.OrganizationID, "trial", trial.ID, "success", nil)
	respond.JSON(w, http.StatusCreated, map[string]any{
		"trial": trialPayload(trial),
	})
}

type updateTrialRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

func (h *TrialsHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	var req updateTrialRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "Invalid request", err, h.Env)
		return
	}

	id := pathParam(r, "id")
	trial, err := h.Trials.Update(r.Context(), caller, id, trials.UpdateParams{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "trials.update", caller.ProfileID, caller.OrganizationID, "trial", id, "success", nil)
	respond.JSON(w, http.StatusOK, map[string]any{
		"trial": trialPayload(trial),
	})
}

func (h *TrialsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	id := pathParam(r, "id")
	if err := h.Trials.Delete(r.Context(), caller, id); err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "trials.delete", caller.ProfileID, caller.OrganizationID, "trial", id, "success", nil)
	respond.JSON(w, http.StatusOK, map[string]any{
		"message": "Trial deleted",
	})
}

func (h *TrialsHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	items, err := h.Trials.ListAssignments(r.Context(), caller, pathParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	payload := make([]map[string]any, 0, len(items))
	for _, a := range items {
		payload = append(payload, assignmentPayload(a))
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"assignments": payload,
	})
}

type assignRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

func (h *TrialsHandler) Assign(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	var req assignRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "Invalid request", err, h.Env)
		return
	}

	trialID := pathParam(r, "id")
	assignment, err := h.Trials.Assign(r.Context(), caller, trialID, req.UserID)
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "trials.assign", caller.ProfileID, caller.OrganizationID, "assignment", assignment.ID, "success",
		map[string]string{"trial_id": trialID, "user_id": req.UserID})
	respond.JSON(w, http.StatusCreated, map[string]any{
		"assignment": assignmentPayload(assignment),
	})
}

func (h *TrialsHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	trialID := pathParam(r, "id")
	userID := pathParam(r, "userID")
	if err := h.Trials.Unassign(r.Context(), caller, trialID, userID); err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "trials.unassign", caller.ProfileID, caller.OrganizationID, "assignment", "", "success",
		map[string]string{"trial_id": trialID, "user_id": userID})
	respond.JSON(w, http.StatusOK, map[string]any{
		"message": "Assignment removed",
	})
}
