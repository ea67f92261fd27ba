package handlers

import (
	"net/http"

	"github.com/carebridge-health/portal/internal/api/respond"
	"github.com/carebridge-health/portal/internal/audit"
	"github.com/carebridge-health/portal/internal/domain/content"
)

type ProtocolsHandler struct {
	Content *content.Service
	Audit   *audit.Logger
	Env     string
}

func NewProtocolsHandler(contentSvc *content.Service, auditLog *audit.Logger, env string) *ProtocolsHandler {
	return &ProtocolsHandler{Content: contentSvc, Audit: auditLog, Env: env}
}

func (h *ProtocolsHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	items, err := h.Content.ListStudyProtocols(r.Context(), caller)
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	payload := make([]map[string]any, 0, len(items))
	for _, p := range items {
		payload = append(payload, protocolPayload(p))
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"protocols": payload,
	})
}

type createProtocolRequest struct {
	TrialID     string `json:"trial_id" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Version     string `json:"version"`
	Summary     string `json:"summary"`
	StoragePath string `json:"storage_path"`
}

func (h *ProtocolsHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	var req createProtocolRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "Invalid request", err, h.Env)
		return
	}

	rec, err := h.Content.CreateStudyProtocol(r.Context(), caller, content.CreateStudyProtocolParams{
		TrialID:     req.TrialID,
		Title:       req.Title,
		Version:     req.Version,
		Summary:     req.Summary,
		StoragePath: req.StoragePath,
	})
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "protocols.create", caller.ProfileID, caller.OrganizationID, "study_protocol", rec.ID, "success", nil)
	respond.JSON(w, http.StatusCreated, map[string]any{
		"protocol": protocolPayload(rec),
	})
}

type updateProtocolRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1"`
	Version     *string `json:"version"`
	Summary     *string `json:"summary"`
	StoragePath *string `json:"storage_path"`
}

func (h *ProtocolsHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	var req updateProtocolRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "Invalid request", err, h.Env)
		return
	}

	id := pathParam(r, "id")
	rec, err := h.Content.UpdateStudyProtocol(r.Context(), caller, id, content.StudyProtocolUpdate{
		Title:       req.Title,
		Version:     req.Version,
		Summary:     req.Summary,
		StoragePath: req.StoragePath,
	})
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "protocols.update", caller.ProfileID, caller.OrganizationID, "study_protocol", id, "success", nil)
	respond.JSON(w, http.StatusOK, map[string]any{
		"protocol": protocolPayload(rec),
	})
}

func (h *ProtocolsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	id := pathParam(r, "id")
	if err := h.Content.DeleteStudyProtocol(r.Context(), caller, id); err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "protocols.delete", caller.ProfileID, caller.OrganizationID, "study_protocol", id, "success", nil)
	respond.JSON(w, http.StatusOK, map[string]any{
		"message": "Study protocol deleted",
	})
}
