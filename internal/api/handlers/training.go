package handlers

import (
	"net/http"

	"github.com/carebridge-health/portal/internal/api/respond"
	"github.com/carebridge-health/portal/internal/audit"
	"github.com/carebridge-health/portal/internal/domain/content"
)

type TrainingHandler struct {
	Content *content.Service
	Audit   *audit.Logger
	Env     string
}

func NewTrainingHandler(contentSvc *content.Service, auditLog *audit.Logger, env string) *TrainingHandler {
	return &TrainingHandler{Content: contentSvc, Audit: auditLog, Env: env}
}

func (h *TrainingHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	items, err := h.Content.ListTrainingMaterials(r.Context(), caller)
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	payload := make([]map[string]any, 0, len(items))
	for _, m := range items {
		payload = append(payload, trainingPayload(m))
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"training_materials": payload,
	})
}

type createTrainingRequest struct {
	TrialID     string `json:"trial_id" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	StoragePath string `json:"storage_path"`
}

func (h *TrainingHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	var req createTrainingRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "Invalid request", err, h.Env)
		return
	}

	rec, err := h.Content.CreateTrainingMaterial(r.Context(), caller, content.CreateTrainingMaterialParams{
		TrialID:     req.TrialID,
		Title:       req.Title,
		Description: req.Description,
		StoragePath: req.StoragePath,
	})
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "training.create", caller.ProfileID, caller.OrganizationID, "training_material", rec.ID, "success", nil)
	respond.JSON(w, http.StatusCreated, map[string]any{
		"training_material": trainingPayload(rec),
	})
}

type updateTrainingRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1"`
	Description *string `json:"description"`
	StoragePath *string `json:"storage_path"`
}

func (h *TrainingHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	var req updateTrainingRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "Invalid request", err, h.Env)
		return
	}

	id := pathParam(r, "id")
	rec, err := h.Content.UpdateTrainingMaterial(r.Context(), caller, id, content.TrainingMaterialUpdate{
		Title:       req.Title,
		Description: req.Description,
		StoragePath: req.StoragePath,
	})
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "training.update", caller.ProfileID, caller.OrganizationID, "training_material", id, "success", nil)
	respond.JSON(w, http.StatusOK, map[string]any{
		"training_material": trainingPayload(rec),
	})
}

func (h *TrainingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	id := pathParam(r, "id")
	if err := h.Content.DeleteTrainingMaterial(r.Context(), caller, id); err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "training.delete", caller.ProfileID, caller.OrganizationID, "training_material", id, "success", nil)
	respond.JSON(w, http.StatusOK, map[string]any{
		"message": "Training material deleted",
	})
}
