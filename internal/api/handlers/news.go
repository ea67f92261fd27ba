package handlers

import (
	"net/http"

	"github.com/carebridge-health/portal/internal/api/respond"
	"github.com/carebridge-health/portal/internal/audit"
	"github.com/carebridge-health/portal/internal/domain/content"
)

type NewsHandler struct {
	Content *content.Service
	Audit   *audit.Logger
	Env     string
}

func NewNewsHandler(contentSvc *content.Service, auditLog *audit.Logger, env string) *NewsHandler {
	return &NewsHandler{Content: contentSvc, Audit: auditLog, Env: env}
}

func (h *NewsHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	items, err := h.Content.ListNewsUpdates(r.Context(), caller)
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	payload := make([]map[string]any, 0, len(items))
	for _, n := range items {
		payload = append(payload, newsPayload(n))
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"news": payload,
	})
}

type createNewsRequest struct {
	TrialID string `json:"trial_id" validate:"required"`
	Title   string `json:"title" validate:"required"`
	Body    string `json:"body"`
}

func (h *NewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	var req createNewsRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "Invalid request", err, h.Env)
		return
	}

	rec, err := h.Content.CreateNewsUpdate(r.Context(), caller, content.CreateNewsParams{
		TrialID: req.TrialID,
		Title:   req.Title,
		Body:    req.Body,
	})
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "news.create", caller.ProfileID, caller.OrganizationID, "news_update", rec.ID, "success", nil)
	respond.JSON(w, http.StatusCreated, map[string]any{
		"news_update": newsPayload(rec),
	})
}

type updateNewsRequest struct {
	Title *string `json:"title" validate:"omitempty,min=1"`
	Body  *string `json:"body"`
}

func (h *NewsHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	var req updateNewsRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "Invalid request", err, h.Env)
		return
	}

	id := pathParam(r, "id")
	rec, err := h.Content.UpdateNewsUpdate(r.Context(), caller, id, content.NewsUpdateUpdate{
		Title: req.Title,
		Body:  req.Body,
	})
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "news.update", caller.ProfileID, caller.OrganizationID, "news_update", id, "success", nil)
	respond.JSON(w, http.StatusOK, map[string]any{
		"news_update": newsPayload(rec),
	})
}

func (h *NewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	id := pathParam(r, "id")
	if err := h.Content.DeleteNewsUpdate(r.Context(), caller, id); err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "news.delete", caller.ProfileID, caller.OrganizationID, "news_update", id, "success", nil)
	respond.JSON(w, http.StatusOK, map[string]any{
		"message": "News update deleted",
	})
}
