package handlers

import (
	"net/http"
	"strconv"

	"github.com/carebridge-health/portal/internal/api/respond"
	"github.com/carebridge-health/portal/internal/audit"
	"github.com/carebridge-health/portal/internal/domain/users"
)

type UsersHandler struct {
	Users *users.Service
	Audit *audit.Logger
	Env   string
}

func NewUsersHandler(usersSvc *users.Service, auditLog *audit.Logger, env string) *UsersHandler {
	return &UsersHandler{Users: usersSvc, Audit: auditLog, Env: env}
}

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=admin user doctor"`
	Password string `json:"password" validate:"omitempty,min=8"`
}

func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "Invalid request", err, h.Env)
		return
	}

	profile, err := h.Users.Create(r.Context(), caller, users.CreateUserParams{
		Email:    req.Email,
		FullName: req.FullName,
		Role:     req.Role,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "users.create", caller.ProfileID, caller.OrganizationID, "profile", profile.ID, "success", nil)
	respond.JSON(w, http.StatusCreated, map[string]any{
		"user": profilePayload(profile),
	})
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	filters := users.ListFilters{}
	query := r.URL.Query()
	if role := query.Get("role"); role != "" {
		filters.Role = &role
	}
	if active := query.Get("is_active"); active != "" {
		parsed, err := strconv.ParseBool(active)
		if err != nil {
			respond.Error(w, r, http.StatusBadRequest, "Invalid request", err, h.Env)
			return
		}
		filters.IsActive = &parsed
	}
	if limit := query.Get("limit"); limit != "" {
		parsed, err := strconv.ParseInt(limit, 10, 32)
		if err != nil || parsed < 0 {
			respond.Error(w, r, http.StatusBadRequest, "Invalid request", err, h.Env)
			return
		}
		filters.Limit = int32(parsed)
	}
	if offset := query.Get("offset"); offset != "" {
		parsed, err := strconv.ParseInt(offset, 10, 32)
		if err != nil || parsed < 0 {
			respond.Error(w, r, http.StatusBadRequest, "Invalid request", err, h.Env)
			return
		}
		filters.Offset = int32(parsed)
	}

	profiles, total, err := h.Users.List(r.Context(), caller, filters)
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	items := make([]map[string]any, 0, len(profiles))
	for _, p := range profiles {
		items = append(items, profilePayload(p))
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"users": items,
		"total": total,
	})
}

func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	profile, err := h.Users.Get(r.Context(), caller, pathParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"user": profilePayload(profile),
	})
}

type updateUserRequest struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	FullName *string `json:"full_name" validate:"omitempty,min=1"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin user doctor"`
	IsActive *bool   `json:"is_active"`
}

func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "Invalid request", err, h.Env)
		return
	}

	id := pathParam(r, "id")
	profile, err := h.Users.Update(r.Context(), caller, id, users.UpdateParams{
		Email:    req.Email,
		FullName: req.FullName,
		Role:     req.Role,
		IsActive: req.IsActive,
	})
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "users.update", caller.ProfileID, caller.OrganizationID, "profile", id, "success", nil)
	respond.JSON(w, http.StatusOK, map[string]any{
		"user": profilePayload(profile),
	})
}

func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	id := pathParam(r, "id")
	if err := h.Users.Delete(r.Context(), caller, id); err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "users.delete", caller.ProfileID, caller.OrganizationID, "profile", id, "success", nil)
	respond.JSON(w, http.StatusOK, map[string]any{
		"message": "User deleted",
	})
}
