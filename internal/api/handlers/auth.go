package handlers

import (
	"net/http"

	"github.com/carebridge-health/portal/internal/api/respond"
	"github.com/carebridge-health/portal/internal/audit"
	"github.com/carebridge-health/portal/internal/auth"
	"github.com/carebridge-health/portal/internal/domain/users"
)

type AuthHandler struct {
	Users  *users.Service
	Tokens *auth.TokenManager
	Audit  *audit.Logger
	Env    string
}

func NewAuthHandler(usersSvc *users.Service, tokens *auth.TokenManager, auditLog *audit.Logger, env string) *AuthHandler {
	return &AuthHandler{Users: usersSvc, Tokens: tokens, Audit: auditLog, Env: env}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "Invalid request", err, h.Env)
		return
	}

	profile, err := h.Users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.Audit.LogFromRequest(r, "auth.login", req.Email, "", "profile", "", "failure", nil)
		writeServiceError(w, r, err, h.Env)
		return
	}

	token, err := h.Tokens.Generate(profile.ID, profile.Email, profile.OrganizationID, profile.Role)
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "auth.login", profile.Email, profile.OrganizationID, "profile", profile.ID, "success", nil)
	respond.JSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_in": int64(h.Tokens.Expiry().Seconds()),
		"user":       profilePayload(profile),
	})
}

type registerRequest struct {
	OrganizationID string `json:"organization_id" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=8"`
	FullName       string `json:"full_name" validate:"required"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "Invalid request", err, h.Env)
		return
	}

	profile, err := h.Users.Register(r.Context(), users.RegisterParams{
		OrganizationID: req.OrganizationID,
		Email:          req.Email,
		Password:       req.Password,
		FullName:       req.FullName,
	})
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "auth.register", profile.Email, profile.OrganizationID, "profile", profile.ID, "success", nil)
	respond.JSON(w, http.StatusCreated, map[string]any{
		"user": profilePayload(profile),
	})
}

// Me returns the caller's own profile, resolved fresh from storage so
// deactivated accounts see their real state rather than stale claims.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	profile, err := h.Users.Get(r.Context(), caller, caller.ProfileID)
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"user": profilePayload(profile),
	})
}

// Logout is a bookkeeping endpoint. Tokens are stateless, so the server
// only records the event; the client discards the token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if caller, ok := identity(r); ok {
		h.Audit.LogFromRequest(r, "auth.logout", caller.ProfileID, caller.OrganizationID, "profile", caller.ProfileID, "success", nil)
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"message": "Logged out",
	})
}
