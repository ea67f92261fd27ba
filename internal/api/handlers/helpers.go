package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/carebridge-health/portal/internal/api/middleware"
	"github.com/carebridge-health/portal/internal/api/respond"
	"github.com/carebridge-health/portal/internal/auth"
	"github.com/carebridge-health/portal/internal/domain/authz"
	"github.com/carebridge-health/portal/internal/domain/content"
	"github.com/carebridge-health/portal/internal/domain/documents"
	"github.com/carebridge-health/portal/internal/domain/hospitals"
	"github.com/carebridge-health/portal/internal/domain/trials"
	"github.com/carebridge-health/portal/internal/domain/users"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func pathParam(r *http.Request, key string) string {
	return strings.TrimSpace(r.PathValue(key))
}

// decodeJSON reads and validates a request body. Unknown fields are
// rejected so typos surface as 400s instead of silently dropped input.
func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		return err
	}
	return nil
}

func identity(r *http.Request) (authz.Identity, bool) {
	return middleware.IdentityFromContext(r.Context())
}

// requireIdentity writes the 401 itself so handlers only need the early
// return.
func requireIdentity(w http.ResponseWriter, r *http.Request, env string) (authz.Identity, bool) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respond.Error(w, r, http.StatusUnauthorized, "Invalid or expired token", nil, env)
	}
	return caller, ok
}

// writeServiceError maps domain errors onto HTTP statuses. Authorization
// failures keep their message; unexpected errors collapse to a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, env string) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		respond.Error(w, r, http.StatusUnauthorized, "Invalid email or password", err, env)
	case errors.Is(err, authz.ErrSelfDelete):
		respond.Error(w, r, http.StatusBadRequest, err.Error(), err, env)
	case errors.Is(err, authz.ErrNotOwnProfile),
		errors.Is(err, authz.ErrProfileViewForbidden),
		errors.Is(err, authz.ErrAdminRequired),
		errors.Is(err, authz.ErrCrossOrganization),
		errors.Is(err, authz.ErrRoleChangeForbidden),
		errors.Is(err, authz.ErrTrialNotAssigned),
		errors.Is(err, documents.ErrDeleteForbidden):
		respond.Error(w, r, http.StatusForbidden, err.Error(), err, env)
	case errors.Is(err, users.ErrNotFound),
		errors.Is(err, users.ErrOrganizationNotFound),
		errors.Is(err, trials.ErrNotFound),
		errors.Is(err, trials.ErrAssignmentGone),
		errors.Is(err, content.ErrNotFound),
		errors.Is(err, hospitals.ErrNotFound),
		errors.Is(err, documents.ErrNotFound):
		respond.Error(w, r, http.StatusNotFound, err.Error(), err, env)
	case errors.Is(err, users.ErrEmailTaken),
		errors.Is(err, trials.ErrAlreadyAssigned):
		respond.Error(w, r, http.StatusConflict, err.Error(), err, env)
	case errors.Is(err, hospitals.ErrReadOnlySource):
		respond.Error(w, r, http.StatusServiceUnavailable, err.Error(), err, env)
	default:
		respond.Error(w, r, http.StatusInternalServerError, "Internal server error", err, env)
	}
}

func timePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

// Payload builders. Handlers never hand domain structs straight to the
// encoder; the wire shape stays stable even when internals move.

func profilePayload(p users.Profile) map[string]any {
	return map[string]any{
		"id":                p.ID,
		"organization_id":   p.OrganizationID,
		"organization_name": p.OrganizationName,
		"email":             p.Email,
		"full_name":         p.FullName,
		"role":              p.Role,
		"is_active":         p.IsActive,
		"last_login_at":     timePtr(p.LastLoginAt),
		"created_at":        p.CreatedAt.Format(time.RFC3339),
		"updated_at":        p.UpdatedAt.Format(time.RFC3339),
	}
}

func trialPayload(t trials.Trial) map[string]any {
	return map[string]any{
		"id":              t.ID,
		"organization_id": t.OrganizationID,
		"name":            t.Name,
		"description":     t.Description,
		"is_active":       t.IsActive,
		"created_at":      t.CreatedAt.Format(time.RFC3339),
		"updated_at":      t.UpdatedAt.Format(time.RFC3339),
	}
}

func assignmentPayload(a trials.Assignment) map[string]any {
	return map[string]any{
		"id":              a.ID,
		"user_id":         a.UserID,
		"user_email":      a.UserEmail,
		"user_full_name":  a.UserFullName,
		"trial_id":        a.TrialID,
		"organization_id": a.OrganizationID,
		"created_at":      a.CreatedAt.Format(time.RFC3339),
	}
}

func metaFields(m content.Meta) map[string]any {
	return map[string]any{
		"id":              m.ID,
		"organization_id": m.OrganizationID,
		"trial_id":        m.TrialID,
		"trial_name":      m.TrialName,
		"created_by":      m.CreatedBy,
		"created_at":      m.CreatedAt.Format(time.RFC3339),
		"updated_at":      m.UpdatedAt.Format(time.RFC3339),
	}
}

func enrollmentPayload(e content.Enrollment) map[string]any {
	payload := metaFields(e.Meta)
	payload["patient_count"] = e.PatientCount
	payload["notes"] = e.Notes
	return payload
}

func newsPayload(n content.NewsUpdate) map[string]any {
	payload := metaFields(n.Meta)
	payload["title"] = n.Title
	payload["body"] = n.Body
	return payload
}

func trainingPayload(m content.TrainingMaterial) map[string]any {
	payload := metaFields(m.Meta)
	payload["title"] = m.Title
	payload["description"] = m.Description
	payload["storage_path"] = m.StoragePath
	return payload
}

func protocolPayload(p content.StudyProtocol) map[string]any {
	payload := metaFields(p.Meta)
	payload["title"] = p.Title
	payload["version"] = p.Version
	payload["summary"] = p.Summary
	payload["storage_path"] = p.StoragePath
	return payload
}

func hospitalPayload(h hospitals.Hospital) map[string]any {
	return map[string]any{
		"id":               h.ID,
		"organization_id":  h.OrganizationID,
		"name":             h.Name,
		"city":             h.City,
		"enrollment_count": h.EnrollmentCount,
		"created_at":       h.CreatedAt.Format(time.RFC3339),
		"updated_at":       h.UpdatedAt.Format(time.RFC3339),
	}
}

func documentPayload(d documents.Document) map[string]any {
	return map[string]any{
		"id":              d.ID,
		"organization_id": d.OrganizationID,
		"file_name":       d.FileName,
		"size_bytes":      d.SizeBytes,
		"content_type":    d.ContentType,
		"uploaded_by":     d.UploadedBy,
		"created_at":      d.CreatedAt.Format(time.RFC3339),
	}
}
