package handlers

import (
	"net/http"
	"path"
	"strings"

	"github.com/carebridge-health/portal/internal/api/respond"
	"github.com/carebridge-health/portal/internal/audit"
	"github.com/carebridge-health/portal/internal/domain/documents"
	"github.com/oklog/ulid/v2"
)

// maxUploadBytes caps a single document upload.
const maxUploadBytes = 25 << 20

type DocumentsHandler struct {
	Documents *documents.Service
	Audit     *audit.Logger
	Env       string
}

func NewDocumentsHandler(documentsSvc *documents.Service, auditLog *audit.Logger, env string) *DocumentsHandler {
	return &DocumentsHandler{Documents: documentsSvc, Audit: auditLog, Env: env}
}

func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	items, err := h.Documents.List(r.Context(), caller)
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	payload := make([]map[string]any, 0, len(items))
	for _, d := range items {
		payload = append(payload, documentPayload(d))
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"documents": payload,
	})
}

// Upload accepts multipart form data with a single "file" part. Object
// keys are org-prefixed ULIDs so uploads never collide and listings stay
// cheap to scope.
func (h *DocumentsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "Invalid upload", err, h.Env)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, "Missing file field", err, h.Env)
		return
	}
	defer file.Close()

	fileName := path.Base(header.Filename)
	if fileName == "" || fileName == "." || fileName == "/" {
		respond.Error(w, r, http.StatusBadRequest, "Invalid file name", nil, h.Env)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	objectKey := caller.OrganizationID + "/" + strings.ToLower(ulid.Make().String()) + path.Ext(fileName)

	doc, err := h.Documents.Upload(r.Context(), caller, documents.UploadParams{
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   header.Size,
		Body:        file,
		ObjectKey:   objectKey,
	})
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "documents.upload", caller.ProfileID, caller.OrganizationID, "document", doc.ID, "success",
		map[string]string{"file_name": fileName})
	respond.JSON(w, http.StatusCreated, map[string]any{
		"document": documentPayload(doc),
	})
}

func (h *DocumentsHandler) DownloadURL(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	id := pathParam(r, "id")
	url, err := h.Documents.DownloadURL(r.Context(), caller, id)
	if err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"url": url,
	})
}

func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r, h.Env)
	if !ok {
		return
	}

	id := pathParam(r, "id")
	if err := h.Documents.Delete(r.Context(), caller, id); err != nil {
		writeServiceError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, "documents.delete", caller.ProfileID, caller.OrganizationID, "document", id, "success", nil)
	respond.JSON(w, http.StatusOK, map[string]any{
		"message": "Document deleted",
	})
}
