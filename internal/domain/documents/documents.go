// Package documents manages uploaded files: metadata rows in Postgres,
// bytes in object storage.
package documents

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/carebridge-health/portal/internal/domain/authz"
)

var (
	ErrNotFound = errors.New("document not found")

	// ErrDeleteForbidden: only the uploader or an organization admin may
	// remove a document.
	ErrDeleteForbidden = errors.New("only the uploader or an admin can delete this document")
)

type Document struct {
	ID             string
	OrganizationID string
	Bucket         string
	ObjectKey      string
	FileName       string
	SizeBytes      int64
	ContentType    string
	UploadedBy     string
	CreatedAt      time.Time
}

type CreateParams struct {
	OrganizationID string
	Bucket         string
	ObjectKey      string
	FileName       string
	SizeBytes      int64
	ContentType    string
	UploadedBy     string
}

type Repository interface {
	Create(ctx context.Context, params CreateParams) (Document, error)
	GetByID(ctx context.Context, id string) (Document, error)
	ListByOrganization(ctx context.Context, orgID string) ([]Document, error)
	Delete(ctx context.Context, id string) error
	CountByOrganization(ctx context.Context, orgID string) (int64, error)
}

// ObjectStore is the object-storage side: MinIO in production.
type ObjectStore interface {
	Put(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, objectKey, fileName string, expiry time.Duration) (string, error)
	Remove(ctx context.Context, objectKey string) error
	Bucket() string
}

type Service struct {
	repo   Repository
	store  ObjectStore
	policy *authz.Evaluator
}

func NewService(repo Repository, store ObjectStore, policy *authz.Evaluator) *Service {
	return &Service{repo: repo, store: store, policy: policy}
}

type UploadParams struct {
	FileName    string
	ContentType string
	SizeBytes   int64
	Body        io.Reader
	ObjectKey   string // assigned by the handler, unique per upload
}

// Upload stores the bytes first; the metadata insert only happens for
// objects that actually made it to storage.
func (s *Service) Upload(ctx context.Context, caller authz.Identity, params UploadParams) (Document, error) {
	if err := s.store.Put(ctx, params.ObjectKey, params.Body, params.SizeBytes, params.ContentType); err != nil {
		return Document{}, err
	}

	doc, err := s.repo.Create(ctx, CreateParams{
		OrganizationID: caller.OrganizationID,
		Bucket:         s.store.Bucket(),
		ObjectKey:      params.ObjectKey,
		FileName:       params.FileName,
		SizeBytes:      params.SizeBytes,
		ContentType:    params.ContentType,
		UploadedBy:     caller.ProfileID,
	})
	if err != nil {
		// Best effort; an orphaned object is preferable to a phantom row.
		_ = s.store.Remove(ctx, params.ObjectKey)
		return Document{}, err
	}
	return doc, nil
}

func (s *Service) List(ctx context.Context, caller authz.Identity) ([]Document, error) {
	return s.repo.ListByOrganization(ctx, caller.OrganizationID)
}

// DownloadURL returns a presigned link valid for a short window.
func (s *Service) DownloadURL(ctx context.Context, caller authz.Identity, id string) (string, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if err := s.policy.RequireSameOrganization(caller, doc.OrganizationID); err != nil {
		return "", err
	}
	return s.store.PresignGet(ctx, doc.ObjectKey, doc.FileName, 15*time.Minute)
}

func (s *Service) Delete(ctx context.Context, caller authz.Identity, id string) error {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.RequireSameOrganization(caller, doc.OrganizationID); err != nil {
		return err
	}
	if !caller.IsAdmin() && caller.ProfileID != doc.UploadedBy {
		return ErrDeleteForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	// Metadata is authoritative; a failed object removal is logged by the
	// caller but does not resurrect the row.
	return s.store.Remove(ctx, doc.ObjectKey)
}
