// Package content covers the four trial-scoped content entities:
// enrollments, news updates, training materials, and study protocols.
package content

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("content not found")

// Meta is shared by every content row. OrganizationID always matches the
// owning trial's organization; the service enforces it on insert.
type Meta struct {
	ID             string
	OrganizationID string
	TrialID        string
	TrialName      string
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Enrollment struct {
	Meta
	PatientCount int32
	Notes        string
}

type NewsUpdate struct {
	Meta
	Title string
	Body  string
}

type TrainingMaterial struct {
	Meta
	Title       string
	Description string
	StoragePath string
}

type StudyProtocol struct {
	Meta
	Title       string
	Version     string
	Summary     string
	StoragePath string
}

// ListScope filters list queries: always by organization, and by trial ids
// for non-admin callers (nil means no trial filter).
type ListScope struct {
	OrganizationID string
	TrialIDs       []string
}

type EnrollmentUpdate struct {
	PatientCount *int32
	Notes        *string
}

type NewsUpdateUpdate struct {
	Title *string
	Body  *string
}

type TrainingMaterialUpdate struct {
	Title       *string
	Description *string
	StoragePath *string
}

type StudyProtocolUpdate struct {
	Title       *string
	Version     *string
	Summary     *string
	StoragePath *string
}

type Repository interface {
	CreateEnrollment(ctx context.Context, record Enrollment) (Enrollment, error)
	GetEnrollment(ctx context.Context, id string) (Enrollment, error)
	ListEnrollments(ctx context.Context, scope ListScope) ([]Enrollment, error)
	UpdateEnrollment(ctx context.Context, id string, params EnrollmentUpdate) (Enrollment, error)
	DeleteEnrollment(ctx context.Context, id string) error

	CreateNewsUpdate(ctx context.Context, record NewsUpdate) (NewsUpdate, error)
	GetNewsUpdate(ctx context.Context, id string) (NewsUpdate, error)
	ListNewsUpdates(ctx context.Context, scope ListScope) ([]NewsUpdate, error)
	UpdateNewsUpdate(ctx context.Context, id string, params NewsUpdateUpdate) (NewsUpdate, error)
	DeleteNewsUpdate(ctx context.Context, id string) error

	CreateTrainingMaterial(ctx context.Context, record TrainingMaterial) (TrainingMaterial, error)
	GetTrainingMaterial(ctx context.Context, id string) (TrainingMaterial, error)
	ListTrainingMaterials(ctx context.Context, scope ListScope) ([]TrainingMaterial, error)
	UpdateTrainingMaterial(ctx context.Context, id string, params TrainingMaterialUpdate) (TrainingMaterial, error)
	DeleteTrainingMaterial(ctx context.Context, id string) error

	CreateStudyProtocol(ctx context.Context, record StudyProtocol) (StudyProtocol, error)
	GetStudyProtocol(ctx context.Context, id string) (StudyProtocol, error)
	ListStudyProtocols(ctx context.Context, scope ListScope) ([]StudyProtocol, error)
	UpdateStudyProtocol(ctx context.Context, id string, params StudyProtocolUpdate) (StudyProtocol, error)
	DeleteStudyProtocol(ctx context.Context, id string) error
}
