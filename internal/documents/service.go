package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hptourism/homestay-portal/pkg/db/models"
	"github.com/hptourism/homestay-portal/pkg/enums"
	pkgerrors "github.com/hptourism/homestay-portal/pkg/errors"
)

// Draft-stage statuses during which the applicant may still touch documents.
var uploadableStatuses = map[enums.ApplicationStatus]bool{
	enums.ApplicationStatusDraft:                  true,
	enums.ApplicationStatusSentBackForCorrections: true,
	enums.ApplicationStatusRevertedToApplicant:    true,
}

type applicationLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Application, error)
}

type documentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]models.Document, error)
	CountByType(ctx context.Context, applicationID uuid.UUID, docType string) (int64, error)
	Update(ctx context.Context, doc *models.Document) error
}

// UploadInput is the metadata recorded for one uploaded file. Storage itself
// happens out of band; the portal tracks paths and review state.
type UploadInput struct {
	ApplicationID uuid.UUID
	DocumentType  enums.DocumentType
	FilePath      string
	FileName      string
	SizeBytes     int64
}

// VerifyInput records a reviewer decision on a document.
type VerifyInput struct {
	DocumentID uuid.UUID
	Status     enums.DocVerificationStatus
	Notes      *string
}

// Service exposes document operations.
type Service interface {
	Upload(ctx context.Context, actorID uuid.UUID, role enums.UserRole, input UploadInput) (*models.Document, error)
	Verify(ctx context.Context, actorID uuid.UUID, role enums.UserRole, input VerifyInput) (*models.Document, error)
	ListForApplication(ctx context.Context, applicationID uuid.UUID) ([]models.Document, error)
	ValidateForSubmission(ctx context.Context, app *models.Application) error
}

type service struct {
	repo documentRepository
	apps applicationLoader
}

func NewService(repo documentRepository, apps applicationLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("document repository required")
	}
	if apps == nil {
		return nil, fmt.Errorf("application loader required")
	}
	return &service{repo: repo, apps: apps}, nil
}

func (s *service) Upload(ctx context.Context, actorID uuid.UUID, role enums.UserRole, input UploadInput) (*models.Document, error) {
	if !input.DocumentType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid document type %q", input.DocumentType))
	}
	if strings.TrimSpace(input.FilePath) == "" || strings.TrimSpace(input.FileName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file path and name are required")
	}

	app, err := s.loadApplication(ctx, input.ApplicationID)
	if err != nil {
		return nil, err
	}
	if role == enums.UserRolePropertyOwner && app.UserID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
	}

	status := enums.NormalizeApplicationStatus(string(app.Status))
	if !uploadableStatuses[status] {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("documents cannot be changed while application is %s", status))
	}

	policy := PolicyFor(app.ApplicationKind, app.Category)
	existing, err := s.repo.CountByType(ctx, app.ID, string(input.DocumentType))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count documents")
	}
	if err := policy.Allows(input.DocumentType, int(existing)); err != nil {
		return nil, err
	}

	doc := &models.Document{
		ApplicationID:      app.ID,
		DocumentType:       input.DocumentType,
		FilePath:           input.FilePath,
		FileName:           input.FileName,
		SizeBytes:          input.SizeBytes,
		VerificationStatus: enums.DocVerificationPending,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store document")
	}
	return doc, nil
}

func (s *service) Verify(ctx context.Context, actorID uuid.UUID, role enums.UserRole, input VerifyInput) (*models.Document, error) {
	if !role.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only staff may verify documents")
	}
	if !input.Status.IsValid() || input.Status == enums.DocVerificationPending {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "verification status must be a decision")
	}

	doc, err := s.repo.FindByID(ctx, input.DocumentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load document")
	}

	now := time.Now()
	doc.VerificationStatus = input.Status
	doc.VerificationNotes = input.Notes
	doc.VerifiedByID = &actorID
	doc.VerifiedAt = &now

	if err := s.repo.Update(ctx, doc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update document")
	}
	return doc, nil
}

func (s *service) ListForApplication(ctx context.Context, applicationID uuid.UUID) ([]models.Document, error) {
	docs, err := s.repo.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list documents")
	}
	return docs, nil
}

// ValidateForSubmission is the submit gate: the application may not leave
// draft while required documents are missing.
func (s *service) ValidateForSubmission(ctx context.Context, app *models.Application) error {
	if app == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "application required")
	}
	docs, err := s.repo.ListByApplication(ctx, app.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list documents")
	}
	return PolicyFor(app.ApplicationKind, app.Category).Validate(docs)
}

func (s *service) loadApplication(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	app, err := s.apps.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load application")
	}
	return app, nil
}
