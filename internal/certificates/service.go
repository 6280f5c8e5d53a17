package certificates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hptourism/homestay-portal/internal/workflow"
	"github.com/hptourism/homestay-portal/pkg/db/models"
	"github.com/hptourism/homestay-portal/pkg/enums"
	pkgerrors "github.com/hptourism/homestay-portal/pkg/errors"
)

// ValidityYears is how long a registration certificate stays in force.
const ValidityYears = 5

type applicationLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Application, error)
}

type workflowEngine interface {
	Apply(ctx context.Context, actor workflow.Actor, input workflow.ApplyInput) (*models.Application, error)
}

// Certificate is the issued-registration view returned to callers.
type Certificate struct {
	ApplicationID     uuid.UUID       `json:"applicationId"`
	ApplicationNumber string          `json:"applicationNumber"`
	CertificateNumber string          `json:"certificateNumber"`
	PropertyName      string          `json:"propertyName"`
	OwnerName         string          `json:"ownerName"`
	District          string          `json:"district"`
	Category          enums.Category  `json:"category"`
	IssuedAt          time.Time       `json:"issuedAt"`
	ExpiresAt         time.Time       `json:"expiresAt"`
}

// Service issues and serves homestay registration certificates.
type Service interface {
	Issue(ctx context.Context, actor workflow.Actor, applicationID uuid.UUID) (*Certificate, error)
	Get(ctx context.Context, actor workflow.Actor, applicationID uuid.UUID) (*Certificate, error)
}

type service struct {
	apps   applicationLoader
	engine workflowEngine
	now    func() time.Time
}

func NewService(apps applicationLoader, engine workflowEngine) (Service, error) {
	if apps == nil {
		return nil, fmt.Errorf("application loader required")
	}
	if engine == nil {
		return nil, fmt.Errorf("workflow engine required")
	}
	return &service{apps: apps, engine: engine, now: time.Now}, nil
}

// Issue stamps the certificate fields through the workflow engine so the
// number, the audit row, and the notification commit together. The engine
// enforces that only director-level roles may run certificate_issued.
func (s *service) Issue(ctx context.Context, actor workflow.Actor, applicationID uuid.UUID) (*Certificate, error) {
	app, err := s.load(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.CertificateNumber != nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "certificate already issued").
			WithDetails(map[string]interface{}{"certificate_number": *app.CertificateNumber})
	}

	issuedAt := s.now()
	expiresAt := issuedAt.AddDate(ValidityYears, 0, 0)
	number := CertificateNumber(app.ApplicationNumber)

	updated, err := s.engine.Apply(ctx, actor, workflow.ApplyInput{
		ApplicationID: applicationID,
		Action:        enums.ActionCertificateIssued,
		Extra: map[string]interface{}{
			"certificate_number":     number,
			"certificate_issued_at":  issuedAt,
			"certificate_expires_at": expiresAt,
		},
	})
	if err != nil {
		return nil, err
	}
	return fromApplication(updated)
}

// Get returns the issued certificate. Applicants may only fetch their own.
func (s *service) Get(ctx context.Context, actor workflow.Actor, applicationID uuid.UUID) (*Certificate, error) {
	app, err := s.load(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if actor.Role == enums.UserRolePropertyOwner && app.UserID != actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
	}
	if app.CertificateNumber == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "certificate not issued")
	}
	return fromApplication(app)
}

// CertificateNumber derives the certificate number from the application
// number, which is already unique per district and year.
func CertificateNumber(applicationNumber string) string {
	if rest, ok := strings.CutPrefix(applicationNumber, "HS/"); ok {
		return "HSRC/" + rest
	}
	return "HSRC/" + applicationNumber
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	app, err := s.apps.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load application")
	}
	return app, nil
}

func fromApplication(app *models.Application) (*Certificate, error) {
	if app.CertificateNumber == nil || app.CertificateIssuedAt == nil || app.CertificateExpiresAt == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "certificate fields missing on application")
	}
	return &Certificate{
		ApplicationID:     app.ID,
		ApplicationNumber: app.ApplicationNumber,
		CertificateNumber: *app.CertificateNumber,
		PropertyName:      app.PropertyName,
		OwnerName:         app.OwnerName,
		District:          app.District,
		Category:          app.Category,
		IssuedAt:          *app.CertificateIssuedAt,
		ExpiresAt:         *app.CertificateExpiresAt,
	}, nil
}
