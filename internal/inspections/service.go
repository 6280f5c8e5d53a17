package inspections

import (
	"context"
	"encoding/json"
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

type inspectionRepository interface {
	Create(ctx context.Context, report *models.InspectionReport) error
	FindLatestByApplication(ctx context.Context, applicationID uuid.UUID) (*models.InspectionReport, error)
	ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]models.InspectionReport, error)
	Update(ctx context.Context, report *models.InspectionReport) error
}

type workflowEngine interface {
	Apply(ctx context.Context, actor workflow.Actor, input workflow.ApplyInput) (*models.Application, error)
}

// ScheduleInput carries the visit date a DTDO fixes for an inspection.
type ScheduleInput struct {
	ScheduledDate *time.Time
	Notes         *string
}

// CompleteInput is the checklist a Dealing Assistant files after the visit.
type CompleteInput struct {
	Outcome             enums.InspectionOutcome
	MandatoryCompliance map[string]bool
	DesirableCompliance map[string]bool
	Findings            map[string]string
	Notes               *string
}

// ReportDTO is the reviewer-facing projection of a filed report.
type ReportDTO struct {
	ID                  uuid.UUID                `json:"id"`
	ApplicationID       uuid.UUID                `json:"applicationId"`
	InspectorID         uuid.UUID                `json:"inspectorId"`
	ScheduledDate       *time.Time               `json:"scheduledDate,omitempty"`
	CompletedDate       *time.Time               `json:"completedDate,omitempty"`
	MandatoryCompliance map[string]bool          `json:"mandatoryCompliance,omitempty"`
	DesirableCompliance map[string]bool          `json:"desirableCompliance,omitempty"`
	Outcome             *enums.InspectionOutcome `json:"outcome,omitempty"`
	Notes               *string                  `json:"notes,omitempty"`
	ReviewedByID        *uuid.UUID               `json:"reviewedById,omitempty"`
	ReviewedAt          *time.Time               `json:"reviewedAt,omitempty"`
}

// Service manages site inspection scheduling, reports, and DTDO review.
type Service interface {
	Schedule(ctx context.Context, actor workflow.Actor, applicationID uuid.UUID, input ScheduleInput) (*models.Application, error)
	Complete(ctx context.Context, actor workflow.Actor, applicationID uuid.UUID, input CompleteInput) (*models.Application, error)
	Latest(ctx context.Context, actor workflow.Actor, applicationID uuid.UUID) (*ReportDTO, error)
	MarkReviewed(ctx context.Context, actor workflow.Actor, applicationID uuid.UUID) error
}

type service struct {
	repo   inspectionRepository
	engine workflowEngine
	now    func() time.Time
}

func NewService(repo inspectionRepository, engine workflowEngine) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inspection repository required")
	}
	if engine == nil {
		return nil, fmt.Errorf("workflow engine required")
	}
	return &service{repo: repo, engine: engine, now: time.Now}, nil
}

// Schedule fixes the visit date and moves the application to
// inspection_scheduled. Role and district guards run inside the engine.
func (s *service) Schedule(ctx context.Context, actor workflow.Actor, applicationID uuid.UUID, input ScheduleInput) (*models.Application, error) {
	scheduled := s.now()
	if input.ScheduledDate != nil {
		if input.ScheduledDate.Before(s.now()) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "scheduled date must be in the future")
		}
		scheduled = *input.ScheduledDate
	}

	return s.engine.Apply(ctx, actor, workflow.ApplyInput{
		ApplicationID: applicationID,
		Action:        enums.ActionInspectionScheduled,
		Remarks:       input.Notes,
		Extra: map[string]interface{}{
			"site_inspection_scheduled_date": scheduled,
		},
	})
}

// Complete files the checklist report and moves the application to
// inspection_under_review. Anything short of an approved outcome needs notes
// describing what was found.
func (s *service) Complete(ctx context.Context, actor workflow.Actor, applicationID uuid.UUID, input CompleteInput) (*models.Application, error) {
	if !input.Outcome.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid inspection outcome %q", input.Outcome))
	}
	if input.Outcome != enums.InspectionOutcomeApproved &&
		(input.Notes == nil || strings.TrimSpace(*input.Notes) == "") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notes are required when the outcome is not approved")
	}

	extra := map[string]interface{}{
		"site_inspection_outcome": string(input.Outcome),
	}
	if input.Notes != nil {
		extra["site_inspection_notes"] = *input.Notes
	}
	if len(input.Findings) > 0 {
		raw, err := json.Marshal(input.Findings)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode inspection findings")
		}
		extra["site_inspection_findings"] = string(raw)
	}

	app, err := s.engine.Apply(ctx, actor, workflow.ApplyInput{
		ApplicationID: applicationID,
		Action:        enums.ActionInspectionCompleted,
		Extra:         extra,
	})
	if err != nil {
		return nil, err
	}

	completed := s.now()
	outcome := input.Outcome
	report := &models.InspectionReport{
		ApplicationID:       applicationID,
		InspectorID:         actor.ID,
		ScheduledDate:       app.SiteInspectionScheduledDate,
		CompletedDate:       &completed,
		MandatoryCompliance: input.MandatoryCompliance,
		DesirableCompliance: input.DesirableCompliance,
		Outcome:             &outcome,
		Notes:               input.Notes,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store inspection report")
	}
	return app, nil
}

// Latest returns the newest report for the review screen. Staff only.
func (s *service) Latest(ctx context.Context, actor workflow.Actor, applicationID uuid.UUID) (*ReportDTO, error) {
	if !actor.Role.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "staff only")
	}

	report, err := s.repo.FindLatestByApplication(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no inspection report filed")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inspection report")
	}
	return fromReport(report), nil
}

// MarkReviewed stamps the reviewer on the latest report once the DTDO has
// acted on it. Missing reports are not an error; the decision stands alone.
func (s *service) MarkReviewed(ctx context.Context, actor workflow.Actor, applicationID uuid.UUID) error {
	report, err := s.repo.FindLatestByApplication(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inspection report")
	}
	if report.ReviewedByID != nil {
		return nil
	}

	reviewedAt := s.now()
	reviewer := actor.ID
	report.ReviewedByID = &reviewer
	report.ReviewedAt = &reviewedAt
	if err := s.repo.Update(ctx, report); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark report reviewed")
	}
	return nil
}

func fromReport(report *models.InspectionReport) *ReportDTO {
	return &ReportDTO{
		ID:                  report.ID,
		ApplicationID:       report.ApplicationID,
		InspectorID:         report.InspectorID,
		ScheduledDate:       report.ScheduledDate,
		CompletedDate:       report.CompletedDate,
		MandatoryCompliance: report.MandatoryCompliance,
		DesirableCompliance: report.DesirableCompliance,
		Outcome:             report.Outcome,
		Notes:               report.Notes,
		ReviewedByID:        report.ReviewedByID,
		ReviewedAt:          report.ReviewedAt,
	}
}
