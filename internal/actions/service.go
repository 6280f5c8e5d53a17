package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hptourism/homestay-portal/pkg/db/models"
	"github.com/hptourism/homestay-portal/pkg/enums"
	pkgerrors "github.com/hptourism/homestay-portal/pkg/errors"
)

type timelineRepository interface {
	ListByApplicationWithActors(ctx context.Context, applicationID uuid.UUID) ([]TimelineRow, error)
	ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]models.ApplicationAction, error)
}

// Service exposes read access to application timelines.
type Service interface {
	Timeline(ctx context.Context, applicationID uuid.UUID) ([]TimelineEntry, error)
	ValidateWalk(ctx context.Context, applicationID uuid.UUID, current enums.ApplicationStatus) error
}

type service struct {
	repo timelineRepository
}

func NewService(repo timelineRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("actions repository required")
	}
	return &service{repo: repo}, nil
}

// TimelineEntry is one audit row rendered for API consumers.
type TimelineEntry struct {
	ID             uuid.UUID               `json:"id"`
	Action         enums.WorkflowAction    `json:"action"`
	PreviousStatus enums.ApplicationStatus `json:"previous_status"`
	NewStatus      enums.ApplicationStatus `json:"new_status"`
	Feedback       *string                 `json:"feedback,omitempty"`
	IssuesFound    []string                `json:"issues_found,omitempty"`
	ActorName      string                  `json:"actor_name"`
	ActorRole      string                  `json:"actor_role"`
	CreatedAt      time.Time               `json:"created_at"`
}

func (s *service) Timeline(ctx context.Context, applicationID uuid.UUID) ([]TimelineEntry, error) {
	rows, err := s.repo.ListByApplicationWithActors(ctx, applicationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load timeline")
	}
	entries := make([]TimelineEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, TimelineEntry{
			ID:             row.ID,
			Action:         row.Action,
			PreviousStatus: enums.NormalizeApplicationStatus(string(row.PreviousStatus)),
			NewStatus:      enums.NormalizeApplicationStatus(string(row.NewStatus)),
			Feedback:       row.Feedback,
			IssuesFound:    row.IssuesFound,
			ActorName:      row.ActorName,
			ActorRole:      row.ActorRole,
			CreatedAt:      row.CreatedAt,
		})
	}
	return entries, nil
}

// ValidateWalk checks that the recorded audit chain is unbroken: the first
// row starts from draft, each row picks up where the previous one left off,
// and the last row lands on the application's current status.
func (s *service) ValidateWalk(ctx context.Context, applicationID uuid.UUID, current enums.ApplicationStatus) error {
	rows, err := s.repo.ListByApplication(ctx, applicationID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load timeline")
	}
	return ValidateChain(rows, current)
}

// ValidateChain verifies continuity on an ordered audit trail.
func ValidateChain(rows []models.ApplicationAction, current enums.ApplicationStatus) error {
	if len(rows) == 0 {
		if current != enums.ApplicationStatusDraft {
			return fmt.Errorf("application is %s but has no audit trail", current)
		}
		return nil
	}

	first := enums.NormalizeApplicationStatus(string(rows[0].PreviousStatus))
	if first != enums.ApplicationStatusDraft {
		return fmt.Errorf("audit trail starts from %s, want %s", first, enums.ApplicationStatusDraft)
	}

	for i := 1; i < len(rows); i++ {
		prev := enums.NormalizeApplicationStatus(string(rows[i-1].NewStatus))
		next := enums.NormalizeApplicationStatus(string(rows[i].PreviousStatus))
		if prev != next {
			return fmt.Errorf("audit trail broken at row %d: %s does not follow %s", i, next, prev)
		}
	}

	last := enums.NormalizeApplicationStatus(string(rows[len(rows)-1].NewStatus))
	if last != enums.NormalizeApplicationStatus(string(current)) {
		return fmt.Errorf("audit trail ends at %s but application is %s", last, current)
	}
	return nil
}
