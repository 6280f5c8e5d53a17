package actions

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/hptourism/homestay-portal/pkg/db/models"
	"github.com/hptourism/homestay-portal/pkg/enums"
)

type fakeTimelineRepo struct {
	rows     []models.ApplicationAction
	joined   []TimelineRow
	listErr  error
	joinErr  error
	lastSeen uuid.UUID
}

func (f *fakeTimelineRepo) ListByApplication(_ context.Context, id uuid.UUID) ([]models.ApplicationAction, error) {
	f.lastSeen = id
	return f.rows, f.listErr
}

func (f *fakeTimelineRepo) ListByApplicationWithActors(_ context.Context, id uuid.UUID) ([]TimelineRow, error) {
	f.lastSeen = id
	return f.joined, f.joinErr
}

func action(action enums.WorkflowAction, from, to enums.ApplicationStatus) models.ApplicationAction {
	return models.ApplicationAction{
		ID:             uuid.New(),
		ApplicationID:  uuid.New(),
		ActorID:        uuid.New(),
		Action:         action,
		PreviousStatus: from,
		NewStatus:      to,
	}
}

func TestValidateChainAcceptsContiguousWalk(t *testing.T) {
	rows := []models.ApplicationAction{
		action(enums.ActionApplicationSubmitted, enums.ApplicationStatusDraft, enums.ApplicationStatusSubmitted),
		action(enums.ActionScrutinyStarted, enums.ApplicationStatusSubmitted, enums.ApplicationStatusUnderScrutiny),
		action(enums.ActionForwardedToDTDO, enums.ApplicationStatusUnderScrutiny, enums.ApplicationStatusForwardedToDTDO),
	}
	if err := ValidateChain(rows, enums.ApplicationStatusForwardedToDTDO); err != nil {
		t.Fatalf("expected valid chain, got %v", err)
	}
}

func TestValidateChainRejectsGap(t *testing.T) {
	rows := []models.ApplicationAction{
		action(enums.ActionApplicationSubmitted, enums.ApplicationStatusDraft, enums.ApplicationStatusSubmitted),
		// Missing scrutiny_started; this row does not follow.
		action(enums.ActionForwardedToDTDO, enums.ApplicationStatusUnderScrutiny, enums.ApplicationStatusForwardedToDTDO),
	}
	err := ValidateChain(rows, enums.ApplicationStatusForwardedToDTDO)
	if err == nil || !strings.Contains(err.Error(), "broken") {
		t.Fatalf("expected broken chain error, got %v", err)
	}
}

func TestValidateChainRejectsWrongOrigin(t *testing.T) {
	rows := []models.ApplicationAction{
		action(enums.ActionScrutinyStarted, enums.ApplicationStatusSubmitted, enums.ApplicationStatusUnderScrutiny),
	}
	if err := ValidateChain(rows, enums.ApplicationStatusUnderScrutiny); err == nil {
		t.Fatalf("expected error for chain not starting at draft")
	}
}

func TestValidateChainRejectsHeadMismatch(t *testing.T) {
	rows := []models.ApplicationAction{
		action(enums.ActionApplicationSubmitted, enums.ApplicationStatusDraft, enums.ApplicationStatusSubmitted),
	}
	if err := ValidateChain(rows, enums.ApplicationStatusApproved); err == nil {
		t.Fatalf("expected error when chain head disagrees with current status")
	}
}

func TestValidateChainEmptyTrail(t *testing.T) {
	if err := ValidateChain(nil, enums.ApplicationStatusDraft); err != nil {
		t.Fatalf("draft with no trail should be fine, got %v", err)
	}
	if err := ValidateChain(nil, enums.ApplicationStatusSubmitted); err == nil {
		t.Fatalf("non-draft with no trail must fail")
	}
}

func TestValidateChainNormalizesLegacyStatuses(t *testing.T) {
	rows := []models.ApplicationAction{
		action(enums.ActionApplicationSubmitted, enums.ApplicationStatusDraft, "pending"),
		action(enums.ActionScrutinyStarted, "pending", "district_review"),
	}
	if err := ValidateChain(rows, enums.ApplicationStatusUnderScrutiny); err != nil {
		t.Fatalf("legacy aliases should normalize, got %v", err)
	}
}

func TestTimelineMapsJoinedRows(t *testing.T) {
	feedback := "missing building plan"
	repo := &fakeTimelineRepo{
		joined: []TimelineRow{
			{
				ApplicationAction: action(enums.ActionSentBackForCorrections, "district_review", enums.ApplicationStatusSentBackForCorrections),
				ActorName:         "R. Thakur",
				ActorRole:         string(enums.UserRoleDealingAssistant),
			},
		},
	}
	repo.joined[0].Feedback = &feedback
	repo.joined[0].IssuesFound = []string{"building_plan"}

	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	entries, err := svc.Timeline(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	got := entries[0]
	if got.PreviousStatus != enums.ApplicationStatusUnderScrutiny {
		t.Fatalf("legacy previous status not normalized: %s", got.PreviousStatus)
	}
	if got.ActorName != "R. Thakur" || got.ActorRole != "dealing_assistant" {
		t.Fatalf("actor fields not mapped: %+v", got)
	}
	if got.Feedback == nil || *got.Feedback != feedback {
		t.Fatalf("feedback not mapped")
	}
	if len(got.IssuesFound) != 1 || got.IssuesFound[0] != "building_plan" {
		t.Fatalf("issues not mapped: %v", got.IssuesFound)
	}
}
