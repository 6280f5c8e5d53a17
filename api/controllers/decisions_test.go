package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hptourism/homestay-portal/api/middleware"
	"github.com/hptourism/homestay-portal/internal/applications"
	"github.com/hptourism/homestay-portal/internal/inspections"
	"github.com/hptourism/homestay-portal/internal/workflow"
	"github.com/hptourism/homestay-portal/pkg/db/models"
	"github.com/hptourism/homestay-portal/pkg/enums"
	pkgerrors "github.com/hptourism/homestay-portal/pkg/errors"
	"github.com/hptourism/homestay-portal/pkg/pagination"
)

type stubAppsService struct {
	status enums.ApplicationStatus
}

func (s *stubAppsService) CreateDraft(context.Context, workflow.Actor, applications.CreateInput) (*applications.ApplicationDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *stubAppsService) UpdateDraft(context.Context, workflow.Actor, uuid.UUID, applications.UpdateInput) (*applications.ApplicationDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *stubAppsService) Get(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*applications.ApplicationDTO, error) {
	return &applications.ApplicationDTO{ID: id, Status: s.status}, nil
}

func (s *stubAppsService) List(context.Context, workflow.Actor, *enums.ApplicationStatus, pagination.Params) (*applications.Page, error) {
	return &applications.Page{}, nil
}

func (s *stubAppsService) ListAll(context.Context, workflow.Actor, *enums.ApplicationStatus, pagination.Params) (*applications.Page, error) {
	return &applications.Page{}, nil
}

func (s *stubAppsService) Search(context.Context, workflow.Actor, applications.SearchFilter) ([]*applications.ApplicationDTO, error) {
	return nil, nil
}

func (s *stubAppsService) Submit(context.Context, workflow.Actor, uuid.UUID) (*applications.ApplicationDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

type stubEngine struct {
	applied []enums.WorkflowAction
	remarks []*string
}

func (s *stubEngine) Apply(ctx context.Context, actor workflow.Actor, input workflow.ApplyInput) (*models.Application, error) {
	s.applied = append(s.applied, input.Action)
	s.remarks = append(s.remarks, input.Remarks)
	return &models.Application{ID: input.ApplicationID}, nil
}

func (s *stubEngine) AllowedFor(workflow.Actor, *models.Application) []enums.WorkflowAction {
	return nil
}

type stubInspectionsService struct {
	reviewed int
}

func (s *stubInspectionsService) Schedule(context.Context, workflow.Actor, uuid.UUID, inspections.ScheduleInput) (*models.Application, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *stubInspectionsService) Complete(context.Context, workflow.Actor, uuid.UUID, inspections.CompleteInput) (*models.Application, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *stubInspectionsService) Latest(context.Context, workflow.Actor, uuid.UUID) (*inspections.ReportDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no inspection report on file")
}

func (s *stubInspectionsService) MarkReviewed(context.Context, workflow.Actor, uuid.UUID) error {
	s.reviewed++
	return nil
}

func seededRequest(t *testing.T, method, target string, body any, role enums.UserRole) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	district := "Shimla"
	ctx := middleware.WithActor(req.Context(), uuid.NewString(), string(role), &district)
	return req.WithContext(ctx)
}

func serveDecision(handler http.HandlerFunc, pattern string, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Post(pattern, handler)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestReviewApproveForwardsFromScrutiny(t *testing.T) {
	apps := &stubAppsService{status: enums.ApplicationStatusUnderScrutiny}
	engine := &stubEngine{}
	insp := &stubInspectionsService{}

	req := seededRequest(t, http.MethodPost, "/applications/"+uuid.NewString()+"/review",
		map[string]string{"action": "approve"}, enums.UserRoleDealingAssistant)
	rec := serveDecision(ApplicationsReview(apps, engine, insp, nil), "/applications/{id}/review", req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if len(engine.applied) != 1 || engine.applied[0] != enums.ActionForwardedToDTDO {
		t.Fatalf("expected forwarded_to_dtdo, got %v", engine.applied)
	}
}

func TestReviewApproveFromSubmittedRunsScrutinyFirst(t *testing.T) {
	apps := &stubAppsService{status: enums.ApplicationStatusSubmitted}
	engine := &stubEngine{}

	req := seededRequest(t, http.MethodPost, "/applications/"+uuid.NewString()+"/review",
		map[string]string{"action": "approve"}, enums.UserRoleDealingAssistant)
	rec := serveDecision(ApplicationsReview(apps, engine, &stubInspectionsService{}, nil), "/applications/{id}/review", req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	want := []enums.WorkflowAction{enums.ActionScrutinyStarted, enums.ActionForwardedToDTDO}
	if len(engine.applied) != 2 || engine.applied[0] != want[0] || engine.applied[1] != want[1] {
		t.Fatalf("expected %v got %v", want, engine.applied)
	}
}

func TestReviewRejectPassesCommentsAsRemarks(t *testing.T) {
	apps := &stubAppsService{status: enums.ApplicationStatusDTDOReview}
	engine := &stubEngine{}

	req := seededRequest(t, http.MethodPost, "/applications/"+uuid.NewString()+"/review",
		map[string]string{"action": "reject", "comments": "incomplete ownership proof"},
		enums.UserRoleDistrictTourismOfficer)
	rec := serveDecision(ApplicationsReview(apps, engine, &stubInspectionsService{}, nil), "/applications/{id}/review", req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if len(engine.applied) != 1 || engine.applied[0] != enums.ActionApplicationRejected {
		t.Fatalf("expected application_rejected, got %v", engine.applied)
	}
	if engine.remarks[0] == nil || *engine.remarks[0] != "incomplete ownership proof" {
		t.Fatalf("remarks not forwarded")
	}
}

func TestReviewRejectsUnknownAction(t *testing.T) {
	apps := &stubAppsService{status: enums.ApplicationStatusUnderScrutiny}

	req := seededRequest(t, http.MethodPost, "/applications/"+uuid.NewString()+"/review",
		map[string]string{"action": "escalate"}, enums.UserRoleDealingAssistant)
	rec := serveDecision(ApplicationsReview(apps, &stubEngine{}, &stubInspectionsService{}, nil), "/applications/{id}/review", req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAcceptSignsOffInspection(t *testing.T) {
	apps := &stubAppsService{status: enums.ApplicationStatusInspectionUnderReview}
	engine := &stubEngine{}
	insp := &stubInspectionsService{}

	req := seededRequest(t, http.MethodPost, "/applications/"+uuid.NewString()+"/accept",
		map[string]string{}, enums.UserRoleDistrictTourismOfficer)
	rec := serveDecision(ApplicationsAccept(apps, engine, insp, nil), "/applications/{id}/accept", req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if len(engine.applied) != 1 || engine.applied[0] != enums.ActionDTDOAccepted {
		t.Fatalf("expected dtdo_accepted, got %v", engine.applied)
	}
	if insp.reviewed != 1 {
		t.Fatalf("expected report sign-off, got %d", insp.reviewed)
	}
}

func TestAcceptPicksUpForwardedRecord(t *testing.T) {
	apps := &stubAppsService{status: enums.ApplicationStatusForwardedToDTDO}
	engine := &stubEngine{}
	insp := &stubInspectionsService{}

	req := seededRequest(t, http.MethodPost, "/applications/"+uuid.NewString()+"/accept",
		map[string]string{}, enums.UserRoleDistrictTourismOfficer)
	rec := serveDecision(ApplicationsAccept(apps, engine, insp, nil), "/applications/{id}/accept", req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if len(engine.applied) != 1 || engine.applied[0] != enums.ActionDTDOReviewStarted {
		t.Fatalf("expected dtdo_review_started, got %v", engine.applied)
	}
	if insp.reviewed != 0 {
		t.Fatalf("no report exists yet, sign-off should not run")
	}
}

func TestAcceptOutsideDecisionStages(t *testing.T) {
	apps := &stubAppsService{status: enums.ApplicationStatusDraft}

	req := seededRequest(t, http.MethodPost, "/applications/"+uuid.NewString()+"/accept",
		map[string]string{}, enums.UserRoleDistrictTourismOfficer)
	rec := serveDecision(ApplicationsAccept(apps, &stubEngine{}, &stubInspectionsService{}, nil), "/applications/{id}/accept", req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSendBackRequiresSubstantiveFeedback(t *testing.T) {
	engine := &stubEngine{}

	req := seededRequest(t, http.MethodPost, "/applications/"+uuid.NewString()+"/send-back",
		map[string]string{"feedback": "too short"}, enums.UserRoleDealingAssistant)
	rec := serveDecision(ApplicationsSendBack(engine, nil), "/applications/{id}/send-back", req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if len(engine.applied) != 0 {
		t.Fatalf("engine should not run on invalid feedback")
	}
}

func TestSendBackForwardsFeedback(t *testing.T) {
	engine := &stubEngine{}

	req := seededRequest(t, http.MethodPost, "/applications/"+uuid.NewString()+"/send-back",
		map[string]string{"feedback": "attach the revenue record and re-upload photos"},
		enums.UserRoleDealingAssistant)
	rec := serveDecision(ApplicationsSendBack(engine, nil), "/applications/{id}/send-back", req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if len(engine.applied) != 1 || engine.applied[0] != enums.ActionSentBackForCorrections {
		t.Fatalf("expected sent_back_for_corrections, got %v", engine.applied)
	}
}

func TestApprovalStepsForStateOfficerFastTrack(t *testing.T) {
	steps, err := approvalStepsFor(enums.UserRoleStateOfficer, enums.ApplicationStatusUnderScrutiny)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(steps) != 1 || steps[0] != enums.ActionVerifiedForPayment {
		t.Fatalf("expected verified_for_payment, got %v", steps)
	}

	if _, err := approvalStepsFor(enums.UserRolePropertyOwner, enums.ApplicationStatusUnderScrutiny); err == nil {
		t.Fatalf("owners cannot approve")
	}
}
