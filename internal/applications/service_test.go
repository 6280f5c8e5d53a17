package applications

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hptourism/homestay-portal/internal/districts"
	"github.com/hptourism/homestay-portal/internal/workflow"
	"github.com/hptourism/homestay-portal/pkg/config"
	"github.com/hptourism/homestay-portal/pkg/db/models"
	"github.com/hptourism/homestay-portal/pkg/enums"
	pkgerrors "github.com/hptourism/homestay-portal/pkg/errors"
	"github.com/hptourism/homestay-portal/pkg/pagination"
	"gorm.io/gorm"
)

type fakeAppRepo struct {
	apps       map[uuid.UUID]*models.Application
	yearCount  int64
	lastList   *ListFilter
	lastSearch *SearchFilter
	searchOut  []models.Application
}

func newFakeAppRepo() *fakeAppRepo {
	return &fakeAppRepo{apps: map[uuid.UUID]*models.Application{}}
}

func (f *fakeAppRepo) Create(_ context.Context, app *models.Application) error {
	app.ID = uuid.New()
	app.CreatedAt = time.Now()
	f.apps[app.ID] = app
	f.yearCount++
	return nil
}

func (f *fakeAppRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Application, error) {
	app, ok := f.apps[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return app, nil
}

func (f *fakeAppRepo) Update(_ context.Context, app *models.Application) error {
	f.apps[app.ID] = app
	return nil
}

func (f *fakeAppRepo) CountForYear(_ context.Context, _ int) (int64, error) {
	return f.yearCount, nil
}

func (f *fakeAppRepo) List(_ context.Context, filter ListFilter) ([]models.Application, error) {
	f.lastList = &filter
	var out []models.Application
	for _, app := range f.apps {
		out = append(out, *app)
	}
	return out, nil
}

func (f *fakeAppRepo) Search(_ context.Context, filter SearchFilter) ([]models.Application, error) {
	f.lastSearch = &filter
	return f.searchOut, nil
}

type fakeGate struct {
	err error
}

func (f *fakeGate) ValidateForSubmission(_ context.Context, _ *models.Application) error {
	return f.err
}

type fakeEngine struct {
	lastAction enums.WorkflowAction
	out        *models.Application
	err        error
}

func (f *fakeEngine) Apply(_ context.Context, _ workflow.Actor, input workflow.ApplyInput) (*models.Application, error) {
	f.lastAction = input.Action
	if f.err != nil {
		return nil, f.err
	}
	if f.out != nil {
		return f.out, nil
	}
	return &models.Application{ID: input.ApplicationID, Status: enums.ApplicationStatusSubmitted}, nil
}

func (f *fakeEngine) AllowedFor(_ workflow.Actor, _ *models.Application) []enums.WorkflowAction {
	return []enums.WorkflowAction{enums.ActionApplicationSubmitted}
}

func testMatcher() *districts.Matcher {
	return districts.NewMatcher(config.DistrictsConfig{
		StopWords:   []string{"district", "division", "hq", "office", "tourism"},
		MinTokenLen: 3,
	})
}

func newAppService(t *testing.T, repo *fakeAppRepo, gate *fakeGate, engine *fakeEngine) Service {
	t.Helper()
	svc, err := NewService(repo, gate, engine, testMatcher())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func validCreateInput() CreateInput {
	return CreateInput{
		Category:        enums.CategoryGold,
		ApplicationKind: enums.ApplicationKindNewRegistration,
		LocationType:    enums.LocationTypeRural,
		OwnerName:       "Asha Devi",
		OwnerMobile:     "9876500000",
		PropertyName:    "Deodar View",
		Address:         "Village Mashobra",
		District:        "Shimla",
		TotalRooms:      3,
	}
}

func ownerActor(id uuid.UUID) workflow.Actor {
	return workflow.Actor{ID: id, Role: enums.UserRolePropertyOwner}
}

func TestCreateDraftNumbersByDistrictAndYear(t *testing.T) {
	repo := newFakeAppRepo()
	svc := newAppService(t, repo, &fakeGate{}, &fakeEngine{})

	dto, err := svc.CreateDraft(context.Background(), ownerActor(uuid.New()), validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	want := fmt.Sprintf("HS/SML/%d/000001", time.Now().Year())
	if dto.ApplicationNumber != want {
		t.Fatalf("application number %q, want %q", dto.ApplicationNumber, want)
	}
	if dto.Status != enums.ApplicationStatusDraft {
		t.Fatalf("new application must start in draft, got %s", dto.Status)
	}

	// Second draft gets the next sequence.
	second, err := svc.CreateDraft(context.Background(), ownerActor(uuid.New()), validCreateInput())
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if !strings.HasSuffix(second.ApplicationNumber, "/000002") {
		t.Fatalf("second application number %q", second.ApplicationNumber)
	}
}

func TestCreateDraftRejectsUnknownDistrict(t *testing.T) {
	svc := newAppService(t, newFakeAppRepo(), &fakeGate{}, &fakeEngine{})

	input := validCreateInput()
	input.District = "Atlantis"
	_, err := svc.CreateDraft(context.Background(), ownerActor(uuid.New()), input)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateDraftStaffForbidden(t *testing.T) {
	svc := newAppService(t, newFakeAppRepo(), &fakeGate{}, &fakeEngine{})

	_, err := svc.CreateDraft(context.Background(), workflow.Actor{ID: uuid.New(), Role: enums.UserRoleAdmin}, validCreateInput())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestUpdateDraftOnlyWhileEditable(t *testing.T) {
	repo := newFakeAppRepo()
	svc := newAppService(t, repo, &fakeGate{}, &fakeEngine{})
	owner := uuid.New()

	dto, err := svc.CreateDraft(context.Background(), ownerActor(owner), validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rooms := 5
	updated, err := svc.UpdateDraft(context.Background(), ownerActor(owner), dto.ID, UpdateInput{TotalRooms: &rooms})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.TotalRooms != 5 {
		t.Fatalf("rooms not updated")
	}

	repo.apps[dto.ID].Status = enums.ApplicationStatusUnderScrutiny
	_, err = svc.UpdateDraft(context.Background(), ownerActor(owner), dto.ID, UpdateInput{TotalRooms: &rooms})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestGetHiddenFromStrangers(t *testing.T) {
	repo := newFakeAppRepo()
	svc := newAppService(t, repo, &fakeGate{}, &fakeEngine{})
	owner := uuid.New()

	dto, err := svc.CreateDraft(context.Background(), ownerActor(owner), validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Get(context.Background(), ownerActor(uuid.New()), dto.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	// Wrong-district officer is told it is out of scope.
	kangra := "Kangra"
	_, err = svc.Get(context.Background(), workflow.Actor{ID: uuid.New(), Role: enums.UserRoleDealingAssistant, District: &kangra}, dto.ID)
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	// State officers see everything.
	got, err := svc.Get(context.Background(), workflow.Actor{ID: uuid.New(), Role: enums.UserRoleStateOfficer}, dto.ID)
	if err != nil {
		t.Fatalf("state officer get: %v", err)
	}
	if len(got.AllowedActions) == 0 {
		t.Fatalf("expected allowed actions on detail view")
	}
}

func TestListScopesByRole(t *testing.T) {
	repo := newFakeAppRepo()
	svc := newAppService(t, repo, &fakeGate{}, &fakeEngine{})

	owner := uuid.New()
	if _, err := svc.List(context.Background(), ownerActor(owner), nil, pagination.Params{}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.lastList.OwnerID == nil || *repo.lastList.OwnerID != owner {
		t.Fatalf("owner listing must filter by owner")
	}

	shimla := "Shimla"
	da := workflow.Actor{ID: uuid.New(), Role: enums.UserRoleDealingAssistant, District: &shimla}
	if _, err := svc.List(context.Background(), da, nil, pagination.Params{}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.lastList.District == nil || *repo.lastList.District != shimla {
		t.Fatalf("district role listing must scope by district")
	}

	state := workflow.Actor{ID: uuid.New(), Role: enums.UserRoleStateOfficer}
	if _, err := svc.List(context.Background(), state, nil, pagination.Params{}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.lastList.OwnerID != nil || repo.lastList.District != nil {
		t.Fatalf("state role listing must not be scoped")
	}
}

func TestListAllStaffOnly(t *testing.T) {
	svc := newAppService(t, newFakeAppRepo(), &fakeGate{}, &fakeEngine{})

	_, err := svc.ListAll(context.Background(), ownerActor(uuid.New()), nil, pagination.Params{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestSearchRequiresAtLeastOneFilter(t *testing.T) {
	svc := newAppService(t, newFakeAppRepo(), &fakeGate{}, &fakeEngine{})
	state := workflow.Actor{ID: uuid.New(), Role: enums.UserRoleStateOfficer}

	_, err := svc.Search(context.Background(), state, SearchFilter{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for empty search, got %v", err)
	}
}

func TestSearchIgnoresNonWhitelistedRecentLimit(t *testing.T) {
	repo := newFakeAppRepo()
	svc := newAppService(t, repo, &fakeGate{}, &fakeEngine{})
	state := workflow.Actor{ID: uuid.New(), Role: enums.UserRoleStateOfficer}

	// 17 is not a permitted quick-list size; with no other filters the
	// request degenerates to an empty search and is rejected.
	_, err := svc.Search(context.Background(), state, SearchFilter{RecentLimit: 17})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	// A whitelisted size alone is a valid quick list.
	if _, err := svc.Search(context.Background(), state, SearchFilter{RecentLimit: 20}); err != nil {
		t.Fatalf("whitelisted recent limit: %v", err)
	}
	if repo.lastSearch.RecentLimit != 20 {
		t.Fatalf("recent limit not forwarded")
	}

	// 17 alongside a real filter is dropped, not fatal.
	mobile := "9876500000"
	if _, err := svc.Search(context.Background(), state, SearchFilter{OwnerMobile: &mobile, RecentLimit: 17}); err != nil {
		t.Fatalf("search: %v", err)
	}
	if repo.lastSearch.RecentLimit != 0 {
		t.Fatalf("non-whitelisted recent limit must be ignored, got %d", repo.lastSearch.RecentLimit)
	}
}

func TestSearchForcesOfficerDistrict(t *testing.T) {
	repo := newFakeAppRepo()
	svc := newAppService(t, repo, &fakeGate{}, &fakeEngine{})

	shimla := "Shimla"
	elsewhere := "Kangra"
	da := workflow.Actor{ID: uuid.New(), Role: enums.UserRoleDealingAssistant, District: &shimla}

	mobile := "9876500000"
	_, err := svc.Search(context.Background(), da, SearchFilter{OwnerMobile: &mobile, District: &elsewhere})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if repo.lastSearch.District == nil || *repo.lastSearch.District != shimla {
		t.Fatalf("officer search must be pinned to own district")
	}
}

func TestSearchApplicantForbidden(t *testing.T) {
	svc := newAppService(t, newFakeAppRepo(), &fakeGate{}, &fakeEngine{})

	mobile := "9876500000"
	_, err := svc.Search(context.Background(), ownerActor(uuid.New()), SearchFilter{OwnerMobile: &mobile})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestSubmitGatedOnDocuments(t *testing.T) {
	repo := newFakeAppRepo()
	gate := &fakeGate{err: pkgerrors.New(pkgerrors.CodeValidation, "required documents missing")}
	engine := &fakeEngine{}
	svc := newAppService(t, repo, gate, engine)
	owner := uuid.New()

	dto, err := svc.CreateDraft(context.Background(), ownerActor(owner), validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Submit(context.Background(), ownerActor(owner), dto.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected gate to block submission, got %v", err)
	}
	if engine.lastAction != "" {
		t.Fatalf("workflow must not run when the gate fails")
	}

	gate.err = nil
	if _, err := svc.Submit(context.Background(), ownerActor(owner), dto.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if engine.lastAction != enums.ActionApplicationSubmitted {
		t.Fatalf("expected submit action, got %s", engine.lastAction)
	}
}

func TestSubmitAfterSendBackResubmits(t *testing.T) {
	repo := newFakeAppRepo()
	engine := &fakeEngine{}
	svc := newAppService(t, repo, &fakeGate{}, engine)
	owner := uuid.New()

	dto, err := svc.CreateDraft(context.Background(), ownerActor(owner), validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	repo.apps[dto.ID].Status = enums.ApplicationStatusSentBackForCorrections

	if _, err := svc.Submit(context.Background(), ownerActor(owner), dto.ID); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if engine.lastAction != enums.ActionCorrectionResubmitted {
		t.Fatalf("expected resubmission action, got %s", engine.lastAction)
	}
}
