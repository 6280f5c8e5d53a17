package applications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hptourism/homestay-portal/internal/districts"
	"github.com/hptourism/homestay-portal/internal/workflow"
	"github.com/hptourism/homestay-portal/pkg/db"
	"github.com/hptourism/homestay-portal/pkg/db/models"
	"github.com/hptourism/homestay-portal/pkg/enums"
	pkgerrors "github.com/hptourism/homestay-portal/pkg/errors"
	"github.com/hptourism/homestay-portal/pkg/pagination"
)

// recentLimitWhitelist is the only set of accepted quick-list sizes; any
// other requested value falls back to the default rather than erroring.
var recentLimitWhitelist = map[int]bool{10: true, 20: true, 50: true}

const numberingRetries = 3

type applicationRepository interface {
	Create(ctx context.Context, app *models.Application) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Application, error)
	Update(ctx context.Context, app *models.Application) error
	CountForYear(ctx context.Context, year int) (int64, error)
	List(ctx context.Context, filter ListFilter) ([]models.Application, error)
	Search(ctx context.Context, filter SearchFilter) ([]models.Application, error)
}

type submissionGate interface {
	ValidateForSubmission(ctx context.Context, app *models.Application) error
}

type workflowEngine interface {
	Apply(ctx context.Context, actor workflow.Actor, input workflow.ApplyInput) (*models.Application, error)
	AllowedFor(actor workflow.Actor, app *models.Application) []enums.WorkflowAction
}

// Service exposes application CRUD, listing, search, and submission.
type Service interface {
	CreateDraft(ctx context.Context, actor workflow.Actor, input CreateInput) (*ApplicationDTO, error)
	UpdateDraft(ctx context.Context, actor workflow.Actor, id uuid.UUID, input UpdateInput) (*ApplicationDTO, error)
	Get(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*ApplicationDTO, error)
	List(ctx context.Context, actor workflow.Actor, status *enums.ApplicationStatus, page pagination.Params) (*Page, error)
	ListAll(ctx context.Context, actor workflow.Actor, status *enums.ApplicationStatus, page pagination.Params) (*Page, error)
	Search(ctx context.Context, actor workflow.Actor, filter SearchFilter) ([]*ApplicationDTO, error)
	Submit(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*ApplicationDTO, error)
}

type service struct {
	repo    applicationRepository
	gate    submissionGate
	engine  workflowEngine
	matcher *districts.Matcher
	now     func() time.Time
}

func NewService(repo applicationRepository, gate submissionGate, engine workflowEngine, matcher *districts.Matcher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("application repository required")
	}
	if gate == nil {
		return nil, fmt.Errorf("submission gate required")
	}
	if engine == nil {
		return nil, fmt.Errorf("workflow engine required")
	}
	if matcher == nil {
		return nil, fmt.Errorf("district matcher required")
	}
	return &service{
		repo:    repo,
		gate:    gate,
		engine:  engine,
		matcher: matcher,
		now:     time.Now,
	}, nil
}

func (s *service) CreateDraft(ctx context.Context, actor workflow.Actor, input CreateInput) (*ApplicationDTO, error) {
	if actor.Role != enums.UserRolePropertyOwner {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only applicants may create applications")
	}
	if err := s.validateCreate(input); err != nil {
		return nil, err
	}

	app := &models.Application{
		Category:        input.Category,
		ApplicationKind: input.ApplicationKind,
		LocationType:    input.LocationType,
		Status:          enums.ApplicationStatusDraft,
		UserID:          actor.ID,
		OwnerName:       strings.TrimSpace(input.OwnerName),
		OwnerMobile:     strings.TrimSpace(input.OwnerMobile),
		OwnerEmail:      input.OwnerEmail,
		OwnerAadhaar:    input.OwnerAadhaar,
		OwnerGender:     input.OwnerGender,
		GuardianName:    input.GuardianName,
		PropertyName:    strings.TrimSpace(input.PropertyName),
		Address:         strings.TrimSpace(input.Address),
		District:        strings.TrimSpace(input.District),
		Tehsil:          input.Tehsil,
		Block:           input.Block,
		Pincode:         input.Pincode,
		TotalRooms:      input.TotalRooms,
		RoomRate:        input.RoomRate,
		DistanceNotes:   input.DistanceNotes,
		Amenities:       input.Amenities,
	}

	// The unique index on application_number backstops the read-then-write
	// sequence; retry with a bumped sequence on collision.
	var err error
	for attempt := 0; attempt < numberingRetries; attempt++ {
		app.ApplicationNumber, err = s.nextApplicationNumber(ctx, app.District, attempt)
		if err != nil {
			return nil, err
		}
		err = s.repo.Create(ctx, app)
		if err == nil {
			return FromModel(app), nil
		}
		if !db.IsUniqueViolation(err, "idx_applications_number") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create application")
		}
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate application number")
}

func (s *service) UpdateDraft(ctx context.Context, actor workflow.Actor, id uuid.UUID, input UpdateInput) (*ApplicationDTO, error) {
	app, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	status := enums.NormalizeApplicationStatus(string(app.Status))
	editable := status == enums.ApplicationStatusDraft ||
		status == enums.ApplicationStatusSentBackForCorrections ||
		status == enums.ApplicationStatusRevertedToApplicant
	if !editable {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("application cannot be edited while %s", status))
	}

	applyUpdate(app, input)

	if err := s.repo.Update(ctx, app); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update application")
	}
	return FromModel(app), nil
}

func (s *service) Get(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*ApplicationDTO, error) {
	app, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(app)
	dto.AllowedActions = s.engine.AllowedFor(actor, app)
	return dto, nil
}

// List is the actor's default worklist: applicants see their own rows, the
// director-level roles see everything, district roles see their district.
func (s *service) List(ctx context.Context, actor workflow.Actor, status *enums.ApplicationStatus, page pagination.Params) (*Page, error) {
	filter := ListFilter{Status: status, Limit: page.Limit}

	switch {
	case actor.Role == enums.UserRolePropertyOwner:
		owner := actor.ID
		filter.OwnerID = &owner
	case actor.Role.IsDistrictScoped():
		if actor.District == nil {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "no district assigned")
		}
		filter.District = actor.District
	}

	cursor, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	filter.Cursor = cursor

	apps, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list applications")
	}
	return buildPage(apps, page.Limit), nil
}

// ListAll is the staff-wide district listing; applicants may not use it.
func (s *service) ListAll(ctx context.Context, actor workflow.Actor, status *enums.ApplicationStatus, page pagination.Params) (*Page, error) {
	if !actor.Role.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "staff only")
	}
	return s.List(ctx, actor, status, page)
}

func (s *service) Search(ctx context.Context, actor workflow.Actor, filter SearchFilter) ([]*ApplicationDTO, error) {
	if !actor.Role.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "staff only")
	}

	// Non-whitelisted quick-list sizes are ignored, not rejected.
	if !recentLimitWhitelist[filter.RecentLimit] {
		filter.RecentLimit = 0
	}

	if !searchHasCriteria(filter) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one search filter is required")
	}

	// District officers only search within their district regardless of input.
	if actor.Role.IsDistrictScoped() {
		if actor.District == nil {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "no district assigned")
		}
		filter.District = actor.District
	}

	apps, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search applications")
	}
	out := make([]*ApplicationDTO, 0, len(apps))
	for i := range apps {
		out = append(out, FromModel(&apps[i]))
	}
	return out, nil
}

// Submit moves a draft into the workflow after the document gate passes.
func (s *service) Submit(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*ApplicationDTO, error) {
	app, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	status := enums.NormalizeApplicationStatus(string(app.Status))
	action := enums.ActionApplicationSubmitted
	if status == enums.ApplicationStatusSentBackForCorrections || status == enums.ApplicationStatusRevertedToApplicant {
		action = enums.ActionCorrectionResubmitted
	}

	if err := s.gate.ValidateForSubmission(ctx, app); err != nil {
		return nil, err
	}

	updated, err := s.engine.Apply(ctx, actor, workflow.ApplyInput{
		ApplicationID: app.ID,
		Action:        action,
	})
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

func (s *service) validateCreate(input CreateInput) error {
	if !input.Category.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	if !input.ApplicationKind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid application kind")
	}
	if !input.LocationType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid location type")
	}
	if strings.TrimSpace(input.OwnerName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "owner name is required")
	}
	if strings.TrimSpace(input.OwnerMobile) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "owner mobile is required")
	}
	if strings.TrimSpace(input.PropertyName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "property name is required")
	}
	if strings.TrimSpace(input.Address) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "address is required")
	}
	if input.TotalRooms <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "total rooms must be positive")
	}
	if _, ok := s.matcher.Resolve(input.District); !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown district %q", input.District))
	}
	return nil
}

// nextApplicationNumber builds HS/<DISTCODE>/<year>/<seq>. The attempt offset
// skips past rows created between the count and the insert.
func (s *service) nextApplicationNumber(ctx context.Context, district string, attempt int) (string, error) {
	year := s.now().Year()
	count, err := s.repo.CountForYear(ctx, year)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count applications")
	}
	seq := count + 1 + int64(attempt)
	return fmt.Sprintf("HS/%s/%d/%06d", s.matcher.Code(district), year, seq), nil
}

func (s *service) loadOwned(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*models.Application, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != enums.UserRolePropertyOwner || app.UserID != actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
	}
	return app, nil
}

func (s *service) loadVisible(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*models.Application, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case actor.Role == enums.UserRolePropertyOwner:
		if app.UserID != actor.ID {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
		}
	case actor.Role.IsDistrictScoped():
		if actor.District == nil || !s.matcher.Match(app.District, *actor.District) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "application is outside your district")
		}
	}
	return app, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load application")
	}
	return app, nil
}

func searchHasCriteria(filter SearchFilter) bool {
	return filter.ApplicationNumber != nil ||
		filter.OwnerMobile != nil ||
		filter.OwnerAadhaar != nil ||
		filter.Status != nil ||
		filter.SubmittedFrom != nil ||
		filter.SubmittedTo != nil ||
		filter.RecentLimit > 0
}

func buildPage(apps []models.Application, limit int) *Page {
	normalized := pagination.NormalizeLimit(limit)
	hasMore := len(apps) > normalized
	if hasMore {
		apps = apps[:normalized]
	}

	items := make([]*ApplicationDTO, 0, len(apps))
	for i := range apps {
		items = append(items, FromModel(&apps[i]))
	}

	page := &Page{Items: items}
	if hasMore && len(apps) > 0 {
		last := apps[len(apps)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page
}

func applyUpdate(app *models.Application, input UpdateInput) {
	if input.Category != nil {
		app.Category = *input.Category
	}
	if input.LocationType != nil {
		app.LocationType = *input.LocationType
	}
	if input.OwnerName != nil {
		app.OwnerName = strings.TrimSpace(*input.OwnerName)
	}
	if input.OwnerMobile != nil {
		app.OwnerMobile = strings.TrimSpace(*input.OwnerMobile)
	}
	if input.OwnerEmail != nil {
		app.OwnerEmail = input.OwnerEmail
	}
	if input.OwnerAadhaar != nil {
		app.OwnerAadhaar = input.OwnerAadhaar
	}
	if input.OwnerGender != nil {
		app.OwnerGender = input.OwnerGender
	}
	if input.GuardianName != nil {
		app.GuardianName = input.GuardianName
	}
	if input.PropertyName != nil {
		app.PropertyName = strings.TrimSpace(*input.PropertyName)
	}
	if input.Address != nil {
		app.Address = strings.TrimSpace(*input.Address)
	}
	if input.District != nil {
		app.District = strings.TrimSpace(*input.District)
	}
	if input.Tehsil != nil {
		app.Tehsil = input.Tehsil
	}
	if input.Block != nil {
		app.Block = input.Block
	}
	if input.Pincode != nil {
		app.Pincode = input.Pincode
	}
	if input.TotalRooms != nil {
		app.TotalRooms = *input.TotalRooms
	}
	if input.RoomRate != nil {
		app.RoomRate = input.RoomRate
	}
	if input.DistanceNotes != nil {
		app.DistanceNotes = input.DistanceNotes
	}
	if input.Amenities != nil {
		app.Amenities = *input.Amenities
	}
}
