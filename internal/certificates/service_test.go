package certificates

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hptourism/homestay-portal/internal/workflow"
	"github.com/hptourism/homestay-portal/pkg/config"
	"github.com/hptourism/homestay-portal/pkg/db/models"
	"github.com/hptourism/homestay-portal/pkg/enums"
	pkgerrors "github.com/hptourism/homestay-portal/pkg/errors"
	"gorm.io/gorm"
)

func testSchedule(t *testing.T) *FeeSchedule {
	t.Helper()
	schedule, err := NewFeeSchedule(config.FeesConfig{
		DiamondBase:   "12000",
		GoldBase:      "8000",
		SilverBase:    "3000",
		RuralRebatePC: "50",
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	return schedule
}

func TestQuoteRuralRebate(t *testing.T) {
	schedule := testSchedule(t)

	quote, err := schedule.Quote(enums.CategoryGold, enums.LocationTypeRural)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if !quote.Base.Equal(decimal.NewFromInt(8000)) {
		t.Fatalf("base %s", quote.Base)
	}
	if !quote.Discount.Equal(decimal.NewFromInt(4000)) {
		t.Fatalf("discount %s", quote.Discount)
	}
	if !quote.Total.Equal(decimal.NewFromInt(4000)) {
		t.Fatalf("total %s", quote.Total)
	}
}

func TestQuoteUrbanFullFee(t *testing.T) {
	schedule := testSchedule(t)

	quote, err := schedule.Quote(enums.CategoryDiamond, enums.LocationTypeUrban)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if !quote.Discount.IsZero() {
		t.Fatalf("urban properties get no rebate, got %s", quote.Discount)
	}
	if !quote.Total.Equal(decimal.NewFromInt(12000)) {
		t.Fatalf("total %s", quote.Total)
	}
}

func TestNewFeeScheduleRejectsBadConfig(t *testing.T) {
	_, err := NewFeeSchedule(config.FeesConfig{
		DiamondBase:   "twelve",
		GoldBase:      "8000",
		SilverBase:    "3000",
		RuralRebatePC: "50",
	})
	if err == nil {
		t.Fatal("expected parse error")
	}

	_, err = NewFeeSchedule(config.FeesConfig{
		DiamondBase:   "12000",
		GoldBase:      "8000",
		SilverBase:    "3000",
		RuralRebatePC: "150",
	})
	if err == nil {
		t.Fatal("expected range error")
	}
}

type fakeLoader struct {
	app *models.Application
}

func (f *fakeLoader) FindByID(_ context.Context, id uuid.UUID) (*models.Application, error) {
	if f.app == nil || f.app.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return f.app, nil
}

type fakeEngine struct {
	lastInput workflow.ApplyInput
	app       *models.Application
	err       error
}

func (f *fakeEngine) Apply(_ context.Context, _ workflow.Actor, input workflow.ApplyInput) (*models.Application, error) {
	f.lastInput = input
	if f.err != nil {
		return nil, f.err
	}
	return f.app, nil
}

func approvedApplication() *models.Application {
	return &models.Application{
		ID:                uuid.New(),
		ApplicationNumber: "HS/SML/2026/000042",
		Status:            enums.ApplicationStatusApproved,
		UserID:            uuid.New(),
		OwnerName:         "Asha Devi",
		PropertyName:      "Deodar View",
		District:          "Shimla",
		Category:          enums.CategoryGold,
	}
}

func TestIssueStampsCertificateThroughWorkflow(t *testing.T) {
	app := approvedApplication()
	loader := &fakeLoader{app: app}

	issuedAt := time.Now()
	expiresAt := issuedAt.AddDate(ValidityYears, 0, 0)
	number := "HSRC/SML/2026/000042"
	issued := *app
	issued.CertificateNumber = &number
	issued.CertificateIssuedAt = &issuedAt
	issued.CertificateExpiresAt = &expiresAt

	engine := &fakeEngine{app: &issued}
	svc, err := NewService(loader, engine)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	state := workflow.Actor{ID: uuid.New(), Role: enums.UserRoleStateOfficer}
	cert, err := svc.Issue(context.Background(), state, app.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if engine.lastInput.Action != enums.ActionCertificateIssued {
		t.Fatalf("action %s", engine.lastInput.Action)
	}
	if engine.lastInput.Extra["certificate_number"] != number {
		t.Fatalf("extra number %v", engine.lastInput.Extra["certificate_number"])
	}
	if cert.CertificateNumber != number {
		t.Fatalf("certificate number %s", cert.CertificateNumber)
	}
	if cert.ExpiresAt.Year()-cert.IssuedAt.Year() != ValidityYears {
		t.Fatalf("validity %s to %s", cert.IssuedAt, cert.ExpiresAt)
	}
}

func TestIssueTwiceConflicts(t *testing.T) {
	app := approvedApplication()
	number := "HSRC/SML/2026/000042"
	app.CertificateNumber = &number

	svc, err := NewService(&fakeLoader{app: app}, &fakeEngine{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	state := workflow.Actor{ID: uuid.New(), Role: enums.UserRoleStateOfficer}
	_, err = svc.Issue(context.Background(), state, app.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestGetHidesOtherOwnersCertificates(t *testing.T) {
	app := approvedApplication()
	now := time.Now()
	number := "HSRC/SML/2026/000042"
	app.CertificateNumber = &number
	app.CertificateIssuedAt = &now
	app.CertificateExpiresAt = &now

	svc, err := NewService(&fakeLoader{app: app}, &fakeEngine{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	stranger := workflow.Actor{ID: uuid.New(), Role: enums.UserRolePropertyOwner}
	_, err = svc.Get(context.Background(), stranger, app.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	owner := workflow.Actor{ID: app.UserID, Role: enums.UserRolePropertyOwner}
	cert, err := svc.Get(context.Background(), owner, app.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cert.CertificateNumber != number {
		t.Fatalf("certificate number %s", cert.CertificateNumber)
	}
}

func TestGetUnissuedNotFound(t *testing.T) {
	app := approvedApplication()
	svc, err := NewService(&fakeLoader{app: app}, &fakeEngine{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	owner := workflow.Actor{ID: app.UserID, Role: enums.UserRolePropertyOwner}
	_, err = svc.Get(context.Background(), owner, app.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCertificateNumberDerivation(t *testing.T) {
	if got := CertificateNumber("HS/KGR/2026/000007"); got != "HSRC/KGR/2026/000007" {
		t.Fatalf("got %s", got)
	}
}
