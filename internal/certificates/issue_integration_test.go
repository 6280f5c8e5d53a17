package certificates

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hptourism/homestay-portal/internal/actions"
	"github.com/hptourism/homestay-portal/internal/districts"
	"github.com/hptourism/homestay-portal/internal/workflow"
	"github.com/hptourism/homestay-portal/pkg/config"
	"github.com/hptourism/homestay-portal/pkg/db/models"
	"github.com/hptourism/homestay-portal/pkg/enums"
	"github.com/hptourism/homestay-portal/pkg/logger"
)

func setupIssueTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:certissue?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	stmts := []string{`
CREATE TABLE IF NOT EXISTS applications (
  id TEXT PRIMARY KEY,
  application_number TEXT NOT NULL,
  category TEXT NOT NULL,
  application_kind TEXT NOT NULL,
  location_type TEXT NOT NULL DEFAULT 'rural',
  status TEXT NOT NULL DEFAULT 'draft',
  current_stage TEXT,
  submitted_at DATETIME,
  approved_at DATETIME,
  rejection_reason TEXT,
  clarification_requested TEXT,
  user_id TEXT NOT NULL,
  owner_name TEXT NOT NULL,
  owner_mobile TEXT NOT NULL,
  owner_email TEXT,
  owner_aadhaar TEXT,
  owner_gender TEXT,
  guardian_name TEXT,
  property_name TEXT NOT NULL,
  address TEXT NOT NULL,
  district TEXT NOT NULL,
  tehsil TEXT,
  block TEXT,
  pincode TEXT,
  total_rooms INTEGER NOT NULL DEFAULT 0,
  room_rate TEXT,
  distance_notes TEXT,
  amenities TEXT,
  district_review_date DATETIME,
  site_inspection_scheduled_date DATETIME,
  site_inspection_completed_date DATETIME,
  site_inspection_outcome TEXT,
  site_inspection_notes TEXT,
  site_inspection_findings TEXT,
  certificate_number TEXT,
  certificate_issued_at DATETIME,
  certificate_expires_at DATETIME,
  base_fee TEXT,
  fee_discount TEXT,
  total_fee TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS application_actions (
  id TEXT PRIMARY KEY,
  application_id TEXT NOT NULL,
  actor_id TEXT NOT NULL,
  action TEXT NOT NULL,
  previous_status TEXT NOT NULL,
  new_status TEXT NOT NULL,
  feedback TEXT,
  issues_found TEXT,
  created_at DATETIME
);`}

	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

type dbTxRunner struct{ db *gorm.DB }

func (r dbTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type dbLoader struct{ db *gorm.DB }

func (l dbLoader) FindByID(_ context.Context, id uuid.UUID) (*models.Application, error) {
	var app models.Application
	if err := l.db.First(&app, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

// Issue must return the stamped certificate when driven by the real engine,
// not just when a stub hands back a pre-filled application.
func TestIssueWithRealEngineReturnsStampedCertificate(t *testing.T) {
	db := setupIssueTestDB(t)

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	matcher := districts.NewMatcher(config.DistrictsConfig{
		StopWords:   []string{"district", "division", "hq"},
		MinTokenLen: 3,
	})
	engine, err := workflow.NewService(dbTxRunner{db: db}, actions.NewRepository(db), nil, matcher, nil, logg)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}

	svc, err := NewService(dbLoader{db: db}, engine)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	app := &models.Application{
		ApplicationNumber: "HS/SML/2026/000042",
		Category:          enums.CategoryGold,
		ApplicationKind:   enums.ApplicationKindNewRegistration,
		LocationType:      enums.LocationTypeRural,
		Status:            enums.ApplicationStatusApproved,
		UserID:            uuid.New(),
		OwnerName:         "Asha Devi",
		OwnerMobile:       "9876500000",
		PropertyName:      "Deodar View",
		Address:           "Village Mashobra",
		District:          "Shimla",
		TotalRooms:        3,
	}
	if err := db.Create(app).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	state := workflow.Actor{ID: uuid.New(), Role: enums.UserRoleStateOfficer}
	cert, err := svc.Issue(context.Background(), state, app.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if cert.CertificateNumber != "HSRC/SML/2026/000042" {
		t.Fatalf("certificate number %s", cert.CertificateNumber)
	}
	if cert.IssuedAt.IsZero() || cert.ExpiresAt.IsZero() {
		t.Fatalf("timestamps missing: issued %v expires %v", cert.IssuedAt, cert.ExpiresAt)
	}

	// The committed row carries the same stamps.
	var reloaded models.Application
	if err := db.First(&reloaded, "id = ?", app.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.CertificateNumber == nil || *reloaded.CertificateNumber != cert.CertificateNumber {
		t.Fatalf("row not stamped: %v", reloaded.CertificateNumber)
	}
	if reloaded.CertificateIssuedAt == nil || reloaded.CertificateExpiresAt == nil {
		t.Fatal("certificate timestamps not stamped on row")
	}

	// A second issue is a conflict, not a retry loop.
	_, err = svc.Issue(context.Background(), state, app.ID)
	if err == nil {
		t.Fatal("expected conflict on second issue")
	}
}
