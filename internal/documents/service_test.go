package documents

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hptourism/homestay-portal/pkg/db/models"
	"github.com/hptourism/homestay-portal/pkg/enums"
	pkgerrors "github.com/hptourism/homestay-portal/pkg/errors"
)

type fakeDocRepo struct {
	docs    map[uuid.UUID]*models.Document
	byApp   map[uuid.UUID][]models.Document
	created []*models.Document
}

func newFakeDocRepo() *fakeDocRepo {
	return &fakeDocRepo{
		docs:  map[uuid.UUID]*models.Document{},
		byApp: map[uuid.UUID][]models.Document{},
	}
}

func (f *fakeDocRepo) Create(_ context.Context, doc *models.Document) error {
	doc.ID = uuid.New()
	f.created = append(f.created, doc)
	f.docs[doc.ID] = doc
	f.byApp[doc.ApplicationID] = append(f.byApp[doc.ApplicationID], *doc)
	return nil
}

func (f *fakeDocRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return doc, nil
}

func (f *fakeDocRepo) ListByApplication(_ context.Context, appID uuid.UUID) ([]models.Document, error) {
	return f.byApp[appID], nil
}

func (f *fakeDocRepo) CountByType(_ context.Context, appID uuid.UUID, docType string) (int64, error) {
	var n int64
	for _, d := range f.byApp[appID] {
		if string(d.DocumentType) == docType {
			n++
		}
	}
	return n, nil
}

func (f *fakeDocRepo) Update(_ context.Context, doc *models.Document) error {
	f.docs[doc.ID] = doc
	return nil
}

type fakeAppLoader struct {
	apps map[uuid.UUID]*models.Application
}

func (f *fakeAppLoader) FindByID(_ context.Context, id uuid.UUID) (*models.Application, error) {
	app, ok := f.apps[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return app, nil
}

func draftApplication(ownerID uuid.UUID) *models.Application {
	return &models.Application{
		ID:              uuid.New(),
		Category:        enums.CategorySilver,
		ApplicationKind: enums.ApplicationKindNewRegistration,
		Status:          enums.ApplicationStatusDraft,
		UserID:          ownerID,
		District:        "Mandi",
	}
}

func newDocService(t *testing.T, repo *fakeDocRepo, apps *fakeAppLoader) Service {
	t.Helper()
	svc, err := NewService(repo, apps)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestUploadOnDraft(t *testing.T) {
	owner := uuid.New()
	app := draftApplication(owner)
	repo := newFakeDocRepo()
	svc := newDocService(t, repo, &fakeAppLoader{apps: map[uuid.UUID]*models.Application{app.ID: app}})

	doc, err := svc.Upload(context.Background(), owner, enums.UserRolePropertyOwner, UploadInput{
		ApplicationID: app.ID,
		DocumentType:  enums.DocumentTypeAadhaarCard,
		FilePath:      "uploads/aadhaar.pdf",
		FileName:      "aadhaar.pdf",
		SizeBytes:     120000,
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if doc.VerificationStatus != enums.DocVerificationPending {
		t.Fatalf("new document should be pending, got %s", doc.VerificationStatus)
	}
}

func TestUploadRejectedAfterSubmission(t *testing.T) {
	owner := uuid.New()
	app := draftApplication(owner)
	app.Status = enums.ApplicationStatusUnderScrutiny
	svc := newDocService(t, newFakeDocRepo(), &fakeAppLoader{apps: map[uuid.UUID]*models.Application{app.ID: app}})

	_, err := svc.Upload(context.Background(), owner, enums.UserRolePropertyOwner, UploadInput{
		ApplicationID: app.ID,
		DocumentType:  enums.DocumentTypeAadhaarCard,
		FilePath:      "uploads/aadhaar.pdf",
		FileName:      "aadhaar.pdf",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestUploadCountLimit(t *testing.T) {
	owner := uuid.New()
	app := draftApplication(owner)
	repo := newFakeDocRepo()
	svc := newDocService(t, repo, &fakeAppLoader{apps: map[uuid.UUID]*models.Application{app.ID: app}})

	for i := 0; i < 2; i++ {
		_, err := svc.Upload(context.Background(), owner, enums.UserRolePropertyOwner, UploadInput{
			ApplicationID: app.ID,
			DocumentType:  enums.DocumentTypeAffidavit,
			FilePath:      "uploads/affidavit.pdf",
			FileName:      "affidavit.pdf",
		})
		if err != nil {
			t.Fatalf("upload %d: %v", i, err)
		}
	}

	_, err := svc.Upload(context.Background(), owner, enums.UserRolePropertyOwner, UploadInput{
		ApplicationID: app.ID,
		DocumentType:  enums.DocumentTypeAffidavit,
		FilePath:      "uploads/affidavit.pdf",
		FileName:      "affidavit.pdf",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error on third affidavit, got %v", err)
	}
}

func TestUploadStrangerGetsNotFound(t *testing.T) {
	app := draftApplication(uuid.New())
	svc := newDocService(t, newFakeDocRepo(), &fakeAppLoader{apps: map[uuid.UUID]*models.Application{app.ID: app}})

	_, err := svc.Upload(context.Background(), uuid.New(), enums.UserRolePropertyOwner, UploadInput{
		ApplicationID: app.ID,
		DocumentType:  enums.DocumentTypeAadhaarCard,
		FilePath:      "uploads/a.pdf",
		FileName:      "a.pdf",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestVerifyRequiresStaff(t *testing.T) {
	svc := newDocService(t, newFakeDocRepo(), &fakeAppLoader{apps: map[uuid.UUID]*models.Application{}})

	_, err := svc.Verify(context.Background(), uuid.New(), enums.UserRolePropertyOwner, VerifyInput{
		DocumentID: uuid.New(),
		Status:     enums.DocVerificationVerified,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestVerifyStampsReviewer(t *testing.T) {
	owner := uuid.New()
	app := draftApplication(owner)
	repo := newFakeDocRepo()
	svc := newDocService(t, repo, &fakeAppLoader{apps: map[uuid.UUID]*models.Application{app.ID: app}})

	doc, err := svc.Upload(context.Background(), owner, enums.UserRolePropertyOwner, UploadInput{
		ApplicationID: app.ID,
		DocumentType:  enums.DocumentTypeOwnershipProof,
		FilePath:      "uploads/jamabandi.pdf",
		FileName:      "jamabandi.pdf",
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	reviewer := uuid.New()
	notes := "jamabandi matches owner name"
	verified, err := svc.Verify(context.Background(), reviewer, enums.UserRoleDealingAssistant, VerifyInput{
		DocumentID: doc.ID,
		Status:     enums.DocVerificationVerified,
		Notes:      &notes,
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if verified.VerifiedByID == nil || *verified.VerifiedByID != reviewer {
		t.Fatalf("reviewer not stamped")
	}
	if verified.VerifiedAt == nil {
		t.Fatalf("verification time not stamped")
	}
}

func TestPolicyValidateMissingRequired(t *testing.T) {
	policy := PolicyFor(enums.ApplicationKindNewRegistration, enums.CategorySilver)

	err := policy.Validate([]models.Document{
		{DocumentType: enums.DocumentTypeAadhaarCard},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map")
	}
	missing, ok := details["missing_documents"].([]string)
	if !ok || len(missing) == 0 {
		t.Fatalf("expected missing document list, got %v", details)
	}
}

func TestPolicyDiamondRequiresFireNOC(t *testing.T) {
	policy := PolicyFor(enums.ApplicationKindNewRegistration, enums.CategoryDiamond)

	base := []models.Document{
		{DocumentType: enums.DocumentTypeOwnershipProof},
		{DocumentType: enums.DocumentTypeAadhaarCard},
		{DocumentType: enums.DocumentTypePhotographs},
		{DocumentType: enums.DocumentTypeHimachaliBonafide},
		{DocumentType: enums.DocumentTypeAffidavit},
		{DocumentType: enums.DocumentTypeBuildingPlan},
	}
	if err := policy.Validate(base); err == nil {
		t.Fatalf("diamond without fire NOC must fail")
	}

	complete := append(base, models.Document{DocumentType: enums.DocumentTypeFireNOC})
	if err := policy.Validate(complete); err != nil {
		t.Fatalf("complete diamond set should pass, got %v", err)
	}
}

func TestPolicyExistingRCOnboardingRequiresRC(t *testing.T) {
	policy := PolicyFor(enums.ApplicationKindExistingRCOnboarding, enums.CategorySilver)

	set := []models.Document{
		{DocumentType: enums.DocumentTypeOwnershipProof},
		{DocumentType: enums.DocumentTypeAadhaarCard},
		{DocumentType: enums.DocumentTypePhotographs},
		{DocumentType: enums.DocumentTypeHimachaliBonafide},
		{DocumentType: enums.DocumentTypeAffidavit},
	}
	if err := policy.Validate(set); err == nil {
		t.Fatalf("onboarding without existing RC must fail")
	}

	set = append(set, models.Document{DocumentType: enums.DocumentTypeExistingRC})
	if err := policy.Validate(set); err != nil {
		t.Fatalf("complete onboarding set should pass, got %v", err)
	}
}
