package users

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hptourism/homestay-portal/internal/districts"
	"github.com/hptourism/homestay-portal/pkg/config"
	"github.com/hptourism/homestay-portal/pkg/db/models"
	"github.com/hptourism/homestay-portal/pkg/enums"
	pkgerrors "github.com/hptourism/homestay-portal/pkg/errors"
	"github.com/hptourism/homestay-portal/pkg/security"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]*models.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return fmt.Errorf("duplicate key value violates unique constraint \"idx_users_email\"")
		}
	}
	user.ID = uuid.New()
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range f.users {
		if user.Email == strings.ToLower(email) {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	f.users[user.ID] = user
	return nil
}

func testPasswordConfig() config.PasswordConfig {
	// Minimal argon cost so tests stay fast.
	return config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func newUserService(t *testing.T, repo *fakeUserRepo) Service {
	t.Helper()
	matcher := districts.NewMatcher(config.DistrictsConfig{
		StopWords:   []string{"district", "division", "hq", "office", "tourism"},
		MinTokenLen: 3,
	})
	svc, err := NewService(repo, matcher, testPasswordConfig())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestRegisterCreatesApplicantAccount(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newUserService(t, repo)

	dto, err := svc.Register(context.Background(), RegisterInput{
		Email:    "Asha.Devi@Example.org",
		Password: "monsoon-roof-8",
		FullName: "Asha Devi",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if dto.Email != "asha.devi@example.org" {
		t.Fatalf("email not normalized: %s", dto.Email)
	}
	if dto.Role != enums.UserRolePropertyOwner {
		t.Fatalf("signup must create applicants, got %s", dto.Role)
	}

	stored := repo.users[dto.ID]
	if stored.PasswordHash == "monsoon-roof-8" {
		t.Fatalf("password stored in the clear")
	}
	ok, err := security.VerifyPassword("monsoon-roof-8", stored.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("hash does not verify: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newUserService(t, newFakeUserRepo())

	cases := []RegisterInput{
		{Email: "", Password: "monsoon-roof-8", FullName: "Asha"},
		{Email: "nodomain", Password: "monsoon-roof-8", FullName: "Asha"},
		{Email: "a@b.co", Password: "short", FullName: "Asha"},
		{Email: "a@b.co", Password: "monsoon-roof-8", FullName: "  "},
	}
	for _, input := range cases {
		_, err := svc.Register(context.Background(), input)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("input %+v: expected validation error, got %v", input, err)
		}
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	svc := newUserService(t, newFakeUserRepo())

	input := RegisterInput{Email: "a@b.co", Password: "monsoon-roof-8", FullName: "Asha"}
	if _, err := svc.Register(context.Background(), input); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(context.Background(), input)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestProvisionStaffWithDistrict(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newUserService(t, repo)

	district := "Shimla District Tourism Office"
	result, err := svc.Provision(context.Background(), enums.UserRoleAdmin, ProvisionInput{
		Email:    "da.shimla@hp.gov.in",
		FullName: "Ram Lal",
		Role:     enums.UserRoleDealingAssistant,
		District: &district,
	})
	if err != nil {
		t.Fatalf("provision: %v", err)
	}

	if result.TempPassword == "" {
		t.Fatalf("temp password missing")
	}
	if result.User.District == nil || *result.User.District != "Shimla" {
		t.Fatalf("district not canonicalized: %v", result.User.District)
	}

	stored := repo.users[result.User.ID]
	ok, err := security.VerifyPassword(result.TempPassword, stored.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("temp password does not verify: %v", err)
	}
}

func TestProvisionGuards(t *testing.T) {
	svc := newUserService(t, newFakeUserRepo())
	district := "Shimla"

	// Non-admin actor.
	_, err := svc.Provision(context.Background(), enums.UserRoleStateOfficer, ProvisionInput{
		Email: "x@hp.gov.in", FullName: "X", Role: enums.UserRoleDealingAssistant, District: &district,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	// Applicant role cannot be provisioned.
	_, err = svc.Provision(context.Background(), enums.UserRoleAdmin, ProvisionInput{
		Email: "x@hp.gov.in", FullName: "X", Role: enums.UserRolePropertyOwner,
	})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	// District role without a district.
	_, err = svc.Provision(context.Background(), enums.UserRoleAdmin, ProvisionInput{
		Email: "x@hp.gov.in", FullName: "X", Role: enums.UserRoleDistrictTourismOfficer,
	})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	// Only super admins mint super admins.
	_, err = svc.Provision(context.Background(), enums.UserRoleAdmin, ProvisionInput{
		Email: "x@hp.gov.in", FullName: "X", Role: enums.UserRoleSuperAdmin,
	})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestProvisionStateRoleDropsDistrict(t *testing.T) {
	svc := newUserService(t, newFakeUserRepo())

	district := "Shimla"
	result, err := svc.Provision(context.Background(), enums.UserRoleAdmin, ProvisionInput{
		Email:    "so@hp.gov.in",
		FullName: "S O",
		Role:     enums.UserRoleStateOfficer,
		District: &district,
	})
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if result.User.District != nil {
		t.Fatalf("state roles must not carry a district")
	}
}

func TestChangePassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newUserService(t, repo)

	dto, err := svc.Register(context.Background(), RegisterInput{
		Email: "a@b.co", Password: "monsoon-roof-8", FullName: "Asha",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	// Wrong current password.
	err = svc.ChangePassword(context.Background(), dto.ID, "wrong-password", "winter-snow-99")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	// Same password rejected.
	err = svc.ChangePassword(context.Background(), dto.ID, "monsoon-roof-8", "monsoon-roof-8")
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	if err := svc.ChangePassword(context.Background(), dto.ID, "monsoon-roof-8", "winter-snow-99"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	ok, err := security.VerifyPassword("winter-snow-99", repo.users[dto.ID].PasswordHash)
	if err != nil || !ok {
		t.Fatalf("new password does not verify: %v", err)
	}
}

func TestDeactivate(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newUserService(t, repo)

	dto, err := svc.Register(context.Background(), RegisterInput{
		Email: "a@b.co", Password: "monsoon-roof-8", FullName: "Asha",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	err = svc.Deactivate(context.Background(), enums.UserRolePropertyOwner, dto.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	if err := svc.Deactivate(context.Background(), enums.UserRoleAdmin, dto.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if repo.users[dto.ID].IsActive {
		t.Fatalf("account still active")
	}

	// Idempotent.
	if err := svc.Deactivate(context.Background(), enums.UserRoleAdmin, dto.ID); err != nil {
		t.Fatalf("second deactivate: %v", err)
	}
}
