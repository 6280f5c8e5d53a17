package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hptourism/homestay-portal/internal/districts"
	"github.com/hptourism/homestay-portal/pkg/config"
	"github.com/hptourism/homestay-portal/pkg/db"
	"github.com/hptourism/homestay-portal/pkg/db/models"
	"github.com/hptourism/homestay-portal/pkg/enums"
	pkgerrors "github.com/hptourism/homestay-portal/pkg/errors"
	"github.com/hptourism/homestay-portal/pkg/security"
)

const (
	minPasswordLen  = 8
	tempPasswordLen = 12
)

type userRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// RegisterInput is the public applicant signup form.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Mobile   *string
}

// ProvisionInput is the admin form for creating staff accounts.
type ProvisionInput struct {
	Email       string
	FullName    string
	Mobile      *string
	Role        enums.UserRole
	District    *string
	Designation *string
}

// ProvisionResult carries the one-time temporary password back to the admin.
type ProvisionResult struct {
	User         *UserDTO
	TempPassword string
}

// UserDTO is the account projection returned to clients. The password hash
// never leaves this package.
type UserDTO struct {
	ID          uuid.UUID      `json:"id"`
	Email       string         `json:"email"`
	FullName    string         `json:"fullName"`
	Mobile      *string        `json:"mobile,omitempty"`
	Role        enums.UserRole `json:"role"`
	District    *string        `json:"district,omitempty"`
	Designation *string        `json:"designation,omitempty"`
	IsActive    bool           `json:"isActive"`
	LastLoginAt *time.Time     `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// Service manages accounts: applicant signup, staff provisioning, profiles.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*UserDTO, error)
	Provision(ctx context.Context, actorRole enums.UserRole, input ProvisionInput) (*ProvisionResult, error)
	Profile(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error
	Deactivate(ctx context.Context, actorRole enums.UserRole, userID uuid.UUID) error
}

type service struct {
	repo    userRepository
	matcher *districts.Matcher
	pwCfg   config.PasswordConfig
}

func NewService(repo userRepository, matcher *districts.Matcher, pwCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if matcher == nil {
		return nil, fmt.Errorf("district matcher required")
	}
	return &service{repo: repo, matcher: matcher, pwCfg: pwCfg}, nil
}

// Register creates an applicant account. Staff accounts only come from
// Provision.
func (s *service) Register(ctx context.Context, input RegisterInput) (*UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.FullName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}
	if len(input.Password) < minPasswordLen {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}

	hash, err := security.HashPassword(input.Password, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(input.FullName),
		Mobile:       input.Mobile,
		Role:         enums.UserRolePropertyOwner,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "idx_users_email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return fromUser(user), nil
}

// Provision creates a staff account with a generated temporary password. The
// admin relays the password out of band; it is returned exactly once.
func (s *service) Provision(ctx context.Context, actorRole enums.UserRole, input ProvisionInput) (*ProvisionResult, error) {
	if actorRole != enums.UserRoleAdmin && actorRole != enums.UserRoleSuperAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin only")
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.FullName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}
	if !input.Role.IsValid() || input.Role == enums.UserRolePropertyOwner {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("cannot provision role %q", input.Role))
	}
	if input.Role == enums.UserRoleSuperAdmin && actorRole != enums.UserRoleSuperAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only a super admin may provision super admins")
	}

	if input.Role.IsDistrictScoped() {
		if input.District == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "district is required for district roles")
		}
		canonical, ok := s.matcher.Resolve(*input.District)
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown district %q", *input.District))
		}
		input.District = &canonical
	} else {
		input.District = nil
	}

	tempPassword, err := security.GenerateTempPassword(tempPasswordLen)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate temp password")
	}
	hash, err := security.HashPassword(tempPassword, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(input.FullName),
		Mobile:       input.Mobile,
		Role:         input.Role,
		District:     input.District,
		Designation:  input.Designation,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "idx_users_email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	return &ProvisionResult{User: fromUser(user), TempPassword: tempPassword}, nil
}

func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return fromUser(user), nil
}

func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := security.VerifyPassword(current, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "current password is incorrect")
	}
	if len(next) < minPasswordLen {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	if next == current {
		return pkgerrors.New(pkgerrors.CodeValidation, "new password must differ from the current one")
	}

	hash, err := security.HashPassword(next, s.pwCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	user.PasswordHash = hash
	if err := s.repo.Update(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
	}
	return nil
}

// Deactivate disables an account. Rows are kept for the audit trail.
func (s *service) Deactivate(ctx context.Context, actorRole enums.UserRole, userID uuid.UUID) error {
	if actorRole != enums.UserRoleAdmin && actorRole != enums.UserRoleSuperAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin only")
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role == enums.UserRoleSuperAdmin && actorRole != enums.UserRoleSuperAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only a super admin may deactivate super admins")
	}
	if !user.IsActive {
		return nil
	}

	user.IsActive = false
	if err := s.repo.Update(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate user")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func validateEmail(email string) error {
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || !strings.Contains(email[at:], ".") {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid email address")
	}
	return nil
}

func fromUser(user *models.User) *UserDTO {
	return &UserDTO{
		ID:          user.ID,
		Email:       user.Email,
		FullName:    user.FullName,
		Mobile:      user.Mobile,
		Role:        user.Role,
		District:    user.District,
		Designation: user.Designation,
		IsActive:    user.IsActive,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}
