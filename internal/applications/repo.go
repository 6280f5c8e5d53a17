package applications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hptourism/homestay-portal/internal/districts"
	"github.com/hptourism/homestay-portal/pkg/db/models"
	"github.com/hptourism/homestay-portal/pkg/enums"
	"github.com/hptourism/homestay-portal/pkg/pagination"
)

// Repository handles application persistence.
type Repository struct {
	db      *gorm.DB
	matcher *districts.Matcher
}

func NewRepository(db *gorm.DB, matcher *districts.Matcher) *Repository {
	return &Repository{db: db, matcher: matcher}
}

func (r *Repository) Create(ctx context.Context, app *models.Application) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	var app models.Application
	if err := r.db.WithContext(ctx).First(&app, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *Repository) Update(ctx context.Context, app *models.Application) error {
	if app == nil {
		return gorm.ErrInvalidValue
	}
	return r.db.WithContext(ctx).Save(app).Error
}

// CountForYear feeds the sequence component of new application numbers.
func (r *Repository) CountForYear(ctx context.Context, year int) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("application_number LIKE ?", fmt.Sprintf("HS/%%/%d/%%", year)).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListFilter narrows role-scoped listings.
type ListFilter struct {
	OwnerID  *uuid.UUID
	District *string
	Status   *enums.ApplicationStatus
	Cursor   *pagination.Cursor
	Limit    int
}

// List returns applications ordered newest first with cursor pagination.
// District scoping uses the fuzzy token filter so suffixed values still match.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Application, error) {
	q := r.db.WithContext(ctx).Model(&models.Application{})

	if filter.OwnerID != nil {
		q = q.Where("user_id = ?", *filter.OwnerID)
	}
	if filter.District != nil {
		q = r.matcher.ScopeQuery(q, "district", *filter.District)
	}
	if filter.Status != nil {
		// Rows migrated from the old portal may still carry alias values.
		q = q.Where("status IN ?", enums.StatusAliasSet(*filter.Status))
	}
	if filter.Cursor != nil {
		q = q.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt, filter.Cursor.CreatedAt, filter.Cursor.ID,
		)
	}

	limit := pagination.NormalizeLimit(filter.Limit)

	var apps []models.Application
	if err := q.Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(limit)).
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

// SearchFilter is the staff search surface. At least one criterion must be
// set; the service enforces that before reaching here.
type SearchFilter struct {
	ApplicationNumber *string
	OwnerMobile       *string
	OwnerAadhaar      *string
	Status            *enums.ApplicationStatus
	SubmittedFrom     *time.Time
	SubmittedTo       *time.Time
	District          *string
	RecentLimit       int
}

func (r *Repository) Search(ctx context.Context, filter SearchFilter) ([]models.Application, error) {
	q := r.db.WithContext(ctx).Model(&models.Application{})

	if filter.ApplicationNumber != nil {
		q = q.Where("application_number = ?", *filter.ApplicationNumber)
	}
	if filter.OwnerMobile != nil {
		q = q.Where("owner_mobile = ?", *filter.OwnerMobile)
	}
	if filter.OwnerAadhaar != nil {
		q = q.Where("owner_aadhaar = ?", *filter.OwnerAadhaar)
	}
	if filter.Status != nil {
		q = q.Where("status IN ?", enums.StatusAliasSet(*filter.Status))
	}
	if filter.SubmittedFrom != nil {
		q = q.Where("submitted_at >= ?", *filter.SubmittedFrom)
	}
	if filter.SubmittedTo != nil {
		q = q.Where("submitted_at <= ?", *filter.SubmittedTo)
	}
	if filter.District != nil {
		q = r.matcher.ScopeQuery(q, "district", *filter.District)
	}

	limit := filter.RecentLimit
	if limit <= 0 {
		limit = pagination.DefaultLimit
	}

	var apps []models.Application
	if err := q.Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}
