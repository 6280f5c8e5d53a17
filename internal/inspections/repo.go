package inspections

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hptourism/homestay-portal/pkg/db/models"
)

// Repository handles inspection report persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, report *models.InspectionReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *Repository) FindLatestByApplication(ctx context.Context, applicationID uuid.UUID) (*models.InspectionReport, error) {
	var report models.InspectionReport
	if err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at DESC").
		First(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *Repository) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]models.InspectionReport, error) {
	var reports []models.InspectionReport
	if err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at ASC").
		Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *Repository) Update(ctx context.Context, report *models.InspectionReport) error {
	if report == nil {
		return gorm.ErrInvalidValue
	}
	return r.db.WithContext(ctx).Save(report).Error
}
