package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hptourism/homestay-portal/pkg/db/models"
)

// Repository handles payment transaction persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, txn *models.PaymentTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *Repository) FindByChallanRef(ctx context.Context, challanRef string) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	if err := r.db.WithContext(ctx).First(&txn, "challan_ref = ?", challanRef).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *Repository) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]models.PaymentTransaction, error) {
	var txns []models.PaymentTransaction
	if err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at DESC").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *Repository) Update(ctx context.Context, txn *models.PaymentTransaction) error {
	if txn == nil {
		return gorm.ErrInvalidValue
	}
	return r.db.WithContext(ctx).Save(txn).Error
}
