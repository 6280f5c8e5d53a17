package actions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hptourism/homestay-portal/pkg/db/models"
)

// Repository handles audit row persistence. Rows are insert-only; there are
// deliberately no update or delete methods.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// InsertWithTx appends an audit row inside the caller's transaction.
func (r *Repository) InsertWithTx(tx *gorm.DB, action *models.ApplicationAction) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Create(action).Error
}

// ListByApplication returns the full timeline ordered oldest first. Insertion
// id breaks created_at ties so same-instant rows keep a stable order.
func (r *Repository) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]models.ApplicationAction, error) {
	var rows []models.ApplicationAction
	if err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByApplicationWithActors joins actor display fields onto each row.
func (r *Repository) ListByApplicationWithActors(ctx context.Context, applicationID uuid.UUID) ([]TimelineRow, error) {
	var rows []TimelineRow
	if err := r.db.WithContext(ctx).
		Table("application_actions").
		Select("application_actions.*, users.full_name AS actor_name, users.role AS actor_role").
		Joins("LEFT JOIN users ON users.id = application_actions.actor_id").
		Where("application_actions.application_id = ?", applicationID).
		Order("application_actions.created_at ASC, application_actions.id ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// TimelineRow is an audit row with actor display fields joined on.
type TimelineRow struct {
	models.ApplicationAction
	ActorName string `gorm:"column:actor_name"`
	ActorRole string `gorm:"column:actor_role"`
}
