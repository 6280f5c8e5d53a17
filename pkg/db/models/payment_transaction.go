package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hptourism/homestay-portal/pkg/enums"
)

// PaymentTransaction correlates a HimKosh treasury session with an application.
type PaymentTransaction struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ApplicationID uuid.UUID `gorm:"type:uuid;not null;index"`

	ChallanRef     string              `gorm:"column:challan_ref;not null;uniqueIndex"`
	GatewayTxnID   *string             `gorm:"column:gateway_txn_id"`
	Amount         string              `gorm:"not null"`
	Status         enums.PaymentStatus `gorm:"type:text;not null;default:'initiated'"`
	FailureReason  *string             `gorm:"column:failure_reason;type:text"`
	InitiatedByID  uuid.UUID           `gorm:"column:initiated_by_id;type:uuid;not null"`
	ConfirmedAt    *time.Time          `gorm:"column:confirmed_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *PaymentTransaction) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
