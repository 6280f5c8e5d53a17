package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hptourism/homestay-portal/pkg/enums"
)

// InspectionReport holds the structured checklist a Dealing Assistant files
// after visiting the property. One report per inspection cycle; the DTDO
// records the decision on it.
type InspectionReport struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ApplicationID uuid.UUID `gorm:"type:uuid;not null;index"`
	InspectorID   uuid.UUID `gorm:"type:uuid;not null"`

	ScheduledDate *time.Time `gorm:"column:scheduled_date"`
	CompletedDate *time.Time `gorm:"column:completed_date"`

	MandatoryCompliance map[string]bool `gorm:"column:mandatory_compliance;type:jsonb;serializer:json"`
	DesirableCompliance map[string]bool `gorm:"column:desirable_compliance;type:jsonb;serializer:json"`
	Outcome             *enums.InspectionOutcome `gorm:"type:text"`
	Notes               *string                  `gorm:"type:text"`

	ReviewedByID *uuid.UUID `gorm:"column:reviewed_by_id;type:uuid"`
	ReviewedAt   *time.Time `gorm:"column:reviewed_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *InspectionReport) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
