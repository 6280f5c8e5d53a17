package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/hptourism/homestay-portal/pkg/enums"
)

// ApplicationAction is one append-only audit row per workflow transition.
// Rows are never updated or deleted; ordering by CreatedAt reconstructs the
// timeline for an application.
type ApplicationAction struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ApplicationID uuid.UUID `gorm:"type:uuid;not null;index"`
	ActorID       uuid.UUID `gorm:"type:uuid;not null"`

	Action         enums.WorkflowAction    `gorm:"type:text;not null"`
	PreviousStatus enums.ApplicationStatus `gorm:"column:previous_status;type:text;not null"`
	NewStatus      enums.ApplicationStatus `gorm:"column:new_status;type:text;not null"`
	Feedback       *string                 `gorm:"type:text"`
	IssuesFound    pq.StringArray          `gorm:"column:issues_found;type:text[]"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index"`
}

func (a *ApplicationAction) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
