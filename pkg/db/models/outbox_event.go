package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hptourism/homestay-portal/pkg/enums"
)

// OutboxEvent is a notification event queued in the same transaction as the
// workflow mutation that produced it. The dispatch worker drains this table.
type OutboxEvent struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventType     enums.NotificationEvent `gorm:"column:event_type;type:text;not null"`
	ApplicationID uuid.UUID               `gorm:"column:application_id;type:uuid;not null;index"`
	Payload       json.RawMessage         `gorm:"column:payload;type:jsonb;not null"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
	PublishedAt   *time.Time              `gorm:"column:published_at"`
	AttemptCount  int                     `gorm:"column:attempt_count;not null;default:0"`
	LastError     *string                 `gorm:"column:last_error"`
}

func (o *OutboxEvent) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
