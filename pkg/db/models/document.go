package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hptourism/homestay-portal/pkg/enums"
)

// Document is file metadata attached to an application. Rows are cleared only
// when a draft application is discarded.
type Document struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ApplicationID uuid.UUID `gorm:"type:uuid;not null;index"`

	DocumentType       enums.DocumentType          `gorm:"column:document_type;type:text;not null"`
	FilePath           string                      `gorm:"column:file_path;not null"`
	FileName           string                      `gorm:"column:file_name;not null"`
	SizeBytes          int64                       `gorm:"column:size_bytes;not null;default:0"`
	VerificationStatus enums.DocVerificationStatus `gorm:"column:verification_status;type:text;not null;default:'pending'"`
	VerificationNotes  *string                     `gorm:"column:verification_notes;type:text"`
	VerifiedByID       *uuid.UUID                  `gorm:"column:verified_by_id;type:uuid"`
	VerifiedAt         *time.Time                  `gorm:"column:verified_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
