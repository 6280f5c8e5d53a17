package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hptourism/homestay-portal/pkg/enums"
)

// Application is the central homestay registration record. Its status column
// is mutated only through the workflow engine; rows are never hard-deleted.
type Application struct {
	ID                uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ApplicationNumber string    `gorm:"column:application_number;not null;uniqueIndex"`

	Category        enums.Category        `gorm:"type:text;not null"`
	ApplicationKind enums.ApplicationKind `gorm:"column:application_kind;type:text;not null"`
	LocationType    enums.LocationType    `gorm:"column:location_type;type:text;not null;default:'rural'"`

	Status                 enums.ApplicationStatus `gorm:"type:text;not null;default:'draft';index"`
	CurrentStage           string                  `gorm:"column:current_stage"`
	SubmittedAt            *time.Time              `gorm:"column:submitted_at"`
	ApprovedAt             *time.Time              `gorm:"column:approved_at"`
	RejectionReason        *string                 `gorm:"column:rejection_reason;type:text"`
	ClarificationRequested *string                 `gorm:"column:clarification_requested;type:text"`

	UserID        uuid.UUID `gorm:"type:uuid;not null;index"`
	OwnerName     string    `gorm:"column:owner_name;not null"`
	OwnerMobile   string    `gorm:"column:owner_mobile;not null;index"`
	OwnerEmail    *string   `gorm:"column:owner_email"`
	OwnerAadhaar  *string   `gorm:"column:owner_aadhaar;index"`
	OwnerGender   *string   `gorm:"column:owner_gender"`
	GuardianName  *string   `gorm:"column:guardian_name"`
	PropertyName  string    `gorm:"column:property_name;not null"`

	Address  string  `gorm:"type:text;not null"`
	District string  `gorm:"not null;index"`
	Tehsil   *string `gorm:"column:tehsil"`
	Block    *string `gorm:"column:block"`
	Pincode  *string `gorm:"column:pincode"`

	TotalRooms    int             `gorm:"column:total_rooms;not null;default:0"`
	RoomRate      *string         `gorm:"column:room_rate"`
	DistanceNotes *string         `gorm:"column:distance_notes;type:text"`
	Amenities     map[string]bool `gorm:"type:jsonb;serializer:json"`

	DistrictReviewDate           *time.Time              `gorm:"column:district_review_date"`
	SiteInspectionScheduledDate  *time.Time              `gorm:"column:site_inspection_scheduled_date"`
	SiteInspectionCompletedDate  *time.Time              `gorm:"column:site_inspection_completed_date"`
	SiteInspectionOutcome        *enums.InspectionOutcome `gorm:"column:site_inspection_outcome;type:text"`
	SiteInspectionNotes          *string                 `gorm:"column:site_inspection_notes;type:text"`
	SiteInspectionFindings       map[string]string       `gorm:"column:site_inspection_findings;type:jsonb;serializer:json"`

	CertificateNumber    *string    `gorm:"column:certificate_number;uniqueIndex"`
	CertificateIssuedAt  *time.Time `gorm:"column:certificate_issued_at"`
	CertificateExpiresAt *time.Time `gorm:"column:certificate_expires_at"`
	BaseFee              *string    `gorm:"column:base_fee"`
	FeeDiscount          *string    `gorm:"column:fee_discount"`
	TotalFee             *string    `gorm:"column:total_fee"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns an id when the dialect has no uuid default (test sqlite).
func (a *Application) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
