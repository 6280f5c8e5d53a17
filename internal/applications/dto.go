package applications

import (
	"time"

	"github.com/google/uuid"

	"github.com/hptourism/homestay-portal/pkg/db/models"
	"github.com/hptourism/homestay-portal/pkg/enums"
)

// CreateInput captures the fields an applicant provides for a new draft.
type CreateInput struct {
	Category        enums.Category
	ApplicationKind enums.ApplicationKind
	LocationType    enums.LocationType
	OwnerName       string
	OwnerMobile     string
	OwnerEmail      *string
	OwnerAadhaar    *string
	OwnerGender     *string
	GuardianName    *string
	PropertyName    string
	Address         string
	District        string
	Tehsil          *string
	Block           *string
	Pincode         *string
	TotalRooms      int
	RoomRate        *string
	DistanceNotes   *string
	Amenities       map[string]bool
}

// UpdateInput carries optional draft edits; nil fields are left untouched.
type UpdateInput struct {
	Category      *enums.Category
	LocationType  *enums.LocationType
	OwnerName     *string
	OwnerMobile   *string
	OwnerEmail    *string
	OwnerAadhaar  *string
	OwnerGender   *string
	GuardianName  *string
	PropertyName  *string
	Address       *string
	District      *string
	Tehsil        *string
	Block         *string
	Pincode       *string
	TotalRooms    *int
	RoomRate      *string
	DistanceNotes *string
	Amenities     *map[string]bool
}

// ApplicationDTO is the API projection of an application.
type ApplicationDTO struct {
	ID                uuid.UUID               `json:"id"`
	ApplicationNumber string                  `json:"application_number"`
	Category          enums.Category          `json:"category"`
	ApplicationKind   enums.ApplicationKind   `json:"application_kind"`
	LocationType      enums.LocationType      `json:"location_type"`
	Status            enums.ApplicationStatus `json:"status"`
	SubmittedAt       *time.Time              `json:"submitted_at,omitempty"`
	ApprovedAt        *time.Time              `json:"approved_at,omitempty"`
	RejectionReason   *string                 `json:"rejection_reason,omitempty"`
	Clarification     *string                 `json:"clarification_requested,omitempty"`
	OwnerName         string                  `json:"owner_name"`
	OwnerMobile       string                  `json:"owner_mobile"`
	OwnerEmail        *string                 `json:"owner_email,omitempty"`
	PropertyName      string                  `json:"property_name"`
	Address           string                  `json:"address"`
	District          string                  `json:"district"`
	Tehsil            *string                 `json:"tehsil,omitempty"`
	Pincode           *string                 `json:"pincode,omitempty"`
	TotalRooms        int                     `json:"total_rooms"`
	Amenities         map[string]bool         `json:"amenities,omitempty"`
	CertificateNumber *string                 `json:"certificate_number,omitempty"`
	BaseFee           *string                 `json:"base_fee,omitempty"`
	FeeDiscount       *string                 `json:"fee_discount,omitempty"`
	TotalFee          *string                 `json:"total_fee,omitempty"`
	AllowedActions    []enums.WorkflowAction  `json:"allowed_actions,omitempty"`
	CreatedAt         time.Time               `json:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at"`
}

// FromModel projects a stored row into the API shape, normalizing any legacy
// status alias on the way out.
func FromModel(app *models.Application) *ApplicationDTO {
	if app == nil {
		return nil
	}
	return &ApplicationDTO{
		ID:                app.ID,
		ApplicationNumber: app.ApplicationNumber,
		Category:          app.Category,
		ApplicationKind:   app.ApplicationKind,
		LocationType:      app.LocationType,
		Status:            enums.NormalizeApplicationStatus(string(app.Status)),
		SubmittedAt:       app.SubmittedAt,
		ApprovedAt:        app.ApprovedAt,
		RejectionReason:   app.RejectionReason,
		Clarification:     app.ClarificationRequested,
		OwnerName:         app.OwnerName,
		OwnerMobile:       app.OwnerMobile,
		OwnerEmail:        app.OwnerEmail,
		PropertyName:      app.PropertyName,
		Address:           app.Address,
		District:          app.District,
		Tehsil:            app.Tehsil,
		Pincode:           app.Pincode,
		TotalRooms:        app.TotalRooms,
		Amenities:         app.Amenities,
		CertificateNumber: app.CertificateNumber,
		BaseFee:           app.BaseFee,
		FeeDiscount:       app.FeeDiscount,
		TotalFee:          app.TotalFee,
		CreatedAt:         app.CreatedAt,
		UpdatedAt:         app.UpdatedAt,
	}
}

// Page wraps listing results with an opaque next cursor.
type Page struct {
	Items      []*ApplicationDTO `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}
