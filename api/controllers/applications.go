package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hptourism/homestay-portal/api/middleware"
	"github.com/hptourism/homestay-portal/api/responses"
	"github.com/hptourism/homestay-portal/api/validators"
	"github.com/hptourism/homestay-portal/internal/applications"
	"github.com/hptourism/homestay-portal/internal/workflow"
	"github.com/hptourism/homestay-portal/pkg/enums"
	pkgerrors "github.com/hptourism/homestay-portal/pkg/errors"
	"github.com/hptourism/homestay-portal/pkg/logger"
	"github.com/hptourism/homestay-portal/pkg/pagination"
)

type createApplicationRequest struct {
	Category        string          `json:"category" validate:"required"`
	ApplicationKind string          `json:"application_kind" validate:"required"`
	LocationType    string          `json:"location_type" validate:"required"`
	OwnerName       string          `json:"owner_name" validate:"required"`
	OwnerMobile     string          `json:"owner_mobile" validate:"required,len=10,numeric"`
	OwnerEmail      *string         `json:"owner_email,omitempty" validate:"omitempty,email"`
	OwnerAadhaar    *string         `json:"owner_aadhaar,omitempty" validate:"omitempty,len=12,numeric"`
	OwnerGender     *string         `json:"owner_gender,omitempty"`
	GuardianName    *string         `json:"guardian_name,omitempty"`
	PropertyName    string          `json:"property_name" validate:"required"`
	Address         string          `json:"address" validate:"required"`
	District        string          `json:"district" validate:"required"`
	Tehsil          *string         `json:"tehsil,omitempty"`
	Block           *string         `json:"block,omitempty"`
	Pincode         *string         `json:"pincode,omitempty" validate:"omitempty,len=6,numeric"`
	TotalRooms      int             `json:"total_rooms" validate:"required,min=1,max=30"`
	RoomRate        *string         `json:"room_rate,omitempty"`
	DistanceNotes   *string         `json:"distance_notes,omitempty"`
	Amenities       map[string]bool `json:"amenities,omitempty"`
}

type updateApplicationRequest struct {
	Category      *string          `json:"category,omitempty"`
	LocationType  *string          `json:"location_type,omitempty"`
	OwnerName     *string          `json:"owner_name,omitempty"`
	OwnerMobile   *string          `json:"owner_mobile,omitempty" validate:"omitempty,len=10,numeric"`
	OwnerEmail    *string          `json:"owner_email,omitempty" validate:"omitempty,email"`
	OwnerAadhaar  *string          `json:"owner_aadhaar,omitempty" validate:"omitempty,len=12,numeric"`
	OwnerGender   *string          `json:"owner_gender,omitempty"`
	GuardianName  *string          `json:"guardian_name,omitempty"`
	PropertyName  *string          `json:"property_name,omitempty"`
	Address       *string          `json:"address,omitempty"`
	District      *string          `json:"district,omitempty"`
	Tehsil        *string          `json:"tehsil,omitempty"`
	Block         *string          `json:"block,omitempty"`
	Pincode       *string          `json:"pincode,omitempty" validate:"omitempty,len=6,numeric"`
	TotalRooms    *int             `json:"total_rooms,omitempty" validate:"omitempty,min=1,max=30"`
	RoomRate      *string          `json:"room_rate,omitempty"`
	DistanceNotes *string          `json:"distance_notes,omitempty"`
	Amenities     *map[string]bool `json:"amenities,omitempty"`
}

type searchApplicationsRequest struct {
	ApplicationNumber *string `json:"application_number,omitempty"`
	OwnerMobile       *string `json:"owner_mobile,omitempty"`
	OwnerAadhaar      *string `json:"owner_aadhaar,omitempty"`
	Status            *string `json:"status,omitempty"`
	SubmittedFrom     *string `json:"submitted_from,omitempty"`
	SubmittedTo       *string `json:"submitted_to,omitempty"`
	District          *string `json:"district,omitempty"`
	RecentLimit       int     `json:"recent_limit,omitempty"`
}

func requestActor(r *http.Request) (workflow.Actor, error) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return workflow.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return actor, nil
}

func parseStatusFilter(raw *string) (*enums.ApplicationStatus, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	status, err := enums.ParseApplicationStatus(*raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown status").WithDetails(map[string]any{"field": "status"})
	}
	return &status, nil
}

func parseDateFilter(raw *string, field string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	ts, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date must be YYYY-MM-DD").WithDetails(map[string]any{"field": field})
	}
	return &ts, nil
}

// ApplicationsCreate opens a new draft for the calling owner.
func ApplicationsCreate(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createApplicationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := enums.ParseCategory(body.Category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown category").WithDetails(map[string]any{"field": "category"}))
			return
		}
		kind, err := enums.ParseApplicationKind(body.ApplicationKind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown application kind").WithDetails(map[string]any{"field": "application_kind"}))
			return
		}
		location, err := enums.ParseLocationType(body.LocationType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown location type").WithDetails(map[string]any{"field": "location_type"}))
			return
		}

		dto, err := svc.CreateDraft(r.Context(), actor, applications.CreateInput{
			Category:        category,
			ApplicationKind: kind,
			LocationType:    location,
			OwnerName:       body.OwnerName,
			OwnerMobile:     body.OwnerMobile,
			OwnerEmail:      body.OwnerEmail,
			OwnerAadhaar:    body.OwnerAadhaar,
			OwnerGender:     body.OwnerGender,
			GuardianName:    body.GuardianName,
			PropertyName:    body.PropertyName,
			Address:         body.Address,
			District:        body.District,
			Tehsil:          body.Tehsil,
			Block:           body.Block,
			Pincode:         body.Pincode,
			TotalRooms:      body.TotalRooms,
			RoomRate:        body.RoomRate,
			DistanceNotes:   body.DistanceNotes,
			Amenities:       body.Amenities,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// ApplicationsUpdate edits a draft or a record sent back for corrections.
func ApplicationsUpdate(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateApplicationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := applications.UpdateInput{
			OwnerName:     body.OwnerName,
			OwnerMobile:   body.OwnerMobile,
			OwnerEmail:    body.OwnerEmail,
			OwnerAadhaar:  body.OwnerAadhaar,
			OwnerGender:   body.OwnerGender,
			GuardianName:  body.GuardianName,
			PropertyName:  body.PropertyName,
			Address:       body.Address,
			District:      body.District,
			Tehsil:        body.Tehsil,
			Block:         body.Block,
			Pincode:       body.Pincode,
			TotalRooms:    body.TotalRooms,
			RoomRate:      body.RoomRate,
			DistanceNotes: body.DistanceNotes,
			Amenities:     body.Amenities,
		}
		if body.Category != nil {
			category, parseErr := enums.ParseCategory(*body.Category)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown category").WithDetails(map[string]any{"field": "category"}))
				return
			}
			input.Category = &category
		}
		if body.LocationType != nil {
			location, parseErr := enums.ParseLocationType(*body.LocationType)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown location type").WithDetails(map[string]any{"field": "location_type"}))
				return
			}
			input.LocationType = &location
		}

		dto, err := svc.UpdateDraft(r.Context(), actor, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// ApplicationsGet fetches one application with the caller's allowed actions.
func ApplicationsGet(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// ApplicationsList returns the caller's role-scoped page of applications.
func ApplicationsList(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := parseStatusFilter(queryString(r, "status"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), actor, status, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// ApplicationsListAll is the staff console listing, district-scoped for
// district roles and unscoped for state roles.
func ApplicationsListAll(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := parseStatusFilter(queryString(r, "status"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListAll(r.Context(), actor, status, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// ApplicationsSearch runs the staff multi-filter lookup.
func ApplicationsSearch(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body searchApplicationsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := parseStatusFilter(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		from, err := parseDateFilter(body.SubmittedFrom, "submitted_from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := parseDateFilter(body.SubmittedTo, "submitted_to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		results, err := svc.Search(r.Context(), actor, applications.SearchFilter{
			ApplicationNumber: body.ApplicationNumber,
			OwnerMobile:       body.OwnerMobile,
			OwnerAadhaar:      body.OwnerAadhaar,
			Status:            status,
			SubmittedFrom:     from,
			SubmittedTo:       to,
			District:          body.District,
			RecentLimit:       body.RecentLimit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"items": results})
	}
}

// ApplicationsSubmit moves a draft (or corrected record) into the review queue.
func ApplicationsSubmit(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Submit(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

func queryString(r *http.Request, key string) *string {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil
	}
	return &value
}
