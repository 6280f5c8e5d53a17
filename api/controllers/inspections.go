package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hptourism/homestay-portal/api/responses"
	"github.com/hptourism/homestay-portal/api/validators"
	"github.com/hptourism/homestay-portal/internal/applications"
	"github.com/hptourism/homestay-portal/internal/inspections"
	"github.com/hptourism/homestay-portal/pkg/enums"
	pkgerrors "github.com/hptourism/homestay-portal/pkg/errors"
	"github.com/hptourism/homestay-portal/pkg/logger"
)

type moveToInspectionRequest struct {
	ScheduledDate *string `json:"scheduled_date,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

type completeInspectionRequest struct {
	Outcome             string            `json:"outcome" validate:"required"`
	MandatoryCompliance map[string]bool   `json:"mandatory_compliance,omitempty"`
	DesirableCompliance map[string]bool   `json:"desirable_compliance,omitempty"`
	Findings            map[string]string `json:"findings,omitempty"`
	Notes               *string           `json:"notes,omitempty"`
}

// ApplicationsMoveToInspection schedules the site visit.
func ApplicationsMoveToInspection(svc inspections.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body moveToInspectionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := inspections.ScheduleInput{Notes: body.Notes}
		if body.ScheduledDate != nil && *body.ScheduledDate != "" {
			ts, parseErr := time.Parse("2006-01-02", *body.ScheduledDate)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "date must be YYYY-MM-DD").WithDetails(map[string]any{"field": "scheduled_date"}))
				return
			}
			input.ScheduledDate = &ts
		}

		app, err := svc.Schedule(r.Context(), actor, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, applications.FromModel(app))
	}
}

// ApplicationsCompleteInspection files the visit checklist and forwards the
// record for DTDO review.
func ApplicationsCompleteInspection(svc inspections.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body completeInspectionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outcome, err := enums.ParseInspectionOutcome(body.Outcome)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown outcome").WithDetails(map[string]any{"field": "outcome"}))
			return
		}

		app, err := svc.Complete(r.Context(), actor, id, inspections.CompleteInput{
			Outcome:             outcome,
			MandatoryCompliance: body.MandatoryCompliance,
			DesirableCompliance: body.DesirableCompliance,
			Findings:            body.Findings,
			Notes:               body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, applications.FromModel(app))
	}
}

// ApplicationsInspection returns the latest filed report for staff review.
func ApplicationsInspection(svc inspections.Service, logg *logger.Logger) http.HandlerFunc {
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

		report, err := svc.Latest(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, report)
	}
}
