package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hptourism/homestay-portal/api/responses"
	"github.com/hptourism/homestay-portal/api/validators"
	"github.com/hptourism/homestay-portal/internal/applications"
	"github.com/hptourism/homestay-portal/internal/inspections"
	"github.com/hptourism/homestay-portal/internal/workflow"
	"github.com/hptourism/homestay-portal/pkg/enums"
	pkgerrors "github.com/hptourism/homestay-portal/pkg/errors"
	"github.com/hptourism/homestay-portal/pkg/logger"
)

type reviewRequest struct {
	Action   string  `json:"action" validate:"required,oneof=approve reject"`
	Comments *string `json:"comments,omitempty"`
}

type sendBackRequest struct {
	Feedback string `json:"feedback" validate:"required,min=10"`
}

type revertRequest struct {
	Feedback string `json:"feedback" validate:"required"`
}

type decisionRemarks struct {
	Remarks *string `json:"remarks,omitempty"`
}

// ApplicationsReview handles the generic approve/reject decision. The concrete
// transition depends on who is deciding and where the record currently sits.
func ApplicationsReview(apps applications.Service, engine workflow.Service, insp inspections.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body reviewRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		current, err := apps.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if body.Action == "reject" {
			app, applyErr := engine.Apply(r.Context(), actor, workflow.ApplyInput{
				ApplicationID: id,
				Action:        enums.ActionApplicationRejected,
				Remarks:       body.Comments,
			})
			if applyErr != nil {
				responses.WriteError(r.Context(), logg, w, applyErr)
				return
			}
			responses.WriteSuccess(w, applications.FromModel(app))
			return
		}

		steps, err := approvalStepsFor(actor.Role, current.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := runApprovalSteps(r, actor, id, steps, body.Comments, engine, insp)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// ApplicationsSendBack returns a record to the owner for corrections.
func ApplicationsSendBack(engine workflow.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body sendBackRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		app, err := engine.Apply(r.Context(), actor, workflow.ApplyInput{
			ApplicationID: id,
			Action:        enums.ActionSentBackForCorrections,
			Remarks:       &body.Feedback,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, applications.FromModel(app))
	}
}

// ApplicationsAccept advances a DTDO decision: picking up a forwarded record,
// or signing off an inspection report.
func ApplicationsAccept(apps applications.Service, engine workflow.Service, insp inspections.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body decisionRemarks
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		current, err := apps.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var steps []enums.WorkflowAction
		switch current.Status {
		case enums.ApplicationStatusForwardedToDTDO:
			steps = []enums.WorkflowAction{enums.ActionDTDOReviewStarted}
		case enums.ApplicationStatusInspectionUnderReview:
			steps = []enums.WorkflowAction{enums.ActionDTDOAccepted}
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeStateConflict, "application is not awaiting a decision").WithDetails(map[string]any{"status": current.Status}))
			return
		}

		dto, err := runApprovalSteps(r, actor, id, steps, body.Remarks, engine, insp)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// ApplicationsRevert sends a record under DTDO review back to the applicant.
func ApplicationsRevert(engine workflow.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body revertRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		app, err := engine.Apply(r.Context(), actor, workflow.ApplyInput{
			ApplicationID: id,
			Action:        enums.ActionRevertedToApplicant,
			Remarks:       &body.Feedback,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, applications.FromModel(app))
	}
}

func approvalStepsFor(role enums.UserRole, status enums.ApplicationStatus) ([]enums.WorkflowAction, error) {
	switch role {
	case enums.UserRoleDealingAssistant:
		switch status {
		case enums.ApplicationStatusSubmitted:
			return []enums.WorkflowAction{enums.ActionScrutinyStarted, enums.ActionForwardedToDTDO}, nil
		case enums.ApplicationStatusUnderScrutiny:
			return []enums.WorkflowAction{enums.ActionForwardedToDTDO}, nil
		}
	case enums.UserRoleDistrictTourismOfficer:
		switch status {
		case enums.ApplicationStatusForwardedToDTDO:
			return []enums.WorkflowAction{enums.ActionDTDOReviewStarted}, nil
		case enums.ApplicationStatusInspectionUnderReview:
			return []enums.WorkflowAction{enums.ActionDTDOAccepted}, nil
		}
	case enums.UserRoleStateOfficer, enums.UserRoleAdmin:
		switch status {
		case enums.ApplicationStatusUnderScrutiny, enums.ApplicationStatusInspectionUnderReview:
			return []enums.WorkflowAction{enums.ActionVerifiedForPayment}, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no approval step available from this status").WithDetails(map[string]any{
		"status": status,
		"role":   role,
	})
}

func runApprovalSteps(r *http.Request, actor workflow.Actor, id uuid.UUID, steps []enums.WorkflowAction, remarks *string, engine workflow.Service, insp inspections.Service) (*applications.ApplicationDTO, error) {
	var dto *applications.ApplicationDTO
	for _, action := range steps {
		app, err := engine.Apply(r.Context(), actor, workflow.ApplyInput{
			ApplicationID: id,
			Action:        action,
			Remarks:       remarks,
		})
		if err != nil {
			return nil, err
		}
		dto = applications.FromModel(app)

		// Sign-off on the inspection stage stamps the report reviewer.
		if action == enums.ActionDTDOAccepted && insp != nil {
			if err := insp.MarkReviewed(r.Context(), actor, id); err != nil {
				return nil, err
			}
		}
	}
	if dto == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "no transition applied")
	}
	return dto, nil
}
