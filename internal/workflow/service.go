package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hptourism/homestay-portal/internal/districts"
	"github.com/hptourism/homestay-portal/pkg/db/models"
	"github.com/hptourism/homestay-portal/pkg/enums"
	pkgerrors "github.com/hptourism/homestay-portal/pkg/errors"
	"github.com/hptourism/homestay-portal/pkg/logger"
	"github.com/hptourism/homestay-portal/pkg/metrics"
	"github.com/hptourism/homestay-portal/pkg/outbox"
)

// Actor is the authenticated principal attempting a transition.
type Actor struct {
	ID       uuid.UUID
	Role     enums.UserRole
	District *string
	Name     string
}

// ApplyInput describes one requested transition. Extra carries columns a
// caller needs stamped atomically with the status change, keyed by column name.
type ApplyInput struct {
	ApplicationID uuid.UUID
	Action        enums.WorkflowAction
	Remarks       *string
	IssuesFound   []string
	Extra         map[string]interface{}
}

type auditWriter interface {
	InsertWithTx(tx *gorm.DB, action *models.ApplicationAction) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.NotificationEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service applies workflow transitions. Every status mutation is one
// transaction: a compare-and-swap on the status column, an audit row, and an
// outbox row when the transition notifies the applicant.
type Service interface {
	Apply(ctx context.Context, actor Actor, input ApplyInput) (*models.Application, error)
	AllowedFor(actor Actor, app *models.Application) []enums.WorkflowAction
}

type service struct {
	db      txRunner
	audit   auditWriter
	outbox  eventEmitter
	matcher *districts.Matcher
	metrics *metrics.WorkflowMetrics
	logg    *logger.Logger
}

func NewService(
	db txRunner,
	audit auditWriter,
	emitter eventEmitter,
	matcher *districts.Matcher,
	m *metrics.WorkflowMetrics,
	logg *logger.Logger,
) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if audit == nil {
		return nil, fmt.Errorf("audit writer required")
	}
	if matcher == nil {
		return nil, fmt.Errorf("district matcher required")
	}
	return &service{
		db:      db,
		audit:   audit,
		outbox:  emitter,
		matcher: matcher,
		metrics: m,
		logg:    logg,
	}, nil
}

func (s *service) Apply(ctx context.Context, actor Actor, input ApplyInput) (*models.Application, error) {
	started := time.Now()

	transition, ok := Lookup(input.Action)
	if !ok {
		s.reject(input.Action, "unknown_action")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown action %q", input.Action))
	}

	var app models.Application
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&app, "id = ?", input.ApplicationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load application")
		}

		// The stored value may be a legacy alias; CAS below uses the raw
		// value while all guard checks use the canonical one.
		rawStatus := app.Status
		current := enums.NormalizeApplicationStatus(string(app.Status))

		if err := s.guard(actor, transition, &app, current); err != nil {
			s.reject(input.Action, guardReason(err))
			return err
		}

		if transition.RemarksRequired && (input.Remarks == nil || strings.TrimSpace(*input.Remarks) == "") {
			s.reject(input.Action, "remarks_required")
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("action %s requires remarks", input.Action))
		}

		updates := s.stamps(transition, input)
		res := tx.Model(&models.Application{}).
			Where("id = ? AND status = ?", app.ID, rawStatus).
			Updates(updates)
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update application status")
		}
		if res.RowsAffected == 0 {
			s.reject(input.Action, "concurrent_update")
			return pkgerrors.New(pkgerrors.CodeStateConflict, "application was modified concurrently").
				WithDetails(map[string]any{
					"current_status": current,
					"action":         input.Action,
				})
		}

		audit := models.ApplicationAction{
			ApplicationID:  app.ID,
			ActorID:        actor.ID,
			Action:         transition.Action,
			PreviousStatus: current,
			NewStatus:      transition.To,
			Feedback:       input.Remarks,
			IssuesFound:    input.IssuesFound,
		}
		if err := s.audit.InsertWithTx(tx, &audit); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record audit row")
		}

		if transition.Event != "" && s.outbox != nil {
			event := outbox.NotificationEvent{
				EventType:     transition.Event,
				ApplicationID: app.ID,
				Actor:         &outbox.ActorRef{UserID: actor.ID, Role: string(actor.Role)},
				Data: map[string]any{
					"application_number": app.ApplicationNumber,
					"previous_status":    current,
					"new_status":         transition.To,
					"owner_mobile":       app.OwnerMobile,
					"remarks":            input.Remarks,
				},
				Version: 1,
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue notification")
			}
		}

		// Re-read inside the transaction so the caller sees every stamped
		// column, including action-specific Extra columns.
		if err := tx.First(&app, "id = ?", app.ID).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload application")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncApplied(string(input.Action))
		s.metrics.ObserveDuration(string(input.Action), time.Since(started))
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"application_id": app.ID.String(),
			"action":         string(input.Action),
			"new_status":     string(app.Status),
			"actor_role":     string(actor.Role),
		})
		s.logg.Info(logCtx, "workflow transition applied")
	}
	return &app, nil
}

// AllowedFor reports which actions this actor could attempt on the
// application right now, after ownership and district scoping.
func (s *service) AllowedFor(actor Actor, app *models.Application) []enums.WorkflowAction {
	if app == nil {
		return nil
	}
	if actor.Role == enums.UserRolePropertyOwner && app.UserID != actor.ID {
		return nil
	}
	if actor.Role.IsDistrictScoped() {
		if actor.District == nil || !s.matcher.Match(app.District, *actor.District) {
			return nil
		}
	}
	current := enums.NormalizeApplicationStatus(string(app.Status))
	return AllowedActions(actor.Role, current)
}

func (s *service) guard(actor Actor, t Transition, app *models.Application, current enums.ApplicationStatus) error {
	if !roleAllowed(t, actor.Role) {
		return pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("role %s may not perform %s", actor.Role, t.Action))
	}

	if actor.Role == enums.UserRolePropertyOwner && app.UserID != actor.ID {
		// Hide existence of other applicants' records.
		return pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
	}

	if actor.Role.IsDistrictScoped() {
		if actor.District == nil || !s.matcher.Match(app.District, *actor.District) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "application is outside your district")
		}
	}

	if !fromAllowed(t, current) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot %s from status %s", t.Action, current)).
			WithDetails(map[string]any{
				"current_status": current,
				"action":         t.Action,
				"allowed_from":   t.From,
			})
	}
	return nil
}

// stamps builds the column set written by the CAS update. Action-specific
// timestamps ride along with the status flip so they commit atomically.
func (s *service) stamps(t Transition, input ApplyInput) map[string]interface{} {
	now := time.Now()
	updates := map[string]interface{}{
		"status":        t.To,
		"current_stage": string(t.To),
		"updated_at":    now,
	}

	switch t.Action {
	case enums.ActionApplicationSubmitted, enums.ActionCorrectionResubmitted:
		updates["submitted_at"] = now
		updates["rejection_reason"] = nil
		updates["clarification_requested"] = nil
	case enums.ActionSentBackForCorrections, enums.ActionRevertedToApplicant:
		updates["clarification_requested"] = input.Remarks
	case enums.ActionScrutinyStarted:
		updates["district_review_date"] = now
	case enums.ActionInspectionCompleted:
		updates["site_inspection_completed_date"] = now
	case enums.ActionPaymentConfirmed:
		updates["approved_at"] = now
	case enums.ActionApplicationRejected:
		updates["rejection_reason"] = input.Remarks
	}

	for col, val := range input.Extra {
		updates[col] = val
	}
	return updates
}

func (s *service) reject(action enums.WorkflowAction, reason string) {
	if s.metrics != nil {
		s.metrics.IncRejected(string(action), reason)
	}
}

func guardReason(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return "internal"
	}
	switch typed.Code() {
	case pkgerrors.CodeForbidden:
		return "forbidden"
	case pkgerrors.CodeNotFound:
		return "not_found"
	case pkgerrors.CodeStateConflict:
		return "invalid_transition"
	default:
		return strings.ToLower(string(typed.Code()))
	}
}
