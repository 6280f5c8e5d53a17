package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hptourism/homestay-portal/internal/certificates"
	"github.com/hptourism/homestay-portal/internal/workflow"
	"github.com/hptourism/homestay-portal/pkg/db/models"
	"github.com/hptourism/homestay-portal/pkg/enums"
	pkgerrors "github.com/hptourism/homestay-portal/pkg/errors"
	"github.com/hptourism/homestay-portal/pkg/himkosh"
)

type paymentRepository interface {
	Create(ctx context.Context, txn *models.PaymentTransaction) error
	FindByChallanRef(ctx context.Context, challanRef string) (*models.PaymentTransaction, error)
	ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]models.PaymentTransaction, error)
	Update(ctx context.Context, txn *models.PaymentTransaction) error
}

type applicationLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Application, error)
}

type treasuryGateway interface {
	InitiateChallan(ctx context.Context, req himkosh.ChallanRequest) (*himkosh.ChallanInitiation, error)
	QueryChallan(ctx context.Context, challanRef string) (*himkosh.ChallanStatus, error)
}

type workflowEngine interface {
	Apply(ctx context.Context, actor workflow.Actor, input workflow.ApplyInput) (*models.Application, error)
}

// Initiation is the gateway handoff returned to the applicant.
type Initiation struct {
	ChallanRef  string    `json:"challanRef"`
	RedirectURL string    `json:"redirectUrl"`
	Amount      string    `json:"amount"`
	BaseFee     string    `json:"baseFee"`
	Discount    string    `json:"discount"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// TransactionDTO is the stored view of one challan attempt.
type TransactionDTO struct {
	ChallanRef    string              `json:"challanRef"`
	ApplicationID uuid.UUID           `json:"applicationId"`
	Amount        string              `json:"amount"`
	Status        enums.PaymentStatus `json:"status"`
	GatewayTxnID  *string             `json:"gatewayTxnId,omitempty"`
	FailureReason *string             `json:"failureReason,omitempty"`
	ConfirmedAt   *time.Time          `json:"confirmedAt,omitempty"`
}

// Service drives treasury payments for verified applications.
type Service interface {
	Initiate(ctx context.Context, actor workflow.Actor, applicationID uuid.UUID) (*Initiation, error)
	Confirm(ctx context.Context, challanRef string) (*TransactionDTO, error)
	ListForApplication(ctx context.Context, actor workflow.Actor, applicationID uuid.UUID) ([]TransactionDTO, error)
}

type service struct {
	repo     paymentRepository
	apps     applicationLoader
	gateway  treasuryGateway
	engine   workflowEngine
	schedule *certificates.FeeSchedule
	now      func() time.Time
	newRef   func() string
}

func NewService(repo paymentRepository, apps applicationLoader, gateway treasuryGateway, engine workflowEngine, schedule *certificates.FeeSchedule) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	if apps == nil {
		return nil, fmt.Errorf("application loader required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("treasury gateway required")
	}
	if engine == nil {
		return nil, fmt.Errorf("workflow engine required")
	}
	if schedule == nil {
		return nil, fmt.Errorf("fee schedule required")
	}
	return &service{
		repo:     repo,
		apps:     apps,
		gateway:  gateway,
		engine:   engine,
		schedule: schedule,
		now:      time.Now,
		newRef:   func() string { return strings.ToUpper(uuid.New().String()[:8]) },
	}, nil
}

// Initiate opens a HimKosh challan for an application that has cleared
// verification and moves it to payment_pending. A fresh challan row is
// created per attempt; abandoned sessions stay behind as initiated rows.
func (s *service) Initiate(ctx context.Context, actor workflow.Actor, applicationID uuid.UUID) (*Initiation, error) {
	app, err := s.load(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if actor.Role != enums.UserRolePropertyOwner || app.UserID != actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
	}

	status := enums.NormalizeApplicationStatus(string(app.Status))
	if status != enums.ApplicationStatusVerifiedForPayment && status != enums.ApplicationStatusPaymentPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("payment cannot be started while %s", status)).
			WithDetails(map[string]interface{}{"current_status": status})
	}

	quote, err := s.schedule.Quote(app.Category, app.LocationType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute registration fee")
	}

	challanRef := s.challanRef(app.ApplicationNumber)
	txn := &models.PaymentTransaction{
		ApplicationID: app.ID,
		ChallanRef:    challanRef,
		Amount:        quote.Total.StringFixed(2),
		Status:        enums.PaymentStatusInitiated,
		InitiatedByID: actor.ID,
	}
	if err := s.repo.Create(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment transaction")
	}

	initiation, err := s.gateway.InitiateChallan(ctx, himkosh.ChallanRequest{
		ChallanRef:        challanRef,
		ApplicationNumber: app.ApplicationNumber,
		Amount:            quote.Total,
		PayerName:         app.OwnerName,
		PayerMobile:       app.OwnerMobile,
		District:          app.District,
	})
	if err != nil {
		reason := "gateway initiation failed"
		txn.Status = enums.PaymentStatusFailed
		txn.FailureReason = &reason
		if uerr := s.repo.Update(ctx, txn); uerr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, uerr, "mark payment failed")
		}
		return nil, err
	}

	// First attempt also flips the application to payment_pending and stamps
	// the fee breakdown; retries from payment_pending skip the transition.
	if status == enums.ApplicationStatusVerifiedForPayment {
		_, err = s.engine.Apply(ctx, actor, workflow.ApplyInput{
			ApplicationID: app.ID,
			Action:        enums.ActionPaymentInitiated,
			Extra: map[string]interface{}{
				"base_fee":     quote.Base.StringFixed(2),
				"fee_discount": quote.Discount.StringFixed(2),
				"total_fee":    quote.Total.StringFixed(2),
			},
		})
		if err != nil {
			return nil, err
		}
	}

	return &Initiation{
		ChallanRef:  initiation.ChallanRef,
		RedirectURL: initiation.RedirectURL,
		Amount:      quote.Total.StringFixed(2),
		BaseFee:     quote.Base.StringFixed(2),
		Discount:    quote.Discount.StringFixed(2),
		ExpiresAt:   initiation.ExpiresAt,
	}, nil
}

// Confirm settles a challan after the gateway calls back. The callback payload
// is never trusted on its own; the status is re-read from HimKosh before any
// state changes.
func (s *service) Confirm(ctx context.Context, challanRef string) (*TransactionDTO, error) {
	txn, err := s.loadTxn(ctx, challanRef)
	if err != nil {
		return nil, err
	}
	if txn.Status == enums.PaymentStatusSuccess {
		return fromTransaction(txn), nil
	}

	status, err := s.gateway.QueryChallan(ctx, challanRef)
	if err != nil {
		return nil, err
	}

	switch status.Status {
	case "success":
		return s.settle(ctx, txn, status)
	case "failed", "expired":
		parsed, perr := enums.ParsePaymentStatus(status.Status)
		if perr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, perr, "map gateway status")
		}
		txn.Status = parsed
		if status.FailureReason != "" {
			reason := status.FailureReason
			txn.FailureReason = &reason
		}
		if err := s.repo.Update(ctx, txn); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment failure")
		}
		return fromTransaction(txn), nil
	default:
		// Still pending at the treasury; leave the row untouched.
		return fromTransaction(txn), nil
	}
}

func (s *service) ListForApplication(ctx context.Context, actor workflow.Actor, applicationID uuid.UUID) ([]TransactionDTO, error) {
	app, err := s.load(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if actor.Role == enums.UserRolePropertyOwner && app.UserID != actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
	}

	txns, err := s.repo.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payment transactions")
	}
	out := make([]TransactionDTO, 0, len(txns))
	for i := range txns {
		out = append(out, *fromTransaction(&txns[i]))
	}
	return out, nil
}

// settle records a confirmed payment and runs payment_confirmed on behalf of
// the payer. A concurrent settle losing the status race is treated as done.
func (s *service) settle(ctx context.Context, txn *models.PaymentTransaction, status *himkosh.ChallanStatus) (*TransactionDTO, error) {
	app, err := s.load(ctx, txn.ApplicationID)
	if err != nil {
		return nil, err
	}

	payer := workflow.Actor{ID: app.UserID, Role: enums.UserRolePropertyOwner, Name: app.OwnerName}
	_, err = s.engine.Apply(ctx, payer, workflow.ApplyInput{
		ApplicationID: txn.ApplicationID,
		Action:        enums.ActionPaymentConfirmed,
	})
	if err != nil {
		typed := pkgerrors.As(err)
		alreadyApproved := typed != nil && typed.Code() == pkgerrors.CodeStateConflict &&
			enums.NormalizeApplicationStatus(string(app.Status)) == enums.ApplicationStatusApproved
		if !alreadyApproved {
			return nil, err
		}
	}

	confirmedAt := s.now()
	if status.TransactedAt != nil {
		confirmedAt = *status.TransactedAt
	}
	txn.Status = enums.PaymentStatusSuccess
	txn.ConfirmedAt = &confirmedAt
	if status.GatewayTxnID != "" {
		gatewayID := status.GatewayTxnID
		txn.GatewayTxnID = &gatewayID
	}
	if err := s.repo.Update(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment success")
	}
	return fromTransaction(txn), nil
}

func (s *service) challanRef(applicationNumber string) string {
	return fmt.Sprintf("%s-%s", strings.ReplaceAll(applicationNumber, "/", "-"), s.newRef())
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	app, err := s.apps.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load application")
	}
	return app, nil
}

func (s *service) loadTxn(ctx context.Context, challanRef string) (*models.PaymentTransaction, error) {
	txn, err := s.repo.FindByChallanRef(ctx, challanRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "challan not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment transaction")
	}
	return txn, nil
}

func fromTransaction(txn *models.PaymentTransaction) *TransactionDTO {
	return &TransactionDTO{
		ChallanRef:    txn.ChallanRef,
		ApplicationID: txn.ApplicationID,
		Amount:        txn.Amount,
		Status:        txn.Status,
		GatewayTxnID:  txn.GatewayTxnID,
		FailureReason: txn.FailureReason,
		ConfirmedAt:   txn.ConfirmedAt,
	}
}
