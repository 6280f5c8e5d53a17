package enums

import "fmt"

// WorkflowAction is the symbolic name recorded in the audit log for a transition.
type WorkflowAction string

const (
	ActionApplicationSubmitted   WorkflowAction = "application_submitted"
	ActionScrutinyStarted        WorkflowAction = "scrutiny_started"
	ActionForwardedToDTDO        WorkflowAction = "forwarded_to_dtdo"
	ActionSentBackForCorrections WorkflowAction = "sent_back_for_corrections"
	ActionCorrectionResubmitted  WorkflowAction = "correction_resubmitted"
	ActionDTDOReviewStarted      WorkflowAction = "dtdo_review_started"
	ActionDTDOAccepted           WorkflowAction = "dtdo_accepted"
	ActionRevertedToApplicant    WorkflowAction = "reverted_to_applicant"
	ActionInspectionScheduled    WorkflowAction = "inspection_scheduled"
	ActionInspectionCompleted    WorkflowAction = "inspection_completed"
	ActionVerifiedForPayment     WorkflowAction = "verified_for_payment"
	ActionPaymentInitiated       WorkflowAction = "payment_initiated"
	ActionPaymentConfirmed       WorkflowAction = "payment_confirmed"
	ActionCertificateIssued      WorkflowAction = "certificate_issued"
	ActionApplicationRejected    WorkflowAction = "application_rejected"
)

var validWorkflowActions = []WorkflowAction{
	ActionApplicationSubmitted,
	ActionScrutinyStarted,
	ActionForwardedToDTDO,
	ActionSentBackForCorrections,
	ActionCorrectionResubmitted,
	ActionDTDOReviewStarted,
	ActionDTDOAccepted,
	ActionRevertedToApplicant,
	ActionInspectionScheduled,
	ActionInspectionCompleted,
	ActionVerifiedForPayment,
	ActionPaymentInitiated,
	ActionPaymentConfirmed,
	ActionCertificateIssued,
	ActionApplicationRejected,
}

// String implements fmt.Stringer.
func (w WorkflowAction) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WorkflowAction.
func (w WorkflowAction) IsValid() bool {
	for _, candidate := range validWorkflowActions {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseWorkflowAction converts raw input into a WorkflowAction.
func ParseWorkflowAction(value string) (WorkflowAction, error) {
	for _, candidate := range validWorkflowActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid workflow action %q", value)
}
