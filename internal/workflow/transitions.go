package workflow

import (
	"github.com/hptourism/homestay-portal/pkg/enums"
)

// Transition declares who may perform an action, where from, and where it
// lands. Every status mutation in the system goes through this table.
type Transition struct {
	Action          enums.WorkflowAction
	Roles           []enums.UserRole
	From            []enums.ApplicationStatus
	To              enums.ApplicationStatus
	RemarksRequired bool
	Event           enums.NotificationEvent
}

var transitions = map[enums.WorkflowAction]Transition{
	enums.ActionApplicationSubmitted: {
		Action: enums.ActionApplicationSubmitted,
		Roles:  []enums.UserRole{enums.UserRolePropertyOwner},
		From:   []enums.ApplicationStatus{enums.ApplicationStatusDraft},
		To:     enums.ApplicationStatusSubmitted,
		Event:  enums.NotifyApplicationSubmitted,
	},
	enums.ActionScrutinyStarted: {
		Action: enums.ActionScrutinyStarted,
		Roles:  []enums.UserRole{enums.UserRoleDealingAssistant},
		From:   []enums.ApplicationStatus{enums.ApplicationStatusSubmitted},
		To:     enums.ApplicationStatusUnderScrutiny,
	},
	enums.ActionSentBackForCorrections: {
		Action:          enums.ActionSentBackForCorrections,
		Roles:           []enums.UserRole{enums.UserRoleDealingAssistant},
		From:            []enums.ApplicationStatus{enums.ApplicationStatusUnderScrutiny},
		To:              enums.ApplicationStatusSentBackForCorrections,
		RemarksRequired: true,
		Event:           enums.NotifySentBack,
	},
	enums.ActionCorrectionResubmitted: {
		Action: enums.ActionCorrectionResubmitted,
		Roles:  []enums.UserRole{enums.UserRolePropertyOwner},
		From: []enums.ApplicationStatus{
			enums.ApplicationStatusSentBackForCorrections,
			enums.ApplicationStatusRevertedToApplicant,
		},
		To: enums.ApplicationStatusUnderScrutiny,
	},
	enums.ActionForwardedToDTDO: {
		Action: enums.ActionForwardedToDTDO,
		Roles:  []enums.UserRole{enums.UserRoleDealingAssistant},
		From:   []enums.ApplicationStatus{enums.ApplicationStatusUnderScrutiny},
		To:     enums.ApplicationStatusForwardedToDTDO,
	},
	enums.ActionDTDOReviewStarted: {
		Action: enums.ActionDTDOReviewStarted,
		Roles:  []enums.UserRole{enums.UserRoleDistrictTourismOfficer},
		From:   []enums.ApplicationStatus{enums.ApplicationStatusForwardedToDTDO},
		To:     enums.ApplicationStatusDTDOReview,
	},
	// A DTDO may revert straight off the forwarded queue without pressing
	// start-review first, mirroring reject.
	enums.ActionRevertedToApplicant: {
		Action: enums.ActionRevertedToApplicant,
		Roles:  []enums.UserRole{enums.UserRoleDistrictTourismOfficer},
		From: []enums.ApplicationStatus{
			enums.ApplicationStatusForwardedToDTDO,
			enums.ApplicationStatusDTDOReview,
		},
		To:              enums.ApplicationStatusRevertedToApplicant,
		RemarksRequired: true,
		Event:           enums.NotifyReverted,
	},
	enums.ActionInspectionScheduled: {
		Action: enums.ActionInspectionScheduled,
		Roles:  []enums.UserRole{enums.UserRoleDistrictTourismOfficer},
		From:   []enums.ApplicationStatus{enums.ApplicationStatusDTDOReview},
		To:     enums.ApplicationStatusInspectionScheduled,
		Event:  enums.NotifyInspectionScheduled,
	},
	enums.ActionInspectionCompleted: {
		Action: enums.ActionInspectionCompleted,
		Roles:  []enums.UserRole{enums.UserRoleDealingAssistant},
		From:   []enums.ApplicationStatus{enums.ApplicationStatusInspectionScheduled},
		To:     enums.ApplicationStatusInspectionUnderReview,
	},
	enums.ActionDTDOAccepted: {
		Action: enums.ActionDTDOAccepted,
		Roles:  []enums.UserRole{enums.UserRoleDistrictTourismOfficer},
		From:   []enums.ApplicationStatus{enums.ApplicationStatusInspectionUnderReview},
		To:     enums.ApplicationStatusVerifiedForPayment,
		Event:  enums.NotifyVerifiedForPayment,
	},
	// State-level fast track for applications that skip the site visit,
	// such as onboarding of an existing registration certificate.
	enums.ActionVerifiedForPayment: {
		Action: enums.ActionVerifiedForPayment,
		Roles:  []enums.UserRole{enums.UserRoleStateOfficer, enums.UserRoleAdmin},
		From: []enums.ApplicationStatus{
			enums.ApplicationStatusUnderScrutiny,
			enums.ApplicationStatusInspectionUnderReview,
		},
		To:    enums.ApplicationStatusVerifiedForPayment,
		Event: enums.NotifyVerifiedForPayment,
	},
	enums.ActionPaymentInitiated: {
		Action: enums.ActionPaymentInitiated,
		Roles:  []enums.UserRole{enums.UserRolePropertyOwner},
		From:   []enums.ApplicationStatus{enums.ApplicationStatusVerifiedForPayment},
		To:     enums.ApplicationStatusPaymentPending,
	},
	enums.ActionPaymentConfirmed: {
		Action: enums.ActionPaymentConfirmed,
		Roles: []enums.UserRole{
			enums.UserRolePropertyOwner,
			enums.UserRoleStateOfficer,
			enums.UserRoleAdmin,
		},
		From:  []enums.ApplicationStatus{enums.ApplicationStatusPaymentPending},
		To:    enums.ApplicationStatusApproved,
		Event: enums.NotifyPaymentConfirmed,
	},
	// Issuance stamps certificate fields without changing status; the audit
	// row records approved -> approved.
	enums.ActionCertificateIssued: {
		Action: enums.ActionCertificateIssued,
		Roles:  []enums.UserRole{enums.UserRoleStateOfficer, enums.UserRoleAdmin},
		From:   []enums.ApplicationStatus{enums.ApplicationStatusApproved},
		To:     enums.ApplicationStatusApproved,
		Event:  enums.NotifyCertificateIssued,
	},
	enums.ActionApplicationRejected: {
		Action: enums.ActionApplicationRejected,
		Roles: []enums.UserRole{
			enums.UserRoleDealingAssistant,
			enums.UserRoleDistrictTourismOfficer,
			enums.UserRoleStateOfficer,
			enums.UserRoleAdmin,
		},
		From: []enums.ApplicationStatus{
			enums.ApplicationStatusSubmitted,
			enums.ApplicationStatusUnderScrutiny,
			enums.ApplicationStatusForwardedToDTDO,
			enums.ApplicationStatusDTDOReview,
			enums.ApplicationStatusInspectionScheduled,
			enums.ApplicationStatusInspectionUnderReview,
			enums.ApplicationStatusVerifiedForPayment,
			enums.ApplicationStatusPaymentPending,
		},
		To:              enums.ApplicationStatusRejected,
		RemarksRequired: true,
		Event:           enums.NotifyApplicationRejected,
	},
}

// Lookup returns the transition for an action.
func Lookup(action enums.WorkflowAction) (Transition, bool) {
	t, ok := transitions[action]
	return t, ok
}

// AllowedActions lists the actions a role could perform from a status. Used
// to surface next steps in application detail responses.
func AllowedActions(role enums.UserRole, status enums.ApplicationStatus) []enums.WorkflowAction {
	var out []enums.WorkflowAction
	for _, t := range orderedTransitions() {
		if !roleAllowed(t, role) {
			continue
		}
		if !fromAllowed(t, status) {
			continue
		}
		out = append(out, t.Action)
	}
	return out
}

func roleAllowed(t Transition, role enums.UserRole) bool {
	for _, r := range t.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func fromAllowed(t Transition, status enums.ApplicationStatus) bool {
	for _, s := range t.From {
		if s == status {
			return true
		}
	}
	return false
}

func orderedTransitions() []Transition {
	out := make([]Transition, 0, len(transitions))
	for _, action := range []enums.WorkflowAction{
		enums.ActionApplicationSubmitted,
		enums.ActionScrutinyStarted,
		enums.ActionSentBackForCorrections,
		enums.ActionCorrectionResubmitted,
		enums.ActionForwardedToDTDO,
		enums.ActionDTDOReviewStarted,
		enums.ActionRevertedToApplicant,
		enums.ActionInspectionScheduled,
		enums.ActionInspectionCompleted,
		enums.ActionDTDOAccepted,
		enums.ActionVerifiedForPayment,
		enums.ActionPaymentInitiated,
		enums.ActionPaymentConfirmed,
		enums.ActionCertificateIssued,
		enums.ActionApplicationRejected,
	} {
		out = append(out, transitions[action])
	}
	return out
}
