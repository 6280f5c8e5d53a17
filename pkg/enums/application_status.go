package enums

import "fmt"

// ApplicationStatus tracks the lifecycle of a homestay application.
type ApplicationStatus string

const (
	ApplicationStatusDraft                  ApplicationStatus = "draft"
	ApplicationStatusSubmitted              ApplicationStatus = "submitted"
	ApplicationStatusUnderScrutiny          ApplicationStatus = "under_scrutiny"
	ApplicationStatusForwardedToDTDO        ApplicationStatus = "forwarded_to_dtdo"
	ApplicationStatusDTDOReview             ApplicationStatus = "dtdo_review"
	ApplicationStatusInspectionScheduled    ApplicationStatus = "inspection_scheduled"
	ApplicationStatusInspectionUnderReview  ApplicationStatus = "inspection_under_review"
	ApplicationStatusRevertedToApplicant    ApplicationStatus = "reverted_to_applicant"
	ApplicationStatusSentBackForCorrections ApplicationStatus = "sent_back_for_corrections"
	ApplicationStatusVerifiedForPayment     ApplicationStatus = "verified_for_payment"
	ApplicationStatusPaymentPending         ApplicationStatus = "payment_pending"
	ApplicationStatusApproved               ApplicationStatus = "approved"
	ApplicationStatusRejected               ApplicationStatus = "rejected"
)

var validApplicationStatuses = []ApplicationStatus{
	ApplicationStatusDraft,
	ApplicationStatusSubmitted,
	ApplicationStatusUnderScrutiny,
	ApplicationStatusForwardedToDTDO,
	ApplicationStatusDTDOReview,
	ApplicationStatusInspectionScheduled,
	ApplicationStatusInspectionUnderReview,
	ApplicationStatusRevertedToApplicant,
	ApplicationStatusSentBackForCorrections,
	ApplicationStatusVerifiedForPayment,
	ApplicationStatusPaymentPending,
	ApplicationStatusApproved,
	ApplicationStatusRejected,
}

// Legacy values still present in rows migrated from the old portal. They are
// resolved to canonical statuses at the storage boundary and never written back.
var legacyStatusAliases = map[string]ApplicationStatus{
	"pending":         ApplicationStatusSubmitted,
	"district_review": ApplicationStatusUnderScrutiny,
	"state_review":    ApplicationStatusVerifiedForPayment,
}

// String implements fmt.Stringer.
func (a ApplicationStatus) String() string {
	return string(a)
}

// IsValid reports whether the value is a known canonical ApplicationStatus.
func (a ApplicationStatus) IsValid() bool {
	for _, candidate := range validApplicationStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are permitted.
func (a ApplicationStatus) IsTerminal() bool {
	return a == ApplicationStatusApproved || a == ApplicationStatusRejected
}

// ParseApplicationStatus converts raw input into a canonical ApplicationStatus.
func ParseApplicationStatus(value string) (ApplicationStatus, error) {
	for _, candidate := range validApplicationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid application status %q", value)
}

// NormalizeApplicationStatus resolves legacy aliases to canonical statuses.
// Unknown values pass through unchanged so callers can reject them explicitly.
func NormalizeApplicationStatus(value string) ApplicationStatus {
	if alias, ok := legacyStatusAliases[value]; ok {
		return alias
	}
	return ApplicationStatus(value)
}

// StatusAliasSet returns every stored value that normalizes to the given
// canonical status: the status itself plus its legacy aliases. SQL filters
// over status columns must use this set, not the canonical value alone.
func StatusAliasSet(status ApplicationStatus) []string {
	out := []string{string(status)}
	for alias, canonical := range legacyStatusAliases {
		if canonical == status {
			out = append(out, alias)
		}
	}
	return out
}
