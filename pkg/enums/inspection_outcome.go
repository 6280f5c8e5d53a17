package enums

import "fmt"

// InspectionOutcome is the decision recorded when a site inspection completes.
type InspectionOutcome string

const (
	InspectionOutcomeApproved          InspectionOutcome = "approved"
	InspectionOutcomeCorrectionsNeeded InspectionOutcome = "corrections_needed"
	InspectionOutcomeRejected          InspectionOutcome = "rejected"
)

var validInspectionOutcomes = []InspectionOutcome{
	InspectionOutcomeApproved,
	InspectionOutcomeCorrectionsNeeded,
	InspectionOutcomeRejected,
}

// String implements fmt.Stringer.
func (i InspectionOutcome) String() string {
	return string(i)
}

// IsValid reports whether the value is a known InspectionOutcome.
func (i InspectionOutcome) IsValid() bool {
	for _, candidate := range validInspectionOutcomes {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseInspectionOutcome converts raw input into an InspectionOutcome.
func ParseInspectionOutcome(value string) (InspectionOutcome, error) {
	for _, candidate := range validInspectionOutcomes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inspection outcome %q", value)
}
