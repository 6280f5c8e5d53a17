package enums

import "fmt"

// ApplicationKind distinguishes what the applicant is asking for.
type ApplicationKind string

const (
	ApplicationKindNewRegistration      ApplicationKind = "new_registration"
	ApplicationKindModification         ApplicationKind = "modification"
	ApplicationKindExistingRCOnboarding ApplicationKind = "existing_rc_onboarding"
	ApplicationKindRenewal              ApplicationKind = "renewal"
)

var validApplicationKinds = []ApplicationKind{
	ApplicationKindNewRegistration,
	ApplicationKindModification,
	ApplicationKindExistingRCOnboarding,
	ApplicationKindRenewal,
}

// String implements fmt.Stringer.
func (a ApplicationKind) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ApplicationKind.
func (a ApplicationKind) IsValid() bool {
	for _, candidate := range validApplicationKinds {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseApplicationKind converts raw input into an ApplicationKind.
func ParseApplicationKind(value string) (ApplicationKind, error) {
	for _, candidate := range validApplicationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid application kind %q", value)
}

// LocationType classifies where the property sits for fee rebates.
type LocationType string

const (
	LocationTypeUrban LocationType = "urban"
	LocationTypeRural LocationType = "rural"
)

// IsValid reports whether the value is a known LocationType.
func (l LocationType) IsValid() bool {
	return l == LocationTypeUrban || l == LocationTypeRural
}

// ParseLocationType converts raw input into a LocationType.
func ParseLocationType(value string) (LocationType, error) {
	lt := LocationType(value)
	if !lt.IsValid() {
		return "", fmt.Errorf("invalid location type %q", value)
	}
	return lt, nil
}
