package enums

import "fmt"

// DocumentType identifies what an uploaded file is supposed to prove.
type DocumentType string

const (
	DocumentTypeOwnershipProof    DocumentType = "ownership_proof"
	DocumentTypeAadhaarCard       DocumentType = "aadhaar_card"
	DocumentTypePhotographs       DocumentType = "photographs"
	DocumentTypeHimachaliBonafide DocumentType = "himachali_bonafide"
	DocumentTypeBuildingPlan      DocumentType = "building_plan"
	DocumentTypeExistingRC        DocumentType = "existing_rc"
	DocumentTypeFireNOC           DocumentType = "fire_noc"
	DocumentTypeAffidavit         DocumentType = "affidavit"
)

var validDocumentTypes = []DocumentType{
	DocumentTypeOwnershipProof,
	DocumentTypeAadhaarCard,
	DocumentTypePhotographs,
	DocumentTypeHimachaliBonafide,
	DocumentTypeBuildingPlan,
	DocumentTypeExistingRC,
	DocumentTypeFireNOC,
	DocumentTypeAffidavit,
}

// String implements fmt.Stringer.
func (d DocumentType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DocumentType.
func (d DocumentType) IsValid() bool {
	for _, candidate := range validDocumentTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDocumentType converts raw input into a DocumentType.
func ParseDocumentType(value string) (DocumentType, error) {
	for _, candidate := range validDocumentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid document type %q", value)
}

// DocVerificationStatus tracks reviewer decisions on an uploaded document.
type DocVerificationStatus string

const (
	DocVerificationPending         DocVerificationStatus = "pending"
	DocVerificationVerified        DocVerificationStatus = "verified"
	DocVerificationNeedsCorrection DocVerificationStatus = "needs_correction"
	DocVerificationRejected        DocVerificationStatus = "rejected"
)

var validDocVerificationStatuses = []DocVerificationStatus{
	DocVerificationPending,
	DocVerificationVerified,
	DocVerificationNeedsCorrection,
	DocVerificationRejected,
}

// IsValid reports whether the value is a known DocVerificationStatus.
func (d DocVerificationStatus) IsValid() bool {
	for _, candidate := range validDocVerificationStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDocVerificationStatus converts raw input into a DocVerificationStatus.
func ParseDocVerificationStatus(value string) (DocVerificationStatus, error) {
	for _, candidate := range validDocVerificationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid document verification status %q", value)
}
