package documents

import (
	"fmt"

	"github.com/hptourism/homestay-portal/pkg/db/models"
	"github.com/hptourism/homestay-portal/pkg/enums"
	pkgerrors "github.com/hptourism/homestay-portal/pkg/errors"
)

// Requirement is one document type's rule within an upload policy.
type Requirement struct {
	Type     enums.DocumentType
	Required bool
	MaxCount int
}

// UploadPolicy is the set of document rules for one application shape. The
// submit gate refuses to leave draft until Validate passes.
type UploadPolicy struct {
	Requirements []Requirement
}

// PolicyFor resolves the upload rules for an application's kind and category.
func PolicyFor(kind enums.ApplicationKind, category enums.Category) UploadPolicy {
	reqs := []Requirement{
		{Type: enums.DocumentTypeOwnershipProof, Required: true, MaxCount: 2},
		{Type: enums.DocumentTypeAadhaarCard, Required: true, MaxCount: 2},
		{Type: enums.DocumentTypePhotographs, Required: true, MaxCount: 10},
		{Type: enums.DocumentTypeHimachaliBonafide, Required: true, MaxCount: 2},
		{Type: enums.DocumentTypeAffidavit, Required: true, MaxCount: 2},
	}

	if kind == enums.ApplicationKindExistingRCOnboarding {
		reqs = append(reqs, Requirement{Type: enums.DocumentTypeExistingRC, Required: true, MaxCount: 2})
	} else {
		reqs = append(reqs, Requirement{Type: enums.DocumentTypeExistingRC, Required: false, MaxCount: 2})
	}

	// Diamond properties carry structural and fire safety requirements.
	if category == enums.CategoryDiamond {
		reqs = append(reqs,
			Requirement{Type: enums.DocumentTypeBuildingPlan, Required: true, MaxCount: 3},
			Requirement{Type: enums.DocumentTypeFireNOC, Required: true, MaxCount: 2},
		)
	} else {
		reqs = append(reqs,
			Requirement{Type: enums.DocumentTypeBuildingPlan, Required: false, MaxCount: 3},
			Requirement{Type: enums.DocumentTypeFireNOC, Required: false, MaxCount: 2},
		)
	}

	return UploadPolicy{Requirements: reqs}
}

// Validate checks an application's uploaded set against the policy. The
// returned error carries the missing types so clients can render a checklist.
func (p UploadPolicy) Validate(docs []models.Document) error {
	counts := map[enums.DocumentType]int{}
	for _, d := range docs {
		counts[d.DocumentType]++
	}

	var missing []string
	for _, req := range p.Requirements {
		if req.Required && counts[req.Type] == 0 {
			missing = append(missing, string(req.Type))
		}
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "required documents missing").
			WithDetails(map[string]any{"missing_documents": missing})
	}
	return nil
}

// Allows reports whether one more upload of the type fits within the policy.
func (p UploadPolicy) Allows(docType enums.DocumentType, existing int) error {
	for _, req := range p.Requirements {
		if req.Type != docType {
			continue
		}
		if existing >= req.MaxCount {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("at most %d %s documents allowed", req.MaxCount, docType))
		}
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation,
		fmt.Sprintf("document type %s not accepted for this application", docType))
}
