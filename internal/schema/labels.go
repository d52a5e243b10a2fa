// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package schema

import "strings"

// Canonical section keys produced by NormalizeLabel.
const (
	KeyQualificationRelated = "qualification_related"
	KeySoftwareRequirement  = "software_requirement"
	KeyNonFunctional        = "non_functional_requirement"
	KeyDerivedFrom          = "derived_from"
	KeyFulfils              = "fulfils"
	KeyFulfilledBy          = "fulfilled_by"
	KeyImplements           = "implements"
	KeyImplementedBy        = "implemented_by"
	KeyRealises             = "realises"
	KeyTests                = "tests"
	KeyTestedBy             = "tested_by"
	KeyIntegrates           = "integrates"
	KeyDecomposes           = "decomposes"
	KeyResults              = "results"
	KeyCases                = "cases"
	KeyVerificationCriteria = "verification_criteria"
	KeySpecification        = "specification"
	KeyDerivesTo            = "derives_to"
	KeyImplementedAs        = "implemented_as"
	KeyRequires             = "requires"
	KeyComposes             = "composes"
	KeyIntegratedBy         = "integrated_by"
	KeyValidatedBy          = "validated_by"
	KeyQualifiedAs          = "qualified_as"
)

// labelKeys is keyed by lowercase human label.
var labelKeys = map[string]string{
	"safety related":         KeyQualificationRelated,
	"qualification related":  KeyQualificationRelated,
	"qualification relevant": KeyQualificationRelated,
	"tqp relevant":           KeyQualificationRelated,
	"tcl relevant":           KeyQualificationRelated,
	"derived from":           KeyDerivedFrom,
	"fulfils":                KeyFulfils,
	"fulfilled by":           KeyFulfilledBy,
	"software element":       KeySoftwareRequirement,
	"implies software":       KeySoftwareRequirement,
	"non functional":         KeyNonFunctional,
	"non-functional":         KeyNonFunctional,
	"implements":             KeyImplements,
	"implemented by":         KeyImplementedBy,
	"realises":               KeyRealises,
	"tests":                  KeyTests,
	"tested by":              KeyTestedBy,
	"integrates":             KeyIntegrates,
	"decomposes":             KeyDecomposes,
	"results":                KeyResults,
	"cases":                  KeyCases,
	"verification criteria":  KeyVerificationCriteria,
	"specification":          KeySpecification,
	"derives to":             KeyDerivesTo,
	"implemented as":         KeyImplementedAs,
	"requires":               KeyRequires,
	"composes":               KeyComposes,
	"integrated by":          KeyIntegratedBy,
	"validated by":           KeyValidatedBy,
	"qualified as":           KeyQualifiedAs,
}

// NormalizeLabel maps a human-readable field name to its canonical key,
// ignoring case. Unknown labels return ok == false.
func NormalizeLabel(label string) (key string, ok bool) {
	key, ok = labelKeys[strings.ToLower(label)]
	return key, ok
}

// SectionKey is NormalizeLabel with the label itself as the fallback, so
// unknown headers are still stored, just outside the schema.
func SectionKey(label string) string {
	if key, ok := NormalizeLabel(label); ok {
		return key
	}
	return label
}
