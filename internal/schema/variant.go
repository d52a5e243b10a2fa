// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package schema holds the static traceability schema: the closed set of
// element variants, the naming fragments that identify them, the required
// and optional links between them, and the label normalization table.
//
// Everything here is read-only after package initialization and safe for
// concurrent use.
package schema

import (
	"strings"
)

// Variant is the closed type tag of a specification element.
type Variant string

const (
	StakeholderNeed         Variant = "StakeholderNeed"
	StakeholderRequirement  Variant = "StakeholderRequirement"
	SystemRequirement       Variant = "SystemRequirement"
	SystemElement           Variant = "SystemElement"
	SystemIntegrationTest   Variant = "SystemIntegrationTest"
	SystemQualificationTest Variant = "SystemQualificationTest"
	SoftwareRequirement     Variant = "SoftwareRequirement"
	SoftwareArchitecture    Variant = "SoftwareArchitecture"
	SoftwareComponent       Variant = "SoftwareComponent"
	SoftwareComponentTest   Variant = "SoftwareComponentTest"
	SoftwareUnit            Variant = "SoftwareUnit"
	SoftwareUnitTest        Variant = "SoftwareUnitTest"
	SoftwareUnitIntegration Variant = "SoftwareUnitIntegration"
	SoftwareIntegration     Variant = "SoftwareIntegration"
	SoftwareQualification   Variant = "SoftwareQualification"
	UseCase                 Variant = "UseCase"
	Validation              Variant = "Validation"

	// Unrecognized is the fallback for names that follow the project
	// prefix but match no known fragment.
	Unrecognized Variant = "Unrecognized"
)

// variants lists every known variant in validation order.
var variants = []Variant{
	StakeholderNeed,
	StakeholderRequirement,
	SystemRequirement,
	SystemElement,
	SystemIntegrationTest,
	SystemQualificationTest,
	SoftwareRequirement,
	SoftwareArchitecture,
	SoftwareComponent,
	SoftwareComponentTest,
	SoftwareUnit,
	SoftwareUnitTest,
	SoftwareUnitIntegration,
	SoftwareIntegration,
	SoftwareQualification,
	UseCase,
	Validation,
}

// fragment maps a naming-convention code to its variant.
type fragment struct {
	code    string
	variant Variant
}

// fragments is the naming table. UseCase has no fragment: use-cases are
// introduced by an "ID: " code block instead of a heading.
var fragments = []fragment{
	{"STK_NEED", StakeholderNeed},
	{"STK_REQ", StakeholderRequirement},
	{"SYS_REQ", SystemRequirement},
	{"SYS_ELEMENT", SystemElement},
	{"SYS_INT", SystemIntegrationTest},
	{"SYS_QUAL", SystemQualificationTest},
	{"SW_REQ", SoftwareRequirement},
	{"SW_ARCH", SoftwareArchitecture},
	{"SW_COMP", SoftwareComponent},
	{"SW_COMP_TEST", SoftwareComponentTest},
	{"SW_UNIT", SoftwareUnit},
	{"SW_UNIT_TEST", SoftwareUnitTest},
	{"SW_UNIT_INT", SoftwareUnitIntegration},
	{"SW_INT", SoftwareIntegration},
	{"SW_QUAL", SoftwareQualification},
	{"VAL", Validation},
}

var softwareVariants = map[Variant]bool{
	SoftwareRequirement:     true,
	SoftwareArchitecture:    true,
	SoftwareComponent:       true,
	SoftwareComponentTest:   true,
	SoftwareUnit:            true,
	SoftwareUnitTest:        true,
	SoftwareUnitIntegration: true,
	SoftwareIntegration:     true,
	SoftwareQualification:   true,
}

// minimumNameParts is the number of underscore-separated segments a name
// needs before it can carry a variant: prefix, code, and at least one more.
const minimumNameParts = 3

// Variants returns every known variant in the fixed validation order.
func Variants() []Variant {
	out := make([]Variant, len(variants))
	copy(out, variants)
	return out
}

// IsKnown reports whether v is one of the defined variants.
// Unrecognized is not known.
func IsKnown(v Variant) bool {
	for _, known := range variants {
		if known == v {
			return true
		}
	}
	return false
}

// IsSoftware reports whether v belongs to the software part of the
// V-model (requirements, design, and their tests).
func IsSoftware(v Variant) bool {
	return softwareVariants[v]
}

// FromName guesses the variant of an element from its name. The first
// underscore-separated segment is treated as the project prefix and
// ignored. When several fragments match, the longest one wins, so
// "X_SW_UNIT_TEST_a" is a SoftwareUnitTest rather than a SoftwareUnit.
//
// A fragment must be followed by a separator (space, underscore, hyphen)
// or end the name, and must appear only once; otherwise the name has no
// variant and ok is false.
func FromName(name string) (v Variant, ok bool) {
	parts := strings.Split(name, "_")
	if len(parts) < minimumNameParts {
		return Unrecognized, false
	}
	rest := strings.Join(parts[1:], "_")

	var best *fragment
	for i := range fragments {
		f := &fragments[i]
		if !strings.HasPrefix(rest, f.code) {
			continue
		}
		if strings.Count(rest, f.code) != 1 {
			return Unrecognized, false
		}
		post := rest[len(f.code):]
		if post != "" && !strings.ContainsRune(" _-", rune(post[0])) {
			return Unrecognized, false
		}
		if best == nil || len(f.code) > len(best.code) {
			best = f
		}
	}
	if best == nil {
		return Unrecognized, false
	}
	return best.variant, true
}

// FromPrefixedName is FromName for project prefixes that may themselves
// contain underscores. The prefix is collapsed to a single segment before
// matching.
func FromPrefixedName(prefix, name string) (Variant, bool) {
	if prefix != "" && strings.HasPrefix(name, prefix+"_") {
		name = "P" + name[len(prefix):]
	}
	return FromName(name)
}
