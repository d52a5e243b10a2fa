// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package schema

// Link is a forward link expectation: an element carries a Label section
// whose entries name elements of the Target variant.
type Link struct {
	Label  string
	Target Variant
}

// Backlink is the inverse expectation: every element of some variant
// should be named under Label by at least one element of Source.
type Backlink struct {
	Source Variant
	Label  string
}

// requiredLinks must be present for an element to be complete. Lacking
// them means the element is still a draft.
var requiredLinks = map[Variant][]Link{
	StakeholderRequirement:  {{"Implements", StakeholderNeed}},
	SystemRequirement:       {{"Derived from", StakeholderRequirement}},
	SystemElement:           {{"Implements", SystemRequirement}},
	SystemIntegrationTest:   {{"Integrates", SystemElement}},
	SystemQualificationTest: {{"Tests", SystemRequirement}},
	Validation:              {{"Tests", StakeholderRequirement}},
	SoftwareRequirement:     {{"Realises", SystemRequirement}, {"Decomposes", SystemElement}},
	SoftwareArchitecture:    {{"Fulfils", SoftwareRequirement}},
	SoftwareComponent:       {{"Implements", SoftwareArchitecture}, {"Fulfils", SoftwareRequirement}},
	SoftwareUnit:            {{"Implements", SoftwareComponent}},
	SoftwareUnitTest:        {{"Tests", SoftwareUnit}},
	SoftwareUnitIntegration: {{"Integrates", SoftwareUnit}},
	SoftwareComponentTest:   {{"Tests", SoftwareComponent}},
	SoftwareIntegration:     {{"Integrates", SoftwareComponent}},
	SoftwareQualification:   {{"Tests", SoftwareRequirement}},
	UseCase:                 {{"Fulfils", StakeholderNeed}},
}

// optionalLinks are mostly the bidirectional counterparts of requiredLinks.
var optionalLinks = map[Variant][]Link{
	StakeholderNeed: {
		{"Fulfilled by", StakeholderRequirement},
		{"Qualified as", UseCase},
	},
	StakeholderRequirement: {
		{"Derives to", SystemRequirement},
		{"Implemented by", SystemElement},
		{"Validated by", Validation},
	},
	SystemRequirement: {
		{"Implemented as", SystemElement},
		{"Tested by", SystemQualificationTest},
		{"Requires", SoftwareRequirement},
	},
	SystemElement: {
		{"Composes", SoftwareRequirement},
		{"Integrated by", SystemIntegrationTest},
	},
	SoftwareRequirement: {
		{"Fulfilled by", SoftwareArchitecture},
		{"Tested by", SoftwareQualification},
	},
	SoftwareArchitecture: {
		{"Implemented by", SoftwareComponent},
	},
	SoftwareComponent: {
		{"Implemented by", SoftwareUnit},
		{"Integrated by", SoftwareIntegration},
		{"Tested by", SoftwareComponentTest},
	},
	SoftwareUnit: {
		{"Integrated by", SoftwareUnitIntegration},
		{"Tested by", SoftwareUnitTest},
	},
}

// ExpectedLinks returns the (label, target) pairs an element of variant v
// should carry. Optional links are appended after the required ones when
// includeOptional is set. The returned slice is a copy.
func ExpectedLinks(v Variant, includeOptional bool) []Link {
	out := append([]Link(nil), requiredLinks[v]...)
	if includeOptional {
		out = append(out, optionalLinks[v]...)
	}
	return out
}

// ExpectedBacklinks inverts the forward schema: for every source variant
// with a link targeting v it returns (source, label). Sources are listed
// in validation order; required backlinks come before optional ones.
func ExpectedBacklinks(v Variant, includeOptional bool) []Backlink {
	out := invert(requiredLinks, v)
	if includeOptional {
		out = append(out, invert(optionalLinks, v)...)
	}
	return out
}

func invert(table map[Variant][]Link, target Variant) []Backlink {
	var out []Backlink
	for _, source := range variants {
		for _, link := range table[source] {
			if link.Target == target {
				out = append(out, Backlink{Source: source, Label: link.Label})
			}
		}
	}
	return out
}

// IsLinkKey reports whether a section key holds a forward link list for
// any variant.
func IsLinkKey(key string) bool {
	for _, table := range []map[Variant][]Link{requiredLinks, optionalLinks} {
		for _, links := range table {
			for _, link := range links {
				if SectionKey(link.Label) == key {
					return true
				}
			}
		}
	}
	return false
}
