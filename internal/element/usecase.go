// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package element

import (
	"fmt"
	"slices"
	"strings"
)

// Section keys used by use-case documents.
const (
	SectionPrologue      = "prologue"
	SectionFeatures      = "features"
	SectionUsage         = "usage"
	SectionToolImpact    = "tool_impact"
	SectionDetectability = "detectability"
)

// Code-block leaders that carry the tool impact and detectability classes.
const (
	ToolImpactClass    = "TI class:"
	DetectabilityClass = "TD class:"
)

// UseCaseMarker opens a use-case when it starts a code block.
const UseCaseMarker = "ID: "

// sectionTitles maps use-case heading text to its sticky section.
var sectionTitles = map[string]string{
	"Features, functions, and technical properties": SectionFeatures,
	"Description of usage":                          SectionUsage,
	"Impact analysis of feature":                    SectionToolImpact,
	"Detectability analysis of feature":             SectionDetectability,
}

// requiredSections are checked on every use-case. Usage is checked through
// the usage slots instead.
var requiredSections = []string{SectionPrologue, SectionFeatures, SectionToolImpact, SectionDetectability}

// UsageSlot is one of the fixed entries of a "Description of usage" list.
type UsageSlot struct {
	Key   string
	Title string
}

// UsageSlots lists the usage slots in reporting order.
var UsageSlots = []UsageSlot{
	{"inputs", "Inputs:"},
	{"outputs", "Outputs:"},
	{"purpose", "Purpose:"},
	{"usage", "Usage procedure:"},
	{"environment", "Environmental constraints:"},
}

// SectionForTitle returns the sticky section a use-case heading opens.
func SectionForTitle(heading string) (string, bool) {
	s, ok := sectionTitles[strings.TrimSpace(heading)]
	return s, ok
}

// UsageSlotForTitle matches a bold list-item title against the usage
// slots, ignoring case and the trailing colon.
func UsageSlotForTitle(title string) (string, bool) {
	t := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(title)), ":")
	for _, slot := range UsageSlots {
		if strings.TrimSuffix(strings.ToLower(slot.Title), ":") == t {
			return slot.Key, true
		}
	}
	return "", false
}

var (
	validImpacts         = []string{"", "TI1", "TI2"}
	validDetectabilities = []string{"", "TD1", "TD2", "TD3"}
)

// ValidImpact reports whether v is an allowed tool impact class.
// The empty string means unset.
func ValidImpact(v string) bool { return slices.Contains(validImpacts, v) }

// ValidDetectability reports whether v is an allowed detectability class.
func ValidDetectability(v string) bool { return slices.Contains(validDetectabilities, v) }

// TCL returns the tool confidence level for an impact and detectability
// pair. Empty values are unset. The result is "<undefined>" unless impact
// is TI1, or impact is TI2 and detectability is set.
func TCL(impact, detectability string) (string, error) {
	if !ValidImpact(impact) {
		return "", fmt.Errorf("invalid impact value: %q", impact)
	}
	if !ValidDetectability(detectability) {
		return "", fmt.Errorf("invalid detectability value: %q", detectability)
	}
	switch {
	case impact == "TI1":
		return "TCL1", nil
	case impact == "" || detectability == "":
		return "<undefined>", nil
	default:
		return "TCL" + detectability[len(detectability)-1:], nil
	}
}
