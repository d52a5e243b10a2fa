// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package element

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pdiddy/spicy/internal/schema"
)

// Ignored silences required forward links per variant. Labels compare
// without case.
type Ignored map[schema.Variant][]string

func (ig Ignored) has(v schema.Variant, label string) bool {
	for _, l := range ig[v] {
		if strings.EqualFold(strings.TrimSpace(l), label) {
			return true
		}
	}
	return false
}

// Issues returns the single-element problems of e. The first line is a
// header naming the element; detail lines are tab-indented. An element
// without problems returns nil.
func (e *Element) Issues(ignored Ignored) []string {
	var details []string
	var header string
	switch e.variant {
	case schema.Unrecognized:
		return []string{fmt.Sprintf("Spec %s is of an unknown type.", e.name)}
	case schema.UseCase:
		header = fmt.Sprintf("Issues in %s, %s", filepath.Base(e.filePath), e.name)
		details = e.useCaseIssues()
	default:
		header = fmt.Sprintf("%s(%s):", e.variant, e.name)
		details = e.specIssues(ignored)
	}
	details = append(details, e.parsingIssues...)
	if len(details) == 0 {
		return nil
	}
	out := make([]string, 0, len(details)+1)
	out = append(out, header)
	for _, d := range details {
		out = append(out, "\t"+d)
	}
	return out
}

func (e *Element) useCaseIssues() []string {
	var issues []string
	if e.impact == "" {
		issues = append(issues, "no impact")
	}
	if e.detectability == "" {
		issues = append(issues, "no detectability")
	}

	var noUsage []string
	for _, slot := range UsageSlots {
		if _, ok := e.usage[slot.Key]; !ok {
			noUsage = append(noUsage, slot.Key)
		}
	}
	if len(noUsage) > 0 {
		issues = append(issues, fmt.Sprintf("%d no usage: %s", len(noUsage), strings.Join(noUsage, ",")))
	}

	var noSection []string
	for _, s := range requiredSections {
		if _, ok := e.content[s]; !ok {
			noSection = append(noSection, s)
		}
	}
	if len(noSection) > 0 {
		issues = append(issues, fmt.Sprintf("%d no section information for:%s", len(noSection), strings.Join(noSection, ",")))
	}
	return issues
}

func (e *Element) specIssues(ignored Ignored) []string {
	var issues []string
	if !e.IsNonFunctional() {
		for _, link := range schema.ExpectedLinks(e.variant, false) {
			if ignored.has(e.variant, link.Label) {
				continue
			}
			if len(e.LinkedBy(schema.SectionKey(link.Label))) == 0 {
				issues = append(issues, fmt.Sprintf("Missing links for [%s %s]", link.Label, link.Target))
			}
		}
	}

	switch e.variant {
	case schema.SystemRequirement:
		if len(e.content[schema.KeyVerificationCriteria]) == 0 {
			issues = append(issues, "Missing verification criteria")
		}
	case schema.SystemQualificationTest:
		issues = append(issues, e.testRecordIssues("_SYS_QUAL_", "_SYS_TEST_")...)
	case schema.Validation:
		issues = append(issues, e.testRecordIssues("_VAL_", "_VAL_TEST_")...)
	}
	return issues
}

// testRecordIssues checks the Cases and Results lists of a qualification
// or validation test. Cases must be named {namePrefix}{caseInfix}...,
// where namePrefix is the element name before marker.
func (e *Element) testRecordIssues(marker, caseInfix string) []string {
	var issues []string
	namePrefix, _, _ := strings.Cut(e.name, marker)
	casePrefix := namePrefix + caseInfix

	cases := e.LinkedBy(schema.KeyCases)
	if len(cases) == 0 {
		issues = append(issues, "Does not monitor any test cases.")
	} else {
		var badlyNamed []string
		for _, c := range cases {
			if !strings.HasPrefix(c, casePrefix) {
				badlyNamed = append(badlyNamed, c)
			}
		}
		if len(badlyNamed) > 0 {
			issues = append(issues, fmt.Sprintf("Not all tests are correctly named (%s): [%s]", casePrefix, strings.Join(badlyNamed, ", ")))
		}
	}

	results := e.LinkedBy(schema.KeyResults)
	if len(results) == 0 {
		return append(issues, "Does not have any test results.")
	}
	resultCases := make([]string, 0, len(results))
	var unlinked []string
	for _, r := range results {
		c, _, _ := strings.Cut(r, ":")
		resultCases = append(resultCases, c)
		if !slices.Contains(cases, c) {
			unlinked = append(unlinked, c)
		}
	}
	if len(unlinked) > 0 {
		issues = append(issues, fmt.Sprintf("Not all results are correctly named: [%s]", strings.Join(unlinked, ", ")))
	}
	var noResult []string
	for _, c := range cases {
		if !slices.Contains(resultCases, c) && !slices.Contains(noResult, c) {
			noResult = append(noResult, c)
		}
	}
	if len(noResult) > 0 {
		issues = append(issues, fmt.Sprintf("Not all test cases have results: [%s]", strings.Join(noResult, ", ")))
	}
	return issues
}
