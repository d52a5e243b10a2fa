// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package element defines the specification element: a named, typed
// section of a document with its content, links and qualification flags.
//
// Elements are assembled by a mutable Builder during extraction and
// sealed into an immutable Element. Accessors return copies, so an
// Element can be shared freely once built.
package element

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/pdiddy/spicy/internal/schema"
)

// Element is a sealed specification element.
type Element struct {
	name          string
	variant       schema.Variant
	orderingID    int
	filePath      string
	title         string
	content       map[string][]string
	usage         map[string]string
	impact        string
	detectability string
	specification map[string]string
	parsingIssues []string

	qualificationRelated *bool
	softwareRequirement  *bool
	nonFunctional        *bool
}

func (e *Element) Name() string            { return e.name }
func (e *Element) Variant() schema.Variant { return e.variant }
func (e *Element) OrderingID() int         { return e.orderingID }
func (e *Element) FilePath() string        { return e.filePath }
func (e *Element) Title() string           { return e.title }
func (e *Element) Impact() string          { return e.impact }
func (e *Element) Detectability() string   { return e.detectability }

// Location identifies the element in diagnostics as file:ordering:name.
func (e *Element) Location() string {
	return location(e.filePath, e.orderingID, e.name)
}

// Content returns the lines stored under a section key.
func (e *Element) Content(section string) []string {
	return slices.Clone(e.content[section])
}

// Sections returns the section keys that hold content, sorted.
func (e *Element) Sections() []string {
	return slices.Sorted(maps.Keys(e.content))
}

// UsageSections returns a copy of the filled usage slots.
func (e *Element) UsageSections() map[string]string {
	return maps.Clone(e.usage)
}

// Specification returns a value from the "Specification:" titled list.
// Keys are lowercase titles without the trailing colon.
func (e *Element) Specification(key string) (string, bool) {
	v, ok := e.specification[key]
	return v, ok
}

// ParsingIssues returns the anomalies recorded while the element was built.
func (e *Element) ParsingIssues() []string {
	return slices.Clone(e.parsingIssues)
}

// TCL returns the tool confidence level of the element.
func (e *Element) TCL() (string, error) {
	return TCL(e.impact, e.detectability)
}

// specificationVariants may carry a "Specification:" sub-list whose safety
// entries override the qualification flag.
var specificationVariants = map[schema.Variant]bool{
	schema.StakeholderNeed:        true,
	schema.StakeholderRequirement: true,
	schema.SystemRequirement:      true,
	schema.SoftwareRequirement:    true,
}

// IsQualificationRelated reports whether the element is safety or
// qualification relevant. Use-cases derive it from their TCL; the stored
// flag is never changed by the specification override.
func (e *Element) IsQualificationRelated() bool {
	if e.variant == schema.UseCase {
		tcl, err := e.TCL()
		return err == nil && (tcl == "TCL2" || tcl == "TCL3")
	}
	if specificationVariants[e.variant] {
		for _, key := range []string{"safety related", "tcl relevant"} {
			if strings.EqualFold(strings.TrimSpace(e.specification[key]), "yes") {
				return true
			}
		}
	}
	return e.qualificationRelated != nil && *e.qualificationRelated
}

// IsSoftwareElement reports whether the element needs software
// traceability. Unset means true.
func (e *Element) IsSoftwareElement() bool {
	return e.softwareRequirement == nil || *e.softwareRequirement
}

// IsNonFunctional reports whether the element was marked non-functional.
func (e *Element) IsNonFunctional() bool {
	return e.nonFunctional != nil && *e.nonFunctional
}

// markdownLink matches a leading [text](target).
var markdownLink = regexp.MustCompile(`^\[([^\]]+)\]\([^)]*\)`)

// LinkedBy returns the names referenced under a link section key. List
// entries may be bare names or markdown links; trailing prose after the
// name is ignored. A missing key yields nil.
func (e *Element) LinkedBy(key string) []string {
	lines := e.content[key]
	if len(lines) == 0 {
		return nil
	}
	names := make([]string, 0, len(lines))
	for _, line := range lines {
		if name := ReferenceName(line); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// ReferenceName extracts the element name from a link list entry.
func ReferenceName(line string) string {
	line = strings.TrimSpace(line)
	if m := markdownLink.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1])
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func (e *Element) String() string {
	return fmt.Sprintf("%s:%s(%s:%d) %s (%d)", e.variant, e.name, e.filePath, e.orderingID, e.title, len(e.content))
}

func location(filePath string, orderingID int, name string) string {
	return fmt.Sprintf("%s:%d:%s", filePath, orderingID, name)
}

// Builder accumulates an element while its document section is walked.
type Builder struct {
	e Element
}

// NewBuilder starts an element.
func NewBuilder(name string, variant schema.Variant, orderingID int, filePath, title string) *Builder {
	return &Builder{e: Element{
		name:       name,
		variant:    variant,
		orderingID: orderingID,
		filePath:   filePath,
		title:      title,
		content:    map[string][]string{},
		usage:      map[string]string{},
	}}
}

func (b *Builder) Name() string            { return b.e.name }
func (b *Builder) Variant() schema.Variant { return b.e.variant }

// Location identifies the element being built.
func (b *Builder) Location() string { return b.e.Location() }

// AddContent appends lines to a section.
func (b *Builder) AddContent(section string, lines ...string) {
	b.e.content[section] = append(b.e.content[section], lines...)
}

// SetUsage fills a usage slot.
func (b *Builder) SetUsage(slot, text string) { b.e.usage[slot] = text }

// SetImpact records the tool impact class.
func (b *Builder) SetImpact(v string) { b.e.impact = v }

// SetDetectability records the detectability class.
func (b *Builder) SetDetectability(v string) { b.e.detectability = v }

// SetFlag stores a yes/no single-line field. It reports whether key is
// one of the flag keys.
func (b *Builder) SetFlag(key string, v bool) bool {
	switch key {
	case schema.KeyQualificationRelated:
		b.e.qualificationRelated = &v
	case schema.KeySoftwareRequirement:
		b.e.softwareRequirement = &v
	case schema.KeyNonFunctional:
		b.e.nonFunctional = &v
	default:
		return false
	}
	return true
}

// SetSpecification stores an entry of a "Specification:" titled list.
func (b *Builder) SetSpecification(title, value string) {
	if b.e.specification == nil {
		b.e.specification = map[string]string{}
	}
	key := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(title), ":"))
	b.e.specification[key] = value
}

// AddIssue records a parsing anomaly.
func (b *Builder) AddIssue(format string, args ...any) {
	b.e.parsingIssues = append(b.e.parsingIssues, fmt.Sprintf(format, args...))
}

// Build seals the element. The builder keeps no reference into the
// returned value.
func (b *Builder) Build() *Element {
	e := b.e
	e.content = make(map[string][]string, len(b.e.content))
	for k, v := range b.e.content {
		e.content[k] = slices.Clone(v)
	}
	e.usage = maps.Clone(b.e.usage)
	e.specification = maps.Clone(b.e.specification)
	e.parsingIssues = slices.Clone(b.e.parsingIssues)
	e.qualificationRelated = cloneBool(b.e.qualificationRelated)
	e.softwareRequirement = cloneBool(b.e.softwareRequirement)
	e.nonFunctional = cloneBool(b.e.nonFunctional)
	return &e
}

func cloneBool(p *bool) *bool {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ParseYesNo parses a yes/no field value, ignoring case and whitespace.
func ParseYesNo(v string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes":
		return true, true
	case "no":
		return false, true
	}
	return false, false
}
