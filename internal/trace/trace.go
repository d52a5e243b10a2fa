// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package trace checks that a set of specification elements forms a
// consistent traceability graph: unique names, complete elements,
// resolvable forward links, covered backlinks, and safety relevance that
// propagates across the stakeholder and system boundaries.
//
// Validation is a pure function of its inputs. It reads the static schema
// and never mutates the elements, so several validations may run in
// parallel on separate element lists.
package trace

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/pdiddy/spicy/internal/element"
	"github.com/pdiddy/spicy/internal/schema"
)

// Result is the outcome of a validation run.
type Result struct {
	// Issues are report lines in order. Lines starting with a tab detail
	// the header line above them.
	Issues []string
}

// HasErrors reports whether any issue was found.
func (r Result) HasErrors() bool { return len(r.Issues) > 0 }

// Options tune a validation run.
type Options struct {
	// Ignored silences required forward links in per-element checks.
	Ignored element.Ignored
	Logger  *slog.Logger
}

// group is the elements of one variant, in first-seen order. A repeated
// name keeps its first position and its last element.
type group struct {
	names    []string
	elements map[string]*element.Element
}

func (g *group) add(e *element.Element) {
	if _, ok := g.elements[e.Name()]; !ok {
		g.names = append(g.names, e.Name())
	}
	g.elements[e.Name()] = e
}

func (g *group) has(name string) bool {
	_, ok := g.elements[name]
	return ok
}

// Validate runs every check over elements.
func Validate(elements []*element.Element, opts Options) Result {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	v := &validator{byVariant: map[schema.Variant]*group{}, logger: logger}

	v.checkUniqueNames(elements)
	for _, e := range elements {
		v.issues = append(v.issues, e.Issues(opts.Ignored)...)
	}

	for _, e := range elements {
		g, ok := v.byVariant[e.Variant()]
		if !ok {
			g = &group{elements: map[string]*element.Element{}}
			v.byVariant[e.Variant()] = g
		}
		g.add(e)
	}

	for _, variant := range schema.Variants() {
		g := v.byVariant[variant]
		if g == nil || len(g.names) == 0 {
			continue
		}
		logger.Debug("checking variant", "variant", string(variant), "count", len(g.names))
		v.checkForwardLinks(variant)
		v.checkBacklinks(variant)
	}

	v.checkSafety()
	return Result{Issues: v.issues}
}

type validator struct {
	byVariant map[schema.Variant]*group
	issues    []string
	logger    *slog.Logger
}

func (v *validator) report(format string, args ...any) {
	v.issues = append(v.issues, fmt.Sprintf(format, args...))
}

func (v *validator) reportList(header string, names []string) {
	v.issues = append(v.issues, header)
	for _, n := range names {
		v.issues = append(v.issues, "\t"+n)
	}
}

func (v *validator) group(variant schema.Variant) *group {
	if g := v.byVariant[variant]; g != nil {
		return g
	}
	return &group{elements: map[string]*element.Element{}}
}

func (v *validator) checkUniqueNames(elements []*element.Element) {
	counts := map[string]int{}
	var order []string
	for _, e := range elements {
		if counts[e.Name()] == 0 {
			order = append(order, e.Name())
		}
		counts[e.Name()]++
	}
	for _, name := range order {
		if counts[name] > 1 {
			v.report("Non unique name %s has %d instances", name, counts[name])
		}
	}
}

// checkForwardLinks reports references that do not name an element of the
// expected target variant.
func (v *validator) checkForwardLinks(variant schema.Variant) {
	mustBeKnown(variant)
	g := v.group(variant)
	for _, link := range schema.ExpectedLinks(variant, false) {
		key := schema.SectionKey(link.Label)
		targets := v.group(link.Target)
		for _, name := range g.names {
			var missing []string
			for _, ref := range g.elements[name].LinkedBy(key) {
				if !targets.has(ref) && !slices.Contains(missing, ref) {
					missing = append(missing, ref)
				}
			}
			if len(missing) == 0 {
				continue
			}
			slices.Sort(missing)
			v.report("%s %s %s unexpected %s %s", variant, name, link.Label, link.Target, strings.Join(missing, ", "))
		}
	}
}

// checkBacklinks reports elements of variant that no element of an
// expected source variant references. When the source is a software
// variant only software elements need covering.
func (v *validator) checkBacklinks(variant schema.Variant) {
	mustBeKnown(variant)
	g := v.group(variant)
	for _, back := range schema.ExpectedBacklinks(variant, false) {
		uncovered := map[string]bool{}
		for _, name := range g.names {
			if schema.IsSoftware(back.Source) && !g.elements[name].IsSoftwareElement() {
				continue
			}
			uncovered[name] = true
		}

		key := schema.SectionKey(back.Label)
		source := v.group(back.Source)
		for _, name := range source.names {
			for _, ref := range source.elements[name].LinkedBy(key) {
				delete(uncovered, ref)
			}
		}
		if len(uncovered) == 0 {
			continue
		}
		names := make([]string, 0, len(uncovered))
		for n := range uncovered {
			names = append(names, n)
		}
		slices.Sort(names)
		v.reportList(fmt.Sprintf("%s without a %s [%s]:", variant, back.Source, key), names)
	}
}

func mustBeKnown(variant schema.Variant) {
	if !schema.IsKnown(variant) {
		panic(fmt.Sprintf("trace: unknown variant %q", variant))
	}
}
