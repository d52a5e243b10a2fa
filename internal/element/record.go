// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package element

import (
	"github.com/pdiddy/spicy/internal/schema"
	"github.com/pdiddy/spicy/pkg/types"
)

// Record converts the element to its serialized form.
func (e *Element) Record() types.ElementRecord {
	r := types.ElementRecord{
		Name:                 e.name,
		Variant:              string(e.variant),
		OrderingID:           e.orderingID,
		FilePath:             e.filePath,
		Title:                e.title,
		Impact:               e.impact,
		Detectability:        e.detectability,
		QualificationRelated: e.IsQualificationRelated(),
		SoftwareElement:      e.IsSoftwareElement(),
		NonFunctional:        e.IsNonFunctional(),
		ParsingIssues:        e.ParsingIssues(),
	}
	if e.variant == schema.UseCase {
		if tcl, err := e.TCL(); err == nil {
			r.TCL = tcl
		}
	}
	if len(e.content) > 0 {
		r.Content = make(map[string][]string, len(e.content))
		for _, k := range e.Sections() {
			r.Content[k] = e.Content(k)
		}
	}
	if len(e.usage) > 0 {
		r.UsageSections = e.UsageSections()
	}
	return r
}

// Records converts a list of elements.
func Records(elements []*Element) []types.ElementRecord {
	out := make([]types.ElementRecord, len(elements))
	for i, e := range elements {
		out[i] = e.Record()
	}
	return out
}

// Links returns the references held in the element's link sections,
// required labels first.
func (e *Element) Links() []types.LinkRecord {
	var out []types.LinkRecord
	seen := map[string]bool{}
	for _, link := range schema.ExpectedLinks(e.variant, true) {
		key := schema.SectionKey(link.Label)
		if seen[key] {
			continue
		}
		seen[key] = true
		for _, ref := range e.LinkedBy(key) {
			out = append(out, types.LinkRecord{Source: e.name, Label: link.Label, Target: ref})
		}
	}
	return out
}
