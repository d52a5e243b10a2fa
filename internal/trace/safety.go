// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package trace

import (
	"fmt"
	"slices"

	"github.com/pdiddy/spicy/internal/schema"
)

// boundary is an edge of the V-model across which qualification relevance
// must be carried. For a forward boundary the relevant element's own link
// names the adjacent elements; otherwise the adjacent elements name it.
type boundary struct {
	variant  schema.Variant
	adjacent schema.Variant
	label    string
	forward  bool
}

var safetyBoundaries = []boundary{
	{schema.UseCase, schema.StakeholderNeed, "Fulfils", true},
	{schema.StakeholderNeed, schema.StakeholderRequirement, "Implements", false},
	{schema.StakeholderRequirement, schema.SystemRequirement, "Derived from", false},
	{schema.SystemRequirement, schema.SystemQualificationTest, "Tests", false},
}

// checkSafety reports qualification-related elements that no
// qualification-related neighbour satisfies. The neighbours that are
// linked but not safety related are listed under the report line.
func (v *validator) checkSafety() {
	for _, b := range safetyBoundaries {
		g := v.group(b.variant)
		adjacent := v.group(b.adjacent)
		key := schema.SectionKey(b.label)

		for _, name := range g.names {
			e := g.elements[name]
			if !e.IsQualificationRelated() {
				continue
			}

			var linked []string
			if b.forward {
				for _, ref := range e.LinkedBy(key) {
					if adjacent.has(ref) && !slices.Contains(linked, ref) {
						linked = append(linked, ref)
					}
				}
			} else {
				for _, other := range adjacent.names {
					if slices.Contains(adjacent.elements[other].LinkedBy(key), name) {
						linked = append(linked, other)
					}
				}
			}

			satisfied := false
			for _, other := range linked {
				if adjacent.elements[other].IsQualificationRelated() {
					satisfied = true
					break
				}
			}
			if satisfied {
				continue
			}
			slices.Sort(linked)
			v.logger.Debug("safety gap", "name", name, "adjacent", string(b.adjacent), "linked", len(linked))
			v.reportList(fmt.Sprintf("%s is not satisfied by any safety related %s", name, b.adjacent), linked)
		}
	}
}
