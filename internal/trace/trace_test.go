// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package trace

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/spicy/internal/element"
	"github.com/pdiddy/spicy/internal/extract"
	"github.com/pdiddy/spicy/internal/markdown"
	"github.com/pdiddy/spicy/internal/schema"
)

// spec is a compact element description for building fixtures.
type spec struct {
	name    string
	variant schema.Variant
	links   map[string][]string
	flags   map[string]bool
}

func build(specs ...spec) []*element.Element {
	out := make([]*element.Element, 0, len(specs))
	for i, s := range specs {
		b := element.NewBuilder(s.name, s.variant, i+1, "doc.md", s.name)
		for key, refs := range s.links {
			b.AddContent(key, refs...)
		}
		for key, v := range s.flags {
			b.SetFlag(key, v)
		}
		out = append(out, b.Build())
	}
	return out
}

func linesWithPrefix(issues []string, prefix string) []string {
	var out []string
	for _, line := range issues {
		if strings.HasPrefix(line, prefix) {
			out = append(out, line)
		}
	}
	return out
}

// detailsAfter returns the tab-indented lines that follow header.
func detailsAfter(issues []string, header string) []string {
	for i, line := range issues {
		if line != header {
			continue
		}
		var details []string
		for _, d := range issues[i+1:] {
			if !strings.HasPrefix(d, "\t") {
				break
			}
			details = append(details, strings.TrimPrefix(d, "\t"))
		}
		return details
	}
	return nil
}

func TestValidateEmpty(t *testing.T) {
	r := Validate(nil, Options{})
	assert.False(t, r.HasErrors())
	assert.Empty(t, r.Issues)
}

func TestValidateUniqueNames(t *testing.T) {
	elements := build(
		spec{name: "TD_STK_NEED_a", variant: schema.StakeholderNeed},
		spec{name: "TD_STK_NEED_a", variant: schema.StakeholderNeed},
		spec{name: "TD_STK_NEED_a", variant: schema.StakeholderNeed},
	)
	r := Validate(elements, Options{})
	require.NotEmpty(t, r.Issues)
	assert.Equal(t, "Non unique name TD_STK_NEED_a has 3 instances", r.Issues[0])
}

func TestValidateSurfacesElementIssues(t *testing.T) {
	elements := build(spec{name: "TD_CAKE_x", variant: schema.Unrecognized})
	r := Validate(elements, Options{})
	assert.Equal(t, []string{"Spec TD_CAKE_x is of an unknown type."}, r.Issues)
	assert.True(t, r.HasErrors())
}

func TestValidateIgnoredLinks(t *testing.T) {
	elements := build(spec{name: "TD_SYS_ELEMENT_oven", variant: schema.SystemElement})
	r := Validate(elements, Options{Ignored: element.Ignored{schema.SystemElement: {"Implements"}}})
	assert.Empty(t, linesWithPrefix(r.Issues, "SystemElement(TD_SYS_ELEMENT_oven)"))
}

func TestValidateForwardLinks(t *testing.T) {
	elements := build(
		spec{name: "TD_STK_NEED_a", variant: schema.StakeholderNeed},
		spec{name: "TD_SYS_REQ_b", variant: schema.SystemRequirement},
		spec{
			name:    "TD_STK_REQ_c",
			variant: schema.StakeholderRequirement,
			links:   map[string][]string{schema.KeyImplements: {"TD_STK_NEED_z", "TD_STK_NEED_a", "TD_SYS_REQ_b", "TD_STK_NEED_z"}},
		},
	)
	r := Validate(elements, Options{})
	assert.Equal(t,
		[]string{"StakeholderRequirement TD_STK_REQ_c Implements unexpected StakeholderNeed TD_STK_NEED_z, TD_SYS_REQ_b"},
		linesWithPrefix(r.Issues, "StakeholderRequirement TD_STK_REQ_c"),
	)
}

func TestValidateBacklinkCoverage(t *testing.T) {
	needs := []spec{
		{name: "TD_STK_NEED_a", variant: schema.StakeholderNeed},
		{name: "TD_STK_NEED_b", variant: schema.StakeholderNeed},
	}
	useCase := spec{
		name:    "FEAT_X",
		variant: schema.UseCase,
		links:   map[string][]string{schema.KeyFulfils: {"TD_STK_NEED_a", "TD_STK_NEED_b"}},
	}
	covering := spec{
		name:    "TD_STK_REQ_r",
		variant: schema.StakeholderRequirement,
		links:   map[string][]string{schema.KeyImplements: {"TD_STK_NEED_a", "TD_STK_NEED_b"}},
	}
	header := "StakeholderNeed without a StakeholderRequirement [implements]:"

	full := Validate(build(needs[0], needs[1], useCase, covering), Options{})
	assert.NotContains(t, full.Issues, header)

	covering.links = map[string][]string{schema.KeyImplements: {"TD_STK_NEED_a"}}
	partial := Validate(build(needs[0], needs[1], useCase, covering), Options{})
	assert.Equal(t, []string{"TD_STK_NEED_b"}, detailsAfter(partial.Issues, header))
	assert.NotContains(t, partial.Issues, "StakeholderNeed without a UseCase [fulfils]:")
}

func TestValidateBacklinksSorted(t *testing.T) {
	elements := build(
		spec{name: "TD_STK_NEED_c", variant: schema.StakeholderNeed},
		spec{name: "TD_STK_NEED_a", variant: schema.StakeholderNeed},
		spec{name: "TD_STK_NEED_b", variant: schema.StakeholderNeed},
	)
	r := Validate(elements, Options{})
	assert.Equal(t,
		[]string{"TD_STK_NEED_a", "TD_STK_NEED_b", "TD_STK_NEED_c"},
		detailsAfter(r.Issues, "StakeholderNeed without a UseCase [fulfils]:"),
	)
}

func TestValidateSoftwareExemption(t *testing.T) {
	elements := build(
		spec{name: "TD_SYS_ELEMENT_casing", variant: schema.SystemElement, flags: map[string]bool{schema.KeySoftwareRequirement: false}},
		spec{name: "TD_SYS_ELEMENT_firmware", variant: schema.SystemElement},
	)
	r := Validate(elements, Options{})
	assert.Equal(t,
		[]string{"TD_SYS_ELEMENT_firmware"},
		detailsAfter(r.Issues, "SystemElement without a SoftwareRequirement [decomposes]:"),
	)
	assert.Equal(t,
		[]string{"TD_SYS_ELEMENT_casing", "TD_SYS_ELEMENT_firmware"},
		detailsAfter(r.Issues, "SystemElement without a SystemIntegrationTest [integrates]:"),
		"non-software sources still need every element",
	)
}

func TestValidateSafetyPropagation(t *testing.T) {
	safe := map[string]bool{schema.KeyQualificationRelated: true}
	need := spec{name: "TD_STK_NEED_a", variant: schema.StakeholderNeed, flags: safe}
	req := spec{
		name:    "TD_STK_REQ_r",
		variant: schema.StakeholderRequirement,
		links:   map[string][]string{schema.KeyImplements: {"TD_STK_NEED_a"}},
	}
	header := "TD_STK_NEED_a is not satisfied by any safety related StakeholderRequirement"

	r := Validate(build(need, req), Options{})
	assert.Equal(t, []string{"TD_STK_REQ_r"}, detailsAfter(r.Issues, header))

	req.flags = safe
	r = Validate(build(need, req), Options{})
	assert.NotContains(t, r.Issues, header)
}

func TestValidateSafetyUseCase(t *testing.T) {
	b := element.NewBuilder("FEAT_X", schema.UseCase, 1, "doc.md", "X")
	b.SetImpact("TI2")
	b.SetDetectability("TD3")
	b.AddContent(schema.KeyFulfils, "TD_STK_NEED_a")
	need := element.NewBuilder("TD_STK_NEED_a", schema.StakeholderNeed, 2, "doc.md", "")

	r := Validate([]*element.Element{b.Build(), need.Build()}, Options{})
	assert.Contains(t, r.Issues, "FEAT_X is not satisfied by any safety related StakeholderNeed")

	need.SetFlag(schema.KeyQualificationRelated, true)
	r = Validate([]*element.Element{b.Build(), need.Build()}, Options{})
	assert.NotContains(t, r.Issues, "FEAT_X is not satisfied by any safety related StakeholderNeed")
}

func TestValidateUnknownVariantPanics(t *testing.T) {
	v := &validator{byVariant: map[schema.Variant]*group{}}
	assert.Panics(t, func() { v.checkForwardLinks(schema.Variant("Cake")) })
	assert.Panics(t, func() { v.checkBacklinks(schema.Unrecognized) })
}

const useCaseDoc = `## Cookie ordering page

    ID: FEAT_COOKIE_ORDERING_PAGE

Customers order cookies from a web page.

Fulfils:

~~~
FEAT_GET_COOKIE
~~~

### Features, functions, and technical properties

The page lists every cookie in stock.

### Description of usage

- **Purpose:** order cookies
- **Inputs:** a cookie choice
- **Outputs:** an order
- **Usage procedure:** pick a cookie and press buy
- **Environmental constraints:** a web browser

### Impact analysis of feature

A wrong order is annoying.

~~~
TI class: TI2
~~~

### Detectability analysis of feature

Customers notice the wrong cookie.

~~~
TD class: TD1
~~~
`

func TestValidateUseCaseScenario(t *testing.T) {
	elements := extract.Extract("FEAT", "use_cases.md", markdown.Parse([]byte(useCaseDoc)), nil)
	require.Len(t, elements, 1)

	tcl, err := elements[0].TCL()
	require.NoError(t, err)
	assert.Equal(t, "TCL1", tcl)

	r := Validate(elements, Options{})
	assert.Equal(t, []string{"UseCase FEAT_COOKIE_ORDERING_PAGE Fulfils unexpected StakeholderNeed FEAT_GET_COOKIE"}, r.Issues)
}

const requirementsDoc = `## TD_STK_REQ_simple_stk_req

Customers can get cookies.

Implements:

- TD_STK_NEED_cookies

## TD_SYS_REQ_simple_sys_req

The system shall bake cookies.

TQP relevant: yes

Derived from:

- TD_STK_REQ_simple_stk_req

Verification Criteria:

The oven reaches 180 degrees.
`

func TestValidateSystemRequirementScenario(t *testing.T) {
	elements := extract.Extract("TD", "requirements.md", markdown.Parse([]byte(requirementsDoc)), nil)
	r := Validate(elements, Options{})

	assert.Empty(t, linesWithPrefix(r.Issues, "SystemRequirement(TD_SYS_REQ_simple_sys_req)"))
	assert.Empty(t, linesWithPrefix(r.Issues, "SystemRequirement TD_SYS_REQ_simple_sys_req"))
	assert.Contains(t, r.Issues, "StakeholderRequirement TD_STK_REQ_simple_stk_req Implements unexpected StakeholderNeed TD_STK_NEED_cookies")
	assert.NotContains(t, r.Issues, "StakeholderRequirement without a SystemRequirement [derived_from]:")
}

func TestValidateRejectedInvisible(t *testing.T) {
	doc := `## TD_REJECTED_STK_NEED_old

Nobody wants this.

## TD_STK_REQ_new

Implements:

- TD_STK_NEED_old
`
	elements := extract.Extract("TD", "doc.md", markdown.Parse([]byte(doc)), nil)
	r := Validate(elements, Options{})
	assert.Contains(t, r.Issues, "StakeholderRequirement TD_STK_REQ_new Implements unexpected StakeholderNeed TD_STK_NEED_old")
	assert.Empty(t, linesWithPrefix(r.Issues, "StakeholderNeed"))
}

func TestReport(t *testing.T) {
	var out strings.Builder
	assert.True(t, Report(&out, 0, Result{}))
	assert.Equal(t, "No elements.\n", out.String())

	out.Reset()
	assert.False(t, Report(&out, 4, Result{}))
	assert.Equal(t, "No issues found with any of the 4 specs\n", out.String())

	out.Reset()
	assert.True(t, Report(&out, 2, Result{Issues: []string{"header:", "\tdetail"}}))
	assert.Equal(t, "header:\n\tdetail\n", out.String())
}

const qualificationDoc = `## TD_SYS_REQ_a

The oven heats.

Verification Criteria:

~~~
The oven reaches 180 degrees.
~~~

## TD_SYS_QUAL_one

Tests:

- TD_SYS_REQ_a

Cases:

- TD_SYS_TEST_one

Results:

~~~
TD_SYS_TEST_one: pass
~~~
`

func TestValidateResultsFromCodeBlock(t *testing.T) {
	elements := extract.Extract("TD", "qualification.md", markdown.Parse([]byte(qualificationDoc)), nil)
	require.Len(t, elements, 2)

	req := elements[0]
	assert.Equal(t, []string{"The oven reaches 180 degrees."}, req.Content(schema.KeyVerificationCriteria))

	qual := elements[1]
	assert.Equal(t, []string{"TD_SYS_TEST_one: pass"}, qual.Content(schema.KeyResults))
	assert.Nil(t, qual.Issues(nil))

	r := Validate(elements, Options{})
	assert.Empty(t, linesWithPrefix(r.Issues, "SystemQualificationTest(TD_SYS_QUAL_one)"))
}
