// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract walks the block sequence of a markdown document and
// assembles the specification elements it declares.
//
// An element starts at a heading named with the project prefix (or at a
// use-case "ID: " code block) and collects the paragraphs, bullet lists
// and code blocks that follow, filed under the active section, until a
// heading at the same depth or shallower closes it.
package extract

import (
	"log/slog"
	"strings"

	"github.com/pdiddy/spicy/internal/element"
	"github.com/pdiddy/spicy/internal/markdown"
	"github.com/pdiddy/spicy/internal/schema"
)

const (
	// maxLabelWords bounds the words before the colon of a field label.
	maxLabelWords = 5

	rejectedMarker = "REJECTED_"
	maxDepth       = 6
)

// detailKeys are the non-link sections whose following list or code block
// is read as a field value.
var detailKeys = map[string]bool{
	schema.KeyVerificationCriteria: true,
	schema.KeySpecification:        true,
	schema.KeyCases:                true,
	schema.KeyResults:              true,
}

// Machine is the extraction state for one document. It is not safe for
// concurrent use; create one per document.
type Machine struct {
	prefix   string
	filePath string
	logger   *slog.Logger

	headings   [maxDepth + 1]string
	lastHeader string
	lastDepth  int
	usedLevel  bool
	specLevel  int

	section string
	sticky  bool
	// restore is the section to return to once a non-sticky section has
	// consumed its block.
	restore string
	pending string

	builder  *element.Builder
	rejected bool
	counter  int
	elements []*element.Element
}

// NewMachine returns a fresh state machine for the document at filePath.
// A nil logger uses slog.Default().
func NewMachine(prefix, filePath string, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		prefix:   prefix,
		filePath: filePath,
		logger:   logger.With("file", filePath),
	}
}

// Extract runs a fresh Machine over blocks and returns the sealed,
// non-rejected elements in document order.
func Extract(prefix, filePath string, blocks []markdown.Block, logger *slog.Logger) []*element.Element {
	m := NewMachine(prefix, filePath, logger)
	for _, b := range blocks {
		m.Feed(b)
	}
	return m.Finish()
}

// Feed processes the next block.
func (m *Machine) Feed(b markdown.Block) {
	if b.Kind == markdown.KindParagraph && m.handleFlagField(b.Text) {
		return
	}
	if b.Kind == markdown.KindCodeBlock && isUseCase(b.Code) {
		m.startUseCase(b.Code)
		return
	}

	switch b.Kind {
	case markdown.KindHeading:
		m.handleHeading(b)
	case markdown.KindParagraph:
		if m.builder != nil {
			m.handleParagraph(b.Text)
		}
	case markdown.KindBulletList:
		if m.builder != nil {
			m.handleBulletList(b.Items)
		}
	case markdown.KindCodeBlock:
		if m.builder != nil {
			m.handleCodeBlock(b.Code)
		}
	default:
		m.logger.Debug("unhandled block", "kind", b.Kind.String())
	}
}

// Finish seals the open element and returns everything extracted.
func (m *Machine) Finish() []*element.Element {
	m.seal()
	out := m.elements
	m.elements = nil
	return out
}

func (m *Machine) handleHeading(b markdown.Block) {
	depth := min(max(b.Depth, 1), maxDepth)
	for i := depth; i <= maxDepth; i++ {
		m.headings[i] = ""
	}
	m.headings[depth] = b.Text
	m.lastHeader = b.Text
	m.lastDepth = depth
	m.usedLevel = false

	if m.builder != nil && depth <= m.specLevel {
		m.seal()
	}

	if m.isSpecHeading(b.Text) {
		m.startSpec(b.Text, depth)
		return
	}
	if m.builder == nil {
		return
	}

	if section, ok := element.SectionForTitle(b.Text); ok {
		m.setSticky(section)
		return
	}
	if label, ok := sectionLabel(b.Text); ok {
		key := schema.SectionKey(label)
		m.setSticky(key)
		m.setPending(key)
	}
}

func (m *Machine) isSpecHeading(text string) bool {
	text = strings.TrimSpace(text)
	return strings.HasPrefix(text, m.prefix+"_") || strings.HasPrefix(text, rejectedMarker+m.prefix+"_")
}

func (m *Machine) startSpec(text string, depth int) {
	m.seal()
	name := headingName(text)
	stem := strings.TrimPrefix(name, rejectedMarker)
	rejected := stem != name
	if rest, ok := strings.CutPrefix(stem, m.prefix+"_"); ok && strings.HasPrefix(rest, rejectedMarker) {
		rejected = true
		stem = m.prefix + "_" + strings.TrimPrefix(rest, rejectedMarker)
	}

	variant, ok := schema.FromPrefixedName(m.prefix, stem)
	if !ok {
		variant = schema.Unrecognized
	}
	m.counter++
	m.builder = element.NewBuilder(name, variant, m.counter, m.filePath, text)
	m.rejected = rejected
	m.specLevel = depth
	m.usedLevel = true
	m.setSticky(element.SectionPrologue)
	m.logger.Debug("found spec", "name", name, "variant", string(variant), "rejected", rejected, "path", m.headingPath())
}

func isUseCase(code string) bool {
	return strings.HasPrefix(strings.TrimSpace(code), element.UseCaseMarker)
}

func (m *Machine) startUseCase(code string) {
	m.seal()
	body := strings.TrimPrefix(strings.TrimSpace(code), element.UseCaseMarker)
	name := headingName(body)

	m.counter++
	m.builder = element.NewBuilder(name, schema.UseCase, m.counter, m.filePath, m.lastHeader)
	m.rejected = false
	if m.usedLevel {
		m.builder.AddIssue("%s reuses %s in %s", m.builder.Location(), m.lastHeader, m.filePath)
	}
	m.specLevel = m.lastDepth
	m.usedLevel = true
	m.setSticky(element.SectionPrologue)
	m.logger.Debug("found use case", "name", name, "title", m.lastHeader)
}

// handleFlagField consumes single-line "Label: value" paragraphs whose
// label is one of the yes/no flags stored on the element.
func (m *Machine) handleFlagField(text string) bool {
	label, value, ok := singleLineField(text)
	if !ok || m.builder == nil {
		return false
	}
	key, known := schema.NormalizeLabel(label)
	if !known {
		return false
	}
	switch key {
	case schema.KeyQualificationRelated, schema.KeySoftwareRequirement, schema.KeyNonFunctional:
	default:
		return false
	}
	if v, ok := element.ParseYesNo(value); ok {
		m.builder.SetFlag(key, v)
	} else {
		m.builder.AddIssue("In %s == %s=%q is not yes or no", m.builder.Location(), key, strings.TrimSpace(value))
	}
	m.logger.Debug("flag field", "name", m.builder.Name(), "key", key, "value", value)
	return true
}

func (m *Machine) handleParagraph(text string) {
	if label, ok := sectionLabel(text); ok {
		key := schema.SectionKey(label)
		m.setNonSticky(key)
		m.setPending(key)
		m.logger.Debug("non-sticky section", "label", label, "section", key)
		return
	}
	if m.section != "" {
		m.builder.AddContent(m.section, text)
	}
	m.consumed()
}

func (m *Machine) handleBulletList(items []markdown.Item) {
	switch {
	case m.section == element.SectionUsage:
		for _, item := range items {
			slot, ok := element.UsageSlotForTitle(item.Title)
			if ok && item.Trailing != "" {
				m.builder.SetUsage(slot, item.Trailing)
			}
		}
	case m.pending == schema.KeySpecification:
		for _, item := range items {
			title, value := item.Title, item.Trailing
			if title == "" {
				var found bool
				title, value, found = strings.Cut(item.Text, ":")
				if !found {
					m.builder.AddIssue("In %s == specification item %q has no title", m.builder.Location(), item.Text)
					continue
				}
			}
			m.builder.SetSpecification(title, strings.TrimSpace(value))
		}
	case m.section != "":
		for _, item := range items {
			m.builder.AddContent(m.section, item.Text)
		}
	}
	m.consumed()
}

func (m *Machine) handleCodeBlock(code string) {
	trimmed := strings.TrimSpace(code)
	switch {
	case strings.HasPrefix(trimmed, element.ToolImpactClass):
		if m.section != element.SectionToolImpact {
			m.builder.AddIssue("Tool impact in %s", m.sectionName())
		}
		v := strings.TrimSpace(strings.TrimPrefix(trimmed, element.ToolImpactClass))
		if !element.ValidImpact(v) {
			m.builder.AddIssue("In %s == impact='%s'", m.builder.Location(), v)
		}
		m.builder.SetImpact(v)
	case strings.HasPrefix(trimmed, element.DetectabilityClass):
		if m.section != element.SectionDetectability {
			m.builder.AddIssue("Detectability in %s", m.sectionName())
		}
		v := strings.TrimSpace(strings.TrimPrefix(trimmed, element.DetectabilityClass))
		if !element.ValidDetectability(v) {
			m.builder.AddIssue("In %s == detectability='%s'", m.builder.Location(), v)
		}
		m.builder.SetDetectability(v)
	case m.pending != "" && schema.IsLinkKey(m.pending):
		m.builder.AddContent(m.pending, strings.Fields(code)...)
	case m.pending != "":
		m.addLines(m.pending, code, strings.TrimSpace)
	case m.section != "":
		m.addLines(m.section, code, func(s string) string { return strings.TrimRight(s, " \t\r") })
	}
	m.consumed()
}

// addLines appends every non-blank line of a code block to section.
func (m *Machine) addLines(section, code string, trim func(string) string) {
	for _, line := range strings.Split(code, "\n") {
		if strings.TrimSpace(line) != "" {
			m.builder.AddContent(section, trim(line))
		}
	}
}

func (m *Machine) setSticky(section string) {
	m.section = section
	m.sticky = true
	m.restore = ""
	m.pending = ""
}

func (m *Machine) setNonSticky(section string) {
	if m.sticky {
		m.restore = m.section
	}
	m.section = section
	m.sticky = false
	m.pending = ""
}

func (m *Machine) setPending(key string) {
	if detailKeys[key] || schema.IsLinkKey(key) {
		m.pending = key
	}
}

// consumed ends a non-sticky section after its single block.
func (m *Machine) consumed() {
	m.pending = ""
	if m.sticky {
		return
	}
	m.section = m.restore
	m.sticky = m.section != ""
	m.restore = ""
}

// headingPath joins the open headings from the top level down.
func (m *Machine) headingPath() string {
	var parts []string
	for _, h := range m.headings[1:] {
		if h != "" {
			parts = append(parts, h)
		}
	}
	return strings.Join(parts, " > ")
}

func (m *Machine) sectionName() string {
	if m.section == "" {
		return "no section"
	}
	return m.section
}

func (m *Machine) seal() {
	if m.builder == nil {
		return
	}
	if m.rejected {
		m.logger.Debug("dropping rejected spec", "name", m.builder.Name())
	} else {
		m.elements = append(m.elements, m.builder.Build())
	}
	m.builder = nil
	m.rejected = false
	m.specLevel = 0
	m.section = ""
	m.sticky = false
	m.restore = ""
	m.pending = ""
}

// headingName is the first whitespace-separated token of a heading.
func headingName(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// sectionLabel matches a single-line "Label:" with one terminal colon and
// a short label.
func sectionLabel(text string) (string, bool) {
	line := strings.TrimSpace(text)
	if strings.Contains(line, "\n") || strings.Count(line, ":") != 1 || !strings.HasSuffix(line, ":") {
		return "", false
	}
	label := strings.TrimSuffix(line, ":")
	if label == "" || len(strings.Split(label, " ")) > maxLabelWords {
		return "", false
	}
	return label, true
}

// singleLineField matches a single-line "Label: value" with text on both
// sides of the only colon.
func singleLineField(text string) (label, value string, ok bool) {
	line := strings.TrimSpace(text)
	if strings.Contains(line, "\n") || strings.Count(line, ":") != 1 {
		return "", "", false
	}
	label, value, _ = strings.Cut(line, ":")
	if label == "" || strings.TrimSpace(value) == "" {
		return "", "", false
	}
	if len(strings.Split(label, " ")) > maxLabelWords {
		return "", "", false
	}
	return label, value, true
}
