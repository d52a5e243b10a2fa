// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fix turns plain element references in link sections into
// markdown links that point at the referenced element's heading, and
// reviews documents for references that are missing or carry the wrong
// link.
package fix

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/pdiddy/spicy/internal/element"
	"github.com/pdiddy/spicy/internal/schema"
)

// Link is the markdown link an element reference is expected to carry.
type Link struct {
	Target   string
	Markdown string
}

// ElementLinks holds, per required-link section key, the links expected
// in one element.
type ElementLinks struct {
	Element  *element.Element
	Sections map[string][]Link
}

var (
	reAnchorDrop   = regexp.MustCompile(`[^a-z0-9-]`)
	reAnchorDashes = regexp.MustCompile(`-+`)
)

// Anchor converts heading text to the anchor mdbook generates for it.
func Anchor(text string) string {
	a := strings.ToLower(strings.TrimSpace(text))
	a = strings.NewReplacer(" ", "-", "_", "-").Replace(a)
	a = reAnchorDrop.ReplaceAllString(a, "")
	a = reAnchorDashes.ReplaceAllString(a, "-")
	return strings.Trim(a, "-")
}

// MarkdownLink returns the link from a document at fromPath to the heading
// of target declared in toPath.
func MarkdownLink(target, fromPath, toPath string) string {
	anchor := Anchor(target)
	if filepath.Clean(fromPath) == filepath.Clean(toPath) {
		return fmt.Sprintf("[%s](#%s)", target, anchor)
	}
	rel, err := filepath.Rel(filepath.Dir(fromPath), toPath)
	if err != nil {
		rel = toPath
	}
	return fmt.Sprintf("[%s](%s#%s)", target, filepath.ToSlash(rel), anchor)
}

// ExpectedLinks computes the links every element should carry in its
// required-link sections. References naming no known element are left
// out; the validator reports them.
func ExpectedLinks(elements []*element.Element) []ElementLinks {
	byName := map[string]*element.Element{}
	for _, e := range elements {
		if _, ok := byName[e.Name()]; !ok {
			byName[e.Name()] = e
		}
	}

	var out []ElementLinks
	for _, e := range elements {
		sections := map[string][]Link{}
		for _, link := range schema.ExpectedLinks(e.Variant(), false) {
			key := schema.SectionKey(link.Label)
			for _, ref := range e.LinkedBy(key) {
				target, ok := byName[ref]
				if !ok {
					continue
				}
				sections[key] = append(sections[key], Link{
					Target:   ref,
					Markdown: MarkdownLink(ref, e.FilePath(), target.FilePath()),
				})
			}
		}
		if len(sections) > 0 {
			out = append(out, ElementLinks{Element: e, Sections: sections})
		}
	}
	return out
}

// Review reports link-section lines that do not carry their expected
// markdown link.
func Review(expected []ElementLinks) []string {
	var issues []string
	for _, el := range expected {
		base := filepath.Base(el.Element.FilePath())
		keys := make([]string, 0, len(el.Sections))
		for k := range el.Sections {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		for _, key := range keys {
			byTarget := map[string]string{}
			for _, l := range el.Sections[key] {
				byTarget[l.Target] = l.Markdown
			}
			for _, line := range el.Element.Content(key) {
				text := element.ReferenceName(line)
				want, ok := byTarget[text]
				switch {
				case !ok:
					issues = append(issues, fmt.Sprintf("No expected link for [%s] in %s section %s, but had %s", text, base, key, line))
				case want != line:
					issues = append(issues,
						fmt.Sprintf("Link mismatch in %s section %s", base, key),
						fmt.Sprintf("\t%s:", text),
						fmt.Sprintf("\tExpected '%s'", want),
						fmt.Sprintf("\tFound '%s'", line),
					)
				}
			}
		}
	}
	return issues
}

type replacement struct {
	before, after string
}

// Apply rewrites plain bullet references into their expected markdown
// links, in place. Only bullet lines inside an element's own link sections
// that consist of nothing but the bullet and the bare name are touched. It
// returns the number of rewritten lines.
func Apply(expected []ElementLinks, w io.Writer) (int, error) {
	perFile := map[string][]ElementLinks{}
	var files []string
	for _, el := range expected {
		path := el.Element.FilePath()
		if _, ok := perFile[path]; !ok {
			files = append(files, path)
		}
		perFile[path] = append(perFile[path], el)
	}

	total := 0
	for _, path := range files {
		n, err := rewriteFile(path, perFile[path])
		if err != nil {
			return total, err
		}
		if n > 0 {
			fmt.Fprintf(w, "fixed   %s: %d links\n", path, n)
		}
		total += n
	}
	return total, nil
}

func rewriteFile(path string, elements []ElementLinks) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}

	lines := strings.Split(string(src), "\n")
	n := rewriteLines(lines, elements)
	if n == 0 {
		return 0, nil
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), info.Mode().Perm()); err != nil {
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	return n, nil
}

// rewriteLines rewrites, in place, the bare bullet references found in the
// link sections of the elements declared in lines. A link section opens at
// a "Label:" paragraph or heading of a link label and lasts for the
// following list (paragraph label) or until the next heading (heading
// label). Fenced code is never touched.
func rewriteLines(lines []string, elements []ElementLinks) int {
	byName := map[string]*ElementLinks{}
	byTitle := map[string]*ElementLinks{}
	for i := range elements {
		el := &elements[i]
		if _, ok := byName[el.Element.Name()]; !ok {
			byName[el.Element.Name()] = el
		}
		if _, ok := byTitle[strings.TrimSpace(el.Element.Title())]; !ok {
			byTitle[strings.TrimSpace(el.Element.Title())] = el
		}
	}

	var (
		current *ElementLinks
		depth   int
		repls   []replacement
		sticky  bool
		fenced  bool
	)
	n := 0
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			fenced = !fenced
			continue
		}
		if fenced {
			continue
		}

		if d, text, ok := heading(trimmed); ok {
			el := byName[firstField(text)]
			if el == nil {
				el = byTitle[text]
			}
			switch {
			case el != nil:
				current, depth, repls = el, d, nil
			case current != nil && d <= depth:
				current, repls = nil, nil
			default:
				repls, sticky = sectionReplacements(current, text), true
			}
			continue
		}
		if current == nil || trimmed == "" {
			continue
		}
		if isBullet(trimmed) {
			if fixed, ok := rewriteLine(line, repls); ok {
				lines[i] = fixed
				n++
			}
			continue
		}
		if label, ok := strings.CutSuffix(trimmed, ":"); ok {
			repls, sticky = sectionReplacements(current, label), false
			continue
		}
		if !sticky {
			repls = nil
		}
	}
	return n
}

// sectionReplacements returns the rewrites for the link section of el
// introduced by label, or nil when label opens no link section of el.
func sectionReplacements(el *ElementLinks, label string) []replacement {
	if el == nil {
		return nil
	}
	label = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(label), ":"))
	links := el.Sections[schema.SectionKey(label)]
	if len(links) == 0 {
		return nil
	}
	out := make([]replacement, len(links))
	for i, l := range links {
		out[i] = replacement{before: l.Target, after: l.Markdown}
	}
	return out
}

// heading splits an ATX heading line into its depth and text.
func heading(line string) (int, string, bool) {
	d := 0
	for d < len(line) && line[d] == '#' {
		d++
	}
	if d == 0 || d > 6 || d == len(line) || line[d] != ' ' {
		return 0, "", false
	}
	return d, strings.TrimSpace(strings.TrimRight(line[d:], "#")), true
}

func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

var bulletMarkers = []string{"- ", "* ", "+ "}

func isBullet(line string) bool {
	for _, marker := range bulletMarkers {
		if strings.HasPrefix(line, marker) {
			return true
		}
	}
	return false
}

// rewriteLine replaces a bullet line holding exactly a bare reference.
func rewriteLine(line string, repls []replacement) (string, bool) {
	body := strings.TrimLeft(line, " \t")
	indent := line[:len(line)-len(body)]
	for _, marker := range bulletMarkers {
		name, ok := strings.CutPrefix(body, marker)
		if !ok {
			continue
		}
		name = strings.TrimRight(name, " \t\r")
		for _, r := range repls {
			if name == r.before {
				return indent + marker + r.after, true
			}
		}
	}
	return line, false
}
