// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package refs checks raw markdown for references to prefixed headings.
// Every occurrence of a prefixed name outside its own heading must link
// to that heading; references naming no heading are reported with the
// closest known name.
package refs

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/agext/levenshtein"
)

// Location is a zero-based line in a file.
type Location struct {
	Path string
	Line int
}

func (l Location) String() string { return fmt.Sprintf("%s(%d)", l.Path, l.Line+1) }

// Report is the outcome of a check.
type Report struct {
	Issues []string
	// Fixed counts rewritten references when fixing is enabled.
	Fixed int
}

// Checker finds and optionally repairs references in a set of files.
type Checker struct {
	Prefix string
	// Root is the directory absolute links are computed from.
	Root string
	// Fix rewrites fixable references in place instead of reporting them.
	Fix    bool
	Logger *slog.Logger

	ignored   []*regexp.Regexp
	section   *regexp.Regexp
	reference *regexp.Regexp
}

// NewChecker compiles the patterns for prefix. Each ignored pattern must
// match at the start of a name to silence it.
func NewChecker(prefix, root string, ignored []string, logger *slog.Logger) (*Checker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Checker{
		Prefix:    prefix,
		Root:      root,
		Logger:    logger,
		section:   regexp.MustCompile(`^#+ (` + regexp.QuoteMeta(prefix) + `_\w+)$`),
		reference: regexp.MustCompile(`\b(` + regexp.QuoteMeta(prefix) + `_\w+)\b`),
	}
	for _, p := range ignored {
		re, err := regexp.Compile(`^(?:` + p + `)`)
		if err != nil {
			return nil, fmt.Errorf("compiling ignored ref %q: %w", p, err)
		}
		c.ignored = append(c.ignored, re)
	}
	return c, nil
}

func (c *Checker) isIgnored(name string) bool {
	for _, re := range c.ignored {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

type reference struct {
	name string
	at   Location
}

type edit struct {
	line                int
	actual, replacement string
}

// Check scans files for targets and references and reports, or fixes,
// every reference that does not carry the expected link.
func (c *Checker) Check(files []string) (Report, error) {
	contents := map[string][]string{}
	targets := map[string]Location{}
	var names []string
	var refs []reference

	for _, path := range files {
		src, err := os.ReadFile(path)
		if err != nil {
			return Report{}, fmt.Errorf("reading %s: %w", path, err)
		}
		lines := strings.Split(string(src), "\n")
		contents[path] = lines

		headingLines := map[int]bool{}
		for i, line := range lines {
			m := c.section.FindStringSubmatch(line)
			if m == nil || c.isIgnored(m[1]) {
				continue
			}
			if _, seen := targets[m[1]]; !seen {
				names = append(names, m[1])
			}
			targets[m[1]] = Location{Path: path, Line: i}
			headingLines[i] = true
		}
		for i, line := range lines {
			if headingLines[i] {
				continue
			}
			seen := map[string]bool{}
			for _, m := range c.reference.FindAllStringSubmatch(line, -1) {
				if seen[m[1]] || c.isIgnored(m[1]) {
					continue
				}
				seen[m[1]] = true
				refs = append(refs, reference{name: m[1], at: Location{Path: path, Line: i}})
			}
		}
	}
	c.Logger.Debug("scanned references", "files", len(files), "targets", len(names), "references", len(refs))

	var report Report
	edits := map[string][]edit{}
	var edited []string

	for _, ref := range refs {
		target, ok := targets[ref.name]
		if !ok {
			report.Issues = append(report.Issues, fmt.Sprintf(
				"Bad reference found: %s in %s has no matching section. Did you mean %s",
				ref.name, ref.at, Closest(ref.name, names)))
			continue
		}

		want := c.expectedLink(ref.name, ref.at.Path, target.Path)
		line := contents[ref.at.Path][ref.at.Line]
		m := linkPattern(ref.name).FindString(line)

		var e *edit
		switch {
		case m == "":
			if !c.Fix {
				report.Issues = append(report.Issues, fmt.Sprintf("Reference without a link: %s in %s", ref.name, ref.at))
				continue
			}
			e = &edit{line: ref.at.Line, actual: ref.name, replacement: want}
		case m != want:
			if !c.Fix {
				report.Issues = append(report.Issues, fmt.Sprintf(
					"Reference has bad link: %s in %s is %s but should be %s", ref.name, ref.at, m, want))
				continue
			}
			e = &edit{line: ref.at.Line, actual: m, replacement: want}
		default:
			continue
		}
		if _, ok := edits[ref.at.Path]; !ok {
			edited = append(edited, ref.at.Path)
		}
		edits[ref.at.Path] = append(edits[ref.at.Path], *e)
	}

	for _, path := range edited {
		if err := c.applyEdits(path, contents[path], edits[path]); err != nil {
			return report, err
		}
		report.Fixed += len(edits[path])
	}
	return report, nil
}

// expectedLink links within the same file by anchor and across files by
// a root-absolute path.
func (c *Checker) expectedLink(name, fromPath, toPath string) string {
	anchor := strings.ToLower(name)
	if fromPath == toPath {
		return fmt.Sprintf("[%s](#%s)", name, anchor)
	}
	rel, err := filepath.Rel(c.Root, toPath)
	if err != nil {
		rel = toPath
	}
	return fmt.Sprintf("[%s](/%s#%s)", name, filepath.ToSlash(rel), anchor)
}

func linkPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`\[` + regexp.QuoteMeta(name) + `\]\([\w\-./#]+\)`)
}

func (c *Checker) applyEdits(path string, lines []string, edits []edit) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	for _, e := range edits {
		line := lines[e.line]
		if strings.HasPrefix(e.actual, "[") {
			lines[e.line] = strings.ReplaceAll(line, e.actual, e.replacement)
			continue
		}
		bare := regexp.MustCompile(`\b` + regexp.QuoteMeta(e.actual) + `\b`)
		lines[e.line] = bare.ReplaceAllLiteralString(line, e.replacement)
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	c.Logger.Debug("fixed references", "path", path, "edits", len(edits))
	return nil
}

// Closest returns the candidate most similar to needle, or "" when there
// are no candidates. Ties go to the earlier candidate.
func Closest(needle string, candidates []string) string {
	best, bestScore := "", 0.0
	for _, c := range candidates {
		if score := levenshtein.Similarity(needle, c, nil); score > bestScore {
			best, bestScore = c, score
		}
	}
	return best
}
