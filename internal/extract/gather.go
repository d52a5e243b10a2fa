// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/pdiddy/spicy/internal/element"
	"github.com/pdiddy/spicy/internal/markdown"
)

// DefaultInclude matches every markdown file below the root.
var DefaultInclude = []string{"**/*.md"}

// Discover returns the files below root matching any include pattern and
// no exclude pattern. Patterns use doublestar syntax relative to root.
// Paths are returned joined to root, sorted and without duplicates.
func Discover(root string, include, exclude []string) ([]string, error) {
	if len(include) == 0 {
		include = DefaultInclude
	}
	for _, p := range append(slices.Clone(include), exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid glob pattern %q", p)
		}
	}

	fsys := os.DirFS(root)
	var files []string
	for _, pattern := range include {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("matching %s in %s: %w", pattern, root, err)
		}
		for _, m := range matches {
			if excluded(m, exclude) {
				continue
			}
			files = append(files, filepath.Join(root, filepath.FromSlash(m)))
		}
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

func excluded(path string, exclude []string) bool {
	for _, pattern := range exclude {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}
	return false
}

// Summary holds counts from a gathering run.
type Summary struct {
	Files    int
	Elements int
	Failed   int
}

// Gatherer extracts elements from a set of files.
type Gatherer struct {
	Prefix string
	Logger *slog.Logger

	parser *markdown.Parser
}

// NewGatherer returns a Gatherer for the given project prefix.
func NewGatherer(prefix string, logger *slog.Logger) *Gatherer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gatherer{Prefix: prefix, Logger: logger, parser: markdown.NewParser()}
}

// File extracts the elements of one document from its source text.
func (g *Gatherer) File(path string, src []byte) []*element.Element {
	return Extract(g.Prefix, path, g.parser.Parse(src), g.Logger)
}

// ReadFile reads and extracts one document.
func (g *Gatherer) ReadFile(path string) ([]*element.Element, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return g.File(path, src), nil
}

// Gather extracts every file in order and concatenates the elements.
// Unreadable files are reported to w and counted; they do not stop the
// run. Progress lines go to w.
func (g *Gatherer) Gather(ctx context.Context, files []string, w io.Writer) ([]*element.Element, Summary, error) {
	var all []*element.Element
	var summary Summary
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return all, summary, err
		}
		elements, err := g.ReadFile(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			summary.Failed++
			continue
		}
		summary.Files++
		summary.Elements += len(elements)
		g.Logger.Debug("gathered", "file", path, "elements", len(elements))
		all = append(all, elements...)
	}
	return all, summary, nil
}
