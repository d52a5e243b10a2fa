// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/spicy/internal/element"
	"github.com/pdiddy/spicy/internal/extract"
	"github.com/pdiddy/spicy/internal/fix"
	"github.com/pdiddy/spicy/internal/trace"
)

// ErrIssuesFound is returned when a check reports at least one issue. The
// issues have already been printed.
var ErrIssuesFound = errors.New("issues found")

var checkCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Extract every element and report traceability issues",
	Long: `Check reads every markdown document below path, extracts the
specification elements and prints one line per issue: duplicate names,
incomplete elements, links to unknown elements, elements nothing links
back to, and qualification-relevant elements whose neighbours are not.

The command exits non-zero when any issue is found. With --format the
extracted elements are printed as YAML or JSON instead of the report.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func addCheckFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", "", "print extracted elements instead of issues: yaml or json")
	cmd.Flags().Bool("check-links", false, "also report link sections that do not use markdown links")
	cmd.Flags().Bool("fix-links", false, "rewrite plain references in link sections into markdown links before checking")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	ws, err := loadWorkspace(args)
	if err != nil {
		return err
	}
	gatherer := extract.NewGatherer(ws.cfg.Prefix, slog.Default())

	elements, err := gatherElements(ctx, gatherer, ws, out)
	if err != nil {
		return err
	}

	if fixLinks, _ := cmd.Flags().GetBool("fix-links"); fixLinks {
		n, err := fix.Apply(fix.ExpectedLinks(elements), out)
		if err != nil {
			return err
		}
		if n > 0 {
			// Re-read so the report reflects the rewritten documents.
			if elements, err = gatherElements(ctx, gatherer, ws, out); err != nil {
				return err
			}
		}
	}

	format, _ := cmd.Flags().GetString("format")
	if format != "" {
		return writeRecords(out, format, element.Records(elements))
	}

	result := trace.Validate(elements, trace.Options{Ignored: ignoredLinks(ws.cfg), Logger: slog.Default()})
	if checkLinks, _ := cmd.Flags().GetBool("check-links"); checkLinks {
		result.Issues = append(result.Issues, fix.Review(fix.ExpectedLinks(elements))...)
	}

	if trace.Report(out, len(elements), result) {
		return ErrIssuesFound
	}
	return nil
}

func gatherElements(ctx context.Context, g *extract.Gatherer, ws *workspace, out io.Writer) ([]*element.Element, error) {
	elements, summary, err := g.Gather(ctx, ws.files, out)
	if err != nil {
		return nil, err
	}
	slog.Debug("discovered elements", "files", summary.Files, "elements", summary.Elements, "failed", summary.Failed)
	if summary.Failed > 0 {
		return nil, fmt.Errorf("%d file(s) could not be read", summary.Failed)
	}
	return elements, nil
}

func writeRecords(w io.Writer, format string, records any) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("encoding YAML: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
}

func init() {
	addCheckFlags(checkCmd)
	rootCmd.AddCommand(checkCmd)
}
