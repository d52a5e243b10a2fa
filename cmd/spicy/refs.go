// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pdiddy/spicy/internal/refs"
)

var refsCmd = &cobra.Command{
	Use:   "refs [path]",
	Short: "Check that every prefixed name in the text links to its heading",
	Long: `Refs scans the raw markdown for headings named with the project
prefix and for every other occurrence of a prefixed name. Each occurrence
must link to its heading: within the same file by anchor, across files
by a path from the documentation root. Names with no heading are reported
with the closest known name.

With --fix missing and wrong links are rewritten in place. Names matching
an ignored_refs pattern in spicy.yaml are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRefs,
}

func runRefs(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	ws, err := loadWorkspace(args)
	if err != nil {
		return err
	}
	checker, err := refs.NewChecker(ws.cfg.Prefix, ws.root, ws.cfg.IgnoredRefs, slog.Default())
	if err != nil {
		return err
	}
	checker.Fix, _ = cmd.Flags().GetBool("fix")

	report, err := checker.Check(ws.files)
	if err != nil {
		return err
	}
	if report.Fixed > 0 {
		fmt.Fprintf(out, "fixed %d references\n", report.Fixed)
	}
	for _, line := range report.Issues {
		fmt.Fprintln(out, line)
	}
	if len(report.Issues) > 0 {
		return ErrIssuesFound
	}
	fmt.Fprintf(out, "All references in %d files are linked\n", len(ws.files))
	return nil
}

func init() {
	refsCmd.Flags().Bool("fix", false, "rewrite missing and wrong links in place")
	rootCmd.AddCommand(refsCmd)
}
