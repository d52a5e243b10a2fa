// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pdiddy/spicy/internal/extract"
	"github.com/pdiddy/spicy/internal/fix"
)

var fixLinksCmd = &cobra.Command{
	Use:   "fix-links [path]",
	Short: "Turn plain references in link sections into markdown links",
	Long: `Fix-links rewrites bullet lines such as "- TD_STK_NEED_x" in the link
sections of every element into "- [TD_STK_NEED_x](needs.md#td-stk-need-x)",
pointing at the heading that declares the referenced element. Only
references to known elements are rewritten.

With --dry-run the documents are left untouched and the lines that would
change are reported instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFixLinks,
}

func runFixLinks(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	ws, err := loadWorkspace(args)
	if err != nil {
		return err
	}
	elements, err := gatherElements(ctx, extract.NewGatherer(ws.cfg.Prefix, slog.Default()), ws, out)
	if err != nil {
		return err
	}
	expected := fix.ExpectedLinks(elements)

	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		issues := fix.Review(expected)
		for _, line := range issues {
			fmt.Fprintln(out, line)
		}
		if len(issues) > 0 {
			return ErrIssuesFound
		}
		fmt.Fprintln(out, "All link sections use markdown links.")
		return nil
	}

	n, err := fix.Apply(expected, out)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "fixed %d links\n", n)
	return nil
}

func init() {
	fixLinksCmd.Flags().Bool("dry-run", false, "report lines that would change without writing")
	rootCmd.AddCommand(fixLinksCmd)
}
