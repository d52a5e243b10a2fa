// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pdiddy/spicy/internal/extract"
	"github.com/pdiddy/spicy/internal/index"
	"github.com/pdiddy/spicy/internal/trace"
	"github.com/pdiddy/spicy/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the element index (store, query, export, stats)",
	Long: `Index manages a local SQLite index of extracted elements and their
links. Use subcommands to index the documentation, query it, export it or
print summary statistics.`,
}

// --- store subcommand ---

var indexStoreCmd = &cobra.Command{
	Use:   "store [path]",
	Short: "Index the documentation and record a check run",
	Long: `Store extracts every document below path into the index. Documents
whose modification time is unchanged since the last run are skipped and
documents that disappeared are removed. Each run also validates the full
element set and records the run with its issue count.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndexStore,
}

func runIndexStore(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	ws, err := loadWorkspace(args)
	if err != nil {
		return err
	}
	store, err := openStore(cmd, ws.cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	gatherer := extract.NewGatherer(ws.cfg.Prefix, slog.Default())
	summary, err := store.Ingest(ctx, ws.files, gatherer, out)
	if err != nil {
		return err
	}

	run := types.CheckRun{ID: uuid.NewString(), Started: time.Now(), Prefix: ws.cfg.Prefix}
	elements, err := gatherElements(ctx, gatherer, ws, io.Discard)
	if err != nil {
		return err
	}
	result := trace.Validate(elements, trace.Options{Ignored: ignoredLinks(ws.cfg), Logger: slog.Default()})
	run.Elements = len(elements)
	run.Issues = len(result.Issues)
	if err := store.RecordRun(ctx, run); err != nil {
		return err
	}
	fmt.Fprintf(out, "run %s: %d elements, %d issue lines\n", run.ID, run.Elements, run.Issues)

	if summary.Failed > 0 {
		return fmt.Errorf("%d file(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- query subcommand ---

var indexQueryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Search the index with full-text search and filters",
	Long: `Query searches element names, titles and content using FTS5 full-text
search, structured filters (variant, name, file), or a combination of
both. With --links the stored links leaving and entering each result are
listed as well.`,
	RunE: runIndexQuery,
}

func runIndexQuery(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	cfg, err := indexConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --variant, --name, or --file")
	}

	results, err := store.Retrieve(ctx, opts)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(out, "No results found.")
		return nil
	}

	fmt.Fprintf(out, "%-4s  %-40s  %-24s  %s\n", "Rank", "Name", "Variant", "Location")
	fmt.Fprintln(out, strings.Repeat("-", 100))

	showLinks, _ := cmd.Flags().GetBool("links")
	for i, r := range results {
		fmt.Fprintf(out, "%-4d  %-40s  %-24s  %s:%d\n", i+1, truncate(r.Name, 40), r.Variant, r.FilePath, r.OrderingID)
		if !showLinks {
			continue
		}
		outgoing, incoming, err := store.Links(ctx, r.Name)
		if err != nil {
			return err
		}
		for _, l := range outgoing {
			fmt.Fprintf(out, "      %s -> %s\n", l.Label, l.Target)
		}
		for _, l := range incoming {
			fmt.Fprintf(out, "      %s <- %s\n", l.Label, l.Source)
		}
	}

	fmt.Fprintf(out, "\n%d results\n", len(results))
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// --- export subcommand ---

var indexExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the index to YAML or JSON",
	Long: `Export writes the indexed elements (or a filtered subset) with their
outgoing links to export.yaml or export.json in the index directory.
Supports the same filter flags as query.`,
	RunE: runIndexExport,
}

func runIndexExport(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	format, _ := cmd.Flags().GetString("format")

	cfg, err := indexConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)

	var path string
	switch format {
	case "yaml", "":
		path, err = store.ExportYAML(ctx, opts)
	case "json":
		path, err = store.ExportJSON(ctx, opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
	return nil
}

// --- stats subcommand ---

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print index statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := indexConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		st, err := store.Stats(commandContext(cmd))
		if err != nil {
			return err
		}
		st.Print(cmd.OutOrStdout())
		return nil
	},
}

// --- shared helpers ---

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// indexConfig loads the configuration from the current directory for
// commands that read an existing index.
func indexConfig() (types.Config, error) {
	return loadConfig(".")
}

func openStore(cmd *cobra.Command, cfg types.Config) (*index.Store, error) {
	icfg := cfg.Index
	if dir, _ := cmd.Flags().GetString("index-dir"); dir != "" {
		icfg.Dir = dir
	}
	if n, _ := cmd.Flags().GetInt("max-results"); n > 0 {
		icfg.MaxResults = n
	}
	return index.NewStore(icfg)
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) index.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}
	variant, _ := cmd.Flags().GetString("variant")
	name, _ := cmd.Flags().GetString("name")
	file, _ := cmd.Flags().GetString("file")
	limit, _ := cmd.Flags().GetInt("limit")

	if v, ok := lookupVariant(variant); ok {
		variant = string(v)
	}
	return index.QueryOptions{
		Query:      queryText,
		Variant:    variant,
		Name:       name,
		File:       file,
		MaxResults: limit,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	indexCmd.PersistentFlags().String("index-dir", "", "directory holding spicy.db (default from index.dir)")
	indexCmd.PersistentFlags().Int("max-results", 0, "maximum number of query results (default from index.max_results)")

	// Query flags.
	indexQueryCmd.Flags().String("query", "", "full-text search query")
	indexQueryCmd.Flags().String("variant", "", "filter by variant, e.g. SystemRequirement")
	indexQueryCmd.Flags().String("name", "", "filter by element name")
	indexQueryCmd.Flags().String("file", "", "filter by source document")
	indexQueryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	indexQueryCmd.Flags().Bool("links", false, "list the links of each result")
	indexQueryCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	indexExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	indexExportCmd.Flags().String("query", "", "full-text search filter for partial export")
	indexExportCmd.Flags().String("variant", "", "filter by variant for partial export")
	indexExportCmd.Flags().String("name", "", "filter by element name for partial export")
	indexExportCmd.Flags().String("file", "", "filter by source document for partial export")

	// Wire subcommands.
	indexCmd.AddCommand(indexStoreCmd)
	indexCmd.AddCommand(indexQueryCmd)
	indexCmd.AddCommand(indexExportCmd)
	indexCmd.AddCommand(indexStatsCmd)

	rootCmd.AddCommand(indexCmd)
}
