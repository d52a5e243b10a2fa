// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/pdiddy/spicy/pkg/types"
)

// VariantCount is the number of indexed elements of one variant.
type VariantCount struct {
	Variant string
	Count   int
}

// Stats summarizes the index contents.
type Stats struct {
	Files     int
	Elements  int
	Links     int
	Runs      int
	DBBytes   uint64
	ByVariant []VariantCount
	LastRun   *types.CheckRun
}

// Stats counts the indexed files, elements, links and runs.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT count(*) FROM files`, &st.Files},
		{`SELECT count(*) FROM elements`, &st.Elements},
		{`SELECT count(*) FROM links`, &st.Links},
		{`SELECT count(*) FROM runs`, &st.Runs},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return st, fmt.Errorf("counting: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT variant, count(*) FROM elements GROUP BY variant ORDER BY count(*) DESC, variant`)
	if err != nil {
		return st, fmt.Errorf("counting variants: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var vc VariantCount
		if err := rows.Scan(&vc.Variant, &vc.Count); err != nil {
			return st, fmt.Errorf("scanning row: %w", err)
		}
		st.ByVariant = append(st.ByVariant, vc)
	}
	if err := rows.Err(); err != nil {
		return st, err
	}

	for _, name := range []string{dbFile, dbFile + "-wal"} {
		if info, err := os.Stat(filepath.Join(s.dir, name)); err == nil {
			st.DBBytes += uint64(info.Size())
		}
	}

	st.LastRun, err = s.LastRun(ctx)
	return st, err
}

// Print writes a human readable summary of st.
func (st Stats) Print(w io.Writer) {
	fmt.Fprintf(w, "files:    %s\n", humanize.Comma(int64(st.Files)))
	fmt.Fprintf(w, "elements: %s\n", humanize.Comma(int64(st.Elements)))
	fmt.Fprintf(w, "links:    %s\n", humanize.Comma(int64(st.Links)))
	fmt.Fprintf(w, "runs:     %s\n", humanize.Comma(int64(st.Runs)))
	fmt.Fprintf(w, "database: %s\n", humanize.Bytes(st.DBBytes))
	for _, vc := range st.ByVariant {
		fmt.Fprintf(w, "  %-26s %s\n", vc.Variant, humanize.Comma(int64(vc.Count)))
	}
	if st.LastRun != nil {
		fmt.Fprintf(w, "last run: %s, %s issues (%s)\n",
			humanize.Time(st.LastRun.Started), humanize.Comma(int64(st.LastRun.Issues)), st.LastRun.ID)
	}
}
