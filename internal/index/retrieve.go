// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/spicy/pkg/types"
)

// QueryOptions holds parameters for index queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string.
	Query string

	// Variant filters by element variant, e.g. "SystemRequirement".
	Variant string

	// Name filters by exact element name.
	Name string

	// File filters by source document path.
	File string

	// MaxResults limits result count. Zero uses store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Variant == "" && q.Name == "" && q.File == ""
}

// Retrieve queries the index with optional full-text search and
// structured filters. Results are ranked by relevance for full-text
// queries or ordered by file and position otherwise.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]types.ElementRecord, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT e.record
			FROM elements_fts
			JOIN elements e ON e.rowid = elements_fts.rowid
			WHERE elements_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(`SELECT e.record FROM elements e WHERE 1=1`)
	}

	if opts.Variant != "" {
		qb.WriteString(` AND e.variant = ?`)
		args = append(args, opts.Variant)
	}
	if opts.Name != "" {
		qb.WriteString(` AND e.name = ?`)
		args = append(args, opts.Name)
	}
	if opts.File != "" {
		qb.WriteString(` AND e.file_path = ?`)
		args = append(args, opts.File)
	}

	if useFTS {
		qb.WriteString(` ORDER BY elements_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY e.file_path, e.ordering_id`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var results []types.ElementRecord
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		var r types.ElementRecord
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("decoding element: %w", err)
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

// Links returns the stored links leaving or entering the named element.
func (s *Store) Links(ctx context.Context, name string) (outgoing, incoming []types.LinkRecord, err error) {
	outgoing, err = s.queryLinks(ctx, `SELECT source, label, target FROM links WHERE source = ? ORDER BY rowid`, name)
	if err != nil {
		return nil, nil, err
	}
	incoming, err = s.queryLinks(ctx, `SELECT source, label, target FROM links WHERE target = ? ORDER BY source, label`, name)
	if err != nil {
		return nil, nil, err
	}
	return outgoing, incoming, nil
}

func (s *Store) queryLinks(ctx context.Context, query, name string) ([]types.LinkRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("querying links: %w", err)
	}
	defer rows.Close()

	var out []types.LinkRecord
	for rows.Next() {
		var l types.LinkRecord
		if err := rows.Scan(&l.Source, &l.Label, &l.Target); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// runTimeLayout keeps fractional seconds at a fixed width so stored
// times sort as text.
const runTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RecordRun stores a check run.
func (s *Store) RecordRun(ctx context.Context, run types.CheckRun) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started, prefix, elements, issues) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Started.UTC().Format(runTimeLayout), run.Prefix, run.Elements, run.Issues,
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", run.ID, err)
	}
	return nil
}

// LastRun returns the most recent check run, or nil when none is recorded.
func (s *Store) LastRun(ctx context.Context) (*types.CheckRun, error) {
	var (
		run     types.CheckRun
		started string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, started, prefix, elements, issues FROM runs ORDER BY started DESC LIMIT 1`,
	).Scan(&run.ID, &started, &run.Prefix, &run.Elements, &run.Issues)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up last run: %w", err)
	}
	run.Started, err = time.Parse(runTimeLayout, started)
	if err != nil {
		return nil, fmt.Errorf("parsing run time: %w", err)
	}
	return &run, nil
}
