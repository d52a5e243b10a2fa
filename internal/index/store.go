// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index persists extracted elements, their links and the history
// of check runs in a SQLite database with a full-text index over element
// text.
package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/spicy/internal/element"
	"github.com/pdiddy/spicy/pkg/types"
)

const (
	dbFile            = "spicy.db"
	defaultDir        = ".spicy"
	defaultMaxResults = 20
)

// Store manages the element index database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// NewStore opens or creates the index at cfg.Dir/spicy.db and creates the
// schema if it does not exist.
func NewStore(cfg types.IndexConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = defaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, dbFile)+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, dir: dir, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dir returns the directory holding the database and exports.
func (s *Store) Dir() string { return s.dir }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS files (
			path TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS elements (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			variant TEXT NOT NULL,
			ordering_id INTEGER NOT NULL,
			file_path TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
			title TEXT,
			body TEXT NOT NULL,
			record TEXT NOT NULL,
			UNIQUE(file_path, ordering_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_elements_name ON elements(name)`,
		`CREATE INDEX IF NOT EXISTS idx_elements_variant ON elements(variant)`,
		`CREATE TABLE IF NOT EXISTS links (
			source TEXT NOT NULL,
			label TEXT NOT NULL,
			target TEXT NOT NULL,
			file_path TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_links_source ON links(source)`,
		`CREATE INDEX IF NOT EXISTS idx_links_target ON links(target)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started TEXT NOT NULL,
			prefix TEXT NOT NULL,
			elements INTEGER NOT NULL,
			issues INTEGER NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='elements_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE elements_fts USING fts5(name, title, body, content=elements, content_rowid=rowid)`,
			`CREATE TRIGGER elements_ai AFTER INSERT ON elements BEGIN
				INSERT INTO elements_fts(rowid, name, title, body) VALUES (new.rowid, new.name, new.title, new.body);
			END`,
			`CREATE TRIGGER elements_ad AFTER DELETE ON elements BEGIN
				INSERT INTO elements_fts(elements_fts, rowid, name, title, body) VALUES('delete', old.rowid, old.name, old.title, old.body);
			END`,
			`CREATE TRIGGER elements_au AFTER UPDATE ON elements BEGIN
				INSERT INTO elements_fts(elements_fts, rowid, name, title, body) VALUES('delete', old.rowid, old.name, old.title, old.body);
				INSERT INTO elements_fts(rowid, name, title, body) VALUES (new.rowid, new.name, new.title, new.body);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Extractor reads the elements of one document.
type Extractor interface {
	ReadFile(path string) ([]*element.Element, error)
}

// IngestSummary holds counts from an indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Removed int
	Failed  int
}

// Total returns the number of files processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest indexes files, re-reading a file only when its modification time
// differs from the one recorded at its last indexing. Files indexed before
// but absent from files are removed.
func (s *Store) Ingest(ctx context.Context, files []string, ex Extractor, w io.Writer) (IngestSummary, error) {
	var summary IngestSummary

	for _, path := range files {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		info, err := os.Stat(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM files WHERE path = ?`, path,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", path)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		elements, err := ex.ReadFile(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			summary.Failed++
			continue
		}

		if err := s.ingestFile(ctx, path, elements, modTime); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d elements)\n", path, len(elements))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d elements)\n", path, len(elements))
			summary.Indexed++
		}
	}

	removed, err := s.prune(ctx, files, w)
	if err != nil {
		return summary, err
	}
	summary.Removed = removed

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, removed: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Removed, summary.Failed)

	return summary, nil
}

func (s *Store) ingestFile(ctx context.Context, path string, elements []*element.Element, modTime string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM elements WHERE file_path = ?`, path); err != nil {
		return fmt.Errorf("deleting old elements: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM links WHERE file_path = ?`, path); err != nil {
		return fmt.Errorf("deleting old links: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO files (path, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		path, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating file status: %w", err)
	}

	elemStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO elements (name, variant, ordering_id, file_path, title, body, record)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer elemStmt.Close()

	linkStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO links (source, label, target, file_path) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer linkStmt.Close()

	for _, e := range elements {
		record := e.Record()
		recordJSON, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encoding element %s: %w", e.Name(), err)
		}
		_, err = elemStmt.ExecContext(ctx,
			record.Name, record.Variant, record.OrderingID, path,
			record.Title, body(record), string(recordJSON),
		)
		if err != nil {
			return fmt.Errorf("inserting element %s: %w", e.Name(), err)
		}

		for _, l := range e.Links() {
			if _, err := linkStmt.ExecContext(ctx, l.Source, l.Label, l.Target, path); err != nil {
				return fmt.Errorf("inserting link %s -> %s: %w", l.Source, l.Target, err)
			}
		}
	}

	return tx.Commit()
}

// prune drops files that are indexed but no longer listed.
func (s *Store) prune(ctx context.Context, keep []string, w io.Writer) (int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM files ORDER BY path`)
	if err != nil {
		return 0, fmt.Errorf("listing indexed files: %w", err)
	}
	var stale []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning row: %w", err)
		}
		if !slices.Contains(keep, path) {
			stale = append(stale, path)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, path := range stale {
		for _, stmt := range []string{
			`DELETE FROM elements WHERE file_path = ?`,
			`DELETE FROM links WHERE file_path = ?`,
			`DELETE FROM files WHERE path = ?`,
		} {
			if _, err := s.db.ExecContext(ctx, stmt, path); err != nil {
				return 0, fmt.Errorf("removing %s: %w", path, err)
			}
		}
		fmt.Fprintf(w, "removed %s\n", path)
	}
	return len(stale), nil
}

// body is the searchable text of an element: its content lines and usage
// descriptions, section by section.
func body(r types.ElementRecord) string {
	var parts []string
	for _, key := range sortedKeys(r.Content) {
		parts = append(parts, r.Content[key]...)
	}
	for _, key := range sortedKeys(r.UsageSections) {
		parts = append(parts, r.UsageSections[key])
	}
	return strings.Join(parts, "\n")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
