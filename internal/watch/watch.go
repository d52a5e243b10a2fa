// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package watch re-runs the traceability check whenever a document below
// the watched root changes. Extraction results are cached per file and
// reused while the file content hash is unchanged.
package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pdiddy/spicy/internal/element"
	"github.com/pdiddy/spicy/internal/extract"
	"github.com/pdiddy/spicy/internal/trace"
)

const (
	defaultDebounce  = 500 * time.Millisecond
	defaultCacheSize = 256
)

// Config configures a Watcher.
type Config struct {
	Root    string
	Prefix  string
	Include []string
	Exclude []string
	Ignored element.Ignored

	// Debounce is how long to wait for more changes before re-checking.
	Debounce  time.Duration
	CacheSize int
}

type entry struct {
	hash     string
	elements []*element.Element
}

// Pass summarizes one check.
type Pass struct {
	Result    trace.Result
	Elements  int
	Extracted int
	Reused    int
}

// Watcher watches a documentation root and re-checks it on change.
type Watcher struct {
	cfg      Config
	gatherer *extract.Gatherer
	cache    *lru.Cache[string, entry]
	logger   *slog.Logger
	out      io.Writer

	mu    sync.Mutex
	dirty bool
}

// New returns a Watcher printing reports to out.
func New(cfg Config, logger *slog.Logger, out io.Writer) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}
	if len(cfg.Include) == 0 {
		cfg.Include = extract.DefaultInclude
	}
	cache, err := lru.New[string, entry](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating extraction cache: %w", err)
	}
	return &Watcher{
		cfg:      cfg,
		gatherer: extract.NewGatherer(cfg.Prefix, logger),
		cache:    cache,
		logger:   logger,
		out:      out,
	}, nil
}

// ContentHash returns the hex SHA-256 of content.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Check discovers the documents, extracts the changed ones and validates
// the whole set.
func (w *Watcher) Check(ctx context.Context) (Pass, error) {
	files, err := extract.Discover(w.cfg.Root, w.cfg.Include, w.cfg.Exclude)
	if err != nil {
		return Pass{}, err
	}

	var pass Pass
	var all []*element.Element
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return pass, err
		}
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(w.out, "failed  %s: %v\n", path, err)
			w.cache.Remove(path)
			continue
		}
		hash := ContentHash(src)
		if cached, ok := w.cache.Get(path); ok && cached.hash == hash {
			all = append(all, cached.elements...)
			pass.Reused++
			continue
		}
		elements := w.gatherer.File(path, src)
		w.cache.Add(path, entry{hash: hash, elements: elements})
		all = append(all, elements...)
		pass.Extracted++
	}

	pass.Elements = len(all)
	pass.Result = trace.Validate(all, trace.Options{Ignored: w.cfg.Ignored, Logger: w.logger})
	w.logger.Debug("check pass", "files", len(files), "extracted", pass.Extracted, "reused", pass.Reused)
	return pass, nil
}

func (w *Watcher) checkAndReport(ctx context.Context) {
	pass, err := w.Check(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("check failed", "error", err)
		}
		return
	}
	fmt.Fprintf(w.out, "\n--- %s ---\n", time.Now().Format(time.TimeOnly))
	trace.Report(w.out, pass.Elements, pass.Result)
}

// Run checks once, then re-checks after every burst of relevant changes
// until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addWatchesRecursive(fsw, w.cfg.Root); err != nil {
		return err
	}
	w.logger.Info("watching", "root", w.cfg.Root, "debounce", w.cfg.Debounce)

	w.checkAndReport(ctx)

	ticker := time.NewTicker(w.cfg.Debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)

		case <-ticker.C:
			if w.takeDirty() {
				w.checkAndReport(ctx)
			}
		}
	}
}

// addWatchesRecursive adds every non-hidden directory below root.
func (w *Watcher) addWatchesRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if isHidden(path) && path != root {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func isHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addWatchesRecursive(fsw, event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
			w.markDirty()
			return
		}
	}
	if !w.relevant(event.Name) {
		return
	}
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.cache.Remove(event.Name)
	}
	w.logger.Debug("document change detected", "path", event.Name, "op", event.Op.String())
	w.markDirty()
}

// relevant reports whether path is a document the check would read.
func (w *Watcher) relevant(path string) bool {
	rel, err := filepath.Rel(w.cfg.Root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	matched := false
	for _, p := range w.cfg.Include {
		if ok, _ := doublestar.Match(p, rel); ok {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	for _, p := range w.cfg.Exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return false
		}
	}
	return true
}

func (w *Watcher) markDirty() {
	w.mu.Lock()
	w.dirty = true
	w.mu.Unlock()
}

func (w *Watcher) takeDirty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	d := w.dirty
	w.dirty = false
	return d
}
