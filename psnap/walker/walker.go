// Package walker implements the snapshot traversal engine: a concurrent,
// level-by-level walk of a directory tree that prunes excluded subtrees
// before they are enumerated and records one metadata entry per surviving
// path.
package walker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/ZanzyTHEbar/assert-lib"
	"github.com/sourcegraph/conc/pool"

	"github.com/ZanzyTHEbar/permsnap/psnap/common"
	"github.com/ZanzyTHEbar/permsnap/psnap/exclude"
	"github.com/ZanzyTHEbar/permsnap/psnap/metadata"
	"github.com/ZanzyTHEbar/permsnap/psnap/snapshot"
)

// Walker traverses a root path and assembles a Snapshot. Symbolic links are
// recorded as entries but never followed into subtrees, and per-path failures
// are absorbed locally so one unreadable directory cannot abort the run.
type Walker struct {
	maxWorkers int

	extractor     *metadata.Extractor
	pathUtils     *common.PathUtils
	validation    *common.ValidationUtils
	timeUtils     *common.TimeUtils
	assertHandler *assert.AssertHandler
}

// WalkStats tracks traversal counters. Fields are updated atomically while
// workers run.
type WalkStats struct {
	DirsVisited     int64
	EntriesRecorded int64
	ExcludedDirs    int64
	ExcludedFiles   int64
	VanishedPaths   int64
	SkippedPaths    int64
	UnreadableDirs  int64
	StartTime       int64
	EndTime         int64
}

// New creates a Walker. A non-positive maxWorkers selects the default worker
// count: CPU cores * 2 for I/O bound traversal, bounded for responsiveness
// and against resource exhaustion.
func New(maxWorkers int) *Walker {
	if maxWorkers <= 0 {
		maxWorkers = min(max(runtime.NumCPU()*2, 4), 32)
	}

	return &Walker{
		maxWorkers:    maxWorkers,
		extractor:     metadata.NewExtractor(),
		pathUtils:     common.NewPathUtils(),
		validation:    common.NewValidationUtils(),
		timeUtils:     common.NewTimeUtils(),
		assertHandler: assert.NewAssertHandler(),
	}
}

// Walk traverses root and returns the assembled Snapshot together with the
// traversal counters.
//
// Only a root that does not exist or is not a directory is fatal. The context
// is checked between directory levels and inside every worker; cancellation
// returns the partial snapshot along with the context error.
func (w *Walker) Walk(ctx context.Context, root string, rules *exclude.RuleSet) (*snapshot.Snapshot, *WalkStats, error) {
	if err := w.pathUtils.ValidatePath(root); err != nil {
		return nil, nil, err
	}

	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", common.ErrRootNotExist, root)
		}
		return nil, nil, fmt.Errorf("failed to stat root path %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("%w: %s", common.ErrRootNotDirectory, root)
	}

	snap := snapshot.New()
	stats := &WalkStats{StartTime: w.timeUtils.GetCurrentTime()}
	defer func() {
		stats.EndTime = w.timeUtils.GetCurrentTime()
		w.logStats(stats)
	}()

	rootKey := w.pathUtils.NormalizePath(root)
	if rules.ExcludesDir(rootKey) {
		slog.Info("root path matches an exclusion rule, nothing to record", "root", rootKey)
		return snap, stats, nil
	}

	// Guard against revisiting a directory reachable through more than one
	// enumeration of the same level.
	visited := make(map[string]bool)
	var visitedMu sync.Mutex

	// Process directories level by level, one worker per directory.
	currentLevel := []string{rootKey}

	for len(currentLevel) > 0 {
		if err := w.validation.ValidateContextCancellation(ctx); err != nil {
			return snap, stats, err
		}

		nextLevel := make([]string, 0, len(currentLevel))
		var nextLevelMu sync.Mutex

		// Create a new pool per level to avoid reusing closed pools.
		levelPool := pool.New().WithMaxGoroutines(w.maxWorkers).WithContext(ctx)

		for _, dir := range currentLevel {
			levelPool.Go(func(ctx context.Context) error {
				children, err := w.processDirectory(ctx, dir, rules, snap, stats, visited, &visitedMu)
				if err != nil {
					return err
				}

				nextLevelMu.Lock()
				nextLevel = append(nextLevel, children...)
				nextLevelMu.Unlock()
				return nil
			})
		}

		if err := levelPool.Wait(); err != nil {
			return snap, stats, err
		}

		currentLevel = nextLevel
	}

	return snap, stats, nil
}

// processDirectory lists one directory, records entries for its surviving
// children, and returns the child directories to descend into. The only
// error it can return is a context cancellation; every filesystem failure is
// counted and absorbed.
func (w *Walker) processDirectory(
	ctx context.Context,
	dir string,
	rules *exclude.RuleSet,
	snap *snapshot.Snapshot,
	stats *WalkStats,
	visited map[string]bool,
	visitedMu *sync.Mutex,
) ([]string, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	visitedMu.Lock()
	if visited[dir] {
		visitedMu.Unlock()
		return nil, nil
	}
	visited[dir] = true
	visitedMu.Unlock()

	atomic.AddInt64(&stats.DirsVisited, 1)

	entries, err := os.ReadDir(dir)
	if err != nil {
		atomic.AddInt64(&stats.UnreadableDirs, 1)
		slog.Warn("directory contents unreadable, skipping subtree",
			"path", dir,
			"error", err)
		return nil, nil
	}

	children := make([]string, 0, countDirs(entries))

	for _, entry := range entries {
		childPath := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			// Exclusion is tested before descending so excluded subtrees are
			// never enumerated.
			if rules.ExcludesDir(childPath) {
				atomic.AddInt64(&stats.ExcludedDirs, 1)
				slog.Debug("directory excluded", "path", childPath)
				continue
			}

			w.record(childPath, snap, stats)
			children = append(children, childPath)
			continue
		}

		// Everything that is not a real directory is a leaf: regular files,
		// special nodes, and symbolic links (including links to directories,
		// which are recorded but never descended into).
		if rules.ExcludesFile(childPath) {
			atomic.AddInt64(&stats.ExcludedFiles, 1)
			slog.Debug("file excluded", "path", childPath)
			continue
		}

		w.record(childPath, snap, stats)
	}

	return children, nil
}

// record extracts metadata for one path and inserts it into the snapshot. A
// vanished path still yields an all-sentinel entry; a path whose status could
// not be read at all is dropped but counted and logged.
func (w *Walker) record(path string, snap *snapshot.Snapshot, stats *WalkStats) {
	entry, err := w.extractor.Extract(path)
	if err != nil {
		atomic.AddInt64(&stats.SkippedPaths, 1)
		if errors.Is(err, fs.ErrPermission) {
			slog.Warn("permission denied inspecting path", "path", path)
		} else {
			slog.Warn("failed to inspect path", "path", path, "error", err)
		}
		return
	}

	if entry.Kind == snapshot.Unknown {
		atomic.AddInt64(&stats.VanishedPaths, 1)
	}

	snap.Add(entry)
	atomic.AddInt64(&stats.EntriesRecorded, 1)
}

// countDirs pre-scans a listing so the children slice is allocated once.
func countDirs(entries []os.DirEntry) int {
	dirCount := 0
	for _, entry := range entries {
		if entry.IsDir() {
			dirCount++
		}
	}
	return dirCount
}

// logStats logs traversal counters once a walk finishes.
func (w *Walker) logStats(stats *WalkStats) {
	slog.Info("traversal completed",
		"dirs_visited", atomic.LoadInt64(&stats.DirsVisited),
		"entries", atomic.LoadInt64(&stats.EntriesRecorded),
		"excluded_dirs", atomic.LoadInt64(&stats.ExcludedDirs),
		"excluded_files", atomic.LoadInt64(&stats.ExcludedFiles),
		"vanished", atomic.LoadInt64(&stats.VanishedPaths),
		"skipped", atomic.LoadInt64(&stats.SkippedPaths),
		"unreadable_dirs", atomic.LoadInt64(&stats.UnreadableDirs),
		"duration_ms", stats.EndTime-stats.StartTime)
}
