package snapshot

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/armon/go-radix"

	"github.com/ZanzyTHEbar/permsnap/psnap/common"
)

// Snapshot is the path-keyed collection of entries produced by one traversal.
// Entries are stored in a radix tree so that iteration yields ascending
// lexicographic path order without a separate sort, alongside a direct map
// used for O(1) lookups and integrity verification.
//
// A Snapshot is an explicit accumulator: the walker adds entries, never
// updates or removes them, and concurrent insertion is synchronized here so
// workers do not need partitioned result sets.
type Snapshot struct {
	tree    *radix.Tree
	entries map[string]FileSystemEntry
	mu      sync.RWMutex

	pathUtils *common.PathUtils
}

// New creates an empty Snapshot.
func New() *Snapshot {
	return &Snapshot{
		tree:      radix.New(),
		entries:   make(map[string]FileSystemEntry),
		pathUtils: common.NewPathUtils(),
	}
}

// Add inserts an entry keyed by its normalized path. Re-adding a path
// replaces the previous entry, so `/a/b/` and `/a/b` occupy one slot.
func (s *Snapshot) Add(entry FileSystemEntry) {
	key := s.pathUtils.NormalizePath(entry.Path)
	entry.Path = key

	s.mu.Lock()
	defer s.mu.Unlock()

	_, updated := s.tree.Insert(key, entry)
	s.entries[key] = entry

	if updated {
		slog.Debug("snapshot entry replaced", "path", key)
	}
}

// Get returns the entry recorded for a path, if any.
func (s *Snapshot) Get(path string) (FileSystemEntry, bool) {
	key := s.pathUtils.NormalizePath(path)

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	return entry, ok
}

// Len returns the number of recorded entries.
func (s *Snapshot) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Paths returns every recorded path in ascending lexicographic order.
func (s *Snapshot) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0, len(s.entries))
	s.tree.Walk(func(key string, _ interface{}) bool {
		paths = append(paths, key)
		return false // Continue walking
	})
	return paths
}

// WalkEntries executes fn for each entry in ascending lexicographic path
// order. Returning true from fn stops the walk.
func (s *Snapshot) WalkEntries(fn func(path string, entry FileSystemEntry) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.tree.Walk(func(key string, value interface{}) bool {
		if entry, ok := value.(FileSystemEntry); ok {
			return fn(key, entry)
		}
		return false // Continue if type assertion fails
	})
}

// Merge copies every entry of other into s. Useful when workers accumulate
// into disjoint partial snapshots that are combined afterwards.
func (s *Snapshot) Merge(other *Snapshot) {
	if other == nil {
		return
	}

	other.WalkEntries(func(_ string, entry FileSystemEntry) bool {
		s.Add(entry)
		return false
	})
}

// Validate performs integrity checking between the radix tree and the direct
// mapping.
func (s *Snapshot) Validate() []error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var errs []error

	treeCount := 0
	s.tree.Walk(func(key string, value interface{}) bool {
		treeCount++

		if _, exists := s.entries[key]; !exists {
			errs = append(errs, fmt.Errorf("mapping_missing: path exists in radix tree but missing from direct mapping: %s", key))
		}

		if _, ok := value.(FileSystemEntry); !ok {
			errs = append(errs, fmt.Errorf("invalid_entry_type: invalid value type in radix tree: %s", key))
		}

		return false // Continue walking
	})

	if treeCount != len(s.entries) {
		errs = append(errs, fmt.Errorf("count_mismatch: radix tree and direct mapping have different counts"))
	}

	if len(errs) > 0 {
		slog.Warn("snapshot validation found issues", "error_count", len(errs))
	}

	return errs
}
