package common

import (
	"path/filepath"
	"strings"
)

// PathUtils provides path manipulation utilities used across snapshot packages
type PathUtils struct{}

// NewPathUtils creates a new PathUtils instance
func NewPathUtils() *PathUtils {
	return &PathUtils{}
}

// NormalizePath normalizes a path for use as a snapshot key: forward slashes,
// no `.`/`..` elements, no duplicate separators, no trailing separator
// (except for the bare root).
func (pu *PathUtils) NormalizePath(path string) string {
	// First replace backslashes with forward slashes (for Windows paths)
	normalized := strings.ReplaceAll(path, "\\", "/")

	// Then clean the path to resolve . and .. elements
	normalized = filepath.ToSlash(filepath.Clean(normalized))

	// Remove trailing slash unless it's the root
	if len(normalized) > 1 && strings.HasSuffix(normalized, "/") {
		normalized = strings.TrimSuffix(normalized, "/")
	}

	return normalized
}

// TrimSeparators strips leading and trailing separator characters so that
// `/a/b/` and `a/b` compare identically during exclusion matching.
func (pu *PathUtils) TrimSeparators(path string) string {
	return strings.Trim(pu.NormalizePath(path), "/")
}

// SplitComponents splits a path into its separator-delimited components,
// dropping empty components produced by duplicate or boundary separators.
func (pu *PathUtils) SplitComponents(path string) []string {
	trimmed := pu.TrimSeparators(path)
	if trimmed == "" || trimmed == "." {
		return nil
	}

	parts := strings.Split(trimmed, "/")
	components := parts[:0]
	for _, part := range parts {
		if part != "" && part != "." {
			components = append(components, part)
		}
	}
	return components
}

// ComponentCounts builds the component multiset of a path: each component
// mapped to its occurrence count.
func (pu *PathUtils) ComponentCounts(path string) map[string]int {
	counts := make(map[string]int)
	for _, component := range pu.SplitComponents(path) {
		counts[component]++
	}
	return counts
}

// ValidatePath validates that a path is safe and accessible
func (pu *PathUtils) ValidatePath(path string) error {
	if path == "" {
		return ErrPathEmpty
	}

	if strings.Contains(path, "\x00") {
		return ErrPathInvalid
	}

	// Check path length (reasonable limit)
	if len(path) > 4096 {
		return ErrPathTooLong
	}

	return nil
}
