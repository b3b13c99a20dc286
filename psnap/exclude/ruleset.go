// Package exclude implements the exclusion filter consulted during snapshot
// traversal.
//
// Directories are matched by component-multiset containment: a rule excludes
// a directory when every component of the rule appears among the directory
// path's components with at least the same occurrence count, irrespective of
// order or position. Files are matched by verbatim rule-string equality,
// by self-generated byproduct suffix, and optionally by gitignore-style
// patterns loaded from an ignore file.
package exclude

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/ZanzyTHEbar/permsnap/psnap/common"
)

// Options configures a RuleSet.
type Options struct {
	// Rules are caller-supplied path strings naming directories or files to
	// skip. Empty or malformed rules are dropped, never fatal.
	Rules []string

	// ByproductSuffixes name file suffixes the tool itself generates; matching
	// files are always excluded so a snapshot never records its own output.
	ByproductSuffixes []string

	// IgnoreFile optionally points at a gitignore-style pattern file applied
	// to files in addition to the verbatim rule list.
	IgnoreFile string
}

// RuleSet holds the compiled exclusion state for one traversal.
type RuleSet struct {
	verbatim  map[string]struct{}
	multisets []map[string]int
	suffixes  []string
	patterns  *ignore.GitIgnore

	rules     []string
	pathUtils *common.PathUtils
}

// NewRuleSet compiles caller-supplied rules into a RuleSet.
func NewRuleSet(opts Options) (*RuleSet, error) {
	pathUtils := common.NewPathUtils()

	rs := &RuleSet{
		verbatim:  make(map[string]struct{}, len(opts.Rules)),
		multisets: make([]map[string]int, 0, len(opts.Rules)),
		suffixes:  opts.ByproductSuffixes,
		pathUtils: pathUtils,
	}

	for _, rule := range opts.Rules {
		if strings.TrimSpace(rule) == "" {
			continue
		}

		rs.rules = append(rs.rules, rule)
		rs.verbatim[rule] = struct{}{}

		counts := pathUtils.ComponentCounts(rule)
		if len(counts) == 0 {
			slog.Debug("dropping exclusion rule with no components", "rule", rule)
			continue
		}
		rs.multisets = append(rs.multisets, counts)
	}

	patterns, err := loadIgnoreFile(opts.IgnoreFile)
	if err != nil {
		return nil, err
	}
	rs.patterns = patterns

	return rs, nil
}

// loadIgnoreFile compiles an optional gitignore-style pattern file. A missing
// file is not an error; the filter simply runs without patterns.
func loadIgnoreFile(path string) (*ignore.GitIgnore, error) {
	if path == "" {
		return nil, nil
	}

	if _, err := os.Stat(path); err == nil {
		patterns, err := ignore.CompileIgnoreFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading ignore file %s: %w", path, err)
		}
		return patterns, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("error checking for ignore file %s: %w", path, err)
	}

	return nil, nil
}

// ExcludesDir reports whether a directory path matches any exclusion rule
// under the component-multiset containment test. The match ignores component
// order: rule `a/b` excludes both `a/b/c` and `a/c/b`.
func (rs *RuleSet) ExcludesDir(path string) bool {
	if len(rs.multisets) == 0 {
		return false
	}

	counts := rs.pathUtils.ComponentCounts(path)

	for _, rule := range rs.multisets {
		if containsMultiset(counts, rule) {
			return true
		}
	}
	return false
}

// ExcludesFile reports whether a file path is excluded. The verbatim test
// compares the exact path string against the rule list; a differently-cased
// or differently-spaced equivalent is not excluded.
func (rs *RuleSet) ExcludesFile(path string) bool {
	if _, ok := rs.verbatim[path]; ok {
		return true
	}

	for _, suffix := range rs.suffixes {
		if suffix != "" && strings.HasSuffix(path, suffix) {
			return true
		}
	}

	if rs.patterns != nil && rs.patterns.MatchesPath(path) {
		return true
	}

	return false
}

// Rules returns the accepted rule strings, sorted and de-duplicated, for
// console echo.
func (rs *RuleSet) Rules() []string {
	unique := make([]string, 0, len(rs.verbatim))
	for rule := range rs.verbatim {
		unique = append(unique, rule)
	}
	sort.Strings(unique)
	return unique
}

// Empty reports whether the set carries no exclusion state at all.
func (rs *RuleSet) Empty() bool {
	return len(rs.verbatim) == 0 && len(rs.suffixes) == 0 && rs.patterns == nil
}

// containsMultiset reports whether every component of rule is present in
// counts with at least the same occurrence count.
func containsMultiset(counts, rule map[string]int) bool {
	for component, n := range rule {
		if counts[component] < n {
			return false
		}
	}
	return true
}
