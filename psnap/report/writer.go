// Package report serializes snapshots into the persisted baseline artifact
// and renders console summaries.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	internal "github.com/ZanzyTHEbar/permsnap/psnap"
	"github.com/ZanzyTHEbar/permsnap/psnap/common"
	"github.com/ZanzyTHEbar/permsnap/psnap/snapshot"
	"github.com/ZanzyTHEbar/permsnap/psnap/walker"
)

// Description carries the five descriptive fields of an entry in the
// baseline artifact layout. Downstream diff tooling keys on these exact
// field names.
type Description struct {
	Group string `json:"group"`
	Mode  string `json:"mode"`
	Prot  string `json:"prot"`
	Type  string `json:"type"`
	User  string `json:"user"`
}

// Element is one record of the persisted artifact: a zero-based sequential
// id, the path, and the descriptive fields.
type Element struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	Description Description `json:"description"`
}

// Document is the full persisted artifact. Data is ordered by ascending path.
type Document struct {
	SnapshotID  string    `json:"snapshot_id"`
	Platform    string    `json:"platform"`
	GeneratedAt time.Time `json:"generated_at"`
	Data        []Element `json:"data"`
}

// Generator assembles and writes snapshot artifacts.
type Generator struct{}

// NewGenerator creates a new Generator instance
func NewGenerator() *Generator {
	return &Generator{}
}

// Build assembles the artifact from a snapshot: entries in ascending
// lexicographic path order, ids assigned sequentially from zero.
func (g *Generator) Build(snap *snapshot.Snapshot, platform string) *Document {
	doc := &Document{
		SnapshotID:  uuid.NewString(),
		Platform:    platform,
		GeneratedAt: time.Now().UTC(),
		Data:        make([]Element, 0, snap.Len()),
	}

	id := 0
	snap.WalkEntries(func(path string, entry snapshot.FileSystemEntry) bool {
		doc.Data = append(doc.Data, Element{
			ID:   id,
			Name: path,
			Description: Description{
				Group: entry.Group,
				Mode:  entry.ModeOctal,
				Prot:  entry.ModeSymbolic,
				Type:  entry.KindString(),
				User:  entry.Owner,
			},
		})
		id++
		return false
	})

	return doc
}

// Write encodes the artifact as JSON.
func (g *Generator) Write(w io.Writer, doc *Document) error {
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("failed to encode snapshot document: %w", err)
	}
	return nil
}

// OutputPath returns the artifact location for a platform inside outputDir.
func (g *Generator) OutputPath(outputDir, platform string) string {
	return filepath.Join(outputDir, platform+internal.DefaultReportSuffix)
}

// WriteFile writes the artifact to its platform-named file and returns the
// path written.
func (g *Generator) WriteFile(outputDir, platform string, doc *Document) (string, error) {
	outputPath := g.OutputPath(outputDir, platform)

	f, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create output file %s: %w", outputPath, err)
	}
	defer f.Close()

	if err := g.Write(f, doc); err != nil {
		return "", err
	}

	return outputPath, nil
}

// WriteSummary renders the run summary: entry counts by kind, ownership
// breakdown, and skip counters.
func (g *Generator) WriteSummary(w io.Writer, stats *walker.WalkStats, idx *snapshot.AttributeIndex) {
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  directories: %d\n", idx.KindCount(snapshot.Directory.String()))
	fmt.Fprintf(w, "  files:       %d\n", idx.KindCount(snapshot.File.String()))
	fmt.Fprintf(w, "  unknown:     %d\n", idx.KindCount(snapshot.Unknown.String()))

	fmt.Fprintln(w, "  owners:")
	for _, owner := range idx.Owners() {
		fmt.Fprintf(w, "    %s: %d\n", owner, idx.OwnerCount(owner))
	}

	elapsed := time.Duration(stats.EndTime-stats.StartTime) * time.Millisecond
	fmt.Fprintf(w, "  duration:    %s\n", common.NewTimeUtils().FormatDuration(elapsed))

	if stats.SkippedPaths > 0 || stats.UnreadableDirs > 0 {
		fmt.Fprintf(w, "  skipped paths: %d, unreadable directories: %d\n",
			stats.SkippedPaths, stats.UnreadableDirs)
	}
}

// WriteIgnoreList echoes the exclusion rules applied to the run.
func (g *Generator) WriteIgnoreList(w io.Writer, rules []string) {
	if len(rules) == 0 {
		return
	}

	fmt.Fprintln(w, "\nIgnored:")
	for _, rule := range rules {
		fmt.Fprintln(w, rule)
	}
}
