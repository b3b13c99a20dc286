package walker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/permsnap/psnap/common"
	"github.com/ZanzyTHEbar/permsnap/psnap/exclude"
	"github.com/ZanzyTHEbar/permsnap/psnap/snapshot"
)

func newRules(t *testing.T, opts exclude.Options) *exclude.RuleSet {
	t.Helper()
	rules, err := exclude.NewRuleSet(opts)
	require.NoError(t, err)
	return rules
}

func TestWalker_Walk(t *testing.T) {
	t.Run("records every surviving path but not the root", func(t *testing.T) {
		root := t.TempDir()
		binDir := filepath.Join(root, "bin")
		require.NoError(t, os.Mkdir(binDir, 0o750))
		require.NoError(t, os.Chmod(binDir, 0o750))

		script := filepath.Join(root, "run.sh")
		require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\n"), 0o644))
		require.NoError(t, os.Chmod(script, 0o644))

		snap, stats, err := New(0).Walk(context.Background(), root, newRules(t, exclude.Options{}))
		require.NoError(t, err)

		assert.Equal(t, 2, snap.Len())
		assert.Equal(t, int64(2), stats.EntriesRecorded)

		_, rootRecorded := snap.Get(root)
		assert.False(t, rootRecorded)

		dirEntry, ok := snap.Get(binDir)
		require.True(t, ok)
		assert.Equal(t, snapshot.Directory, dirEntry.Kind)
		assert.Equal(t, "750", dirEntry.ModeOctal)
		assert.Equal(t, "drwxr-x---", dirEntry.ModeSymbolic)

		fileEntry, ok := snap.Get(script)
		require.True(t, ok)
		assert.Equal(t, snapshot.File, fileEntry.Kind)
		assert.Equal(t, "644", fileEntry.ModeOctal)
	})

	t.Run("excluded subtree is never enumerated", func(t *testing.T) {
		root := t.TempDir()
		excluded := filepath.Join(root, "bin")
		require.NoError(t, os.MkdirAll(filepath.Join(excluded, "nested"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(excluded, "tool"), []byte("x"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(root, "keep.txt"), []byte("x"), 0o644))

		snap, stats, err := New(0).Walk(context.Background(), root, newRules(t, exclude.Options{Rules: []string{excluded}}))
		require.NoError(t, err)

		assert.Equal(t, []string{filepath.Join(root, "keep.txt")}, snap.Paths())
		assert.Equal(t, int64(1), stats.ExcludedDirs)
	})

	t.Run("directory exclusion ignores component order", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, "alpha", "beta"), 0o755))
		require.NoError(t, os.MkdirAll(filepath.Join(root, "alpha", "gamma", "beta"), 0o755))

		snap, _, err := New(0).Walk(context.Background(), root, newRules(t, exclude.Options{Rules: []string{"alpha/beta"}}))
		require.NoError(t, err)

		// Both arrangements of {alpha, beta} are pruned; alpha and
		// alpha/gamma survive.
		assert.Equal(t, []string{
			filepath.Join(root, "alpha"),
			filepath.Join(root, "alpha", "gamma"),
		}, snap.Paths())
	})

	t.Run("verbatim file exclusion", func(t *testing.T) {
		root := t.TempDir()
		keep := filepath.Join(root, "keep.txt")
		drop := filepath.Join(root, "drop.txt")
		require.NoError(t, os.WriteFile(keep, []byte("x"), 0o644))
		require.NoError(t, os.WriteFile(drop, []byte("x"), 0o644))

		snap, stats, err := New(0).Walk(context.Background(), root, newRules(t, exclude.Options{Rules: []string{drop}}))
		require.NoError(t, err)

		assert.Equal(t, []string{keep}, snap.Paths())
		assert.Equal(t, int64(1), stats.ExcludedFiles)
	})

	t.Run("byproduct artifacts are excluded", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, "linux_files.json"), []byte("{}"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(root, "data.json"), []byte("{}"), 0o644))

		rules := newRules(t, exclude.Options{ByproductSuffixes: []string{"_files.json"}})
		snap, _, err := New(0).Walk(context.Background(), root, rules)
		require.NoError(t, err)

		assert.Equal(t, []string{filepath.Join(root, "data.json")}, snap.Paths())
	})

	t.Run("excluded root records nothing", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, "file"), []byte("x"), 0o644))

		snap, stats, err := New(0).Walk(context.Background(), root, newRules(t, exclude.Options{Rules: []string{root}}))
		require.NoError(t, err)

		assert.Equal(t, 0, snap.Len())
		assert.Equal(t, int64(0), stats.DirsVisited)
	})

	t.Run("symlinked directory is recorded but not descended", func(t *testing.T) {
		root := t.TempDir()
		outside := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(outside, "hidden.txt"), []byte("x"), 0o644))

		link := filepath.Join(root, "link")
		require.NoError(t, os.Symlink(outside, link))

		snap, _, err := New(0).Walk(context.Background(), root, newRules(t, exclude.Options{}))
		require.NoError(t, err)

		entry, ok := snap.Get(link)
		require.True(t, ok)
		assert.Equal(t, snapshot.Directory, entry.Kind)

		_, leaked := snap.Get(filepath.Join(link, "hidden.txt"))
		assert.False(t, leaked)
		assert.Equal(t, 1, snap.Len())
	})

	t.Run("two walks of an unchanged tree agree", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, "etc", "app"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(root, "etc", "app", "app.conf"), []byte("x"), 0o640))
		require.NoError(t, os.WriteFile(filepath.Join(root, "readme"), []byte("x"), 0o644))

		rules := newRules(t, exclude.Options{})
		w := New(4)

		first, _, err := w.Walk(context.Background(), root, rules)
		require.NoError(t, err)
		second, _, err := w.Walk(context.Background(), root, rules)
		require.NoError(t, err)

		assert.Equal(t, first.Paths(), second.Paths())
		first.WalkEntries(func(path string, entry snapshot.FileSystemEntry) bool {
			other, ok := second.Get(path)
			require.True(t, ok)
			assert.Equal(t, entry, other)
			return false
		})
	})

	t.Run("unreadable directory is recorded, its contents skipped", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("permission bits are not enforced for root")
		}

		root := t.TempDir()
		locked := filepath.Join(root, "locked")
		require.NoError(t, os.Mkdir(locked, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(locked, "inside"), []byte("x"), 0o644))
		require.NoError(t, os.Chmod(locked, 0o000))
		t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

		snap, stats, err := New(0).Walk(context.Background(), root, newRules(t, exclude.Options{}))
		require.NoError(t, err)

		_, ok := snap.Get(locked)
		assert.True(t, ok)
		_, inside := snap.Get(filepath.Join(locked, "inside"))
		assert.False(t, inside)
		assert.Equal(t, int64(1), stats.UnreadableDirs)
	})

	t.Run("cancelled context aborts the walk", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, "file"), []byte("x"), 0o644))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, _, err := New(0).Walk(ctx, root, newRules(t, exclude.Options{}))
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("missing root is fatal", func(t *testing.T) {
		_, _, err := New(0).Walk(context.Background(), filepath.Join(t.TempDir(), "absent"), newRules(t, exclude.Options{}))
		assert.ErrorIs(t, err, common.ErrRootNotExist)
	})

	t.Run("file root is fatal", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "afile")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

		_, _, err := New(0).Walk(context.Background(), path, newRules(t, exclude.Options{}))
		assert.ErrorIs(t, err, common.ErrRootNotDirectory)
	})

	t.Run("empty root path is rejected", func(t *testing.T) {
		_, _, err := New(0).Walk(context.Background(), "", newRules(t, exclude.Options{}))
		assert.ErrorIs(t, err, common.ErrPathEmpty)
	})
}

func TestWalker_DeepTreeConcurrency(t *testing.T) {
	root := t.TempDir()
	want := 0
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			dir := filepath.Join(root, string(rune('a'+i)), string(rune('a'+j)))
			require.NoError(t, os.MkdirAll(dir, 0o755))
			require.NoError(t, os.WriteFile(filepath.Join(dir, "leaf"), []byte("x"), 0o644))
			want += 1 // leaf file
		}
		want += 6 // level-one dir plus its five children
	}

	snap, stats, err := New(8).Walk(context.Background(), root, newRules(t, exclude.Options{}))
	require.NoError(t, err)

	assert.Equal(t, want, snap.Len())
	assert.Equal(t, int64(want), stats.EntriesRecorded)
	assert.Empty(t, snap.Validate())
}
