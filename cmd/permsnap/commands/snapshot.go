package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	internal "github.com/ZanzyTHEbar/permsnap/psnap"
	"github.com/ZanzyTHEbar/permsnap/psnap/config"
	"github.com/ZanzyTHEbar/permsnap/psnap/exclude"
	"github.com/ZanzyTHEbar/permsnap/psnap/report"
	"github.com/ZanzyTHEbar/permsnap/psnap/snapshot"
	"github.com/ZanzyTHEbar/permsnap/psnap/walker"
)

var (
	snapshotPath     string
	snapshotPlatform string
	snapshotIgnore   string
	ignoreFile       string
	outputDir        string
	workers          int
	noShowIgnoreList bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Generate a filesystem metadata snapshot",
	Long: `Walk a root path, extract ownership and permission metadata for every
surviving file and directory, and write the sorted snapshot to
<platform>_files.json in the output directory.`,
	RunE: runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotPath, "path", "p", "", "root path to snapshot (required)")
	snapshotCmd.Flags().StringVarP(&snapshotPlatform, "platform", "o", "", "target platform naming the output file (linux, windows, redhat, debian)")
	snapshotCmd.Flags().StringVarP(&snapshotIgnore, "ignore", "i", "", "comma-separated paths to exclude: /var/ossec,/home")
	snapshotCmd.Flags().StringVar(&ignoreFile, "ignore-file", "", "gitignore-style pattern file applied to files")
	snapshotCmd.Flags().StringVar(&outputDir, "output-dir", "", "directory the snapshot artifact is written to")
	snapshotCmd.Flags().IntVar(&workers, "workers", 0, "traversal worker count (0 selects a CPU-based default)")
	snapshotCmd.Flags().BoolVarP(&noShowIgnoreList, "no-show-ignore-list", "n", false, "do not echo the exclusion list after the run")

	_ = snapshotCmd.MarkFlagRequired("path")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	logger := internal.GetLogger()

	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return err
	}

	run := cfg.Snapshot
	run.Path = snapshotPath
	if cmd.Flags().Changed("platform") {
		run.Platform = snapshotPlatform
	}
	if cmd.Flags().Changed("ignore") {
		run.Ignore = config.ParseIgnoreList(snapshotIgnore)
	}
	if cmd.Flags().Changed("ignore-file") {
		run.IgnoreFile = ignoreFile
	}
	if cmd.Flags().Changed("output-dir") {
		run.OutputDir = outputDir
	}
	if cmd.Flags().Changed("workers") {
		run.Workers = workers
	}
	if noShowIgnoreList {
		run.ShowIgnoreList = false
	}

	if err := run.Validate(); err != nil {
		return err
	}

	rules, err := exclude.NewRuleSet(exclude.Options{
		Rules:             run.Ignore,
		ByproductSuffixes: run.ByproductSuffixes,
		IgnoreFile:        run.IgnoreFile,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("path", run.Path).
		Str("platform", run.Platform).
		Int("rules", len(run.Ignore)).
		Msg("checking files")

	w := walker.New(run.Workers)
	snap, stats, err := w.Walk(ctx, run.Path, rules)
	if err != nil {
		logger.Error().Err(err).Msg("traversal failed")
		return err
	}

	gen := report.NewGenerator()
	doc := gen.Build(snap, run.Platform)

	outputPath, err := gen.WriteFile(run.OutputDir, run.Platform, doc)
	if err != nil {
		logger.Error().Err(err).Msg("failed to write snapshot artifact")
		return err
	}

	logger.Info().
		Str("output", outputPath).
		Int("entries", snap.Len()).
		Str("snapshot_id", doc.SnapshotID).
		Msg("snapshot written")

	idx := snapshot.BuildAttributeIndex(snap)
	gen.WriteSummary(os.Stdout, stats, idx)

	if run.ShowIgnoreList {
		gen.WriteIgnoreList(os.Stdout, rules.Rules())
	}

	return nil
}
