// Package commands implements the CLI commands for permsnap.
package commands

import (
	internal "github.com/ZanzyTHEbar/permsnap/psnap"
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   internal.DefaultAppCMDShortCut,
	Short: "permsnap - install-integrity filesystem metadata snapshots",
	Long: `permsnap walks a directory tree and records ownership, group,
and permission metadata for every file and directory into a deterministic,
machine-readable snapshot. A snapshot can be diffed against a known-good
baseline to detect permission or ownership drift after an installation.

Use "permsnap [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		rootCmd.PrintErrf("Error: %v\n", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/permsnap/config.yaml)")

	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(versionCmd)
}
