package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	internal "github.com/ZanzyTHEbar/permsnap/psnap"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
}

// SnapshotConfig stores snapshot run configuration.
type SnapshotConfig struct {
	Path              string   `mapstructure:"path"`
	Platform          string   `mapstructure:"platform"`
	Ignore            []string `mapstructure:"ignore"`
	IgnoreFile        string   `mapstructure:"ignoreFile"`
	OutputDir         string   `mapstructure:"outputDir"`
	Workers           int      `mapstructure:"workers"`
	ByproductSuffixes []string `mapstructure:"byproductSuffixes"`
	ShowIgnoreList    bool     `mapstructure:"showIgnoreList"`
}

// SupportedPlatforms are the baseline targets a snapshot can be generated
// for; the platform names the output artifact.
var SupportedPlatforms = []string{"linux", "windows", "redhat", "debian"}

var AppConfig Config

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		viper.AddConfigPath(internal.DefaultConfigPath)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Set default values
	viper.SetDefault("snapshot.platform", internal.DefaultPlatform)
	viper.SetDefault("snapshot.outputDir", internal.DefaultOutputDir)
	viper.SetDefault("snapshot.workers", 0)
	viper.SetDefault("snapshot.byproductSuffixes", []string{internal.DefaultReportSuffix})
	viper.SetDefault("snapshot.showIgnoreList", true)

	viper.AutomaticEnv()                                   // Read in environment variables that match
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // e.g. snapshot.outputDir becomes SNAPSHOT_OUTPUTDIR

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; defaults will be used.
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &AppConfig, nil
}

// Validate checks that a snapshot run configuration is complete.
func (sc *SnapshotConfig) Validate() error {
	if sc.Path == "" {
		return fmt.Errorf("snapshot path must be specified")
	}

	if !slices.Contains(SupportedPlatforms, sc.Platform) {
		return fmt.Errorf("unsupported platform %q (supported: %s)",
			sc.Platform, strings.Join(SupportedPlatforms, ", "))
	}

	return nil
}

// ParseIgnoreList splits a comma-separated exclusion list into rules,
// trimming whitespace and dropping empty items. Malformed input never fails;
// it simply yields fewer rules.
func ParseIgnoreList(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}

	parts := strings.Split(list, ",")
	rules := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			rules = append(rules, trimmed)
		}
	}
	return rules
}
