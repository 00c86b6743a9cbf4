// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the deep-research CLI.
// Subcommands run a multi-source search, a full deep research pipeline,
// the HTTP server, and queries against the report archive.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/internal/logging"
	"github.com/pdiddy/deep-research/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// logger is built in PersistentPreRunE from --debug.
	logger = zap.NewNop()

	// loadedSecrets holds API keys loaded from the secrets directory at startup.
	loadedSecrets map[string]string
)

// rootCmd is the base command for the deep-research CLI.
var rootCmd = &cobra.Command{
	Use:   "deep-research",
	Short: "Multi-source search aggregation and deep research",
	Long: `deep-research fans a query out across web and academic search providers,
merges, deduplicates and ranks the results, and can continue into a deep
research run: page extraction, a consortium of analyst personas and an
assembled report.

Credentials come from the config file, the .secrets/ directory, or the
usual environment variables (SERPAPI_KEY, TAVILY_API_KEY,
AZURE_BING_SEARCH_KEY, SEMANTIC_SCHOLAR_KEY, CROSSREF_EMAIL,
ANTHROPIC_API_KEY, OPENAI_API_KEY).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		l, err := logging.New(debug || viper.GetBool("debug"))
		if err != nil {
			return err
		}
		logger = l
		if f := viper.ConfigFileUsed(); f != "" {
			logger.Info("using config file", zap.String("path", f))
		}

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", zap.Strings("keys", keys))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./deep-research.yaml or ~/.config/deep-research/deep-research.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets/", "directory of secret files")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("deep-research")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "deep-research"))
		}
	}

	setDefaults(viper.GetViper())
	viper.SetEnvPrefix("DEEP_RESEARCH")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "warning: reading config:", err)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
