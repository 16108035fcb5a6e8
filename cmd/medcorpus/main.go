// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the medcorpus CLI, which loads,
// normalizes, validates, queries and exports the tiered content corpus.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/medcorpus/internal/logging"
	"github.com/pdiddy/medcorpus/internal/pipeline"
	"github.com/pdiddy/medcorpus/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the medcorpus CLI.
var rootCmd = &cobra.Command{
	Use:   "medcorpus",
	Short: "Validate and query the tiered medical-education content corpus",
	Long: `medcorpus loads authored topic entries (conditions, clinical-trial topics,
calculation guides), normalizes both level styles into one canonical shape,
validates every entry against the content contract and serves read-only
queries over the result.

Every command rebuilds the registry from the content directory; nothing is
cached between runs.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./medcorpus.yaml or ~/.config/medcorpus/config.yaml)")
	pf.String("content-dir", "content", "directory of authored entity files")
	pf.Int("workers", 0, "normalize/validate worker count (0 = GOMAXPROCS)")
	pf.String("log-mode", "dev", "logger configuration: dev or prod")

	viper.BindPFlag("content_dir", pf.Lookup("content-dir"))
	viper.BindPFlag("workers", pf.Lookup("workers"))
	viper.BindPFlag("log_mode", pf.Lookup("log-mode"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("medcorpus")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "medcorpus"))
		}
	}

	viper.SetEnvPrefix("MEDCORPUS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// corpusConfig collects the effective configuration from flags, config
// file and environment.
func corpusConfig() types.CorpusConfig {
	return types.CorpusConfig{
		ContentDir: viper.GetString("content_dir"),
		Workers:    viper.GetInt("workers"),
		LogMode:    viper.GetString("log_mode"),
		ExportDir:  viper.GetString("export_dir"),
	}
}

// loadCorpus runs the pipeline over the configured content directory.
func loadCorpus(ctx context.Context) (*pipeline.Result, error) {
	cfg := corpusConfig()
	log, err := logging.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync()

	res, err := pipeline.Run(ctx, cfg, log.With(zap.String("content_dir", cfg.ContentDir)))
	if err != nil {
		return nil, fmt.Errorf("processing corpus: %w", err)
	}
	return res, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
