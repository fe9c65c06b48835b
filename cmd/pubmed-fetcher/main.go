// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pubmed-fetcher CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pubmed-fetcher/internal/logging"
	"github.com/pdiddy/pubmed-fetcher/internal/secrets"
	"github.com/pdiddy/pubmed-fetcher/internal/store"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// logger is configured in PersistentPreRunE from --debug and --log-format.
var logger = slog.Default()

// rootCmd is the base command for the pubmed-fetcher CLI.
var rootCmd = &cobra.Command{
	Use:   "pubmed-fetcher",
	Short: "Find PubMed papers with industry-affiliated authors",
	Long: `pubmed-fetcher searches PubMed, classifies every author's affiliations as
academic or industry, and reports the papers with at least one industry
author together with the companies involved.

Results are written as CSV (default), JSON, YAML, or a terminal table, and
each run is recorded in a local SQLite history.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "info"
		if viper.GetBool("log.debug") {
			level = "debug"
		}
		l, err := logging.New(logging.Options{
			Level:  level,
			Format: viper.GetString("log.format"),
			Writer: cmd.ErrOrStderr(),
		})
		if err != nil {
			return err
		}
		logger = l
		slog.SetDefault(l)

		s, err := secrets.Load(viper.GetString("secrets_dir"))
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := s.Keys()
			sort.Strings(keys)
			logger.Debug("loaded secrets", "keys", keys)
		}
		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug("using config file", "path", f)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./pubmed-fetcher.yaml or ~/.config/pubmed-fetcher/config.yaml)")
	pf.BoolP("debug", "d", false, "enable debug logging")
	pf.String("log-format", "auto", "log format: auto, text, or json")
	pf.String("store", store.DefaultPath, "run history database")
	pf.String("secrets-dir", ".secrets", "directory of credential files (ncbi-api-key, ncbi-email)")

	viper.BindPFlag("log.debug", pf.Lookup("debug"))
	viper.BindPFlag("log.format", pf.Lookup("log-format"))
	viper.BindPFlag("store.path", pf.Lookup("store"))
	viper.BindPFlag("secrets_dir", pf.Lookup("secrets-dir"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pubmed-fetcher")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pubmed-fetcher"))
		}
	}

	viper.SetEnvPrefix("PUBMED_FETCHER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "warning: reading config:", err)
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
