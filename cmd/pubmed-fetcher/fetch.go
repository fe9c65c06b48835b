// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pubmed-fetcher/internal/affiliation"
	"github.com/pdiddy/pubmed-fetcher/internal/pipeline"
	"github.com/pdiddy/pubmed-fetcher/internal/pubmed"
	"github.com/pdiddy/pubmed-fetcher/internal/report"
	"github.com/pdiddy/pubmed-fetcher/internal/secrets"
	"github.com/pdiddy/pubmed-fetcher/internal/store"
	"github.com/pdiddy/pubmed-fetcher/pkg/types"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxResults = 100
	defaultWorkers    = 3
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [query]",
	Short: "Search PubMed and report papers with industry-affiliated authors",
	Long: `Fetch runs a PubMed search, downloads each hit, and classifies every
author affiliation. Papers with at least one industry author are written with
their industry authors, companies, and any author email addresses found.

The query uses PubMed syntax, e.g. 'cancer immunotherapy[Title] AND 2023[PDAT]'.
NCBI requires an email address; pass --email, set fetch.email in the config
file, or write it to .secrets/ncbi-email.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFetch,
}

func init() {
	f := fetchCmd.Flags()
	f.StringP("file", "f", "", "output file (default: print to stdout)")
	f.StringP("email", "e", "", "email address to identify yourself to NCBI")
	f.StringP("api-key", "k", "", "NCBI API key for higher rate limits")
	f.IntP("max-results", "m", defaultMaxResults, "maximum number of search results to fetch")
	f.Int("workers", defaultWorkers, "number of records fetched concurrently")
	f.Duration("timeout", defaultTimeout, "HTTP request timeout")
	f.String("format", "csv", "output format: csv, json, yaml, or table")
	f.Bool("no-store", false, "do not record this run in the history database")

	viper.BindPFlag("output.file", f.Lookup("file"))
	viper.BindPFlag("output.format", f.Lookup("format"))
	viper.BindPFlag("fetch.email", f.Lookup("email"))
	viper.BindPFlag("fetch.api_key", f.Lookup("api-key"))
	viper.BindPFlag("fetch.max_results", f.Lookup("max-results"))
	viper.BindPFlag("fetch.workers", f.Lookup("workers"))
	viper.BindPFlag("http.timeout", f.Lookup("timeout"))

	viper.SetDefault("http.user_agent", "pubmed-fetcher/"+version)
	viper.SetDefault("store.enabled", true)

	rootCmd.AddCommand(fetchCmd)
}

// fetchConfig assembles the fetch settings. Flags override the config file
// and environment, which override .secrets/ files.
func fetchConfig() types.FetchConfig {
	return types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:    viper.GetDuration("http.timeout"),
			UserAgent:  viper.GetString("http.user_agent"),
			MaxRetries: viper.GetInt("http.max_retries"),
		},
		Email:      loadedSecrets.Or(secrets.NCBIEmail, viper.GetString("fetch.email")),
		APIKey:     loadedSecrets.Or(secrets.NCBIAPIKey, viper.GetString("fetch.api_key")),
		BaseURL:    viper.GetString("fetch.base_url"),
		Tool:       viper.GetString("fetch.tool"),
		MaxResults: viper.GetInt("fetch.max_results"),
		Workers:    viper.GetInt("fetch.workers"),
	}
}

func classifierConfig() types.ClassifierConfig {
	return types.ClassifierConfig{
		AcademicPatterns: viper.GetStringSlice("classifier.academic_patterns"),
		IndustryPatterns: viper.GetStringSlice("classifier.industry_patterns"),
	}
}

func newClassifier() (*affiliation.Classifier, error) {
	cc := classifierConfig()
	return affiliation.NewClassifier(cc.AcademicPatterns, cc.IndustryPatterns)
}

func runFetch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	cfg := fetchConfig()
	if cfg.Email == "" {
		return fmt.Errorf("email required: pass --email, set fetch.email, or write .secrets/%s", secrets.NCBIEmail)
	}
	format, err := report.ParseFormat(viper.GetString("output.format"))
	if err != nil {
		return err
	}
	classifier, err := newClassifier()
	if err != nil {
		return err
	}

	p := &pipeline.Pipeline{
		Provider:   pubmed.NewClient(cfg),
		Classifier: classifier,
		Workers:    cfg.Workers,
		Logger:     logger,
		Progress:   cmd.ErrOrStderr(),
	}

	ctx := cmd.Context()
	started := time.Now()
	res, err := p.Run(ctx, query, cfg.MaxResults)
	if err != nil {
		return err
	}

	noStore, _ := cmd.Flags().GetBool("no-store")
	if !noStore && viper.GetBool("store.enabled") {
		if err := saveRun(cmd, res, started); err != nil {
			logger.Warn("recording run failed", "error", err)
		}
	}

	if len(res.Records) == 0 {
		logger.Warn("no papers to write")
		return nil
	}
	return writeRecords(cmd, format, res.Records)
}

func saveRun(cmd *cobra.Command, res pipeline.Result, started time.Time) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.SaveRun(cmd.Context(), store.Run{
		Query:     res.Query,
		StartedAt: started,
		Searched:  res.Searched,
	}, res.Records)
	if err != nil {
		return err
	}
	logger.Info("recorded run", "id", run.ID, "matched", run.Matched)
	return nil
}

// writeRecords writes to --file when set, otherwise to stdout.
func writeRecords(cmd *cobra.Command, format report.Format, records []*types.Record) error {
	file := viper.GetString("output.file")
	if file == "" {
		return report.Write(cmd.OutOrStdout(), format, records)
	}
	if err := report.WriteFile(file, format, records); err != nil {
		return err
	}
	logger.Info("wrote results", "file", file, "papers", len(records))
	return nil
}
