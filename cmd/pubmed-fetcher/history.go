// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pubmed-fetcher/internal/report"
	"github.com/pdiddy/pubmed-fetcher/internal/store"
	"github.com/pdiddy/pubmed-fetcher/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect past fetch runs (runs, companies, export)",
	Long: `History reads the local SQLite database in which every fetch run is
recorded. Use subcommands to list runs, rank companies across runs, or
re-export the papers of a past run.`,
}

// --- runs subcommand ---

var historyRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent fetch runs",
	Args:  cobra.NoArgs,
	RunE:  runHistoryRuns,
}

func runHistoryRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := st.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return encodeJSON(out, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			strconv.Itoa(r.Searched),
			strconv.Itoa(r.Matched),
			r.Query,
		}
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Run", "Started", "Searched", "Matched", "Query"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))
	return nil
}

// --- companies subcommand ---

var historyCompaniesCmd = &cobra.Command{
	Use:   "companies",
	Short: "Rank companies by the number of papers they appear on",
	Args:  cobra.NoArgs,
	RunE:  runHistoryCompanies,
}

func runHistoryCompanies(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	top, err := st.TopCompanies(cmd.Context(), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return encodeJSON(out, top)
	}
	if len(top) == 0 {
		fmt.Fprintln(out, "No companies recorded.")
		return nil
	}

	rows := make([][]string, len(top))
	for i, c := range top {
		rows[i] = []string{strconv.Itoa(i + 1), c.Name, strconv.Itoa(c.Papers), strconv.Itoa(c.Runs)}
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Rank", "Company", "Papers", "Runs"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight},
	))
	return nil
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export RUN_ID",
	Short: "Write the papers of a past run as CSV, JSON, YAML, or a table",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	formatName, _ := cmd.Flags().GetString("format")
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	run, records, err := st.LoadRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	logger.Debug("loaded run", "id", run.ID, "query", run.Query, "papers", len(records))

	file, _ := cmd.Flags().GetString("file")
	if file == "" {
		return report.Write(cmd.OutOrStdout(), format, records)
	}
	if err := report.WriteFile(file, format, records); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d papers to %s\n", len(records), file)
	return nil
}

// --- shared helpers ---

func openStore() (*store.Store, error) {
	return store.Open(types.StoreConfig{Enabled: true, Path: viper.GetString("store.path")})
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	for _, c := range []*cobra.Command{historyRunsCmd, historyCompaniesCmd} {
		c.Flags().Int("limit", 20, "maximum rows to show")
		c.Flags().Bool("json", false, "output results as JSON")
	}

	historyExportCmd.Flags().String("format", "csv", "export format: csv, json, yaml, or table")
	historyExportCmd.Flags().StringP("file", "f", "", "output file (default: print to stdout)")

	historyCmd.AddCommand(historyRunsCmd)
	historyCmd.AddCommand(historyCompaniesCmd)
	historyCmd.AddCommand(historyExportCmd)

	rootCmd.AddCommand(historyCmd)
}
