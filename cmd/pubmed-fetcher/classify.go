// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pubmed-fetcher/internal/affiliation"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [affiliation...]",
	Short: "Classify affiliation strings as academic or industry",
	Long: `Classify runs the affiliation classifier on each argument, or on each
line of standard input when no arguments are given, and prints whether it is
an industry affiliation and the extracted company name. Useful for checking
custom classifier patterns from the config file.`,
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(classifyCmd)
}

// classifiedAffiliation is one line of classify output.
type classifiedAffiliation struct {
	Affiliation string `json:"affiliation"`
	affiliation.Classification
}

func runClassify(cmd *cobra.Command, args []string) error {
	c, err := newClassifier()
	if err != nil {
		return err
	}

	inputs := args
	if len(inputs) == 0 {
		inputs, err = readLines(cmd.InOrStdin())
		if err != nil {
			return err
		}
	}

	results := make([]classifiedAffiliation, len(inputs))
	for i, in := range inputs {
		results[i] = classifiedAffiliation{Affiliation: in, Classification: c.Classify(in)}
	}

	out := cmd.OutOrStdout()
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	rows := make([][]string, len(results))
	for i, r := range results {
		kind := "academic/other"
		if r.IsIndustry {
			kind = "industry"
		}
		rows[i] = []string{kind, r.Company, r.Affiliation}
	}
	fmt.Fprintln(out, renderTable([]string{"Type", "Company", "Affiliation"}, rows, nil))
	return nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading affiliations: %w", err)
	}
	return lines, nil
}
