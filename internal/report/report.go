// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders annotated records as CSV, JSON, YAML, or a
// terminal table.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pubmed-fetcher/pkg/types"
)

// Format selects the output encoding.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// ParseFormat validates a user-supplied format name. Empty selects CSV.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatJSON, FormatYAML, FormatTable:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format %q: use csv, json, yaml, or table", s)
	}
}

// Columns is the CSV header.
var Columns = []string{
	"PubmedID",
	"Title",
	"PublicationDate",
	"NonAcademicAuthors",
	"CompanyAffiliations",
	"CorrespondingAuthorEmail",
}

const listSep = "; "

// Row returns the CSV cells for one record.
func Row(r *types.Record) []string {
	return []string{
		r.ID,
		r.Title,
		r.PublicationDate,
		strings.Join(r.IndustryAuthorNames(), listSep),
		strings.Join(r.Companies, listSep),
		strings.Join(r.Emails, listSep),
	}
}

// Write renders records to w in format f.
func Write(w io.Writer, f Format, records []*types.Record) error {
	switch f {
	case FormatCSV, "":
		return WriteCSV(w, records)
	case FormatJSON:
		return WriteJSON(w, records)
	case FormatYAML:
		return WriteYAML(w, records)
	case FormatTable:
		_, err := io.WriteString(w, RenderTable(records)+"\n")
		return err
	default:
		return fmt.Errorf("unsupported format %q", f)
	}
}

// WriteFile writes records to path, creating parent directories. The file is
// written to a temporary name and renamed on success.
func WriteFile(path string, f Format, records []*types.Record) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	tmp := path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}
	if err := Write(out, f, records); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}

// WriteCSV writes the header and one row per record.
func WriteCSV(w io.Writer, records []*types.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(Row(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes records as an indented JSON array.
func WriteJSON(w io.Writer, records []*types.Record) error {
	if records == nil {
		records = []*types.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// WriteYAML writes records as a YAML sequence.
func WriteYAML(w io.Writer, records []*types.Record) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// RenderTable formats records as a rounded terminal table.
func RenderTable(records []*types.Record) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"PMID", "Title", "Date", "Industry Authors", "Companies"})
	for _, r := range records {
		tw.AppendRow(table.Row{
			r.ID,
			r.Title,
			r.PublicationDate,
			strings.Join(r.IndustryAuthorNames(), "\n"),
			strings.Join(r.Companies, "\n"),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, WidthMax: 60},
		{Number: 4, WidthMax: 30},
		{Number: 5, WidthMax: 40},
	})
	tw.AppendFooter(table.Row{"", fmt.Sprintf("%d papers", len(records))})
	return tw.Render()
}
