// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store records fetch runs and their qualifying records in SQLite so
// past results can be listed, exported, and aggregated by company.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pubmed-fetcher/pkg/types"
)

// DefaultPath is the database location used when StoreConfig.Path is empty.
const DefaultPath = "data/pubmed-fetcher.db"

// ErrRunNotFound is returned by LoadRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Store manages the run history database.
type Store struct {
	db *sql.DB
}

// Run summarizes one fetch invocation.
type Run struct {
	ID        string    `json:"id" yaml:"id"`
	Query     string    `json:"query" yaml:"query"`
	StartedAt time.Time `json:"started_at" yaml:"started_at"`
	Searched  int       `json:"searched" yaml:"searched"`
	Matched   int       `json:"matched" yaml:"matched"`
}

// CompanyCount is one row of the company leaderboard.
type CompanyCount struct {
	Name   string `json:"name" yaml:"name"`
	Papers int    `json:"papers" yaml:"papers"`
	Runs   int    `json:"runs" yaml:"runs"`
}

// Open opens or creates the database at cfg.Path and creates the schema if
// it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			started_at TEXT NOT NULL,
			searched INTEGER NOT NULL DEFAULT 0,
			matched INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS papers (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			pmid TEXT NOT NULL,
			position INTEGER NOT NULL,
			title TEXT,
			publication_date TEXT,
			doi TEXT,
			emails TEXT,
			PRIMARY KEY (run_id, pmid)
		)`,
		`CREATE TABLE IF NOT EXISTS industry_authors (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			pmid TEXT NOT NULL,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			affiliations TEXT,
			companies TEXT,
			PRIMARY KEY (run_id, pmid, position)
		)`,
		`CREATE TABLE IF NOT EXISTS companies (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			pmid TEXT NOT NULL,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			PRIMARY KEY (run_id, pmid, name)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_companies_name ON companies(name)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun stores run and its records in one transaction. An empty run.ID is
// replaced with a new UUID and Matched is set from records. The stored run
// is returned.
func (s *Store) SaveRun(ctx context.Context, run Run, records []*types.Record) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	run.StartedAt = run.StartedAt.UTC()
	run.Matched = len(records)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, query, started_at, searched, matched) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Query, run.StartedAt.Format(time.RFC3339Nano), run.Searched, run.Matched,
	); err != nil {
		return Run{}, fmt.Errorf("inserting run: %w", err)
	}

	paperStmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO papers (run_id, pmid, position, title, publication_date, doi, emails)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Run{}, fmt.Errorf("preparing paper insert: %w", err)
	}
	defer paperStmt.Close()

	authorStmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO industry_authors (run_id, pmid, position, name, affiliations, companies)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Run{}, fmt.Errorf("preparing author insert: %w", err)
	}
	defer authorStmt.Close()

	companyStmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO companies (run_id, pmid, position, name) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return Run{}, fmt.Errorf("preparing company insert: %w", err)
	}
	defer companyStmt.Close()

	for i, r := range records {
		emailsJSON, _ := json.Marshal(r.Emails)
		if _, err := paperStmt.ExecContext(ctx,
			run.ID, r.ID, i, r.Title, r.PublicationDate, r.DOI, string(emailsJSON),
		); err != nil {
			return Run{}, fmt.Errorf("inserting paper %s: %w", r.ID, err)
		}

		for j, a := range r.IndustryAuthors {
			affJSON, _ := json.Marshal(a.Affiliations)
			coJSON, _ := json.Marshal(a.Companies)
			if _, err := authorStmt.ExecContext(ctx,
				run.ID, r.ID, j, a.Name, string(affJSON), string(coJSON),
			); err != nil {
				return Run{}, fmt.Errorf("inserting author %q of %s: %w", a.Name, r.ID, err)
			}
		}

		for j, co := range r.Companies {
			if _, err := companyStmt.ExecContext(ctx, run.ID, r.ID, j, co); err != nil {
				return Run{}, fmt.Errorf("inserting company %q of %s: %w", co, r.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("committing run: %w", err)
	}
	return run, nil
}
