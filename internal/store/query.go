// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pdiddy/pubmed-fetcher/pkg/types"
)

const defaultListLimit = 20

// ListRuns returns the most recent runs first. A non-positive limit uses 20.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, started_at, searched, matched FROM runs
		 ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run     Run
		started string
	)
	if err := sc.Scan(&run.ID, &run.Query, &started, &run.Searched, &run.Matched); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return Run{}, fmt.Errorf("parsing started_at of run %s: %w", run.ID, err)
	}
	run.StartedAt = t
	return run, nil
}

// LoadRun returns a stored run and its records, annotated and in their
// original order. Records carry only industry authors; the full author
// list is not stored.
func (s *Store) LoadRun(ctx context.Context, id string) (Run, []*types.Record, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT id, query, started_at, searched, matched FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, nil, fmt.Errorf("loading run %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT pmid, title, publication_date, doi, emails FROM papers
		 WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return Run{}, nil, fmt.Errorf("loading papers: %w", err)
	}
	var records []*types.Record
	for rows.Next() {
		var (
			r      types.Record
			emails string
		)
		if err := rows.Scan(&r.ID, &r.Title, &r.PublicationDate, &r.DOI, &emails); err != nil {
			rows.Close()
			return Run{}, nil, fmt.Errorf("scanning paper: %w", err)
		}
		json.Unmarshal([]byte(emails), &r.Emails)
		records = append(records, &r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Run{}, nil, err
	}

	for _, r := range records {
		authors, err := s.industryAuthors(ctx, id, r.ID)
		if err != nil {
			return Run{}, nil, err
		}
		companies, err := s.companies(ctx, id, r.ID)
		if err != nil {
			return Run{}, nil, err
		}
		if err := r.Annotate(authors, companies); err != nil {
			return Run{}, nil, err
		}
	}
	return run, records, nil
}

func (s *Store) industryAuthors(ctx context.Context, runID, pmid string) ([]types.IndustryAuthor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, affiliations, companies FROM industry_authors
		 WHERE run_id = ? AND pmid = ? ORDER BY position`, runID, pmid)
	if err != nil {
		return nil, fmt.Errorf("loading authors of %s: %w", pmid, err)
	}
	defer rows.Close()

	var authors []types.IndustryAuthor
	for rows.Next() {
		var (
			a             types.IndustryAuthor
			affs, coJSONs string
		)
		if err := rows.Scan(&a.Name, &affs, &coJSONs); err != nil {
			return nil, fmt.Errorf("scanning author: %w", err)
		}
		json.Unmarshal([]byte(affs), &a.Affiliations)
		json.Unmarshal([]byte(coJSONs), &a.Companies)
		authors = append(authors, a)
	}
	return authors, rows.Err()
}

func (s *Store) companies(ctx context.Context, runID, pmid string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM companies WHERE run_id = ? AND pmid = ? ORDER BY position`, runID, pmid)
	if err != nil {
		return nil, fmt.Errorf("loading companies of %s: %w", pmid, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning company: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// TopCompanies ranks companies by the number of distinct papers they appear
// on across all runs. A non-positive limit uses 20.
func (s *Store) TopCompanies(ctx context.Context, limit int) ([]CompanyCount, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, COUNT(DISTINCT pmid) AS papers, COUNT(DISTINCT run_id) AS runs
		 FROM companies GROUP BY name ORDER BY papers DESC, name LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("ranking companies: %w", err)
	}
	defer rows.Close()

	var out []CompanyCount
	for rows.Next() {
		var c CompanyCount
		if err := rows.Scan(&c.Name, &c.Papers, &c.Runs); err != nil {
			return nil, fmt.Errorf("scanning company count: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
