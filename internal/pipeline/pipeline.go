// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline searches PubMed, classifies each fetched record's author
// affiliations, and keeps the records with at least one industry author.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/pubmed-fetcher/internal/affiliation"
	"github.com/pdiddy/pubmed-fetcher/internal/pubmed"
	"github.com/pdiddy/pubmed-fetcher/pkg/types"
)

const defaultWorkers = 3

// Provider retrieves records from a literature database.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
	FetchRecord(ctx context.Context, id string) (*types.Record, error)
}

// Pipeline wires a provider to the affiliation classifier.
type Pipeline struct {
	Provider   Provider
	Classifier *affiliation.Classifier

	// Workers bounds concurrent fetches (default 3, NCBI's unauthenticated rate).
	Workers int

	Logger *slog.Logger

	// Progress receives the run summary line. Nil discards it.
	Progress io.Writer
}

// Result holds the qualifying records and run counts.
type Result struct {
	Query string

	// Records are the annotated records with industry authors, in search order.
	Records []*types.Record

	Searched int
	Fetched  int
	Skipped  int
	Failed   int
}

// Matched returns the number of qualifying records.
func (r Result) Matched() int { return len(r.Records) }

type outcome struct {
	rec     *types.Record
	skipped bool
	err     error
}

// Run searches for query, fetches up to limit records concurrently, and
// annotates each one. Records without industry authors are dropped. A failed
// search is returned as an error; a failed fetch is logged and counted.
func (p *Pipeline) Run(ctx context.Context, query string, limit int) (Result, error) {
	if p.Provider == nil {
		return Result{}, errors.New("pipeline has no provider")
	}
	classifier := p.Classifier
	if classifier == nil {
		classifier = affiliation.Default()
	}
	log := p.Logger
	if log == nil {
		log = slog.Default()
	}
	progress := p.Progress
	if progress == nil {
		progress = io.Discard
	}

	log.InfoContext(ctx, "searching PubMed", "query", query, "limit", limit)
	ids, err := p.Provider.Search(ctx, query, limit)
	if err != nil {
		return Result{}, err
	}
	log.DebugContext(ctx, "search complete", "hits", len(ids))

	outcomes := make([]outcome, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers(len(ids)))
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			outcomes[i] = p.process(gctx, classifier, log, id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	res := Result{Query: query, Searched: len(ids)}
	for _, o := range outcomes {
		switch {
		case o.err != nil:
			res.Failed++
		case o.skipped:
			res.Skipped++
		default:
			res.Fetched++
			if o.rec.HasIndustryAuthors() {
				res.Records = append(res.Records, o.rec)
			}
		}
	}

	log.InfoContext(ctx, "found papers with industry affiliations",
		"matched", res.Matched(), "fetched", res.Fetched, "skipped", res.Skipped, "failed", res.Failed)
	fmt.Fprintf(progress, "searched: %d, fetched: %d, matched: %d, skipped: %d, failed: %d\n",
		res.Searched, res.Fetched, res.Matched(), res.Skipped, res.Failed)
	return res, nil
}

func (p *Pipeline) process(ctx context.Context, c *affiliation.Classifier, log *slog.Logger, id string) outcome {
	rec, err := p.Provider.FetchRecord(ctx, id)
	if errors.Is(err, pubmed.ErrNoArticle) {
		log.DebugContext(ctx, "skipping record without article", "pmid", id)
		return outcome{skipped: true}
	}
	if err != nil {
		if ctx.Err() == nil {
			log.WarnContext(ctx, "fetching record failed", "pmid", id, "error", err)
		}
		return outcome{err: err}
	}
	if rec.ID == "" {
		rec.ID = id
	}

	if err := c.Annotate(rec); err != nil {
		return outcome{err: fmt.Errorf("annotating %s: %w", id, err)}
	}
	log.DebugContext(ctx, "classified record",
		"pmid", rec.ID, "industry_authors", len(rec.IndustryAuthors), "companies", rec.Companies)
	return outcome{rec: rec}
}

func (p *Pipeline) workers(n int) int {
	w := p.Workers
	if w <= 0 {
		w = defaultWorkers
	}
	if n > 0 && w > n {
		w = n
	}
	return w
}
