// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pubmed-fetcher/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.StoreConfig{Enabled: true, Path: filepath.Join(t.TempDir(), "nested", "history.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func annotated(t *testing.T, id string, authors []types.IndustryAuthor, companies []string) *types.Record {
	t.Helper()
	r := &types.Record{
		ID:              id,
		Title:           "Paper " + id,
		PublicationDate: "2024-01-02",
		DOI:             "10.1000/" + id,
		Emails:          []string{id + "@acme.com"},
	}
	require.NoError(t, r.Annotate(authors, companies))
	return r
}

func sampleRecords(t *testing.T) []*types.Record {
	return []*types.Record{
		annotated(t, "200", []types.IndustryAuthor{
			{Name: "Grace Hopper", Affiliations: []string{"Moderna Inc, Cambridge", "Acme Biotech, Paris"}, Companies: []string{"Moderna Inc", "Acme Biotech"}},
			{Name: "Alan Turing", Affiliations: []string{"Pfizer Inc, NY"}, Companies: []string{"Pfizer Inc"}},
		}, []string{"Moderna Inc", "Acme Biotech", "Pfizer Inc"}),
		annotated(t, "100", []types.IndustryAuthor{
			{Name: "Ada Lovelace", Affiliations: []string{"Pfizer Inc, Groton"}, Companies: []string{"Pfizer Inc"}},
		}, []string{"Pfizer Inc"}),
	}
}

// --- tests ---

func TestOpenCreatesSchema(t *testing.T) {
	s := testStore(t)
	for _, table := range []string{"runs", "papers", "industry_authors", "companies"} {
		var count int
		err := s.db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s", table)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "h.db")
	s1, err := Open(types.StoreConfig{Path: path})
	require.NoError(t, err)
	_, err = s1.SaveRun(context.Background(), Run{Query: "q"}, nil)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(types.StoreConfig{Path: path})
	require.NoError(t, err)
	defer s2.Close()
	runs, err := s2.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestSaveAndLoadRun(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	want := sampleRecords(t)

	run, err := s.SaveRun(ctx, Run{Query: "vaccines", StartedAt: started, Searched: 10}, want)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, 2, run.Matched)

	gotRun, got, err := s.LoadRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run, gotRun)
	require.Len(t, got, 2)

	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID, "order preserved")
		assert.Equal(t, want[i].Title, got[i].Title)
		assert.Equal(t, want[i].PublicationDate, got[i].PublicationDate)
		assert.Equal(t, want[i].DOI, got[i].DOI)
		assert.Equal(t, want[i].Emails, got[i].Emails)
		assert.Equal(t, want[i].IndustryAuthors, got[i].IndustryAuthors)
		assert.Equal(t, want[i].Companies, got[i].Companies)
		assert.True(t, got[i].Annotated())
	}
}

func TestLoadRunNotFound(t *testing.T) {
	s := testStore(t)
	_, _, err := s.LoadRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestSaveRunDuplicateID(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	_, err := s.SaveRun(ctx, Run{ID: "fixed", Query: "a"}, nil)
	require.NoError(t, err)
	_, err = s.SaveRun(ctx, Run{ID: "fixed", Query: "b"}, nil)
	assert.Error(t, err)
}

func TestListRunsNewestFirst(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, q := range []string{"first", "second", "third"} {
		_, err := s.SaveRun(ctx, Run{Query: q, StartedAt: base.Add(time.Duration(i) * time.Hour)}, nil)
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "third", runs[0].Query)
	assert.Equal(t, "second", runs[1].Query)
}

func TestTopCompanies(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	_, err := s.SaveRun(ctx, Run{Query: "one"}, sampleRecords(t))
	require.NoError(t, err)
	_, err = s.SaveRun(ctx, Run{Query: "two"}, sampleRecords(t)[:1])
	require.NoError(t, err)

	top, err := s.TopCompanies(ctx, 0)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, CompanyCount{Name: "Pfizer Inc", Papers: 2, Runs: 2}, top[0])
	assert.Equal(t, CompanyCount{Name: "Acme Biotech", Papers: 1, Runs: 2}, top[1])
	assert.Equal(t, CompanyCount{Name: "Moderna Inc", Papers: 1, Runs: 2}, top[2])

	top, err = s.TopCompanies(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}
