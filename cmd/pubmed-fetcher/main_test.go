// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pubmed-fetcher/internal/store"
)

const mixedArticle = `<PubmedArticleSet><PubmedArticle><MedlineCitation><PMID>100</PMID><Article>
<ArticleTitle>mRNA vaccine durability</ArticleTitle>
<AuthorList>
<Author><LastName>First</LastName><ForeName>Al</ForeName><AffiliationInfo><Affiliation>Stanford University</Affiliation></AffiliationInfo></Author>
<Author><LastName>Second</LastName><ForeName>Bea</ForeName><AffiliationInfo><Affiliation>Moderna Inc, Cambridge, MA. bea@modernatx.com</Affiliation></AffiliationInfo></Author>
</AuthorList>
<ArticleDate><Year>2024</Year><Month>02</Month><Day>03</Day></ArticleDate>
</Article></MedlineCitation></PubmedArticle></PubmedArticleSet>`

const academicArticle = `<PubmedArticleSet><PubmedArticle><MedlineCitation><PMID>200</PMID><Article>
<ArticleTitle>Academic only</ArticleTitle>
<AuthorList><Author><LastName>Third</LastName><AffiliationInfo><Affiliation>Harvard University</Affiliation></AffiliationInfo></Author></AuthorList>
</Article></MedlineCitation></PubmedArticle></PubmedArticleSet>`

func newEutilsServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/esearch.fcgi":
			w.Write([]byte(`{"esearchresult":{"idlist":["100","200"]}}`))
		case "/efetch.fcgi":
			if r.URL.Query().Get("id") == "100" {
				w.Write([]byte(mixedArticle))
				return
			}
			w.Write([]byte(academicArticle))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestFetchHistoryExport(t *testing.T) {
	ts := newEutilsServer(t)
	viper.Set("fetch.base_url", ts.URL)
	t.Cleanup(func() { viper.Set("fetch.base_url", "") })

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "history.db")
	common := []string{"--store", dbPath, "--secrets-dir", filepath.Join(dir, "none"), "--log-format", "json"}

	out, _, err := execute(t, append([]string{"fetch", "mrna", "vaccine", "-e", "dev@example.org", "--format", "csv"}, common...)...)
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{
		"100", "mRNA vaccine durability", "2024-02-03", "Bea Second", "Moderna Inc", "bea@modernatx.com",
	}, rows[1])

	out, _, err = execute(t, append([]string{"history", "runs", "--json"}, common...)...)
	require.NoError(t, err)
	var runs []store.Run
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "mrna vaccine", runs[0].Query)
	assert.Equal(t, 2, runs[0].Searched)
	assert.Equal(t, 1, runs[0].Matched)

	out, _, err = execute(t, append([]string{"history", "export", runs[0].ID, "--format", "json"}, common...)...)
	require.NoError(t, err)
	var exported []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &exported))
	require.Len(t, exported, 1)
	assert.Equal(t, "100", exported[0]["pmid"])

	out, _, err = execute(t, append([]string{"history", "companies", "--json"}, common...)...)
	require.NoError(t, err)
	var top []store.CompanyCount
	require.NoError(t, json.Unmarshal([]byte(out), &top))
	assert.Equal(t, []store.CompanyCount{{Name: "Moderna Inc", Papers: 1, Runs: 1}}, top)
}

func TestFetchRequiresEmail(t *testing.T) {
	dir := t.TempDir()
	_, _, err := execute(t, "fetch", "x", "-e", "", "--secrets-dir", filepath.Join(dir, "none"), "--store", filepath.Join(dir, "h.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email required")
}

func TestClassifyCommand(t *testing.T) {
	dir := t.TempDir()
	out, _, err := execute(t, "classify", "--json", "--secrets-dir", filepath.Join(dir, "none"),
		"Harvard University, Boston, MA", "XYZ Pharmaceuticals Inc, Cambridge, MA")
	require.NoError(t, err)

	var got []struct {
		Affiliation string `json:"affiliation"`
		IsIndustry  bool   `json:"is_industry"`
		Company     string `json:"company"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.False(t, got[0].IsIndustry)
	assert.True(t, got[1].IsIndustry)
	assert.Equal(t, "XYZ Pharmaceuticals Inc", got[1].Company)
}

func TestReadLines(t *testing.T) {
	lines, err := readLines(strings.NewReader("Acme Inc\n\n  Harvard University  \n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme Inc", "Harvard University"}, lines)
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "pubmed-fetcher dev\n", out)
}
