// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pubmed searches PubMed through the NCBI E-utilities API and parses
// efetch XML into records.
package pubmed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/pubmed-fetcher/internal/httputil"
	"github.com/pdiddy/pubmed-fetcher/pkg/types"
)

// eutilsBase is the E-utilities endpoint. Declared as a var so tests
// can substitute an httptest server.
var eutilsBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

const (
	defaultTool       = "pubmed-fetcher"
	defaultMaxResults = 100
)

// ErrEmptyQuery is returned by Search for a blank query.
var ErrEmptyQuery = errors.New("search query is empty")

// Client queries the PubMed database.
type Client struct {
	HTTP *http.Client
	Cfg  types.FetchConfig

	// BaseURL overrides eutilsBase when set.
	BaseURL string
}

// NewClient returns a client with the HTTP timeout and endpoint taken from cfg.
func NewClient(cfg types.FetchConfig) *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: cfg.Timeout},
		Cfg:     cfg,
		BaseURL: cfg.BaseURL,
	}
}

func (c *Client) base() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return eutilsBase
}

// params returns the identification parameters NCBI asks every caller to send.
func (c *Client) params() url.Values {
	v := url.Values{}
	v.Set("db", "pubmed")
	tool := c.Cfg.Tool
	if tool == "" {
		tool = defaultTool
	}
	v.Set("tool", tool)
	if c.Cfg.Email != "" {
		v.Set("email", c.Cfg.Email)
	}
	if c.Cfg.APIKey != "" {
		v.Set("api_key", c.Cfg.APIKey)
	}
	return v
}

// esearchResponse mirrors the JSON returned by esearch.fcgi.
type esearchResponse struct {
	Result struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// Search runs query against PubMed and returns up to limit PMIDs in
// relevance order. A non-positive limit uses the configured MaxResults.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = c.Cfg.MaxResults
	}
	if limit <= 0 {
		limit = defaultMaxResults
	}

	v := c.params()
	v.Set("term", query)
	v.Set("retmax", strconv.Itoa(limit))
	v.Set("retmode", "json")

	body, err := c.get(ctx, "esearch.fcgi", v)
	if err != nil {
		return nil, fmt.Errorf("searching PubMed: %w", err)
	}

	var resp esearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing esearch response: %w", err)
	}
	return resp.Result.IDList, nil
}

// FetchDetails returns the raw efetch XML document for one PMID.
func (c *Client) FetchDetails(ctx context.Context, id string) ([]byte, error) {
	v := c.params()
	v.Set("id", id)
	v.Set("retmode", "xml")

	body, err := c.get(ctx, "efetch.fcgi", v)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", id, err)
	}
	return body, nil
}

// FetchRecord fetches and parses one PMID.
func (c *Client) FetchRecord(ctx context.Context, id string) (*types.Record, error) {
	raw, err := c.FetchDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	rec, err := ParseArticle(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", id, err)
	}
	return rec, nil
}

func (c *Client) get(ctx context.Context, endpoint string, v url.Values) ([]byte, error) {
	u := c.base() + "/" + endpoint + "?" + v.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.Cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.Cfg.UserAgent)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, c.Cfg.MaxRetries)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned HTTP %d", endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", endpoint, err)
	}
	return body, nil
}
