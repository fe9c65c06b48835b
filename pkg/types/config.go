// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds HTTP settings for requests to the E-utilities API.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "pubmed-fetcher/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retries on HTTP 429. Zero uses the retry helper's default.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// FetchConfig holds settings for searching and fetching PubMed records.
type FetchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Email identifies the caller to NCBI. Required.
	Email string `json:"email" yaml:"email" mapstructure:"email"`

	// APIKey is an optional NCBI API key for higher rate limits.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the E-utilities endpoint (e.g. for a caching proxy).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// Tool is the tool name reported to NCBI.
	Tool string `json:"tool" yaml:"tool" mapstructure:"tool"`

	// MaxResults is the maximum number of search hits to fetch (default 100).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// Workers is the number of records fetched concurrently (default 3).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`
}

// ClassifierConfig overrides the affiliation marker lists. Empty lists keep
// the built-in defaults.
type ClassifierConfig struct {
	AcademicPatterns []string `json:"academic_patterns,omitempty" yaml:"academic_patterns,omitempty" mapstructure:"academic_patterns"`
	IndustryPatterns []string `json:"industry_patterns,omitempty" yaml:"industry_patterns,omitempty" mapstructure:"industry_patterns"`
}

// StoreConfig holds settings for the run history database.
type StoreConfig struct {
	// Enabled controls whether fetch runs are recorded.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Path is the SQLite database file (default "data/pubmed-fetcher.db").
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}
