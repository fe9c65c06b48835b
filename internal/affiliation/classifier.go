// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package affiliation decides whether free-text author affiliations belong to
// industry or academia and summarizes the industry authors of a record.
//
// Markers are case-insensitive regular-expression fragments matched anywhere
// in the text, without word boundaries. Academic markers take precedence: an
// affiliation matching any academic marker is never industry.
package affiliation

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultAcademicPatterns lists fragments that mark institutional,
// nonprofit, and government affiliations.
var DefaultAcademicPatterns = []string{
	"university", "college", "institute", "academy",
	"school", "faculty", "labs?", "laboratory",
	"hospital", "clinic", "medical center",
	"government", "ministry", "agency",
	"foundation", "non.?profit", "nonprofit",
	"research", "center", "centre",
}

// DefaultIndustryPatterns lists fragments that mark commercial affiliations.
var DefaultIndustryPatterns = []string{
	"pharma", "biotech", "bio.?tech", "pharmaceutical",
	"inc", "ltd", "llc", "corporation", "corp",
	"company", `co\.`, "ag", "gmbh", "holding",
	"industr", "healthcare", "medical", "therapeutics",
	"genetics", "vaccin", "drug", "medicine",
}

// Classification is the outcome of classifying one affiliation string.
// Company is empty unless IsIndustry is true.
type Classification struct {
	IsIndustry bool   `json:"is_industry" yaml:"is_industry"`
	Company    string `json:"company,omitempty" yaml:"company,omitempty"`
}

// Classifier holds the compiled marker matchers. It is immutable after
// construction and safe for concurrent use.
type Classifier struct {
	academic *regexp.Regexp
	industry *regexp.Regexp
}

// NewClassifier compiles the academic and industry fragment lists into
// alternation matchers. A nil or empty list selects the corresponding default.
func NewClassifier(academic, industry []string) (*Classifier, error) {
	if len(academic) == 0 {
		academic = DefaultAcademicPatterns
	}
	if len(industry) == 0 {
		industry = DefaultIndustryPatterns
	}

	acRe, err := compileAlternation(academic)
	if err != nil {
		return nil, fmt.Errorf("compiling academic patterns: %w", err)
	}
	inRe, err := compileAlternation(industry)
	if err != nil {
		return nil, fmt.Errorf("compiling industry patterns: %w", err)
	}
	return &Classifier{academic: acRe, industry: inRe}, nil
}

// Default returns a classifier built from the default marker lists.
func Default() *Classifier {
	c, err := NewClassifier(nil, nil)
	if err != nil {
		panic(err) // default lists are constant
	}
	return c
}

func compileAlternation(fragments []string) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)" + strings.Join(fragments, "|"))
}

// Classify reports whether affiliation is an industry affiliation and, if
// so, extracts a company name. An empty string is not industry.
func (c *Classifier) Classify(affiliation string) Classification {
	if !c.IsIndustry(affiliation) {
		return Classification{}
	}
	return Classification{IsIndustry: true, Company: CompanyName(affiliation)}
}

// IsIndustry applies the decision rule: academic signal wins, then industry
// signal, otherwise not industry.
func (c *Classifier) IsIndustry(affiliation string) bool {
	if affiliation == "" {
		return false
	}
	if c.academic.MatchString(affiliation) {
		return false
	}
	return c.industry.MatchString(affiliation)
}

// CompanyName returns the first non-empty comma-separated segment of
// affiliation, trimmed. It assumes the "Company, City, Country" byline
// convention and returns the leading department when an affiliation starts
// with one. If no segment is usable the input is returned as is.
func CompanyName(affiliation string) string {
	for _, part := range strings.Split(affiliation, ",") {
		if p := strings.TrimSpace(part); p != "" {
			return p
		}
	}
	return affiliation
}
