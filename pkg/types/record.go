// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the pubmed-fetcher pipeline:
// bibliographic records as parsed from PubMed, their authors, and the
// industry-affiliation annotation applied by the classification stage.
package types

import "errors"

// ErrAlreadyAnnotated is returned when Annotate is called on a finalized record.
var ErrAlreadyAnnotated = errors.New("record already annotated")

// Author is one author of a record as parsed from the source XML.
type Author struct {
	// LastName is the family name, or the collective name for group authors.
	LastName string `json:"last_name" yaml:"last_name"`

	// ForeName is the given name(s).
	ForeName string `json:"fore_name" yaml:"fore_name"`

	// Affiliations lists the author's free-text affiliation strings in source order.
	Affiliations []string `json:"affiliations" yaml:"affiliations"`
}

// IndustryAuthor is an author with at least one industry affiliation.
type IndustryAuthor struct {
	// Name is "ForeName LastName", trimmed.
	Name string `json:"name" yaml:"name"`

	// Affiliations holds the affiliation strings classified as industry, in source order.
	Affiliations []string `json:"affiliations" yaml:"affiliations"`

	// Companies holds the company names extracted from Affiliations,
	// deduplicated in first-seen order.
	Companies []string `json:"companies" yaml:"companies"`
}

// Record holds the bibliographic fields of one PubMed article and, once
// annotated, the industry-affiliation summary for it.
type Record struct {
	// ID is the PubMed identifier (PMID).
	ID string `json:"pmid" yaml:"pmid"`

	// Title is the article title with inline markup flattened.
	Title string `json:"title" yaml:"title"`

	// PublicationDate is the hyphen-joined Year-Month-Day as it appears in the source.
	PublicationDate string `json:"publication_date" yaml:"publication_date"`

	// DOI is the article DOI when the source lists one.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Authors lists the article authors in source order.
	Authors []Author `json:"authors" yaml:"authors"`

	// Emails lists the email addresses found in author affiliations.
	Emails []string `json:"emails,omitempty" yaml:"emails,omitempty"`

	// IndustryAuthors lists authors with industry affiliations, in author order.
	IndustryAuthors []IndustryAuthor `json:"industry_authors,omitempty" yaml:"industry_authors,omitempty"`

	// Companies is the deduplicated union of every industry author's companies.
	Companies []string `json:"companies,omitempty" yaml:"companies,omitempty"`

	annotated bool
}

// Annotate attaches the industry-affiliation summary to the record. A record
// is annotated at most once; later calls return ErrAlreadyAnnotated and leave
// the record unchanged.
func (r *Record) Annotate(authors []IndustryAuthor, companies []string) error {
	if r.annotated {
		return ErrAlreadyAnnotated
	}
	r.IndustryAuthors = authors
	r.Companies = companies
	r.annotated = true
	return nil
}

// Annotated reports whether Annotate has been applied.
func (r *Record) Annotated() bool { return r.annotated }

// HasIndustryAuthors reports whether the record qualifies for output.
func (r *Record) HasIndustryAuthors() bool { return len(r.IndustryAuthors) > 0 }

// IndustryAuthorNames returns the display names of the industry authors.
func (r *Record) IndustryAuthorNames() []string {
	names := make([]string, len(r.IndustryAuthors))
	for i, a := range r.IndustryAuthors {
		names[i] = a.Name
	}
	return names
}
