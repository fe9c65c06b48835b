// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package affiliation

import (
	"strings"

	"github.com/pdiddy/pubmed-fetcher/pkg/types"
)

// Aggregation is the industry-affiliation summary for one author list.
type Aggregation struct {
	IndustryAuthors []types.IndustryAuthor
	Companies       []string
}

// Aggregate classifies every affiliation of every author. Authors with at
// least one extracted company become IndustryAuthors, in input order.
// Companies is the union of their companies, deduplicated in first-seen order.
func (c *Classifier) Aggregate(authors []types.Author) Aggregation {
	var agg Aggregation
	seen := make(map[string]bool)

	for _, author := range authors {
		var matched, companies []string
		authorSeen := make(map[string]bool)

		for _, aff := range author.Affiliations {
			res := c.Classify(aff)
			if !res.IsIndustry {
				continue
			}
			matched = append(matched, aff)
			if res.Company != "" && !authorSeen[res.Company] {
				authorSeen[res.Company] = true
				companies = append(companies, res.Company)
			}
		}

		if len(companies) == 0 {
			continue
		}

		agg.IndustryAuthors = append(agg.IndustryAuthors, types.IndustryAuthor{
			Name:         DisplayName(author),
			Affiliations: matched,
			Companies:    companies,
		})
		for _, co := range companies {
			if !seen[co] {
				seen[co] = true
				agg.Companies = append(agg.Companies, co)
			}
		}
	}
	return agg
}

// Annotate aggregates the record's authors and attaches the result.
func (c *Classifier) Annotate(r *types.Record) error {
	agg := c.Aggregate(r.Authors)
	return r.Annotate(agg.IndustryAuthors, agg.Companies)
}

// DisplayName joins fore and last name with a single space and trims the result.
func DisplayName(a types.Author) string {
	return strings.TrimSpace(a.ForeName + " " + a.LastName)
}
