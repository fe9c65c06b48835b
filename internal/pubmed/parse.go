// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/pubmed-fetcher/pkg/types"
)

// ErrNoArticle is returned when an efetch document holds no PubmedArticle
// (e.g. a PubmedBookArticle or an unknown PMID).
var ErrNoArticle = errors.New("no PubmedArticle in document")

// efetch XML structures. Only the fields the pipeline reads are mapped.
type articleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation   medlineCitation `xml:"MedlineCitation"`
	ArticleIDs []articleID     `xml:"PubmedData>ArticleIdList>ArticleId"`
}

type medlineCitation struct {
	PMID    string  `xml:"PMID"`
	Article article `xml:"Article"`
}

type article struct {
	Title        innerText   `xml:"ArticleTitle"`
	PubDate      xmlDate     `xml:"Journal>JournalIssue>PubDate"`
	ArticleDates []xmlDate   `xml:"ArticleDate"`
	Authors      []xmlAuthor `xml:"AuthorList>Author"`
}

type xmlDate struct {
	Year        string `xml:"Year"`
	Month       string `xml:"Month"`
	Day         string `xml:"Day"`
	MedlineDate string `xml:"MedlineDate"`
}

type xmlAuthor struct {
	LastName       string      `xml:"LastName"`
	ForeName       string      `xml:"ForeName"`
	CollectiveName innerText   `xml:"CollectiveName"`
	Affiliations   []innerText `xml:"AffiliationInfo>Affiliation"`
}

type articleID struct {
	IDType string `xml:"IdType,attr"`
	Value  string `xml:",chardata"`
}

// innerText collects all character data of an element, flattening inline
// markup such as <i> or <sup>.
type innerText string

func (t *innerText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var b strings.Builder
	depth := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch tt := tok.(type) {
		case xml.CharData:
			b.Write(tt)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				*t = innerText(b.String())
				return nil
			}
			depth--
		}
	}
}

// emailPattern finds addresses such as those PubMed appends to affiliations
// ("Electronic address: jane@example.org.").
var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// ParseArticle parses the first PubmedArticle of an efetch document.
func ParseArticle(raw []byte) (*types.Record, error) {
	recs, err := ParseArticleSet(raw)
	if err != nil {
		return nil, err
	}
	return recs[0], nil
}

// ParseArticleSet parses every PubmedArticle of an efetch document, in
// document order. Missing fields become empty strings or empty slices.
func ParseArticleSet(raw []byte) ([]*types.Record, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.Entity = xml.HTMLEntity

	var set articleSet
	if err := dec.Decode(&set); err != nil {
		return nil, fmt.Errorf("decoding efetch XML: %w", err)
	}
	if len(set.Articles) == 0 {
		return nil, ErrNoArticle
	}

	recs := make([]*types.Record, len(set.Articles))
	for i := range set.Articles {
		recs[i] = toRecord(&set.Articles[i])
	}
	return recs, nil
}

func toRecord(pa *pubmedArticle) *types.Record {
	art := &pa.Citation.Article
	rec := &types.Record{
		ID:              strings.TrimSpace(pa.Citation.PMID),
		Title:           collapseSpace(string(art.Title)),
		PublicationDate: publicationDate(art),
		Authors:         make([]types.Author, 0, len(art.Authors)),
	}

	for _, id := range pa.ArticleIDs {
		if id.IDType == "doi" {
			rec.DOI = strings.TrimSpace(id.Value)
			break
		}
	}

	seenEmail := make(map[string]bool)
	for _, xa := range art.Authors {
		a := types.Author{
			LastName: strings.TrimSpace(xa.LastName),
			ForeName: strings.TrimSpace(xa.ForeName),
		}
		if a.LastName == "" && a.ForeName == "" {
			a.LastName = collapseSpace(string(xa.CollectiveName))
		}
		for _, aff := range xa.Affiliations {
			s := collapseSpace(string(aff))
			if s == "" {
				continue
			}
			a.Affiliations = append(a.Affiliations, s)
			for _, email := range emailPattern.FindAllString(s, -1) {
				email = strings.TrimRight(email, ".")
				if !seenEmail[email] {
					seenEmail[email] = true
					rec.Emails = append(rec.Emails, email)
				}
			}
		}
		rec.Authors = append(rec.Authors, a)
	}
	return rec
}

// publicationDate prefers the electronic ArticleDate over the journal issue
// PubDate, falling back to the free-form MedlineDate.
func publicationDate(art *article) string {
	if len(art.ArticleDates) > 0 {
		if d := art.ArticleDates[0].String(); d != "" {
			return d
		}
	}
	return art.PubDate.String()
}

// String joins the non-empty date parts with hyphens.
func (d xmlDate) String() string {
	var parts []string
	for _, p := range []string{d.Year, d.Month, d.Day} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return strings.TrimSpace(d.MedlineDate)
	}
	return strings.Join(parts, "-")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
