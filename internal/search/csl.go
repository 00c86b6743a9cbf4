// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/deep-research/pkg/types"
)

// CSLItem represents a bibliographic entry in CSL (Citation Style Language)
// format, consumable by Pandoc and reference managers.
type CSLItem struct {
	ID             string    `yaml:"id"`
	Type           string    `yaml:"type"`
	Title          string    `yaml:"title"`
	Author         []CSLName `yaml:"author,omitempty"`
	Abstract       string    `yaml:"abstract,omitempty"`
	Issued         *CSLDate  `yaml:"issued,omitempty"`
	DOI            string    `yaml:"DOI,omitempty"`
	URL            string    `yaml:"URL,omitempty"`
	ContainerTitle string    `yaml:"container-title,omitempty"`
	Publisher      string    `yaml:"publisher,omitempty"`
}

// CSLName represents a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate represents a date in CSL format using date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// FormatCSL writes search results as a CSL-YAML list to w.
func FormatCSL(resp types.SearchResponse, w io.Writer) error {
	items := make([]CSLItem, len(resp.Results))
	for i, r := range resp.Results {
		items[i] = toCSLItem(r, i+1)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

// toCSLItem converts a SearchResult to a CSLItem. rank numbers items that
// have no DOI.
func toCSLItem(r types.SearchResult, rank int) CSLItem {
	item := CSLItem{
		ID:             r.DOI,
		Type:           cslType(r),
		Title:          r.Title,
		DOI:            r.DOI,
		URL:            r.URL,
		ContainerTitle: r.Venue,
		Publisher:      r.Publisher,
	}
	if item.ID == "" {
		item.ID = fmt.Sprintf("%s-%d", r.Source, rank)
	}
	if r.Snippet != noAbstract {
		item.Abstract = r.Snippet
	}
	if r.Authors != "Unknown" {
		for _, a := range strings.Split(r.Authors, ",") {
			if name := parseAuthorName(a); name != (CSLName{}) {
				item.Author = append(item.Author, name)
			}
		}
	}

	dateStr := r.PublishedDate
	if dateStr == "" {
		dateStr = r.Date
	}
	if t, ok := parseDate(dateStr); ok {
		item.Issued = &CSLDate{DateParts: [][]int{{t.Year(), int(t.Month()), t.Day()}}}
	} else if r.Year > 0 {
		item.Issued = &CSLDate{DateParts: [][]int{{r.Year}}}
	}
	return item
}

func cslType(r types.SearchResult) string {
	switch r.Type {
	case types.TypeAcademicPaper, types.TypeScholarlyArticle:
		return "article-journal"
	case types.TypeScientificPreprint:
		return "article"
	}
	return "webpage"
}

// parseAuthorName splits a full name string into CSL family/given parts.
// It splits on the last space: everything before is given, the last token
// is family. Single-token names use the literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}
