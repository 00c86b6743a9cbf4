// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/pkg/types"
)

// crossrefAPIBase is the CrossRef works endpoint. Declared as a var so
// tests can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org/works"

// markupRe strips the JATS tags CrossRef embeds in abstracts.
var markupRe = regexp.MustCompile(`<[^>]+>`)

// CrossRefProvider queries the CrossRef REST API through the polite pool,
// which requires a contact email.
type CrossRefProvider struct {
	Client *http.Client
	Email  string
	HTTP   types.HTTPConfig
	Logger *zap.Logger
}

func (p *CrossRefProvider) Name() types.Source { return types.SourceCrossRef }
func (p *CrossRefProvider) Academic() bool     { return true }

// Search returns scholarly works matching query. Works with neither a URL
// nor a DOI are dropped.
func (p *CrossRefProvider) Search(ctx context.Context, query string, opts types.SearchOptions) ([]types.SearchResult, error) {
	if p.Email == "" {
		return nil, fmt.Errorf("CrossRef: contact email not configured")
	}
	ctx, cancel := withTimeout(ctx, p.HTTP.Timeout)
	defer cancel()

	params := url.Values{
		"query":  {query},
		"rows":   {strconv.Itoa(intOr(opts.NumResults, 10))},
		"mailto": {p.Email},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, crossrefAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	setUserAgent(req, p.HTTP.UserAgent)

	body, err := fetch(ctx, p.Client, req, p.Logger)
	if err != nil {
		return nil, fmt.Errorf("CrossRef: %w", err)
	}

	var cr crossrefResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, fmt.Errorf("parsing CrossRef response: %w", err)
	}

	var results []types.SearchResult
	for _, item := range cr.Message.Items {
		link := item.URL
		if link == "" && item.DOI != "" {
			link = "https://doi.org/" + item.DOI
		}
		if link == "" {
			continue
		}

		r := types.SearchResult{
			Title:         "Untitled",
			URL:           link,
			Snippet:       noAbstract,
			Source:        types.SourceCrossRef,
			Type:          types.TypeScholarlyArticle,
			DOI:           item.DOI,
			PublishedDate: item.Created.DateTime,
			Citations:     item.ReferencedBy,
			Publisher:     item.Publisher,
			Authors:       crossrefAuthors(item.Author),
		}
		if len(item.Title) > 0 && item.Title[0] != "" {
			r.Title = item.Title[0]
		}
		if abs := cleanAbstract(item.Abstract); abs != "" {
			r.Snippet = abs
		} else if len(item.Subtitle) > 0 && item.Subtitle[0] != "" {
			r.Snippet = item.Subtitle[0]
		}
		results = append(results, r)
	}
	return results, nil
}

func crossrefAuthors(authors []crossrefAuthor) string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		name := strings.TrimSpace(a.Given + " " + a.Family)
		if name == "" {
			name = a.Name
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

func cleanAbstract(s string) string {
	return strings.Join(strings.Fields(markupRe.ReplaceAllString(s, " ")), " ")
}

// CrossRef API JSON structures.
type crossrefResponse struct {
	Status  string `json:"status"`
	Message struct {
		Items []crossrefItem `json:"items"`
	} `json:"message"`
}

type crossrefItem struct {
	DOI          string           `json:"DOI"`
	URL          string           `json:"URL"`
	Title        []string         `json:"title"`
	Subtitle     []string         `json:"subtitle"`
	Abstract     string           `json:"abstract"`
	Publisher    string           `json:"publisher"`
	ReferencedBy *int             `json:"is-referenced-by-count"`
	Author       []crossrefAuthor `json:"author"`
	Created      struct {
		DateTime string `json:"date-time"`
	} `json:"created"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"`
}
