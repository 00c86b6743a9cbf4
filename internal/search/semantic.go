// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/deep-research/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const (
	semanticFields   = "paperId,title,abstract,url,year,authors,citationCount,publicationDate,venue"
	semanticMaxLimit = 100
	semanticPaperURL = "https://www.semanticscholar.org/paper/"
	noAbstract       = "No abstract available"
)

// SemanticScholarProvider queries the Semantic Scholar graph API. The key
// is optional; without it requests go to the shared public pool.
type SemanticScholarProvider struct {
	Client  *http.Client
	APIKey  string
	HTTP    types.HTTPConfig
	Limiter *rate.Limiter
	Logger  *zap.Logger
}

func (p *SemanticScholarProvider) Name() types.Source { return types.SourceSemanticScholar }
func (p *SemanticScholarProvider) Academic() bool     { return true }

// Search returns papers matching query.
func (p *SemanticScholarProvider) Search(ctx context.Context, query string, opts types.SearchOptions) ([]types.SearchResult, error) {
	if err := wait(ctx, p.Limiter); err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, p.HTTP.Timeout)
	defer cancel()

	params := url.Values{
		"query":  {query},
		"limit":  {strconv.Itoa(min(intOr(opts.NumResults, 10), semanticMaxLimit))},
		"fields": {semanticFields},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	setUserAgent(req, p.HTTP.UserAgent)
	if p.APIKey != "" {
		req.Header.Set("x-api-key", p.APIKey)
	}

	body, err := fetch(ctx, p.Client, req, p.Logger)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar: %w", err)
	}

	var sr semanticResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	var results []types.SearchResult
	for _, paper := range sr.Data {
		link := paper.URL
		if link == "" {
			if paper.PaperID == "" {
				continue
			}
			link = semanticPaperURL + paper.PaperID
		}

		r := types.SearchResult{
			Title:         paper.Title,
			URL:           link,
			Snippet:       stringOr(paper.Abstract, noAbstract),
			Source:        types.SourceSemanticScholar,
			Type:          types.TypeAcademicPaper,
			Citations:     paper.CitationCount,
			Year:          paper.Year,
			Venue:         paper.Venue,
			Authors:       "Unknown",
			PublishedDate: paper.PublicationDate,
		}
		if len(paper.Authors) > 0 {
			names := make([]string, len(paper.Authors))
			for i, a := range paper.Authors {
				names[i] = a.Name
			}
			r.Authors = strings.Join(names, ", ")
		}
		results = append(results, r)
	}
	return results, nil
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Data   []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID         string           `json:"paperId"`
	Title           string           `json:"title"`
	Abstract        string           `json:"abstract"`
	URL             string           `json:"url"`
	Year            int              `json:"year"`
	Venue           string           `json:"venue"`
	CitationCount   *int             `json:"citationCount"`
	PublicationDate string           `json:"publicationDate"`
	Authors         []semanticAuthor `json:"authors"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}
