// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/deep-research/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivProvider queries the arXiv Atom API. No key is needed; the limiter
// keeps request spacing within arXiv's usage policy.
type ArxivProvider struct {
	Client  *http.Client
	HTTP    types.HTTPConfig
	Limiter *rate.Limiter
	Logger  *zap.Logger
}

func (p *ArxivProvider) Name() types.Source { return types.SourceArxiv }
func (p *ArxivProvider) Academic() bool     { return true }

// Search returns preprints matching query in relevance order.
func (p *ArxivProvider) Search(ctx context.Context, query string, opts types.SearchOptions) ([]types.SearchResult, error) {
	if err := wait(ctx, p.Limiter); err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, p.HTTP.Timeout)
	defer cancel()

	params := url.Values{
		"search_query": {"all:" + query},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(intOr(opts.NumResults, 10))},
		"sortBy":       {"relevance"},
		"sortOrder":    {"descending"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	setUserAgent(req, p.HTTP.UserAgent)

	body, err := fetch(ctx, p.Client, req, p.Logger)
	if err != nil {
		return nil, fmt.Errorf("arXiv: %w", err)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(bytes.NewReader(body)).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	var results []types.SearchResult
	for _, entry := range feed.Entries {
		title := collapseSpace(entry.Title)
		link := strings.TrimSpace(entry.ID)
		if title == "" || link == "" {
			continue
		}

		names := make([]string, 0, len(entry.Authors))
		for _, a := range entry.Authors {
			if n := strings.TrimSpace(a.Name); n != "" {
				names = append(names, n)
			}
		}
		results = append(results, types.SearchResult{
			Title:         title,
			URL:           link,
			Snippet:       collapseSpace(entry.Summary),
			Source:        types.SourceArxiv,
			Type:          types.TypeScientificPreprint,
			Authors:       strings.Join(names, ", "),
			PublishedDate: strings.TrimSpace(entry.Published),
		})
	}
	return results, nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}
