// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/pkg/types"
)

// bingAPIBase is the Bing Web Search v7 endpoint. Declared as a var so
// tests can substitute an httptest server.
var bingAPIBase = "https://api.bing.microsoft.com/v7.0/search"

// BingProvider queries the Azure Bing Web Search API.
type BingProvider struct {
	Client *http.Client
	APIKey string
	HTTP   types.HTTPConfig
	Logger *zap.Logger
}

func (p *BingProvider) Name() types.Source { return types.SourceAzureBing }
func (p *BingProvider) Academic() bool     { return false }

type bingResponse struct {
	WebPages struct {
		Value []bingPage `json:"value"`
	} `json:"webPages"`
}

type bingPage struct {
	Name            string `json:"name"`
	URL             string `json:"url"`
	Snippet         string `json:"snippet"`
	DisplayURL      string `json:"displayUrl"`
	DateLastCrawled string `json:"dateLastCrawled"`
}

// Search returns Bing's web pages for query. Freshness defaults to a month.
func (p *BingProvider) Search(ctx context.Context, query string, opts types.SearchOptions) ([]types.SearchResult, error) {
	ctx, cancel := withTimeout(ctx, p.HTTP.Timeout)
	defer cancel()

	params := url.Values{
		"q":          {query},
		"count":      {strconv.Itoa(intOr(opts.NumResults, 20))},
		"offset":     {"0"},
		"mkt":        {stringOr(opts.Market, "en-US")},
		"safeSearch": {stringOr(opts.SafeSearch, "Moderate")},
		"freshness":  {stringOr(opts.Freshness, "Month")},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, bingAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", p.APIKey)
	setUserAgent(req, p.HTTP.UserAgent)

	body, err := fetch(ctx, p.Client, req, p.Logger)
	if err != nil {
		return nil, fmt.Errorf("Azure Bing: %w", err)
	}

	var resp bingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing Azure Bing response: %w", err)
	}

	var results []types.SearchResult
	for i, page := range resp.WebPages.Value {
		if page.URL == "" {
			continue
		}
		pos := i + 1
		results = append(results, types.SearchResult{
			Title:         page.Name,
			URL:           page.URL,
			Snippet:       page.Snippet,
			Source:        types.SourceAzureBing,
			Position:      &pos,
			DisplayedLink: page.DisplayURL,
			Date:          page.DateLastCrawled,
		})
	}
	return results, nil
}
