// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/pkg/types"
)

// serpAPIBase is the SerpAPI search endpoint. Declared as a var so tests
// can substitute an httptest server.
var serpAPIBase = "https://serpapi.com/search"

// SerpAPIProvider queries Google web results through SerpAPI.
type SerpAPIProvider struct {
	Client *http.Client
	APIKey string
	HTTP   types.HTTPConfig
	Logger *zap.Logger
}

func (p *SerpAPIProvider) Name() types.Source { return types.SourceSerpAPI }
func (p *SerpAPIProvider) Academic() bool     { return false }

// Search returns the organic results for query.
func (p *SerpAPIProvider) Search(ctx context.Context, query string, opts types.SearchOptions) ([]types.SearchResult, error) {
	ctx, cancel := withTimeout(ctx, p.HTTP.Timeout)
	defer cancel()

	params := url.Values{
		"q":       {query},
		"api_key": {p.APIKey},
		"engine":  {"google"},
		"num":     {strconv.Itoa(intOr(opts.NumResults, 10))},
		"gl":      {stringOr(opts.Country, "us")},
		"hl":      {stringOr(opts.Language, "en")},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serpAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	setUserAgent(req, p.HTTP.UserAgent)

	body, err := fetch(ctx, p.Client, req, p.Logger)
	if err != nil {
		return nil, fmt.Errorf("SerpAPI: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("SerpAPI: invalid JSON response")
	}

	var results []types.SearchResult
	gjson.GetBytes(body, "organic_results").ForEach(func(_, item gjson.Result) bool {
		link := item.Get("link").String()
		if link == "" {
			return true
		}
		r := types.SearchResult{
			Title:         item.Get("title").String(),
			URL:           link,
			Snippet:       item.Get("snippet").String(),
			Source:        types.SourceSerpAPI,
			DisplayedLink: item.Get("displayed_link").String(),
			Date:          item.Get("date").String(),
		}
		if pos := item.Get("position"); pos.Exists() {
			n := int(pos.Int())
			r.Position = &n
		}
		results = append(results, r)
		return true
	})
	return results, nil
}
