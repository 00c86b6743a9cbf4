// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/pkg/types"
)

// tavilyAPIBase is the Tavily search endpoint. Declared as a var so tests
// can substitute an httptest server.
var tavilyAPIBase = "https://api.tavily.com/search"

// recentSuffix biases Tavily toward recent material; the API has no date filter.
const recentSuffix = " 2024 OR 2025"

// TavilyProvider queries the Tavily AI-optimized search API.
type TavilyProvider struct {
	Client *http.Client
	APIKey string

	// MaxResults is used when the request does not set one (default 20).
	MaxResults int

	HTTP   types.HTTPConfig
	Logger *zap.Logger
}

func (p *TavilyProvider) Name() types.Source { return types.SourceTavily }
func (p *TavilyProvider) Academic() bool     { return false }

type tavilyRequest struct {
	APIKey            string   `json:"api_key"`
	Query             string   `json:"query"`
	SearchDepth       string   `json:"search_depth"`
	MaxResults        int      `json:"max_results"`
	IncludeAnswer     bool     `json:"include_answer"`
	IncludeRawContent bool     `json:"include_raw_content"`
	IncludeImages     bool     `json:"include_images"`
	IncludeDomains    []string `json:"include_domains,omitempty"`
}

type tavilyResponse struct {
	Answer  string         `json:"answer"`
	Results []tavilyResult `json:"results"`
}

type tavilyResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"published_date"`
}

// Search returns Tavily's results for query, each carrying the batch answer.
func (p *TavilyProvider) Search(ctx context.Context, query string, opts types.SearchOptions) ([]types.SearchResult, error) {
	ctx, cancel := withTimeout(ctx, p.HTTP.Timeout)
	defer cancel()

	tr := tavilyRequest{
		APIKey:         p.APIKey,
		Query:          query,
		SearchDepth:    stringOr(opts.SearchDepth, "advanced"),
		MaxResults:     intOr(opts.MaxResults, intOr(p.MaxResults, 20)),
		IncludeAnswer:  true,
		IncludeDomains: opts.IncludeDomains,
	}
	if types.Enabled(opts.IncludeRecent) {
		tr.Query = query + recentSuffix
	}
	payload, err := json.Marshal(tr)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyAPIBase, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	setUserAgent(req, p.HTTP.UserAgent)

	body, err := fetch(ctx, p.Client, req, p.Logger)
	if err != nil {
		return nil, fmt.Errorf("Tavily: %w", err)
	}

	var resp tavilyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing Tavily response: %w", err)
	}

	var results []types.SearchResult
	for i, item := range resp.Results {
		if item.URL == "" {
			continue
		}
		pos := i + 1
		score := item.Score
		results = append(results, types.SearchResult{
			Title:         item.Title,
			URL:           item.URL,
			Snippet:       item.Content,
			Source:        types.SourceTavily,
			Position:      &pos,
			Score:         &score,
			PublishedDate: item.PublishedDate,
			Answer:        resp.Answer,
		})
	}
	return results, nil
}
