// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/internal/logging"
	"github.com/pdiddy/deep-research/pkg/types"
)

// ErrNoProviders is returned by Search when no (sub-query, provider) task
// could be built, i.e. nothing is configured for the requested options.
var ErrNoProviders = errors.New("no search providers configured: add SERPAPI_KEY, TAVILY_API_KEY or AZURE_BING_SEARCH_KEY, or enable academic search")

// maxResponseBytes caps how much of a provider response is read.
const maxResponseBytes = 10 << 20

// Provider searches one external index. Implementations normalize their
// hits into types.SearchResult, preserve the provider's native order and
// never return results without a URL.
type Provider interface {
	Name() types.Source
	Academic() bool
	Search(ctx context.Context, query string, opts types.SearchOptions) ([]types.SearchResult, error)
}

// ProviderStatus reports whether a provider can run with the current
// credentials.
type ProviderStatus struct {
	Name       types.Source `json:"name" yaml:"name"`
	Academic   bool         `json:"academic" yaml:"academic"`
	Configured bool         `json:"configured" yaml:"configured"`
	Requires   string       `json:"requires,omitempty" yaml:"requires,omitempty"`
}

// Status lists every known provider in registry order with its
// configuration state.
func Status(creds types.Credentials) []ProviderStatus {
	return []ProviderStatus{
		{Name: types.SourceSerpAPI, Configured: creds.SerpAPIKey != "", Requires: "SERPAPI_KEY"},
		{Name: types.SourceTavily, Configured: creds.TavilyAPIKey != "", Requires: "TAVILY_API_KEY"},
		{Name: types.SourceAzureBing, Configured: creds.AzureBingKey != "", Requires: "AZURE_BING_SEARCH_KEY"},
		{Name: types.SourceSemanticScholar, Academic: true, Configured: true},
		{Name: types.SourceCrossRef, Academic: true, Configured: creds.CrossRefEmail != "", Requires: "CROSSREF_EMAIL"},
		{Name: types.SourceArxiv, Academic: true, Configured: true},
	}
}

// NewProviders builds the provider set for cfg. Web providers need a key,
// CrossRef needs a contact email, and the keyless academic indexes are
// always present. The academic providers share nothing but each gets its
// own rate limiter.
func NewProviders(cfg types.SearchConfig, client *http.Client, logger *zap.Logger) []Provider {
	logger = logging.OrNop(logger)
	creds := cfg.Credentials

	var ps []Provider
	if creds.SerpAPIKey != "" {
		ps = append(ps, &SerpAPIProvider{Client: client, APIKey: creds.SerpAPIKey, HTTP: cfg.HTTPConfig, Logger: logger})
	}
	if creds.TavilyAPIKey != "" {
		ps = append(ps, &TavilyProvider{Client: client, APIKey: creds.TavilyAPIKey, MaxResults: cfg.MaxResults, HTTP: cfg.HTTPConfig, Logger: logger})
	}
	if creds.AzureBingKey != "" {
		ps = append(ps, &BingProvider{Client: client, APIKey: creds.AzureBingKey, HTTP: cfg.HTTPConfig, Logger: logger})
	}
	ps = append(ps, &SemanticScholarProvider{
		Client:  client,
		APIKey:  creds.SemanticScholarKey,
		HTTP:    cfg.HTTPConfig,
		Limiter: newAcademicLimiter(cfg.AcademicRate),
		Logger:  logger,
	})
	if creds.CrossRefEmail != "" {
		ps = append(ps, &CrossRefProvider{Client: client, Email: creds.CrossRefEmail, HTTP: cfg.HTTPConfig, Logger: logger})
	}
	ps = append(ps, &ArxivProvider{
		Client:  client,
		HTTP:    cfg.HTTPConfig,
		Limiter: newAcademicLimiter(cfg.AcademicRate),
		Logger:  logger,
	})
	return ps
}

func newAcademicLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		perSecond = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// wait blocks on l when it is set.
func wait(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	return l.Wait(ctx)
}

// withTimeout applies the per-request timeout when one is configured.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// fetch sends req with 429 retry and returns the body of a 200 response.
// Non-200 responses become errors carrying only the status code.
func fetch(ctx context.Context, client *http.Client, req *http.Request, logger *zap.Logger) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 0, logger)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}

func setUserAgent(req *http.Request, ua string) {
	if ua != "" {
		req.Header.Set("User-Agent", ua)
	}
}

func intOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func stringOr(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
