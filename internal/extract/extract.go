// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract fetches the pages behind ranked search results, reduces
// them to readable Markdown and cuts the text into overlapping chunks for
// analysis.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/internal/logging"
	"github.com/pdiddy/deep-research/internal/metrics"
	"github.com/pdiddy/deep-research/pkg/types"
)

// Defaults applied by NewWebExtractor to zero config fields.
const (
	DefaultMaxURLs      = 10
	DefaultChunkSize    = 4000
	DefaultOverlap      = 200
	DefaultMaxChunks    = 50
	DefaultWorkers      = 4
	DefaultMaxBodyBytes = 2 << 20
	DefaultTimeout      = 20 * time.Second
)

// fetchRetries bounds 429 retries per page; pages are best effort.
const fetchRetries = 1

// errUnsupported marks a page whose content type cannot be converted.
var errUnsupported = errors.New("unsupported content type")

// Extractor turns search results into analyzable text.
type Extractor interface {
	// Extract fetches the top results. Pages that fail are skipped; an
	// error is returned only when ctx ends.
	Extract(ctx context.Context, results []types.SearchResult) ([]types.ExtractedContent, error)

	// Chunk splits contents into at most maxChunks chunks.
	Chunk(contents []types.ExtractedContent, maxChunks int) []types.Chunk
}

// WebExtractor fetches pages over HTTP with a bounded worker pool.
type WebExtractor struct {
	client *http.Client
	cfg    types.ExtractionConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewWebExtractor returns an extractor with cfg's zero fields defaulted.
func NewWebExtractor(cfg types.ExtractionConfig, client *http.Client, logger *zap.Logger) *WebExtractor {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.MaxURLs <= 0 {
		cfg.MaxURLs = DefaultMaxURLs
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.ChunkSize {
		cfg.Overlap = min(DefaultOverlap, cfg.ChunkSize/2)
	}
	if cfg.MaxChunks <= 0 {
		cfg.MaxChunks = DefaultMaxChunks
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &WebExtractor{client: client, cfg: cfg, logger: logging.OrNop(logger), now: time.Now}
}

// Config returns the effective configuration.
func (e *WebExtractor) Config() types.ExtractionConfig { return e.cfg }

// Extract fetches up to MaxURLs results concurrently and returns the pages
// that produced text, in rank order.
func (e *WebExtractor) Extract(ctx context.Context, results []types.SearchResult) ([]types.ExtractedContent, error) {
	var targets []types.SearchResult
	for _, r := range results {
		if r.URL == "" {
			continue
		}
		targets = append(targets, r)
		if len(targets) == e.cfg.MaxURLs {
			break
		}
	}

	out := make([]*types.ExtractedContent, len(targets))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(e.cfg.Workers, len(targets)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				c, err := e.fetch(ctx, targets[i], i+1)
				if err != nil {
					metrics.ObserveExtraction("skipped")
					e.logger.Warn("skipping page",
						zap.String("url", targets[i].URL),
						zap.Error(err))
					continue
				}
				metrics.ObserveExtraction("ok")
				out[i] = c
			}
		}()
	}

feed:
	for i := range targets {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	contents := make([]types.ExtractedContent, 0, len(targets))
	for _, c := range out {
		if c != nil {
			contents = append(contents, *c)
		}
	}
	e.logger.Info("extraction complete",
		zap.Int("attempted", len(targets)),
		zap.Int("extracted", len(contents)))
	return contents, nil
}

// fetch downloads one page and converts it to Markdown.
func (e *WebExtractor) fetch(ctx context.Context, r types.SearchResult, rank int) (*types.ExtractedContent, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9")
	if e.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", e.cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, e.client, req, fetchRetries, e.logger)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.cfg.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	var title, text string
	switch kind := contentKind(resp.Header.Get("Content-Type")); kind {
	case "html":
		title, text, err = toMarkdown(string(body))
		if err != nil {
			return nil, fmt.Errorf("converting HTML: %w", err)
		}
	case "text":
		text = strings.TrimSpace(string(body))
	default:
		return nil, fmt.Errorf("%w %q", errUnsupported, resp.Header.Get("Content-Type"))
	}
	if text == "" {
		return nil, errors.New("no readable content")
	}
	if title == "" {
		title = r.Title
	}

	return &types.ExtractedContent{
		URL:       resp.Request.URL.String(),
		Title:     title,
		Content:   text,
		Source:    r.Source,
		Rank:      rank,
		FetchedAt: e.now().UTC(),
	}, nil
}

// contentKind classifies a Content-Type header as "html", "text" or "".
// A missing header is treated as HTML.
func contentKind(header string) string {
	if header == "" {
		return "html"
	}
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	switch {
	case mt == "text/html", mt == "application/xhtml+xml":
		return "html"
	case mt == "text/plain", mt == "text/markdown":
		return "text"
	}
	return ""
}
