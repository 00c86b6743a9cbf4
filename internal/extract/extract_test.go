// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/pkg/types"
)

const articlePage = `<!DOCTYPE html>
<html>
<head><title>  Solar   Storage Explained </title><script>var x = 1;</script></head>
<body>
  <nav><a href="/">Home</a> <a href="/about">About</a></nav>
  <main>
    <h1>Solar storage</h1>
    <p>Batteries smooth the output of <strong>photovoltaic</strong> arrays.</p>
    <aside>Subscribe to our newsletter</aside>
  </main>
  <footer>Copyright 2025</footer>
</body>
</html>`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, articlePage)
	})
	mux.HandleFunc("/plain", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, "  plain text body  ")
	})
	mux.HandleFunc("/notitle", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><p>Body without a title element.</p></body></html>")
	})
	mux.HandleFunc("/pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, "%PDF-1.7")
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><script>only()</script></body></html>")
	})
	mux.HandleFunc("/missing", http.NotFound)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestExtract_SkipsFailuresAndKeepsRankOrder(t *testing.T) {
	ts := newTestServer(t)
	e := NewWebExtractor(types.ExtractionConfig{}, ts.Client(), zap.NewNop())

	results := []types.SearchResult{
		{URL: ts.URL + "/missing", Title: "Gone", Source: types.SourceSerpAPI},
		{URL: ts.URL + "/article", Title: "Search title", Source: types.SourceTavily},
		{URL: ts.URL + "/pdf", Title: "Paper", Source: types.SourceArxiv},
		{URL: ts.URL + "/notitle", Title: "Fallback title", Source: types.SourceAzureBing},
		{URL: ts.URL + "/empty", Title: "Empty"},
		{URL: ts.URL + "/plain", Title: "Plain"},
	}
	contents, err := e.Extract(context.Background(), results)
	require.NoError(t, err)
	require.Len(t, contents, 3)

	article := contents[0]
	assert.Equal(t, ts.URL+"/article", article.URL)
	assert.Equal(t, "Solar Storage Explained", article.Title)
	assert.Equal(t, 2, article.Rank)
	assert.Equal(t, types.SourceTavily, article.Source)
	assert.Contains(t, article.Content, "Solar storage")
	assert.Contains(t, article.Content, "**photovoltaic**")
	assert.NotContains(t, article.Content, "Home")
	assert.NotContains(t, article.Content, "newsletter")
	assert.NotContains(t, article.Content, "Copyright")
	assert.False(t, article.FetchedAt.IsZero())

	assert.Equal(t, "Fallback title", contents[1].Title)
	assert.Equal(t, 4, contents[1].Rank)

	assert.Equal(t, "plain text body", contents[2].Content)
	assert.Equal(t, 6, contents[2].Rank)
}

func TestExtract_AllFailIsNotAnError(t *testing.T) {
	ts := newTestServer(t)
	e := NewWebExtractor(types.ExtractionConfig{}, ts.Client(), zap.NewNop())

	contents, err := e.Extract(context.Background(), []types.SearchResult{
		{URL: ts.URL + "/missing"},
		{URL: "http://127.0.0.1:1/unreachable"},
	})
	require.NoError(t, err)
	assert.Empty(t, contents)
}

func TestExtract_RespectsMaxURLs(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, "page "+r.URL.Path)
	}))
	defer ts.Close()

	var results []types.SearchResult
	for i := 0; i < 8; i++ {
		results = append(results, types.SearchResult{URL: fmt.Sprintf("%s/%d", ts.URL, i)})
	}
	results = append([]types.SearchResult{{Title: "no url"}}, results...)

	e := NewWebExtractor(types.ExtractionConfig{MaxURLs: 3, Workers: 2}, ts.Client(), zap.NewNop())
	contents, err := e.Extract(context.Background(), results)
	require.NoError(t, err)
	require.Len(t, contents, 3)
	assert.EqualValues(t, 3, hits.Load())
	for i, c := range contents {
		assert.Equal(t, fmt.Sprintf("page /%d", i), c.Content)
		assert.Equal(t, i+1, c.Rank)
	}
}

func TestExtract_ContextCancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	e := NewWebExtractor(types.ExtractionConfig{}, ts.Client(), zap.NewNop())
	_, err := e.Extract(ctx, []types.SearchResult{{URL: ts.URL + "/slow"}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewWebExtractor_Defaults(t *testing.T) {
	cfg := NewWebExtractor(types.ExtractionConfig{}, nil, nil).Config()
	assert.Equal(t, DefaultMaxURLs, cfg.MaxURLs)
	assert.Equal(t, DefaultChunkSize, cfg.ChunkSize)
	assert.Equal(t, DefaultOverlap, cfg.Overlap)
	assert.Equal(t, DefaultMaxChunks, cfg.MaxChunks)
	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.EqualValues(t, DefaultMaxBodyBytes, cfg.MaxBodyBytes)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)

	small := NewWebExtractor(types.ExtractionConfig{ChunkSize: 100, Overlap: 500}, nil, nil).Config()
	assert.Equal(t, 50, small.Overlap)
}

func TestContentKind(t *testing.T) {
	tests := map[string]string{
		"":                          "html",
		"text/html; charset=utf-8":  "html",
		"application/xhtml+xml":     "html",
		"text/plain":                "text",
		"text/markdown":             "text",
		"application/pdf":           "",
		"image/png":                 "",
		"not a ; valid = = header;": "",
	}
	for header, want := range tests {
		assert.Equal(t, want, contentKind(header), header)
	}
}

func TestToMarkdown_ContentSelection(t *testing.T) {
	long := strings.Repeat("Substantial paragraph text about the topic. ", 10)

	tests := []struct {
		name     string
		page     string
		contains string
		excludes string
	}{
		{
			"article preferred over body",
			`<html><body><div>Sidebar junk</div><article><p>Article text</p></article></body></html>`,
			"Article text", "Sidebar junk",
		},
		{
			"content id with enough text",
			`<html><body><div>Menu junk</div><div id="main-content"><p>` + long + `</p></div></body></html>`,
			"Substantial paragraph", "Menu junk",
		},
		{
			"tiny content class falls back to body",
			`<html><body><span class="text-content">x</span><p>Real body text</p></body></html>`,
			"Real body text", "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, md, err := toMarkdown(tt.page)
			require.NoError(t, err)
			assert.Contains(t, md, tt.contains)
			if tt.excludes != "" {
				assert.NotContains(t, md, tt.excludes)
			}
		})
	}
}
