// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/pkg/types"
)

var testHTTP = types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "deep-research-test/0.1"}

// withBase points a provider endpoint variable at url for the test's duration.
func withBase(t *testing.T, base *string, url string) {
	t.Helper()
	old := *base
	*base = url
	t.Cleanup(func() { *base = old })
}

// --- SerpAPI ---

func TestSerpAPISearch(t *testing.T) {
	var got *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		fmt.Fprint(w, `{"organic_results":[
			{"position":1,"title":"Go","link":"https://go.dev/","snippet":"The Go language","displayed_link":"go.dev","date":"Jan 2, 2025"},
			{"position":2,"title":"No link"},
			{"position":3,"title":"Tour","link":"https://go.dev/tour","snippet":"A tour"}
		]}`)
	}))
	defer ts.Close()
	withBase(t, &serpAPIBase, ts.URL)

	p := &SerpAPIProvider{Client: ts.Client(), APIKey: "serp-key", HTTP: testHTTP, Logger: zap.NewNop()}
	results, err := p.Search(context.Background(), "golang", types.SearchOptions{})
	require.NoError(t, err)

	q := got.URL.Query()
	assert.Equal(t, "golang", q.Get("q"))
	assert.Equal(t, "serp-key", q.Get("api_key"))
	assert.Equal(t, "google", q.Get("engine"))
	assert.Equal(t, "10", q.Get("num"))
	assert.Equal(t, "us", q.Get("gl"))
	assert.Equal(t, "en", q.Get("hl"))
	assert.Equal(t, "deep-research-test/0.1", got.Header.Get("User-Agent"))

	require.Len(t, results, 2)
	first := results[0]
	assert.Equal(t, "https://go.dev/", first.URL)
	assert.Equal(t, "The Go language", first.Snippet)
	assert.Equal(t, "go.dev", first.DisplayedLink)
	assert.Equal(t, "Jan 2, 2025", first.Date)
	assert.Equal(t, types.SourceSerpAPI, first.Source)
	require.NotNil(t, first.Position)
	assert.Equal(t, 1, *first.Position)
	assert.Equal(t, 3, *results[1].Position)
}

func TestSerpAPISearch_Options(t *testing.T) {
	var got *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		fmt.Fprint(w, `{}`)
	}))
	defer ts.Close()
	withBase(t, &serpAPIBase, ts.URL)

	p := &SerpAPIProvider{Client: ts.Client(), APIKey: "k", HTTP: testHTTP}
	results, err := p.Search(context.Background(), "q", types.SearchOptions{NumResults: 25, Country: "de", Language: "de"})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, "25", got.URL.Query().Get("num"))
	assert.Equal(t, "de", got.URL.Query().Get("gl"))
}

// --- Tavily ---

func TestTavilySearch(t *testing.T) {
	var body tavilyRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		fmt.Fprint(w, `{"answer":"Short answer.","results":[
			{"title":"One","url":"https://one.example","content":"first","score":0.91,"published_date":"2025-05-01"},
			{"title":"Two","url":"https://two.example","content":"second","score":0.5}
		]}`)
	}))
	defer ts.Close()
	withBase(t, &tavilyAPIBase, ts.URL)

	p := &TavilyProvider{Client: ts.Client(), APIKey: "tv-key", HTTP: testHTTP}
	results, err := p.Search(context.Background(), "fusion power", types.SearchOptions{IncludeDomains: []string{"iter.org"}})
	require.NoError(t, err)

	assert.Equal(t, "tv-key", body.APIKey)
	assert.Equal(t, "fusion power 2024 OR 2025", body.Query)
	assert.Equal(t, "advanced", body.SearchDepth)
	assert.Equal(t, 20, body.MaxResults)
	assert.True(t, body.IncludeAnswer)
	assert.False(t, body.IncludeRawContent)
	assert.False(t, body.IncludeImages)
	assert.Equal(t, []string{"iter.org"}, body.IncludeDomains)

	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].Snippet)
	assert.Equal(t, 1, *results[0].Position)
	assert.Equal(t, 2, *results[1].Position)
	assert.InDelta(t, 0.91, *results[0].Score, 1e-9)
	assert.Equal(t, "2025-05-01", results[0].PublishedDate)
	for _, r := range results {
		assert.Equal(t, "Short answer.", r.Answer)
		assert.Equal(t, types.SourceTavily, r.Source)
	}
}

func TestTavilySearch_RecentDisabled(t *testing.T) {
	var body tavilyRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		fmt.Fprint(w, `{"results":[]}`)
	}))
	defer ts.Close()
	withBase(t, &tavilyAPIBase, ts.URL)

	p := &TavilyProvider{Client: ts.Client(), APIKey: "k", MaxResults: 7, HTTP: testHTTP}
	_, err := p.Search(context.Background(), "fusion power", types.SearchOptions{IncludeRecent: types.Bool(false), SearchDepth: "basic"})
	require.NoError(t, err)
	assert.Equal(t, "fusion power", body.Query)
	assert.Equal(t, "basic", body.SearchDepth)
	assert.Equal(t, 7, body.MaxResults)
	assert.Nil(t, body.IncludeDomains)
}

// --- Azure Bing ---

func TestBingSearch(t *testing.T) {
	var got *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		fmt.Fprint(w, `{"webPages":{"value":[
			{"name":"Page A","url":"https://a.example/","snippet":"aaa","displayUrl":"a.example","dateLastCrawled":"2025-05-30T08:00:00.0000000Z"},
			{"name":"Page B","url":"https://b.example/","snippet":"bbb"}
		]}}`)
	}))
	defer ts.Close()
	withBase(t, &bingAPIBase, ts.URL)

	p := &BingProvider{Client: ts.Client(), APIKey: "bing-key", HTTP: testHTTP}
	results, err := p.Search(context.Background(), "heat pumps", types.SearchOptions{})
	require.NoError(t, err)

	assert.Equal(t, "bing-key", got.Header.Get("Ocp-Apim-Subscription-Key"))
	q := got.URL.Query()
	assert.Equal(t, "heat pumps", q.Get("q"))
	assert.Equal(t, "20", q.Get("count"))
	assert.Equal(t, "0", q.Get("offset"))
	assert.Equal(t, "en-US", q.Get("mkt"))
	assert.Equal(t, "Moderate", q.Get("safeSearch"))
	assert.Equal(t, "Month", q.Get("freshness"))

	require.Len(t, results, 2)
	assert.Equal(t, "Page A", results[0].Title)
	assert.Equal(t, "a.example", results[0].DisplayedLink)
	assert.Equal(t, "2025-05-30T08:00:00.0000000Z", results[0].Date)
	assert.Equal(t, 2, *results[1].Position)
	assert.Equal(t, types.SourceAzureBing, results[1].Source)
}

func TestBingSearch_Freshness(t *testing.T) {
	var got *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		fmt.Fprint(w, `{}`)
	}))
	defer ts.Close()
	withBase(t, &bingAPIBase, ts.URL)

	p := &BingProvider{Client: ts.Client(), APIKey: "k", HTTP: testHTTP}
	_, err := p.Search(context.Background(), "q", types.SearchOptions{Freshness: "Week", Market: "en-GB", SafeSearch: "Strict"})
	require.NoError(t, err)
	assert.Equal(t, "Week", got.URL.Query().Get("freshness"))
	assert.Equal(t, "en-GB", got.URL.Query().Get("mkt"))
	assert.Equal(t, "Strict", got.URL.Query().Get("safeSearch"))
}

// --- Semantic Scholar ---

func TestSemanticScholarSearch(t *testing.T) {
	var got *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		fmt.Fprint(w, `{"total":3,"offset":0,"data":[
			{"paperId":"abc","title":"Attention Is All You Need","abstract":"Transformers.","url":"https://www.semanticscholar.org/paper/abc",
			 "year":2017,"venue":"NeurIPS","citationCount":90000,"publicationDate":"2017-06-12",
			 "authors":[{"name":"Ashish Vaswani"},{"name":"Noam Shazeer"}]},
			{"paperId":"def","title":"No URL","abstract":null,"authors":[]},
			{"title":"Nothing to link"}
		]}`)
	}))
	defer ts.Close()
	withBase(t, &semanticAPIBase, ts.URL)

	p := &SemanticScholarProvider{Client: ts.Client(), APIKey: "s2-key", HTTP: testHTTP}
	results, err := p.Search(context.Background(), "attention", types.SearchOptions{NumResults: 500})
	require.NoError(t, err)

	assert.Equal(t, "s2-key", got.Header.Get("x-api-key"))
	q := got.URL.Query()
	assert.Equal(t, "attention", q.Get("query"))
	assert.Equal(t, "100", q.Get("limit"))
	assert.Equal(t, semanticFields, q.Get("fields"))

	require.Len(t, results, 2)
	first := results[0]
	assert.Equal(t, "Ashish Vaswani, Noam Shazeer", first.Authors)
	assert.Equal(t, types.TypeAcademicPaper, first.Type)
	assert.Equal(t, 2017, first.Year)
	assert.Equal(t, "NeurIPS", first.Venue)
	assert.Equal(t, "2017-06-12", first.PublishedDate)
	require.NotNil(t, first.Citations)
	assert.Equal(t, 90000, *first.Citations)

	second := results[1]
	assert.Equal(t, "https://www.semanticscholar.org/paper/def", second.URL)
	assert.Equal(t, "No abstract available", second.Snippet)
	assert.Equal(t, "Unknown", second.Authors)
	assert.Nil(t, second.Citations)
}

func TestSemanticScholarSearch_Keyless(t *testing.T) {
	var got *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer ts.Close()
	withBase(t, &semanticAPIBase, ts.URL)

	p := &SemanticScholarProvider{Client: ts.Client(), HTTP: testHTTP}
	_, err := p.Search(context.Background(), "x", types.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, got.Header.Get("x-api-key"))
	assert.Equal(t, "10", got.URL.Query().Get("limit"))
}

// --- CrossRef ---

func TestCrossRefSearch(t *testing.T) {
	var got *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		fmt.Fprint(w, `{"status":"ok","message":{"items":[
			{"DOI":"10.1000/xyz","URL":"https://doi.org/10.1000/xyz","title":["Deep Learning"],
			 "abstract":"<jats:p>Learning   representations.</jats:p>","publisher":"Nature",
			 "is-referenced-by-count":42,"created":{"date-time":"2015-05-27T00:00:00Z"},
			 "author":[{"given":"Yann","family":"LeCun"},{"given":"Yoshua","family":"Bengio"}]},
			{"DOI":"10.1000/abc","subtitle":["A subtitle"]},
			{"title":["Unreachable"]}
		]}}`)
	}))
	defer ts.Close()
	withBase(t, &crossrefAPIBase, ts.URL)

	p := &CrossRefProvider{Client: ts.Client(), Email: "me@example.org", HTTP: testHTTP}
	results, err := p.Search(context.Background(), "deep learning", types.SearchOptions{})
	require.NoError(t, err)

	q := got.URL.Query()
	assert.Equal(t, "deep learning", q.Get("query"))
	assert.Equal(t, "10", q.Get("rows"))
	assert.Equal(t, "me@example.org", q.Get("mailto"))

	require.Len(t, results, 2)
	first := results[0]
	assert.Equal(t, "Deep Learning", first.Title)
	assert.Equal(t, "Learning representations.", first.Snippet)
	assert.Equal(t, "Yann LeCun, Yoshua Bengio", first.Authors)
	assert.Equal(t, "Nature", first.Publisher)
	assert.Equal(t, "10.1000/xyz", first.DOI)
	assert.Equal(t, "2015-05-27T00:00:00Z", first.PublishedDate)
	assert.Equal(t, types.TypeScholarlyArticle, first.Type)
	assert.Equal(t, 42, *first.Citations)

	second := results[1]
	assert.Equal(t, "https://doi.org/10.1000/abc", second.URL)
	assert.Equal(t, "Untitled", second.Title)
	assert.Equal(t, "A subtitle", second.Snippet)
}

func TestCrossRefSearch_RequiresEmail(t *testing.T) {
	p := &CrossRefProvider{HTTP: testHTTP}
	_, err := p.Search(context.Background(), "x", types.SearchOptions{})
	assert.Error(t, err)
}

// --- arXiv ---

const arxivFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2301.07041v2</id>
    <published>2023-01-17T18:00:00Z</published>
    <title>Quantum   Error
      Correction</title>
    <summary>  We study
      surface codes.  </summary>
    <author><name>Alice Smith</name></author>
    <author><name>Bob Jones</name></author>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2301.00000v1</id>
    <title></title>
  </entry>
</feed>`

func TestArxivSearch(t *testing.T) {
	var got *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprint(w, arxivFeedXML)
	}))
	defer ts.Close()
	withBase(t, &arxivAPIBase, ts.URL)

	p := &ArxivProvider{Client: ts.Client(), HTTP: testHTTP}
	results, err := p.Search(context.Background(), "quantum computing", types.SearchOptions{NumResults: 5})
	require.NoError(t, err)

	q := got.URL.Query()
	assert.Equal(t, "all:quantum computing", q.Get("search_query"))
	assert.Equal(t, "0", q.Get("start"))
	assert.Equal(t, "5", q.Get("max_results"))
	assert.Equal(t, "relevance", q.Get("sortBy"))
	assert.Equal(t, "descending", q.Get("sortOrder"))

	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, "Quantum Error Correction", r.Title)
	assert.Equal(t, "We study surface codes.", r.Snippet)
	assert.Equal(t, "http://arxiv.org/abs/2301.07041v2", r.URL)
	assert.Equal(t, "Alice Smith, Bob Jones", r.Authors)
	assert.Equal(t, "2023-01-17T18:00:00Z", r.PublishedDate)
	assert.Equal(t, types.TypeScientificPreprint, r.Type)
	assert.Equal(t, types.SourceArxiv, r.Source)
}

// --- shared failure handling ---

func TestProviders_HTTPErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"secret upstream detail"}`, http.StatusInternalServerError)
	}))
	defer ts.Close()
	for _, base := range []*string{&serpAPIBase, &tavilyAPIBase, &bingAPIBase, &semanticAPIBase, &crossrefAPIBase, &arxivAPIBase} {
		withBase(t, base, ts.URL)
	}

	providers := []Provider{
		&SerpAPIProvider{Client: ts.Client(), APIKey: "k", HTTP: testHTTP},
		&TavilyProvider{Client: ts.Client(), APIKey: "k", HTTP: testHTTP},
		&BingProvider{Client: ts.Client(), APIKey: "k", HTTP: testHTTP},
		&SemanticScholarProvider{Client: ts.Client(), HTTP: testHTTP},
		&CrossRefProvider{Client: ts.Client(), Email: "e@x.org", HTTP: testHTTP},
		&ArxivProvider{Client: ts.Client(), HTTP: testHTTP},
	}
	for _, p := range providers {
		t.Run(string(p.Name()), func(t *testing.T) {
			results, err := p.Search(context.Background(), "q", types.SearchOptions{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "HTTP 500")
			assert.NotContains(t, err.Error(), "secret upstream detail")
			assert.Nil(t, results)
		})
	}
}

func TestProviders_MalformedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{not json`)
	}))
	defer ts.Close()
	withBase(t, &serpAPIBase, ts.URL)
	withBase(t, &bingAPIBase, ts.URL)

	_, err := (&SerpAPIProvider{Client: ts.Client(), APIKey: "k", HTTP: testHTTP}).Search(context.Background(), "q", types.SearchOptions{})
	assert.Error(t, err)
	_, err = (&BingProvider{Client: ts.Client(), APIKey: "k", HTTP: testHTTP}).Search(context.Background(), "q", types.SearchOptions{})
	assert.Error(t, err)
}

// --- registry ---

func TestNewProviders(t *testing.T) {
	names := func(ps []Provider) []types.Source {
		out := make([]types.Source, len(ps))
		for i, p := range ps {
			out[i] = p.Name()
		}
		return out
	}

	none := NewProviders(types.SearchConfig{}, http.DefaultClient, zap.NewNop())
	assert.Equal(t, []types.Source{types.SourceSemanticScholar, types.SourceArxiv}, names(none))
	for _, p := range none {
		assert.True(t, p.Academic())
	}

	all := NewProviders(types.SearchConfig{Credentials: types.Credentials{
		SerpAPIKey:    "a",
		TavilyAPIKey:  "b",
		AzureBingKey:  "c",
		CrossRefEmail: "d@example.org",
	}}, http.DefaultClient, zap.NewNop())
	assert.Equal(t, []types.Source{
		types.SourceSerpAPI, types.SourceTavily, types.SourceAzureBing,
		types.SourceSemanticScholar, types.SourceCrossRef, types.SourceArxiv,
	}, names(all))
	for _, p := range all {
		assert.Equal(t, p.Name().Academic(), p.Academic(), p.Name())
	}
}

func TestStatus(t *testing.T) {
	st := Status(types.Credentials{TavilyAPIKey: "x"})
	require.Len(t, st, 6)

	configured := map[types.Source]bool{}
	for _, s := range st {
		configured[s.Name] = s.Configured
	}
	assert.Equal(t, map[types.Source]bool{
		types.SourceSerpAPI:         false,
		types.SourceTavily:          true,
		types.SourceAzureBing:       false,
		types.SourceSemanticScholar: true,
		types.SourceCrossRef:        false,
		types.SourceArxiv:           true,
	}, configured)
}
