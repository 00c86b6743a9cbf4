// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/pkg/types"
)

// --- mock provider ---

type mockProvider struct {
	name     types.Source
	academic bool
	results  []types.SearchResult
	err      error
	panics   bool

	mu      sync.Mutex
	queries []string
}

func (m *mockProvider) Name() types.Source { return m.name }
func (m *mockProvider) Academic() bool     { return m.academic }

func (m *mockProvider) Search(_ context.Context, query string, _ types.SearchOptions) ([]types.SearchResult, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()
	if m.panics {
		panic("provider exploded")
	}
	return m.results, m.err
}

func (m *mockProvider) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testOrchestrator(providers ...Provider) *Orchestrator {
	ps := make([]Provider, len(providers))
	copy(ps, providers)
	return NewOrchestrator(ps, types.SearchConfig{}, zap.NewNop(), WithClock(func() time.Time { return fixedNow }))
}

func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }
func result(src types.Source, url, title string) types.SearchResult {
	return types.SearchResult{Source: src, URL: url, Title: title}
}

// --- configuration errors ---

func TestSearch_NoProviders(t *testing.T) {
	_, err := testOrchestrator().Search(context.Background(), "anything", types.SearchOptions{})
	assert.ErrorIs(t, err, ErrNoProviders)
}

func TestSearch_AcademicOnlyWithAcademicDisabled(t *testing.T) {
	arxiv := &mockProvider{name: types.SourceArxiv, academic: true}
	o := testOrchestrator(arxiv)

	_, err := o.Search(context.Background(), "graph neural networks", types.SearchOptions{IncludeAcademic: types.Bool(false)})
	require.ErrorIs(t, err, ErrNoProviders)
	assert.Empty(t, arxiv.calls(), "no task may run on a configuration error")
}

// --- partial coverage ---

func TestSearch_AllProvidersFail(t *testing.T) {
	a := &mockProvider{name: types.SourceSerpAPI, err: errors.New("HTTP 500")}
	b := &mockProvider{name: types.SourceTavily, err: errors.New("timeout")}

	resp, err := testOrchestrator(a, b).Search(context.Background(), "anything at all", types.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, 0, resp.Stats.TotalSources)
	assert.Equal(t, 2, resp.Stats.Tasks)
	assert.Equal(t, 2, resp.Stats.FailedTasks)
}

func TestSearch_FailingProviderDoesNotHideOthers(t *testing.T) {
	good := &mockProvider{name: types.SourceSerpAPI, results: []types.SearchResult{
		result(types.SourceSerpAPI, "https://good.example/1", "Good one"),
	}}
	bad := &mockProvider{name: types.SourceTavily, err: errors.New("HTTP 401")}

	resp, err := testOrchestrator(good, bad).Search(context.Background(), "good", types.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "https://good.example/1", resp.Results[0].URL)
	assert.Equal(t, 1, resp.Stats.FailedTasks)
}

func TestSearch_ProviderPanicIsContained(t *testing.T) {
	good := &mockProvider{name: types.SourceSerpAPI, results: []types.SearchResult{
		result(types.SourceSerpAPI, "https://good.example/1", "Good one"),
	}}
	boom := &mockProvider{name: types.SourceAzureBing, panics: true}

	resp, err := testOrchestrator(good, boom).Search(context.Background(), "good", types.SearchOptions{})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)
	assert.Equal(t, 1, resp.Stats.FailedTasks)
}

// --- task construction ---

func TestSearch_DecomposedQueryFansOut(t *testing.T) {
	p := &mockProvider{name: types.SourceSerpAPI}
	o := testOrchestrator(p)

	resp, err := o.Search(context.Background(), "renewable energy policy, and carbon capture storage", types.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Stats.Tasks)
	assert.ElementsMatch(t, []string{"renewable energy policy", "carbon capture storage"}, p.calls())
}

func TestSearch_DecomposeDisabled(t *testing.T) {
	p := &mockProvider{name: types.SourceSerpAPI}
	o := testOrchestrator(p)
	query := "renewable energy policy, and carbon capture storage"

	_, err := o.Search(context.Background(), query, types.SearchOptions{DecomposeQuery: types.Bool(false)})
	require.NoError(t, err)
	assert.Equal(t, []string{query}, p.calls())
}

func TestSearch_AcademicExcluded(t *testing.T) {
	web := &mockProvider{name: types.SourceSerpAPI}
	paper := &mockProvider{name: types.SourceSemanticScholar, academic: true}

	resp, err := testOrchestrator(web, paper).Search(context.Background(), "topic", types.SearchOptions{IncludeAcademic: types.Bool(false)})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Stats.Tasks)
	assert.Len(t, web.calls(), 1)
	assert.Empty(t, paper.calls())
}

// --- merge, dedup, rank ---

func TestSearch_MachineLearningScenario(t *testing.T) {
	a := &mockProvider{name: types.SourceSerpAPI, results: []types.SearchResult{
		{Source: types.SourceSerpAPI, URL: "https://a.example/ml", Title: "Machine learning basics", Position: intPtr(1)},
	}}
	b := &mockProvider{name: types.SourceAzureBing, results: []types.SearchResult{
		{Source: types.SourceAzureBing, URL: "https://b.example/nn", Title: "Neural networks", Snippet: "a learning method", Position: intPtr(1)},
	}}

	resp, err := testOrchestrator(a, b).Search(context.Background(), "machine learning", types.SearchOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Stats.TotalSources)
	assert.Equal(t, 2, resp.Stats.AfterDeduplication)
	assert.Equal(t, 2, resp.Stats.FinalResults)
	assert.Equal(t, "machine learning", resp.Stats.Query)
	require.Len(t, resp.Results, 2)

	// 9 (position) + 5 + 5 (title terms) vs 9 + 2 (snippet term).
	assert.Equal(t, "https://a.example/ml", resp.Results[0].URL)
	assert.InDelta(t, 19, resp.Results[0].RelevanceScore, 1e-9)
	assert.Equal(t, "https://b.example/nn", resp.Results[1].URL)
	assert.InDelta(t, 11, resp.Results[1].RelevanceScore, 1e-9)
}

func TestSearch_CrossProviderDuplicate(t *testing.T) {
	a := &mockProvider{name: types.SourceSerpAPI, results: []types.SearchResult{
		result(types.SourceSerpAPI, "https://example.com/a", "Page"),
	}}
	b := &mockProvider{name: types.SourceTavily, results: []types.SearchResult{
		result(types.SourceTavily, "https://www.example.com/a/", "Page"),
	}}

	resp, err := testOrchestrator(a, b).Search(context.Background(), "zzz", types.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Stats.TotalSources)
	assert.Equal(t, 1, resp.Stats.AfterDeduplication)
	require.Len(t, resp.Results, 1)
	assert.ElementsMatch(t, []types.Source{types.SourceSerpAPI, types.SourceTavily}, resp.Results[0].Sources)
	assert.InDelta(t, corroborationBonus, resp.Results[0].RelevanceScore, 1e-9)
}

func TestSearch_Idempotent(t *testing.T) {
	var serp, tav []types.SearchResult
	for i := 0; i < 8; i++ {
		serp = append(serp, types.SearchResult{
			Source: types.SourceSerpAPI, URL: fmt.Sprintf("https://s.example/%d", i),
			Title: "rust async runtime", Position: intPtr(i + 1), Date: "2025-05-20",
		})
		tav = append(tav, types.SearchResult{
			Source: types.SourceTavily, URL: fmt.Sprintf("https://t.example/%d", i),
			Title: "async rust", Score: floatPtr(0.1 * float64(i)), Position: intPtr(i + 1),
		})
	}
	o := testOrchestrator(
		&mockProvider{name: types.SourceSerpAPI, results: serp},
		&mockProvider{name: types.SourceTavily, results: tav},
	)
	opts := types.SearchOptions{MaxResults: 16}

	first, err := o.Search(context.Background(), "rust async", opts)
	require.NoError(t, err)
	second, err := o.Search(context.Background(), "rust async", opts)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second, cmpopts.IgnoreFields(types.SearchStats{}, "Duration")); diff != "" {
		t.Errorf("repeated search differs (-first +second):\n%s", diff)
	}
}

func TestSearch_Truncation(t *testing.T) {
	var many []types.SearchResult
	for i := 0; i < 15; i++ {
		many = append(many, result(types.SourceSerpAPI, fmt.Sprintf("https://x.example/%d", i), "x"))
	}
	p := &mockProvider{name: types.SourceSerpAPI, results: many}

	tests := []struct {
		name   string
		cfgMax int
		optMax int
		want   int
	}{
		{"default", 0, 0, 10},
		{"config cap", 5, 0, 5},
		{"request cap wins", 5, 3, 3},
		{"cap above available", 0, 50, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOrchestrator([]Provider{p}, types.SearchConfig{MaxResults: tt.cfgMax}, zap.NewNop())
			resp, err := o.Search(context.Background(), "x", types.SearchOptions{MaxResults: tt.optMax})
			require.NoError(t, err)
			assert.Len(t, resp.Results, tt.want)
			assert.Equal(t, tt.want, resp.Stats.FinalResults)
			assert.Equal(t, 15, resp.Stats.AfterDeduplication)
		})
	}
}

func TestSearch_TiesKeepTaskOrder(t *testing.T) {
	a := &mockProvider{name: types.SourceSerpAPI, results: []types.SearchResult{result(types.SourceSerpAPI, "https://a.example/", "none")}}
	b := &mockProvider{name: types.SourceTavily, results: []types.SearchResult{result(types.SourceTavily, "https://b.example/", "none")}}
	c := &mockProvider{name: types.SourceAzureBing, results: []types.SearchResult{result(types.SourceAzureBing, "https://c.example/", "none")}}

	for i := 0; i < 5; i++ {
		resp, err := testOrchestrator(a, b, c).Search(context.Background(), "unmatched", types.SearchOptions{})
		require.NoError(t, err)
		require.Len(t, resp.Results, 3)
		assert.Equal(t, "https://a.example/", resp.Results[0].URL)
		assert.Equal(t, "https://b.example/", resp.Results[1].URL)
		assert.Equal(t, "https://c.example/", resp.Results[2].URL)
	}
}

func TestNew_BuildsRegistry(t *testing.T) {
	o := New(types.SearchConfig{}, nil, nil)
	names := make([]types.Source, 0, len(o.Providers()))
	for _, p := range o.Providers() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []types.Source{types.SourceSemanticScholar, types.SourceArxiv}, names)
}
