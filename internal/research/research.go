// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research runs the deep research pipeline: a wide multi-source
// search, page extraction over the top results, consortium analysis and
// report assembly. Each phase is timed; any phase error aborts the run.
package research

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/internal/analyze"
	"github.com/pdiddy/deep-research/internal/extract"
	"github.com/pdiddy/deep-research/internal/logging"
	"github.com/pdiddy/deep-research/internal/metrics"
	"github.com/pdiddy/deep-research/pkg/types"
)

// Defaults for a deep research run.
const (
	DefaultMaxResults   = 30
	DefaultExtractCount = 10
	DefaultMaxChunks    = 50

	// ResearchType labels reports produced by this pipeline.
	ResearchType = "deep-multi-agent"

	// NoResultsMessage is set on the minimal report of a search that found nothing.
	NoResultsMessage = "No search results found"

	reportResultLimit = 20
	reportSourceLimit = 10
)

// Phase labels used in ReportStats.Phases.
const (
	PhaseSearch   = "Phase 1: Multi-Source Search"
	PhaseExtract  = "Phase 2: Content Extraction"
	PhaseAnalysis = "Phase 3: Consortium Analysis"
	PhaseReport   = "Phase 4: Report Generation"
)

// Searcher is the search stage; *search.Orchestrator satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string, opts types.SearchOptions) (types.SearchResponse, error)
}

// modelNamer is implemented by analyzers that can report the model a run uses.
type modelNamer interface {
	Model(override string) string
}

// RunOptions are the per-request knobs of a deep research run. Zero values
// take the package defaults.
type RunOptions struct {
	MaxResults      int      `json:"maxResults,omitempty"`
	IncludeAcademic *bool    `json:"includeAcademic,omitempty"`
	DecomposeQuery  *bool    `json:"decomposeQuery,omitempty"`
	Personas        []string `json:"personas,omitempty"`
	Model           string   `json:"model,omitempty"`
	ExtractCount    int      `json:"extractCount,omitempty"`
	MaxChunks       int      `json:"maxChunks,omitempty"`
}

// Pipeline sequences search, extraction, analysis and report assembly.
type Pipeline struct {
	searcher  Searcher
	extractor extract.Extractor
	analyzer  analyze.Analyzer
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock sets the time source used for timing and timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithIDGenerator sets the report ID generator.
func WithIDGenerator(f func() string) Option {
	return func(p *Pipeline) { p.newID = f }
}

// New creates a pipeline over the three stages.
func New(s Searcher, e extract.Extractor, a analyze.Analyzer, logger *zap.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		searcher:  s,
		extractor: e,
		analyzer:  a,
		logger:    logging.OrNop(logger),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run executes one deep research request. A search with no results yields
// a minimal report carrying only the query, a message and the total
// duration. Errors from any phase are returned with a stack trace attached.
func (p *Pipeline) Run(ctx context.Context, query string, opts RunOptions) (*types.ResearchReport, error) {
	start := p.now()
	maxResults := intOr(opts.MaxResults, DefaultMaxResults)
	searchOpts := types.SearchOptions{
		MaxResults:      maxResults,
		SearchDepth:     "advanced",
		IncludeAcademic: types.Bool(types.Enabled(opts.IncludeAcademic)),
		DecomposeQuery:  types.Bool(types.Enabled(opts.DecomposeQuery)),
		Freshness:       "Month",
	}
	p.logger.Info("deep research started",
		zap.String("query", query),
		zap.Int("max_results", maxResults))

	// Phase 1.
	phaseStart := p.now()
	resp, err := p.searcher.Search(ctx, query, searchOpts)
	if err != nil {
		return nil, phaseError("search", err)
	}
	searchDur := p.since(phaseStart)
	metrics.ObservePhase("search", searchDur)
	p.logger.Info("search phase complete",
		zap.Int("results", len(resp.Results)),
		zap.Duration("elapsed", searchDur))

	if len(resp.Results) == 0 {
		return &types.ResearchReport{
			Query:     query,
			Timestamp: p.now(),
			Message:   NoResultsMessage,
			Stats:     types.ReportStats{TotalDuration: p.since(start).Milliseconds()},
		}, nil
	}

	// Phase 2.
	phaseStart = p.now()
	extractCount := intOr(opts.ExtractCount, DefaultExtractCount)
	targets := resp.Results
	if len(targets) > extractCount {
		targets = targets[:extractCount]
	}
	contents, err := p.extractor.Extract(ctx, targets)
	if err != nil {
		return nil, phaseError("extraction", err)
	}
	chunks := p.extractor.Chunk(contents, intOr(opts.MaxChunks, DefaultMaxChunks))
	extractDur := p.since(phaseStart)
	metrics.ObservePhase("extract", extractDur)
	p.logger.Info("extraction phase complete",
		zap.Int("urls", len(contents)),
		zap.Int("chunks", len(chunks)),
		zap.Duration("elapsed", extractDur))

	// Phase 3.
	phaseStart = p.now()
	analysis, err := p.analyzer.Analyze(ctx, analyze.Request{
		Query:    query,
		Contents: contents,
		Chunks:   chunks,
		Personas: opts.Personas,
		Model:    opts.Model,
	})
	if err != nil {
		return nil, phaseError("analysis", err)
	}
	analysisDur := p.since(phaseStart)
	metrics.ObservePhase("analysis", analysisDur)
	p.logger.Info("analysis phase complete",
		zap.Int("analyses", len(analysis.Analyses)),
		zap.Duration("elapsed", analysisDur))

	// Phase 4.
	phaseStart = p.now()
	report := &types.ResearchReport{
		ID:                 p.newID(),
		Query:              query,
		Timestamp:          p.now(),
		SearchResults:      summarizeSearch(resp),
		ContentAnalysis:    summarizeContent(contents, chunks),
		ConsortiumAnalysis: summarizeConsortium(analysis),
		Metadata: &types.ReportMetadata{
			ResearchType:            ResearchType,
			IncludesAcademicSources: *searchOpts.IncludeAcademic,
			AIModel:                 p.modelFor(opts.Model),
		},
	}
	reportDur := p.since(phaseStart)
	metrics.ObservePhase("report", reportDur)

	total := p.since(start)
	report.Metadata.CompletedAt = p.now()
	report.Stats = types.ReportStats{
		TotalDuration:    total.Milliseconds(),
		SearchDuration:   searchDur.Milliseconds(),
		ExtractDuration:  extractDur.Milliseconds(),
		AnalysisDuration: analysisDur.Milliseconds(),
		Phases: map[string]string{
			PhaseSearch:   formatMillis(searchDur),
			PhaseExtract:  formatMillis(extractDur),
			PhaseAnalysis: formatMillis(analysisDur),
			PhaseReport:   formatMillis(reportDur),
		},
	}
	p.logger.Info("deep research complete",
		zap.String("id", report.ID),
		zap.Duration("elapsed", total))
	return report, nil
}

func (p *Pipeline) since(t time.Time) time.Duration {
	return p.now().Sub(t)
}

func (p *Pipeline) modelFor(override string) string {
	if m, ok := p.analyzer.(modelNamer); ok {
		return m.Model(override)
	}
	if override != "" {
		return override
	}
	return analyze.DefaultModel
}

func summarizeSearch(resp types.SearchResponse) *types.SearchSummary {
	seen := make(map[types.Source]bool)
	var sources []types.Source
	for _, r := range resp.Results {
		if !seen[r.Source] {
			seen[r.Source] = true
			sources = append(sources, r.Source)
		}
	}
	top := resp.Results
	if len(top) > reportResultLimit {
		top = top[:reportResultLimit]
	}
	return &types.SearchSummary{
		Count:   len(resp.Results),
		Sources: sources,
		Results: top,
		Stats:   resp.Stats,
	}
}

func summarizeContent(contents []types.ExtractedContent, chunks []types.Chunk) *types.ContentSummary {
	top := make([]types.SourceSummary, 0, min(len(contents), reportSourceLimit))
	for i, c := range contents {
		if i == reportSourceLimit {
			break
		}
		top = append(top, types.SourceSummary{URL: c.URL, Title: c.Title, ContentLength: len(c.Content)})
	}
	return &types.ContentSummary{
		URLsExtracted: len(contents),
		TotalChunks:   len(chunks),
		TopSources:    top,
	}
}

func summarizeConsortium(a types.AnalysisResult) *types.ConsortiumSummary {
	return &types.ConsortiumSummary{
		PersonasInvolved: answered(a.Analyses),
		Analyses:         a.Analyses,
		Synthesis:        a.Synthesis,
		Insights:         ExtractInsights(a.Analyses),
	}
}

// answered counts the personas that returned an analysis.
func answered(analyses []types.PersonaAnalysis) int {
	n := 0
	for _, a := range analyses {
		if a.Error == "" {
			n++
		}
	}
	return n
}

func formatMillis(d time.Duration) string {
	return fmt.Sprintf("%dms", d.Milliseconds())
}

func intOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
