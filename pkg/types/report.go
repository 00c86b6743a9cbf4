// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Persona is one member of the analysis consortium.
type Persona struct {
	// ID is the stable identifier used in requests (e.g. "strategist").
	ID string `json:"id" yaml:"id"`

	// Name is the display name.
	Name string `json:"name" yaml:"name"`

	// Focus describes what the persona looks for in the material.
	Focus string `json:"focus" yaml:"focus"`
}

// PersonaAnalysis is one persona's reading of the extracted material.
type PersonaAnalysis struct {
	Persona  string `json:"persona" yaml:"persona"`
	Name     string `json:"name" yaml:"name"`
	Focus    string `json:"focus" yaml:"focus"`
	Analysis string `json:"analysis" yaml:"analysis"`

	// Error is set when this persona's call failed; Analysis is then empty.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// Duration is the persona's call time in milliseconds.
	Duration int64 `json:"duration" yaml:"duration"`
}

// AnalysisResult is the consortium output consumed by report assembly.
type AnalysisResult struct {
	Analyses  []PersonaAnalysis `json:"analyses" yaml:"analyses"`
	Synthesis string            `json:"synthesis,omitempty" yaml:"synthesis,omitempty"`
}

// InsightRef points at a persona whose analysis used a given kind of language.
type InsightRef struct {
	Persona string `json:"persona" yaml:"persona"`
	Focus   string `json:"focus" yaml:"focus"`
}

// Insights groups personas by the kind of language found in their analyses.
type Insights struct {
	Strengths       []InsightRef `json:"strengths" yaml:"strengths"`
	Concerns        []InsightRef `json:"concerns" yaml:"concerns"`
	Opportunities   []InsightRef `json:"opportunities" yaml:"opportunities"`
	Recommendations []InsightRef `json:"recommendations" yaml:"recommendations"`
}

// SearchSummary is the search section of a research report.
type SearchSummary struct {
	Count   int            `json:"count" yaml:"count"`
	Sources []Source       `json:"sources" yaml:"sources"`
	Results []SearchResult `json:"results" yaml:"results"`
	Stats   SearchStats    `json:"stats" yaml:"stats"`
}

// SourceSummary describes one extracted page in the report.
type SourceSummary struct {
	URL           string `json:"url" yaml:"url"`
	Title         string `json:"title" yaml:"title"`
	ContentLength int    `json:"contentLength" yaml:"content_length"`
}

// ContentSummary is the extraction section of a research report.
type ContentSummary struct {
	URLsExtracted int             `json:"urlsExtracted" yaml:"urls_extracted"`
	TotalChunks   int             `json:"totalChunks" yaml:"total_chunks"`
	TopSources    []SourceSummary `json:"topSources" yaml:"top_sources"`
}

// ConsortiumSummary is the analysis section of a research report.
type ConsortiumSummary struct {
	// PersonasInvolved counts personas that returned an analysis. Failed
	// personas still appear in Analyses with Error set.
	PersonasInvolved int               `json:"personasInvolved" yaml:"personas_involved"`
	Analyses         []PersonaAnalysis `json:"analyses" yaml:"analyses"`
	Synthesis        string            `json:"synthesis,omitempty" yaml:"synthesis,omitempty"`
	Insights         Insights          `json:"insights" yaml:"insights"`
}

// ReportStats records per-phase timing, in milliseconds.
type ReportStats struct {
	TotalDuration    int64             `json:"totalDuration" yaml:"total_duration"`
	SearchDuration   int64             `json:"searchDuration,omitempty" yaml:"search_duration,omitempty"`
	ExtractDuration  int64             `json:"extractDuration,omitempty" yaml:"extract_duration,omitempty"`
	AnalysisDuration int64             `json:"analysisDuration,omitempty" yaml:"analysis_duration,omitempty"`
	Phases           map[string]string `json:"phases,omitempty" yaml:"phases,omitempty"`
}

// ReportMetadata describes how a report was produced.
type ReportMetadata struct {
	ResearchType            string    `json:"researchType" yaml:"research_type"`
	IncludesAcademicSources bool      `json:"includesAcademicSources" yaml:"includes_academic_sources"`
	AIModel                 string    `json:"aiModel" yaml:"ai_model"`
	CompletedAt             time.Time `json:"completedAt" yaml:"completed_at"`
}

// ResearchReport is the one-shot output of a deep research run. A report
// with no search results carries only Query, Message and Stats.
type ResearchReport struct {
	ID        string    `json:"id" yaml:"id"`
	Query     string    `json:"query" yaml:"query"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// Message explains a short-circuited report.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	SearchResults      *SearchSummary     `json:"searchResults,omitempty" yaml:"search_results,omitempty"`
	ContentAnalysis    *ContentSummary    `json:"contentAnalysis,omitempty" yaml:"content_analysis,omitempty"`
	ConsortiumAnalysis *ConsortiumSummary `json:"consortiumAnalysis,omitempty" yaml:"consortium_analysis,omitempty"`

	Stats    ReportStats     `json:"stats" yaml:"stats"`
	Metadata *ReportMetadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// ResultCount returns the number of search results the report was built from.
func (r *ResearchReport) ResultCount() int {
	if r.SearchResults == nil {
		return 0
	}
	return r.SearchResults.Count
}
