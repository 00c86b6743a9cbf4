// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the deep-research pipeline.
// It covers search results and responses, extracted page content, persona
// analyses, the assembled research report, and stage configuration.
package types

// Source identifies the search provider that produced a result.
type Source string

const (
	SourceSerpAPI         Source = "serpapi"
	SourceTavily          Source = "tavily"
	SourceAzureBing       Source = "azure-bing"
	SourceSemanticScholar Source = "semantic-scholar"
	SourceCrossRef        Source = "crossref"
	SourceArxiv           Source = "arxiv"
)

// Academic reports whether the source indexes scholarly literature rather
// than the general web.
func (s Source) Academic() bool {
	switch s {
	case SourceSemanticScholar, SourceCrossRef, SourceArxiv:
		return true
	}
	return false
}

// Result types attached to academic hits.
const (
	TypeAcademicPaper      = "academic-paper"
	TypeScientificPreprint = "scientific-preprint"
	TypeScholarlyArticle   = "scholarly-article"
)

// SearchResult is one hit from one provider, normalized into the common shape
// shared by every adapter.
type SearchResult struct {
	// Title is the page or paper title as returned by the provider.
	Title string `json:"title" yaml:"title"`

	// URL is the canonical link. It is never empty for a kept result.
	URL string `json:"url" yaml:"url"`

	// Snippet is a human-readable excerpt (search snippet or abstract).
	Snippet string `json:"snippet" yaml:"snippet"`

	// Source is the adapter that produced this result.
	Source Source `json:"source" yaml:"source"`

	// Sources accumulates every adapter that independently returned this
	// URL. It is populated during deduplication.
	Sources []Source `json:"sources,omitempty" yaml:"sources,omitempty"`

	// Position is the 1-based rank reported by the origin provider.
	Position *int `json:"position,omitempty" yaml:"position,omitempty"`

	// Score is the provider-native relevance score, when the provider has one.
	Score *float64 `json:"score,omitempty" yaml:"score,omitempty"`

	// Date is a provider date string (search engine date or crawl date).
	Date string `json:"date,omitempty" yaml:"date,omitempty"`

	// PublishedDate is the publication date, when known.
	PublishedDate string `json:"publishedDate,omitempty" yaml:"published_date,omitempty"`

	// RelevanceScore is computed by the ranking step after deduplication.
	RelevanceScore float64 `json:"relevanceScore" yaml:"relevance_score"`

	// Answer is a provider-generated answer shared by a whole result batch.
	Answer string `json:"aiAnswer,omitempty" yaml:"answer,omitempty"`

	// DisplayedLink is the link text shown by the search engine.
	DisplayedLink string `json:"displayedLink,omitempty" yaml:"displayed_link,omitempty"`

	Type      string `json:"type,omitempty" yaml:"type,omitempty"`
	Citations *int   `json:"citations,omitempty" yaml:"citations,omitempty"`
	Authors   string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Venue     string `json:"venue,omitempty" yaml:"venue,omitempty"`
	DOI       string `json:"doi,omitempty" yaml:"doi,omitempty"`
	Year      int    `json:"year,omitempty" yaml:"year,omitempty"`
	Publisher string `json:"publisher,omitempty" yaml:"publisher,omitempty"`
}

// SearchOptions controls a single orchestrator invocation. Nil booleans mean
// the option takes its default (enabled).
type SearchOptions struct {
	// MaxResults caps the merged, ranked result list.
	MaxResults int `json:"maxResults,omitempty" yaml:"max_results,omitempty"`

	// NumResults is the per-provider request size.
	NumResults int `json:"numResults,omitempty" yaml:"num_results,omitempty"`

	// SearchDepth is passed to providers that support it ("basic", "advanced").
	SearchDepth string `json:"searchDepth,omitempty" yaml:"search_depth,omitempty"`

	IncludeAcademic *bool `json:"includeAcademic,omitempty" yaml:"include_academic,omitempty"`
	DecomposeQuery  *bool `json:"decomposeQuery,omitempty" yaml:"decompose_query,omitempty"`

	// IncludeRecent biases the AI-optimized provider toward recent content.
	IncludeRecent *bool `json:"includeRecent,omitempty" yaml:"include_recent,omitempty"`

	// Freshness is a true date filter for providers that support it
	// ("Day", "Week", "Month").
	Freshness string `json:"freshness,omitempty" yaml:"freshness,omitempty"`

	Country    string `json:"country,omitempty" yaml:"country,omitempty"`
	Language   string `json:"language,omitempty" yaml:"language,omitempty"`
	Market     string `json:"market,omitempty" yaml:"market,omitempty"`
	SafeSearch string `json:"safeSearch,omitempty" yaml:"safe_search,omitempty"`

	// IncludeDomains restricts providers that support it to these domains.
	IncludeDomains []string `json:"includeDomains,omitempty" yaml:"include_domains,omitempty"`
}

// Enabled returns the value of an optional boolean option, treating nil as true.
func Enabled(b *bool) bool {
	return b == nil || *b
}

// Bool returns a pointer to b, for filling optional boolean options.
func Bool(b bool) *bool {
	return &b
}

// SearchStats summarizes one orchestrator run.
type SearchStats struct {
	// TotalSources is the number of raw results collected before dedup.
	TotalSources int `json:"totalSources" yaml:"total_sources"`

	AfterDeduplication int `json:"afterDeduplication" yaml:"after_deduplication"`
	FinalResults       int `json:"finalResults" yaml:"final_results"`

	// Duration is the elapsed wall-clock time in milliseconds.
	Duration int64  `json:"duration" yaml:"duration"`
	Query    string `json:"query" yaml:"query"`

	// Tasks is the number of (sub-query, provider) calls issued.
	Tasks       int `json:"tasks" yaml:"tasks"`
	FailedTasks int `json:"failedTasks" yaml:"failed_tasks"`
}

// SearchResponse is the immutable output of one orchestrator run.
type SearchResponse struct {
	Results []SearchResult `json:"results" yaml:"results"`
	Stats   SearchStats    `json:"stats" yaml:"stats"`
}
