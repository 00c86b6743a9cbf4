// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout bounds a single outbound request.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "deep-research/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// Credentials holds provider keys. An empty field disables the provider that
// needs it; it never fails the process.
type Credentials struct {
	SerpAPIKey         string `json:"serpapi_key,omitempty" yaml:"serpapi_key,omitempty"`
	TavilyAPIKey       string `json:"tavily_api_key,omitempty" yaml:"tavily_api_key,omitempty"`
	AzureBingKey       string `json:"azure_bing_key,omitempty" yaml:"azure_bing_key,omitempty"`
	SemanticScholarKey string `json:"semantic_scholar_key,omitempty" yaml:"semantic_scholar_key,omitempty"`

	// CrossRefEmail is the contact address for the CrossRef polite pool.
	// Without it the CrossRef provider is disabled.
	CrossRefEmail string `json:"crossref_email,omitempty" yaml:"crossref_email,omitempty"`

	AnthropicAPIKey string `json:"anthropic_api_key,omitempty" yaml:"anthropic_api_key,omitempty"`
	OpenAIAPIKey    string `json:"openai_api_key,omitempty" yaml:"openai_api_key,omitempty"`
}

// SearchConfig holds settings for the search stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	Credentials Credentials `json:"credentials" yaml:"credentials"`

	// MaxResults is the default cap on ranked results (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// AcademicRate is the sustained request rate, per second, allowed
	// against each keyless academic API (default 1).
	AcademicRate float64 `json:"academic_rate" yaml:"academic_rate"`
}

// ExtractionConfig holds settings for the content extraction stage.
type ExtractionConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxURLs is the number of top-ranked results to fetch (default 10).
	MaxURLs int `json:"max_urls" yaml:"max_urls"`

	// ChunkSize is the chunk length in characters (default 4000).
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`

	// Overlap is the number of characters shared by adjacent chunks (default 200).
	Overlap int `json:"overlap" yaml:"overlap"`

	// MaxChunks caps the number of chunks handed to analysis (default 50).
	MaxChunks int `json:"max_chunks" yaml:"max_chunks"`

	// Workers bounds concurrent page fetches (default 4).
	Workers int `json:"workers" yaml:"workers"`

	// MaxBodyBytes caps how much of each page is read (default 2 MiB).
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// MaxTokens bounds each completion (default 2048).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`
}

// AnalysisConfig holds settings for the consortium analysis stage.
type AnalysisConfig struct {
	AIConfig `yaml:",inline"`

	// Personas is the default persona list when a request names none.
	Personas []string `json:"personas" yaml:"personas"`

	// Concurrency bounds simultaneous persona calls (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// ChunksPerPersona caps how many chunks go into one persona prompt (default 12).
	ChunksPerPersona int `json:"chunks_per_persona" yaml:"chunks_per_persona"`
}

// ServerConfig holds settings for the HTTP server.
type ServerConfig struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`

	// Production hides stack traces from error responses.
	Production bool `json:"production" yaml:"production"`

	// RequestTimeout bounds one deep-research request (default 30m).
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout"`
}

// ArchiveConfig holds settings for the report archive.
type ArchiveConfig struct {
	// Dir contains the archive database. Empty disables archiving.
	Dir string `json:"dir" yaml:"dir"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Search     SearchConfig     `json:"search" yaml:"search"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Analysis   AnalysisConfig   `json:"analysis" yaml:"analysis"`
	Server     ServerConfig     `json:"server" yaml:"server"`
	Archive    ArchiveConfig    `json:"archive" yaml:"archive"`
}
