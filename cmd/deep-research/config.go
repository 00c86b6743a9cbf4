// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/deep-research/internal/secrets"
	"github.com/pdiddy/deep-research/pkg/types"
)

const defaultUserAgent = "deep-research/0.1"

// envKeyReplacer maps nested keys like server.port to DEEP_RESEARCH_SERVER_PORT.
var envKeyReplacer = strings.NewReplacer(".", "_")

func setDefaults(v *viper.Viper) {
	v.SetDefault("search.timeout", 30*time.Second)
	v.SetDefault("search.user_agent", defaultUserAgent)
	v.SetDefault("search.max_results", 10)
	v.SetDefault("search.academic_rate", 1.0)

	v.SetDefault("extraction.timeout", 20*time.Second)
	v.SetDefault("extraction.max_urls", 10)
	v.SetDefault("extraction.chunk_size", 4000)
	v.SetDefault("extraction.overlap", 200)
	v.SetDefault("extraction.max_chunks", 50)
	v.SetDefault("extraction.workers", 4)

	v.SetDefault("analysis.max_retries", 3)
	v.SetDefault("analysis.max_tokens", 2048)
	v.SetDefault("analysis.concurrency", 4)
	v.SetDefault("analysis.chunks_per_persona", 12)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout", 30*time.Minute)

	v.SetDefault("archive.dir", "archive")
}

// pipelineConfig assembles the stage configuration from v. Credentials set
// in config win over the secrets directory, which wins over the
// environment.
func pipelineConfig(v *viper.Viper, secretFiles map[string]string) types.PipelineConfig {
	creds := secrets.Resolve(types.Credentials{
		SerpAPIKey:         v.GetString("credentials.serpapi_key"),
		TavilyAPIKey:       v.GetString("credentials.tavily_api_key"),
		AzureBingKey:       v.GetString("credentials.azure_bing_key"),
		SemanticScholarKey: v.GetString("credentials.semantic_scholar_key"),
		CrossRefEmail:      v.GetString("credentials.crossref_email"),
		AnthropicAPIKey:    v.GetString("credentials.anthropic_api_key"),
		OpenAIAPIKey:       v.GetString("credentials.openai_api_key"),
	}, secretFiles, nil)

	userAgent := v.GetString("search.user_agent")
	return types.PipelineConfig{
		Search: types.SearchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   v.GetDuration("search.timeout"),
				UserAgent: userAgent,
			},
			Credentials:  creds,
			MaxResults:   v.GetInt("search.max_results"),
			AcademicRate: v.GetFloat64("search.academic_rate"),
		},
		Extraction: types.ExtractionConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   v.GetDuration("extraction.timeout"),
				UserAgent: userAgent,
			},
			MaxURLs:      v.GetInt("extraction.max_urls"),
			ChunkSize:    v.GetInt("extraction.chunk_size"),
			Overlap:      v.GetInt("extraction.overlap"),
			MaxChunks:    v.GetInt("extraction.max_chunks"),
			Workers:      v.GetInt("extraction.workers"),
			MaxBodyBytes: v.GetInt64("extraction.max_body_bytes"),
		},
		Analysis: types.AnalysisConfig{
			AIConfig: types.AIConfig{
				Model:      v.GetString("analysis.model"),
				MaxRetries: v.GetInt("analysis.max_retries"),
				MaxTokens:  v.GetInt("analysis.max_tokens"),
			},
			Personas:         v.GetStringSlice("analysis.personas"),
			Concurrency:      v.GetInt("analysis.concurrency"),
			ChunksPerPersona: v.GetInt("analysis.chunks_per_persona"),
		},
		Server: types.ServerConfig{
			Host:           v.GetString("server.host"),
			Port:           v.GetInt("server.port"),
			Production:     v.GetBool("server.production") || isProduction(v.GetString("environment")),
			RequestTimeout: v.GetDuration("server.request_timeout"),
		},
		Archive: types.ArchiveConfig{
			Dir: v.GetString("archive.dir"),
		},
	}
}

func isProduction(env string) bool {
	return strings.EqualFold(strings.TrimSpace(env), "production")
}

// newHTTPClient returns the client shared by the search and extraction stages.
// Stages apply their own per-request timeouts.
func newHTTPClient() *http.Client {
	return &http.Client{}
}
