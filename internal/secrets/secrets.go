// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: serpapi-key, tavily-api-key, azure-bing-key,
// semantic-scholar-api-key, crossref-email, anthropic-api-key, openai-api-key.
// Each key falls back to a conventional environment variable.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/internal/logging"
	"github.com/pdiddy/deep-research/pkg/types"
)

// Key file names.
const (
	SerpAPIKey         = "serpapi-key"
	TavilyAPIKey       = "tavily-api-key"
	AzureBingKey       = "azure-bing-key"
	SemanticScholarKey = "semantic-scholar-api-key"
	CrossRefEmail      = "crossref-email"
	AnthropicAPIKey    = "anthropic-api-key"
	OpenAIAPIKey       = "openai-api-key"
)

// envFallback maps each key file to its environment variable.
var envFallback = map[string]string{
	SerpAPIKey:         "SERPAPI_KEY",
	TavilyAPIKey:       "TAVILY_API_KEY",
	AzureBingKey:       "AZURE_BING_SEARCH_KEY",
	SemanticScholarKey: "SEMANTIC_SCHOLAR_KEY",
	CrossRefEmail:      "CROSSREF_EMAIL",
	AnthropicAPIKey:    "ANTHROPIC_API_KEY",
	OpenAIAPIKey:       "OPENAI_API_KEY",
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string, logger *zap.Logger) (map[string]string, error) {
	logger = logging.OrNop(logger)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Resolve fills every empty field of base from the secrets map, then from
// the environment. Values already set in base win.
func Resolve(base types.Credentials, secrets map[string]string, getenv func(string) string) types.Credentials {
	if getenv == nil {
		getenv = os.Getenv
	}
	pick := func(current, key string) string {
		if current != "" {
			return current
		}
		if v := secrets[key]; v != "" {
			return v
		}
		return strings.TrimSpace(getenv(envFallback[key]))
	}

	return types.Credentials{
		SerpAPIKey:         pick(base.SerpAPIKey, SerpAPIKey),
		TavilyAPIKey:       pick(base.TavilyAPIKey, TavilyAPIKey),
		AzureBingKey:       pick(base.AzureBingKey, AzureBingKey),
		SemanticScholarKey: pick(base.SemanticScholarKey, SemanticScholarKey),
		CrossRefEmail:      pick(base.CrossRefEmail, CrossRefEmail),
		AnthropicAPIKey:    pick(base.AnthropicAPIKey, AnthropicAPIKey),
		OpenAIAPIKey:       pick(base.OpenAIAPIKey, OpenAIAPIKey),
	}
}
