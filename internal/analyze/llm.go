// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"context"
	"errors"
	"strings"

	"github.com/pdiddy/deep-research/pkg/types"
)

// DefaultModel is used when neither the request nor the config names one.
const DefaultModel = "claude-sonnet-4-5-20250929"

// defaultOpenAIModel replaces Claude model names when only an OpenAI key exists.
const defaultOpenAIModel = "gpt-4o"

// DefaultMaxTokens bounds each completion when the config leaves it unset.
const DefaultMaxTokens = 2048

// ErrNoLLM is returned when no LLM provider key is configured.
var ErrNoLLM = errors.New("no LLM API key configured (set ANTHROPIC_API_KEY or OPENAI_API_KEY)")

// Completion is one single-turn request to a language model.
type Completion struct {
	Model     string
	System    string
	Prompt    string
	MaxTokens int
}

// LLMClient sends single-turn completions to a language model provider.
type LLMClient interface {
	Complete(ctx context.Context, c Completion) (string, error)

	// ResolveModel maps a requested model name (possibly empty) to one the
	// provider accepts.
	ResolveModel(model string) string
}

// NewLLMClient picks Anthropic when its key is set, then OpenAI.
func NewLLMClient(creds types.Credentials) (LLMClient, error) {
	switch {
	case creds.AnthropicAPIKey != "":
		return NewAnthropicClient(creds.AnthropicAPIKey), nil
	case creds.OpenAIAPIKey != "":
		return NewOpenAIClient(creds.OpenAIAPIKey), nil
	default:
		return nil, ErrNoLLM
	}
}

func isClaudeModel(model string) bool {
	return strings.HasPrefix(strings.ToLower(model), "claude")
}
