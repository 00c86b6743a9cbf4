// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient calls the Anthropic Messages API.
type AnthropicClient struct {
	client anthropic.Client
}

// NewAnthropicClient builds a client for apiKey. Extra request options
// (base URL, retries) are passed through to the SDK.
func NewAnthropicClient(apiKey string, opts ...option.RequestOption) *AnthropicClient {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &AnthropicClient{client: anthropic.NewClient(opts...)}
}

// ResolveModel returns model, or DefaultModel when it is empty.
func (a *AnthropicClient) ResolveModel(model string) string {
	if model == "" {
		return DefaultModel
	}
	return model
}

// Complete sends one user message with a system prompt and returns the
// concatenated text blocks of the reply.
func (a *AnthropicClient) Complete(ctx context.Context, c Completion) (string, error) {
	maxTokens := c.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.ResolveModel(c.Model)),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(c.Prompt)),
		},
	}
	if c.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: c.System}}
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("anthropic messages: empty response")
	}
	return text, nil
}
