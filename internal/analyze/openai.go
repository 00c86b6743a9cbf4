// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	oaoption "github.com/openai/openai-go/option"
)

// OpenAIClient calls the OpenAI Chat Completions API.
type OpenAIClient struct {
	client openai.Client
}

// NewOpenAIClient builds a client for apiKey.
func NewOpenAIClient(apiKey string, opts ...oaoption.RequestOption) *OpenAIClient {
	opts = append([]oaoption.RequestOption{oaoption.WithAPIKey(apiKey)}, opts...)
	return &OpenAIClient{client: openai.NewClient(opts...)}
}

// ResolveModel swaps empty or Claude model names for an OpenAI default.
func (o *OpenAIClient) ResolveModel(model string) string {
	if model == "" || isClaudeModel(model) {
		return defaultOpenAIModel
	}
	return model
}

// Complete sends a system and user message and returns the first choice.
func (o *OpenAIClient) Complete(ctx context.Context, c Completion) (string, error) {
	maxTokens := c.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	var messages []openai.ChatCompletionMessageParamUnion
	if c.System != "" {
		messages = append(messages, openai.SystemMessage(c.System))
	}
	messages = append(messages, openai.UserMessage(c.Prompt))

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(o.ResolveModel(c.Model)),
		Messages:            messages,
		MaxCompletionTokens: openai.Int(int64(maxTokens)),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat completion: no choices returned")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("openai chat completion: empty response")
	}
	return text, nil
}
