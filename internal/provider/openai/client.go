// Package openai adapts the official OpenAI SDK to probe.ChatProvider.
package openai

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/spetersoncode/probe"
)

// Client wraps the OpenAI SDK to implement probe.ChatProvider.
type Client struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature *float64
}

// New creates a new OpenAI client with the given API key and model.
func New(apiKey, model string, opts ...ClientOption) *Client {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	c := &Client{
		client: &client,
		model:  model,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClientOption configures the OpenAI client.
type ClientOption func(*Client)

// WithMaxTokens caps the response length. Zero means no cap.
func WithMaxTokens(n int) ClientOption {
	return func(c *Client) {
		c.maxTokens = n
	}
}

// WithTemperature sets the sampling temperature. Nil keeps the backend default.
func WithTemperature(t *float64) ClientOption {
	return func(c *Client) {
		c.temperature = t
	}
}

// Converse sends the conversation and returns the complete response.
func (c *Client) Converse(ctx context.Context, messages []probe.Message, tools []probe.Tool) (*probe.Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: convertMessages(messages),
	}
	if c.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.maxTokens))
	}
	if c.temperature != nil {
		params.Temperature = openai.Float(*c.temperature)
	}
	if len(tools) > 0 {
		params.Tools = convertTools(tools)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}

	return &probe.Response{
		Content:      resp.Choices[0].Message.Content,
		FinishReason: string(resp.Choices[0].FinishReason),
		Usage: probe.Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
		ToolCalls: extractToolCalls(resp.Choices[0].Message),
	}, nil
}

var _ probe.ChatProvider = (*Client)(nil)
