// Package anthropic adapts the official Anthropic SDK to probe.ChatProvider.
package anthropic

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spetersoncode/probe"
)

const defaultMaxTokens = 4096

// Client wraps the Anthropic SDK to implement probe.ChatProvider.
type Client struct {
	client      *anthropic.Client
	model       string
	maxTokens   int64
	temperature *float64
}

// New creates a new Anthropic client with the given API key and model.
func New(apiKey, model string, opts ...ClientOption) *Client {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	c := &Client{
		client:    &client,
		model:     model,
		maxTokens: defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClientOption configures the Anthropic client.
type ClientOption func(*Client)

// WithMaxTokens caps the response length. Zero keeps the default.
func WithMaxTokens(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = int64(n)
		}
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
	msgs, system := convertMessages(messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages:  msgs,
	}
	if len(system) > 0 {
		params.System = system
	}
	if c.temperature != nil {
		params.Temperature = anthropic.Float(*c.temperature)
	}
	if len(tools) > 0 {
		params.Tools = convertTools(tools)
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}

	content := ""
	var toolCalls []probe.ToolCall
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			content += block.Text
		case "tool_use":
			toolCalls = append(toolCalls, probe.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(block.Input),
			})
		}
	}

	return &probe.Response{
		Content:      content,
		FinishReason: string(resp.StopReason),
		Usage: probe.Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
		ToolCalls: toolCalls,
	}, nil
}

var _ probe.ChatProvider = (*Client)(nil)
