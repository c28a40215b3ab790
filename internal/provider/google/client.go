// Package google adapts the Google GenAI SDK to probe.ChatProvider.
package google

import (
	"context"

	"github.com/spetersoncode/probe"
	"google.golang.org/genai"
)

// Client wraps the Google GenAI SDK to implement probe.ChatProvider.
type Client struct {
	client      *genai.Client
	model       string
	maxTokens   int
	temperature *float64
}

// New creates a new Google GenAI client with the given API key and model.
func New(ctx context.Context, apiKey, model string, opts ...ClientOption) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	c := &Client{
		client: client,
		model:  model,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ClientOption configures the Google client.
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
	contents := convertMessages(messages)

	config := &genai.GenerateContentConfig{}
	if c.maxTokens > 0 {
		config.MaxOutputTokens = int32(c.maxTokens)
	}
	if c.temperature != nil {
		temp := float32(*c.temperature)
		config.Temperature = &temp
	}
	if len(tools) > 0 {
		config.Tools = convertTools(tools)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return nil, wrapError(err)
	}

	content := ""
	var toolCalls []probe.ToolCall
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" {
				content += part.Text
			}
		}
		toolCalls = extractToolCalls(resp.Candidates[0].Content.Parts)
	}

	finishReason := ""
	if len(resp.Candidates) > 0 {
		finishReason = string(resp.Candidates[0].FinishReason)
	}

	usage := probe.Usage{}
	if resp.UsageMetadata != nil {
		usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return &probe.Response{
		Content:      content,
		FinishReason: finishReason,
		Usage:        usage,
		ToolCalls:    toolCalls,
	}, nil
}

var _ probe.ChatProvider = (*Client)(nil)
