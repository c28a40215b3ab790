// Package gateway constructs provider-backed implementations of
// probe.ChatProvider. The adapters translate probe messages and tools to
// each SDK's wire types and classify SDK errors into the categorized
// taxonomy; retrying is left to the engine's retry layer.
package gateway

import (
	"context"
	"fmt"

	"github.com/spetersoncode/probe"
	"github.com/spetersoncode/probe/internal/provider/anthropic"
	"github.com/spetersoncode/probe/internal/provider/google"
	"github.com/spetersoncode/probe/internal/provider/openai"
)

// Options holds gateway construction parameters.
type Options struct {
	// APIKey authenticates against the provider backend.
	APIKey string
	// MaxTokens caps the response length; 0 uses the adapter default.
	MaxTokens int
	// Temperature sets the sampling temperature; nil uses the backend default.
	Temperature *float64
}

// Option is a functional option for New.
type Option func(*Options)

// WithAPIKey sets the provider API key.
func WithAPIKey(key string) Option {
	return func(o *Options) {
		o.APIKey = key
	}
}

// WithMaxTokens caps the response length.
func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(o *Options) {
		o.Temperature = &t
	}
}

// ErrMissingAPIKey is returned when a provider is selected without a key.
type ErrMissingAPIKey struct {
	Provider string
}

func (e *ErrMissingAPIKey) Error() string {
	return fmt.Sprintf("gateway: no API key configured for %s", e.Provider)
}

// New returns a ChatProvider backed by the given provider and model.
func New(ctx context.Context, p probe.Provider, model string, opts ...Option) (probe.ChatProvider, error) {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.APIKey == "" {
		return nil, &ErrMissingAPIKey{Provider: p.String()}
	}

	switch p {
	case probe.ProviderAnthropic:
		return anthropic.New(o.APIKey, model,
			anthropic.WithMaxTokens(o.MaxTokens),
			anthropic.WithTemperature(o.Temperature)), nil
	case probe.ProviderOpenAI:
		return openai.New(o.APIKey, model,
			openai.WithMaxTokens(o.MaxTokens),
			openai.WithTemperature(o.Temperature)), nil
	case probe.ProviderGoogle:
		return google.New(ctx, o.APIKey, model,
			google.WithMaxTokens(o.MaxTokens),
			google.WithTemperature(o.Temperature))
	default:
		return nil, fmt.Errorf("gateway: unknown provider %q", p)
	}
}
