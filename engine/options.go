package engine

import (
	"log/slog"
	"time"

	"github.com/spetersoncode/probe/internal/retry"
	"github.com/spetersoncode/probe/session"
	"golang.org/x/time/rate"
)

// Options holds run configuration. Engine-level options set defaults for
// every run; the same options passed to Run override them per invocation.
type Options struct {
	// MaxTurns bounds the number of model calls per run. Values below 1
	// are clamped to 1.
	MaxTurns int

	// Retry controls retry behavior for model calls and tool dispatch.
	Retry retry.Config

	// Timeout bounds the whole run. Zero means no deadline beyond the
	// caller's context.
	Timeout time.Duration

	// Instructions is prepended to the conversation as a system message.
	Instructions string

	// Session names the conversation history to seed from and append to.
	// Empty disables session handling.
	Session string

	// Store holds session histories. Required when Session is set.
	Store *session.Store

	// AllowedTools restricts the tools exposed to the model. Empty
	// exposes everything the registry offers.
	AllowedTools []string

	// Limiter is awaited before every model call and tool dispatch.
	Limiter *rate.Limiter

	// Model is the API identifier used for cost estimation. Empty skips
	// cost accounting.
	Model string

	// Logger receives structured run progress. Defaults to slog.Default().
	Logger *slog.Logger
}

// Option configures an Engine or a single Run.
type Option func(*Options)

// defaultOptions returns the baseline configuration.
func defaultOptions() Options {
	return Options{
		MaxTurns: 10,
		Retry:    retry.DefaultConfig(),
		Logger:   slog.Default(),
	}
}

// WithMaxTurns bounds the number of model calls per run.
func WithMaxTurns(n int) Option {
	return func(o *Options) {
		o.MaxTurns = n
	}
}

// WithMaxRetries sets how many times a transient failure is retried
// before surfacing. Zero disables retries.
func WithMaxRetries(n int) Option {
	return func(o *Options) {
		o.Retry = retry.WithRetries(n)
	}
}

// WithRetryConfig replaces the full retry configuration.
func WithRetryConfig(cfg retry.Config) Option {
	return func(o *Options) {
		o.Retry = cfg
	}
}

// WithTimeout bounds the whole run.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithInstructions sets the system instructions for the run.
func WithInstructions(s string) Option {
	return func(o *Options) {
		o.Instructions = s
	}
}

// WithSession seeds the run from the named history in store and appends
// the run's turns to it on completion.
func WithSession(name string, store *session.Store) Option {
	return func(o *Options) {
		o.Session = name
		o.Store = store
	}
}

// WithAllowedTools restricts the tools exposed to the model.
func WithAllowedTools(names ...string) Option {
	return func(o *Options) {
		o.AllowedTools = names
	}
}

// WithRateLimit caps outbound calls (model and tool) at rps requests
// per second.
func WithRateLimit(rps float64) Option {
	return func(o *Options) {
		o.Limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithModel sets the model identifier used for cost estimation.
func WithModel(id string) Option {
	return func(o *Options) {
		o.Model = id
	}
}

// WithLogger sets the structured logger for run progress.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}
