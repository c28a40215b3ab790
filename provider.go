package probe

import "context"

// Provider identifies an AI provider backend.
type Provider string

// String returns the provider identifier.
func (p Provider) String() string { return string(p) }

// Supported providers.
const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGoogle    Provider = "google"
)

// ChatProvider is the uniform gateway to a model backend. Given conversation
// history and the exposed tool list, it returns either terminal text or a
// response carrying tool invocation requests.
//
// Implementations classify backend errors into the CategorizedError taxonomy
// (transient vs. permanent/user input) so the retry layer can decide what to
// do; they never retry themselves.
type ChatProvider interface {
	Converse(ctx context.Context, messages []Message, tools []Tool) (*Response, error)
}
