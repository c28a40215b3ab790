// Package model provides chat model constants with pricing information
// for all supported providers, without requiring users to import
// provider-specific packages.
package model

import "github.com/spetersoncode/probe"

// ChatModel represents a chat/completion model from any provider.
type ChatModel struct {
	id       string
	provider probe.Provider
	pricing  ChatPricing
}

// String returns the API identifier for this model.
func (m ChatModel) String() string { return m.id }

// Provider returns which provider this model belongs to.
func (m ChatModel) Provider() probe.Provider { return m.provider }

// Pricing returns the pricing for this model.
func (m ChatModel) Pricing() ChatPricing { return m.pricing }

// Anthropic Claude Models
// Model pricing last verified: December 14, 2025
var (
	// Claude 4.5 Family (Current) - auto-updating aliases
	ClaudeOpus45   = ChatModel{id: "claude-opus-4-5", provider: probe.ProviderAnthropic, pricing: ChatPricing{InputPerMillion: 5.00, OutputPerMillion: 25.00}}
	ClaudeSonnet45 = ChatModel{id: "claude-sonnet-4-5", provider: probe.ProviderAnthropic, pricing: ChatPricing{InputPerMillion: 3.00, OutputPerMillion: 15.00}}
	ClaudeHaiku45  = ChatModel{id: "claude-haiku-4-5", provider: probe.ProviderAnthropic, pricing: ChatPricing{InputPerMillion: 1.00, OutputPerMillion: 5.00}}

	// Pinned versions (use for production stability)
	ClaudeOpus45_20251101   = ChatModel{id: "claude-opus-4-5-20251101", provider: probe.ProviderAnthropic, pricing: ChatPricing{InputPerMillion: 5.00, OutputPerMillion: 25.00}}
	ClaudeSonnet45_20250929 = ChatModel{id: "claude-sonnet-4-5-20250929", provider: probe.ProviderAnthropic, pricing: ChatPricing{InputPerMillion: 3.00, OutputPerMillion: 15.00}}
	ClaudeHaiku45_20251001  = ChatModel{id: "claude-haiku-4-5-20251001", provider: probe.ProviderAnthropic, pricing: ChatPricing{InputPerMillion: 1.00, OutputPerMillion: 5.00}}

	// DefaultClaudeModel is the recommended default Anthropic model.
	DefaultClaudeModel = ClaudeSonnet45
)

// OpenAI GPT and O-Series Models
// Model pricing last verified: December 14, 2025
var (
	// GPT-5.1 Series
	GPT51     = ChatModel{id: "gpt-5.1", provider: probe.ProviderOpenAI, pricing: ChatPricing{InputPerMillion: 1.25, OutputPerMillion: 10.00}}
	GPT51Mini = ChatModel{id: "gpt-5.1-mini", provider: probe.ProviderOpenAI, pricing: ChatPricing{InputPerMillion: 0.30, OutputPerMillion: 1.25}}

	// GPT-5 Series
	GPT5     = ChatModel{id: "gpt-5", provider: probe.ProviderOpenAI, pricing: ChatPricing{InputPerMillion: 1.25, OutputPerMillion: 10.00}}
	GPT5Mini = ChatModel{id: "gpt-5-mini", provider: probe.ProviderOpenAI, pricing: ChatPricing{InputPerMillion: 0.25, OutputPerMillion: 1.00}}
	GPT5Nano = ChatModel{id: "gpt-5-nano", provider: probe.ProviderOpenAI, pricing: ChatPricing{InputPerMillion: 0.10, OutputPerMillion: 0.40}}

	// O-Series Reasoning Models
	O3     = ChatModel{id: "o3", provider: probe.ProviderOpenAI, pricing: ChatPricing{InputPerMillion: 2.00, OutputPerMillion: 16.00}}
	O4Mini = ChatModel{id: "o4-mini", provider: probe.ProviderOpenAI, pricing: ChatPricing{InputPerMillion: 0.50, OutputPerMillion: 2.00}}

	// DefaultGPTModel is the recommended default OpenAI model.
	DefaultGPTModel = GPT51
)

// Google Gemini Models
// Model pricing last verified: December 14, 2025
var (
	// Gemini 2.5 Series
	Gemini25Pro       = ChatModel{id: "gemini-2.5-pro", provider: probe.ProviderGoogle, pricing: ChatPricing{InputPerMillion: 1.25, OutputPerMillion: 10.00}}
	Gemini25Flash     = ChatModel{id: "gemini-2.5-flash", provider: probe.ProviderGoogle, pricing: ChatPricing{InputPerMillion: 0.15, OutputPerMillion: 0.60}}
	Gemini25FlashLite = ChatModel{id: "gemini-2.5-flash-lite", provider: probe.ProviderGoogle, pricing: ChatPricing{InputPerMillion: 0.075, OutputPerMillion: 0.30}}

	// DefaultGeminiModel is the recommended default Google model.
	DefaultGeminiModel = Gemini25Flash
)

var allModels = []ChatModel{
	ClaudeOpus45, ClaudeSonnet45, ClaudeHaiku45,
	ClaudeOpus45_20251101, ClaudeSonnet45_20250929, ClaudeHaiku45_20251001,
	GPT51, GPT51Mini, GPT5, GPT5Mini, GPT5Nano, O3, O4Mini,
	Gemini25Pro, Gemini25Flash, Gemini25FlashLite,
}

// Lookup finds a model by its API identifier.
func Lookup(id string) (ChatModel, bool) {
	for _, m := range allModels {
		if m.id == id {
			return m, true
		}
	}
	return ChatModel{}, false
}
