package model

import (
	"testing"

	"github.com/spetersoncode/probe"
	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	t.Run("known model", func(t *testing.T) {
		m, ok := Lookup("claude-sonnet-4-5")
		assert.True(t, ok)
		assert.Equal(t, probe.ProviderAnthropic, m.Provider())
		assert.Equal(t, 3.00, m.Pricing().InputPerMillion)
	})

	t.Run("unknown model", func(t *testing.T) {
		_, ok := Lookup("not-a-model")
		assert.False(t, ok)
	})
}

func TestCost(t *testing.T) {
	usage := probe.Usage{InputTokens: 1_000_000, OutputTokens: 500_000}

	t.Run("anthropic", func(t *testing.T) {
		// 1M input at $3 + 0.5M output at $15
		assert.InDelta(t, 3.00+7.50, Cost("claude-sonnet-4-5", usage), 1e-9)
	})

	t.Run("openai", func(t *testing.T) {
		// 1M input at $1.25 + 0.5M output at $10
		assert.InDelta(t, 1.25+5.00, Cost("gpt-5.1", usage), 1e-9)
	})

	t.Run("google", func(t *testing.T) {
		// 1M input at $0.15 + 0.5M output at $0.60
		assert.InDelta(t, 0.15+0.30, Cost("gemini-2.5-flash", usage), 1e-9)
	})

	t.Run("unknown model costs zero", func(t *testing.T) {
		assert.Zero(t, Cost("mystery-model", usage))
	})

	t.Run("zero usage costs zero", func(t *testing.T) {
		assert.Zero(t, Cost("gpt-5.1", probe.Usage{}))
	})
}

func TestProviderGrouping(t *testing.T) {
	assert.Equal(t, probe.ProviderOpenAI, DefaultGPTModel.Provider())
	assert.Equal(t, probe.ProviderGoogle, DefaultGeminiModel.Provider())
	assert.Equal(t, probe.ProviderAnthropic, DefaultClaudeModel.Provider())
}
