package model

import "github.com/spetersoncode/probe"

// ChatPricing contains pricing per million tokens (USD) for chat models.
type ChatPricing struct {
	// InputPerMillion is the standard input token pricing.
	InputPerMillion float64
	// OutputPerMillion is the standard output token pricing.
	OutputPerMillion float64
}

// Cost returns the USD cost of the given token usage at this pricing.
func (p ChatPricing) Cost(usage probe.Usage) float64 {
	input := float64(usage.InputTokens) / 1_000_000 * p.InputPerMillion
	output := float64(usage.OutputTokens) / 1_000_000 * p.OutputPerMillion
	return input + output
}

// Cost estimates the USD cost of the given usage for the model with the
// given API identifier. Unknown models cost zero; run accounting should
// never fail because a pricing table is stale.
func Cost(id string, usage probe.Usage) float64 {
	m, ok := Lookup(id)
	if !ok {
		return 0
	}
	return m.Pricing().Cost(usage)
}
