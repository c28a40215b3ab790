package engine

import (
	"github.com/spetersoncode/probe"
	"github.com/spetersoncode/probe/model"
)

// Result is the complete record of one run. Run always returns a Result,
// even on failure; Err mirrors the error return.
type Result struct {
	// Success is true when the model produced a terminal response within
	// the turn budget.
	Success bool `json:"success"`

	// Termination says why the run ended.
	Termination TerminationReason `json:"termination"`

	// Turns lists every model call made, in order, with the tool
	// invocations each one triggered.
	Turns []probe.Turn `json:"turns"`

	// FinalText is the terminal response content, empty on failure.
	FinalText string `json:"finalText,omitempty"`

	// Usage aggregates token counts across all turns.
	Usage probe.Usage `json:"usage"`

	// Cost is the estimated USD cost of Usage, zero when no model
	// identifier was configured or the model is unknown.
	Cost float64 `json:"cost,omitempty"`

	// TotalToolCalls counts every dispatched tool invocation.
	TotalToolCalls int `json:"totalToolCalls"`

	// TotalRetries counts retried attempts across model calls and tool
	// dispatches.
	TotalRetries int `json:"totalRetries"`

	// Err is the failure that ended the run, nil on success.
	Err error `json:"-"`

	// Error is Err's message, for JSON output.
	Error string `json:"error,omitempty"`
}

// ToolWasCalled reports whether any turn dispatched the named tool.
func (r *Result) ToolWasCalled(name string) bool {
	for _, turn := range r.Turns {
		if turn.CalledTool(name) {
			return true
		}
	}
	return false
}

// finalize folds per-turn counters into the aggregate fields.
func (r *Result) finalize(modelID string) {
	for _, turn := range r.Turns {
		if turn.Response != nil {
			r.Usage.Add(turn.Response.Usage)
		}
		r.TotalRetries += turn.Retries
		r.TotalToolCalls += len(turn.Records)
		for _, rec := range turn.Records {
			r.TotalRetries += rec.Retries
		}
	}
	if modelID != "" {
		r.Cost = model.Cost(modelID, r.Usage)
	}
	if r.Err != nil {
		r.Error = r.Err.Error()
	}
}
