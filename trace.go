package probe

import "time"

// ToolInvocationRecord captures one dispatched tool call: the request, the
// server that resolved it, the outcome, and timing. Records are created once
// per dispatched call and never mutated after completion.
type ToolInvocationRecord struct {
	// Call is the invocation request as emitted by the model.
	Call ToolCall `json:"call"`
	// Server is the name of the tool server that owned the call.
	Server string `json:"server,omitempty"`
	// Result holds the raw result; Result.IsError marks execution failures.
	Result ToolResult `json:"result"`
	// Error holds the dispatch error message when the call could not be
	// executed at all (e.g. unresolvable name), empty otherwise.
	Error string `json:"error,omitempty"`
	// Retries is the number of retried attempts beyond the first.
	Retries int `json:"retries,omitempty"`

	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`
}

// Turn is one request/response cycle with the model: the outgoing message,
// the model's response, and the tool invocations executed as a result.
// Turns are ordered and immutable once recorded.
type Turn struct {
	// Request is the message that prompted this turn (the user prompt on the
	// first turn, a tool-result message afterwards).
	Request Message `json:"request"`
	// Response is the model's reply, nil if the provider call failed.
	Response *Response `json:"response,omitempty"`
	// Records lists the tool invocations triggered by Response, in the
	// order the model requested them.
	Records []ToolInvocationRecord `json:"records,omitempty"`
	// Retries is the number of retried provider attempts beyond the first.
	Retries int `json:"retries,omitempty"`

	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`
}

// CalledTool reports whether this turn dispatched the named tool.
func (t Turn) CalledTool(name string) bool {
	for _, rec := range t.Records {
		if rec.Call.Name == name {
			return true
		}
	}
	return false
}
