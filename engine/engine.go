// Package engine drives bounded tool-calling conversations: it alternates
// model calls and tool dispatch until the model produces a terminal
// response or a budget is exhausted, and records every turn along the way.
package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spetersoncode/probe"
	"github.com/spetersoncode/probe/internal/retry"
	"github.com/spetersoncode/probe/registry"
)

// Engine runs tool-calling conversations against one provider and one
// tool registry. Engines are stateless between runs and safe for
// concurrent use as long as concurrent runs target different sessions.
type Engine struct {
	provider probe.ChatProvider
	registry *registry.Registry
	defaults Options
}

// New creates an Engine. Options given here become the defaults for every
// Run; the same options passed to Run override them per invocation.
func New(provider probe.ChatProvider, reg *registry.Registry, opts ...Option) *Engine {
	defaults := defaultOptions()
	for _, opt := range opts {
		opt(&defaults)
	}
	return &Engine{
		provider: provider,
		registry: reg,
		defaults: defaults,
	}
}

// Run executes one conversation starting from prompt. It always returns a
// Result; the error return mirrors Result.Err so failures carry their
// full trace.
//
// Tool calls within a turn are dispatched sequentially in the model's
// order. A tool whose execution merely errors is fed back to the model as
// an error result; only an unresolvable tool name or a permanent provider
// error is fatal.
func (e *Engine) Run(ctx context.Context, prompt string, opts ...Option) (*Result, error) {
	o := e.defaults
	for _, opt := range opts {
		opt(&o)
	}
	if o.MaxTurns < 1 {
		o.MaxTurns = 1
	}

	res := &Result{}

	if strings.TrimSpace(prompt) == "" {
		return e.fail(res, &o, probe.ErrEmptyInput, TerminationError)
	}
	if o.Session != "" && o.Store == nil {
		return e.fail(res, &o, errors.New("engine: session set without a store"), TerminationError)
	}

	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	history := e.seedHistory(&o)
	tools := e.exposedTools(&o)

	next := probe.Message{
		ID:      probe.GenerateMessageID(),
		Role:    probe.RoleUser,
		Content: prompt,
	}

	for turnCount := 0; ; turnCount++ {
		if err := ctx.Err(); err != nil {
			return e.fail(res, &o, err, classify(err))
		}
		if turnCount >= o.MaxTurns {
			return e.fail(res, &o, ErrMaxTurnsReached, TerminationMaxTurns)
		}

		turn := probe.Turn{Request: next, StartedAt: time.Now()}
		history = append(history, next)

		o.Logger.Debug("model call", "turn", turnCount+1, "maxTurns", o.MaxTurns)

		if err := e.wait(ctx, &o); err != nil {
			turn.EndedAt = time.Now()
			res.Turns = append(res.Turns, turn)
			return e.fail(res, &o, err, classify(err))
		}

		resp, attempts, err := retry.DoCount(ctx, o.Retry, func() (*probe.Response, error) {
			return e.provider.Converse(ctx, history, tools)
		})
		turn.Retries = attempts - 1

		if err != nil {
			turn.EndedAt = time.Now()
			res.Turns = append(res.Turns, turn)
			return e.fail(res, &o, err, classifyCtx(ctx, err))
		}

		turn.Response = resp

		if resp.Terminal() {
			turn.EndedAt = time.Now()
			res.Turns = append(res.Turns, turn)
			res.Success = true
			res.Termination = TerminationComplete
			res.FinalText = resp.Content
			e.finish(res, &o)
			return res, nil
		}

		history = append(history, probe.Message{
			Role:      probe.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		results := make([]probe.ToolResult, 0, len(resp.ToolCalls))
		var fatal error
		for _, call := range resp.ToolCalls {
			rec, err := e.dispatchCall(ctx, call, &o)
			turn.Records = append(turn.Records, rec)
			results = append(results, rec.Result)
			if err != nil {
				fatal = err
				break
			}
		}

		turn.EndedAt = time.Now()
		res.Turns = append(res.Turns, turn)

		if fatal != nil {
			return e.fail(res, &o, fatal, classifyCtx(ctx, fatal))
		}

		next = probe.NewToolResultMessage(results...)
	}
}

// seedHistory builds the initial message history: system instructions,
// then prior session turns replayed in order.
func (e *Engine) seedHistory(o *Options) []probe.Message {
	var history []probe.Message
	if o.Instructions != "" {
		history = append(history, probe.Message{
			Role:    probe.RoleSystem,
			Content: o.Instructions,
		})
	}
	if o.Session == "" || o.Store == nil {
		return history
	}
	turns := o.Store.Get(o.Session)
	for i, turn := range turns {
		history = append(history, turn.Request)
		if turn.Response == nil {
			continue
		}
		history = append(history, probe.Message{
			Role:      probe.RoleAssistant,
			Content:   turn.Response.Content,
			ToolCalls: turn.Response.ToolCalls,
		})
		if len(turn.Response.ToolCalls) == 0 {
			continue
		}
		// Tool results normally replay as the next turn's request. A run
		// that failed mid-dispatch leaves a dangling tool-call message,
		// which backends reject, so rebuild its results from the records.
		if i+1 < len(turns) && turns[i+1].Request.Role == probe.RoleTool {
			continue
		}
		history = append(history, replayedResults(turn))
	}
	return history
}

// replayedResults reconstructs the tool-result message for a turn whose
// results never made it into a following request, filling gaps with
// error results so every tool call is answered.
func replayedResults(turn probe.Turn) probe.Message {
	byID := make(map[string]probe.ToolInvocationRecord, len(turn.Records))
	for _, rec := range turn.Records {
		byID[rec.Call.ID] = rec
	}
	results := make([]probe.ToolResult, 0, len(turn.Response.ToolCalls))
	for _, call := range turn.Response.ToolCalls {
		rec, ok := byID[call.ID]
		switch {
		case ok && rec.Result.ToolCallID != "":
			results = append(results, rec.Result)
		case ok && rec.Error != "":
			results = append(results, probe.ToolResult{ToolCallID: call.ID, Content: rec.Error, IsError: true})
		default:
			results = append(results, probe.ToolResult{ToolCallID: call.ID, Content: "tool call was not executed", IsError: true})
		}
	}
	return probe.NewToolResultMessage(results...)
}

// exposedTools returns the registry's tool list with the run's allow-list
// applied.
func (e *Engine) exposedTools(o *Options) []probe.Tool {
	if e.registry == nil {
		return nil
	}
	tools := e.registry.Tools()
	if len(o.AllowedTools) == 0 {
		return tools
	}
	allowed := make(map[string]bool, len(o.AllowedTools))
	for _, name := range o.AllowedTools {
		allowed[name] = true
	}
	filtered := make([]probe.Tool, 0, len(tools))
	for _, t := range tools {
		if allowed[t.Name] {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// dispatchCall forwards one tool call through the registry and records
// the outcome. The returned error is non-nil only for fatal conditions:
// an unresolvable tool name or a dead context.
func (e *Engine) dispatchCall(ctx context.Context, call probe.ToolCall, o *Options) (probe.ToolInvocationRecord, error) {
	rec := probe.ToolInvocationRecord{Call: call, StartedAt: time.Now()}
	if owner, ok := e.registry.Resolve(call.Name); ok {
		rec.Server = owner.Name()
	}

	o.Logger.Debug("tool dispatch", "tool", call.Name, "server", rec.Server)

	if err := e.wait(ctx, o); err != nil {
		rec.EndedAt = time.Now()
		rec.Error = err.Error()
		return rec, err
	}

	result, attempts, err := retry.DoCount(ctx, o.Retry, func() (probe.ToolResult, error) {
		return e.registry.Dispatch(ctx, call)
	})
	rec.Retries = attempts - 1
	rec.EndedAt = time.Now()

	if err != nil {
		var notFound *registry.ErrToolNotFound
		if errors.As(err, &notFound) {
			rec.Error = err.Error()
			rec.Result = probe.ToolResult{ToolCallID: call.ID, Content: err.Error(), IsError: true}
			return rec, err
		}
		if ctx.Err() != nil {
			rec.Error = err.Error()
			return rec, err
		}
		// Execution failed but the call was valid: surface the error to
		// the model and let it decide what to do.
		rec.Result = probe.ToolResult{ToolCallID: call.ID, Content: err.Error(), IsError: true}
		return rec, nil
	}

	rec.Result = result
	return rec, nil
}

// wait blocks on the rate limiter, if one is configured.
func (e *Engine) wait(ctx context.Context, o *Options) error {
	if o.Limiter == nil {
		return nil
	}
	return o.Limiter.Wait(ctx)
}

func (e *Engine) fail(res *Result, o *Options, err error, reason TerminationReason) (*Result, error) {
	res.Success = false
	res.Termination = reason
	res.Err = err
	e.finish(res, o)
	return res, err
}

// finish folds counters and appends the run's turns to the session.
func (e *Engine) finish(res *Result, o *Options) {
	res.finalize(o.Model)
	if o.Session != "" && o.Store != nil {
		o.Store.Append(o.Session, res.Turns...)
	}
	o.Logger.Debug("run finished",
		"termination", string(res.Termination),
		"turns", len(res.Turns),
		"toolCalls", res.TotalToolCalls,
		"retries", res.TotalRetries,
	)
}

// classify maps an error to a termination reason, distinguishing deadline
// expiry and cancellation from provider or dispatch failures.
func classify(err error) TerminationReason {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return TerminationTimeout
	case errors.Is(err, context.Canceled):
		return TerminationCancelled
	default:
		return TerminationError
	}
}

// classifyCtx is classify with a fallback to the context's own error, for
// failures whose wrapping loses the context sentinel.
func classifyCtx(ctx context.Context, err error) TerminationReason {
	if r := classify(err); r != TerminationError {
		return r
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return classify(ctxErr)
	}
	return TerminationError
}
