package engine

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spetersoncode/probe"
	"github.com/spetersoncode/probe/internal/retry"
	"github.com/spetersoncode/probe/registry"
	"github.com/spetersoncode/probe/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// step is one scripted provider response.
type step struct {
	resp *probe.Response
	err  error
}

// scriptedProvider replays a fixed sequence of responses and records what
// it was asked.
type scriptedProvider struct {
	mu    sync.Mutex
	steps []step
	calls int

	// captured per call
	seenMessages [][]probe.Message
	seenTools    [][]probe.Tool
}

func (p *scriptedProvider) Converse(ctx context.Context, messages []probe.Message, tools []probe.Tool) (*probe.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	msgs := make([]probe.Message, len(messages))
	copy(msgs, messages)
	p.seenMessages = append(p.seenMessages, msgs)
	p.seenTools = append(p.seenTools, tools)

	if p.calls >= len(p.steps) {
		return nil, errors.New("script exhausted")
	}
	s := p.steps[p.calls]
	p.calls++
	return s.resp, s.err
}

func (p *scriptedProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func textResponse(content string) step {
	return step{resp: &probe.Response{Content: content, FinishReason: "stop", Usage: probe.Usage{InputTokens: 10, OutputTokens: 5}}}
}

func toolResponse(calls ...probe.ToolCall) step {
	return step{resp: &probe.Response{FinishReason: "tool_use", ToolCalls: calls, Usage: probe.Usage{InputTokens: 10, OutputTokens: 5}}}
}

// fakeServer implements registry.Caller with an in-memory handler.
type fakeServer struct {
	name    string
	tools   []probe.Tool
	handler func(call probe.ToolCall) (probe.ToolResult, error)
}

func (s *fakeServer) Name() string { return s.name }

func (s *fakeServer) Tools(ctx context.Context) ([]probe.Tool, error) {
	return s.tools, nil
}

func (s *fakeServer) Call(ctx context.Context, call probe.ToolCall) (probe.ToolResult, error) {
	return s.handler(call)
}

func balanceServer() *fakeServer {
	return &fakeServer{
		name: "accounts",
		tools: []probe.Tool{
			{Name: "get_balance", Description: "Get the balance of an account", Parameters: json.RawMessage(`{"type":"object","properties":{"account":{"type":"string"}},"required":["account"]}`)},
			{Name: "list_accounts", Description: "List known accounts", Parameters: json.RawMessage(`{"type":"object"}`)},
		},
		handler: func(call probe.ToolCall) (probe.ToolResult, error) {
			switch call.Name {
			case "get_balance":
				return probe.ToolResult{ToolCallID: call.ID, Content: `{"balance":42.50}`}, nil
			case "list_accounts":
				return probe.ToolResult{ToolCallID: call.ID, Content: `["checking","savings"]`}, nil
			}
			return probe.ToolResult{}, errors.New("unhandled tool")
		},
	}
}

func buildRegistry(t *testing.T, servers ...registry.Caller) *registry.Registry {
	t.Helper()
	reg, err := registry.Build(context.Background(), servers)
	require.NoError(t, err)
	return reg
}

// fastRetry retries quickly so transient-error tests don't sleep.
func fastRetry(retries int) retry.Config {
	return retry.Config{
		MaxAttempts:  retries + 1,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestRunFirstResponseTerminal(t *testing.T) {
	provider := &scriptedProvider{steps: []step{textResponse("done")}}
	e := New(provider, buildRegistry(t, balanceServer()))

	res, err := e.Run(context.Background(), "hello")
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, TerminationComplete, res.Termination)
	assert.Equal(t, "done", res.FinalText)
	require.Len(t, res.Turns, 1)
	assert.Empty(t, res.Turns[0].Records)
	assert.Equal(t, 1, provider.callCount())
	assert.Equal(t, probe.Usage{InputTokens: 10, OutputTokens: 5}, res.Usage)
}

func TestRunMaxTurnsReached(t *testing.T) {
	// The model never stops asking for tools.
	call := probe.ToolCall{ID: "c1", Name: "list_accounts", Arguments: "{}"}
	provider := &scriptedProvider{steps: []step{
		toolResponse(call), toolResponse(call), toolResponse(call), toolResponse(call),
	}}
	e := New(provider, buildRegistry(t, balanceServer()))

	res, err := e.Run(context.Background(), "loop forever", WithMaxTurns(3))
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrMaxTurnsReached)
	assert.False(t, res.Success)
	assert.Equal(t, TerminationMaxTurns, res.Termination)
	assert.Len(t, res.Turns, 3)
	// Exactly MaxTurns model calls, never more.
	assert.Equal(t, 3, provider.callCount())
}

func TestRunRetriesTransientThenSucceeds(t *testing.T) {
	transient := probe.NewTransientError("overloaded", 529, nil)
	provider := &scriptedProvider{steps: []step{
		{err: transient}, {err: transient}, textResponse("recovered"),
	}}
	e := New(provider, buildRegistry(t, balanceServer()))

	res, err := e.Run(context.Background(), "try hard", WithRetryConfig(fastRetry(3)))
	require.NoError(t, err)

	assert.True(t, res.Success)
	require.Len(t, res.Turns, 1)
	assert.Equal(t, 2, res.Turns[0].Retries)
	assert.Equal(t, 2, res.TotalRetries)
	assert.Equal(t, 3, provider.callCount())
}

func TestRunRetriesExhausted(t *testing.T) {
	transient := probe.NewTransientError("overloaded", 529, nil)
	provider := &scriptedProvider{steps: []step{
		{err: transient}, {err: transient}, {err: transient}, textResponse("too late"),
	}}
	e := New(provider, buildRegistry(t, balanceServer()))

	// 2 retries = 3 attempts, all transient failures.
	res, err := e.Run(context.Background(), "give up", WithRetryConfig(fastRetry(2)))
	require.Error(t, err)

	// The original transient error surfaces unmodified.
	assert.True(t, probe.IsTransient(err))
	assert.False(t, res.Success)
	assert.Equal(t, TerminationError, res.Termination)
	assert.Equal(t, 3, provider.callCount())
	require.Len(t, res.Turns, 1)
	assert.Equal(t, 2, res.Turns[0].Retries)
}

func TestRunPermanentErrorNoRetry(t *testing.T) {
	permanent := probe.NewPermanentError("invalid api key", 401, nil)
	provider := &scriptedProvider{steps: []step{{err: permanent}}}
	e := New(provider, buildRegistry(t, balanceServer()))

	res, err := e.Run(context.Background(), "auth", WithRetryConfig(fastRetry(5)))
	require.Error(t, err)

	assert.True(t, probe.IsPermanent(err))
	assert.Equal(t, TerminationError, res.Termination)
	assert.Equal(t, 1, provider.callCount())
	assert.Zero(t, res.TotalRetries)
}

func TestRunDispatchesToolCallsInOrder(t *testing.T) {
	calls := []probe.ToolCall{
		{ID: "c1", Name: "get_balance", Arguments: `{"account":"checking"}`},
		{ID: "c2", Name: "list_accounts", Arguments: "{}"},
		{ID: "c3", Name: "get_balance", Arguments: `{"account":"savings"}`},
	}
	provider := &scriptedProvider{steps: []step{
		toolResponse(calls...), textResponse("all done"),
	}}
	e := New(provider, buildRegistry(t, balanceServer()))

	res, err := e.Run(context.Background(), "check everything")
	require.NoError(t, err)

	assert.True(t, res.Success)
	require.Len(t, res.Turns, 2)

	records := res.Turns[0].Records
	require.Len(t, records, 3)
	for i, rec := range records {
		assert.Equal(t, calls[i].ID, rec.Call.ID)
		assert.Equal(t, calls[i].ID, rec.Result.ToolCallID)
		assert.Equal(t, "accounts", rec.Server)
		assert.False(t, rec.Result.IsError)
	}
	assert.Equal(t, 3, res.TotalToolCalls)

	// All three results fed back in one tool-result message.
	secondCall := provider.seenMessages[1]
	last := secondCall[len(secondCall)-1]
	assert.Equal(t, probe.RoleTool, last.Role)
	assert.Len(t, last.ToolResults, 3)
}

func TestRunBalanceScenario(t *testing.T) {
	provider := &scriptedProvider{steps: []step{
		toolResponse(probe.ToolCall{ID: "c1", Name: "get_balance", Arguments: `{"account":"checking"}`}),
		textResponse("Your checking balance is $42.50."),
	}}
	e := New(provider, buildRegistry(t, balanceServer()))

	res, err := e.Run(context.Background(), "What is my checking balance?")
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Len(t, res.Turns, 2)
	assert.True(t, res.ToolWasCalled("get_balance"))
	assert.False(t, res.ToolWasCalled("list_accounts"))
	assert.Contains(t, res.FinalText, "42.50")
}

func TestRunUnknownToolIsFatal(t *testing.T) {
	provider := &scriptedProvider{steps: []step{
		toolResponse(probe.ToolCall{ID: "c1", Name: "transfer_funds", Arguments: "{}"}),
		textResponse("never reached"),
	}}
	e := New(provider, buildRegistry(t, balanceServer()))

	res, err := e.Run(context.Background(), "move my money")
	require.Error(t, err)

	var notFound *registry.ErrToolNotFound
	assert.ErrorAs(t, err, &notFound)
	assert.Equal(t, "transfer_funds", notFound.Name)
	assert.False(t, res.Success)
	assert.Equal(t, TerminationError, res.Termination)
	require.Len(t, res.Turns, 1)
	require.Len(t, res.Turns[0].Records, 1)
	assert.NotEmpty(t, res.Turns[0].Records[0].Error)
	// Fatal: the model is never called again.
	assert.Equal(t, 1, provider.callCount())
}

func TestRunToolExecutionErrorFedBack(t *testing.T) {
	flaky := &fakeServer{
		name:  "flaky",
		tools: []probe.Tool{{Name: "lookup", Description: "Look something up"}},
		handler: func(call probe.ToolCall) (probe.ToolResult, error) {
			return probe.ToolResult{}, errors.New("backend unavailable")
		},
	}
	provider := &scriptedProvider{steps: []step{
		toolResponse(probe.ToolCall{ID: "c1", Name: "lookup", Arguments: "{}"}),
		textResponse("I could not look that up."),
	}}
	e := New(provider, buildRegistry(t, flaky))

	res, err := e.Run(context.Background(), "look it up", WithRetryConfig(retry.Disabled()))
	require.NoError(t, err)

	// Execution failure is not fatal: the error result goes back to the
	// model and the run continues.
	assert.True(t, res.Success)
	require.Len(t, res.Turns, 2)
	rec := res.Turns[0].Records[0]
	assert.True(t, rec.Result.IsError)
	assert.Contains(t, rec.Result.Content, "backend unavailable")

	secondCall := provider.seenMessages[1]
	last := secondCall[len(secondCall)-1]
	require.Len(t, last.ToolResults, 1)
	assert.True(t, last.ToolResults[0].IsError)
}

func TestRunTimeout(t *testing.T) {
	slow := &slowProvider{delay: time.Second}
	e := New(slow, buildRegistry(t, balanceServer()))

	res, err := e.Run(context.Background(), "slow", WithTimeout(20*time.Millisecond))
	require.Error(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, TerminationTimeout, res.Termination)
}

func TestRunCancelled(t *testing.T) {
	slow := &slowProvider{delay: time.Second}
	e := New(slow, buildRegistry(t, balanceServer()))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	res, err := e.Run(ctx, "cancel me")
	require.Error(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, TerminationCancelled, res.Termination)
}

func TestRunTimeoutDuringToolDispatch(t *testing.T) {
	stuck := &slowServer{
		name:  "archive",
		tools: []probe.Tool{{Name: "search", Description: "Search the archive"}},
		delay: time.Second,
	}
	provider := &scriptedProvider{steps: []step{
		toolResponse(probe.ToolCall{ID: "c1", Name: "search", Arguments: "{}"}),
		textResponse("never reached"),
	}}
	e := New(provider, buildRegistry(t, stuck))

	res, err := e.Run(context.Background(), "dig",
		WithTimeout(20*time.Millisecond), WithRetryConfig(retry.Disabled()))
	require.Error(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, TerminationTimeout, res.Termination)
	// The partial trace keeps the interrupted dispatch.
	require.Len(t, res.Turns, 1)
	require.Len(t, res.Turns[0].Records, 1)
	assert.NotEmpty(t, res.Turns[0].Records[0].Error)
	assert.Equal(t, 1, provider.callCount())
}

// slowProvider blocks until the context dies.
type slowProvider struct {
	delay time.Duration
}

func (p *slowProvider) Converse(ctx context.Context, messages []probe.Message, tools []probe.Tool) (*probe.Response, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(p.delay):
		return &probe.Response{Content: "slow"}, nil
	}
}

// slowServer implements registry.Caller with a call that blocks until
// the context dies.
type slowServer struct {
	name  string
	tools []probe.Tool
	delay time.Duration
}

func (s *slowServer) Name() string { return s.name }

func (s *slowServer) Tools(ctx context.Context) ([]probe.Tool, error) {
	return s.tools, nil
}

func (s *slowServer) Call(ctx context.Context, call probe.ToolCall) (probe.ToolResult, error) {
	select {
	case <-ctx.Done():
		return probe.ToolResult{}, ctx.Err()
	case <-time.After(s.delay):
		return probe.ToolResult{ToolCallID: call.ID, Content: "slow"}, nil
	}
}

func TestRunEmptyPrompt(t *testing.T) {
	provider := &scriptedProvider{}
	e := New(provider, buildRegistry(t, balanceServer()))

	res, err := e.Run(context.Background(), "   ")
	require.Error(t, err)

	assert.ErrorIs(t, err, probe.ErrEmptyInput)
	assert.False(t, res.Success)
	assert.Zero(t, provider.callCount())
}

func TestRunInstructions(t *testing.T) {
	provider := &scriptedProvider{steps: []step{textResponse("ok")}}
	e := New(provider, buildRegistry(t, balanceServer()),
		WithInstructions("You are a terse accountant."))

	_, err := e.Run(context.Background(), "hi")
	require.NoError(t, err)

	first := provider.seenMessages[0][0]
	assert.Equal(t, probe.RoleSystem, first.Role)
	assert.Equal(t, "You are a terse accountant.", first.Content)
}

func TestRunSessionSeedAndAppend(t *testing.T) {
	store := session.NewStore()
	provider := &scriptedProvider{steps: []step{
		textResponse("first answer"), textResponse("second answer"),
	}}
	e := New(provider, buildRegistry(t, balanceServer()))

	res1, err := e.Run(context.Background(), "first question", WithSession("chat", store))
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len("chat"))

	res2, err := e.Run(context.Background(), "second question", WithSession("chat", store))
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len("chat"))

	// The second run saw the first exchange.
	seen := provider.seenMessages[1]
	require.GreaterOrEqual(t, len(seen), 3)
	assert.Equal(t, "first question", seen[0].Content)
	assert.Equal(t, probe.RoleAssistant, seen[1].Role)
	assert.Equal(t, "first answer", seen[1].Content)
	assert.Equal(t, "second question", seen[2].Content)

	assert.Equal(t, "first answer", res1.FinalText)
	assert.Equal(t, "second answer", res2.FinalText)
}

func TestRunSessionReplayAfterFailedToolCall(t *testing.T) {
	store := session.NewStore()
	provider := &scriptedProvider{steps: []step{
		toolResponse(probe.ToolCall{ID: "c1", Name: "transfer_funds", Arguments: "{}"}),
		textResponse("continuing"),
	}}
	e := New(provider, buildRegistry(t, balanceServer()))

	_, err := e.Run(context.Background(), "first", WithSession("chat", store))
	require.Error(t, err)
	require.Equal(t, 1, store.Len("chat"))

	_, err = e.Run(context.Background(), "second", WithSession("chat", store))
	require.NoError(t, err)

	// The dangling tool call is answered before the new prompt, so the
	// replayed history alternates assistant tool calls with tool results.
	seen := provider.seenMessages[1]
	require.Len(t, seen, 4)
	assert.Equal(t, "first", seen[0].Content)
	assert.Equal(t, probe.RoleAssistant, seen[1].Role)
	require.Len(t, seen[1].ToolCalls, 1)
	assert.Equal(t, probe.RoleTool, seen[2].Role)
	require.Len(t, seen[2].ToolResults, 1)
	assert.Equal(t, "c1", seen[2].ToolResults[0].ToolCallID)
	assert.True(t, seen[2].ToolResults[0].IsError)
	assert.Equal(t, "second", seen[3].Content)
}

func TestRunAllowedToolsFiltersExposure(t *testing.T) {
	provider := &scriptedProvider{steps: []step{textResponse("ok")}}
	e := New(provider, buildRegistry(t, balanceServer()))

	_, err := e.Run(context.Background(), "hi", WithAllowedTools("get_balance"))
	require.NoError(t, err)

	tools := provider.seenTools[0]
	require.Len(t, tools, 1)
	assert.Equal(t, "get_balance", tools[0].Name)
}

func TestRunSessionWithoutStore(t *testing.T) {
	provider := &scriptedProvider{steps: []step{textResponse("ok")}}
	e := New(provider, buildRegistry(t, balanceServer()))

	res, err := e.Run(context.Background(), "hi", func(o *Options) { o.Session = "orphan" })
	require.Error(t, err)
	assert.False(t, res.Success)
	assert.Zero(t, provider.callCount())
}

func TestRunCostEstimation(t *testing.T) {
	provider := &scriptedProvider{steps: []step{textResponse("ok")}}
	e := New(provider, buildRegistry(t, balanceServer()), WithModel("claude-sonnet-4-5"))

	res, err := e.Run(context.Background(), "hi")
	require.NoError(t, err)

	// 10 input at $3/M + 5 output at $15/M.
	assert.InDelta(t, 10.0/1e6*3.00+5.0/1e6*15.00, res.Cost, 1e-12)
}
