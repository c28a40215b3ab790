package server

import (
	"context"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spetersoncode/probe"
)

// Handle is one running tool server: an MCP session over a stdio subprocess
// or any pre-built MCP client. Handles are owned by the Manager that started
// them; everything else holds non-owning references.
//
// A handle's request/response channel is single-consumer. Handle serializes
// its own protocol operations with an internal mutex, but invocations that
// assume exclusive ownership of the server (stateful tools) must still be
// serialized by the caller.
type Handle struct {
	name        string
	client      *client.Client
	cmd         *exec.Cmd // subprocess, nil when built from an external client
	stderr      io.Reader // subprocess stderr, nil when unavailable
	stopTimeout time.Duration

	mu     sync.Mutex
	closed atomic.Bool
}

// Name returns the server name from its Config.
func (h *Handle) Name() string { return h.name }

// Tools fetches the server's current tool list.
func (h *Handle) Tools(ctx context.Context) ([]probe.Tool, error) {
	if h.closed.Load() {
		return nil, &ErrStopped{Server: h.name}
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	result, err := h.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, err
	}

	tools := make([]probe.Tool, 0, len(result.Tools))
	for _, t := range result.Tools {
		tools = append(tools, fromMCPTool(t))
	}
	return tools, nil
}

// Call forwards a tool invocation to the server and converts the result.
// A tool that executes but reports failure comes back as a ToolResult with
// IsError set; the error return is reserved for protocol-level failures.
func (h *Handle) Call(ctx context.Context, call probe.ToolCall) (probe.ToolResult, error) {
	if h.closed.Load() {
		return probe.ToolResult{}, &ErrStopped{Server: h.name}
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	result, err := h.client.CallTool(ctx, toCallRequest(call))
	if err != nil {
		return probe.ToolResult{}, err
	}
	return fromCallResult(call.ID, result), nil
}

// Ping checks that the server still responds to protocol requests.
func (h *Handle) Ping(ctx context.Context) error {
	if h.closed.Load() {
		return &ErrStopped{Server: h.name}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.client.Ping(ctx)
}

// Stderr returns the subprocess stderr stream, or nil when the handle was
// built from an external client. Used by the log-pattern readiness strategy.
func (h *Handle) Stderr() io.Reader { return h.stderr }

// Close shuts down the MCP session. It is idempotent: closing an
// already-closed handle is a no-op, not an error.
func (h *Handle) Close() error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}
	return h.client.Close()
}

// kill force-terminates the subprocess, if there is one.
func (h *Handle) kill() error {
	if h.cmd == nil || h.cmd.Process == nil {
		return nil
	}
	return h.cmd.Process.Kill()
}
