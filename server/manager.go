package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	clientName    = "probe"
	clientVersion = "0.1.0"
)

// Manager starts, health-checks and tears down tool server handles. It owns
// every handle it starts for the handle's whole process lifetime.
//
// Share one Manager per test run by passing it explicitly; never keep a
// package-level instance.
type Manager struct {
	logger *slog.Logger

	mu      sync.Mutex
	handles []*Handle
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger for lifecycle events.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = l
	}
}

// NewManager creates a Manager with no running handles.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start spawns the configured subprocess, initializes the MCP session and
// applies the readiness strategy. It fails with *StartError when readiness
// is not observed before cfg's start timeout, tearing the process down.
func (m *Manager) Start(ctx context.Context, cfg Config) (*Handle, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Command == "" {
		return nil, &StartError{Server: cfg.Name, Err: errors.New("no command configured")}
	}

	h := &Handle{name: cfg.Name, stopTimeout: cfg.stopTimeout()}

	c, err := client.NewStdioMCPClientWithOptions(
		cfg.Command,
		cfg.expandEnv(),
		cfg.Args,
		transport.WithCommandFunc(func(ctx context.Context, command string, args []string, env []string) (*exec.Cmd, error) {
			cmd := exec.CommandContext(ctx, command, args...)
			cmd.Env = append(os.Environ(), env...)
			cmd.Dir = cfg.Dir
			h.cmd = cmd
			return cmd, nil
		}),
	)
	if err != nil {
		return nil, &StartError{Server: cfg.Name, Err: err}
	}
	h.client = c
	if stderr, ok := client.GetStderr(c); ok {
		h.stderr = stderr
	}

	return m.awaitReady(ctx, cfg, h)
}

// StartClient builds a handle from a pre-built MCP client (e.g. an
// in-process server) and runs it through the same initialize + readiness
// path as Start. cfg.Command is ignored.
func (m *Manager) StartClient(ctx context.Context, cfg Config, c *client.Client) (*Handle, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	h := &Handle{name: cfg.Name, client: c, stopTimeout: cfg.stopTimeout()}
	return m.awaitReady(ctx, cfg, h)
}

func (m *Manager) awaitReady(ctx context.Context, cfg Config, h *Handle) (*Handle, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.startTimeout())
	defer cancel()

	fail := func(err error) (*Handle, error) {
		h.Close()
		return nil, &StartError{Server: cfg.Name, Err: err}
	}

	if err := h.client.Start(ctx); err != nil {
		return fail(fmt.Errorf("start client: %w", err))
	}

	_, err := h.client.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    clientName,
				Version: clientVersion,
			},
		},
	})
	if err != nil {
		return fail(fmt.Errorf("initialize session: %w", err))
	}

	if cfg.Readiness != nil {
		if err := m.pollReady(ctx, cfg, h); err != nil {
			return fail(err)
		}
	}

	m.mu.Lock()
	m.handles = append(m.handles, h)
	m.mu.Unlock()

	m.logger.Debug("tool server ready", "server", cfg.Name, "command", cfg.Command)
	return h, nil
}

// pollReady polls the readiness strategy at the configured interval until it
// reports ready or ctx (bounded by the start timeout) expires. A strategy
// error does not abort polling; the last one is reported on timeout.
func (m *Manager) pollReady(ctx context.Context, cfg Config, h *Handle) error {
	interval := cfg.pollInterval()
	var lastErr error

	for {
		ok, err := cfg.Readiness.Ready(ctx, h)
		if err != nil {
			lastErr = err
		} else if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			if lastErr != nil {
				return fmt.Errorf("readiness not observed: %w", lastErr)
			}
			return fmt.Errorf("readiness not observed within %s", cfg.startTimeout())
		case <-time.After(interval):
		}
	}
}

// Stop closes the handle gracefully, killing the subprocess when graceful
// shutdown exceeds the configured stop timeout. Stopping an already-stopped
// handle is a no-op.
func (m *Manager) Stop(h *Handle) error {
	if h == nil || h.closed.Load() {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- h.Close() }()

	select {
	case err := <-done:
		m.logger.Debug("tool server stopped", "server", h.Name())
		return err
	case <-time.After(h.stopTimeout):
		m.logger.Warn("tool server did not stop in time, killing", "server", h.Name())
		if err := h.kill(); err != nil {
			return fmt.Errorf("server: kill %s: %w", h.Name(), err)
		}
		return nil
	}
}

// StopAll stops every handle this manager started, keeping going on errors.
func (m *Manager) StopAll() error {
	m.mu.Lock()
	handles := make([]*Handle, len(m.handles))
	copy(handles, m.handles)
	m.mu.Unlock()

	var errs []error
	for _, h := range handles {
		if err := m.Stop(h); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
