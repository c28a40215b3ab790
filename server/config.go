package server

import (
	"fmt"
	"os"
	"sort"
	"time"
)

// Default lifecycle timings, used when the corresponding Config field is zero.
const (
	DefaultStartTimeout = 30 * time.Second
	DefaultStopTimeout  = 5 * time.Second
	DefaultPollInterval = 100 * time.Millisecond
)

// Config describes how to launch and health-check one tool server.
// It is constructed by the caller and consumed by a Manager per Start.
type Config struct {
	// Name identifies the server; it qualifies tool names on collision and
	// appears in traces. Required.
	Name string

	// Command and Args launch the server subprocess speaking MCP over stdio.
	// Command may be empty when the handle is built from an existing client
	// (see Manager.StartClient).
	Command string
	Args    []string

	// Env contains environment variable overrides for the subprocess.
	// Values support ${VAR} expansion against the parent environment,
	// performed before spawn.
	Env map[string]string

	// Dir is the working directory for the subprocess. Empty means inherit.
	Dir string

	// Readiness decides when the started server is usable. It is polled at
	// PollInterval until it reports ready or StartTimeout elapses.
	// Nil means ready as soon as the MCP session is initialized.
	Readiness ReadinessStrategy

	// StartTimeout bounds spawn + initialize + readiness.
	StartTimeout time.Duration

	// StopTimeout bounds graceful shutdown before the process is killed.
	StopTimeout time.Duration

	// PollInterval is the readiness polling interval.
	PollInterval time.Duration
}

func (c Config) validate() error {
	if c.Name == "" {
		return fmt.Errorf("server: config requires a name")
	}
	return nil
}

func (c Config) startTimeout() time.Duration {
	if c.StartTimeout > 0 {
		return c.StartTimeout
	}
	return DefaultStartTimeout
}

func (c Config) stopTimeout() time.Duration {
	if c.StopTimeout > 0 {
		return c.StopTimeout
	}
	return DefaultStopTimeout
}

func (c Config) pollInterval() time.Duration {
	if c.PollInterval > 0 {
		return c.PollInterval
	}
	return DefaultPollInterval
}

// expandEnv renders the Env map as KEY=VALUE pairs with ${VAR} references
// expanded against the parent process environment. Keys are sorted so the
// spawn is deterministic.
func (c Config) expandEnv() []string {
	if len(c.Env) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+os.Expand(c.Env[k], os.Getenv))
	}
	return env
}
