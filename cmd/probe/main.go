// Command probe runs tool-calling conversations against a configured
// provider and a set of MCP tool servers, printing each run result as
// JSON.
//
// Usage:
//
//	probe -config probe.yaml [-session name] "prompt text"
//
// Without -session the command runs the one prompt and exits. With
// -session it runs the prompt, then keeps reading follow-up prompts from
// stdin (one per line) until EOF, each continuing the named session.
//
// API keys come from the environment (or a .env file): ANTHROPIC_API_KEY,
// OPENAI_API_KEY or GOOGLE_API_KEY depending on the configured provider.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spetersoncode/probe"
	"github.com/spetersoncode/probe/engine"
	"github.com/spetersoncode/probe/gateway"
	"github.com/spetersoncode/probe/registry"
	"github.com/spetersoncode/probe/server"
	"github.com/spetersoncode/probe/session"
)

func main() {
	configPath := flag.String("config", "probe.yaml", "path to the YAML configuration file")
	sessionName := flag.String("session", "", "named session to continue")
	flag.Parse()

	prompt := strings.Join(flag.Args(), " ")
	if strings.TrimSpace(prompt) == "" {
		fmt.Fprintln(os.Stderr, "usage: probe [-config file] [-session name] <prompt>")
		os.Exit(2)
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "probe:", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(context.Background(), cfg, logger, prompt, *sessionName); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *Config, logger *slog.Logger, prompt, sessionName string) error {
	manager := server.NewManager(server.WithLogger(logger))
	defer func() {
		if err := manager.StopAll(); err != nil {
			logger.Warn("stopping tool servers", "error", err)
		}
	}()

	callers := make([]registry.Caller, 0, len(cfg.Servers))
	for _, sc := range cfg.Servers {
		h, err := manager.Start(ctx, sc.serverConfig())
		if err != nil {
			logger.Error("starting tool server", "server", sc.Name, "error", err)
			return err
		}
		callers = append(callers, h)
	}

	reg, err := registry.Build(ctx, callers)
	if err != nil {
		logger.Error("building tool registry", "error", err)
		return err
	}
	logger.Info("tools registered", "names", reg.Names())

	provider, err := gateway.New(ctx, probe.Provider(cfg.Provider), cfg.Model,
		gateway.WithAPIKey(cfg.APIKey),
		gateway.WithMaxTokens(cfg.MaxTokens),
	)
	if err != nil {
		logger.Error("constructing provider gateway", "error", err)
		return err
	}

	opts := []engine.Option{
		engine.WithModel(cfg.Model),
		engine.WithLogger(logger),
	}
	if cfg.MaxTurns > 0 {
		opts = append(opts, engine.WithMaxTurns(cfg.MaxTurns))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, engine.WithMaxRetries(cfg.MaxRetries))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, engine.WithTimeout(time.Duration(cfg.Timeout)))
	}
	if cfg.Instructions != "" {
		opts = append(opts, engine.WithInstructions(cfg.Instructions))
	}
	if cfg.RateLimit > 0 {
		opts = append(opts, engine.WithRateLimit(cfg.RateLimit))
	}
	if len(cfg.AllowedTools) > 0 {
		opts = append(opts, engine.WithAllowedTools(cfg.AllowedTools...))
	}

	e := engine.New(provider, reg, opts...)

	if sessionName != "" {
		return runSession(ctx, e, logger, os.Stdout, os.Stdin, sessionName, prompt)
	}

	result, runErr := e.Run(ctx, prompt)
	if runErr != nil {
		logger.Error("run failed", "termination", string(result.Termination), "error", runErr)
	}
	if err := printResult(os.Stdout, result); err != nil {
		logger.Error("encoding result", "error", err)
		return err
	}
	return runErr
}

// runSession executes the first prompt in the named session, then keeps
// reading follow-up prompts from in (one per line) until EOF, each run
// seeing the turns of the runs before it.
func runSession(ctx context.Context, e *engine.Engine, logger *slog.Logger, out io.Writer, in io.Reader, name, first string) error {
	store := session.NewStore()
	opt := engine.WithSession(name, store)

	scanner := bufio.NewScanner(in)
	prompt := first
	var lastErr error
	for {
		result, err := e.Run(ctx, prompt, opt)
		lastErr = err
		if err != nil {
			logger.Error("run failed", "termination", string(result.Termination), "error", err)
		}
		if err := printResult(out, result); err != nil {
			logger.Error("encoding result", "error", err)
			return err
		}

		prompt = ""
		for prompt == "" {
			if !scanner.Scan() {
				return lastErr
			}
			prompt = strings.TrimSpace(scanner.Text())
		}
	}
}

func printResult(out io.Writer, result *engine.Result) error {
	b, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
