package server

import (
	"bufio"
	"context"
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"
	"time"
)

// ReadinessStrategy decides when a freshly started tool server is usable.
// Ready is polled at a bounded interval until it returns true or the start
// timeout elapses. Strategies may carry per-start state; build a fresh
// Config (and strategy) for each Start.
type ReadinessStrategy interface {
	Ready(ctx context.Context, h *Handle) (bool, error)
}

// FixedDelay returns a strategy that reports ready once the given duration
// has elapsed since the first poll.
func FixedDelay(d time.Duration) ReadinessStrategy {
	return &fixedDelay{delay: d}
}

type fixedDelay struct {
	delay time.Duration
	once  sync.Once
	start time.Time
}

func (s *fixedDelay) Ready(ctx context.Context, h *Handle) (bool, error) {
	s.once.Do(func() { s.start = time.Now() })
	return time.Since(s.start) >= s.delay, nil
}

// NamedTools returns a strategy that polls the server's tool list until all
// of the named tools appear.
func NamedTools(names ...string) ReadinessStrategy {
	return &namedTools{names: names}
}

type namedTools struct {
	names []string
}

func (s *namedTools) Ready(ctx context.Context, h *Handle) (bool, error) {
	tools, err := h.Tools(ctx)
	if err != nil {
		return false, err
	}

	have := make(map[string]bool, len(tools))
	for _, t := range tools {
		have[t.Name] = true
	}
	for _, want := range s.names {
		if !have[want] {
			return false, nil
		}
	}
	return true, nil
}

// LogPattern returns a strategy that reports ready once a subprocess stderr
// line matches the given regular expression. The pattern is compiled eagerly;
// an invalid pattern surfaces on the first poll.
func LogPattern(pattern string) ReadinessStrategy {
	re, err := regexp.Compile(pattern)
	return &logPattern{re: re, compileErr: err}
}

type logPattern struct {
	re         *regexp.Regexp
	compileErr error

	once    sync.Once
	matched atomic.Bool
}

func (s *logPattern) Ready(ctx context.Context, h *Handle) (bool, error) {
	if s.compileErr != nil {
		return false, fmt.Errorf("server: invalid log pattern: %w", s.compileErr)
	}
	stderr := h.Stderr()
	if stderr == nil {
		return false, fmt.Errorf("server: %s exposes no stderr for log-pattern readiness", h.Name())
	}

	s.once.Do(func() {
		go func() {
			scanner := bufio.NewScanner(stderr)
			for scanner.Scan() {
				if s.re.MatchString(scanner.Text()) {
					s.matched.Store(true)
					return
				}
			}
		}()
	})

	return s.matched.Load(), nil
}
