package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/spetersoncode/probe"
	"github.com/spetersoncode/probe/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// replyProvider answers each call with the next canned reply and records
// the messages it was sent.
type replyProvider struct {
	replies []string
	calls   int
	seen    [][]probe.Message
}

func (p *replyProvider) Converse(ctx context.Context, messages []probe.Message, tools []probe.Tool) (*probe.Response, error) {
	msgs := make([]probe.Message, len(messages))
	copy(msgs, messages)
	p.seen = append(p.seen, msgs)

	reply := p.replies[p.calls]
	p.calls++
	return &probe.Response{Content: reply, FinishReason: "stop"}, nil
}

func TestRunSessionContinuesAcrossPrompts(t *testing.T) {
	provider := &replyProvider{replies: []string{"one", "two"}}
	e := engine.New(provider, nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var out bytes.Buffer
	in := strings.NewReader("second question\n")

	err := runSession(context.Background(), e, logger, &out, in, "chat", "first question")
	require.NoError(t, err)
	require.Equal(t, 2, provider.calls)

	// The second run replayed the first exchange from the session store.
	seen := provider.seen[1]
	require.Len(t, seen, 3)
	assert.Equal(t, "first question", seen[0].Content)
	assert.Equal(t, probe.RoleAssistant, seen[1].Role)
	assert.Equal(t, "one", seen[1].Content)
	assert.Equal(t, "second question", seen[2].Content)

	// One result printed per prompt.
	assert.Contains(t, out.String(), "one")
	assert.Contains(t, out.String(), "two")
}

func TestRunSessionStopsAtEOF(t *testing.T) {
	provider := &replyProvider{replies: []string{"only"}}
	e := engine.New(provider, nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var out bytes.Buffer
	err := runSession(context.Background(), e, logger, &out, strings.NewReader(""), "chat", "hello")
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)
}
