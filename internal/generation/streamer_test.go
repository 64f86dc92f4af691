package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mydrift-ai/mydrift/internal/model"
)

type fakeBackend struct {
	tokens  []string
	fail    error
	gotName string
	prompt  string
}

func (f *fakeBackend) Stream(ctx context.Context, llmName, prompt string) (<-chan Event, error) {
	f.gotName = llmName
	f.prompt = prompt
	events := make(chan Event)
	go func() {
		defer close(events)
		for _, tok := range f.tokens {
			select {
			case events <- Event{Token: tok}:
			case <-ctx.Done():
				return
			}
		}
		if f.fail != nil {
			select {
			case events <- Event{Err: f.fail}:
			case <-ctx.Done():
			}
		}
	}()
	return events, nil
}

func newTestStreamer(t *testing.T, backend Backend) *Streamer {
	t.Helper()
	s, err := NewStreamer(map[string]Backend{"hosted": backend})
	require.NoError(t, err)
	return s
}

func TestGenerateStreamsTokens(t *testing.T) {
	backend := &fakeBackend{tokens: []string{"I ", "remember ", "that."}}
	s := newTestStreamer(t, backend)

	events, err := s.Generate(context.Background(), Request{
		User: "alice", Query: "what was said?", Context: "alice: hi", LLMName: "big-model", Source: "hosted",
	})
	require.NoError(t, err)

	var got string
	for ev := range events {
		require.NoError(t, ev.Err)
		got += ev.Token
	}
	assert.Equal(t, "I remember that.", got)
	assert.Equal(t, "big-model", backend.gotName)
}

func TestGenerateUnknownSource(t *testing.T) {
	s := newTestStreamer(t, &fakeBackend{})
	_, err := s.Generate(context.Background(), Request{Source: "nonexistent"})
	assert.ErrorIs(t, err, model.ErrSetup)
}

func TestGenerateUpstreamErrorIsTerminalEvent(t *testing.T) {
	upstream := errors.New("backend exploded")
	backend := &fakeBackend{tokens: []string{"partial"}, fail: upstream}
	s := newTestStreamer(t, backend)

	events, err := s.Generate(context.Background(), Request{Source: "hosted"})
	require.NoError(t, err)

	var tokens []string
	var streamErr error
	for ev := range events {
		if ev.Err != nil {
			streamErr = ev.Err
			continue
		}
		tokens = append(tokens, ev.Token)
	}
	assert.Equal(t, []string{"partial"}, tokens)
	assert.ErrorIs(t, streamErr, upstream)
}

func TestGenerateConsumerCancellation(t *testing.T) {
	tokens := make([]string, 1000)
	for i := range tokens {
		tokens[i] = "tok "
	}
	backend := &fakeBackend{tokens: tokens}
	s := newTestStreamer(t, backend)

	ctx, cancel := context.WithCancel(context.Background())
	events, err := s.Generate(ctx, Request{Source: "hosted"})
	require.NoError(t, err)

	// Read a few tokens, then walk away.
	for range 3 {
		<-events
	}
	cancel()

	select {
	case _, open := <-events:
		// Either one more buffered token or a closed channel is fine; the
		// producer must stop promptly either way.
		_ = open
	case <-time.After(time.Second):
	}
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-events:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("producer kept streaming after cancellation")
		}
	}
}

func TestBuildPrompt(t *testing.T) {
	s := newTestStreamer(t, &fakeBackend{})
	prompt := s.BuildPrompt(Request{User: "alice", Query: "where?", Context: "bob: at home"})
	assert.Contains(t, prompt, "alice")
	assert.Contains(t, prompt, "where?")
	assert.Contains(t, prompt, "bob: at home")
	assert.NotContains(t, prompt, "{user_name}")
	assert.NotContains(t, prompt, "{query}")
	assert.NotContains(t, prompt, "{context}")
}
