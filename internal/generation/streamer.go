// Package generation builds the grounded prompt and proxies a token stream
// from a language-model backend selected by source tag.
package generation

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/mydrift-ai/mydrift/internal/model"
)

//go:embed prompts.toml
var promptsTOML []byte

// Event is one element of a response stream. Err set marks a terminal
// upstream failure, distinguishable from normal channel close.
type Event struct {
	Token string
	Err   error
}

// Backend is one language-model integration. Stream yields incremental text
// tokens and closes the channel at end-of-stream; the final event carries
// Err when the upstream call failed mid-stream.
type Backend interface {
	Stream(ctx context.Context, llmName, prompt string) (<-chan Event, error)
}

// Request describes one grounded generation call.
type Request struct {
	User    string
	Query   string
	Context string
	LLMName string
	Source  string
}

type promptConfig struct {
	MemoryRecall struct {
		Default string `toml:"default"`
	} `toml:"memory_recall"`
}

// Streamer selects a backend by source tag and re-yields its token stream.
type Streamer struct {
	backends map[string]Backend
	template string
}

// NewStreamer builds a streamer over the configured backends.
func NewStreamer(backends map[string]Backend) (*Streamer, error) {
	var prompts promptConfig
	if err := toml.Unmarshal(promptsTOML, &prompts); err != nil {
		return nil, fmt.Errorf("%w: parse prompt templates: %v", model.ErrSetup, err)
	}
	if prompts.MemoryRecall.Default == "" {
		return nil, fmt.Errorf("%w: memory_recall prompt template missing", model.ErrSetup)
	}
	return &Streamer{backends: backends, template: prompts.MemoryRecall.Default}, nil
}

// Generate opens a streaming call on the backend for req.Source. An
// unconfigured source tag is a configuration error, not a silent no-op.
func (s *Streamer) Generate(ctx context.Context, req Request) (<-chan Event, error) {
	backend, ok := s.backends[req.Source]
	if !ok {
		return nil, fmt.Errorf("%w: no generation backend configured for source %q", model.ErrSetup, req.Source)
	}
	return backend.Stream(ctx, req.LLMName, s.BuildPrompt(req))
}

// BuildPrompt renders the fixed grounding template.
func (s *Streamer) BuildPrompt(req Request) string {
	return strings.NewReplacer(
		"{user_name}", req.User,
		"{query}", req.Query,
		"{context}", req.Context,
	).Replace(s.template)
}
