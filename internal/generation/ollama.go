package generation

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mydrift-ai/mydrift/internal/model"
)

// OllamaBackend streams completions from a self-hosted Ollama server.
type OllamaBackend struct {
	http *resty.Client
}

// NewOllamaBackend builds the self-hosted backend. baseURL may omit the
// scheme.
func NewOllamaBackend(baseURL string) *OllamaBackend {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5 * time.Minute)
	return &OllamaBackend{http: client}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatChunk struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error"`
}

// Stream posts a streaming chat call and re-yields each NDJSON token line.
func (b *OllamaBackend) Stream(ctx context.Context, llmName, prompt string) (<-chan Event, error) {
	resp, err := b.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetBody(chatRequest{
			Model:    llmName,
			Messages: []chatMessage{{Role: "user", Content: prompt}},
			Stream:   true,
		}).
		Post("/api/chat")
	if err != nil {
		return nil, fmt.Errorf("%w: ollama chat: %v", model.ErrUpstreamGeneration, err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		_ = resp.RawBody().Close()
		return nil, fmt.Errorf("%w: ollama chat: status %d", model.ErrUpstreamGeneration, resp.StatusCode())
	}

	events := make(chan Event)
	go func() {
		defer close(events)
		defer func() { _ = resp.RawBody().Close() }()

		scanner := bufio.NewScanner(resp.RawBody())
		for scanner.Scan() {
			var chunk chatChunk
			if err := json.Unmarshal(scanner.Bytes(), &chunk); err != nil {
				sendEvent(ctx, events, Event{Err: fmt.Errorf("%w: ollama chat: decode stream: %v", model.ErrUpstreamGeneration, err)})
				return
			}
			if chunk.Error != "" {
				sendEvent(ctx, events, Event{Err: fmt.Errorf("%w: ollama chat: %s", model.ErrUpstreamGeneration, chunk.Error)})
				return
			}
			if chunk.Message.Content != "" {
				if !sendEvent(ctx, events, Event{Token: chunk.Message.Content}) {
					return
				}
			}
			if chunk.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			sendEvent(ctx, events, Event{Err: fmt.Errorf("%w: ollama chat: %v", model.ErrUpstreamGeneration, err)})
		}
	}()
	return events, nil
}

func sendEvent(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
