package generation

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/mydrift-ai/mydrift/internal/model"
)

// maxResponseTokens caps one grounded answer.
const maxResponseTokens = 1024

// AnthropicBackend streams completions from the hosted Anthropic API.
type AnthropicBackend struct {
	client anthropic.Client
}

// NewAnthropicBackend builds the hosted backend with the given credential.
func NewAnthropicBackend(apiKey string) *AnthropicBackend {
	return &AnthropicBackend{client: anthropic.NewClient(option.WithAPIKey(apiKey))}
}

// Stream opens a streaming message call and re-yields each text delta.
func (b *AnthropicBackend) Stream(ctx context.Context, llmName, prompt string) (<-chan Event, error) {
	stream := b.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(llmName),
		MaxTokens: maxResponseTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})

	events := make(chan Event)
	go func() {
		defer close(events)
		defer stream.Close()

		for stream.Next() {
			event := stream.Current()
			switch evt := event.AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				switch delta := evt.Delta.AsAny().(type) {
				case anthropic.TextDelta:
					select {
					case events <- Event{Token: delta.Text}:
					case <-ctx.Done():
						return
					}
				}
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			select {
			case events <- Event{Err: fmt.Errorf("%w: anthropic: %v", model.ErrUpstreamGeneration, err)}:
			case <-ctx.Done():
			}
		}
	}()
	return events, nil
}
