package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"strand/internal/service/llm"
)

// Stream implements llm.Provider. It returns a channel that emits
// deltas as they arrive from the API, terminated by a metadata event.
func (p *Provider) Stream(ctx context.Context, req *llm.GenerateRequest) (<-chan llm.StreamEvent, error) {
	if req.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(req.APIKey))
	params := buildParams(req)

	// Buffered to prevent blocking the SDK's event loop
	eventChan := make(chan llm.StreamEvent, 10)

	go func() {
		defer close(eventChan)

		stream := client.Messages.NewStreaming(ctx, params)

		// Accumulator for final message metadata
		message := anthropic.Message{}
		// blockTools tracks which content block index carries which
		// tool call, so argument deltas can be attributed
		blockTools := make(map[int64]toolIdentity)

		for stream.Next() {
			event := stream.Current()

			if err := message.Accumulate(event); err != nil {
				eventChan <- llm.StreamEvent{Err: fmt.Errorf("failed to accumulate message: %w", err)}
				return
			}

			streamEvent, ok := transformStreamEvent(event, blockTools)
			if !ok {
				continue
			}

			select {
			case <-ctx.Done():
				eventChan <- llm.StreamEvent{Err: ctx.Err()}
				return
			case eventChan <- streamEvent:
			}
		}

		if err := stream.Err(); err != nil {
			eventChan <- llm.StreamEvent{Err: fmt.Errorf("anthropic streaming error: %w", err)}
			return
		}

		eventChan <- llm.StreamEvent{
			Metadata: &llm.StreamMetadata{
				Model:        string(message.Model),
				InputTokens:  int(message.Usage.InputTokens),
				OutputTokens: int(message.Usage.OutputTokens),
				StopReason:   string(message.StopReason),
			},
		}
	}()

	return eventChan, nil
}

type toolIdentity struct {
	id   string
	name string
}

// transformStreamEvent converts one Anthropic streaming event to a
// neutral StreamEvent. Events with nothing to forward return ok=false.
func transformStreamEvent(event anthropic.MessageStreamEventUnion, blockTools map[int64]toolIdentity) (llm.StreamEvent, bool) {
	switch e := event.AsAny().(type) {
	case anthropic.ContentBlockStartEvent:
		if e.ContentBlock.Type == "tool_use" {
			identity := toolIdentity{id: e.ContentBlock.ID, name: e.ContentBlock.Name}
			blockTools[e.Index] = identity
			return llm.StreamEvent{Delta: &llm.Delta{
				Type:       llm.DeltaToolCall,
				ToolCallID: identity.id,
				ToolName:   identity.name,
			}}, true
		}
		return llm.StreamEvent{}, false

	case anthropic.ContentBlockDeltaEvent:
		switch e.Delta.Type {
		case "text_delta":
			return llm.StreamEvent{Delta: &llm.Delta{
				Type: llm.DeltaText,
				Text: e.Delta.Text,
			}}, true
		case "thinking_delta":
			return llm.StreamEvent{Delta: &llm.Delta{
				Type: llm.DeltaReasoning,
				Text: e.Delta.Thinking,
			}}, true
		case "input_json_delta":
			identity := blockTools[e.Index]
			return llm.StreamEvent{Delta: &llm.Delta{
				Type:       llm.DeltaToolCall,
				ToolCallID: identity.id,
				ToolName:   identity.name,
				ArgsDelta:  e.Delta.PartialJSON,
			}}, true
		}
		return llm.StreamEvent{}, false

	default:
		// MessageStart, block/message stops and deltas carry nothing
		// the consumer needs; metadata is sent after the stream ends.
		return llm.StreamEvent{}, false
	}
}
