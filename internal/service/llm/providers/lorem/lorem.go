// Package lorem implements a local mock provider that streams
// generated filler text. Useful for development without provider
// credentials and for exercising the pipeline in tests.
package lorem

import (
	"context"
	"strings"
	"time"

	golorem "github.com/drhodes/golorem"

	"strand/internal/service/llm"
)

// Provider streams lorem ipsum text with realistic pacing.
type Provider struct {
	// Delay between word deltas; zero in tests.
	Delay time.Duration
}

// New creates the lorem provider.
func New() *Provider {
	return &Provider{Delay: 30 * time.Millisecond}
}

// Name implements llm.Provider.
func (p *Provider) Name() string {
	return "lorem"
}

// Stream implements llm.Provider. Reasoning deltas are emitted first
// when the request carries reasoning options.
func (p *Provider) Stream(ctx context.Context, req *llm.GenerateRequest) (<-chan llm.StreamEvent, error) {
	eventChan := make(chan llm.StreamEvent, 10)

	go func() {
		defer close(eventChan)

		outputWords := 0

		if req.Options != nil && (req.Options.ThinkingBudget > 0 || req.Options.ReasoningEffort != "") {
			outputWords += p.emit(ctx, eventChan, llm.DeltaReasoning, golorem.Paragraph(2, 3))
		}

		outputWords += p.emit(ctx, eventChan, llm.DeltaText, golorem.Paragraph(3, 5))

		if ctx.Err() != nil {
			eventChan <- llm.StreamEvent{Err: ctx.Err()}
			return
		}

		eventChan <- llm.StreamEvent{
			Metadata: &llm.StreamMetadata{
				Model:        req.Model,
				InputTokens:  estimateTokens(req.Messages),
				OutputTokens: outputWords,
				StopReason:   llm.StopEndTurn,
			},
		}
	}()

	return eventChan, nil
}

// emit streams one passage word by word and returns the word count.
func (p *Provider) emit(ctx context.Context, ch chan<- llm.StreamEvent, deltaType, passage string) int {
	words := strings.Fields(passage)
	for i, word := range words {
		if ctx.Err() != nil {
			return i
		}

		text := word
		if i < len(words)-1 {
			text += " "
		}

		select {
		case <-ctx.Done():
			return i
		case ch <- llm.StreamEvent{Delta: &llm.Delta{Type: deltaType, Text: text}}:
		}

		if p.Delay > 0 {
			time.Sleep(p.Delay)
		}
	}
	return len(words)
}

func estimateTokens(messages []llm.PromptMessage) int {
	total := 0
	for _, m := range messages {
		total += len(strings.Fields(m.Content))
	}
	return total
}
