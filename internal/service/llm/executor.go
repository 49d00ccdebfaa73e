package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"strand/internal/service/search"
)

// maxSteps bounds the tool round-trips in one turn.
const maxSteps = 5

// webSearchToolName is the single tool exposed to providers.
const webSearchToolName = "web_search"

// EventSink receives outbound stream events as they happen. The HTTP
// layer implements this over SSE; tests implement it in memory.
type EventSink interface {
	Send(event string, payload any) error
}

// Step is one provider round-trip within a turn: the assistant output
// of a single streaming call plus the tool results produced from it.
type Step struct {
	Text        string
	Reasoning   string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
	Metadata    *StreamMetadata
}

// StreamSession is the runtime state of one generation attempt.
// Created at the start of an attempt, discarded on failure, finalized
// into a persisted assistant message on success.
type StreamSession struct {
	Steps        []Step
	InputTokens  int
	OutputTokens int
	Model        string
	StopReason   string
}

// Engine drives one streaming generation attempt: it accumulates
// provider deltas into steps, forwards them to the sink, and runs the
// search tool loop until the provider stops for a reason other than
// tool use.
type Engine struct {
	search *search.Fallback
	logger *slog.Logger
}

// NewEngine creates an execution engine.
func NewEngine(searchFallback *search.Fallback, logger *slog.Logger) *Engine {
	return &Engine{search: searchFallback, logger: logger}
}

// Run executes one attempt against the given provider. The request's
// message history is extended in place as tool round-trips complete.
func (e *Engine) Run(ctx context.Context, provider Provider, req *GenerateRequest, sink EventSink) (*StreamSession, error) {
	session := &StreamSession{Model: req.Model}

	for stepIndex := 0; stepIndex < maxSteps; stepIndex++ {
		step, err := e.runStep(ctx, provider, req, sink)
		if err != nil {
			return nil, err
		}

		session.Steps = append(session.Steps, *step)
		if step.Metadata != nil {
			session.InputTokens += step.Metadata.InputTokens
			session.OutputTokens += step.Metadata.OutputTokens
			session.StopReason = step.Metadata.StopReason
			if step.Metadata.Model != "" {
				session.Model = step.Metadata.Model
			}
		}

		if session.StopReason != StopToolUse || len(step.ToolCalls) == 0 {
			return session, nil
		}

		results, err := e.executeTools(ctx, step.ToolCalls, sink)
		if err != nil {
			return nil, err
		}
		step.ToolResults = results
		session.Steps[len(session.Steps)-1].ToolResults = results

		// Feed the assistant step and its tool results back into the
		// history for the next round-trip.
		req.Messages = append(req.Messages,
			PromptMessage{
				Role:      "assistant",
				Content:   step.Text,
				Reasoning: step.Reasoning,
				ToolCalls: step.ToolCalls,
			},
			PromptMessage{
				Role:        "tool",
				ToolResults: results,
			},
		)
	}

	return nil, fmt.Errorf("generation exceeded %d tool steps", maxSteps)
}

// runStep streams one provider call to completion, forwarding deltas
// to the sink and accumulating them into a Step.
func (e *Engine) runStep(ctx context.Context, provider Provider, req *GenerateRequest, sink EventSink) (*Step, error) {
	events, err := provider.Stream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("start %s stream: %w", provider.Name(), err)
	}

	step := &Step{}
	var text, reasoning strings.Builder
	// toolCallIndex maps call IDs to positions for argument merging
	toolCallIndex := make(map[string]int)
	toolArgs := make(map[string]*strings.Builder)

	for event := range events {
		if event.Err != nil {
			return nil, event.Err
		}

		if event.Delta != nil {
			d := event.Delta
			switch d.Type {
			case DeltaText:
				text.WriteString(d.Text)
				if err := sink.Send("text_delta", map[string]string{"text": d.Text}); err != nil {
					return nil, err
				}
			case DeltaReasoning:
				reasoning.WriteString(d.Text)
				if err := sink.Send("reasoning_delta", map[string]string{"text": d.Text}); err != nil {
					return nil, err
				}
			case DeltaToolCall:
				if _, ok := toolCallIndex[d.ToolCallID]; !ok {
					toolCallIndex[d.ToolCallID] = len(step.ToolCalls)
					step.ToolCalls = append(step.ToolCalls, ToolCall{ID: d.ToolCallID, Name: d.ToolName})
					toolArgs[d.ToolCallID] = &strings.Builder{}
				}
				if d.ArgsDelta != "" {
					toolArgs[d.ToolCallID].WriteString(d.ArgsDelta)
				}
			}
		}

		if event.Metadata != nil {
			step.Metadata = event.Metadata
		}
	}

	if step.Metadata == nil {
		return nil, fmt.Errorf("%s stream closed without metadata", provider.Name())
	}

	step.Text = text.String()
	step.Reasoning = reasoning.String()
	for id, idx := range toolCallIndex {
		args := toolArgs[id].String()
		if args == "" {
			args = "{}"
		}
		step.ToolCalls[idx].Args = json.RawMessage(args)
	}

	for _, call := range step.ToolCalls {
		if err := sink.Send("tool_call", map[string]any{
			"toolCallId": call.ID,
			"toolName":   call.Name,
			"args":       call.Args,
		}); err != nil {
			return nil, err
		}
	}

	return step, nil
}

// executeTools runs the step's tool calls sequentially and emits the
// results. A failed search is fed back to the model as an error result
// instead of aborting the turn.
func (e *Engine) executeTools(ctx context.Context, calls []ToolCall, sink EventSink) ([]ToolResult, error) {
	results := make([]ToolResult, 0, len(calls))

	for _, call := range calls {
		content := e.executeTool(ctx, call)
		result := ToolResult{ToolCallID: call.ID, Content: content}
		results = append(results, result)

		if err := sink.Send("tool_result", map[string]string{
			"toolCallId": call.ID,
			"content":    content,
		}); err != nil {
			return nil, err
		}
	}

	return results, nil
}

func (e *Engine) executeTool(ctx context.Context, call ToolCall) string {
	if call.Name != webSearchToolName {
		return fmt.Sprintf("unknown tool: %s", call.Name)
	}

	var input struct {
		Query      string `json:"query"`
		MaxResults int    `json:"max_results"`
	}
	if err := json.Unmarshal(call.Args, &input); err != nil || strings.TrimSpace(input.Query) == "" {
		return "search failed: missing required parameter: query"
	}

	results, err := e.search.Search(ctx, input.Query, search.Options{
		MaxResults:     input.MaxResults,
		IncludeContent: true,
	})
	if err != nil {
		e.logger.Warn("search tool failed", "query", input.Query, "error", err)
		return fmt.Sprintf("search failed: %s", err.Error())
	}

	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(r.Markdown)
	}
	return b.String()
}

// WebSearchTool is the tool definition advertised to providers when
// search is enabled.
func WebSearchTool() ToolDefinition {
	return ToolDefinition{
		Name:        webSearchToolName,
		Description: "Search the web for current information. Returns a list of results with titles, URLs, and page content.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query",
				},
				"max_results": map[string]any{
					"type":        "integer",
					"description": "Maximum number of results to return",
				},
			},
			"required": []string{"query"},
		},
	}
}
