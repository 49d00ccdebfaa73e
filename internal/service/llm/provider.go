// Package llm implements the generation pipeline: request validation,
// credential resolution, provider option construction, streaming
// execution with tool calls, response aggregation, and error
// classification.
package llm

import (
	"context"
	"encoding/json"
)

// Delta types emitted by providers during a stream.
const (
	DeltaText      = "text"
	DeltaReasoning = "reasoning"
	DeltaToolCall  = "tool_call"
)

// Stop reasons reported at the end of a provider step.
const (
	StopEndTurn   = "end_turn"
	StopToolUse   = "tool_use"
	StopMaxTokens = "max_tokens"
)

// ToolCall is one function call requested by the model.
type ToolCall struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

// ToolResult is the outcome of one executed tool call, fed back to the
// model on the next step.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
}

// PromptMessage is one message in the history sent to a provider.
// Tool calls and results ride on the message that produced them.
type PromptMessage struct {
	Role        string
	Content     string
	Reasoning   string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
	Attachments []ResolvedAttachment
}

// ResolvedAttachment is an attachment with a fetchable URL, resolved
// immediately before the provider call.
type ResolvedAttachment struct {
	URL         string
	Name        string
	ContentType string
}

// ToolDefinition describes a callable tool in provider-neutral form.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// ProviderOptions carries the provider-native reasoning parameters
// produced by BuildProviderOptions. Zero-valued fields mean the option
// is omitted from the provider request.
type ProviderOptions struct {
	// ThinkingBudget is the token budget for budget-style providers.
	ThinkingBudget int
	// ReasoningEffort is the effort level for string-effort providers.
	ReasoningEffort string
	// ReasoningSummary requests a reasoning summary alongside the
	// effort level.
	ReasoningSummary string
}

// GenerateRequest parameterizes one streaming generation attempt.
type GenerateRequest struct {
	Model    string
	System   string
	Messages []PromptMessage
	Tools    []ToolDefinition
	Options  *ProviderOptions
	// APIKey is the credential chosen for this attempt.
	APIKey string
}

// Delta is one incremental piece of provider output.
type Delta struct {
	Type string
	Text string
	// Tool call deltas carry the call identity plus argument fragments.
	ToolCallID string
	ToolName   string
	ArgsDelta  string
}

// StreamMetadata is the terminal summary of one provider step.
type StreamMetadata struct {
	Model        string
	InputTokens  int
	OutputTokens int
	StopReason   string
}

// StreamEvent is one event on a provider stream. Exactly one of the
// fields is set.
type StreamEvent struct {
	Delta    *Delta
	Metadata *StreamMetadata
	Err      error
}

// Provider is one streaming LLM backend. Stream returns immediately
// with an event channel; the channel is closed after the terminal
// metadata or error event.
type Provider interface {
	Name() string
	Stream(ctx context.Context, req *GenerateRequest) (<-chan StreamEvent, error)
}
