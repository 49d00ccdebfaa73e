package models

import "time"

// Message part types
const (
	PartTypeText           = "text"
	PartTypeReasoning      = "reasoning"
	PartTypeToolInvocation = "tool-invocation"
	PartTypeError          = "error"
)

// Tool invocation states
const (
	ToolStateCall        = "call"
	ToolStateResult      = "result"
	ToolStatePartialCall = "partial-call"
)

// ToolInvocation is one call-and-result pair between the model and an
// external capability (e.g. web search), tracked by a stable call identifier.
// A result arriving without a matching call is still recorded but flagged
// as orphaned.
type ToolInvocation struct {
	ToolCallID string         `json:"tool_call_id"`
	ToolName   string         `json:"tool_name"`
	Args       map[string]any `json:"args,omitempty"`
	Result     any            `json:"result,omitempty"`
	State      string         `json:"state"`
	Orphaned   bool           `json:"orphaned,omitempty"`
}

// MessagePart is one typed segment of a persisted message.
// Exactly one of the payload fields is populated, selected by Type.
type MessagePart struct {
	Type           string          `json:"type"`
	Text           string          `json:"text,omitempty"`
	Reasoning      string          `json:"reasoning,omitempty"`
	ToolInvocation *ToolInvocation `json:"tool_invocation,omitempty"`
	ErrorKind      string          `json:"error_kind,omitempty"`
	ErrorMessage   string          `json:"error_message,omitempty"`
}

// MessageMetadata captures generation statistics persisted with an
// assistant message.
type MessageMetadata struct {
	Model            string `json:"model"`
	InputTokens      int    `json:"input_tokens"`
	OutputTokens     int    `json:"output_tokens"`
	DurationMS       int64  `json:"duration_ms"`
	SearchEnabled    bool   `json:"search_enabled,omitempty"`
	ReasoningEffort  string `json:"reasoning_effort,omitempty"`
	UsedUserKey      bool   `json:"used_user_key,omitempty"`
	FallbackAttempts int    `json:"fallback_attempts,omitempty"`
}

// Message is one persisted turn in a chat transcript.
// Assistant messages point at the triggering user message via
// ParentMessageID so the transcript never silently drops a turn.
type Message struct {
	ID              string           `json:"id" db:"id"`
	ChatID          string           `json:"chat_id" db:"chat_id"`
	Role            string           `json:"role" db:"role"` // "user" or "assistant"
	Content         string           `json:"content" db:"content"`
	ParentMessageID *string          `json:"parent_message_id,omitempty" db:"parent_message_id"`
	Parts           []MessagePart    `json:"parts,omitempty" db:"parts"`
	Metadata        *MessageMetadata `json:"metadata,omitempty" db:"metadata"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
}

// Attachment references an uploaded file attached to a user message.
// StorageID is the stable reference; URL is fetchable but may expire and
// is re-resolved immediately before each provider call.
type Attachment struct {
	StorageID   string `json:"storage_id"`
	URL         string `json:"url,omitempty"`
	Name        string `json:"name,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// IncomingMessage is one prior message in an inbound chat turn payload.
type IncomingMessage struct {
	Role        string       `json:"role"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
}
