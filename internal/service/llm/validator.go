package llm

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"strand/internal/catalog"
	"strand/internal/domain"
	"strand/internal/domain/models"
)

const maxSystemPromptLength = 1000

// ChatTurnRequest is one inbound user turn.
type ChatTurnRequest struct {
	Messages        []models.IncomingMessage `json:"messages"`
	ChatID          string                   `json:"chatId"`
	Model           string                   `json:"model"`
	SystemPrompt    string                   `json:"systemPrompt,omitempty"`
	ReloadMessageID string                   `json:"reloadAssistantMessageId,omitempty"`
	EnableSearch    bool                     `json:"enableSearch,omitempty"`
	ReasoningEffort string                   `json:"reasoningEffort,omitempty"`
}

// Validate checks structural well-formedness of a turn against the
// model catalog. Any failure short-circuits with a validation error
// before credentials or providers are touched.
func (r *ChatTurnRequest) Validate(registry *catalog.Registry) error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Messages, validation.Required.Error("messages must be a non-empty array")),
		validation.Field(&r.ChatID, validation.Required.Error("chatId is required")),
		validation.Field(&r.Model, validation.Required.Error("model is required")),
		validation.Field(&r.SystemPrompt, validation.Length(0, maxSystemPromptLength).
			Error(fmt.Sprintf("systemPrompt must be at most %d characters", maxSystemPromptLength))),
		validation.Field(&r.ReasoningEffort, validation.In("", EffortLow, EffortMedium, EffortHigh).
			Error("reasoningEffort must be low, medium, or high")),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", err.Error(), domain.ErrValidation)
	}

	if _, ok := registry.Lookup(r.Model); !ok {
		return fmt.Errorf("unknown model %q: %w", r.Model, domain.ErrValidation)
	}

	return nil
}
