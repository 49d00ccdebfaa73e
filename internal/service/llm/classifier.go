package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"strand/internal/domain"
)

// Error kinds in the classification taxonomy.
const (
	KindValidation       = "VALIDATION_ERROR"
	KindAuth             = "AUTH_ERROR"
	KindUserKey          = "USER_KEY_ERROR"
	KindRateLimit        = "RATE_LIMIT"
	KindUsageLimit       = "USAGE_LIMIT"
	KindModelUnavailable = "MODEL_UNAVAILABLE"
	KindContentFiltered  = "CONTENT_FILTERED"
	KindContextTooLong   = "CONTEXT_TOO_LONG"
	KindTimeout          = "TIMEOUT"
	KindToolError        = "TOOL_ERROR"
	KindGeneration       = "GENERATION_ERROR"
	KindSystem           = "SYSTEM_ERROR"
)

// Display policies decide where a classified error surfaces.
const (
	DisplayConversation = "conversation"
	DisplayToast        = "toast"
	DisplayBoth         = "both"
)

// ClassifiedError is the normalized form of any failure in the
// pipeline. Constructed once at the catch site and never mutated.
type ClassifiedError struct {
	Kind              string
	RawMessage        string
	UserFacingMessage string
	HTTPStatus        int
	DisplayPolicy     string
}

// ConversationVisible reports whether the error belongs in the chat
// transcript as an assistant error part.
func (e *ClassifiedError) ConversationVisible() bool {
	return e.DisplayPolicy == DisplayConversation || e.DisplayPolicy == DisplayBoth
}

// kindInfo fixes the status, display policy, and user-facing message
// for one kind. Lookup tables, not branching logic.
type kindInfo struct {
	status  int
	display string
	message string
}

var kindTable = map[string]kindInfo{
	KindValidation:       {http.StatusBadRequest, DisplayToast, "Your request was invalid. Please check it and try again."},
	KindAuth:             {http.StatusUnauthorized, DisplayToast, "You are not authenticated. Please sign in again."},
	KindUserKey:          {http.StatusUnauthorized, DisplayBoth, "Your API key for this provider is missing or invalid. Check your key settings."},
	KindRateLimit:        {http.StatusTooManyRequests, DisplayConversation, "The model is receiving too many requests. Please wait a moment and try again."},
	KindUsageLimit:       {http.StatusForbidden, DisplayBoth, "You have reached your usage limit. Add your own API key to continue."},
	KindModelUnavailable: {http.StatusServiceUnavailable, DisplayConversation, "This model is currently unavailable. Please try a different model."},
	KindContentFiltered:  {http.StatusUnprocessableEntity, DisplayConversation, "The response was blocked by the provider's content filter."},
	KindContextTooLong:   {http.StatusRequestEntityTooLarge, DisplayConversation, "The conversation is too long for this model. Start a new chat or switch models."},
	KindTimeout:          {http.StatusGatewayTimeout, DisplayConversation, "The request timed out. Please try again."},
	KindToolError:        {http.StatusBadGateway, DisplayConversation, "A tool call failed during generation. The response may be incomplete."},
	KindGeneration:       {http.StatusBadGateway, DisplayConversation, "The model failed to generate a response. Please try again."},
	KindSystem:           {http.StatusInternalServerError, DisplayConversation, "Something went wrong. Please try again."},
}

// substringRules is the message-matching ladder, tried in order after
// the typed checks. First match wins.
var substringRules = []struct {
	kind     string
	patterns []string
}{
	{KindRateLimit, []string{"rate limit", "rate_limit", "quota", "429", "too many requests"}},
	{KindModelUnavailable, []string{"model not available", "model_not_found", "model is not available", "overloaded", "unavailable"}},
	{KindContentFiltered, []string{"content filter", "content_filter", "safety", "blocked by", "refusal"}},
	{KindContextTooLong, []string{"context length", "context_length", "token limit", "maximum context", "too many tokens", "prompt is too long"}},
	{KindTimeout, []string{"timeout", "timed out", "deadline exceeded", "aborted", "canceled", "cancelled"}},
	{KindToolError, []string{"search", "tool"}},
	{KindAuth, []string{"authentication", "unauthenticated", "not authenticated", "unauthorized", "401"}},
	{KindUserKey, []string{"user key", "api key", "api_key", "invalid key", "incorrect api key"}},
	{KindUsageLimit, []string{"daily limit", "monthly limit", "usage limit", "limit reached"}},
	{KindValidation, []string{"validation", "invalid", "required", "must be"}},
	{KindGeneration, []string{"generation", "completion", "response"}},
}

// Classify maps any error to a ClassifiedError. Total: it never fails
// and never returns nil for a non-nil error.
func Classify(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	raw := normalizeMessage(err.Error())

	var rateErr *RateLimitError
	if errors.As(err, &rateErr) {
		return build(KindRateLimit, raw)
	}

	switch {
	case errors.Is(err, ErrUserKeyRequired):
		return build(KindUserKey, raw)
	case errors.Is(err, domain.ErrUsageLimit):
		return build(KindUsageLimit, raw)
	case errors.Is(err, domain.ErrValidation):
		return build(KindValidation, raw)
	case errors.Is(err, domain.ErrUnauthorized):
		return build(KindAuth, raw)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return build(KindTimeout, raw)
	}

	lower := strings.ToLower(raw)
	for _, rule := range substringRules {
		for _, pattern := range rule.patterns {
			if strings.Contains(lower, pattern) {
				return build(rule.kind, raw)
			}
		}
	}

	return build(KindSystem, raw)
}

func build(kind, raw string) *ClassifiedError {
	info := kindTable[kind]
	return &ClassifiedError{
		Kind:              kind,
		RawMessage:        raw,
		UserFacingMessage: info.message,
		HTTPStatus:        info.status,
		DisplayPolicy:     info.display,
	}
}

// normalizeMessage unwraps a provider error body embedded in the
// message. Providers often return JSON like {"error":{"message":...}};
// classification should run on the human-readable message inside.
func normalizeMessage(msg string) string {
	start := strings.IndexByte(msg, '{')
	if start < 0 {
		return msg
	}

	body := msg[start:]
	if !gjson.Valid(body) {
		return msg
	}

	for _, path := range []string{"error.message", "error", "message"} {
		if v := gjson.Get(body, path); v.Exists() && v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}

	return msg
}
