// Package openai implements the streaming provider for OpenAI models
// via the Responses API.
package openai

import (
	"encoding/json"
	"fmt"

	"strand/internal/service/llm"
)

const defaultBaseURL = "https://api.openai.com/v1/responses"

// Provider streams OpenAI responses. The HTTP client is shared; the
// credential is attached per request.
type Provider struct {
	baseURL string
}

// New creates the OpenAI provider.
func New() *Provider {
	return &Provider{baseURL: defaultBaseURL}
}

// NewWithBaseURL creates a provider pointed at a custom endpoint,
// used by tests.
func NewWithBaseURL(baseURL string) *Provider {
	return &Provider{baseURL: baseURL}
}

// Name implements llm.Provider.
func (p *Provider) Name() string {
	return "openai"
}

// buildBody assembles the Responses API request payload.
func buildBody(req *llm.GenerateRequest) ([]byte, error) {
	input := make([]map[string]any, 0, len(req.Messages))
	for _, msg := range req.Messages {
		if msg.Content != "" || len(msg.Attachments) > 0 {
			role := msg.Role
			if role == "tool" {
				role = "user"
			}

			content := []map[string]any{}
			if msg.Content != "" {
				contentType := "input_text"
				if msg.Role == "assistant" {
					contentType = "output_text"
				}
				content = append(content, map[string]any{"type": contentType, "text": msg.Content})
			}
			for _, att := range msg.Attachments {
				if att.URL == "" {
					continue
				}
				content = append(content, map[string]any{"type": "input_image", "image_url": att.URL})
			}

			if len(content) > 0 {
				input = append(input, map[string]any{"role": role, "content": content})
			}
		}

		for _, call := range msg.ToolCalls {
			input = append(input, map[string]any{
				"type":      "function_call",
				"call_id":   call.ID,
				"name":      call.Name,
				"arguments": string(call.Args),
			})
		}

		for _, res := range msg.ToolResults {
			input = append(input, map[string]any{
				"type":    "function_call_output",
				"call_id": res.ToolCallID,
				"output":  res.Content,
			})
		}
	}

	body := map[string]any{
		"model":  req.Model,
		"input":  input,
		"stream": true,
	}

	if req.System != "" {
		body["instructions"] = req.System
	}

	if req.Options != nil && req.Options.ReasoningEffort != "" {
		reasoning := map[string]any{"effort": req.Options.ReasoningEffort}
		if req.Options.ReasoningSummary != "" {
			reasoning["summary"] = req.Options.ReasoningSummary
		}
		body["reasoning"] = reasoning
	}

	if len(req.Tools) > 0 {
		tools := make([]map[string]any, 0, len(req.Tools))
		for _, t := range req.Tools {
			tools = append(tools, map[string]any{
				"type":        "function",
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.InputSchema,
			})
		}
		body["tools"] = tools
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}
	return payload, nil
}
