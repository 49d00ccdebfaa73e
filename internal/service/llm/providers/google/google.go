// Package google implements the streaming provider for Gemini models
// via the Generative Language API.
package google

import (
	"encoding/json"
	"fmt"

	"strand/internal/service/llm"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Provider streams Gemini responses.
type Provider struct {
	baseURL string
}

// New creates the Google provider.
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
	return "google"
}

// buildBody assembles the streamGenerateContent request payload.
func buildBody(req *llm.GenerateRequest) ([]byte, error) {
	contents := make([]map[string]any, 0, len(req.Messages))
	for _, msg := range req.Messages {
		role := "user"
		if msg.Role == "assistant" {
			role = "model"
		}

		var parts []map[string]any
		if msg.Content != "" {
			parts = append(parts, map[string]any{"text": msg.Content})
		}

		for _, call := range msg.ToolCalls {
			var args map[string]any
			if len(call.Args) > 0 {
				_ = json.Unmarshal(call.Args, &args)
			}
			parts = append(parts, map[string]any{
				"functionCall": map[string]any{
					"name": call.Name,
					"args": args,
				},
			})
		}

		for _, res := range msg.ToolResults {
			parts = append(parts, map[string]any{
				"functionResponse": map[string]any{
					"name": nameFromCallID(res.ToolCallID),
					"response": map[string]any{
						"content": res.Content,
					},
				},
			})
		}

		if len(parts) == 0 {
			continue
		}
		contents = append(contents, map[string]any{"role": role, "parts": parts})
	}

	body := map[string]any{"contents": contents}

	if req.System != "" {
		body["systemInstruction"] = map[string]any{
			"parts": []map[string]any{{"text": req.System}},
		}
	}

	if req.Options != nil && req.Options.ThinkingBudget > 0 {
		body["generationConfig"] = map[string]any{
			"thinkingConfig": map[string]any{
				"thinkingBudget":  req.Options.ThinkingBudget,
				"includeThoughts": true,
			},
		}
	}

	if len(req.Tools) > 0 {
		declarations := make([]map[string]any, 0, len(req.Tools))
		for _, t := range req.Tools {
			declarations = append(declarations, map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.InputSchema,
			})
		}
		body["tools"] = []map[string]any{{"functionDeclarations": declarations}}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}
	return payload, nil
}
