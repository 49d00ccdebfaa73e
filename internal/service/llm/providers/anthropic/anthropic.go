// Package anthropic implements the streaming provider for Claude
// models via the official Anthropic SDK.
package anthropic

import (
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"strand/internal/service/llm"
)

const defaultMaxTokens = 4096

// Provider streams Claude responses. The SDK client is constructed per
// request because the credential varies per turn.
type Provider struct{}

// New creates the Anthropic provider.
func New() *Provider {
	return &Provider{}
}

// Name implements llm.Provider.
func (p *Provider) Name() string {
	return "anthropic"
}

// buildParams converts a provider-neutral request into Anthropic API
// parameters.
func buildParams(req *llm.GenerateRequest) anthropic.MessageNewParams {
	maxTokens := int64(defaultMaxTokens)
	if req.Options != nil && req.Options.ThinkingBudget > 0 {
		// Max tokens must exceed the thinking budget
		maxTokens += int64(req.Options.ThinkingBudget)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  convertMessages(req.Messages),
		MaxTokens: maxTokens,
	}

	if req.System != "" {
		params.System = []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: req.System,
			},
		}
	}

	if req.Options != nil && req.Options.ThinkingBudget > 0 {
		params.Thinking = anthropic.ThinkingConfigParamOfEnabled(int64(req.Options.ThinkingBudget))
	}

	if len(req.Tools) > 0 {
		tools := make([]anthropic.ToolUnionParam, 0, len(req.Tools))
		for _, t := range req.Tools {
			tool := anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: t.InputSchema["properties"],
				},
			}
			tools = append(tools, anthropic.ToolUnionParam{OfTool: &tool})
		}
		params.Tools = tools
	}

	return params
}

// convertMessages maps the neutral history onto Anthropic message
// params. Tool results ride in user-role messages per the API contract.
func convertMessages(messages []llm.PromptMessage) []anthropic.MessageParam {
	result := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		var blocks []anthropic.ContentBlockParamUnion

		if msg.Content != "" {
			blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
		}

		for _, att := range msg.Attachments {
			if !strings.HasPrefix(att.ContentType, "image/") || att.URL == "" {
				continue
			}
			blocks = append(blocks, anthropic.ContentBlockParamUnion{
				OfImage: &anthropic.ImageBlockParam{
					Source: anthropic.ImageBlockParamSourceUnion{
						OfURL: &anthropic.URLImageSourceParam{URL: att.URL},
					},
				},
			})
		}

		for _, call := range msg.ToolCalls {
			blocks = append(blocks, anthropic.ContentBlockParamUnion{
				OfToolUse: &anthropic.ToolUseBlockParam{
					ID:    call.ID,
					Name:  call.Name,
					Input: call.Args,
				},
			})
		}

		for _, res := range msg.ToolResults {
			blocks = append(blocks, anthropic.ContentBlockParamUnion{
				OfToolResult: &anthropic.ToolResultBlockParam{
					ToolUseID: res.ToolCallID,
					Content: []anthropic.ToolResultBlockParamContentUnion{
						{OfText: &anthropic.TextBlockParam{Text: res.Content}},
					},
				},
			})
		}

		if len(blocks) == 0 {
			continue
		}

		switch msg.Role {
		case "assistant":
			result = append(result, anthropic.NewAssistantMessage(blocks...))
		default:
			// User messages and tool-result carriers both go out as
			// user role.
			result = append(result, anthropic.NewUserMessage(blocks...))
		}
	}

	return result
}
