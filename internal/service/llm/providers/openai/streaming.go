package openai

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"strand/internal/service/llm"
)

// Stream implements llm.Provider. It opens a Responses API stream and
// translates its SSE events into neutral deltas.
func (p *Provider) Stream(ctx context.Context, req *llm.GenerateRequest) (<-chan llm.StreamEvent, error) {
	if req.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	payload, err := buildBody(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, fmt.Errorf("openai API error (status %d): %s", resp.StatusCode, string(body))
	}

	eventChan := make(chan llm.StreamEvent, 10)

	go func() {
		defer close(eventChan)
		defer func() { _ = resp.Body.Close() }()

		// itemCalls maps streaming item IDs to their function call
		// identity, established by output_item.added events
		itemCalls := make(map[string]struct{ callID, name string })

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			data := strings.TrimPrefix(line, "data: ")
			if data == "[DONE]" {
				break
			}

			event := gjson.Get(data, "type").String()
			switch event {
			case "response.output_text.delta":
				send(ctx, eventChan, llm.StreamEvent{Delta: &llm.Delta{
					Type: llm.DeltaText,
					Text: gjson.Get(data, "delta").String(),
				}})

			case "response.reasoning_summary_text.delta":
				send(ctx, eventChan, llm.StreamEvent{Delta: &llm.Delta{
					Type: llm.DeltaReasoning,
					Text: gjson.Get(data, "delta").String(),
				}})

			case "response.output_item.added":
				item := gjson.Get(data, "item")
				if item.Get("type").String() == "function_call" {
					identity := struct{ callID, name string }{
						callID: item.Get("call_id").String(),
						name:   item.Get("name").String(),
					}
					itemCalls[item.Get("id").String()] = identity
					send(ctx, eventChan, llm.StreamEvent{Delta: &llm.Delta{
						Type:       llm.DeltaToolCall,
						ToolCallID: identity.callID,
						ToolName:   identity.name,
					}})
				}

			case "response.function_call_arguments.delta":
				identity := itemCalls[gjson.Get(data, "item_id").String()]
				send(ctx, eventChan, llm.StreamEvent{Delta: &llm.Delta{
					Type:       llm.DeltaToolCall,
					ToolCallID: identity.callID,
					ToolName:   identity.name,
					ArgsDelta:  gjson.Get(data, "delta").String(),
				}})

			case "response.completed":
				response := gjson.Get(data, "response")
				stopReason := llm.StopEndTurn
				response.Get("output").ForEach(func(_, item gjson.Result) bool {
					if item.Get("type").String() == "function_call" {
						stopReason = llm.StopToolUse
						return false
					}
					return true
				})
				if response.Get("incomplete_details.reason").String() == "max_output_tokens" {
					stopReason = llm.StopMaxTokens
				}

				send(ctx, eventChan, llm.StreamEvent{Metadata: &llm.StreamMetadata{
					Model:        response.Get("model").String(),
					InputTokens:  int(response.Get("usage.input_tokens").Int()),
					OutputTokens: int(response.Get("usage.output_tokens").Int()),
					StopReason:   stopReason,
				}})
				return

			case "response.failed":
				msg := gjson.Get(data, "response.error.message").String()
				if msg == "" {
					msg = "response failed"
				}
				send(ctx, eventChan, llm.StreamEvent{Err: fmt.Errorf("openai generation failed: %s", msg)})
				return

			case "error":
				send(ctx, eventChan, llm.StreamEvent{Err: fmt.Errorf("openai stream error: %s", gjson.Get(data, "message").String())})
				return
			}
		}

		if err := scanner.Err(); err != nil {
			send(ctx, eventChan, llm.StreamEvent{Err: fmt.Errorf("read openai stream: %w", err)})
			return
		}

		send(ctx, eventChan, llm.StreamEvent{Err: fmt.Errorf("openai stream closed without completion")})
	}()

	return eventChan, nil
}

func send(ctx context.Context, ch chan<- llm.StreamEvent, event llm.StreamEvent) {
	select {
	case <-ctx.Done():
	case ch <- event:
	}
}
