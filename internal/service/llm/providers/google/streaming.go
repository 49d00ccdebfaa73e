package google

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

// Stream implements llm.Provider via streamGenerateContent with SSE
// framing.
func (p *Provider) Stream(ctx context.Context, req *llm.GenerateRequest) (<-chan llm.StreamEvent, error) {
	if req.APIKey == "" {
		return nil, fmt.Errorf("google API key is required")
	}

	payload, err := buildBody(req)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", p.baseURL, req.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", req.APIKey)

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("google request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, fmt.Errorf("google API error (status %d): %s", resp.StatusCode, string(body))
	}

	eventChan := make(chan llm.StreamEvent, 10)

	go func() {
		defer close(eventChan)
		defer func() { _ = resp.Body.Close() }()

		var inputTokens, outputTokens int
		var model string
		stopReason := llm.StopEndTurn

		// Synthesized call IDs must stay unique across the turn's tool
		// steps, so numbering continues from the calls already in the
		// history rather than restarting per stream.
		callCount := priorCallCount(req.Messages)

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			data := strings.TrimPrefix(line, "data: ")

			if errMsg := gjson.Get(data, "error.message"); errMsg.Exists() {
				send(ctx, eventChan, llm.StreamEvent{Err: fmt.Errorf("google generation failed: %s", errMsg.String())})
				return
			}

			if v := gjson.Get(data, "modelVersion"); v.Exists() {
				model = v.String()
			}
			if usage := gjson.Get(data, "usageMetadata"); usage.Exists() {
				inputTokens = int(usage.Get("promptTokenCount").Int())
				outputTokens = int(usage.Get("candidatesTokenCount").Int())
			}

			candidate := gjson.Get(data, "candidates.0")
			candidate.Get("content.parts").ForEach(func(_, part gjson.Result) bool {
				if call := part.Get("functionCall"); call.Exists() {
					callCount++
					// The API carries no call IDs; synthesize stable
					// ones from the function name and position.
					callID := fmt.Sprintf("%s-%d", call.Get("name").String(), callCount)
					send(ctx, eventChan, llm.StreamEvent{Delta: &llm.Delta{
						Type:       llm.DeltaToolCall,
						ToolCallID: callID,
						ToolName:   call.Get("name").String(),
						ArgsDelta:  call.Get("args").Raw,
					}})
					stopReason = llm.StopToolUse
					return true
				}

				if text := part.Get("text"); text.Exists() && text.String() != "" {
					deltaType := llm.DeltaText
					if part.Get("thought").Bool() {
						deltaType = llm.DeltaReasoning
					}
					send(ctx, eventChan, llm.StreamEvent{Delta: &llm.Delta{
						Type: deltaType,
						Text: text.String(),
					}})
				}
				return true
			})

			if reason := candidate.Get("finishReason").String(); reason == "MAX_TOKENS" {
				stopReason = llm.StopMaxTokens
			}
		}

		if err := scanner.Err(); err != nil {
			send(ctx, eventChan, llm.StreamEvent{Err: fmt.Errorf("read google stream: %w", err)})
			return
		}

		if model == "" {
			model = req.Model
		}
		send(ctx, eventChan, llm.StreamEvent{Metadata: &llm.StreamMetadata{
			Model:        model,
			InputTokens:  inputTokens,
			OutputTokens: outputTokens,
			StopReason:   stopReason,
		}})
	}()

	return eventChan, nil
}

// priorCallCount counts the tool calls already present in the history.
func priorCallCount(messages []llm.PromptMessage) int {
	n := 0
	for _, m := range messages {
		n += len(m.ToolCalls)
	}
	return n
}

// nameFromCallID recovers the function name from a synthesized call ID.
func nameFromCallID(callID string) string {
	if idx := strings.LastIndex(callID, "-"); idx > 0 {
		return callID[:idx]
	}
	return callID
}

func send(ctx context.Context, ch chan<- llm.StreamEvent, event llm.StreamEvent) {
	select {
	case <-ctx.Done():
	case ch <- event:
	}
}
