package llm

import (
	"encoding/json"
	"strings"

	"strand/internal/domain/models"
)

// Aggregate folds a session's multi-step output into the parts array
// of one persisted assistant message.
//
// Pass one walks the assistant output: text segments concatenate in
// emission order, only the first non-empty reasoning segment is kept,
// and every tool call becomes an invocation in call state. Pass two
// attaches each tool result to the earliest still-unresolved invocation
// with its call ID, so providers whose synthesized IDs repeat across
// steps still pair every call with its own result; a result with no
// matching call is recorded as an orphaned invocation rather than
// dropped.
func Aggregate(session *StreamSession) []models.MessagePart {
	var text strings.Builder
	var reasoning string
	var invocations []*models.ToolInvocation
	// byCallID keeps each ID's invocation indices in emission order
	byCallID := make(map[string][]int)

	for _, step := range session.Steps {
		text.WriteString(step.Text)

		if reasoning == "" && step.Reasoning != "" {
			reasoning = step.Reasoning
		}

		for _, call := range step.ToolCalls {
			inv := &models.ToolInvocation{
				ToolCallID: call.ID,
				ToolName:   call.Name,
				Args:       decodeArgs(call.Args),
				State:      models.ToolStateCall,
			}
			byCallID[call.ID] = append(byCallID[call.ID], len(invocations))
			invocations = append(invocations, inv)
		}
	}

	for _, step := range session.Steps {
		for _, result := range step.ToolResults {
			if inv := firstUnresolved(invocations, byCallID[result.ToolCallID]); inv != nil {
				inv.Result = result.Content
				inv.State = models.ToolStateResult
				continue
			}
			invocations = append(invocations, &models.ToolInvocation{
				ToolCallID: result.ToolCallID,
				Result:     result.Content,
				State:      models.ToolStateResult,
				Orphaned:   true,
			})
		}
	}

	var parts []models.MessagePart
	if text.Len() > 0 {
		parts = append(parts, models.MessagePart{
			Type: models.PartTypeText,
			Text: text.String(),
		})
	}
	if reasoning != "" {
		parts = append(parts, models.MessagePart{
			Type:      models.PartTypeReasoning,
			Reasoning: reasoning,
		})
	}
	for _, inv := range invocations {
		parts = append(parts, models.MessagePart{
			Type:           models.PartTypeToolInvocation,
			ToolInvocation: inv,
		})
	}

	return parts
}

// AggregatedText returns the concatenated text content of a session,
// used as the plain-content column of the persisted message.
func AggregatedText(session *StreamSession) string {
	var b strings.Builder
	for _, step := range session.Steps {
		b.WriteString(step.Text)
	}
	return b.String()
}

// firstUnresolved returns the earliest invocation among indices that has
// not received a result yet.
func firstUnresolved(invocations []*models.ToolInvocation, indices []int) *models.ToolInvocation {
	for _, idx := range indices {
		if invocations[idx].State != models.ToolStateResult {
			return invocations[idx]
		}
	}
	return nil
}

func decodeArgs(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return map[string]any{"_raw": string(raw)}
	}
	return args
}
