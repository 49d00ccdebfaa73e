package llm

import (
	"encoding/json"
	"testing"

	"strand/internal/domain/models"
)

func TestAggregate_TextConcatenationAcrossSteps(t *testing.T) {
	session := &StreamSession{Steps: []Step{
		{Text: "The weather "},
		{Text: "in Boston is sunny."},
	}}

	parts := Aggregate(session)
	if len(parts) != 1 {
		t.Fatalf("got %d parts, want 1", len(parts))
	}
	if parts[0].Type != models.PartTypeText {
		t.Fatalf("part type = %s, want text", parts[0].Type)
	}
	if parts[0].Text != "The weather in Boston is sunny." {
		t.Errorf("text = %q", parts[0].Text)
	}
}

// Only the first non-empty reasoning segment survives; reasoning from
// later tool-driven steps is discarded.
func TestAggregate_KeepsFirstReasoningOnly(t *testing.T) {
	session := &StreamSession{Steps: []Step{
		{Reasoning: ""},
		{Reasoning: "initial trace", Text: "a"},
		{Reasoning: "later trace", Text: "b"},
	}}

	parts := Aggregate(session)

	var reasoning []string
	for _, p := range parts {
		if p.Type == models.PartTypeReasoning {
			reasoning = append(reasoning, p.Reasoning)
		}
	}

	if len(reasoning) != 1 {
		t.Fatalf("got %d reasoning parts, want 1", len(reasoning))
	}
	if reasoning[0] != "initial trace" {
		t.Errorf("reasoning = %q, want the first non-empty segment", reasoning[0])
	}
}

func TestAggregate_PairsCallsWithResults(t *testing.T) {
	session := &StreamSession{Steps: []Step{
		{
			ToolCalls: []ToolCall{
				{ID: "call_1", Name: "web_search", Args: json.RawMessage(`{"query":"weather boston"}`)},
				{ID: "call_2", Name: "web_search", Args: json.RawMessage(`{"query":"weather nyc"}`)},
			},
			ToolResults: []ToolResult{
				{ToolCallID: "call_1", Content: "boston results"},
				{ToolCallID: "call_2", Content: "nyc results"},
			},
		},
		{Text: "Both cities are sunny."},
	}}

	parts := Aggregate(session)

	var invocations []*models.ToolInvocation
	for _, p := range parts {
		if p.Type == models.PartTypeToolInvocation {
			invocations = append(invocations, p.ToolInvocation)
		}
	}

	if len(invocations) != 2 {
		t.Fatalf("got %d invocations, want 2", len(invocations))
	}

	want := map[string]string{"call_1": "boston results", "call_2": "nyc results"}
	for _, inv := range invocations {
		if inv.State != models.ToolStateResult {
			t.Errorf("invocation %s state = %s, want result", inv.ToolCallID, inv.State)
		}
		if inv.Orphaned {
			t.Errorf("invocation %s flagged orphaned", inv.ToolCallID)
		}
		if inv.Result != want[inv.ToolCallID] {
			t.Errorf("invocation %s result = %v, want %q", inv.ToolCallID, inv.Result, want[inv.ToolCallID])
		}
	}
}

// Synthesized call IDs can repeat across tool steps; each result must
// still land on its own step's invocation instead of the latest one.
func TestAggregate_RepeatedCallIDsAcrossSteps(t *testing.T) {
	session := &StreamSession{Steps: []Step{
		{
			ToolCalls:   []ToolCall{{ID: "web_search-1", Name: "web_search"}},
			ToolResults: []ToolResult{{ToolCallID: "web_search-1", Content: "first step results"}},
		},
		{
			ToolCalls:   []ToolCall{{ID: "web_search-1", Name: "web_search"}},
			ToolResults: []ToolResult{{ToolCallID: "web_search-1", Content: "second step results"}},
		},
		{Text: "done"},
	}}

	parts := Aggregate(session)

	var invocations []*models.ToolInvocation
	for _, p := range parts {
		if p.Type == models.PartTypeToolInvocation {
			invocations = append(invocations, p.ToolInvocation)
		}
	}

	if len(invocations) != 2 {
		t.Fatalf("got %d invocations, want 2", len(invocations))
	}

	wantResults := []string{"first step results", "second step results"}
	for i, inv := range invocations {
		if inv.State != models.ToolStateResult {
			t.Errorf("invocation %d state = %s, want result", i, inv.State)
		}
		if inv.Orphaned {
			t.Errorf("invocation %d flagged orphaned", i)
		}
		if inv.Result != wantResults[i] {
			t.Errorf("invocation %d result = %v, want %q", i, inv.Result, wantResults[i])
		}
	}
}

func TestAggregate_OrphanedResultIsRecorded(t *testing.T) {
	session := &StreamSession{Steps: []Step{
		{
			ToolCalls:   []ToolCall{{ID: "call_1", Name: "web_search"}},
			ToolResults: []ToolResult{{ToolCallID: "call_unknown", Content: "stray"}},
		},
	}}

	parts := Aggregate(session)

	var orphans, calls int
	for _, p := range parts {
		if p.Type != models.PartTypeToolInvocation {
			continue
		}
		if p.ToolInvocation.Orphaned {
			orphans++
			if p.ToolInvocation.State != models.ToolStateResult {
				t.Errorf("orphan state = %s, want result", p.ToolInvocation.State)
			}
		} else {
			calls++
			if p.ToolInvocation.State != models.ToolStateCall {
				t.Errorf("unmatched call state = %s, want call", p.ToolInvocation.State)
			}
		}
	}

	if orphans != 1 || calls != 1 {
		t.Errorf("got %d orphans and %d calls, want 1 and 1", orphans, calls)
	}
}

func TestAggregate_PartOrdering(t *testing.T) {
	session := &StreamSession{Steps: []Step{
		{
			Text:        "answer",
			Reasoning:   "trace",
			ToolCalls:   []ToolCall{{ID: "c1", Name: "web_search"}},
			ToolResults: []ToolResult{{ToolCallID: "c1", Content: "r"}},
		},
	}}

	parts := Aggregate(session)
	if len(parts) != 3 {
		t.Fatalf("got %d parts, want 3", len(parts))
	}

	wantOrder := []string{models.PartTypeText, models.PartTypeReasoning, models.PartTypeToolInvocation}
	for i, p := range parts {
		if p.Type != wantOrder[i] {
			t.Errorf("parts[%d].Type = %s, want %s", i, p.Type, wantOrder[i])
		}
	}
}
