package llm

import "testing"

func TestBuildProviderOptions_BudgetProviders(t *testing.T) {
	tests := []struct {
		name       string
		provider   string
		model      string
		effort     string
		wantBudget int
	}{
		{"google low", "google", "gemini-2.5-flash", EffortLow, 1024},
		{"google medium", "google", "gemini-2.5-flash", EffortMedium, 8192},
		{"google high", "google", "gemini-2.5-pro", EffortHigh, 24576},
		{"anthropic low", "anthropic", "claude-sonnet-4-5", EffortLow, 1024},
		{"anthropic medium", "anthropic", "claude-opus-4-1", EffortMedium, 8192},
		{"anthropic high", "anthropic", "claude-haiku-4-5", EffortHigh, 16384},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := BuildProviderOptions(tt.provider, tt.model, tt.effort)
			if opts.ThinkingBudget != tt.wantBudget {
				t.Errorf("ThinkingBudget = %d, want %d", opts.ThinkingBudget, tt.wantBudget)
			}
			if opts.ReasoningEffort != "" {
				t.Errorf("ReasoningEffort = %q, want empty for budget provider", opts.ReasoningEffort)
			}
		})
	}
}

func TestBuildProviderOptions_EffortProvider(t *testing.T) {
	opts := BuildProviderOptions("openai", "o3", EffortHigh)
	if opts.ReasoningEffort != EffortHigh {
		t.Errorf("ReasoningEffort = %q, want %q", opts.ReasoningEffort, EffortHigh)
	}
	if opts.ReasoningSummary != "detailed" {
		t.Errorf("ReasoningSummary = %q, want detailed", opts.ReasoningSummary)
	}
	if opts.ThinkingBudget != 0 {
		t.Errorf("ThinkingBudget = %d, want 0 for effort provider", opts.ThinkingBudget)
	}
}

// Non-reasoning models must get zero-valued options for any effort,
// never an error.
func TestBuildProviderOptions_NonReasoningModelOmitsOptions(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		model    string
		effort   string
	}{
		{"openai chat model", "openai", "gpt-4.1", EffortHigh},
		{"google older model", "google", "gemini-2.0-flash", EffortMedium},
		{"anthropic legacy model", "anthropic", "claude-3-5-haiku-20241022", EffortLow},
		{"lorem", "lorem", "lorem-fast", EffortHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := BuildProviderOptions(tt.provider, tt.model, tt.effort)
			if opts.ThinkingBudget != 0 || opts.ReasoningEffort != "" || opts.ReasoningSummary != "" {
				t.Errorf("got %+v, want zero-valued options", opts)
			}
		})
	}
}

func TestBuildProviderOptions_NoEffortRequested(t *testing.T) {
	opts := BuildProviderOptions("anthropic", "claude-sonnet-4-5", "")
	if opts.ThinkingBudget != 0 || opts.ReasoningEffort != "" {
		t.Errorf("got %+v, want zero-valued options when no effort requested", opts)
	}
}
