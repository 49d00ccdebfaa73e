package llm

import "strings"

// Reasoning effort levels accepted on a chat turn.
const (
	EffortLow    = "low"
	EffortMedium = "medium"
	EffortHigh   = "high"
)

// Reasoning-capable model families, matched by substring against the
// model id. A model outside every family gets no reasoning options.
var reasoningFamilies = map[string][]string{
	"google":    {"2.5-flash", "2.5-pro"},
	"openai":    {"o1", "o3", "o4"},
	"anthropic": {"claude-sonnet-4", "claude-opus-4", "claude-haiku-4", "claude-3-7-sonnet"},
}

// Token budgets for budget-style providers.
var (
	googleBudgets = map[string]int{
		EffortLow:    1024,
		EffortMedium: 8192,
		EffortHigh:   24576,
	}
	anthropicBudgets = map[string]int{
		EffortLow:    1024,
		EffortMedium: 8192,
		EffortHigh:   16384,
	}
)

// BuildProviderOptions translates the abstract reasoning effort into
// provider-native parameters. Models outside the known reasoning
// families get zero-valued options regardless of the requested effort;
// this never errors.
func BuildProviderOptions(provider, modelID, effort string) *ProviderOptions {
	opts := &ProviderOptions{}
	if effort == "" || !matchesReasoningFamily(provider, modelID) {
		return opts
	}

	switch provider {
	case "google":
		opts.ThinkingBudget = googleBudgets[effort]
	case "anthropic":
		opts.ThinkingBudget = anthropicBudgets[effort]
	case "openai":
		opts.ReasoningEffort = effort
		opts.ReasoningSummary = "detailed"
	}

	return opts
}

func matchesReasoningFamily(provider, modelID string) bool {
	for _, family := range reasoningFamilies[provider] {
		if strings.Contains(modelID, family) {
			return true
		}
	}
	return false
}
