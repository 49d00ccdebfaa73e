package llm

import "fmt"

// ProviderSet is the closed set of streaming backends, selected by an
// exhaustive match on the model's provider tag.
type ProviderSet struct {
	Anthropic Provider
	OpenAI    Provider
	Google    Provider
	Lorem     Provider
}

// ForTag returns the provider for a catalog provider tag.
func (s *ProviderSet) ForTag(tag string) (Provider, error) {
	switch tag {
	case "anthropic":
		return s.Anthropic, nil
	case "openai":
		return s.OpenAI, nil
	case "google":
		return s.Google, nil
	case "lorem":
		return s.Lorem, nil
	default:
		return nil, fmt.Errorf("no provider for tag %q", tag)
	}
}
