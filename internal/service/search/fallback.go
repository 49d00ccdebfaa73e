package search

import (
	"context"
	"fmt"
	"log/slog"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

// Fallback tries a fixed, ordered list of adapters until one succeeds.
// The list is built once at construction from whichever providers have
// credentials configured; an unconfigured provider never appears in the
// chain.
type Fallback struct {
	adapters  []Adapter
	converter *md.Converter
	logger    *slog.Logger
}

// FallbackConfig carries the provider credentials and the preferred
// default provider name.
type FallbackConfig struct {
	TavilyAPIKey    string
	BraveAPIKey     string
	SerperAPIKey    string
	DefaultProvider string
	Logger          *slog.Logger
}

// NewFallback builds the adapter chain. The default provider goes
// first, the rest follow in fixed order tavily, brave, serper.
func NewFallback(cfg *FallbackConfig) *Fallback {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var available []Adapter
	if cfg.TavilyAPIKey != "" {
		available = append(available, NewTavilyAdapter(cfg.TavilyAPIKey))
	}
	if cfg.BraveAPIKey != "" {
		available = append(available, NewBraveAdapter(cfg.BraveAPIKey))
	}
	if cfg.SerperAPIKey != "" {
		available = append(available, NewSerperAdapter(cfg.SerperAPIKey))
	}

	ordered := make([]Adapter, 0, len(available))
	for _, a := range available {
		if a.Name() == cfg.DefaultProvider {
			ordered = append(ordered, a)
		}
	}
	for _, a := range available {
		if a.Name() != cfg.DefaultProvider {
			ordered = append(ordered, a)
		}
	}

	return NewFallbackFromAdapters(ordered, logger)
}

// NewFallbackFromAdapters builds a fallback chain over an explicit,
// already-ordered adapter list.
func NewFallbackFromAdapters(adapters []Adapter, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{
		adapters:  adapters,
		converter: md.NewConverter("", true, nil),
		logger:    logger,
	}
}

// Available reports whether any search provider is configured.
func (f *Fallback) Available() bool {
	return len(f.adapters) > 0
}

// Providers returns the chain's adapter names in attempt order.
func (f *Fallback) Providers() []string {
	names := make([]string, len(f.adapters))
	for i, a := range f.adapters {
		names[i] = a.Name()
	}
	return names
}

// Search tries each adapter in order and returns the first successful
// result set, with markdown rendered for every result. When all
// adapters fail, the returned error carries the last failure.
func (f *Fallback) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	if len(f.adapters) == 0 {
		return nil, fmt.Errorf("no search providers configured")
	}

	var lastErr error
	for _, adapter := range f.adapters {
		results, err := adapter.Search(ctx, query, opts)
		if err != nil {
			f.logger.Warn("search provider failed, trying next",
				"provider", adapter.Name(),
				"error", err)
			lastErr = err
			continue
		}

		for i := range results {
			results[i].Markdown = f.renderMarkdown(results[i])
		}

		return results, nil
	}

	return nil, fmt.Errorf("all %d search providers failed: %w", len(f.adapters), lastErr)
}
