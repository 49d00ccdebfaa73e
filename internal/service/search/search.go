// Package search provides web search across multiple external providers
// with credential-based fallback.
package search

import "context"

// Options controls a single search call.
type Options struct {
	// MaxResults caps the number of results; each adapter clamps it to
	// its own provider limit.
	MaxResults int
	// IncludeContent asks the provider for full page content where the
	// provider supports it.
	IncludeContent bool
}

// Result is one search hit in the common format shared by all adapters.
type Result struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	// Content is the raw page content when the provider returned one.
	Content string `json:"content,omitempty"`
	// Markdown is the rendered form fed to the model; populated by the
	// fallback layer, never by adapters.
	Markdown string `json:"markdown,omitempty"`
}

// Adapter is a single search provider in the common shape.
type Adapter interface {
	Name() string
	Search(ctx context.Context, query string, opts Options) ([]Result, error)
}
