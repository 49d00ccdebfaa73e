package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"unicode/utf8"
)

type stubAdapter struct {
	name    string
	results []Result
	err     error
	calls   int
}

func (a *stubAdapter) Name() string { return a.name }

func (a *stubAdapter) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return a.results, nil
}

func TestFallback_StopsAtFirstSuccess(t *testing.T) {
	first := &stubAdapter{name: "tavily", err: errors.New("503 service unavailable")}
	second := &stubAdapter{name: "brave", err: errors.New("402 payment required")}
	third := &stubAdapter{name: "serper", results: []Result{
		{URL: "https://example.com", Title: "Example", Description: "A page"},
	}}
	fourth := &stubAdapter{name: "extra"}

	fallback := NewFallbackFromAdapters([]Adapter{first, second, third, fourth}, slog.Default())

	results, err := fallback.Search(context.Background(), "example", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Example" {
		t.Fatalf("results = %+v", results)
	}

	if first.calls != 1 || second.calls != 1 || third.calls != 1 {
		t.Errorf("calls = %d/%d/%d, want each tried once", first.calls, second.calls, third.calls)
	}
	if fourth.calls != 0 {
		t.Errorf("adapter after the first success was called %d times", fourth.calls)
	}
}

func TestFallback_AllProvidersFail(t *testing.T) {
	lastFailure := errors.New("serper: 500 internal error")
	fallback := NewFallbackFromAdapters([]Adapter{
		&stubAdapter{name: "tavily", err: errors.New("tavily down")},
		&stubAdapter{name: "serper", err: lastFailure},
	}, slog.Default())

	_, err := fallback.Search(context.Background(), "anything", Options{})
	if err == nil {
		t.Fatal("expected an error when every provider fails")
	}
	if !errors.Is(err, lastFailure) {
		t.Errorf("error %v does not wrap the last failure", err)
	}
	if !strings.Contains(err.Error(), "all 2 search providers failed") {
		t.Errorf("error = %v", err)
	}
}

func TestFallback_NoProvidersConfigured(t *testing.T) {
	fallback := NewFallback(&FallbackConfig{})

	if fallback.Available() {
		t.Error("Available() = true with no credentials")
	}
	if _, err := fallback.Search(context.Background(), "q", Options{}); err == nil {
		t.Error("expected an error with an empty chain")
	}
}

// The default provider leads the chain; unconfigured providers are
// absent entirely.
func TestFallback_ChainOrdering(t *testing.T) {
	tests := []struct {
		name string
		cfg  FallbackConfig
		want []string
	}{
		{
			"default goes first",
			FallbackConfig{TavilyAPIKey: "t", BraveAPIKey: "b", SerperAPIKey: "s", DefaultProvider: "serper"},
			[]string{"serper", "tavily", "brave"},
		},
		{
			"fixed order without a default",
			FallbackConfig{TavilyAPIKey: "t", BraveAPIKey: "b", SerperAPIKey: "s"},
			[]string{"tavily", "brave", "serper"},
		},
		{
			"unconfigured providers are skipped",
			FallbackConfig{BraveAPIKey: "b", DefaultProvider: "tavily"},
			[]string{"brave"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewFallback(&tt.cfg).Providers()
			if len(got) != len(tt.want) {
				t.Fatalf("chain = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("chain = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestFallback_RendersMarkdownOnResults(t *testing.T) {
	adapter := &stubAdapter{name: "tavily", results: []Result{
		{URL: "https://a.example", Title: "A", Description: "desc", Content: "line one\nline two"},
	}}
	fallback := NewFallbackFromAdapters([]Adapter{adapter}, slog.Default())

	results, err := fallback.Search(context.Background(), "q", Options{IncludeContent: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Markdown == "" {
		t.Fatal("markdown not rendered on successful results")
	}
}

func TestRenderMarkdown(t *testing.T) {
	fallback := NewFallbackFromAdapters(nil, slog.Default())

	t.Run("heading and description only", func(t *testing.T) {
		got := fallback.renderMarkdown(Result{URL: "https://a.example", Title: "A Title", Description: "summary"})
		want := "### [A Title](https://a.example)\nsummary"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("content rendered as quote", func(t *testing.T) {
		got := fallback.renderMarkdown(Result{
			URL: "https://a.example", Title: "A", Description: "d",
			Content: "first line\nsecond line",
		})
		if !strings.Contains(got, "> first line\n> second line") {
			t.Errorf("content not quoted: %q", got)
		}
	})

	t.Run("long content is truncated", func(t *testing.T) {
		got := fallback.renderMarkdown(Result{
			URL: "https://a.example", Title: "A", Description: "d",
			Content: strings.Repeat("x", contentBudget+500),
		})
		if !strings.Contains(got, "...") {
			t.Error("truncation marker missing")
		}
		if len(got) > contentBudget+200 {
			t.Errorf("rendered length %d exceeds the content budget", len(got))
		}
	})

	t.Run("html content converted", func(t *testing.T) {
		got := fallback.renderMarkdown(Result{
			URL: "https://a.example", Title: "A", Description: "d",
			Content: "<p>hello <strong>world</strong></p>",
		})
		if strings.Contains(got, "<p>") {
			t.Errorf("html tags survived conversion: %q", got)
		}
		if !strings.Contains(got, "hello") {
			t.Errorf("converted text lost: %q", got)
		}
	})
}

// Cutting at the byte budget must never leave a broken rune before the
// ellipsis.
func TestTruncate_KeepsRunesIntact(t *testing.T) {
	for budget := 4; budget <= 9; budget++ {
		got := truncate(strings.Repeat("é", 5), budget)
		if !utf8.ValidString(got) {
			t.Errorf("budget %d: truncated string is not valid UTF-8: %q", budget, got)
		}
		if !strings.HasSuffix(got, "...") {
			t.Errorf("budget %d: truncation marker missing: %q", budget, got)
		}
	}

	if got := truncate("short", 100); got != "short" {
		t.Errorf("under-budget string modified: %q", got)
	}
}
