package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	braveBaseURL = "https://api.search.brave.com/res/v1/web/search"
	// braveMaxResults is Brave's documented per-request cap
	braveMaxResults = 20
)

// BraveAdapter searches via the Brave Search API. Brave returns
// descriptions only; it never scrapes page content.
type BraveAdapter struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewBraveAdapter creates a Brave search adapter.
func NewBraveAdapter(apiKey string) *BraveAdapter {
	return &BraveAdapter{
		apiKey:  apiKey,
		baseURL: braveBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name implements Adapter.
func (a *BraveAdapter) Name() string { return "brave" }

// Search implements Adapter.
func (a *BraveAdapter) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	if maxResults > braveMaxResults {
		maxResults = braveMaxResults
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create brave request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("brave request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read brave response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brave API error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse brave response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Web.Results))
	for _, r := range parsed.Web.Results {
		results = append(results, Result{
			URL:         r.URL,
			Title:       r.Title,
			Description: r.Description,
		})
	}

	return results, nil
}
