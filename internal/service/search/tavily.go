package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	tavilyBaseURL = "https://api.tavily.com/search"
	// tavilyMaxResults is Tavily's documented per-request cap
	tavilyMaxResults = 20
)

// TavilyAdapter searches via the Tavily AI API.
type TavilyAdapter struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewTavilyAdapter creates a Tavily search adapter.
func NewTavilyAdapter(apiKey string) *TavilyAdapter {
	return &TavilyAdapter{
		apiKey:  apiKey,
		baseURL: tavilyBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name implements Adapter.
func (a *TavilyAdapter) Name() string { return "tavily" }

// Search implements Adapter.
func (a *TavilyAdapter) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	if maxResults > tavilyMaxResults {
		maxResults = tavilyMaxResults
	}

	// Tavily expects the API key in the body, not in headers
	payload := map[string]any{
		"api_key":     a.apiKey,
		"query":       query,
		"max_results": maxResults,
	}
	if opts.IncludeContent {
		payload["include_raw_content"] = true
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal tavily request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create tavily request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read tavily response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily API error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Results []struct {
			Title      string `json:"title"`
			URL        string `json:"url"`
			Content    string `json:"content"`
			RawContent string `json:"raw_content"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse tavily response: %w", err)
	}

	results := make([]Result, len(parsed.Results))
	for i, r := range parsed.Results {
		results[i] = Result{
			URL:         r.URL,
			Title:       r.Title,
			Description: r.Content,
			Content:     r.RawContent,
		}
	}

	return results, nil
}
