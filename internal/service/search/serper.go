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
	serperBaseURL = "https://google.serper.dev/search"
	// serperMaxResults keeps requests inside a single result page
	serperMaxResults = 10
)

// SerperAdapter searches via the Serper Google Search API.
type SerperAdapter struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewSerperAdapter creates a Serper search adapter.
func NewSerperAdapter(apiKey string) *SerperAdapter {
	return &SerperAdapter{
		apiKey:  apiKey,
		baseURL: serperBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name implements Adapter.
func (a *SerperAdapter) Name() string { return "serper" }

// Search implements Adapter.
func (a *SerperAdapter) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	if maxResults > serperMaxResults {
		maxResults = serperMaxResults
	}

	payload := map[string]any{
		"q":   query,
		"num": maxResults,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal serper request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create serper request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serper request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read serper response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serper API error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse serper response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Organic))
	for _, r := range parsed.Organic {
		if len(results) >= maxResults {
			break
		}
		results = append(results, Result{
			URL:         r.Link,
			Title:       r.Title,
			Description: r.Snippet,
		})
	}

	return results, nil
}
