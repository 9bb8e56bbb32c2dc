package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/agentcore-dev/agentcore/pkg/httpclient"
	"github.com/agentcore-dev/agentcore/pkg/result"
	"github.com/agentcore-dev/agentcore/pkg/tool"
)

// SearchResult is one hit returned by WebSearchTool.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// WebSearchTool queries a configurable search API endpoint and returns
// the top results, adapted from original_source/app/tool/web_search.py
// (multi-engine fallback simplified to a single configurable endpoint)
// using the teacher's httpclient.Client for retrying transient failures.
type WebSearchTool struct {
	tool.Base
	endpoint   string
	apiKey     string
	maxResults int
	httpClient *httpclient.Client
}

// NewWebSearchTool builds a WebSearchTool hitting endpoint (a search
// API that accepts ?q=<query>&key=<apiKey> and returns a JSON array of
// {title,url,snippet} objects).
func NewWebSearchTool(endpoint, apiKey string, maxResults int) *WebSearchTool {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &WebSearchTool{
		endpoint:   endpoint,
		apiKey:     apiKey,
		maxResults: maxResults,
		httpClient: httpclient.New(httpclient.WithMaxRetries(2)),
	}
}

func (t *WebSearchTool) Name() string { return "web_search" }

func (t *WebSearchTool) Description() string {
	return "Search the web for up-to-date information and return a short list of results."
}

func (t *WebSearchTool) Cacheable() bool          { return true }
func (t *WebSearchTool) DefaultTTL() time.Duration { return 10 * time.Minute }

func (t *WebSearchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Search query",
			},
		},
		"required": []any{"query"},
	}
}

func (t *WebSearchTool) Run(ctx context.Context, args map[string]any) (result.ToolResult, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return result.Err(result.KindInvalidArgument, "query must be a non-empty string"), nil
	}
	if t.endpoint == "" {
		return result.Err(result.KindExecution, "no web search endpoint configured"), nil
	}

	resp, err := t.httpClient.Do(ctx, func() (*http.Request, error) {
		q := url.Values{"q": {query}}
		if t.apiKey != "" {
			q.Set("key", t.apiKey)
		}
		return http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint+"?"+q.Encode(), nil)
	})
	if err != nil {
		return result.Err(result.KindExecution, fmt.Sprintf("search request failed: %v", err)), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return result.Err(result.KindExecution, fmt.Sprintf("search endpoint returned status %d", resp.StatusCode)), nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return result.Err(result.KindIO, fmt.Sprintf("reading search response: %v", err)), nil
	}

	var results []SearchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return result.Err(result.KindExecution, fmt.Sprintf("decoding search response: %v", err)), nil
	}
	if len(results) > t.maxResults {
		results = results[:t.maxResults]
	}

	return result.OkStructured(results), nil
}
