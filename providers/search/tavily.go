package search

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/j840425/plan-estudio/internal/utils"
)

const (
	tavilyBaseURL    = "https://api.tavily.com"
	tavilyMaxResults = 10

	// tavilySnippetLength bounds each result snippet in the summary so a
	// single verbose page cannot drown out the rest.
	tavilySnippetLength = 300
)

// Tavily queries the Tavily search API. Its result snippets are written for
// LLM consumption, which suits the book parser better than raw pages, but it
// needs an API key; callers select it only when one is configured.
type Tavily struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ Searcher = (*Tavily)(nil)

// NewTavily creates a Tavily searcher with the given API key.
func NewTavily(apiKey string) *Tavily {
	return &Tavily{
		apiKey:  apiKey,
		baseURL: tavilyBaseURL,
		client:  &http.Client{Timeout: defaultTimeout},
	}
}

// WithBaseURL overrides the API endpoint.
func (t *Tavily) WithBaseURL(baseURL string) *Tavily {
	t.baseURL = baseURL
	return t
}

// WithHttpClient sets the HTTP client used for outbound requests.
func (t *Tavily) WithHttpClient(client *http.Client) *Tavily {
	t.client = client
	return t
}

type tavilyRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
}

type tavilyResponse struct {
	Answer  string         `json:"answer"`
	Results []tavilyResult `json:"results"`
}

type tavilyResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Search implements Searcher: one basic-depth query, summarized as the
// optional answer followed by numbered title/snippet entries.
func (t *Tavily) Search(ctx context.Context, query string) (string, error) {
	if t.apiKey == "" {
		return "", fmt.Errorf("tavily API key is not set")
	}

	req := tavilyRequest{
		APIKey:        t.apiKey,
		Query:         query,
		SearchDepth:   "basic",
		MaxResults:    tavilyMaxResults,
		IncludeAnswer: true,
	}
	resp, err := utils.DoPostSync[tavilyResponse](ctx, t.client, t.baseURL+"/search", req)
	if err != nil {
		return "", fmt.Errorf("tavily search: %w", err)
	}

	var parts []string
	if resp.Answer != "" {
		parts = append(parts, resp.Answer)
	}
	for i, r := range resp.Results {
		parts = append(parts, fmt.Sprintf("%d. %s\n%s",
			i+1, r.Title, utils.TruncateString(r.Content, tavilySnippetLength)))
	}
	return strings.Join(parts, "\n\n"), nil
}
