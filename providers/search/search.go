package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL   = "https://api.duckduckgo.com"
	defaultUserAgent = "plan-estudio-search/1.0"
	defaultTimeout   = 30 * time.Second

	// maxRelatedTopics caps how many related-topic lines make it into a
	// search summary.
	maxRelatedTopics = 5
)

// Searcher is the web-search collaborator interface. Implementations return
// a plain-text summary of results for a query; an empty summary with a nil
// error means the search ran but found nothing useful.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// DuckDuckGo queries the DuckDuckGo Instant Answer API. When the instant
// answer is empty but carries a source URL, the source page is fetched and
// converted to Markdown so the caller still gets usable text.
type DuckDuckGo struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

var _ Searcher = (*DuckDuckGo)(nil)

// NewDuckDuckGo creates a searcher with default endpoint and timeouts.
func NewDuckDuckGo() *DuckDuckGo {
	return &DuckDuckGo{
		baseURL:   defaultBaseURL,
		userAgent: defaultUserAgent,
		client:    &http.Client{Timeout: defaultTimeout},
	}
}

// WithBaseURL overrides the API endpoint.
func (d *DuckDuckGo) WithBaseURL(baseURL string) *DuckDuckGo {
	d.baseURL = baseURL
	return d
}

// WithHttpClient sets the HTTP client used for outbound requests.
func (d *DuckDuckGo) WithHttpClient(client *http.Client) *DuckDuckGo {
	d.client = client
	return d
}

// Search implements Searcher.
func (d *DuckDuckGo) Search(ctx context.Context, query string) (string, error) {
	resp, err := d.fetchInstantAnswer(ctx, query)
	if err != nil {
		return "", err
	}

	var results []string

	if resp.AbstractText != "" {
		results = append(results, fmt.Sprintf("Abstract: %s", resp.AbstractText))
		if resp.AbstractURL != "" {
			results = append(results, fmt.Sprintf("Source: %s", resp.AbstractURL))
		}
	}
	if resp.Answer != "" {
		results = append(results, fmt.Sprintf("Answer: %s", resp.Answer))
	}
	if resp.Definition != "" {
		results = append(results, fmt.Sprintf("Definition: %s", resp.Definition))
	}

	if len(resp.RelatedTopics) > 0 {
		var topics []string
		for i, topic := range resp.RelatedTopics {
			if i >= maxRelatedTopics {
				break
			}
			if topic.Text != "" {
				topics = append(topics, topic.Text)
			}
		}
		if len(topics) > 0 {
			results = append(results, fmt.Sprintf("Related topics: %s", strings.Join(topics, "; ")))
		}
	}

	summary := strings.Join(results, "\n\n")
	if summary != "" {
		return summary, nil
	}

	// The instant answer was empty. If the API points at a source page,
	// its Markdown rendering is better than nothing.
	if resp.AbstractURL != "" {
		if page, fetchErr := FetchPage(ctx, d.client, resp.AbstractURL, d.userAgent); fetchErr == nil {
			return page, nil
		}
	}
	return "", nil
}

// fetchInstantAnswer performs the Instant Answer API call.
func (d *DuckDuckGo) fetchInstantAnswer(ctx context.Context, query string) (*ddgResponse, error) {
	params := url.Values{}
	params.Add("q", query)
	params.Add("format", "json")
	params.Add("no_html", "1")
	params.Add("skip_disambig", "1")

	fullURL := d.baseURL + "/?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	var ddg ddgResponse
	if err := json.Unmarshal(body, &ddg); err != nil {
		return nil, fmt.Errorf("error parsing response: %w", err)
	}
	return &ddg, nil
}

// ddgResponse represents the DuckDuckGo API response (internal).
type ddgResponse struct {
	AbstractText  string         `json:"AbstractText"`
	AbstractURL   string         `json:"AbstractURL"`
	Answer        string         `json:"Answer"`
	Definition    string         `json:"Definition"`
	Heading       string         `json:"Heading"`
	RelatedTopics []relatedTopic `json:"RelatedTopics"`
}

type relatedTopic struct {
	FirstURL string `json:"FirstURL"`
	Text     string `json:"Text"`
}
