package gemini

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/j840425/plan-estudio/internal/utils"
	"github.com/j840425/plan-estudio/providers/ai"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.0-flash"
)

// GeminiProvider implements the ai.Provider interface for Google's Gemini API.
type GeminiProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ ai.Provider = (*GeminiProvider)(nil)

// New creates a new Gemini provider instance with default values from
// environment. Environment variables:
//   - GEMINI_API_KEY: API key for authentication
//   - GEMINI_API_BASE_URL: Base URL for API (optional, defaults to Google's API)
func New() *GeminiProvider {
	baseURL := os.Getenv("GEMINI_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &GeminiProvider{
		apiKey:  os.Getenv("GEMINI_API_KEY"),
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// WithAPIKey sets the API key for the provider.
func (p *GeminiProvider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL sets the base URL for the API.
func (p *GeminiProvider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = baseURL
	return p
}

// WithHttpClient sets a custom HTTP client.
func (p *GeminiProvider) WithHttpClient(httpClient *http.Client) ai.Provider {
	p.client = httpClient
	return p
}

// SendMessage implements the ai.Provider interface. It sends a chat request
// to the Gemini generateContent endpoint and returns the response.
func (p *GeminiProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	model := request.Model
	if model == "" {
		model = defaultModel
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, model)
	geminiReq := requestToGemini(request)

	resp, err := utils.DoPostSync[generateContentResponse](
		ctx,
		p.client,
		url,
		geminiReq,
		utils.WithHeader("x-goog-api-key", p.apiKey),
	)
	if err != nil {
		return nil, err
	}

	result := geminiToGeneric(*resp)
	result.Model = model // Ensure model is set even if not in response
	return result, nil
}

// IsStopMessage reports whether the given chat response should be treated as
// a stop/end signal.
func (p *GeminiProvider) IsStopMessage(message *ai.ChatResponse) bool {
	if message == nil {
		return true
	}
	switch message.FinishReason {
	case "stop", "length", "content_filter":
		return true
	}
	return message.Content == ""
}
