package ai

import (
	"context"
	"net/http"
)

// Provider is the interface every text-generation backend must satisfy. It
// covers the lifecycle of a single request: authentication, endpoint
// configuration, message dispatch, and response interpretation.
type Provider interface {
	// SendMessage sends a chat request to the provider and returns the
	// completed response. Returns an error if the provider call fails,
	// the context is cancelled, or the response cannot be decoded.
	SendMessage(ctx context.Context, request ChatRequest) (*ChatResponse, error)

	// IsStopMessage reports whether the response represents a terminal
	// completion. Providers use their own finish-reason semantics to
	// implement this check.
	IsStopMessage(message *ChatResponse) bool

	// WithAPIKey sets the API key used for authenticating requests.
	WithAPIKey(apiKey string) Provider

	// WithBaseURL overrides the default base URL for API requests.
	WithBaseURL(baseURL string) Provider

	// WithHttpClient sets the HTTP client used for outbound requests.
	WithHttpClient(httpClient *http.Client) Provider
}
