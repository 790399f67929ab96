package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// HeaderOption adds or overrides one header on an outgoing request. Provider
// clients use it for their API-key header schemes.
type HeaderOption func(http.Header)

// WithHeader returns a HeaderOption that sets key to value.
func WithHeader(key, value string) HeaderOption {
	return func(h http.Header) {
		h.Set(key, value)
	}
}

// DoPostSync performs a synchronous HTTP POST with a JSON body and parses the
// JSON response into OutputStruct.
//
// Error handling strategy:
//   - Context errors (timeout, cancellation) propagate through the client.
//   - Non-2xx responses return an error carrying the status and a body
//     preview, so quota and auth failures stay readable in logs.
//   - Body close errors are logged but never override the primary error.
func DoPostSync[OutputStruct any](ctx context.Context, client *http.Client, url string, body any, opts ...HeaderOption) (*OutputStruct, error) {
	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("error marshaling body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(req.Header)
	}

	res, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer func() {
		if closeErr := res.Body.Close(); closeErr != nil {
			slog.Warn("failed to close response body", "error", closeErr.Error(), "url", url)
		}
	}()

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("non-2xx status %d: %s", res.StatusCode, TruncateString(string(respBody), DefaultMaxStringLength))
	}

	var resStruct OutputStruct
	if err = json.Unmarshal(respBody, &resStruct); err != nil {
		return nil, fmt.Errorf("error unmarshaling response body (status %d): %w\nResponse preview: %s", res.StatusCode, err, TruncateString(string(respBody), DefaultMaxStringLength))
	}

	return &resStruct, nil
}
