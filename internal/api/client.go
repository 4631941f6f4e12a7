// Package api implements the HTTP client for the agent backend.
// It covers the session CRUD surface and opening the chat stream; decoding the
// stream body is the job of the stream package.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"agentchat/internal/auth"
	"agentchat/internal/logger"
)

// Client talks to the agent backend. CRUD calls share one *http.Client with a
// request timeout; stream requests use a separate client without one, since a
// reply can legitimately take longer than any sane CRUD timeout.
type Client struct {
	baseURL      string
	creds        auth.TokenProvider
	httpClient   *http.Client
	streamClient *http.Client
}

// NewClient creates a backend client for the given base URL.
func NewClient(baseURL string, creds auth.TokenProvider, timeout time.Duration) *Client {
	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		creds:        creds,
		httpClient:   &http.Client{Timeout: timeout},
		streamClient: &http.Client{},
	}
}

// APIError represents a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Detail     string
}

// Error returns the error string for an APIError.
func (e *APIError) Error() string {
	return fmt.Sprintf("backend error %d: %s", e.StatusCode, e.Detail)
}

// IsNotFound reports whether err wraps an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// do issues a JSON request and decodes the response into out (unless out is nil).
// A non-2xx status is returned as *APIError with the backend's detail message.
func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if err := c.authorize(req); err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger.Debug("Backend request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	logger.Debug("Backend response", "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, body)
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// authorize sets the bearer token header on a request.
func (c *Client) authorize(req *http.Request) error {
	token, err := c.creds.Token()
	if err != nil {
		return fmt.Errorf("failed to load credentials: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// decodeAPIError converts a FastAPI-style error body into an *APIError.
// The detail field may be a string or structured validation output; anything
// that is not a plain string is passed through verbatim.
func decodeAPIError(status int, body []byte) error {
	var parsed struct {
		Detail json.RawMessage `json:"detail"`
	}
	detail := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Detail) > 0 {
		var s string
		if err := json.Unmarshal(parsed.Detail, &s); err == nil {
			detail = s
		} else {
			detail = string(parsed.Detail)
		}
	}
	if detail == "" {
		detail = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Detail: detail}
}
