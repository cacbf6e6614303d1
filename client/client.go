// Package client is the HTTP client for the library service: verification,
// archive CRUD, notes, and the two streaming generation endpoints.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"pustaka/config"
)

// TransportError marks the backend as unreachable, as opposed to reachable
// but unhappy. The UI treats this as an "offline" condition.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("backend unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UpstreamError is a non-success response from the service. Message carries
// the structured error body when the service supplied one.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("service returned %d", e.StatusCode)
}

// Library talks to the library service API.
type Library struct {
	baseURL string
	// json handles plain request/response calls; stream has no client-side
	// timeout so long generations are bounded only by context cancellation.
	json   *http.Client
	stream *http.Client
}

// NewLibrary creates a client for the given base URL. An empty base URL
// falls back to the PUSTAKA_API_URL environment variable, then localhost.
func NewLibrary(baseURL string) *Library {
	if baseURL == "" {
		baseURL = getEnvOrDefault("PUSTAKA_API_URL", "http://localhost:8000")
	}
	return &Library{
		baseURL: strings.TrimRight(baseURL, "/"),
		json:    &http.Client{Timeout: config.JSONRequestTimeout},
		stream:  &http.Client{},
	}
}

// getEnvOrDefault returns the value of an environment variable or a default value
func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// doJSONRequest performs a JSON request with the given method, path, payload, and result.
// It handles marshaling the payload, creating the request, executing it, and
// unmarshaling the response. If result is nil, the response body is not decoded.
func (c *Library) doJSONRequest(ctx context.Context, method, path string, payload, result interface{}) error {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.json.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return upstreamFromBody(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// openStream issues a generation request and hands back the raw response
// body for the session's read loop. Non-success responses are drained and
// returned as *UpstreamError before any streaming starts.
func (c *Library) openStream(ctx context.Context, path string, payload interface{}) (io.ReadCloser, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()
		return nil, upstreamFromBody(resp)
	}
	return resp.Body, nil
}

// classifyTransport separates "could not reach the service" from everything
// else. Context cancellation passes through untouched so abort is not
// mistaken for an offline backend.
func classifyTransport(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if errors.Is(urlErr.Err, context.Canceled) {
			return context.Canceled
		}
		return &TransportError{Err: urlErr.Err}
	}
	return &TransportError{Err: err}
}

// upstreamFromBody extracts the service's error message. FastAPI-style
// bodies use "detail", ours use "error"; anything else falls back to a
// generic message with the status code.
func upstreamFromBody(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var structured struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	msg := ""
	if err := json.Unmarshal(bodyBytes, &structured); err == nil {
		if structured.Detail != "" {
			msg = structured.Detail
		} else if structured.Error != "" {
			msg = structured.Error
		}
	}
	return &UpstreamError{StatusCode: resp.StatusCode, Message: msg}
}
