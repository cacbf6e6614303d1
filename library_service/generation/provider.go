package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"pustaka/types"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	refererHeader  = "http://localhost:5173"
	titleHeader    = "Pustaka+"
)

// ChatStreamer streams one chat completion, invoking onDelta for every
// content fragment and returning the final token usage.
type ChatStreamer interface {
	StreamChat(ctx context.Context, model, prompt string, onDelta func(string) error) (types.TokenUsage, error)
}

// OpenRouterProvider talks to an OpenAI-compatible chat completions API,
// OpenRouter by default. A custom base URL points it at any self-hosted
// compatible endpoint.
type OpenRouterProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewOpenRouterProvider creates a provider. baseURL may be empty for the
// OpenRouter default. The HTTP client carries no timeout: generation
// streams are long-lived and cancelled through the context.
func NewOpenRouterProvider(apiKey, baseURL string) *OpenRouterProvider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &OpenRouterProvider{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model         string        `json:"model"`
	Messages      []chatMessage `json:"messages"`
	Stream        bool          `json:"stream"`
	StreamOptions struct {
		IncludeUsage bool `json:"include_usage"`
	} `json:"stream_options"`
}

type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *types.TokenUsage `json:"usage"`
}

// StreamChat posts a streaming chat completion and relays content deltas.
// The upstream speaks SSE; chunks arrive in arbitrary sizes so split lines
// are carried over between reads.
func (p *OpenRouterProvider) StreamChat(ctx context.Context, model, prompt string, onDelta func(string) error) (types.TokenUsage, error) {
	var usage types.TokenUsage

	body := chatRequest{
		Model:    model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		Stream:   true,
	}
	body.StreamOptions.IncludeUsage = true
	payload, err := json.Marshal(body)
	if err != nil {
		return usage, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return usage, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("HTTP-Referer", refererHeader)
	req.Header.Set("X-Title", titleHeader)

	resp, err := p.client.Do(req)
	if err != nil {
		return usage, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return usage, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	buf := make([]byte, 4096)
	remainder := ""
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			text := remainder + string(buf[:n])
			lines := strings.Split(text, "\n")
			remainder = lines[len(lines)-1]
			for _, line := range lines[:len(lines)-1] {
				done, err := p.handleLine(line, &usage, onDelta)
				if err != nil {
					return usage, err
				}
				if done {
					return usage, nil
				}
			}
		}
		if readErr == io.EOF {
			return usage, nil
		}
		if readErr != nil {
			return usage, fmt.Errorf("provider stream read failed: %w", readErr)
		}
	}
}

// handleLine decodes one SSE line. Returns done=true on the [DONE] marker.
func (p *OpenRouterProvider) handleLine(line string, usage *types.TokenUsage, onDelta func(string) error) (bool, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "data:") {
		return false, nil
	}
	payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
	if payload == "" {
		return false, nil
	}
	if payload == "[DONE]" {
		return true, nil
	}

	var chunk chatChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		// Upstream keep-alives or comment lines are not fatal.
		return false, nil
	}
	if chunk.Usage != nil {
		*usage = *chunk.Usage
	}
	if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
		if err := onDelta(chunk.Choices[0].Delta.Content); err != nil {
			return false, err
		}
	}
	return false, nil
}

// ListModels validates an API key by listing the available model ids,
// sorted.
func (p *OpenRouterProvider) ListModels(ctx context.Context, apiKey string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", p.baseURL+"/models", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("HTTP-Referer", refererHeader)
	req.Header.Set("X-Title", titleHeader)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model listing failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model listing returned status %d", resp.StatusCode)
	}

	var parsed struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(parsed.Data))
	for _, m := range parsed.Data {
		ids = append(ids, m.ID)
	}
	sort.Strings(ids)
	return ids, nil
}
