// Package llm implements the model invocation boundary: a role-keyed
// client for OpenAI-compatible chat completion endpoints, plus the error
// classification the execution engine's retry policy depends on.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/storyforge/storyforge/internal/config"
)

// maxResponseSize limits the response body read to prevent memory
// exhaustion on a misbehaving endpoint.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// Invoker is the port the execution engine calls to obtain a role's output
// for a phase. Implementations must be safe for repeated calls so the
// engine's retry loop stays sound, and must distinguish transient from
// fatal errors via the wrappers in this package.
type Invoker interface {
	Invoke(ctx context.Context, role string, prompt string) (string, error)
}

// endpoint is a resolved role target.
type endpoint struct {
	url       string
	model     string
	apiKeyEnv string
	maxTokens int
	temp      *float64
}

// Client invokes OpenAI-compatible chat endpoints, resolving roles through
// a lookup table fixed at construction time.
type Client struct {
	endpoints  map[string]endpoint
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(client *Client) {
		client.logger = logger
	}
}

// NewClient builds a Client from the configured role→endpoint table.
func NewClient(models map[string]config.ModelEndpoint, opts ...ClientOption) *Client {
	c := &Client{
		endpoints: make(map[string]endpoint, len(models)),
		httpClient: &http.Client{
			Timeout: 180 * time.Second, // allow time for model inference
		},
		logger: slog.Default(),
	}
	for role, ep := range models {
		c.endpoints[role] = endpoint{
			url:       chatCompletionsURL(ep.BaseURL),
			model:     ep.Model,
			apiKeyEnv: ep.APIKeyEnv,
			maxTokens: ep.MaxTokens,
			temp:      ep.Temp,
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// chatCompletionsURL normalizes a base URL into the chat completions endpoint.
func chatCompletionsURL(baseURL string) string {
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1"
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	if strings.HasSuffix(baseURL, "/chat/completions") {
		return baseURL
	}
	return baseURL + "/chat/completions"
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Invoke sends the prompt to the role's configured endpoint and returns
// the completion text. Network and server-side failures come back wrapped
// as transient; protocol and configuration failures as fatal.
func (c *Client) Invoke(ctx context.Context, role string, prompt string) (string, error) {
	ep, ok := c.endpoints[role]
	if !ok {
		return "", NewFatalError(fmt.Errorf("no endpoint configured for role %q", role))
	}

	reqBody := chatRequest{
		Model: ep.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: ep.temp,
	}
	if ep.maxTokens > 0 {
		reqBody.MaxTokens = &ep.maxTokens
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", NewFatalError(fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.url, bytes.NewReader(body))
	if err != nil {
		return "", NewFatalError(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if ep.apiKeyEnv != "" {
		if key := os.Getenv(ep.apiKeyEnv); key != "" {
			req.Header.Set("Authorization", "Bearer "+key)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// Let the engine classify deadline expiry itself.
			return "", ctx.Err()
		}
		return "", NewTransientError(fmt.Errorf("call %s: %w", ep.url, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", NewTransientError(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("endpoint %s returned %d: %s", ep.url, resp.StatusCode, truncate(string(raw), 200))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", NewTransientError(err)
		}
		return "", NewFatalError(err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		// A garbled body from a healthy endpoint is worth another attempt.
		return "", NewTransientError(fmt.Errorf("parse response: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return "", NewTransientError(fmt.Errorf("no choices in response from %s", ep.url))
	}

	c.logger.Debug("model call complete",
		"role", role,
		"model", parsed.Model,
		"tokens", parsed.Usage.TotalTokens,
		"duration", time.Since(start).Round(time.Millisecond))

	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
