// Package llm provides an OpenAI-compatible chat completion client.
// Query parsing and highlight generation both run through it; when no
// API key is configured every call fails fast so callers take their
// keyword fallbacks.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	serrors "github.com/hirepath/shortlist/internal/errors"
)

const (
	// DefaultBaseURL is the OpenAI API base used when none is configured.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is the default chat model.
	DefaultModel = "gpt-4o-mini"

	// DefaultTemperature keeps structured extraction near-deterministic.
	DefaultTemperature = 0.1

	// DefaultCallTimeout bounds a single completion round trip.
	DefaultCallTimeout = 30 * time.Second
)

// Client calls an OpenAI-compatible /chat/completions endpoint. It is
// immutable after construction and safe for concurrent use.
type Client struct {
	client      *http.Client
	transport   *http.Transport
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	timeout     time.Duration
	logger      *slog.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewClient creates an LLM client. Empty baseURL, model, or zero
// timeout fall back to the package defaults. An empty apiKey is
// allowed; calls then fail with ERR_305_LLM_FAILED immediately.
func NewClient(baseURL, apiKey, model string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		MaxIdleConns:        8,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		client:      &http.Client{Transport: transport},
		transport:   transport,
		baseURL:     baseURL,
		apiKey:      apiKey,
		model:       model,
		temperature: DefaultTemperature,
		timeout:     timeout,
		logger:      logger,
	}
}

// WithTemperature returns a copy of the client using the given sampling
// temperature. The copy shares the underlying connection pool.
func (c *Client) WithTemperature(t float64) *Client {
	clone := *c
	clone.temperature = t
	return &clone
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Complete sends a system prompt plus optional user message and returns
// the assistant's reply text. Transient failures are retried with
// backoff; each attempt is bounded by the call timeout.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if c.apiKey == "" {
		return "", serrors.New(serrors.ErrCodeLLMFailed, "llm api key not configured", nil).
			WithSuggestion("set LLM_API_KEY to enable LLM parsing and highlights")
	}

	content, err := serrors.RetryWithResult(ctx, serrors.DefaultRetryConfig(), func() (string, error) {
		return c.doComplete(ctx, system, user)
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", serrors.New(serrors.ErrCodeUpstreamTimeout, "llm call cancelled or timed out", err)
		}
		return "", serrors.Wrap(serrors.ErrCodeLLMFailed, err)
	}
	return content, nil
}

// doComplete performs a single round trip against /chat/completions.
func (c *Client) doComplete(ctx context.Context, system, user string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := []chatMessage{{Role: "system", Content: system}}
	if user != "" {
		messages = append(messages, chatMessage{Role: "user", Content: user})
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("completion failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(out.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}
	return out.Choices[0].Message.Content, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}
