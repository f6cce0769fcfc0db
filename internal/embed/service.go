package embed

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

// ServiceEmbedder generates embeddings through the model service's HTTP
// API. It holds a pooled client and is safe for concurrent use.
type ServiceEmbedder struct {
	client    *http.Client
	transport *http.Transport
	baseURL   string
	timeout   time.Duration
	logger    *slog.Logger
}

// Verify interface implementation at compile time
var _ Embedder = (*ServiceEmbedder)(nil)

type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// NewServiceEmbedder creates an embedder talking to the model service at
// baseURL. A zero timeout falls back to DefaultCallTimeout.
func NewServiceEmbedder(baseURL string, timeout time.Duration, logger *slog.Logger) *ServiceEmbedder {
	if baseURL == "" {
		baseURL = DefaultServiceURL
	}
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Timeouts come from per-request contexts, not the client, so a
	// caller's deadline is never overridden by a static client timeout.
	transport := &http.Transport{
		MaxIdleConns:        8,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     90 * time.Second,
	}

	return &ServiceEmbedder{
		client:    &http.Client{Transport: transport},
		transport: transport,
		baseURL:   baseURL,
		timeout:   timeout,
		logger:    logger,
	}
}

// Embed generates the embedding for a single text.
func (e *ServiceEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, serrors.New(serrors.ErrCodeEmbedFailed, "no embedding returned", nil)
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one request.
// Transient failures are retried with backoff; each attempt is bounded
// by the call timeout.
func (e *ServiceEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	vecs, err := serrors.RetryWithResult(ctx, serrors.DefaultRetryConfig(), func() ([][]float64, error) {
		return e.doEmbed(ctx, texts)
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, serrors.New(serrors.ErrCodeUpstreamTimeout, "embed call cancelled or timed out", err)
		}
		return nil, serrors.Wrap(serrors.ErrCodeEmbedFailed, err).
			WithSuggestion("check MODEL_SERVICE_URL and that the model service is running")
	}
	return vecs, nil
}

// doEmbed performs a single round trip against the /embed endpoint.
func (e *ServiceEmbedder) doEmbed(ctx context.Context, texts []string) ([][]float64, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	body, err := json.Marshal(embedRequest{Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, e.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embed failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(out.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d for %d texts", len(out.Embeddings), len(texts))
	}
	return out.Embeddings, nil
}

// Available probes the service with a one-word embed call. The probe
// may be slow on first use while the service loads its model.
func (e *ServiceEmbedder) Available(ctx context.Context) bool {
	_, err := e.doEmbed(ctx, []string{"ping"})
	if err != nil {
		e.logger.Debug("embedder unavailable", "error", err)
		return false
	}
	return true
}

// Close releases idle connections.
func (e *ServiceEmbedder) Close() error {
	e.transport.CloseIdleConnections()
	return nil
}
