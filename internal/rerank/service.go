package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	serrors "github.com/hirepath/shortlist/internal/errors"
)

const (
	// DefaultServiceURL is the model service base URL when none is configured.
	DefaultServiceURL = "http://localhost:8001"

	// DefaultCallTimeout bounds a single rerank round trip.
	DefaultCallTimeout = 30 * time.Second
)

// ServiceCrossEncoder scores documents through the model service's HTTP
// API. Calls run through a circuit breaker so a downed service fails
// fast instead of burning the call timeout on every request.
type ServiceCrossEncoder struct {
	client    *http.Client
	transport *http.Transport
	baseURL   string
	timeout   time.Duration
	breaker   *serrors.CircuitBreaker
	logger    *slog.Logger
}

// Verify interface implementation at compile time
var _ CrossEncoder = (*ServiceCrossEncoder)(nil)

type rerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopK      int      `json:"top_k,omitempty"`
}

type rerankResponse struct {
	Results []struct {
		Index int     `json:"index"`
		Score float64 `json:"score"`
	} `json:"results"`
}

// NewServiceCrossEncoder creates a cross-encoder client for the model
// service at baseURL. A zero timeout falls back to DefaultCallTimeout.
func NewServiceCrossEncoder(baseURL string, timeout time.Duration, logger *slog.Logger) *ServiceCrossEncoder {
	if baseURL == "" {
		baseURL = DefaultServiceURL
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

	return &ServiceCrossEncoder{
		client:    &http.Client{Transport: transport},
		transport: transport,
		baseURL:   baseURL,
		timeout:   timeout,
		breaker:   serrors.NewCircuitBreaker("cross-encoder"),
		logger:    logger,
	}
}

// Rerank scores documents against the query via the /rerank endpoint.
func (c *ServiceCrossEncoder) Rerank(ctx context.Context, query string, documents []string, topK int) ([]Result, error) {
	if len(documents) == 0 {
		return []Result{}, nil
	}

	var results []Result
	err := c.breaker.Execute(func() error {
		var callErr error
		results, callErr = c.doRerank(ctx, query, documents, topK)
		return callErr
	})
	if err != nil {
		switch {
		case errors.Is(err, serrors.ErrCircuitOpen):
			return nil, serrors.New(serrors.ErrCodeUpstreamUnavailable, "cross-encoder circuit open, failing fast", err).
				WithSuggestion("check MODEL_SERVICE_URL and that the model service is running")
		case ctx.Err() != nil:
			return nil, serrors.New(serrors.ErrCodeUpstreamTimeout, "rerank call cancelled or timed out", err)
		default:
			return nil, serrors.Wrap(serrors.ErrCodeRerankFailed, err)
		}
	}
	return results, nil
}

// doRerank performs a single round trip against the /rerank endpoint.
func (c *ServiceCrossEncoder) doRerank(ctx context.Context, query string, documents []string, topK int) ([]Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(rerankRequest{Query: query, Documents: documents, TopK: topK})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("rerank failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var out rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	results := make([]Result, len(out.Results))
	for i, r := range out.Results {
		results[i] = Result{Index: r.Index, Score: r.Score}
	}
	return results, nil
}

// Available probes the service with a minimal rerank call.
func (c *ServiceCrossEncoder) Available(ctx context.Context) bool {
	_, err := c.doRerank(ctx, "ping", []string{"ping"}, 1)
	if err != nil {
		c.logger.Debug("cross-encoder unavailable", "error", err)
		return false
	}
	return true
}

// Close releases idle connections.
func (c *ServiceCrossEncoder) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}
