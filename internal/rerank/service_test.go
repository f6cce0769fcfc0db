package rerank

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/hirepath/shortlist/internal/errors"
)

// ============================================================================
// NoOp
// ============================================================================

func TestNoOp_ReturnsZeroScoresInOrder(t *testing.T) {
	results, err := NoOp{}.Rerank(context.Background(), "query", []string{"a", "b", "c"}, 0)

	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Zero(t, r.Score)
	}
}

func TestNoOp_TopKCapsResults(t *testing.T) {
	results, err := NoOp{}.Rerank(context.Background(), "query", []string{"a", "b", "c"}, 2)

	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestNoOp_AlwaysAvailable(t *testing.T) {
	assert.True(t, NoOp{}.Available(context.Background()))
	assert.NoError(t, NoOp{}.Close())
}

// ============================================================================
// ServiceCrossEncoder
// ============================================================================

func TestServiceCrossEncoder_SendsQueryAndMapsResultsByIndex(t *testing.T) {
	// Given: a service answering sorted by score, indices pointing back
	// at the input slice
	var gotBody rerankRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rerank", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		_, _ = w.Write([]byte(`{"results": [
			{"index": 2, "score": 0.91},
			{"index": 0, "score": 0.40},
			{"index": 1, "score": 0.12}
		]}`))
	}))
	defer srv.Close()

	c := NewServiceCrossEncoder(srv.URL, time.Second, nil)
	defer func() { _ = c.Close() }()

	// When: I rerank three documents
	results, err := c.Rerank(context.Background(), "seo manager", []string{"doc a", "doc b", "doc c"}, 3)

	// Then: the request carried the inputs and results keep service order
	// with original indices
	require.NoError(t, err)
	assert.Equal(t, "seo manager", gotBody.Query)
	assert.Equal(t, []string{"doc a", "doc b", "doc c"}, gotBody.Documents)
	assert.Equal(t, 3, gotBody.TopK)

	require.Len(t, results, 3)
	assert.Equal(t, Result{Index: 2, Score: 0.91}, results[0])
	assert.Equal(t, Result{Index: 0, Score: 0.40}, results[1])
	assert.Equal(t, Result{Index: 1, Score: 0.12}, results[2])
}

func TestServiceCrossEncoder_EmptyDocumentsSkipsRequest(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := NewServiceCrossEncoder(srv.URL, time.Second, nil)
	defer func() { _ = c.Close() }()

	results, err := c.Rerank(context.Background(), "query", nil, 0)

	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.Equal(t, int64(0), calls.Load())
}

func TestServiceCrossEncoder_ServerErrorReturnsRerankFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewServiceCrossEncoder(srv.URL, time.Second, nil)
	defer func() { _ = c.Close() }()

	_, err := c.Rerank(context.Background(), "query", []string{"doc"}, 0)

	require.Error(t, err)
	assert.Equal(t, serrors.ErrCodeRerankFailed, serrors.GetCode(err))
}

func TestServiceCrossEncoder_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	// Given: a service that always fails
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewServiceCrossEncoder(srv.URL, time.Second, nil)
	defer func() { _ = c.Close() }()

	ctx := context.Background()

	// When: enough calls fail to trip the breaker
	for i := 0; i < 5; i++ {
		_, err := c.Rerank(ctx, "query", []string{"doc"}, 0)
		require.Error(t, err)
	}
	hits := calls.Load()

	// Then: the next call fails fast without reaching the service
	_, err := c.Rerank(ctx, "query", []string{"doc"}, 0)
	require.Error(t, err)
	assert.Equal(t, serrors.ErrCodeUpstreamUnavailable, serrors.GetCode(err))
	assert.Equal(t, hits, calls.Load(), "open circuit should not hit the service")
}

func TestServiceCrossEncoder_CancelledContextReturnsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewServiceCrossEncoder(srv.URL, time.Second, nil)
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Rerank(ctx, "query", []string{"doc"}, 0)

	require.Error(t, err)
	assert.Equal(t, serrors.ErrCodeUpstreamTimeout, serrors.GetCode(err))
}

func TestServiceCrossEncoder_Available(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": [{"index": 0, "score": 1.0}]}`))
	}))

	c := NewServiceCrossEncoder(srv.URL, time.Second, nil)
	defer func() { _ = c.Close() }()

	assert.True(t, c.Available(context.Background()))

	srv.Close()
	assert.False(t, c.Available(context.Background()))
}

func TestNewServiceCrossEncoder_AppliesDefaults(t *testing.T) {
	c := NewServiceCrossEncoder("", 0, nil)
	defer func() { _ = c.Close() }()

	assert.Equal(t, DefaultServiceURL, c.baseURL)
	assert.Equal(t, DefaultCallTimeout, c.timeout)
}
