// Package embed turns query text into dense vectors by calling the
// model service's /embed endpoint. The service owns model loading and
// batching; this package owns transport, retries, and caching.
package embed

import (
	"context"
	"time"
)

const (
	// DefaultServiceURL is the model service base URL when none is configured.
	DefaultServiceURL = "http://localhost:8001"

	// DefaultCallTimeout bounds a single embed round trip.
	DefaultCallTimeout = 30 * time.Second

	// DefaultCacheSize is the default number of query embeddings to cache.
	// At 768 dimensions * 8 bytes * 1000 entries ~= 6MB memory.
	DefaultCacheSize = 1000
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float64, error)

	// EmbedBatch generates one embedding per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)

	// Available reports whether the backing service can serve embeddings.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}
