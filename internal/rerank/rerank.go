// Package rerank scores query/document pairs through the model
// service's cross-encoder endpoint.
package rerank

import (
	"context"
)

// Result is a single scored document.
type Result struct {
	// Index is the original position in the input documents slice
	Index int
	// Score is the raw cross-encoder relevance score
	Score float64
}

// CrossEncoder scores documents by relevance to a query.
// Cross-encoders jointly encode query-document pairs for more accurate
// relevance scoring than bi-encoders, but at higher computational cost.
type CrossEncoder interface {
	// Rerank scores documents against the query. Results may arrive
	// sorted by score; Index always refers back to the input slice.
	// topK limits the number of results (0 = score all documents).
	Rerank(ctx context.Context, query string, documents []string, topK int) ([]Result, error)

	// Available checks if the cross-encoder service is reachable.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// NoOp scores every document zero, leaving upstream ordering untouched.
// Used when reranking is disabled or no model service is configured.
type NoOp struct{}

// Rerank returns zero scores in input order.
func (NoOp) Rerank(_ context.Context, _ string, documents []string, topK int) ([]Result, error) {
	n := len(documents)
	if topK > 0 && topK < n {
		n = topK
	}
	results := make([]Result, n)
	for i := range results {
		results[i] = Result{Index: i}
	}
	return results, nil
}

// Available always returns true for NoOp.
func (NoOp) Available(_ context.Context) bool {
	return true
}

// Close is a no-op.
func (NoOp) Close() error {
	return nil
}

// Verify interface implementation at compile time
var _ CrossEncoder = (*NoOp)(nil)
