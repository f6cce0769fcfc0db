package search

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/hirepath/shortlist/internal/embed"
	"github.com/hirepath/shortlist/internal/store"
)

// VectorScorer runs semantic search over stored resume chunks by
// embedding the query and ranking chunks by cosine similarity.
type VectorScorer struct {
	chunks   store.ChunkStore
	embedder embed.Embedder
	maxChars int
}

// NewVectorScorer returns a scorer reading from chunks and embedding
// queries with embedder. Hit snippets are capped at maxCharsPerChunk
// bytes.
func NewVectorScorer(chunks store.ChunkStore, embedder embed.Embedder, maxCharsPerChunk int) *VectorScorer {
	if maxCharsPerChunk <= 0 {
		maxCharsPerChunk = defaultMaxCharsPerChunk
	}
	return &VectorScorer{chunks: chunks, embedder: embedder, maxChars: maxCharsPerChunk}
}

// Search embeds queryText and returns up to limit chunk hits by cosine
// similarity, best first. A blank query returns no hits: embedding it
// would rank every chunk at similarity zero in arbitrary order. A
// non-empty candidateIDs restricts the scan to those candidates; empty
// means all. Chunks without a stored embedding are skipped.
func (s *VectorScorer) Search(ctx context.Context, queryText string, candidateIDs []string, limit int) ([]*RetrievalHit, error) {
	if strings.TrimSpace(queryText) == "" {
		return []*RetrievalHit{}, nil
	}

	queryVec, err := s.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, err
	}

	var chunks []*store.Chunk
	if len(candidateIDs) > 0 {
		chunks, err = s.chunks.EmbeddedChunksByCandidates(ctx, candidateIDs)
	} else {
		chunks, err = s.chunks.AllEmbeddedChunks(ctx)
	}
	if err != nil {
		return nil, err
	}

	hits := make([]*RetrievalHit, 0, len(chunks))
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			continue
		}
		hits = append(hits, &RetrievalHit{
			ChunkID:     c.ChunkID,
			CandidateID: c.CandidateID,
			SectionType: c.SectionType,
			ChunkText:   truncate(c.Text, s.maxChars),
			Score:       cosineSimilarity(queryVec, c.Embedding),
			Source:      SourceVector,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	for i, h := range hits {
		h.Rank = i + 1
	}
	return hits, nil
}

// cosineSimilarity returns the cosine of the angle between a and b.
// Mismatched lengths and zero-magnitude vectors score 0.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}
