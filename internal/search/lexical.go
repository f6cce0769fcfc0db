package search

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/hirepath/shortlist/internal/store"
)

// lexicalTermPattern splits query text into search terms.
var lexicalTermPattern = regexp.MustCompile(`[,;\s]+`)

// LexicalScorer runs keyword search over stored resume chunks. The
// score of a chunk is the total number of case-insensitive,
// non-overlapping occurrences of the query terms in its text.
type LexicalScorer struct {
	chunks   store.ChunkStore
	maxChars int
}

// NewLexicalScorer returns a scorer reading from chunks. Hit snippets
// are capped at maxCharsPerChunk bytes.
func NewLexicalScorer(chunks store.ChunkStore, maxCharsPerChunk int) *LexicalScorer {
	if maxCharsPerChunk <= 0 {
		maxCharsPerChunk = defaultMaxCharsPerChunk
	}
	return &LexicalScorer{chunks: chunks, maxChars: maxCharsPerChunk}
}

// Search scores chunks against queryText and returns up to limit hits,
// best first. A non-empty candidateIDs restricts the scan to those
// candidates; empty means all. Chunks containing none of the terms are
// dropped, and ties keep storage order.
func (s *LexicalScorer) Search(ctx context.Context, queryText string, candidateIDs []string, limit int) ([]*RetrievalHit, error) {
	terms := splitTerms(queryText)
	if len(terms) == 0 {
		return []*RetrievalHit{}, nil
	}

	var (
		chunks []*store.Chunk
		err    error
	)
	if len(candidateIDs) > 0 {
		chunks, err = s.chunks.ChunksByCandidates(ctx, candidateIDs)
	} else {
		chunks, err = s.chunks.AllChunks(ctx)
	}
	if err != nil {
		return nil, err
	}

	hits := make([]*RetrievalHit, 0, len(chunks))
	for _, c := range chunks {
		score := occurrenceScore(c.Text, terms)
		if score == 0 {
			continue
		}
		hits = append(hits, &RetrievalHit{
			ChunkID:     c.ChunkID,
			CandidateID: c.CandidateID,
			SectionType: c.SectionType,
			ChunkText:   truncate(c.Text, s.maxChars),
			Score:       float64(score),
			Source:      SourceLexical,
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

// splitTerms breaks query text on commas, semicolons and whitespace,
// dropping single-character fragments.
func splitTerms(queryText string) []string {
	var terms []string
	for _, t := range lexicalTermPattern.Split(queryText, -1) {
		if len(t) > 1 {
			terms = append(terms, strings.ToLower(t))
		}
	}
	return terms
}

// occurrenceScore counts non-overlapping occurrences of each term in
// text, case-insensitively, and sums them.
func occurrenceScore(text string, loweredTerms []string) int {
	lowered := strings.ToLower(text)
	score := 0
	for _, t := range loweredTerms {
		score += strings.Count(lowered, t)
	}
	return score
}
