// Package search implements the retrieval core of the shortlist
// pipeline: lexical and vector search over resume chunks, reciprocal
// rank fusion, bounded evidence packs, and cross-encoder score
// blending. Everything here is deterministic given its inputs; the
// pipeline package owns orchestration, events, and degradation.
package search

// Retrieval source tags. A chunk hit carries the source that produced
// it; evidence items record "both" when the chunk surfaced in both
// lists.
const (
	SourceLexical = "lexical"
	SourceVector  = "vector"
	MatchedBoth   = "both"
)

// defaultMaxCharsPerChunk caps hit snippets when no bound is configured.
const defaultMaxCharsPerChunk = 800

// RetrievalHit is a single chunk-level search result.
type RetrievalHit struct {
	ChunkID     string  `json:"chunk_id"`
	CandidateID string  `json:"candidate_id"`
	SectionType string  `json:"section_type"`
	ChunkText   string  `json:"chunk_text"`
	Score       float64 `json:"score"`
	Rank        int     `json:"rank"`
	Source      string  `json:"source"`

	// MatchedSkills carries the gate's canonical skills for lexical
	// hits; vector hits leave it empty.
	MatchedSkills []string `json:"matched_skills,omitempty"`
}

// FusedCandidate is a resume-level candidate after RRF fusion. A nil
// rank means the candidate was absent from that source list.
type FusedCandidate struct {
	CandidateID   string   `json:"candidate_id"`
	RRFScore      float64  `json:"rrf_score"`
	DenseRank     *int     `json:"dense_rank"`
	SparseRank    *int     `json:"sparse_rank"`
	MatchedSkills []string `json:"matched_skills"`
	MatchedCount  int      `json:"matched_count"`
}

// EvidenceItem is a single piece of evidence for a candidate.
type EvidenceItem struct {
	ChunkID     string `json:"chunk_id"`
	Section     string `json:"section"`
	TextSnippet string `json:"text_snippet"`
	WhyMatched  string `json:"why_matched"`
}

// EvidencePack is the bounded evidence selection for one candidate.
type EvidencePack struct {
	CandidateID string         `json:"candidate_id"`
	Evidence    []EvidenceItem `json:"evidence"`
	Highlights  []string       `json:"highlights"`
}

// RankedCandidate is a candidate after cross-encoder blending, ready
// for assembly.
type RankedCandidate struct {
	CandidateID   string   `json:"candidate_id"`
	FinalScore    float64  `json:"final_score"`
	RRFScore      float64  `json:"rrf_score"`
	RerankScore   float64  `json:"rerank_score"`
	DenseRank     *int     `json:"dense_rank"`
	SparseRank    *int     `json:"sparse_rank"`
	MatchedSkills []string `json:"matched_skills"`
	MatchedCount  int      `json:"matched_count"`
}

// GroupByCandidate buckets hits by candidate id, preserving hit order
// within each bucket.
func GroupByCandidate(hits []*RetrievalHit) map[string][]*RetrievalHit {
	grouped := make(map[string][]*RetrievalHit)
	for _, h := range hits {
		grouped[h.CandidateID] = append(grouped[h.CandidateID], h)
	}
	return grouped
}

// truncate caps s at n bytes.
func truncate(s string, n int) string {
	if n >= 0 && len(s) > n {
		return s[:n]
	}
	return s
}
