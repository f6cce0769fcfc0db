package search

import "sort"

// DefaultRRFK is the standard reciprocal rank fusion constant.
const DefaultRRFK = 60

// FuseResults merges lexical and vector chunk hits into resume-level
// candidates using reciprocal rank fusion. Each candidate's best
// (lowest) chunk rank per source contributes 1/(rrfK+rank) to its
// score; candidates missing from a source contribute nothing for it.
// Matched skills are taken from the candidate's first lexical hit.
// The result is sorted by RRF score descending, candidate id ascending
// on ties, and truncated to kPool entries.
func FuseResults(sparse, dense []*RetrievalHit, rrfK, kPool int) []*FusedCandidate {
	if rrfK <= 0 {
		rrfK = DefaultRRFK
	}

	sparseRanks := bestRanks(sparse)
	denseRanks := bestRanks(dense)

	matchedByCandidate := make(map[string][]string)
	for _, h := range sparse {
		if _, ok := matchedByCandidate[h.CandidateID]; !ok {
			matchedByCandidate[h.CandidateID] = h.MatchedSkills
		}
	}

	seen := make(map[string]bool, len(sparseRanks)+len(denseRanks))
	fused := make([]*FusedCandidate, 0, len(sparseRanks)+len(denseRanks))
	for cid := range sparseRanks {
		seen[cid] = true
	}
	for cid := range denseRanks {
		seen[cid] = true
	}
	for cid := range seen {
		var rrf float64
		var sparseRank, denseRank *int
		if r, ok := sparseRanks[cid]; ok {
			rank := r
			sparseRank = &rank
			rrf += 1.0 / float64(rrfK+rank)
		}
		if r, ok := denseRanks[cid]; ok {
			rank := r
			denseRank = &rank
			rrf += 1.0 / float64(rrfK+rank)
		}
		matched := matchedByCandidate[cid]
		if matched == nil {
			matched = []string{}
		}
		fused = append(fused, &FusedCandidate{
			CandidateID:   cid,
			RRFScore:      rrf,
			DenseRank:     denseRank,
			SparseRank:    sparseRank,
			MatchedSkills: matched,
			MatchedCount:  len(matched),
		})
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].RRFScore != fused[j].RRFScore {
			return fused[i].RRFScore > fused[j].RRFScore
		}
		return fused[i].CandidateID < fused[j].CandidateID
	})
	if kPool > 0 && len(fused) > kPool {
		fused = fused[:kPool]
	}
	return fused
}

// bestRanks maps each candidate to its best (lowest) chunk rank in a
// hit list.
func bestRanks(hits []*RetrievalHit) map[string]int {
	best := make(map[string]int)
	for _, h := range hits {
		if cur, ok := best[h.CandidateID]; !ok || h.Rank < cur {
			best[h.CandidateID] = h.Rank
		}
	}
	return best
}
