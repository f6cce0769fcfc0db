package search

import (
	"math"
	"sort"
	"strings"
)

// maxCrossEncoderDocChars caps each document sent to the cross-encoder.
const maxCrossEncoderDocChars = 512

// BuildCrossEncoderDocs renders one scoring document per candidate, in
// candidate order. The document is the candidate's evidence snippets
// joined with " | ", falling back to its matched skill list when no
// evidence pack exists.
func BuildCrossEncoderDocs(candidates []*FusedCandidate, packs map[string]*EvidencePack) []string {
	docs := make([]string, 0, len(candidates))
	for _, c := range candidates {
		var doc string
		if pack, ok := packs[c.CandidateID]; ok && len(pack.Evidence) > 0 {
			snippets := make([]string, 0, len(pack.Evidence))
			for _, item := range pack.Evidence {
				snippets = append(snippets, item.TextSnippet)
			}
			doc = strings.Join(snippets, " | ")
		} else {
			doc = "Skills: " + strings.Join(c.MatchedSkills, ", ")
		}
		docs = append(docs, truncate(doc, maxCrossEncoderDocChars))
	}
	return docs
}

// ComputeFinalScores blends RRF and cross-encoder scores into final
// percentages. RRF scores are normalized against the pool maximum;
// cross-encoder scores are min-max normalized over the non-zero values
// so that unscored candidates (score 0 after a failed rerank) do not
// stretch the range, then clamped to [0, 1]. The result is sorted by
// final score descending, RRF score descending, candidate id ascending.
func ComputeFinalScores(candidates []*FusedCandidate, ceScores map[string]float64, rrfWeight, ceWeight float64) []*RankedCandidate {
	rrfMax := 0.0
	for _, c := range candidates {
		if c.RRFScore > rrfMax {
			rrfMax = c.RRFScore
		}
	}

	ceMin, ceMax, hasCE := 0.0, 1.0, false
	for _, c := range candidates {
		s := ceScores[c.CandidateID]
		if s == 0 {
			continue
		}
		if !hasCE || s < ceMin {
			ceMin = s
		}
		if !hasCE || s > ceMax {
			ceMax = s
		}
		hasCE = true
	}
	ceRange := ceMax - ceMin
	if ceRange == 0 {
		ceRange = 1.0
	}

	ranked := make([]*RankedCandidate, 0, len(candidates))
	for _, c := range candidates {
		rrfNorm := 0.0
		if rrfMax > 0 {
			rrfNorm = c.RRFScore / rrfMax
		}
		raw := ceScores[c.CandidateID]
		ceNorm := (raw - ceMin) / ceRange
		if ceNorm < 0 {
			ceNorm = 0
		} else if ceNorm > 1 {
			ceNorm = 1
		}
		ranked = append(ranked, &RankedCandidate{
			CandidateID:   c.CandidateID,
			FinalScore:    roundTo(100*(rrfWeight*rrfNorm+ceWeight*ceNorm), 1),
			RRFScore:      roundTo(c.RRFScore, 6),
			RerankScore:   roundTo(raw, 4),
			DenseRank:     c.DenseRank,
			SparseRank:    c.SparseRank,
			MatchedSkills: c.MatchedSkills,
			MatchedCount:  c.MatchedCount,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].FinalScore != ranked[j].FinalScore {
			return ranked[i].FinalScore > ranked[j].FinalScore
		}
		if ranked[i].RRFScore != ranked[j].RRFScore {
			return ranked[i].RRFScore > ranked[j].RRFScore
		}
		return ranked[i].CandidateID < ranked[j].CandidateID
	})
	return ranked
}

// roundTo rounds x to the given number of decimal places.
func roundTo(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
