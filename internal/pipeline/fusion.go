package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/hirepath/shortlist/internal/search"
)

// runFusion merges the two retrieval lists into one RRF-ranked
// candidate list. Pure computation; it cannot fail.
func (p *Pipeline) runFusion(_ context.Context, state *runState, out *sink) error {
	start := time.Now()
	out.emit(AgentStart(AgentFusion, 3, "🔀 Fusing lexical + vector results using Reciprocal Rank Fusion..."))

	sparseSet := candidateSet(state.sparseResults)
	denseSet := candidateSet(state.denseResults)
	both, sparseOnly, denseOnly := 0, 0, 0
	for cid := range sparseSet {
		if _, ok := denseSet[cid]; ok {
			both++
		} else {
			sparseOnly++
		}
	}
	for cid := range denseSet {
		if _, ok := sparseSet[cid]; !ok {
			denseOnly++
		}
	}

	out.emit(Thought(AgentFusion,
		fmt.Sprintf("📊 Fusing %d lexical candidates + %d vector candidates = %d unique candidates (k=%d)",
			len(sparseSet), len(denseSet), both+sparseOnly+denseOnly, p.cfg.Retrieval.RRFK)))

	state.fused = search.FuseResults(state.sparseResults, state.denseResults,
		p.cfg.Retrieval.RRFK, p.cfg.Retrieval.KPool)

	elapsed := time.Since(start)
	state.stageTimings[StageFusion] = elapsed.Seconds()
	out.emit(StageCompleteEvent(StageFusion, durationMS(elapsed),
		fmt.Sprintf("✅ Fusion complete: %d candidates ranked (both: %d, lexical-only: %d, vector-only: %d) (%dms)",
			len(state.fused), both, sparseOnly, denseOnly, durationMS(elapsed))))
	return nil
}

func candidateSet(hits []*search.RetrievalHit) map[string]struct{} {
	set := make(map[string]struct{}, len(hits))
	for _, hit := range hits {
		set[hit.CandidateID] = struct{}{}
	}
	return set
}
