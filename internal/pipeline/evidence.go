package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hirepath/shortlist/internal/search"
)

// highlightCandidateLimit caps how many top candidates get an LLM
// highlight call per run.
const highlightCandidateLimit = 20

// highlightConcurrency bounds in-flight LLM highlight calls.
const highlightConcurrency = 10

// evidenceBatchSize is the progress-reporting granularity while packs
// are built.
const evidenceBatchSize = 10

// runEvidence builds a bounded evidence pack for each rerank candidate
// and asks the LLM for highlight sentences on the top slice. Every
// pack starts with deterministic fallback highlights, so a missing or
// failing LLM only costs polish. This stage never fails the run.
func (p *Pipeline) runEvidence(ctx context.Context, state *runState, out *sink) error {
	start := time.Now()

	top := state.fused[:min(p.cfg.Retrieval.KRerank, len(state.fused))]
	out.emit(AgentStart(AgentEvidenceBuilder, 4,
		fmt.Sprintf("📋 Building evidence packs for top %d candidates...", len(top))))

	sparseByCand := search.GroupByCandidate(state.sparseResults)
	denseByCand := search.GroupByCandidate(state.denseResults)

	for batchStart := 0; batchStart < len(top); batchStart += evidenceBatchSize {
		if batchStart > 0 {
			out.emit(Thought(AgentEvidenceBuilder,
				fmt.Sprintf("📋 Processing candidates %d-%d...",
					batchStart+1, min(batchStart+evidenceBatchSize, len(top)))))
		}
		for _, cand := range top[batchStart:min(batchStart+evidenceBatchSize, len(top))] {
			pack := search.BuildEvidencePack(cand.CandidateID,
				sparseByCand[cand.CandidateID], denseByCand[cand.CandidateID],
				p.cfg.Evidence.MaxChunksPerCandidate, p.cfg.Evidence.MaxTotalCharsPerCandidate)
			pack.Highlights = search.FallbackHighlights(pack)
			state.packs[cand.CandidateID] = pack
		}
	}

	out.emit(Thought(AgentEvidenceBuilder,
		fmt.Sprintf("✨ Built evidence packs for %d candidates. Generating highlights with AI...",
			len(state.packs))))

	var generated atomic.Int64
	if p.highlighter != nil {
		eligible := top[:min(highlightCandidateLimit, len(top))]
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(highlightConcurrency)
		for _, cand := range eligible {
			pack := state.packs[cand.CandidateID]
			if pack == nil || len(pack.Evidence) == 0 {
				continue
			}
			cid := cand.CandidateID
			g.Go(func() error {
				out.emit(ToolCallEvent(AgentEvidenceBuilder, ToolGenerateHighlights,
					fmt.Sprintf("🔧 Generating AI highlights for candidate %s...", clip(cid, 8))))
				highlights, err := search.GenerateHighlights(gctx, p.highlighter, state.mission, pack)
				if err != nil {
					p.logger.Warn("highlight generation failed",
						"request_id", state.requestID, "candidate_id", cid, "error", err)
					return nil
				}
				if highlights == nil {
					return nil
				}
				pack.Highlights = highlights
				generated.Add(1)
				return nil
			})
		}
		_ = g.Wait()
	}

	elapsed := time.Since(start)
	state.stageTimings[StageEvidenceBuilding] = elapsed.Seconds()
	out.emit(StageCompleteEvent(StageEvidenceBuilding, durationMS(elapsed),
		fmt.Sprintf("✅ Evidence built: %d packs, %d AI highlights (%dms)",
			len(state.packs), generated.Load(), durationMS(elapsed))))
	return nil
}
