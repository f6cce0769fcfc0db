package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hirepath/shortlist/internal/search"
)

// runRanking scores the rerank slice with the cross-encoder and blends
// the result with RRF into final percentages. A cross-encoder failure
// zeroes the rerank scores and the blend degrades to RRF alone; this
// stage never fails the run.
func (p *Pipeline) runRanking(ctx context.Context, state *runState, out *sink) error {
	start := time.Now()

	top := state.fused[:min(p.cfg.Retrieval.KRerank, len(state.fused))]
	out.emit(AgentStart(AgentRanker, 5,
		fmt.Sprintf("🏆 Reranking top %d candidates using cross-encoder AI model...", len(top))))

	queryText := state.mission.QueryText()
	docs := search.BuildCrossEncoderDocs(top, state.packs)

	scores := make(map[string]float64)
	if len(top) > 0 {
		out.emit(ToolCallEvent(AgentRanker, ToolCrossEncoderRerank,
			fmt.Sprintf("🔧 Running cross-encoder model on %d candidates...", len(top))))
		results, err := p.reranker.Rerank(ctx, queryText, docs, len(docs))
		if err != nil {
			p.logger.Warn("cross-encoder rerank failed",
				"request_id", state.requestID, "error", err)
			out.emit(Thought(AgentRanker,
				fmt.Sprintf("⚠️ Cross-encoder failed (%s), using RRF scores only",
					clip(err.Error(), 50))))
			for _, cand := range top {
				scores[cand.CandidateID] = 0
			}
		} else {
			minScore, maxScore := 0.0, 0.0
			for i, r := range results {
				if i == 0 || r.Score < minScore {
					minScore = r.Score
				}
				if i == 0 || r.Score > maxScore {
					maxScore = r.Score
				}
				if r.Index < len(top) {
					scores[top[r.Index].CandidateID] = r.Score
				}
			}
			out.emit(ToolResultEvent(AgentRanker, ToolCrossEncoderRerank,
				fmt.Sprintf("📊 Cross-encoder scored %d candidates (score range: %.3f to %.3f)",
					len(results), minScore, maxScore)))
		}
	}
	state.rerankScores = scores

	out.emit(Thought(AgentRanker,
		fmt.Sprintf("📐 Computing final scores (RRF weight: %g, CE weight: %g)...",
			p.cfg.Ranking.RRFWeight, p.cfg.Ranking.CEWeight)))
	state.ranked = search.ComputeFinalScores(top, scores, p.cfg.Ranking.RRFWeight, p.cfg.Ranking.CEWeight)

	topScores := make([]string, 0, 3)
	for _, cand := range state.ranked[:min(3, len(state.ranked))] {
		topScores = append(topScores, fmt.Sprintf("%.1f%%", cand.FinalScore))
	}

	elapsed := time.Since(start)
	state.stageTimings[StageRanking] = elapsed.Seconds()
	out.emit(StageCompleteEvent(StageRanking, durationMS(elapsed),
		fmt.Sprintf("✅ Ranking complete: top scores = %s (%dms)",
			strings.Join(topScores, ", "), durationMS(elapsed))))
	return nil
}
