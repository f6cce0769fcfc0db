package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	serrors "github.com/hirepath/shortlist/internal/errors"
	"github.com/hirepath/shortlist/internal/search"
)

// runRetrieval gates the candidate pool by must-have skills, then runs
// lexical and vector search in parallel over the gated pool. Either
// search may fail and the run continues on the other; the stage fails
// only when the gate query errors or both searches die.
func (p *Pipeline) runRetrieval(ctx context.Context, state *runState, out *sink) error {
	start := time.Now()
	out.emit(AgentStart(AgentRetriever, 2, "🔍 Starting multi-strategy candidate retrieval..."))

	var gateIDs []string
	gateSkills := make(map[string][]string)

	mustHave := state.mission.MustHave
	if len(mustHave) > 0 {
		minMatch := max(1, len(mustHave)/2)
		preview := strings.Join(mustHave[:min(5, len(mustHave))], ", ")
		if len(mustHave) > 5 {
			preview += "..."
		}
		out.emit(ToolCallEvent(AgentRetriever, ToolSearchSkillsDB,
			fmt.Sprintf("🔧 Searching skills database for: %s", preview)))
		entries, err := p.store.GateCandidates(ctx, mustHave, minMatch, p.cfg.Retrieval.KPool)
		if err != nil {
			return fmt.Errorf("skill gate query: %w", err)
		}
		for _, entry := range entries {
			gateIDs = append(gateIDs, entry.CandidateID)
			gateSkills[entry.CandidateID] = entry.MatchedSkills
		}
		out.emit(ToolResultEvent(AgentRetriever, ToolSearchSkillsDB,
			fmt.Sprintf("📊 Found %d candidates matching skills (min %d/%d)",
				len(gateIDs), minMatch, len(mustHave))))
	}

	scope := "all"
	if len(gateIDs) > 0 {
		scope = "filtered"
	}
	out.emit(Thought(AgentRetriever,
		fmt.Sprintf("🔄 Running parallel retrieval — lexical + vector search across %s candidates...", scope)))
	out.emit(ToolCallEvent(AgentRetriever, ToolLexicalSearch, "🔧 Running keyword/lexical search on resume chunks..."))
	out.emit(ToolCallEvent(AgentRetriever, ToolVectorSearch, "🔧 Running semantic/vector search on resume chunks..."))

	queryText := state.mission.QueryText()

	var (
		sparse, dense       []*search.RetrievalHit
		sparseErr, denseErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sparse, sparseErr = p.lexical.Search(gctx, queryText, gateIDs, p.cfg.Retrieval.KSparse)
		return nil
	})
	g.Go(func() error {
		dense, denseErr = p.vector.Search(gctx, queryText, gateIDs, p.cfg.Retrieval.KDense)
		return nil
	})
	_ = g.Wait()

	if sparseErr != nil {
		p.logger.Warn("lexical search failed",
			"request_id", state.requestID, "error", sparseErr)
		out.emit(Thought(AgentRetriever,
			fmt.Sprintf("⚠️ Lexical search failed (%s), continuing with vector results only",
				clip(sparseErr.Error(), 50))))
		sparse = nil
	} else {
		out.emit(ToolResultEvent(AgentRetriever, ToolLexicalSearch,
			fmt.Sprintf("📊 Lexical search returned %d chunk hits", len(sparse))))
	}
	if denseErr != nil {
		p.logger.Warn("vector search failed",
			"request_id", state.requestID, "error", denseErr)
		out.emit(Thought(AgentRetriever,
			fmt.Sprintf("⚠️ Vector search failed (%s), continuing with lexical results only",
				clip(denseErr.Error(), 50))))
		dense = nil
	} else {
		out.emit(ToolResultEvent(AgentRetriever, ToolVectorSearch,
			fmt.Sprintf("📊 Vector search returned %d chunk hits", len(dense))))
	}
	if sparseErr != nil && denseErr != nil {
		return serrors.New(serrors.ErrCodeRetrievalFailed,
			"both lexical and vector retrieval failed", errors.Join(sparseErr, denseErr))
	}

	for _, hit := range sparse {
		hit.MatchedSkills = gateSkills[hit.CandidateID]
	}

	state.sparseResults = sparse
	state.denseResults = dense

	unique := make(map[string]struct{})
	for _, hit := range sparse {
		unique[hit.CandidateID] = struct{}{}
	}
	for _, hit := range dense {
		unique[hit.CandidateID] = struct{}{}
	}

	elapsed := time.Since(start)
	state.stageTimings[StageRetrieval] = elapsed.Seconds()
	out.emit(StageCompleteEvent(StageRetrieval, durationMS(elapsed),
		fmt.Sprintf("✅ Retrieval complete: %d lexical + %d vector hits from %d unique candidates (%dms)",
			len(sparse), len(dense), len(unique), durationMS(elapsed))))
	return nil
}
