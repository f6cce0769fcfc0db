// Package pipeline orchestrates the six-stage shortlist run: JD
// understanding, retrieval, fusion, evidence building, ranking and
// assembly. Stages execute in order over a per-request run state and
// narrate their work through an event stream consumed by the SSE
// layer. Degradable stages fall back and keep going; load-bearing
// failures emit a terminal error event and abort the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hirepath/shortlist/internal/config"
	"github.com/hirepath/shortlist/internal/embed"
	serrors "github.com/hirepath/shortlist/internal/errors"
	"github.com/hirepath/shortlist/internal/mission"
	"github.com/hirepath/shortlist/internal/rerank"
	"github.com/hirepath/shortlist/internal/search"
	"github.com/hirepath/shortlist/internal/store"
)

// Deps are the collaborators a Pipeline needs. Store and Embedder are
// required. Parser and Highlighter are optional: a nil Parser means
// queries are parsed by keyword extraction only, and a nil Highlighter
// disables LLM highlight generation.
type Deps struct {
	Store       store.Store
	Embedder    embed.Embedder
	Reranker    rerank.CrossEncoder
	Parser      mission.QueryParser
	Highlighter mission.ChatCompleter
	Config      *config.Config
	Logger      *slog.Logger
}

// Pipeline runs shortlist requests. It is immutable after construction
// and safe for concurrent use; all per-request state lives in the run
// state.
type Pipeline struct {
	store       store.Store
	parser      mission.QueryParser
	fallback    mission.QueryParser
	lexical     *search.LexicalScorer
	vector      *search.VectorScorer
	reranker    rerank.CrossEncoder
	highlighter mission.ChatCompleter
	cfg         *config.Config
	logger      *slog.Logger
}

// New assembles a Pipeline from its dependencies, applying defaults
// for the optional ones.
func New(deps Deps) *Pipeline {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.NewConfig()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reranker := deps.Reranker
	if reranker == nil {
		reranker = rerank.NoOp{}
	}
	return &Pipeline{
		store:       deps.Store,
		parser:      deps.Parser,
		fallback:    &mission.FallbackParser{},
		lexical:     search.NewLexicalScorer(deps.Store, cfg.Evidence.MaxCharsPerChunk),
		vector:      search.NewVectorScorer(deps.Store, deps.Embedder, cfg.Evidence.MaxCharsPerChunk),
		reranker:    reranker,
		highlighter: deps.Highlighter,
		cfg:         cfg,
		logger:      logger,
	}
}

// Run executes the full pipeline for one query, emitting progress
// events into events as it goes. It returns the assembled response, or
// an error after emitting a terminal error event. Run never closes the
// channel; the caller owns it.
func (p *Pipeline) Run(ctx context.Context, queryText string, filters map[string]any, events chan<- Event) (resp *ShortlistResponse, err error) {
	state := newRunState(queryText, filters)
	out := &sink{ctx: ctx, ch: events}

	defer func() {
		if r := recover(); r != nil {
			serr := serrors.New(serrors.ErrCodeInternal,
				fmt.Sprintf("pipeline panicked: %v", r), nil).WithStage("pipeline")
			out.emit(ErrorEvent("pipeline", serr.Error()))
			p.logger.Error("pipeline run panicked",
				"request_id", state.requestID, "panic", r)
			resp, err = nil, serr
		}
	}()

	p.logger.Info("pipeline run starting",
		"request_id", state.requestID,
		"query_chars", len(queryText))

	stages := []struct {
		name string
		run  func(context.Context, *runState, *sink) error
	}{
		{StageJDUnderstanding, p.runJDUnderstanding},
		{StageRetrieval, p.runRetrieval},
		{StageFusion, p.runFusion},
		{StageEvidenceBuilding, p.runEvidence},
		{StageRanking, p.runRanking},
		{StageAssembly, p.runAssembly},
	}
	for _, stage := range stages {
		if ctx.Err() != nil {
			cancelled := serrors.New(serrors.ErrCodeRunCancelled,
				"run cancelled before "+stage.name+" stage", ctx.Err()).WithStage(stage.name)
			out.emit(ErrorEvent(stage.name, cancelled.Error()))
			p.logger.Warn("pipeline run cancelled",
				"request_id", state.requestID, "stage", stage.name)
			return nil, cancelled
		}
		if err := stage.run(ctx, state, out); err != nil {
			failed := stageError(stage.name, err)
			out.emit(ErrorEvent(stage.name, failed.Error()))
			p.logger.Error("pipeline stage failed",
				"request_id", state.requestID, "stage", stage.name, "error", err)
			return nil, failed
		}
	}

	p.logger.Info("pipeline run complete",
		"request_id", state.requestID,
		"results", len(state.response.Results),
		"match_quality", state.response.MatchQuality)
	return state.response, nil
}

// stageError tags err with the failing stage, wrapping non-pipeline
// errors in a stage failure.
func stageError(stage string, err error) *serrors.ShortlistError {
	var serr *serrors.ShortlistError
	if errors.As(err, &serr) {
		return serr.WithStage(stage)
	}
	return serrors.New(serrors.ErrCodeStageFailed,
		fmt.Sprintf("%s stage failed: %v", stage, err), err).WithStage(stage)
}

// durationMS reports elapsed wall time in whole milliseconds, rounded.
func durationMS(d time.Duration) int64 {
	return d.Round(time.Millisecond).Milliseconds()
}

// ellipsize caps s at n bytes, appending "..." when it was cut.
func ellipsize(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}

// clip caps s at n bytes with no marker.
func clip(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
