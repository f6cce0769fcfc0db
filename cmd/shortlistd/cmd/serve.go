package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hirepath/shortlist/internal/config"
	"github.com/hirepath/shortlist/internal/embed"
	"github.com/hirepath/shortlist/internal/llm"
	"github.com/hirepath/shortlist/internal/logging"
	"github.com/hirepath/shortlist/internal/metrics"
	"github.com/hirepath/shortlist/internal/mission"
	"github.com/hirepath/shortlist/internal/pipeline"
	"github.com/hirepath/shortlist/internal/rerank"
	"github.com/hirepath/shortlist/internal/server"
	"github.com/hirepath/shortlist/internal/store"
)

// componentShutdownTimeout bounds store and client teardown on exit.
const componentShutdownTimeout = 5 * time.Second

// serveOptions holds the serve command flags.
type serveOptions struct {
	listenAddr string
	demo       bool
}

// newServeCmd creates the serve command.
func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the shortlist HTTP server",
		Long: `Start the HTTP server exposing the shortlist pipeline.

Endpoints:
  POST /agents/shortlist       stream run progress as Server-Sent Events
  POST /agents/shortlist/sync  run to completion, respond with JSON
  GET  /health                 component health
  GET  /metrics                Prometheus metrics

With --demo the server runs against a built-in in-memory candidate set
and hash-based embeddings, so it needs no MongoDB, model service, or
LLM key.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.listenAddr, "listen", "", "Listen address (overrides config)")
	cmd.Flags().BoolVar(&opts.demo, "demo", false, "Serve a built-in demo candidate set without external services")

	return cmd
}

// runServe wires the pipeline and runs the HTTP server until the
// context is cancelled or the listener fails.
func runServe(ctx context.Context, opts serveOptions) error {
	// .env is optional; deployed environments set variables directly.
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if opts.listenAddr != "" {
		cfg.Server.ListenAddr = opts.listenAddr
	}

	logger, cleanup, err := logging.Setup(logging.Config{
		Level:         cfg.Logging.Level,
		Format:        cfg.Logging.Format,
		FilePath:      cfg.Logging.File,
		WriteToStderr: true,
	})
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer cleanup()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	comp, err := buildComponents(ctx, cfg, logger, opts.demo)
	if err != nil {
		return err
	}
	defer comp.shutdown(logger)

	srv := server.New(server.Deps{
		Runner:   comp.pipeline,
		Store:    comp.store,
		Embedder: comp.embedder,
		Reranker: comp.reranker,
		LLM:      comp.llm,
		Config:   cfg,
		Logger:   logger,
		Metrics:  metrics.New(),
	})

	logger.Info("shortlistd starting",
		slog.String("addr", cfg.Server.ListenAddr),
		slog.Bool("demo", opts.demo))

	return srv.ListenAndServe(ctx)
}

// components bundles the wired pipeline dependencies plus their
// teardown hooks.
type components struct {
	store    store.Store
	embedder embed.Embedder
	reranker rerank.CrossEncoder
	llm      *llm.Client
	pipeline *pipeline.Pipeline

	closers []func(context.Context) error
}

// shutdown releases component resources, logging failures rather than
// propagating them.
func (c *components) shutdown(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), componentShutdownTimeout)
	defer cancel()
	for _, closeFn := range c.closers {
		if err := closeFn(ctx); err != nil {
			logger.Warn("component shutdown failed", slog.String("error", err.Error()))
		}
	}
}

// buildComponents wires the store, embedder, reranker, and LLM client
// into a pipeline. Demo mode swaps the external services for the
// seeded in-memory store and the hash embedder.
func buildComponents(ctx context.Context, cfg *config.Config, logger *slog.Logger, demo bool) (*components, error) {
	comp := &components{}

	if demo {
		embedder := embed.NewStaticEmbedder()
		st, err := seedDemoStore(ctx, embedder)
		if err != nil {
			return nil, err
		}
		comp.store = st
		comp.embedder = embedder
		comp.reranker = rerank.NoOp{}
		logger.Info("demo store seeded", slog.Int("candidates", len(demoCandidates())))
	} else {
		st, err := store.NewMongoStore(ctx, cfg.Mongo.URI, cfg.Mongo.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		comp.store = st
		comp.closers = append(comp.closers, st.Close)

		embedder := embed.NewCachedEmbedder(
			embed.NewServiceEmbedder(cfg.ModelService.URL, cfg.CallTimeout(), logger),
			cfg.ModelService.EmbedCacheSize,
		)
		comp.embedder = embedder
		comp.closers = append(comp.closers, func(context.Context) error { return embedder.Close() })

		reranker := rerank.NewServiceCrossEncoder(cfg.ModelService.URL, cfg.CallTimeout(), logger)
		comp.reranker = reranker
		comp.closers = append(comp.closers, func(context.Context) error { return reranker.Close() })

		comp.llm = llm.NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, cfg.CallTimeout(), logger)

		// Log the database name, never the URI: it can embed credentials.
		logger.Info("components wired",
			slog.String("mongo_database", cfg.Mongo.Database),
			slog.String("model_service", cfg.ModelService.URL),
			slog.Bool("llm_configured", comp.llm.Configured()))
	}

	deps := pipeline.Deps{
		Store:    comp.store,
		Embedder: comp.embedder,
		Reranker: comp.reranker,
		Config:   cfg,
		Logger:   logger,
	}
	if comp.llm != nil && comp.llm.Configured() {
		deps.Parser = mission.NewLLMParser(comp.llm)
		deps.Highlighter = comp.llm.WithTemperature(0.3)
	}
	comp.pipeline = pipeline.New(deps)

	return comp, nil
}
