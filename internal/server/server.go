// Package server exposes the shortlist pipeline over HTTP: an SSE
// streaming endpoint, a synchronous variant, a component health check,
// and the Prometheus scrape endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hirepath/shortlist/internal/config"
	"github.com/hirepath/shortlist/internal/embed"
	"github.com/hirepath/shortlist/internal/llm"
	"github.com/hirepath/shortlist/internal/metrics"
	"github.com/hirepath/shortlist/internal/pipeline"
	"github.com/hirepath/shortlist/internal/rerank"
	"github.com/hirepath/shortlist/internal/store"
)

const (
	routeShortlistStream = "/agents/shortlist"
	routeShortlistSync   = "/agents/shortlist/sync"
	routeHealth          = "/health"
	routeMetrics         = "/metrics"

	healthCheckTimeout = 5 * time.Second
	shutdownTimeout    = 10 * time.Second
)

// Runner executes one shortlist run, emitting progress events into the
// channel. Implementations must not close the channel.
type Runner interface {
	Run(ctx context.Context, queryText string, filters map[string]any, events chan<- pipeline.Event) (*pipeline.ShortlistResponse, error)
}

var _ Runner = (*pipeline.Pipeline)(nil)

// Deps bundles everything the HTTP layer needs. Store is required;
// Embedder, Reranker, and LLM are only probed by the health endpoint
// and may be nil. A nil Metrics disables instrumentation.
type Deps struct {
	Runner   Runner
	Store    store.Store
	Embedder embed.Embedder
	Reranker rerank.CrossEncoder
	LLM      *llm.Client
	Config   *config.Config
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

// Server is the HTTP front end for shortlistd.
type Server struct {
	runner   Runner
	store    store.Store
	embedder embed.Embedder
	reranker rerank.CrossEncoder
	llm      *llm.Client
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	engine   *gin.Engine
}

// New builds the server and its routes.
func New(deps Deps) *Server {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.NewConfig()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	s := &Server{
		runner:   deps.Runner,
		store:    deps.Store,
		embedder: deps.Embedder,
		reranker: deps.Reranker,
		llm:      deps.LLM,
		cfg:      cfg,
		logger:   logger,
		metrics:  deps.Metrics,
		engine:   engine,
	}

	engine.Use(gin.Recovery())
	engine.Use(s.requestLog())

	engine.POST(routeShortlistStream, s.handleShortlistStream)
	engine.POST(routeShortlistSync, s.handleShortlistSync)
	engine.GET(routeHealth, s.handleHealth)
	if s.metrics != nil {
		engine.GET(routeMetrics, gin.WrapH(s.metrics.Handler()))
	}

	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe runs the server until ctx is cancelled, then drains
// in-flight requests and shuts down.
func (s *Server) ListenAndServe(ctx context.Context) error {
	// SSE responses stream for the whole run, so no write timeout.
	srv := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	s.logger.Info("http server listening", "addr", s.cfg.Server.ListenAddr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		s.logger.Info("http server stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// requestLog logs every request through slog. Health and metrics
// probes log at debug to keep the info stream readable.
func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		level := slog.LevelInfo
		if path == routeHealth || path == routeMetrics {
			level = slog.LevelDebug
		}
		s.logger.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client", c.ClientIP(),
		)
	}
}
