package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleHealth reports per-component reachability. The store is the
// only hard dependency: without it every run fails, so an unreachable
// store flips the status to degraded with a 503. The model services
// and LLM only degrade runs and never fail the check.
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	mongoOK := s.store != nil && s.store.Ping(ctx) == nil
	embedderOK := s.embedder != nil && s.embedder.Available(ctx)
	rerankerOK := s.reranker != nil && s.reranker.Available(ctx)
	llmOK := s.llm != nil && s.llm.Configured()

	status := "ok"
	code := http.StatusOK
	if !mongoOK {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":   status,
		"mongo":    mongoOK,
		"embedder": embedderOK,
		"reranker": rerankerOK,
		"llm":      llmOK,
	})
}
