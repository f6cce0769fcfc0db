package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	serrors "github.com/hirepath/shortlist/internal/errors"
	"github.com/hirepath/shortlist/internal/metrics"
	"github.com/hirepath/shortlist/internal/pipeline"
)

// shortlistRequest is the body of both shortlist endpoints. Filters
// and Limit are accepted for forward compatibility; the pipeline does
// not use them yet.
type shortlistRequest struct {
	QueryText string         `json:"query_text"`
	Filters   map[string]any `json:"filters"`
	Limit     int            `json:"limit"`
}

// runOutcome carries the pipeline result out of the run goroutine.
type runOutcome struct {
	resp *pipeline.ShortlistResponse
	err  error
}

// startRun launches the pipeline in a goroutine. The returned events
// channel closes when the run finishes; the outcome channel then holds
// exactly one result.
func (s *Server) startRun(ctx context.Context, req shortlistRequest) (<-chan pipeline.Event, <-chan runOutcome) {
	events := make(chan pipeline.Event, pipeline.EventChannelCapacity)
	outcome := make(chan runOutcome, 1)
	go func() {
		resp, err := s.runner.Run(ctx, req.QueryText, req.Filters, events)
		outcome <- runOutcome{resp: resp, err: err}
		close(events)
	}()
	return events, outcome
}

// handleShortlistStream streams the pipeline run as server-sent
// events. A successful run ends with a done event; a fatal run ends
// with the error event the pipeline emitted.
func (s *Server) handleShortlistStream(c *gin.Context) {
	var req shortlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}

	// Client disconnect cancels c.Request.Context() and with it the run.
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout())
	defer cancel()

	start := time.Now()
	s.metrics.RunStarted()
	defer s.metrics.RunFinished()

	events, outcome := s.startRun(ctx, req)
	for ev := range events {
		s.observe(ev)
		s.writeEvent(c.Writer, flusher, ev)
	}

	out := <-outcome
	if out.err != nil {
		s.logger.Error("shortlist stream failed", slog.Any("error", serrors.FormatForLog(out.err)))
		s.metrics.ObserveRequest(routeShortlistStream, statusFromError(out.err), time.Since(start).Seconds())
		return
	}

	s.writeEvent(c.Writer, flusher, pipeline.DoneEvent())
	s.metrics.ObserveRequest(routeShortlistStream, metrics.StatusOK, time.Since(start).Seconds())
	s.metrics.RecordQuality(out.resp.MatchQuality)
}

// handleShortlistSync runs the pipeline to completion and returns the
// final response as plain JSON, discarding the progress events.
func (s *Server) handleShortlistSync(c *gin.Context) {
	var req shortlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout())
	defer cancel()

	start := time.Now()
	s.metrics.RunStarted()
	defer s.metrics.RunFinished()

	events, outcome := s.startRun(ctx, req)
	for ev := range events {
		s.observe(ev)
	}

	out := <-outcome
	if out.err != nil {
		s.logger.Error("shortlist sync failed", slog.Any("error", serrors.FormatForLog(out.err)))
		s.metrics.ObserveRequest(routeShortlistSync, statusFromError(out.err), time.Since(start).Seconds())
		c.JSON(http.StatusInternalServerError, gin.H{"error": out.err.Error()})
		return
	}

	s.metrics.ObserveRequest(routeShortlistSync, metrics.StatusOK, time.Since(start).Seconds())
	s.metrics.RecordQuality(out.resp.MatchQuality)
	c.JSON(http.StatusOK, out.resp)
}

// writeEvent writes one SSE frame and flushes it to the client.
func (s *Server) writeEvent(w io.Writer, flusher http.Flusher, ev pipeline.Event) {
	data, err := json.Marshal(ev.Payload)
	if err != nil {
		s.logger.Error("event marshal failed", "type", ev.Type, "error", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
	flusher.Flush()
}

// observe feeds stage timings and failures into the metrics.
func (s *Server) observe(ev pipeline.Event) {
	switch ev.Type {
	case pipeline.EventStageComplete:
		if stage, ok := ev.Payload.Stage.(string); ok && ev.Payload.TimingMS != nil {
			s.metrics.ObserveStage(stage, float64(*ev.Payload.TimingMS)/1000)
		}
	case pipeline.EventError:
		if stage, ok := ev.Payload.Stage.(string); ok {
			s.metrics.StageFailed(stage)
		}
	}
}

func statusFromError(err error) string {
	if serrors.GetCode(err) == serrors.ErrCodeRunCancelled {
		return metrics.StatusCancelled
	}
	return metrics.StatusError
}
