package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Recording
// ============================================================================

func TestObserveRequest_CountsByEndpointAndStatus(t *testing.T) {
	m := New()

	m.ObserveRequest("/agents/shortlist", StatusOK, 1.5)
	m.ObserveRequest("/agents/shortlist", StatusOK, 0.5)
	m.ObserveRequest("/agents/shortlist/sync", StatusError, 0.1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/agents/shortlist", StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/agents/shortlist/sync", StatusError)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.RequestDuration))
}

func TestObserveStage_TracksPerStageHistograms(t *testing.T) {
	m := New()

	m.ObserveStage("retrieval", 0.042)
	m.ObserveStage("retrieval", 0.061)
	m.ObserveStage("ranking", 0.200)

	// One histogram child per distinct stage label.
	assert.Equal(t, 2, testutil.CollectAndCount(m.StageDuration))
}

func TestStageFailed_CountsPerStage(t *testing.T) {
	m := New()

	m.StageFailed("retrieval")
	m.StageFailed("retrieval")
	m.StageFailed("assembly")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StageFailures.WithLabelValues("retrieval")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StageFailures.WithLabelValues("assembly")))
}

func TestRunsInFlight_TracksStartAndFinish(t *testing.T) {
	m := New()

	m.RunStarted()
	m.RunStarted()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RunsInFlight))

	m.RunFinished()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsInFlight))
}

func TestRecordQuality_CountsByQuality(t *testing.T) {
	m := New()

	m.RecordQuality("strong")
	m.RecordQuality("weak")
	m.RecordQuality("strong")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.MatchQuality.WithLabelValues("strong")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MatchQuality.WithLabelValues("weak")))
}

func TestNilMetrics_RecordsNothingWithoutPanics(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveRequest("/agents/shortlist", StatusOK, 1.0)
		m.ObserveStage("fusion", 0.01)
		m.StageFailed("fusion")
		m.RunStarted()
		m.RunFinished()
		m.RecordQuality("none")
	})
}

// ============================================================================
// Scrape Handler
// ============================================================================

func TestHandler_ServesRegisteredMetrics(t *testing.T) {
	m := New()
	m.ObserveRequest("/agents/shortlist", StatusOK, 0.3)
	m.ObserveStage("jd_understanding", 0.8)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "shortlist_requests_total")
	assert.Contains(t, body, "shortlist_stage_duration_seconds")
	assert.Contains(t, body, "shortlist_runs_in_flight")
	assert.Contains(t, body, "go_goroutines")
}

func TestNew_InstancesAreIsolated(t *testing.T) {
	// Separate registries: registering twice must not panic, and counts
	// must not bleed between instances.
	a := New()
	b := New()

	a.ObserveRequest("/agents/shortlist", StatusOK, 0.1)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.RequestsTotal.WithLabelValues("/agents/shortlist", StatusOK)))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RequestsTotal.WithLabelValues("/agents/shortlist", StatusOK)))
}
