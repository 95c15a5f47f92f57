package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zhouzirui/roundtable/backend/internal/service/debate"
)

var _ debate.Recorder = (*Collector)(nil)

func newTestCollector(t *testing.T) (*Collector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewCollector("test", reg, zap.NewNop()), reg
}

func TestCollector_DebateLifecycle(t *testing.T) {
	collector, _ := newTestCollector(t)

	collector.DebateStarted()
	collector.DebateStarted()
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.debatesStarted))
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.debatesRunning))

	collector.DebateFinished("terminal", 2)
	collector.DebateFinished("exhausted", 4)

	assert.Equal(t, 0.0, testutil.ToFloat64(collector.debatesRunning))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.debatesCompleted.WithLabelValues("terminal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.debatesCompleted.WithLabelValues("exhausted")))
	assert.Equal(t, 1, testutil.CollectAndCount(collector.debateRounds))
}

func TestCollector_TurnObserved(t *testing.T) {
	collector, _ := newTestCollector(t)

	collector.TurnObserved("critic", true, 150*time.Millisecond)
	collector.TurnObserved("critic", false, time.Second)
	collector.TurnObserved("facilitator", true, 2*time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.turnsTotal.WithLabelValues("critic", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.turnsTotal.WithLabelValues("critic", "failure")))
	assert.Equal(t, 2, testutil.CollectAndCount(collector.turnDuration))
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	collector, _ := newTestCollector(t)

	collector.RecordHTTPRequest("GET", "/api/sync", 200, 5*time.Millisecond)
	collector.RecordHTTPRequest("GET", "/api/sync", 200, 7*time.Millisecond)
	collector.RecordHTTPRequest("POST", "/api/puzzle", 409, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.httpRequestsTotal.WithLabelValues("GET", "/api/sync", "200")))
	assert.Equal(t, 2, testutil.CollectAndCount(collector.httpRequestsTotal))
}

func TestCollector_RegistersOnGivenRegistry(t *testing.T) {
	_, reg := newTestCollector(t)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["test_debates_started_total"])
	assert.True(t, names["test_debates_running"])

	// A second collector on a fresh registry must not collide.
	assert.NotPanics(t, func() { NewCollector("test", prometheus.NewRegistry(), nil) })
}
