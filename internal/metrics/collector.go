// Package metrics exposes Prometheus instrumentation for debates and the
// HTTP API.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector 指标收集器，实现 debate.Recorder。
type Collector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 辩论指标
	debatesStarted   prometheus.Counter
	debatesCompleted *prometheus.CounterVec
	debatesRunning   prometheus.Gauge
	debateRounds     prometheus.Histogram

	// 发言指标
	turnsTotal   *prometheus.CounterVec
	turnDuration *prometheus.HistogramVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器并注册到 reg；reg 为空时使用默认注册表。
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.debatesStarted = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "debates_started_total",
			Help:      "Total number of debates launched",
		},
	)

	c.debatesCompleted = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "debates_completed_total",
			Help:      "Total number of debates finished, by reason",
		},
		[]string{"reason"},
	)

	c.debatesRunning = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "debates_running",
			Help:      "Number of debates currently running",
		},
	)

	c.debateRounds = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "debate_rounds",
			Help:      "Rounds played per finished debate",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		},
	)

	c.turnsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Total number of participant turns, by role and status",
		},
		[]string{"role", "status"},
	)

	c.turnDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Participant respond latency in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"role"},
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))
	return c
}

// RecordHTTPRequest 记录 HTTP 请求
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// DebateStarted 记录辩论启动
func (c *Collector) DebateStarted() {
	c.debatesStarted.Inc()
	c.debatesRunning.Inc()
}

// DebateFinished 记录辩论结束
func (c *Collector) DebateFinished(reason string, rounds int) {
	c.debatesRunning.Dec()
	c.debatesCompleted.WithLabelValues(reason).Inc()
	if rounds > 0 {
		c.debateRounds.Observe(float64(rounds))
	}
}

// TurnObserved 记录一次发言
func (c *Collector) TurnObserved(role string, ok bool, elapsed time.Duration) {
	status := "success"
	if !ok {
		status = "failure"
	}
	c.turnsTotal.WithLabelValues(role, status).Inc()
	c.turnDuration.WithLabelValues(role).Observe(elapsed.Seconds())
}
