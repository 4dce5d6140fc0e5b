package sfstream

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for the streaming session and
// the extension layers. All record methods are nil-safe so components can
// carry a nil collector when metrics are disabled. It is safe for concurrent
// use.
type MetricsCollector struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	framesTotal        *prometheus.CounterVec
	framesSwallowed    prometheus.Counter
	reconnectsTotal    prometheus.Counter
	resubscribesTotal  *prometheus.CounterVec
	subscribeRetries   *prometheus.CounterVec
	replayStoresTotal  *prometheus.CounterVec
	timeoutAdvice      prometheus.Gauge
	taskFailuresTotal  *prometheus.CounterVec
	handshakesTotal    *prometheus.CounterVec
	subscribedChannels prometheus.Gauge
}

// NewMetricsCollector creates a collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using the supplied
// registerer.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sfstream_requests_total",
				Help: "Total number of protocol requests made",
			},
			[]string{"op", "outcome"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sfstream_request_duration_seconds",
				Help:    "Duration of protocol requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		framesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sfstream_frames_total",
				Help: "Total number of inbound frames by channel kind",
			},
			[]string{"kind"},
		),
		framesSwallowed: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "sfstream_frames_swallowed_total",
				Help: "Total number of frames consumed by layers instead of delivered",
			},
		),
		reconnectsTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "sfstream_reconnects_total",
				Help: "Total number of automatic re-handshakes after session invalidation",
			},
		),
		resubscribesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sfstream_resubscribes_total",
				Help: "Total number of post-reconnect resubscriptions",
			},
			[]string{"outcome"},
		),
		subscribeRetries: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sfstream_subscribe_retries_total",
				Help: "Total number of subscribe retries due to server congestion",
			},
			[]string{"channel"},
		),
		replayStoresTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sfstream_replay_stores_total",
				Help: "Total number of replay cursor persistence attempts",
			},
			[]string{"outcome"},
		),
		timeoutAdvice: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "sfstream_timeout_advice_seconds",
				Help: "Most recent long-poll timeout advised by the server",
			},
		),
		taskFailuresTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sfstream_task_failures_total",
				Help: "Total number of failed background tasks",
			},
			[]string{"task"},
		),
		handshakesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sfstream_handshakes_total",
				Help: "Total number of handshakes performed",
			},
			[]string{"outcome"},
		),
		subscribedChannels: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "sfstream_subscribed_channels",
				Help: "Current number of channels tracked for resubscription",
			},
		),
	}
}

// RecordRequest records a protocol request's outcome and duration.
func (mc *MetricsCollector) RecordRequest(op string, err error, duration time.Duration) {
	if mc == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	mc.requestsTotal.WithLabelValues(op, outcome).Inc()
	mc.requestDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordFrame counts an inbound frame by channel kind.
func (mc *MetricsCollector) RecordFrame(meta bool) {
	if mc == nil {
		return
	}
	kind := "data"
	if meta {
		kind = "meta"
	}
	mc.framesTotal.WithLabelValues(kind).Inc()
}

// RecordFrameSwallowed counts a frame filtered out by a layer.
func (mc *MetricsCollector) RecordFrameSwallowed() {
	if mc == nil {
		return
	}
	mc.framesSwallowed.Inc()
}

// RecordReconnect counts an automatic re-handshake.
func (mc *MetricsCollector) RecordReconnect() {
	if mc == nil {
		return
	}
	mc.reconnectsTotal.Inc()
}

// RecordResubscribe counts a post-reconnect resubscription.
func (mc *MetricsCollector) RecordResubscribe(err error) {
	if mc == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	mc.resubscribesTotal.WithLabelValues(outcome).Inc()
}

// RecordSubscribeRetry counts a congestion-triggered subscribe retry.
func (mc *MetricsCollector) RecordSubscribeRetry(channel string) {
	if mc == nil {
		return
	}
	mc.subscribeRetries.WithLabelValues(channel).Inc()
}

// RecordReplayStore counts a replay cursor persistence attempt.
func (mc *MetricsCollector) RecordReplayStore(err error) {
	if mc == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	mc.replayStoresTotal.WithLabelValues(outcome).Inc()
}

// RecordTimeoutAdvice sets the advised long-poll timeout gauge.
func (mc *MetricsCollector) RecordTimeoutAdvice(d time.Duration) {
	if mc == nil {
		return
	}
	mc.timeoutAdvice.Set(d.Seconds())
}

// RecordTaskFailure counts a failed background task by name.
func (mc *MetricsCollector) RecordTaskFailure(task string) {
	if mc == nil {
		return
	}
	mc.taskFailuresTotal.WithLabelValues(task).Inc()
}

// RecordHandshake counts a handshake by outcome.
func (mc *MetricsCollector) RecordHandshake(err error) {
	if mc == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	mc.handshakesTotal.WithLabelValues(outcome).Inc()
}

// RecordSubscribedChannels sets the tracked channel gauge.
func (mc *MetricsCollector) RecordSubscribedChannels(n int) {
	if mc == nil {
		return
	}
	mc.subscribedChannels.Set(float64(n))
}
