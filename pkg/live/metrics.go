package live

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the Prometheus collectors for a live server.
type metrics struct {
	sessionsTotal  prometheus.Counter
	sessionsActive prometheus.Gauge
	resumesTotal   prometheus.Counter

	passesTotal  *prometheus.CounterVec
	passDuration *prometheus.HistogramVec
	itemsSkipped *prometheus.CounterVec

	hostOpsTotal *prometheus.CounterVec

	patchFramesTotal prometheus.Counter
	patchBytesTotal  prometheus.Counter

	wsErrorsTotal *prometheus.CounterVec
}

// Servers sharing the default registerer share one collector set;
// registering the same names twice would panic.
var (
	globalMetrics   *metrics
	globalMetricsMu sync.Mutex
)

func metricsFor(cfg *Config) *metrics {
	if cfg.Registry != nil {
		return newMetrics(cfg.Namespace, cfg.Registry)
	}

	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	if globalMetrics == nil {
		globalMetrics = newMetrics(cfg.Namespace, prometheus.DefaultRegisterer)
	}
	return globalMetrics
}

func newMetrics(namespace string, reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)

	return &metrics{
		sessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "sessions_total",
			Help:      "Total number of sessions created",
		}),

		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "sessions_active",
			Help:      "Number of sessions currently held, attached or resumable",
		}),

		resumesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "resumes_total",
			Help:      "Total number of session resumes",
		}),

		passesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "reconcile_passes_total",
			Help:      "Reconciliation passes by collection",
		}, []string{"collection"}),

		passDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "reconcile_duration_seconds",
			Help:      "Reconciliation pass duration by collection",
			Buckets:   prometheus.DefBuckets,
		}, []string{"collection"}),

		itemsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "items_skipped_total",
			Help:      "Items a pass could not render, by collection",
		}, []string{"collection"}),

		hostOpsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "host_ops_total",
			Help:      "Host operations recorded by op kind",
		}, []string{"op"}),

		patchFramesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "patch_frames_total",
			Help:      "Patch frames encoded for clients",
		}),

		patchBytesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "patch_bytes_total",
			Help:      "Encoded patch bytes, including frame headers",
		}),

		wsErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "websocket_errors_total",
			Help:      "WebSocket errors by type",
		}, []string{"type"}),
	}
}

// recordPass feeds a reconciliation pass into the collectors.
func (m *metrics) recordPass(collection string, seconds float64, skipped int, ops []hostOpCount) {
	m.passesTotal.WithLabelValues(collection).Inc()
	m.passDuration.WithLabelValues(collection).Observe(seconds)
	if skipped > 0 {
		m.itemsSkipped.WithLabelValues(collection).Add(float64(skipped))
	}
	for _, oc := range ops {
		m.hostOpsTotal.WithLabelValues(oc.op).Add(float64(oc.n))
	}
}

type hostOpCount struct {
	op string
	n  int
}
