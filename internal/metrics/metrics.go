// Package metrics exposes the service's Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/weiawesome/wes-io-live/relationship-service/internal/domain"
)

var (
	// transitionsTotal counts relationship operations by outcome
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relationship_transitions_total",
		Help: "Relationship operations by operation and result",
	}, []string{"operation", "result"})

	// operationDuration tracks operation latency including the transaction
	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "relationship_operation_duration_seconds",
		Help:    "Relationship operation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
	}, []string{"operation"})

	notifyFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relationship_notify_failures_total",
		Help: "Notifications that failed to publish after commit",
	})

	countsCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relationship_counts_cache_total",
		Help: "Counts cache lookups by result",
	}, []string{"result"})

	counterRepairs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relationship_counter_repairs_total",
		Help: "Counter rows rewritten by the reconciler after drift",
	})

	cdcEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relationship_cdc_events_total",
		Help: "user_counters change events consumed, by outcome",
	}, []string{"outcome"})
)

// ObserveOperation records one operation's latency and result label.
func ObserveOperation(operation string, start time.Time, err error) {
	operationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	transitionsTotal.WithLabelValues(operation, Result(err)).Inc()
}

// Result labels an error by domain kind; unexpected errors are "error".
func Result(err error) string {
	if err == nil {
		return "ok"
	}
	if k := domain.KindOf(err); k != "" {
		return string(k)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	return "error"
}

// NotifyFailed counts a failed post-commit notification.
func NotifyFailed() {
	notifyFailures.Inc()
}

// CacheHit counts a counts-cache hit.
func CacheHit() {
	countsCache.WithLabelValues("hit").Inc()
}

// CacheMiss counts a counts-cache miss.
func CacheMiss() {
	countsCache.WithLabelValues("miss").Inc()
}

// CounterRepaired counts one drifted counter row fixed by the reconciler.
func CounterRepaired() {
	counterRepairs.Inc()
}

// CDCEvent counts one consumed change event.
func CDCEvent(outcome string) {
	cdcEvents.WithLabelValues(outcome).Inc()
}
