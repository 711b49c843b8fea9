// Package telemetry exposes Prometheus collectors for the crawler service.
package telemetry

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	riotRequestsTotal        *prometheus.CounterVec
	riotRateLimitSleepSecs   prometheus.Counter
	recordsInsertedTotal     *prometheus.CounterVec
	crawlSweepsTotal         *prometheus.CounterVec
	crawlerActiveWorkers     prometheus.Gauge
	crawlerOldestCursorDelay *prometheus.GaugeVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		riotRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riot_requests_total",
				Help: "Total requests issued against the Riot API, labeled by routing host and status code.",
			},
			[]string{"host", "status"},
		)

		riotRateLimitSleepSecs = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "riot_rate_limit_sleep_seconds_total",
				Help: "Cumulative seconds spent honoring server-signaled Retry-After backoff.",
			},
		)

		recordsInsertedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_records_inserted_total",
				Help: "Total normalized records written to the store, labeled by entity.",
			},
			[]string{"entity"},
		)

		crawlSweepsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_sweeps_total",
				Help: "Total sweep executions, labeled by task and outcome.",
			},
			[]string{"task", "outcome"},
		)

		crawlerActiveWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "crawler_active_workers",
				Help: "Number of crawl workers currently running.",
			},
		)

		crawlerOldestCursorDelay = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "crawler_oldest_cursor_delay_seconds",
				Help: "Age of the oldest player fetch cursor per main region.",
			},
			[]string{"region"},
		)
	})
}

// ObserveRequest records one Riot API response.
func ObserveRequest(host string, status int) {
	if riotRequestsTotal == nil {
		return
	}
	riotRequestsTotal.WithLabelValues(host, strconv.Itoa(status)).Inc()
}

// ObserveRateLimitSleep accumulates time spent in Retry-After backoff.
func ObserveRateLimitSleep(d time.Duration) {
	if riotRateLimitSleepSecs == nil {
		return
	}
	riotRateLimitSleepSecs.Add(d.Seconds())
}

// AddInserted counts rows written for one entity kind.
func AddInserted(entity string, n int) {
	if recordsInsertedTotal == nil || n <= 0 {
		return
	}
	recordsInsertedTotal.WithLabelValues(entity).Add(float64(n))
}

// SweepFinished records one sweep outcome ("ok" or "error").
func SweepFinished(task, outcome string) {
	if crawlSweepsTotal == nil {
		return
	}
	crawlSweepsTotal.WithLabelValues(task, outcome).Inc()
}

// WorkerStarted increments the active worker gauge.
func WorkerStarted() {
	if crawlerActiveWorkers == nil {
		return
	}
	crawlerActiveWorkers.Inc()
}

// WorkerStopped decrements the active worker gauge.
func WorkerStopped() {
	if crawlerActiveWorkers == nil {
		return
	}
	crawlerActiveWorkers.Dec()
}

// SetOldestCursorDelay publishes how far behind the least recently fetched
// player in a main region is.
func SetOldestCursorDelay(region string, d time.Duration) {
	if crawlerOldestCursorDelay == nil {
		return
	}
	crawlerOldestCursorDelay.WithLabelValues(region).Set(d.Seconds())
}
