// Package metrics registers the service's Prometheus collectors. Exposed on
// /metrics by the HTTP server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveSessions tracks live exam sessions held by the manager.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "exam",
		Name:      "active_sessions",
		Help:      "Number of exam sessions currently registered.",
	})

	// SessionsStarted counts Start commands that succeeded.
	SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "exam",
		Name:      "sessions_started_total",
		Help:      "Exam attempts started.",
	})

	// SessionsSubmitted counts submissions, explicit and timer-forced.
	SessionsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "exam",
		Name:      "sessions_submitted_total",
		Help:      "Exam attempts submitted, including countdown expiry.",
	})

	// ParseSkippedBlocks counts malformed question blocks dropped by the
	// parser across all bank loads.
	ParseSkippedBlocks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bank",
		Name:      "parse_skipped_blocks_total",
		Help:      "Malformed question blocks skipped while parsing bank documents.",
	})

	// BankCacheHits / BankCacheMisses measure parsed-bank cache efficiency.
	BankCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bank",
		Name:      "cache_hits_total",
		Help:      "Parsed question bank cache hits.",
	})
	BankCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bank",
		Name:      "cache_misses_total",
		Help:      "Parsed question bank cache misses.",
	})
)
