package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "conversation_insights"

var (
	PipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pipeline_runs_total",
		Help:      "Dashboard pipeline runs by outcome (ok, empty, source_error).",
	}, []string{"outcome"})

	SourceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_failures_total",
		Help:      "Upstream spreadsheet/API fetch failures.",
	}, []string{"source"})

	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_requests_total",
		Help:      "Cache lookups by result (hit, miss).",
	}, []string{"result"})

	RecordsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_processed_total",
		Help:      "Conversation records produced by the normalization pipeline.",
	})

	ProcessDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "process_duration_seconds",
		Help:      "Time spent normalizing and scoring one sheet.",
		Buckets:   prometheus.DefBuckets,
	})

	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Tenant login attempts by result.",
	}, []string{"result"})
)
