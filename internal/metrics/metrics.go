// Package metrics exposes Prometheus collectors for the knowledge-base and
// conversation pipeline.
package metrics

import (
	"errors"
	"time"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "chatbot"

var (
	// BuildsTotal counts knowledge-base builds.
	// Labels: result (success, corpus_empty, embedding_error, backend_error, busy, error)
	BuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "knowledge_base",
			Name:      "builds_total",
			Help:      "Total number of knowledge-base builds by result",
		},
		[]string{"result"},
	)

	// BuildDuration tracks how long builds take.
	BuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "knowledge_base",
			Name:      "build_duration_seconds",
			Help:      "Duration of knowledge-base builds in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	// ChunksIndexed counts chunks written to vector stores.
	// Labels: backend
	ChunksIndexed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "knowledge_base",
			Name:      "chunks_indexed_total",
			Help:      "Total number of chunks indexed",
		},
		[]string{"backend"},
	)

	// QueueDepth is the number of builds waiting for a worker.
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "knowledge_base",
			Name:      "build_queue_depth",
			Help:      "Number of queued knowledge-base builds",
		},
	)

	// RetrievalDuration tracks question embedding plus vector search.
	// Labels: backend
	RetrievalDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "duration_seconds",
			Help:      "Duration of retrievals in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"backend"},
	)

	// RetrievalFailures counts retrievals that failed and were degraded or
	// rejected.
	RetrievalFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "failures_total",
			Help:      "Total number of failed retrievals",
		},
		[]string{"mode"},
	)

	// TurnsTotal counts served ask and chat turns.
	// Labels: kind (ask, chat), result (success, error)
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "conversation",
			Name:      "turns_total",
			Help:      "Total number of conversational turns",
		},
		[]string{"kind", "result"},
	)

	// AccessDenied counts requests the access gate rejected.
	// Labels: reason (not_found, anonymous, no_credential, key_mismatch)
	AccessDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "access",
			Name:      "denied_total",
			Help:      "Total number of requests rejected by the access gate",
		},
		[]string{"reason"},
	)
)

// BuildResult names the outcome of a build for the result label.
func BuildResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrCorpusEmpty):
		return "corpus_empty"
	case errors.Is(err, domain.ErrEmbeddingProvider):
		return "embedding_error"
	case errors.Is(err, domain.ErrRetrievalBackend), errors.Is(err, domain.ErrUnsupportedBackend):
		return "backend_error"
	case errors.Is(err, domain.ErrBuildInProgress):
		return "busy"
	default:
		return "error"
	}
}

// ObserveBuild records one finished build.
func ObserveBuild(started time.Time, err error) {
	BuildsTotal.WithLabelValues(BuildResult(err)).Inc()
	BuildDuration.Observe(time.Since(started).Seconds())
}

// ObserveTurn records one finished ask or chat turn.
func ObserveTurn(kind string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	TurnsTotal.WithLabelValues(kind, result).Inc()
}
