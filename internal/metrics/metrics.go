// Package metrics exposes Prometheus instrumentation for the ingestion
// pipeline and the document store.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IngestTotal counts ingestion attempts by terminal outcome
	// (ok, no_text, image_load, preprocess, ocr, store).
	IngestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docmgr",
		Subsystem: "pipeline",
		Name:      "ingest_total",
		Help:      "Ingestion attempts by terminal outcome.",
	}, []string{"outcome"})

	// StageDuration observes wall time per pipeline stage.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "docmgr",
		Subsystem: "pipeline",
		Name:      "stage_duration_seconds",
		Help:      "Wall time spent in each ingestion stage.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"stage"})

	// StoreMutations counts committed store mutations by audit action.
	StoreMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docmgr",
		Subsystem: "store",
		Name:      "mutations_total",
		Help:      "Committed store mutations by audit action.",
	}, []string{"action"})
)
