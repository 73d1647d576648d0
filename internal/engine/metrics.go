package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cycle results recorded in Metrics.Cycles.
const (
	resultOK     = "ok"
	resultFailed = "failed"
)

// Metrics holds the Prometheus collectors shared by both loops.
type Metrics struct {
	Cycles               *prometheus.CounterVec
	EntriesWritten       *prometheus.CounterVec
	CarryoversSuppressed prometheus.Counter
	EntriesSkipped       prometheus.Counter
	SourceLatency        *prometheus.HistogramVec
	Watermark            *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Cycles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ilsfeed",
			Name:      "cycles_total",
			Help:      "Loop cycles by loop and result.",
		}, []string{"loop", "result"}),
		EntriesWritten: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ilsfeed",
			Name:      "queue_entries_written_total",
			Help:      "Rows appended to each downstream queue.",
		}, []string{"queue"}),
		CarryoversSuppressed: f.NewCounter(prometheus.CounterOpts{
			Namespace: "ilsfeed",
			Name:      "carryovers_suppressed_total",
			Help:      "Changes dropped because the previous cycle already saw them.",
		}),
		EntriesSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: "ilsfeed",
			Name:      "router_entries_skipped_total",
			Help:      "Upstream entries dropped by the router.",
		}),
		SourceLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ilsfeed",
			Name:      "source_poll_seconds",
			Help:      "Time spent polling each change source.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		Watermark: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ilsfeed",
			Name:      "watermark_timestamp_seconds",
			Help:      "Current persisted watermark per loop.",
		}, []string{"loop"}),
	}
}
