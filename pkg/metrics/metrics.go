// Package metrics records sync runs for the Prometheus node exporter
// textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/agentstation/uppbod/pkg/errors"
)

const namespace = "uppbod"

// Run is what one sync run reports.
type Run struct {
	Source  string
	Outcome string // "success", "skipped", "dry_run", "error"

	Fetched   int
	Excluded  int
	Kept      int
	Added     int
	Updated   int
	Cancelled int
	Unchanged int
	StoreSize int

	// RecordErrors counts per-record problems by kind.
	RecordErrors map[string]int

	Duration   time.Duration
	FinishedAt time.Time
}

// Recorder owns a private registry so runs never leak into the default one.
type Recorder struct {
	reg *prometheus.Registry

	runs         *prometheus.CounterVec
	listings     *prometheus.GaugeVec
	changes      *prometheus.GaugeVec
	recordErrors *prometheus.GaugeVec
	storeSize    prometheus.Gauge
	duration     prometheus.Gauge
	lastRun      prometheus.Gauge
	lastSuccess  prometheus.Gauge
}

// New creates a Recorder.
func New() *Recorder {
	r := &Recorder{reg: prometheus.NewRegistry()}

	r.runs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_runs_total",
		Help:      "Sync runs by source and outcome",
	}, []string{"source", "outcome"})
	r.listings = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "snapshot_listings",
		Help:      "Listings in the last snapshot by stage",
	}, []string{"stage"})
	r.changes = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_records",
		Help:      "Records touched by the last run by kind of change",
	}, []string{"change"})
	r.recordErrors = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_record_errors",
		Help:      "Per-record problems in the last run by kind",
	}, []string{"kind"})
	r.storeSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "store_records",
		Help:      "Records in the store after the last run",
	})
	r.duration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_duration_seconds",
		Help:      "Wall time of the last run",
	})
	r.lastRun = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last run finished",
	})
	r.lastSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time the last successful run finished",
	})

	r.reg.MustRegister(
		r.runs, r.listings, r.changes, r.recordErrors,
		r.storeSize, r.duration, r.lastRun, r.lastSuccess,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.reg
}

// Observe records one run.
func (r *Recorder) Observe(run Run) {
	r.runs.WithLabelValues(run.Source, run.Outcome).Inc()

	r.listings.WithLabelValues("fetched").Set(float64(run.Fetched))
	r.listings.WithLabelValues("excluded").Set(float64(run.Excluded))
	r.listings.WithLabelValues("kept").Set(float64(run.Kept))

	r.changes.WithLabelValues("added").Set(float64(run.Added))
	r.changes.WithLabelValues("updated").Set(float64(run.Updated))
	r.changes.WithLabelValues("cancelled").Set(float64(run.Cancelled))
	r.changes.WithLabelValues("unchanged").Set(float64(run.Unchanged))

	r.recordErrors.Reset()
	for kind, n := range run.RecordErrors {
		r.recordErrors.WithLabelValues(kind).Set(float64(n))
	}

	r.storeSize.Set(float64(run.StoreSize))
	r.duration.Set(run.Duration.Seconds())

	finished := run.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	r.lastRun.Set(float64(finished.Unix()))
	if run.Outcome != "error" {
		r.lastSuccess.Set(float64(finished.Unix()))
	}
}

// WriteTextfile atomically writes the registry in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}
