// Package metrics records operational metrics for an ingestion run behind a
// small backend-agnostic interface.
//
// The global backend defaults to a no-op, so instrumentation is always safe
// to call. Concrete systems live in subpackages (prompush, datadog) and are
// installed with SetBackend at startup.
package metrics

import (
	"sync"
	"time"
)

// Metric names shared by every backend.
const (
	StageTotal      = "cricketdb_stage_total"
	StageDuration   = "cricketdb_stage_duration_seconds"
	DocumentsTotal  = "cricketdb_documents_total"
	RowsTotal       = "cricketdb_rows_total"
	StatementsTotal = "cricketdb_statements_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a duration-style value.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes buffered metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b and returns the previous backend. Passing nil
// restores the no-op backend.
func SetBackend(b Backend) Backend {
	mu.Lock()
	defer mu.Unlock()
	prev := backend
	if b == nil {
		b = nopBackend{}
	}
	backend = b
	return prev
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStage counts one execution of a pipeline stage and its duration,
// labelled success or failure.
func RecordStage(job, stage string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": job, "stage": stage, "status": status}

	b := current()
	b.IncCounter(StageTotal, 1, lbls)
	b.ObserveHistogram(StageDuration, d.Seconds(), lbls)
}

// RecordDocuments counts source documents by outcome: "normalized",
// "malformed" or "duplicate".
func RecordDocuments(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(DocumentsTotal, float64(delta), Labels{"job": job, "kind": kind})
}

// RecordRows counts rows written to table.
func RecordRows(job, table string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RowsTotal, float64(delta), Labels{"job": job, "table": table})
}

// RecordStatements counts executed INSERT statements (batches) for table.
func RecordStatements(job, table string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(StatementsTotal, float64(delta), Labels{"job": job, "table": table})
}
