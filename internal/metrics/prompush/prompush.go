// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// A run is a short-lived batch job, so collectors live in a private registry
// that is pushed to a Pushgateway on Flush instead of being scraped.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/MemphisMeng/cricket-report-sub000/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	stageCounter  *prometheus.CounterVec
	stageDuration *prometheus.SummaryVec
	documents     *prometheus.CounterVec
	rows          *prometheus.CounterVec
	statements    *prometheus.CounterVec
}

// NewBackend constructs a Pushgateway backend. jobName is the grouping key;
// gatewayURL is the base URL of the Pushgateway.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "cricketdb"
	}

	b := &Backend{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		reg:        prometheus.NewRegistry(),
		stageCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metrics.StageTotal,
				Help: "Pipeline stage executions by stage and status.",
			},
			[]string{"stage", "status"},
		),
		stageDuration: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name:       metrics.StageDuration,
				Help:       "Pipeline stage duration in seconds.",
				Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
			},
			[]string{"stage", "status"},
		),
		documents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metrics.DocumentsTotal,
				Help: "Match documents by outcome (normalized, malformed, duplicate).",
			},
			[]string{"kind"},
		),
		rows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metrics.RowsTotal,
				Help: "Rows written per destination table.",
			},
			[]string{"table"},
		),
		statements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metrics.StatementsTotal,
				Help: "INSERT statements executed per destination table.",
			},
			[]string{"table"},
		),
	}

	for name, c := range map[string]prometheus.Collector{
		"stage counter": b.stageCounter,
		"stage summary": b.stageDuration,
		"documents":     b.documents,
		"rows":          b.rows,
		"statements":    b.statements,
	} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", name, err)
		}
	}
	return b, nil
}

// IncCounter implements metrics.Backend. Unknown names are ignored.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StageTotal:
		b.stageCounter.WithLabelValues(labels["stage"], labels["status"]).Add(delta)
	case metrics.DocumentsTotal:
		b.documents.WithLabelValues(labels["kind"]).Add(delta)
	case metrics.RowsTotal:
		b.rows.WithLabelValues(labels["table"]).Add(delta)
	case metrics.StatementsTotal:
		b.statements.WithLabelValues(labels["table"]).Add(delta)
	}
}

// ObserveHistogram implements metrics.Backend.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StageDuration {
		return
	}
	b.stageDuration.WithLabelValues(labels["stage"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway, replacing the
// previous push for the same job.
func (b *Backend) Flush() error {
	if err := push.New(b.gatewayURL, b.jobName).Gatherer(b.reg).Push(); err != nil {
		return fmt.Errorf("prompush: push to %s: %w", b.gatewayURL, err)
	}
	return nil
}
