package storage

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Progress logs one line per executed insert batch with running totals and
// the instantaneous rows/sec since the previous batch. Backends call Add after
// each statement inside ExecTx.
type Progress struct {
	log     logrus.FieldLogger
	now     func() time.Time
	start   time.Time
	last    time.Time
	batches int64
	total   int64
}

// NewProgress starts a tracker; log is usually already tagged with the table.
func NewProgress(log logrus.FieldLogger) *Progress {
	return newProgressAt(log, time.Now)
}

func newProgressAt(log logrus.FieldLogger, now func() time.Time) *Progress {
	t := now()
	return &Progress{log: log, now: now, start: t, last: t}
}

// Add records a batch of n rows.
func (p *Progress) Add(n int64) {
	p.batches++
	p.total += n

	t := p.now()
	since := t.Sub(p.last)
	rps := float64(0)
	if since > 0 {
		rps = float64(n) / since.Seconds()
	}
	p.log.WithFields(logrus.Fields{
		"batch":          p.batches,
		"inserted":       n,
		"total_inserted": p.total,
		"rps":            int64(rps),
		"elapsed":        t.Sub(p.start).Truncate(time.Millisecond).String(),
	}).Debug("batch executed")
	p.last = t
}

// Batches returns the number of batches recorded.
func (p *Progress) Batches() int64 { return p.batches }

// Total returns the running row total.
func (p *Progress) Total() int64 { return p.total }
