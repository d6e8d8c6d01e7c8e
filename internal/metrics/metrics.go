// Package metrics accumulates row outcomes into running counts and durations.
// An Aggregator has a single writer and is not safe for concurrent use.
package metrics

import (
	"time"

	"github.com/Wgledston/certificate-manager/internal/types"
)

// ProgressInterval is how many processed rows separate two progress checkpoints
const ProgressInterval = 5

// Aggregator collects per-row outcomes for one run
type Aggregator struct {
	summary types.Summary
	now     func() time.Time
}

// New creates an Aggregator expecting total rows
func New(runID, source string, total int) *Aggregator {
	return newWithClock(runID, source, total, time.Now)
}

func newWithClock(runID, source string, total int, now func() time.Time) *Aggregator {
	return &Aggregator{
		summary: types.Summary{
			RunID:     runID,
			Source:    source,
			Total:     total,
			StartedAt: now(),
		},
		now: now,
	}
}

// Record adds one outcome
func (a *Aggregator) Record(o types.Outcome) {
	a.summary.Processed++
	switch o.Status {
	case types.StatusSuccess:
		a.summary.Success++
	case types.StatusFailed:
		a.summary.Failure++
	default:
		a.summary.Skipped++
	}
	if a.summary.Processed == 1 || o.Duration < a.summary.MinDuration {
		a.summary.MinDuration = o.Duration
	}
	if o.Duration > a.summary.MaxDuration {
		a.summary.MaxDuration = o.Duration
	}
	a.summary.TotalDuration += o.Duration
}

// ShouldReport reports whether a progress checkpoint falls on the current processed count:
// every ProgressInterval rows and at the final row.
func (a *Aggregator) ShouldReport() bool {
	n := a.summary.Processed
	if n == 0 {
		return false
	}
	return n%ProgressInterval == 0 || n == a.summary.Total
}

// Snapshot returns the running summary without finishing the run
func (a *Aggregator) Snapshot() types.Summary {
	s := a.summary
	if s.Processed > 0 {
		s.AverageDuration = s.TotalDuration / time.Duration(s.Processed)
		s.SuccessRate = float64(s.Success) / float64(s.Processed)
	}
	return s
}

// Finish stamps the end time and returns the final summary
func (a *Aggregator) Finish() types.Summary {
	a.summary.FinishedAt = a.now()
	return a.Snapshot()
}
