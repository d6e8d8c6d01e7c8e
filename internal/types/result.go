package types

import (
	"time"
)

// Status is the terminal state of one manifest row
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
	// StatusReady marks a row that passed the local checks of a dry run
	StatusReady Status = "ready"
)

// SkipReason explains why a row never reached the certificate update
type SkipReason string

const (
	SkipInvalidIdentifier  SkipReason = "invalid identifier"
	SkipCertificateMissing SkipReason = "certificate file not found"
	// SkipCompanyNotFound also covers companies the host application hides from the table (e.g. MEI)
	SkipCompanyNotFound SkipReason = "company not found or is MEI"
)

// Outcome is produced exactly once per manifest row
type Outcome struct {
	Index      int           `json:"index" yaml:"index"`
	Identifier string        `json:"identifier" yaml:"identifier"`
	Name       string        `json:"name" yaml:"name"`
	Status     Status        `json:"status" yaml:"status"`
	Reason     SkipReason    `json:"reason,omitempty" yaml:"reason,omitempty"`
	Err        error         `json:"-" yaml:"-"`
	Error      string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
}

// Succeeded builds a success outcome
func Succeeded() Outcome {
	return Outcome{Status: StatusSuccess}
}

// Skipped builds a skip outcome
func Skipped(reason SkipReason) Outcome {
	return Outcome{Status: StatusSkipped, Reason: reason}
}

// Failed builds a failure outcome carrying its cause
func Failed(err error) Outcome {
	o := Outcome{Status: StatusFailed, Err: err}
	if err != nil {
		o.Error = err.Error()
	}
	return o
}

// Summary aggregates the outcomes of a run
type Summary struct {
	RunID           string        `json:"runId" yaml:"runId"`
	Source          string        `json:"source" yaml:"source"`
	Total           int           `json:"total" yaml:"total"`
	Processed       int           `json:"processed" yaml:"processed"`
	Success         int           `json:"success" yaml:"success"`
	Failure         int           `json:"failure" yaml:"failure"`
	Skipped         int           `json:"skipped" yaml:"skipped"`
	SuccessRate     float64       `json:"successRate" yaml:"successRate"`
	TotalDuration   time.Duration `json:"totalDuration" yaml:"totalDuration"`
	AverageDuration time.Duration `json:"averageDuration" yaml:"averageDuration"`
	MinDuration     time.Duration `json:"minDuration" yaml:"minDuration"`
	MaxDuration     time.Duration `json:"maxDuration" yaml:"maxDuration"`
	StartedAt       time.Time     `json:"startedAt" yaml:"startedAt"`
	FinishedAt      time.Time     `json:"finishedAt,omitempty" yaml:"finishedAt,omitempty"`
}

// Report is what a finished run hands to the caller
type Report struct {
	Summary  Summary   `json:"summary" yaml:"summary"`
	Outcomes []Outcome `json:"outcomes" yaml:"outcomes"`
}
