// Package batch drives every manifest row through company search and certificate update,
// containing each row's failure so the run always reaches the end of the manifest.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Wgledston/certificate-manager/internal/identifier"
	"github.com/Wgledston/certificate-manager/internal/logger"
	"github.com/Wgledston/certificate-manager/internal/manifest"
	"github.com/Wgledston/certificate-manager/internal/metrics"
	"github.com/Wgledston/certificate-manager/internal/types"
)

// Searcher reports whether the host application lists a company
type Searcher interface {
	Search(ctx context.Context, identifier string) (bool, error)
}

// Updater replaces the certificate of the listed company
type Updater interface {
	Update(ctx context.Context, identifier, certificatePath, password string) error
}

// Screenshotter captures the page for post-mortem of failed rows
type Screenshotter interface {
	Screenshot(ctx context.Context, path string) error
}

// Options holds configuration for the orchestrator
type Options struct {
	// RunID tags the summary
	RunID string
	// Source names the manifest in the summary
	Source string
	// ScreenshotDir receives failure screenshots when Screenshotter is set
	ScreenshotDir string
	Screenshotter Screenshotter
	// OnProgress receives a snapshot at every progress checkpoint
	OnProgress func(types.Summary)
	// FileExists reports whether a certificate file is usable; defaults to a regular-file check
	FileExists func(path string) bool
	// Now defaults to time.Now
	Now func() time.Time
}

// Orchestrator processes manifests one row at a time
type Orchestrator struct {
	searcher Searcher
	updater  Updater
	opts     Options
}

// New creates an Orchestrator
func New(searcher Searcher, updater Updater, opts *Options) *Orchestrator {
	o := &Orchestrator{searcher: searcher, updater: updater}
	if opts != nil {
		o.opts = *opts
	}
	if o.opts.FileExists == nil {
		o.opts.FileExists = regularFileExists
	}
	if o.opts.Now == nil {
		o.opts.Now = time.Now
	}
	return o
}

// RunFile loads the manifest at path and processes it. Manifest problems fail fast,
// before any row is attempted.
func (o *Orchestrator) RunFile(ctx context.Context, path string) (*types.Report, error) {
	logger.Info().Str("manifest", path).Msg("Loading companies")
	rows, err := manifest.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}
	if o.opts.Source == "" {
		o.opts.Source = path
	}
	return o.Run(ctx, rows)
}

// Run processes rows in order. Row failures are recorded, never returned; the only error
// is an empty manifest or ctx ending between rows, in which case the partial report is
// returned with it.
func (o *Orchestrator) Run(ctx context.Context, rows []manifest.Row) (*types.Report, error) {
	if len(rows) == 0 {
		return nil, manifest.ErrEmpty
	}

	total := len(rows)
	logger.Info().Int("total", total).Msg("Found companies to process")

	agg := metrics.New(o.opts.RunID, o.opts.Source, total)
	report := &types.Report{Outcomes: make([]types.Outcome, 0, total)}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			logger.Warn().Err(err).Int("processed", len(report.Outcomes)).Msg("Run interrupted")
			report.Summary = agg.Finish()
			return report, fmt.Errorf("run interrupted after %d of %d rows: %w", len(report.Outcomes), total, err)
		}

		start := o.opts.Now()
		outcome := o.processRow(ctx, row)
		outcome.Duration = o.opts.Now().Sub(start)
		outcome.Index = row.Index
		outcome.Name = row.DisplayName()

		if outcome.Status == types.StatusFailed {
			logger.Error().Err(outcome.Err).Int("row", row.Index).Msg("Failed to process company")
		}

		agg.Record(outcome)
		report.Outcomes = append(report.Outcomes, outcome)

		if agg.ShouldReport() {
			snapshot := agg.Snapshot()
			logProgress(snapshot)
			if o.opts.OnProgress != nil {
				o.opts.OnProgress(snapshot)
			}
		}
	}

	report.Summary = agg.Finish()
	logger.Info().
		Str("run_id", report.Summary.RunID).
		Int("total", report.Summary.Total).
		Int("success", report.Summary.Success).
		Int("failure", report.Summary.Failure).
		Int("skipped", report.Summary.Skipped).
		Dur("total_duration", report.Summary.TotalDuration).
		Dur("average_duration", report.Summary.AverageDuration).
		Msg("Processing completed")
	return report, nil
}

// job is a row that passed the local checks
type job struct {
	identifier      string
	certificatePath string
}

// prepare runs the checks that need no browser: identifier normalization and
// certificate file existence. A non-nil outcome means the row is skipped.
func (o *Orchestrator) prepare(row manifest.Row) (job, *types.Outcome) {
	id, err := identifier.Normalize(row.Identifier)
	if err != nil {
		logger.Warn().Int("row", row.Index).Str("company", row.DisplayName()).Msg("Invalid inscription for company")
		out := types.Skipped(types.SkipInvalidIdentifier)
		out.Identifier = row.Identifier
		return job{}, &out
	}

	path := row.CertificatePath()
	if !o.opts.FileExists(path) {
		logger.Warn().Int("row", row.Index).Str("path", path).Msg("Certificate file not found")
		out := types.Skipped(types.SkipCertificateMissing)
		out.Identifier = id
		return job{}, &out
	}

	return job{identifier: id, certificatePath: path}, nil
}

func (o *Orchestrator) processRow(ctx context.Context, row manifest.Row) types.Outcome {
	j, skipped := o.prepare(row)
	if skipped != nil {
		return *skipped
	}

	logger.Info().Str("company", row.DisplayName()).Str("identifier", j.identifier).Msg("Processing")

	found, err := o.searcher.Search(ctx, j.identifier)
	if err != nil {
		out := types.Failed(fmt.Errorf("search company %s: %w", j.identifier, err))
		out.Identifier = j.identifier
		o.captureFailure(ctx, j.identifier)
		return out
	}
	if !found {
		logger.Warn().Str("identifier", j.identifier).Msg("Company not found or is MEI")
		out := types.Skipped(types.SkipCompanyNotFound)
		out.Identifier = j.identifier
		return out
	}

	if err := o.updater.Update(ctx, j.identifier, j.certificatePath, row.Password); err != nil {
		out := types.Failed(err)
		out.Identifier = j.identifier
		o.captureFailure(ctx, j.identifier)
		return out
	}

	out := types.Succeeded()
	out.Identifier = j.identifier
	return out
}

// Preflight applies the local checks to every row without touching the browser.
// Rows that would be attempted are reported as types.StatusReady.
func (o *Orchestrator) Preflight(rows []manifest.Row) []types.Outcome {
	outcomes := make([]types.Outcome, 0, len(rows))
	for _, row := range rows {
		j, skipped := o.prepare(row)
		out := types.Outcome{Status: types.StatusReady, Identifier: j.identifier}
		if skipped != nil {
			out = *skipped
		}
		out.Index = row.Index
		out.Name = row.DisplayName()
		outcomes = append(outcomes, out)
	}
	return outcomes
}

// captureFailure saves a screenshot of the page after a failed row; errors are only debug-logged
func (o *Orchestrator) captureFailure(ctx context.Context, id string) {
	if o.opts.Screenshotter == nil || o.opts.ScreenshotDir == "" {
		return
	}
	name := fmt.Sprintf("%s-%s.png", identifier.Digits(id), o.opts.Now().Format("20060102-150405"))
	path := filepath.Join(o.opts.ScreenshotDir, name)
	if err := o.opts.Screenshotter.Screenshot(ctx, path); err != nil {
		logger.Debug().Err(err).Str("path", path).Msg("Failed to capture screenshot")
		return
	}
	logger.Info().Str("path", path).Msg("Saved failure screenshot")
}

func logProgress(s types.Summary) {
	logger.Info().
		Int("processed", s.Processed).
		Int("total", s.Total).
		Int("success", s.Success).
		Int("failure", s.Failure).
		Int("skipped", s.Skipped).
		Dur("average_duration", s.AverageDuration).
		Msgf("Progress: %d/%d", s.Processed, s.Total)
}

func regularFileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
