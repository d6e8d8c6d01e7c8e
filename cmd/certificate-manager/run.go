package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Wgledston/certificate-manager/internal/api"
	"github.com/Wgledston/certificate-manager/internal/auth"
	"github.com/Wgledston/certificate-manager/internal/batch"
	"github.com/Wgledston/certificate-manager/internal/browser"
	"github.com/Wgledston/certificate-manager/internal/certificate"
	"github.com/Wgledston/certificate-manager/internal/company"
	"github.com/Wgledston/certificate-manager/internal/config"
	"github.com/Wgledston/certificate-manager/internal/formatter"
	"github.com/Wgledston/certificate-manager/internal/logger"
	"github.com/Wgledston/certificate-manager/internal/types"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	runManifest   string
	runHeadless   bool
	runOutput     string
	runReportFile string
	runStatusAddr string
)

// session is the part of the browser the run command drives
type session interface {
	browser.Driver
	Close() error
}

// launchBrowser is replaced in tests
var launchBrowser = func(ctx context.Context, cfg *config.Config) (session, error) {
	return browser.Launch(ctx, cfg)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Update the certificates of every company in the manifest",
	Long: `Logs into the host application and, for every row of the CSV manifest, searches the
company by its federal registration number and replaces its digital certificate.
Rows that fail are recorded and the run continues with the next one.`,
	Example: `  # Run with the manifest configured in config.yml
  certificate-manager run

  # Run a specific manifest headless and keep a JSON report
  certificate-manager run --manifest ./data/march.csv --headless --output json --report report.json

  # Expose progress on http://localhost:8080/api/v1/progress
  certificate-manager run --status-addr :8080`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	runCmd.Flags().StringVar(&runManifest, "manifest", "", "path to the CSV manifest (overrides data.dir/data.file)")
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "run the browser without a window")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "report format (table, json, yaml, markdown)")
	runCmd.Flags().StringVar(&runReportFile, "report", "", "also write the report to this file")
	runCmd.Flags().StringVar(&runStatusAddr, "status-addr", "", "serve run progress on this address")
}

// applyRunFlags overrides configuration with the flags the user set explicitly
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("manifest") {
		cfg.Data.Dir = ""
		cfg.Data.File = runManifest
	}
	if flags.Changed("headless") {
		cfg.Browser.Headless = runHeadless
	}
	if flags.Changed("output") {
		cfg.Report.Format = runOutput
	}
	if flags.Changed("report") {
		cfg.Report.File = runReportFile
	}
	if flags.Changed("status-addr") {
		cfg.Status.Addr = runStatusAddr
	}
}

func runBatch(cmd *cobra.Command, args []string) error {
	applyRunFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	outputType, err := formatter.ParseType(cfg.Report.Format)
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return err
	}

	closeLog, err := logger.AttachFile(cfg.Logs.Dir)
	if err != nil {
		return err
	}
	defer closeLog()

	runID := uuid.NewString()
	logger.WithRunID(runID)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	board := api.NewStatusBoard()
	if cfg.Status.Addr != "" {
		srv := api.NewServer(board)
		go func() {
			if err := srv.Start(cfg.Status.Addr); err != nil {
				logger.Error().Err(err).Str("addr", cfg.Status.Addr).Msg("Status server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn().Err(err).Msg("Failed to shut down status server")
			}
		}()
	}

	logger.Info().Str("manifest", cfg.ManifestPath()).Msg("Certificate Manager - Starting")

	report, err := execute(ctx, board, runID)
	if report != nil {
		if werr := writeReport(cmd.OutOrStdout(), *report, outputType, cfg.Report.File); werr != nil {
			err = errors.Join(err, werr)
		}
	}
	if err != nil {
		board.SetState(api.StateFailed)
		return err
	}

	board.SetState(api.StateCompleted)
	logger.Info().Msg("Certificate Manager - Completed Successfully")
	return nil
}

// execute owns the browser for the whole run so it is released on every exit path
func execute(ctx context.Context, board *api.StatusBoard, runID string) (*types.Report, error) {
	sess, err := launchBrowser(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	defer func() {
		logger.Info().Msg("Closing browser")
		if err := sess.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close browser")
		}
	}()

	board.SetState(api.StateAuthenticating)
	authenticator := auth.New(sess, auth.LocatorsFromConfig(cfg, company.SearchField), cfg.Timeouts)
	if err := authenticator.Login(ctx, cfg.App.URL, cfg.App.Username, cfg.App.Password); err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	board.SetState(api.StateRunning)
	orchestrator := batch.New(
		company.NewSearcher(sess, cfg.Timeouts),
		certificate.NewUpdater(sess, cfg.Timeouts),
		&batch.Options{
			RunID:         runID,
			ScreenshotDir: cfg.Screenshots.Dir,
			Screenshotter: sess,
			OnProgress:    board.Publish,
		},
	)

	report, err := orchestrator.RunFile(ctx, cfg.ManifestPath())
	if report != nil {
		board.Publish(report.Summary)
	}
	return report, err
}

// writeReport prints the report and optionally keeps a copy on disk
func writeReport(w io.Writer, report types.Report, t formatter.Type, path string) error {
	f, err := formatter.NewFormatter(t, formatter.DefaultOptions())
	if err != nil {
		return err
	}
	out, err := f.Format(report)
	if err != nil {
		return fmt.Errorf("error formatting report: %w", err)
	}
	fmt.Fprint(w, strings.TrimRight(out, "\n")+"\n")

	if path == "" {
		return nil
	}
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("error writing report to %s: %w", path, err)
	}
	logger.Info().Str("file", path).Msg("Report written")
	return nil
}
