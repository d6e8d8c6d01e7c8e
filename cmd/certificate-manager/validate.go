package main

import (
	"fmt"

	"github.com/Wgledston/certificate-manager/internal/batch"
	"github.com/Wgledston/certificate-manager/internal/formatter"
	"github.com/Wgledston/certificate-manager/internal/logger"
	"github.com/Wgledston/certificate-manager/internal/manifest"
	"github.com/Wgledston/certificate-manager/internal/types"
	"github.com/spf13/cobra"
)

var (
	validateManifest string
	validateOutput   string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the manifest without opening the browser",
	Long: `Parses the CSV manifest and applies the local row checks (identifier format and
certificate file presence). Nothing is sent to the host application. The command fails
when any row would be skipped by a real run.`,
	Example: `  # Validate the configured manifest
  certificate-manager validate

  # Validate another manifest and print JSON
  certificate-manager validate --manifest ./data/march.csv -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("manifest") {
			cfg.Data.Dir = ""
			cfg.Data.File = validateManifest
		}
		format := cfg.Report.Format
		if cmd.Flags().Changed("output") {
			format = validateOutput
		}
		outputType, err := formatter.ParseType(format)
		if err != nil {
			return err
		}

		path := cfg.ManifestPath()
		rows, err := manifest.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load manifest: %w", err)
		}

		outcomes := batch.New(nil, nil, nil).Preflight(rows)
		report := types.Report{
			Summary:  types.Summary{Source: path, Total: len(rows), Processed: len(rows)},
			Outcomes: outcomes,
		}
		for _, o := range outcomes {
			if o.Status == types.StatusSkipped {
				report.Summary.Skipped++
			}
		}

		logger.Debug().Str("manifest", path).Int("rows", len(rows)).Int("skipped", report.Summary.Skipped).Msg("Manifest validated")

		if err := writeReport(cmd.OutOrStdout(), report, outputType, ""); err != nil {
			return err
		}
		if report.Summary.Skipped > 0 {
			return fmt.Errorf("%d of %d rows would be skipped", report.Summary.Skipped, report.Summary.Total)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateManifest, "manifest", "", "path to the CSV manifest (overrides data.dir/data.file)")
	validateCmd.Flags().StringVarP(&validateOutput, "output", "o", "", "output format (table, json, yaml, markdown)")
}
