package formatter

import (
	"fmt"

	"github.com/Wgledston/certificate-manager/internal/types"
	"github.com/jedib0t/go-pretty/v6/table"
)

func newTableWriter(title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(nil) // Don't write to stdout directly
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateColumns = true
	t.SetTitle(title)
	return t
}

// buildTables builds the summary and per-row outcome tables for the given report
func buildTables(report types.Report) (table.Writer, table.Writer) {
	s := report.Summary

	summaryTable := newTableWriter("RUN SUMMARY")
	summaryTable.AppendHeader(table.Row{"KEY", "VALUE"})
	summaryTable.AppendRows([]table.Row{
		{"RUN ID", s.RunID},
		{"SOURCE", s.Source},
		{"STARTED", formatTime(s.StartedAt)},
		{"FINISHED", formatTime(s.FinishedAt)},
		{"TOTAL", s.Total},
		{"PROCESSED", s.Processed},
		{"SUCCESS", s.Success},
		{"FAILURE", s.Failure},
		{"SKIPPED", s.Skipped},
		{"SUCCESS RATE", fmt.Sprintf("%.1f%%", s.SuccessRate*100)},
		{"TOTAL DURATION", formatDuration(s.TotalDuration)},
		{"AVERAGE DURATION", formatDuration(s.AverageDuration)},
		{"FASTEST ROW", formatDuration(s.MinDuration)},
		{"SLOWEST ROW", formatDuration(s.MaxDuration)},
	})

	outcomesTable := newTableWriter("COMPANIES")
	outcomesTable.AppendHeader(table.Row{
		"ROW",
		"IDENTIFIER",
		"NAME",
		"STATUS",
		"DETAIL",
		"DURATION",
	})
	// rows keep manifest order
	for _, o := range report.Outcomes {
		outcomesTable.AppendRow(table.Row{
			o.Index,
			o.Identifier,
			o.Name,
			string(o.Status),
			detail(o),
			formatDuration(o.Duration),
		})
	}

	return summaryTable, outcomesTable
}
