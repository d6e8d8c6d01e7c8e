package formatter

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Wgledston/certificate-manager/internal/types"
	"gopkg.in/yaml.v3"
)

// Formatter defines the interface for formatting a run report
type Formatter interface {
	Format(report types.Report) (string, error)
}

// ParseType converts a string to a Type
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeJSON, TypeYAML, TypeTable, TypeMarkdown:
		return Type(s), nil
	default:
		return "", fmt.Errorf("unknown formatter type: %s", s)
	}
}

// NewFormatter creates a new formatter of the specified type
func NewFormatter(t Type, opts *Options) (Formatter, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	switch t {
	case TypeJSON:
		return &JSON{opts: opts}, nil
	case TypeYAML:
		return &YAML{opts: opts}, nil
	case TypeTable:
		return &Table{opts: opts}, nil
	case TypeMarkdown:
		return &Markdown{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unknown formatter type: %s", t)
	}
}

// Format formats data as JSON
func (j *JSON) Format(report types.Report) (string, error) {
	bytes, err := json.MarshalIndent(toParsedData(report, j.opts), "", "  ")
	if err != nil {
		return "", fmt.Errorf("error formatting as JSON: %w", err)
	}
	return string(bytes) + "\n", nil
}

// Format formats data as YAML
func (y *YAML) Format(report types.Report) (string, error) {
	bytes, err := yaml.Marshal(toParsedData(report, y.opts))
	if err != nil {
		return "", fmt.Errorf("error formatting as YAML: %w", err)
	}
	return string(bytes), nil
}

// Format formats data as tables using go-pretty/v6/table
func (t *Table) Format(report types.Report) (string, error) {
	summaryTable, outcomesTable := buildTables(report)
	out := summaryTable.Render() + "\n"
	if t.opts.IncludeOutcomes {
		out += "\n" + outcomesTable.Render() + "\n"
	}
	return out, nil
}

// Format formats data as markdown tables
func (m *Markdown) Format(report types.Report) (string, error) {
	summaryTable, outcomesTable := buildTables(report)
	out := "## Summary\n\n" + summaryTable.RenderMarkdown() + "\n"
	if m.opts.IncludeOutcomes {
		out += "\n## Companies\n\n" + outcomesTable.RenderMarkdown() + "\n"
	}
	return out, nil
}

// NewSummaryEntry converts a summary into its serialized form
func NewSummaryEntry(s types.Summary) SummaryEntry {
	return SummaryEntry{
		RunID:           s.RunID,
		Source:          s.Source,
		StartedAt:       formatTime(s.StartedAt),
		FinishedAt:      formatTime(s.FinishedAt),
		Total:           s.Total,
		Processed:       s.Processed,
		Success:         s.Success,
		Failure:         s.Failure,
		Skipped:         s.Skipped,
		SuccessRate:     s.SuccessRate,
		TotalDuration:   formatDuration(s.TotalDuration),
		AverageDuration: formatDuration(s.AverageDuration),
		MinDuration:     formatDuration(s.MinDuration),
		MaxDuration:     formatDuration(s.MaxDuration),
	}
}

func toParsedData(report types.Report, opts *Options) ParsedData {
	data := ParsedData{Summary: NewSummaryEntry(report.Summary)}
	if opts.IncludeOutcomes {
		data.Outcomes = make([]OutcomeEntry, 0, len(report.Outcomes))
		for _, o := range report.Outcomes {
			data.Outcomes = append(data.Outcomes, OutcomeEntry{
				Row:        o.Index,
				Identifier: o.Identifier,
				Name:       o.Name,
				Status:     string(o.Status),
				Detail:     detail(o),
				Duration:   formatDuration(o.Duration),
			})
		}
	}
	return data
}

// detail is the skip reason or failure message of an outcome
func detail(o types.Outcome) string {
	if o.Reason != "" {
		return string(o.Reason)
	}
	return o.Error
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
