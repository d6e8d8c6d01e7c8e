package formatter

// Type represents the type of formatter
type Type string

const (
	// TypeJSON formats data as JSON
	TypeJSON Type = "json"
	// TypeYAML formats data as YAML
	TypeYAML Type = "yaml"
	// TypeTable formats data as a table
	TypeTable Type = "table"
	// TypeMarkdown formats data as markdown
	TypeMarkdown Type = "markdown"
)

// Options controls what a formatter renders
type Options struct {
	// IncludeOutcomes adds the per-row outcomes after the summary
	IncludeOutcomes bool
}

// DefaultOptions returns the default formatter options
func DefaultOptions() *Options {
	return &Options{
		IncludeOutcomes: true,
	}
}

// JSON implements JSON formatting
type JSON struct {
	opts *Options
}

// YAML implements YAML formatting
type YAML struct {
	opts *Options
}

// Table implements table formatting
type Table struct {
	opts *Options
}

// Markdown implements markdown formatting
type Markdown struct {
	opts *Options
}

// SummaryEntry is the serialized run summary; durations are human readable
type SummaryEntry struct {
	RunID           string  `json:"runId" yaml:"runId"`
	Source          string  `json:"source" yaml:"source"`
	StartedAt       string  `json:"startedAt" yaml:"startedAt"`
	FinishedAt      string  `json:"finishedAt,omitempty" yaml:"finishedAt,omitempty"`
	Total           int     `json:"total" yaml:"total"`
	Processed       int     `json:"processed" yaml:"processed"`
	Success         int     `json:"success" yaml:"success"`
	Failure         int     `json:"failure" yaml:"failure"`
	Skipped         int     `json:"skipped" yaml:"skipped"`
	SuccessRate     float64 `json:"successRate" yaml:"successRate"`
	TotalDuration   string  `json:"totalDuration" yaml:"totalDuration"`
	AverageDuration string  `json:"averageDuration" yaml:"averageDuration"`
	MinDuration     string  `json:"minDuration" yaml:"minDuration"`
	MaxDuration     string  `json:"maxDuration" yaml:"maxDuration"`
}

// OutcomeEntry is one serialized row outcome
type OutcomeEntry struct {
	Row        int    `json:"row" yaml:"row"`
	Identifier string `json:"identifier" yaml:"identifier"`
	Name       string `json:"name" yaml:"name"`
	Status     string `json:"status" yaml:"status"`
	Detail     string `json:"detail,omitempty" yaml:"detail,omitempty"`
	Duration   string `json:"duration" yaml:"duration"`
}

// ParsedData is the document rendered by the JSON and YAML formatters
type ParsedData struct {
	Summary  SummaryEntry   `json:"summary" yaml:"summary"`
	Outcomes []OutcomeEntry `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`
}
