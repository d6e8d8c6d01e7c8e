package formatter

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/Wgledston/certificate-manager/internal/types"
	"gopkg.in/yaml.v3"
)

func sampleReport() types.Report {
	started := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	ok := types.Succeeded()
	ok.Index, ok.Identifier, ok.Name, ok.Duration = 1, "12.345.678/0001-95", "ACME LTDA", 12340*time.Millisecond

	skip := types.Skipped(types.SkipCompanyNotFound)
	skip.Index, skip.Identifier, skip.Name, skip.Duration = 2, "123.456.789-09", "João", 2*time.Second

	fail := types.Failed(errors.New("certificate update failed at Confirm"))
	fail.Index, fail.Identifier, fail.Name, fail.Duration = 3, "98.765.432/0001-10", "Beta SA", 40*time.Second

	return types.Report{
		Summary: types.Summary{
			RunID:           "run-1",
			Source:          "data/certificates.csv",
			Total:           3,
			Processed:       3,
			Success:         1,
			Failure:         1,
			Skipped:         1,
			SuccessRate:     1.0 / 3,
			TotalDuration:   54340 * time.Millisecond,
			AverageDuration: 18113 * time.Millisecond,
			MinDuration:     2 * time.Second,
			MaxDuration:     40 * time.Second,
			StartedAt:       started,
			FinishedAt:      started.Add(time.Minute),
		},
		Outcomes: []types.Outcome{ok, skip, fail},
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if !opts.IncludeOutcomes {
		t.Errorf("DefaultOptions().IncludeOutcomes = false, want true")
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType Type
		wantErr  bool
	}{
		{"json", "json", TypeJSON, false},
		{"yaml", "yaml", TypeYAML, false},
		{"table", "table", TypeTable, false},
		{"markdown", "markdown", TypeMarkdown, false},
		{"unknown", "unknown", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, err := ParseType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseType() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if gotType != tt.wantType {
				t.Errorf("ParseType() gotType = %v, want %v", gotType, tt.wantType)
			}
		})
	}
}

func TestNewFormatter(t *testing.T) {
	validTypes := []struct {
		name          string
		formatterType Type
		expectedType  reflect.Type
	}{
		{"json", TypeJSON, reflect.TypeOf(&JSON{})},
		{"yaml", TypeYAML, reflect.TypeOf(&YAML{})},
		{"table", TypeTable, reflect.TypeOf(&Table{})},
		{"markdown", TypeMarkdown, reflect.TypeOf(&Markdown{})},
	}

	for _, tt := range validTypes {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFormatter(tt.formatterType, nil)
			if err != nil {
				t.Fatalf("NewFormatter() error = %v", err)
			}
			if reflect.TypeOf(f) != tt.expectedType {
				t.Errorf("NewFormatter() type = %v, want %v", reflect.TypeOf(f), tt.expectedType)
			}
		})
	}

	if _, err := NewFormatter("xml", nil); err == nil {
		t.Error("NewFormatter() expected error for unknown type")
	}
}

func TestJSONFormat(t *testing.T) {
	f, _ := NewFormatter(TypeJSON, nil)
	out, err := f.Format(sampleReport())
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var parsed ParsedData
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if parsed.Summary.Success != 1 || parsed.Summary.Failure != 1 || parsed.Summary.Skipped != 1 {
		t.Errorf("unexpected summary counts: %+v", parsed.Summary)
	}
	if parsed.Summary.TotalDuration != "54.34s" {
		t.Errorf("TotalDuration = %s, want 54.34s", parsed.Summary.TotalDuration)
	}
	if parsed.Summary.MinDuration != "2s" || parsed.Summary.MaxDuration != "40s" {
		t.Errorf("Min/MaxDuration = %s/%s, want 2s/40s", parsed.Summary.MinDuration, parsed.Summary.MaxDuration)
	}
	if parsed.Summary.StartedAt != "2024-05-01T08:00:00Z" {
		t.Errorf("StartedAt = %s", parsed.Summary.StartedAt)
	}
	if len(parsed.Outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(parsed.Outcomes))
	}
	if parsed.Outcomes[1].Detail != string(types.SkipCompanyNotFound) {
		t.Errorf("skip detail = %q", parsed.Outcomes[1].Detail)
	}
	if parsed.Outcomes[2].Detail != "certificate update failed at Confirm" {
		t.Errorf("failure detail = %q", parsed.Outcomes[2].Detail)
	}
	if strings.Contains(out, "password") {
		t.Error("report must not mention passwords")
	}
}

func TestYAMLFormatWithoutOutcomes(t *testing.T) {
	f, _ := NewFormatter(TypeYAML, &Options{IncludeOutcomes: false})
	out, err := f.Format(sampleReport())
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var parsed ParsedData
	if err := yaml.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if parsed.Summary.RunID != "run-1" {
		t.Errorf("RunID = %s, want run-1", parsed.Summary.RunID)
	}
	if len(parsed.Outcomes) != 0 {
		t.Errorf("expected no outcomes, got %d", len(parsed.Outcomes))
	}
}

func TestMarkdownFormat(t *testing.T) {
	f, _ := NewFormatter(TypeMarkdown, nil)
	out, err := f.Format(sampleReport())
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	for _, want := range []string{"## Summary", "## Companies", "| SUCCESS |", "12.345.678/0001-95"} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q:\n%s", want, out)
		}
	}
}
