package output

import (
	"encoding/json"
	"fmt"

	"github.com/chris-regnier/chisel/internal/metrics"
)

// JSONFormatter renders the verdict and the violations grouped by file.
type JSONFormatter struct{}

type jsonReport struct {
	Decision string            `json:"decision,omitempty"`
	Reason   string            `json:"reason,omitempty"`
	Files    []fileFindings    `json:"files"`
	Failures []failure         `json:"failures,omitempty"`
	Stats    *metrics.RunStats `json:"stats,omitempty"`
}

// Format serializes the report as pretty-printed JSON.
func (f *JSONFormatter) Format(result *AnalysisOutput) ([]byte, error) {
	if result == nil || result.SARIFLog == nil {
		return nil, fmt.Errorf("json formatter: SARIF log is required")
	}
	report := jsonReport{
		Files:    groupByFile(result.SARIFLog, false),
		Failures: failures(result.SARIFLog),
		Stats:    result.Stats,
	}
	if report.Files == nil {
		report.Files = []fileFindings{}
	}
	if result.Verdict != nil {
		report.Decision = result.Verdict.Decision
		report.Reason = result.Verdict.Reason
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json formatter: %w", err)
	}
	return append(data, '\n'), nil
}
