// Package output renders chisel analysis results in the supported output
// formats and configures logging for the CLI.
package output

import (
	"fmt"
	"sort"

	"github.com/chris-regnier/chisel/internal/metrics"
	"github.com/chris-regnier/chisel/internal/sarif"
	"github.com/chris-regnier/chisel/internal/store"
)

// Formatter renders an AnalysisOutput into a byte slice in a specific format.
type Formatter interface {
	Format(result *AnalysisOutput) ([]byte, error)
}

// AnalysisOutput holds the complete results of a run: the verdict, the
// SARIF log, and optional run statistics.
type AnalysisOutput struct {
	Verdict  *store.Verdict
	SARIFLog *sarif.Log
	Stats    *metrics.RunStats // optional, nil if not collected
}

// Formats lists the supported format names.
var Formats = []string{"text", "json", "sarif", "markdown", "pretty"}

// ResolveFormat determines the output format to use. If flagValue is non-empty,
// it is returned directly. Otherwise, "pretty" is returned for TTY output and
// "text" for non-TTY (piped) output.
func ResolveFormat(flagValue string, stdoutIsTTY bool) string {
	if flagValue != "" {
		return flagValue
	}
	if stdoutIsTTY {
		return "pretty"
	}
	return "text"
}

// NewFormatter returns a Formatter for the given format name.
func NewFormatter(format string) (Formatter, error) {
	switch format {
	case "text":
		return &TextFormatter{}, nil
	case "json":
		return &JSONFormatter{}, nil
	case "sarif":
		return &SARIFFormatter{}, nil
	case "markdown":
		return &MarkdownFormatter{}, nil
	case "pretty":
		return &PrettyFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format: %q (supported: text, json, sarif, markdown, pretty)", format)
	}
}

// finding is a flattened SARIF result.
type finding struct {
	Path    string `json:"-"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Check   string `json:"check"`
	Level   string `json:"severity"`
	Message string `json:"message"`
}

// fileFindings groups findings for one file, keeping their order.
type fileFindings struct {
	Path     string    `json:"path"`
	Findings []finding `json:"violations"`
}

func flatten(r sarif.Result) finding {
	f := finding{Check: r.RuleID, Level: r.Level, Message: r.Message.Text}
	if len(r.Locations) > 0 {
		loc := r.Locations[0].PhysicalLocation
		f.Path = loc.ArtifactLocation.URI
		if loc.Region != nil {
			f.Line = loc.Region.StartLine
			f.Column = loc.Region.StartColumn
		}
	}
	return f
}

// groupByFile groups results by file in order of first appearance, or
// sorted by path when sorted is true.
func groupByFile(log *sarif.Log, sorted bool) []fileFindings {
	var groups []fileFindings
	index := map[string]int{}
	for _, r := range log.Results() {
		f := flatten(r)
		i, ok := index[f.Path]
		if !ok {
			i = len(groups)
			index[f.Path] = i
			groups = append(groups, fileFindings{Path: f.Path})
		}
		groups[i].Findings = append(groups[i].Findings, f)
	}
	if sorted {
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Path < groups[j].Path })
	}
	return groups
}

// failure is a file the run could not analyze.
type failure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

func failures(log *sarif.Log) []failure {
	var out []failure
	if log == nil {
		return nil
	}
	for _, run := range log.Runs {
		for _, inv := range run.Invocations {
			for _, n := range inv.Notifications {
				f := failure{Error: n.Message.Text}
				if len(n.Locations) > 0 {
					f.Path = n.Locations[0].PhysicalLocation.ArtifactLocation.URI
				}
				out = append(out, f)
			}
		}
	}
	return out
}

// levelCounts counts results per SARIF level.
func levelCounts(log *sarif.Log) map[string]int {
	counts := map[string]int{}
	for _, r := range log.Results() {
		counts[r.Level]++
	}
	return counts
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
