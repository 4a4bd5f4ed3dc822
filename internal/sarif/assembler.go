package sarif

import (
	"path/filepath"

	"github.com/chris-regnier/chisel/internal/astcheck"
)

// Assembler builds a SARIF log from per-file violations.
type Assembler struct {
	tool, version string
	severity      func(check string) string
	inputScope    string

	rules     []ReportingDescriptor
	ruleIndex map[string]int
	results   []Result
	failures  []Notification
}

// NewAssembler creates an Assembler for the named tool. Results default to
// level "warning".
func NewAssembler(tool, version string) *Assembler {
	return &Assembler{
		tool:      tool,
		version:   version,
		severity:  func(string) string { return "warning" },
		ruleIndex: make(map[string]int),
	}
}

// WithSeverity sets the function mapping a check ID to a SARIF level.
func (a *Assembler) WithSeverity(fn func(check string) string) *Assembler {
	a.severity = fn
	return a
}

// WithInputScope records how the analyzed files were selected.
func (a *Assembler) WithInputScope(scope string) *Assembler {
	a.inputScope = scope
	return a
}

// AddRules declares the given checks as rules, in order.
func (a *Assembler) AddRules(checks ...string) *Assembler {
	for _, c := range checks {
		a.rule(c)
	}
	return a
}

func (a *Assembler) rule(check string) int {
	if i, ok := a.ruleIndex[check]; ok {
		return i
	}
	a.ruleIndex[check] = len(a.rules)
	a.rules = append(a.rules, ReportingDescriptor{
		ID:               check,
		ShortDescription: Message{Text: astcheck.Describe(check)},
		DefaultConfig:    &ReportingConfiguration{Level: a.severity(check)},
	})
	return a.ruleIndex[check]
}

// AddFile appends the violations of one file, keeping their order.
func (a *Assembler) AddFile(path string, violations []astcheck.Violation) *Assembler {
	uri := filepath.ToSlash(path)
	for _, v := range violations {
		a.results = append(a.results, Result{
			RuleID:    v.CheckID,
			RuleIndex: a.rule(v.CheckID),
			Level:     a.severity(v.CheckID),
			Message:   Message{Text: v.Message()},
			Locations: []Location{{
				PhysicalLocation: PhysicalLocation{
					ArtifactLocation: ArtifactLocation{URI: uri},
					Region:           &Region{StartLine: v.Line, StartColumn: v.Column},
				},
			}},
			Properties: map[string]interface{}{
				"chisel/messageKey": v.MessageKey,
			},
		})
	}
	return a
}

// AddFailure records a file that could not be analyzed.
func (a *Assembler) AddFailure(path string, err error) *Assembler {
	a.failures = append(a.failures, Notification{
		Level:   "error",
		Message: Message{Text: err.Error()},
		Locations: []Location{{
			PhysicalLocation: PhysicalLocation{ArtifactLocation: ArtifactLocation{URI: filepath.ToSlash(path)}},
		}},
	})
	return a
}

// Build constructs the final SARIF log.
func (a *Assembler) Build() *Log {
	log := NewLog(a.tool, a.version)
	run := &log.Runs[0]
	run.Tool.Driver.InformationURI = "https://github.com/chris-regnier/chisel"
	run.Tool.Driver.Rules = a.rules
	run.ColumnKind = ColumnKindCodePoints
	if a.results != nil {
		run.Results = a.results
	}
	run.Invocations = []Invocation{{
		ExecutionSuccessful: len(a.failures) == 0,
		Notifications:       a.failures,
	}}
	if a.inputScope != "" {
		run.Properties = map[string]interface{}{
			"chisel/inputScope": a.inputScope,
		}
	}
	return log
}
