package astcheck

import (
	"fmt"
	"sort"

	"github.com/chris-regnier/chisel/internal/tree"
)

// Violation is a single finding. Args are captured as strings when the
// violation is reported.
type Violation struct {
	Line       int      `json:"line"`
	Column     int      `json:"column"`
	CheckID    string   `json:"check"`
	MessageKey string   `json:"key"`
	Args       []string `json:"args,omitempty"`

	order int
}

// Position returns the violation's source position.
func (v Violation) Position() tree.Position {
	return tree.Position{Line: v.Line, Column: v.Column}
}

// Message renders the violation through the message catalog.
func (v Violation) Message() string {
	return Render(v.MessageKey, v.Args)
}

// Sink collects violations for one traversal.
type Sink struct {
	violations []Violation
}

// Reporter returns a Reporter that records violations for checkID with the
// given registration order.
func (s *Sink) Reporter(checkID string, order int) Reporter {
	return &sinkReporter{sink: s, check: checkID, order: order}
}

// Len returns the number of collected violations.
func (s *Sink) Len() int { return len(s.violations) }

// Reset drops all collected violations.
func (s *Sink) Reset() { s.violations = s.violations[:0] }

// Sorted returns a sorted copy of the collected violations.
func (s *Sink) Sorted() []Violation {
	out := make([]Violation, len(s.violations))
	copy(out, s.violations)
	SortViolations(out)
	return out
}

// SortViolations orders violations by line, column, then check registration
// order. Equal keys keep their emission order.
func SortViolations(vs []Violation) {
	sort.SliceStable(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.order < b.order
	})
}

type sinkReporter struct {
	sink  *Sink
	check string
	order int
}

func (r *sinkReporter) Report(pos tree.Position, key string, args ...any) {
	var strs []string
	if len(args) > 0 {
		strs = make([]string, len(args))
		for i, a := range args {
			strs[i] = fmt.Sprint(a)
		}
	}
	r.sink.violations = append(r.sink.violations, Violation{
		Line:       pos.Line,
		Column:     pos.Column,
		CheckID:    r.check,
		MessageKey: key,
		Args:       strs,
		order:      r.order,
	})
}
