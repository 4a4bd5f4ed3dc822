// Package review is an interactive terminal UI for triaging the violations
// of a stored chisel run.
package review

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"

	"github.com/chris-regnier/chisel/internal/sarif"
)

// Pane represents which pane is currently active
type Pane int

const (
	PaneFiles Pane = iota
	PaneCode
	PaneDetails
)

// Filter represents the severity filter
type Filter int

const (
	FilterAll Filter = iota
	FilterErrors
	FilterWarnings
)

func (f Filter) String() string {
	switch f {
	case FilterErrors:
		return "errors"
	case FilterWarnings:
		return "warnings+"
	default:
		return "all"
	}
}

// Triage outcomes for a violation.
const (
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// Model is the bubbletea model for the review TUI
type Model struct {
	log       *sarif.Log
	root      string
	statePath string
	resultID  string

	findings     []sarif.Result
	files        map[string][]sarif.Result
	descriptions map[string]string

	currentFinding int
	activePane     Pane
	filter         Filter
	status         map[string]string

	keys    keyMap
	help    help.Model
	saveErr error

	width  int
	height int
}

// Option configures a Model.
type Option func(*Model)

// WithRoot resolves relative artifact paths against dir.
func WithRoot(dir string) Option {
	return func(m *Model) { m.root = dir }
}

// WithState loads and saves triage decisions at path under the given
// result ID.
func WithState(resultID, path string) Option {
	return func(m *Model) {
		m.resultID = resultID
		m.statePath = path
	}
}

// NewModel creates a Model from a SARIF log
func NewModel(log *sarif.Log, opts ...Option) *Model {
	m := &Model{
		log:          log,
		findings:     []sarif.Result{},
		files:        make(map[string][]sarif.Result),
		descriptions: make(map[string]string),
		activePane:   PaneFiles,
		filter:       FilterAll,
		status:       make(map[string]string),
		keys:         defaultKeyMap(),
		help:         help.New(),
	}
	for _, o := range opts {
		o(m)
	}

	if len(log.Runs) > 0 {
		for _, rule := range log.Runs[0].Tool.Driver.Rules {
			m.descriptions[rule.ID] = rule.ShortDescription.Text
		}
		for _, result := range log.Runs[0].Results {
			m.findings = append(m.findings, result)
			if path := resultPath(result); path != "" {
				m.files[path] = append(m.files[path], result)
			}
		}
	}

	if m.statePath != "" {
		state, err := LoadReviewState(m.statePath)
		switch {
		case err == nil:
			m.applyState(state)
		case !errors.Is(err, fs.ErrNotExist):
			slog.Warn("ignoring unreadable review state", "path", m.statePath, "err", err)
		}
	}
	return m
}

func resultPath(r sarif.Result) string {
	if len(r.Locations) == 0 {
		return ""
	}
	return r.Locations[0].PhysicalLocation.ArtifactLocation.URI
}

func resultPosition(r sarif.Result) (line, column int) {
	if len(r.Locations) == 0 || r.Locations[0].PhysicalLocation.Region == nil {
		return 0, 0
	}
	region := r.Locations[0].PhysicalLocation.Region
	return region.StartLine, region.StartColumn
}

// Counts returns the number of accepted and rejected violations.
func (m *Model) Counts() (accepted, rejected int) {
	for _, s := range m.status {
		switch s {
		case StatusAccepted:
			accepted++
		case StatusRejected:
			rejected++
		}
	}
	return accepted, rejected
}
