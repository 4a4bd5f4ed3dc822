package review

import (
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/chris-regnier/chisel/internal/sarif"
)

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			if err := m.saveState(); err != nil {
				slog.Warn("failed to save review state", "path", m.statePath, "err", err)
			}
			return m, tea.Quit

		case key.Matches(msg, m.keys.Next):
			if n := len(m.getFilteredFindings()); n > 0 {
				m.currentFinding = (m.currentFinding + 1) % n
			}

		case key.Matches(msg, m.keys.Prev):
			if n := len(m.getFilteredFindings()); n > 0 {
				m.currentFinding--
				if m.currentFinding < 0 {
					m.currentFinding = n - 1
				}
			}

		case key.Matches(msg, m.keys.NextFile):
			m.jumpFile(1)

		case key.Matches(msg, m.keys.PrevFile):
			m.jumpFile(-1)

		case key.Matches(msg, m.keys.Accept):
			m.mark(StatusAccepted)

		case key.Matches(msg, m.keys.Reject):
			m.mark(StatusRejected)

		case key.Matches(msg, m.keys.Clear):
			m.mark("")

		case key.Matches(msg, m.keys.Pane):
			m.activePane = (m.activePane + 1) % 3

		case key.Matches(msg, m.keys.Errors):
			m.setFilter(FilterErrors)

		case key.Matches(msg, m.keys.Warnings):
			m.setFilter(FilterWarnings)

		case key.Matches(msg, m.keys.All):
			m.setFilter(FilterAll)

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}

	return m, nil
}

func (m *Model) setFilter(f Filter) {
	m.filter = f
	m.currentFinding = 0
}

func (m *Model) mark(status string) {
	r, ok := m.current()
	if !ok {
		return
	}
	id := findingID(r)
	if status == "" {
		delete(m.status, id)
		return
	}
	m.status[id] = status
}

// jumpFile selects the first visible finding of the next or previous file.
func (m *Model) jumpFile(step int) {
	files := m.getFileList()
	if len(files) == 0 {
		return
	}
	cur, _ := m.current()
	idx := 0
	for i, f := range files {
		if f == resultPath(cur) {
			idx = i
			break
		}
	}
	target := files[(idx+step+len(files))%len(files)]
	for i, r := range m.getFilteredFindings() {
		if resultPath(r) == target {
			m.currentFinding = i
			return
		}
	}
}

// findingID identifies a violation across runs of the same tree.
func findingID(r sarif.Result) string {
	line, col := resultPosition(r)
	return fmt.Sprintf("%s:%s:%d:%d", r.RuleID, resultPath(r), line, col)
}

// saveState saves the current review state, if a state path is set.
func (m *Model) saveState() error {
	if m.statePath == "" {
		return nil
	}
	if err := SaveReviewState(m, m.resultID, m.statePath); err != nil {
		m.saveErr = err
		return fmt.Errorf("saving review state: %w", err)
	}
	return nil
}
