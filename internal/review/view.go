package review

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var titleStyle = lipgloss.NewStyle().Bold(true)

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// View implements tea.Model
func (m Model) View() string {
	summary := fmt.Sprintf("Chisel review: %s, %s", plural(len(m.files), "file"), plural(len(m.findings), "violation"))
	if m.width == 0 || m.height == 0 {
		return summary + "\n\nPress q to quit"
	}

	accepted, rejected := m.Counts()
	position := "0/0"
	if n := len(m.getFilteredFindings()); n > 0 {
		position = fmt.Sprintf("%d/%d", m.currentFinding+1, n)
	}
	header := titleStyle.Render(summary) + dimStyle.Render(fmt.Sprintf(
		"  filter: %s  selected: %s  accepted: %d  rejected: %d", m.filter, position, accepted, rejected))

	footer := m.help.View(m.keys)
	if m.saveErr != nil {
		footer = severityErrorStyle.Render(m.saveErr.Error()) + "\n" + footer
	}

	paneHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	filesWidth := m.width / 4
	detailsWidth := m.width * 3 / 10
	codeWidth := m.width - filesWidth - detailsWidth

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderFilesPane(filesWidth, paneHeight),
		m.renderCodePane(codeWidth, paneHeight),
		m.renderDetailsPane(detailsWidth, paneHeight),
	)
	return strings.Join([]string{header, panes, footer}, "\n")
}
