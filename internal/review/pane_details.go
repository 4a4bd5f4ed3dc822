package review

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	severityErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196")).
				Bold(true)

	severityWarningStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("214")).
				Bold(true)

	acceptedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	rejectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
)

// detailsMarkdown describes the selected violation as markdown.
func (m Model) detailsMarkdown() string {
	r, ok := m.current()
	if !ok {
		return "No violations to display"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Check:** `%s`\n\n", r.RuleID)
	fmt.Fprintf(&b, "**Severity:** %s\n\n", r.Level)
	if r.Message.Text != "" {
		fmt.Fprintf(&b, "**Message:**\n%s\n\n", r.Message.Text)
	}
	if d := m.descriptions[r.RuleID]; d != "" {
		fmt.Fprintf(&b, "**About:**\n%s\n\n", d)
	}
	if path := resultPath(r); path != "" {
		line, col := resultPosition(r)
		fmt.Fprintf(&b, "**Location:**\n%s:%d:%d\n", path, line, col)
	}
	return b.String()
}

// renderDetailsPane renders the selected violation with its triage status.
func (m Model) renderDetailsPane(width, height int) string {
	var b strings.Builder
	b.WriteString(paneHeaderStyle.Render("Details"))
	b.WriteString("\n\n")

	if r, ok := m.current(); ok {
		switch r.Level {
		case "error":
			b.WriteString(severityErrorStyle.Render("ERROR"))
		case "warning":
			b.WriteString(severityWarningStyle.Render("WARNING"))
		default:
			b.WriteString(strings.ToUpper(r.Level))
		}
		switch m.status[findingID(r)] {
		case StatusAccepted:
			b.WriteString("  " + acceptedStyle.Render("✓ Accepted"))
		case StatusRejected:
			b.WriteString("  " + rejectedStyle.Render("✗ Rejected"))
		}
		b.WriteString("\n")
	}

	content := m.detailsMarkdown()
	rendered, err := renderMarkdown(content, width-4)
	if err != nil {
		rendered = content
	}
	b.WriteString(rendered)

	return m.frame(PaneDetails, width, height, b.String())
}

// renderMarkdown renders markdown text using glamour
func renderMarkdown(text string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(width, 20)),
	)
	if err != nil {
		return "", err
	}
	out, err := r.Render(text)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
