package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// PrettyFormatter renders analysis output as colored, human-readable
// terminal output grouped by file. Colors are dropped when NO_COLOR is set
// or the terminal does not support them.
type PrettyFormatter struct{}

type palette struct {
	file, location, rule, dim lipgloss.Style
	levels                    map[string]lipgloss.Style
	decisions                 map[string]lipgloss.Style
}

func newPalette() palette {
	plain := lipgloss.NewStyle()
	if os.Getenv("NO_COLOR") != "" {
		return palette{file: plain, location: plain, rule: plain, dim: plain}
	}
	return palette{
		file:     lipgloss.NewStyle().Bold(true).Underline(true),
		location: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		rule:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		dim:      lipgloss.NewStyle().Faint(true),
		levels: map[string]lipgloss.Style{
			"error":   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
			"warning": lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
			"note":    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		},
		decisions: map[string]lipgloss.Style{
			"merge":  lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
			"review": lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
			"reject": lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		},
	}
}

func (p palette) level(l string) lipgloss.Style {
	if s, ok := p.levels[l]; ok {
		return s
	}
	return lipgloss.NewStyle()
}

func (p palette) decision(d string) lipgloss.Style {
	if s, ok := p.decisions[d]; ok {
		return s
	}
	return lipgloss.NewStyle()
}

// Format produces pretty terminal output.
func (f *PrettyFormatter) Format(result *AnalysisOutput) ([]byte, error) {
	if result == nil || result.SARIFLog == nil {
		return nil, fmt.Errorf("pretty formatter: SARIF log is required")
	}
	p := newPalette()
	var b strings.Builder

	for _, g := range groupByFile(result.SARIFLog, true) {
		b.WriteString(p.file.Render(g.Path))
		b.WriteString("\n")
		for _, v := range g.Findings {
			loc := fmt.Sprintf("%-8s", fmt.Sprintf("%d:%d", v.Line, v.Column))
			fmt.Fprintf(&b, "  %s %s  %s  %s\n",
				p.location.Render(loc),
				p.level(v.Level).Render(fmt.Sprintf("%-7s", v.Level)),
				v.Message,
				p.rule.Render(v.Check))
		}
		b.WriteString("\n")
	}

	for _, fl := range failures(result.SARIFLog) {
		fmt.Fprintf(&b, "%s %s: %s\n", p.level("error").Render("failed"), fl.Path, fl.Error)
	}

	counts := levelCounts(result.SARIFLog)
	var parts []string
	for _, level := range []string{"error", "warning", "note"} {
		if n := counts[level]; n > 0 {
			parts = append(parts, p.level(level).Render(plural(n, level)))
		}
	}
	if len(parts) == 0 {
		b.WriteString("No violations found.\n")
	} else {
		fmt.Fprintf(&b, "%s\n", strings.Join(parts, ", "))
	}

	if v := result.Verdict; v != nil {
		fmt.Fprintf(&b, "Decision: %s", p.decision(v.Decision).Render(v.Decision))
		if v.Reason != "" {
			fmt.Fprintf(&b, " %s", p.dim.Render("("+v.Reason+")"))
		}
		b.WriteString("\n")
	}
	return []byte(b.String()), nil
}
