package review

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

var (
	lineNumberStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(5).
			Align(lipgloss.Right)

	highlightedLineStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("236"))

	caretStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
)

// Lines shown before and after the violation.
const contextLines = 5

// renderCodePane renders the source around the selected violation.
func (m Model) renderCodePane(width, height int) string {
	var b strings.Builder
	b.WriteString(paneHeaderStyle.Render("Code"))
	b.WriteString("\n\n")

	r, ok := m.current()
	switch {
	case !ok:
		b.WriteString("No violations to display")
	case resultPath(r) == "":
		b.WriteString("No location information")
	default:
		path := resultPath(r)
		line, col := resultPosition(r)
		b.WriteString(dimStyle.Render(fmt.Sprintf("%s:%d:%d", filepath.Base(path), line, col)))
		b.WriteString("\n\n")
		b.WriteString(m.readCodeWithContext(m.resolve(path), line, col))
	}

	return m.frame(PaneCode, width, height, b.String())
}

// resolve maps an artifact URI to a readable path.
func (m *Model) resolve(path string) string {
	path = filepath.FromSlash(path)
	if m.root != "" && !filepath.IsAbs(path) {
		return filepath.Join(m.root, path)
	}
	return path
}

// readCodeWithContext returns the lines around targetLine with syntax
// highlighting and a caret under targetCol.
func (m *Model) readCodeWithContext(path string, targetLine, targetCol int) string {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Sprintf("Error reading file: %v", err)
	}
	defer file.Close()

	lexer := lexers.Match(path)
	if lexer == nil {
		lexer = lexers.Fallback
	}

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Sprintf("Error scanning file: %v", err)
	}

	start := max(targetLine-contextLines, 1)
	end := min(targetLine+contextLines, len(lines))

	var b strings.Builder
	for i := start; i <= end; i++ {
		num := lineNumberStyle.Render(fmt.Sprintf("%d", i))
		content, err := highlightLine(lines[i-1], lexer)
		if err != nil {
			content = lines[i-1]
		}
		if i == targetLine {
			num = highlightedLineStyle.Render(num)
			content = highlightedLineStyle.Render(content)
		}
		fmt.Fprintf(&b, "%s │ %s\n", num, content)
		if i == targetLine && targetCol > 0 {
			fmt.Fprintf(&b, "%s │ %s\n", lineNumberStyle.Render(""), caretStyle.Render(caretPrefix(lines[i-1], targetCol)+"^"))
		}
	}
	return b.String()
}

// caretPrefix returns the whitespace that lines a caret up under the 1-based
// character column col, keeping tabs so the caret aligns with tabbed source.
func caretPrefix(line string, col int) string {
	var b strings.Builder
	n := 1
	for _, r := range line {
		if n >= col {
			break
		}
		if r == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
		n++
	}
	return b.String()
}

// highlightLine applies syntax highlighting to a single line of code
func highlightLine(line string, lexer chroma.Lexer) (string, error) {
	iterator, err := lexer.Tokenise(nil, line)
	if err != nil {
		return "", err
	}

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}

	var b strings.Builder
	if err := formatters.TTY16m.Format(&b, style, iterator); err != nil {
		return "", err
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}
