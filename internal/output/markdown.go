package output

import (
	"fmt"
	"sort"
	"strings"
)

// MarkdownFormatter renders analysis output as GitHub-Flavored Markdown
// suitable for PR comments: a summary table followed by violations grouped
// per file in collapsible sections.
type MarkdownFormatter struct{}

// severityPriority returns a sort priority for SARIF severity levels.
// Lower values sort first: error (0) > warning (1) > note (2).
func severityPriority(level string) int {
	switch level {
	case "error":
		return 0
	case "warning":
		return 1
	case "note":
		return 2
	default:
		return 3
	}
}

// severityEmoji returns the GitHub emoji shortcode for a SARIF severity level.
func severityEmoji(level string) string {
	switch level {
	case "error":
		return ":red_circle:"
	case "warning":
		return ":warning:"
	case "note":
		return ":information_source:"
	default:
		return ":grey_question:"
	}
}

// decisionBanner returns the emoji + text for a verdict decision.
func decisionBanner(decision string) string {
	switch decision {
	case "merge":
		return ":white_check_mark: Merge"
	case "reject":
		return ":x: Reject"
	case "review":
		return ":warning: Review Required"
	default:
		return decision
	}
}

// Format produces GFM Markdown output from the analysis results.
func (f *MarkdownFormatter) Format(result *AnalysisOutput) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("markdown formatter: result is required")
	}
	if result.Verdict == nil {
		return nil, fmt.Errorf("markdown formatter: verdict is required")
	}

	var b strings.Builder
	results := result.SARIFLog.Results()
	groups := groupByFile(result.SARIFLog, true)
	counts := levelCounts(result.SARIFLog)

	b.WriteString("## Chisel Analysis Summary\n\n")
	fmt.Fprintf(&b, "**Decision:** %s | **Violations:** %d | **Files:** %d\n",
		decisionBanner(result.Verdict.Decision), len(results), len(groups))

	if len(results) == 0 {
		b.WriteString("\nNo violations detected.\n")
	} else {
		b.WriteString("\n### Violations by Severity\n")
		b.WriteString("| Severity | Count |\n")
		b.WriteString("|----------|-------|\n")
		for _, level := range []string{"error", "warning", "note"} {
			if n := counts[level]; n > 0 {
				fmt.Fprintf(&b, "| %s | %d |\n", level, n)
			}
		}

		b.WriteString("\n### Violations\n\n")
		for _, g := range groups {
			sorted := append([]finding(nil), g.Findings...)
			sort.SliceStable(sorted, func(i, j int) bool {
				return severityPriority(sorted[i].Level) < severityPriority(sorted[j].Level)
			})

			fmt.Fprintf(&b, "<details>\n<summary><code>%s</code> (%s)</summary>\n\n", g.Path, plural(len(sorted), "violation"))
			b.WriteString("| | Location | Check | Message |\n")
			b.WriteString("|---|----------|-------|---------|\n")
			for _, v := range sorted {
				fmt.Fprintf(&b, "| %s | %d:%d | `%s` | %s |\n",
					severityEmoji(v.Level), v.Line, v.Column, v.Check, escapeCell(v.Message))
			}
			b.WriteString("\n</details>\n\n")
		}
	}

	if fl := failures(result.SARIFLog); len(fl) > 0 {
		b.WriteString("### Files Not Analyzed\n\n")
		for _, f := range fl {
			fmt.Fprintf(&b, "- `%s`: %s\n", f.Path, f.Error)
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n")
	b.WriteString("*Generated by [Chisel](https://github.com/chris-regnier/chisel)*\n")
	return []byte(b.String()), nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
