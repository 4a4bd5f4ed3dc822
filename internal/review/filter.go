package review

import (
	"sort"

	"github.com/chris-regnier/chisel/internal/sarif"
)

func (m *Model) visibleLevel(level string) bool {
	switch m.filter {
	case FilterErrors:
		return level == "error"
	case FilterWarnings:
		return level == "error" || level == "warning"
	default:
		return true
	}
}

// getFilteredFindings returns findings filtered by current filter setting
func (m *Model) getFilteredFindings() []sarif.Result {
	if m.filter == FilterAll {
		return m.findings
	}
	var filtered []sarif.Result
	for _, f := range m.findings {
		if m.visibleLevel(f.Level) {
			filtered = append(filtered, f)
		}
	}
	return filtered
}

// getFilteredFiles returns files grouped by findings, filtered by current filter
func (m *Model) getFilteredFiles() map[string][]sarif.Result {
	filtered := make(map[string][]sarif.Result)
	for path, findings := range m.files {
		for _, f := range findings {
			if m.visibleLevel(f.Level) {
				filtered[path] = append(filtered[path], f)
			}
		}
	}
	return filtered
}

// getFileList returns the sorted paths of files with visible findings.
func (m *Model) getFileList() []string {
	files := m.getFilteredFiles()
	out := make([]string, 0, len(files))
	for path := range files {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// current returns the selected finding, or false when none is visible.
func (m *Model) current() (sarif.Result, bool) {
	filtered := m.getFilteredFindings()
	if m.currentFinding < 0 || m.currentFinding >= len(filtered) {
		return sarif.Result{}, false
	}
	return filtered[m.currentFinding], true
}
