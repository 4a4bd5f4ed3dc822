package output

import (
	"fmt"
	"strings"
)

// TextFormatter renders one line per violation, in the conventional
// path:line:column: message [check] form understood by editors and CI log
// scrapers.
type TextFormatter struct{}

func (f *TextFormatter) Format(result *AnalysisOutput) ([]byte, error) {
	if result == nil || result.SARIFLog == nil {
		return nil, fmt.Errorf("text formatter: SARIF log is required")
	}
	var b strings.Builder
	for _, r := range result.SARIFLog.Results() {
		v := flatten(r)
		fmt.Fprintf(&b, "%s:%d:%d: %s: %s [%s]\n", v.Path, v.Line, v.Column, v.Level, v.Message, v.Check)
	}
	for _, fl := range failures(result.SARIFLog) {
		fmt.Fprintf(&b, "%s: error: %s\n", fl.Path, fl.Error)
	}
	return []byte(b.String()), nil
}
