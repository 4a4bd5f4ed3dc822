package lsp

import (
	"strings"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/chris-regnier/chisel/internal/analyzer"
	"github.com/chris-regnier/chisel/internal/astcheck"
)

const source = "chisel"

// Codes for diagnostics that are not check violations.
const (
	CodeParseError  = "parse-error"
	CodeCheckFailed = "check-failed"
)

// levelToSeverity maps SARIF levels to LSP severities.
func levelToSeverity(level string) protocol.DiagnosticSeverity {
	switch level {
	case "error":
		return protocol.DiagnosticSeverityError
	case "warning":
		return protocol.DiagnosticSeverityWarning
	default:
		return protocol.DiagnosticSeverityInformation
	}
}

// lines splits text for position conversion.
type lines []string

func splitLines(text string) lines { return strings.Split(text, "\n") }

// position converts a 1-based line and byte column into a 0-based LSP
// position counted in UTF-16 code units.
func (ls lines) position(line, column int) protocol.Position {
	if line < 1 {
		return protocol.Position{}
	}
	pos := protocol.Position{Line: protocol.UInteger(line - 1)}
	if line > len(ls) || column < 1 {
		return pos
	}
	text := ls[line-1]
	end := column - 1
	if end > len(text) {
		end = len(text)
	}
	units := 0
	for _, r := range text[:end] {
		if r >= 0x10000 {
			units += 2
		} else {
			units++
		}
	}
	pos.Character = protocol.UInteger(units)
	return pos
}

// byteColumn converts a 1-based character column into a 1-based byte
// column. Columns past the end of the line keep their overflow.
func (ls lines) byteColumn(line, column int) int {
	if line < 1 || line > len(ls) || column < 1 {
		return column
	}
	text := ls[line-1]
	i, n := 0, 1
	for i < len(text) && n < column {
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
		n++
	}
	return i + 1 + (column - n)
}

// span returns the range covering n bytes starting at the 1-based line and
// byte column.
func (ls lines) span(line, column, n int) protocol.Range {
	start := ls.position(line, column)
	return protocol.Range{Start: start, End: ls.position(line, column+n)}
}

// tokenLength is the byte length of the identifier-like token starting at
// the 1-based line and column, or 1 when none starts there.
func (ls lines) tokenLength(line, column int) int {
	if line < 1 || line > len(ls) || column < 1 || column > len(ls[line-1]) {
		return 1
	}
	text := ls[line-1][column-1:]
	n := 0
	for n < len(text) {
		r, size := utf8.DecodeRuneInString(text[n:])
		if r != '_' && r != '$' && r != '.' && !isLetterOrDigit(r) {
			break
		}
		n += size
	}
	if n == 0 {
		return 1
	}
	return n
}

func isLetterOrDigit(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r >= utf8.RuneSelf
}

func diagnostic(rng protocol.Range, severity protocol.DiagnosticSeverity, code, message string) protocol.Diagnostic {
	src := source
	return protocol.Diagnostic{
		Range:    rng,
		Severity: &severity,
		Code:     &protocol.IntegerOrString{Value: code},
		Source:   &src,
		Message:  message,
	}
}

// ViolationDiagnostic converts one violation found in text.
func ViolationDiagnostic(text lines, v astcheck.Violation, level string) protocol.Diagnostic {
	col := text.byteColumn(v.Line, v.Column)
	rng := text.span(v.Line, col, text.tokenLength(v.Line, col))
	return diagnostic(rng, levelToSeverity(level), v.CheckID, v.Message())
}

// Diagnostics converts an analysis result for a document with the given
// text into LSP diagnostics. A parse failure yields a single error at the
// top of the file.
func Diagnostics(res analyzer.FileResult, text string, severity func(string) string) []protocol.Diagnostic {
	diags := []protocol.Diagnostic{}
	if res.Failed() {
		return append(diags, diagnostic(protocol.Range{}, protocol.DiagnosticSeverityError, CodeParseError, res.Err.Error()))
	}
	ls := splitLines(text)
	for _, v := range res.Violations {
		diags = append(diags, ViolationDiagnostic(ls, v, severity(v.CheckID)))
	}
	for _, f := range res.Failures {
		diags = append(diags, diagnostic(protocol.Range{}, protocol.DiagnosticSeverityWarning, CodeCheckFailed, f.Error()))
	}
	return diags
}

// rangesOverlap reports whether two ranges share at least one position.
func rangesOverlap(a, b protocol.Range) bool {
	if before(a.End, b.Start) || before(b.End, a.Start) {
		return false
	}
	return true
}

func before(a, b protocol.Position) bool {
	return a.Line < b.Line || (a.Line == b.Line && a.Character < b.Character)
}
