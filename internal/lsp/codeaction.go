package lsp

import (
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/chris-regnier/chisel/internal/astcheck"
)

// fix describes a quick fix as a byte span to replace with new text.
type fix struct {
	title   string
	length  int
	newText string
}

// quickFix returns the mechanical fix for a violation, if its check has one.
func quickFix(text lines, v astcheck.Violation) (fix, bool) {
	col := text.byteColumn(v.Line, v.Column)
	switch v.CheckID {
	case "no-trailing-comma":
		if text.byteAt(v.Line, col) != ',' {
			return fix{}, false
		}
		return fix{title: "Remove trailing comma", length: 1}, true
	case "redundant-type-arguments":
		n := text.angleSpan(v.Line, col)
		if n == 0 {
			return fix{}, false
		}
		title := "Remove redundant type arguments"
		if len(v.Args) > 0 {
			title = fmt.Sprintf("%s %s", title, v.Args[0])
		}
		return fix{title: title, length: n}, true
	}
	return fix{}, false
}

func (ls lines) byteAt(line, column int) byte {
	if line < 1 || line > len(ls) || column < 1 || column > len(ls[line-1]) {
		return 0
	}
	return ls[line-1][column-1]
}

// angleSpan returns the byte length of the balanced <...> group starting at
// the 1-based line and column, or 0 when it does not close on that line.
func (ls lines) angleSpan(line, column int) int {
	if ls.byteAt(line, column) != '<' {
		return 0
	}
	text := ls[line-1][column-1:]
	depth := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '<':
			depth++
		case '>':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return 0
}

// CodeActions returns quick fixes for the violations in doc that overlap rng.
func CodeActions(doc *Document, violations []astcheck.Violation, rng protocol.Range, severity func(string) string) []protocol.CodeAction {
	actions := []protocol.CodeAction{}
	text := splitLines(doc.Text)
	kind := protocol.CodeActionKindQuickFix
	preferred := true
	for _, v := range violations {
		f, ok := quickFix(text, v)
		if !ok {
			continue
		}
		diag := ViolationDiagnostic(text, v, severity(v.CheckID))
		if !rangesOverlap(diag.Range, rng) {
			continue
		}
		edit := protocol.TextEdit{Range: text.span(v.Line, text.byteColumn(v.Line, v.Column), f.length), NewText: f.newText}
		actions = append(actions, protocol.CodeAction{
			Title:       f.title,
			Kind:        &kind,
			Diagnostics: []protocol.Diagnostic{diag},
			IsPreferred: &preferred,
			Edit: &protocol.WorkspaceEdit{
				Changes: map[protocol.DocumentUri][]protocol.TextEdit{doc.URI: {edit}},
			},
		})
	}
	return actions
}
