package astcheck

import "github.com/chris-regnier/chisel/internal/tree"

const defaultMaxLines = 50

// MethodLength checks that methods and constructors do not exceed a
// configurable line count.
type MethodLength struct {
	maxLines int
}

func (m *MethodLength) Name() string { return "method-length" }

func (m *MethodLength) Descriptor() Descriptor {
	return Descriptor{
		Acceptable: funcKinds.With(tree.KindLambdaExpression),
		Default:    funcKinds,
	}
}

func (m *MethodLength) Configure(props map[string]any) error {
	p := newProperties(m.Name(), props)
	m.maxLines = p.Int("max_lines", defaultMaxLines, 1)
	return p.Finish()
}

func (m *MethodLength) Visit(t *tree.Tree, id tree.NodeID, r Reporter) {
	lines := t.End(id).Line - t.Pos(id).Line + 1
	if lines > m.maxLines {
		r.Report(t.Pos(id), MsgMethodLength, lines, m.maxLines)
	}
}
