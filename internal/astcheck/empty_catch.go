package astcheck

import "github.com/chris-regnier/chisel/internal/tree"

// EmptyCatchBlock flags catch clauses whose block holds no statements.
type EmptyCatchBlock struct {
	allowComments bool
}

func (e *EmptyCatchBlock) Name() string { return "empty-catch-block" }

func (e *EmptyCatchBlock) Descriptor() Descriptor {
	kinds := tree.NewKindSet(tree.KindCatchClause)
	return Descriptor{Acceptable: kinds, Default: kinds, Required: kinds}
}

func (e *EmptyCatchBlock) Configure(props map[string]any) error {
	p := newProperties(e.Name(), props)
	e.allowComments = p.Bool("allow_comments", false)
	return p.Finish()
}

func (e *EmptyCatchBlock) Visit(t *tree.Tree, id tree.NodeID, r Reporter) {
	body := t.LastChildOfKind(id, tree.KindBlock)
	if body == tree.NoNode || len(members(t, body)) > 0 {
		return
	}
	if e.allowComments {
		for _, c := range t.Children(body) {
			if t.Kind(c).IsComment() {
				return
			}
		}
	}
	r.Report(t.Pos(id), MsgEmptyCatchBlock)
}
