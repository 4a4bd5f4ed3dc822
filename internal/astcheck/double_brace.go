package astcheck

import "github.com/chris-regnier/chisel/internal/tree"

// DoubleBraceInitialization flags anonymous classes whose only member is an
// instance initializer, as in `new ArrayList<>() {{ add(x); }}`.
type DoubleBraceInitialization struct{}

func (d *DoubleBraceInitialization) Name() string { return "double-brace-initialization" }

func (d *DoubleBraceInitialization) Descriptor() Descriptor {
	kinds := tree.NewKindSet(tree.KindAnonymousClassBody)
	return Descriptor{Acceptable: kinds, Default: kinds, Required: kinds}
}

func (d *DoubleBraceInitialization) Visit(t *tree.Tree, id tree.NodeID, r Reporter) {
	m := members(t, id)
	if len(m) == 1 && t.Kind(m[0]) == tree.KindInstanceInitializer {
		r.Report(t.Pos(m[0]), MsgDoubleBraceInit)
	}
}
