package astcheck

import (
	"strings"

	"github.com/chris-regnier/chisel/internal/tree"
)

const defaultMaxParams = 7

// ParameterNumber checks that methods and constructors do not declare too
// many parameters. Methods annotated @Override can be skipped, since their
// signature is dictated by the supertype.
type ParameterNumber struct {
	maxParams        int
	ignoreOverridden bool
}

func (p *ParameterNumber) Name() string { return "parameter-number" }

func (p *ParameterNumber) Descriptor() Descriptor {
	return Descriptor{Acceptable: funcKinds, Default: funcKinds}
}

func (p *ParameterNumber) Configure(props map[string]any) error {
	pr := newProperties(p.Name(), props)
	p.maxParams = pr.Int("max_params", defaultMaxParams, 0)
	p.ignoreOverridden = pr.Bool("ignore_overridden", false)
	return pr.Finish()
}

func (p *ParameterNumber) Visit(t *tree.Tree, id tree.NodeID, r Reporter) {
	params := t.FirstChildOfKind(id, tree.KindFormalParameters)
	if params == tree.NoNode {
		return
	}
	count := len(t.ChildrenOfKind(params, tree.KindFormalParameter))
	if count <= p.maxParams {
		return
	}
	if p.ignoreOverridden && overrides(t, id) {
		return
	}
	r.Report(t.Pos(id), MsgParameterNumber, count, p.maxParams)
}

// overrides reports whether the declaration's modifiers carry @Override.
func overrides(t *tree.Tree, id tree.NodeID) bool {
	for _, c := range t.Children(id) {
		if t.Kind(c) == tree.KindFormalParameters {
			break
		}
		if t.Kind(c) == tree.KindOther && strings.Contains(t.LeafText(c), "@Override") {
			return true
		}
	}
	return false
}
