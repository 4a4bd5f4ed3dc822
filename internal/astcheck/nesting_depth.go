package astcheck

import "github.com/chris-regnier/chisel/internal/tree"

const (
	defaultMaxIfDepth  = 3
	defaultMaxTryDepth = 2
)

// NestingDepth flags the construct at which nesting of one statement kind
// first exceeds max_depth. Descendants of a flagged construct are not
// flagged again. Method, lambda, class and initializer boundaries start a
// fresh count; blocks, switch cases and catch/finally bodies are transparent.
type NestingDepth struct {
	name      string
	construct tree.Kind
	msgKey    string
	skip      func(t *tree.Tree, id tree.NodeID) bool
	maxDepth  int

	frames []depthFrame
}

type depthFrame struct {
	depth int
	// reported is the depth of the flagged construct on the current path, 0
	// when nothing on the path has been flagged.
	reported int
}

// NewNestedIfDepth tracks if statements. `else if` continuations do not add
// a level.
func NewNestedIfDepth() *NestingDepth {
	return &NestingDepth{
		name:      "nested-if-depth",
		construct: tree.KindIfStatement,
		msgKey:    MsgNestedIfDepth,
		skip:      isElseIf,
		maxDepth:  defaultMaxIfDepth,
	}
}

// NewNestedTryDepth tracks try statements, including try-with-resources.
func NewNestedTryDepth() *NestingDepth {
	return &NestingDepth{
		name:      "nested-try-depth",
		construct: tree.KindTryStatement,
		msgKey:    MsgNestedTryDepth,
		maxDepth:  defaultMaxTryDepth,
	}
}

func (n *NestingDepth) Name() string { return n.name }

func (n *NestingDepth) Descriptor() Descriptor {
	acceptable := scopeKinds.With(n.construct)
	return Descriptor{
		Acceptable: acceptable,
		Default:    acceptable,
		Required:   tree.NewKindSet(n.construct),
	}
}

func (n *NestingDepth) Configure(props map[string]any) error {
	p := newProperties(n.name, props)
	n.maxDepth = p.Int("max_depth", n.maxDepth, 0)
	return p.Finish()
}

func (n *NestingDepth) BeginTree(*tree.Tree) {
	n.frames = append(n.frames[:0], depthFrame{})
}

func (n *NestingDepth) counts(t *tree.Tree, id tree.NodeID) bool {
	return t.Kind(id) == n.construct && (n.skip == nil || !n.skip(t, id))
}

func (n *NestingDepth) Visit(t *tree.Tree, id tree.NodeID, r Reporter) {
	if t.Kind(id) != n.construct {
		if scopeKinds.Has(t.Kind(id)) {
			n.frames = append(n.frames, depthFrame{})
		}
		return
	}
	if !n.counts(t, id) {
		return
	}
	if len(n.frames) == 0 {
		n.frames = append(n.frames, depthFrame{})
	}
	top := &n.frames[len(n.frames)-1]
	top.depth++
	if top.depth == n.maxDepth+1 && top.reported == 0 {
		r.Report(t.Pos(id), n.msgKey, top.depth, n.maxDepth)
		top.reported = top.depth
	}
}

func (n *NestingDepth) Leave(t *tree.Tree, id tree.NodeID, _ Reporter) {
	if t.Kind(id) != n.construct {
		if scopeKinds.Has(t.Kind(id)) && len(n.frames) > 1 {
			n.frames = n.frames[:len(n.frames)-1]
		}
		return
	}
	if !n.counts(t, id) || len(n.frames) == 0 {
		return
	}
	top := &n.frames[len(n.frames)-1]
	top.depth--
	if top.reported > top.depth {
		top.reported = 0
	}
}
