// Package tree holds the immutable syntax tree checks run against. Nodes live
// in an arena and refer to each other by index; a parent link is a lookup aid,
// never ownership.
package tree

import (
	"errors"
	"strings"
)

// ErrMalformedTree is returned when a tree violates its structural invariants
// or a parser could not produce a well-formed tree.
var ErrMalformedTree = errors.New("malformed syntax tree")

// NodeID addresses a node in its Tree's arena.
type NodeID int32

// NoNode is the parent of the root and the result of failed lookups.
const NoNode NodeID = -1

// Position is a 1-based line and column.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Before reports whether p sorts strictly before o.
func (p Position) Before(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Column < o.Column
}

// Node is a syntax-tree element. Text is set for leaves only.
type Node struct {
	Kind     Kind
	Parent   NodeID
	Children []NodeID
	Pos      Position
	End      Position
	Text     string
}

// Attributes are best-effort semantic hints attached by a resolver.
type Attributes struct {
	Resolved Resolution
	// Imports maps simple names visible in this scope to qualified names.
	Imports map[string]string
}

// Resolution is either Resolved(name) or Unresolved.
type Resolution struct {
	name string
	ok   bool
}

// Unresolved is the zero Resolution.
var Unresolved = Resolution{}

// Resolved returns a resolution carrying a qualified name.
func Resolved(name string) Resolution {
	if name == "" {
		return Unresolved
	}
	return Resolution{name: name, ok: true}
}

// Name returns the qualified name and whether resolution succeeded.
func (r Resolution) Name() (string, bool) { return r.name, r.ok }

// Tree is a fully built, immutable syntax tree for one source file.
type Tree struct {
	path  string
	nodes []Node
	attrs map[NodeID]Attributes
}

// Path is the source path the tree was built from.
func (t *Tree) Path() string { return t.path }

// Root returns the root node, or NoNode for an empty tree.
func (t *Tree) Root() NodeID {
	if len(t.nodes) == 0 {
		return NoNode
	}
	return 0
}

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

func (t *Tree) valid(id NodeID) bool { return id >= 0 && int(id) < len(t.nodes) }

// Kind returns the kind of id. Callers pass ids obtained from the same tree.
func (t *Tree) Kind(id NodeID) Kind { return t.nodes[id].Kind }

// Parent returns the parent of id, or NoNode for the root.
func (t *Tree) Parent(id NodeID) NodeID { return t.nodes[id].Parent }

// Children returns the children of id in source order. The slice is shared
// and must not be modified.
func (t *Tree) Children(id NodeID) []NodeID { return t.nodes[id].Children }

// Pos returns the position of the first token of id.
func (t *Tree) Pos(id NodeID) Position { return t.nodes[id].Pos }

// End returns the position just past the last character of id.
func (t *Tree) End(id NodeID) Position { return t.nodes[id].End }

// Text returns the raw lexical text of a leaf.
func (t *Tree) Text(id NodeID) string { return t.nodes[id].Text }

// Attributes returns the attributes attached to id, if any.
func (t *Tree) Attributes(id NodeID) (Attributes, bool) {
	a, ok := t.attrs[id]
	return a, ok
}

// Resolution returns the resolved qualified name of id, Unresolved when absent.
func (t *Tree) Resolution(id NodeID) Resolution {
	return t.attrs[id].Resolved
}

// WithAttributes returns a copy of t that shares its node arena and carries
// the union of t's attributes and extra. Entries in extra win.
func (t *Tree) WithAttributes(extra map[NodeID]Attributes) *Tree {
	merged := make(map[NodeID]Attributes, len(t.attrs)+len(extra))
	for id, a := range t.attrs {
		merged[id] = a
	}
	for id, a := range extra {
		if t.valid(id) {
			merged[id] = a
		}
	}
	return &Tree{path: t.path, nodes: t.nodes, attrs: merged}
}

// Ancestors calls fn for each ancestor of id, nearest first, until fn returns false.
func (t *Tree) Ancestors(id NodeID, fn func(NodeID) bool) {
	for p := t.nodes[id].Parent; p != NoNode; p = t.nodes[p].Parent {
		if !fn(p) {
			return
		}
	}
}

// Index returns the position of id among its parent's children, or -1 for the root.
func (t *Tree) Index(id NodeID) int {
	p := t.nodes[id].Parent
	if p == NoNode {
		return -1
	}
	for i, c := range t.nodes[p].Children {
		if c == id {
			return i
		}
	}
	return -1
}

// PrevSibling returns the sibling before id, or NoNode.
func (t *Tree) PrevSibling(id NodeID) NodeID {
	i := t.Index(id)
	if i <= 0 {
		return NoNode
	}
	return t.nodes[t.nodes[id].Parent].Children[i-1]
}

// NextSibling returns the sibling after id, or NoNode.
func (t *Tree) NextSibling(id NodeID) NodeID {
	i := t.Index(id)
	if i < 0 {
		return NoNode
	}
	siblings := t.nodes[t.nodes[id].Parent].Children
	if i+1 >= len(siblings) {
		return NoNode
	}
	return siblings[i+1]
}

// FirstChildOfKind returns the first child of id with kind k, or NoNode.
func (t *Tree) FirstChildOfKind(id NodeID, k Kind) NodeID {
	for _, c := range t.nodes[id].Children {
		if t.nodes[c].Kind == k {
			return c
		}
	}
	return NoNode
}

// LastChildOfKind returns the last child of id with kind k, or NoNode.
func (t *Tree) LastChildOfKind(id NodeID, k Kind) NodeID {
	children := t.nodes[id].Children
	for i := len(children) - 1; i >= 0; i-- {
		if t.nodes[children[i]].Kind == k {
			return children[i]
		}
	}
	return NoNode
}

// ChildrenOfKind returns the children of id with kind k.
func (t *Tree) ChildrenOfKind(id NodeID, k Kind) []NodeID {
	var out []NodeID
	for _, c := range t.nodes[id].Children {
		if t.nodes[c].Kind == k {
			out = append(out, c)
		}
	}
	return out
}

// LeafText concatenates the text of every non-comment leaf under id without
// separators. It is the normalised form used to compare names and types.
func (t *Tree) LeafText(id NodeID) string {
	var sb strings.Builder
	t.appendLeaves(&sb, id)
	return sb.String()
}

func (t *Tree) appendLeaves(sb *strings.Builder, id NodeID) {
	n := &t.nodes[id]
	if n.Kind.IsComment() {
		return
	}
	if len(n.Children) == 0 {
		sb.WriteString(n.Text)
		return
	}
	for _, c := range n.Children {
		t.appendLeaves(sb, c)
	}
}

// Walk visits id and its descendants in pre-order. Returning false from fn
// skips the node's children.
func (t *Tree) Walk(id NodeID, fn func(NodeID) bool) {
	if !fn(id) {
		return
	}
	for _, c := range t.nodes[id].Children {
		t.Walk(c, fn)
	}
}
