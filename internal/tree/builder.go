package tree

import "fmt"

// Builder assembles a Tree. Nodes must be added parent-first; children are
// appended in the order they are added.
type Builder struct {
	path  string
	nodes []Node
	attrs map[NodeID]Attributes
}

// NewBuilder creates a Builder for the source at path.
func NewBuilder(path string) *Builder {
	return &Builder{path: path, attrs: make(map[NodeID]Attributes)}
}

// Add appends a node under parent and returns its id. The first node added
// must use NoNode as parent; it becomes the root.
func (b *Builder) Add(parent NodeID, kind Kind, pos Position, text string) NodeID {
	id := NodeID(len(b.nodes))
	b.nodes = append(b.nodes, Node{
		Kind:   kind,
		Parent: parent,
		Pos:    pos,
		End:    pos,
		Text:   text,
	})
	if parent >= 0 && int(parent) < len(b.nodes)-1 {
		b.nodes[parent].Children = append(b.nodes[parent].Children, id)
	}
	return id
}

// SetEnd records the end position of id.
func (b *Builder) SetEnd(id NodeID, end Position) {
	b.nodes[id].End = end
}

// SetResolution attaches a resolved qualified name to id.
func (b *Builder) SetResolution(id NodeID, name string) {
	a := b.attrs[id]
	a.Resolved = Resolved(name)
	b.attrs[id] = a
}

// SetImports attaches an import table to a scope node.
func (b *Builder) SetImports(id NodeID, imports map[string]string) {
	a := b.attrs[id]
	a.Imports = imports
	b.attrs[id] = a
}

// Build validates the accumulated nodes and returns the tree.
func (b *Builder) Build() (*Tree, error) {
	if len(b.nodes) == 0 {
		return nil, fmt.Errorf("%w: no nodes", ErrMalformedTree)
	}
	if b.nodes[0].Parent != NoNode {
		return nil, fmt.Errorf("%w: first node is not a root", ErrMalformedTree)
	}
	for i := 1; i < len(b.nodes); i++ {
		n := &b.nodes[i]
		if n.Parent < 0 || int(n.Parent) >= i {
			return nil, fmt.Errorf("%w: node %d has invalid parent %d", ErrMalformedTree, i, n.Parent)
		}
	}
	for i := range b.nodes {
		n := &b.nodes[i]
		if !n.Kind.Valid() {
			return nil, fmt.Errorf("%w: node %d has invalid kind %d", ErrMalformedTree, i, n.Kind)
		}
		if n.Pos.Line < 1 || n.Pos.Column < 1 {
			return nil, fmt.Errorf("%w: node %d has position %d:%d", ErrMalformedTree, i, n.Pos.Line, n.Pos.Column)
		}
	}

	t := &Tree{path: b.path, nodes: b.nodes, attrs: b.attrs}

	// Parents always precede children, so ancestry is acyclic; check source
	// order in a pre-order walk.
	var prev Position
	var bad NodeID = NoNode
	t.Walk(0, func(id NodeID) bool {
		if bad != NoNode {
			return false
		}
		p := t.nodes[id].Pos
		if p.Before(prev) {
			bad = id
			return false
		}
		prev = p
		return true
	})
	if bad != NoNode {
		p := t.nodes[bad].Pos
		return nil, fmt.Errorf("%w: node %d at %d:%d precedes its pre-order predecessor", ErrMalformedTree, bad, p.Line, p.Column)
	}

	b.nodes = nil
	b.attrs = make(map[NodeID]Attributes)
	return t, nil
}
