package astcheck

import "github.com/chris-regnier/chisel/internal/tree"

type commaPolicy int

const (
	// commaForbid reports a comma that directly precedes the closing delimiter.
	commaForbid commaPolicy = iota
	// commaAlways demands a trailing comma after the last element.
	commaAlways
	// commaMultiline demands a trailing comma when the delimiters are on
	// different lines.
	commaMultiline
)

// TrailingComma decides whether a separator precedes the closing delimiter of
// a bracketed element list and reports according to its policy.
type TrailingComma struct {
	name       string
	policy     commaPolicy
	descriptor Descriptor
}

// NewArrayTrailingComma demands trailing commas in array initializers that
// span lines, or in every array initializer when
// always_demand_trailing_comma is set.
func NewArrayTrailingComma() *TrailingComma {
	kinds := tree.NewKindSet(tree.KindArrayInitializer)
	return &TrailingComma{
		name:       "array-trailing-comma",
		policy:     commaMultiline,
		descriptor: Descriptor{Acceptable: kinds, Default: kinds, Required: kinds},
	}
}

// NewNoTrailingComma forbids trailing commas in array initializers and enum
// constant lists.
func NewNoTrailingComma() *TrailingComma {
	kinds := tree.NewKindSet(tree.KindArrayInitializer, tree.KindEnumBody)
	return &TrailingComma{
		name:       "no-trailing-comma",
		policy:     commaForbid,
		descriptor: Descriptor{Acceptable: kinds, Default: kinds},
	}
}

func (c *TrailingComma) Name() string { return c.name }

func (c *TrailingComma) Descriptor() Descriptor { return c.descriptor }

func (c *TrailingComma) Configure(props map[string]any) error {
	p := newProperties(c.name, props)
	if c.policy != commaForbid {
		if p.Bool("always_demand_trailing_comma", c.policy == commaAlways) {
			c.policy = commaAlways
		} else {
			c.policy = commaMultiline
		}
	}
	return p.Finish()
}

func (c *TrailingComma) Visit(t *tree.Tree, id tree.NodeID, r Reporter) {
	open := t.FirstChildOfKind(id, tree.KindLBrace)
	closing := closingDelimiter(t, id)
	if open == tree.NoNode || closing == tree.NoNode {
		return
	}

	prev := prevSignificant(t, closing)
	if prev == tree.NoNode {
		return
	}
	comma := tree.NoNode
	last := prev
	if t.Kind(prev) == tree.KindComma {
		comma = prev
		last = prevSignificant(t, prev)
	}
	empty := last == tree.NoNode || last == open

	switch c.policy {
	case commaForbid:
		if comma != tree.NoNode {
			r.Report(t.Pos(comma), MsgNoTrailingComma)
		}
	case commaAlways:
		if comma == tree.NoNode && !empty {
			r.Report(t.End(last), MsgArrayTrailingComma)
		}
	case commaMultiline:
		if comma == tree.NoNode && !empty && t.Pos(open).Line != t.Pos(closing).Line {
			r.Report(t.Pos(closing), MsgArrayTrailingComma)
		}
	}
}

// closingDelimiter returns the node that ends the element list: the closing
// brace, or for an enum body with declarations the declarations section that
// starts with `;`.
func closingDelimiter(t *tree.Tree, id tree.NodeID) tree.NodeID {
	if t.Kind(id) == tree.KindEnumBody {
		if decls := t.FirstChildOfKind(id, tree.KindEnumBodyDeclarations); decls != tree.NoNode {
			return decls
		}
	}
	return t.LastChildOfKind(id, tree.KindRBrace)
}
