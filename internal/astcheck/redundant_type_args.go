package astcheck

import (
	"strings"

	"github.com/chris-regnier/chisel/internal/tree"
)

// RedundantTypeArguments flags explicit type arguments on a record pattern
// whose parameterized type exactly repeats the type governing the pattern.
// A nested pattern is governed by the matching type argument of its
// enclosing pattern; a top-level pattern by the declared type of the
// instanceof operand or switch selector.
type RedundantTypeArguments struct{}

func (c *RedundantTypeArguments) Name() string { return "redundant-type-arguments" }

func (c *RedundantTypeArguments) Descriptor() Descriptor {
	kinds := tree.NewKindSet(tree.KindRecordPattern)
	return Descriptor{Acceptable: kinds, Default: kinds, Required: kinds}
}

func (c *RedundantTypeArguments) Visit(t *tree.Tree, id tree.NodeID, r Reporter) {
	typ := t.FirstChildOfKind(id, tree.KindGenericType)
	if typ == tree.NoNode {
		return
	}
	args := t.FirstChildOfKind(typ, tree.KindTypeArguments)
	if args == tree.NoNode {
		return
	}
	governing := governingType(t, id)
	if governing == "" || governing != t.LeafText(typ) {
		return
	}
	r.Report(t.Pos(args), MsgRedundantTypeArguments, t.LeafText(args), governing)
}

// governingType returns the source text of the type a record pattern is
// matched against, or "" when it cannot be determined syntactically.
func governingType(t *tree.Tree, pattern tree.NodeID) string {
	elem := pattern
	for p := t.Parent(pattern); p != tree.NoNode; elem, p = p, t.Parent(p) {
		switch t.Kind(p) {
		case tree.KindRecordPatternComponent, tree.KindPattern:
			continue
		case tree.KindRecordPatternBody:
			outer := t.Parent(p)
			if outer == tree.NoNode || t.Kind(outer) != tree.KindRecordPattern {
				return ""
			}
			return componentType(t, outer, componentIndex(t, p, elem))
		case tree.KindInstanceof:
			kids := t.Children(p)
			if len(kids) == 0 {
				return ""
			}
			return declaredTypeOf(t, p, operandName(t, kids[0]))
		case tree.KindSwitchLabel:
			sw := enclosing(t, p, tree.KindSwitch)
			if sw == tree.NoNode {
				return ""
			}
			return declaredTypeOf(t, sw, selectorName(t, sw))
		default:
			return ""
		}
	}
	return ""
}

// componentIndex is the position of elem among the components of body.
func componentIndex(t *tree.Tree, body, elem tree.NodeID) int {
	i := 0
	for _, c := range t.Children(body) {
		if c == elem {
			return i
		}
		switch k := t.Kind(c); {
		case k == tree.KindLParen, k == tree.KindRParen, k == tree.KindComma, k.IsComment():
		default:
			i++
		}
	}
	return -1
}

// componentType returns the text of the index-th type argument of the outer
// pattern's type.
func componentType(t *tree.Tree, outer tree.NodeID, index int) string {
	typ := t.FirstChildOfKind(outer, tree.KindGenericType)
	if typ == tree.NoNode || index < 0 {
		return ""
	}
	args := t.FirstChildOfKind(typ, tree.KindTypeArguments)
	if args == tree.NoNode {
		return ""
	}
	i := 0
	for _, c := range t.Children(args) {
		switch k := t.Kind(c); {
		case k == tree.KindLAngle, k == tree.KindRAngle, k == tree.KindComma, k.IsComment():
			continue
		}
		if i == index {
			return t.LeafText(c)
		}
		i++
	}
	return ""
}

func operandName(t *tree.Tree, id tree.NodeID) string {
	if t.Kind(id) == tree.KindIdentifier {
		return t.Text(id)
	}
	return ""
}

func selectorName(t *tree.Tree, sw tree.NodeID) string {
	for _, c := range t.Children(sw) {
		if t.Kind(c) == tree.KindKeyword {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(t.LeafText(c), "("), ")")
		if name != "" && !strings.ContainsAny(name, "().[]") {
			return name
		}
		return ""
	}
	return ""
}

func enclosing(t *tree.Tree, id tree.NodeID, k tree.Kind) tree.NodeID {
	found := tree.NoNode
	t.Ancestors(id, func(a tree.NodeID) bool {
		if t.Kind(a) == k {
			found = a
			return false
		}
		return true
	})
	return found
}

var declarationKinds = tree.NewKindSet(
	tree.KindLocalVariableDeclaration,
	tree.KindFormalParameter,
	tree.KindFieldDeclaration,
)

var typeKinds = tree.NewKindSet(
	tree.KindGenericType,
	tree.KindTypeIdentifier,
	tree.KindScopedIdentifier,
)

// declaredTypeOf finds the declared type of the variable name visible from
// id, searching the nearest enclosing method, lambda or class first.
func declaredTypeOf(t *tree.Tree, id tree.NodeID, name string) string {
	if name == "" {
		return ""
	}
	result := ""
	t.Ancestors(id, func(scope tree.NodeID) bool {
		if !scopeKinds.Has(t.Kind(scope)) && t.Parent(scope) != tree.NoNode {
			return true
		}
		t.Walk(scope, func(n tree.NodeID) bool {
			if result != "" {
				return false
			}
			if declarationKinds.Has(t.Kind(n)) && declares(t, n, name) {
				for _, c := range t.Children(n) {
					if typeKinds.Has(t.Kind(c)) {
						result = t.LeafText(c)
						break
					}
				}
				return false
			}
			return true
		})
		return result == ""
	})
	return result
}

func declares(t *tree.Tree, decl tree.NodeID, name string) bool {
	if t.Kind(decl) == tree.KindFormalParameter {
		id := t.LastChildOfKind(decl, tree.KindIdentifier)
		return id != tree.NoNode && t.Text(id) == name
	}
	for _, d := range t.ChildrenOfKind(decl, tree.KindVariableDeclarator) {
		id := t.FirstChildOfKind(d, tree.KindIdentifier)
		if id != tree.NoNode && t.Text(id) == name {
			return true
		}
	}
	return false
}
