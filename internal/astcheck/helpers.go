package astcheck

import "github.com/chris-regnier/chisel/internal/tree"

// scopeKinds are the constructs that start a fresh nesting context.
var scopeKinds = tree.NewKindSet(
	tree.KindMethodDeclaration,
	tree.KindConstructorDeclaration,
	tree.KindLambdaExpression,
	tree.KindClassBody,
	tree.KindAnonymousClassBody,
	tree.KindInstanceInitializer,
	tree.KindStaticInitializer,
)

// funcKinds are the method-like declarations.
var funcKinds = tree.NewKindSet(
	tree.KindMethodDeclaration,
	tree.KindConstructorDeclaration,
)

// funcName extracts a human-readable name from a method-like node.
func funcName(t *tree.Tree, id tree.NodeID) string {
	if name := t.FirstChildOfKind(id, tree.KindIdentifier); name != tree.NoNode {
		return t.Text(name)
	}
	return "<anonymous>"
}

// members returns the children of a body that are declarations, skipping
// braces, comments and stray semicolons.
func members(t *tree.Tree, body tree.NodeID) []tree.NodeID {
	var out []tree.NodeID
	for _, c := range t.Children(body) {
		switch k := t.Kind(c); {
		case k == tree.KindLBrace, k == tree.KindRBrace, k == tree.KindSemicolon, k.IsComment():
			continue
		default:
			out = append(out, c)
		}
	}
	return out
}

// isElseIf reports whether an if statement is the `else if` continuation of
// its parent.
func isElseIf(t *tree.Tree, id tree.NodeID) bool {
	parent := t.Parent(id)
	if parent == tree.NoNode || t.Kind(parent) != tree.KindIfStatement {
		return false
	}
	prev := prevSignificant(t, id)
	return prev != tree.NoNode && t.Kind(prev) == tree.KindKeyword && t.Text(prev) == "else"
}

// prevSignificant returns the nearest sibling before id that is not a
// comment, or NoNode.
func prevSignificant(t *tree.Tree, id tree.NodeID) tree.NodeID {
	for p := t.PrevSibling(id); p != tree.NoNode; p = t.PrevSibling(p) {
		if !t.Kind(p).IsComment() {
			return p
		}
	}
	return tree.NoNode
}
