package resolve

import "github.com/chris-regnier/chisel/internal/tree"

// Reference is the literal, unresolved form of a call or reference site:
// `Thread.sleep(1)` is {Thread, sleep}, `new Integer(1)` is {Integer, new}
// and `Date::getYear` is {Date, getYear}.
type Reference struct {
	Receiver string
	Member   string
}

func (r Reference) String() string {
	if r.Receiver == "" {
		return r.Member
	}
	return r.Receiver + "." + r.Member
}

// ReferenceOf extracts the literal reference of a method invocation, method
// reference or object creation node. It reports false for other kinds and for
// nodes missing the expected children.
func ReferenceOf(t *tree.Tree, id tree.NodeID) (Reference, bool) {
	switch t.Kind(id) {
	case tree.KindMethodInvocation:
		return invocationRef(t, id)
	case tree.KindMethodReference:
		return methodRef(t, id)
	case tree.KindObjectCreation:
		return creationRef(t, id)
	default:
		return Reference{}, false
	}
}

func invocationRef(t *tree.Tree, id tree.NodeID) (Reference, bool) {
	children := t.Children(id)
	args := -1
	for i := len(children) - 1; i >= 0; i-- {
		if t.Kind(children[i]) == tree.KindArgumentList {
			args = i
			break
		}
	}
	if args < 1 {
		return Reference{}, false
	}
	name := -1
	for i := args - 1; i >= 0; i-- {
		if t.Kind(children[i]) == tree.KindIdentifier {
			name = i
			break
		}
	}
	if name < 0 {
		return Reference{}, false
	}
	ref := Reference{Member: t.Text(children[name])}

	dot := -1
	for i := name - 1; i >= 0; i-- {
		if t.Kind(children[i]) == tree.KindDot {
			dot = i
			break
		}
	}
	if dot > 0 {
		ref.Receiver = joinText(t, children[:dot])
	}
	return ref, true
}

func methodRef(t *tree.Tree, id tree.NodeID) (Reference, bool) {
	children := t.Children(id)
	sep := -1
	for i, c := range children {
		if t.Kind(c) == tree.KindDoubleColon {
			sep = i
			break
		}
	}
	if sep < 1 || sep == len(children)-1 {
		return Reference{}, false
	}
	member := children[len(children)-1]
	var receiver string
	if sep == 1 {
		receiver = TypeBase(t, children[0])
	} else {
		receiver = joinText(t, children[:sep])
	}
	return Reference{Receiver: receiver, Member: t.LeafText(member)}, true
}

func creationRef(t *tree.Tree, id tree.NodeID) (Reference, bool) {
	seenNew := false
	for _, c := range t.Children(id) {
		switch t.Kind(c) {
		case tree.KindKeyword:
			if t.Text(c) == "new" {
				seenNew = true
			}
		case tree.KindTypeIdentifier, tree.KindScopedIdentifier, tree.KindGenericType:
			if seenNew {
				return Reference{Receiver: TypeBase(t, c), Member: "new"}, true
			}
		}
	}
	return Reference{}, false
}

// TypeBase returns the text of a type without its type arguments.
func TypeBase(t *tree.Tree, id tree.NodeID) string {
	if t.Kind(id) == tree.KindGenericType {
		for _, c := range t.Children(id) {
			if t.Kind(c) != tree.KindTypeArguments {
				return t.LeafText(c)
			}
		}
	}
	return t.LeafText(id)
}

func joinText(t *tree.Tree, ids []tree.NodeID) string {
	var s string
	for _, c := range ids {
		s += t.LeafText(c)
	}
	return s
}
