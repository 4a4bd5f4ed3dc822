// Package resolve attaches best-effort qualified names to call and reference
// sites using the import declarations of a compilation unit. It never fails:
// anything it cannot decide is left unresolved.
package resolve

import (
	"strings"
	"unicode"

	"github.com/chris-regnier/chisel/internal/tree"
)

// javaLang lists java.lang types visible without an import.
var javaLang = map[string]bool{
	"Boolean": true, "Byte": true, "Character": true, "Class": true, "ClassLoader": true,
	"Double": true, "Enum": true, "Float": true, "Integer": true, "Long": true,
	"Math": true, "Number": true, "Object": true, "Process": true, "Runtime": true,
	"SecurityManager": true, "Short": true, "StrictMath": true, "String": true,
	"StringBuffer": true, "StringBuilder": true, "System": true, "Thread": true,
	"ThreadGroup": true, "Throwable": true, "Void": true,
}

// Scope is the name table of one compilation unit.
type Scope struct {
	pkg       string
	types     map[string]string
	statics   map[string]string
	wildcards []string
}

// NewScope collects the package, import and top-level type declarations
// below root.
func NewScope(t *tree.Tree, root tree.NodeID) *Scope {
	s := &Scope{
		types:   make(map[string]string),
		statics: make(map[string]string),
	}
	for _, c := range t.Children(root) {
		switch t.Kind(c) {
		case tree.KindPackageDeclaration:
			if name := qualifiedChild(t, c); name != "" {
				s.pkg = name
			}
		case tree.KindImportDeclaration:
			s.addImport(t, c)
		case tree.KindClassDeclaration, tree.KindInterfaceDeclaration,
			tree.KindEnumDeclaration, tree.KindRecordDeclaration:
			if id := t.FirstChildOfKind(c, tree.KindIdentifier); id != tree.NoNode {
				name := t.Text(id)
				if s.pkg != "" {
					s.types[name] = s.pkg + "." + name
				} else {
					s.types[name] = name
				}
			}
		}
	}
	return s
}

func (s *Scope) addImport(t *tree.Tree, id tree.NodeID) {
	name := qualifiedChild(t, id)
	if name == "" {
		return
	}
	static, wildcard := false, false
	for _, c := range t.Children(id) {
		switch {
		case t.Kind(c) == tree.KindKeyword && t.Text(c) == "static":
			static = true
		case t.Text(c) == "*":
			wildcard = true
		}
	}
	simple := name[strings.LastIndex(name, ".")+1:]
	switch {
	case wildcard:
		s.wildcards = append(s.wildcards, name)
	case static:
		s.statics[simple] = name
	default:
		s.types[simple] = name
	}
}

func qualifiedChild(t *tree.Tree, id tree.NodeID) string {
	for _, c := range t.Children(id) {
		if k := t.Kind(c); k == tree.KindScopedIdentifier || k == tree.KindIdentifier {
			return t.LeafText(c)
		}
	}
	return ""
}

// Imports returns the simple-name table of the scope, statics included.
func (s *Scope) Imports() map[string]string {
	out := make(map[string]string, len(s.types)+len(s.statics))
	for k, v := range s.statics {
		out[k] = v
	}
	for k, v := range s.types {
		out[k] = v
	}
	return out
}

// Qualify resolves a literal reference to a qualified name.
func (s *Scope) Qualify(ref Reference) (string, bool) {
	if ref.Member == "" {
		return "", false
	}
	if ref.Receiver == "" {
		q, ok := s.statics[ref.Member]
		return q, ok
	}
	first, rest, _ := strings.Cut(ref.Receiver, ".")
	if q, ok := s.types[first]; ok {
		return join(q, rest, ref.Member), true
	}
	if javaLang[first] {
		return join("java.lang."+first, rest, ref.Member), true
	}
	if looksQualified(ref.Receiver) {
		return ref.Receiver + "." + ref.Member, true
	}
	return "", false
}

func join(qualified, rest, member string) string {
	if rest != "" {
		qualified += "." + rest
	}
	return qualified + "." + member
}

// looksQualified reports whether receiver has the shape pkg.sub.Type.
func looksQualified(receiver string) bool {
	parts := strings.Split(receiver, ".")
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts {
		if p == "" || !isIdent(p) {
			return false
		}
	}
	first := []rune(parts[0])
	last := []rune(parts[len(parts)-1])
	return unicode.IsLower(first[0]) && unicode.IsUpper(last[0])
}

func isIdent(s string) bool {
	for i, r := range s {
		if !(unicode.IsLetter(r) || r == '_' || r == '$' || (i > 0 && unicode.IsDigit(r))) {
			return false
		}
	}
	return true
}

// Annotate returns a copy of t in which every method invocation, method
// reference and object creation that can be qualified carries a Resolved
// attribute, and the root carries the import table.
func Annotate(t *tree.Tree) *tree.Tree {
	root := t.Root()
	if root == tree.NoNode {
		return t
	}
	scope := NewScope(t, root)
	attrs := map[tree.NodeID]tree.Attributes{
		root: {Imports: scope.Imports()},
	}
	t.Walk(root, func(id tree.NodeID) bool {
		ref, ok := ReferenceOf(t, id)
		if !ok {
			return true
		}
		if q, ok := scope.Qualify(ref); ok {
			attrs[id] = tree.Attributes{Resolved: tree.Resolved(q)}
		}
		return true
	})
	return t.WithAttributes(attrs)
}
