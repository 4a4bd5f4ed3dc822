package tree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildArray builds the tree for `{1, 2,}` starting at 1:1.
func buildArray(t *testing.T) *Tree {
	t.Helper()
	b := NewBuilder("Array.java")
	root := b.Add(NoNode, KindArrayInitializer, Position{1, 1}, "")
	b.Add(root, KindLBrace, Position{1, 1}, "{")
	b.Add(root, KindLiteral, Position{1, 2}, "1")
	b.Add(root, KindComma, Position{1, 3}, ",")
	b.Add(root, KindLiteral, Position{1, 5}, "2")
	b.Add(root, KindComma, Position{1, 6}, ",")
	b.Add(root, KindRBrace, Position{1, 7}, "}")
	tr, err := b.Build()
	require.NoError(t, err)
	return tr
}

func TestBuilderNavigation(t *testing.T) {
	tr := buildArray(t)

	assert.Equal(t, NodeID(0), tr.Root())
	assert.Equal(t, 7, tr.Len())
	assert.Equal(t, "Array.java", tr.Path())
	assert.Len(t, tr.Children(tr.Root()), 6)
	assert.Equal(t, NodeID(6), tr.LastChildOfKind(tr.Root(), KindRBrace))
	assert.Equal(t, NodeID(1), tr.FirstChildOfKind(tr.Root(), KindLBrace))
	assert.Equal(t, NoNode, tr.FirstChildOfKind(tr.Root(), KindSemicolon))
	assert.Equal(t, []NodeID{2, 4}, tr.ChildrenOfKind(tr.Root(), KindLiteral))
	assert.Equal(t, NodeID(5), tr.PrevSibling(6))
	assert.Equal(t, NoNode, tr.NextSibling(6))
	assert.Equal(t, NoNode, tr.PrevSibling(1))
	assert.Equal(t, tr.Root(), tr.Parent(3))
	assert.Equal(t, "{1,2,}", tr.LeafText(tr.Root()))
}

func TestBuilderRejectsOutOfOrderPositions(t *testing.T) {
	b := NewBuilder("x.java")
	root := b.Add(NoNode, KindCompilationUnit, Position{1, 1}, "")
	b.Add(root, KindLineComment, Position{3, 1}, "// late")
	b.Add(root, KindLineComment, Position{2, 1}, "// early")

	_, err := b.Build()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedTree))
}

func TestBuilderRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *Builder)
	}{
		{"empty", func(b *Builder) {}},
		{"root with parent", func(b *Builder) {
			b.Add(3, KindCompilationUnit, Position{1, 1}, "")
		}},
		{"zero position", func(b *Builder) {
			b.Add(NoNode, KindCompilationUnit, Position{0, 1}, "")
		}},
		{"second root", func(b *Builder) {
			b.Add(NoNode, KindCompilationUnit, Position{1, 1}, "")
			b.Add(NoNode, KindCompilationUnit, Position{1, 1}, "")
		}},
		{"invalid kind", func(b *Builder) {
			b.Add(NoNode, Kind(250), Position{1, 1}, "")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder("x.java")
			tt.build(b)
			_, err := b.Build()
			assert.ErrorIs(t, err, ErrMalformedTree)
		})
	}
}

func TestResolution(t *testing.T) {
	name, ok := Unresolved.Name()
	assert.False(t, ok)
	assert.Empty(t, name)

	name, ok = Resolved("java.util.Date").Name()
	assert.True(t, ok)
	assert.Equal(t, "java.util.Date", name)

	_, ok = Resolved("").Name()
	assert.False(t, ok, "empty name must not count as resolved")
}

func TestWithAttributesSharesArena(t *testing.T) {
	tr := buildArray(t)
	_, ok := tr.Attributes(2)
	require.False(t, ok)

	annotated := tr.WithAttributes(map[NodeID]Attributes{
		2:   {Resolved: Resolved("one")},
		999: {Resolved: Resolved("ignored")},
	})
	name, ok := annotated.Resolution(2).Name()
	assert.True(t, ok)
	assert.Equal(t, "one", name)
	assert.Equal(t, Unresolved, tr.Resolution(2), "original tree must stay untouched")
	assert.Equal(t, tr.Len(), annotated.Len())
}

func TestKindNamesRoundTrip(t *testing.T) {
	for k := Kind(0); int(k) < NumKinds; k++ {
		got, err := ParseKind(k.String())
		require.NoError(t, err, "kind %d", k)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("no_such_kind")
	assert.Error(t, err)
}

func TestKindSet(t *testing.T) {
	s := NewKindSet(KindIfStatement, KindOther, KindCompilationUnit)
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Has(KindOther))
	assert.False(t, s.Has(KindTryStatement))
	assert.False(t, s.Has(Kind(200)))
	assert.Equal(t, []Kind{KindCompilationUnit, KindIfStatement, KindOther}, s.Kinds())
	assert.Equal(t, []string{"compilation_unit", "if_statement", "other"}, s.Names())

	u := s.Union(NewKindSet(KindTryStatement))
	assert.Equal(t, 4, u.Len())
	assert.Equal(t, 3, s.Len(), "union must not mutate the receiver")
	assert.True(t, KindSet{}.IsEmpty())
}
