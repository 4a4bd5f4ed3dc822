package walker

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-regnier/chisel/internal/astcheck"
	"github.com/chris-regnier/chisel/internal/tree"
)

// sample builds:
//
//	unit 1:1
//	  if 2:1
//	    block 2:5
//	      if 3:1
//	  literal 4:1
func sample(t *testing.T) *tree.Tree {
	t.Helper()
	b := tree.NewBuilder("Sample.java")
	root := b.Add(tree.NoNode, tree.KindCompilationUnit, tree.Position{Line: 1, Column: 1}, "")
	outer := b.Add(root, tree.KindIfStatement, tree.Position{Line: 2, Column: 1}, "")
	block := b.Add(outer, tree.KindBlock, tree.Position{Line: 2, Column: 5}, "")
	b.Add(block, tree.KindIfStatement, tree.Position{Line: 3, Column: 1}, "")
	b.Add(root, tree.KindLiteral, tree.Position{Line: 4, Column: 1}, "1")
	tr, err := b.Build()
	require.NoError(t, err)
	return tr
}

type recorder struct {
	name    string
	kinds   tree.KindSet
	events  *[]string
	onVisit func(t *tree.Tree, id tree.NodeID, r astcheck.Reporter)
	onLeave func(t *tree.Tree, id tree.NodeID, r astcheck.Reporter)
	finish  func(t *tree.Tree, r astcheck.Reporter)
}

func (c *recorder) Name() string { return c.name }

func (c *recorder) Descriptor() astcheck.Descriptor {
	return astcheck.Descriptor{Acceptable: c.kinds, Default: c.kinds}
}

func (c *recorder) log(format string, args ...any) {
	if c.events != nil {
		*c.events = append(*c.events, c.name+" "+fmt.Sprintf(format, args...))
	}
}

func (c *recorder) BeginTree(*tree.Tree) { c.log("begin") }

func (c *recorder) Visit(t *tree.Tree, id tree.NodeID, r astcheck.Reporter) {
	c.log("visit %s@%d", t.Kind(id), t.Pos(id).Line)
	if c.onVisit != nil {
		c.onVisit(t, id, r)
	}
}

func (c *recorder) Leave(t *tree.Tree, id tree.NodeID, r astcheck.Reporter) {
	c.log("leave %s@%d", t.Kind(id), t.Pos(id).Line)
	if c.onLeave != nil {
		c.onLeave(t, id, r)
	}
}

func (c *recorder) FinishTree(t *tree.Tree, r astcheck.Reporter) {
	c.log("finish")
	if c.finish != nil {
		c.finish(t, r)
	}
}

func configured(checks ...*recorder) []astcheck.Configured {
	out := make([]astcheck.Configured, len(checks))
	for i, c := range checks {
		out[i] = astcheck.Configured{Check: c, Kinds: c.kinds}
	}
	return out
}

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHookOrder(t *testing.T) {
	var events []string
	c := &recorder{name: "rec", kinds: tree.NewKindSet(tree.KindIfStatement), events: &events}

	New(configured(c), quiet()).Analyze(sample(t))

	assert.Equal(t, []string{
		"rec begin",
		"rec visit if_statement@2",
		"rec visit if_statement@3",
		"rec leave if_statement@3",
		"rec leave if_statement@2",
		"rec finish",
	}, events)
}

func TestUnsubscribedKindsNotInvoked(t *testing.T) {
	var events []string
	c := &recorder{name: "rec", kinds: tree.NewKindSet(tree.KindLiteral), events: &events}

	New(configured(c), quiet()).Analyze(sample(t))

	assert.Equal(t, []string{"rec begin", "rec visit literal@4", "rec leave literal@4", "rec finish"}, events)
}

func TestViolationOrdering(t *testing.T) {
	ifs := tree.NewKindSet(tree.KindIfStatement)
	first := &recorder{
		name:  "first",
		kinds: ifs,
		// Reports on the way back up, after second has already reported.
		onLeave: func(t *tree.Tree, id tree.NodeID, r astcheck.Reporter) {
			r.Report(t.Pos(id), "first.key")
		},
	}
	second := &recorder{
		name:  "second",
		kinds: ifs,
		onVisit: func(t *tree.Tree, id tree.NodeID, r astcheck.Reporter) {
			r.Report(t.Pos(id), "second.key", t.Pos(id).Line)
		},
		finish: func(_ *tree.Tree, r astcheck.Reporter) {
			r.Report(tree.Position{Line: 1, Column: 1}, "second.summary")
		},
	}

	got := New(configured(first, second), quiet()).Analyze(sample(t))

	var keys []string
	for _, v := range got {
		keys = append(keys, fmt.Sprintf("%d:%d %s", v.Line, v.Column, v.CheckID))
	}
	assert.Equal(t, []string{
		"1:1 second",
		"2:1 first",
		"2:1 second",
		"3:1 first",
		"3:1 second",
	}, keys)
	assert.Equal(t, []string{"2"}, got[2].Args)
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	c := &recorder{
		name:  "rec",
		kinds: tree.NewKindSet(tree.KindIfStatement, tree.KindBlock),
		onVisit: func(t *tree.Tree, id tree.NodeID, r astcheck.Reporter) {
			r.Report(t.Pos(id), "k", t.Kind(id))
		},
	}
	w := New(configured(c), quiet())
	tr := sample(t)

	first := w.Analyze(tr)
	second := w.Analyze(tr)
	require.Len(t, first, 3)
	assert.Equal(t, first, second)
}

func TestPanickingCheckIsIsolated(t *testing.T) {
	calls := 0
	bad := &recorder{
		name:  "bad",
		kinds: tree.NewKindSet(tree.KindIfStatement),
		onVisit: func(*tree.Tree, tree.NodeID, astcheck.Reporter) {
			calls++
			panic("boom")
		},
	}
	good := &recorder{
		name:  "good",
		kinds: tree.NewKindSet(tree.KindIfStatement),
		onVisit: func(t *tree.Tree, id tree.NodeID, r astcheck.Reporter) {
			r.Report(t.Pos(id), "good.key")
		},
	}
	var failures []*CheckFailure
	w := New(configured(bad, good), quiet(), WithFailureHandler(func(f *CheckFailure) {
		failures = append(failures, f)
	}))

	got := w.Analyze(sample(t))
	assert.Len(t, got, 2)
	assert.Equal(t, 1, calls, "a failed check is disabled for the rest of the tree")
	require.Len(t, failures, 1)
	assert.Equal(t, "bad", failures[0].Check)
	assert.Equal(t, "Visit", failures[0].Hook)
	assert.Equal(t, "Sample.java", failures[0].Path)
	assert.Contains(t, failures[0].Error(), "boom")

	w.Analyze(sample(t))
	assert.Equal(t, 2, calls, "the check runs again on the next tree")
}

func TestEmptyCheckSet(t *testing.T) {
	assert.Empty(t, New(nil, quiet()).Analyze(sample(t)))
}
