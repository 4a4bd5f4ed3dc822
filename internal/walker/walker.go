// Package walker dispatches syntax-tree nodes to the checks subscribed to
// their kind and collects the resulting violations.
package walker

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/chris-regnier/chisel/internal/astcheck"
	"github.com/chris-regnier/chisel/internal/tree"
)

// CheckFailure describes a check hook that panicked. The check is disabled
// for the rest of the tree; other checks keep running.
type CheckFailure struct {
	Check string
	Path  string
	Hook  string
	Value any
	Stack []byte
}

func (f *CheckFailure) Error() string {
	return fmt.Sprintf("check %s failed in %s on %s: %v", f.Check, f.Hook, f.Path, f.Value)
}

// Option configures a Walker.
type Option func(*Walker)

// WithLogger sets the logger used to report check failures.
func WithLogger(l *slog.Logger) Option {
	return func(w *Walker) { w.logger = l }
}

// WithFailureHandler registers a callback for check failures.
func WithFailureHandler(fn func(*CheckFailure)) Option {
	return func(w *Walker) { w.onFailure = fn }
}

type entry struct {
	check    astcheck.Check
	leaver   astcheck.Leaver
	reporter astcheck.Reporter
	failed   bool
}

// Walker runs one set of check instances over trees, one tree at a time. A
// Walker is not safe for concurrent use; give each goroutine its own.
type Walker struct {
	entries []*entry
	visit   [tree.NumKinds][]*entry
	leave   [tree.NumKinds][]*entry

	sink      astcheck.Sink
	logger    *slog.Logger
	onFailure func(*CheckFailure)
	path      string
}

// New builds a Walker and its kind dispatch table. The order of checks is
// their registration order and breaks ties between violations at the same
// position.
func New(checks []astcheck.Configured, opts ...Option) *Walker {
	w := &Walker{logger: slog.Default()}
	for _, o := range opts {
		o(w)
	}
	for i, c := range checks {
		e := &entry{check: c.Check, reporter: w.sink.Reporter(c.Check.Name(), i)}
		if l, ok := c.Check.(astcheck.Leaver); ok {
			e.leaver = l
		}
		w.entries = append(w.entries, e)
		for _, k := range c.Kinds.Kinds() {
			w.visit[k] = append(w.visit[k], e)
			if e.leaver != nil {
				w.leave[k] = append(w.leave[k], e)
			}
		}
	}
	return w
}

// Analyze traverses t once, depth first in source order, and returns the
// violations sorted by line, column and check order.
func (w *Walker) Analyze(t *tree.Tree) []astcheck.Violation {
	w.sink.Reset()
	w.path = t.Path()
	for _, e := range w.entries {
		e.failed = false
		if s, ok := e.check.(astcheck.TreeStarter); ok {
			w.guard(e, "BeginTree", func() { s.BeginTree(t) })
		}
	}

	if root := t.Root(); root != tree.NoNode {
		w.walk(t, root)
	}

	for _, e := range w.entries {
		if f, ok := e.check.(astcheck.TreeFinisher); ok && !e.failed {
			w.guard(e, "FinishTree", func() { f.FinishTree(t, e.reporter) })
		}
	}
	return w.sink.Sorted()
}

func (w *Walker) walk(t *tree.Tree, id tree.NodeID) {
	k := t.Kind(id)
	for _, e := range w.visit[k] {
		if !e.failed {
			w.guard(e, "Visit", func() { e.check.Visit(t, id, e.reporter) })
		}
	}
	for _, c := range t.Children(id) {
		w.walk(t, c)
	}
	for _, e := range w.leave[k] {
		if !e.failed {
			w.guard(e, "Leave", func() { e.leaver.Leave(t, id, e.reporter) })
		}
	}
}

func (w *Walker) guard(e *entry, hook string, fn func()) {
	defer func() {
		if v := recover(); v != nil {
			e.failed = true
			f := &CheckFailure{Check: e.check.Name(), Path: w.path, Hook: hook, Value: v, Stack: debug.Stack()}
			w.logger.Error("check failed", "check", f.Check, "path", f.Path, "hook", hook, "err", v)
			if w.onFailure != nil {
				w.onFailure(f)
			}
		}
	}()
	fn()
}
