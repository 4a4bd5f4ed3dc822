// Package astcheck defines the check contract, the subscription rules that
// bind checks to node kinds, and the built-in checks.
package astcheck

import (
	"fmt"

	"github.com/chris-regnier/chisel/internal/tree"
)

// Check is the interface that all checks must implement. A check is invoked
// only for the node kinds it is subscribed to.
type Check interface {
	// Name returns the unique identifier for this check (e.g. "nested-if-depth").
	Name() string
	// Descriptor declares the node kinds the check understands.
	Descriptor() Descriptor
	// Visit is called before the node's children are traversed.
	Visit(t *tree.Tree, id tree.NodeID, r Reporter)
}

// Leaver is implemented by checks that need a post-order hook.
type Leaver interface {
	Leave(t *tree.Tree, id tree.NodeID, r Reporter)
}

// TreeStarter is implemented by checks with per-tree state to reset.
type TreeStarter interface {
	BeginTree(t *tree.Tree)
}

// TreeFinisher is implemented by checks that report once the whole tree has
// been traversed.
type TreeFinisher interface {
	FinishTree(t *tree.Tree, r Reporter)
}

// Configurable is implemented by checks that accept properties.
type Configurable interface {
	Configure(props map[string]any) error
}

// Reporter receives violations from a check.
type Reporter interface {
	Report(pos tree.Position, key string, args ...any)
}

// Descriptor lists the kinds a check can handle (Acceptable), the kinds it is
// subscribed to when no override is configured (Default), and the kinds it
// cannot work without (Required).
type Descriptor struct {
	Acceptable tree.KindSet
	Default    tree.KindSet
	Required   tree.KindSet
}

// ConfigurationError reports an invalid configuration. It is raised before
// any tree is analyzed.
type ConfigurationError struct {
	Check  string
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("check %q: %s", e.Check, e.Reason)
	}
	return fmt.Sprintf("check %q: %s: %s", e.Check, e.Field, e.Reason)
}

// Subscribe computes the effective subscription required ∪ (override ?? default).
// A nil override selects the default kinds; an override holding a kind outside
// the acceptable set is a configuration error.
func Subscribe(check string, d Descriptor, override []tree.Kind) (tree.KindSet, error) {
	if override == nil {
		return d.Required.Union(d.Default), nil
	}
	kinds := d.Required
	for _, k := range override {
		if !d.Acceptable.Has(k) {
			return tree.KindSet{}, &ConfigurationError{
				Check:  check,
				Field:  "tokens",
				Reason: fmt.Sprintf("kind %s is not acceptable (acceptable: %v)", k, d.Acceptable.Names()),
			}
		}
		kinds = kinds.With(k)
	}
	return kinds, nil
}
