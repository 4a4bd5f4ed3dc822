package astcheck

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/chris-regnier/chisel/internal/resolve"
	"github.com/chris-regnier/chisel/internal/tree"
)

//go:embed deny_list.yaml
var denyListYAML []byte

// DenyEntry is one superseded API.
type DenyEntry struct {
	// Pattern is the fully qualified member, e.g. java.lang.Thread.stop.
	// Constructors use the member name "new".
	Pattern   string `yaml:"pattern"`
	Canonical string `yaml:"canonical"`
	Advice    string `yaml:"advice"`
}

// DenyList returns the built-in deny list. The table is parsed once and
// shared read-only by every check instance.
var DenyList = sync.OnceValues(func() ([]DenyEntry, error) {
	var entries []DenyEntry
	if err := yaml.Unmarshal(denyListYAML, &entries); err != nil {
		return nil, fmt.Errorf("parsing deny list: %w", err)
	}
	for i, e := range entries {
		if e.Pattern == "" || e.Canonical == "" {
			return nil, fmt.Errorf("deny list entry %d: pattern and canonical are required", i)
		}
	}
	return entries, nil
})

// OutdatedAPI flags calls, method references and constructor invocations of
// deny-listed APIs. A resolved qualified name must match a pattern exactly;
// without one, the literal `Type.member` text is matched against the pattern
// suffix.
type OutdatedAPI struct {
	entries []DenyEntry
	byName  map[string]int
}

func (o *OutdatedAPI) Name() string { return "outdated-api" }

func (o *OutdatedAPI) Descriptor() Descriptor {
	kinds := tree.NewKindSet(tree.KindMethodInvocation, tree.KindMethodReference, tree.KindObjectCreation)
	return Descriptor{Acceptable: kinds, Default: kinds}
}

// Configure loads the deny list. The extra property appends fully qualified
// patterns.
func (o *OutdatedAPI) Configure(props map[string]any) error {
	p := newProperties(o.Name(), props)
	extra := p.Strings("extra")
	if err := p.Finish(); err != nil {
		return err
	}

	builtin, err := DenyList()
	if err != nil {
		return &ConfigurationError{Check: o.Name(), Field: "deny_list", Reason: err.Error()}
	}
	o.entries = append(o.entries[:0], builtin...)
	for _, pattern := range extra {
		if strings.Count(pattern, ".") < 1 {
			return &ConfigurationError{Check: o.Name(), Field: "extra", Reason: fmt.Sprintf("pattern %q must be Type.member", pattern)}
		}
		o.entries = append(o.entries, DenyEntry{Pattern: pattern, Canonical: pattern, Advice: "listed as outdated in configuration"})
	}
	o.byName = make(map[string]int, len(o.entries))
	for i, e := range o.entries {
		o.byName[e.Pattern] = i
	}
	return nil
}

func (o *OutdatedAPI) Visit(t *tree.Tree, id tree.NodeID, r Reporter) {
	e, ok := o.match(t, id)
	if ok {
		r.Report(t.Pos(id), MsgOutdatedAPI, e.Canonical, e.Advice)
	}
}

func (o *OutdatedAPI) match(t *tree.Tree, id tree.NodeID) (DenyEntry, bool) {
	if name, ok := t.Resolution(id).Name(); ok {
		if i, found := o.byName[name]; found {
			return o.entries[i], true
		}
		return DenyEntry{}, false
	}

	ref, ok := resolve.ReferenceOf(t, id)
	if !ok || ref.Receiver == "" {
		return DenyEntry{}, false
	}
	literal := ref.String()
	for _, e := range o.entries {
		if e.Pattern == literal || strings.HasSuffix(e.Pattern, "."+literal) {
			return e, true
		}
	}
	return DenyEntry{}, false
}
