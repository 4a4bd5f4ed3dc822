package astcheck

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/chris-regnier/chisel/internal/tree"
)

// Factory creates a fresh, unconfigured check instance.
type Factory func() Check

// Registry holds a set of named check factories.
type Registry struct {
	factories map[string]Factory
	order     []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a check factory to the registry, keyed by the Name() of the
// checks it creates. Registration order is the tie-breaker for violations
// reported at the same position.
func (r *Registry) Register(f Factory) {
	name := f().Name()
	if _, exists := r.factories[name]; !exists {
		r.order = append(r.order, name)
	}
	r.factories[name] = f
}

// Get returns a new instance of the named check.
func (r *Registry) Get(name string) (Check, bool) {
	f, ok := r.factories[name]
	if !ok {
		return nil, false
	}
	return f(), true
}

// Names returns all registered check names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	sort.Strings(names)
	return names
}

// Settings configures one check.
type Settings struct {
	Name string
	// Tokens overrides the default subscription. Nil keeps the default.
	Tokens     []string
	Properties map[string]any
}

// Configured is a check instance together with its effective subscription.
type Configured struct {
	Check Check
	Kinds tree.KindSet
}

// Plan is a validated configuration. It creates fresh check instances on
// demand so concurrent traversals never share check state.
type Plan struct {
	registry *Registry
	entries  []planEntry
}

type planEntry struct {
	settings Settings
	kinds    tree.KindSet
}

// Plan validates settings against the registry: every check must exist, every
// token must name a kind acceptable to its check, and every property must be
// known and in range. The plan orders checks by registration order.
func (r *Registry) Plan(settings []Settings) (*Plan, error) {
	byName := make(map[string]Settings, len(settings))
	for _, s := range settings {
		if _, ok := r.factories[s.Name]; !ok {
			return nil, &ConfigurationError{Check: s.Name, Reason: "unknown check"}
		}
		if _, dup := byName[s.Name]; dup {
			return nil, &ConfigurationError{Check: s.Name, Reason: "configured more than once"}
		}
		byName[s.Name] = s
	}

	p := &Plan{registry: r}
	for _, name := range r.order {
		s, ok := byName[name]
		if !ok {
			continue
		}
		var override []tree.Kind
		if s.Tokens != nil {
			override = make([]tree.Kind, 0, len(s.Tokens))
			for _, tok := range s.Tokens {
				k, err := tree.ParseKind(tok)
				if err != nil {
					return nil, &ConfigurationError{Check: name, Field: "tokens", Reason: err.Error()}
				}
				override = append(override, k)
			}
		}

		c := r.factories[name]()
		if err := configure(c, s.Properties); err != nil {
			return nil, err
		}
		kinds, err := Subscribe(name, c.Descriptor(), override)
		if err != nil {
			return nil, err
		}
		p.entries = append(p.entries, planEntry{settings: s, kinds: kinds})
	}
	return p, nil
}

func configure(c Check, props map[string]any) error {
	if cc, ok := c.(Configurable); ok {
		return cc.Configure(props)
	}
	if len(props) > 0 {
		return &ConfigurationError{Check: c.Name(), Field: "properties", Reason: "check takes no properties"}
	}
	return nil
}

// Names returns the planned check names in registration order.
func (p *Plan) Names() []string {
	names := make([]string, len(p.entries))
	for i, e := range p.entries {
		names[i] = e.settings.Name
	}
	return names
}

// Instantiate creates configured check instances in plan order.
func (p *Plan) Instantiate() ([]Configured, error) {
	out := make([]Configured, 0, len(p.entries))
	for _, e := range p.entries {
		c := p.registry.factories[e.settings.Name]()
		if err := configure(c, e.settings.Properties); err != nil {
			return nil, fmt.Errorf("instantiating %s: %w", e.settings.Name, err)
		}
		out = append(out, Configured{Check: c, Kinds: e.kinds})
	}
	return out, nil
}

// Fingerprint is a stable hash of the plan, suitable for cache keys.
func (p *Plan) Fingerprint() string {
	type entry struct {
		Name       string         `json:"name"`
		Kinds      []string       `json:"kinds"`
		Properties map[string]any `json:"properties,omitempty"`
	}
	entries := make([]entry, len(p.entries))
	for i, e := range p.entries {
		entries[i] = entry{Name: e.settings.Name, Kinds: e.kinds.Names(), Properties: e.settings.Properties}
	}
	b, _ := json.Marshal(entries)
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}
