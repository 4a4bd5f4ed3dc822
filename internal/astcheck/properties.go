package astcheck

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// properties reads typed values out of a check's property bag. The first
// failure is kept and returned by Finish, which also rejects unknown names.
type properties struct {
	check string
	bag   map[string]any
	used  map[string]bool
	err   error
}

func newProperties(check string, bag map[string]any) *properties {
	return &properties{check: check, bag: bag, used: make(map[string]bool)}
}

func (p *properties) fail(name, format string, args ...any) {
	if p.err == nil {
		p.err = &ConfigurationError{Check: p.check, Field: name, Reason: fmt.Sprintf(format, args...)}
	}
}

func (p *properties) lookup(name string) (any, bool) {
	p.used[name] = true
	v, ok := p.bag[name]
	return v, ok
}

// Int returns the integer property name, or def when unset. Values below lowest
// are out of range.
func (p *properties) Int(name string, def, lowest int) int {
	v, ok := p.lookup(name)
	if !ok {
		return def
	}
	n, ok := toInt(v)
	if !ok {
		p.fail(name, "expected an integer, got %v", v)
		return def
	}
	if n < lowest {
		p.fail(name, "must be >= %d, got %d", lowest, n)
		return def
	}
	return n
}

// Bool returns the boolean property name, or def when unset.
func (p *properties) Bool(name string, def bool) bool {
	v, ok := p.lookup(name)
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		p.fail(name, "expected a boolean, got %v", v)
		return def
	}
	return b
}

// Strings returns the string-list property name, or nil when unset.
func (p *properties) Strings(name string) []string {
	v, ok := p.lookup(name)
	if !ok {
		return nil
	}
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				p.fail(name, "expected a list of strings, got element %v", item)
				return nil
			}
			out = append(out, s)
		}
		return out
	default:
		p.fail(name, "expected a list of strings, got %v", v)
		return nil
	}
}

// Finish returns the first error, or a ConfigurationError naming the unknown
// properties.
func (p *properties) Finish() error {
	if p.err != nil {
		return p.err
	}
	var unknown []string
	for name := range p.bag {
		if !p.used[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return &ConfigurationError{
			Check:  p.check,
			Field:  "properties",
			Reason: "unknown property " + strings.Join(unknown, ", "),
		}
	}
	return nil
}

// toInt converts YAML and JSON numbers to int. Fractional values are rejected.
func toInt(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case uint64:
		if val > math.MaxInt {
			return 0, false
		}
		return int(val), true
	case float64:
		if val != math.Trunc(val) {
			return 0, false
		}
		return int(val), true
	default:
		return 0, false
	}
}
