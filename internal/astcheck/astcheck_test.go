package astcheck_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-regnier/chisel/internal/astcheck"
	"github.com/chris-regnier/chisel/internal/resolve"
	"github.com/chris-regnier/chisel/internal/syntax"
	"github.com/chris-regnier/chisel/internal/tree"
	"github.com/chris-regnier/chisel/internal/walker"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func parseJava(t *testing.T, source string) *tree.Tree {
	t.Helper()
	tr, err := syntax.Parse(context.Background(), "Test.java", []byte(source))
	require.NoError(t, err)
	return resolve.Annotate(tr)
}

func parseBare(source string) (*tree.Tree, error) {
	return syntax.Parse(context.Background(), "Test.java", []byte(source))
}

func runTree(t *testing.T, tr *tree.Tree, settings ...astcheck.Settings) []astcheck.Violation {
	t.Helper()
	plan, err := astcheck.DefaultRegistry().Plan(settings)
	require.NoError(t, err)
	checks, err := plan.Instantiate()
	require.NoError(t, err)
	return walker.New(checks).Analyze(tr)
}

func run(t *testing.T, source string, settings ...astcheck.Settings) []astcheck.Violation {
	t.Helper()
	return runTree(t, parseJava(t, source), settings...)
}

func one(name string, props map[string]any) astcheck.Settings {
	return astcheck.Settings{Name: name, Properties: props}
}

func positions(vs []astcheck.Violation) []tree.Position {
	out := make([]tree.Position, len(vs))
	for i, v := range vs {
		out[i] = v.Position()
	}
	return out
}

func pos(line, col int) tree.Position { return tree.Position{Line: line, Column: col} }

func configErr(t *testing.T, err error) *astcheck.ConfigurationError {
	t.Helper()
	require.Error(t, err)
	var ce *astcheck.ConfigurationError
	require.True(t, errors.As(err, &ce), "expected ConfigurationError, got %T: %v", err, err)
	return ce
}

// ---------------------------------------------------------------------------
// Registry tests
// ---------------------------------------------------------------------------

func TestDefaultRegistry(t *testing.T) {
	r := astcheck.DefaultRegistry()
	expected := []string{
		"array-trailing-comma",
		"double-brace-initialization",
		"empty-catch-block",
		"method-length",
		"nested-if-depth",
		"nested-try-depth",
		"no-trailing-comma",
		"outdated-api",
		"parameter-number",
		"redundant-type-arguments",
	}
	assert.Equal(t, expected, r.Names())

	for _, name := range expected {
		c, ok := r.Get(name)
		require.True(t, ok, name)
		assert.Equal(t, name, c.Name())
		d := c.Descriptor()
		assert.False(t, d.Acceptable.IsEmpty(), "%s accepts no kinds", name)
		for _, k := range d.Default.Kinds() {
			assert.True(t, d.Acceptable.Has(k), "%s default kind %s not acceptable", name, k)
		}
		for _, k := range d.Required.Kinds() {
			assert.True(t, d.Acceptable.Has(k), "%s required kind %s not acceptable", name, k)
		}
	}

	_, ok := r.Get("nonexistent")
	assert.False(t, ok)
}

func TestPlanOrdersByRegistration(t *testing.T) {
	plan, err := astcheck.DefaultRegistry().Plan([]astcheck.Settings{
		{Name: "empty-catch-block"},
		{Name: "nested-if-depth"},
		{Name: "outdated-api"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"nested-if-depth", "outdated-api", "empty-catch-block"}, plan.Names())
}

func TestPlanFingerprint(t *testing.T) {
	r := astcheck.DefaultRegistry()
	a, err := r.Plan([]astcheck.Settings{one("nested-if-depth", map[string]any{"max_depth": 2})})
	require.NoError(t, err)
	b, err := r.Plan([]astcheck.Settings{one("nested-if-depth", map[string]any{"max_depth": 2})})
	require.NoError(t, err)
	c, err := r.Plan([]astcheck.Settings{one("nested-if-depth", map[string]any{"max_depth": 4})})
	require.NoError(t, err)

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestInstantiateCreatesFreshChecks(t *testing.T) {
	plan, err := astcheck.DefaultRegistry().Plan([]astcheck.Settings{{Name: "nested-if-depth"}})
	require.NoError(t, err)
	first, err := plan.Instantiate()
	require.NoError(t, err)
	second, err := plan.Instantiate()
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.NotSame(t, first[0].Check, second[0].Check)
}

// ---------------------------------------------------------------------------
// Subscription tests
// ---------------------------------------------------------------------------

func TestSubscriptionRejectsUnacceptableKind(t *testing.T) {
	r := astcheck.DefaultRegistry()
	for _, name := range r.Names() {
		t.Run(name, func(t *testing.T) {
			c, _ := r.Get(name)
			acceptable := c.Descriptor().Acceptable

			var outside tree.Kind
			for k := tree.Kind(0); int(k) < tree.NumKinds; k++ {
				if !acceptable.Has(k) {
					outside = k
					break
				}
			}
			_, err := r.Plan([]astcheck.Settings{{Name: name, Tokens: []string{outside.String()}}})
			ce := configErr(t, err)
			assert.Equal(t, name, ce.Check)
			assert.Equal(t, "tokens", ce.Field)
		})
	}
}

func TestSubscriptionKeepsRequiredKinds(t *testing.T) {
	plan, err := astcheck.DefaultRegistry().Plan([]astcheck.Settings{
		{Name: "nested-if-depth", Tokens: []string{}},
	})
	require.NoError(t, err)
	checks, err := plan.Instantiate()
	require.NoError(t, err)
	assert.Equal(t, tree.NewKindSet(tree.KindIfStatement), checks[0].Kinds)
}

func TestSubscriptionDefaultsWhenNoOverride(t *testing.T) {
	d := astcheck.Descriptor{
		Acceptable: tree.NewKindSet(tree.KindArrayInitializer, tree.KindEnumBody),
		Default:    tree.NewKindSet(tree.KindArrayInitializer),
		Required:   tree.NewKindSet(tree.KindEnumBody),
	}
	got, err := astcheck.Subscribe("c", d, nil)
	require.NoError(t, err)
	assert.Equal(t, tree.NewKindSet(tree.KindArrayInitializer, tree.KindEnumBody), got)

	got, err = astcheck.Subscribe("c", d, []tree.Kind{})
	require.NoError(t, err)
	assert.Equal(t, tree.NewKindSet(tree.KindEnumBody), got)
}

func TestPlanConfigurationErrors(t *testing.T) {
	tests := []struct {
		name     string
		settings []astcheck.Settings
		check    string
		field    string
	}{
		{
			name:     "unknown check",
			settings: []astcheck.Settings{{Name: "no-such-check"}},
			check:    "no-such-check",
		},
		{
			name:     "duplicate check",
			settings: []astcheck.Settings{{Name: "outdated-api"}, {Name: "outdated-api"}},
			check:    "outdated-api",
		},
		{
			name:     "unknown token kind",
			settings: []astcheck.Settings{{Name: "nested-if-depth", Tokens: []string{"banana"}}},
			check:    "nested-if-depth",
			field:    "tokens",
		},
		{
			name:     "negative max_depth",
			settings: []astcheck.Settings{one("nested-if-depth", map[string]any{"max_depth": -1})},
			check:    "nested-if-depth",
			field:    "max_depth",
		},
		{
			name:     "max_depth not a number",
			settings: []astcheck.Settings{one("nested-try-depth", map[string]any{"max_depth": "deep"})},
			check:    "nested-try-depth",
			field:    "max_depth",
		},
		{
			name:     "fractional max_lines",
			settings: []astcheck.Settings{one("method-length", map[string]any{"max_lines": 2.5})},
			check:    "method-length",
			field:    "max_lines",
		},
		{
			name:     "unknown property",
			settings: []astcheck.Settings{one("array-trailing-comma", map[string]any{"alwaysDemand": true})},
			check:    "array-trailing-comma",
			field:    "properties",
		},
		{
			name:     "trailing comma flag not a boolean",
			settings: []astcheck.Settings{one("array-trailing-comma", map[string]any{"always_demand_trailing_comma": "yes"})},
			check:    "array-trailing-comma",
			field:    "always_demand_trailing_comma",
		},
		{
			name:     "properties on a check without any",
			settings: []astcheck.Settings{one("double-brace-initialization", map[string]any{"x": 1})},
			check:    "double-brace-initialization",
			field:    "properties",
		},
		{
			name:     "extra pattern without a type",
			settings: []astcheck.Settings{one("outdated-api", map[string]any{"extra": []any{"stop"}})},
			check:    "outdated-api",
			field:    "extra",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := astcheck.DefaultRegistry().Plan(tt.settings)
			ce := configErr(t, err)
			assert.Equal(t, tt.check, ce.Check)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestMessages(t *testing.T) {
	v := astcheck.Violation{MessageKey: astcheck.MsgNestedIfDepth, Args: []string{"2", "1"}}
	assert.Equal(t, "Nested if-else depth is 2 (max allowed is 1).", v.Message())

	v = astcheck.Violation{MessageKey: astcheck.MsgParameterNumber, Args: []string{"9", "7"}}
	assert.Equal(t, "More than 7 parameters (found 9).", v.Message())

	assert.Equal(t, "custom.key a, b", astcheck.Render("custom.key", []string{"a", "b"}))
	assert.Equal(t, "custom.key", astcheck.Render("custom.key", nil))
}

func TestDenyListLoads(t *testing.T) {
	entries, err := astcheck.DenyList()
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	for _, e := range entries {
		assert.NotEmpty(t, e.Canonical, e.Pattern)
		assert.NotEmpty(t, e.Advice, e.Pattern)
	}
}
