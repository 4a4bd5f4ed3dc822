package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chris-regnier/chisel/internal/astcheck"
)

// CheckConfig configures a single check.
type CheckConfig struct {
	// Enabled is nil when the tier does not mention it.
	Enabled  *bool  `yaml:"enabled,omitempty"`
	Severity string `yaml:"severity,omitempty"`
	// Tokens overrides the check's default node kinds. Absent keeps the
	// default; an empty list subscribes to the required kinds only.
	Tokens     []string       `yaml:"tokens,omitempty"`
	Properties map[string]any `yaml:"properties,omitempty"`
}

// IsEnabled reports whether the check is switched on.
func (c CheckConfig) IsEnabled() bool { return c.Enabled != nil && *c.Enabled }

// TelemetryConfig controls OpenTelemetry export. Enabled and Insecure are
// nil when the tier does not mention them.
type TelemetryConfig struct {
	Enabled        *bool             `yaml:"enabled,omitempty"`
	Endpoint       string            `yaml:"endpoint,omitempty"`
	Protocol       string            `yaml:"protocol,omitempty"`
	Insecure       *bool             `yaml:"insecure,omitempty"`
	Headers        map[string]string `yaml:"headers,omitempty"`
	ServiceName    string            `yaml:"service_name,omitempty"`
	ServiceVersion string            `yaml:"service_version,omitempty"`
	SampleRate     float64           `yaml:"sample_rate,omitempty"`
}

// IsEnabled reports whether export is switched on.
func (t TelemetryConfig) IsEnabled() bool { return t.Enabled != nil && *t.Enabled }

// IsInsecure reports whether exporters skip TLS.
func (t TelemetryConfig) IsInsecure() bool { return t.Insecure != nil && *t.Insecure }

// LSPConfig tunes the language server.
type LSPConfig struct {
	// Debounce is the quiet period after an edit before re-analysis, as a
	// duration string such as "300ms".
	Debounce      string   `yaml:"debounce,omitempty"`
	ParallelFiles int      `yaml:"parallel_files,omitempty"`
	Ignore        []string `yaml:"ignore,omitempty"`
}

// Config holds the full chisel configuration.
type Config struct {
	Checks    map[string]CheckConfig `yaml:"checks"`
	Telemetry TelemetryConfig        `yaml:"telemetry"`
	LSP       LSPConfig              `yaml:"lsp"`
}

var severities = map[string]bool{"error": true, "warning": true, "note": true}

// Validate checks that every configured check exists, that severities are
// known and that the settings of every configured check, enabled or not,
// form a valid plan.
func (c *Config) Validate(reg *astcheck.Registry) error {
	names := make([]string, 0, len(c.Checks))
	for name := range c.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cc := c.Checks[name]
		if _, ok := reg.Get(name); !ok {
			return fmt.Errorf("checks.%s: unknown check", name)
		}
		if cc.Severity != "" && !severities[cc.Severity] {
			return fmt.Errorf("checks.%s.severity must be 'error', 'warning' or 'note', got: %s", name, cc.Severity)
		}
	}

	switch c.Telemetry.Protocol {
	case "", "grpc", "http":
	default:
		return fmt.Errorf("telemetry.protocol must be 'grpc' or 'http', got: %s", c.Telemetry.Protocol)
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		return fmt.Errorf("telemetry.sample_rate must be between 0 and 1, got: %v", c.Telemetry.SampleRate)
	}

	if c.LSP.Debounce != "" {
		if _, err := time.ParseDuration(c.LSP.Debounce); err != nil {
			return fmt.Errorf("lsp.debounce: %w", err)
		}
	}
	if c.LSP.ParallelFiles < 0 {
		return fmt.Errorf("lsp.parallel_files must not be negative, got: %d", c.LSP.ParallelFiles)
	}

	// Disabled checks are validated too.
	all := make([]astcheck.Settings, 0, len(names))
	for _, name := range names {
		cc := c.Checks[name]
		all = append(all, astcheck.Settings{Name: name, Tokens: cc.Tokens, Properties: cc.Properties})
	}
	if _, err := reg.Plan(all); err != nil {
		return err
	}
	return nil
}

// Settings converts the enabled checks into engine settings, sorted by name.
func (c *Config) Settings() []astcheck.Settings {
	var out []astcheck.Settings
	for name, cc := range c.Checks {
		if !cc.IsEnabled() {
			continue
		}
		out = append(out, astcheck.Settings{Name: name, Tokens: cc.Tokens, Properties: cc.Properties})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Plan validates the enabled checks against reg.
func (c *Config) Plan(reg *astcheck.Registry) (*astcheck.Plan, error) {
	return reg.Plan(c.Settings())
}

// Severity returns the configured severity of a check, "warning" when unset.
func (c *Config) Severity(check string) string {
	if s := c.Checks[check].Severity; s != "" {
		return s
	}
	return "warning"
}

// MergeConfigs merges configs in order of increasing precedence.
// Later configs override earlier ones field by field; properties merge key
// by key; a tokens list replaces the lower tier's list.
func MergeConfigs(configs ...*Config) *Config {
	result := &Config{
		Checks: make(map[string]CheckConfig),
	}

	for _, cfg := range configs {
		if cfg == nil {
			continue
		}

		for name, cc := range cfg.Checks {
			existing, ok := result.Checks[name]
			if !ok {
				existing = CheckConfig{}
			}
			if cc.Enabled != nil {
				enabled := *cc.Enabled
				existing.Enabled = &enabled
			}
			if cc.Severity != "" {
				existing.Severity = cc.Severity
			}
			if cc.Tokens != nil {
				existing.Tokens = append([]string{}, cc.Tokens...)
			}
			if len(cc.Properties) > 0 {
				props := make(map[string]any, len(existing.Properties)+len(cc.Properties))
				for k, v := range existing.Properties {
					props[k] = v
				}
				for k, v := range cc.Properties {
					props[k] = v
				}
				existing.Properties = props
			}
			result.Checks[name] = existing
		}

		mergeTelemetry(&result.Telemetry, cfg.Telemetry)
		mergeLSP(&result.LSP, cfg.LSP)
	}

	return result
}

func mergeTelemetry(dst *TelemetryConfig, src TelemetryConfig) {
	if src.Enabled != nil {
		dst.Enabled = boolPtr(*src.Enabled)
	}
	if src.Endpoint != "" {
		dst.Endpoint = src.Endpoint
	}
	if src.Protocol != "" {
		dst.Protocol = src.Protocol
	}
	if src.Insecure != nil {
		dst.Insecure = boolPtr(*src.Insecure)
	}
	if len(src.Headers) > 0 {
		if dst.Headers == nil {
			dst.Headers = make(map[string]string, len(src.Headers))
		}
		for k, v := range src.Headers {
			dst.Headers[k] = v
		}
	}
	if src.ServiceName != "" {
		dst.ServiceName = src.ServiceName
	}
	if src.ServiceVersion != "" {
		dst.ServiceVersion = src.ServiceVersion
	}
	if src.SampleRate != 0 {
		dst.SampleRate = src.SampleRate
	}
}

func mergeLSP(dst *LSPConfig, src LSPConfig) {
	if src.Debounce != "" {
		dst.Debounce = src.Debounce
	}
	if src.ParallelFiles != 0 {
		dst.ParallelFiles = src.ParallelFiles
	}
	if src.Ignore != nil {
		dst.Ignore = append([]string{}, src.Ignore...)
	}
}

// LoadFromFile reads a YAML config file. Returns nil, nil if the file doesn't exist.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return &cfg, nil
}

// LoadTiered loads system defaults, then machine config, then project config,
// and merges them in order of increasing precedence.
func LoadTiered(machinePath, projectPath string) (*Config, error) {
	system := SystemDefaults()

	machine, err := LoadFromFile(machinePath)
	if err != nil {
		return nil, fmt.Errorf("loading machine config: %w", err)
	}

	project, err := LoadFromFile(projectPath)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return MergeConfigs(system, machine, project), nil
}

// MachinePath returns the per-user config location, or "" when the home
// directory is unknown.
func MachinePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "chisel", "chisel.yaml")
}

// ProjectPath returns the project config location under root.
func ProjectPath(root string) string {
	return filepath.Join(root, ".chisel", "chisel.yaml")
}
