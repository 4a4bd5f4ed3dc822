package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chris-regnier/chisel/internal/astcheck"
)

func TestMergeChecks_HigherTierOverrides(t *testing.T) {
	system := &Config{
		Checks: map[string]CheckConfig{
			"nested-if-depth": {
				Enabled:    boolPtr(true),
				Severity:   "warning",
				Properties: map[string]any{"max_depth": 3},
			},
		},
	}
	project := &Config{
		Checks: map[string]CheckConfig{
			"nested-if-depth": {
				Severity:   "error",
				Properties: map[string]any{"max_depth": 1},
			},
		},
	}
	merged := MergeConfigs(system, project)
	cc := merged.Checks["nested-if-depth"]
	if cc.Severity != "error" {
		t.Errorf("expected severity 'error', got %q", cc.Severity)
	}
	if !cc.IsEnabled() {
		t.Error("expected enabled to remain true")
	}
	if cc.Properties["max_depth"] != 1 {
		t.Errorf("expected max_depth 1, got %v", cc.Properties["max_depth"])
	}
	if system.Checks["nested-if-depth"].Properties["max_depth"] != 3 {
		t.Error("merge must not modify its inputs")
	}
}

func TestMergeChecks_PropertiesMergeByKey(t *testing.T) {
	system := &Config{Checks: map[string]CheckConfig{
		"parameter-number": {Properties: map[string]any{"max_params": 7}},
	}}
	project := &Config{Checks: map[string]CheckConfig{
		"parameter-number": {Properties: map[string]any{"ignore_overridden": true}},
	}}
	props := MergeConfigs(system, project).Checks["parameter-number"].Properties
	if props["max_params"] != 7 || props["ignore_overridden"] != true {
		t.Errorf("unexpected merged properties: %v", props)
	}
}

func TestMergeChecks_DisableCheck(t *testing.T) {
	project := &Config{Checks: map[string]CheckConfig{
		"outdated-api": {Enabled: boolPtr(false)},
	}}
	merged := MergeConfigs(SystemDefaults(), project)
	if merged.Checks["outdated-api"].IsEnabled() {
		t.Error("expected check to be disabled")
	}
	if merged.Checks["outdated-api"].Severity != "warning" {
		t.Error("expected severity preserved from defaults")
	}
}

func TestMergeChecks_EmptyTokensOverride(t *testing.T) {
	system := &Config{Checks: map[string]CheckConfig{
		"no-trailing-comma": {Tokens: []string{"array_initializer", "enum_body"}},
	}}
	project := &Config{Checks: map[string]CheckConfig{
		"no-trailing-comma": {Tokens: []string{}},
	}}
	tokens := MergeConfigs(system, project).Checks["no-trailing-comma"].Tokens
	if tokens == nil || len(tokens) != 0 {
		t.Errorf("expected an explicit empty token list, got %#v", tokens)
	}
}

func TestMergeTelemetry(t *testing.T) {
	project := &Config{Telemetry: TelemetryConfig{
		Enabled:  boolPtr(true),
		Protocol: "http",
		Headers:  map[string]string{"x-team": "lint"},
	}}
	tel := MergeConfigs(SystemDefaults(), project).Telemetry
	if !tel.IsEnabled() || tel.Protocol != "http" || tel.Endpoint != "localhost:4317" {
		t.Errorf("unexpected telemetry: %+v", tel)
	}
	if tel.Headers["x-team"] != "lint" {
		t.Errorf("expected headers merged, got %v", tel.Headers)
	}
}

func TestMergeTelemetryHigherTierDisables(t *testing.T) {
	dir := t.TempDir()
	machinePath := filepath.Join(dir, "machine.yaml")
	projectPath := filepath.Join(dir, "project.yaml")
	if err := os.WriteFile(machinePath, []byte("telemetry:\n  enabled: true\n  insecure: true\n  endpoint: collector:4317\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(projectPath, []byte("telemetry:\n  enabled: false\n  insecure: false\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadTiered(machinePath, projectPath)
	if err != nil {
		t.Fatalf("LoadTiered: %v", err)
	}
	tel := cfg.Telemetry
	if tel.IsEnabled() {
		t.Error("project tier should switch telemetry off")
	}
	if tel.IsInsecure() {
		t.Error("project tier should switch insecure off")
	}
	if tel.Endpoint != "collector:4317" {
		t.Errorf("endpoint = %q, want the machine tier's", tel.Endpoint)
	}

	// A tier that does not mention the flags keeps the lower tier's values.
	machine, err := LoadFromFile(machinePath)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	silent := &Config{Telemetry: TelemetryConfig{ServiceName: "ci"}}
	tel = MergeConfigs(SystemDefaults(), machine, silent).Telemetry
	if !tel.IsEnabled() || !tel.IsInsecure() {
		t.Errorf("expected machine flags to survive, got %+v", tel)
	}
}

func TestMergeLSP(t *testing.T) {
	project := &Config{LSP: LSPConfig{Debounce: "1s", Ignore: []string{"**/gen/**"}}}
	lsp := MergeConfigs(SystemDefaults(), project).LSP
	if lsp.Debounce != "1s" {
		t.Errorf("expected debounce override, got %q", lsp.Debounce)
	}
	if lsp.ParallelFiles != 3 {
		t.Errorf("expected default parallel files kept, got %d", lsp.ParallelFiles)
	}
	if len(lsp.Ignore) != 1 || lsp.Ignore[0] != "**/gen/**" {
		t.Errorf("expected ignore list replaced, got %v", lsp.Ignore)
	}
}

func TestLoadFromFile_Valid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chisel.yaml")
	data := `checks:
  nested-if-depth:
    enabled: true
    severity: error
    tokens: [if_statement, method_declaration]
    properties:
      max_depth: 2
telemetry:
  enabled: false
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg == nil {
		t.Fatal("expected non-nil config")
	}
	cc := cfg.Checks["nested-if-depth"]
	if !cc.IsEnabled() || cc.Severity != "error" {
		t.Errorf("unexpected check config: %+v", cc)
	}
	if len(cc.Tokens) != 2 || cc.Tokens[1] != "method_declaration" {
		t.Errorf("unexpected tokens: %v", cc.Tokens)
	}
	if cc.Properties["max_depth"] != 2 {
		t.Errorf("expected max_depth 2, got %#v", cc.Properties["max_depth"])
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	cfg, err := LoadFromFile("/nonexistent/path.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if cfg != nil {
		t.Error("expected nil config for missing file")
	}
}

func TestLoadFromFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chisel.yaml")
	if err := os.WriteFile(path, []byte("checks: [not, a, map"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadTiered(t *testing.T) {
	dir := t.TempDir()
	machineConf := filepath.Join(dir, "machine.yaml")
	os.WriteFile(machineConf, []byte("checks:\n  outdated-api:\n    severity: error\n"), 0644)
	projectConf := filepath.Join(dir, "project.yaml")
	os.WriteFile(projectConf, []byte("checks:\n  no-trailing-comma:\n    enabled: true\n  array-trailing-comma:\n    enabled: false\n"), 0644)

	cfg, err := LoadTiered(machineConf, projectConf)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Checks["outdated-api"].Severity != "error" {
		t.Errorf("expected machine override severity 'error', got %q", cfg.Checks["outdated-api"].Severity)
	}
	if !cfg.Checks["no-trailing-comma"].IsEnabled() {
		t.Error("expected project to enable no-trailing-comma")
	}
	if cfg.Checks["array-trailing-comma"].IsEnabled() {
		t.Error("expected project to disable array-trailing-comma")
	}
	if _, ok := cfg.Checks["method-length"]; !ok {
		t.Error("expected system default 'method-length'")
	}
}

func TestSystemDefaultsAreValid(t *testing.T) {
	reg := astcheck.DefaultRegistry()
	cfg := SystemDefaults()
	if err := cfg.Validate(reg); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	for _, name := range reg.Names() {
		if _, ok := cfg.Checks[name]; !ok {
			t.Errorf("defaults are missing check %s", name)
		}
	}
}

func TestSettingsOnlyEnabledChecks(t *testing.T) {
	settings := SystemDefaults().Settings()
	var names []string
	for _, s := range settings {
		names = append(names, s.Name)
	}
	got := strings.Join(names, ",")
	if strings.Contains(got, "no-trailing-comma") {
		t.Errorf("disabled check in settings: %s", got)
	}
	if !strings.HasPrefix(got, "array-trailing-comma,double-brace-initialization,") {
		t.Errorf("settings should be sorted by name: %s", got)
	}
}

func TestValidate(t *testing.T) {
	reg := astcheck.DefaultRegistry()
	tests := []struct {
		name    string
		cfg     *Config
		wantErr string
	}{
		{
			name:    "unknown check",
			cfg:     &Config{Checks: map[string]CheckConfig{"nope": {Enabled: boolPtr(true)}}},
			wantErr: "unknown check",
		},
		{
			name:    "bad severity",
			cfg:     &Config{Checks: map[string]CheckConfig{"outdated-api": {Severity: "fatal"}}},
			wantErr: "severity",
		},
		{
			name: "unacceptable token",
			cfg: &Config{Checks: map[string]CheckConfig{"nested-if-depth": {
				Enabled: boolPtr(true),
				Tokens:  []string{"array_initializer"},
			}}},
			wantErr: "not acceptable",
		},
		{
			name: "out of range property",
			cfg: &Config{Checks: map[string]CheckConfig{"method-length": {
				Enabled:    boolPtr(true),
				Properties: map[string]any{"max_lines": 0},
			}}},
			wantErr: "max_lines",
		},
		{
			name:    "bad protocol",
			cfg:     &Config{Telemetry: TelemetryConfig{Protocol: "udp"}},
			wantErr: "protocol",
		},
		{
			name:    "bad sample rate",
			cfg:     &Config{Telemetry: TelemetryConfig{SampleRate: 2}},
			wantErr: "sample_rate",
		},
		{
			name:    "bad debounce",
			cfg:     &Config{LSP: LSPConfig{Debounce: "soon"}},
			wantErr: "lsp.debounce",
		},
		{
			name:    "negative parallel files",
			cfg:     &Config{LSP: LSPConfig{ParallelFiles: -1}},
			wantErr: "parallel_files",
		},
		{
			name: "disabled check with out of range property",
			cfg: &Config{Checks: map[string]CheckConfig{"method-length": {
				Enabled:    boolPtr(false),
				Properties: map[string]any{"max_lines": 0},
			}}},
			wantErr: "max_lines",
		},
		{
			name: "disabled check with misspelled property",
			cfg: &Config{Checks: map[string]CheckConfig{"nested-if-depth": {
				Enabled:    boolPtr(false),
				Properties: map[string]any{"max_depht": -4},
			}}},
			wantErr: "max_depht",
		},
		{
			name: "check without enabled flag with unknown token",
			cfg: &Config{Checks: map[string]CheckConfig{"outdated-api": {
				Tokens: []string{"banana"},
			}}},
			wantErr: "tokens",
		},
		{
			name: "disabled check with valid settings",
			cfg: &Config{Checks: map[string]CheckConfig{"method-length": {
				Enabled:    boolPtr(false),
				Properties: map[string]any{"max_lines": 80},
			}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate(reg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSeverity(t *testing.T) {
	cfg := SystemDefaults()
	if got := cfg.Severity("redundant-type-arguments"); got != "note" {
		t.Errorf("expected note, got %s", got)
	}
	if got := cfg.Severity("unknown"); got != "warning" {
		t.Errorf("expected warning fallback, got %s", got)
	}
}

func TestPaths(t *testing.T) {
	if got := ProjectPath("/repo"); got != filepath.Join("/repo", ".chisel", "chisel.yaml") {
		t.Errorf("unexpected project path %s", got)
	}
	t.Setenv("HOME", "/home/dev")
	if got := MachinePath(); got != filepath.Join("/home/dev", ".config", "chisel", "chisel.yaml") {
		t.Errorf("unexpected machine path %s", got)
	}
}
