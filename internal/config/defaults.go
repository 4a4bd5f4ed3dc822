package config

func boolPtr(v bool) *bool {
	return &v
}

// SystemDefaults returns the built-in check configuration. no-trailing-comma
// is off because it contradicts array-trailing-comma on arrays.
func SystemDefaults() *Config {
	return &Config{
		Checks: map[string]CheckConfig{
			"nested-if-depth": {
				Enabled:    boolPtr(true),
				Severity:   "warning",
				Properties: map[string]any{"max_depth": 3},
			},
			"nested-try-depth": {
				Enabled:    boolPtr(true),
				Severity:   "warning",
				Properties: map[string]any{"max_depth": 2},
			},
			"array-trailing-comma": {
				Enabled:  boolPtr(true),
				Severity: "note",
			},
			"no-trailing-comma": {
				Enabled:  boolPtr(false),
				Severity: "note",
			},
			"double-brace-initialization": {
				Enabled:  boolPtr(true),
				Severity: "warning",
			},
			"outdated-api": {
				Enabled:  boolPtr(true),
				Severity: "warning",
			},
			"redundant-type-arguments": {
				Enabled:  boolPtr(true),
				Severity: "note",
			},
			"method-length": {
				Enabled:    boolPtr(true),
				Severity:   "note",
				Properties: map[string]any{"max_lines": 50},
			},
			"parameter-number": {
				Enabled:    boolPtr(true),
				Severity:   "note",
				Properties: map[string]any{"max_params": 7},
			},
			"empty-catch-block": {
				Enabled:  boolPtr(true),
				Severity: "warning",
			},
		},
		Telemetry: TelemetryConfig{
			Enabled:     boolPtr(false),
			Endpoint:    "localhost:4317",
			Protocol:    "grpc",
			ServiceName: "chisel",
			SampleRate:  1.0,
		},
		LSP: LSPConfig{
			Debounce:      "300ms",
			ParallelFiles: 3,
			Ignore:        []string{"**/.git/**", "**/.chisel/**", "**/build/**", "**/target/**"},
		},
	}
}
