package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/chisel/internal/astcheck"
	"github.com/chris-regnier/chisel/internal/config"
)

var flagChecksConfig string

func init() {
	checksCmd := &cobra.Command{
		Use:   "checks",
		Short: "List the available checks and their effective configuration",
		RunE:  runChecks,
	}
	checksCmd.Flags().StringVar(&flagChecksConfig, "config", "", "Project config file (default .chisel/chisel.yaml)")
	rootCmd.AddCommand(checksCmd)
}

func runChecks(cmd *cobra.Command, args []string) error {
	reg := astcheck.DefaultRegistry()
	cfg, _, err := loadConfig(flagChecksConfig, reg)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CHECK\tENABLED\tSEVERITY\tPROPERTIES\tDESCRIPTION")
	for _, name := range reg.Names() {
		cc := cfg.Checks[name]
		fmt.Fprintf(w, "%s\t%t\t%s\t%s\t%s\n",
			name, cc.IsEnabled(), cfg.Severity(name), formatProperties(cc), astcheck.Describe(name))
	}
	return w.Flush()
}

func formatProperties(cc config.CheckConfig) string {
	if len(cc.Properties) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(cc.Properties))
	for k := range cc.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, cc.Properties[k])
	}
	return strings.Join(parts, ",")
}
