package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/chisel/internal/output"
)

var (
	// Version information injected at build time
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var logOpts output.LogOptions

var rootCmd = &cobra.Command{
	Use:           "chisel",
	Short:         "Rule-based static analysis for Java sources",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(output.SetupLogger(logOpts, cmd.ErrOrStderr()))
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "chisel %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built at: %s\n", date)
	},
}

// exitError ends the process with a status code without printing anything
// beyond what the command already wrote.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&logOpts.Quiet, "quiet", "q", false, "Suppress all log output")
	flags.BoolVarP(&logOpts.Verbose, "verbose", "v", false, "Log progress information")
	flags.BoolVar(&logOpts.Debug, "debug", false, "Log debug information")
	flags.BoolVar(&logOpts.JSON, "log-json", false, "Write logs as JSON")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}
}
