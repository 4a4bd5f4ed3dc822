package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/chris-regnier/chisel/internal/astcheck"
	"github.com/chris-regnier/chisel/internal/evaluator"
	"github.com/chris-regnier/chisel/internal/output"
	"github.com/chris-regnier/chisel/internal/store"
	"github.com/chris-regnier/chisel/internal/telemetry"
)

var (
	flagJudgeResult string
	flagJudgeOutput string
	flagJudgeRego   string
	flagJudgeFormat string
	flagJudgeConfig string
)

func init() {
	judgeCmd := &cobra.Command{
		Use:   "judge",
		Short: "Re-evaluate a stored analysis with Rego policies",
		Long: `Evaluate a previously stored SARIF log with the current Rego policies and
store the new verdict alongside it. By default evaluates the most recent run.`,
		RunE: runJudge,
	}

	judgeCmd.Flags().StringVar(&flagJudgeResult, "result", "", "Result ID to evaluate (default: most recent)")
	judgeCmd.Flags().StringVar(&flagJudgeOutput, "output", ".chisel/results", "Directory containing stored results")
	judgeCmd.Flags().StringVar(&flagJudgeRego, "rego", ".chisel/rego", "Directory containing Rego policies")
	judgeCmd.Flags().StringVarP(&flagJudgeFormat, "format", "f", "", "Output format: text, json, sarif, markdown, pretty")
	judgeCmd.Flags().StringVar(&flagJudgeConfig, "config", "", "Project config file (default .chisel/chisel.yaml)")

	rootCmd.AddCommand(judgeCmd)
}

func runJudge(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	formatter, err := output.NewFormatter(output.ResolveFormat(flagJudgeFormat, stdoutIsTerminal()))
	if err != nil {
		return err
	}

	cfg, _, err := loadConfig(flagJudgeConfig, astcheck.DefaultRegistry())
	if err != nil {
		return err
	}
	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	fs := store.NewFileStore(flagJudgeOutput)
	resultID := flagJudgeResult
	if resultID == "" {
		if resultID, err = fs.Latest(ctx); err != nil {
			return fmt.Errorf("finding latest result in %s: %w", flagJudgeOutput, err)
		}
	}

	ctx, span := cmdTracer.Start(ctx, "chisel judge",
		trace.WithAttributes(attribute.String("chisel.result_id", resultID)),
	)
	defer span.End()

	sarifLog, err := fs.ReadSARIF(ctx, resultID)
	if err != nil {
		return fail(span, fmt.Errorf("reading SARIF for %s: %w", resultID, err))
	}
	eval, err := evaluator.NewEvaluator(ctx, flagJudgeRego)
	if err != nil {
		return fail(span, fmt.Errorf("creating evaluator: %w", err))
	}
	verdict, err := eval.Evaluate(ctx, sarifLog)
	if err != nil {
		return fail(span, fmt.Errorf("evaluating: %w", err))
	}
	if err := fs.WriteVerdict(ctx, resultID, verdict); err != nil {
		return fail(span, fmt.Errorf("storing verdict: %w", err))
	}
	span.SetAttributes(attribute.String("chisel.decision", verdict.Decision))
	slog.Info("judged", "id", resultID, "decision", verdict.Decision, "policies", eval.Modules())

	out, err := formatter.Format(&output.AnalysisOutput{Verdict: verdict, SARIFLog: sarifLog})
	if err != nil {
		return fail(span, err)
	}
	if _, err := cmd.OutOrStdout().Write(out); err != nil {
		return err
	}
	if verdict.Decision == "reject" {
		return &exitError{code: 1}
	}
	return nil
}
