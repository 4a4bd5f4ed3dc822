package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/chris-regnier/chisel/internal/analyzer"
	"github.com/chris-regnier/chisel/internal/astcheck"
	"github.com/chris-regnier/chisel/internal/cache"
	"github.com/chris-regnier/chisel/internal/config"
	"github.com/chris-regnier/chisel/internal/evaluator"
	"github.com/chris-regnier/chisel/internal/input"
	"github.com/chris-regnier/chisel/internal/metrics"
	"github.com/chris-regnier/chisel/internal/output"
	"github.com/chris-regnier/chisel/internal/sarif"
	"github.com/chris-regnier/chisel/internal/store"
	"github.com/chris-regnier/chisel/internal/telemetry"
)

var cmdTracer = otel.Tracer("github.com/chris-regnier/chisel/cmd/chisel")

// EnvCacheToken carries the bearer token for the remote cache.
const EnvCacheToken = "CHISEL_CACHE_TOKEN"

type analyzeFlags struct {
	config      string
	format      string
	output      string
	rego        string
	exclude     []string
	workers     int
	cacheDir    string
	noCache     bool
	remoteCache string
	noStore     bool
	stats       bool
}

var flagAnalyze analyzeFlags

func init() {
	analyzeCmd := &cobra.Command{
		Use:   "analyze [paths...]",
		Short: "Analyze Java files and directories",
		Long: `Analyze Java sources with the configured checks, evaluate the result with
Rego policies and store the SARIF log and verdict. Exits 1 when the verdict is
reject or when any file could not be parsed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAnalyze,
	}

	f := analyzeCmd.Flags()
	f.StringVar(&flagAnalyze.config, "config", "", "Project config file (default .chisel/chisel.yaml)")
	f.StringVarP(&flagAnalyze.format, "format", "f", "", "Output format: text, json, sarif, markdown, pretty (default pretty on a terminal, text otherwise)")
	f.StringVar(&flagAnalyze.output, "output", ".chisel/results", "Directory for stored results")
	f.StringVar(&flagAnalyze.rego, "rego", ".chisel/rego", "Directory containing Rego policies")
	f.StringSliceVar(&flagAnalyze.exclude, "exclude", nil, "Glob patterns of files or directories to skip")
	f.IntVarP(&flagAnalyze.workers, "workers", "j", 0, "Files analyzed in parallel (default number of CPUs)")
	f.StringVar(&flagAnalyze.cacheDir, "cache-dir", ".chisel/cache", "Local cache directory")
	f.BoolVar(&flagAnalyze.noCache, "no-cache", false, "Keep cached results in memory only")
	f.StringVar(&flagAnalyze.remoteCache, "remote-cache", "", "Base URL of a shared cache server")
	f.BoolVar(&flagAnalyze.noStore, "no-store", false, "Do not store the SARIF log and verdict")
	f.BoolVar(&flagAnalyze.stats, "stats", false, "Print run statistics to stderr")

	rootCmd.AddCommand(analyzeCmd)
}

// loadConfig loads the tiered configuration and validates it against reg.
func loadConfig(projectPath string, reg *astcheck.Registry) (*config.Config, *astcheck.Plan, error) {
	if projectPath == "" {
		projectPath = config.ProjectPath(".")
	}
	cfg, err := config.LoadTiered(config.MachinePath(), projectPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(reg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	plan, err := cfg.Plan(reg)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, plan, nil
}

// buildCache wires the local tier and, when a URL is given, the shared
// remote tier. An unreachable remote is logged and skipped.
func buildCache(ctx context.Context, fl analyzeFlags) *cache.MultiTierCache {
	var local cache.CacheManager
	if fl.noCache || fl.cacheDir == "" {
		local = cache.NewMemoryCache()
	} else {
		local = cache.NewLocalCache(fl.cacheDir)
	}

	var remote cache.CacheManager
	if fl.remoteCache != "" {
		rc := cache.NewRemoteCache(fl.remoteCache, cache.WithToken(os.Getenv(EnvCacheToken)))
		if err := rc.Ping(ctx); err != nil {
			slog.Warn("remote cache unavailable, continuing without it", "url", fl.remoteCache, "err", err)
		} else {
			remote = rc
		}
	}
	return cache.NewMultiTierCache(local, remote, cache.DefaultMultiTierConfig())
}

// assemble builds the SARIF log for a run.
func assemble(cfg *config.Config, plan *astcheck.Plan, results []analyzer.FileResult) *sarif.Log {
	a := sarif.NewAssembler("chisel", version).
		WithSeverity(cfg.Severity).
		WithInputScope("paths").
		AddRules(plan.Names()...)
	for _, r := range results {
		if r.Failed() {
			a.AddFailure(r.Path, r.Err)
			continue
		}
		a.AddFile(r.Path, r.Violations)
	}
	return a.Build()
}

// exitStatus returns the error ending the command: exit 1 when the gate
// rejects or any file failed to parse.
func exitStatus(verdict *store.Verdict, results []analyzer.FileResult) error {
	if verdict != nil && verdict.Decision == "reject" {
		return &exitError{code: 1}
	}
	for _, r := range results {
		if r.Failed() {
			return &exitError{code: 1}
		}
	}
	return nil
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	fl := flagAnalyze
	format := output.ResolveFormat(fl.format, stdoutIsTerminal())
	formatter, err := output.NewFormatter(format)
	if err != nil {
		return err
	}

	reg := astcheck.DefaultRegistry()
	cfg, plan, err := loadConfig(fl.config, reg)
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

	ctx, span := cmdTracer.Start(ctx, "chisel analyze",
		trace.WithAttributes(
			attribute.StringSlice("chisel.paths", args),
			attribute.StringSlice("chisel.checks", plan.Names()),
		),
	)
	defer span.End()

	artifacts, err := input.NewHandler(fl.exclude...).ReadPaths(args)
	if err != nil {
		return fail(span, fmt.Errorf("reading input: %w", err))
	}
	slog.Info("analyzing", "files", len(artifacts), "checks", len(plan.Names()))

	tiers := buildCache(ctx, fl)
	a := analyzer.New(plan,
		analyzer.WithCache(tiers),
		analyzer.WithWorkers(fl.workers),
		analyzer.WithEngineVersion(version),
	)
	results, err := a.Analyze(ctx, artifacts)
	if err != nil {
		return fail(span, fmt.Errorf("analyzing: %w", err))
	}

	sarifLog := assemble(cfg, plan, results)

	eval, err := evaluator.NewEvaluator(ctx, fl.rego)
	if err != nil {
		return fail(span, fmt.Errorf("creating evaluator: %w", err))
	}
	verdict, err := eval.Evaluate(ctx, sarifLog)
	if err != nil {
		return fail(span, fmt.Errorf("evaluating: %w", err))
	}
	span.SetAttributes(attribute.String("chisel.decision", verdict.Decision))

	stats := a.Collector().Stats()
	if !fl.noStore {
		id, err := storeRun(ctx, store.NewFileStore(fl.output), sarifLog, verdict, a.Collector())
		if err != nil {
			return fail(span, err)
		}
		slog.Info("stored results", "id", id, "dir", fl.output)
	}

	out, err := formatter.Format(&output.AnalysisOutput{Verdict: verdict, SARIFLog: sarifLog, Stats: &stats})
	if err != nil {
		return fail(span, err)
	}
	if _, err := cmd.OutOrStdout().Write(out); err != nil {
		return err
	}

	if fl.stats {
		if err := metrics.NewExporter(a.Collector()).WriteReport(cmd.ErrOrStderr()); err != nil {
			return err
		}
		if tiers.HasRemote() {
			ts := tiers.Stats()
			fmt.Fprintf(cmd.ErrOrStderr(), "cache tiers: %d local hits, %d remote hits, %d misses, %d remote errors\n",
				ts.LocalHits, ts.RemoteHits, ts.Misses, ts.RemoteErrors)
		}
	}
	return exitStatus(verdict, results)
}

// storeRun writes the SARIF log, the verdict and the run metrics under a
// new result ID.
func storeRun(ctx context.Context, fs *store.FileStore, log *sarif.Log, verdict *store.Verdict, c *metrics.Collector) (string, error) {
	id, err := fs.WriteSARIF(ctx, log)
	if err != nil {
		return "", fmt.Errorf("storing SARIF: %w", err)
	}
	if err := fs.WriteVerdict(ctx, id, verdict); err != nil {
		return "", fmt.Errorf("storing verdict: %w", err)
	}
	if err := metrics.NewExporter(c).ExportJSON(fs.Path(id, "metrics.json")); err != nil {
		return "", fmt.Errorf("storing metrics: %w", err)
	}
	return id, nil
}

func fail(span trace.Span, err error) error {
	if !errors.Is(err, context.Canceled) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
