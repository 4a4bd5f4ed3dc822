// Package analyzer runs a check plan over many files concurrently, with
// per-file caching, tracing and metrics.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/chris-regnier/chisel/internal/astcheck"
	"github.com/chris-regnier/chisel/internal/cache"
	"github.com/chris-regnier/chisel/internal/input"
	"github.com/chris-regnier/chisel/internal/metrics"
	"github.com/chris-regnier/chisel/internal/resolve"
	"github.com/chris-regnier/chisel/internal/syntax"
	"github.com/chris-regnier/chisel/internal/walker"
)

var tracer = otel.Tracer("github.com/chris-regnier/chisel/internal/analyzer")

// FileResult is the outcome of analyzing one file. Err is set when the file
// could not be parsed; Violations is then empty.
type FileResult struct {
	Path       string
	Violations []astcheck.Violation
	Err        error
	Cached     bool
	// Failures lists checks that panicked on this file. Their violations
	// for the file may be incomplete.
	Failures []*walker.CheckFailure
}

// Failed reports whether the file could not be analyzed.
func (r FileResult) Failed() bool { return r.Err != nil }

// Analyzer analyzes files against a Plan.
type Analyzer struct {
	plan        *astcheck.Plan
	fingerprint string
	cache       cache.CacheManager
	collector   *metrics.Collector
	workers     int
	engine      string
	logger      *slog.Logger
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithCache stores and reuses per-file results.
func WithCache(c cache.CacheManager) Option {
	return func(a *Analyzer) { a.cache = c }
}

// WithWorkers bounds the number of files analyzed concurrently. Values
// below 1 mean runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(a *Analyzer) { a.workers = n }
}

// WithCollector records one metrics event per file.
func WithCollector(c *metrics.Collector) Option {
	return func(a *Analyzer) { a.collector = c }
}

// WithEngineVersion sets the version stamped into cache keys, so results
// from a different build are never reused.
func WithEngineVersion(v string) Option {
	return func(a *Analyzer) { a.engine = v }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// New creates an Analyzer for plan.
func New(plan *astcheck.Plan, opts ...Option) *Analyzer {
	a := &Analyzer{
		plan:        plan,
		fingerprint: plan.Fingerprint(),
		engine:      "dev",
		logger:      slog.Default(),
	}
	for _, o := range opts {
		o(a)
	}
	if a.workers < 1 {
		a.workers = runtime.NumCPU()
	}
	if a.collector == nil {
		a.collector = metrics.NewCollector()
	}
	return a
}

// Collector returns the metrics collector receiving per-file events.
func (a *Analyzer) Collector() *metrics.Collector { return a.collector }

// worker owns one set of check instances. Walkers and checks are never
// shared between goroutines.
type worker struct {
	walker   *walker.Walker
	failures []*walker.CheckFailure
}

func (a *Analyzer) newWorker() (*worker, error) {
	checks, err := a.plan.Instantiate()
	if err != nil {
		return nil, err
	}
	wk := &worker{}
	wk.walker = walker.New(checks,
		walker.WithLogger(a.logger),
		walker.WithFailureHandler(func(f *walker.CheckFailure) {
			wk.failures = append(wk.failures, f)
		}),
	)
	return wk, nil
}

// Analyze analyzes artifacts and returns one result per artifact, in input
// order. Parse failures are recorded in the results and do not stop the
// run; the only errors returned are instantiation errors and cancellation.
func (a *Analyzer) Analyze(ctx context.Context, artifacts []input.Artifact) ([]FileResult, error) {
	ctx, span := tracer.Start(ctx, "analyze",
		trace.WithAttributes(
			attribute.Int("chisel.files", len(artifacts)),
			attribute.Int("chisel.workers", a.workers),
			attribute.String("chisel.plan", a.fingerprint),
		),
	)
	defer span.End()

	n := min(a.workers, max(len(artifacts), 1))
	pool := make(chan *worker, n)
	for i := 0; i < n; i++ {
		wk, err := a.newWorker()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("instantiating checks: %w", err)
		}
		pool <- wk
	}

	results := make([]FileResult, len(artifacts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n)
	for i, art := range artifacts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			wk := <-pool
			defer func() { pool <- wk }()
			results[i] = a.analyzeFile(gctx, wk, art)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	span.SetAttributes(attribute.Int("chisel.failed_files", failed))
	return results, nil
}

func (a *Analyzer) analyzeFile(ctx context.Context, wk *worker, art input.Artifact) FileResult {
	ctx, span := tracer.Start(ctx, "analyze file",
		trace.WithAttributes(attribute.String("chisel.file.path", art.Path)),
	)
	defer span.End()

	start := time.Now()
	src := []byte(art.Content)
	res := FileResult{Path: art.Path}
	event := metrics.FileEvent{
		Path:        art.Path,
		Size:        len(src),
		LineCount:   strings.Count(art.Content, "\n") + 1,
		CacheResult: metrics.CacheDisabled,
	}
	defer func() {
		event.TotalDuration = time.Since(start)
		event.Violations = countByCheck(res.Violations)
		if res.Err != nil {
			event.Error = res.Err.Error()
		}
		a.collector.Record(ctx, event)
		span.SetAttributes(
			attribute.Int("chisel.violations", len(res.Violations)),
			attribute.Bool("chisel.cache.hit", res.Cached),
		)
	}()

	var key cache.CacheKey
	if a.cache != nil {
		key = cache.NewKey(art.Path, src, a.engine, a.fingerprint)
		entry, err := a.cache.Get(ctx, key)
		switch {
		case err == nil:
			event.CacheResult = metrics.CacheHit
			res.Violations = entry.Violations
			res.Cached = true
			return res
		case !errors.Is(err, cache.ErrCacheMiss):
			a.logger.Debug("cache lookup failed", "path", art.Path, "err", err)
		}
		event.CacheResult = metrics.CacheMiss
	}

	parseStart := time.Now()
	t, err := syntax.Parse(ctx, art.Path, src)
	event.ParseDuration = time.Since(parseStart)
	if err != nil {
		a.logger.Warn("skipping file", "path", art.Path, "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		res.Err = err
		return res
	}

	checkStart := time.Now()
	wk.failures = nil
	res.Violations = wk.walker.Analyze(resolve.Annotate(t))
	res.Failures = wk.failures
	event.CheckDuration = time.Since(checkStart)

	if a.cache != nil && len(res.Failures) == 0 {
		if err := a.cache.Put(ctx, &cache.CacheEntry{Key: key, Violations: res.Violations}); err != nil {
			a.logger.Warn("failed to store cache entry", "path", art.Path, "err", err)
		}
	}
	return res
}

func countByCheck(vs []astcheck.Violation) map[string]int {
	if len(vs) == 0 {
		return nil
	}
	out := make(map[string]int)
	for _, v := range vs {
		out[v.CheckID]++
	}
	return out
}
