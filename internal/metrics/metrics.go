// Package metrics collects per-file analysis events and aggregates them into
// run statistics. Every recorded event is also reported to the OpenTelemetry
// meter, which is a no-op unless telemetry is enabled.
package metrics

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CacheResult indicates whether a cache lookup was a hit or miss
type CacheResult string

const (
	CacheHit      CacheResult = "hit"
	CacheMiss     CacheResult = "miss"
	CacheDisabled CacheResult = "disabled"
)

// FileEvent captures metrics for the analysis of one file
type FileEvent struct {
	Timestamp time.Time `json:"timestamp"`

	Path      string `json:"path"`
	Size      int    `json:"size"`
	LineCount int    `json:"line_count"`

	ParseDuration time.Duration `json:"parse_duration"`
	CheckDuration time.Duration `json:"check_duration"`
	TotalDuration time.Duration `json:"total_duration"`

	// Violations per check ID
	Violations  map[string]int `json:"violations,omitempty"`
	CacheResult CacheResult    `json:"cache_result"`
	Error       string         `json:"error,omitempty"`
}

// ViolationCount returns the total number of violations in the event.
func (e FileEvent) ViolationCount() int {
	n := 0
	for _, c := range e.Violations {
		n += c
	}
	return n
}

// RunStats holds computed aggregate statistics
type RunStats struct {
	TotalFiles      int64 `json:"total_files"`
	FailedFiles     int64 `json:"failed_files"`
	TotalLines      int64 `json:"total_lines"`
	TotalViolations int64 `json:"total_violations"`

	// Latency stats (in milliseconds for JSON readability)
	AvgFileDurationMs float64 `json:"avg_file_duration_ms"`
	P50FileDurationMs float64 `json:"p50_file_duration_ms"`
	P95FileDurationMs float64 `json:"p95_file_duration_ms"`
	P99FileDurationMs float64 `json:"p99_file_duration_ms"`
	MaxFileDurationMs float64 `json:"max_file_duration_ms"`
	AvgParseMs        float64 `json:"avg_parse_ms"`
	AvgCheckMs        float64 `json:"avg_check_ms"`

	CacheHits    int64   `json:"cache_hits"`
	CacheMisses  int64   `json:"cache_misses"`
	CacheHitRate float64 `json:"cache_hit_rate"`

	FilesPerSecond     float64 `json:"files_per_second"`
	ViolationsPerKLine float64 `json:"violations_per_kline"`

	ByCheck map[string]int64 `json:"by_check"`

	Elapsed time.Duration `json:"elapsed"`
}

type atomicCounters struct {
	totalFiles      atomic.Int64
	failedFiles     atomic.Int64
	totalLines      atomic.Int64
	totalViolations atomic.Int64
	cacheHits       atomic.Int64
	cacheMisses     atomic.Int64
}

// Collector collects file events. It is safe for concurrent use.
type Collector struct {
	mu       sync.RWMutex
	events   []FileEvent
	counters atomicCounters

	maxEvents int
	startTime time.Time
	now       func() time.Time

	instruments *instruments
}

// CollectorOption configures a Collector
type CollectorOption func(*Collector)

// WithMaxEvents sets the maximum number of events to retain
func WithMaxEvents(n int) CollectorOption {
	return func(c *Collector) {
		c.maxEvents = n
	}
}

// WithMeter reports events to the given meter instead of the global one.
func WithMeter(m metric.Meter) CollectorOption {
	return func(c *Collector) {
		c.instruments = newInstruments(m)
	}
}

// NewCollector creates a new metrics collector
func NewCollector(opts ...CollectorOption) *Collector {
	c := &Collector{
		events:    make([]FileEvent, 0, 256),
		maxEvents: 100000,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.instruments == nil {
		c.instruments = newInstruments(otel.Meter("github.com/chris-regnier/chisel/internal/metrics"))
	}
	c.startTime = c.now()
	return c
}

// Record adds a file event to the collector
func (c *Collector) Record(ctx context.Context, event FileEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = c.now()
	}
	violations := event.ViolationCount()

	c.counters.totalFiles.Add(1)
	c.counters.totalLines.Add(int64(event.LineCount))
	c.counters.totalViolations.Add(int64(violations))
	if event.Error != "" {
		c.counters.failedFiles.Add(1)
	}
	switch event.CacheResult {
	case CacheHit:
		c.counters.cacheHits.Add(1)
	case CacheMiss:
		c.counters.cacheMisses.Add(1)
	}
	c.instruments.record(ctx, event)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	if len(c.events) > c.maxEvents {
		// Drop the oldest 10%
		c.events = c.events[c.maxEvents/10:]
	}
}

// Stats computes aggregate statistics from collected events
func (c *Collector) Stats() RunStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := RunStats{
		TotalFiles:      c.counters.totalFiles.Load(),
		FailedFiles:     c.counters.failedFiles.Load(),
		TotalLines:      c.counters.totalLines.Load(),
		TotalViolations: c.counters.totalViolations.Load(),
		CacheHits:       c.counters.cacheHits.Load(),
		CacheMisses:     c.counters.cacheMisses.Load(),
		ByCheck:         make(map[string]int64),
		Elapsed:         c.now().Sub(c.startTime),
	}

	if lookups := stats.CacheHits + stats.CacheMisses; lookups > 0 {
		stats.CacheHitRate = float64(stats.CacheHits) / float64(lookups)
	}
	if stats.TotalLines > 0 {
		stats.ViolationsPerKLine = float64(stats.TotalViolations) * 1000 / float64(stats.TotalLines)
	}
	if secs := stats.Elapsed.Seconds(); secs > 0 {
		stats.FilesPerSecond = float64(stats.TotalFiles) / secs
	}
	if len(c.events) == 0 {
		return stats
	}

	durations := make([]float64, 0, len(c.events))
	var sumTotal, sumParse, sumCheck float64
	for _, e := range c.events {
		ms := millis(e.TotalDuration)
		durations = append(durations, ms)
		sumTotal += ms
		sumParse += millis(e.ParseDuration)
		sumCheck += millis(e.CheckDuration)
		for check, n := range e.Violations {
			stats.ByCheck[check] += int64(n)
		}
	}

	n := float64(len(c.events))
	stats.AvgFileDurationMs = sumTotal / n
	stats.AvgParseMs = sumParse / n
	stats.AvgCheckMs = sumCheck / n

	sort.Float64s(durations)
	stats.P50FileDurationMs = percentile(durations, 0.50)
	stats.P95FileDurationMs = percentile(durations, 0.95)
	stats.P99FileDurationMs = percentile(durations, 0.99)
	stats.MaxFileDurationMs = durations[len(durations)-1]
	return stats
}

// Events returns a copy of the retained events, most recent last.
func (c *Collector) Events() []FileEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]FileEvent, len(c.events))
	copy(out, c.events)
	return out
}

// Reset clears all collected metrics
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = c.events[:0]
	c.counters = atomicCounters{}
	c.startTime = c.now()
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// percentile returns the value at the given percentile (0.0-1.0)
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

type instruments struct {
	files      metric.Int64Counter
	violations metric.Int64Counter
	duration   metric.Float64Histogram
}

func newInstruments(m metric.Meter) *instruments {
	// Instrument creation only fails for invalid names; the no-op fallbacks
	// keep recording safe either way.
	files, _ := m.Int64Counter("chisel.files",
		metric.WithDescription("Files analyzed"),
		metric.WithUnit("{file}"))
	violations, _ := m.Int64Counter("chisel.violations",
		metric.WithDescription("Violations reported"),
		metric.WithUnit("{violation}"))
	duration, _ := m.Float64Histogram("chisel.file.duration",
		metric.WithDescription("Time spent analyzing one file"),
		metric.WithUnit("ms"))
	return &instruments{files: files, violations: violations, duration: duration}
}

func (in *instruments) record(ctx context.Context, e FileEvent) {
	status := "ok"
	if e.Error != "" {
		status = "failed"
	}
	if in.files != nil {
		in.files.Add(ctx, 1, metric.WithAttributes(
			attribute.String("chisel.status", status),
			attribute.String("chisel.cache", string(e.CacheResult)),
		))
	}
	if in.violations != nil {
		for check, n := range e.Violations {
			in.violations.Add(ctx, int64(n), metric.WithAttributes(attribute.String("chisel.check", check)))
		}
	}
	if in.duration != nil {
		in.duration.Record(ctx, millis(e.TotalDuration))
	}
}
