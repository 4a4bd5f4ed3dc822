package metrics

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

// Exporter handles exporting metrics to various formats
type Exporter struct {
	collector *Collector
}

// NewExporter creates a new metrics exporter
func NewExporter(collector *Collector) *Exporter {
	return &Exporter{collector: collector}
}

// ExportJSON writes stats and events to a JSON file
func (e *Exporter) ExportJSON(path string) error {
	report := struct {
		GeneratedAt time.Time   `json:"generated_at"`
		Stats       RunStats    `json:"stats"`
		Events      []FileEvent `json:"events"`
	}{
		GeneratedAt: time.Now(),
		Stats:       e.collector.Stats(),
		Events:      e.collector.Events(),
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metrics: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// WriteReport writes a human-readable report to the given writer
func (e *Exporter) WriteReport(w io.Writer) error {
	stats := e.collector.Stats()

	fmt.Fprintf(w, "=== Summary ===\n")
	fmt.Fprintf(w, "Files:          %d\n", stats.TotalFiles)
	fmt.Fprintf(w, "Failed:         %d (%.1f%%)\n",
		stats.FailedFiles,
		safePercent(float64(stats.FailedFiles), float64(stats.TotalFiles)))
	fmt.Fprintf(w, "Lines:          %d\n", stats.TotalLines)
	fmt.Fprintf(w, "Violations:     %d\n", stats.TotalViolations)
	fmt.Fprintf(w, "Per 1000 lines: %.2f\n\n", stats.ViolationsPerKLine)

	fmt.Fprintf(w, "=== Latency ===\n")
	fmt.Fprintf(w, "Average:   %.2fms\n", stats.AvgFileDurationMs)
	fmt.Fprintf(w, "P50:       %.2fms\n", stats.P50FileDurationMs)
	fmt.Fprintf(w, "P95:       %.2fms\n", stats.P95FileDurationMs)
	fmt.Fprintf(w, "P99:       %.2fms\n", stats.P99FileDurationMs)
	fmt.Fprintf(w, "Max:       %.2fms\n", stats.MaxFileDurationMs)
	fmt.Fprintf(w, "Avg Parse: %.2fms\n", stats.AvgParseMs)
	fmt.Fprintf(w, "Avg Check: %.2fms\n\n", stats.AvgCheckMs)

	fmt.Fprintf(w, "=== Cache ===\n")
	fmt.Fprintf(w, "Hits:     %d\n", stats.CacheHits)
	fmt.Fprintf(w, "Misses:   %d\n", stats.CacheMisses)
	fmt.Fprintf(w, "Hit Rate: %.1f%%\n\n", stats.CacheHitRate*100)

	fmt.Fprintf(w, "=== Throughput ===\n")
	fmt.Fprintf(w, "Files/sec: %.2f\n", stats.FilesPerSecond)
	fmt.Fprintf(w, "Elapsed:   %s\n", stats.Elapsed.Round(time.Millisecond))

	if len(stats.ByCheck) > 0 {
		fmt.Fprintf(w, "\n=== By Check ===\n")
		checks := make([]string, 0, len(stats.ByCheck))
		for c := range stats.ByCheck {
			checks = append(checks, c)
		}
		sort.Strings(checks)
		for _, c := range checks {
			fmt.Fprintf(w, "%-28s %d\n", c, stats.ByCheck[c])
		}
	}
	return nil
}

// WriteCSV writes one row per event for external analysis
func (e *Exporter) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := []string{
		"timestamp", "path", "size", "line_count",
		"parse_ms", "check_ms", "total_ms",
		"violations", "cache_result", "error",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, ev := range e.collector.Events() {
		row := []string{
			ev.Timestamp.Format(time.RFC3339),
			ev.Path,
			strconv.Itoa(ev.Size),
			strconv.Itoa(ev.LineCount),
			strconv.FormatFloat(millis(ev.ParseDuration), 'f', 3, 64),
			strconv.FormatFloat(millis(ev.CheckDuration), 'f', 3, 64),
			strconv.FormatFloat(millis(ev.TotalDuration), 'f', 3, 64),
			strconv.Itoa(ev.ViolationCount()),
			string(ev.CacheResult),
			ev.Error,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func safePercent(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return (numerator / denominator) * 100
}
