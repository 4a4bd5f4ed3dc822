package lsp

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// WatcherConfig holds configuration for the debounced watcher.
type WatcherConfig struct {
	Debounce       time.Duration
	ParallelFiles  int
	IgnorePatterns []string
}

// DefaultWatcherConfig returns the defaults used when the configuration
// leaves a field unset.
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		Debounce:      300 * time.Millisecond,
		ParallelFiles: 3,
		IgnorePatterns: []string{
			"**/.git/**",
			"**/.chisel/**",
			"**/build/**",
			"**/target/**",
		},
	}
}

// DebouncedWatcher batches document changes and runs analysis once edits
// have been quiet for the debounce period.
type DebouncedWatcher struct {
	config    WatcherConfig
	onTrigger func(uri string)

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	stopped bool
}

// NewDebouncedWatcher creates a watcher. onTrigger is called once per
// changed URI, at most ParallelFiles at a time.
func NewDebouncedWatcher(config WatcherConfig, onTrigger func(uri string)) *DebouncedWatcher {
	if onTrigger == nil {
		panic("onTrigger callback cannot be nil")
	}
	defaults := DefaultWatcherConfig()
	if config.Debounce <= 0 {
		config.Debounce = defaults.Debounce
	}
	if config.ParallelFiles <= 0 {
		config.ParallelFiles = defaults.ParallelFiles
	}
	return &DebouncedWatcher{
		config:    config,
		onTrigger: onTrigger,
		pending:   make(map[string]struct{}),
	}
}

// Config returns the current configuration.
func (w *DebouncedWatcher) Config() WatcherConfig {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.config
}

// Changed queues uri for analysis and restarts the quiet period.
func (w *DebouncedWatcher) Changed(uri string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	w.pending[uri] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.config.Debounce, w.Flush)
}

// Forget drops uri from the pending set.
func (w *DebouncedWatcher) Forget(uri string) {
	w.mu.Lock()
	delete(w.pending, uri)
	w.mu.Unlock()
}

// Flush analyzes every pending URI now and waits for the analyses to finish.
func (w *DebouncedWatcher) Flush() {
	w.mu.Lock()
	if w.stopped || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	uris := make([]string, 0, len(w.pending))
	for u := range w.pending {
		uris = append(uris, u)
	}
	w.pending = make(map[string]struct{})
	parallel := w.config.ParallelFiles
	w.mu.Unlock()

	sort.Strings(uris)
	var g errgroup.Group
	g.SetLimit(parallel)
	for _, u := range uris {
		g.Go(func() error {
			w.onTrigger(u)
			return nil
		})
	}
	_ = g.Wait()
}

// Stop cancels any pending analysis. Later changes are ignored.
func (w *DebouncedWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pending = make(map[string]struct{})
}

// Watchable reports whether the server analyzes the file at path: the
// parser must support it and no ignore pattern may match.
func Watchable(path string, ignorePatterns []string) bool {
	if !supported(path) {
		return false
	}
	normalized := filepath.ToSlash(path)
	for _, pattern := range ignorePatterns {
		if matchGlobPattern(normalized, pattern) {
			return false
		}
	}
	return true
}

// matchGlobPattern matches a slash-separated path against a glob pattern.
// "**/dir/**" matches the directory anywhere in the path, "**/*.ext"
// matches by suffix and anything else falls back to filepath.Match on the
// base name.
func matchGlobPattern(path, pattern string) bool {
	pattern = filepath.ToSlash(pattern)

	if strings.HasPrefix(pattern, "**/") && strings.HasSuffix(pattern, "/**") {
		dir := strings.TrimSuffix(strings.TrimPrefix(pattern, "**/"), "/**")
		return strings.Contains("/"+path, "/"+dir+"/")
	}

	if strings.Contains(pattern, "**") {
		parts := strings.SplitN(pattern, "**", 2)
		prefix := strings.TrimSuffix(parts[0], "/")
		suffix := strings.TrimPrefix(parts[1], "/")
		if prefix != "" && !strings.HasPrefix(path, prefix) {
			return false
		}
		if suffix == "" {
			return true
		}
		if strings.HasPrefix(suffix, "*") {
			return strings.HasSuffix(path, strings.TrimPrefix(suffix, "*"))
		}
		return strings.HasSuffix(path, "/"+suffix) || path == suffix
	}

	matched, _ := filepath.Match(pattern, filepath.Base(path))
	return matched
}
