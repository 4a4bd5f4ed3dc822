// Package input discovers and reads the Java sources to analyze.
package input

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/chris-regnier/chisel/internal/syntax"
)

// Artifact is one source file.
type Artifact struct {
	Path    string
	Content string
}

// Handler reads source files, keeping only languages the parser supports.
type Handler struct {
	exclude []string
}

// NewHandler creates a Handler. Exclude patterns are matched with
// filepath.Match against both the base name and the slash-separated path.
func NewHandler(exclude ...string) *Handler {
	return &Handler{exclude: exclude}
}

func (h *Handler) excluded(path string) bool {
	slashed := filepath.ToSlash(path)
	base := filepath.Base(path)
	for _, pattern := range h.exclude {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, slashed); ok {
			return true
		}
	}
	return false
}

func supported(path string) bool {
	_, _, ok := syntax.Detect(path)
	return ok
}

// ReadPaths reads each path, walking directories, and returns artifacts in
// the order given with directory contents sorted by path. A path that is
// named twice is read once.
func (h *Handler) ReadPaths(paths []string) ([]Artifact, error) {
	var artifacts []Artifact
	seen := make(map[string]bool)
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		var batch []Artifact
		if info.IsDir() {
			batch, err = h.ReadDirectory(p)
		} else {
			batch, err = h.ReadFiles([]string{p})
		}
		if err != nil {
			return nil, err
		}
		for _, a := range batch {
			if !seen[a.Path] {
				seen[a.Path] = true
				artifacts = append(artifacts, a)
			}
		}
	}
	return artifacts, nil
}

// ReadFiles reads the given files. Files in unsupported languages, excluded
// files and files that are not valid UTF-8 are skipped.
func (h *Handler) ReadFiles(paths []string) ([]Artifact, error) {
	var artifacts []Artifact
	for _, p := range paths {
		if !supported(p) || h.excluded(p) {
			slog.Debug("skipping file", "path", p)
			continue
		}
		a, ok, err := read(p)
		if err != nil {
			return nil, err
		}
		if ok {
			artifacts = append(artifacts, a)
		}
	}
	return artifacts, nil
}

// ReadDirectory walks dir, skipping hidden directories, and reads every
// supported file.
func (h *Handler) ReadDirectory(dir string) ([]Artifact, error) {
	var artifacts []Artifact
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && (strings.HasPrefix(d.Name(), ".") || h.excluded(path)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !supported(path) || h.excluded(path) {
			return nil
		}
		a, ok, err := read(path)
		if err != nil {
			return err
		}
		if ok {
			artifacts = append(artifacts, a)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	sort.Slice(artifacts, func(i, j int) bool { return artifacts[i].Path < artifacts[j].Path })
	return artifacts, nil
}

func read(path string) (Artifact, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Artifact{}, false, err
	}
	if !utf8.Valid(data) {
		slog.Warn("skipping file with invalid UTF-8", "path", path)
		return Artifact{}, false, nil
	}
	return Artifact{Path: path, Content: string(data)}, true, nil
}
