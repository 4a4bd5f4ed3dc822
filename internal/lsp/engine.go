package lsp

import (
	"context"

	"github.com/chris-regnier/chisel/internal/analyzer"
	"github.com/chris-regnier/chisel/internal/input"
	"github.com/chris-regnier/chisel/internal/syntax"
)

// Engine analyzes documents for the server.
type Engine interface {
	// AnalyzeDocument analyzes the unsaved content of one file.
	AnalyzeDocument(ctx context.Context, path, content string) (analyzer.FileResult, error)
	// AnalyzeDir analyzes every supported file under dir. Results are in
	// the same order as the artifacts read.
	AnalyzeDir(ctx context.Context, dir string) ([]input.Artifact, []analyzer.FileResult, error)
	// Severity returns the SARIF level configured for a check.
	Severity(check string) string
}

// AnalyzerEngine is the Engine backed by an analyzer.Analyzer.
type AnalyzerEngine struct {
	analyzer *analyzer.Analyzer
	input    *input.Handler
	severity func(string) string
}

// NewAnalyzerEngine creates an Engine. Directory walks use in for file
// selection.
func NewAnalyzerEngine(a *analyzer.Analyzer, in *input.Handler, severity func(string) string) *AnalyzerEngine {
	return &AnalyzerEngine{analyzer: a, input: in, severity: severity}
}

func (e *AnalyzerEngine) AnalyzeDocument(ctx context.Context, path, content string) (analyzer.FileResult, error) {
	results, err := e.analyzer.Analyze(ctx, []input.Artifact{{Path: path, Content: content}})
	if err != nil {
		return analyzer.FileResult{}, err
	}
	return results[0], nil
}

func (e *AnalyzerEngine) AnalyzeDir(ctx context.Context, dir string) ([]input.Artifact, []analyzer.FileResult, error) {
	artifacts, err := e.input.ReadDirectory(dir)
	if err != nil {
		return nil, nil, err
	}
	results, err := e.analyzer.Analyze(ctx, artifacts)
	if err != nil {
		return nil, nil, err
	}
	return artifacts, results, nil
}

func (e *AnalyzerEngine) Severity(check string) string { return e.severity(check) }

// supported reports whether the parser handles the file at path.
func supported(path string) bool {
	_, _, ok := syntax.Detect(path)
	return ok
}
