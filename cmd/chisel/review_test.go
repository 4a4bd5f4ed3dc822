package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-regnier/chisel/internal/store"
)

func reviewCommand(t *testing.T) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetContext(t.Context())
	return cmd
}

func TestLoadReviewTarget_LatestRun(t *testing.T) {
	dir := workspace(t)
	src := filepath.Join(dir, "src", "A.java")
	writeFile(t, src, emptyCatch)
	_, err := execute(t, analyzeArgs(dir, src)...)
	require.NoError(t, err)

	flagReviewOutput = filepath.Join(dir, "results")
	flagReviewResult = ""
	log, id, statePath, err := loadReviewTarget(reviewCommand(t), nil)
	require.NoError(t, err)

	fs := store.NewFileStore(flagReviewOutput)
	latest, err := fs.Latest(t.Context())
	require.NoError(t, err)
	assert.Equal(t, latest, id)
	assert.Equal(t, fs.Path(id, "review.json"), statePath)
	require.Len(t, log.Results(), 1)
	assert.Equal(t, "empty-catch-block", log.Results()[0].RuleID)
}

func TestLoadReviewTarget_SARIFFile(t *testing.T) {
	dir := workspace(t)
	src := filepath.Join(dir, "src", "A.java")
	writeFile(t, src, emptyCatch)
	out, err := execute(t, "analyze", "-q", "--no-store", "--format", "sarif",
		"--config", filepath.Join(dir, "chisel.yaml"),
		"--rego", filepath.Join(dir, "rego"),
		"--cache-dir", filepath.Join(dir, "cache"),
		src)
	require.NoError(t, err)
	file := filepath.Join(dir, "run.sarif")
	require.NoError(t, os.WriteFile(file, []byte(out), 0o644))

	log, id, statePath, err := loadReviewTarget(reviewCommand(t), []string{file})
	require.NoError(t, err)
	assert.Equal(t, file, id)
	assert.Equal(t, file+".review.json", statePath)
	assert.Len(t, log.Results(), 1)
}

func TestLoadReviewTarget_NoResults(t *testing.T) {
	dir := workspace(t)
	flagReviewOutput = filepath.Join(dir, "results")
	flagReviewResult = ""
	_, _, _, err := loadReviewTarget(reviewCommand(t), nil)
	assert.ErrorIs(t, err, store.ErrNoResults)
}
