package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLSPCacheDir(t *testing.T) {
	dir := workspace(t)
	assert.Equal(t, filepath.Join(dir, ".cache", "chisel"), defaultLSPCacheDir())
}

func TestLSPCommandRejectsArgs(t *testing.T) {
	_, err := execute(t, "lsp", "extra")
	assert.Error(t, err)
}
