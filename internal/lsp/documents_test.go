package lsp

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentManager(t *testing.T) {
	m := NewDocumentManager()
	m.Open("file:///ws/B.java", 1, "class B {}")
	m.Open("file:///ws/A.java", 3, "class A {}")

	assert.Equal(t, 2, m.Count())
	assert.Equal(t, []string{"file:///ws/A.java", "file:///ws/B.java"}, m.URIs())

	doc, ok := m.Get("file:///ws/A.java")
	require.True(t, ok)
	assert.Equal(t, "class A {}", doc.Text)
	assert.Equal(t, filepath.FromSlash("/ws/A.java"), doc.Path())

	assert.True(t, m.Update("file:///ws/A.java", 4, "class A { int x; }"))
	assert.False(t, m.Update("file:///ws/A.java", 2, "stale"), "older versions are rejected")
	assert.False(t, m.Update("file:///ws/C.java", 1, "class C {}"), "unopened documents are rejected")

	doc, _ = m.Get("file:///ws/A.java")
	assert.Equal(t, "class A { int x; }", doc.Text)

	m.Close("file:///ws/A.java")
	_, ok = m.Get("file:///ws/A.java")
	assert.False(t, ok)
	assert.Equal(t, 1, m.Count())
}

func TestDocumentSnapshotIsStable(t *testing.T) {
	m := NewDocumentManager()
	m.Open("file:///ws/A.java", 1, "v1")
	before, _ := m.Get("file:///ws/A.java")
	m.Update("file:///ws/A.java", 2, "v2")
	assert.Equal(t, "v1", before.Text)
}

func TestURIConversion(t *testing.T) {
	assert.Equal(t, filepath.FromSlash("/home/dev/src/A.java"), uriToPath("file:///home/dev/src/A.java"))
	assert.Equal(t, filepath.FromSlash("/home/dev/My Src/A.java"), uriToPath("file:///home/dev/My%20Src/A.java"))
	assert.Equal(t, filepath.FromSlash("C:/src/A.java"), uriToPath("file:///C:/src/A.java"))
	assert.Equal(t, "untitled:Untitled-1", uriToPath("untitled:Untitled-1"))

	if filepath.Separator == '/' {
		assert.Equal(t, "file:///home/dev/src/A.java", pathToURI("/home/dev/src/A.java"))
		assert.Equal(t, "/home/dev/src/A.java", uriToPath(pathToURI("/home/dev/src/A.java")))
	}
}
