package lsp

import (
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Document is an open text document.
type Document struct {
	URI     protocol.DocumentUri
	Version protocol.Integer
	Text    string
}

// Path returns the filesystem path of the document.
func (d *Document) Path() string { return uriToPath(d.URI) }

// DocumentManager tracks open documents. It is safe for concurrent use.
type DocumentManager struct {
	mu        sync.RWMutex
	documents map[protocol.DocumentUri]*Document
}

func NewDocumentManager() *DocumentManager {
	return &DocumentManager{documents: make(map[protocol.DocumentUri]*Document)}
}

// Open records a newly opened document, replacing any previous version.
func (m *DocumentManager) Open(uri protocol.DocumentUri, version protocol.Integer, text string) *Document {
	doc := &Document{URI: uri, Version: version, Text: text}
	m.mu.Lock()
	m.documents[uri] = doc
	m.mu.Unlock()
	return doc
}

// Update replaces the text of an open document. It returns false when the
// document is not open or the version is older than the one held.
func (m *DocumentManager) Update(uri protocol.DocumentUri, version protocol.Integer, text string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.documents[uri]
	if !ok || version < doc.Version {
		return false
	}
	m.documents[uri] = &Document{URI: uri, Version: version, Text: text}
	return true
}

// Get returns a snapshot of an open document.
func (m *DocumentManager) Get(uri protocol.DocumentUri) (*Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[uri]
	return doc, ok
}

func (m *DocumentManager) Close(uri protocol.DocumentUri) {
	m.mu.Lock()
	delete(m.documents, uri)
	m.mu.Unlock()
}

func (m *DocumentManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.documents)
}

// URIs returns the open document URIs, sorted.
func (m *DocumentManager) URIs() []protocol.DocumentUri {
	m.mu.RLock()
	out := make([]protocol.DocumentUri, 0, len(m.documents))
	for uri := range m.documents {
		out = append(out, uri)
	}
	m.mu.RUnlock()
	sort.Strings(out)
	return out
}

// uriToPath converts a file:// URI to a filesystem path. Other strings are
// returned unchanged.
func uriToPath(uri protocol.DocumentUri) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return uri
	}
	path := u.Path
	// file:///C:/x parses to /C:/x
	if len(path) >= 3 && path[0] == '/' && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path)
}

// pathToURI converts a filesystem path to a file:// URI.
func pathToURI(path string) protocol.DocumentUri {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	slashed := filepath.ToSlash(path)
	if !strings.HasPrefix(slashed, "/") {
		slashed = "/" + slashed
	}
	return (&url.URL{Scheme: "file", Path: slashed}).String()
}
