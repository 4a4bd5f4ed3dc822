package lsp

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/chris-regnier/chisel/internal/astcheck"
)

// resultEntry holds the violations last published for a document version.
type resultEntry struct {
	version    protocol.Integer
	violations []astcheck.Violation
}

// Handler implements the language server methods chisel supports.
type Handler struct {
	engine    Engine
	config    ServerConfig
	documents *DocumentManager
	watcher   *DebouncedWatcher
	logger    *slog.Logger

	mu       sync.Mutex
	notify   glsp.NotifyFunc
	rootPath string
	trace    protocol.TraceValue
	results  map[protocol.DocumentUri]resultEntry
}

// NewHandler creates a Handler.
func NewHandler(engine Engine, config ServerConfig) *Handler {
	h := &Handler{
		engine:    engine,
		config:    config,
		documents: NewDocumentManager(),
		logger:    config.Logger,
		trace:     protocol.TraceValueOff,
		results:   make(map[protocol.DocumentUri]resultEntry),
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	h.watcher = NewDebouncedWatcher(config.Watcher, func(uri string) {
		h.analyzeAndPublish(context.Background(), uri)
	})
	return h
}

// Protocol returns the glsp handler table.
func (h *Handler) Protocol() *protocol.Handler {
	return &protocol.Handler{
		Initialize:              h.Initialize,
		Initialized:             h.Initialized,
		Shutdown:                h.Shutdown,
		SetTrace:                h.SetTrace,
		TextDocumentDidOpen:     h.TextDocumentDidOpen,
		TextDocumentDidChange:   h.TextDocumentDidChange,
		TextDocumentDidSave:     h.TextDocumentDidSave,
		TextDocumentDidClose:    h.TextDocumentDidClose,
		TextDocumentCodeAction:  h.TextDocumentCodeAction,
		WorkspaceExecuteCommand: h.WorkspaceExecuteCommand,
	}
}

func (h *Handler) remember(ctx *glsp.Context) {
	if ctx == nil || ctx.Notify == nil {
		return
	}
	h.mu.Lock()
	h.notify = ctx.Notify
	h.mu.Unlock()
}

func (h *Handler) send(method string, params any) {
	h.mu.Lock()
	notify := h.notify
	h.mu.Unlock()
	if notify != nil {
		notify(method, params)
	}
}

func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	h.remember(ctx)
	if params.RootURI != nil {
		h.mu.Lock()
		h.rootPath = uriToPath(*params.RootURI)
		h.mu.Unlock()
	}

	openClose := true
	change := protocol.TextDocumentSyncKindFull
	version := h.config.Version
	return protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: &openClose,
				Change:    &change,
				Save:      true,
			},
			CodeActionProvider: protocol.CodeActionOptions{
				CodeActionKinds: []protocol.CodeActionKind{protocol.CodeActionKindQuickFix},
			},
			ExecuteCommandProvider: &protocol.ExecuteCommandOptions{
				Commands: Commands(),
			},
		},
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &version,
		},
	}, nil
}

func (h *Handler) Initialized(ctx *glsp.Context, _ *protocol.InitializedParams) error {
	h.remember(ctx)
	h.logger.Info("language server initialized", "root", h.root())
	return nil
}

func (h *Handler) Shutdown(_ *glsp.Context) error {
	h.watcher.Stop()
	return nil
}

func (h *Handler) SetTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	h.mu.Lock()
	h.trace = params.Value
	h.mu.Unlock()
	return nil
}

func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	h.remember(ctx)
	doc := params.TextDocument
	h.documents.Open(doc.URI, doc.Version, doc.Text)
	h.analyzeAndPublish(context.Background(), doc.URI)
	return nil
}

func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	h.remember(ctx)
	uri := params.TextDocument.URI
	doc, ok := h.documents.Get(uri)
	if !ok {
		return nil
	}
	text := doc.Text
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			text = c.Text
		case protocol.TextDocumentContentChangeEvent:
			text = applyChange(text, c)
		}
	}
	if h.documents.Update(uri, params.TextDocument.Version, text) {
		h.watcher.Changed(uri)
	}
	return nil
}

func (h *Handler) TextDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	h.remember(ctx)
	uri := params.TextDocument.URI
	if params.Text != nil {
		if doc, ok := h.documents.Get(uri); ok {
			h.documents.Update(uri, doc.Version, *params.Text)
		}
	}
	h.watcher.Forget(uri)
	h.analyzeAndPublish(context.Background(), uri)
	return nil
}

func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	h.remember(ctx)
	uri := params.TextDocument.URI
	h.documents.Close(uri)
	h.watcher.Forget(uri)
	h.mu.Lock()
	delete(h.results, uri)
	h.mu.Unlock()
	h.publish(uri, nil, []protocol.Diagnostic{})
	return nil
}

func (h *Handler) TextDocumentCodeAction(ctx *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	h.remember(ctx)
	uri := params.TextDocument.URI
	doc, ok := h.documents.Get(uri)
	if !ok {
		return []protocol.CodeAction{}, nil
	}
	h.mu.Lock()
	entry, ok := h.results[uri]
	h.mu.Unlock()
	if !ok || entry.version != doc.Version {
		return []protocol.CodeAction{}, nil
	}
	return CodeActions(doc, entry.violations, params.Range, h.engine.Severity), nil
}

func (h *Handler) root() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rootPath
}

// analyzeAndPublish analyzes the open document at uri and publishes its
// diagnostics. Results for a version that was superseded during analysis
// are dropped.
func (h *Handler) analyzeAndPublish(ctx context.Context, uri protocol.DocumentUri) {
	doc, ok := h.documents.Get(uri)
	if !ok {
		return
	}
	path := doc.Path()
	if !Watchable(path, h.config.Watcher.IgnorePatterns) {
		return
	}

	res, err := h.engine.AnalyzeDocument(ctx, path, doc.Text)
	if err != nil {
		h.logger.Error("analysis failed", "uri", uri, "err", err)
		return
	}
	if current, ok := h.documents.Get(uri); !ok || current.Version != doc.Version {
		h.logger.Debug("dropping stale analysis", "uri", uri, "version", doc.Version)
		return
	}

	h.mu.Lock()
	h.results[uri] = resultEntry{version: doc.Version, violations: res.Violations}
	h.mu.Unlock()

	version := doc.Version
	h.publish(uri, &version, Diagnostics(res, doc.Text, h.engine.Severity))
}

func (h *Handler) publish(uri protocol.DocumentUri, version *protocol.Integer, diags []protocol.Diagnostic) {
	var v *protocol.UInteger
	if version != nil && *version >= 0 {
		u := protocol.UInteger(*version)
		v = &u
	}
	h.send(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Version:     v,
		Diagnostics: diags,
	})
}

// applyChange applies an incremental edit. A change without a range
// replaces the whole text.
func applyChange(text string, c protocol.TextDocumentContentChangeEvent) string {
	if c.Range == nil {
		return c.Text
	}
	start := offsetOf(text, c.Range.Start)
	end := offsetOf(text, c.Range.End)
	if end < start {
		start, end = end, start
	}
	return text[:start] + c.Text + text[end:]
}

// offsetOf converts an LSP position in UTF-16 code units to a byte offset.
func offsetOf(text string, pos protocol.Position) int {
	offset := 0
	for line := protocol.UInteger(0); line < pos.Line; line++ {
		i := strings.IndexByte(text[offset:], '\n')
		if i < 0 {
			return len(text)
		}
		offset += i + 1
	}
	units := protocol.UInteger(0)
	for i, r := range text[offset:] {
		if units >= pos.Character || r == '\n' {
			return offset + i
		}
		if r >= 0x10000 {
			units += 2
		} else {
			units++
		}
	}
	return len(text)
}
