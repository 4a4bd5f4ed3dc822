package lsp

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/chris-regnier/chisel/internal/analyzer"
	"github.com/chris-regnier/chisel/internal/astcheck"
	"github.com/chris-regnier/chisel/internal/config"
	"github.com/chris-regnier/chisel/internal/input"
)

const (
	withComma    = "enum E { A, B, }\n"
	withoutComma = "enum E { A, B }\n"
	unparseable  = "class C {\n    void m( {\n}\n"
)

type notification struct {
	method string
	params any
}

type client struct {
	mu    sync.Mutex
	calls []notification
}

func (c *client) notify(method string, params any) {
	c.mu.Lock()
	c.calls = append(c.calls, notification{method, params})
	c.mu.Unlock()
}

func (c *client) reset() {
	c.mu.Lock()
	c.calls = nil
	c.mu.Unlock()
}

func (c *client) published() []protocol.PublishDiagnosticsParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []protocol.PublishDiagnosticsParams
	for _, n := range c.calls {
		if n.method == protocol.ServerTextDocumentPublishDiagnostics {
			out = append(out, n.params.(protocol.PublishDiagnosticsParams))
		}
	}
	return out
}

func (c *client) last(t *testing.T) protocol.PublishDiagnosticsParams {
	t.Helper()
	all := c.published()
	require.NotEmpty(t, all)
	return all[len(all)-1]
}

func (c *client) progress() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []any
	for _, n := range c.calls {
		if n.method == protocol.ServerProgress {
			out = append(out, n.params.(protocol.ProgressParams).Value)
		}
	}
	return out
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestHandler(t *testing.T) (*Handler, *client, *glsp.Context) {
	t.Helper()
	plan, err := astcheck.DefaultRegistry().Plan([]astcheck.Settings{{Name: "no-trailing-comma"}})
	require.NoError(t, err)
	a := analyzer.New(plan, analyzer.WithWorkers(1), analyzer.WithLogger(discard()))
	engine := NewAnalyzerEngine(a, input.NewHandler(), func(string) string { return "error" })

	cfg := ServerConfigFromConfig(config.LSPConfig{})
	cfg.Watcher.Debounce = time.Hour
	cfg.Logger = discard()
	cfg.Version = "test"
	h := NewHandler(engine, cfg)
	t.Cleanup(h.watcher.Stop)

	c := &client{}
	return h, c, &glsp.Context{Notify: c.notify}
}

func open(t *testing.T, h *Handler, ctx *glsp.Context, uri, text string) {
	t.Helper()
	require.NoError(t, h.TextDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, LanguageID: "java", Version: 1, Text: text},
	}))
}

func TestInitialize(t *testing.T) {
	h, _, ctx := newTestHandler(t)
	root := pathToURI(t.TempDir())

	res, err := h.Initialize(ctx, &protocol.InitializeParams{RootURI: &root})
	require.NoError(t, err)
	result, ok := res.(protocol.InitializeResult)
	require.True(t, ok)

	assert.Equal(t, "chisel-lsp", result.ServerInfo.Name)
	assert.Equal(t, "test", *result.ServerInfo.Version)
	syncOpts, ok := result.Capabilities.TextDocumentSync.(protocol.TextDocumentSyncOptions)
	require.True(t, ok)
	assert.Equal(t, protocol.TextDocumentSyncKindFull, *syncOpts.Change)
	assert.Equal(t, Commands(), result.Capabilities.ExecuteCommandProvider.Commands)
	assert.Equal(t, uriToPath(root), h.root())

	require.NoError(t, h.Initialized(ctx, &protocol.InitializedParams{}))
	require.NoError(t, h.SetTrace(ctx, &protocol.SetTraceParams{Value: protocol.TraceValueVerbose}))
	require.NoError(t, h.Shutdown(ctx))
}

func TestDidOpenPublishesDiagnostics(t *testing.T) {
	h, c, ctx := newTestHandler(t)
	open(t, h, ctx, "file:///ws/E.java", withComma)

	pub := c.last(t)
	assert.Equal(t, "file:///ws/E.java", pub.URI)
	require.NotNil(t, pub.Version)
	assert.Equal(t, protocol.UInteger(1), *pub.Version)
	require.Len(t, pub.Diagnostics, 1)

	d := pub.Diagnostics[0]
	assert.Equal(t, "no-trailing-comma", d.Code.Value)
	assert.Equal(t, protocol.DiagnosticSeverityError, *d.Severity)
	assert.Equal(t, protocol.Range{Start: at(0, 13), End: at(0, 14)}, d.Range)
}

func TestDidOpenParseError(t *testing.T) {
	h, c, ctx := newTestHandler(t)
	open(t, h, ctx, "file:///ws/C.java", unparseable)

	pub := c.last(t)
	require.Len(t, pub.Diagnostics, 1)
	assert.Equal(t, CodeParseError, pub.Diagnostics[0].Code.Value)
}

func TestDidOpenIgnoredFile(t *testing.T) {
	h, c, ctx := newTestHandler(t)
	open(t, h, ctx, "file:///ws/target/E.java", withComma)
	open(t, h, ctx, "file:///ws/notes.txt", "hello")
	assert.Empty(t, c.published())
}

func TestDidChangeIsDebounced(t *testing.T) {
	h, c, ctx := newTestHandler(t)
	open(t, h, ctx, "file:///ws/E.java", withComma)
	before := len(c.published())

	require.NoError(t, h.TextDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: "file:///ws/E.java"},
			Version:                2,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: withoutComma}},
	}))
	assert.Len(t, c.published(), before, "analysis waits for the quiet period")

	h.watcher.Flush()
	pub := c.last(t)
	assert.Equal(t, protocol.UInteger(2), *pub.Version)
	assert.Empty(t, pub.Diagnostics)
}

func TestDidChangeIncremental(t *testing.T) {
	h, c, ctx := newTestHandler(t)
	open(t, h, ctx, "file:///ws/E.java", withoutComma)

	require.NoError(t, h.TextDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: "file:///ws/E.java"},
			Version:                2,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEvent{
			Range: &protocol.Range{Start: at(0, 13), End: at(0, 13)},
			Text:  ",",
		}},
	}))
	doc, _ := h.documents.Get("file:///ws/E.java")
	assert.Equal(t, withComma, doc.Text)

	h.watcher.Flush()
	assert.Len(t, c.last(t).Diagnostics, 1)
}

func TestDidSaveAnalyzesImmediately(t *testing.T) {
	h, c, ctx := newTestHandler(t)
	open(t, h, ctx, "file:///ws/E.java", withComma)

	text := withoutComma
	require.NoError(t, h.TextDocumentDidSave(ctx, &protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///ws/E.java"},
		Text:         &text,
	}))
	assert.Empty(t, c.last(t).Diagnostics)
}

func TestDidCloseClearsDiagnostics(t *testing.T) {
	h, c, ctx := newTestHandler(t)
	open(t, h, ctx, "file:///ws/E.java", withComma)

	require.NoError(t, h.TextDocumentDidClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///ws/E.java"},
	}))
	pub := c.last(t)
	assert.Equal(t, "file:///ws/E.java", pub.URI)
	assert.NotNil(t, pub.Diagnostics)
	assert.Empty(t, pub.Diagnostics)
	assert.Equal(t, 0, h.documents.Count())
}

func TestCodeActionUsesLatestResults(t *testing.T) {
	h, _, ctx := newTestHandler(t)
	open(t, h, ctx, "file:///ws/E.java", withComma)

	params := &protocol.CodeActionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///ws/E.java"},
		Range:        protocol.Range{Start: at(0, 13), End: at(0, 13)},
	}
	res, err := h.TextDocumentCodeAction(ctx, params)
	require.NoError(t, err)
	actions := res.([]protocol.CodeAction)
	require.Len(t, actions, 1)
	assert.Equal(t, "Remove trailing comma", actions[0].Title)

	// Results for an older version are not offered.
	h.documents.Update("file:///ws/E.java", 2, withComma)
	res, err = h.TextDocumentCodeAction(ctx, params)
	require.NoError(t, err)
	assert.Empty(t, res)

	params.TextDocument.URI = "file:///ws/Missing.java"
	res, err = h.TextDocumentCodeAction(ctx, params)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestApplyChange(t *testing.T) {
	text := "ab\ncé😀d\n"
	edit := func(sl, sc, el, ec protocol.UInteger, s string) string {
		return applyChange(text, protocol.TextDocumentContentChangeEvent{
			Range: &protocol.Range{Start: at(sl, sc), End: at(el, ec)},
			Text:  s,
		})
	}
	assert.Equal(t, "aXb\ncé😀d\n", edit(0, 1, 0, 1, "X"))
	assert.Equal(t, "ab\ncé😀Yd\n", edit(1, 4, 1, 4, "Y"), "the emoji is two units")
	assert.Equal(t, "aZé😀d\n", edit(0, 1, 1, 1, "Z"))
	assert.Equal(t, "ab\ncé😀d\n!", edit(5, 0, 5, 0, "!"))
	assert.Equal(t, "new", applyChange(text, protocol.TextDocumentContentChangeEvent{Text: "new"}))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestAnalyzeWorkspaceCommand(t *testing.T) {
	h, c, ctx := newTestHandler(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "E.java"), withComma)
	writeFile(t, filepath.Join(dir, "src", "F.java"), withoutComma)
	writeFile(t, filepath.Join(dir, "target", "G.java"), withComma)

	root := pathToURI(dir)
	_, err := h.Initialize(ctx, &protocol.InitializeParams{RootURI: &root})
	require.NoError(t, err)

	// The open copy of F has unsaved edits that add a comma.
	fURI := pathToURI(filepath.Join(dir, "src", "F.java"))
	open(t, h, ctx, fURI, withComma)
	c.reset()

	token := protocol.ProgressToken{Value: "scan-1"}
	res, err := h.WorkspaceExecuteCommand(ctx, &protocol.ExecuteCommandParams{
		WorkDoneProgressParams: protocol.WorkDoneProgressParams{WorkDoneToken: &token},
		Command:                CommandAnalyzeWorkspace,
	})
	require.NoError(t, err)
	result := res.(*CommandResult)
	assert.True(t, result.Success)
	assert.Equal(t, map[string]int{"filesAnalyzed": 2}, result.Data)

	byURI := map[string]int{}
	for _, p := range c.published() {
		byURI[p.URI] = len(p.Diagnostics)
	}
	assert.Equal(t, map[string]int{
		pathToURI(filepath.Join(dir, "src", "E.java")): 1,
		fURI: 1,
	}, byURI)

	events := c.progress()
	require.Len(t, events, 4)
	assert.Equal(t, "begin", events[0].(progressBegin).Kind)
	assert.Equal(t, uint32(50), events[1].(progressReport).Percentage)
	assert.Equal(t, uint32(100), events[2].(progressReport).Percentage)
	assert.Equal(t, "Analyzed 2 files", events[3].(progressEnd).Message)
}

func TestAnalyzeFileCommand(t *testing.T) {
	h, c, ctx := newTestHandler(t)
	open(t, h, ctx, "file:///ws/E.java", withComma)
	before := len(c.published())

	res, err := h.WorkspaceExecuteCommand(ctx, &protocol.ExecuteCommandParams{
		Command:   CommandAnalyzeFile,
		Arguments: []any{"file:///ws/E.java"},
	})
	require.NoError(t, err)
	assert.True(t, res.(*CommandResult).Success)
	assert.Len(t, c.published(), before+1)

	res, _ = h.WorkspaceExecuteCommand(ctx, &protocol.ExecuteCommandParams{Command: CommandAnalyzeFile})
	assert.False(t, res.(*CommandResult).Success)
	res, _ = h.WorkspaceExecuteCommand(ctx, &protocol.ExecuteCommandParams{
		Command:   CommandAnalyzeFile,
		Arguments: []any{"file:///ws/Closed.java"},
	})
	assert.False(t, res.(*CommandResult).Success)
}

func TestClearDiagnosticsCommand(t *testing.T) {
	h, c, ctx := newTestHandler(t)
	open(t, h, ctx, "file:///ws/E.java", withComma)

	res, err := h.WorkspaceExecuteCommand(ctx, &protocol.ExecuteCommandParams{Command: CommandClearDiagnostics})
	require.NoError(t, err)
	assert.True(t, res.(*CommandResult).Success)
	assert.Empty(t, c.last(t).Diagnostics)
}

func TestUnknownCommand(t *testing.T) {
	h, _, ctx := newTestHandler(t)
	_, err := h.WorkspaceExecuteCommand(ctx, &protocol.ExecuteCommandParams{Command: "chisel.nope"})
	assert.ErrorContains(t, err, "unknown command")
}

func TestServerConfigFromConfig(t *testing.T) {
	cfg := ServerConfigFromConfig(config.LSPConfig{Debounce: "1s", ParallelFiles: 8, Ignore: []string{"**/gen/**"}})
	assert.Equal(t, time.Second, cfg.Watcher.Debounce)
	assert.Equal(t, 8, cfg.Watcher.ParallelFiles)
	assert.Equal(t, []string{"**/gen/**"}, cfg.Watcher.IgnorePatterns)

	defaults := ServerConfigFromConfig(config.LSPConfig{Debounce: "soon"})
	assert.Equal(t, DefaultWatcherConfig(), defaults.Watcher)
}
