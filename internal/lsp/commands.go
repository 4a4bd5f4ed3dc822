package lsp

import (
	"context"
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/chris-regnier/chisel/internal/analyzer"
	"github.com/chris-regnier/chisel/internal/input"
)

// Commands accepted by workspace/executeCommand.
const (
	CommandAnalyzeFile      = "chisel.analyzeFile"
	CommandAnalyzeWorkspace = "chisel.analyzeWorkspace"
	CommandClearDiagnostics = "chisel.clearDiagnostics"
)

// Commands lists the commands the server advertises.
func Commands() []string {
	return []string{CommandAnalyzeFile, CommandAnalyzeWorkspace, CommandClearDiagnostics}
}

// CommandResult is returned from every command.
type CommandResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func (h *Handler) WorkspaceExecuteCommand(ctx *glsp.Context, params *protocol.ExecuteCommandParams) (any, error) {
	h.remember(ctx)
	bg := context.Background()
	switch params.Command {
	case CommandAnalyzeFile:
		return h.analyzeFile(bg, params.Arguments), nil
	case CommandAnalyzeWorkspace:
		var notify glsp.NotifyFunc
		if ctx != nil {
			notify = ctx.Notify
		}
		return h.analyzeWorkspace(bg, notify, params.WorkDoneToken), nil
	case CommandClearDiagnostics:
		return h.clearDiagnostics(), nil
	default:
		return nil, fmt.Errorf("unknown command: %s", params.Command)
	}
}

func (h *Handler) analyzeFile(ctx context.Context, args []any) *CommandResult {
	if len(args) < 1 {
		return &CommandResult{Message: "file URI argument required"}
	}
	uri, ok := args[0].(string)
	if !ok {
		return &CommandResult{Message: "file URI must be a string"}
	}
	if _, ok := h.documents.Get(uri); !ok {
		return &CommandResult{Message: fmt.Sprintf("document not open: %s", uri)}
	}
	h.watcher.Forget(uri)
	h.analyzeAndPublish(ctx, uri)
	return &CommandResult{Success: true, Message: fmt.Sprintf("Analyzed %s", uri)}
}

// analyzeWorkspace analyzes every supported file under the workspace root.
// Open documents are analyzed from their editor contents; without a root
// only open documents are analyzed.
func (h *Handler) analyzeWorkspace(ctx context.Context, notify glsp.NotifyFunc, token *protocol.ProgressToken) *CommandResult {
	ignore := h.config.Watcher.IgnorePatterns
	open := make(map[protocol.DocumentUri]bool)
	var openURIs []protocol.DocumentUri
	for _, uri := range h.documents.URIs() {
		if Watchable(uriToPath(uri), ignore) {
			open[uri] = true
			openURIs = append(openURIs, uri)
		}
	}

	var artifacts []input.Artifact
	var results []analyzer.FileResult
	if root := h.root(); root != "" {
		var err error
		artifacts, results, err = h.engine.AnalyzeDir(ctx, root)
		if err != nil {
			h.logger.Error("workspace analysis failed", "root", root, "err", err)
			return &CommandResult{Message: fmt.Sprintf("workspace analysis failed: %v", err)}
		}
	}

	var disk []int
	for i, art := range artifacts {
		if !open[pathToURI(art.Path)] && Watchable(art.Path, ignore) {
			disk = append(disk, i)
		}
	}

	p := newProgress(notify, token, len(disk)+len(openURIs))
	p.Begin("Analyzing workspace")
	done := 0
	for _, i := range disk {
		uri := pathToURI(artifacts[i].Path)
		h.mu.Lock()
		h.results[uri] = resultEntry{version: -1, violations: results[i].Violations}
		h.mu.Unlock()
		h.publish(uri, nil, Diagnostics(results[i], artifacts[i].Content, h.engine.Severity))
		done++
		p.Report(done)
	}
	for _, uri := range openURIs {
		h.watcher.Forget(uri)
		h.analyzeAndPublish(ctx, uri)
		done++
		p.Report(done)
	}
	message := fmt.Sprintf("Analyzed %d files", done)
	p.End(message)

	return &CommandResult{
		Success: true,
		Message: message,
		Data:    map[string]int{"filesAnalyzed": done},
	}
}

func (h *Handler) clearDiagnostics() *CommandResult {
	h.mu.Lock()
	uris := make([]protocol.DocumentUri, 0, len(h.results))
	for uri := range h.results {
		uris = append(uris, uri)
	}
	h.results = make(map[protocol.DocumentUri]resultEntry)
	h.mu.Unlock()

	for _, uri := range uris {
		h.publish(uri, nil, []protocol.Diagnostic{})
	}
	return &CommandResult{Success: true, Message: fmt.Sprintf("Cleared diagnostics for %d files", len(uris))}
}
