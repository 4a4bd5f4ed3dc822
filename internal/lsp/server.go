// Package lsp serves chisel diagnostics and quick fixes over the Language
// Server Protocol.
package lsp

import (
	"log/slog"
	"time"

	glspServer "github.com/tliron/glsp/server"

	"github.com/chris-regnier/chisel/internal/config"
)

const serverName = "chisel-lsp"

// ServerConfig configures the language server.
type ServerConfig struct {
	Watcher WatcherConfig
	Version string
	Logger  *slog.Logger
}

// ServerConfigFromConfig builds a ServerConfig from the lsp section of the
// chisel configuration. Unset fields keep their defaults.
func ServerConfigFromConfig(cfg config.LSPConfig) ServerConfig {
	w := DefaultWatcherConfig()
	if d, err := time.ParseDuration(cfg.Debounce); err == nil && d > 0 {
		w.Debounce = d
	}
	if cfg.ParallelFiles > 0 {
		w.ParallelFiles = cfg.ParallelFiles
	}
	if len(cfg.Ignore) > 0 {
		w.IgnorePatterns = cfg.Ignore
	}
	return ServerConfig{Watcher: w}
}

// Server is the chisel language server.
type Server struct {
	handler *Handler
	server  *glspServer.Server
}

// NewServer creates a server that analyzes documents with engine.
func NewServer(engine Engine, cfg ServerConfig) *Server {
	h := NewHandler(engine, cfg)
	return &Server{
		handler: h,
		server:  glspServer.NewServer(h.Protocol(), serverName, false),
	}
}

// Handler returns the request handler.
func (s *Server) Handler() *Handler { return s.handler }

// RunStdio serves a single client over stdin and stdout.
func (s *Server) RunStdio() error {
	defer s.handler.watcher.Stop()
	return s.server.RunStdio()
}

// RunTCP listens for clients on address.
func (s *Server) RunTCP(address string) error {
	defer s.handler.watcher.Stop()
	return s.server.RunTCP(address)
}
