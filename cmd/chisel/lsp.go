package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/chisel/internal/analyzer"
	"github.com/chris-regnier/chisel/internal/astcheck"
	"github.com/chris-regnier/chisel/internal/input"
	"github.com/chris-regnier/chisel/internal/lsp"
)

var (
	flagLSPConfig      string
	flagLSPCacheDir    string
	flagLSPRemoteCache string
	flagLSPTCP         string
)

func init() {
	lspCmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the language server",
		Long: `Start a Language Server Protocol server that publishes chisel violations as
diagnostics while files are edited and offers quick fixes for trailing commas
and redundant type arguments. Serves stdio unless --tcp is given.`,
		Args: cobra.NoArgs,
		RunE: runLSP,
	}

	f := lspCmd.Flags()
	f.StringVar(&flagLSPConfig, "config", "", "Project config file (default .chisel/chisel.yaml)")
	f.StringVar(&flagLSPCacheDir, "cache-dir", defaultLSPCacheDir(), "Local cache directory")
	f.StringVar(&flagLSPRemoteCache, "remote-cache", "", "Base URL of a shared cache server")
	f.StringVar(&flagLSPTCP, "tcp", "", "Listen on this address instead of stdio")

	rootCmd.AddCommand(lspCmd)
}

func defaultLSPCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cache", "chisel")
}

func runLSP(cmd *cobra.Command, _ []string) error {
	reg := astcheck.DefaultRegistry()
	cfg, plan, err := loadConfig(flagLSPConfig, reg)
	if err != nil {
		return err
	}

	mgr := buildCache(context.Background(), analyzeFlags{
		cacheDir:    flagLSPCacheDir,
		remoteCache: flagLSPRemoteCache,
	})
	a := analyzer.New(plan,
		analyzer.WithCache(mgr),
		analyzer.WithEngineVersion(version),
	)
	engine := lsp.NewAnalyzerEngine(a, input.NewHandler(), cfg.Severity)

	serverCfg := lsp.ServerConfigFromConfig(cfg.LSP)
	serverCfg.Version = version
	server := lsp.NewServer(engine, serverCfg)

	if flagLSPTCP != "" {
		return server.RunTCP(flagLSPTCP)
	}
	return server.RunStdio()
}
