package main

import (
	"encoding/json"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/chris-regnier/chisel/internal/review"
	"github.com/chris-regnier/chisel/internal/sarif"
	"github.com/chris-regnier/chisel/internal/store"
)

var (
	flagReviewResult string
	flagReviewOutput string
	flagReviewRoot   string
)

func init() {
	reviewCmd := &cobra.Command{
		Use:   "review [sarif-file]",
		Short: "Triage violations in an interactive terminal UI",
		Long: `Browse the violations of a stored run, or of a SARIF file, with the source
around each one. Accept or reject violations; decisions are saved next to the
stored run (or beside the SARIF file) and restored on the next review.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runReview,
	}

	reviewCmd.Flags().StringVar(&flagReviewResult, "result", "", "Result ID to review (default: most recent)")
	reviewCmd.Flags().StringVar(&flagReviewOutput, "output", ".chisel/results", "Directory containing stored results")
	reviewCmd.Flags().StringVar(&flagReviewRoot, "root", ".", "Directory that relative source paths are resolved against")

	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	log, resultID, statePath, err := loadReviewTarget(cmd, args)
	if err != nil {
		return err
	}

	model := review.NewModel(log,
		review.WithRoot(flagReviewRoot),
		review.WithState(resultID, statePath),
	)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("review UI: %w", err)
	}
	return nil
}

// loadReviewTarget returns the log to review, its ID and where triage
// decisions are kept.
func loadReviewTarget(cmd *cobra.Command, args []string) (*sarif.Log, string, string, error) {
	if len(args) == 1 {
		log, err := loadSARIF(args[0])
		if err != nil {
			return nil, "", "", fmt.Errorf("loading SARIF: %w", err)
		}
		return log, args[0], args[0] + ".review.json", nil
	}

	fs := store.NewFileStore(flagReviewOutput)
	id := flagReviewResult
	if id == "" {
		latest, err := fs.Latest(cmd.Context())
		if err != nil {
			return nil, "", "", fmt.Errorf("finding latest result in %s: %w", flagReviewOutput, err)
		}
		id = latest
	}
	log, err := fs.ReadSARIF(cmd.Context(), id)
	if err != nil {
		return nil, "", "", fmt.Errorf("reading result %s: %w", id, err)
	}
	return log, id, fs.Path(id, "review.json"), nil
}

func loadSARIF(path string) (*sarif.Log, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var log sarif.Log
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, err
	}
	return &log, nil
}
