package review

import (
	"encoding/json"
	"os"
	"os/user"
	"path/filepath"
	"time"
)

// ReviewState represents persisted review state
type ReviewState struct {
	ResultID   string                   `json:"result_id"`
	ReviewedAt string                   `json:"reviewed_at"`
	Reviewer   string                   `json:"reviewer"`
	Findings   map[string]FindingReview `json:"findings"`
}

// FindingReview represents review status for a single finding
type FindingReview struct {
	Status string `json:"status"`
}

// SaveReviewState saves the review model state to a JSON file
func SaveReviewState(m *Model, resultID string, path string) error {
	state := ReviewState{
		ResultID:   resultID,
		ReviewedAt: time.Now().UTC().Format(time.RFC3339),
		Reviewer:   reviewer(),
		Findings:   make(map[string]FindingReview, len(m.status)),
	}
	for id, status := range m.status {
		state.Findings[id] = FindingReview{Status: status}
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

// LoadReviewState loads review state from a JSON file
func LoadReviewState(path string) (*ReviewState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var state ReviewState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (m *Model) applyState(state *ReviewState) {
	for id, f := range state.Findings {
		if f.Status == StatusAccepted || f.Status == StatusRejected {
			m.status[id] = f.Status
		}
	}
}

func reviewer() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}
