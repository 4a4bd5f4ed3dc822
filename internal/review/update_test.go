package review

import (
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}
	return m
}

func TestUpdate_NextAndPrevious(t *testing.T) {
	m := *NewModel(testLog())

	m = press(t, m, "n")
	if m.currentFinding != 1 {
		t.Errorf("expected currentFinding=1, got %d", m.currentFinding)
	}
	m = press(t, m, "n", "n")
	if m.currentFinding != 0 {
		t.Errorf("expected wrap to 0, got %d", m.currentFinding)
	}
	m = press(t, m, "p")
	if m.currentFinding != 2 {
		t.Errorf("expected wrap to 2, got %d", m.currentFinding)
	}
}

func TestUpdate_AcceptRejectUndo(t *testing.T) {
	m := *NewModel(testLog())

	m = press(t, m, "a")
	id := "empty-catch-block:src/A.java:3:9"
	if m.status[id] != StatusAccepted {
		t.Errorf("expected %s accepted, got %q", id, m.status[id])
	}

	m = press(t, m, "r")
	if m.status[id] != StatusRejected {
		t.Errorf("expected %s rejected, got %q", id, m.status[id])
	}

	m = press(t, m, "u")
	if _, ok := m.status[id]; ok {
		t.Error("expected undo to clear the decision")
	}
}

func TestUpdate_FilterMarksVisibleFinding(t *testing.T) {
	m := *NewModel(testLog())
	m = press(t, m, "n", "e")
	if m.currentFinding != 0 {
		t.Errorf("filter should reset selection, got %d", m.currentFinding)
	}
	m = press(t, m, "a")
	if m.status["empty-catch-block:src/A.java:3:9"] != StatusAccepted {
		t.Error("expected the only error to be accepted")
	}
	m = press(t, m, "f")
	if m.filter != FilterAll {
		t.Error("expected filter reset to all")
	}
}

func TestUpdate_JumpFile(t *testing.T) {
	m := *NewModel(testLog())
	m = press(t, m, "j")
	if r, _ := m.current(); resultPath(r) != "src/B.java" {
		t.Errorf("expected src/B.java, got %s", resultPath(r))
	}
	m = press(t, m, "j")
	if m.currentFinding != 0 {
		t.Errorf("expected wrap to the first file, got %d", m.currentFinding)
	}
	m = press(t, m, "k")
	if r, _ := m.current(); resultPath(r) != "src/B.java" {
		t.Errorf("expected src/B.java, got %s", resultPath(r))
	}
}

func TestUpdate_SwitchPane(t *testing.T) {
	m := *NewModel(testLog())
	m = press(t, m, "tab")
	if m.activePane != PaneCode {
		t.Errorf("expected code pane, got %d", m.activePane)
	}
	m = press(t, m, "tab", "tab")
	if m.activePane != PaneFiles {
		t.Errorf("expected wrap to files pane, got %d", m.activePane)
	}
}

func TestUpdate_QuitSavesState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "review.json")
	m := *NewModel(testLog(), WithState("run-1", path))
	m = press(t, m, "n", "r")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}

	state, err := LoadReviewState(path)
	if err != nil {
		t.Fatalf("LoadReviewState failed: %v", err)
	}
	if state.ResultID != "run-1" {
		t.Errorf("expected result ID run-1, got %s", state.ResultID)
	}
	if got := state.Findings["no-trailing-comma:src/A.java:5:14"].Status; got != StatusRejected {
		t.Errorf("expected rejected, got %q", got)
	}
}

func TestUpdate_WindowSize(t *testing.T) {
	m := *NewModel(testLog())
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = updated.(Model)
	if m.width != 120 || m.height != 40 {
		t.Errorf("expected 120x40, got %dx%d", m.width, m.height)
	}
}
