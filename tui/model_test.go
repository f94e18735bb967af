package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"go-stepgrid/sequencer"
	"go-stepgrid/theme"
)

func newTestModel() Model {
	cfg := sequencer.DefaultManagerConfig()
	return NewModel(sequencer.NewManager(cfg), nil, theme.New(nil))
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestSpaceTogglesCursorPad(t *testing.T) {
	m := newTestModel()
	// move to the top band, which shows the first steps
	m = press(m, tea.KeyMsg{Type: tea.KeyUp}, tea.KeyMsg{Type: tea.KeyUp}, tea.KeyMsg{Type: tea.KeyUp}, tea.KeyMsg{Type: tea.KeyUp})
	m = press(m, tea.KeyMsg{Type: tea.KeySpace})

	clip := m.Manager.Clip()
	got := clip.GetStep(0, 0, 36)
	if got.State != sequencer.StateNoteStart || got.Velocity != keyboardVelocity {
		t.Fatalf("step after space: %+v", got)
	}

	m = press(m, tea.KeyMsg{Type: tea.KeySpace})
	if clip.GetStep(0, 0, 36).IsSet() {
		t.Fatal("second tap did not clear the step")
	}
}

func TestHoldAndTapExtends(t *testing.T) {
	m := newTestModel()
	m.cursorY = 4

	m = press(m, tea.KeyMsg{Type: tea.KeySpace}, runes("l"))
	if m.heldPad != 32 {
		t.Fatalf("held pad %d", m.heldPad)
	}
	m = press(m, tea.KeyMsg{Type: tea.KeyRight}, tea.KeyMsg{Type: tea.KeyRight}, tea.KeyMsg{Type: tea.KeySpace})
	if m.heldPad != -1 {
		t.Fatal("held pad not released after the tap")
	}

	got := m.Manager.Clip().GetStep(0, 0, 36)
	if got.Duration != 0.75 {
		t.Fatalf("extended duration %v, want 0.75", got.Duration)
	}
}

func TestDuplicateLatch(t *testing.T) {
	m := newTestModel()
	m.cursorY = 4
	m = press(m, tea.KeyMsg{Type: tea.KeySpace}, runes("d"))
	if !m.Manager.DuplicateHeld() {
		t.Fatal("duplicate not latched")
	}

	m = press(m, tea.KeyMsg{Type: tea.KeySpace}, tea.KeyMsg{Type: tea.KeyRight}, tea.KeyMsg{Type: tea.KeySpace}, runes("d"))
	if m.Manager.DuplicateHeld() {
		t.Fatal("duplicate still latched")
	}
	if !m.Manager.Clip().GetStep(0, 1, 36).IsSet() {
		t.Fatal("note not pasted")
	}
}

func TestViewShowsState(t *testing.T) {
	m := newTestModel()
	m = press(m, runes("a"), runes("2"))

	out := m.View()
	for _, want := range []string{"go-stepgrid", "STOP", "accent 127", "offset 4", "Offset: 4"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m = press(m, runes("?"))
	if !strings.Contains(m.View(), "lane group") {
		t.Error("help not shown")
	}

	next, cmd := m.Update(runes("q"))
	if cmd == nil || next.(Model).View() != "" {
		t.Error("quit did not end the program")
	}
}
