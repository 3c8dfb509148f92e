package tui

import (
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/exp/teatest/v2"
	"github.com/evanschultz/kanboard/internal/domain"
)

// TestModelWithTeatest verifies the board renders and quits cleanly.
func TestModelWithTeatest(t *testing.T) {
	svc := newFakeService(testColumns(t), []domain.Card{testCard(t, "c1", "todo", "First card")})
	tm := teatest.NewTestModel(t, NewModel(svc), teatest.WithInitialTermSize(120, 35))
	t.Cleanup(func() {
		_ = tm.Quit()
	})

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return strings.Contains(string(out), "First card")
	}, teatest.WithDuration(2*time.Second), teatest.WithCheckInterval(10*time.Millisecond))

	tm.Send(tea.KeyPressMsg{Code: 'q', Text: "q"})
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))
}

// TestModelWithTeatestKeyboardDrag drives a full keyboard drag through the program loop.
func TestModelWithTeatestKeyboardDrag(t *testing.T) {
	svc := newFakeService(testColumns(t), []domain.Card{testCard(t, "c1", "todo", "Drag me")})
	tm := teatest.NewTestModel(t, NewModel(svc), teatest.WithInitialTermSize(120, 35))
	t.Cleanup(func() {
		_ = tm.Quit()
	})

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return strings.Contains(string(out), "Drag me")
	}, teatest.WithDuration(2*time.Second), teatest.WithCheckInterval(10*time.Millisecond))

	tm.Send(tea.KeyPressMsg{Code: tea.KeySpace, Text: " "})
	tm.Send(tea.KeyPressMsg{Code: tea.KeyRight})
	tm.Send(tea.KeyPressMsg{Code: tea.KeyEnter})

	tm.Send(tea.KeyPressMsg{Code: 'q', Text: "q"})
	final, ok := tm.FinalModel(t, teatest.WithFinalTimeout(2*time.Second)).(Model)
	if !ok {
		t.Fatal("expected final Model")
	}
	if final.board.Dragging() {
		t.Fatal("expected drag to be finished")
	}
	if got := statusOf(t, final, "c1"); got != "progress" {
		t.Fatalf("expected card in progress, got %q", got)
	}
}

// TestModelWithTeatestWIPWarning verifies WIP warnings reach the terminal.
func TestModelWithTeatestWIPWarning(t *testing.T) {
	cols := testColumns(t)
	cols[0].WIPLimit = 1
	svc := newFakeService(cols, []domain.Card{
		testCard(t, "a", "todo", "First"),
		testCard(t, "b", "todo", "Second"),
	})
	tm := teatest.NewTestModel(t, NewModel(svc, WithBoardConfig(BoardConfig{ShowWIPWarnings: true})), teatest.WithInitialTermSize(140, 35))
	t.Cleanup(func() {
		_ = tm.Quit()
	})

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return strings.Contains(string(out), "WIP limit exceeded")
	}, teatest.WithDuration(2*time.Second), teatest.WithCheckInterval(10*time.Millisecond))

	tm.Send(tea.KeyPressMsg{Code: 'q', Text: "q"})
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))
}
