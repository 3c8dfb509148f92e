package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/evanschultz/kanboard/internal/app"
	"github.com/evanschultz/kanboard/internal/domain"
	"github.com/evanschultz/kanboard/internal/kanban"
)

type statusCall struct {
	id     string
	status string
}

type fakeService struct {
	columns   []domain.Column
	cards     []domain.Card
	err       error
	statusErr error
	moves     []statusCall
	nextID    int
}

func newFakeService(columns []domain.Column, cards []domain.Card) *fakeService {
	return &fakeService{columns: columns, cards: cards}
}

func (f *fakeService) ListColumns() []domain.Column {
	return append([]domain.Column(nil), f.columns...)
}

func (f *fakeService) ListCards(context.Context) ([]domain.Card, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.Card(nil), f.cards...), nil
}

func (f *fakeService) GetCard(_ context.Context, id string) (domain.Card, error) {
	for _, c := range f.cards {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Card{}, app.ErrNotFound
}

func (f *fakeService) CreateCard(_ context.Context, in app.CreateCardInput) (domain.Card, error) {
	f.nextID++
	card, err := domain.NewCard(domain.CardInput{
		ID:       fmt.Sprintf("new-%d", f.nextID),
		Status:   in.Status,
		Position: len(f.cards),
		Title:    in.Title,
	}, time.Now().UTC())
	if err != nil {
		return domain.Card{}, err
	}
	f.cards = append(f.cards, card)
	return card, nil
}

func (f *fakeService) UpdateCardStatus(_ context.Context, id, status string) (domain.Card, error) {
	f.moves = append(f.moves, statusCall{id: id, status: status})
	if f.statusErr != nil {
		return domain.Card{}, f.statusErr
	}
	for idx := range f.cards {
		if f.cards[idx].ID != id {
			continue
		}
		// Moved cards land at the end of the destination column.
		card := f.cards[idx]
		card.Status = status
		f.cards = append(append(f.cards[:idx:idx], f.cards[idx+1:]...), card)
		return card, nil
	}
	return domain.Card{}, app.ErrNotFound
}

func testColumns(t *testing.T) []domain.Column {
	t.Helper()
	out := make([]domain.Column, 0, 3)
	for idx, def := range [][2]string{{"todo", "To Do"}, {"progress", "In Progress"}, {"done", "Done"}} {
		col, err := domain.NewColumn(def[0], def[1], idx, 0)
		if err != nil {
			t.Fatalf("NewColumn() error = %v", err)
		}
		out = append(out, col)
	}
	return out
}

func testCard(t *testing.T, id, status, title string) domain.Card {
	t.Helper()
	card, err := domain.NewCard(domain.CardInput{
		ID:       id,
		Status:   status,
		Title:    title,
		Priority: domain.PriorityLow,
	}, time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("NewCard() error = %v", err)
	}
	return card
}

func loadReadyModel(t *testing.T, m Model) Model {
	t.Helper()
	m = applyMsg(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return applyMsg(t, m, m.loadData())
}

func applyMsg(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, cmd := m.Update(msg)
	out, ok := updated.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", updated)
	}
	return applyCmd(t, out, cmd)
}

// applyCmd runs follow-up commands, expanding batches, for a bounded number
// of rounds.
func applyCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	out := m
	pending := []tea.Cmd{cmd}
	for i := 0; i < 12 && len(pending) > 0; i++ {
		current := pending[0]
		pending = pending[1:]
		if current == nil {
			continue
		}
		msg := current()
		if batch, ok := msg.(tea.BatchMsg); ok {
			pending = append(pending, batch...)
			continue
		}
		if msg == nil {
			continue
		}
		updated, next := out.Update(msg)
		casted, ok := updated.(Model)
		if !ok {
			t.Fatalf("expected Model, got %T", updated)
		}
		out = casted
		pending = append(pending, next)
	}
	return out
}

func keyPress(code rune, text string) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code, Text: text}
}

func statusOf(t *testing.T, m Model, id string) string {
	t.Helper()
	item, ok := m.board.Item(kanban.ID(id))
	if !ok {
		t.Fatalf("card %q missing from board", id)
	}
	return item.Status
}

func viewText(m Model) string {
	return m.renderView()
}

func TestModelLoadsBoardIntoColumns(t *testing.T) {
	svc := newFakeService(testColumns(t), []domain.Card{
		testCard(t, "c1", "todo", "Write docs"),
		testCard(t, "c2", "done", "Ship it"),
		testCard(t, "c3", "archived", "Old thing"),
	})
	m := loadReadyModel(t, NewModel(svc))

	buckets := m.board.Buckets()
	if buckets.Len() != 3 {
		t.Fatalf("expected 3 buckets, got %d", buckets.Len())
	}
	todo, _ := buckets.Items("todo")
	if len(todo) != 2 || todo[1].ID != "c3" {
		t.Fatalf("expected unknown status to fall back to first column, got %#v", todo)
	}
	out := viewText(m)
	for _, want := range []string{"To Do (2)", "Done (1)", "Write docs", "status: archived", "1 with unknown status"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected view to contain %q\n%s", want, out)
		}
	}
}

func TestModelLoadError(t *testing.T) {
	svc := newFakeService(testColumns(t), nil)
	svc.err = errors.New("db down")
	m := loadReadyModel(t, NewModel(svc))
	if m.err == nil || !strings.Contains(viewText(m), "db down") {
		t.Fatalf("expected load error in view, got %q", viewText(m))
	}
}

func TestKeyboardDragCommitsStatus(t *testing.T) {
	svc := newFakeService(testColumns(t), []domain.Card{
		testCard(t, "c1", "todo", "Write docs"),
	})
	m := loadReadyModel(t, NewModel(svc))

	m = applyMsg(t, m, keyPress(tea.KeySpace, " "))
	if !m.board.Dragging() || !m.keyboard.active {
		t.Fatal("expected keyboard drag to start")
	}
	m = applyMsg(t, m, keyPress(tea.KeyRight, ""))
	if got := statusOf(t, m, "c1"); got != "progress" {
		t.Fatalf("expected optimistic status progress, got %q", got)
	}
	if !strings.Contains(viewText(m), "dragging Write docs → In Progress") {
		t.Fatalf("expected drag line in view\n%s", viewText(m))
	}
	m = applyMsg(t, m, keyPress(tea.KeySpace, " "))

	if m.board.Dragging() {
		t.Fatal("expected drag to end")
	}
	if len(svc.moves) != 1 || svc.moves[0] != (statusCall{id: "c1", status: "progress"}) {
		t.Fatalf("expected one status update, got %#v", svc.moves)
	}
	if got := statusOf(t, m, "c1"); got != "progress" {
		t.Fatalf("expected reloaded status progress, got %q", got)
	}
	if m.focusColumn != 1 {
		t.Fatalf("expected focus to follow card, got column %d", m.focusColumn)
	}
}

func TestKeyboardDragCancelRestores(t *testing.T) {
	svc := newFakeService(testColumns(t), []domain.Card{
		testCard(t, "c1", "todo", "Write docs"),
	})
	m := loadReadyModel(t, NewModel(svc))

	m = applyMsg(t, m, keyPress(tea.KeySpace, " "))
	m = applyMsg(t, m, keyPress(tea.KeyRight, ""))
	m = applyMsg(t, m, keyPress(tea.KeyRight, ""))
	if got := statusOf(t, m, "c1"); got != "done" {
		t.Fatalf("expected optimistic status done, got %q", got)
	}
	m = applyMsg(t, m, keyPress(tea.KeyEscape, ""))

	if len(svc.moves) != 0 {
		t.Fatalf("expected no status updates, got %#v", svc.moves)
	}
	if got := statusOf(t, m, "c1"); got != "todo" {
		t.Fatalf("expected cancelled drag to restore todo, got %q", got)
	}
}

func TestKeyboardDropWithoutMoveCommitsNothing(t *testing.T) {
	svc := newFakeService(testColumns(t), []domain.Card{testCard(t, "c1", "todo", "Write docs")})
	m := loadReadyModel(t, NewModel(svc))
	m = applyMsg(t, m, keyPress(tea.KeySpace, " "))
	m = applyMsg(t, m, keyPress(tea.KeyEnter, ""))
	if len(svc.moves) != 0 {
		t.Fatalf("expected no commit without a target, got %#v", svc.moves)
	}
	if m.status != "drag cancelled" {
		t.Fatalf("expected cancelled status, got %q", m.status)
	}
}

func TestKeyboardVerticalHoverReorders(t *testing.T) {
	svc := newFakeService(testColumns(t), []domain.Card{
		testCard(t, "a", "todo", "A"),
		testCard(t, "b", "todo", "B"),
	})
	m := loadReadyModel(t, NewModel(svc))
	m = applyMsg(t, m, keyPress(tea.KeyDown, ""))
	m = applyMsg(t, m, keyPress(tea.KeySpace, " "))
	m = applyMsg(t, m, keyPress(tea.KeyUp, ""))

	todo, _ := m.board.Buckets().Items("todo")
	if todo[0].ID != "b" || todo[1].ID != "a" {
		t.Fatalf("expected b above a while dragging, got %#v", todo)
	}
	if m.focusRow != 0 {
		t.Fatalf("expected focus to follow the dragged card, got row %d", m.focusRow)
	}
}

func TestStepFocusedCardMovesRight(t *testing.T) {
	svc := newFakeService(testColumns(t), []domain.Card{testCard(t, "c1", "todo", "Write docs")})
	m := loadReadyModel(t, NewModel(svc))
	m = applyMsg(t, m, keyPress(']', "]"))
	if len(svc.moves) != 1 || svc.moves[0].status != "progress" {
		t.Fatalf("expected a move to progress, got %#v", svc.moves)
	}
	m = applyMsg(t, m, keyPress('[', "["))
	m = applyMsg(t, m, keyPress('[', "["))
	if len(svc.moves) != 2 || svc.moves[1].status != "todo" {
		t.Fatalf("expected one more move back to todo, got %#v", svc.moves)
	}
	if m.status != "no column that way" {
		t.Fatalf("expected edge status, got %q", m.status)
	}
}

func TestCommitFailureRollsBack(t *testing.T) {
	svc := newFakeService(testColumns(t), []domain.Card{testCard(t, "c1", "todo", "Write docs")})
	svc.statusErr = errors.New("locked")
	m := loadReadyModel(t, NewModel(svc))
	m = applyMsg(t, m, keyPress(']', "]"))
	if got := statusOf(t, m, "c1"); got != "todo" {
		t.Fatalf("expected rollback to todo, got %q", got)
	}
	if !strings.Contains(m.status, "move failed: locked") {
		t.Fatalf("expected failure status, got %q", m.status)
	}
}

func TestSourceUpdateDeferredDuringDrag(t *testing.T) {
	svc := newFakeService(testColumns(t), []domain.Card{testCard(t, "c1", "todo", "Write docs")})
	m := loadReadyModel(t, NewModel(svc))
	m = applyMsg(t, m, keyPress(tea.KeySpace, " "))

	svc.cards = append(svc.cards, testCard(t, "c2", "done", "From elsewhere"))
	m = applyMsg(t, m, fileChangedMsg{})
	if !m.board.Deferred() {
		t.Fatal("expected source update to be deferred while dragging")
	}
	if _, ok := m.board.Item("c2"); ok {
		t.Fatal("expected working list to ignore the update mid-drag")
	}
	m = applyMsg(t, m, keyPress(tea.KeyEscape, ""))
	if _, ok := m.board.Item("c2"); !ok {
		t.Fatal("expected cancel to apply the deferred update")
	}
}

func pointerFixture(t *testing.T) (*fakeService, Model) {
	t.Helper()
	svc := newFakeService(testColumns(t), []domain.Card{
		testCard(t, "c1", "todo", "Write docs"),
		testCard(t, "c2", "done", "Ship it"),
	})
	return svc, loadReadyModel(t, NewModel(svc))
}

func TestPointerDragToColumnBody(t *testing.T) {
	svc, m := pointerFixture(t)
	layout := m.layoutBoard()
	card := layout.columns[0].cards[0]
	startX, startY := layout.columns[0].left+3, card.top
	dest := layout.columns[1]
	destX, destY := dest.left+3, dest.bottom-1

	m = applyMsg(t, m, tea.MouseClickMsg{X: startX, Y: startY, Button: tea.MouseLeft})
	if !m.pointer.armed || m.board.Dragging() {
		t.Fatal("expected press to arm without starting a drag")
	}
	m = applyMsg(t, m, tea.MouseMotionMsg{X: startX + 1, Y: startY, Button: tea.MouseLeft})
	if m.board.Dragging() {
		t.Fatal("expected motion below the activation distance to keep waiting")
	}
	m = applyMsg(t, m, tea.MouseMotionMsg{X: destX, Y: destY, Button: tea.MouseLeft})
	if !m.board.Dragging() {
		t.Fatal("expected drag to start past the activation distance")
	}
	if got := statusOf(t, m, "c1"); got != "progress" {
		t.Fatalf("expected hover over column body to retag card, got %q", got)
	}
	m = applyMsg(t, m, tea.MouseReleaseMsg{X: destX, Y: destY, Button: tea.MouseLeft})

	if len(svc.moves) != 1 || svc.moves[0] != (statusCall{id: "c1", status: "progress"}) {
		t.Fatalf("expected commit to progress, got %#v", svc.moves)
	}
}

func TestPointerDragOntoCardReparents(t *testing.T) {
	svc, m := pointerFixture(t)
	layout := m.layoutBoard()
	from := layout.columns[0].cards[0]
	onto := layout.columns[2].cards[0]
	x0 := layout.columns[0].left + 3
	x2 := layout.columns[2].left + 3

	m = applyMsg(t, m, tea.MouseClickMsg{X: x0, Y: from.top, Button: tea.MouseLeft})
	m = applyMsg(t, m, tea.MouseMotionMsg{X: x2, Y: onto.top, Button: tea.MouseLeft})
	if got := statusOf(t, m, "c1"); got != "done" {
		t.Fatalf("expected card to take the hovered card's status, got %q", got)
	}
	m = applyMsg(t, m, tea.MouseReleaseMsg{X: x2, Y: onto.top, Button: tea.MouseLeft})
	if len(svc.moves) != 1 || svc.moves[0].status != "done" {
		t.Fatalf("expected commit to done, got %#v", svc.moves)
	}
}

func TestPointerDropOutsideCancels(t *testing.T) {
	svc, m := pointerFixture(t)
	layout := m.layoutBoard()
	card := layout.columns[0].cards[0]
	x0 := layout.columns[0].left + 3
	dest := layout.columns[1]

	m = applyMsg(t, m, tea.MouseClickMsg{X: x0, Y: card.top, Button: tea.MouseLeft})
	m = applyMsg(t, m, tea.MouseMotionMsg{X: dest.left + 3, Y: dest.bottom - 1, Button: tea.MouseLeft})
	m = applyMsg(t, m, tea.MouseMotionMsg{X: x0, Y: 0, Button: tea.MouseLeft})
	m = applyMsg(t, m, tea.MouseReleaseMsg{X: x0, Y: 0, Button: tea.MouseLeft})

	if len(svc.moves) != 0 {
		t.Fatalf("expected no commit for a drop on nothing, got %#v", svc.moves)
	}
	if got := statusOf(t, m, "c1"); got != "todo" {
		t.Fatalf("expected cancel to restore todo, got %q", got)
	}
}

func TestPointerClickOpensCardInfo(t *testing.T) {
	svc, m := pointerFixture(t)
	svc.cards[0].Description = "**bold** plan"
	m = applyMsg(t, m, m.loadData())
	layout := m.layoutBoard()
	card := layout.columns[0].cards[0]
	x := layout.columns[0].left + 3

	m = applyMsg(t, m, tea.MouseClickMsg{X: x, Y: card.top, Button: tea.MouseLeft})
	m = applyMsg(t, m, tea.MouseReleaseMsg{X: x, Y: card.top, Button: tea.MouseLeft})
	if m.mode != modeCardInfo || m.infoCard.ID != "c1" {
		t.Fatalf("expected card info for c1, got mode %d card %q", m.mode, m.infoCard.ID)
	}
	if !strings.Contains(viewText(m), "plan") {
		t.Fatalf("expected description in info overlay\n%s", viewText(m))
	}
	m = applyMsg(t, m, keyPress(tea.KeyEscape, ""))
	if m.mode != modeNone {
		t.Fatal("expected esc to close card info")
	}
}

func TestClickIgnoredDuringKeyboardDrag(t *testing.T) {
	_, m := pointerFixture(t)
	m = applyMsg(t, m, keyPress(tea.KeySpace, " "))
	layout := m.layoutBoard()
	card := layout.columns[2].cards[0]
	m = applyMsg(t, m, tea.MouseClickMsg{X: layout.columns[2].left + 3, Y: card.top, Button: tea.MouseLeft})
	if m.pointer.armed {
		t.Fatal("expected pointer to stay idle while the keyboard owns the drag")
	}
	if m.board.Click("c2") {
		t.Fatal("expected Click to be suppressed while dragging")
	}
}

func TestQuickAddCard(t *testing.T) {
	svc := newFakeService(testColumns(t), nil)
	m := loadReadyModel(t, NewModel(svc))
	m = applyMsg(t, m, keyPress(tea.KeyRight, ""))
	m = applyMsg(t, m, keyPress('n', "n"))
	if m.mode != modeAddCard || m.addColumn != "progress" {
		t.Fatalf("expected add mode for progress, got mode %d column %q", m.mode, m.addColumn)
	}
	m.addInput.SetValue("Plan sprint")
	m = applyMsg(t, m, keyPress(tea.KeyEnter, ""))

	if len(svc.cards) != 1 || svc.cards[0].Status != "progress" || svc.cards[0].Title != "Plan sprint" {
		t.Fatalf("unexpected created cards %#v", svc.cards)
	}
	if _, ok := m.board.Item(kanban.ID(svc.cards[0].ID)); !ok {
		t.Fatal("expected reload to show the new card")
	}
}

func TestCopyCardID(t *testing.T) {
	_, m := pointerFixture(t)
	var copied string
	m.copyText = func(s string) error {
		copied = s
		return nil
	}
	m = applyMsg(t, m, keyPress('y', "y"))
	if copied != "c1" || m.status != "copied c1" {
		t.Fatalf("expected c1 copied, got %q (status %q)", copied, m.status)
	}
	m.copyText = func(string) error { return errors.New("no clipboard") }
	m = applyMsg(t, m, keyPress('y', "y"))
	if !strings.Contains(m.status, "no clipboard") {
		t.Fatalf("expected copy failure status, got %q", m.status)
	}
}

func TestWIPWarningRendered(t *testing.T) {
	cols := testColumns(t)
	cols[0].WIPLimit = 1
	svc := newFakeService(cols, []domain.Card{
		testCard(t, "a", "todo", "A"),
		testCard(t, "b", "todo", "B"),
	})
	m := loadReadyModel(t, NewModel(svc))
	out := viewText(m)
	if !strings.Contains(out, "To Do (2/1)") || !strings.Contains(out, "WIP limit exceeded") {
		t.Fatalf("expected WIP warning\n%s", out)
	}
	m = loadReadyModel(t, NewModel(svc, WithBoardConfig(BoardConfig{})))
	if strings.Contains(viewText(m), "WIP limit exceeded") {
		t.Fatal("expected WIP warning to be hidden when disabled")
	}
}

func TestOptionsApply(t *testing.T) {
	pinned := testColumns(t)[:1]
	svc := newFakeService(testColumns(t), []domain.Card{testCard(t, "c1", "todo", "Write docs")})
	m := loadReadyModel(t, NewModel(svc,
		WithColumns(pinned),
		WithActivationDistance(0),
		WithCardRenderer(func(item kanban.Item, _ int, _ BoardConfig) []string {
			return []string{"card:" + string(item.ID)}
		}),
	))
	if m.board.Buckets().Len() != 1 {
		t.Fatalf("expected pinned columns, got %d", m.board.Buckets().Len())
	}
	if m.pointer.distance != 0 {
		t.Fatalf("expected activation distance 0, got %d", m.pointer.distance)
	}
	if !strings.Contains(viewText(m), "card:c1") {
		t.Fatalf("expected custom card renderer output\n%s", viewText(m))
	}
}

type chanSource chan struct{}

func (c chanSource) Changed() <-chan struct{} { return c }

func TestWatchFileCmd(t *testing.T) {
	src := make(chanSource, 1)
	m := NewModel(newFakeService(testColumns(t), nil), WithWatcher(src))
	cmd := m.watchFileCmd()
	if cmd == nil {
		t.Fatal("expected watch cmd with a watcher")
	}
	src <- struct{}{}
	if _, ok := cmd().(fileChangedMsg); !ok {
		t.Fatal("expected fileChangedMsg after a change")
	}
	close(src)
	if msg := cmd(); msg != nil {
		t.Fatalf("expected nil msg after close, got %#v", msg)
	}
	if NewModel(newFakeService(nil, nil)).watchFileCmd() != nil {
		t.Fatal("expected no watch cmd without a watcher")
	}
}

func TestModelViewModes(t *testing.T) {
	m := NewModel(newFakeService(testColumns(t), nil))
	v := m.View()
	if v.MouseMode != tea.MouseModeCellMotion || !v.AltScreen {
		t.Fatal("expected mouse cell motion on the alt screen")
	}
	if viewText(m) != "loading..." {
		t.Fatalf("expected loading view, got %q", viewText(m))
	}
}

func TestModelHelpToggleAndQuit(t *testing.T) {
	_, m := pointerFixture(t)
	m = applyMsg(t, m, keyPress('?', "?"))
	if !m.help.ShowAll || !strings.Contains(viewText(m), "kanboard help") {
		t.Fatal("expected help overlay")
	}
	m = applyMsg(t, m, keyPress(tea.KeyEscape, ""))
	if m.help.ShowAll {
		t.Fatal("expected esc to close help")
	}
	_, cmd := m.Update(keyPress('q', "q"))
	if cmd == nil {
		t.Fatal("expected quit cmd")
	}
}

func TestHelpersCoverage(t *testing.T) {
	if clamp(5, 0, 1) != 1 || clamp(-1, 0, 1) != 0 || clamp(0, 2, 1) != 2 {
		t.Fatal("clamp bounds failed")
	}
	if truncate("abc", 0) != "" || truncate("abc", 1) != "a" || truncate("abcdef", 4) != "abc…" {
		t.Fatal("truncate failed")
	}
	if got := summarizeLabels([]string{"a", "b", "c", "d"}, 2); got != "#a,#b+2" {
		t.Fatalf("summarizeLabels() = %q", got)
	}
	if got := fitLines("a\nb\nc", 2); got != "a\n…" {
		t.Fatalf("fitLines() = %q", got)
	}
	if got := cardTitle(kanban.Item{ID: "7", Attributes: map[string]string{"name": "Named"}}); got != "Named" {
		t.Fatalf("cardTitle(name) = %q", got)
	}
	if got := cardTitle(kanban.Item{ID: "7"}); got != "Item 7" {
		t.Fatalf("cardTitle(id) = %q", got)
	}
}
