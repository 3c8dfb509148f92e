package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/evanschultz/kanboard/internal/adapters/boarditems"
	"github.com/evanschultz/kanboard/internal/app"
	"github.com/evanschultz/kanboard/internal/domain"
	"github.com/evanschultz/kanboard/internal/kanban"
)

// Service represents service data used by this package.
type Service interface {
	ListColumns() []domain.Column
	ListCards(context.Context) ([]domain.Card, error)
	GetCard(context.Context, string) (domain.Card, error)
	CreateCard(context.Context, app.CreateCardInput) (domain.Card, error)
	UpdateCardStatus(context.Context, string, string) (domain.Card, error)
}

// inputMode represents a selectable mode.
type inputMode int

// modeNone and related constants define package defaults.
const (
	modeNone inputMode = iota
	modeAddCard
	modeCardInfo
)

// boardEvents collects engine callbacks. The board is shared by every copy of
// the model, so the sink is shared too and drained after each gesture step.
type boardEvents struct {
	commits []kanban.Commit
	clicked []kanban.Item
}

// Model represents model data used by this package.
type Model struct {
	svc Service

	ready  bool
	width  int
	height int
	err    error

	status string

	help help.Model
	keys keyMap

	boardCfg      BoardConfig
	renderCard    CardRenderer
	logger        *log.Logger
	watcher       ChangeSource
	pinnedColumns []domain.Column

	board   *kanban.Board
	events  *boardEvents
	columns []domain.Column
	cards   map[string]domain.Card

	focusColumn  int
	focusRow     int
	pendingFocus string

	pointer  pointerSensor
	keyboard keyboardSensor

	mode      inputMode
	addInput  textinput.Model
	addColumn string
	infoCard  domain.Card
	markdown  *markdownRenderer
	copyText  func(string) error
}

// loadedMsg carries message data through update handling.
type loadedMsg struct {
	columns []domain.Column
	cards   []domain.Card
	err     error
}

// statusCommittedMsg reports the host's answer to a committed drop.
type statusCommittedMsg struct {
	id   string
	card domain.Card
	err  error
}

type cardCreatedMsg struct {
	card domain.Card
	err  error
}

type cardLoadedMsg struct {
	card domain.Card
	err  error
}

// fileChangedMsg signals that the backing store was written by another process.
type fileChangedMsg struct{}

// NewModel constructs a new value for this package.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		svc:        svc,
		status:     "loading...",
		help:       h,
		keys:       newKeyMap(),
		boardCfg:   DefaultBoardConfig(),
		renderCard: defaultCardRenderer,
		logger:     log.New(io.Discard),
		events:     &boardEvents{},
		cards:      map[string]domain.Card{},
		pointer:    pointerSensor{distance: defaultActivationDistance},
		addInput:   newModalInput("title: ", "what needs doing?", "", 120),
		markdown:   &markdownRenderer{},
		copyText:   clipboard.WriteAll,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	events := m.events
	m.board = kanban.NewBoard(nil,
		kanban.WithLogger(m.logger),
		kanban.WithItemUpdate(func(id kanban.ID, status string) {
			events.commits = append(events.commits, kanban.Commit{ID: id, Status: status})
		}),
		kanban.WithItemClick(func(item kanban.Item) {
			events.clicked = append(events.clicked, item)
		}),
	)
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadData, m.watchFileCmd())
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.columns = msg.columns
		m.cards = make(map[string]domain.Card, len(msg.cards))
		for _, card := range msg.cards {
			m.cards[card.ID] = card
		}
		m.board.SetColumns(boarditems.Columns(msg.columns))
		m.board.SetSource(boarditems.FromCards(msg.cards))
		if m.board.Deferred() {
			m.status = "board changed elsewhere; applies after drop"
			return m, nil
		}
		if m.pendingFocus != "" {
			m.focusOn(kanban.ID(m.pendingFocus))
			m.pendingFocus = ""
		}
		m.clampFocus()
		if m.status == "" || m.status == "loading..." || m.status == "reloading..." {
			m.status = "ready"
		}
		return m, nil

	case statusCommittedMsg:
		if msg.err != nil {
			m.logger.Error("status update failed", "card", msg.id, "err", msg.err)
			m.status = "move failed: " + msg.err.Error()
			m.board.Resync()
			m.clampFocus()
			return m, nil
		}
		m.pendingFocus = msg.card.ID
		m.status = fmt.Sprintf("%s → %s", truncate(msg.card.Title, 32), m.columnTitle(msg.card.Status))
		return m, m.loadData

	case cardCreatedMsg:
		if msg.err != nil {
			m.status = "create failed: " + msg.err.Error()
			return m, nil
		}
		m.pendingFocus = msg.card.ID
		m.status = "created " + truncate(msg.card.Title, 32)
		return m, m.loadData

	case cardLoadedMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.infoCard = msg.card
		m.mode = modeCardInfo
		return m, nil

	case fileChangedMsg:
		m.logger.Debug("store changed on disk")
		return m, tea.Batch(m.loadData, m.watchFileCmd())

	case tea.KeyPressMsg:
		if m.mode != modeNone {
			return m.handleInputModeKey(msg)
		}
		return m.handleNormalModeKey(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		return m.handleMouseRelease(msg)

	default:
		return m, nil
	}
}

// loadData loads required data for the current operation.
func (m Model) loadData() tea.Msg {
	columns := m.pinnedColumns
	if len(columns) == 0 {
		columns = m.svc.ListColumns()
	}
	cards, err := m.svc.ListCards(context.Background())
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{columns: columns, cards: cards}
}

// watchFileCmd blocks until the watcher reports a change.
func (m Model) watchFileCmd() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	changed := m.watcher.Changed()
	return func() tea.Msg {
		if _, ok := <-changed; !ok {
			return nil
		}
		return fileChangedMsg{}
	}
}

func (m Model) commitStatusCmd(c kanban.Commit) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		card, err := svc.UpdateCardStatus(context.Background(), string(c.ID), c.Status)
		return statusCommittedMsg{id: string(c.ID), card: card, err: err}
	}
}

func (m Model) loadCardCmd(id string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		card, err := svc.GetCard(context.Background(), id)
		return cardLoadedMsg{card: card, err: err}
	}
}

// drainBoardEvents turns queued engine callbacks into commands.
func (m *Model) drainBoardEvents() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(m.events.commits)+len(m.events.clicked))
	for _, c := range m.events.commits {
		m.logger.Info("card dropped", "card", c.ID, "status", c.Status)
		m.status = "saving..."
		cmds = append(cmds, m.commitStatusCmd(c))
	}
	for _, item := range m.events.clicked {
		cmds = append(cmds, m.loadCardCmd(string(item.ID)))
	}
	m.events.commits = nil
	m.events.clicked = nil
	return tea.Batch(cmds...)
}

func newModalInput(prompt, placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Placeholder = placeholder
	in.CharLimit = limit
	if value != "" {
		in.SetValue(value)
	}
	return in
}

// handleNormalModeKey handles keys while no modal is open.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if m.keyboard.active {
		return m.handleKeyboardDrag(msg)
	}
	if m.pointer.active {
		if key.Matches(msg, m.keys.cancel) {
			id := m.pointer.id
			m.pointer.reset()
			m.endDrag(id, nil)
		}
		return m, nil
	}
	if m.help.ShowAll {
		switch {
		case key.Matches(msg, m.keys.toggleHelp), key.Matches(msg, m.keys.cancel):
			m.help.ShowAll = false
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = true
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.status = "reloading..."
		return m, m.loadData
	case key.Matches(msg, m.keys.moveLeft):
		m.focusColumn--
		m.clampFocus()
		return m, nil
	case key.Matches(msg, m.keys.moveRight):
		m.focusColumn++
		m.clampFocus()
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		m.focusRow--
		m.clampFocus()
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		m.focusRow++
		m.clampFocus()
		return m, nil
	case key.Matches(msg, m.keys.pickUp):
		item, ok := m.focusedItem()
		if !ok {
			m.status = "no card to pick up"
			return m, nil
		}
		if m.board.Start(kanban.StartEvent{ActiveID: item.ID, Kind: kanban.KindCard}) {
			m.keyboard.pickUp(item.ID)
			m.status = "picked up " + truncate(cardTitle(item), 32)
		}
		return m, nil
	case key.Matches(msg, m.keys.addCard):
		return m, m.startAddCard()
	case key.Matches(msg, m.keys.cardInfo):
		item, ok := m.focusedItem()
		if !ok {
			return m, nil
		}
		m.board.Click(item.ID)
		return m, m.drainBoardEvents()
	case key.Matches(msg, m.keys.copyID):
		item, ok := m.focusedItem()
		if !ok {
			return m, nil
		}
		if err := m.copyText(string(item.ID)); err != nil {
			m.status = "copy failed: " + err.Error()
			return m, nil
		}
		m.status = "copied " + string(item.ID)
		return m, nil
	case key.Matches(msg, m.keys.moveCardLeft):
		return m.stepFocusedCard(-1)
	case key.Matches(msg, m.keys.moveCardRight):
		return m.stepFocusedCard(1)
	default:
		return m, nil
	}
}

// handleKeyboardDrag handles keys while a card is picked up from the keyboard.
func (m Model) handleKeyboardDrag(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	id := m.keyboard.id
	switch {
	case key.Matches(msg, m.keys.cancel):
		m.keyboard.reset()
		m.endDrag(id, nil)
		return m, nil
	case key.Matches(msg, m.keys.drop):
		over := m.keyboard.over
		m.keyboard.reset()
		committed := m.endDrag(id, over)
		if !committed {
			return m, nil
		}
		return m, m.drainBoardEvents()
	case key.Matches(msg, m.keys.moveUp):
		m.hoverKeyboard(verticalTarget(m.board.Buckets(), id, -1))
	case key.Matches(msg, m.keys.moveDown):
		m.hoverKeyboard(verticalTarget(m.board.Buckets(), id, 1))
	case key.Matches(msg, m.keys.moveLeft):
		m.hoverKeyboard(horizontalTarget(m.board.Buckets(), id, -1))
	case key.Matches(msg, m.keys.moveRight):
		m.hoverKeyboard(horizontalTarget(m.board.Buckets(), id, 1))
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) hoverKeyboard(target *kanban.Target) {
	if target == nil {
		return
	}
	m.board.Over(kanban.OverEvent{ActiveID: m.keyboard.id, Over: target})
	m.keyboard.over = target
	m.focusOn(m.keyboard.id)
}

// stepFocusedCard runs a complete keyboard gesture that drops the focused
// card onto the neighbouring column.
func (m Model) stepFocusedCard(delta int) (tea.Model, tea.Cmd) {
	item, ok := m.focusedItem()
	if !ok {
		return m, nil
	}
	target := horizontalTarget(m.board.Buckets(), item.ID, delta)
	if target == nil {
		m.status = "no column that way"
		return m, nil
	}
	if !m.board.Start(kanban.StartEvent{ActiveID: item.ID, Kind: kanban.KindCard}) {
		return m, nil
	}
	m.board.Over(kanban.OverEvent{ActiveID: item.ID, Over: target})
	if !m.endDrag(item.ID, target) {
		return m, nil
	}
	return m, m.drainBoardEvents()
}

// endDrag releases the active card. A release that commits nothing restores
// the last authoritative list.
func (m *Model) endDrag(id kanban.ID, over *kanban.Target) bool {
	_, committed := m.board.End(kanban.EndEvent{ActiveID: id, Over: over})
	if !committed {
		m.board.Resync()
		m.status = "drag cancelled"
	}
	m.focusOn(id)
	m.clampFocus()
	return committed
}

// handleInputModeKey handles keys while a modal is open.
func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeAddCard:
		switch msg.String() {
		case "esc":
			m.mode = modeNone
			m.addInput.Blur()
			m.status = "cancelled"
			return m, nil
		case "enter":
			title := strings.TrimSpace(m.addInput.Value())
			if title == "" {
				m.status = "title required"
				return m, nil
			}
			m.mode = modeNone
			m.addInput.Blur()
			return m, m.createCardCmd(app.CreateCardInput{Status: m.addColumn, Title: title})
		}
		var cmd tea.Cmd
		m.addInput, cmd = m.addInput.Update(msg)
		return m, cmd
	case modeCardInfo:
		switch {
		case key.Matches(msg, m.keys.cancel), key.Matches(msg, m.keys.cardInfo):
			m.mode = modeNone
		case key.Matches(msg, m.keys.copyID):
			if err := m.copyText(m.infoCard.ID); err != nil {
				m.status = "copy failed: " + err.Error()
			} else {
				m.status = "copied " + m.infoCard.ID
			}
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) startAddCard() tea.Cmd {
	buckets := m.board.Buckets()
	if buckets.Len() == 0 {
		m.status = "no columns configured"
		return nil
	}
	col := buckets.At(clamp(m.focusColumn, 0, buckets.Len()-1)).Column
	m.addColumn = col.ID
	m.addInput.SetValue("")
	m.mode = modeAddCard
	return m.addInput.Focus()
}

func (m Model) createCardCmd(in app.CreateCardInput) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		card, err := svc.CreateCard(context.Background(), in)
		return cardCreatedMsg{card: card, err: err}
	}
}

// handleMouseWheel moves focus through the focused column.
func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeNone || m.help.ShowAll || m.board.Dragging() {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseWheelUp:
		m.focusRow--
	case tea.MouseWheelDown:
		m.focusRow++
	}
	m.clampFocus()
	return m, nil
}

// handleMouseClick arms the pointer sensor on a card press.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if msg.Button != tea.MouseLeft || m.mode != modeNone || m.help.ShowAll || m.keyboard.active {
		return m, nil
	}
	hit := m.hitTest(msg.X, msg.Y)
	if hit.column >= 0 {
		m.focusColumn = hit.column
		m.clampFocus()
	}
	if hit.card == "" {
		return m, nil
	}
	m.focusOn(hit.card)
	m.pointer.press(hit.card, msg.X, msg.Y)
	return m, nil
}

// handleMouseMotion starts the drag once the press travelled far enough and
// then reports whatever is under the pointer.
func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if !m.pointer.armed {
		return m, nil
	}
	id := m.pointer.id
	if !m.pointer.active {
		if !m.pointer.exceeded(msg.X, msg.Y) {
			return m, nil
		}
		if !m.board.Start(kanban.StartEvent{ActiveID: id, Kind: kanban.KindCard}) {
			m.pointer.reset()
			return m, nil
		}
		m.pointer.activate()
	}
	target := m.hitTest(msg.X, msg.Y).target()
	m.pointer.over = target
	m.board.Over(kanban.OverEvent{ActiveID: id, Over: target})
	m.focusOn(id)
	return m, nil
}

// handleMouseRelease ends the gesture. A release before activation is a click.
func (m Model) handleMouseRelease(msg tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	if !m.pointer.armed {
		return m, nil
	}
	id := m.pointer.id
	if !m.pointer.active {
		m.pointer.reset()
		m.board.Click(id)
		return m, m.drainBoardEvents()
	}
	target := m.hitTest(msg.X, msg.Y).target()
	m.pointer.reset()
	if !m.endDrag(id, target) {
		return m, nil
	}
	return m, m.drainBoardEvents()
}

// focusedItem returns the card under keyboard focus.
func (m Model) focusedItem() (kanban.Item, bool) {
	buckets := m.board.Buckets()
	if buckets.Len() == 0 {
		return kanban.Item{}, false
	}
	items := buckets.At(clamp(m.focusColumn, 0, buckets.Len()-1)).Items
	if len(items) == 0 {
		return kanban.Item{}, false
	}
	return items[clamp(m.focusRow, 0, len(items)-1)], true
}

// focusOn moves keyboard focus to the card wherever it currently sits.
func (m *Model) focusOn(id kanban.ID) {
	col, row, ok := m.board.Buckets().Locate(id)
	if !ok {
		return
	}
	m.focusColumn = col
	m.focusRow = row
}

// clampFocus clamps focus.
func (m *Model) clampFocus() {
	buckets := m.board.Buckets()
	if buckets.Len() == 0 {
		m.focusColumn = 0
		m.focusRow = 0
		return
	}
	m.focusColumn = clamp(m.focusColumn, 0, buckets.Len()-1)
	m.focusRow = clamp(m.focusRow, 0, len(buckets.At(m.focusColumn).Items)-1)
}

func (m Model) columnTitle(id string) string {
	for _, c := range m.columns {
		if c.ID == id {
			return c.Title
		}
	}
	return id
}

func (m Model) column(id string) (domain.Column, bool) {
	for _, c := range m.columns {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Column{}, false
}

// cardTitle prefers the title attribute, then a name attribute, then the id.
func cardTitle(item kanban.Item) string {
	for _, attr := range []string{boarditems.AttrTitle, "name"} {
		if v := strings.TrimSpace(item.Attr(attr)); v != "" {
			return v
		}
	}
	return "Item " + string(item.ID)
}

// clamp clamps the requested operation.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
