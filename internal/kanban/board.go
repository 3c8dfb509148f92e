package kanban

import (
	"io"
	"slices"

	"github.com/charmbracelet/log"
)

// Board reconciles drag gestures against the host's authoritative item list.
// It is not safe for concurrent use; callers drive it from one event loop.
type Board struct {
	columns []Column
	source  []Item
	list    optimisticList
	session session
	// deferred is set when a source update arrived during a drag.
	deferred bool

	buckets      Buckets
	bucketsValid bool
	// warnedFallback is the fallback set last logged.
	warnedFallback []ID

	onItemUpdate func(id ID, status string)
	onItemClick  func(item Item)
	logger       *log.Logger
}

// Option configures a Board.
type Option func(*Board)

// WithItemUpdate registers the host callback invoked once per committed drop.
func WithItemUpdate(fn func(id ID, status string)) Option {
	return func(b *Board) {
		b.onItemUpdate = fn
	}
}

// WithItemClick registers the callback for a click outside a drag.
func WithItemClick(fn func(item Item)) Option {
	return func(b *Board) {
		b.onItemClick = fn
	}
}

// WithLogger sets the logger used for gesture tracing and fallback warnings.
func WithLogger(logger *log.Logger) Option {
	return func(b *Board) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithItems seeds the authoritative source at construction.
func WithItems(items []Item) Option {
	return func(b *Board) {
		b.source = slices.Clone(items)
	}
}

// NewBoard constructs a board over an ordered column list.
func NewBoard(columns []Column, opts ...Option) *Board {
	b := &Board{
		columns: slices.Clone(columns),
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	b.list.seed(b.source)
	return b
}

// SetSource records a new authoritative list. The working list follows it
// only while no drag is active; during a drag the update waits for Resync or
// the next SetSource after the gesture.
func (b *Board) SetSource(items []Item) {
	b.source = slices.Clone(items)
	if b.session.dragging() {
		b.deferred = true
		b.logger.Debug("source update deferred", "active", b.session.active(), "items", len(items))
		return
	}
	b.syncFromSource()
}

// Resync reapplies the last authoritative list when idle. It reports whether
// the working list was overwritten.
func (b *Board) Resync() bool {
	if b.session.dragging() {
		return false
	}
	b.syncFromSource()
	return true
}

func (b *Board) syncFromSource() {
	b.list.seed(b.source)
	b.deferred = false
	b.invalidate()
}

// SetColumns replaces the column set.
func (b *Board) SetColumns(columns []Column) {
	b.columns = slices.Clone(columns)
	b.invalidate()
}

// Columns returns the configured columns.
func (b *Board) Columns() []Column {
	return slices.Clone(b.columns)
}

// Start handles a drag-start event. Only cards start a session.
func (b *Board) Start(ev StartEvent) bool {
	if !b.session.begin(ev.ActiveID, ev.Kind) {
		b.logger.Debug("drag start ignored", "id", ev.ActiveID, "kind", ev.Kind)
		return false
	}
	b.list.seed(b.source)
	b.deferred = false
	b.invalidate()
	b.logger.Debug("drag start", "id", ev.ActiveID)
	return true
}

// Over handles a hover event and reports whether the working list changed.
func (b *Board) Over(ev OverEvent) bool {
	if !b.session.dragging() || ev.ActiveID != b.session.active() {
		return false
	}
	next, changed := reorder(b.list.view(), b.columns, ev.ActiveID, ev.Over)
	if !changed {
		return false
	}
	b.list.replace(next)
	b.invalidate()
	return true
}

// End handles the release. The session is cleared first, whatever happens
// next. When the gesture was a card drag over a target and the card is still
// in the working list, its final status is reported through the item update
// callback and returned. A release naming a different card than the one the
// session started with ends the session without a commit.
func (b *Board) End(ev EndEvent) (Commit, bool) {
	sessionID, wasDragging := b.session.finish()
	if !wasDragging {
		return Commit{}, false
	}
	id := sessionID
	if ev.ActiveID != "" && ev.ActiveID != sessionID {
		b.logger.Debug("drag end for foreign id ignored", "session", sessionID, "id", ev.ActiveID)
		return Commit{}, false
	}
	if ev.Over == nil {
		b.logger.Debug("drag cancelled", "id", id)
		return Commit{}, false
	}
	item, ok := b.list.get(id)
	if !ok {
		b.logger.Debug("dragged item missing at drop", "id", id)
		return Commit{}, false
	}

	commit := Commit{ID: item.ID, Status: item.Status}
	b.logger.Debug("drag commit", "id", commit.ID, "status", commit.Status, "over", ev.Over.ID)
	if b.onItemUpdate != nil {
		b.onItemUpdate(commit.ID, commit.Status)
	}
	return commit, true
}

// Click forwards a click to the host unless a drag is in progress.
func (b *Board) Click(id ID) bool {
	if b.session.dragging() {
		return false
	}
	item, ok := b.list.get(id)
	if !ok {
		return false
	}
	if b.onItemClick != nil {
		b.onItemClick(item)
	}
	return true
}

// Dragging reports whether a card drag is active.
func (b *Board) Dragging() bool {
	return b.session.dragging()
}

// Deferred reports whether a source update is waiting behind a drag.
func (b *Board) Deferred() bool {
	return b.deferred
}

// ActiveItem returns the card being dragged, as it currently sits in the
// working list.
func (b *Board) ActiveItem() (Item, bool) {
	if !b.session.dragging() {
		return Item{}, false
	}
	return b.list.get(b.session.active())
}

// Items returns a copy of the working list.
func (b *Board) Items() []Item {
	return b.list.snapshot()
}

// Item looks up one item in the working list.
func (b *Board) Item(id ID) (Item, bool) {
	return b.list.get(id)
}

// Buckets returns the per-column view of the working list. The grouping is
// recomputed only after the list or the columns change.
func (b *Board) Buckets() Buckets {
	if b.bucketsValid {
		return b.buckets
	}
	b.buckets = Bucketize(b.list.view(), b.columns)
	b.bucketsValid = true
	fb := b.buckets.Fallback()
	if !slices.Equal(fb, b.warnedFallback) {
		if len(fb) > 0 {
			b.logger.Warn("items with unknown status placed in first column", "count", len(fb), "ids", fb)
		}
		b.warnedFallback = slices.Clone(fb)
	}
	return b.buckets
}

func (b *Board) invalidate() {
	b.bucketsValid = false
}
