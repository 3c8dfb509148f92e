// Package kanban holds the drag-and-drop reconciliation engine behind the board.
//
// A Board keeps an optimistic working copy of the host's item list. While a card
// drag is in progress, hover events rewrite that copy (reorder, reparent, drop on
// a column body) and the authoritative source is held back. When the drag ends
// over a target, the dragged item's final status is reported to the host exactly
// once. The package performs no I/O and is driven synchronously by its caller.
package kanban
