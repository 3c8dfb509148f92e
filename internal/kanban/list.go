package kanban

import "slices"

// optimisticList is the working copy rendered while a drag runs. Writers build
// a complete replacement and hand it to replace; the slice held here is never
// mutated in place.
type optimisticList struct {
	items []Item
}

func (l *optimisticList) replace(items []Item) {
	l.items = items
}

func (l *optimisticList) seed(source []Item) {
	l.replace(slices.Clone(source))
}

func (l *optimisticList) indexOf(id ID) int {
	return slices.IndexFunc(l.items, func(it Item) bool { return it.ID == id })
}

func (l *optimisticList) get(id ID) (Item, bool) {
	idx := l.indexOf(id)
	if idx < 0 {
		return Item{}, false
	}
	return l.items[idx], true
}

func (l *optimisticList) snapshot() []Item {
	return slices.Clone(l.items)
}

func (l *optimisticList) view() []Item {
	return l.items
}
