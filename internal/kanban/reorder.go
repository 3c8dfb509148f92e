package kanban

import "slices"

// arrayMove returns a copy of items with the element at from removed and then
// reinserted at to. Out-of-range indices return an unchanged copy.
func arrayMove(items []Item, from, to int) []Item {
	out := slices.Clone(items)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) || from == to {
		return out
	}
	moved := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, moved)
}

// reorder computes the working list after the active card hovers over target.
// The second result is false when the hover changes nothing, including every
// case where an id cannot be resolved.
func reorder(items []Item, columns []Column, activeID ID, target *Target) ([]Item, bool) {
	if target == nil || target.ID == activeID {
		return nil, false
	}
	from := slices.IndexFunc(items, func(it Item) bool { return it.ID == activeID })
	if from < 0 {
		return nil, false
	}

	switch target.Kind {
	case KindCard:
		to := slices.IndexFunc(items, func(it Item) bool { return it.ID == target.ID })
		if to < 0 {
			return nil, false
		}
		next := slices.Clone(items)
		if next[from].Status != next[to].Status {
			next[from] = next[from].WithStatus(next[to].Status)
		}
		return arrayMove(next, from, to), true

	case KindColumn:
		status := string(target.ID)
		if columnIndex(columns, status) < 0 {
			return nil, false
		}
		if items[from].Status == status {
			return nil, false
		}
		next := slices.Clone(items)
		next[from] = next[from].WithStatus(status)
		return next, true

	default:
		return nil, false
	}
}
