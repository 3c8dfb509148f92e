package domain

import "strings"

// Column represents one board lane. Column ids double as card statuses.
type Column struct {
	ID       string
	Title    string
	Position int
	WIPLimit int
}

// NewColumn constructs a validated column.
func NewColumn(id, title string, position, wipLimit int) (Column, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	title = strings.TrimSpace(title)
	if id == "" {
		return Column{}, ErrInvalidID
	}
	if title == "" {
		return Column{}, ErrInvalidTitle
	}
	if position < 0 || wipLimit < 0 {
		return Column{}, ErrInvalidPosition
	}
	return Column{
		ID:       id,
		Title:    title,
		Position: position,
		WIPLimit: wipLimit,
	}, nil
}

// OverLimit reports whether count exceeds the column's WIP limit. A zero
// limit means unlimited.
func (c Column) OverLimit(count int) bool {
	return c.WIPLimit > 0 && count > c.WIPLimit
}
