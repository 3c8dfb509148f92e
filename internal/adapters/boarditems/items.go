// Package boarditems maps domain cards and columns onto the drag engine's
// opaque item and column types.
package boarditems

import (
	"strings"

	"github.com/evanschultz/kanboard/internal/domain"
	"github.com/evanschultz/kanboard/internal/kanban"
)

// Attribute keys carried on kanban items built from cards.
const (
	AttrTitle       = "title"
	AttrDescription = "description"
	AttrPriority    = "priority"
	AttrLabels      = "labels"
)

// FromCard converts a card into the engine's item form. Labels are joined
// with commas.
func FromCard(c domain.Card) kanban.Item {
	return kanban.Item{
		ID:     kanban.ID(c.ID),
		Status: c.Status,
		Attributes: map[string]string{
			AttrTitle:       c.Title,
			AttrDescription: c.Description,
			AttrPriority:    string(c.Priority),
			AttrLabels:      strings.Join(c.Labels, ","),
		},
	}
}

// FromCards converts cards in order.
func FromCards(cards []domain.Card) []kanban.Item {
	out := make([]kanban.Item, 0, len(cards))
	for _, c := range cards {
		out = append(out, FromCard(c))
	}
	return out
}

// Columns converts columns in order. WIP limits stay on the domain side.
func Columns(columns []domain.Column) []kanban.Column {
	out := make([]kanban.Column, 0, len(columns))
	for _, c := range columns {
		out = append(out, kanban.Column{ID: c.ID, Title: c.Title})
	}
	return out
}
