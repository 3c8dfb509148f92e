// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrInvalidRequest reports malformed or rejected transport input.
var ErrInvalidRequest = errors.New("invalid request")

// BoardCard is the transport view of one card.
type BoardCard struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	Position    int       `json:"position"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Priority    string    `json:"priority"`
	Labels      []string  `json:"labels"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BoardColumn is one column with its cards in display order.
type BoardColumn struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	WIPLimit  int         `json:"wip_limit,omitempty"`
	OverLimit bool        `json:"over_limit,omitempty"`
	Cards     []BoardCard `json:"cards"`
}

// BoardState is the full board as seen by transports. Misplaced lists card ids
// whose status names no column; they are shown in the first column.
type BoardState struct {
	Columns   []BoardColumn `json:"columns"`
	Total     int           `json:"total"`
	Misplaced []string      `json:"misplaced,omitempty"`
}

// CreateCardRequest stores transport input for card creation.
type CreateCardRequest struct {
	Status      string   `json:"status,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	Labels      []string `json:"labels,omitempty"`
}

// MoveCardRequest stores transport input for a status change.
type MoveCardRequest struct {
	CardID string `json:"-"`
	Status string `json:"status"`
}

// UpdateCardRequest stores transport input for a partial detail edit. Nil
// fields keep the card's current value.
type UpdateCardRequest struct {
	CardID      string    `json:"-"`
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Priority    *string   `json:"priority,omitempty"`
	Labels      *[]string `json:"labels,omitempty"`
}

// BoardService is the app surface shared by the HTTP and MCP adapters.
type BoardService interface {
	BoardState(context.Context) (BoardState, error)
	GetCard(context.Context, string) (BoardCard, error)
	CreateCard(context.Context, CreateCardRequest) (BoardCard, error)
	MoveCard(context.Context, MoveCardRequest) (BoardCard, error)
	UpdateCard(context.Context, UpdateCardRequest) (BoardCard, error)
	DeleteCard(context.Context, string) error
}
