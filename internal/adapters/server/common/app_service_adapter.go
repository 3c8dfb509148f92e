package common

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/evanschultz/kanboard/internal/adapters/boarditems"
	"github.com/evanschultz/kanboard/internal/app"
	"github.com/evanschultz/kanboard/internal/domain"
	"github.com/evanschultz/kanboard/internal/kanban"
)

// AppServiceAdapter maps transport contracts onto app.Service.
type AppServiceAdapter struct {
	service *app.Service
}

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
func NewAppServiceAdapter(service *app.Service) *AppServiceAdapter {
	return &AppServiceAdapter{service: service}
}

// BoardState groups the current cards into their columns using the same
// bucketing the TUI renders with.
func (a *AppServiceAdapter) BoardState(ctx context.Context) (BoardState, error) {
	if a == nil || a.service == nil {
		return BoardState{}, fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}
	board, err := a.service.Board(ctx)
	if err != nil {
		return BoardState{}, mapAppError("board state", err)
	}

	cardsByID := make(map[string]domain.Card, len(board.Cards))
	for _, c := range board.Cards {
		cardsByID[c.ID] = c
	}
	buckets := kanban.Bucketize(boarditems.FromCards(board.Cards), boarditems.Columns(board.Columns))

	out := BoardState{Columns: make([]BoardColumn, 0, len(board.Columns))}
	for i, bucket := range buckets.All() {
		col := board.Columns[i]
		bc := BoardColumn{
			ID:        col.ID,
			Title:     col.Title,
			WIPLimit:  col.WIPLimit,
			OverLimit: col.OverLimit(len(bucket.Items)),
			Cards:     make([]BoardCard, 0, len(bucket.Items)),
		}
		for _, item := range bucket.Items {
			bc.Cards = append(bc.Cards, boardCardFromDomain(cardsByID[string(item.ID)]))
		}
		out.Total += len(bc.Cards)
		out.Columns = append(out.Columns, bc)
	}
	for _, id := range buckets.Fallback() {
		out.Misplaced = append(out.Misplaced, string(id))
	}
	return out, nil
}

// GetCard returns one card.
func (a *AppServiceAdapter) GetCard(ctx context.Context, id string) (BoardCard, error) {
	if strings.TrimSpace(id) == "" {
		return BoardCard{}, fmt.Errorf("card id is required: %w", ErrInvalidRequest)
	}
	card, err := a.service.GetCard(ctx, id)
	if err != nil {
		return BoardCard{}, mapAppError("get card", err)
	}
	return boardCardFromDomain(card), nil
}

// CreateCard creates one card.
func (a *AppServiceAdapter) CreateCard(ctx context.Context, in CreateCardRequest) (BoardCard, error) {
	card, err := a.service.CreateCard(ctx, app.CreateCardInput{
		Status:      in.Status,
		Title:       in.Title,
		Description: in.Description,
		Priority:    domain.Priority(strings.ToLower(strings.TrimSpace(in.Priority))),
		Labels:      in.Labels,
	})
	if err != nil {
		return BoardCard{}, mapAppError("create card", err)
	}
	return boardCardFromDomain(card), nil
}

// MoveCard changes a card's status.
func (a *AppServiceAdapter) MoveCard(ctx context.Context, in MoveCardRequest) (BoardCard, error) {
	if strings.TrimSpace(in.CardID) == "" {
		return BoardCard{}, fmt.Errorf("card id is required: %w", ErrInvalidRequest)
	}
	if strings.TrimSpace(in.Status) == "" {
		return BoardCard{}, fmt.Errorf("status is required: %w", ErrInvalidRequest)
	}
	card, err := a.service.UpdateCardStatus(ctx, in.CardID, in.Status)
	if err != nil {
		return BoardCard{}, mapAppError("move card", err)
	}
	return boardCardFromDomain(card), nil
}

// UpdateCard applies a partial detail edit on top of the stored card.
func (a *AppServiceAdapter) UpdateCard(ctx context.Context, in UpdateCardRequest) (BoardCard, error) {
	if strings.TrimSpace(in.CardID) == "" {
		return BoardCard{}, fmt.Errorf("card id is required: %w", ErrInvalidRequest)
	}
	current, err := a.service.GetCard(ctx, in.CardID)
	if err != nil {
		return BoardCard{}, mapAppError("update card", err)
	}
	input := app.UpdateCardInput{
		ID:          current.ID,
		Title:       current.Title,
		Description: current.Description,
		Priority:    current.Priority,
		Labels:      current.Labels,
	}
	if in.Title != nil {
		input.Title = *in.Title
	}
	if in.Description != nil {
		input.Description = *in.Description
	}
	if in.Priority != nil {
		input.Priority = domain.Priority(strings.ToLower(strings.TrimSpace(*in.Priority)))
	}
	if in.Labels != nil {
		input.Labels = *in.Labels
	}
	card, err := a.service.UpdateCard(ctx, input)
	if err != nil {
		return BoardCard{}, mapAppError("update card", err)
	}
	return boardCardFromDomain(card), nil
}

// DeleteCard removes one card.
func (a *AppServiceAdapter) DeleteCard(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("card id is required: %w", ErrInvalidRequest)
	}
	if err := a.service.DeleteCard(ctx, id); err != nil {
		return mapAppError("delete card", err)
	}
	return nil
}

func boardCardFromDomain(c domain.Card) BoardCard {
	labels := c.Labels
	if labels == nil {
		labels = []string{}
	}
	return BoardCard{
		ID:          c.ID,
		Status:      c.Status,
		Position:    c.Position,
		Title:       c.Title,
		Description: c.Description,
		Priority:    string(c.Priority),
		Labels:      labels,
		UpdatedAt:   c.UpdatedAt,
	}
}

// mapAppError maps app and domain errors onto transport sentinels.
func mapAppError(operation string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, app.ErrNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, app.ErrUnknownStatus),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidTitle),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidPriority),
		errors.Is(err, domain.ErrInvalidPosition):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}
