package app

import (
	"context"

	"github.com/evanschultz/kanboard/internal/domain"
)

// Repository persists cards. Columns come from configuration and are not stored.
type Repository interface {
	CreateCard(context.Context, domain.Card) error
	UpdateCard(context.Context, domain.Card) error
	GetCard(context.Context, string) (domain.Card, error)
	ListCards(context.Context) ([]domain.Card, error)
	DeleteCard(context.Context, string) error
}
