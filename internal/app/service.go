package app

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/evanschultz/kanboard/internal/domain"
)

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	Columns []domain.Column
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service owns the authoritative card list behind the board.
type Service struct {
	repo    Repository
	idGen   IDGenerator
	clock   Clock
	columns []domain.Column
}

// NewService constructs a new value for this package.
func NewService(repo Repository, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	columns := sanitizeColumns(cfg.Columns)
	if len(columns) == 0 {
		columns = defaultColumns()
	}
	return &Service{
		repo:    repo,
		idGen:   idGen,
		clock:   clock,
		columns: columns,
	}
}

// Board is a point-in-time view of columns and cards.
type Board struct {
	Columns []domain.Column
	Cards   []domain.Card
}

// ListColumns returns the board columns in display order.
func (s *Service) ListColumns() []domain.Column {
	return slices.Clone(s.columns)
}

// ListCards returns every card ordered by column, then position.
func (s *Service) ListCards(ctx context.Context) ([]domain.Card, error) {
	cards, err := s.repo.ListCards(ctx)
	if err != nil {
		return nil, err
	}
	s.sortCards(cards)
	return cards, nil
}

// Board returns the current columns and ordered cards.
func (s *Service) Board(ctx context.Context) (Board, error) {
	cards, err := s.ListCards(ctx)
	if err != nil {
		return Board{}, err
	}
	return Board{Columns: s.ListColumns(), Cards: cards}, nil
}

// GetCard returns one card.
func (s *Service) GetCard(ctx context.Context, id string) (domain.Card, error) {
	return s.repo.GetCard(ctx, strings.TrimSpace(id))
}

// CreateCardInput holds input values for create card operations.
type CreateCardInput struct {
	Status      string
	Title       string
	Description string
	Priority    domain.Priority
	Labels      []string
}

// CreateCard appends a card to the end of its column. An empty status means
// the first column.
func (s *Service) CreateCard(ctx context.Context, in CreateCardInput) (domain.Card, error) {
	status := strings.ToLower(strings.TrimSpace(in.Status))
	if status == "" {
		status = s.columns[0].ID
	}
	if !s.knownStatus(status) {
		return domain.Card{}, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	position, err := s.nextPosition(ctx, status)
	if err != nil {
		return domain.Card{}, err
	}
	card, err := domain.NewCard(domain.CardInput{
		ID:          s.idGen(),
		Status:      status,
		Position:    position,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Labels:      in.Labels,
	}, s.clock())
	if err != nil {
		return domain.Card{}, err
	}
	if err := s.repo.CreateCard(ctx, card); err != nil {
		return domain.Card{}, err
	}
	return card, nil
}

// UpdateCardStatus moves a card to another column. This is the receiving end
// of a committed drag. Moving a card to the status it already has is a no-op.
func (s *Service) UpdateCardStatus(ctx context.Context, id, status string) (domain.Card, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !s.knownStatus(status) {
		return domain.Card{}, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	card, err := s.repo.GetCard(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Card{}, err
	}
	if card.Status == status {
		return card, nil
	}
	position, err := s.nextPosition(ctx, status)
	if err != nil {
		return domain.Card{}, err
	}
	if err := card.SetStatus(status, position, s.clock()); err != nil {
		return domain.Card{}, err
	}
	if err := s.repo.UpdateCard(ctx, card); err != nil {
		return domain.Card{}, err
	}
	return card, nil
}

// UpdateCardInput holds input values for update card operations.
type UpdateCardInput struct {
	ID          string
	Title       string
	Description string
	Priority    domain.Priority
	Labels      []string
}

// UpdateCard replaces a card's details.
func (s *Service) UpdateCard(ctx context.Context, in UpdateCardInput) (domain.Card, error) {
	card, err := s.repo.GetCard(ctx, strings.TrimSpace(in.ID))
	if err != nil {
		return domain.Card{}, err
	}
	priority := in.Priority
	if priority == "" {
		priority = card.Priority
	}
	if err := card.UpdateDetails(in.Title, in.Description, priority, in.Labels, s.clock()); err != nil {
		return domain.Card{}, err
	}
	if err := s.repo.UpdateCard(ctx, card); err != nil {
		return domain.Card{}, err
	}
	return card, nil
}

// DeleteCard removes a card.
func (s *Service) DeleteCard(ctx context.Context, id string) error {
	return s.repo.DeleteCard(ctx, strings.TrimSpace(id))
}

func (s *Service) knownStatus(status string) bool {
	return slices.ContainsFunc(s.columns, func(c domain.Column) bool { return c.ID == status })
}

func (s *Service) nextPosition(ctx context.Context, status string) (int, error) {
	cards, err := s.repo.ListCards(ctx)
	if err != nil {
		return 0, err
	}
	next := 0
	for _, c := range cards {
		if c.Status == status && c.Position >= next {
			next = c.Position + 1
		}
	}
	return next, nil
}

// sortCards orders by column position. Cards whose status names no column
// sort last so the board's first-column fallback shows them after real ones.
func (s *Service) sortCards(cards []domain.Card) {
	rank := make(map[string]int, len(s.columns))
	for i, c := range s.columns {
		rank[c.ID] = i
	}
	rankOf := func(status string) int {
		if r, ok := rank[status]; ok {
			return r
		}
		return len(s.columns)
	}
	slices.SortStableFunc(cards, func(a, b domain.Card) int {
		if ra, rb := rankOf(a.Status), rankOf(b.Status); ra != rb {
			return ra - rb
		}
		if a.Position != b.Position {
			return a.Position - b.Position
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func defaultColumns() []domain.Column {
	return []domain.Column{
		{ID: "todo", Title: "To Do", Position: 0},
		{ID: "progress", Title: "In Progress", Position: 1},
		{ID: "done", Title: "Done", Position: 2},
	}
}

func sanitizeColumns(in []domain.Column) []domain.Column {
	out := make([]domain.Column, 0, len(in))
	seen := map[string]struct{}{}
	for _, raw := range in {
		col, err := domain.NewColumn(raw.ID, raw.Title, len(out), max(raw.WIPLimit, 0))
		if err != nil {
			continue
		}
		if _, ok := seen[col.ID]; ok {
			continue
		}
		seen[col.ID] = struct{}{}
		out = append(out, col)
	}
	return out
}
