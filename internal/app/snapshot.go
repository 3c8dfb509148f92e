package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/evanschultz/kanboard/internal/domain"
)

// SnapshotVersion defines a package constant value.
const SnapshotVersion = "kanboard.snapshot.v1"

// Snapshot is the portable JSON form of a board.
type Snapshot struct {
	Version    string           `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Columns    []SnapshotColumn `json:"columns"`
	Cards      []SnapshotCard   `json:"cards"`
}

// SnapshotColumn represents snapshot column data used by this package.
type SnapshotColumn struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Position int    `json:"position"`
	WIPLimit int    `json:"wip_limit"`
}

// SnapshotCard represents snapshot card data used by this package.
type SnapshotCard struct {
	ID          string          `json:"id"`
	Status      string          `json:"status"`
	Position    int             `json:"position"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    domain.Priority `json:"priority"`
	Labels      []string        `json:"labels"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ExportSnapshot captures every card along with the configured columns.
func (s *Service) ExportSnapshot(ctx context.Context) (Snapshot, error) {
	cards, err := s.ListCards(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: s.clock().UTC(),
		Columns:    make([]SnapshotColumn, 0, len(s.columns)),
		Cards:      make([]SnapshotCard, 0, len(cards)),
	}
	for _, c := range s.columns {
		snap.Columns = append(snap.Columns, SnapshotColumn{ID: c.ID, Title: c.Title, Position: c.Position, WIPLimit: c.WIPLimit})
	}
	for _, c := range cards {
		snap.Cards = append(snap.Cards, snapshotCardFromDomain(c))
	}
	snap.sort()
	return snap, nil
}

// ImportSnapshot upserts the snapshot's cards. Columns in the snapshot are
// informational; cards must target a configured column.
func (s *Service) ImportSnapshot(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	snap.sort()
	for _, sc := range snap.Cards {
		card := sc.toDomain()
		if !s.knownStatus(card.Status) {
			return fmt.Errorf("card %q: %w: %q", card.ID, ErrUnknownStatus, card.Status)
		}
		if _, err := s.repo.GetCard(ctx, card.ID); err == nil {
			if err := s.repo.UpdateCard(ctx, card); err != nil {
				return err
			}
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		if err := s.repo.CreateCard(ctx, card); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the requested operation.
func (s *Snapshot) Validate() error {
	if s.Version != "" && s.Version != SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version: %q", s.Version)
	}
	ids := map[string]struct{}{}
	for i, c := range s.Cards {
		if strings.TrimSpace(c.ID) == "" {
			return fmt.Errorf("cards[%d].id is required", i)
		}
		if strings.TrimSpace(c.Title) == "" {
			return fmt.Errorf("cards[%d].title is required", i)
		}
		if strings.TrimSpace(c.Status) == "" {
			return fmt.Errorf("cards[%d].status is required", i)
		}
		if c.Position < 0 {
			return fmt.Errorf("cards[%d].position must be >= 0", i)
		}
		if c.CreatedAt.IsZero() || c.UpdatedAt.IsZero() {
			return fmt.Errorf("cards[%d] timestamps are required", i)
		}
		if _, exists := ids[c.ID]; exists {
			return fmt.Errorf("duplicate card id: %q", c.ID)
		}
		ids[c.ID] = struct{}{}
	}
	return nil
}

func (s *Snapshot) sort() {
	sort.Slice(s.Columns, func(i, j int) bool {
		if s.Columns[i].Position == s.Columns[j].Position {
			return s.Columns[i].ID < s.Columns[j].ID
		}
		return s.Columns[i].Position < s.Columns[j].Position
	})
	sort.SliceStable(s.Cards, func(i, j int) bool {
		a, b := s.Cards[i], s.Cards[j]
		if a.Status == b.Status {
			if a.Position == b.Position {
				return a.ID < b.ID
			}
			return a.Position < b.Position
		}
		return a.Status < b.Status
	})
}

func snapshotCardFromDomain(c domain.Card) SnapshotCard {
	return SnapshotCard{
		ID:          c.ID,
		Status:      c.Status,
		Position:    c.Position,
		Title:       c.Title,
		Description: c.Description,
		Priority:    c.Priority,
		Labels:      append([]string(nil), c.Labels...),
		CreatedAt:   c.CreatedAt.UTC(),
		UpdatedAt:   c.UpdatedAt.UTC(),
	}
}

func (c SnapshotCard) toDomain() domain.Card {
	priority := c.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	return domain.Card{
		ID:          strings.TrimSpace(c.ID),
		Status:      strings.ToLower(strings.TrimSpace(c.Status)),
		Position:    c.Position,
		Title:       strings.TrimSpace(c.Title),
		Description: strings.TrimSpace(c.Description),
		Priority:    priority,
		Labels:      append([]string(nil), c.Labels...),
		CreatedAt:   c.CreatedAt.UTC(),
		UpdatedAt:   c.UpdatedAt.UTC(),
	}
}
