package domain

import (
	"slices"
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var validPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Card is the host-side record behind a board item.
type Card struct {
	ID          string
	Status      string
	Position    int
	Title       string
	Description string
	Priority    Priority
	Labels      []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CardInput struct {
	ID          string
	Status      string
	Position    int
	Title       string
	Description string
	Priority    Priority
	Labels      []string
}

func NewCard(in CardInput, now time.Time) (Card, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Status = strings.TrimSpace(in.Status)
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)

	if in.ID == "" {
		return Card{}, ErrInvalidID
	}
	if in.Status == "" {
		return Card{}, ErrInvalidStatus
	}
	if in.Title == "" {
		return Card{}, ErrInvalidTitle
	}
	if in.Position < 0 {
		return Card{}, ErrInvalidPosition
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !slices.Contains(validPriorities, in.Priority) {
		return Card{}, ErrInvalidPriority
	}

	return Card{
		ID:          in.ID,
		Status:      in.Status,
		Position:    in.Position,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Labels:      normalizeLabels(in.Labels),
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// SetStatus moves the card to another column and appends it at position.
func (c *Card) SetStatus(status string, position int, now time.Time) error {
	status = strings.TrimSpace(status)
	if status == "" {
		return ErrInvalidStatus
	}
	if position < 0 {
		return ErrInvalidPosition
	}
	c.Status = status
	c.Position = position
	c.UpdatedAt = now.UTC()
	return nil
}

func (c *Card) UpdateDetails(title, description string, priority Priority, labels []string, now time.Time) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrInvalidTitle
	}
	if !slices.Contains(validPriorities, priority) {
		return ErrInvalidPriority
	}
	c.Title = title
	c.Description = strings.TrimSpace(description)
	c.Priority = priority
	c.Labels = normalizeLabels(labels)
	c.UpdatedAt = now.UTC()
	return nil
}

func normalizeLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	seen := map[string]struct{}{}
	for _, raw := range labels {
		label := strings.ToLower(strings.TrimSpace(raw))
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	slices.Sort(out)
	return out
}
