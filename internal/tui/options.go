package tui

import (
	"slices"

	"github.com/charmbracelet/log"
	"github.com/evanschultz/kanboard/internal/domain"
	"github.com/evanschultz/kanboard/internal/kanban"
)

// BoardConfig toggles optional card and column decorations.
type BoardConfig struct {
	ShowWIPWarnings bool
	ShowLabels      bool
	ShowDescription bool
}

// DefaultBoardConfig returns the decorations shown when nothing is configured.
func DefaultBoardConfig() BoardConfig {
	return BoardConfig{
		ShowWIPWarnings: true,
		ShowLabels:      true,
		ShowDescription: false,
	}
}

// CardRenderer returns the lines drawn for one card at the given inner width.
// Every returned line is treated as part of the card for pointer hit testing.
type CardRenderer func(item kanban.Item, width int, cfg BoardConfig) []string

// ChangeSource reports external writes to the board's backing store.
type ChangeSource interface {
	Changed() <-chan struct{}
}

type Option func(*Model)

// WithColumns pins the column set instead of asking the service for it.
func WithColumns(columns []domain.Column) Option {
	return func(m *Model) {
		m.pinnedColumns = slices.Clone(columns)
	}
}

// WithActivationDistance sets how far, in cells, the pointer must travel with
// the button held before a press becomes a drag.
func WithActivationDistance(cells int) Option {
	return func(m *Model) {
		if cells >= 0 {
			m.pointer.distance = cells
		}
	}
}

func WithCardRenderer(render CardRenderer) Option {
	return func(m *Model) {
		if render != nil {
			m.renderCard = render
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithWatcher reloads the board whenever the source reports a change.
func WithWatcher(src ChangeSource) Option {
	return func(m *Model) {
		m.watcher = src
	}
}

func WithBoardConfig(cfg BoardConfig) Option {
	return func(m *Model) {
		m.boardCfg = cfg
	}
}
