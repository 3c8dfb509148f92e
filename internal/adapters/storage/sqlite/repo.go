package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/evanschultz/kanboard/internal/app"
	"github.com/evanschultz/kanboard/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// fileDSNOptions lets the TUI and a serve process share one database file.
const fileDSNOptions = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// Repository represents repository data used by this package.
type Repository struct {
	db *sql.DB
}

// Open opens the database at path, creating its directory and schema.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path+fileDSNOptions)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// OpenInMemory opens in memory.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, "file::memory:?cache=shared")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the requested operation.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate handles migrate.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cards (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			priority TEXT NOT NULL DEFAULT 'medium',
			labels_json TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_cards_status_position ON cards(status, position);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// CreateCard creates card.
func (r *Repository) CreateCard(ctx context.Context, c domain.Card) error {
	labelsJSON, err := json.Marshal(nonNilLabels(c.Labels))
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO cards(id, status, position, title, description, priority, labels_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Status, c.Position, c.Title, c.Description, string(c.Priority), string(labelsJSON), ts(c.CreatedAt), ts(c.UpdatedAt))
	return err
}

// UpdateCard updates card.
func (r *Repository) UpdateCard(ctx context.Context, c domain.Card) error {
	labelsJSON, err := json.Marshal(nonNilLabels(c.Labels))
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE cards
		SET status = ?, position = ?, title = ?, description = ?, priority = ?, labels_json = ?, updated_at = ?
		WHERE id = ?
	`, c.Status, c.Position, c.Title, c.Description, string(c.Priority), string(labelsJSON), ts(c.UpdatedAt), c.ID)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// GetCard returns card.
func (r *Repository) GetCard(ctx context.Context, id string) (domain.Card, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, status, position, title, description, priority, labels_json, created_at, updated_at
		FROM cards
		WHERE id = ?
	`, id)
	card, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Card{}, app.ErrNotFound
	}
	return card, err
}

// ListCards lists cards.
func (r *Repository) ListCards(ctx context.Context) ([]domain.Card, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, status, position, title, description, priority, labels_json, created_at, updated_at
		FROM cards
		ORDER BY status ASC, position ASC, created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Card{}
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, card)
	}
	return out, rows.Err()
}

// DeleteCard deletes card.
func (r *Repository) DeleteCard(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCard(s scanner) (domain.Card, error) {
	var (
		c          domain.Card
		priority   string
		labelsRaw  string
		createdRaw string
		updatedRaw string
	)
	if err := s.Scan(
		&c.ID,
		&c.Status,
		&c.Position,
		&c.Title,
		&c.Description,
		&priority,
		&labelsRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return domain.Card{}, err
	}
	c.Priority = domain.Priority(priority)
	if err := json.Unmarshal([]byte(labelsRaw), &c.Labels); err != nil {
		return domain.Card{}, fmt.Errorf("decode labels for card %q: %w", c.ID, err)
	}
	c.CreatedAt = parseTS(createdRaw)
	c.UpdatedAt = parseTS(updatedRaw)
	return c, nil
}

func nonNilLabels(labels []string) []string {
	if labels == nil {
		return []string{}
	}
	return labels
}

// translateNoRows handles translate no rows.
func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}
