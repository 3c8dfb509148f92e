package boarditems

import (
	"testing"
	"time"

	"github.com/evanschultz/kanboard/internal/domain"
)

func TestFromCard(t *testing.T) {
	c, err := domain.NewCard(domain.CardInput{ID: "c1", Status: "done", Title: "Ship", Priority: domain.PriorityHigh, Labels: []string{"b", "a"}}, time.Now())
	if err != nil {
		t.Fatalf("NewCard() error = %v", err)
	}
	it := FromCard(c)
	if it.ID != "c1" || it.Status != "done" {
		t.Fatalf("unexpected item %#v", it)
	}
	if it.Attr(AttrTitle) != "Ship" || it.Attr(AttrLabels) != "a,b" || it.Attr(AttrPriority) != "high" {
		t.Fatalf("unexpected attributes %#v", it.Attributes)
	}
}

func TestFromCardsKeepsOrder(t *testing.T) {
	now := time.Now()
	var cards []domain.Card
	for _, id := range []string{"z", "a", "m"} {
		c, err := domain.NewCard(domain.CardInput{ID: id, Status: "todo", Title: id}, now)
		if err != nil {
			t.Fatalf("NewCard() error = %v", err)
		}
		cards = append(cards, c)
	}
	items := FromCards(cards)
	if len(items) != 3 || items[0].ID != "z" || items[2].ID != "m" {
		t.Fatalf("unexpected items %#v", items)
	}
	if got := FromCards(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestColumns(t *testing.T) {
	cols := Columns([]domain.Column{{ID: "todo", Title: "To Do", WIPLimit: 3}, {ID: "done", Title: "Done"}})
	if len(cols) != 2 || cols[0].ID != "todo" || cols[0].Title != "To Do" || cols[1].ID != "done" {
		t.Fatalf("unexpected columns %#v", cols)
	}
}
