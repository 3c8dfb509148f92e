package kanban

import "strconv"

// ID identifies an item or a column. Integer ids from a host are carried in
// their decimal form; see IntID.
type ID string

// IntID converts an integer host id into an ID.
func IntID(n int64) ID {
	return ID(strconv.FormatInt(n, 10))
}

// String returns the raw id.
func (id ID) String() string {
	return string(id)
}

// Item represents one card on the board. Status names the column the item
// belongs to. Attributes are carried for the host and never read by the engine.
type Item struct {
	ID         ID
	Status     string
	Attributes map[string]string
}

// WithStatus returns a copy of the item with its status replaced.
func (i Item) WithStatus(status string) Item {
	i.Status = status
	return i
}

// Attr returns one opaque attribute, or "" when unset.
func (i Item) Attr(key string) string {
	if i.Attributes == nil {
		return ""
	}
	return i.Attributes[key]
}

// Column represents one board column supplied by the host.
type Column struct {
	ID    string
	Title string
}

func columnIndex(columns []Column, id string) int {
	for i, c := range columns {
		if c.ID == id {
			return i
		}
	}
	return -1
}
