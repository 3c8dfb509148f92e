package kanban

import "strings"

// Kind tags the entity an input event refers to.
type Kind uint8

const (
	KindNone Kind = iota
	KindCard
	KindColumn
)

// String returns the host-facing tag for the kind.
func (k Kind) String() string {
	switch k {
	case KindCard:
		return "Card"
	case KindColumn:
		return "Column"
	default:
		return "None"
	}
}

// ParseKind maps a host type tag onto a Kind. Unknown tags map to KindNone.
func ParseKind(tag string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "card":
		return KindCard, true
	case "column":
		return KindColumn, true
	default:
		return KindNone, false
	}
}
