package kanban

// Target is the entity currently under the dragged card. For KindColumn the ID
// is the column id.
type Target struct {
	ID   ID
	Kind Kind
}

// CardTarget builds a target pointing at a card.
func CardTarget(id ID) *Target {
	return &Target{ID: id, Kind: KindCard}
}

// ColumnTarget builds a target pointing at a column body.
func ColumnTarget(columnID string) *Target {
	return &Target{ID: ID(columnID), Kind: KindColumn}
}

// StartEvent reports that the input layer picked up an entity.
type StartEvent struct {
	ActiveID ID
	Kind     Kind
}

// OverEvent reports the entity under the pointer. Over is nil when nothing is.
type OverEvent struct {
	ActiveID ID
	Over     *Target
}

// EndEvent reports the release. Over is nil when the drop landed on nothing,
// which includes a keyboard cancel.
type EndEvent struct {
	ActiveID ID
	Over     *Target
}

// Commit is the status change reported to the host at the end of a gesture.
type Commit struct {
	ID     ID
	Status string
}
