package kanban

type sessionState uint8

const (
	sessionIdle sessionState = iota
	sessionDragging
)

func (s sessionState) String() string {
	if s == sessionDragging {
		return "dragging"
	}
	return "idle"
}

// session is the Idle/Dragging state machine for a single gesture. Only card
// drags enter Dragging; column drag is disabled.
type session struct {
	state    sessionState
	activeID ID
	kind     Kind
}

// begin opens a card drag. It refuses while another gesture is active; the
// pointer layer never produces overlapping drags, so a second start is noise.
func (s *session) begin(id ID, kind Kind) bool {
	if s.state != sessionIdle || kind != KindCard || id == "" {
		return false
	}
	s.state = sessionDragging
	s.activeID = id
	s.kind = kind
	return true
}

// finish returns to Idle unconditionally and reports the id that was being
// dragged, if any.
func (s *session) finish() (ID, bool) {
	id, was := s.activeID, s.state == sessionDragging
	*s = session{}
	return id, was
}

func (s session) dragging() bool {
	return s.state == sessionDragging && s.kind == KindCard
}

func (s session) active() ID {
	return s.activeID
}
