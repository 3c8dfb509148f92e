package tui

import (
	"math"

	"github.com/evanschultz/kanboard/internal/kanban"
)

// defaultActivationDistance is the pointer travel, in cells, that turns a
// press into a drag.
const defaultActivationDistance = 2

// pointerSensor turns raw mouse press/motion/release into drag gestures. A
// press on a card arms the sensor; the drag starts only once the pointer has
// moved at least distance cells from the press point.
type pointerSensor struct {
	distance int

	armed   bool
	active  bool
	id      kanban.ID
	originX int
	originY int
	over    *kanban.Target
}

// press arms the sensor on a card.
func (s *pointerSensor) press(id kanban.ID, x, y int) {
	*s = pointerSensor{distance: s.distance, armed: true, id: id, originX: x, originY: y}
}

// exceeded reports whether (x, y) is far enough from the press point to
// start a drag.
func (s *pointerSensor) exceeded(x, y int) bool {
	if !s.armed {
		return false
	}
	dx := float64(x - s.originX)
	dy := float64(y - s.originY)
	if s.distance <= 0 {
		return dx != 0 || dy != 0
	}
	return math.Hypot(dx, dy) >= float64(s.distance)
}

// activate promotes an armed press into a live drag.
func (s *pointerSensor) activate() {
	if s.armed {
		s.active = true
	}
}

func (s *pointerSensor) reset() {
	*s = pointerSensor{distance: s.distance}
}

// keyboardSensor drives the same gesture from the keyboard: one key picks a
// card up, arrows hover neighbours, one key drops and escape cancels.
type keyboardSensor struct {
	active bool
	id     kanban.ID
	over   *kanban.Target
}

func (s *keyboardSensor) pickUp(id kanban.ID) {
	*s = keyboardSensor{active: true, id: id}
}

func (s *keyboardSensor) reset() {
	*s = keyboardSensor{}
}

// verticalTarget returns the card above (delta < 0) or below the active card
// in its current column.
func verticalTarget(buckets kanban.Buckets, id kanban.ID, delta int) *kanban.Target {
	col, row, ok := buckets.Locate(id)
	if !ok {
		return nil
	}
	items := buckets.At(col).Items
	next := row + delta
	if next < 0 || next >= len(items) {
		return nil
	}
	return kanban.CardTarget(items[next].ID)
}

// horizontalTarget returns the body of the column left (delta < 0) or right
// of the active card's column.
func horizontalTarget(buckets kanban.Buckets, id kanban.ID, delta int) *kanban.Target {
	col, _, ok := buckets.Locate(id)
	if !ok {
		return nil
	}
	next := col + delta
	if next < 0 || next >= buckets.Len() {
		return nil
	}
	return kanban.ColumnTarget(buckets.At(next).Column.ID)
}
