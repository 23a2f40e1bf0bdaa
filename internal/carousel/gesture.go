package carousel

// DefaultPixelsPerRow approximates the height of one terminal cell.
const DefaultPixelsPerRow = 18.0

// Gesture converts pointer press, motion and release events reported in
// terminal rows into drag input for a Controller. Dragging upward moves
// forward, like swiping up on a phone.
type Gesture struct {
	c            *Controller
	pixelsPerRow float64
	startY       int
	active       bool
}

// NewGesture creates a tracker for the controller. A non-positive
// pixelsPerRow uses DefaultPixelsPerRow.
func NewGesture(c *Controller, pixelsPerRow float64) *Gesture {
	if pixelsPerRow <= 0 {
		pixelsPerRow = DefaultPixelsPerRow
	}
	return &Gesture{c: c, pixelsPerRow: pixelsPerRow}
}

// Active reports whether a press is being tracked.
func (g *Gesture) Active() bool { return g.active }

// Press starts tracking at row y.
func (g *Gesture) Press(y int) {
	g.startY = y
	g.active = true
}

// Motion reports the cumulative displacement since the press. It reports
// whether the controller accepted the move.
func (g *Gesture) Motion(y int) bool {
	if !g.active {
		return false
	}
	delta := float64(g.startY-y) * g.pixelsPerRow
	dir := Forward
	if delta < 0 {
		dir = Backward
	}
	if delta == 0 {
		// Back at the origin; keep the drag's direction so progress resets.
		dir = Forward
		if g.c.Progress() < 0 {
			dir = Backward
		}
	}
	return g.c.OnGestureMove(delta, dir)
}

// Release ends the gesture at row y.
func (g *Gesture) Release(y int) Transition {
	if !g.active {
		return Transition{}
	}
	g.Motion(y)
	g.active = false
	return g.c.OnGestureEnd()
}
