// Package carousel turns vertical drag gestures into discrete navigation
// over an ordered list of articles, and computes the layout of the
// previous/current/next card stack while a drag is in progress.
//
// The controller holds no timers. When a release commits a navigation step
// it returns a Transition which the caller schedules (in the UI, a tea.Tick)
// and hands back through Settle once the delay has passed.
package carousel

import (
	"math"
	"time"

	"github.com/buzzarbrief/brief/internal/news"
	"github.com/charmbracelet/log"
)

const (
	// DragDistanceThreshold is the travel, in pixels, that maps to full
	// swipe progress.
	DragDistanceThreshold = 200.0

	// CommitThreshold is the progress magnitude a release must exceed to
	// navigate.
	CommitThreshold = 0.5

	// SettleDelay is how long a committed transition animates before the
	// index changes.
	SettleDelay = 300 * time.Millisecond
)

// Direction of a gesture or navigation step.
type Direction int

const (
	// Forward moves to the next article.
	Forward Direction = iota
	// Backward moves to the previous article.
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

func (d Direction) sign() float64 {
	if d == Backward {
		return -1
	}
	return 1
}

// State of the controller.
type State int

const (
	// StateIdle means no gesture is active.
	StateIdle State = iota
	// StateDragging means a gesture is moving the cards.
	StateDragging
	// StateCommitting means a committed step is settling.
	StateCommitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	case StateCommitting:
		return "committing"
	default:
		return "unknown"
	}
}

// Transition is the outcome of releasing a gesture.
type Transition struct {
	// Committed is true when the release navigates.
	Committed bool

	// Direction of the committed step.
	Direction Direction

	// Settle is the delay after which Settle(Generation) must be called.
	Settle time.Duration

	// Generation identifies this transition. Settle ignores stale ones.
	Generation uint64
}

// Controller owns the carousel state. It is not safe for concurrent use;
// the UI drives it from its update loop.
type Controller struct {
	articles   []news.Article
	index      int
	progress   float64
	state      State
	committing Direction
	generation uint64
}

// New creates a controller positioned on the first article.
func New(articles []news.Article) *Controller {
	c := &Controller{}
	c.SetArticles(articles)
	return c
}

// SetArticles replaces the list wholesale, as after a new fetch. Any pending
// transition becomes stale.
func (c *Controller) SetArticles(articles []news.Article) {
	c.articles = articles
	c.index = 0
	if len(articles) == 0 {
		c.index = -1
	}
	c.progress = 0
	c.state = StateIdle
	c.generation++
}

// Articles returns the article list in collaborator order.
func (c *Controller) Articles() []news.Article { return c.articles }

// Len returns the number of articles.
func (c *Controller) Len() int { return len(c.articles) }

// Index returns the active index, or -1 when the list is empty.
func (c *Controller) Index() int { return c.index }

// Progress returns the swipe progress in [-1, 1]. Positive values move
// toward the next article.
func (c *Controller) Progress() float64 { return c.progress }

// State returns the controller state.
func (c *Controller) State() State { return c.state }

// Animating reports whether a committed transition is settling.
func (c *Controller) Animating() bool { return c.state == StateCommitting }

// Current returns the active article.
func (c *Controller) Current() (news.Article, bool) {
	if c.index < 0 || c.index >= len(c.articles) {
		return news.Article{}, false
	}
	return c.articles[c.index], true
}

// CanMove reports whether a step in the given direction has a target.
func (c *Controller) CanMove(dir Direction) bool {
	if c.index < 0 {
		return false
	}
	if dir == Backward {
		return c.index > 0
	}
	return c.index < len(c.articles)-1
}

// OnGestureMove updates progress from the cumulative displacement of the
// active drag. Moves while a transition settles are ignored. A move toward
// a missing neighbour is ignored too, except that a drag reversing past its
// origin is pinned at zero progress. It reports whether the move was applied.
func (c *Controller) OnGestureMove(deltaY float64, dir Direction) bool {
	if c.state == StateCommitting {
		return false
	}
	if !c.CanMove(dir) {
		if c.state == StateDragging {
			c.progress = 0
		}
		return false
	}

	progress := math.Abs(deltaY) / DragDistanceThreshold
	if math.IsNaN(progress) {
		progress = 0
	}
	progress = math.Min(progress, 1)

	c.progress = dir.sign() * progress
	c.state = StateDragging
	return true
}

// OnGestureEnd releases the active drag. Above the commit threshold the
// progress snaps to full travel and a Transition is returned for the caller
// to schedule; otherwise the drag is cancelled in place.
func (c *Controller) OnGestureEnd() Transition {
	if c.state != StateDragging {
		return Transition{}
	}

	if math.Abs(c.progress) <= CommitThreshold {
		c.progress = 0
		c.state = StateIdle
		return Transition{}
	}

	dir := Forward
	if c.progress < 0 {
		dir = Backward
	}
	return c.commit(dir)
}

// Step commits a full-travel move without a drag, as for a key press or a
// wheel tick. It is a no-op at the list boundaries and while settling.
func (c *Controller) Step(dir Direction) Transition {
	if c.state == StateCommitting || !c.CanMove(dir) {
		return Transition{}
	}
	return c.commit(dir)
}

func (c *Controller) commit(dir Direction) Transition {
	c.generation++
	c.committing = dir
	c.progress = dir.sign()
	c.state = StateCommitting
	log.Debug("carousel commit", "direction", dir, "from", c.index, "generation", c.generation)

	return Transition{
		Committed:  true,
		Direction:  dir,
		Settle:     SettleDelay,
		Generation: c.generation,
	}
}

// Settle completes the committed transition with the given generation:
// the index moves by one, progress resets and the controller returns to
// idle. Stale or unexpected calls are ignored. It reports whether the
// index changed.
func (c *Controller) Settle(generation uint64) bool {
	if c.state != StateCommitting || generation != c.generation {
		return false
	}

	next := c.index + 1
	if c.committing == Backward {
		next = c.index - 1
	}
	c.index = clamp(next, 0, len(c.articles)-1)
	c.progress = 0
	c.state = StateIdle
	return true
}

// Cancel abandons any drag or pending transition without moving.
func (c *Controller) Cancel() {
	if c.state == StateCommitting {
		c.generation++
	}
	c.progress = 0
	c.state = StateIdle
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return -1
	}
	return max(lo, min(v, hi))
}
