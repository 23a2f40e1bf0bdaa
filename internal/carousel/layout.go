package carousel

import (
	"math"
	"sort"

	"github.com/buzzarbrief/brief/internal/news"
)

// Role of a card in the stack.
type Role int

const (
	RolePrevious Role = iota
	RoleCurrent
	RoleNext
)

func (r Role) String() string {
	switch r {
	case RolePrevious:
		return "previous"
	case RoleCurrent:
		return "current"
	default:
		return "next"
	}
}

// Card is the render parameters of one visible card.
type Card struct {
	Role    Role
	Index   int
	Article news.Article

	// Offset is the vertical translation as a fraction of the card height.
	// Negative is above the viewport, positive below.
	Offset float64

	// Opacity is in [0, 1].
	Opacity float64

	// Z orders the stack; higher draws on top.
	Z int
}

// Layout computes the card stack for the current state. The current card
// fades as 1-|p|; the neighbour in the direction of travel slides from its
// resting offset toward 0 and fades in by |p|; the opposite neighbour stays
// fully offset and invisible. Cards are returned bottom to top.
func (c *Controller) Layout() []Card {
	if c.index < 0 || c.index >= len(c.articles) {
		return nil
	}

	p := math.Max(-1, math.Min(1, c.progress))
	travel := math.Abs(p)
	forward := p >= 0

	cards := make([]Card, 0, 3)

	if c.index > 0 {
		card := Card{
			Role:    RolePrevious,
			Index:   c.index - 1,
			Article: c.articles[c.index-1],
			Offset:  -1,
			Z:       0,
		}
		if !forward {
			card.Offset = -(1 - travel)
			card.Opacity = travel
			card.Z = 1
		}
		cards = append(cards, card)
	}

	if c.index < len(c.articles)-1 {
		card := Card{
			Role:    RoleNext,
			Index:   c.index + 1,
			Article: c.articles[c.index+1],
			Offset:  1,
			Z:       0,
		}
		if forward {
			card.Offset = 1 - travel
			card.Opacity = travel
			card.Z = 1
		}
		cards = append(cards, card)
	}

	cards = append(cards, Card{
		Role:    RoleCurrent,
		Index:   c.index,
		Article: c.articles[c.index],
		Offset:  0,
		Opacity: 1 - travel,
		Z:       2,
	})

	sort.SliceStable(cards, func(i, j int) bool { return cards[i].Z < cards[j].Z })
	return cards
}

// Visible returns the card that dominates the stack: the one with the
// highest opacity, preferring the higher Z on ties.
func Visible(cards []Card) (Card, bool) {
	if len(cards) == 0 {
		return Card{}, false
	}
	best := cards[0]
	for _, card := range cards[1:] {
		if card.Opacity > best.Opacity || (card.Opacity == best.Opacity && card.Z > best.Z) {
			best = card
		}
	}
	return best, true
}
