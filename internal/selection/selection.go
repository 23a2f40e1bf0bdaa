// Package selection tracks the interests a reader picks before their first
// feed is fetched.
package selection

import (
	"slices"
	"sort"
	"strings"

	"github.com/buzzarbrief/brief/internal/news"
	"github.com/sahilm/fuzzy"
)

// MinSelections is the number of interests required before news can be
// fetched.
const MinSelections = 3

// Model holds the industries on offer and the sub-industries chosen, in
// the order they were chosen.
type Model struct {
	industries []news.Industry
	selected   []string
}

// New creates a Model over industries.
func New(industries []news.Industry) *Model {
	return &Model{industries: industries}
}

// Industries returns every industry on offer.
func (m *Model) Industries() []news.Industry {
	return m.industries
}

// Toggle selects sub if it is not selected and deselects it otherwise. It
// reports whether sub is selected afterwards.
func (m *Model) Toggle(sub string) bool {
	if i := slices.Index(m.selected, sub); i >= 0 {
		m.selected = slices.Delete(m.selected, i, i+1)
		return false
	}
	m.selected = append(m.selected, sub)
	return true
}

// Selected reports whether sub is selected.
func (m *Model) Selected(sub string) bool {
	return slices.Contains(m.selected, sub)
}

// Selections returns the selected sub-industries in selection order.
func (m *Model) Selections() []string {
	return slices.Clone(m.selected)
}

// Count returns the number of selected sub-industries.
func (m *Model) Count() int {
	return len(m.selected)
}

// Ready reports whether enough interests are selected to fetch news.
func (m *Model) Ready() bool {
	return len(m.selected) >= MinSelections
}

// Remaining returns how many more selections are needed.
func (m *Model) Remaining() int {
	return max(0, MinSelections-len(m.selected))
}

// Query builds the article query for the current selection.
func (m *Model) Query() news.Query {
	q := news.DefaultQuery()
	q.Industries = m.Selections()
	return q
}

// Filter returns the industries matching search. Industries whose name or
// any sub-industry contains the search text come first, in their original
// order, followed by fuzzy matches ranked by score. An empty search
// matches everything.
func (m *Model) Filter(search string) []news.Industry {
	search = strings.TrimSpace(search)
	if search == "" {
		return m.industries
	}
	needle := strings.ToLower(search)

	var (
		exact []news.Industry
		loose []scored
	)
	for _, ind := range m.industries {
		if contains(ind, needle) {
			exact = append(exact, ind)
			continue
		}
		terms := append([]string{ind.Name}, ind.SubIndustries...)
		if matches := fuzzy.Find(search, terms); len(matches) > 0 {
			loose = append(loose, scored{ind, matches[0].Score})
		}
	}

	sort.SliceStable(loose, func(i, j int) bool { return loose[i].score > loose[j].score })
	for _, s := range loose {
		exact = append(exact, s.industry)
	}
	return exact
}

type scored struct {
	industry news.Industry
	score    int
}

func contains(ind news.Industry, needle string) bool {
	if strings.Contains(strings.ToLower(ind.Name), needle) {
		return true
	}
	for _, sub := range ind.SubIndustries {
		if strings.Contains(strings.ToLower(sub), needle) {
			return true
		}
	}
	return false
}
