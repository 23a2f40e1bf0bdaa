package selection

import (
	"reflect"
	"testing"

	"github.com/buzzarbrief/brief/internal/news"
)

func industries() []news.Industry {
	return []news.Industry{
		{ID: 1, Name: "Banking", SubIndustries: []string{"Retail Banking", "Fintech"}},
		{ID: 2, Name: "Energy", SubIndustries: []string{"Solar", "Oil & Gas"}},
		{ID: 3, Name: "Technology", SubIndustries: []string{"Semiconductors", "Software"}},
	}
}

func names(in []news.Industry) []string {
	var out []string
	for _, ind := range in {
		out = append(out, ind.Name)
	}
	return out
}

func TestToggle(t *testing.T) {
	m := New(industries())

	if !m.Toggle("Solar") || !m.Selected("Solar") {
		t.Fatal("Solar should be selected")
	}
	if m.Toggle("Solar") || m.Selected("Solar") {
		t.Fatal("second toggle should deselect")
	}

	m.Toggle("Fintech")
	m.Toggle("Software")
	m.Toggle("Solar")
	if got, want := m.Selections(), []string{"Fintech", "Software", "Solar"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Selections() = %v, want %v", got, want)
	}
}

func TestReady(t *testing.T) {
	m := New(industries())
	for i, sub := range []string{"Solar", "Fintech", "Software"} {
		if m.Ready() {
			t.Fatalf("ready with %d selections", i)
		}
		if got := m.Remaining(); got != MinSelections-i {
			t.Errorf("Remaining() = %d, want %d", got, MinSelections-i)
		}
		m.Toggle(sub)
	}
	if !m.Ready() || m.Remaining() != 0 {
		t.Error("three selections should be enough")
	}

	m.Toggle("Software")
	if m.Ready() {
		t.Error("deselecting should drop below the minimum")
	}
}

func TestQuery(t *testing.T) {
	m := New(industries())
	m.Toggle("Solar")
	m.Toggle("Fintech")

	q := m.Query()
	if !reflect.DeepEqual(q.Industries, []string{"Solar", "Fintech"}) {
		t.Errorf("Industries = %v", q.Industries)
	}
	if !q.IndiaFocus || !q.BusinessOnly {
		t.Error("query should default to India-focused business news")
	}
	if q.Page != 1 || q.Limit != 10 {
		t.Errorf("page=%d limit=%d", q.Page, q.Limit)
	}

	// The query owns its slice.
	q.Industries[0] = "changed"
	if m.Selections()[0] != "Solar" {
		t.Error("Query() leaked the selection slice")
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name   string
		search string
		want   []string
	}{
		{"empty matches all", "  ", []string{"Banking", "Energy", "Technology"}},
		{"industry name", "ener", []string{"Energy"}},
		{"sub-industry, case insensitive", "SOFT", []string{"Technology"}},
		{"shared substring keeps order", "ing", []string{"Banking"}},
		{"fuzzy", "smcnd", []string{"Technology"}},
		{"nothing", "zzzz", nil},
	}
	m := New(industries())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := names(m.Filter(tt.search)); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter(%q) = %v, want %v", tt.search, got, tt.want)
			}
		})
	}
}
