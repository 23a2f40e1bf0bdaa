package news

import (
	"sort"
	"strings"
	"time"
)

// DefaultImageURL is shown for articles that carry no image of their own.
const DefaultImageURL = "https://static.buzzarbrief.app/placeholder/article.png"

// Article is a single news item. Articles are read-only once fetched and are
// kept in the order the collaborator returned them.
type Article struct {
	ID            string
	Title         string
	Content       string
	Summary       string
	URL           string
	PublishedDate time.Time
	Source        string
	Categories    []string
	ImageURL      string
}

// Image returns the article image, falling back to the placeholder.
func (a Article) Image() string {
	if strings.TrimSpace(a.ImageURL) == "" {
		return DefaultImageURL
	}
	return a.ImageURL
}

// Lead returns the summary when present, the content otherwise.
func (a Article) Lead() string {
	if s := strings.TrimSpace(a.Summary); s != "" {
		return s
	}
	return strings.TrimSpace(a.Content)
}

// Industry groups sub-industry labels under a display name.
type Industry struct {
	ID            int
	Name          string
	SubIndustries []string
}

// DefaultIndustries are offered when no backend supplies a taxonomy.
var DefaultIndustries = map[string][]string{
	"Banking & Finance": {"Banking", "Fintech", "Insurance", "Markets"},
	"Energy":            {"Oil & Gas", "Power", "Renewables"},
	"Technology":        {"IT Services", "Semiconductors", "Startups", "Telecom"},
	"Consumer":          {"FMCG", "Retail", "E-commerce"},
	"Industry":          {"Automobile", "Infrastructure", "Manufacturing"},
	"Healthcare":        {"Pharma", "Hospitals"},
}

// IndustriesFrom orders a name to sub-industries mapping by name and
// numbers the industries from 1.
func IndustriesFrom(m map[string][]string) []Industry {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	industries := make([]Industry, 0, len(names))
	for i, name := range names {
		industries = append(industries, Industry{
			ID:            i + 1,
			Name:          name,
			SubIndustries: m[name],
		})
	}
	return industries
}

// Query holds the optional filters of an article search.
type Query struct {
	Text         string
	Industries   []string
	Keywords     []string
	IndiaFocus   bool
	BusinessOnly bool
	Page         int
	Limit        int
}

// DefaultQuery returns the filters the reader uses when nothing else is
// chosen: India-focused business news, first page of ten.
func DefaultQuery() Query {
	return Query{
		IndiaFocus:   true,
		BusinessOnly: true,
		Page:         1,
		Limit:        10,
	}
}
