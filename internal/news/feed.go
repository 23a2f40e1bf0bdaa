package news

import (
	"context"
	"crypto/sha256"
	"fmt"
	"html"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
)

// FeedSource serves articles from RSS/Atom feeds so the reader works
// without a backend. Filters are applied locally.
type FeedSource struct {
	feeds      []string
	industries map[string][]string
	parser     *gofeed.Parser
	strip      *bluemonday.Policy
}

// NewFeedSource creates a source over the given feed URLs.
func NewFeedSource(feeds []string) *FeedSource {
	return &FeedSource{
		feeds:  feeds,
		parser: gofeed.NewParser(),
		strip:  bluemonday.StrictPolicy(),
	}
}

// SetIndustries sets the interests offered for selection, keyed by
// industry name. Without it, DefaultIndustries are offered.
func (f *FeedSource) SetIndustries(m map[string][]string) {
	f.industries = m
}

// Industries returns the configured interests. Feeds carry no taxonomy of
// their own, so selections are matched against item categories and text.
func (f *FeedSource) Industries(context.Context) ([]Industry, error) {
	if len(f.industries) == 0 {
		return IndustriesFrom(DefaultIndustries), nil
	}
	return IndustriesFrom(f.industries), nil
}

// SearchArticles fetches every feed concurrently, filters the items against
// the query and returns them newest first. Feeds that fail are logged and
// skipped; an error is returned only when all of them fail.
func (f *FeedSource) SearchArticles(ctx context.Context, q Query) ([]Article, error) {
	if len(f.feeds) == 0 {
		return nil, ErrNotConfigured
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		all      []Article
		failures int
		lastErr  error
	)
	for _, u := range f.feeds {
		wg.Add(1)
		go func(feedURL string) {
			defer wg.Done()
			articles, err := f.fetch(ctx, feedURL)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn("feed fetch failed", "url", feedURL, "err", err)
				failures++
				lastErr = err
				return
			}
			all = append(all, articles...)
		}(u)
	}
	wg.Wait()

	if failures == len(f.feeds) {
		return nil, lastErr
	}

	matched := all[:0]
	for _, a := range all {
		if q.matches(a) {
			matched = append(matched, a)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].PublishedDate.After(matched[j].PublishedDate)
	})

	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(matched) {
		return nil, ErrNoResults
	}
	end := min(start+limit, len(matched))
	return matched[start:end], nil
}

func (f *FeedSource) fetch(ctx context.Context, feedURL string) ([]Article, error) {
	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", feedURL, err)
	}

	articles := make([]Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		link := item.Link
		if link == "" {
			link = item.GUID
		}
		title := strings.TrimSpace(item.Title)
		if link == "" || title == "" {
			continue
		}

		a := Article{
			ID:         articleID(link),
			Title:      title,
			Summary:    f.text(item.Description),
			Content:    f.text(item.Content),
			URL:        link,
			Source:     feed.Title,
			Categories: item.Categories,
		}
		if item.PublishedParsed != nil {
			a.PublishedDate = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			a.PublishedDate = *item.UpdatedParsed
		}
		if item.Image != nil {
			a.ImageURL = item.Image.URL
		}
		articles = append(articles, a)
	}
	log.Debug("parsed feed", "url", feedURL, "items", len(articles))
	return articles, nil
}

func (f *FeedSource) text(s string) string {
	s = html.UnescapeString(f.strip.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

// matches reports whether an article passes the query's text, industry and
// keyword filters. Matching is case-insensitive over title, summary and
// categories. Empty filters match everything.
func (q Query) matches(a Article) bool {
	haystack := strings.ToLower(a.Title + " " + a.Summary + " " + strings.Join(a.Categories, " "))

	if t := strings.TrimSpace(q.Text); t != "" && !strings.Contains(haystack, strings.ToLower(t)) {
		return false
	}
	if !containsAny(haystack, q.Industries) {
		return false
	}
	return containsAny(haystack, q.Keywords)
}

func containsAny(haystack string, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" && strings.Contains(haystack, t) {
			return true
		}
	}
	return false
}

func articleID(link string) string {
	h := sha256.Sum256([]byte(link))
	return fmt.Sprintf("%x", h[:16])
}
