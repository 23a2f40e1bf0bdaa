package news

import "context"

// Source supplies ordered articles for a query.
type Source interface {
	SearchArticles(ctx context.Context, q Query) ([]Article, error)
}

var (
	_ Source = (*Client)(nil)
	_ Source = (*FeedSource)(nil)
)
