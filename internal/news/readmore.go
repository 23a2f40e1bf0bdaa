package news

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// ErrNoContent is returned when a page has no extractable article text.
var ErrNoContent = errors.New("no readable content")

const maxPageSize = 5 << 20

// ReadMore downloads the page behind an article URL and extracts its main
// text. A nil client uses http.DefaultClient.
func ReadMore(ctx context.Context, hc *http.Client, articleURL string) (string, error) {
	u, err := url.Parse(articleURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("invalid article URL %q", articleURL)
	}
	if hc == nil {
		hc = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", "brief/1.0 (terminal news reader)")

	resp, err := hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch article: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return "", &APIError{Op: "fetch article page", Status: resp.StatusCode}
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, maxPageSize), u)
	if err != nil {
		return "", fmt.Errorf("failed to extract article: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return "", ErrNoContent
	}
	return text, nil
}
