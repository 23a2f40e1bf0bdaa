package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// ClientConfig configures the REST client.
type ClientConfig struct {
	// BaseURL is the API root, e.g. "http://localhost:8000/api".
	BaseURL string

	// APIKey is sent in the X-API-KEY header.
	APIKey string

	// Timeout bounds each HTTP request (defaults to 15s).
	Timeout time.Duration

	// RequestsPerMinute throttles outgoing calls (defaults to 120).
	RequestsPerMinute int

	// PhoneRegion is the default region for numbers without a country code.
	PhoneRegion string

	// HTTPClient overrides the client used for requests.
	HTTPClient *http.Client
}

// Client talks to the news backend.
type Client struct {
	baseURL     *url.URL
	apiKey      string
	phoneRegion string
	http        *http.Client
	limiter     *rate.Limiter
}

// NewClient creates a backend client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrNotConfigured
	}
	u, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL scheme %q", u.Scheme)
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RequestsPerMinute == 0 {
		cfg.RequestsPerMinute = 120
	}
	if cfg.PhoneRegion == "" {
		cfg.PhoneRegion = "IN"
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		baseURL:     u,
		apiKey:      cfg.APIKey,
		phoneRegion: cfg.PhoneRegion,
		http:        hc,
		limiter:     rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 5),
	}, nil
}

type apiArticle struct {
	ID            any      `json:"id"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Summary       string   `json:"summary"`
	URL           string   `json:"url"`
	PublishedDate string   `json:"published_date"`
	Source        string   `json:"source"`
	Categories    []string `json:"categories"`
	ImageURL      string   `json:"image_url"`
}

func (a apiArticle) toArticle() Article {
	out := Article{
		Title:      strings.TrimSpace(a.Title),
		Content:    strings.TrimSpace(a.Content),
		Summary:    strings.TrimSpace(a.Summary),
		URL:        a.URL,
		Source:     a.Source,
		Categories: a.Categories,
		ImageURL:   a.ImageURL,
	}
	switch id := a.ID.(type) {
	case string:
		out.ID = id
	case float64:
		out.ID = strconv.FormatFloat(id, 'f', -1, 64)
	case nil:
		out.ID = a.URL
	default:
		out.ID = fmt.Sprint(id)
	}
	if a.PublishedDate != "" {
		if t, err := dateparse.ParseAny(a.PublishedDate); err == nil {
			out.PublishedDate = t
		} else {
			log.Debug("unparseable published date", "id", out.ID, "value", a.PublishedDate)
		}
	}
	return out
}

// SearchArticles runs a filtered search. An empty result is reported as
// ErrNoResults.
func (c *Client) SearchArticles(ctx context.Context, q Query) ([]Article, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}

	params := url.Values{
		"q":             {q.Text},
		"industry":      {strings.Join(q.Industries, ",")},
		"keyword":       {strings.Join(q.Keywords, ",")},
		"india_focus":   {strconv.FormatBool(q.IndiaFocus)},
		"business_only": {strconv.FormatBool(q.BusinessOnly)},
		"page":          {strconv.Itoa(q.Page)},
		"limit":         {strconv.Itoa(q.Limit)},
		"sort_by":       {"published_date"},
		"sort_order":    {"desc"},
	}

	var result struct {
		Articles []apiArticle `json:"articles"`
		Results  []apiArticle `json:"results"`
	}
	if err := c.getJSON(ctx, "fetch articles", "/news/search", params, &result); err != nil {
		if IsNoResults(err) {
			return nil, ErrNoResults
		}
		return nil, err
	}

	raw := result.Articles
	if len(raw) == 0 {
		raw = result.Results
	}
	if len(raw) == 0 {
		return nil, ErrNoResults
	}

	articles := make([]Article, 0, len(raw))
	for _, a := range raw {
		articles = append(articles, a.toArticle())
	}
	log.Debug("fetched articles", "count", len(articles), "industries", q.Industries)
	return articles, nil
}

// Article fetches a single article by ID.
func (c *Client) Article(ctx context.Context, id string) (Article, error) {
	var a apiArticle
	if err := c.getJSON(ctx, "fetch article", "/news/"+url.PathEscape(id), nil, &a); err != nil {
		return Article{}, err
	}
	return a.toArticle(), nil
}

// Industries returns the industries and their sub-industries, sorted by
// name and numbered from 1.
func (c *Client) Industries(ctx context.Context) ([]Industry, error) {
	var result struct {
		Industries map[string][]string `json:"industries"`
	}
	if err := c.getJSON(ctx, "fetch industries", "/industries", nil, &result); err != nil {
		return nil, err
	}
	return IndustriesFrom(result.Industries), nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, params url.Values, dst any) error {
	u := c.endpoint(path)
	if params != nil {
		u.RawQuery = params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	return c.do(req, op, dst)
}

func (c *Client) do(req *http.Request, op string, dst any) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
	}

	log.Debug("api request", "method", req.Method, "url", req.URL.Redacted())
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &APIError{Op: op, Status: resp.StatusCode}
	}
	if dst == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil && err != io.EOF {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}

func (c *Client) endpoint(path string) *url.URL {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	return &u
}
