package news

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(ClientConfig{
		BaseURL:           srv.URL + "/api/",
		APIKey:            "secret",
		RequestsPerMinute: 6000,
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{"empty", "", true},
		{"blank", "   ", true},
		{"bad scheme", "ftp://example.com", true},
		{"http", "http://localhost:8000/api", false},
		{"https with slash", "https://news.example.com/api/", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(ClientConfig{BaseURL: tt.baseURL})
			if (err != nil) != tt.wantErr {
				t.Errorf("NewClient(%q) error = %v, wantErr %v", tt.baseURL, err, tt.wantErr)
			}
		})
	}

	if _, err := NewClient(ClientConfig{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestClient_SearchArticles(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/news/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-API-KEY"); got != "secret" {
			t.Errorf("X-API-KEY = %q", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID")
		}

		q := r.URL.Query()
		want := map[string]string{
			"q":             "budget",
			"industry":      "Banking,Fintech",
			"keyword":       "rbi",
			"india_focus":   "true",
			"business_only": "true",
			"page":          "1",
			"limit":         "10",
			"sort_by":       "published_date",
			"sort_order":    "desc",
		}
		for k, v := range want {
			if got := q.Get(k); got != v {
				t.Errorf("param %s = %q, want %q", k, got, v)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"articles":[
			{"id":42,"title":" First ","content":"Body","url":"https://a.example/1","published_date":"2024-05-02T10:00:00Z","source":"Mint"},
			{"id":"abc","title":"Second","summary":"Short","url":"https://a.example/2","published_date":"May 1, 2024","categories":["Banking"],"image_url":"https://img/2.png"}
		]}`))
	})

	q := DefaultQuery()
	q.Text = "budget"
	q.Industries = []string{"Banking", "Fintech"}
	q.Keywords = []string{"rbi"}

	articles, err := c.SearchArticles(context.Background(), q)
	if err != nil {
		t.Fatalf("SearchArticles failed: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("got %d articles, want 2", len(articles))
	}

	first := articles[0]
	if first.ID != "42" || first.Title != "First" {
		t.Errorf("first article = %+v", first)
	}
	if first.PublishedDate.IsZero() || first.PublishedDate.Day() != 2 {
		t.Errorf("first published date = %v", first.PublishedDate)
	}
	if first.Image() != DefaultImageURL {
		t.Errorf("expected placeholder image, got %q", first.Image())
	}
	if first.Lead() != "Body" {
		t.Errorf("Lead() = %q, want content fallback", first.Lead())
	}

	second := articles[1]
	if second.ID != "abc" || second.Lead() != "Short" || second.Image() != "https://img/2.png" {
		t.Errorf("second article = %+v", second)
	}
}

func TestClient_SearchArticles_ResultsKey(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"id":1,"title":"Only"}]}`))
	})

	articles, err := c.SearchArticles(context.Background(), Query{})
	if err != nil {
		t.Fatalf("SearchArticles failed: %v", err)
	}
	if len(articles) != 1 || articles[0].Title != "Only" {
		t.Errorf("unexpected articles: %+v", articles)
	}
}

func TestClient_SearchArticles_NoResults(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{"not found", http.StatusNotFound, `{"detail":"No articles"}`},
		{"empty list", http.StatusOK, `{"articles":[]}`},
		{"empty object", http.StatusOK, `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.payload))
			})
			_, err := c.SearchArticles(context.Background(), DefaultQuery())
			if !errors.Is(err, ErrNoResults) {
				t.Errorf("expected ErrNoResults, got %v", err)
			}
			if !IsNoResults(err) {
				t.Error("IsNoResults returned false")
			}
		})
	}
}

func TestClient_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.SearchArticles(context.Background(), DefaultQuery())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusInternalServerError {
		t.Errorf("status = %d", apiErr.Status)
	}
	if IsNoResults(err) {
		t.Error("server error must not read as no results")
	}
	if !strings.Contains(err.Error(), "fetch articles") {
		t.Errorf("error message %q lacks operation", err.Error())
	}
}

func TestClient_Article(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/news/7" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":7,"title":"Seven"}`))
	})

	a, err := c.Article(context.Background(), "7")
	if err != nil {
		t.Fatalf("Article failed: %v", err)
	}
	if a.ID != "7" || a.Title != "Seven" {
		t.Errorf("unexpected article %+v", a)
	}
}

func TestClient_Industries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/industries" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"industries":{
			"Technology":["AI","Semiconductors"],
			"Finance":["Banking","Fintech","Insurance"],
			"Energy":[]
		}}`))
	})

	industries, err := c.Industries(context.Background())
	if err != nil {
		t.Fatalf("Industries failed: %v", err)
	}

	wantNames := []string{"Energy", "Finance", "Technology"}
	if len(industries) != len(wantNames) {
		t.Fatalf("got %d industries, want %d", len(industries), len(wantNames))
	}
	for i, ind := range industries {
		if ind.ID != i+1 {
			t.Errorf("industry %d ID = %d", i, ind.ID)
		}
		if ind.Name != wantNames[i] {
			t.Errorf("industry %d name = %q, want %q", i, ind.Name, wantNames[i])
		}
	}
	if len(industries[1].SubIndustries) != 3 {
		t.Errorf("Finance sub-industries = %v", industries[1].SubIndustries)
	}
}

func TestClient_Subscribe(t *testing.T) {
	var got struct {
		PhoneNumber string `json:"phone_number"`
		Subscribe   bool   `json:"subscribe"`
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/newsletter/subscribe" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if err := c.Subscribe(context.Background(), "98765 43210", true); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if got.PhoneNumber != "+919876543210" || !got.Subscribe {
		t.Errorf("unexpected payload %+v", got)
	}
}

func TestClient_Subscribe_InvalidPhoneSkipsNetwork(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	for _, phone := range []string{"", "12", "not a number"} {
		err := c.Subscribe(context.Background(), phone, true)
		if !errors.Is(err, ErrInvalidPhone) {
			t.Errorf("Subscribe(%q) error = %v, want ErrInvalidPhone", phone, err)
		}
	}
	if called {
		t.Error("invalid phone numbers must not reach the server")
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		raw     string
		region  string
		want    string
		wantErr bool
	}{
		{"+1 650 253 0000", "IN", "+16502530000", false},
		{"9876543210", "IN", "+919876543210", false},
		{"(650) 253-0000", "us", "+16502530000", false},
		{"123", "IN", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := NormalizePhone(tt.raw, tt.region)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizePhone(%q) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
