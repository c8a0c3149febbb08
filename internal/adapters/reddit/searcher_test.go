package reddit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const sampleListing = `{
	"data": {
		"children": [
			{"data": {"title": "Best flat white in Lisbon", "author": "u1", "permalink": "/r/coffee/1", "score": 42, "created_utc": 1700000000}},
			{"data": {"title": "Fabrica review", "author": "u2", "permalink": "/r/lisbon/2", "score": 7, "created_utc": 1710000000}}
		]
	}
}`

func TestSearch_ParsesListing(t *testing.T) {
	t.Parallel()

	var gotQuery, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search.json" {
			t.Errorf("path=%s", r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("q")
		gotAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(sampleListing))
	}))
	t.Cleanup(srv.Close)

	s := New(Config{BaseURL: srv.URL})
	posts, err := s.Search(context.Background(), `"Fabrica" Lisbon`, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotQuery != `"Fabrica" Lisbon` {
		t.Fatalf("query=%q", gotQuery)
	}
	if gotAgent != defaultUserAgent {
		t.Fatalf("user agent=%q", gotAgent)
	}
	if len(posts) != 2 {
		t.Fatalf("posts=%v", posts)
	}
	if posts[0].Permalink != "/r/coffee/1" || posts[0].Score != 42 || posts[0].CreatedUTC != 1700000000 {
		t.Fatalf("post=%+v", posts[0])
	}
}

func TestSearch_NonOKStatusIsAnError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	s := New(Config{BaseURL: srv.URL})
	if _, err := s.Search(context.Background(), "coffee", 10); err == nil {
		t.Fatal("expected error")
	}
}
