package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, APIKey: "test-key", Model: "test-model"})
}

func completion(content string) []byte {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return b
}

func TestDescribeImage_SendsImagePartAndAuth(t *testing.T) {
	t.Parallel()

	var got chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path=%s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("auth=%q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write(completion("A sunlit corner café with window seating."))
	})

	desc, err := c.DescribeImage(context.Background(), "https://img.example/1.jpg")
	if err != nil {
		t.Fatalf("DescribeImage: %v", err)
	}
	if desc != "A sunlit corner café with window seating." {
		t.Fatalf("desc=%q", desc)
	}
	if got.Model != "test-model" || len(got.Messages) != 1 {
		t.Fatalf("request=%+v", got)
	}
	parts, ok := got.Messages[0].Content.([]any)
	if !ok || len(parts) != 2 {
		t.Fatalf("content=%#v", got.Messages[0].Content)
	}
}

func TestMatchReasons_OneLinePerCandidate(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(completion("Cozy and quiet.\nGreat espresso.\nExtra line that should be dropped."))
	})

	reasons, err := c.MatchReasons(context.Background(), []string{"Fabrica", "Copenhagen Coffee Lab"}, "Lisbon")
	if err != nil {
		t.Fatalf("MatchReasons: %v", err)
	}
	if len(reasons) != 2 || reasons[0] != "Cozy and quiet." {
		t.Fatalf("reasons=%v", reasons)
	}
}

func TestExtractKeywords_SplitsAndTrims(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(completion("- specialty coffee\n\n- laptop friendly\n"))
	})

	kw, err := c.ExtractKeywords(context.Background(), "somewhere I can work with good beans")
	if err != nil {
		t.Fatalf("ExtractKeywords: %v", err)
	}
	if len(kw) != 2 || kw[0] != "specialty coffee" || kw[1] != "laptop friendly" {
		t.Fatalf("keywords=%v", kw)
	}
}

func TestComplete_SurfacesAPIError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	})

	if _, err := c.DescribeImage(context.Background(), "ref"); err == nil {
		t.Fatal("expected error")
	}
}
