// Package reddit adapts Reddit's public search endpoint to the social port.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cafescout/cafe-scout-api/internal/ports/out/social"
)

const defaultUserAgent = "cafe-scout/1.0"

type Config struct {
	BaseURL   string // e.g. https://www.reddit.com
	UserAgent string

	HTTPTimeout time.Duration
}

type Searcher struct {
	cfg    Config
	client *http.Client
}

func New(cfg Config) *Searcher {
	return NewWithHTTPClient(cfg, nil)
}

func NewWithHTTPClient(cfg Config, httpClient *http.Client) *Searcher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.reddit.com"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	return &Searcher{cfg: cfg, client: httpClient}
}

type listing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title      string  `json:"title"`
				Author     string  `json:"author"`
				Permalink  string  `json:"permalink"`
				Score      float64 `json:"score"`
				CreatedUTC float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]social.Post, error) {
	if limit <= 0 {
		limit = 10
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", fmt.Sprint(limit))
	q.Set("sort", "relevance")
	q.Set("restrict_sr", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+"/search.json?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	// Reddit throttles the default Go user agent hard.
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit search: %s", resp.Status)
	}

	var parsed listing
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("reddit search: decode: %w", err)
	}

	posts := make([]social.Post, 0, len(parsed.Data.Children))
	for _, child := range parsed.Data.Children {
		posts = append(posts, social.Post{
			Title:      child.Data.Title,
			Author:     child.Data.Author,
			Permalink:  child.Data.Permalink,
			Score:      child.Data.Score,
			CreatedUTC: child.Data.CreatedUTC,
		})
	}
	return posts, nil
}
