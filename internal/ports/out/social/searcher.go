package social

import "context"

// Post is one community mention of a café.
type Post struct {
	Title      string
	Author     string
	Permalink  string
	Score      float64
	CreatedUTC float64
}

// Searcher runs one query against the social-content search API. Individual
// queries are expected to fail independently; callers treat a failed query as
// an empty result.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Post, error)
}
