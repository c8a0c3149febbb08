// Package enrich fronts the expensive upstream enrichment calls (LLM image
// descriptions, LLM match reasoning, social-mention aggregation) with
// process-local TTL caches. Results are best-effort: the HTTP layer degrades
// an upstream failure to an empty payload, so nothing here retries.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cafescout/cafe-scout-api/internal/domain"
	"github.com/cafescout/cafe-scout-api/internal/platform/memocache"
	"github.com/cafescout/cafe-scout-api/internal/platform/metrics"
	clockport "github.com/cafescout/cafe-scout-api/internal/ports/out/clock"
	"github.com/cafescout/cafe-scout-api/internal/ports/out/llm"
	"github.com/cafescout/cafe-scout-api/internal/ports/out/social"
)

const (
	cacheImage    = "image_description"
	cacheMentions = "social_mentions"
	cacheReasons  = "match_reasons"

	// mentionLimit caps each social subquery and the merged response.
	mentionLimit = 10
)

// ErrAllQueriesFailed means no social subquery produced a result; the
// aggregate is unknown rather than empty, so it is not cached.
var ErrAllQueriesFailed = errors.New("all social queries failed")

type Config struct {
	ImageCache    memocache.Config
	MentionsCache memocache.Config
	ReasonsCache  memocache.Config

	// SocialQueryTimeout bounds each fan-out subquery independently.
	SocialQueryTimeout time.Duration
}

type Service struct {
	llm    llm.Client
	social social.Searcher
	cfg    Config

	images   *memocache.Cache[string]
	mentions *memocache.Cache[[]social.Post]
	reasons  *memocache.Cache[[]string]
}

func NewService(llmClient llm.Client, socialSearcher social.Searcher, clk clockport.Clock, cfg Config) *Service {
	return &Service{
		llm:      llmClient,
		social:   socialSearcher,
		cfg:      cfg,
		images:   memocache.New[string](cfg.ImageCache, clk),
		mentions: memocache.New[[]social.Post](cfg.MentionsCache, clk),
		reasons:  memocache.New[[]string](cfg.ReasonsCache, clk),
	}
}

// DescribeImage returns a short descriptor for an image reference, memoized
// per reference.
func (s *Service) DescribeImage(ctx context.Context, imageRef string) (string, error) {
	key := strings.TrimSpace(imageRef)
	if key == "" {
		return "", &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid image reference", Details: map[string]any{"imageRef": "must be non-empty"}}
	}

	if v, ok := s.images.Get(key); ok {
		metrics.CacheHitsTotal.WithLabelValues(cacheImage).Inc()
		return v, nil
	}
	metrics.CacheMissesTotal.WithLabelValues(cacheImage).Inc()

	desc, err := s.llm.DescribeImage(ctx, imageRef)
	if err != nil {
		return "", err
	}
	s.images.Put(key, desc)
	return desc, nil
}

// Mentions aggregates community posts about a café. A fixed set of query
// variants runs concurrently; each subquery fails independently and partial
// results are fine, so one slow or broken variant never empties the response.
func (s *Service) Mentions(ctx context.Context, cafeName, city string) ([]social.Post, error) {
	name := domain.NormalizeToken(cafeName)
	place := domain.NormalizeToken(city)
	if name == "" || place == "" {
		return nil, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid mention query", Details: map[string]any{"cafeName": "must be non-empty", "city": "must be non-empty"}}
	}
	key := name + "|" + place

	if v, ok := s.mentions.Get(key); ok {
		metrics.CacheHitsTotal.WithLabelValues(cacheMentions).Inc()
		return v, nil
	}
	metrics.CacheMissesTotal.WithLabelValues(cacheMentions).Inc()

	queries := []string{
		fmt.Sprintf("%q %s", cafeName, city),
		fmt.Sprintf("%s %s cafe", cafeName, city),
		fmt.Sprintf("%s %s coffee review", cafeName, city),
	}

	results := make([][]social.Post, len(queries))
	oks := make([]bool, len(queries))
	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			qctx, cancel := context.WithTimeout(ctx, s.cfg.SocialQueryTimeout)
			defer cancel()
			posts, err := s.social.Search(qctx, q, mentionLimit)
			if err != nil {
				return
			}
			results[i] = posts
			oks[i] = true
		}(i, q)
	}
	wg.Wait()

	anyOK := false
	for _, ok := range oks {
		anyOK = anyOK || ok
	}
	if !anyOK {
		return nil, ErrAllQueriesFailed
	}

	merged := mergeMentions(results)
	s.mentions.Put(key, merged)
	return merged, nil
}

// mergeMentions dedupes by permalink (first occurrence wins), ranks posts by
// 0.7*score + 0.3*createdUTC/1e6 descending, and keeps the top mentionLimit.
func mergeMentions(batches [][]social.Post) []social.Post {
	seen := make(map[string]bool)
	merged := make([]social.Post, 0, mentionLimit)
	for _, batch := range batches {
		for _, p := range batch {
			if p.Permalink != "" && seen[p.Permalink] {
				continue
			}
			seen[p.Permalink] = true
			merged = append(merged, p)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return rank(merged[i]) > rank(merged[j])
	})
	if len(merged) > mentionLimit {
		merged = merged[:mentionLimit]
	}
	return merged
}

func rank(p social.Post) float64 {
	return 0.7*p.Score + 0.3*p.CreatedUTC/1e6
}

// MatchReasons returns one reason line per candidate café, memoized per
// (candidate set, destination). The key is order-insensitive so equivalent
// requests share an entry.
func (s *Service) MatchReasons(ctx context.Context, candidateNames []string, destination string) ([]string, error) {
	dest := domain.NormalizeToken(destination)
	if len(candidateNames) == 0 || dest == "" {
		return nil, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid match-reason request", Details: map[string]any{"candidateNames": "at least one candidate is required", "destination": "must be non-empty"}}
	}

	names := make([]string, 0, len(candidateNames))
	for _, n := range candidateNames {
		names = append(names, domain.NormalizeToken(n))
	}
	sort.Strings(names)
	key := dest + "|" + strings.Join(names, ",")

	if v, ok := s.reasons.Get(key); ok {
		metrics.CacheHitsTotal.WithLabelValues(cacheReasons).Inc()
		return v, nil
	}
	metrics.CacheMissesTotal.WithLabelValues(cacheReasons).Inc()

	reasons, err := s.llm.MatchReasons(ctx, candidateNames, destination)
	if err != nil {
		return nil, err
	}
	s.reasons.Put(key, reasons)
	return reasons, nil
}
