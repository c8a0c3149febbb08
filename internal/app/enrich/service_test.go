package enrich_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	memclock "github.com/cafescout/cafe-scout-api/internal/adapters/memory/clock"
	"github.com/cafescout/cafe-scout-api/internal/app/enrich"
	"github.com/cafescout/cafe-scout-api/internal/platform/memocache"
	"github.com/cafescout/cafe-scout-api/internal/ports/out/social"
)

type fakeLLM struct {
	describeCalls int
	describeErr   error

	reasonsCalls int
	reasonsErr   error
}

func (f *fakeLLM) DescribeImage(_ context.Context, imageRef string) (string, error) {
	f.describeCalls++
	if f.describeErr != nil {
		return "", f.describeErr
	}
	return "description of " + imageRef, nil
}

func (f *fakeLLM) ExtractKeywords(_ context.Context, freeText string) ([]string, error) {
	return []string{freeText}, nil
}

func (f *fakeLLM) MatchReasons(_ context.Context, candidateNames []string, _ string) ([]string, error) {
	f.reasonsCalls++
	if f.reasonsErr != nil {
		return nil, f.reasonsErr
	}
	out := make([]string, len(candidateNames))
	for i, n := range candidateNames {
		out[i] = "reason for " + n
	}
	return out, nil
}

// fakeSocial returns a canned batch per query string; unknown queries error.
// Subqueries run concurrently, so the call counter is guarded.
type fakeSocial struct {
	byQuery map[string][]social.Post

	mu    sync.Mutex
	calls int
}

func (f *fakeSocial) Search(_ context.Context, query string, _ int) ([]social.Post, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	posts, ok := f.byQuery[query]
	if !ok {
		return nil, errors.New("query failed")
	}
	return posts, nil
}

func (f *fakeSocial) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testConfig() enrich.Config {
	return enrich.Config{
		ImageCache:         memocache.Config{TTL: time.Hour, SweepThreshold: 200},
		MentionsCache:      memocache.Config{TTL: 5 * time.Minute, SweepThreshold: 100},
		ReasonsCache:       memocache.Config{TTL: 30 * time.Minute, SweepThreshold: 100},
		SocialQueryTimeout: time.Second,
	}
}

func TestService_DescribeImage_CachesPerReference(t *testing.T) {
	t.Parallel()

	llmc := &fakeLLM{}
	clk := memclock.NewManualClock(time.Unix(1000, 0))
	svc := enrich.NewService(llmc, &fakeSocial{}, clk, testConfig())

	for i := 0; i < 3; i++ {
		desc, err := svc.DescribeImage(context.Background(), "img-1")
		if err != nil {
			t.Fatalf("DescribeImage: %v", err)
		}
		if desc != "description of img-1" {
			t.Fatalf("desc=%q", desc)
		}
	}
	if llmc.describeCalls != 1 {
		t.Fatalf("upstream calls=%d", llmc.describeCalls)
	}

	// Past the TTL the upstream is consulted again.
	clk.Advance(time.Hour + time.Second)
	if _, err := svc.DescribeImage(context.Background(), "img-1"); err != nil {
		t.Fatalf("DescribeImage after expiry: %v", err)
	}
	if llmc.describeCalls != 2 {
		t.Fatalf("upstream calls=%d", llmc.describeCalls)
	}
}

func TestService_DescribeImage_NeverCachesFailure(t *testing.T) {
	t.Parallel()

	llmc := &fakeLLM{describeErr: errors.New("model unavailable")}
	clk := memclock.NewManualClock(time.Unix(1000, 0))
	svc := enrich.NewService(llmc, &fakeSocial{}, clk, testConfig())

	if _, err := svc.DescribeImage(context.Background(), "img-1"); err == nil {
		t.Fatal("expected error")
	}

	llmc.describeErr = nil
	desc, err := svc.DescribeImage(context.Background(), "img-1")
	if err != nil {
		t.Fatalf("DescribeImage: %v", err)
	}
	if desc != "description of img-1" || llmc.describeCalls != 2 {
		t.Fatalf("desc=%q calls=%d", desc, llmc.describeCalls)
	}
}

func TestService_DescribeImage_ValidatesReference(t *testing.T) {
	t.Parallel()

	svc := enrich.NewService(&fakeLLM{}, &fakeSocial{}, memclock.NewManualClock(time.Unix(1000, 0)), testConfig())

	_, err := svc.DescribeImage(context.Background(), "   ")
	var ae *enrich.Error
	if !errors.As(err, &ae) || ae.Status != 422 {
		t.Fatalf("err=%v", err)
	}
}

func TestService_Mentions_MergesDedupesAndRanks(t *testing.T) {
	t.Parallel()

	soc := &fakeSocial{byQuery: map[string][]social.Post{
		`"Fabrica" Lisbon`: {
			{Title: "low score", Permalink: "/p1", Score: 1, CreatedUTC: 0},
			{Title: "high score", Permalink: "/p2", Score: 100, CreatedUTC: 0},
		},
		"Fabrica Lisbon cafe": {
			{Title: "duplicate of p2", Permalink: "/p2", Score: 50, CreatedUTC: 0},
			{Title: "recent", Permalink: "/p3", Score: 1, CreatedUTC: 1_700_000_000},
		},
		// "Fabrica Lisbon coffee review" is missing: that subquery fails.
	}}
	svc := enrich.NewService(&fakeLLM{}, soc, memclock.NewManualClock(time.Unix(1000, 0)), testConfig())

	posts, err := svc.Mentions(context.Background(), "Fabrica", "Lisbon")
	if err != nil {
		t.Fatalf("Mentions: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("posts=%v", posts)
	}
	// 0.7*1 + 0.3*1.7e9/1e6 = 510.7 outranks 0.7*100 = 70 outranks 0.7*1.
	if posts[0].Permalink != "/p3" || posts[1].Permalink != "/p2" || posts[2].Permalink != "/p1" {
		t.Fatalf("order=%s,%s,%s", posts[0].Permalink, posts[1].Permalink, posts[2].Permalink)
	}
	// The dedup kept the first occurrence of /p2.
	if posts[1].Title != "high score" {
		t.Fatalf("p2 title=%q", posts[1].Title)
	}
}

func TestService_Mentions_CapsAtTen(t *testing.T) {
	t.Parallel()

	var batch []social.Post
	for i := 0; i < 15; i++ {
		batch = append(batch, social.Post{Permalink: string(rune('a' + i)), Score: float64(i)})
	}
	soc := &fakeSocial{byQuery: map[string][]social.Post{`"Fabrica" Lisbon`: batch}}
	svc := enrich.NewService(&fakeLLM{}, soc, memclock.NewManualClock(time.Unix(1000, 0)), testConfig())

	posts, err := svc.Mentions(context.Background(), "Fabrica", "Lisbon")
	if err != nil {
		t.Fatalf("Mentions: %v", err)
	}
	if len(posts) != 10 {
		t.Fatalf("len=%d", len(posts))
	}
	// Highest ranked first.
	if posts[0].Score != 14 {
		t.Fatalf("top score=%v", posts[0].Score)
	}
}

func TestService_Mentions_AllQueriesFailed(t *testing.T) {
	t.Parallel()

	soc := &fakeSocial{byQuery: map[string][]social.Post{}}
	clk := memclock.NewManualClock(time.Unix(1000, 0))
	svc := enrich.NewService(&fakeLLM{}, soc, clk, testConfig())

	_, err := svc.Mentions(context.Background(), "Fabrica", "Lisbon")
	if !errors.Is(err, enrich.ErrAllQueriesFailed) {
		t.Fatalf("err=%v", err)
	}

	// The failure was not cached: a later call fans out again.
	before := soc.callCount()
	if _, err := svc.Mentions(context.Background(), "Fabrica", "Lisbon"); !errors.Is(err, enrich.ErrAllQueriesFailed) {
		t.Fatalf("err=%v", err)
	}
	if soc.callCount() == before {
		t.Fatal("second call served from cache")
	}
}

func TestService_Mentions_CachesAggregate(t *testing.T) {
	t.Parallel()

	soc := &fakeSocial{byQuery: map[string][]social.Post{
		`"Fabrica" Lisbon`: {{Permalink: "/p1", Score: 1}},
	}}
	svc := enrich.NewService(&fakeLLM{}, soc, memclock.NewManualClock(time.Unix(1000, 0)), testConfig())

	if _, err := svc.Mentions(context.Background(), "Fabrica", "Lisbon"); err != nil {
		t.Fatalf("first Mentions: %v", err)
	}
	callsAfterFirst := soc.callCount()

	// Equivalent spellings share the cache entry.
	if _, err := svc.Mentions(context.Background(), " fabrica ", "LISBON"); err != nil {
		t.Fatalf("second Mentions: %v", err)
	}
	if soc.callCount() != callsAfterFirst {
		t.Fatalf("calls=%d after cached read", soc.callCount())
	}
}

func TestService_MatchReasons_CacheKeyOrderInsensitive(t *testing.T) {
	t.Parallel()

	llmc := &fakeLLM{}
	svc := enrich.NewService(llmc, &fakeSocial{}, memclock.NewManualClock(time.Unix(1000, 0)), testConfig())

	first, err := svc.MatchReasons(context.Background(), []string{"A Brasileira", "Fabrica"}, "Lisbon")
	if err != nil {
		t.Fatalf("MatchReasons: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("reasons=%v", first)
	}

	second, err := svc.MatchReasons(context.Background(), []string{"Fabrica", "A Brasileira"}, "Lisbon")
	if err != nil {
		t.Fatalf("MatchReasons reordered: %v", err)
	}
	if llmc.reasonsCalls != 1 {
		t.Fatalf("upstream calls=%d", llmc.reasonsCalls)
	}
	if len(second) != 2 {
		t.Fatalf("reasons=%v", second)
	}
}

func TestService_MatchReasons_NeverCachesFailure(t *testing.T) {
	t.Parallel()

	llmc := &fakeLLM{reasonsErr: errors.New("model unavailable")}
	svc := enrich.NewService(llmc, &fakeSocial{}, memclock.NewManualClock(time.Unix(1000, 0)), testConfig())

	if _, err := svc.MatchReasons(context.Background(), []string{"Fabrica"}, "Lisbon"); err == nil {
		t.Fatal("expected error")
	}

	llmc.reasonsErr = nil
	reasons, err := svc.MatchReasons(context.Background(), []string{"Fabrica"}, "Lisbon")
	if err != nil {
		t.Fatalf("MatchReasons: %v", err)
	}
	if len(reasons) != 1 || llmc.reasonsCalls != 2 {
		t.Fatalf("reasons=%v calls=%d", reasons, llmc.reasonsCalls)
	}
}
