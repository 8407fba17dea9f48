package crawl

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsflow/internal/cache"
	"newsflow/internal/core"
	"newsflow/internal/dedup"
	"newsflow/internal/health"
)

type fakeSource struct {
	name  string
	crawl func(ctx context.Context) ([]core.Article, error)
}

func (f *fakeSource) Name() string { return f.name }
func (f *fakeSource) Crawl(ctx context.Context) ([]core.Article, error) {
	return f.crawl(ctx)
}

func yields(name string, titles ...string) *fakeSource {
	return &fakeSource{name: name, crawl: func(ctx context.Context) ([]core.Article, error) {
		var out []core.Article
		for _, title := range titles {
			out = append(out, core.NewArticle(title, "https://"+name+".example.com/"+title, name))
		}
		return out, nil
	}}
}

func fails(name string) *fakeSource {
	return &fakeSource{name: name, crawl: func(ctx context.Context) ([]core.Article, error) {
		return nil, errors.New("upstream unavailable")
	}}
}

func hangs(name string) *fakeSource {
	return &fakeSource{name: name, crawl: func(ctx context.Context) ([]core.Article, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(10 * time.Second):
			return nil, nil
		}
	}}
}

func TestCrawlAggregatesInDeclaredOrder(t *testing.T) {
	scheduler := NewScheduler([]core.Source{
		&fakeSource{name: "slowstart", crawl: func(ctx context.Context) ([]core.Article, error) {
			time.Sleep(50 * time.Millisecond)
			return []core.Article{core.NewArticle("late but first", "https://a.com/1", "slowstart")}, nil
		}},
		yields("quick", "early but second"),
	}, Options{})

	result := scheduler.Crawl(context.Background())
	require.Len(t, result.Articles, 2)
	assert.Equal(t, "late but first", result.Articles[0].Title, "output follows declared order, not completion order")
	assert.Equal(t, "early but second", result.Articles[1].Title)
}

func TestFailingSourceDoesNotAffectPeers(t *testing.T) {
	scheduler := NewScheduler([]core.Source{
		fails("broken"),
		yields("healthy", "survivor one", "survivor two"),
	}, Options{})

	result := scheduler.Crawl(context.Background())
	assert.Len(t, result.Articles, 2)
	assert.Equal(t, FailedSentinel, result.Stats["broken"])
	assert.Equal(t, 2, result.Stats["healthy"])
}

func TestHangingSourceIsTimedOut(t *testing.T) {
	scheduler := NewScheduler([]core.Source{
		hangs("stuck"),
		yields("fast", "a story", "b story", "c story"),
	}, Options{SourceTimeout: 100 * time.Millisecond})

	start := time.Now()
	result := scheduler.Crawl(context.Background())

	assert.Less(t, time.Since(start), 2*time.Second, "the crawl must not wait out the hang")
	assert.Len(t, result.Articles, 3)
	assert.Equal(t, FailedSentinel, result.Stats["stuck"])
	assert.Equal(t, 3, result.Stats["fast"])
}

func TestPanickingSourceIsIsolated(t *testing.T) {
	scheduler := NewScheduler([]core.Source{
		&fakeSource{name: "bomb", crawl: func(ctx context.Context) ([]core.Article, error) {
			panic("adapter bug")
		}},
		yields("calm", "still here"),
	}, Options{})

	result := scheduler.Crawl(context.Background())
	assert.Len(t, result.Articles, 1)
	assert.Equal(t, FailedSentinel, result.Stats["bomb"])
}

func TestAllSourcesFailedYieldsEmptyResult(t *testing.T) {
	scheduler := NewScheduler([]core.Source{fails("a"), fails("b")}, Options{})

	result := scheduler.Crawl(context.Background())
	require.NotNil(t, result)
	assert.Empty(t, result.Articles)
	assert.Equal(t, FailedSentinel, result.Stats["a"])
	assert.Equal(t, FailedSentinel, result.Stats["b"])
}

func TestRetryBudget(t *testing.T) {
	var attempts int32
	flaky := &fakeSource{name: "flaky", crawl: func(ctx context.Context) ([]core.Article, error) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			return nil, errors.New("transient")
		}
		return []core.Article{core.NewArticle("second try", "https://f.com/1", "flaky")}, nil
	}}

	scheduler := NewScheduler([]core.Source{flaky}, Options{Retries: 1})
	result := scheduler.Crawl(context.Background())

	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
	assert.Equal(t, 1, result.Stats["flaky"])
}

func TestNoRetriesWithoutBudget(t *testing.T) {
	var attempts int32
	scheduler := NewScheduler([]core.Source{
		&fakeSource{name: "flaky", crawl: func(ctx context.Context) ([]core.Article, error) {
			atomic.AddInt32(&attempts, 1)
			return nil, errors.New("transient")
		}},
	}, Options{})

	result := scheduler.Crawl(context.Background())
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
	assert.Equal(t, FailedSentinel, result.Stats["flaky"])
}

func TestCrawlDeduplicatesAcrossSources(t *testing.T) {
	scheduler := NewScheduler([]core.Source{
		&fakeSource{name: "first", crawl: func(ctx context.Context) ([]core.Article, error) {
			return []core.Article{core.NewArticle("Shared breaking story", "https://news.example.com/shared", "first")}, nil
		}},
		&fakeSource{name: "second", crawl: func(ctx context.Context) ([]core.Article, error) {
			return []core.Article{core.NewArticle("Shared breaking story", "https://news.example.com/shared?utm_source=mirror", "second")}, nil
		}},
	}, Options{Dedup: dedup.Config{Enabled: true}})

	result := scheduler.Crawl(context.Background())
	require.Len(t, result.Articles, 1)
	assert.Equal(t, 2, result.Articles[0].SourceCount)
	assert.Equal(t, 1, result.DedupStats.ExactDupes)
	// Per-source stats count raw articles, before dedup.
	assert.Equal(t, 1, result.Stats["first"])
	assert.Equal(t, 1, result.Stats["second"])
}

func TestCrawlRecordsHealth(t *testing.T) {
	dir := t.TempDir()
	tracker := health.NewTracker(dir)

	scheduler := NewScheduler([]core.Source{
		yields("good", "one story"),
		fails("bad"),
	}, Options{Health: tracker})
	scheduler.Crawl(context.Background())

	assert.Equal(t, 1, tracker.Get("good").TotalCrawls)
	assert.Equal(t, 0, tracker.Get("good").Failures)
	assert.Equal(t, 1, tracker.Get("bad").Failures)

	// Save happens as part of the crawl.
	reloaded := health.NewTracker(dir)
	assert.Equal(t, 1, reloaded.Get("bad").Failures)
}

func TestCrawlUsesCache(t *testing.T) {
	var calls int32
	counted := &fakeSource{name: "counted", crawl: func(ctx context.Context) ([]core.Article, error) {
		atomic.AddInt32(&calls, 1)
		return []core.Article{core.NewArticle("cached story", "https://c.com/1", "counted")}, nil
	}}

	opts := Options{
		Cache:    cache.NewStore(t.TempDir()),
		CacheTTL: time.Hour,
	}

	first := NewScheduler([]core.Source{counted}, opts).Crawl(context.Background())
	require.Len(t, first.Articles, 1)
	assert.False(t, first.FromCache)

	second := NewScheduler([]core.Source{counted}, opts).Crawl(context.Background())
	require.Len(t, second.Articles, 1)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Articles, second.Articles)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "cache hit must skip the source entirely")
}

func TestCacheKeyedByThreshold(t *testing.T) {
	var calls int32
	counted := &fakeSource{name: "counted", crawl: func(ctx context.Context) ([]core.Article, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	}}

	store := cache.NewStore(t.TempDir())
	NewScheduler([]core.Source{counted}, Options{
		Cache: store, CacheTTL: time.Hour,
		Dedup: dedup.Config{Enabled: true, Threshold: 0.85},
	}).Crawl(context.Background())
	NewScheduler([]core.Source{counted}, Options{
		Cache: store, CacheTTL: time.Hour,
		Dedup: dedup.Config{Enabled: true, Threshold: 0.75},
	}).Crawl(context.Background())

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "different thresholds must not share a cache entry")
}

func TestCancelledContextSkipsCacheWrite(t *testing.T) {
	store := cache.NewStore(t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := NewScheduler([]core.Source{hangs("stuck")}, Options{
		Cache: store, CacheTTL: time.Hour,
	}).Crawl(ctx)
	assert.Empty(t, result.Articles)

	// A fresh run with a live context must not see a poisoned entry.
	fresh := NewScheduler([]core.Source{yields("stuck", "real story")}, Options{
		Cache: store, CacheTTL: time.Hour,
	}).Crawl(context.Background())
	assert.False(t, fresh.FromCache)
	assert.Len(t, fresh.Articles, 1)
}
