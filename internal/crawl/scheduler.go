// Package crawl runs the parallel crawl: every enabled source is invoked in
// a bounded worker pool under its own timeout and retry budget, results are
// aggregated in declared source order, and the batch flows through the
// dedup engine. No source failure ever aborts the run.
package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"newsflow/internal/cache"
	"newsflow/internal/core"
	"newsflow/internal/dedup"
	"newsflow/internal/health"
	"newsflow/internal/logger"
	"newsflow/internal/metrics"
)

// FailedSentinel marks a totally failed source in the stats map.
const FailedSentinel = -1

const retryBaseDelay = 500 * time.Millisecond

// Options configures a Scheduler.
type Options struct {
	MaxWorkers    int             // Bounded pool size, default 6
	SourceTimeout time.Duration   // Hard wall-clock cap per attempt, default 60s
	Retries       int             // Re-invocations after a failed attempt
	Dedup         dedup.Config    // Dedup engine configuration
	Cache         *cache.Store    // Optional result cache
	CacheTTL      time.Duration   // Freshness window for cache hits
	Health        *health.Tracker // Optional health recording
}

// Result is what a crawl emits to the next layer.
type Result struct {
	Articles   []core.Article
	Stats      map[string]int // source name → article count, -1 on total failure
	DedupStats dedup.Stats
	FromCache  bool
}

// Scheduler fans a crawl out over its sources.
type Scheduler struct {
	sources []core.Source
	opts    Options
	log     *slog.Logger
}

// NewScheduler creates a scheduler over the given sources, which crawl in
// the declared order's output positions regardless of completion order.
func NewScheduler(sources []core.Source, opts Options) *Scheduler {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 6
	}
	if opts.SourceTimeout <= 0 {
		opts.SourceTimeout = 60 * time.Second
	}
	return &Scheduler{
		sources: sources,
		opts:    opts,
		log:     logger.Get(),
	}
}

// sourceResult is one source's outcome, written into its declared-order
// slot by the pool.
type sourceResult struct {
	articles    []core.Article
	err         error
	latency     time.Duration // Wall clock of the successful attempt
	retriesUsed int
}

// Crawl runs the full pipeline: cache consult, parallel fan-out, health
// recording, aggregation, dedup and cache write-back. It always returns a
// result; after the crawl starts no failure propagates.
func (s *Scheduler) Crawl(ctx context.Context) *Result {
	key := cache.Key(s.sourceNames(), s.opts.Dedup.Threshold)

	if s.opts.Cache != nil {
		if articles, stats, ok := s.opts.Cache.Load(key, s.opts.CacheTTL); ok {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			s.log.Info("cache hit, skipping crawl", "key", key, "articles", len(articles))
			return &Result{
				Articles:   articles,
				Stats:      stats,
				DedupStats: dedup.Stats{TotalInput: len(articles), UniqueOutput: len(articles)},
				FromCache:  true,
			}
		}
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	}

	s.log.Info("starting crawl", "sources", len(s.sources), "max_workers", s.opts.MaxWorkers)
	start := time.Now()

	results := make([]sourceResult, len(s.sources))
	sem := make(chan struct{}, s.opts.MaxWorkers)
	var wg sync.WaitGroup

	for i, src := range s.sources {
		wg.Add(1)
		sem <- struct{}{}

		go func(slot int, src core.Source) {
			defer wg.Done()
			defer func() { <-sem }()
			results[slot] = s.runSource(ctx, src)
		}(i, src)
	}
	wg.Wait()

	// Aggregate in declared source order. Health and stats writes happen
	// here, on the scheduler side, so adapters never touch shared state.
	var articles []core.Article
	stats := make(map[string]int, len(s.sources))

	for i, src := range s.sources {
		res := results[i]
		name := src.Name()

		if res.err != nil {
			stats[name] = FailedSentinel
			metrics.SourceCrawls.WithLabelValues(name, "failure").Inc()
			if s.opts.Health != nil {
				s.opts.Health.RecordFailure(name)
			}
			s.log.Warn("source failed", "source", name, "error", res.err.Error())
			continue
		}

		stats[name] = len(res.articles)
		articles = append(articles, res.articles...)
		metrics.SourceCrawls.WithLabelValues(name, "success").Inc()
		metrics.ArticlesCrawled.WithLabelValues(name).Add(float64(len(res.articles)))
		metrics.CrawlDuration.WithLabelValues(name).Observe(res.latency.Seconds())
		if s.opts.Health != nil {
			s.opts.Health.RecordSuccess(name, len(res.articles), res.latency, res.retriesUsed)
		}
	}

	cfg := s.opts.Dedup
	if cfg.Stats == nil {
		cfg.Stats = &dedup.Stats{}
	}
	dedupStats := cfg.Stats
	deduped := dedup.New(cfg).Deduplicate(articles)

	metrics.DuplicatesRemoved.WithLabelValues("exact").Add(float64(dedupStats.ExactDupes))
	metrics.DuplicatesRemoved.WithLabelValues("fingerprint").Add(float64(dedupStats.FingerprintDupes))
	metrics.DuplicatesRemoved.WithLabelValues("fuzzy").Add(float64(dedupStats.FuzzyDupes))

	if s.opts.Health != nil {
		s.opts.Health.Save()
	}
	if s.opts.Cache != nil && ctx.Err() == nil {
		s.opts.Cache.Save(key, deduped, stats)
	}

	s.log.Info("crawl finished",
		"sources", len(s.sources),
		"articles", len(deduped),
		"dedup", dedupStats.Summary(),
		"elapsed", time.Since(start).String(),
	)

	return &Result{
		Articles:   deduped,
		Stats:      stats,
		DedupStats: *dedupStats,
	}
}

// runSource executes one source with its retry budget. Each attempt gets a
// fresh child context capped at SourceTimeout; a timed-out attempt is
// abandoned and counted as a failure. Panics inside adapters are captured
// as errors so one broken source cannot take down the pool.
func (s *Scheduler) runSource(ctx context.Context, src core.Source) sourceResult {
	var lastErr error

	for attempt := 0; attempt <= s.opts.Retries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return sourceResult{err: ctx.Err()}
			}
		}

		start := time.Now()
		articles, err := s.attempt(ctx, src)
		if err == nil {
			return sourceResult{
				articles:    articles,
				latency:     time.Since(start),
				retriesUsed: attempt,
			}
		}
		lastErr = err

		if ctx.Err() != nil {
			// The run itself was cancelled; don't burn retries.
			return sourceResult{err: ctx.Err()}
		}
		s.log.Debug("source attempt failed", "source", src.Name(), "attempt", attempt, "error", err.Error())
	}
	return sourceResult{err: lastErr}
}

// attempt invokes Crawl under the per-source timeout. The adapter goroutine
// may outlive an expired deadline; it observes cancellation at its next
// fetch boundary and its late result is discarded.
func (s *Scheduler) attempt(ctx context.Context, src core.Source) ([]core.Article, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.opts.SourceTimeout)
	defer cancel()

	type crawlOutcome struct {
		articles []core.Article
		err      error
	}
	done := make(chan crawlOutcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- crawlOutcome{err: fmt.Errorf("panic in source %s: %v", src.Name(), r)}
			}
		}()
		articles, err := src.Crawl(attemptCtx)
		done <- crawlOutcome{articles: articles, err: err}
	}()

	select {
	case outcome := <-done:
		return outcome.articles, outcome.err
	case <-attemptCtx.Done():
		return nil, fmt.Errorf("source %s timed out after %s: %w", src.Name(), s.opts.SourceTimeout, attemptCtx.Err())
	}
}

func (s *Scheduler) sourceNames() []string {
	names := make([]string, len(s.sources))
	for i, src := range s.sources {
		names[i] = src.Name()
	}
	return names
}
