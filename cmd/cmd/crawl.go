package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"newsflow/internal/cache"
	"newsflow/internal/clustering"
	"newsflow/internal/config"
	"newsflow/internal/crawl"
	"newsflow/internal/dedup"
	"newsflow/internal/fetch"
	"newsflow/internal/filters"
	"newsflow/internal/health"
	"newsflow/internal/history"
	"newsflow/internal/logger"
	"newsflow/internal/relevance"
	"newsflow/internal/render"
	"newsflow/internal/sentiment"
	"newsflow/internal/sources"
)

var crawlFlags struct {
	categories        []string
	excludeCategories []string
	sourceFilters     []string
	excludeSources    []string
	search            []string
	exclude           []string
	since             string
	minQuality        float64
	weighted          bool
	languages         []string
	excludeLanguages  []string
	strictLang        bool
	minRead           int
	maxRead           int
	tone              string
	noDoom            bool
	tags              []string
	excludeTags       []string
	authors           []string
	excludeAuthors    []string
	profilePath       string
	interests         string
	minRelevance      float64
	limit             int
	sample            int

	noDedup   bool
	threshold float64
	useCache  bool
	history   bool
	stories   bool
	asJSON    bool
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl all enabled sources and print the merged article stream",
	RunE:  runCrawl,
}

func init() {
	f := crawlCmd.Flags()
	f.StringSliceVar(&crawlFlags.categories, "category", nil, "only these categories")
	f.StringSliceVar(&crawlFlags.excludeCategories, "exclude-category", nil, "drop these categories")
	f.StringSliceVar(&crawlFlags.sourceFilters, "source", nil, "only source labels containing these substrings")
	f.StringSliceVar(&crawlFlags.excludeSources, "exclude-source", nil, "drop source labels containing these substrings")
	f.StringSliceVar(&crawlFlags.search, "search", nil, "only articles whose title/summary contains these keywords")
	f.StringSliceVar(&crawlFlags.exclude, "exclude", nil, "drop articles whose title/summary contains these keywords")
	f.StringVar(&crawlFlags.since, "since", "", "only articles newer than this window, e.g. 24h")
	f.Float64Var(&crawlFlags.minQuality, "min-quality", 0, "quality floor in [0,1]")
	f.BoolVar(&crawlFlags.weighted, "weighted", false, "weight the quality floor by source health")
	f.StringSliceVar(&crawlFlags.languages, "lang", nil, "only these languages")
	f.StringSliceVar(&crawlFlags.excludeLanguages, "exclude-lang", nil, "drop these languages")
	f.BoolVar(&crawlFlags.strictLang, "strict-lang", false, "drop undetected languages from --lang results")
	f.IntVar(&crawlFlags.minRead, "min-read", 0, "minimum estimated read minutes")
	f.IntVar(&crawlFlags.maxRead, "max-read", 0, "maximum estimated read minutes")
	f.StringVar(&crawlFlags.tone, "tone", "", "keep only this tone: positive, negative or neutral")
	f.BoolVar(&crawlFlags.noDoom, "no-doom", false, "drop doom-laden articles")
	f.StringSliceVar(&crawlFlags.tags, "tag", nil, "only articles carrying these tags")
	f.StringSliceVar(&crawlFlags.excludeTags, "exclude-tag", nil, "drop articles carrying these tags")
	f.StringSliceVar(&crawlFlags.authors, "author", nil, "only these authors")
	f.StringSliceVar(&crawlFlags.excludeAuthors, "exclude-author", nil, "drop these authors")
	f.StringVar(&crawlFlags.profilePath, "profile", "", "relevance profile file (YAML or JSON)")
	f.StringVar(&crawlFlags.interests, "interests", "", "shorthand interests, e.g. \"AI, rust, skateboarding\"")
	f.Float64Var(&crawlFlags.minRelevance, "min-relevance", 0, "relevance floor in [0,1], needs a profile")
	f.IntVar(&crawlFlags.limit, "limit", 0, "truncate the final list")
	f.IntVar(&crawlFlags.sample, "sample", 0, "uniform random sample size")

	f.BoolVar(&crawlFlags.noDedup, "no-dedup", false, "skip deduplication")
	f.Float64Var(&crawlFlags.threshold, "threshold", 0, "fuzzy dedup threshold override")
	f.BoolVar(&crawlFlags.useCache, "cache", false, "use the result cache")
	f.BoolVar(&crawlFlags.history, "history", false, "drop articles seen in previous runs")
	f.BoolVar(&crawlFlags.stories, "stories", false, "cluster the output into ranked stories")
	f.BoolVar(&crawlFlags.asJSON, "json", false, "print JSON instead of text")

	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	if cfg.App.MetricsAddr != "" {
		go serveMetrics(cfg.App.MetricsAddr)
	}

	// Profile problems are configuration errors: they surface before the
	// crawl starts.
	var profile *relevance.Profile
	if crawlFlags.profilePath != "" {
		p, err := relevance.LoadProfile(crawlFlags.profilePath)
		if err != nil {
			return err
		}
		profile = p
	} else if crawlFlags.interests != "" {
		profile = relevance.ParseInterests(crawlFlags.interests)
	}

	var sinceCutoff time.Time
	if crawlFlags.since != "" {
		window, err := time.ParseDuration(crawlFlags.since)
		if err != nil {
			return fmt.Errorf("invalid --since window: %w", err)
		}
		sinceCutoff = time.Now().Add(-window)
	}

	client := fetch.NewClient(fetch.Options{
		Timeout:     config.Duration(cfg.Fetch.Timeout),
		MaxRetries:  cfg.Fetch.MaxRetries,
		RetryJitter: cfg.Fetch.RetryJitter,
		BaseBackoff: config.Duration(cfg.Fetch.BaseBackoff),
		RateLimit:   cfg.Fetch.RateLimit,
		UserAgent:   cfg.Fetch.UserAgent,
	})

	srcs, err := sources.Build(cfg.Sources, client)
	if err != nil {
		return err
	}

	tracker := health.NewTracker(cfg.App.StateDir)

	threshold := cfg.Crawl.DedupThreshold
	if crawlFlags.threshold > 0 {
		threshold = crawlFlags.threshold
	}

	opts := crawl.Options{
		MaxWorkers:    cfg.Crawl.MaxWorkers,
		SourceTimeout: config.Duration(cfg.Crawl.SourceTimeout),
		Retries:       cfg.Crawl.Retries,
		Dedup: dedup.Config{
			Enabled:   cfg.Crawl.DedupEnabled && !crawlFlags.noDedup,
			Threshold: threshold,
		},
		Health: tracker,
	}
	if crawlFlags.useCache || cfg.Cache.Enabled {
		opts.Cache = cache.NewStore(cfg.App.CacheDir)
		opts.CacheTTL = config.Duration(cfg.Cache.TTL)
	}

	scheduler := crawl.NewScheduler(srcs, opts)
	result := scheduler.Crawl(cmd.Context())

	articles := result.Articles
	if crawlFlags.history || cfg.History.Enabled {
		store := history.NewStore(cfg.App.CacheDir)
		articles = store.FilterSeen(articles, config.Duration(cfg.History.TTL))
	}

	filterOpts := filters.Options{
		Categories:        crawlFlags.categories,
		ExcludeCategories: crawlFlags.excludeCategories,
		Sources:           crawlFlags.sourceFilters,
		ExcludeSources:    crawlFlags.excludeSources,
		Search:            crawlFlags.search,
		ExcludeKeywords:   crawlFlags.exclude,
		Since:             sinceCutoff,
		MinQuality:        crawlFlags.minQuality,
		Languages:         crawlFlags.languages,
		ExcludeLanguages:  crawlFlags.excludeLanguages,
		StrictLanguage:    crawlFlags.strictLang,
		MinReadTime:       crawlFlags.minRead,
		MaxReadTime:       crawlFlags.maxRead,
		Tone:              sentiment.Tone(crawlFlags.tone),
		NoDoom:            crawlFlags.noDoom,
		Tags:              crawlFlags.tags,
		ExcludeTags:       crawlFlags.excludeTags,
		Authors:           crawlFlags.authors,
		ExcludeAuthors:    crawlFlags.excludeAuthors,
		Profile:           profile,
		MinRelevance:      crawlFlags.minRelevance,
		Limit:             crawlFlags.limit,
		Sample:            crawlFlags.sample,
	}
	if crawlFlags.weighted {
		filterOpts.QualityWeight = func(label string) float64 {
			return tracker.Get(label).Modifier()
		}
	}
	articles = filters.Apply(articles, filterOpts)

	if crawlFlags.stories || cfg.Stories.Enabled {
		stories := clustering.New(cfg.Stories.Threshold).Cluster(articles)
		if crawlFlags.asJSON {
			return printJSON(stories)
		}
		fmt.Print(render.Stories(stories))
	} else {
		if crawlFlags.asJSON {
			return printJSON(articles)
		}
		fmt.Print(render.Articles(articles))
	}

	fmt.Fprint(os.Stderr, render.Stats(result))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// serveMetrics exposes the Prometheus collectors for the duration of the
// crawl. Useful when newsflow runs as a long-lived cron-style loop behind a
// scraper; the listener dies with the process.
func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("metrics listener failed", "addr", addr, "error", err.Error())
	}
}
