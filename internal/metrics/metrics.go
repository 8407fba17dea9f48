// Package metrics exposes Prometheus collectors for the crawl pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ArticlesCrawled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsflow_articles_crawled_total",
			Help: "The total number of articles returned by source crawls",
		},
		[]string{"source"},
	)

	SourceCrawls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsflow_source_crawls_total",
			Help: "The total number of source crawl attempts by outcome",
		},
		[]string{"source", "status"},
	)

	CrawlDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsflow_source_crawl_duration_seconds",
			Help:    "Wall-clock duration of successful source crawls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	DuplicatesRemoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsflow_duplicates_removed_total",
			Help: "The total number of articles removed by the dedup engine",
		},
		[]string{"stage"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsflow_cache_lookups_total",
			Help: "Result cache lookups by outcome",
		},
		[]string{"outcome"},
	)
)
