// Package config loads application configuration from file, environment and
// defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App     App     `mapstructure:"app"`
	Fetch   Fetch   `mapstructure:"fetch"`
	Crawl   Crawl   `mapstructure:"crawl"`
	Cache   Cache   `mapstructure:"cache"`
	History History `mapstructure:"history"`
	Stories Stories `mapstructure:"stories"`
	Sources Sources `mapstructure:"sources"`
	Logging Logging `mapstructure:"logging"`
}

// App holds general application configuration
type App struct {
	DataDir     string `mapstructure:"data_dir"`     // Root for cache/history/health files
	CacheDir    string `mapstructure:"cache_dir"`    // Result cache + history directory (defaults under DataDir)
	StateDir    string `mapstructure:"state_dir"`    // Health file directory (defaults under DataDir)
	MetricsAddr string `mapstructure:"metrics_addr"` // Listen address for /metrics, empty disables
}

// Fetch holds HTTP fetcher configuration
type Fetch struct {
	Timeout     string  `mapstructure:"timeout"`      // Per-attempt HTTP timeout
	MaxRetries  int     `mapstructure:"max_retries"`  // Retries after the first attempt
	RetryJitter float64 `mapstructure:"retry_jitter"` // Randomization factor on backoff
	BaseBackoff string  `mapstructure:"base_backoff"` // First backoff interval
	RateLimit   float64 `mapstructure:"rate_limit"`   // Per-host requests/sec, 0 disables
	UserAgent   string  `mapstructure:"user_agent"`
}

// Crawl holds scheduler configuration
type Crawl struct {
	MaxWorkers     int     `mapstructure:"max_workers"`     // Bounded worker pool size
	SourceTimeout  string  `mapstructure:"source_timeout"`  // Hard per-source wall clock cap
	Retries        int     `mapstructure:"retries"`         // Scheduler-level re-invocations of a failed source
	DedupEnabled   bool    `mapstructure:"dedup_enabled"`
	DedupThreshold float64 `mapstructure:"dedup_threshold"` // Fuzzy similarity cutoff in [0,1]
}

// Cache holds result cache configuration
type Cache struct {
	Enabled bool   `mapstructure:"enabled"`
	TTL     string `mapstructure:"ttl"`
}

// History holds cross-run seen-set configuration
type History struct {
	Enabled bool   `mapstructure:"enabled"`
	TTL     string `mapstructure:"ttl"`
}

// Stories holds story clustering configuration
type Stories struct {
	Enabled   bool    `mapstructure:"enabled"`
	Threshold float64 `mapstructure:"threshold"` // Lower than dedup: group, don't eliminate
}

// Sources holds the enabled adapter set and per-adapter inputs
type Sources struct {
	Enabled  []string  `mapstructure:"enabled"`   // Adapter names in declared crawl order
	RSSFeeds []string  `mapstructure:"rss_feeds"` // Feed URLs for the rss adapter
	WebPages []WebPage `mapstructure:"web_pages"` // Scraped HTML index pages for the web adapter
	HNLimit  int       `mapstructure:"hn_limit"`  // Top stories fetched by the hn adapter
}

// WebPage describes one scraped HTML index page
type WebPage struct {
	URL      string `mapstructure:"url"`
	Selector string `mapstructure:"selector"` // CSS selector for headline anchors
	Label    string `mapstructure:"label"`    // Human-readable source label
	Category string `mapstructure:"category"` // Fallback category bucket
}

// Logging holds logging configuration
type Logging struct {
	Level string `mapstructure:"level"`
}

var globalConfig *Config

// Load loads the configuration from .env, a config file and the environment.
// Configuration errors are the only errors that surface before a crawl
// starts, so they are returned rather than logged.
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".newsflow")
		viper.SetConfigType("yaml")
	}

	setDefaults()

	viper.SetEnvPrefix("NEWSFLOW")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := postProcess(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// Reset clears the cached configuration. Intended for tests.
func Reset() {
	globalConfig = nil
	viper.Reset()
}

func setDefaults() {
	viper.SetDefault("app.data_dir", defaultDataDir())
	viper.SetDefault("app.metrics_addr", "")

	viper.SetDefault("fetch.timeout", "15s")
	viper.SetDefault("fetch.max_retries", 2)
	viper.SetDefault("fetch.retry_jitter", 0.5)
	viper.SetDefault("fetch.base_backoff", "500ms")
	viper.SetDefault("fetch.rate_limit", 0.0)
	viper.SetDefault("fetch.user_agent",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")

	viper.SetDefault("crawl.max_workers", 6)
	viper.SetDefault("crawl.source_timeout", "60s")
	viper.SetDefault("crawl.retries", 0)
	viper.SetDefault("crawl.dedup_enabled", true)
	viper.SetDefault("crawl.dedup_threshold", 0.85)

	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.ttl", "30m")

	viper.SetDefault("history.enabled", false)
	viper.SetDefault("history.ttl", "72h")

	viper.SetDefault("stories.enabled", false)
	viper.SetDefault("stories.threshold", 0.65)

	viper.SetDefault("sources.enabled", []string{"hn", "rss"})
	viper.SetDefault("sources.hn_limit", 30)

	viper.SetDefault("logging.level", "info")
}

// postProcess resolves derived paths and validates durations and ranges.
func postProcess(c *Config) error {
	if c.App.CacheDir == "" {
		c.App.CacheDir = filepath.Join(c.App.DataDir, "cache")
	}
	if c.App.StateDir == "" {
		c.App.StateDir = filepath.Join(c.App.DataDir, "state")
	}

	for name, value := range map[string]string{
		"fetch.timeout":        c.Fetch.Timeout,
		"fetch.base_backoff":   c.Fetch.BaseBackoff,
		"crawl.source_timeout": c.Crawl.SourceTimeout,
		"cache.ttl":            c.Cache.TTL,
		"history.ttl":          c.History.TTL,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid duration for %s: %w", name, err)
		}
	}

	if c.Crawl.DedupThreshold < 0 || c.Crawl.DedupThreshold > 1 {
		return fmt.Errorf("crawl.dedup_threshold must be in [0,1], got %v", c.Crawl.DedupThreshold)
	}
	if c.Stories.Threshold < 0 || c.Stories.Threshold > 1 {
		return fmt.Errorf("stories.threshold must be in [0,1], got %v", c.Stories.Threshold)
	}
	if c.Crawl.MaxWorkers < 1 {
		return fmt.Errorf("crawl.max_workers must be positive, got %d", c.Crawl.MaxWorkers)
	}
	return nil
}

// Duration parses a duration field that postProcess already validated.
func Duration(value string) time.Duration {
	d, _ := time.ParseDuration(value)
	return d
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".newsflow"
	}
	return filepath.Join(home, ".newsflow")
}
