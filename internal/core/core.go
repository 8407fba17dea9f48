// Package core defines the shared data model for the aggregation pipeline.
package core

import (
	"context"
	"time"
)

// Category labels form a closed tag set. Adapters map upstream signals onto
// one of these; everything unmapped lands in CategoryGeneral.
const (
	CategoryTech          = "tech"
	CategoryAI            = "ai"
	CategoryWorld         = "world"
	CategoryScience       = "science"
	CategoryBusiness      = "business"
	CategorySecurity      = "security"
	CategoryCrypto        = "crypto"
	CategoryHealth        = "health"
	CategoryGaming        = "gaming"
	CategoryDesign        = "design"
	CategoryCulture       = "culture"
	CategoryEducation     = "education"
	CategoryEnvironment   = "environment"
	CategorySports        = "sports"
	CategoryInvestigative = "investigative"
	CategoryGeneral       = "general"
)

// DefaultQualityScore is the neutral quality assigned when a source has no
// prominence signal to report.
const DefaultQualityScore = 0.5

// Article represents one unit of crawled content.
type Article struct {
	Title         string    `json:"title"`                    // Headline text (never empty on emitted articles)
	URL           string    `json:"url"`                      // Canonical identity of the article
	Source        string    `json:"source"`                   // Human-readable origin label, e.g. "Hacker News (↑231)"
	Summary       string    `json:"summary"`                  // Plain-text summary, HTML stripped upstream
	Timestamp     time.Time `json:"timestamp,omitempty"`      // Publication instant in UTC (zero when unknown)
	Category      string    `json:"category"`                 // One of the Category* labels
	QualityScore  float64   `json:"quality_score"`            // Source-assigned quality in [0,1], default 0.5
	SourceCount   int       `json:"source_count"`             // Number of sources contributing after dedup (>=1)
	Tags          []string  `json:"tags,omitempty"`           // Free-form provenance markers like "lobsters:rust"
	Author        string    `json:"author,omitempty"`         // Byline, may be empty
	DiscussionURL string    `json:"discussion_url,omitempty"` // Comments page distinct from URL
	Relevance     float64   `json:"relevance,omitempty"`      // Profile-scoring output in [0,1], 0 until scored
}

// NewArticle constructs an Article with the schema defaults filled in.
func NewArticle(title, url, source string) Article {
	return Article{
		Title:        title,
		URL:          url,
		Source:       source,
		Category:     CategoryGeneral,
		QualityScore: DefaultQualityScore,
		SourceCount:  1,
	}
}

// Source is one external upstream: a stable short name plus a crawl
// operation. Implementations are stateless between invocations except for
// rate-limit bookkeeping, self-deduplicate by URL, and return an error
// rather than panicking on wholesale failure.
type Source interface {
	Name() string
	Crawl(ctx context.Context) ([]Article, error)
}

// Story is a cluster of near-duplicate articles grouped for display rather
// than collapsed.
type Story struct {
	Headline        string    `json:"headline"`         // Title of the best-quality member
	Articles        []Article `json:"articles"`         // All members, in arrival order
	Category        string    `json:"category"`         // Category of the seed article
	SourceCount     int       `json:"source_count"`     // Distinct contributing source labels
	Sources         []string  `json:"sources"`          // Ordered unique source labels
	BestArticle     Article   `json:"best_article"`     // Highest-quality member
	LatestTimestamp time.Time `json:"latest_timestamp"` // Most recent member timestamp
	AvgQuality      float64   `json:"avg_quality"`      // Mean member quality
	StoryScore      float64   `json:"story_score"`      // avg_quality * (1 + min(source_count/3, 2))
}
