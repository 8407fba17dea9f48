// Package filters implements the post-crawl filter chain. Every filter is a
// pure function over the article list; filters whose argument is unset are
// no-ops. The chain order is fixed and documented on Apply.
package filters

import (
	"math/rand"
	"sort"
	"strings"
	"time"

	"newsflow/internal/core"
	"newsflow/internal/language"
	"newsflow/internal/readtime"
	"newsflow/internal/relevance"
	"newsflow/internal/sentiment"
)

// Options collects every filter argument. Zero values disable the
// corresponding filter.
type Options struct {
	Categories        []string // Category include
	ExcludeCategories []string // Category exclude
	Sources           []string // Source label substring include
	ExcludeSources    []string // Source label substring exclude
	Search            []string // Title+summary keyword include
	ExcludeKeywords   []string // Title+summary keyword exclude
	Since             time.Time
	MinQuality        float64
	QualityWeight     func(sourceLabel string) float64 // Optional health modifier applied before the quality floor
	Languages         []string                         // Language include
	ExcludeLanguages  []string                         // Language exclude
	StrictLanguage    bool                             // Drop "unknown" even when an include list is set
	MinReadTime       int                              // Minutes, inclusive
	MaxReadTime       int                              // Minutes, inclusive; 0 disables
	Tone              sentiment.Tone                   // Keep only this tone
	NoDoom            bool                             // Drop doom-laden articles
	Tags              []string                         // Tag include
	ExcludeTags       []string                         // Tag exclude
	Authors           []string                         // Author substring include
	ExcludeAuthors    []string                         // Author substring exclude
	Profile           *relevance.Profile               // Relevance scoring pass
	MinRelevance      float64
	Limit             int // Final truncation; 0 disables
	Sample            int // Uniform random sample; 0 disables
	Rand              *rand.Rand
}

// Apply runs the chain in its documented order: category, source, keyword,
// time window, quality floor, language, read time, tone, tags, author,
// profile relevance, limit, sample.
func Apply(articles []core.Article, opts Options) []core.Article {
	out := articles

	out = byCategory(out, opts.Categories, opts.ExcludeCategories)
	out = bySource(out, opts.Sources, opts.ExcludeSources)
	out = byKeyword(out, opts.Search, opts.ExcludeKeywords)
	out = since(out, opts.Since)
	out = byQuality(out, opts.MinQuality, opts.QualityWeight)
	out = byLanguage(out, opts.Languages, opts.ExcludeLanguages, opts.StrictLanguage)
	out = byReadTime(out, opts.MinReadTime, opts.MaxReadTime)
	out = byTone(out, opts.Tone, opts.NoDoom)
	out = byTags(out, opts.Tags, opts.ExcludeTags)
	out = byAuthor(out, opts.Authors, opts.ExcludeAuthors)
	out = byRelevance(out, opts.Profile, opts.MinRelevance)
	out = limit(out, opts.Limit)
	out = sample(out, opts.Sample, opts.Rand)

	return out
}

func keep(articles []core.Article, pred func(core.Article) bool) []core.Article {
	out := make([]core.Article, 0, len(articles))
	for _, a := range articles {
		if pred(a) {
			out = append(out, a)
		}
	}
	return out
}

func byCategory(articles []core.Article, include, exclude []string) []core.Article {
	if len(include) > 0 {
		set := lowerSet(include)
		articles = keep(articles, func(a core.Article) bool {
			return set[strings.ToLower(a.Category)]
		})
	}
	if len(exclude) > 0 {
		set := lowerSet(exclude)
		articles = keep(articles, func(a core.Article) bool {
			return !set[strings.ToLower(a.Category)]
		})
	}
	return articles
}

func bySource(articles []core.Article, include, exclude []string) []core.Article {
	if len(include) > 0 {
		articles = keep(articles, func(a core.Article) bool {
			return containsAny(a.Source, include)
		})
	}
	if len(exclude) > 0 {
		articles = keep(articles, func(a core.Article) bool {
			return !containsAny(a.Source, exclude)
		})
	}
	return articles
}

func byKeyword(articles []core.Article, search, exclude []string) []core.Article {
	if len(search) > 0 {
		articles = keep(articles, func(a core.Article) bool {
			return containsAny(a.Title+" "+a.Summary, search)
		})
	}
	if len(exclude) > 0 {
		articles = keep(articles, func(a core.Article) bool {
			return !containsAny(a.Title+" "+a.Summary, exclude)
		})
	}
	return articles
}

func since(articles []core.Article, cutoff time.Time) []core.Article {
	if cutoff.IsZero() {
		return articles
	}
	return keep(articles, func(a core.Article) bool {
		// Articles without a timestamp cannot be placed and are kept.
		return a.Timestamp.IsZero() || !a.Timestamp.Before(cutoff)
	})
}

func byQuality(articles []core.Article, floor float64, weight func(string) float64) []core.Article {
	if floor <= 0 {
		return articles
	}
	return keep(articles, func(a core.Article) bool {
		score := a.QualityScore
		if weight != nil {
			score *= weight(a.Source)
		}
		return score >= floor
	})
}

func byLanguage(articles []core.Article, include, exclude []string, strict bool) []core.Article {
	if len(include) == 0 && len(exclude) == 0 {
		return articles
	}
	includeSet := lowerSet(include)
	excludeSet := lowerSet(exclude)

	return keep(articles, func(a core.Article) bool {
		lang := language.Detect(a.Title, a.Summary)
		if excludeSet[lang] {
			return false
		}
		if len(includeSet) == 0 {
			return true
		}
		if lang == language.Unknown {
			// Unknown passes an include list unless the caller opted into
			// strict matching.
			return !strict
		}
		return includeSet[lang]
	})
}

func byReadTime(articles []core.Article, min, max int) []core.Article {
	if min <= 0 && max <= 0 {
		return articles
	}
	return keep(articles, func(a core.Article) bool {
		minutes := readtime.Minutes(a)
		if min > 0 && minutes < min {
			return false
		}
		if max > 0 && minutes > max {
			return false
		}
		return true
	})
}

func byTone(articles []core.Article, tone sentiment.Tone, noDoom bool) []core.Article {
	if tone == "" && !noDoom {
		return articles
	}
	analyzer := sentiment.NewAnalyzer()
	return keep(articles, func(a core.Article) bool {
		if noDoom && analyzer.IsDoom(a) {
			return false
		}
		if tone != "" && analyzer.Classify(a) != tone {
			return false
		}
		return true
	})
}

func byTags(articles []core.Article, include, exclude []string) []core.Article {
	if len(include) > 0 {
		set := lowerSet(include)
		articles = keep(articles, func(a core.Article) bool {
			return hasTag(a.Tags, set)
		})
	}
	if len(exclude) > 0 {
		set := lowerSet(exclude)
		articles = keep(articles, func(a core.Article) bool {
			return !hasTag(a.Tags, set)
		})
	}
	return articles
}

func byAuthor(articles []core.Article, include, exclude []string) []core.Article {
	if len(include) > 0 {
		articles = keep(articles, func(a core.Article) bool {
			return containsAny(a.Author, include)
		})
	}
	if len(exclude) > 0 {
		articles = keep(articles, func(a core.Article) bool {
			return !containsAny(a.Author, exclude)
		})
	}
	return articles
}

// byRelevance scores against the profile, drops articles under the
// relevance floor and re-sorts by relevance descending.
func byRelevance(articles []core.Article, profile *relevance.Profile, minRelevance float64) []core.Article {
	if profile == nil || len(profile.Interests) == 0 {
		return articles
	}

	scored := profile.Score(articles)
	if minRelevance > 0 {
		scored = keep(scored, func(a core.Article) bool {
			return a.Relevance >= minRelevance
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Relevance > scored[j].Relevance
	})
	return scored
}

func limit(articles []core.Article, n int) []core.Article {
	if n <= 0 || len(articles) <= n {
		return articles
	}
	return articles[:n]
}

// sample draws a uniform random subset of n articles, preserving their
// relative order.
func sample(articles []core.Article, n int, rng *rand.Rand) []core.Article {
	if n <= 0 || len(articles) <= n {
		return articles
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	picked := rng.Perm(len(articles))[:n]
	sort.Ints(picked)

	out := make([]core.Article, 0, n)
	for _, idx := range picked {
		out = append(out, articles[idx])
	}
	return out
}

func lowerSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToLower(strings.TrimSpace(v))] = true
	}
	return set
}

func containsAny(text string, needles []string) bool {
	text = strings.ToLower(text)
	for _, n := range needles {
		if n == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

func hasTag(tags []string, set map[string]bool) bool {
	for _, t := range tags {
		if set[strings.ToLower(t)] {
			return true
		}
	}
	return false
}
