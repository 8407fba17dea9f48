// Package clustering groups near-duplicate articles into stories for
// display. Where dedup collapses coverage, clustering keeps it: the same
// similarity probe runs at a lower threshold so related reporting lands in
// one ranked story instead of being discarded.
package clustering

import (
	"sort"

	"newsflow/internal/core"
	"newsflow/internal/dedup"
)

// DefaultThreshold is deliberately lower than the dedup cutoff: the goal is
// to group related coverage, not eliminate it.
const DefaultThreshold = 0.65

// Clusterer assigns articles to stories.
type Clusterer struct {
	threshold float64
}

// New creates a clusterer. A non-positive threshold falls back to
// DefaultThreshold.
func New(threshold float64) *Clusterer {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Clusterer{threshold: threshold}
}

// seed tracks the probe state for one growing story.
type seed struct {
	title    string
	words    map[string]bool
	articles []core.Article
}

// Cluster partitions the input into stories ranked by story score
// descending. Every input article lands in exactly one story.
func (c *Clusterer) Cluster(articles []core.Article) []core.Story {
	var seeds []*seed

	for _, article := range articles {
		words := wordSet(article.Title)

		matched := false
		for _, s := range seeds {
			if len(words) > 0 && len(s.words) > 0 && !intersects(words, s.words) {
				continue
			}
			if dedup.Similarity(article.Title, s.title) >= c.threshold {
				s.articles = append(s.articles, article)
				matched = true
				break
			}
		}
		if !matched {
			seeds = append(seeds, &seed{
				title:    article.Title,
				words:    words,
				articles: []core.Article{article},
			})
		}
	}

	stories := make([]core.Story, 0, len(seeds))
	for _, s := range seeds {
		stories = append(stories, buildStory(s.articles))
	}

	sort.SliceStable(stories, func(i, j int) bool {
		return stories[i].StoryScore > stories[j].StoryScore
	})
	return stories
}

// buildStory derives the display fields from a story's members. The seed
// (first member) supplies the category; the best-quality member supplies the
// headline.
func buildStory(members []core.Article) core.Story {
	story := core.Story{
		Articles: members,
		Category: members[0].Category,
	}

	best := members[0]
	var qualitySum float64
	seenSources := make(map[string]bool)

	for _, a := range members {
		qualitySum += a.QualityScore
		if a.QualityScore > best.QualityScore {
			best = a
		}
		if !seenSources[a.Source] {
			seenSources[a.Source] = true
			story.Sources = append(story.Sources, a.Source)
		}
		if a.Timestamp.After(story.LatestTimestamp) {
			story.LatestTimestamp = a.Timestamp
		}
	}

	story.Headline = best.Title
	story.BestArticle = best
	story.SourceCount = len(story.Sources)
	story.AvgQuality = qualitySum / float64(len(members))

	coverage := float64(story.SourceCount) / 3
	if coverage > 2 {
		coverage = 2
	}
	story.StoryScore = story.AvgQuality * (1 + coverage)

	return story
}

func wordSet(title string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range core.SignificantWords(title) {
		set[w] = true
	}
	return set
}

func intersects(a, b map[string]bool) bool {
	if len(b) < len(a) {
		a, b = b, a
	}
	for w := range a {
		if b[w] {
			return true
		}
	}
	return false
}
