// Package readtime estimates reading time from headline metadata. Summaries
// stand in for full text, so the word count is multiplied to approximate the
// article behind the link.
package readtime

import (
	"math"
	"strings"

	"newsflow/internal/core"
)

const (
	wordsPerMinute = 200
	// Summaries are a fraction of the article; scale the count up.
	fullTextMultiplier = 3
)

// Minutes estimates the reading time of the article behind the headline.
func Minutes(article core.Article) int {
	words := len(strings.Fields(article.Title)) + len(strings.Fields(article.Summary))

	estimated := int(math.Round(float64(words) * fullTextMultiplier / wordsPerMinute))
	switch {
	case words < 50:
		return 2
	case words <= 150:
		if estimated < 3 {
			return 3
		}
		return estimated
	default:
		if estimated < 5 {
			return 5
		}
		return estimated
	}
}
