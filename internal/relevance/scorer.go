package relevance

import (
	"strings"

	"newsflow/internal/core"
)

// groupBonus is the diminishing-returns factor for additional keyword hits
// inside one interest group.
const groupBonus = 0.3

// Score populates Relevance on every article: the per-group weighted hit
// score is summed, then every article is normalized by the batch maximum so
// relevance lands in [0,1]. A profile with no interests returns the input
// untouched.
func (p *Profile) Score(articles []core.Article) []core.Article {
	if p == nil || len(p.Interests) == 0 || len(articles) == 0 {
		return articles
	}

	raw := make([]float64, len(articles))
	var max float64
	for i, article := range articles {
		raw[i] = p.rawScore(article)
		if raw[i] > max {
			max = raw[i]
		}
	}

	scored := make([]core.Article, len(articles))
	copy(scored, articles)
	if max > 0 {
		for i := range scored {
			scored[i].Relevance = raw[i] / max
		}
	}
	return scored
}

// rawScore sums weight * (1 + 0.3*(hits-1)) over the interest groups that
// hit the article at least once.
func (p *Profile) rawScore(article core.Article) float64 {
	text := strings.ToLower(article.Title + " " + article.Summary + " " + strings.Join(article.Tags, " "))

	var score float64
	for _, interest := range p.Interests {
		hits := 0
		for _, kw := range interest.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			hits += strings.Count(text, kw)
		}
		if hits > 0 {
			score += interest.Weight * (1 + groupBonus*float64(hits-1))
		}
	}
	return score
}
