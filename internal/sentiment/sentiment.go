// Package sentiment classifies article tone with a rule-based keyword
// scorer. Title hits weigh three times summary hits; a classification needs
// a margin and a minimum score, otherwise the tone is neutral.
package sentiment

import (
	"strings"

	"newsflow/internal/core"
)

// Tone is the discrete classification of an article.
type Tone string

const (
	TonePositive Tone = "positive"
	ToneNegative Tone = "negative"
	ToneNeutral  Tone = "neutral"
)

const (
	titleWeight = 3
	minScore    = 2
)

var positiveWords = []string{
	"breakthrough", "launch", "launches", "success", "successful", "win",
	"wins", "growth", "record", "milestone", "award", "improve", "improves",
	"improved", "advance", "advances", "discovery", "achievement", "innovative",
	"soar", "soars", "surge", "surges", "rescue", "rescued", "cure", "thriving",
	"celebrates", "open-source", "free", "faster", "cheaper", "recovery",
}

var negativeWords = []string{
	"crash", "crashes", "collapse", "collapses", "breach", "breached", "hack",
	"hacked", "attack", "attacks", "lawsuit", "fraud", "scam", "layoff",
	"layoffs", "fail", "fails", "failure", "failed", "decline", "declines",
	"crisis", "shutdown", "shut", "ban", "banned", "leak", "leaked", "outage",
	"vulnerability", "exploit", "fine", "fined", "loss", "losses", "recall",
	"warning", "threat", "bankrupt", "bankruptcy",
}

var doomWords = []string{
	"war", "death", "deaths", "dead", "killed", "killing", "massacre",
	"catastrophe", "disaster", "apocalypse", "famine", "pandemic", "collapse",
	"crisis", "invasion", "bombing", "genocide", "extinction",
}

// Analyzer classifies article tone.
type Analyzer struct {
	positive map[string]bool
	negative map[string]bool
	doom     map[string]bool
}

// NewAnalyzer creates an analyzer with the built-in keyword sets.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		positive: toSet(positiveWords),
		negative: toSet(negativeWords),
		doom:     toSet(doomWords),
	}
}

// Classify returns the tone of an article: positive when the positive score
// strictly beats the negative one and reaches the minimum, negative
// symmetrically, neutral otherwise.
func (a *Analyzer) Classify(article core.Article) Tone {
	pos := a.score(article, a.positive)
	neg := a.score(article, a.negative)

	switch {
	case pos > neg && pos >= minScore:
		return TonePositive
	case neg > pos && neg >= minScore:
		return ToneNegative
	default:
		return ToneNeutral
	}
}

// IsDoom reports whether the article carries doom-laden vocabulary; used by
// the no_doom filter.
func (a *Analyzer) IsDoom(article core.Article) bool {
	return a.score(article, a.doom) > 0
}

func (a *Analyzer) score(article core.Article, set map[string]bool) int {
	return countHits(article.Title, set)*titleWeight + countHits(article.Summary, set)
}

func countHits(text string, set map[string]bool) int {
	hits := 0
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,:;!?\"'()[]")
		if set[w] {
			hits++
		}
	}
	return hits
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
