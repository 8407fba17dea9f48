// Package dedup collapses duplicate articles in a crawl batch. Three stages
// run as a single pass over the input: exact dedup-key matches, title
// fingerprint matches, and a fuzzy title-similarity probe guarded by cheap
// prefilters. All stages share the same quality rule: a strictly
// higher-quality newcomer replaces the incumbent in place, anything else is
// dropped.
package dedup

import (
	"fmt"
	"strings"

	"newsflow/internal/core"
)

// Stats counts what each stage removed.
type Stats struct {
	TotalInput       int `json:"total_input"`
	ExactDupes       int `json:"exact_dupes"`
	FingerprintDupes int `json:"fingerprint_dupes"`
	FuzzyDupes       int `json:"fuzzy_dupes"`
	UniqueOutput     int `json:"unique_output"`
	TotalRemoved     int `json:"total_removed"`
}

// Summary renders the one-line "N → M (removed K)" form.
func (s *Stats) Summary() string {
	return fmt.Sprintf("%d → %d (removed %d)", s.TotalInput, s.UniqueOutput, s.TotalRemoved)
}

// Config controls one dedup run.
type Config struct {
	Threshold float64 // Fuzzy similarity cutoff in [0,1]
	Enabled   bool
	Stats     *Stats // Optional; allocated internally when nil
}

// DefaultThreshold is the fuzzy cutoff used when none is configured.
const DefaultThreshold = 0.85

// Engine deduplicates article batches. An Engine is cheap to construct and
// holds no state between calls.
type Engine struct {
	cfg Config
}

// New creates an engine. A zero threshold falls back to DefaultThreshold.
func New(cfg Config) *Engine {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	return &Engine{cfg: cfg}
}

// fuzzyEntry indexes one emitted article for stage 3. Rewritten whenever a
// replace lands in its slot so later candidates match the survivor's title,
// not the dropped one's.
type fuzzyEntry struct {
	title  string          // Normalized lowercase title
	length int             // Rune length of title
	words  map[string]bool // Significant word set
	idx    int             // Output slot
}

// Deduplicate collapses the batch and returns the survivors in input order.
// When a later article replaces an earlier one it takes the earlier one's
// output position. Disabled engines return the input unchanged but still
// fill in the stats totals.
func (e *Engine) Deduplicate(articles []core.Article) []core.Article {
	stats := e.cfg.Stats
	if stats == nil {
		stats = &Stats{}
	}
	stats.TotalInput = len(articles)

	if !e.cfg.Enabled {
		stats.UniqueOutput = len(articles)
		return articles
	}

	var (
		output  []core.Article
		byKey   = make(map[string]int)
		byFP    = make(map[string]int)
		entries []fuzzyEntry
	)

	for _, article := range articles {
		key := article.DedupKey()
		fp := article.TitleFingerprint()

		// Stage 1: exact key.
		if idx, ok := byKey[key]; ok {
			stats.ExactDupes++
			e.resolve(output, entries, byKey, byFP, idx, article, key, fp)
			continue
		}

		// Stage 2: title fingerprint. Fingerprints built from fewer than
		// two significant words are empty and skip this stage.
		if fp != "" {
			if idx, ok := byFP[fp]; ok {
				stats.FingerprintDupes++
				e.resolve(output, entries, byKey, byFP, idx, article, key, fp)
				continue
			}
		}

		// Stage 3: fuzzy title similarity.
		if idx, ok := e.findFuzzy(entries, article); ok {
			stats.FuzzyDupes++
			e.resolve(output, entries, byKey, byFP, idx, article, key, fp)
			continue
		}

		// New article: emit and index.
		idx := len(output)
		output = append(output, article)
		byKey[key] = idx
		if fp != "" {
			byFP[fp] = idx
		}
		entries = append(entries, newFuzzyEntry(article, idx))
	}

	stats.UniqueOutput = len(output)
	stats.TotalRemoved = stats.TotalInput - stats.UniqueOutput
	return output
}

// findFuzzy scans the emitted index for a title similar to the candidate's.
// Cheap filters run first: a length band derived from the threshold, then a
// significant-word intersection check. Only survivors pay for the ratio.
func (e *Engine) findFuzzy(entries []fuzzyEntry, article core.Article) (int, bool) {
	title := core.NormalizeTitle(article.Title)
	length := len([]rune(title))
	words := wordSet(article.Title)

	for i := range entries {
		ent := &entries[i]

		maxLen := ent.length
		if length > maxLen {
			maxLen = length
		}
		diff := ent.length - length
		if diff < 0 {
			diff = -diff
		}
		if float64(diff) > float64(maxLen)*(1-e.cfg.Threshold) {
			continue
		}

		if len(words) > 0 && len(ent.words) > 0 && !intersects(words, ent.words) {
			continue
		}

		if similarity(title, ent.title) > e.cfg.Threshold {
			return ent.idx, true
		}
	}
	return 0, false
}

// resolve applies the shared quality rule against the incumbent at idx. A
// strictly higher-quality newcomer takes the incumbent's output slot and the
// indexes are rewritten to describe the survivor.
func (e *Engine) resolve(output []core.Article, entries []fuzzyEntry, byKey, byFP map[string]int, idx int, newcomer core.Article, key, fp string) {
	incumbent := output[idx]

	if newcomer.QualityScore > incumbent.QualityScore {
		if newcomer.Source != incumbent.Source {
			newcomer.SourceCount += incumbent.SourceCount
		} else if incumbent.SourceCount > newcomer.SourceCount {
			newcomer.SourceCount = incumbent.SourceCount
		}
		output[idx] = newcomer

		byKey[key] = idx
		if fp != "" {
			byFP[fp] = idx
		}
		for i := range entries {
			if entries[i].idx == idx {
				entries[i] = newFuzzyEntry(newcomer, idx)
				break
			}
		}
		return
	}

	if newcomer.Source != incumbent.Source {
		output[idx].SourceCount += newcomer.SourceCount
	}
}

func newFuzzyEntry(article core.Article, idx int) fuzzyEntry {
	title := core.NormalizeTitle(article.Title)
	return fuzzyEntry{
		title:  title,
		length: len([]rune(title)),
		words:  wordSet(article.Title),
		idx:    idx,
	}
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

// similarity is the classical sequence-matcher ratio over runes:
// 2*LCS(a,b) / (len(a)+len(b)). Returns 1 for two empty strings.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	// Two-row LCS.
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	lcs := prev[len(rb)]
	return 2 * float64(lcs) / float64(len(ra)+len(rb))
}

// Similarity exposes the ratio for the story clusterer, which reuses the
// same probe at a lower threshold.
func Similarity(a, b string) float64 {
	return similarity(core.NormalizeTitle(a), core.NormalizeTitle(b))
}
