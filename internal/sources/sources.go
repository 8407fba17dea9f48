// Package sources contains the source adapters that feed the crawl
// scheduler. Every adapter is a closed leaf implementing core.Source:
// fetch the upstream, map fields onto Articles, self-deduplicate by URL,
// and return an error rather than panicking on wholesale failure.
package sources

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"newsflow/internal/config"
	"newsflow/internal/core"
	"newsflow/internal/fetch"
)

// maxSummaryLen caps plain-text summaries.
const maxSummaryLen = 300

// categoryKeywords is the specific tier of the two-tier category mapping,
// evaluated against title + tags before an adapter's fallback bucket.
var categoryKeywords = map[string][]string{
	core.CategoryAI:          {"ai", "llm", "gpt", "machine learning", "neural", "deep learning", "openai", "anthropic", "chatbot", "transformer", "model"},
	core.CategorySecurity:    {"security", "vulnerability", "breach", "exploit", "malware", "ransomware", "phishing", "cve", "zero-day", "hacked"},
	core.CategoryCrypto:      {"bitcoin", "ethereum", "crypto", "blockchain", "defi", "nft", "stablecoin", "web3"},
	core.CategoryScience:     {"research", "study", "physics", "biology", "chemistry", "astronomy", "quantum", "genome", "fossil", "telescope"},
	core.CategoryHealth:      {"health", "medical", "vaccine", "cancer", "disease", "drug", "fda", "clinical"},
	core.CategoryGaming:      {"game", "gaming", "playstation", "xbox", "nintendo", "steam", "esports"},
	core.CategoryBusiness:    {"startup", "funding", "ipo", "acquisition", "revenue", "earnings", "market", "stock", "layoff"},
	core.CategoryDesign:      {"design", "typography", "ux", "ui", "figma"},
	core.CategoryEnvironment: {"climate", "carbon", "renewable", "solar", "emissions", "wildfire", "biodiversity"},
	core.CategorySports:      {"football", "soccer", "basketball", "tennis", "olympics", "league", "championship"},
	core.CategoryEducation:   {"university", "school", "education", "student", "tuition"},
}

// Categorize applies the two-tier mapping: the specific keyword table first,
// then the adapter's fallback bucket.
func Categorize(title string, tags []string, fallback string) string {
	haystack := strings.ToLower(title + " " + strings.Join(tags, " "))
	for _, category := range []string{
		core.CategoryAI, core.CategorySecurity, core.CategoryCrypto,
		core.CategoryScience, core.CategoryHealth, core.CategoryGaming,
		core.CategoryBusiness, core.CategoryDesign, core.CategoryEnvironment,
		core.CategorySports, core.CategoryEducation,
	} {
		for _, kw := range categoryKeywords[category] {
			if matchKeyword(haystack, kw) {
				return category
			}
		}
	}
	if fallback == "" {
		return core.CategoryGeneral
	}
	return fallback
}

// matchKeyword does word-boundary matching for single words and substring
// matching for phrases, so "ai" does not fire inside "maintain".
func matchKeyword(haystack, kw string) bool {
	if strings.ContainsRune(kw, ' ') || strings.ContainsRune(kw, '-') {
		return strings.Contains(haystack, kw)
	}
	for _, w := range strings.FieldsFunc(haystack, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	}) {
		if w == kw {
			return true
		}
	}
	return false
}

// StripHTML reduces an HTML fragment to plain text.
func StripHTML(fragment string) string {
	if !strings.ContainsRune(fragment, '<') {
		return strings.TrimSpace(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// Summarize converts an upstream description into the article summary:
// HTML stripped, whitespace collapsed, truncated to 300 chars.
func Summarize(fragment string) string {
	text := StripHTML(fragment)
	runes := []rune(text)
	if len(runes) <= maxSummaryLen {
		return text
	}
	return strings.TrimSpace(string(runes[:maxSummaryLen-1])) + "…"
}

// DedupByURL removes in-batch URL duplicates, keeping first occurrences.
// Adapters call this before returning so the scheduler never sees a source
// contradict itself.
func DedupByURL(articles []core.Article) []core.Article {
	seen := make(map[string]bool, len(articles))
	out := make([]core.Article, 0, len(articles))
	for _, a := range articles {
		key := core.NormalizeURL(a.URL)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}

// Build assembles the enabled adapters in declared order.
func Build(cfg config.Sources, client *fetch.Client) ([]core.Source, error) {
	var list []core.Source
	for _, name := range cfg.Enabled {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "hn":
			list = append(list, NewHackerNews(client, cfg.HNLimit))
		case "lobsters":
			list = append(list, NewLobsters(client))
		case "rss":
			list = append(list, NewRSS(client, cfg.RSSFeeds))
		case "web":
			list = append(list, NewWebPages(client, cfg.WebPages))
		default:
			return nil, fmt.Errorf("unknown source %q", name)
		}
	}
	return list, nil
}
