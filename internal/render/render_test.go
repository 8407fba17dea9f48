package render

import (
	"strings"
	"testing"

	"newsflow/internal/core"
	"newsflow/internal/crawl"
	"newsflow/internal/dedup"
)

func TestArticles(t *testing.T) {
	a := core.NewArticle("Big headline", "https://example.com/a", "rss")
	a.SourceCount = 3

	out := Articles([]core.Article{a})
	for _, want := range []string{"Big headline", "[general]", "3 sources", "https://example.com/a"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestStories(t *testing.T) {
	story := core.Story{
		Headline:    "Clustered headline",
		Category:    core.CategoryTech,
		Articles:    []core.Article{core.NewArticle("Clustered headline", "https://example.com/a", "rss")},
		Sources:     []string{"rss", "hn"},
		BestArticle: core.NewArticle("Clustered headline", "https://example.com/a", "rss"),
		StoryScore:  1.25,
	}

	out := Stories([]core.Story{story})
	for _, want := range []string{"Clustered headline", "score 1.25", "rss, hn"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestStats(t *testing.T) {
	result := &crawl.Result{
		Stats:      map[string]int{"rss": 12, "hn": crawl.FailedSentinel},
		DedupStats: dedup.Stats{TotalInput: 14, UniqueOutput: 12, TotalRemoved: 2},
		FromCache:  true,
	}

	out := Stats(result)
	for _, want := range []string{"12 articles", "failed", "14 → 12 (removed 2)", "(cached)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
