// Package render formats crawl output for the terminal.
package render

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"newsflow/internal/core"
	"newsflow/internal/crawl"
	"newsflow/internal/health"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	sourceStyle   = lipgloss.NewStyle().Faint(true)
	categoryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	failStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
)

// Articles renders the article list, one numbered block per article.
func Articles(articles []core.Article) string {
	var b strings.Builder
	for i, a := range articles {
		fmt.Fprintf(&b, "%3d. %s %s\n", i+1, titleStyle.Render(a.Title), categoryStyle.Render("["+a.Category+"]"))
		meta := a.Source
		if !a.Timestamp.IsZero() {
			meta += " · " + a.Timestamp.Format("2006-01-02 15:04")
		}
		if a.SourceCount > 1 {
			meta += fmt.Sprintf(" · %d sources", a.SourceCount)
		}
		fmt.Fprintf(&b, "     %s\n     %s\n", sourceStyle.Render(meta), a.URL)
	}
	return b.String()
}

// Stories renders the ranked story list.
func Stories(stories []core.Story) string {
	var b strings.Builder
	for i, s := range stories {
		fmt.Fprintf(&b, "%3d. %s %s\n", i+1, titleStyle.Render(s.Headline), categoryStyle.Render("["+s.Category+"]"))
		fmt.Fprintf(&b, "     %s\n", sourceStyle.Render(fmt.Sprintf(
			"score %.2f · %d articles · %s", s.StoryScore, len(s.Articles), strings.Join(s.Sources, ", "))))
		fmt.Fprintf(&b, "     %s\n", s.BestArticle.URL)
	}
	return b.String()
}

// Stats renders the per-source crawl stats.
func Stats(result *crawl.Result) string {
	names := make([]string, 0, len(result.Stats))
	for name := range result.Stats {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(headerStyle.Render("Sources"))
	b.WriteString("\n")
	for _, name := range names {
		count := result.Stats[name]
		if count == crawl.FailedSentinel {
			fmt.Fprintf(&b, "  %-12s %s\n", name, failStyle.Render("failed"))
		} else {
			fmt.Fprintf(&b, "  %-12s %d articles\n", name, count)
		}
	}
	fmt.Fprintf(&b, "  dedup: %s", result.DedupStats.Summary())
	if result.FromCache {
		b.WriteString("  (cached)")
	}
	b.WriteString("\n")
	return b.String()
}

// Health renders the health report with the timing table, slowest first.
func Health(tracker *health.Tracker) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Source health"))
	b.WriteString("\n")
	for _, name := range tracker.Sources() {
		rec := tracker.Get(name)
		last := "never"
		if !rec.LastSuccess.IsZero() {
			last = rec.LastSuccess.Format(time.RFC3339)
		}
		fmt.Fprintf(&b, "  %-12s %3d crawls  %5.1f%% success  modifier %.1f  last %s\n",
			name, rec.TotalCrawls, rec.SuccessRate()*100, rec.Modifier(), last)
	}

	entries := tracker.TimingReport()
	if len(entries) > 0 {
		b.WriteString(headerStyle.Render("Timing (slowest first)"))
		b.WriteString("\n")
		for _, e := range entries {
			fmt.Fprintf(&b, "  %-12s avg %7.1fms  p50 %7.1fms  p95 %7.1fms  p99 %7.1fms\n",
				e.Source, e.Avg, e.P50, e.P95, e.P99)
		}
	}
	return b.String()
}
