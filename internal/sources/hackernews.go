package sources

import (
	"context"
	"fmt"
	"sync"
	"time"

	"newsflow/internal/core"
	"newsflow/internal/fetch"
)

const (
	hnTopStoriesURL = "https://hacker-news.firebaseio.com/v0/topstories.json"
	hnItemURLFmt    = "https://hacker-news.firebaseio.com/v0/item/%d.json"
	hnDiscussionFmt = "https://news.ycombinator.com/item?id=%d"

	defaultHNLimit = 30
	hnItemWorkers  = 8
)

// HackerNews crawls the Hacker News Firebase API.
type HackerNews struct {
	client *fetch.Client
	limit  int

	topURL     string
	itemURLFmt string
}

// NewHackerNews creates the hn adapter fetching up to limit top stories.
func NewHackerNews(client *fetch.Client, limit int) *HackerNews {
	if limit <= 0 {
		limit = defaultHNLimit
	}
	return &HackerNews{
		client:     client,
		limit:      limit,
		topURL:     hnTopStoriesURL,
		itemURLFmt: hnItemURLFmt,
	}
}

// Name implements core.Source.
func (s *HackerNews) Name() string { return "hn" }

// hnItem mirrors the item endpoint fields the adapter consumes.
type hnItem struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Score       int    `json:"score"`
	By          string `json:"by"`
	Time        int64  `json:"time"`
	Descendants int    `json:"descendants"`
	Type        string `json:"type"`
	Dead        bool   `json:"dead"`
	Deleted     bool   `json:"deleted"`
}

// Crawl fetches the top-story IDs and resolves each item. Items that fail
// to fetch are skipped; only a wholesale topstories failure errors out.
func (s *HackerNews) Crawl(ctx context.Context) ([]core.Article, error) {
	var ids []int
	if !s.client.FetchJSON(ctx, s.topURL, &ids) {
		return nil, fmt.Errorf("hn: failed to fetch top stories")
	}
	if len(ids) > s.limit {
		ids = ids[:s.limit]
	}

	items := make([]*hnItem, len(ids))
	sem := make(chan struct{}, hnItemWorkers)
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(slot, itemID int) {
			defer wg.Done()
			defer func() { <-sem }()

			var item hnItem
			if s.client.FetchJSON(ctx, fmt.Sprintf(s.itemURLFmt, itemID), &item) {
				items[slot] = &item
			}
		}(i, id)
	}
	wg.Wait()

	var articles []core.Article
	for _, item := range items {
		if item == nil || item.Dead || item.Deleted || item.Type != "story" || item.Title == "" {
			continue
		}

		discussion := fmt.Sprintf(hnDiscussionFmt, item.ID)
		url := item.URL
		if url == "" {
			// Ask HN / Show HN posts have no outbound link.
			url = discussion
		}

		article := core.NewArticle(item.Title, url, fmt.Sprintf("Hacker News (↑%d)", item.Score))
		article.Author = item.By
		article.Category = Categorize(item.Title, nil, core.CategoryTech)
		article.QualityScore = hnQuality(item.Score, item.Descendants)
		article.DiscussionURL = discussion
		if item.Time > 0 {
			article.Timestamp = time.Unix(item.Time, 0).UTC()
		}
		articles = append(articles, article)
	}

	return DedupByURL(articles), nil
}

// hnQuality derives quality from the story's score and comment count.
func hnQuality(score, comments int) float64 {
	q := 0.3 + float64(score)/400 + float64(comments)/600
	if q > 1 {
		q = 1
	}
	return q
}
