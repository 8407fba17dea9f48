package sources

import (
	"context"
	"fmt"

	"newsflow/internal/core"
	"newsflow/internal/feeds"
	"newsflow/internal/fetch"
	"newsflow/internal/logger"
)

// RSS crawls a configured list of RSS/Atom feeds.
type RSS struct {
	client   *fetch.Client
	feedURLs []string
}

// NewRSS creates the rss adapter over the given feed URLs.
func NewRSS(client *fetch.Client, feedURLs []string) *RSS {
	return &RSS{client: client, feedURLs: feedURLs}
}

// Name implements core.Source.
func (s *RSS) Name() string { return "rss" }

// Crawl fetches every configured feed. A feed that fails to fetch or parse
// is logged and skipped; the adapter only errors when no feed produced
// anything and at least one was configured.
func (s *RSS) Crawl(ctx context.Context) ([]core.Article, error) {
	if len(s.feedURLs) == 0 {
		return nil, nil
	}

	var articles []core.Article
	fetched := 0
	for _, feedURL := range s.feedURLs {
		if ctx.Err() != nil {
			return DedupByURL(articles), ctx.Err()
		}

		body := s.client.FetchText(ctx, feedURL)
		if body == "" {
			logger.Debug("rss feed fetch failed", "url", feedURL)
			continue
		}

		parsed, err := feeds.Parse([]byte(body), feedURL)
		if err != nil {
			logger.Debug("rss feed parse failed", "url", feedURL, "error", err.Error())
			continue
		}
		fetched++

		label := parsed.Title
		if label == "" {
			label = feedURL
		}

		for _, item := range parsed.Items {
			if item.Title == "" || item.Link == "" {
				continue
			}
			article := core.NewArticle(item.Title, item.Link, label)
			article.Summary = Summarize(item.Summary)
			article.Author = item.Author
			article.Category = Categorize(item.Title, nil, core.CategoryGeneral)
			article.Timestamp = item.Published
			articles = append(articles, article)
		}
	}

	if fetched == 0 {
		return nil, fmt.Errorf("rss: all %d feeds failed", len(s.feedURLs))
	}
	return DedupByURL(articles), nil
}
