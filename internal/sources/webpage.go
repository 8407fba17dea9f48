package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"newsflow/internal/config"
	"newsflow/internal/core"
	"newsflow/internal/fetch"
	"newsflow/internal/logger"
)

// WebPages scrapes configured HTML index pages for headline anchors.
type WebPages struct {
	client *fetch.Client
	pages  []config.WebPage
}

// NewWebPages creates the web adapter over the configured pages.
func NewWebPages(client *fetch.Client, pages []config.WebPage) *WebPages {
	return &WebPages{client: client, pages: pages}
}

// Name implements core.Source.
func (s *WebPages) Name() string { return "web" }

// Crawl scrapes every configured page. Pages that fail to fetch or parse
// are skipped.
func (s *WebPages) Crawl(ctx context.Context) ([]core.Article, error) {
	if len(s.pages) == 0 {
		return nil, nil
	}

	var articles []core.Article
	fetched := 0
	for _, page := range s.pages {
		if ctx.Err() != nil {
			return DedupByURL(articles), ctx.Err()
		}

		body := s.client.FetchText(ctx, page.URL)
		if body == "" {
			logger.Debug("web page fetch failed", "url", page.URL)
			continue
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
		if err != nil {
			logger.Debug("web page parse failed", "url", page.URL, "error", err.Error())
			continue
		}
		fetched++

		base, _ := url.Parse(page.URL)
		selector := page.Selector
		if selector == "" {
			selector = "a"
		}
		label := page.Label
		if label == "" {
			label = page.URL
		}

		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			title := strings.Join(strings.Fields(sel.Text()), " ")
			href, ok := sel.Attr("href")
			if !ok || title == "" {
				return
			}
			link := resolveHref(base, href)
			if link == "" {
				return
			}

			article := core.NewArticle(title, link, label)
			article.Category = Categorize(title, nil, page.Category)
			articles = append(articles, article)
		})
	}

	if fetched == 0 {
		return nil, fmt.Errorf("web: all %d pages failed", len(s.pages))
	}
	return DedupByURL(articles), nil
}

// resolveHref turns a scraped href into an absolute http(s) URL, or "".
func resolveHref(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	return ref.String()
}
