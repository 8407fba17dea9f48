package sources

import (
	"context"
	"fmt"
	"time"

	"newsflow/internal/core"
	"newsflow/internal/fetch"
)

const lobstersHottestURL = "https://lobste.rs/hottest.json"

// Lobsters crawls the lobste.rs hottest endpoint.
type Lobsters struct {
	client *fetch.Client
	url    string
}

// NewLobsters creates the lobsters adapter.
func NewLobsters(client *fetch.Client) *Lobsters {
	return &Lobsters{client: client, url: lobstersHottestURL}
}

// Name implements core.Source.
func (s *Lobsters) Name() string { return "lobsters" }

type lobstersStory struct {
	Title        string   `json:"title"`
	URL          string   `json:"url"`
	ShortIDURL   string   `json:"short_id_url"`
	CreatedAt    string   `json:"created_at"`
	Score        int      `json:"score"`
	CommentCount int      `json:"comment_count"`
	Tags         []string `json:"tags"`
	SubmitterRaw struct {
		Username string `json:"username"`
	} `json:"submitter_user"`
}

// Crawl fetches the hottest stories. Tags become provenance markers
// ("lobsters:<tag>") and feed the category mapping.
func (s *Lobsters) Crawl(ctx context.Context) ([]core.Article, error) {
	var stories []lobstersStory
	if !s.client.FetchJSON(ctx, s.url, &stories) {
		return nil, fmt.Errorf("lobsters: failed to fetch hottest stories")
	}

	var articles []core.Article
	for _, story := range stories {
		if story.Title == "" {
			continue
		}

		url := story.URL
		if url == "" {
			// Text posts link back to the discussion itself.
			url = story.ShortIDURL
		}

		article := core.NewArticle(story.Title, url, fmt.Sprintf("Lobsters (↑%d)", story.Score))
		article.Author = story.SubmitterRaw.Username
		article.Category = Categorize(story.Title, story.Tags, core.CategoryTech)
		article.QualityScore = lobstersQuality(story.Score, story.CommentCount)
		article.DiscussionURL = story.ShortIDURL
		for _, tag := range story.Tags {
			article.Tags = append(article.Tags, "lobsters:"+tag)
		}
		if t, err := time.Parse(time.RFC3339, story.CreatedAt); err == nil {
			article.Timestamp = t.UTC()
		}
		articles = append(articles, article)
	}

	return DedupByURL(articles), nil
}

func lobstersQuality(score, comments int) float64 {
	q := 0.3 + float64(score)/60 + float64(comments)/120
	if q > 1 {
		q = 1
	}
	return q
}
