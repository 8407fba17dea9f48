package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"newsflow/internal/config"
	"newsflow/internal/core"
	"newsflow/internal/fetch"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

const indexPage = `<!DOCTYPE html>
<html><body>
  <div class="headlines">
    <a href="/story/one">First headline on the page</a>
    <a href="https://other.example.org/story/two">Second headline elsewhere</a>
    <a href="#top">Back to top</a>
    <a href="javascript:void(0)">Menu</a>
    <a href="/story/one">First headline on the page</a>
  </div>
  <footer><a href="/about">About us</a></footer>
</body></html>`

func TestWebPagesCrawl(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(indexPage))
	}))
	defer srv.Close()

	pages := []config.WebPage{{
		URL:      srv.URL + "/index.html",
		Selector: ".headlines a",
		Label:    "Example Front Page",
		Category: core.CategoryWorld,
	}}

	articles, err := NewWebPages(fetch.NewClient(fetch.Options{MaxRetries: 0}), pages).Crawl(context.Background())
	if err != nil {
		t.Fatalf("Crawl failed: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("articles = %d, want 2 (anchors deduped, fragment and javascript links dropped)", len(articles))
	}

	first := articles[0]
	if first.Title != "First headline on the page" {
		t.Errorf("Title = %q", first.Title)
	}
	if first.URL != srv.URL+"/story/one" {
		t.Errorf("URL = %q, want relative href resolved against the page", first.URL)
	}
	if first.Source != "Example Front Page" {
		t.Errorf("Source = %q", first.Source)
	}
	if first.Category != core.CategoryWorld {
		t.Errorf("Category = %q, want the configured fallback", first.Category)
	}

	if articles[1].URL != "https://other.example.org/story/two" {
		t.Errorf("absolute URL mangled: %q", articles[1].URL)
	}
}

func TestWebPagesAllFailedErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	pages := []config.WebPage{{URL: srv.URL}}
	if _, err := NewWebPages(fetch.NewClient(fetch.Options{MaxRetries: 0}), pages).Crawl(context.Background()); err == nil {
		t.Error("expected an error when every page fails")
	}
}

func TestResolveHref(t *testing.T) {
	tests := []struct {
		href string
		want string
	}{
		{"/story", "https://example.com/story"},
		{"https://other.org/x", "https://other.org/x"},
		{"#anchor", ""},
		{"javascript:void(0)", ""},
		{"mailto:hi@example.com", ""},
		{"", ""},
	}
	base := mustParse(t, "https://example.com/index.html")
	for _, tt := range tests {
		if got := resolveHref(base, tt.href); got != tt.want {
			t.Errorf("resolveHref(%q) = %q, want %q", tt.href, got, tt.want)
		}
	}
}
