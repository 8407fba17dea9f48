// Package feeds provides RSS/Atom feed parsing for the rss source adapter.
package feeds

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RSS represents an RSS feed structure
type RSS struct {
	XMLName xml.Name `xml:"rss"`
	Channel Channel  `xml:"channel"`
}

// Atom represents an Atom feed structure
type Atom struct {
	XMLName xml.Name    `xml:"feed"`
	Title   string      `xml:"title"`
	Link    []AtomLink  `xml:"link"`
	Entries []AtomEntry `xml:"entry"`
}

// Channel represents an RSS channel
type Channel struct {
	Title       string    `xml:"title"`
	Description string    `xml:"description"`
	Link        string    `xml:"link"`
	Items       []RSSItem `xml:"item"`
}

// RSSItem represents an RSS item
type RSSItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
	Creator     string `xml:"creator"`
	Author      string `xml:"author"`
}

// AtomLink represents an Atom link element
type AtomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

// AtomEntry represents an Atom entry
type AtomEntry struct {
	Title     string     `xml:"title"`
	Link      []AtomLink `xml:"link"`
	Summary   string     `xml:"summary"`
	Content   string     `xml:"content"`
	Published string     `xml:"published"`
	Updated   string     `xml:"updated"`
	ID        string     `xml:"id"`
	Author    AtomAuthor `xml:"author"`
}

// AtomAuthor represents an Atom author element
type AtomAuthor struct {
	Name string `xml:"name"`
}

// Item is one parsed feed entry in a format-neutral shape.
type Item struct {
	ID        string    // Deterministic identifier derived from feed URL + link
	Title     string
	Link      string
	Summary   string
	Published time.Time // Zero when the feed gave no parseable date
	GUID      string
	Author    string
}

// ParsedFeed is the result of parsing one feed document.
type ParsedFeed struct {
	Title string
	Items []Item
}

// Parse decodes a feed document as RSS first, then Atom.
func Parse(data []byte, feedURL string) (*ParsedFeed, error) {
	var rss RSS
	if err := xml.Unmarshal(data, &rss); err == nil && rss.Channel.Title != "" {
		return parseRSS(rss, feedURL), nil
	}

	var atom Atom
	if err := xml.Unmarshal(data, &atom); err == nil && atom.Title != "" {
		return parseAtom(atom, feedURL), nil
	}

	return nil, fmt.Errorf("unable to parse %s as RSS or Atom feed", feedURL)
}

func parseRSS(rss RSS, feedURL string) *ParsedFeed {
	parsed := &ParsedFeed{Title: rss.Channel.Title}
	for _, item := range rss.Channel.Items {
		author := item.Creator
		if author == "" {
			author = item.Author
		}
		parsed.Items = append(parsed.Items, Item{
			ID:        generateItemID(feedURL, item.Link),
			Title:     strings.TrimSpace(item.Title),
			Link:      strings.TrimSpace(item.Link),
			Summary:   item.Description,
			Published: ParseRSSDate(item.PubDate),
			GUID:      item.GUID,
			Author:    strings.TrimSpace(author),
		})
	}
	return parsed
}

func parseAtom(atom Atom, feedURL string) *ParsedFeed {
	parsed := &ParsedFeed{Title: atom.Title}
	for _, entry := range atom.Entries {
		// Find the main link
		var link string
		for _, l := range entry.Link {
			if l.Rel == "" || l.Rel == "alternate" {
				link = l.Href
				break
			}
		}

		summary := entry.Summary
		if summary == "" {
			summary = entry.Content
		}

		published := entry.Published
		if published == "" {
			published = entry.Updated
		}

		parsed.Items = append(parsed.Items, Item{
			ID:        generateItemID(feedURL, link),
			Title:     strings.TrimSpace(entry.Title),
			Link:      strings.TrimSpace(link),
			Summary:   summary,
			Published: ParseAtomDate(published),
			GUID:      entry.ID,
			Author:    strings.TrimSpace(entry.Author.Name),
		})
	}
	return parsed
}

// generateItemID creates a deterministic ID for a feed item
func generateItemID(feedURL, link string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(feedURL+link)).String()
}

// ParseRSSDate parses the date formats seen in RSS feeds in the wild.
func ParseRSSDate(dateStr string) time.Time {
	if dateStr == "" {
		return time.Time{}
	}

	formats := []string{
		time.RFC1123,
		time.RFC1123Z,
		"Mon, 2 Jan 2006 15:04:05 -0700",
		"Mon, 2 Jan 2006 15:04:05 MST",
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, strings.TrimSpace(dateStr)); err == nil {
			return t.UTC()
		}
	}

	return time.Time{}
}

// ParseAtomDate parses Atom dates (RFC3339, falling back to RSS formats).
func ParseAtomDate(dateStr string) time.Time {
	if dateStr == "" {
		return time.Time{}
	}

	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(dateStr)); err == nil {
		return t.UTC()
	}

	return ParseRSSDate(dateStr)
}
