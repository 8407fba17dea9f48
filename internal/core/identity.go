package core

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// significantWordLen is the minimum length (exclusive) for a title word to
// count toward the fingerprint.
const significantWordLen = 3

// trackingParams are query parameters stripped during URL normalization so
// that share links from different campaigns collapse to one identity.
var trackingParams = map[string]bool{
	"fbclid":  true,
	"gclid":   true,
	"igshid":  true,
	"mc_cid":  true,
	"mc_eid":  true,
	"ref":     true,
	"ref_src": true,
	"source":  true,
	"spm":     true,
	"twclid":  true,
	"yclid":   true,
}

// DedupKey returns the exact-match identity of the article: a stable hash of
// the normalized title joined with the normalized URL. It is a pure function
// of the article's content.
func (a Article) DedupKey() string {
	return hashHex(NormalizeTitle(a.Title) + "|" + NormalizeURL(a.URL))
}

// TitleFingerprint returns the cross-source "same story" probe: a stable
// hash over the sorted set of significant title words. Titles with fewer
// than two significant words yield an empty fingerprint.
func (a Article) TitleFingerprint() string {
	words := SignificantWords(a.Title)
	if len(words) < 2 {
		return ""
	}
	sorted := make([]string, len(words))
	copy(sorted, words)
	sort.Strings(sorted)
	return hashHex(strings.Join(sorted, " "))
}

// SignificantWords returns the unique lowercased words of the title longer
// than three characters, in first-appearance order.
func SignificantWords(title string) []string {
	seen := make(map[string]bool)
	var words []string
	for _, w := range strings.Fields(strings.ToLower(title)) {
		w = strings.Trim(w, ".,:;!?\"'()[]{}«»“”‘’")
		if len(w) <= significantWordLen || seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
	}
	return words
}

// NormalizeTitle lowercases the title and collapses runs of whitespace so
// that cosmetic edits do not change the dedup key.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

// NormalizeURL canonicalizes an article URL: lowercase host without a
// leading "www.", no trailing slash on the path, no fragment, and tracking
// query parameters removed. Remaining parameters keep their original order.
// Unparseable URLs are returned trimmed but otherwise untouched.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")

	path := strings.TrimSuffix(u.Path, "/")

	query := filterQuery(u.RawQuery)

	var b strings.Builder
	if u.Scheme != "" {
		b.WriteString(strings.ToLower(u.Scheme))
		b.WriteString("://")
	}
	b.WriteString(host)
	b.WriteString(path)
	if query != "" {
		b.WriteString("?")
		b.WriteString(query)
	}
	return b.String()
}

// filterQuery drops tracking parameters from a raw query string while
// preserving the order of the parameters that remain. url.Values cannot be
// used here because it loses ordering.
func filterQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	var kept []string
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key := pair
		if i := strings.Index(pair, "="); i >= 0 {
			key = pair[:i]
		}
		key = strings.ToLower(key)
		if strings.HasPrefix(key, "utm_") || trackingParams[key] {
			continue
		}
		kept = append(kept, pair)
	}
	return strings.Join(kept, "&")
}

func hashHex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
