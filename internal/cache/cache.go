// Package cache persists whole crawl results so repeated runs with the same
// source set can skip the network entirely.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"newsflow/internal/core"
	"newsflow/internal/logger"
)

// Key derives the deterministic cache key for a crawl configuration:
// md5(sorted source names joined "," + "|" + dedup threshold), truncated to
// 12 hex chars.
func Key(sourceNames []string, dedupThreshold float64) string {
	names := make([]string, len(sourceNames))
	copy(names, sourceNames)
	sort.Strings(names)

	payload := strings.Join(names, ",") + "|" + strconv.FormatFloat(dedupThreshold, 'g', -1, 64)
	sum := md5.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])[:12]
}

// entry is the on-disk layout: compact JSON, articles kept raw on load so
// missing fields can be defaulted.
type entry struct {
	CachedAt int64             `json:"cached_at"`
	Stats    map[string]int    `json:"stats"`
	Articles []json.RawMessage `json:"articles"`
}

// Store reads and writes result cache entries under a cache directory.
type Store struct {
	dir string
}

// NewStore creates a result cache rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Load returns the cached articles and stats for key if an entry exists and
// is younger than ttl. Any I/O or decode problem is treated as a miss.
func (s *Store) Load(key string, ttl time.Duration) ([]core.Article, map[string]int, bool) {
	path := s.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to read cache entry", "path", path, "error", err.Error())
		}
		return nil, nil, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		logger.Warn("failed to parse cache entry", "path", path, "error", err.Error())
		return nil, nil, false
	}

	age := time.Since(time.Unix(e.CachedAt, 0))
	if age > ttl {
		logger.Debug("cache entry expired", "key", key, "age", age.String())
		return nil, nil, false
	}

	articles := make([]core.Article, 0, len(e.Articles))
	for _, raw := range e.Articles {
		if a, ok := decodeArticle(raw); ok {
			articles = append(articles, a)
		}
	}
	return articles, e.Stats, true
}

// Save writes the crawl result atomically (write-then-rename). Failures are
// logged and swallowed.
func (s *Store) Save(key string, articles []core.Article, stats map[string]int) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		logger.Warn("failed to create cache dir", "dir", s.dir, "error", err.Error())
		return
	}

	raw := make([]json.RawMessage, 0, len(articles))
	for _, a := range articles {
		b, err := json.Marshal(a)
		if err != nil {
			continue
		}
		raw = append(raw, b)
	}

	data, err := json.Marshal(entry{
		CachedAt: time.Now().Unix(),
		Stats:    stats,
		Articles: raw,
	})
	if err != nil {
		logger.Warn("failed to encode cache entry", "key", key, "error", err.Error())
		return
	}

	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		logger.Warn("failed to write cache entry", "path", tmp, "error", err.Error())
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		logger.Warn("failed to replace cache entry", "path", path, "error", err.Error())
	}
}

// EntryInfo describes one stored cache entry for the stats command.
type EntryInfo struct {
	Key      string
	Age      time.Duration
	Articles int
}

// Entries lists the stored cache entries, newest first.
func (s *Store) Entries() []EntryInfo {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil
	}
	var infos []EntryInfo
	for _, m := range matches {
		if filepath.Base(m) == "history.json" {
			continue
		}
		data, err := os.ReadFile(m)
		if err != nil {
			continue
		}
		var e entry
		if err := json.Unmarshal(data, &e); err != nil {
			continue
		}
		infos = append(infos, EntryInfo{
			Key:      strings.TrimSuffix(filepath.Base(m), ".json"),
			Age:      time.Since(time.Unix(e.CachedAt, 0)),
			Articles: len(e.Articles),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Age < infos[j].Age })
	return infos
}

// Clear removes every cache entry. Returns the number removed.
func (s *Store) Clear() int {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return 0
	}
	removed := 0
	for _, m := range matches {
		// history.json lives in the same directory and is not ours to delete.
		if filepath.Base(m) == "history.json" {
			continue
		}
		if os.Remove(m) == nil {
			removed++
		}
	}
	return removed
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// decodeArticle unmarshals a cached article, filling any field absent from
// an older record with the current schema default. Schema additions must
// not invalidate existing caches.
func decodeArticle(raw json.RawMessage) (core.Article, bool) {
	a := core.Article{
		QualityScore: core.DefaultQualityScore,
		SourceCount:  1,
		Category:     core.CategoryGeneral,
	}
	if err := json.Unmarshal(raw, &a); err != nil {
		logger.Debug("skipping undecodable cached article", "error", err.Error())
		return core.Article{}, false
	}
	if a.URL == "" {
		return core.Article{}, false
	}
	if a.SourceCount < 1 {
		a.SourceCount = 1
	}
	if a.Category == "" {
		a.Category = core.CategoryGeneral
	}
	return a, true
}
