// Package history keeps a persistent TTL-windowed seen-set of article
// fingerprints so repeated runs do not resurface the same stories.
package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"newsflow/internal/core"
	"newsflow/internal/logger"
)

const historyFileName = "history.json"

// file is the on-disk layout: pretty-printed JSON mapping fingerprint to
// the unix second it was first seen.
type file struct {
	Seen      map[string]int64 `json:"seen"`
	UpdatedAt int64            `json:"updated_at"`
}

// Store reads and writes the history file.
type Store struct {
	path string
	now  func() time.Time
}

// NewStore creates a history store inside dir.
func NewStore(dir string) *Store {
	return &Store{
		path: filepath.Join(dir, historyFileName),
		now:  time.Now,
	}
}

// FilterSeen removes articles whose dedup key or title fingerprint was
// recorded within the last ttl, then records both fingerprints of the
// survivors. Expired entries are pruned on every call. Storage failures
// degrade to an empty history: the run always proceeds.
func (s *Store) FilterSeen(articles []core.Article, ttl time.Duration) []core.Article {
	seen := s.load()
	now := s.now().Unix()
	cutoff := now - int64(ttl.Seconds())

	// Prune entries that have aged out of the window.
	for fp, ts := range seen {
		if ts < cutoff {
			delete(seen, fp)
		}
	}

	fresh := make([]core.Article, 0, len(articles))
	for _, a := range articles {
		key := a.DedupKey()
		fp := a.TitleFingerprint()

		if _, ok := seen[key]; ok {
			continue
		}
		if fp != "" {
			if _, ok := seen[fp]; ok {
				continue
			}
		}

		seen[key] = now
		if fp != "" {
			seen[fp] = now
		}
		fresh = append(fresh, a)
	}

	s.save(seen)
	return fresh
}

// Clear deletes the history file.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Stats summarizes the stored fingerprints against a TTL window.
type Stats struct {
	Total     int           // All stored fingerprints
	Active    int           // Fingerprints still inside the window
	Expired   int           // Fingerprints past the window
	OldestAge time.Duration // Age of the oldest fingerprint
}

// Stats reports entry counts and the oldest entry age for the given ttl.
func (s *Store) Stats(ttl time.Duration) Stats {
	seen := s.load()
	now := s.now().Unix()
	cutoff := now - int64(ttl.Seconds())

	st := Stats{Total: len(seen)}
	var oldest int64
	for _, ts := range seen {
		if ts >= cutoff {
			st.Active++
		} else {
			st.Expired++
		}
		if oldest == 0 || ts < oldest {
			oldest = ts
		}
	}
	if oldest > 0 {
		st.OldestAge = time.Duration(now-oldest) * time.Second
	}
	return st
}

func (s *Store) load() map[string]int64 {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to read history file", "path", s.path, "error", err.Error())
		}
		return make(map[string]int64)
	}
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		logger.Warn("failed to parse history file, starting fresh", "path", s.path, "error", err.Error())
		return make(map[string]int64)
	}
	if f.Seen == nil {
		return make(map[string]int64)
	}
	return f.Seen
}

func (s *Store) save(seen map[string]int64) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		logger.Warn("failed to create history dir", "path", s.path, "error", err.Error())
		return
	}
	data, err := json.MarshalIndent(file{Seen: seen, UpdatedAt: s.now().Unix()}, "", "  ")
	if err != nil {
		logger.Warn("failed to encode history", "error", err.Error())
		return
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		logger.Warn("failed to write history file", "path", tmp, "error", err.Error())
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		logger.Warn("failed to replace history file", "path", s.path, "error", err.Error())
	}
}
