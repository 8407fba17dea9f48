// Package health tracks per-source crawl reliability: success and failure
// counts, latency samples and a derived quality modifier. The data is
// diagnostic, not authoritative; concurrent crawler processes are not
// coordinated and the last writer wins.
package health

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"newsflow/internal/logger"
)

const (
	maxLatencySamples = 50
	healthFileName    = "health.json"
)

// SourceHealth is the persisted record for one source.
type SourceHealth struct {
	TotalCrawls     int       `json:"total_crawls"`
	Failures        int       `json:"failures"`
	TotalArticles   int       `json:"total_articles"`
	LastSuccess     time.Time `json:"last_success"`
	ResponseTimesMS []float64 `json:"response_times_ms"`
	RetriesUsed     int       `json:"retries_used,omitempty"`
}

// SuccessRate returns the fraction of crawls that succeeded, 1.0 for a
// source that has never been crawled.
func (h *SourceHealth) SuccessRate() float64 {
	if h.TotalCrawls == 0 {
		return 1.0
	}
	return float64(h.TotalCrawls-h.Failures) / float64(h.TotalCrawls)
}

// Modifier maps the success rate onto the quality weight used by downstream
// filters: 1.0 for reliable sources, 0.8 for flaky ones, 0.5 for failing
// ones.
func (h *SourceHealth) Modifier() float64 {
	rate := h.SuccessRate()
	switch {
	case rate >= 0.9:
		return 1.0
	case rate >= 0.5:
		return 0.8
	default:
		return 0.5
	}
}

// AvgArticles returns the rolling average article count per successful
// crawl.
func (h *SourceHealth) AvgArticles() float64 {
	successes := h.TotalCrawls - h.Failures
	if successes <= 0 {
		return 0
	}
	return float64(h.TotalArticles) / float64(successes)
}

// Percentile computes the p-th latency percentile (p in [0,100]) by linear
// interpolation on the sorted samples. Returns 0 with no samples.
func (h *SourceHealth) Percentile(p float64) float64 {
	if len(h.ResponseTimesMS) == 0 {
		return 0
	}
	sorted := make([]float64, len(h.ResponseTimesMS))
	copy(sorted, h.ResponseTimesMS)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Tracker holds health records for all sources. It is not goroutine-safe;
// the scheduler serializes all writes on its own side.
type Tracker struct {
	path    string
	records map[string]*SourceHealth
}

// NewTracker loads the tracker from <stateDir>/health.json. A missing or
// unreadable file starts an empty tracker; persistence failures never abort
// a run.
func NewTracker(stateDir string) *Tracker {
	t := &Tracker{
		path:    filepath.Join(stateDir, healthFileName),
		records: make(map[string]*SourceHealth),
	}

	data, err := os.ReadFile(t.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to read health file", "path", t.path, "error", err.Error())
		}
		return t
	}
	if err := json.Unmarshal(data, &t.records); err != nil {
		logger.Warn("failed to parse health file, starting fresh", "path", t.path, "error", err.Error())
		t.records = make(map[string]*SourceHealth)
	}
	return t
}

// Get returns the record for a source, creating it on first use. Lookups
// are case-insensitive.
func (t *Tracker) Get(source string) *SourceHealth {
	key := strings.ToLower(source)
	rec, ok := t.records[key]
	if !ok {
		rec = &SourceHealth{}
		t.records[key] = rec
	}
	return rec
}

// Sources returns the tracked source names, sorted.
func (t *Tracker) Sources() []string {
	names := make([]string, 0, len(t.records))
	for name := range t.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RecordSuccess registers a successful crawl: article count, latency sample
// (ring-buffered at 50) and the retries that were needed.
func (t *Tracker) RecordSuccess(source string, articles int, latency time.Duration, retries int) {
	rec := t.Get(source)
	rec.TotalCrawls++
	rec.TotalArticles += articles
	rec.LastSuccess = time.Now().UTC()
	rec.RetriesUsed += retries

	rec.ResponseTimesMS = append(rec.ResponseTimesMS, float64(latency.Milliseconds()))
	if len(rec.ResponseTimesMS) > maxLatencySamples {
		rec.ResponseTimesMS = rec.ResponseTimesMS[len(rec.ResponseTimesMS)-maxLatencySamples:]
	}
}

// RecordFailure registers a failed crawl.
func (t *Tracker) RecordFailure(source string) {
	rec := t.Get(source)
	rec.TotalCrawls++
	rec.Failures++
}

// Save writes the health file atomically, pretty-printed. Errors are logged
// and swallowed: health persistence must never fail a run.
func (t *Tracker) Save() {
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		logger.Warn("failed to create state dir", "path", t.path, "error", err.Error())
		return
	}
	data, err := json.MarshalIndent(t.records, "", "  ")
	if err != nil {
		logger.Warn("failed to encode health records", "error", err.Error())
		return
	}
	tmp := t.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		logger.Warn("failed to write health file", "path", tmp, "error", err.Error())
		return
	}
	if err := os.Rename(tmp, t.path); err != nil {
		logger.Warn("failed to replace health file", "path", t.path, "error", err.Error())
	}
}

// TimingEntry is one row of the timing report.
type TimingEntry struct {
	Source string
	Avg    float64
	P50    float64
	P95    float64
	P99    float64
}

// TimingReport returns per-source latency summaries, slowest average first.
func (t *Tracker) TimingReport() []TimingEntry {
	var entries []TimingEntry
	for name, rec := range t.records {
		if len(rec.ResponseTimesMS) == 0 {
			continue
		}
		var sum float64
		for _, ms := range rec.ResponseTimesMS {
			sum += ms
		}
		entries = append(entries, TimingEntry{
			Source: name,
			Avg:    sum / float64(len(rec.ResponseTimesMS)),
			P50:    rec.Percentile(50),
			P95:    rec.Percentile(95),
			P99:    rec.Percentile(99),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Avg != entries[j].Avg {
			return entries[i].Avg > entries[j].Avg
		}
		return entries[i].Source < entries[j].Source
	})
	return entries
}

// Summary renders a one-line description of a source's health.
func (t *Tracker) Summary(source string) string {
	rec := t.Get(source)
	return fmt.Sprintf("%s: %d crawls, %.0f%% success, avg %.1f articles",
		strings.ToLower(source), rec.TotalCrawls, rec.SuccessRate()*100, rec.AvgArticles())
}
