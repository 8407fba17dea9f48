package health

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSuccessRate(t *testing.T) {
	h := &SourceHealth{}
	if got := h.SuccessRate(); got != 1.0 {
		t.Errorf("untracked source SuccessRate = %v, want 1.0", got)
	}

	h = &SourceHealth{TotalCrawls: 10, Failures: 3}
	if got := h.SuccessRate(); got != 0.7 {
		t.Errorf("SuccessRate = %v, want 0.7", got)
	}
}

func TestModifierBands(t *testing.T) {
	tests := []struct {
		crawls   int
		failures int
		want     float64
	}{
		{0, 0, 1.0},   // untracked counts as healthy
		{10, 0, 1.0},  // rate 1.0
		{10, 1, 1.0},  // rate 0.9, boundary of the top band
		{10, 2, 0.8},  // rate 0.8
		{10, 5, 0.8},  // rate 0.5, boundary of the middle band
		{10, 6, 0.5},  // rate 0.4
		{10, 10, 0.5}, // rate 0
	}
	for _, tt := range tests {
		h := &SourceHealth{TotalCrawls: tt.crawls, Failures: tt.failures}
		if got := h.Modifier(); got != tt.want {
			t.Errorf("Modifier(%d crawls, %d failures) = %v, want %v", tt.crawls, tt.failures, got, tt.want)
		}
	}
}

func TestPercentile(t *testing.T) {
	h := &SourceHealth{ResponseTimesMS: []float64{100, 200, 300, 400, 500}}

	if got := h.Percentile(50); got != 300 {
		t.Errorf("P50 = %v, want 300", got)
	}
	if got := h.Percentile(0); got != 100 {
		t.Errorf("P0 = %v, want 100", got)
	}
	if got := h.Percentile(100); got != 500 {
		t.Errorf("P100 = %v, want 500", got)
	}
	// Interpolated rank: 0.75 * 4 = 3 exactly would be 400; use p=90.
	if got := h.Percentile(90); got != 460 {
		t.Errorf("P90 = %v, want 460", got)
	}

	empty := &SourceHealth{}
	if got := empty.Percentile(95); got != 0 {
		t.Errorf("empty P95 = %v, want 0", got)
	}

	single := &SourceHealth{ResponseTimesMS: []float64{42}}
	if got := single.Percentile(95); got != 42 {
		t.Errorf("single-sample P95 = %v, want 42", got)
	}
}

func TestRecordSuccessAndFailure(t *testing.T) {
	tracker := NewTracker(t.TempDir())

	tracker.RecordSuccess("RSS", 12, 150*time.Millisecond, 1)
	tracker.RecordFailure("rss")

	rec := tracker.Get("rss")
	if rec.TotalCrawls != 2 {
		t.Errorf("TotalCrawls = %d, want 2", rec.TotalCrawls)
	}
	if rec.Failures != 1 {
		t.Errorf("Failures = %d, want 1", rec.Failures)
	}
	if rec.TotalArticles != 12 {
		t.Errorf("TotalArticles = %d, want 12", rec.TotalArticles)
	}
	if rec.RetriesUsed != 1 {
		t.Errorf("RetriesUsed = %d, want 1", rec.RetriesUsed)
	}
	if len(rec.ResponseTimesMS) != 1 || rec.ResponseTimesMS[0] != 150 {
		t.Errorf("ResponseTimesMS = %v, want [150]", rec.ResponseTimesMS)
	}
	if rec.LastSuccess.IsZero() {
		t.Error("LastSuccess not set")
	}
}

func TestCaseInsensitiveKeys(t *testing.T) {
	tracker := NewTracker(t.TempDir())
	tracker.RecordSuccess("Hacker News", 5, time.Millisecond, 0)

	if tracker.Get("hacker news").TotalCrawls != 1 {
		t.Error("lookup with different case missed the record")
	}
}

func TestLatencyRingBuffer(t *testing.T) {
	tracker := NewTracker(t.TempDir())
	for i := 0; i < maxLatencySamples+10; i++ {
		tracker.RecordSuccess("rss", 1, time.Duration(i)*time.Millisecond, 0)
	}

	rec := tracker.Get("rss")
	if len(rec.ResponseTimesMS) != maxLatencySamples {
		t.Fatalf("sample count = %d, want %d", len(rec.ResponseTimesMS), maxLatencySamples)
	}
	if rec.ResponseTimesMS[0] != 10 {
		t.Errorf("oldest kept sample = %v, want 10", rec.ResponseTimesMS[0])
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()

	tracker := NewTracker(dir)
	tracker.RecordSuccess("rss", 8, 120*time.Millisecond, 0)
	tracker.RecordFailure("hn")
	tracker.Save()

	if _, err := os.Stat(filepath.Join(dir, "health.json")); err != nil {
		t.Fatalf("health file not written: %v", err)
	}

	reloaded := NewTracker(dir)
	if reloaded.Get("rss").TotalArticles != 8 {
		t.Error("rss record lost on reload")
	}
	if reloaded.Get("hn").Failures != 1 {
		t.Error("hn record lost on reload")
	}
}

func TestCorruptFileStartsFresh(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "health.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	tracker := NewTracker(dir)
	if len(tracker.Sources()) != 0 {
		t.Error("corrupt file should start an empty tracker")
	}
}

func TestTimingReportOrder(t *testing.T) {
	tracker := NewTracker(t.TempDir())
	tracker.RecordSuccess("fast", 1, 10*time.Millisecond, 0)
	tracker.RecordSuccess("slow", 1, 900*time.Millisecond, 0)

	report := tracker.TimingReport()
	if len(report) != 2 {
		t.Fatalf("report rows = %d, want 2", len(report))
	}
	if report[0].Source != "slow" {
		t.Errorf("first row = %s, want slow", report[0].Source)
	}
}
