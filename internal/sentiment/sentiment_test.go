package sentiment

import (
	"testing"

	"newsflow/internal/core"
)

func TestClassify(t *testing.T) {
	analyzer := NewAnalyzer()

	tests := []struct {
		name    string
		title   string
		summary string
		want    Tone
	}{
		{
			name:  "positive title hit clears the bar alone",
			title: "Startup celebrates record growth",
			want:  TonePositive,
		},
		{
			name:  "negative title hit",
			title: "Massive breach exposes customer data",
			want:  ToneNegative,
		},
		{
			name:  "no keywords is neutral",
			title: "Weekly digest of database internals",
			want:  ToneNeutral,
		},
		{
			name:    "summary-only hit misses the minimum score",
			title:   "Quarterly report published",
			summary: "The company posted a loss.",
			want:    ToneNeutral,
		},
		{
			name:  "mixed signals need a strict margin",
			title: "Launch succeeds after earlier failure",
			want:  ToneNeutral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := core.Article{Title: tt.title, Summary: tt.summary}
			if got := analyzer.Classify(a); got != tt.want {
				t.Errorf("Classify(%q / %q) = %q, want %q", tt.title, tt.summary, got, tt.want)
			}
		})
	}
}

func TestTitleOutweighsSummary(t *testing.T) {
	analyzer := NewAnalyzer()
	a := core.Article{
		Title:   "Record win for open hardware",
		Summary: "Not everyone agrees; one critic called it a failure.",
	}
	// Two positive title hits (x3) against one negative summary hit.
	if got := analyzer.Classify(a); got != TonePositive {
		t.Errorf("Classify = %q, want %q", got, TonePositive)
	}
}

func TestIsDoom(t *testing.T) {
	analyzer := NewAnalyzer()

	doom := core.Article{Title: "War escalates as invasion continues"}
	if !analyzer.IsDoom(doom) {
		t.Error("expected doom-laden article to be flagged")
	}

	calm := core.Article{Title: "New sorting algorithm explained"}
	if analyzer.IsDoom(calm) {
		t.Error("expected neutral article not to be flagged")
	}
}
