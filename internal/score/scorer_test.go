package score

import "testing"

func TestScorer_Relevance_FullOverlap(t *testing.T) {
	scorer := NewScorer()

	got := scorer.Relevance(
		"Alice owns red car",
		"Alice owns a red car",
		"Alice owns a red car. Alice drives her red car to work every day.",
	)
	if got < 0.8 || got > 1.0 {
		t.Errorf("full overlap relevance = %v, want within [0.8, 1.0]", got)
	}
}

func TestScorer_Relevance_NoOverlap(t *testing.T) {
	scorer := NewScorer()

	got := scorer.Relevance(
		"Alice owns red car",
		"Weather report",
		"Tomorrow brings heavy rain across most coastal regions.",
	)
	if got != 0 {
		t.Errorf("disjoint relevance = %v, want 0", got)
	}
}

func TestScorer_Relevance_PartialBeatsDisjoint(t *testing.T) {
	scorer := NewScorer()

	partial := scorer.Relevance("Alice owns red car", "", "Alice walked home.")
	if partial <= 0 {
		t.Errorf("partial overlap relevance = %v, want > 0", partial)
	}
	full := scorer.Relevance("Alice owns red car", "", "Alice owns a red car.")
	if full <= partial {
		t.Errorf("full overlap %v should beat partial %v", full, partial)
	}
}

func TestScorer_Relevance_EmptyQuery(t *testing.T) {
	scorer := NewScorer()

	if got := scorer.Relevance("", "title", "body text here"); got != 0 {
		t.Errorf("empty query relevance = %v, want 0", got)
	}
	if got := scorer.Relevance("the an of", "title", "body text here"); got != 0 {
		t.Errorf("stopword-only query relevance = %v, want 0", got)
	}
}

func TestScorer_Relevance_TitleContributes(t *testing.T) {
	scorer := NewScorer()

	body := "Alice owns a red car."
	plain := scorer.Relevance("Alice car", "", body)
	titled := scorer.Relevance("Alice car", "Alice and her car", body)
	if titled <= plain {
		t.Errorf("title match %v should beat no title %v", titled, plain)
	}
}

func TestBand(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0.95, "high"},
		{0.8, "high"},
		{0.65, "medium"},
		{0.5, "medium"},
		{0.49, "low"},
		{0.0, "low"},
	}
	for _, tt := range tests {
		if got := Band(tt.score); got != tt.want {
			t.Errorf("Band(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}
