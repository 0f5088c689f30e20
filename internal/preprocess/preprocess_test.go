package preprocess

import (
	"errors"
	"strings"
	"testing"

	"github.com/formalhaus/formalis/internal/model"
)

func TestNormalize(t *testing.T) {
	got, err := Normalize("  Alice   owns\na car.  ")
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if got != "Alice owns a car." {
		t.Errorf("Normalize() = %q", got)
	}
}

func TestNormalize_EmptyInput(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n\t "} {
		_, err := Normalize(raw)
		if err == nil {
			t.Fatalf("Normalize(%q) accepted empty input", raw)
		}
		var inputErr *model.InputError
		if !errors.As(err, &inputErr) {
			t.Errorf("Normalize(%q) error = %T, want InputError", raw, err)
		}
	}
}

func TestNormalize_Oversized(t *testing.T) {
	_, err := Normalize(strings.Repeat("a", maxInputBytes+1))
	var inputErr *model.InputError
	if !errors.As(err, &inputErr) {
		t.Errorf("oversized input error = %T, want InputError", err)
	}
}

func clauseTexts(r *Result) []string {
	out := make([]string, len(r.Clauses))
	for i, c := range r.Clauses {
		out[i] = c.Text
	}
	return out
}

func TestRun_Segmentation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			"two sentences",
			"Alice owns a car. She drives daily.",
			[]string{"Alice owns a car", "She drives daily"},
		},
		{
			"conditional",
			"If Alice owns a red car then she likely prefers driving.",
			[]string{"Alice owns a red car", "she likely prefers driving"},
		},
		{
			"bare conjunction",
			"Alice owns a car and Bob rides a bike.",
			[]string{"Alice owns a car", "Bob rides a bike"},
		},
		{
			"comma conjunction",
			"Alice swims, and Bob runs.",
			[]string{"Alice swims", "Bob runs"},
		},
		{
			"semicolon",
			"Alice swims; Bob runs.",
			[]string{"Alice swims", "Bob runs"},
		},
		{
			"contrast clause",
			"Alice swims but Bob runs.",
			[]string{"Alice swims", "Bob runs"},
		},
		{
			"single clause",
			"The cat purrs.",
			[]string{"The cat purrs"},
		},
		{
			"no terminator",
			"The cat purrs",
			[]string{"The cat purrs"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Run(tt.input)
			got := clauseTexts(res)
			if len(got) != len(tt.want) {
				t.Fatalf("clauses = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("clause %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRun_SpansIndexNormalizedText(t *testing.T) {
	input := "If Alice owns a red car then she likely prefers driving. She hates busses."
	res := Run(input)

	for i, c := range res.Clauses {
		if sliced := input[c.Span.Start:c.Span.End]; sliced != c.Text {
			t.Errorf("clause %d: span slice %q != text %q", i, sliced, c.Text)
		}
	}
	for i, a := range res.Annotations {
		if sliced := input[a.Span.Start:a.Span.End]; sliced != a.Token {
			t.Errorf("annotation %d: span slice %q != token %q", i, sliced, a.Token)
		}
	}

	// Clause spans come back in ascending start order
	for i := 1; i < len(res.Clauses); i++ {
		if res.Clauses[i].Span.Start <= res.Clauses[i-1].Span.Start {
			t.Error("clause spans are not in ascending start order")
		}
	}
}

func TestRun_Annotations(t *testing.T) {
	res := Run("Every cat must purr. Some dogs may not bark.")

	var kinds []MarkerKind
	for _, a := range res.Annotations {
		kinds = append(kinds, a.Kind)
	}
	want := []MarkerKind{
		MarkerQuantUniversal,   // Every
		MarkerModalNecessity,   // must
		MarkerQuantExistential, // Some
		MarkerModalPossibility, // may
		MarkerNegation,         // not
	}
	if len(kinds) != len(want) {
		t.Fatalf("annotation kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("annotation %d = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestRun_ContractionNegation(t *testing.T) {
	res := Run("Alice doesn't drive.")

	negs := res.Within(model.Span{Start: 0, End: len("Alice doesn't drive.")}, MarkerNegation)
	if len(negs) != 1 {
		t.Fatalf("expected 1 negation, got %d", len(negs))
	}
	if negs[0].Token != "doesn't" {
		t.Errorf("negation token = %q", negs[0].Token)
	}
}

func TestResult_Within(t *testing.T) {
	res := Run("Every cat purrs and some dogs bark.")
	if len(res.Clauses) != 2 {
		t.Fatalf("expected 2 clauses, got %v", clauseTexts(res))
	}

	first := res.Within(res.Clauses[0].Span)
	if len(first) != 1 || first[0].Kind != MarkerQuantUniversal {
		t.Errorf("first clause annotations = %v", first)
	}
	second := res.Within(res.Clauses[1].Span, MarkerQuantExistential)
	if len(second) != 1 || second[0].Token != "some" {
		t.Errorf("second clause existentials = %v", second)
	}
	none := res.Within(res.Clauses[1].Span, MarkerModalNecessity)
	if len(none) != 0 {
		t.Errorf("unexpected necessity markers: %v", none)
	}
}
