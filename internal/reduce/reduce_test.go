package reduce

import (
	"strings"
	"testing"

	"github.com/formalhaus/formalis/internal/model"
	"github.com/formalhaus/formalis/internal/preprocess"
)

func TestWalk_TwoExplicitClaims(t *testing.T) {
	pre := preprocess.Run("Alice owns a car and Bob rides a bike.")
	claims, rationale := Walk(pre)

	if len(claims) != 2 {
		t.Fatalf("expected 2 claims, got %d", len(claims))
	}
	if claims[0].Identifier != "E1" || claims[0].Text != "Alice owns a car" {
		t.Errorf("claim 0 = %s %q", claims[0].Identifier, claims[0].Text)
	}
	if claims[1].Identifier != "E2" || claims[1].Text != "Bob rides a bike" {
		t.Errorf("claim 1 = %s %q", claims[1].Identifier, claims[1].Text)
	}
	for i, c := range claims {
		if len(c.OriginSpans) != 1 {
			t.Fatalf("claim %d has %d origin spans", i, len(c.OriginSpans))
		}
		s := c.OriginSpans[0]
		if pre.Normalized[s.Start:s.End] != c.Text {
			t.Errorf("claim %d origin span does not cover its text", i)
		}
	}
	if !strings.Contains(rationale, "offset walk") {
		t.Errorf("rationale = %q", rationale)
	}
}

func TestWalk_QuantifiedClaimsAreReduced(t *testing.T) {
	pre := preprocess.Run("Alice swims and every cat purrs.")
	claims, _ := Walk(pre)

	if len(claims) != 2 {
		t.Fatalf("expected 2 claims, got %d", len(claims))
	}
	if claims[0].Identifier != "E1" {
		t.Errorf("claim 0 id = %s, want E1", claims[0].Identifier)
	}
	if claims[1].Identifier != "R1" {
		t.Errorf("claim 1 id = %s, want R1", claims[1].Identifier)
	}
	if claims[1].Category() != model.CategoryReduced {
		t.Error("quantified claim not categorized as reduced")
	}
}

func TestWalk_ModalTagging(t *testing.T) {
	pre := preprocess.Run("Alice must file reports and Bob might retire.")
	claims, _ := Walk(pre)

	if len(claims) != 2 {
		t.Fatalf("expected 2 claims, got %d", len(claims))
	}
	if claims[0].ModalContext != model.ModalityNecessity {
		t.Errorf("claim 0 modality = %q, want necessity", claims[0].ModalContext)
	}
	if claims[1].ModalContext != model.ModalityPossibility {
		t.Errorf("claim 1 modality = %q, want possibility", claims[1].ModalContext)
	}
}

func TestExpand_PresuppositionPlacement(t *testing.T) {
	pre := preprocess.Run("Every cat purrs and Alice smiles.")
	if len(pre.Clauses) != 2 {
		t.Fatalf("unexpected segmentation: %+v", pre.Clauses)
	}
	hints := &Hints{
		Segments: []model.Span{pre.Clauses[0].Span, pre.Clauses[1].Span},
		Presuppositions: []Presupposition{
			{AfterSegment: 0, Text: "There is at least one cat", Origin: model.Span{Start: 0, End: 5}},
		},
		Confidence: 0.9,
	}
	if err := ValidateHints(hints, pre.Normalized); err != nil {
		t.Fatalf("hints did not validate: %v", err)
	}

	claims, rationale := Expand(pre, hints)
	if len(claims) != 3 {
		t.Fatalf("expected 3 claims, got %d", len(claims))
	}
	// The quantified clause is R1, its presupposition lands right after as
	// R2, and the plain clause follows as E1.
	if claims[0].Identifier != "R1" || !strings.HasPrefix(claims[0].Text, "Every cat") {
		t.Errorf("claim 0 = %s %q", claims[0].Identifier, claims[0].Text)
	}
	if claims[1].Identifier != "R2" || claims[1].Text != "There is at least one cat" {
		t.Errorf("claim 1 = %s %q", claims[1].Identifier, claims[1].Text)
	}
	if claims[2].Identifier != "E1" || claims[2].Text != "Alice smiles" {
		t.Errorf("claim 2 = %s %q", claims[2].Identifier, claims[2].Text)
	}
	if !strings.Contains(rationale, "1 presuppositions") {
		t.Errorf("rationale = %q", rationale)
	}
}

func TestBuild_TieBreakByLength(t *testing.T) {
	pre := preprocess.Run("Alice owns a car.")
	// Two segments sharing a start offset: the shorter must come first.
	hints := &Hints{
		Segments: []model.Span{
			{Start: 0, End: 16},
			{Start: 0, End: 11},
		},
		Confidence: 0.9,
	}
	claims, _ := Expand(pre, hints)

	if len(claims) != 2 {
		t.Fatalf("expected 2 claims, got %d", len(claims))
	}
	if claims[0].Text != "Alice owns" || claims[1].Text != "Alice owns a car" {
		t.Errorf("tie-break order wrong: %q then %q", claims[0].Text, claims[1].Text)
	}
}

func TestValidateHints(t *testing.T) {
	text := "Every cat purrs."

	tests := []struct {
		name    string
		hints   *Hints
		wantErr bool
	}{
		{"nil", nil, true},
		{"no segments", &Hints{}, true},
		{"valid", &Hints{Segments: []model.Span{{Start: 0, End: 15}}}, false},
		{"segment past end", &Hints{Segments: []model.Span{{Start: 0, End: 99}}}, true},
		{"inverted segment", &Hints{Segments: []model.Span{{Start: 10, End: 5}}}, true},
		{"dangling presupposition", &Hints{
			Segments:        []model.Span{{Start: 0, End: 15}},
			Presuppositions: []Presupposition{{AfterSegment: 3, Text: "x", Origin: model.Span{Start: 0, End: 5}}},
		}, true},
		{"empty presupposition text", &Hints{
			Segments:        []model.Span{{Start: 0, End: 15}},
			Presuppositions: []Presupposition{{AfterSegment: 0, Text: "  ", Origin: model.Span{Start: 0, End: 5}}},
		}, true},
		{"bad presupposition origin", &Hints{
			Segments:        []model.Span{{Start: 0, End: 15}},
			Presuppositions: []Presupposition{{AfterSegment: 0, Text: "x", Origin: model.Span{Start: 5, End: 5}}},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHints(tt.hints, text)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateHints() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSuggestPresuppositions(t *testing.T) {
	pre := preprocess.Run("Every cat purrs. All dogs bark.")
	segs := make([]model.Span, len(pre.Clauses))
	for i, c := range pre.Clauses {
		segs[i] = c.Span
	}

	presups := SuggestPresuppositions(pre, segs)
	if len(presups) != 2 {
		t.Fatalf("expected 2 presuppositions, got %d", len(presups))
	}
	if presups[0].Text != "There is at least one cat" || presups[0].AfterSegment != 0 {
		t.Errorf("presupposition 0 = %+v", presups[0])
	}
	if presups[1].Text != "There is at least one dogs" || presups[1].AfterSegment != 1 {
		t.Errorf("presupposition 1 = %+v", presups[1])
	}
}

func TestDetailRationale(t *testing.T) {
	pre := preprocess.Run("Every cat purrs.")
	claims, base := Walk(pre)

	detailed := DetailRationale(base, claims)
	if !strings.Contains(detailed, "R1 from span") {
		t.Errorf("detailed rationale = %q", detailed)
	}

	// No reduced claims means the base rationale passes through untouched.
	plain, baseP := Walk(preprocess.Run("Alice swims."))
	if got := DetailRationale(baseP, plain); got != baseP {
		t.Errorf("rationale changed without reduced claims: %q", got)
	}
}
