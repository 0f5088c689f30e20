package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/formalhaus/formalis/internal/cnf"
	"github.com/formalhaus/formalis/internal/logic"
	"github.com/formalhaus/formalis/internal/model"
)

func mustTransform(t *testing.T, root *model.Node) *cnf.Result {
	t.Helper()
	res, err := cnf.Transform(root, 512)
	if err != nil {
		t.Fatalf("Transform() error: %v", err)
	}
	return res
}

func baseInput(t *testing.T, root *model.Node) Input {
	t.Helper()
	return Input{
		Claims: []model.AtomicClaim{
			{Identifier: "E1", Text: "Alice swims", Symbol: "P1", OriginSpans: []model.Span{{Start: 0, End: 11}}},
			{Identifier: "E2", Text: "Bob runs", Symbol: "P2", OriginSpans: []model.Span{{Start: 13, End: 21}}},
		},
		Legend:             map[string]string{"P1": "Alice swims", "P2": "Bob runs"},
		CNF:                mustTransform(t, root),
		StageConfidences:   map[model.StageID]float64{model.StageReduce: 0.9, model.StageSymbolize: 0.8},
		CoverageThreshold:  0.9,
		ContradictionFloor: 0,
	}
}

func TestCheck_CleanResult(t *testing.T) {
	in := baseInput(t, logic.Implies(logic.Atom("P1"), logic.Atom("P2")))

	report, warnings, err := Check(in)
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if !report.SymbolCoverage || report.Contradiction {
		t.Errorf("unexpected report: %+v", report)
	}
	if report.ProvenanceCoverage != 1.0 {
		t.Errorf("coverage = %v, want 1.0", report.ProvenanceCoverage)
	}
	if report.Confidence != 0.8 {
		t.Errorf("confidence = %v, want the 0.8 minimum", report.Confidence)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
}

func TestCheck_UnknownSymbolIsFatal(t *testing.T) {
	in := baseInput(t, logic.Implies(logic.Atom("P1"), logic.Atom("P2")))
	delete(in.Legend, "P2")

	report, _, err := Check(in)
	if err == nil {
		t.Fatal("missing legend entry did not fail")
	}
	var vErr *model.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error type = %T", err)
	}
	if report.SymbolCoverage {
		t.Error("report still claims full symbol coverage")
	}
}

func TestCheck_ModalTokenResolvesThroughSubtree(t *testing.T) {
	in := baseInput(t, logic.And(
		logic.Modal(model.ModalityNecessity, logic.Atom("P1")),
		logic.Atom("P2"),
	))
	if _, _, err := Check(in); err != nil {
		t.Fatalf("modal token over known symbols failed: %v", err)
	}

	bad := baseInput(t, logic.And(
		logic.Modal(model.ModalityNecessity, logic.Atom("P1")),
		logic.Atom("P2"),
	))
	delete(bad.Legend, "P1")
	if _, _, err := Check(bad); err == nil {
		t.Error("modal token over an unknown symbol passed")
	}
}

func TestCheck_ComplementaryUnitsContradict(t *testing.T) {
	in := baseInput(t, logic.And(logic.Atom("P1"), logic.Not(logic.Atom("P1"))))

	report, warnings, err := Check(in)
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if !report.Contradiction {
		t.Fatal("complementary unit clauses not flagged")
	}
	if report.Confidence != 0 {
		t.Errorf("confidence = %v, want the floor", report.Confidence)
	}
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "contradiction") {
			found = true
		}
	}
	if !found {
		t.Errorf("no contradiction warning in %v", warnings)
	}
}

func TestCheck_TransformerContradictionPropagates(t *testing.T) {
	in := baseInput(t, logic.Or(logic.Atom("P1"), logic.Not(logic.Atom("P1"))))
	if !in.CNF.Contradiction {
		t.Fatal("precondition: transformer should have signaled")
	}

	report, _, err := Check(in)
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if !report.Contradiction || report.Confidence != 0 {
		t.Errorf("report = %+v", report)
	}
}

func TestCheck_CoverageWarning(t *testing.T) {
	in := baseInput(t, logic.Implies(logic.Atom("P1"), logic.Atom("P2")))
	in.Claims[1].OriginSpans = nil

	report, warnings, err := Check(in)
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if report.ProvenanceCoverage != 0.5 {
		t.Errorf("coverage = %v, want 0.5", report.ProvenanceCoverage)
	}
	if len(warnings) == 0 || !strings.Contains(warnings[0], "coverage") {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestCheck_CustomContradictionFloor(t *testing.T) {
	in := baseInput(t, logic.And(logic.Atom("P1"), logic.Not(logic.Atom("P1"))))
	in.ContradictionFloor = 0.1

	report, _, err := Check(in)
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if report.Confidence != 0.1 {
		t.Errorf("confidence = %v, want the configured floor", report.Confidence)
	}
}

func TestDescribe(t *testing.T) {
	out := Describe(model.ValidationReport{
		SymbolCoverage:     true,
		ProvenanceCoverage: 0.5,
		Confidence:         0.8,
		Issues:             []string{"something noted"},
	})
	if !strings.Contains(out, "provenance coverage: 0.50") || !strings.Contains(out, "- something noted") {
		t.Errorf("Describe() = %q", out)
	}
}
