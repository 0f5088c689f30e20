package cnf

import (
	"reflect"
	"strings"
	"testing"

	"github.com/formalhaus/formalis/internal/logic"
	"github.com/formalhaus/formalis/internal/model"
)

func clauseStrings(res *Result) [][]string {
	out := make([][]string, len(res.Clauses))
	for i, c := range res.Clauses {
		out[i] = c.Strings()
	}
	return out
}

func TestTransform_Basic(t *testing.T) {
	tests := []struct {
		name         string
		root         *model.Node
		wantClauses  [][]string
		wantRendered string
	}{
		{
			"single atom",
			logic.Atom("P1"),
			[][]string{{"P1"}},
			"P1",
		},
		{
			"implication",
			logic.Implies(logic.Atom("P1"), logic.Atom("P2")),
			[][]string{{"¬P1", "P2"}},
			"¬P1 ∨ P2",
		},
		{
			"double negation",
			logic.Not(logic.Not(logic.Atom("P1"))),
			[][]string{{"P1"}},
			"P1",
		},
		{
			"de morgan over conjunction",
			logic.Not(logic.And(logic.Atom("P1"), logic.Atom("P2"))),
			[][]string{{"¬P1", "¬P2"}},
			"¬P1 ∨ ¬P2",
		},
		{
			"biconditional",
			logic.Iff(logic.Atom("P1"), logic.Atom("P2")),
			[][]string{{"¬P1", "P2"}, {"¬P2", "P1"}},
			"(¬P1 ∨ P2) ∧ (¬P2 ∨ P1)",
		},
		{
			"distribution",
			logic.Or(logic.Atom("P1"), logic.And(logic.Atom("P2"), logic.Atom("P3"))),
			[][]string{{"P1", "P2"}, {"P1", "P3"}},
			"(P1 ∨ P2) ∧ (P1 ∨ P3)",
		},
		{
			"duplicate clauses collapse",
			logic.And(logic.Or(logic.Atom("P1"), logic.Atom("P2")), logic.Or(logic.Atom("P2"), logic.Atom("P1"))),
			[][]string{{"P1", "P2"}},
			"P1 ∨ P2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Transform(tt.root, 512)
			if err != nil {
				t.Fatalf("Transform() error: %v", err)
			}
			if got := clauseStrings(res); !reflect.DeepEqual(got, tt.wantClauses) {
				t.Errorf("clauses = %v, want %v", got, tt.wantClauses)
			}
			if res.Rendered != tt.wantRendered {
				t.Errorf("rendered = %q, want %q", res.Rendered, tt.wantRendered)
			}
		})
	}
}

func TestTransform_ModalOpacity(t *testing.T) {
	// A negation in front of a modal operator must stay outside it.
	neg := logic.Not(logic.Modal(model.ModalityNecessity, logic.Atom("P1")))
	res, err := Transform(neg, 512)
	if err != nil {
		t.Fatalf("Transform() error: %v", err)
	}
	want := [][]string{{"¬□(P1)"}}
	if got := clauseStrings(res); !reflect.DeepEqual(got, want) {
		t.Errorf("clauses = %v, want %v", got, want)
	}
	if res.Clauses[0].Literals[0].Modal == nil {
		t.Error("modal literal lost its subtree")
	}

	// A compound inside a modal operator must not be decomposed.
	tree := logic.And(
		logic.Modal(model.ModalityNecessity, logic.Or(logic.Atom("P1"), logic.Atom("P2"))),
		logic.Atom("P3"),
	)
	res, err = Transform(tree, 512)
	if err != nil {
		t.Fatalf("Transform() error: %v", err)
	}
	want = [][]string{{"□(P1 ∨ P2)"}, {"P3"}}
	if got := clauseStrings(res); !reflect.DeepEqual(got, want) {
		t.Errorf("clauses = %v, want %v", got, want)
	}
}

func TestTransform_ComplementaryUnitClausesKept(t *testing.T) {
	// P1 and not-P1 in separate clauses is a formula-level contradiction,
	// which is the validator's call, not the transformer's.
	tree := logic.And(logic.Atom("P1"), logic.Not(logic.Atom("P1")))
	res, err := Transform(tree, 512)
	if err != nil {
		t.Fatalf("Transform() error: %v", err)
	}
	want := [][]string{{"P1"}, {"¬P1"}}
	if got := clauseStrings(res); !reflect.DeepEqual(got, want) {
		t.Errorf("clauses = %v, want %v", got, want)
	}
	if res.Contradiction {
		t.Error("transformer flagged a contradiction for separate unit clauses")
	}
}

func TestTransform_EmptyClauseContradiction(t *testing.T) {
	// A clause whose only content is a complementary pair collapses to the
	// empty set and must be flagged by the transformer itself.
	tree := logic.Or(logic.Atom("P1"), logic.Not(logic.Atom("P1")))
	res, err := Transform(tree, 512)
	if err != nil {
		t.Fatalf("Transform() error: %v", err)
	}
	if !res.Contradiction {
		t.Fatal("expected a contradiction signal")
	}
	if len(res.Clauses) != 1 || len(res.Clauses[0].Literals) != 0 {
		t.Errorf("expected a single empty clause, got %v", clauseStrings(res))
	}
	if res.Rendered != "⊥" {
		t.Errorf("rendered = %q, want bottom", res.Rendered)
	}
	if len(res.Warnings) == 0 {
		t.Error("expected a warning describing the empty clause")
	}
}

func TestTransform_TautologicalClauseDropped(t *testing.T) {
	// The pair plus an extra literal makes the clause tautological; it is
	// dropped with a warning rather than flagged as a contradiction.
	tree := logic.And(
		logic.Or(logic.Atom("P1"), logic.Not(logic.Atom("P1")), logic.Atom("P2")),
		logic.Atom("P3"),
	)
	res, err := Transform(tree, 512)
	if err != nil {
		t.Fatalf("Transform() error: %v", err)
	}
	want := [][]string{{"P3"}}
	if got := clauseStrings(res); !reflect.DeepEqual(got, want) {
		t.Errorf("clauses = %v, want %v", got, want)
	}
	if res.Contradiction {
		t.Error("tautological clause was misread as a contradiction")
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "tautological") {
			found = true
		}
	}
	if !found {
		t.Errorf("no tautology warning in %v", res.Warnings)
	}
}

func TestTransform_AllClausesDroppedIsTautology(t *testing.T) {
	tree := logic.Or(logic.Atom("P1"), logic.Not(logic.Atom("P1")), logic.Atom("P2"))
	res, err := Transform(tree, 512)
	if err != nil {
		t.Fatalf("Transform() error: %v", err)
	}
	if !res.Tautology {
		t.Error("expected the tautology flag")
	}
	if res.Rendered != "⊤" {
		t.Errorf("rendered = %q, want top", res.Rendered)
	}
	if len(res.Clauses) != 0 {
		t.Errorf("expected no clauses, got %v", clauseStrings(res))
	}
}

func TestTransform_ClauseCeiling(t *testing.T) {
	// (P1 and P2) or (P3 and P4) or (P5 and P6) expands to 8 clauses.
	tree := logic.Or(
		logic.And(logic.Atom("P1"), logic.Atom("P2")),
		logic.And(logic.Atom("P3"), logic.Atom("P4")),
		logic.And(logic.Atom("P5"), logic.Atom("P6")),
	)

	res, err := Transform(tree, 4)
	if err != nil {
		t.Fatalf("Transform() error: %v", err)
	}
	if !res.Truncated {
		t.Fatal("expected truncation at ceiling 4")
	}
	if len(res.Clauses) != 0 {
		t.Error("truncated result still carries clauses")
	}
	if res.Unexpanded == "" || res.Rendered != res.Unexpanded {
		t.Error("truncated result must report the implication-free form")
	}
	if len(res.Warnings) == 0 || !strings.Contains(res.Warnings[0], "ceiling") {
		t.Errorf("missing ceiling warning: %v", res.Warnings)
	}

	// The same tree fits under a generous ceiling.
	res, err = Transform(tree, 512)
	if err != nil {
		t.Fatalf("Transform() error: %v", err)
	}
	if res.Truncated || len(res.Clauses) != 8 {
		t.Errorf("expected 8 clauses under ceiling 512, got %d", len(res.Clauses))
	}
}

func evalNode(n *model.Node, env map[string]bool) bool {
	switch n.Kind {
	case model.NodeAtom:
		return env[n.Symbol]
	case model.NodeNot:
		return !evalNode(n.Children[0], env)
	case model.NodeAnd:
		for _, c := range n.Children {
			if !evalNode(c, env) {
				return false
			}
		}
		return true
	case model.NodeOr:
		for _, c := range n.Children {
			if evalNode(c, env) {
				return true
			}
		}
		return false
	case model.NodeImplies:
		return !evalNode(n.Children[0], env) || evalNode(n.Children[1], env)
	case model.NodeIff:
		return evalNode(n.Children[0], env) == evalNode(n.Children[1], env)
	}
	return false
}

func evalClauses(clauses []Clause, env map[string]bool) bool {
	for _, c := range clauses {
		sat := false
		for _, l := range c.Literals {
			if env[l.Token] != l.Negated {
				sat = true
				break
			}
		}
		if !sat {
			return false
		}
	}
	return true
}

func TestTransform_TruthEquivalence(t *testing.T) {
	trees := []*model.Node{
		logic.Implies(logic.Atom("P1"), logic.Atom("P2")),
		logic.Iff(logic.Atom("P1"), logic.Atom("P2")),
		logic.Not(logic.And(logic.Atom("P1"), logic.Or(logic.Atom("P2"), logic.Atom("P3")))),
		logic.Or(logic.And(logic.Atom("P1"), logic.Atom("P2")), logic.And(logic.Atom("P3"), logic.Atom("P4"))),
		logic.Implies(logic.And(logic.Atom("P1"), logic.Atom("P2")), logic.Or(logic.Atom("P3"), logic.Not(logic.Atom("P4")))),
		logic.Not(logic.Or(logic.Atom("P1"), logic.And(logic.Atom("P2"), logic.Not(logic.Atom("P3"))))),
		logic.Iff(logic.Atom("P1"), logic.And(logic.Atom("P2"), logic.Atom("P3"))),
		logic.Or(logic.Atom("P1"), logic.And(logic.Atom("P2"), logic.Or(logic.Atom("P3"), logic.And(logic.Atom("P4"), logic.Atom("P5"))))),
		logic.And(
			logic.Implies(logic.Atom("P1"), logic.Atom("P2")),
			logic.Implies(logic.Atom("P2"), logic.Atom("P3")),
			logic.Or(logic.Atom("P4"), logic.Atom("P5"), logic.Atom("P6")),
		),
	}

	for i, tree := range trees {
		res, err := Transform(tree, 512)
		if err != nil {
			t.Fatalf("tree %d: Transform() error: %v", i, err)
		}
		if res.Truncated || res.Contradiction {
			t.Fatalf("tree %d: unexpected truncation or contradiction", i)
		}

		atoms := logic.Atoms(tree)
		if len(atoms) > 6 {
			t.Fatalf("tree %d: %d atoms exceeds the brute-force bound", i, len(atoms))
		}
		for mask := 0; mask < 1<<len(atoms); mask++ {
			env := make(map[string]bool, len(atoms))
			for bit, sym := range atoms {
				env[sym] = mask&(1<<bit) != 0
			}
			if evalNode(tree, env) != evalClauses(res.Clauses, env) {
				t.Errorf("tree %d: truth tables diverge under %v\nclauses: %v", i, env, clauseStrings(res))
				break
			}
		}
	}
}

func rebuildFromClauses(clauses []Clause) *model.Node {
	clauseNode := func(c Clause) *model.Node {
		nodes := make([]*model.Node, len(c.Literals))
		for i, l := range c.Literals {
			n := logic.Atom(l.Token)
			if l.Negated {
				n = logic.Not(n)
			}
			nodes[i] = n
		}
		if len(nodes) == 1 {
			return nodes[0]
		}
		return logic.Or(nodes...)
	}
	if len(clauses) == 1 {
		return clauseNode(clauses[0])
	}
	nodes := make([]*model.Node, len(clauses))
	for i, c := range clauses {
		nodes[i] = clauseNode(c)
	}
	return logic.And(nodes...)
}

func TestTransform_Idempotent(t *testing.T) {
	tree := logic.Iff(logic.Atom("P1"), logic.And(logic.Atom("P2"), logic.Atom("P3")))

	first, err := Transform(tree, 512)
	if err != nil {
		t.Fatalf("first Transform() error: %v", err)
	}
	second, err := Transform(rebuildFromClauses(first.Clauses), 512)
	if err != nil {
		t.Fatalf("second Transform() error: %v", err)
	}

	if !reflect.DeepEqual(clauseStrings(first), clauseStrings(second)) {
		t.Errorf("clause sets differ:\nfirst:  %v\nsecond: %v", clauseStrings(first), clauseStrings(second))
	}
	if first.Rendered != second.Rendered {
		t.Errorf("rendered forms differ: %q vs %q", first.Rendered, second.Rendered)
	}
}

func TestTransform_ClauseTokens(t *testing.T) {
	tree := logic.And(
		logic.Or(logic.Atom("P1"), logic.Not(logic.Atom("P2"))),
		logic.Modal(model.ModalityPossibility, logic.Atom("P3")),
	)
	res, err := Transform(tree, 512)
	if err != nil {
		t.Fatalf("Transform() error: %v", err)
	}
	want := [][]string{{"P1", "P2"}, {"◇(P3)"}}
	if !reflect.DeepEqual(res.ClauseTokens, want) {
		t.Errorf("ClauseTokens = %v, want %v", res.ClauseTokens, want)
	}
}

func TestTransform_MalformedTree(t *testing.T) {
	if _, err := Transform(nil, 512); err == nil {
		t.Error("nil root did not error")
	}
	bad := &model.Node{Kind: model.NodeImplies, Children: []*model.Node{logic.Atom("P1")}}
	if _, err := Transform(bad, 512); err == nil {
		t.Error("unary implication did not error")
	}
}
