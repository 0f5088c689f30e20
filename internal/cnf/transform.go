// Package cnf converts logical form trees into conjunctive normal form.
//
// Modal subtrees are opaque throughout: they ride through elimination,
// negation pushing and distribution as single literals and are never
// decomposed. A negation meeting a modal operator stays outside it.
package cnf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/formalhaus/formalis/internal/logic"
	"github.com/formalhaus/formalis/internal/model"
)

// Version identifies the transformer revision in provenance records.
const Version = "1.0.0"

// Result is the outcome of one transformation.
type Result struct {
	Clauses       []Clause   // Conjoined clauses in production order
	ClauseTokens  [][]string // Distinct tokens per clause, index-aligned with Clauses
	Rendered      string     // Surface form of the whole CNF
	Truncated     bool       // Clause ceiling was hit; Clauses is empty
	Unexpanded    string     // Implication-free form reported when truncated
	Contradiction bool       // Some clause simplified to the empty set
	Tautology     bool       // Every clause was dropped; the form is vacuously true
	Warnings      []string
}

var errClauseCeiling = errors.New("clause ceiling exceeded")

// Transform rewrites root into CNF: biconditionals become conjoined
// implications, implications become disjunctions, negation is pushed down
// to literals, then disjunctions distribute over conjunctions under a
// clause ceiling. Hitting the ceiling is not an error; the result then
// carries the implication-free form and a warning instead of clauses.
func Transform(root *model.Node, maxClauses int) (*Result, error) {
	if err := logic.Check(root, nil); err != nil {
		return nil, fmt.Errorf("malformed logical form: %w", err)
	}

	res := &Result{}

	tree := eliminateIff(logic.Clone(root))
	tree = eliminateImplies(tree)
	tree = pushNegation(tree, false)

	clauses, err := clausesOf(tree, maxClauses)
	if err != nil {
		res.Truncated = true
		res.Unexpanded = logic.Render(tree)
		res.Rendered = res.Unexpanded
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("clause ceiling %d exceeded during distribution; reporting the implication-free form without clause expansion", maxClauses))
		return res, nil
	}

	res.simplify(clauses)
	res.Rendered = renderClauses(res.Clauses)
	for _, c := range res.Clauses {
		res.ClauseTokens = append(res.ClauseTokens, c.Tokens())
	}
	return res, nil
}

// eliminateIff rewrites IFF(a, b) into AND(IMPLIES(a, b), IMPLIES(b, a))
// across the whole tree, modal subtrees excepted.
func eliminateIff(n *model.Node) *model.Node {
	if n == nil || n.Kind == model.NodeModal {
		return n
	}
	for i, c := range n.Children {
		n.Children[i] = eliminateIff(c)
	}
	if n.Kind == model.NodeIff {
		a, b := n.Children[0], n.Children[1]
		return logic.And(
			logic.Implies(a, b),
			logic.Implies(logic.Clone(b), logic.Clone(a)),
		)
	}
	return n
}

// eliminateImplies rewrites IMPLIES(a, b) into OR(NOT(a), b) across the
// whole tree, modal subtrees excepted.
func eliminateImplies(n *model.Node) *model.Node {
	if n == nil || n.Kind == model.NodeModal {
		return n
	}
	for i, c := range n.Children {
		n.Children[i] = eliminateImplies(c)
	}
	if n.Kind == model.NodeImplies {
		return logic.Or(logic.Not(n.Children[0]), n.Children[1])
	}
	return n
}

// pushNegation drives negation down to atoms and modal tokens, applying
// De Morgan and collapsing double negation along the way.
func pushNegation(n *model.Node, negated bool) *model.Node {
	switch n.Kind {
	case model.NodeAtom, model.NodeModal:
		if negated {
			return logic.Not(n)
		}
		return n
	case model.NodeNot:
		return pushNegation(n.Children[0], !negated)
	case model.NodeAnd, model.NodeOr:
		children := make([]*model.Node, len(n.Children))
		for i, c := range n.Children {
			children[i] = pushNegation(c, negated)
		}
		if (n.Kind == model.NodeAnd) != negated {
			return logic.And(children...)
		}
		return logic.Or(children...)
	default:
		// implies and iff are gone by the time negation is pushed
		return n
	}
}

// clausesOf lowers a negation normal form tree into clauses, enforcing
// the ceiling while disjunctions distribute over conjunctions.
func clausesOf(n *model.Node, limit int) ([]Clause, error) {
	if lit, ok := literalOf(n); ok {
		c := Clause{}
		c.add(lit)
		return []Clause{c}, nil
	}

	switch n.Kind {
	case model.NodeAnd:
		var out []Clause
		for _, child := range n.Children {
			sub, err := clausesOf(child, limit)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			if len(out) > limit {
				return nil, errClauseCeiling
			}
		}
		return out, nil

	case model.NodeOr:
		acc := []Clause{{}}
		for _, child := range n.Children {
			sub, err := clausesOf(child, limit)
			if err != nil {
				return nil, err
			}
			if len(acc)*len(sub) > limit {
				return nil, errClauseCeiling
			}
			next := make([]Clause, 0, len(acc)*len(sub))
			for _, a := range acc {
				for _, b := range sub {
					next = append(next, mergeClauses(a, b))
				}
			}
			acc = next
		}
		return acc, nil

	default:
		return nil, fmt.Errorf("unexpected %s node after normalization", n.Kind)
	}
}

func literalOf(n *model.Node) (Literal, bool) {
	switch n.Kind {
	case model.NodeAtom:
		return Literal{Token: n.Symbol}, true
	case model.NodeModal:
		return Literal{Token: logic.Render(n), Modal: n}, true
	case model.NodeNot:
		child := n.Children[0]
		switch child.Kind {
		case model.NodeAtom:
			return Literal{Negated: true, Token: child.Symbol}, true
		case model.NodeModal:
			return Literal{Negated: true, Token: logic.Render(child), Modal: child}, true
		}
	}
	return Literal{}, false
}

func mergeClauses(a, b Clause) Clause {
	var out Clause
	for _, l := range a.Literals {
		out.add(l)
	}
	for _, l := range b.Literals {
		out.add(l)
	}
	return out
}

// simplify drops tautological clauses, deduplicates equal ones, and flags
// a contradiction when a clause's only content was a complementary pair.
func (r *Result) simplify(clauses []Clause) {
	seen := make(map[string]bool)
	emptyKept := false
	for _, c := range clauses {
		if hasComplementaryPair(c) {
			if len(c.Literals) == 2 {
				r.Contradiction = true
				r.Warnings = append(r.Warnings,
					fmt.Sprintf("contradiction: clause %s simplified to the empty set", c.render()))
				if !emptyKept {
					r.Clauses = append(r.Clauses, Clause{})
					emptyKept = true
				}
				continue
			}
			r.Warnings = append(r.Warnings,
				fmt.Sprintf("dropped tautological clause %s", c.render()))
			continue
		}
		if seen[c.key()] {
			continue
		}
		seen[c.key()] = true
		r.Clauses = append(r.Clauses, c)
	}
	if len(r.Clauses) == 0 {
		r.Tautology = true
	}
}

func hasComplementaryPair(c Clause) bool {
	for i, a := range c.Literals {
		for _, b := range c.Literals[i+1:] {
			if a.complements(b) {
				return true
			}
		}
	}
	return false
}

func renderClauses(clauses []Clause) string {
	if len(clauses) == 0 {
		return "⊤"
	}
	multi := len(clauses) > 1
	parts := make([]string, len(clauses))
	for i, c := range clauses {
		s := c.render()
		if multi && len(c.Literals) > 1 {
			s = "(" + s + ")"
		}
		parts[i] = s
	}
	return strings.Join(parts, " ∧ ")
}
