package cnf

import (
	"sort"
	"strings"

	"github.com/formalhaus/formalis/internal/model"
)

// Literal is one disjunct of a clause: a possibly negated atom, or an
// opaque modal subtree carried as a single token.
type Literal struct {
	Negated bool
	Token   string      // Legend symbol, or the rendered modal subtree
	Modal   *model.Node // Set when the literal wraps a modal subtree
}

// String renders the literal, prefixing the negation sign when set.
func (l Literal) String() string {
	if l.Negated {
		return "¬" + l.Token
	}
	return l.Token
}

// complements reports whether two literals are exact negations of each other.
func (l Literal) complements(other Literal) bool {
	return l.Token == other.Token && l.Negated != other.Negated
}

// Clause is a disjunction of literals. Literals stay in first-appearance
// order; duplicates are merged on add.
type Clause struct {
	Literals []Literal
}

func (c *Clause) add(l Literal) {
	for _, have := range c.Literals {
		if have.Negated == l.Negated && have.Token == l.Token {
			return
		}
	}
	c.Literals = append(c.Literals, l)
}

// Strings renders each literal in order.
func (c Clause) Strings() []string {
	out := make([]string, len(c.Literals))
	for i, l := range c.Literals {
		out[i] = l.String()
	}
	return out
}

// Tokens returns the distinct tokens the clause mentions, in order.
func (c Clause) Tokens() []string {
	var out []string
	seen := make(map[string]bool)
	for _, l := range c.Literals {
		if !seen[l.Token] {
			seen[l.Token] = true
			out = append(out, l.Token)
		}
	}
	return out
}

// key returns an order-independent identity for set-level deduplication.
func (c Clause) key() string {
	parts := c.Strings()
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

// render produces the clause's surface form. Parenthesization is the
// caller's business since it depends on how many clauses surround it.
func (c Clause) render() string {
	if len(c.Literals) == 0 {
		return "⊥"
	}
	return strings.Join(c.Strings(), " ∨ ")
}
