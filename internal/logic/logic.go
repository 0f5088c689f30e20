// Package logic builds, inspects and renders logical form trees.
package logic

import (
	"strings"

	"github.com/formalhaus/formalis/internal/model"
)

// Atom returns a leaf node referencing a legend symbol.
func Atom(symbol string) *model.Node {
	return &model.Node{Kind: model.NodeAtom, Symbol: symbol}
}

// Not negates a node.
func Not(child *model.Node) *model.Node {
	return &model.Node{Kind: model.NodeNot, Children: []*model.Node{child}}
}

// And conjoins two or more nodes.
func And(children ...*model.Node) *model.Node {
	return &model.Node{Kind: model.NodeAnd, Children: children}
}

// Or disjoins two or more nodes.
func Or(children ...*model.Node) *model.Node {
	return &model.Node{Kind: model.NodeOr, Children: children}
}

// Implies builds a material implication.
func Implies(antecedent, consequent *model.Node) *model.Node {
	return &model.Node{Kind: model.NodeImplies, Children: []*model.Node{antecedent, consequent}}
}

// Iff builds a biconditional.
func Iff(left, right *model.Node) *model.Node {
	return &model.Node{Kind: model.NodeIff, Children: []*model.Node{left, right}}
}

// Modal wraps a node in a modal operator.
func Modal(op model.Modality, child *model.Node) *model.Node {
	return &model.Node{Kind: model.NodeModal, Op: op, Children: []*model.Node{child}}
}

// Clone deep-copies a tree.
func Clone(n *model.Node) *model.Node {
	if n == nil {
		return nil
	}
	out := &model.Node{Kind: n.Kind, Symbol: n.Symbol, Op: n.Op}
	if len(n.Children) > 0 {
		out.Children = make([]*model.Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = Clone(c)
		}
	}
	return out
}

// Equal reports structural equality of two trees.
func Equal(a, b *model.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Symbol != b.Symbol || a.Op != b.Op || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// Atoms returns the distinct atom symbols of a tree in first-appearance
// order, descending into modal subtrees.
func Atoms(n *model.Node) []string {
	var out []string
	seen := make(map[string]bool)
	var walk func(*model.Node)
	walk = func(n *model.Node) {
		if n == nil {
			return
		}
		if n.Kind == model.NodeAtom {
			if !seen[n.Symbol] {
				seen[n.Symbol] = true
				out = append(out, n.Symbol)
			}
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(n)
	return out
}

// Render returns the conventional notation for a tree: ¬ ∧ ∨ → ↔ with the
// modal glyphs, binary and n-ary operators parenthesized.
func Render(n *model.Node) string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case model.NodeAtom:
		return n.Symbol
	case model.NodeNot:
		child := Render(n.Children[0])
		if needsParens(n.Children[0]) {
			return "¬(" + child + ")"
		}
		return "¬" + child
	case model.NodeAnd:
		return "(" + joinRendered(n.Children, " ∧ ") + ")"
	case model.NodeOr:
		return "(" + joinRendered(n.Children, " ∨ ") + ")"
	case model.NodeImplies:
		return "(" + Render(n.Children[0]) + " → " + Render(n.Children[1]) + ")"
	case model.NodeIff:
		return "(" + Render(n.Children[0]) + " ↔ " + Render(n.Children[1]) + ")"
	case model.NodeModal:
		inner := Render(n.Children[0])
		if !strings.HasPrefix(inner, "(") {
			inner = "(" + inner + ")"
		}
		return n.Op.Glyph() + inner
	default:
		return "?"
	}
}

func joinRendered(children []*model.Node, sep string) string {
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = Render(c)
	}
	return strings.Join(parts, sep)
}

func needsParens(n *model.Node) bool {
	switch n.Kind {
	case model.NodeAtom, model.NodeModal, model.NodeNot:
		return false
	default:
		return true
	}
}
