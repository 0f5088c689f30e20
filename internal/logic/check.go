package logic

import (
	"fmt"

	"github.com/formalhaus/formalis/internal/model"
)

// Check verifies that a tree is structurally well formed and that every
// atom resolves through known. Trees that fail are discarded by callers,
// never repaired.
func Check(n *model.Node, known func(symbol string) bool) error {
	if n == nil {
		return fmt.Errorf("nil node")
	}
	switch n.Kind {
	case model.NodeAtom:
		if n.Symbol == "" {
			return fmt.Errorf("atom with empty symbol")
		}
		if len(n.Children) != 0 {
			return fmt.Errorf("atom %s with children", n.Symbol)
		}
		if known != nil && !known(n.Symbol) {
			return fmt.Errorf("atom references unknown symbol %s", n.Symbol)
		}
		return nil
	case model.NodeNot:
		if len(n.Children) != 1 {
			return fmt.Errorf("not with %d children", len(n.Children))
		}
	case model.NodeAnd, model.NodeOr:
		if len(n.Children) < 2 {
			return fmt.Errorf("%s with %d children", n.Kind, len(n.Children))
		}
	case model.NodeImplies, model.NodeIff:
		if len(n.Children) != 2 {
			return fmt.Errorf("%s with %d children", n.Kind, len(n.Children))
		}
	case model.NodeModal:
		if len(n.Children) != 1 {
			return fmt.Errorf("modal with %d children", len(n.Children))
		}
		if n.Op != model.ModalityNecessity && n.Op != model.ModalityPossibility {
			return fmt.Errorf("modal with operator %q", n.Op)
		}
	default:
		return fmt.Errorf("unknown node kind %q", n.Kind)
	}
	for _, c := range n.Children {
		if err := Check(c, known); err != nil {
			return err
		}
	}
	return nil
}
