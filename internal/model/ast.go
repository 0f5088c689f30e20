package model

// NodeKind enumerates the node kinds of a logical form tree
type NodeKind string

const (
	NodeAtom    NodeKind = "atom"    // Leaf referencing a legend symbol
	NodeNot     NodeKind = "not"     // Negation, exactly one child
	NodeAnd     NodeKind = "and"     // Conjunction, two or more children
	NodeOr      NodeKind = "or"      // Disjunction, two or more children
	NodeImplies NodeKind = "implies" // Material implication, exactly two children
	NodeIff     NodeKind = "iff"     // Biconditional, exactly two children
	NodeModal   NodeKind = "modal"   // Modal operator over exactly one child
)

// Node is one node of a logical form tree. The tree is the interchange
// shape between symbolization, normalization and validation, so it is a
// plain tagged struct that round-trips through JSON unchanged.
type Node struct {
	Kind     NodeKind `json:"kind"`
	Symbol   string   `json:"symbol,omitempty"`   // Set when Kind == NodeAtom
	Op       Modality `json:"op,omitempty"`       // Set when Kind == NodeModal
	Children []*Node  `json:"children,omitempty"` // Operands, arity fixed per kind
}

// LogicalForm is one candidate reading of the input as a logical form tree.
type LogicalForm struct {
	Root       *Node   `json:"root"`       // The tree itself
	Notation   string  `json:"notation"`   // Human-readable rendering of the tree
	Confidence float64 `json:"confidence"` // Candidate confidence in [0, 1]
	Source     string  `json:"source"`     // "adapter", "deterministic" or "fallback"
}
