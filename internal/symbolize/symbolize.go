// Package symbolize binds legend symbols to claims and screens candidate
// logical forms.
package symbolize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/formalhaus/formalis/internal/logic"
	"github.com/formalhaus/formalis/internal/model"
	"github.com/formalhaus/formalis/internal/preprocess"
)

// Version identifies the symbolizer revision in provenance records.
const Version = "1.0.0"

// FallbackConfidence is assigned to the flat-conjunction reading.
const FallbackConfidence = 0.5

// Output is the symbolization payload handed to the transformer.
type Output struct {
	Legend     map[string]string
	Candidates []model.LogicalForm
	Chosen     *model.LogicalForm
}

// Assign binds P{n} to each claim in emission order, mutating the claims,
// and returns the legend. The binding is bijective by construction: one
// fresh symbol per claim, one claim text per symbol.
func Assign(claims []model.AtomicClaim) map[string]string {
	legend := make(map[string]string, len(claims))
	for i := range claims {
		sym := fmt.Sprintf("P%d", i+1)
		claims[i].Symbol = sym
		legend[sym] = claims[i].Text
	}
	return legend
}

// VerifyBijection confirms that claims and legend still form an exact
// one-to-one binding. The orchestrator treats a failure here as fatal.
func VerifyBijection(claims []model.AtomicClaim, legend map[string]string) error {
	if len(legend) != len(claims) {
		return fmt.Errorf("legend has %d entries for %d claims", len(legend), len(claims))
	}
	for i, c := range claims {
		want := fmt.Sprintf("P%d", i+1)
		if c.Symbol != want {
			return fmt.Errorf("claim %s bound to %q, want %q", c.Identifier, c.Symbol, want)
		}
		text, ok := legend[c.Symbol]
		if !ok {
			return fmt.Errorf("symbol %s missing from legend", c.Symbol)
		}
		if text != c.Text {
			return fmt.Errorf("legend text for %s does not match claim %s", c.Symbol, c.Identifier)
		}
	}
	return nil
}

// RawCandidate is one adapter-suggested logical form before screening.
type RawCandidate struct {
	Root       *model.Node `json:"root"`
	Confidence float64     `json:"confidence"`
}

// CandidatePayload is the adapter's symbolization response shape.
type CandidatePayload struct {
	Candidates []RawCandidate `json:"candidates"`
	Confidence float64        `json:"confidence"`
}

// Screen validates raw candidates structurally (arities, atoms resolve to
// legend symbols) and semantically (no atom may reference a symbol past
// the defined claims). Invalid candidates are discarded with a reason,
// never repaired. Valid ones come back in input order.
func Screen(raw []RawCandidate, legend map[string]string, claimCount int) ([]model.LogicalForm, []string) {
	known := func(sym string) bool {
		_, ok := legend[sym]
		return ok
	}

	var valid []model.LogicalForm
	var rejected []string
	for i, rc := range raw {
		if err := logic.Check(rc.Root, known); err != nil {
			rejected = append(rejected, fmt.Sprintf("candidate %d: %v", i, err))
			continue
		}
		if err := checkSymbolOrder(rc.Root, claimCount); err != nil {
			rejected = append(rejected, fmt.Sprintf("candidate %d: %v", i, err))
			continue
		}
		if rc.Confidence < 0 || rc.Confidence > 1 {
			rejected = append(rejected, fmt.Sprintf("candidate %d: confidence %v out of range", i, rc.Confidence))
			continue
		}
		valid = append(valid, model.LogicalForm{
			Root:       rc.Root,
			Notation:   logic.Render(rc.Root),
			Confidence: rc.Confidence,
			Source:     "adapter",
		})
	}
	return valid, rejected
}

// checkSymbolOrder rejects references to symbols whose defining claim
// does not exist yet: P{i} is only meaningful for i up to the claim count.
func checkSymbolOrder(n *model.Node, claimCount int) error {
	for _, sym := range logic.Atoms(n) {
		idx, err := symbolIndex(sym)
		if err != nil {
			return err
		}
		if idx < 1 || idx > claimCount {
			return fmt.Errorf("symbol %s referenced before its defining claim exists", sym)
		}
	}
	return nil
}

func symbolIndex(sym string) (int, error) {
	if !strings.HasPrefix(sym, "P") {
		return 0, fmt.Errorf("symbol %q is not of the form P{n}", sym)
	}
	idx, err := strconv.Atoi(sym[1:])
	if err != nil {
		return 0, fmt.Errorf("symbol %q is not of the form P{n}", sym)
	}
	return idx, nil
}

// Fallback returns the flat conjunction over all claim symbols. This is
// the reading of last resort; callers flag it with default_conjunction.
func Fallback(claims []model.AtomicClaim) model.LogicalForm {
	nodes := make([]*model.Node, len(claims))
	for i, c := range claims {
		nodes[i] = logic.Atom(c.Symbol)
	}
	var root *model.Node
	if len(nodes) == 1 {
		root = nodes[0]
	} else {
		root = logic.And(nodes...)
	}
	return model.LogicalForm{
		Root:       root,
		Notation:   logic.Render(root),
		Confidence: FallbackConfidence,
		Source:     "fallback",
	}
}

// Choose picks the highest-confidence candidate; ties go to the earliest.
func Choose(cands []model.LogicalForm) *model.LogicalForm {
	if len(cands) == 0 {
		return nil
	}
	best := 0
	for i := 1; i < len(cands); i++ {
		if cands[i].Confidence > cands[best].Confidence {
			best = i
		}
	}
	return &cands[best]
}

// BuildDeterministicCandidate derives a logical form from surface
// structure alone: a two-claim conditional sentence becomes an
// implication, modal-tagged claims are wrapped in their operator, and
// anything else conjoins. Both the mock adapter and tests lean on this
// being a pure function of the preprocessed input.
func BuildDeterministicCandidate(pre *preprocess.Result, claims []model.AtomicClaim) *model.Node {
	if len(claims) == 0 {
		return nil
	}
	wrap := func(c model.AtomicClaim) *model.Node {
		atom := logic.Atom(c.Symbol)
		if c.ModalContext != model.ModalityNone {
			return logic.Modal(c.ModalContext, atom)
		}
		return atom
	}

	if len(claims) == 2 && isConditional(pre) {
		return logic.Implies(wrap(claims[0]), wrap(claims[1]))
	}
	if len(claims) == 1 {
		return wrap(claims[0])
	}
	nodes := make([]*model.Node, len(claims))
	for i, c := range claims {
		nodes[i] = wrap(c)
	}
	return logic.And(nodes...)
}

// isConditional reports whether the statement opens with a conditional
// marker that precedes the first clause span.
func isConditional(pre *preprocess.Result) bool {
	if len(pre.Clauses) == 0 {
		return false
	}
	for _, a := range pre.Annotations {
		if a.Kind == preprocess.MarkerConditionalIntro && a.Span.End <= pre.Clauses[0].Span.Start {
			return true
		}
	}
	return false
}
