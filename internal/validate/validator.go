// Package validate runs the pure post-transformation checks: symbol
// coverage, provenance coverage, contradiction detection and confidence
// aggregation. Every check is re-runnable on the same inputs.
package validate

import (
	"fmt"
	"strings"

	"github.com/formalhaus/formalis/internal/cnf"
	"github.com/formalhaus/formalis/internal/logic"
	"github.com/formalhaus/formalis/internal/model"
)

// Version identifies the validator revision in provenance records.
const Version = "1.0.0"

// Input bundles everything the checks read. All fields are read-only.
type Input struct {
	Claims             []model.AtomicClaim
	Legend             map[string]string
	CNF                *cnf.Result
	StageConfidences   map[model.StageID]float64
	CoverageThreshold  float64 // Warn below this provenance coverage ratio
	ContradictionFloor float64 // Confidence forced when a contradiction holds
}

// Check runs all validator rules and aggregates confidence. The returned
// error is non-nil only for symbol coverage failures, which are fatal;
// everything else lands in the report and warnings.
func Check(in Input) (model.ValidationReport, []string, error) {
	report := model.ValidationReport{SymbolCoverage: true}
	var warnings []string

	if err := checkSymbolCoverage(in.CNF, in.Legend); err != nil {
		report.SymbolCoverage = false
		return report, warnings, &model.ValidationError{Stage: model.StageValidate, Reason: err.Error()}
	}

	report.ProvenanceCoverage = provenanceCoverage(in.Claims)
	if report.ProvenanceCoverage < in.CoverageThreshold {
		w := fmt.Sprintf("provenance coverage %.2f below threshold %.2f", report.ProvenanceCoverage, in.CoverageThreshold)
		warnings = append(warnings, w)
		report.Issues = append(report.Issues, w)
	}

	if in.CNF.Contradiction {
		report.Contradiction = true
		report.Issues = append(report.Issues, "transformer signaled an empty clause")
	}
	if tok, ok := complementaryUnits(in.CNF); ok {
		report.Contradiction = true
		report.Issues = append(report.Issues, fmt.Sprintf("unit clauses %s and ¬%s cannot hold together", tok, tok))
	}
	if report.Contradiction {
		warnings = append(warnings, "contradiction detected in clause set")
	}

	if in.CNF.Tautology {
		report.Issues = append(report.Issues, "logical form is a trivial tautology")
		warnings = append(warnings, "statement carries no logical constraint")
	}

	report.Confidence = aggregateConfidence(in.StageConfidences)
	if report.Contradiction {
		report.Confidence = in.ContradictionFloor
	}
	return report, warnings, nil
}

// checkSymbolCoverage confirms every clause token resolves to a legend
// symbol; opaque modal tokens resolve through the atoms of their subtree.
func checkSymbolCoverage(res *cnf.Result, legend map[string]string) error {
	for ci, clause := range res.Clauses {
		for _, lit := range clause.Literals {
			if lit.Modal != nil {
				for _, sym := range logic.Atoms(lit.Modal) {
					if _, ok := legend[sym]; !ok {
						return fmt.Errorf("clause %d: modal token %s references unknown symbol %s", ci, lit.Token, sym)
					}
				}
				continue
			}
			if _, ok := legend[lit.Token]; !ok {
				return fmt.Errorf("clause %d: token %s not in legend", ci, lit.Token)
			}
		}
	}
	return nil
}

func provenanceCoverage(claims []model.AtomicClaim) float64 {
	if len(claims) == 0 {
		return 1.0
	}
	covered := 0
	for _, c := range claims {
		if len(c.OriginSpans) > 0 {
			covered++
		}
	}
	return float64(covered) / float64(len(claims))
}

// complementaryUnits looks for a unit clause pair asserting a token and
// its negation. Clause-level dedup keeps both since they differ in
// polarity; the formula-level contradiction is surfaced here.
func complementaryUnits(res *cnf.Result) (string, bool) {
	polarity := make(map[string]bool, len(res.Clauses))
	for _, clause := range res.Clauses {
		if len(clause.Literals) != 1 {
			continue
		}
		lit := clause.Literals[0]
		if neg, seen := polarity[lit.Token]; seen && neg != lit.Negated {
			return lit.Token, true
		}
		polarity[lit.Token] = lit.Negated
	}
	return "", false
}

// aggregateConfidence takes the minimum across contributing stages: one
// weak stage caps the whole result.
func aggregateConfidence(stages map[model.StageID]float64) float64 {
	if len(stages) == 0 {
		return 0
	}
	min := 1.0
	for _, c := range stages {
		if c < min {
			min = c
		}
	}
	return min
}

// Describe renders the report as a short human-readable block for logs
// and reports.
func Describe(r model.ValidationReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "symbol coverage: %v\n", r.SymbolCoverage)
	fmt.Fprintf(&b, "provenance coverage: %.2f\n", r.ProvenanceCoverage)
	fmt.Fprintf(&b, "contradiction: %v\n", r.Contradiction)
	fmt.Fprintf(&b, "confidence: %.2f", r.Confidence)
	for _, issue := range r.Issues {
		fmt.Fprintf(&b, "\n- %s", issue)
	}
	return b.String()
}
