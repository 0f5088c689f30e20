// Package reduce carves annotated clause spans into atomic claims with
// stable E/R identifiers.
package reduce

import (
	"fmt"
	"sort"
	"strings"

	"github.com/formalhaus/formalis/internal/model"
	"github.com/formalhaus/formalis/internal/preprocess"
)

// Version identifies the reducer revision in provenance records.
const Version = "1.0.0"

// Hints carry adapter-suggested segment boundaries and presuppositions.
// Identifiers are never part of hints; they are assigned here and only here.
type Hints struct {
	Segments        []model.Span     `json:"segments"`
	Presuppositions []Presupposition `json:"presuppositions,omitempty"`
	Confidence      float64          `json:"confidence"`
}

// Presupposition is an implied claim that a quantifier introduces.
type Presupposition struct {
	AfterSegment int        `json:"after_segment"` // Index of the introducing segment
	Text         string     `json:"text"`          // The implied claim's text
	Origin       model.Span `json:"origin"`        // The quantifier token's span
}

// ValidateHints rejects hints whose spans escape the text, cover nothing,
// or whose segment references dangle. Invalid hints are discarded by the
// caller as a whole, never repaired.
func ValidateHints(h *Hints, text string) error {
	if h == nil {
		return fmt.Errorf("no hints")
	}
	if len(h.Segments) == 0 {
		return fmt.Errorf("no segments")
	}
	for i, s := range h.Segments {
		if s.Start < 0 || s.End > len(text) || s.Start >= s.End {
			return fmt.Errorf("segment %d out of range: %d..%d", i, s.Start, s.End)
		}
		if strings.TrimSpace(text[s.Start:s.End]) == "" {
			return fmt.Errorf("segment %d covers no text", i)
		}
	}
	for i, p := range h.Presuppositions {
		if p.AfterSegment < 0 || p.AfterSegment >= len(h.Segments) {
			return fmt.Errorf("presupposition %d references segment %d of %d", i, p.AfterSegment, len(h.Segments))
		}
		if strings.TrimSpace(p.Text) == "" {
			return fmt.Errorf("presupposition %d has empty text", i)
		}
		if p.Origin.Start < 0 || p.Origin.End > len(text) || p.Origin.Start >= p.Origin.End {
			return fmt.Errorf("presupposition %d origin out of range: %d..%d", i, p.Origin.Start, p.Origin.End)
		}
	}
	return nil
}

// Walk produces claims by the deterministic offset walk alone: one claim
// per clause span, no expansion beyond literal clause boundaries. This is
// the fallback when no usable hints exist.
func Walk(pre *preprocess.Result) ([]model.AtomicClaim, string) {
	segs := make([]model.Span, len(pre.Clauses))
	for i, c := range pre.Clauses {
		segs[i] = c.Span
	}
	claims := build(pre, segs, nil)
	return claims, fmt.Sprintf("offset walk over %d clause spans; no semantic expansion", len(segs))
}

// Expand produces claims from validated hints: hinted segments replace the
// lexical walk and each presupposition lands immediately after the segment
// that introduced it, as a reduced claim.
func Expand(pre *preprocess.Result, hints *Hints) ([]model.AtomicClaim, string) {
	presups := make(map[int][]Presupposition, len(hints.Presuppositions))
	for _, p := range hints.Presuppositions {
		presups[p.AfterSegment] = append(presups[p.AfterSegment], p)
	}
	claims := build(pre, hints.Segments, presups)
	return claims, fmt.Sprintf("adapter segmentation with %d segments and %d presuppositions",
		len(hints.Segments), len(hints.Presuppositions))
}

// build assigns identifiers over the given segments: ascending start
// offset, ties by ascending span length, E for event-like predications
// and R for quantifier-bearing ones. Counters are category-local and
// increment in first-occurrence order. Presuppositions are always R.
func build(pre *preprocess.Result, segs []model.Span, presups map[int][]Presupposition) []model.AtomicClaim {
	type indexed struct {
		span model.Span
		orig int
	}
	ordered := make([]indexed, len(segs))
	for i, s := range segs {
		ordered[i] = indexed{span: s, orig: i}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].span.Start != ordered[j].span.Start {
			return ordered[i].span.Start < ordered[j].span.Start
		}
		return ordered[i].span.Len() < ordered[j].span.Len()
	})

	var claims []model.AtomicClaim
	eCount, rCount := 0, 0
	nextID := func(cat model.ClaimCategory) string {
		if cat == model.CategoryReduced {
			rCount++
			return fmt.Sprintf("R%d", rCount)
		}
		eCount++
		return fmt.Sprintf("E%d", eCount)
	}

	for _, seg := range ordered {
		text, span, ok := trimSegment(pre.Normalized, seg.span)
		if !ok {
			continue
		}
		cat := model.CategoryExplicit
		if len(pre.Within(span, preprocess.MarkerQuantUniversal, preprocess.MarkerQuantExistential)) > 0 {
			cat = model.CategoryReduced
		}
		claim := model.AtomicClaim{
			Identifier:  nextID(cat),
			Text:        text,
			OriginSpans: []model.Span{span},
		}
		if modals := pre.Within(span, preprocess.MarkerModalNecessity, preprocess.MarkerModalPossibility); len(modals) > 0 {
			claim.ModalContext = modals[0].Kind.Modality()
		}
		claims = append(claims, claim)

		for _, p := range presups[seg.orig] {
			claims = append(claims, model.AtomicClaim{
				Identifier:  nextID(model.CategoryReduced),
				Text:        strings.TrimSpace(p.Text),
				OriginSpans: []model.Span{p.Origin},
			})
		}
	}
	return claims
}

// SuggestPresuppositions derives the existence claims that universal
// quantifiers presuppose: "Every cat purrs" carries "There is at least
// one cat". The rule is lexical; the word following the quantifier
// becomes the subject. The mock adapter uses this to fabricate hints.
func SuggestPresuppositions(pre *preprocess.Result, segs []model.Span) []Presupposition {
	var out []Presupposition
	for i, seg := range segs {
		for _, a := range pre.Within(seg, preprocess.MarkerQuantUniversal) {
			subject, ok := nextWord(pre.Normalized, a.Span.End, seg.End)
			if !ok {
				continue
			}
			out = append(out, Presupposition{
				AfterSegment: i,
				Text:         "There is at least one " + subject,
				Origin:       a.Span,
			})
		}
	}
	return out
}

// DetailRationale expands the reduction rationale with one line per
// reduced claim, for runs that ask for quantifier reduction detail.
func DetailRationale(base string, claims []model.AtomicClaim) string {
	var lines []string
	for _, c := range claims {
		if c.Category() != model.CategoryReduced || len(c.OriginSpans) == 0 {
			continue
		}
		s := c.OriginSpans[0]
		lines = append(lines, fmt.Sprintf("%s from span %d..%d", c.Identifier, s.Start, s.End))
	}
	if len(lines) == 0 {
		return base
	}
	return base + "; " + strings.Join(lines, ", ")
}

func trimSegment(text string, span model.Span) (string, model.Span, bool) {
	start, end := span.Start, span.End
	for start < end && text[start] == ' ' {
		start++
	}
	for end > start && (text[end-1] == ' ' || text[end-1] == ',' || text[end-1] == '.') {
		end--
	}
	if start >= end {
		return "", model.Span{}, false
	}
	return text[start:end], model.Span{Start: start, End: end}, true
}

func nextWord(text string, from, limit int) (string, bool) {
	if limit > len(text) {
		limit = len(text)
	}
	i := from
	for i < limit && !isWordByte(text[i]) {
		i++
	}
	start := i
	for i < limit && isWordByte(text[i]) {
		i++
	}
	if start == i {
		return "", false
	}
	return text[start:i], true
}

func isWordByte(b byte) bool {
	return b == '\'' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
