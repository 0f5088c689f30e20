// Package preprocess normalizes raw statements and carves them into
// annotated clause spans for reduction. All spans index into the
// normalized text, never into the raw input.
package preprocess

import (
	"strings"

	"github.com/formalhaus/formalis/internal/model"
)

// Version identifies the preprocessor revision in provenance records.
const Version = "1.0.0"

// maxInputBytes caps accepted statements. Inputs beyond this are almost
// certainly pasted documents, not statements to formalize.
const maxInputBytes = 1 << 16

// Normalize trims the raw statement and collapses whitespace runs into
// single spaces. Returns InputError for empty or oversized input.
func Normalize(raw string) (string, error) {
	if len(raw) > maxInputBytes {
		return "", &model.InputError{Reason: "statement exceeds 65536 bytes"}
	}
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return "", &model.InputError{Reason: "empty statement"}
	}
	return strings.Join(fields, " "), nil
}

// MarkerKind classifies surface markers found during annotation
type MarkerKind string

const (
	MarkerNegation          MarkerKind = "negation"
	MarkerModalNecessity    MarkerKind = "modal_necessity"
	MarkerModalPossibility  MarkerKind = "modal_possibility"
	MarkerQuantUniversal    MarkerKind = "quantifier_universal"
	MarkerQuantExistential  MarkerKind = "quantifier_existential"
	MarkerConditionalIntro  MarkerKind = "conditional_intro"
)

// Modality maps a marker to the modal operator it introduces, if any.
func (k MarkerKind) Modality() model.Modality {
	switch k {
	case MarkerModalNecessity:
		return model.ModalityNecessity
	case MarkerModalPossibility:
		return model.ModalityPossibility
	default:
		return model.ModalityNone
	}
}

// Annotation marks one surface token of interest.
type Annotation struct {
	Kind  MarkerKind `json:"kind"`
	Span  model.Span `json:"span"`
	Token string     `json:"token"`
}

// ClauseSpan is a maximal clause-bearing stretch of the normalized text.
type ClauseSpan struct {
	Text string     `json:"text"`
	Span model.Span `json:"span"`
}

// Result carries segmentation and annotation over one normalized statement.
type Result struct {
	Normalized  string       `json:"normalized"`
	Clauses     []ClauseSpan `json:"clauses"`
	Annotations []Annotation `json:"annotations"`
}

// Within returns the annotations of the given kinds that fall inside span,
// in ascending start order. With no kinds given, all annotations match.
func (r *Result) Within(span model.Span, kinds ...MarkerKind) []Annotation {
	var out []Annotation
	for _, a := range r.Annotations {
		if !span.Contains(a.Span) {
			continue
		}
		if len(kinds) == 0 {
			out = append(out, a)
			continue
		}
		for _, k := range kinds {
			if a.Kind == k {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

// Run segments the normalized statement into clause spans and annotates
// negation, modal and quantifier markers. The walk is purely lexical;
// deciding what the markers mean is the reducer's job.
func Run(normalized string) *Result {
	res := &Result{Normalized: normalized}
	for _, sentence := range splitSentences(normalized) {
		res.Clauses = append(res.Clauses, splitClauses(normalized, sentence)...)
	}
	res.Annotations = annotate(normalized)
	return res
}

// splitSentences returns sentence spans, terminator excluded.
func splitSentences(text string) []model.Span {
	var out []model.Span
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			if span, ok := trimSpan(text, model.Span{Start: start, End: i}); ok {
				out = append(out, span)
			}
			start = i + 1
		}
	}
	if span, ok := trimSpan(text, model.Span{Start: start, End: len(text)}); ok {
		out = append(out, span)
	}
	return out
}

// clauseSeparators split a sentence into coordinate clauses. Longer
// separators come first so ", and " wins over " and ".
var clauseSeparators = []string{", then ", ", and ", ", but ", "; ", " and ", " but "}

// splitClauses carves one sentence span into clause spans. A leading
// "if ... then ..." yields the antecedent and consequent as two clauses.
func splitClauses(text string, sentence model.Span) []ClauseSpan {
	s := text[sentence.Start:sentence.End]
	lower := asciiLower(s)

	if strings.HasPrefix(lower, "if ") {
		if idx := strings.Index(lower, " then "); idx > 0 {
			parts := []model.Span{
				{Start: sentence.Start + len("if "), End: sentence.Start + idx},
				{Start: sentence.Start + idx + len(" then "), End: sentence.End},
			}
			var out []ClauseSpan
			for _, p := range parts {
				// Consequents may contain further coordination
				out = append(out, splitOnSeparators(text, p)...)
			}
			return out
		}
	}
	return splitOnSeparators(text, sentence)
}

func splitOnSeparators(text string, span model.Span) []ClauseSpan {
	s := asciiLower(text[span.Start:span.End])
	for _, sep := range clauseSeparators {
		if idx := strings.Index(s, sep); idx > 0 {
			left := model.Span{Start: span.Start, End: span.Start + idx}
			right := model.Span{Start: span.Start + idx + len(sep), End: span.End}
			return append(splitOnSeparators(text, left), splitOnSeparators(text, right)...)
		}
	}
	if trimmed, ok := trimSpan(text, span); ok {
		return []ClauseSpan{{Text: text[trimmed.Start:trimmed.End], Span: trimmed}}
	}
	return nil
}

// asciiLower lowercases ASCII letters only, keeping byte offsets stable
// for span arithmetic on multibyte text.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 32
		}
	}
	return string(b)
}

// trimSpan shrinks a span past surrounding spaces and stray punctuation.
func trimSpan(text string, span model.Span) (model.Span, bool) {
	start, end := span.Start, span.End
	for start < end && isTrimmable(text[start]) {
		start++
	}
	for end > start && isTrimmable(text[end-1]) {
		end--
	}
	if start >= end {
		return model.Span{}, false
	}
	return model.Span{Start: start, End: end}, true
}

func isTrimmable(b byte) bool {
	return b == ' ' || b == ',' || b == ';' || b == ':'
}

var markerVocabulary = map[string]MarkerKind{
	"not":         MarkerNegation,
	"never":       MarkerNegation,
	"no":          MarkerNegation,
	"cannot":      MarkerNegation,
	"nothing":     MarkerNegation,
	"must":        MarkerModalNecessity,
	"necessarily": MarkerModalNecessity,
	"always":      MarkerModalNecessity,
	"certainly":   MarkerModalNecessity,
	"shall":       MarkerModalNecessity,
	"may":         MarkerModalPossibility,
	"might":       MarkerModalPossibility,
	"possibly":    MarkerModalPossibility,
	"perhaps":     MarkerModalPossibility,
	"could":       MarkerModalPossibility,
	"all":         MarkerQuantUniversal,
	"every":       MarkerQuantUniversal,
	"each":        MarkerQuantUniversal,
	"everyone":    MarkerQuantUniversal,
	"everybody":   MarkerQuantUniversal,
	"some":        MarkerQuantExistential,
	"someone":     MarkerQuantExistential,
	"something":   MarkerQuantExistential,
	"somebody":    MarkerQuantExistential,
	"exists":      MarkerQuantExistential,
	"if":          MarkerConditionalIntro,
}

// annotate scans word tokens and records every marker hit in ascending
// start order.
func annotate(text string) []Annotation {
	var out []Annotation
	for _, tok := range tokenize(text) {
		lower := strings.ToLower(tok.text)
		if kind, ok := markerVocabulary[lower]; ok {
			out = append(out, Annotation{Kind: kind, Span: tok.span, Token: tok.text})
			continue
		}
		if strings.HasSuffix(lower, "n't") {
			out = append(out, Annotation{Kind: MarkerNegation, Span: tok.span, Token: tok.text})
		}
	}
	return out
}

type token struct {
	text string
	span model.Span
}

func tokenize(text string) []token {
	var out []token
	start := -1
	for i := 0; i <= len(text); i++ {
		inWord := i < len(text) && isWordByte(text[i])
		switch {
		case inWord && start < 0:
			start = i
		case !inWord && start >= 0:
			out = append(out, token{text: text[start:i], span: model.Span{Start: start, End: i}})
			start = -1
		}
	}
	return out
}

func isWordByte(b byte) bool {
	return b == '\'' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
