package model

// Span marks a half-open byte range [Start, End) in the normalized input text
type Span struct {
	Start int `json:"start"` // Byte offset of the first covered byte
	End   int `json:"end"`   // Byte offset one past the last covered byte
}

// Len returns the number of bytes the span covers.
func (s Span) Len() int {
	return s.End - s.Start
}

// Contains reports whether other lies fully inside s.
func (s Span) Contains(other Span) bool {
	return other.Start >= s.Start && other.End <= s.End
}

// Modality classifies the modal context of a claim or operator
type Modality string

const (
	ModalityNone        Modality = ""            // No modal marker
	ModalityNecessity   Modality = "necessity"   // "must", "necessarily", "always"
	ModalityPossibility Modality = "possibility" // "may", "might", "possibly"
)

// Glyph returns the conventional modal operator symbol.
func (m Modality) Glyph() string {
	switch m {
	case ModalityNecessity:
		return "□" // □
	case ModalityPossibility:
		return "◇" // ◇
	default:
		return ""
	}
}

// ClaimCategory distinguishes explicit claims from reduced ones
type ClaimCategory string

const (
	CategoryExplicit ClaimCategory = "E" // Stated directly in the input
	CategoryReduced  ClaimCategory = "R" // Produced by quantifier reduction or presupposition expansion
)

// AtomicClaim is a minimal indivisible assertion carved out of the input.
// Identifier is E{n} or R{n}, assigned exactly once in discovery order;
// Symbol is filled in later by symbolization.
type AtomicClaim struct {
	Identifier   string            `json:"identifier"`              // E1, E2, ... or R1, R2, ...
	Text         string            `json:"text"`                    // Claim text, trimmed
	Symbol       string            `json:"symbol,omitempty"`        // P{n} once symbolized
	OriginSpans  []Span            `json:"origin_spans"`            // Where in the normalized input it came from
	ModalContext Modality          `json:"modal_context,omitempty"` // Modal marker covering the claim, if any
	Provenance   *ProvenanceRecord `json:"provenance,omitempty"`    // Record of the stage that produced it
}

// Category returns the claim's category based on its identifier prefix.
func (c AtomicClaim) Category() ClaimCategory {
	if len(c.Identifier) > 0 && c.Identifier[0] == 'R' {
		return CategoryReduced
	}
	return CategoryExplicit
}
