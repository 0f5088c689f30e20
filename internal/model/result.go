package model

// StageResult is the uniform product of a single stage run. Payload is the
// stage-specific output; the provenance record explains how it was produced.
type StageResult[T any] struct {
	Payload    T
	Provenance ProvenanceRecord
	Confidence float64
	Warnings   []string
}

// ModalMarker ties one modal operator occurrence to the claim it covers.
type ModalMarker struct {
	Claim string   `json:"claim"`           // Identifier of the covered claim
	Op    Modality `json:"op"`              // necessity or possibility
	Span  Span     `json:"span"`            // Where the marker occurs in the input
	Token string   `json:"token,omitempty"` // Surface word that triggered the marker
}

// ModalMetadata summarizes the modal structure of a formalization.
type ModalMetadata struct {
	HasModal     bool          `json:"has_modal"`               // Any modal marker present
	Markers      []ModalMarker `json:"markers,omitempty"`       // All detected markers
	OpaqueTokens []string      `json:"opaque_tokens,omitempty"` // Modal subtrees treated as single literals
}

// ValidationReport is the validator's verdict on an assembled result.
type ValidationReport struct {
	SymbolCoverage     bool     `json:"symbol_coverage"`     // Every clause token resolves to a known symbol
	ProvenanceCoverage float64  `json:"provenance_coverage"` // Fraction of claims with usable provenance
	Contradiction      bool     `json:"contradiction"`       // Complementary unit clauses or an empty clause
	Confidence         float64  `json:"confidence"`          // Aggregated confidence after floors
	Issues             []string `json:"issues,omitempty"`    // Human-readable findings
}

// FormalizationResult is the complete persisted output of one run.
type FormalizationResult struct {
	RequestID             string             `json:"request_id"`
	OriginalText          string             `json:"original_text"`
	CanonicalText         string             `json:"canonical_text"`
	EnrichmentSources     []string           `json:"enrichment_sources,omitempty"`
	AtomicClaims          []AtomicClaim      `json:"atomic_claims"`
	Legend                map[string]string  `json:"legend"`
	LogicalFormCandidates []LogicalForm      `json:"logical_form_candidates"`
	ChosenLogicalForm     *LogicalForm       `json:"chosen_logical_form"`
	CNF                   string             `json:"cnf"`
	CNFClauses            [][]string         `json:"cnf_clauses"`
	ClauseLegend          [][]string         `json:"clause_to_legend,omitempty"`
	ModalMetadata         ModalMetadata      `json:"modal_metadata"`
	Validation            ValidationReport   `json:"validation_report"`
	Warnings              []string           `json:"warnings,omitempty"`
	Confidence            float64            `json:"confidence"`
	Provenance            []ProvenanceRecord `json:"provenance"`
}
