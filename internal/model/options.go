package model

import (
	"fmt"
	"time"
)

// PrivacyMode controls how much raw input text survives into provenance
type PrivacyMode string

const (
	PrivacyDefault PrivacyMode = "default" // Keep excerpts and source names
	PrivacyStrict  PrivacyMode = "strict"  // Replace free text with span placeholders
)

// AdapterConfig carries provider settings for the external adapter.
type AdapterConfig struct {
	APIKey    string `json:"-" yaml:"api_key"`              // Provider API key, never serialized into results
	BaseURL   string `json:"base_url,omitempty" yaml:"base_url"` // Override endpoint, mainly for tests
	Model     string `json:"model,omitempty" yaml:"model"`  // Provider model name
	MaxTokens int    `json:"max_tokens,omitempty" yaml:"max_tokens"`
}

// RetrievalConfig carries settings for the enrichment fetcher.
type RetrievalConfig struct {
	Mode              string        `json:"mode,omitempty" yaml:"mode"`       // "http", "mock" or "none"
	Sources           []string      `json:"sources,omitempty" yaml:"sources"` // URL templates with a {query} placeholder
	UserAgent         string        `json:"user_agent,omitempty" yaml:"user_agent"`
	RequestsPerSecond float64       `json:"requests_per_second,omitempty" yaml:"requests_per_second"`
	CacheDir          string        `json:"cache_dir,omitempty" yaml:"cache_dir"`
	CacheTTL          time.Duration `json:"cache_ttl,omitempty" yaml:"cache_ttl"`
	HTTPProxy         string        `json:"-" yaml:"http_proxy"`
	HTTPSProxy        string        `json:"-" yaml:"https_proxy"`
}

// Options is the resolved, immutable configuration for one formalization
// run. It is built once from flags, environment and config file before the
// pipeline starts; stages never consult ambient configuration.
type Options struct {
	AdapterID                 string        `json:"adapter_id" yaml:"adapter"`                // "", "mock" or "openai"
	Adapter                   AdapterConfig `json:"adapter_config" yaml:"adapter_config"`     // Provider settings
	RetrievalEnabled          bool          `json:"retrieval_enabled" yaml:"retrieval"`       // Consult external sources during enrichment
	Retrieval                 RetrievalConfig `json:"retrieval_config" yaml:"retrieval_config"`
	TopKSymbolizations        int           `json:"top_k_symbolizations" yaml:"top_k_symbolizations"` // Candidate logical forms to keep
	QuantifierReductionDetail bool          `json:"quantifier_reduction_detail" yaml:"quantifier_reduction_detail"` // Record per-quantifier rationale
	AllowModalAdvancedCNF     bool          `json:"allow_modal_advanced_cnf" yaml:"allow_modal_advanced_cnf"` // Reserved, modal subtrees stay opaque
	PrivacyMode               PrivacyMode   `json:"privacy_mode" yaml:"privacy"`              // default or strict
	ReproducibleMode          bool          `json:"reproducible_mode" yaml:"reproducible"`    // Deterministic ids, clock and adapter
	Salt                      string        `json:"-" yaml:"salt"`                            // Provenance id salt
	StageConfidenceThreshold  float64       `json:"stage_confidence_threshold" yaml:"stage_confidence_threshold"` // Below this an adapter attempt fails
	ProvenanceCoverageThreshold float64     `json:"provenance_coverage_threshold" yaml:"provenance_coverage_threshold"` // Below this the validator warns
	MaxClauses                int           `json:"max_clauses" yaml:"max_clauses"`           // CNF distribution ceiling
	ContradictionFloor        float64       `json:"contradiction_floor" yaml:"contradiction_floor"` // Confidence forced on contradiction
	AdapterTimeout            time.Duration `json:"adapter_timeout" yaml:"adapter_timeout"`   // Per-attempt deadline
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		AdapterID:                   "mock",
		RetrievalEnabled:            false,
		Retrieval: RetrievalConfig{
			Mode:              "http",
			UserAgent:         "formalis/1.0",
			RequestsPerSecond: 1.0,
			CacheTTL:          24 * time.Hour,
		},
		TopKSymbolizations:          1,
		PrivacyMode:                 PrivacyDefault,
		Salt:                        "formalis",
		StageConfidenceThreshold:    0.5,
		ProvenanceCoverageThreshold: 0.9,
		MaxClauses:                  512,
		ContradictionFloor:          0.0,
		AdapterTimeout:              30 * time.Second,
	}
}

// Validate checks option ranges before a run starts.
func (o Options) Validate() error {
	if o.PrivacyMode != PrivacyDefault && o.PrivacyMode != PrivacyStrict {
		return &ConfigError{Field: "privacy_mode", Reason: fmt.Sprintf("unknown mode %q (supported: default, strict)", o.PrivacyMode)}
	}
	if o.TopKSymbolizations < 1 {
		return &ConfigError{Field: "top_k_symbolizations", Reason: "must be at least 1"}
	}
	if o.MaxClauses < 1 {
		return &ConfigError{Field: "max_clauses", Reason: "must be at least 1"}
	}
	if o.StageConfidenceThreshold < 0 || o.StageConfidenceThreshold > 1 {
		return &ConfigError{Field: "stage_confidence_threshold", Reason: "must be in [0, 1]"}
	}
	if o.ProvenanceCoverageThreshold < 0 || o.ProvenanceCoverageThreshold > 1 {
		return &ConfigError{Field: "provenance_coverage_threshold", Reason: "must be in [0, 1]"}
	}
	if o.ContradictionFloor < 0 || o.ContradictionFloor > 1 {
		return &ConfigError{Field: "contradiction_floor", Reason: "must be in [0, 1]"}
	}
	if o.RetrievalEnabled && o.Retrieval.RequestsPerSecond <= 0 {
		return &ConfigError{Field: "retrieval_config.requests_per_second", Reason: "must be positive when retrieval is enabled"}
	}
	return nil
}
