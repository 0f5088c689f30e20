package model

import "time"

// EventKind classifies entries in a stage event log
type EventKind string

const (
	EventAttempt       EventKind = "attempt"        // An adapter call was issued
	EventRetry         EventKind = "retry"          // A second adapter call after a failed first
	EventParseError    EventKind = "parse_error"    // Adapter output failed schema validation
	EventLowConfidence EventKind = "low_confidence" // Adapter output fell below the stage threshold
	EventAdapterError  EventKind = "adapter_error"  // Transport, timeout, or provider failure
	EventFallback      EventKind = "fallback"       // Deterministic fallback was taken
	EventSuccess       EventKind = "success"        // Stage produced its payload
	EventSkipped       EventKind = "skipped"        // Stage did not run
	EventWarning       EventKind = "warning"        // Non-fatal condition recorded
	EventRedaction     EventKind = "redaction"      // Free-text fields were redacted
)

// Ambiguity flags with fixed meanings across stages
const (
	FlagHumanReview        = "human_review"        // Adapter retry failed, output came from a fallback
	FlagDefaultConjunction = "default_conjunction" // No candidate logical form survived validation
	FlagTrivialTautology   = "trivial_tautology"   // The logical form simplified to TRUE
)

// Event is one entry in a stage's event log. The log is the only audit
// trail a run leaves behind, so every decision point writes one.
type Event struct {
	Seq        int       `json:"seq"`                   // Position within the log, from 0
	Timestamp  time.Time `json:"ts"`                    // When the event occurred
	Kind       EventKind `json:"kind"`                  // What happened
	Detail     string    `json:"detail"`                // Short description
	Excerpt    string    `json:"excerpt,omitempty"`     // Raw text captured at the decision point
	Spans      []Span    `json:"spans,omitempty"`       // Input ranges the event refers to
	DurationMS int64     `json:"duration_ms,omitempty"` // Elapsed time for adapter attempts
}

// ProvenanceRecord captures how one stage arrived at its output.
type ProvenanceRecord struct {
	ID                 string    `json:"id"`                            // pr_<hash12>_<stage>, content-addressed
	CreatedAt          time.Time `json:"created_at"`                    // Record creation time
	StageID            StageID   `json:"stage_id"`                      // Which stage produced it
	StageVersion       string    `json:"stage_version"`                 // Version string of that stage
	AdapterID          string    `json:"adapter_id,omitempty"`          // Adapter consulted, if any
	TemplateID         string    `json:"template_id,omitempty"`         // Prompt template used, if any
	AdapterRequestID   string    `json:"adapter_request_id,omitempty"`  // Adapter-side request id
	OriginSpans        []Span    `json:"origin_spans"`                  // Input ranges this output derives from
	EnrichmentSources  []string  `json:"enrichment_sources,omitempty"`  // External sources consulted
	Confidence         float64   `json:"confidence"`                    // Stage confidence in [0, 1]
	AmbiguityFlags     []string  `json:"ambiguity_flags,omitempty"`     // Accumulated ambiguity markers
	ReductionRationale string    `json:"reduction_rationale,omitempty"` // Why the output took this shape
	EventLog           []Event   `json:"event_log"`                     // Chronological decision trail
}

// AddFlag appends flag to the ambiguity flags unless already present.
// Order of first appearance is preserved so serialized records stay stable.
func (r *ProvenanceRecord) AddFlag(flag string) {
	for _, f := range r.AmbiguityFlags {
		if f == flag {
			return
		}
	}
	r.AmbiguityFlags = append(r.AmbiguityFlags, flag)
}

// HasFlag reports whether flag is present.
func (r *ProvenanceRecord) HasFlag(flag string) bool {
	for _, f := range r.AmbiguityFlags {
		if f == flag {
			return true
		}
	}
	return false
}
