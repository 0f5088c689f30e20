package ledger

import (
	"fmt"
	"strings"

	"github.com/formalhaus/formalis/internal/model"
)

const redactedMark = "[redacted"

// Redacted reports whether a field already carries a redaction placeholder.
func Redacted(s string) bool {
	return strings.HasPrefix(s, redactedMark)
}

// RedactedSource returns the placeholder for the nth enrichment source.
func RedactedSource(n int) string {
	return fmt.Sprintf("[redacted source %d]", n)
}

// Redact returns a copy of rec with free-text fields replaced by span
// placeholders under strict privacy. Structure, ids, spans and flags are
// untouched. Fields that already hold placeholders pass through, so
// applying Redact twice yields the same record as applying it once.
func (l *Ledger) Redact(rec model.ProvenanceRecord, mode model.PrivacyMode) model.ProvenanceRecord {
	out := cloneRecord(rec)
	if mode != model.PrivacyStrict {
		return out
	}

	changed := false
	for i := range out.EventLog {
		e := &out.EventLog[i]
		if e.Excerpt == "" || Redacted(e.Excerpt) {
			continue
		}
		if len(e.Spans) > 0 {
			e.Excerpt = fmt.Sprintf("[redacted span %d..%d]", e.Spans[0].Start, e.Spans[0].End)
		} else {
			e.Excerpt = "[redacted]"
		}
		changed = true
	}
	for i, src := range out.EnrichmentSources {
		if Redacted(src) {
			continue
		}
		out.EnrichmentSources[i] = RedactedSource(i + 1)
		changed = true
	}

	if changed {
		out.EventLog = append(out.EventLog, model.Event{
			Seq:       len(out.EventLog),
			Timestamp: l.Now(),
			Kind:      model.EventRedaction,
			Detail:    "strict privacy redaction applied",
		})
	}
	return out
}

func cloneRecord(rec model.ProvenanceRecord) model.ProvenanceRecord {
	out := rec
	out.OriginSpans = append([]model.Span(nil), rec.OriginSpans...)
	out.EnrichmentSources = append([]string(nil), rec.EnrichmentSources...)
	out.AmbiguityFlags = append([]string(nil), rec.AmbiguityFlags...)
	out.EventLog = make([]model.Event, len(rec.EventLog))
	for i, e := range rec.EventLog {
		e.Spans = append([]model.Span(nil), e.Spans...)
		out.EventLog[i] = e
	}
	return out
}
