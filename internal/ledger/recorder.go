package ledger

import (
	"time"

	"github.com/formalhaus/formalis/internal/model"
)

// Recorder accumulates the event log and metadata for one stage run and
// turns them into a provenance record.
type Recorder struct {
	led     *Ledger
	stage   model.StageID
	version string

	events    []model.Event
	adapterID string
	template  string
	requestID string
	rationale string
	flags     []string
	sources   []string
}

// Recorder starts event collection for a stage.
func (l *Ledger) Recorder(stage model.StageID, version string) *Recorder {
	return &Recorder{led: l, stage: stage, version: version}
}

// Event appends a plain event to the log.
func (r *Recorder) Event(kind model.EventKind, detail string) {
	r.append(model.Event{Kind: kind, Detail: detail})
}

// Excerpt appends an event carrying raw text and the spans it came from.
// The excerpt is what strict privacy mode later redacts.
func (r *Recorder) Excerpt(kind model.EventKind, detail, excerpt string, spans ...model.Span) {
	r.append(model.Event{Kind: kind, Detail: detail, Excerpt: excerpt, Spans: spans})
}

// Timed appends an event with the elapsed duration of an adapter attempt.
func (r *Recorder) Timed(kind model.EventKind, detail string, elapsed time.Duration) {
	r.append(model.Event{Kind: kind, Detail: detail, DurationMS: elapsed.Milliseconds()})
}

func (r *Recorder) append(e model.Event) {
	e.Seq = len(r.events)
	e.Timestamp = r.led.Now()
	r.events = append(r.events, e)
}

// SetAdapter records which adapter call produced the stage output.
func (r *Recorder) SetAdapter(adapterID, templateID, requestID string) {
	r.adapterID = adapterID
	r.template = templateID
	r.requestID = requestID
}

// SetRationale records why the output took the shape it did.
func (r *Recorder) SetRationale(text string) {
	r.rationale = text
}

// AddFlag marks an ambiguity flag on the eventual record.
func (r *Recorder) AddFlag(flag string) {
	for _, f := range r.flags {
		if f == flag {
			return
		}
	}
	r.flags = append(r.flags, flag)
}

// AddSource records an external source consulted during the stage.
func (r *Recorder) AddSource(url string) {
	r.sources = append(r.sources, url)
}

// Finish seals the recorder into a provenance record. The id is derived
// from the normalized input and stage identity, never from timestamps.
func (r *Recorder) Finish(normalizedInput string, confidence float64, origin []model.Span) model.ProvenanceRecord {
	return model.ProvenanceRecord{
		ID:                 r.led.NewID(normalizedInput, r.stage, r.version),
		CreatedAt:          r.led.Now(),
		StageID:            r.stage,
		StageVersion:       r.version,
		AdapterID:          r.adapterID,
		TemplateID:         r.template,
		AdapterRequestID:   r.requestID,
		OriginSpans:        origin,
		EnrichmentSources:  r.sources,
		Confidence:         confidence,
		AmbiguityFlags:     r.flags,
		ReductionRationale: r.rationale,
		EventLog:           r.events,
	}
}
