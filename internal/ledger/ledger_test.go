package ledger

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/formalhaus/formalis/internal/model"
)

func TestLedger_NewID_Deterministic(t *testing.T) {
	a := New("salt", true)
	b := New("salt", true)

	id1 := a.NewID("alice owns a car", model.StageReduce, "1.0.0")
	id2 := b.NewID("alice owns a car", model.StageReduce, "1.0.0")
	if id1 != id2 {
		t.Errorf("same inputs produced different ids: %q vs %q", id1, id2)
	}
	if !strings.HasPrefix(id1, "pr_") || !strings.HasSuffix(id1, "_reduce") {
		t.Errorf("unexpected id shape: %q", id1)
	}
}

func TestLedger_NewID_VariesWithInputs(t *testing.T) {
	l := New("salt", true)
	base := l.NewID("alice owns a car", model.StageReduce, "1.0.0")

	if l.NewID("alice owns a car", model.StageSymbolize, "1.0.0") == base {
		t.Error("different stage produced the same id")
	}
	if l.NewID("alice owns a car", model.StageReduce, "2.0.0") == base {
		t.Error("different version produced the same id")
	}
	if New("other", true).NewID("alice owns a car", model.StageReduce, "1.0.0") == base {
		t.Error("different salt produced the same id")
	}
}

func TestLedger_RequestID(t *testing.T) {
	repro := New("salt", true)
	if repro.RequestID("some input") != New("salt", true).RequestID("some input") {
		t.Error("reproducible request ids differ between runs")
	}

	fixed := time.Date(2024, 6, 1, 12, 30, 45, 0, time.UTC)
	live := New("salt", false, WithClock(func() time.Time { return fixed }))
	if got := live.RequestID("some input"); got != "req_20240601123045" {
		t.Errorf("live request id = %q, want req_20240601123045", got)
	}
}

func TestLedger_ReproducibleClock(t *testing.T) {
	l := New("salt", true)

	first := l.Now()
	second := l.Now()
	if !second.After(first) {
		t.Error("logical clock did not advance")
	}

	other := New("salt", true)
	if !other.Now().Equal(first) {
		t.Error("fresh reproducible ledgers disagree on the first timestamp")
	}
}

func TestRecorder_EventOrdering(t *testing.T) {
	l := New("salt", true)
	r := l.Recorder(model.StageReduce, "1.0.0")

	r.Event(model.EventAttempt, "first call")
	r.Timed(model.EventParseError, "bad payload", 120*time.Millisecond)
	r.Event(model.EventFallback, "deterministic walk")

	rec := r.Finish("input text", 0.8, []model.Span{{Start: 0, End: 10}})

	if len(rec.EventLog) != 3 {
		t.Fatalf("expected 3 events, got %d", len(rec.EventLog))
	}
	for i, e := range rec.EventLog {
		if e.Seq != i {
			t.Errorf("event %d has seq %d", i, e.Seq)
		}
	}
	if !rec.EventLog[0].Timestamp.Before(rec.EventLog[2].Timestamp) {
		t.Error("event timestamps are not increasing")
	}
	if rec.EventLog[1].DurationMS != 120 {
		t.Errorf("duration = %d, want 120", rec.EventLog[1].DurationMS)
	}
	if rec.StageID != model.StageReduce || rec.Confidence != 0.8 {
		t.Errorf("record fields not carried over: %+v", rec)
	}
}

func TestRedact_StrictReplacesFreeText(t *testing.T) {
	l := New("salt", true)
	r := l.Recorder(model.StageEnrich, "1.0.0")
	r.Excerpt(model.EventSuccess, "snippet captured", "Alice owns a red car", model.Span{Start: 3, End: 23})
	r.AddSource("https://example.org/cars")
	rec := r.Finish("input", 1.0, nil)

	red := l.Redact(rec, model.PrivacyStrict)

	if red.EventLog[0].Excerpt != "[redacted span 3..23]" {
		t.Errorf("excerpt = %q", red.EventLog[0].Excerpt)
	}
	if red.EnrichmentSources[0] != "[redacted source 1]" {
		t.Errorf("source = %q", red.EnrichmentSources[0])
	}
	if red.ID != rec.ID {
		t.Error("redaction changed the record id")
	}
	last := red.EventLog[len(red.EventLog)-1]
	if last.Kind != model.EventRedaction {
		t.Errorf("expected trailing redaction event, got %v", last.Kind)
	}
	// Original record must be untouched
	if rec.EventLog[0].Excerpt != "Alice owns a red car" {
		t.Error("Redact mutated its input")
	}
}

func TestRedact_Idempotent(t *testing.T) {
	l := New("salt", true)
	r := l.Recorder(model.StageEnrich, "1.0.0")
	r.Excerpt(model.EventSuccess, "snippet captured", "raw text", model.Span{Start: 0, End: 8})
	r.AddSource("https://example.org/a")
	rec := r.Finish("input", 1.0, nil)

	once := l.Redact(rec, model.PrivacyStrict)
	twice := l.Redact(once, model.PrivacyStrict)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("double redaction differs:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestRedact_DefaultModeIsNoOp(t *testing.T) {
	l := New("salt", true)
	r := l.Recorder(model.StageEnrich, "1.0.0")
	r.Excerpt(model.EventSuccess, "snippet captured", "raw text")
	rec := r.Finish("input", 1.0, nil)

	out := l.Redact(rec, model.PrivacyDefault)
	if out.EventLog[0].Excerpt != "raw text" {
		t.Errorf("default mode altered excerpt: %q", out.EventLog[0].Excerpt)
	}
	if len(out.EventLog) != len(rec.EventLog) {
		t.Error("default mode appended events")
	}
}
