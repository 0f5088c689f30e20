// Package ledger mints provenance records: content-addressed ids, ordered
// event logs with a per-request clock, and privacy redaction.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/formalhaus/formalis/internal/model"
)

// Clock yields timestamps for records and event logs.
type Clock func() time.Time

// reproducibleBase anchors the logical clock so reproducible runs agree
// on every timestamp regardless of wall time.
var reproducibleBase = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Ledger mints provenance records for a single request. It is not safe
// for concurrent use; each pipeline run creates its own.
type Ledger struct {
	salt         string
	reproducible bool
	clock        Clock
	ticks        int
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the wall clock, mainly for tests of live mode.
func WithClock(c Clock) Option {
	return func(l *Ledger) {
		l.clock = c
	}
}

// New creates a ledger. In reproducible mode timestamps come from a
// logical clock that advances one millisecond per reading.
func New(salt string, reproducible bool, opts ...Option) *Ledger {
	l := &Ledger{
		salt:         salt,
		reproducible: reproducible,
		clock:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Now returns the next timestamp. Reproducible ledgers advance a logical
// clock so event order is total and stable across runs.
func (l *Ledger) Now() time.Time {
	if l.reproducible {
		t := reproducibleBase.Add(time.Duration(l.ticks) * time.Millisecond)
		l.ticks++
		return t
	}
	return l.clock()
}

// NewID derives a provenance record id from the normalized input, the
// stage identity and the configured salt. Same inputs, same id.
func (l *Ledger) NewID(normalizedInput string, stage model.StageID, stageVersion string) string {
	payload := normalizedInput + "\n" + string(stage) + "\n" + stageVersion + "\n" + l.salt
	sum := sha256.Sum256([]byte(payload))
	return "pr_" + hex.EncodeToString(sum[:])[:12] + "_" + string(stage)
}

// RequestID derives the id for a whole run. Reproducible runs hash the
// input so reruns agree; live runs use a wall-clock stamp.
func (l *Ledger) RequestID(normalizedInput string) string {
	if l.reproducible {
		sum := sha256.Sum256([]byte(normalizedInput + "\n" + l.salt))
		return "req_" + hex.EncodeToString(sum[:])[:12]
	}
	return "req_" + l.clock().UTC().Format("20060102150405")
}
