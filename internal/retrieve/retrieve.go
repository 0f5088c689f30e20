// Package retrieve resolves external context for ambiguous statements.
// Retrieval is an optional enrichment stage: the engine works without it
// and reproducible runs disable it outright.
package retrieve

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/formalhaus/formalis/internal/model"
)

// Version identifies the enrichment stage revision in provenance records.
const Version = "1.0.0"

// Document is one piece of retrieved context with enough provenance to
// cite it.
type Document struct {
	SourceID string  `json:"source_id"`
	URL      string  `json:"url"`
	Title    string  `json:"title,omitempty"`
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
}

// Retriever is the retrieval boundary, chosen once at construction like
// the interpretation adapter.
type Retriever interface {
	Name() string
	// Retrieve returns up to k documents relevant to the query, best
	// first.
	Retrieve(ctx context.Context, query string, k int) ([]Document, error)
	// Summarize clips the document to the given span, or to a lead
	// window when the span is empty.
	Summarize(ctx context.Context, doc Document, span model.Span) (string, error)
}

// New creates a retriever from configuration. An empty or "none" mode
// disables enrichment.
func New(cfg model.RetrievalConfig) (Retriever, error) {
	switch strings.ToLower(cfg.Mode) {
	case "http":
		if len(cfg.Sources) == 0 {
			return nil, &model.ConfigError{Field: "retrieval_config.sources", Reason: "at least one source template is required"}
		}
		return NewHTTPRetriever(cfg), nil
	case "mock":
		return NewMockRetriever(), nil
	case "none", "":
		return nil, nil
	default:
		return nil, &model.ConfigError{
			Field:  "retrieval_config.mode",
			Reason: fmt.Sprintf("unknown mode %q (supported: http, mock, none)", cfg.Mode),
		}
	}
}

// SourceID derives a stable identifier for a source URL.
func SourceID(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "src_" + hex.EncodeToString(sum[:])[:12]
}

const leadWindow = 280

// clip selects the span window from text, falling back to a sentence
// bounded lead window when the span is unusable.
func clip(text string, span model.Span) string {
	if span.Start >= 0 && span.End > span.Start && span.End <= len(text) {
		return strings.TrimSpace(text[span.Start:span.End])
	}
	if len(text) <= leadWindow {
		return strings.TrimSpace(text)
	}
	cut := text[:leadWindow]
	if idx := strings.LastIndexByte(cut, '.'); idx > 0 {
		cut = cut[:idx+1]
	}
	return strings.TrimSpace(cut)
}
