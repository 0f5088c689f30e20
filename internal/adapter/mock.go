package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/formalhaus/formalis/internal/model"
	"github.com/formalhaus/formalis/internal/preprocess"
	"github.com/formalhaus/formalis/internal/reduce"
	"github.com/formalhaus/formalis/internal/symbolize"
)

const (
	mockID      = "mock"
	mockVersion = "1.0.0"

	mockHintConfidence      = 0.95
	mockCandidateWeight     = 0.9
	mockCandidateConfidence = 0.92
)

// MockAdapter fabricates responses from the normalized input alone. The
// same (template, input) pair always yields the same reply, byte for
// byte, with no network involved. Reproducible runs are pinned to it.
type MockAdapter struct{}

// NewMockAdapter returns the deterministic adapter.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{}
}

// Name implements Adapter.
func (m *MockAdapter) Name() string { return mockID }

// Available implements Adapter. The mock is always ready.
func (m *MockAdapter) Available(ctx context.Context) bool { return true }

// Request implements Adapter by recomputing what a cooperative provider
// would answer for the template family, straight from the input text.
func (m *MockAdapter) Request(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, &model.AdapterError{AdapterID: mockID, Err: err}
	}

	var payload any
	switch {
	case strings.HasPrefix(req.TemplateID, "reduce"):
		payload = mockHints(req.Input)
	case strings.HasPrefix(req.TemplateID, "symbolize"):
		payload = mockCandidates(req.Input)
	default:
		text := "MOCK: " + req.Prompt
		return m.respond(req, text, nil), nil
	}

	js, err := json.Marshal(payload)
	if err != nil {
		return nil, &model.AdapterError{AdapterID: mockID, Err: fmt.Errorf("encoding mock payload: %w", err)}
	}
	return m.respond(req, string(js), json.RawMessage(js)), nil
}

func (m *MockAdapter) respond(req Request, text string, parsed json.RawMessage) *Response {
	return &Response{
		Text:       text,
		ParsedJSON: parsed,
		Tokens:     countTokens(req.Prompt) + countTokens(text),
		ModelMetadata: map[string]string{
			"provider":      mockID,
			"deterministic": "true",
		},
		Provenance: Provenance{
			AdapterID:        mockID,
			Version:          mockVersion,
			TemplateID:       req.TemplateID,
			RequestID:        requestID(mockID, mockVersion, req.TemplateID, req.Prompt),
			RawOutputSummary: summarize(text),
		},
	}
}

// mockHints rebuilds segmentation hints from the clause structure and adds
// the existence presuppositions that universal quantifiers carry.
func mockHints(input string) *reduce.Hints {
	pre := preprocess.Run(input)
	segs := make([]model.Span, len(pre.Clauses))
	for i, c := range pre.Clauses {
		segs[i] = c.Span
	}
	return &reduce.Hints{
		Segments:        segs,
		Presuppositions: reduce.SuggestPresuppositions(pre, segs),
		Confidence:      mockHintConfidence,
	}
}

// mockCandidates replays the reduction the hints imply and composes one
// structure-aware candidate over the resulting symbols.
func mockCandidates(input string) *symbolize.CandidatePayload {
	pre := preprocess.Run(input)
	hints := mockHints(input)
	claims, _ := reduce.Expand(pre, hints)
	symbolize.Assign(claims)

	payload := &symbolize.CandidatePayload{Confidence: mockCandidateConfidence}
	if root := symbolize.BuildDeterministicCandidate(pre, claims); root != nil {
		payload.Candidates = []symbolize.RawCandidate{{Root: root, Confidence: mockCandidateWeight}}
	}
	return payload
}
