package retrieve

import (
	"context"
	"fmt"

	"github.com/formalhaus/formalis/internal/model"
)

const mockID = "mock"

// MockRetriever fabricates context documents from the query alone, for
// tests and offline development. The same query always yields the same
// documents.
type MockRetriever struct{}

// NewMockRetriever returns the deterministic retriever.
func NewMockRetriever() *MockRetriever {
	return &MockRetriever{}
}

// Name implements Retriever.
func (m *MockRetriever) Name() string { return mockID }

// Retrieve implements Retriever.
func (m *MockRetriever) Retrieve(ctx context.Context, query string, k int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = defaultTopK
	}

	docs := make([]Document, 0, k)
	for i := 0; i < k; i++ {
		u := fmt.Sprintf("mock://context/%s/%d", SourceID(query), i+1)
		docs = append(docs, Document{
			SourceID: SourceID(u),
			URL:      u,
			Title:    fmt.Sprintf("Background %d", i+1),
			Text:     fmt.Sprintf("Deterministic background %d for: %s.", i+1, query),
			Score:    1 - float64(i)*0.1,
		})
	}
	return docs, nil
}

// Summarize implements Retriever.
func (m *MockRetriever) Summarize(ctx context.Context, doc Document, span model.Span) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if doc.Text == "" {
		return "", fmt.Errorf("document %s has no text", doc.SourceID)
	}
	return clip(doc.Text, span), nil
}
