// Package adapter is the capability boundary for external text
// interpretation. Everything nondeterministic sits behind the Adapter
// interface; the rest of the engine only ever sees structured responses
// and never inspects which implementation produced them.
package adapter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/formalhaus/formalis/internal/model"
)

// Request is one schema-constrained adapter call.
type Request struct {
	TemplateID string // Prompt template that produced the prompt
	Prompt     string // Fully rendered prompt
	Input      string // Normalized statement the prompt is about
	Schema     string // Name of the JSON contract the reply must follow
	MaxTokens  int    // Reply budget, 0 for the adapter default
}

// Provenance identifies how a response was produced.
type Provenance struct {
	AdapterID        string `json:"adapter_id"`
	Version          string `json:"version"`
	TemplateID       string `json:"template_id"`
	RequestID        string `json:"request_id"`
	RawOutputSummary string `json:"raw_output_summary"`
}

// Response is the structured reply of one adapter call. ParsedJSON is nil
// whenever the reply text was not valid JSON; callers decide what that
// means for their stage.
type Response struct {
	Text          string
	ParsedJSON    json.RawMessage
	Tokens        int
	ModelMetadata map[string]string
	Provenance    Provenance
}

// Adapter is the boundary interface for interpretation calls.
type Adapter interface {
	// Name identifies the implementation in provenance records.
	Name() string
	// Request performs one call. Transport and provider failures come
	// back as AdapterError; cancellation follows the context.
	Request(ctx context.Context, req Request) (*Response, error)
	// Available reports whether the adapter can serve calls right now.
	Available(ctx context.Context) bool
}

// Config carries provider settings shared by adapter implementations.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

// ConfigFromOptions extracts adapter settings from resolved run options.
func ConfigFromOptions(opts model.Options) Config {
	return Config{
		APIKey:    opts.Adapter.APIKey,
		BaseURL:   opts.Adapter.BaseURL,
		Model:     opts.Adapter.Model,
		MaxTokens: opts.Adapter.MaxTokens,
	}
}

// requestID derives a stable identifier for one adapter call.
func requestID(adapterID, version, templateID, prompt string) string {
	payload := fmt.Sprintf("%s:%s:%s:%s", adapterID, version, templateID, prompt)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])[:12]
}

// summarize truncates raw output for provenance records.
func summarize(text string) string {
	if len(text) <= 200 {
		return text
	}
	return text[:200] + "..."
}

// countTokens approximates token usage for adapters that do not report it.
func countTokens(text string) int {
	return len(strings.Fields(text))
}
