package adapter

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"text/template"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Template identifiers. Retry variants tighten the instructions after a
// reply that could not be parsed or scored too low.
const (
	TemplateReduce         = "reduce_v1"
	TemplateReduceRetry    = "reduce_v1_retry"
	TemplateSymbolize      = "symbolize_v1"
	TemplateSymbolizeRetry = "symbolize_v1_retry"
)

// Schema names embedded in prompts and echoed in provenance.
const (
	SchemaClaimHints = "claim_hints_v1"
	SchemaCandidates = "logical_candidates_v1"
)

var templateTexts = map[string]string{
	TemplateReduce: `Split the statement below into minimal clause segments and list any presuppositions its quantifiers introduce.
Segments are byte-offset spans into the statement exactly as given.
Reply with a single JSON object matching the {{.Schema}} contract.

Statement:
{{.Input}}`,

	TemplateReduceRetry: `Your previous reply could not be used. Reply with ONLY a JSON object matching the {{.Schema}} contract, no prose and no code fences.
Segments are byte-offset spans into the statement exactly as given; do not paraphrase.

Statement:
{{.Input}}`,

	TemplateSymbolize: `The statement below was reduced to the atomic claims listed in the legend.
Compose candidate logical forms over those claim symbols using AND, OR, NOT, IMPLIES, IFF and modal operators.
Reply with a single JSON object matching the {{.Schema}} contract.

Statement:
{{.Input}}

Legend:
{{.Legend}}`,

	TemplateSymbolizeRetry: `Your previous reply could not be used. Reply with ONLY a JSON object matching the {{.Schema}} contract, no prose and no code fences.
Reference only symbols present in the legend.

Statement:
{{.Input}}

Legend:
{{.Legend}}`,
}

// PromptData is the fill for a prompt template.
type PromptData struct {
	Input  string
	Schema string
	Legend string
}

// TemplateSet renders prompt templates. The set is read-only after
// construction; rendered prompts are memoized in a cache that is safe
// for concurrent readers.
type TemplateSet struct {
	templates map[string]*template.Template
	memo      *gocache.Cache
}

// NewTemplateSet parses the built-in templates.
func NewTemplateSet() *TemplateSet {
	parsed := make(map[string]*template.Template, len(templateTexts))
	for id, text := range templateTexts {
		parsed[id] = template.Must(template.New(id).Parse(text))
	}
	return &TemplateSet{
		templates: parsed,
		memo:      gocache.New(time.Hour, 10*time.Minute),
	}
}

// Render fills the identified template with data.
func (s *TemplateSet) Render(id string, data PromptData) (string, error) {
	tmpl, ok := s.templates[id]
	if !ok {
		return "", fmt.Errorf("unknown template %q", id)
	}

	key := renderKey(id, data)
	if cached, found := s.memo.Get(key); found {
		if prompt, ok := cached.(string); ok {
			return prompt, nil
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering template %q: %w", id, err)
	}
	prompt := buf.String()
	s.memo.Set(key, prompt, gocache.DefaultExpiration)
	return prompt, nil
}

// Retry maps a template to its stricter retry variant.
func Retry(id string) string {
	switch id {
	case TemplateReduce:
		return TemplateReduceRetry
	case TemplateSymbolize:
		return TemplateSymbolizeRetry
	default:
		return id
	}
}

func renderKey(id string, data PromptData) string {
	sum := sha256.Sum256([]byte(data.Input + "\x00" + data.Schema + "\x00" + data.Legend))
	return id + ":" + hex.EncodeToString(sum[:])[:16]
}
