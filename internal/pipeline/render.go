package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/formalhaus/formalis/internal/model"
	"github.com/formalhaus/formalis/internal/validate"
)

// Renderer writes formalization results as JSON, YAML or Markdown.
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer. The footer marks generated Markdown
// files with the tool name.
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the result as indented JSON.
func (r *Renderer) RenderJSON(res *model.FormalizationResult, path string) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

// RenderYAML writes the result as YAML. The result is reshaped through
// its JSON form first so YAML keys mirror the JSON field names.
func (r *Renderer) RenderYAML(res *model.FormalizationResult, path string) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	var tree map[string]interface{}
	if err := json.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("reshape result: %w", err)
	}
	data, err := yaml.Marshal(tree)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// RenderMarkdown writes a human-readable report of the result.
func (r *Renderer) RenderMarkdown(res *model.FormalizationResult, path string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Formalization: %s\n\n", truncateText(res.CanonicalText, 80))
	fmt.Fprintf(&b, "- Request: `%s`\n", res.RequestID)
	fmt.Fprintf(&b, "- Confidence: %.2f\n", res.Confidence)
	fmt.Fprintf(&b, "- Logical form: `%s`\n", res.ChosenLogicalForm.Notation)
	fmt.Fprintf(&b, "- CNF: `%s`\n\n", res.CNF)

	b.WriteString("## Legend\n\n")
	b.WriteString("| Symbol | Claim | Atomic claim |\n")
	b.WriteString("|--------|-------|--------------|\n")
	for _, c := range res.AtomicClaims {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", c.Symbol, c.Identifier, c.Text)
	}
	b.WriteString("\n")

	b.WriteString("## Atomic claims\n\n")
	for _, c := range res.AtomicClaims {
		fmt.Fprintf(&b, "- **%s** (%s) %s", c.Identifier, c.Symbol, c.Text)
		if c.ModalContext != model.ModalityNone {
			fmt.Fprintf(&b, " _[%s]_", c.ModalContext)
		}
		if len(c.OriginSpans) > 0 {
			fmt.Fprintf(&b, " · %s", spanList(c.OriginSpans))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString("## Candidate logical forms\n\n")
	for i, cand := range res.LogicalFormCandidates {
		marker := " "
		if res.ChosenLogicalForm != nil && cand.Notation == res.ChosenLogicalForm.Notation {
			marker = "*"
		}
		fmt.Fprintf(&b, "%d. %s `%s` (%s, confidence %.2f)\n", i+1, marker, cand.Notation, cand.Source, cand.Confidence)
	}
	b.WriteString("\n")

	if len(res.CNFClauses) > 0 {
		b.WriteString("## CNF clauses\n\n")
		for i, clause := range res.CNFClauses {
			fmt.Fprintf(&b, "%d. `%s`", i+1, strings.Join(clause, " ∨ "))
			if i < len(res.ClauseLegend) {
				fmt.Fprintf(&b, " → %s", strings.Join(res.ClauseLegend[i], ", "))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if res.ModalMetadata.HasModal {
		b.WriteString("## Modal structure\n\n")
		for _, m := range res.ModalMetadata.Markers {
			fmt.Fprintf(&b, "- %s over %s", m.Op, m.Claim)
			if m.Token != "" {
				fmt.Fprintf(&b, " (%q at %d..%d)", m.Token, m.Span.Start, m.Span.End)
			}
			b.WriteString("\n")
		}
		if len(res.ModalMetadata.OpaqueTokens) > 0 {
			fmt.Fprintf(&b, "- Opaque literals: `%s`\n", strings.Join(res.ModalMetadata.OpaqueTokens, "`, `"))
		}
		b.WriteString("\n")
	}

	if len(res.EnrichmentSources) > 0 {
		b.WriteString("## Enrichment sources\n\n")
		for _, src := range res.EnrichmentSources {
			fmt.Fprintf(&b, "- %s\n", src)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Validation\n\n")
	b.WriteString("```\n")
	b.WriteString(validate.Describe(res.Validation))
	b.WriteString("```\n\n")

	if len(res.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range res.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Provenance\n\n")
	b.WriteString("| Stage | Record | Confidence | Flags | Events |\n")
	b.WriteString("|-------|--------|------------|-------|--------|\n")
	for _, rec := range res.Provenance {
		flags := strings.Join(rec.AmbiguityFlags, ", ")
		if flags == "" {
			flags = "-"
		}
		fmt.Fprintf(&b, "| %s | `%s` | %.2f | %s | %d |\n", rec.StageID, rec.ID, rec.Confidence, flags, len(rec.EventLog))
	}
	b.WriteString("\n")

	if r.includeFooter {
		b.WriteString("---\n\n*Generated by formalis*\n")
	}

	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// RenderSummary prints a short result block to stdout.
func (r *Renderer) RenderSummary(res *model.FormalizationResult) {
	line := strings.Repeat("─", 46)
	fmt.Println()
	fmt.Println(line)
	fmt.Printf("  %s\n", truncateText(res.CanonicalText, 60))
	fmt.Println(line)
	fmt.Printf("  Claims:     %d\n", len(res.AtomicClaims))
	fmt.Printf("  Form:       %s\n", res.ChosenLogicalForm.Notation)
	fmt.Printf("  CNF:        %s\n", res.CNF)
	fmt.Printf("  Confidence: %.2f\n", res.Confidence)
	if res.Validation.Contradiction {
		fmt.Println("  Contradiction detected")
	}
	if len(res.Warnings) > 0 {
		fmt.Printf("  Warnings:   %d\n", len(res.Warnings))
	}
	fmt.Println(line)
}

func truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func spanList(spans []model.Span) string {
	parts := make([]string, len(spans))
	for i, s := range spans {
		parts[i] = fmt.Sprintf("%d..%d", s.Start, s.End)
	}
	return strings.Join(parts, ", ")
}
