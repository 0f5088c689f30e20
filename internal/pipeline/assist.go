package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/formalhaus/formalis/internal/adapter"
	"github.com/formalhaus/formalis/internal/ledger"
	"github.com/formalhaus/formalis/internal/model"
)

// assistSpec describes one assisted stage: the template to issue, the
// contract name the reply must honor, how to parse the reply and how to
// read its confidence.
type assistSpec[T any] struct {
	templateID string
	schema     string
	data       adapter.PromptData
	parse      func(raw json.RawMessage) (*T, error)
	confidence func(payload *T) float64
	threshold  float64
}

// assistOutcome reports how an assisted stage obtained its payload.
type assistOutcome struct {
	fellBack bool  // The deterministic fallback produced the payload
	review   bool  // Adapter attempts failed; human review was flagged
	err      error // The run was cancelled mid-attempt
}

// runAssisted drives the adapter policy for one assisted stage: a first
// call, exactly one retry with the stricter template on parse failure or
// low confidence, then the deterministic fallback. Every attempt lands in
// the recorder with its elapsed time and outcome. A nil payload tells the
// caller to take its fallback path.
func runAssisted[T any](ctx context.Context, p *Pipeline, rec *ledger.Recorder, input string, spec assistSpec[T]) (*T, assistOutcome) {
	if p.adapter == nil {
		rec.Event(model.EventFallback, "no adapter configured, deterministic path")
		return nil, assistOutcome{fellBack: true}
	}

	templateID := spec.templateID
	for attempt := 0; attempt < 2; attempt++ {
		if attempt == 0 {
			rec.Event(model.EventAttempt, "adapter call with template "+templateID)
		} else {
			templateID = adapter.Retry(spec.templateID)
			rec.Event(model.EventRetry, "retrying with template "+templateID)
		}

		prompt, err := p.templates.Render(templateID, spec.data)
		if err != nil {
			// Template failures are configuration-level; a retry with the
			// same broken set cannot help.
			rec.Event(model.EventAdapterError, fmt.Sprintf("template %s: %v", templateID, err))
			break
		}

		attemptCtx := ctx
		cancel := context.CancelFunc(func() {})
		if p.opts.AdapterTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, p.opts.AdapterTimeout)
		}
		start := time.Now()
		resp, err := p.adapter.Request(attemptCtx, adapter.Request{
			TemplateID: templateID,
			Prompt:     prompt,
			Input:      input,
			Schema:     spec.schema,
			MaxTokens:  p.opts.Adapter.MaxTokens,
		})
		elapsed := time.Since(start)
		cancel()

		if cerr := ctx.Err(); cerr != nil {
			return nil, assistOutcome{err: cerr}
		}
		if err != nil {
			rec.Timed(model.EventAdapterError, fmt.Sprintf("%s: %v", templateID, err), elapsed)
			continue
		}
		if len(resp.ParsedJSON) == 0 {
			rec.Timed(model.EventParseError, templateID+": reply carried no JSON object", elapsed)
			continue
		}
		payload, perr := spec.parse(resp.ParsedJSON)
		if perr != nil {
			rec.Timed(model.EventParseError, fmt.Sprintf("%s: %v", templateID, perr), elapsed)
			continue
		}
		if c := spec.confidence(payload); c < spec.threshold {
			rec.Timed(model.EventLowConfidence, fmt.Sprintf("%s: confidence %.2f below threshold %.2f", templateID, c, spec.threshold), elapsed)
			continue
		}

		rec.SetAdapter(resp.Provenance.AdapterID, resp.Provenance.TemplateID, resp.Provenance.RequestID)
		rec.Timed(model.EventSuccess, "adapter reply accepted from "+templateID, elapsed)
		return payload, assistOutcome{}
	}

	rec.Event(model.EventFallback, "adapter attempts exhausted, deterministic fallback")
	rec.AddFlag(model.FlagHumanReview)
	return nil, assistOutcome{fellBack: true, review: true}
}
