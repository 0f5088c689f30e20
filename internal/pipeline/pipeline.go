// Package pipeline wires the formalization stages into sequential runs:
// ingest, preprocess, enrich, reduce, symbolize, CNF transformation,
// validation and assembly. A run handles exactly one statement; the
// pipeline itself holds no per-run state and is safe to share across
// goroutines.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/formalhaus/formalis/internal/adapter"
	"github.com/formalhaus/formalis/internal/cnf"
	"github.com/formalhaus/formalis/internal/ledger"
	"github.com/formalhaus/formalis/internal/logic"
	"github.com/formalhaus/formalis/internal/model"
	"github.com/formalhaus/formalis/internal/preprocess"
	"github.com/formalhaus/formalis/internal/reduce"
	"github.com/formalhaus/formalis/internal/retrieve"
	"github.com/formalhaus/formalis/internal/score"
	"github.com/formalhaus/formalis/internal/symbolize"
	"github.com/formalhaus/formalis/internal/validate"
)

// Version identifies the assembly revision in provenance records.
const Version = "1.0.0"

// enrichTopK bounds how many context documents enrichment keeps per run.
const enrichTopK = 3

// walkConfidence is assigned to claims from the deterministic offset walk
// when no adapter hints were usable.
const walkConfidence = 0.6

// Pipeline turns natural-language statements into formalization results.
type Pipeline struct {
	opts      model.Options
	adapter   adapter.Adapter
	retriever retrieve.Retriever
	templates *adapter.TemplateSet
}

// New builds a pipeline from resolved options. Reproducible mode pins the
// adapter to the deterministic mock and disables retrieval so reruns of
// the same input agree field for field.
func New(opts model.Options) (*Pipeline, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	adapterID := opts.AdapterID
	if opts.ReproducibleMode {
		adapterID = "mock"
	}
	a, err := adapter.New(adapterID, adapter.ConfigFromOptions(opts))
	if err != nil {
		return nil, err
	}

	var r retrieve.Retriever
	if opts.RetrievalEnabled && !opts.ReproducibleMode {
		r, err = retrieve.New(opts.Retrieval)
		if err != nil {
			return nil, err
		}
	}

	return &Pipeline{opts: opts, adapter: a, retriever: r, templates: adapter.NewTemplateSet()}, nil
}

// NewWithComponents builds a pipeline around explicit adapter and
// retriever instances. Tests use it to inject scripted behavior.
func NewWithComponents(opts model.Options, a adapter.Adapter, r retrieve.Retriever) (*Pipeline, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{opts: opts, adapter: a, retriever: r, templates: adapter.NewTemplateSet()}, nil
}

// Options returns the resolved configuration the pipeline runs with.
func (p *Pipeline) Options() model.Options {
	return p.opts
}

// Formalize runs every stage over one statement and assembles the result.
// Input and configuration problems surface as InputError and ConfigError;
// broken invariants between stage outputs surface as ValidationError.
// Adapter trouble never escapes: the retry and fallback policy absorbs it
// and the event log tells the story.
func (p *Pipeline) Formalize(ctx context.Context, text string) (*model.FormalizationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	led := ledger.New(p.opts.Salt, p.opts.ReproducibleMode)
	var records []model.ProvenanceRecord
	var warnings []string
	confidences := make(map[model.StageID]float64)

	// Ingest: normalize and bound the raw statement.
	normalized, err := preprocess.Normalize(text)
	if err != nil {
		return nil, err
	}
	requestID := led.RequestID(normalized)
	fullSpan := model.Span{Start: 0, End: len(normalized)}

	ingestRec := led.Recorder(model.StageIngest, preprocess.Version)
	ingestRec.Excerpt(model.EventSuccess, "statement normalized", normalized, fullSpan)
	records = append(records, ingestRec.Finish(normalized, 1, []model.Span{fullSpan}))
	confidences[model.StageIngest] = 1

	// Preprocess: clause segmentation and marker annotation.
	pre := preprocess.Run(normalized)
	if len(pre.Clauses) == 0 {
		return nil, &model.ValidationError{Stage: model.StagePreprocess, Reason: "no clause spans produced"}
	}
	preRec := led.Recorder(model.StagePreprocess, preprocess.Version)
	preRec.Event(model.EventSuccess, fmt.Sprintf("%d clause spans, %d annotations", len(pre.Clauses), len(pre.Annotations)))
	records = append(records, preRec.Finish(normalized, 1, clauseSpans(pre)))
	confidences[model.StagePreprocess] = 1

	// Enrich: optional retrieval of background context. Advisory only, a
	// failed retrieval warns and the run continues.
	enriched, err := p.enrich(ctx, led, normalized)
	if err != nil {
		return nil, err
	}
	sources := enriched.Payload
	records = append(records, enriched.Provenance)
	warnings = append(warnings, enriched.Warnings...)
	confidences[model.StageEnrich] = enriched.Confidence

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Reduce: carve the statement into atomic claims.
	reduced, err := p.reduceStage(ctx, led, normalized, pre)
	if err != nil {
		return nil, err
	}
	claims := reduced.Payload
	records = append(records, reduced.Provenance)
	warnings = append(warnings, reduced.Warnings...)
	confidences[model.StageReduce] = reduced.Confidence

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Symbolize: assign the legend and settle on a logical form.
	symbolized, err := p.symbolizeStage(ctx, led, normalized, pre, claims)
	if err != nil {
		return nil, err
	}
	legend, candidates, chosen := symbolized.Payload.Legend, symbolized.Payload.Candidates, symbolized.Payload.Chosen
	records = append(records, symbolized.Provenance)
	warnings = append(warnings, symbolized.Warnings...)
	confidences[model.StageSymbolize] = symbolized.Confidence

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Transform the chosen form into CNF.
	cnfRes, err := cnf.Transform(chosen.Root, p.opts.MaxClauses)
	if err != nil {
		return nil, &model.ValidationError{Stage: model.StageCNF, Reason: err.Error()}
	}
	cnfRec := led.Recorder(model.StageCNF, cnf.Version)
	for _, w := range cnfRes.Warnings {
		cnfRec.Event(model.EventWarning, w)
	}
	warnings = append(warnings, cnfRes.Warnings...)
	if cnfRes.Tautology {
		cnfRec.AddFlag(model.FlagTrivialTautology)
		warnings = append(warnings, "trivial_tautology: the logical form simplified to true")
	}
	cnfRec.Event(model.EventSuccess, fmt.Sprintf("%d clauses", len(cnfRes.Clauses)))
	records = append(records, cnfRec.Finish(normalized, 1, claimOrigins(claims)))
	confidences[model.StageCNF] = 1

	// Validate coverage, contradiction and confidence.
	report, valWarnings, err := validate.Check(validate.Input{
		Claims:             claims,
		Legend:             legend,
		CNF:                cnfRes,
		StageConfidences:   confidences,
		CoverageThreshold:  p.opts.ProvenanceCoverageThreshold,
		ContradictionFloor: p.opts.ContradictionFloor,
	})
	if err != nil {
		return nil, err
	}
	valRec := led.Recorder(model.StageValidate, validate.Version)
	for _, issue := range report.Issues {
		valRec.Event(model.EventWarning, issue)
	}
	valRec.Event(model.EventSuccess, "validation complete")
	warnings = append(warnings, valWarnings...)
	records = append(records, valRec.Finish(normalized, report.Confidence, nil))

	// Assemble. The result is built whole before anything observes it, so
	// a caller never sees a partially filled record set.
	asmRec := led.Recorder(model.StageAssemble, Version)
	asmRec.Event(model.EventSuccess, fmt.Sprintf("result assembled with %d claims, %d clauses", len(claims), len(cnfRes.Clauses)))
	records = append(records, asmRec.Finish(normalized, report.Confidence, []model.Span{fullSpan}))

	if p.opts.PrivacyMode == model.PrivacyStrict {
		for i := range records {
			records[i] = led.Redact(records[i], model.PrivacyStrict)
		}
		for i := range claims {
			if claims[i].Provenance != nil {
				r := led.Redact(*claims[i].Provenance, model.PrivacyStrict)
				claims[i].Provenance = &r
			}
		}
		for i, src := range sources {
			if !ledger.Redacted(src) {
				sources[i] = retrieve.SourceID(src)
			}
		}
	}

	chosenCopy := *chosen
	return &model.FormalizationResult{
		RequestID:             requestID,
		OriginalText:          text,
		CanonicalText:         normalized,
		EnrichmentSources:     sources,
		AtomicClaims:          claims,
		Legend:                legend,
		LogicalFormCandidates: candidates,
		ChosenLogicalForm:     &chosenCopy,
		CNF:                   cnfRes.Rendered,
		CNFClauses:            signedClauses(cnfRes),
		ClauseLegend:          cnfRes.ClauseTokens,
		ModalMetadata:         modalMetadata(pre, claims, cnfRes),
		Validation:            report,
		Warnings:              warnings,
		Confidence:            report.Confidence,
		Provenance:            records,
	}, nil
}

// enrich consults the retriever when one is configured. Document URLs
// become enrichment sources; summaries land in the event log as excerpts
// so strict privacy can redact them later.
func (p *Pipeline) enrich(ctx context.Context, led *ledger.Ledger, normalized string) (*model.StageResult[[]string], error) {
	rec := led.Recorder(model.StageEnrich, retrieve.Version)
	var sources []string
	var warnings []string

	if p.retriever == nil {
		reason := "retrieval disabled"
		if p.opts.ReproducibleMode {
			reason = "retrieval disabled in reproducible mode"
		}
		rec.Event(model.EventSkipped, reason)
		return &model.StageResult[[]string]{Provenance: rec.Finish(normalized, 1, nil), Confidence: 1}, nil
	}

	docs, err := p.retriever.Retrieve(ctx, normalized, enrichTopK)
	if cerr := ctx.Err(); cerr != nil {
		return nil, cerr
	}
	if err != nil {
		rec.Event(model.EventWarning, fmt.Sprintf("retrieval failed: %v", err))
		warnings = append(warnings, fmt.Sprintf("enrichment unavailable: %v", err))
	}
	for _, doc := range docs {
		rec.AddSource(doc.URL)
		sources = append(sources, doc.URL)
		summary, serr := p.retriever.Summarize(ctx, doc, model.Span{})
		if serr != nil {
			continue
		}
		rec.Excerpt(model.EventSuccess, fmt.Sprintf("context from %s, %s relevance", doc.SourceID, score.Band(doc.Score)), summary)
	}
	if len(docs) > 0 {
		rec.Event(model.EventSuccess, fmt.Sprintf("%d context documents", len(docs)))
	}
	return &model.StageResult[[]string]{
		Payload:    sources,
		Provenance: rec.Finish(normalized, 1, nil),
		Confidence: 1,
		Warnings:   warnings,
	}, nil
}

// reduceStage obtains atomic claims, preferring adapter hints and falling
// back to the deterministic offset walk. Zero claims is fatal: nothing
// downstream can work without at least one.
func (p *Pipeline) reduceStage(ctx context.Context, led *ledger.Ledger, normalized string, pre *preprocess.Result) (*model.StageResult[[]model.AtomicClaim], error) {
	rec := led.Recorder(model.StageReduce, reduce.Version)
	var warnings []string

	hints, outcome := runAssisted(ctx, p, rec, normalized, assistSpec[reduce.Hints]{
		templateID: adapter.TemplateReduce,
		schema:     adapter.SchemaClaimHints,
		data:       adapter.PromptData{Input: normalized, Schema: adapter.SchemaClaimHints},
		parse: func(raw json.RawMessage) (*reduce.Hints, error) {
			var h reduce.Hints
			if err := json.Unmarshal(raw, &h); err != nil {
				return nil, err
			}
			if err := reduce.ValidateHints(&h, normalized); err != nil {
				return nil, err
			}
			return &h, nil
		},
		confidence: func(h *reduce.Hints) float64 { return h.Confidence },
		threshold:  p.opts.StageConfidenceThreshold,
	})
	if outcome.err != nil {
		return nil, outcome.err
	}
	if outcome.review {
		warnings = append(warnings, "human_review: claim reduction fell back after failed adapter attempts")
	}

	var claims []model.AtomicClaim
	var rationale string
	conf := walkConfidence
	if outcome.fellBack {
		claims, rationale = reduce.Walk(pre)
	} else {
		claims, rationale = reduce.Expand(pre, hints)
		conf = hints.Confidence
	}
	if p.opts.QuantifierReductionDetail {
		rationale = reduce.DetailRationale(rationale, claims)
	}
	if len(claims) == 0 {
		return nil, &model.ValidationError{Stage: model.StageReduce, Reason: "no atomic claims produced"}
	}

	for i := range claims {
		claims[i].Provenance = claimRecord(led, normalized, claims[i], conf)
	}

	rec.SetRationale(rationale)
	rec.Event(model.EventSuccess, fmt.Sprintf("%d atomic claims", len(claims)))
	return &model.StageResult[[]model.AtomicClaim]{
		Payload:    claims,
		Provenance: rec.Finish(normalized, conf, claimOrigins(claims)),
		Confidence: conf,
		Warnings:   warnings,
	}, nil
}

// symbolizeStage assigns the legend, collects candidate logical forms and
// settles on one. Candidates come from the adapter when possible; a
// structural reading stands in when the adapter path failed, and the flat
// conjunction remains the reading of last resort when every candidate was
// screened out.
func (p *Pipeline) symbolizeStage(ctx context.Context, led *ledger.Ledger, normalized string, pre *preprocess.Result, claims []model.AtomicClaim) (*model.StageResult[symbolize.Output], error) {
	rec := led.Recorder(model.StageSymbolize, symbolize.Version)
	var warnings []string

	legend := symbolize.Assign(claims)
	if err := symbolize.VerifyBijection(claims, legend); err != nil {
		return nil, &model.ValidationError{Stage: model.StageSymbolize, Reason: err.Error()}
	}
	rec.Event(model.EventSuccess, fmt.Sprintf("legend of %d symbols", len(legend)))

	payload, outcome := runAssisted(ctx, p, rec, normalized, assistSpec[symbolize.CandidatePayload]{
		templateID: adapter.TemplateSymbolize,
		schema:     adapter.SchemaCandidates,
		data:       adapter.PromptData{Input: normalized, Schema: adapter.SchemaCandidates, Legend: legendLines(claims)},
		parse: func(raw json.RawMessage) (*symbolize.CandidatePayload, error) {
			var cp symbolize.CandidatePayload
			if err := json.Unmarshal(raw, &cp); err != nil {
				return nil, err
			}
			if cp.Confidence < 0 || cp.Confidence > 1 {
				return nil, fmt.Errorf("confidence %v out of range", cp.Confidence)
			}
			return &cp, nil
		},
		confidence: func(cp *symbolize.CandidatePayload) float64 { return cp.Confidence },
		threshold:  p.opts.StageConfidenceThreshold,
	})
	if outcome.err != nil {
		return nil, outcome.err
	}
	if outcome.review {
		warnings = append(warnings, "human_review: symbolization fell back after failed adapter attempts")
	}

	var candidates []model.LogicalForm
	conf := symbolize.FallbackConfidence
	if outcome.fellBack {
		root := symbolize.BuildDeterministicCandidate(pre, claims)
		candidates = []model.LogicalForm{{
			Root:       root,
			Notation:   logic.Render(root),
			Confidence: symbolize.FallbackConfidence,
			Source:     "deterministic",
		}}
	} else {
		valid, rejected := symbolize.Screen(payload.Candidates, legend, len(claims))
		for _, reason := range rejected {
			rec.Event(model.EventWarning, "discarded candidate: "+reason)
			warnings = append(warnings, "discarded symbolization candidate: "+reason)
		}
		candidates = valid
		conf = payload.Confidence
		if len(candidates) == 0 {
			fb := symbolize.Fallback(claims)
			candidates = []model.LogicalForm{fb}
			rec.AddFlag(model.FlagDefaultConjunction)
			rec.Event(model.EventFallback, "no candidate survived screening, default conjunction")
			warnings = append(warnings, "default_conjunction: no candidate logical form survived screening")
			conf = symbolize.FallbackConfidence
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
	if len(candidates) > p.opts.TopKSymbolizations {
		candidates = candidates[:p.opts.TopKSymbolizations]
	}
	chosen := symbolize.Choose(candidates)
	rec.Event(model.EventSuccess, "chose "+chosen.Notation)

	return &model.StageResult[symbolize.Output]{
		Payload:    symbolize.Output{Legend: legend, Candidates: candidates, Chosen: chosen},
		Provenance: rec.Finish(normalized, conf, claimOrigins(claims)),
		Confidence: conf,
		Warnings:   warnings,
	}, nil
}

// claimRecord mints the compact per-claim record tying one claim to the
// reduction that produced it. The id is derived from the claim identity
// so equal inputs mint equal ids.
func claimRecord(led *ledger.Ledger, normalized string, c model.AtomicClaim, confidence float64) *model.ProvenanceRecord {
	rec := led.Recorder(model.StageReduce, reduce.Version)
	rec.Excerpt(model.EventSuccess, "claim "+c.Identifier, c.Text, c.OriginSpans...)
	r := rec.Finish(normalized+"\x00"+c.Identifier, confidence, c.OriginSpans)
	return &r
}

// legendLines renders the legend in claim order for prompt templates.
func legendLines(claims []model.AtomicClaim) string {
	var b strings.Builder
	for _, c := range claims {
		fmt.Fprintf(&b, "%s: %s\n", c.Symbol, c.Text)
	}
	return b.String()
}

func clauseSpans(pre *preprocess.Result) []model.Span {
	out := make([]model.Span, len(pre.Clauses))
	for i, c := range pre.Clauses {
		out[i] = c.Span
	}
	return out
}

func claimOrigins(claims []model.AtomicClaim) []model.Span {
	var out []model.Span
	for _, c := range claims {
		out = append(out, c.OriginSpans...)
	}
	return out
}

// signedClauses renders each CNF clause as its literal strings, negation
// signs included.
func signedClauses(res *cnf.Result) [][]string {
	if len(res.Clauses) == 0 {
		return nil
	}
	out := make([][]string, len(res.Clauses))
	for i, c := range res.Clauses {
		out[i] = c.Strings()
	}
	return out
}

// modalMetadata collects modal markers over the claims plus the opaque
// tokens the transformer carried through as single literals.
func modalMetadata(pre *preprocess.Result, claims []model.AtomicClaim, res *cnf.Result) model.ModalMetadata {
	var meta model.ModalMetadata
	for _, c := range claims {
		if c.ModalContext == model.ModalityNone {
			continue
		}
		meta.HasModal = true
		marker := model.ModalMarker{Claim: c.Identifier, Op: c.ModalContext}
		if len(c.OriginSpans) > 0 {
			marker.Span = c.OriginSpans[0]
			kind := preprocess.MarkerModalNecessity
			if c.ModalContext == model.ModalityPossibility {
				kind = preprocess.MarkerModalPossibility
			}
			if hits := pre.Within(c.OriginSpans[0], kind); len(hits) > 0 {
				marker.Span = hits[0].Span
				marker.Token = hits[0].Token
			}
		}
		meta.Markers = append(meta.Markers, marker)
	}

	seen := make(map[string]bool)
	for _, clause := range res.Clauses {
		for _, lit := range clause.Literals {
			if lit.Modal == nil || seen[lit.Token] {
				continue
			}
			seen[lit.Token] = true
			meta.OpaqueTokens = append(meta.OpaqueTokens, lit.Token)
			meta.HasModal = true
		}
	}
	return meta
}
