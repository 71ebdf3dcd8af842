// Package engine composes routing, generation, validation and execution into
// the top-level query entry point.
//
// Each request walks an explicit state machine:
//
//	Routing → Generating → Validating → Executing → Done
//
// Rejected validation and store failures transition back to Generating
// carrying failure context, up to a fixed maximum attempt count. A routing
// miss fails the request without consuming a generation attempt. No pipeline
// is ever executed without an accepting verdict.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/datawarta/tanya/catalog"
	"github.com/datawarta/tanya/generate"
	"github.com/datawarta/tanya/intent"
	"github.com/datawarta/tanya/normalize"
	"github.com/datawarta/tanya/pipeline"
	"github.com/datawarta/tanya/router"
	"github.com/datawarta/tanya/store"
)

// DefaultMaxAttempts bounds the self-correction retry loop.
const DefaultMaxAttempts = 3

// Request is one incoming question plus optional caller hints.
type Request struct {
	Question string
	Locale   string            // "id"/"en"; empty = detect
	Range    *intent.DateRange // explicit period; nil = detect from text
}

// Result is a successful execution: raw rows plus metadata. Never mutated
// after creation.
type Result struct {
	Collection string            `json:"collection_used"`
	Attempts   int               `json:"attempts"`
	Rows       []store.Document  `json:"rows"`
	Pipeline   pipeline.Pipeline `json:"pipeline"`
	Elapsed    time.Duration     `json:"elapsed"`
	Question   string            `json:"question"`
	Locale     string            `json:"locale"`
}

// Engine is the query resolution and execution pipeline. Stateless between
// requests; safe for concurrent use, sharing only the immutable catalog.
type Engine struct {
	catalog     *catalog.Catalog
	router      *router.Router
	generator   *generate.Generator
	store       store.Store
	maxAttempts int
	logger      *zap.SugaredLogger
}

// Options tunes an Engine.
type Options struct {
	MaxAttempts int
	Router      router.Config
	Logger      *zap.SugaredLogger
}

// New wires an Engine from its collaborators.
func New(cat *catalog.Catalog, gen *generate.Generator, st store.Store, opts Options) *Engine {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Engine{
		catalog:     cat,
		router:      router.New(cat, opts.Router),
		generator:   gen,
		store:       st,
		maxAttempts: opts.MaxAttempts,
		logger:      logger,
	}
}

// request states
type state int

const (
	stateRouting state = iota
	stateGenerating
	stateValidating
	stateExecuting
	stateFailed
)

// Execute resolves and runs a question end-to-end. On success the result
// reports the collection used and total attempts; on terminal failure the
// returned error is a *RequestError carrying every attempt's diagnostic,
// most recent first.
func (e *Engine) Execute(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	var rangeOpt *intent.DateRange
	if req.Range != nil {
		rangeOpt = req.Range
	}
	q := intent.Parse(req.Question, intent.Options{Locale: req.Locale, Range: rangeOpt})

	e.logger.Infow("Executing query",
		"question", req.Question,
		"locale", q.Locale,
		"dimensions", q.Dimensions,
	)

	var (
		st        = stateRouting
		desc      catalog.CollectionDescriptor
		norm      []pipeline.Stage
		candidate pipeline.Candidate
		prior     *generate.Feedback
		diags     []Diagnostic
		attempt   int
	)

	for {
		switch st {
		case stateRouting:
			ranked := e.router.Route(q)
			if len(ranked) == 0 {
				diags = append(diags, Diagnostic{
					Attempt:    0,
					Kind:       RoutingMiss,
					Reason:     "no collection matches the question above the relevance threshold",
					StageIndex: -1,
				})
				st = stateFailed
				continue
			}
			desc = ranked[0]
			norm = normalize.Stages(desc)
			e.logger.Debugw("Routed question", "collection", desc.Name, "candidates", len(ranked))
			st = stateGenerating

		case stateGenerating:
			if attempt >= e.maxAttempts {
				st = stateFailed
				continue
			}
			attempt++

			cand, err := e.generator.Generate(ctx, q, desc, norm, prior, attempt)
			if err != nil {
				kind := classifyGenerationError(err)
				diags = append(diags, Diagnostic{Attempt: attempt, Kind: kind, Reason: err.Error(), StageIndex: -1})
				e.logger.Warnw("Generation failed", "attempt", attempt, "kind", kind, "error", err)
				prior = &generate.Feedback{Reason: err.Error(), StageIndex: -1}
				continue
			}
			candidate = cand
			st = stateValidating

		case stateValidating:
			verdict := pipeline.Validate(candidate, desc)
			if !verdict.Accepted {
				diags = append(diags, Diagnostic{
					Attempt:    attempt,
					Kind:       ValidationRejected,
					Reason:     verdict.Reason,
					StageIndex: verdict.StageIndex,
				})
				e.logger.Warnw("Candidate rejected",
					"attempt", attempt, "reason", verdict.Reason, "stage", verdict.StageIndex)
				prior = &generate.Feedback{
					Reason:     verdict.Reason,
					StageIndex: verdict.StageIndex,
					Pipeline:   candidate.Stages,
				}
				st = stateGenerating
				continue
			}
			st = stateExecuting

		case stateExecuting:
			rows, err := e.store.RunPipeline(ctx, candidate.Collection, candidate.Stages)
			if err != nil {
				kind, stageIdx := classifyStoreError(err)
				diags = append(diags, Diagnostic{Attempt: attempt, Kind: kind, Reason: err.Error(), StageIndex: stageIdx})
				e.logger.Warnw("Store execution failed",
					"attempt", attempt, "collection", candidate.Collection, "error", err)
				prior = &generate.Feedback{
					Reason:     err.Error(),
					StageIndex: stageIdx,
					Pipeline:   candidate.Stages,
				}
				st = stateGenerating
				continue
			}

			elapsed := time.Since(start)
			e.logger.Infow("Query executed",
				"collection", candidate.Collection,
				"attempts", attempt,
				"rows", len(rows),
				"elapsed", elapsed,
			)
			return &Result{
				Collection: candidate.Collection,
				Attempts:   attempt,
				Rows:       rows,
				Pipeline:   candidate.Stages,
				Elapsed:    elapsed,
				Question:   req.Question,
				Locale:     q.Locale,
			}, nil

		case stateFailed:
			// Diagnostics surface most recent first.
			reversed := make([]Diagnostic, len(diags))
			for i, d := range diags {
				reversed[len(diags)-1-i] = d
			}
			err := &RequestError{
				Question:    req.Question,
				Attempts:    attempt,
				Diagnostics: reversed,
			}
			e.logger.Errorw("Query failed terminally",
				"question", req.Question,
				"attempts", attempt,
				"failures", len(reversed),
			)
			return nil, err
		}
	}
}
