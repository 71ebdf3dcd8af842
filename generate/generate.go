// Package generate turns a routed question into a candidate aggregation
// pipeline via an external language model.
//
// The generator is stateless between calls: everything it needs — question,
// descriptor, normalization prefix, prior failure — is passed explicitly.
// Model output is untrusted; it is parsed here and validated downstream.
package generate

import (
	"context"

	"go.uber.org/zap"

	"github.com/datawarta/tanya/catalog"
	"github.com/datawarta/tanya/intent"
	"github.com/datawarta/tanya/pipeline"
)

// Completer is the language-model boundary: one prompt in, text out.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Feedback carries a prior attempt's failure back into the next generation,
// instructing the model to correct only the offending stage.
type Feedback struct {
	Reason     string
	StageIndex int               // -1 when no single stage is at fault
	Pipeline   pipeline.Pipeline // the rejected/failed candidate, for context
}

// Generator builds pipeline candidates from questions.
type Generator struct {
	model      Completer // pipeline-writing model (low temperature)
	translator Completer // conversational model for the translation pass; may be nil
	logger     *zap.SugaredLogger
}

// New creates a Generator. translator may be nil to skip the
// Indonesian→English pass.
func New(model, translator Completer, logger *zap.SugaredLogger) *Generator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Generator{model: model, translator: translator, logger: logger}
}

// Generate produces a candidate for the attempt. The normalization prefix is
// prepended to whatever the model returns, so generated stages always run
// against canonical fields. A response that cannot be parsed into stages
// returns an error wrapping pipeline.ErrMalformed for the engine's retry
// loop.
func (g *Generator) Generate(
	ctx context.Context,
	q intent.QueryIntent,
	desc catalog.CollectionDescriptor,
	norm []pipeline.Stage,
	prior *Feedback,
	attempt int,
) (pipeline.Candidate, error) {
	question := g.translate(ctx, q)

	system := buildSystemPrompt(desc, norm)
	user := buildUserPrompt(question, q, prior)

	g.logger.Debugw("Generating pipeline",
		"collection", desc.Name,
		"attempt", attempt,
		"retry", prior != nil,
	)

	response, err := g.model.Complete(ctx, system, user)
	if err != nil {
		return pipeline.Candidate{}, err
	}

	stages, err := pipeline.ParseModelOutput(response)
	if err != nil {
		return pipeline.Candidate{}, err
	}

	full := make(pipeline.Pipeline, 0, len(norm)+len(stages))
	full = append(full, norm...)
	full = append(full, stages...)

	return pipeline.Candidate{
		Collection: desc.Name,
		Stages:     full,
		NormCount:  len(norm),
		Attempt:    attempt,
	}, nil
}

// translate runs the Indonesian→English pass when the question is Indonesian
// and a translator is configured. Translation failure is never fatal: the
// original text is used as-is, matching the production system's fallback.
func (g *Generator) translate(ctx context.Context, q intent.QueryIntent) string {
	if g.translator == nil || q.Locale != "id" {
		return q.Text
	}

	translated, err := g.translator.Complete(ctx, "", buildTranslationPrompt(q.Text))
	if err != nil || translated == "" {
		g.logger.Warnw("Translation pass failed, using original question",
			"error", err)
		return q.Text
	}

	g.logger.Debugw("Translated question", "original", q.Text, "translated", translated)
	return translated
}
