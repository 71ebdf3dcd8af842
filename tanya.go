// Package tanya answers natural-language business questions (Indonesian or
// English) from a set of pre-aggregated MongoDB collections.
//
// A question flows through collection routing, language-model pipeline
// generation, format normalization, static validation, bounded-retry
// execution, and finally narrative insight generation:
//
//	svc, err := tanya.NewService(ctx, cfg)
//	answer, err := svc.Ask(ctx, tanya.Question{Text: "tampilkan penjualan per lokasi bulan juni"})
//
// On success the answer carries the rows, the collection used, the attempt
// count and (best-effort) a business narrative. On terminal failure the
// error is an *engine.RequestError carrying the full diagnostic trail.
package tanya

import (
	"context"
	"time"

	"github.com/datawarta/tanya/ai/openrouter"
	"github.com/datawarta/tanya/catalog"
	"github.com/datawarta/tanya/config"
	"github.com/datawarta/tanya/engine"
	"github.com/datawarta/tanya/generate"
	"github.com/datawarta/tanya/insight"
	"github.com/datawarta/tanya/intent"
	"github.com/datawarta/tanya/logger"
	"github.com/datawarta/tanya/router"
	"github.com/datawarta/tanya/store"
	mongostore "github.com/datawarta/tanya/store/mongo"
)

// Question is one caller request.
type Question struct {
	Text   string
	Locale string            // optional locale hint ("id"/"en")
	Range  *intent.DateRange // optional explicit period
}

// Answer is the caller-facing result.
type Answer = insight.Insight

// Service wires the full pipeline over a live store and the two model roles.
type Service struct {
	engine   *engine.Engine
	insights *insight.Generator
	store    *mongostore.Store
	language string
}

// NewService connects to the document store and assembles the pipeline from
// configuration.
func NewService(ctx context.Context, cfg *config.Config) (*Service, error) {
	st, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Store.URI,
		Database: cfg.Store.Database,
		Timeout:  time.Duration(cfg.Store.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	svc := assemble(cfg, st, catalog.Default())
	svc.store = st
	return svc, nil
}

// NewServiceWithStore assembles the pipeline over an injected store and
// catalog. Intended for tests and embedders with their own store layer.
func NewServiceWithStore(cfg *config.Config, st store.Store, cat *catalog.Catalog) *Service {
	return assemble(cfg, st, cat)
}

func assemble(cfg *config.Config, st store.Store, cat *catalog.Catalog) *Service {
	genModel := openrouter.NewClient(openrouter.Config{
		APIKey:            cfg.OpenRouter.APIKey,
		Model:             cfg.OpenRouter.Generator.Model,
		Temperature:       &cfg.OpenRouter.Generator.Temperature,
		MaxTokens:         &cfg.OpenRouter.Generator.MaxTokens,
		Timeout:           time.Duration(cfg.OpenRouter.Generator.TimeoutSeconds) * time.Second,
		RequestsPerMinute: cfg.OpenRouter.RequestsPerMinute,
		Logger:            logger.Logger,
	})
	narratorModel := openrouter.NewClient(openrouter.Config{
		APIKey:            cfg.OpenRouter.APIKey,
		Model:             cfg.OpenRouter.Narrator.Model,
		Temperature:       &cfg.OpenRouter.Narrator.Temperature,
		MaxTokens:         &cfg.OpenRouter.Narrator.MaxTokens,
		Timeout:           time.Duration(cfg.OpenRouter.Narrator.TimeoutSeconds) * time.Second,
		RequestsPerMinute: cfg.OpenRouter.RequestsPerMinute,
		Logger:            logger.Logger,
	})

	gen := generate.New(genModel, narratorModel, logger.Logger)

	eng := engine.New(cat, gen, st, engine.Options{
		MaxAttempts: cfg.Engine.MaxAttempts,
		Router: router.Config{
			PrimaryWeight:   cfg.Router.PrimaryWeight,
			SecondaryWeight: cfg.Router.SecondaryWeight,
			MinScore:        cfg.Router.MinScore,
		},
		Logger: logger.Logger,
	})

	return &Service{
		engine:   eng,
		insights: insight.New(narratorModel, cfg.Insight.MaxRows, logger.Logger),
		language: cfg.Insight.Language,
	}
}

// Ask resolves, executes and narrates one question.
func (s *Service) Ask(ctx context.Context, q Question) (*Answer, error) {
	res, err := s.engine.Execute(ctx, engine.Request{
		Question: q.Text,
		Locale:   q.Locale,
		Range:    q.Range,
	})
	if err != nil {
		return nil, err
	}

	language := q.Locale
	if language == "" {
		language = res.Locale
	}
	if language == "" {
		language = s.language
	}

	answer := s.insights.Summarize(ctx, res, language)
	return &answer, nil
}

// Health reports readiness of the catalog and store.
func (s *Service) Health(ctx context.Context) engine.Health {
	return s.engine.Health(ctx)
}

// Close releases the store connection, when the service owns one.
func (s *Service) Close(ctx context.Context) error {
	if s.store != nil {
		return s.store.Close(ctx)
	}
	return nil
}
