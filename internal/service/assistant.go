// Package service wires retrieval, prompting, caching and generation into the
// question answering assistant.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"carsales/internal/cache"
	"carsales/internal/catalog"
	"carsales/internal/domain"
	"carsales/internal/indexer"
	"carsales/internal/prompt"
	"carsales/internal/retrieval"
)

// Deps are the components an Assistant is built from. Cache and Prompt are optional.
type Deps struct {
	Embedder  domain.Embedder
	Store     domain.VectorStore
	Generator domain.Generator
	Cache     domain.AnswerCache
	Prompt    *prompt.Template
}

// Assistant answers questions about the car catalog.
type Assistant struct {
	cars      []domain.Car
	byID      map[int]domain.Car
	retriever *retrieval.Retriever
	tmpl      *prompt.Template
	generator domain.Generator
	cache     domain.AnswerCache
	logger    *slog.Logger

	catalog       []domain.Car
	retrievalOpts []retrieval.Option
	indexerOpts   []indexer.Option
}

// Option configures an Assistant.
type Option func(*Assistant) error

// WithCatalog supplies catalog rows used to build the index when the store is empty.
func WithCatalog(cars []domain.Car) Option {
	return func(a *Assistant) error {
		a.catalog = cars
		return nil
	}
}

// WithRetrievalOptions passes options through to the retriever.
func WithRetrievalOptions(opts ...retrieval.Option) Option {
	return func(a *Assistant) error {
		a.retrievalOpts = append(a.retrievalOpts, opts...)
		return nil
	}
}

// WithIndexerOptions passes options through to the in-process index build.
func WithIndexerOptions(opts ...indexer.Option) Option {
	return func(a *Assistant) error {
		a.indexerOpts = append(a.indexerOpts, opts...)
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assistant) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// NewAssistant loads the indexed catalog from the store, building it first
// when the store is empty and a catalog was supplied.
func NewAssistant(ctx context.Context, deps Deps, opts ...Option) (*Assistant, error) {
	if deps.Generator == nil {
		return nil, ErrGeneratorRequired
	}
	a := &Assistant{
		tmpl:      deps.Prompt,
		generator: deps.Generator,
		cache:     deps.Cache,
		logger:    slog.Default().With("component", "assistant"),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	if a.cache == nil {
		a.cache = cache.Nop{}
	}
	if a.tmpl == nil {
		t, err := prompt.New(prompt.Default)
		if err != nil {
			return nil, err
		}
		a.tmpl = t
	}
	if deps.Store == nil {
		return nil, retrieval.ErrStoreRequired
	}
	if deps.Embedder == nil {
		return nil, retrieval.ErrEmbedderRequired
	}

	cars, err := deps.Store.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("load index records: %w", err)
	}
	switch {
	case len(cars) == 0 && len(a.catalog) == 0:
		return nil, ErrNoIndex
	case len(cars) == 0:
		a.logger.Info("index is empty, building from catalog", "cars", len(a.catalog))
		ix, err := indexer.New(deps.Embedder, deps.Store, a.indexerOpts...)
		if err != nil {
			return nil, err
		}
		if _, err := ix.Build(ctx, a.catalog); err != nil {
			return nil, fmt.Errorf("build index: %w", err)
		}
		cars = a.catalog
	default:
		if len(a.catalog) > 0 && len(a.catalog) != len(cars) {
			a.logger.Warn("index and catalog differ, rebuild the index", "indexed", len(cars), "catalog", len(a.catalog))
		}
		if err := deps.Embedder.Prepare(ctx, catalog.EmbeddingTexts(cars)); err != nil {
			return nil, fmt.Errorf("prepare embedder: %w", err)
		}
	}
	a.catalog = nil

	a.cars = cars
	a.byID = make(map[int]domain.Car, len(cars))
	for _, c := range cars {
		a.byID[c.ID] = c
	}
	a.retriever, err = retrieval.NewRetriever(cars, deps.Embedder, deps.Store, a.retrievalOpts...)
	if err != nil {
		return nil, err
	}
	a.logger.Info("assistant ready", "cars", len(cars), "generator", a.generator.Name())
	return a, nil
}

// Ask answers one question.
func (a *Assistant) Ask(ctx context.Context, question string) (domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.Answer{}, ErrEmptyQuestion
	}

	r, err := a.retriever.Retrieve(ctx, question)
	if err != nil {
		return domain.Answer{}, err
	}
	p, err := a.tmpl.Render(prompt.Input{
		Question: question,
		Context:  retrieval.BuildContext(r),
		CarList:  retrieval.CarList(a.cars),
	})
	if err != nil {
		return domain.Answer{}, err
	}
	ans := domain.Answer{Question: question, Strategy: r.Strategy, Matches: r.Matches}

	key := cache.Key(a.generator.Name(), p)
	if text, ok, err := a.cache.Get(ctx, key); err != nil {
		a.logger.Warn("answer cache lookup failed", "err", err)
	} else if ok {
		ans.Text, ans.Cached = text, true
		a.logger.Debug("answer served from cache", "strategy", r.Strategy)
		return ans, nil
	}

	text, err := a.generator.Generate(ctx, p)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("generate answer: %w", err)
	}
	if err := a.cache.Set(ctx, key, text); err != nil {
		a.logger.Warn("answer cache store failed", "err", err)
	}
	ans.Text = text
	a.logger.Info("question answered", "strategy", r.Strategy, "matches", len(r.Matches))
	return ans, nil
}

// Cars returns the indexed catalog in id order.
func (a *Assistant) Cars() []domain.Car {
	return append([]domain.Car(nil), a.cars...)
}

// Car looks a car up by id.
func (a *Assistant) Car(id int) (domain.Car, bool) {
	c, ok := a.byID[id]
	return c, ok
}
