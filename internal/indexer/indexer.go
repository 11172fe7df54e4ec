// Package indexer builds the vector index for a car catalog.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"carsales/internal/catalog"
	"carsales/internal/domain"
	"carsales/internal/embedding"
)

// Report summarises one build.
type Report struct {
	Count     int
	Dimension int
	Duration  time.Duration
}

// Indexer embeds catalog rows and writes them to a vector store.
type Indexer struct {
	embedder domain.Embedder
	store    domain.VectorStore
	workers  int
	logger   *slog.Logger
}

// Option configures an Indexer.
type Option func(*Indexer) error

// WithWorkers sets the embedding pool size.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithWorkers(n int) Option {
	return func(ix *Indexer) error {
		if n > 0 {
			ix.workers = n
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Indexer) error {
		if logger == nil {
			logger = slog.Default()
		}
		ix.logger = logger
		return nil
	}
}

func New(embedder domain.Embedder, store domain.VectorStore, opts ...Option) (*Indexer, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}
	workers := runtime.NumCPU() / 2
	if workers < 1 {
		workers = 1
	}
	ix := &Indexer{
		embedder: embedder,
		store:    store,
		workers:  workers,
		logger:   slog.Default().With("component", "indexer"),
	}
	for _, opt := range opts {
		if err := opt(ix); err != nil {
			return nil, err
		}
	}
	return ix, nil
}

// Build replaces the store contents with the given cars.
func (ix *Indexer) Build(ctx context.Context, cars []domain.Car) (Report, error) {
	start := time.Now()
	if len(cars) == 0 {
		return Report{}, ErrEmptyCatalog
	}
	texts := catalog.EmbeddingTexts(cars)
	if err := ix.embedder.Prepare(ctx, texts); err != nil {
		return Report{}, fmt.Errorf("prepare embedder: %w", err)
	}

	vectors, err := ix.embedAll(ctx, texts)
	if err != nil {
		return Report{}, err
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return Report{}, fmt.Errorf("car %d: embedding has %d dimensions, want %d", cars[i].ID, len(v), dim)
		}
		embedding.Normalize(v)
	}

	if err := ix.store.Init(ctx, dim); err != nil {
		return Report{}, fmt.Errorf("init store: %w", err)
	}
	if err := ix.store.Clear(ctx); err != nil {
		return Report{}, fmt.Errorf("clear store: %w", err)
	}
	if err := ix.store.Upsert(ctx, cars, vectors); err != nil {
		return Report{}, fmt.Errorf("upsert: %w", err)
	}

	rep := Report{Count: len(cars), Dimension: dim, Duration: time.Since(start)}
	ix.logger.Info("index built", "cars", rep.Count, "dimension", rep.Dimension, "embedder", ix.embedder.Name(), "took", rep.Duration)
	return rep, nil
}

// embedAll embeds texts on a worker pool. The first failure cancels the rest.
func (ix *Indexer) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool, err := ants.NewPool(ix.workers)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	vectors := make([][]float32, len(texts))
	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}
	for i, text := range texts {
		i, text := i, text
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			v, err := ix.embedder.Embed(ctx, text)
			if err != nil {
				ix.logger.Error("error embedding car", "row", i, "err", err)
				fail(fmt.Errorf("embed row %d: %w", i, err))
				return
			}
			vectors[i] = v
		})
		if submitErr != nil {
			wg.Done()
			fail(submitErr)
			break
		}
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return vectors, nil
}
