// Package retrieval picks the catalog cars that answer a question: first by
// name, then by embedding similarity.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"carsales/internal/domain"
	"carsales/internal/embedding"
)

const (
	// DefaultThreshold is the minimum similarity a semantic hit must exceed.
	DefaultThreshold = 0.4
	// DefaultTopK keeps only the nearest neighbour.
	DefaultTopK = 1
)

var (
	ErrEmbedderRequired = errors.New("embedder is required")
	ErrStoreRequired    = errors.New("vector store is required")
)

// Retriever runs the two-stage match over a fixed catalog.
type Retriever struct {
	cars      []domain.Car
	embedder  domain.Embedder
	store     domain.VectorStore
	threshold float64
	topK      int
	logger    *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithThreshold sets the similarity a hit must strictly exceed.
func WithThreshold(threshold float64) Option {
	return func(r *Retriever) error {
		if threshold < -1 || threshold > 1 {
			return fmt.Errorf("threshold %v outside [-1, 1]", threshold)
		}
		r.threshold = threshold
		return nil
	}
}

// WithTopK sets how many neighbours the vector search returns.
func WithTopK(k int) Option {
	return func(r *Retriever) error {
		if k > 0 {
			r.topK = k
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRetriever creates a retriever over cars. The embedder must already be
// prepared with the corpus the store was built from.
func NewRetriever(cars []domain.Car, embedder domain.Embedder, store domain.VectorStore, opts ...Option) (*Retriever, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}
	r := &Retriever{
		cars:      cars,
		embedder:  embedder,
		store:     store,
		threshold: DefaultThreshold,
		topK:      DefaultTopK,
		logger:    slog.Default().With("component", "retriever"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Mentioned returns every car named in question, in catalog order.
func (r *Retriever) Mentioned(question string) []domain.Car {
	var out []domain.Car
	for _, c := range r.cars {
		if IsMentioned(c.Name, question) {
			out = append(out, c)
		}
	}
	return out
}

// Retrieve selects the cars for question.
func (r *Retriever) Retrieve(ctx context.Context, question string) (domain.Retrieval, error) {
	if mentioned := r.Mentioned(question); len(mentioned) > 0 {
		matches := make([]domain.Match, len(mentioned))
		for i, c := range mentioned {
			matches[i] = domain.Match{Car: c}
		}
		r.logger.Debug("cars mentioned by name", "count", len(matches))
		return domain.Retrieval{Strategy: domain.StrategyMention, Matches: matches}, nil
	}

	vec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		r.logger.Error("error generating embedding for question", "err", err)
		return domain.Retrieval{}, fmt.Errorf("embed question: %w", err)
	}
	vec = embedding.Normalize(vec)
	if embedding.IsZero(vec) {
		r.logger.Debug("question shares no terms with the catalog")
		return domain.Retrieval{Strategy: domain.StrategyNone}, nil
	}

	hits, err := r.store.Search(ctx, vec, r.topK)
	if err != nil {
		r.logger.Error("error querying vector store", "err", err)
		return domain.Retrieval{}, fmt.Errorf("search index: %w", err)
	}
	var matches []domain.Match
	for _, h := range hits {
		if h.Score > r.threshold {
			matches = append(matches, domain.Match{Car: h.Car, Score: h.Score, Scored: true})
		}
	}
	if len(matches) == 0 {
		if len(hits) > 0 {
			r.logger.Debug("nearest car below threshold", "car", hits[0].Car.Name, "score", hits[0].Score, "threshold", r.threshold)
		}
		return domain.Retrieval{Strategy: domain.StrategyNone}, nil
	}
	return domain.Retrieval{Strategy: domain.StrategySemantic, Matches: matches}, nil
}
