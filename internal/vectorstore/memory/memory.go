package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"carsales/internal/domain"
	"carsales/internal/vectorstore"
)

// Storage is a simple in-memory vector store using brute-force inner product.
// Entries are keyed by car id; upserting an existing id replaces it.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	vectors   map[int][]float32
	cars      map[int]domain.Car
}

func NewStorage() *Storage {
	return &Storage{vectors: make(map[int][]float32), cars: make(map[int]domain.Car)}
}

func (s *Storage) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return vectorstore.ErrInvalidDimension
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension != dimension {
		s.vectors = make(map[int][]float32)
		s.cars = make(map[int]domain.Car)
	}
	s.dimension = dimension
	return nil
}

func (s *Storage) Upsert(_ context.Context, cars []domain.Car, vectors [][]float32) error {
	if len(cars) != len(vectors) {
		return vectorstore.ErrLengthMismatch
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension == 0 {
		return errors.New("memory store not initialized")
	}
	for _, v := range vectors {
		if len(v) != s.dimension {
			return vectorstore.ErrDimensionMismatch
		}
	}
	for i, car := range cars {
		s.cars[car.ID] = car
		s.vectors[car.ID] = vectors[i]
	}
	return nil
}

func (s *Storage) Search(_ context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.vectors) > 0 && len(vector) != s.dimension {
		return nil, vectorstore.ErrDimensionMismatch
	}
	candidates := make([]vectorstore.Candidate, 0, len(s.vectors))
	for id, v := range s.vectors {
		candidates = append(candidates, vectorstore.Candidate{Car: s.cars[id], Vector: v})
	}
	return vectorstore.Rank(candidates, vector, topK), nil
}

func (s *Storage) Records(context.Context) ([]domain.Car, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Car, 0, len(s.cars))
	for _, c := range s.cars {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Storage) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors = make(map[int][]float32)
	s.cars = make(map[int]domain.Car)
	return nil
}

func (s *Storage) Close() error { return nil }
