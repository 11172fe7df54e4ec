// Package storetest exercises a domain.VectorStore implementation against the
// behaviour every backend shares.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carsales/internal/domain"
	"carsales/internal/vectorstore"
)

// Cars returns a small fixed catalog whose vectors are the unit axes.
func Cars() ([]domain.Car, [][]float32) {
	cars := []domain.Car{
		{ID: 0, Name: "D-Max", Specification: "Pickup", Differences: []domain.Attribute{{Key: "Mesin", Value: "1.9L"}}},
		{ID: 1, Name: "MU-X", Specification: "SUV", BrochureURL: "https://isuzu.example/mux.pdf"},
		{ID: 2, Name: "Traga", Specification: "Truk", Extra: map[string]string{"harga": "200jt"}},
	}
	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	return cars, vectors
}

// Run executes the shared suite. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) domain.VectorStore) {
	t.Run("init rejects bad dimension", func(t *testing.T) {
		s := newStore(t)
		assert.ErrorIs(t, s.Init(context.Background(), 0), vectorstore.ErrInvalidDimension)
	})

	t.Run("upsert length mismatch", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.Init(ctx, 3))
		cars, vectors := Cars()
		assert.ErrorIs(t, s.Upsert(ctx, cars, vectors[:2]), vectorstore.ErrLengthMismatch)
	})

	t.Run("upsert dimension mismatch", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.Init(ctx, 3))
		cars, _ := Cars()
		err := s.Upsert(ctx, cars[:1], [][]float32{{1, 0}})
		assert.ErrorIs(t, err, vectorstore.ErrDimensionMismatch)
	})

	t.Run("search ranks by inner product", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.Init(ctx, 3))
		cars, vectors := Cars()
		require.NoError(t, s.Upsert(ctx, cars, vectors))

		res, err := s.Search(ctx, []float32{0.2, 0.9, 0.1}, 1)
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, "MU-X", res[0].Car.Name)
		assert.InDelta(t, 0.9, res[0].Score, 1e-6)

		res, err = s.Search(ctx, []float32{0.2, 0.9, 0.1}, 10)
		require.NoError(t, err)
		require.Len(t, res, 3)
		assert.Equal(t, []int{1, 0, 2}, []int{res[0].Car.ID, res[1].Car.ID, res[2].Car.ID})
	})

	t.Run("records round trip in id order", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.Init(ctx, 3))
		cars, vectors := Cars()
		// reversed insertion order
		require.NoError(t, s.Upsert(ctx, []domain.Car{cars[2], cars[1], cars[0]}, [][]float32{vectors[2], vectors[1], vectors[0]}))

		got, err := s.Records(ctx)
		require.NoError(t, err)
		assert.Equal(t, cars, got)
	})

	t.Run("upsert replaces by id", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.Init(ctx, 3))
		cars, vectors := Cars()
		require.NoError(t, s.Upsert(ctx, cars, vectors))

		renamed := cars[0]
		renamed.Name = "D-Max RZ4E"
		require.NoError(t, s.Upsert(ctx, []domain.Car{renamed}, [][]float32{{0, 0, 1}}))

		got, err := s.Records(ctx)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "D-Max RZ4E", got[0].Name)

		res, err := s.Search(ctx, []float32{0, 0, 1}, 2)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 2}, []int{res[0].Car.ID, res[1].Car.ID})
	})

	t.Run("clear empties the store", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.Init(ctx, 3))
		cars, vectors := Cars()
		require.NoError(t, s.Upsert(ctx, cars, vectors))
		require.NoError(t, s.Clear(ctx))

		got, err := s.Records(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)

		res, err := s.Search(ctx, []float32{1, 0, 0}, 1)
		require.NoError(t, err)
		assert.Empty(t, res)
	})
}
