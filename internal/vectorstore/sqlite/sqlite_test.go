package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carsales/internal/domain"
	"carsales/internal/vectorstore/storetest"
)

func TestStorage(t *testing.T) {
	storetest.Run(t, func(t *testing.T) domain.VectorStore {
		s, err := Open(context.Background(), filepath.Join(t.TempDir(), "index.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestIndexSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Init(ctx, 3))
	cars, vectors := storetest.Cars()
	require.NoError(t, s.Upsert(ctx, cars, vectors))
	require.NoError(t, s.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, 3, reopened.dimension)

	got, err := reopened.Records(ctx)
	require.NoError(t, err)
	assert.Equal(t, cars, got)

	// same dimension keeps rows
	require.NoError(t, reopened.Init(ctx, 3))
	got, err = reopened.Records(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	// new dimension drops them
	require.NoError(t, reopened.Init(ctx, 4))
	got, err = reopened.Records(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}
