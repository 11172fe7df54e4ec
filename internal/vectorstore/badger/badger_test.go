package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carsales/internal/domain"
	"carsales/internal/vectorstore/storetest"
)

func TestStorage(t *testing.T) {
	storetest.Run(t, func(t *testing.T) domain.VectorStore {
		s, err := Open("", true)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestCarKeyOrder(t *testing.T) {
	assert.Less(t, string(carKey(9)), string(carKey(10)))
	assert.Equal(t, "car/0000000042", string(carKey(42)))
}

func TestIndexSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(dir, false)
	require.NoError(t, err)
	require.NoError(t, s.Init(ctx, 3))
	cars, vectors := storetest.Cars()
	require.NoError(t, s.Upsert(ctx, cars, vectors))
	require.NoError(t, s.Close())

	reopened, err := Open(dir, false)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, 3, reopened.dimension)

	res, err := reopened.Search(ctx, []float32{0, 0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Traga", res[0].Car.Name)
}
