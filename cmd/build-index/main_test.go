package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carsales/internal/vectorstore/sqlite"
)

const catalogCSV = `nama,spesifikasi,keunggulan,perbedaan,url brosur,gambar,brosur
D-Max,Pickup diesel 4x4,Tangguh di medan berat,"{'Penggerak': '4x4'}",https://isuzu.example/dmax.pdf,,
,,,,,,
MU-X,SUV tujuh penumpang,Nyaman untuk keluarga,"{'Penggerak': '4x2'}",https://isuzu.example/mux.pdf,,
`

func TestBuildIndex(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "cars.csv")
	dbPath := filepath.Join(dir, "index.db")
	require.NoError(t, os.WriteFile(csvPath, []byte(catalogCSV), 0o644))
	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := "vector_store:\n  type: sqlite\n  sqlite:\n    path: " + dbPath + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	err := newApp().Run([]string{"build-index", "-c", cfgPath, "--catalog", csvPath, "--workers", "2"})
	require.NoError(t, err)

	ctx := context.Background()
	store, err := sqlite.Open(ctx, dbPath)
	require.NoError(t, err)
	defer store.Close()
	cars, err := store.Records(ctx)
	require.NoError(t, err)
	require.Len(t, cars, 2)
	assert.Equal(t, "D-Max", cars[0].Name)
	assert.Equal(t, "MU-X", cars[1].Name)
}

func TestBuildIndexMissingCatalog(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := "catalog:\n  path: " + filepath.Join(dir, "missing.csv") + "\nvector_store:\n  type: memory\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	err := newApp().Run([]string{"build-index", "-c", cfgPath})
	assert.ErrorIs(t, err, errNoCatalog)
}
