package factory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carsales/internal/config"
	"carsales/internal/domain"
	"carsales/internal/generator"
)

const sampleCSV = `nama,spesifikasi,keunggulan,perbedaan,url brosur,gambar,brosur
D-Max,Pickup diesel 4x4,Tangguh di medan berat,"{'Penggerak': '4x4'}",https://isuzu.example/dmax.pdf,images/dmax.png,brosur/dmax.pdf
MU-X,SUV tujuh penumpang,Nyaman untuk keluarga,"{'Penggerak': '4x2'}",https://isuzu.example/mux.pdf,,
`

func offlineConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "car_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))
	yaml := `
catalog:
  path: ` + path + `
vector_store:
  type: sqlite
  sqlite:
    path: ` + filepath.Join(dir, "index.db") + `
generator:
  type: extractive
assets:
  local:
    root: ` + dir + `
`
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0o644))
	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	return cfg
}

func TestBuildOffline(t *testing.T) {
	ctx := context.Background()
	cfg := offlineConfig(t)

	app, err := Build(ctx, cfg)
	require.NoError(t, err)

	ans, err := app.Assistant.Ask(ctx, "apa keunggulan mu-x?")
	require.NoError(t, err)
	assert.Equal(t, domain.StrategyMention, ans.Strategy)
	assert.Contains(t, ans.Text, "Nyaman untuk keluarga")
	assert.Len(t, app.Assistant.Cars(), 2)
	require.NoError(t, app.Close())

	// the sqlite index is reused without the catalog
	cfg.Catalog.Path = ""
	app, err = Build(ctx, cfg)
	require.NoError(t, err)
	defer app.Close()
	assert.Len(t, app.Assistant.Cars(), 2)
}

func TestUnknownTypes(t *testing.T) {
	ctx := context.Background()
	cfg := offlineConfig(t)

	cfg.Embedder.Type = "word2vec"
	_, err := Embedder(cfg)
	assert.ErrorIs(t, err, ErrUnknownType)

	cfg.VectorStore.Type = "faiss"
	_, err = VectorStore(ctx, cfg)
	assert.ErrorIs(t, err, ErrUnknownType)

	cfg.Generator.Type = "llama"
	_, err = Generator(ctx, cfg)
	assert.ErrorIs(t, err, ErrUnknownType)

	cfg.Cache.Type = "memcached"
	_, err = AnswerCache(ctx, cfg)
	assert.ErrorIs(t, err, ErrUnknownType)

	cfg.Assets.Type = "ftp"
	_, err = AssetStore(cfg)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestGeminiNeedsKey(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.Generator = config.GeneratorConfig{Type: "gemini", Gemini: &config.GeminiConfig{APIKeyEnv: "CARSALES_TEST_NO_KEY"}}
	t.Setenv("CARSALES_TEST_NO_KEY", "")
	_, err := Generator(context.Background(), cfg)
	assert.ErrorIs(t, err, generator.ErrMissingAPIKey)
}

func TestCatalogMissingFile(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.Catalog.Path = filepath.Join(t.TempDir(), "nope.csv")
	cars, err := Catalog(cfg)
	require.NoError(t, err)
	assert.Nil(t, cars)
}

func TestBuildWithoutIndexOrCatalog(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.Catalog.Path = ""
	cfg.VectorStore.Type = "memory"
	_, err := Build(context.Background(), cfg)
	assert.Error(t, err)
}
