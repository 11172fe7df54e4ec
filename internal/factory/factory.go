// Package factory turns an AppConfig into ready components. Both binaries
// assemble themselves through it.
package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"carsales/internal/assets"
	"carsales/internal/cache"
	"carsales/internal/catalog"
	"carsales/internal/config"
	"carsales/internal/domain"
	"carsales/internal/embedding/openai"
	"carsales/internal/embedding/tfidf"
	"carsales/internal/generator/extractive"
	"carsales/internal/generator/gemini"
	genopenai "carsales/internal/generator/openai"
	"carsales/internal/indexer"
	"carsales/internal/prompt"
	"carsales/internal/retrieval"
	"carsales/internal/service"
	"carsales/internal/vectorstore/badger"
	"carsales/internal/vectorstore/memory"
	"carsales/internal/vectorstore/qdrant"
	"carsales/internal/vectorstore/sqlite"
)

// ErrUnknownType is returned for an unsupported component type in the config.
var ErrUnknownType = errors.New("unknown component type")

func Embedder(cfg *config.AppConfig) (domain.Embedder, error) {
	switch cfg.Embedder.Type {
	case "tfidf", "":
		return tfidf.NewEmbedder(), nil
	case "openai":
		oc := cfg.Embedder.OpenAI
		if oc == nil {
			return nil, errors.New("openai embedder config missing")
		}
		return openai.NewClient(openai.Config{
			BaseURL:   oc.BaseURL,
			APIKeyEnv: oc.APIKeyEnv,
			Model:     oc.Model,
			Timeout:   time.Duration(oc.TimeoutSecs) * time.Second,
		})
	}
	return nil, fmt.Errorf("%w: embedder %q", ErrUnknownType, cfg.Embedder.Type)
}

func VectorStore(ctx context.Context, cfg *config.AppConfig) (domain.VectorStore, error) {
	vc := cfg.VectorStore
	switch vc.Type {
	case "memory":
		return memory.NewStorage(), nil
	case "sqlite", "":
		path := "car_index.db"
		if vc.SQLite != nil && vc.SQLite.Path != "" {
			path = vc.SQLite.Path
		}
		return sqlite.Open(ctx, path)
	case "badger":
		path := "car_index"
		if vc.Badger != nil && vc.Badger.Path != "" {
			path = vc.Badger.Path
		}
		return badger.Open(path, false)
	case "qdrant":
		if vc.Qdrant == nil {
			return nil, errors.New("qdrant config missing")
		}
		return qdrant.NewStorage(qdrant.Config{
			URL:        vc.Qdrant.URL,
			APIKey:     os.Getenv(vc.Qdrant.APIKeyEnv),
			Collection: vc.Qdrant.Collection,
			Timeout:    time.Duration(vc.Qdrant.TimeoutSecs) * time.Second,
		}), nil
	}
	return nil, fmt.Errorf("%w: vector store %q", ErrUnknownType, vc.Type)
}

func Generator(ctx context.Context, cfg *config.AppConfig) (domain.Generator, error) {
	gc := cfg.Generator
	switch gc.Type {
	case "gemini":
		var c gemini.Config
		if gm := gc.Gemini; gm != nil {
			c = gemini.Config{APIKeyEnv: gm.APIKeyEnv, Model: gm.Model}
			if gm.Temperature > 0 {
				t := gm.Temperature
				c.Temperature = &t
			}
		}
		return gemini.New(ctx, c)
	case "openai":
		if gc.OpenAI == nil {
			return nil, errors.New("openai generator config missing")
		}
		return genopenai.New(genopenai.Config{
			BaseURL:     gc.OpenAI.BaseURL,
			APIKeyEnv:   gc.OpenAI.APIKeyEnv,
			Model:       gc.OpenAI.Model,
			Temperature: gc.OpenAI.Temperature,
			Timeout:     time.Duration(gc.TimeoutSecs) * time.Second,
		})
	case "extractive":
		n := 0
		if gc.Extractive != nil {
			n = gc.Extractive.MaxSentences
		}
		return extractive.New(n), nil
	}
	return nil, fmt.Errorf("%w: generator %q", ErrUnknownType, gc.Type)
}

func AnswerCache(ctx context.Context, cfg *config.AppConfig) (domain.AnswerCache, error) {
	switch cfg.Cache.Type {
	case "none", "":
		return cache.Nop{}, nil
	case "redis":
		rc := cfg.Cache.Redis
		if rc == nil {
			return nil, errors.New("redis config missing")
		}
		return cache.NewRedis(ctx, cache.RedisConfig{
			Addr:     rc.Addr,
			Password: os.Getenv(rc.PasswordEnv),
			DB:       rc.DB,
			Prefix:   rc.Prefix,
			TTL:      time.Duration(rc.TTLSecs) * time.Second,
		})
	}
	return nil, fmt.Errorf("%w: cache %q", ErrUnknownType, cfg.Cache.Type)
}

func AssetStore(cfg *config.AppConfig) (domain.AssetStore, error) {
	ac := cfg.Assets
	switch ac.Type {
	case "local", "":
		root := "."
		if ac.Local != nil {
			root = ac.Local.Root
		}
		return assets.NewLocalStore(root), nil
	case "minio":
		mc := ac.Minio
		if mc == nil {
			return nil, errors.New("minio config missing")
		}
		return assets.NewMinioStore(assets.MinioConfig{
			Endpoint:  mc.Endpoint,
			AccessKey: os.Getenv(mc.AccessKeyEnv),
			SecretKey: os.Getenv(mc.SecretKeyEnv),
			Bucket:    mc.Bucket,
			UseSSL:    mc.UseSSL,
			Presign:   time.Duration(mc.PresignMinutes) * time.Minute,
		})
	}
	return nil, fmt.Errorf("%w: assets %q", ErrUnknownType, ac.Type)
}

// Catalog loads the configured catalog. A missing file yields no cars and no error.
func Catalog(cfg *config.AppConfig) ([]domain.Car, error) {
	if cfg.Catalog.Path == "" {
		return nil, nil
	}
	cars, err := catalog.Load(cfg.Catalog.Path, catalog.Options{Sheet: cfg.Catalog.Sheet})
	if errors.Is(err, fs.ErrNotExist) {
		slog.Default().Warn("catalog file not found", "path", cfg.Catalog.Path)
		return nil, nil
	}
	return cars, err
}

// App holds the assembled assistant and what it owns.
type App struct {
	Config    *config.AppConfig
	Assistant *service.Assistant
	Assets    domain.AssetStore
	closers   []io.Closer
}

// Close releases stores and clients in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) own(v any) {
	if c, ok := v.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}
}

// Build assembles the assistant from cfg.
func Build(ctx context.Context, cfg *config.AppConfig) (_ *App, err error) {
	app := &App{Config: cfg}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	emb, err := Embedder(cfg)
	if err != nil {
		return nil, err
	}
	store, err := VectorStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}
	app.own(store)
	gen, err := Generator(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create generator: %w", err)
	}
	app.own(gen)
	answers, err := AnswerCache(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create answer cache: %w", err)
	}
	app.own(answers)
	if app.Assets, err = AssetStore(cfg); err != nil {
		return nil, fmt.Errorf("create asset store: %w", err)
	}
	tmpl, err := prompt.Load(cfg.Prompt.TemplatePath)
	if err != nil {
		return nil, err
	}
	cars, err := Catalog(cfg)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	app.Assistant, err = service.NewAssistant(ctx, service.Deps{
		Embedder:  emb,
		Store:     store,
		Generator: gen,
		Cache:     answers,
		Prompt:    tmpl,
	},
		service.WithCatalog(cars),
		service.WithRetrievalOptions(
			retrieval.WithThreshold(cfg.Retrieval.Threshold()),
			retrieval.WithTopK(cfg.Retrieval.TopK),
		),
		service.WithIndexerOptions(indexer.WithWorkers(cfg.Indexer.Workers)),
	)
	if err != nil {
		return nil, err
	}
	return app, nil
}
