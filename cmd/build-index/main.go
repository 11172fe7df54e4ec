package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"carsales/internal/config"
	"carsales/internal/factory"
	"carsales/internal/indexer"
	"carsales/internal/logging"
)

// errNoCatalog is returned when the configured catalog file is missing or empty.
var errNoCatalog = errors.New("catalog has no cars")

func main() {
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "build-index",
		Usage: "Embed the car catalog and save it to the configured vector store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file (default ./config.yaml or ~/.config/carsales/config.yaml)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "catalog",
				Usage: "Catalog file (.csv or .xlsx); overrides catalog.path",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of concurrent embedding workers; overrides indexer.workers",
			},
		},
		Before: setupLogger,
		Action: buildCommand,
	}
}

func setupLogger(c *cli.Context) error {
	_, err := logging.Setup(c.String("log-level"), "", os.Stderr)
	return err
}

func buildCommand(c *cli.Context) error {
	ctx := c.Context

	var cfg *config.AppConfig
	var err error
	if p := c.String("config"); p != "" {
		cfg, err = config.Load(p)
	} else {
		cfg, _, err = config.LoadDefault()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if p := c.String("catalog"); p != "" {
		cfg.Catalog.Path = p
	}
	if n := c.Int("workers"); n > 0 {
		cfg.Indexer.Workers = n
	}
	if cfg.VectorStore.Type == "memory" {
		slog.Warn("memory vector store does not persist, the index is lost on exit")
	}

	cars, err := factory.Catalog(cfg)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	if len(cars) == 0 {
		return fmt.Errorf("%w: %s", errNoCatalog, cfg.Catalog.Path)
	}

	emb, err := factory.Embedder(cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}
	store, err := factory.VectorStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open vector store: %w", err)
	}
	defer store.Close()

	ix, err := indexer.New(emb, store, indexer.WithWorkers(cfg.Indexer.Workers))
	if err != nil {
		return err
	}
	report, err := ix.Build(ctx, cars)
	if err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}
	slog.Info("index and metadata saved",
		"store", cfg.VectorStore.Type,
		"cars", report.Count,
		"dimension", report.Dimension,
		"duration", report.Duration,
	)
	return nil
}
