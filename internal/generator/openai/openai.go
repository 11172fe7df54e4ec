package openai

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"carsales/internal/generator"
)

// Config configures the OpenAI-compatible generator.
type Config struct {
	BaseURL     string
	APIKeyEnv   string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Generator answers prompts through an OpenAI-compatible chat endpoint.
type Generator struct {
	llm         llms.Model
	model       string
	temperature float64
	logger      *slog.Logger
}

func New(cfg Config) (*Generator, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("%w: env %s", generator.ErrMissingAPIKey, cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(key),
		openai.WithModel(cfg.Model),
		openai.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	return &Generator{
		llm:         llm,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      slog.Default().With("component", "openai-generator"),
	}, nil
}

func (g *Generator) Name() string { return "openai:" + g.model }

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt, llms.WithTemperature(g.temperature))
	if err != nil {
		g.logger.Error("failed to generate content", "err", err)
		return "", fmt.Errorf("openai generate: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", generator.ErrEmptyResponse
	}
	return out, nil
}
