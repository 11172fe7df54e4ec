package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"carsales/internal/generator"
)

// Config configures the Gemini generator.
type Config struct {
	APIKeyEnv   string
	Model       string
	Temperature *float32
}

// Generator answers prompts with a Gemini model.
type Generator struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
	logger    *slog.Logger
}

// New creates a Gemini client. The API key is read from cfg.APIKeyEnv.
func New(ctx context.Context, cfg Config) (*Generator, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "GEMINI_API_KEY"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("%w: env %s", generator.ErrMissingAPIKey, cfg.APIKeyEnv)
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(key))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	model := client.GenerativeModel(cfg.Model)
	if cfg.Temperature != nil {
		model.SetTemperature(*cfg.Temperature)
	}
	return &Generator{
		client:    client,
		model:     model,
		modelName: cfg.Model,
		logger:    slog.Default().With("component", "gemini-generator"),
	}, nil
}

func (g *Generator) Name() string { return "gemini:" + g.modelName }

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		g.logger.Error("failed to generate content", "err", err)
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := responseText(resp)
	if text == "" {
		return "", generator.ErrEmptyResponse
	}
	return text, nil
}

// Close releases the underlying client.
func (g *Generator) Close() error { return g.client.Close() }

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String())
}
