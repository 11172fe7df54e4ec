package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// CatalogConfig points at the tabular source the index is built from.
type CatalogConfig struct {
	Path  string `yaml:"path"`
	Sheet string `yaml:"sheet,omitempty"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	SQLite *SQLiteConfig `yaml:"sqlite,omitempty"`
	Badger *BadgerConfig `yaml:"badger,omitempty"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// SQLiteConfig locates the sqlite index file.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// BadgerConfig locates the badger index directory.
type BadgerConfig struct {
	Path string `yaml:"path"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// GeminiConfig configures the Gemini generator.
type GeminiConfig struct {
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
}

// OpenAIGeneratorConfig configures an OpenAI-compatible chat generator.
type OpenAIGeneratorConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

// ExtractiveConfig configures the offline extractive generator.
type ExtractiveConfig struct {
	MaxSentences int `yaml:"max_sentences"`
}

// GeneratorConfig selects and configures the answer generator.
type GeneratorConfig struct {
	Type        string                 `yaml:"type"`
	TimeoutSecs int                    `yaml:"timeout_secs"`
	Gemini      *GeminiConfig          `yaml:"gemini,omitempty"`
	OpenAI      *OpenAIGeneratorConfig `yaml:"openai,omitempty"`
	Extractive  *ExtractiveConfig      `yaml:"extractive,omitempty"`
}

// DefaultSimilarityThreshold applies when retrieval.similarity_threshold is unset.
const DefaultSimilarityThreshold = 0.4

// RetrievalConfig tunes the semantic fallback stage. A nil threshold means
// unset, so an explicit 0 is kept.
type RetrievalConfig struct {
	SimilarityThreshold *float64 `yaml:"similarity_threshold,omitempty"`
	TopK                int      `yaml:"top_k"`
}

// Threshold returns the configured similarity threshold or the default.
func (r RetrievalConfig) Threshold() float64 {
	if r.SimilarityThreshold == nil {
		return DefaultSimilarityThreshold
	}
	return *r.SimilarityThreshold
}

// PromptConfig optionally replaces the built-in prompt template.
type PromptConfig struct {
	TemplatePath string `yaml:"template_path,omitempty"`
}

// LocalAssetsConfig serves assets from the filesystem.
type LocalAssetsConfig struct {
	Root string `yaml:"root"`
}

// MinioAssetsConfig serves assets from an S3-compatible bucket.
type MinioAssetsConfig struct {
	Endpoint       string `yaml:"endpoint"`
	AccessKeyEnv   string `yaml:"access_key_env"`
	SecretKeyEnv   string `yaml:"secret_key_env"`
	Bucket         string `yaml:"bucket"`
	UseSSL         bool   `yaml:"use_ssl"`
	PresignMinutes int    `yaml:"presign_minutes"`
}

// AssetsConfig selects where images and brochures live.
type AssetsConfig struct {
	Type        string             `yaml:"type"`
	DownloadDir string             `yaml:"download_dir"`
	Local       *LocalAssetsConfig `yaml:"local,omitempty"`
	Minio       *MinioAssetsConfig `yaml:"minio,omitempty"`
}

// RedisCacheConfig configures the Redis answer cache.
type RedisCacheConfig struct {
	Addr        string `yaml:"addr"`
	DB          int    `yaml:"db"`
	PasswordEnv string `yaml:"password_env,omitempty"`
	Prefix      string `yaml:"prefix"`
	TTLSecs     int    `yaml:"ttl_secs"`
}

// CacheConfig selects the answer cache.
type CacheConfig struct {
	Type  string            `yaml:"type"`
	Redis *RedisCacheConfig `yaml:"redis,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// IndexerConfig tunes the offline index build.
type IndexerConfig struct {
	Workers int `yaml:"workers"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Catalog     CatalogConfig     `yaml:"catalog"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Generator   GeneratorConfig   `yaml:"generator"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Prompt      PromptConfig      `yaml:"prompt"`
	Assets      AssetsConfig      `yaml:"assets"`
	Cache       CacheConfig       `yaml:"cache"`
	Server      ServerConfig      `yaml:"server"`
	Indexer     IndexerConfig     `yaml:"indexer"`
	Log         LogConfig         `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/carsales/config.yaml.
// If neither exists, it writes defaults to ~/.config/carsales/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "carsales", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Catalog:     CatalogConfig{Path: "car_data.csv"},
		Embedder:    EmbedderConfig{Type: "tfidf"},
		VectorStore: VectorStoreConfig{Type: "sqlite", SQLite: &SQLiteConfig{Path: "car_index.db"}},
		Generator: GeneratorConfig{
			Type:        "gemini",
			TimeoutSecs: 60,
			Gemini:      &GeminiConfig{APIKeyEnv: "GEMINI_API_KEY", Model: "gemini-2.0-flash"},
		},
		Retrieval: RetrievalConfig{SimilarityThreshold: ptr(DefaultSimilarityThreshold), TopK: 1},
		Assets:    AssetsConfig{Type: "local", DownloadDir: "downloads", Local: &LocalAssetsConfig{Root: "."}},
		Cache:     CacheConfig{Type: "none"},
		Server:    ServerConfig{Addr: ":8080"},
		Log:       LogConfig{Level: "info", File: "carsales.log"},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "tfidf"
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}

	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "sqlite"
	}
	if cfg.VectorStore.Type == "sqlite" {
		if cfg.VectorStore.SQLite == nil {
			cfg.VectorStore.SQLite = &SQLiteConfig{}
		}
		if cfg.VectorStore.SQLite.Path == "" {
			cfg.VectorStore.SQLite.Path = "car_index.db"
		}
	}
	if cfg.VectorStore.Type == "badger" {
		if cfg.VectorStore.Badger == nil {
			cfg.VectorStore.Badger = &BadgerConfig{}
		}
		if cfg.VectorStore.Badger.Path == "" {
			cfg.VectorStore.Badger.Path = "car_index"
		}
	}
	if cfg.VectorStore.Type == "qdrant" && cfg.VectorStore.Qdrant != nil {
		if cfg.VectorStore.Qdrant.Collection == "" {
			cfg.VectorStore.Qdrant.Collection = "cars"
		}
		if cfg.VectorStore.Qdrant.TimeoutSecs == 0 {
			cfg.VectorStore.Qdrant.TimeoutSecs = 15
		}
	}

	if cfg.Generator.Type == "" {
		cfg.Generator.Type = "gemini"
	}
	if cfg.Generator.TimeoutSecs == 0 {
		cfg.Generator.TimeoutSecs = 60
	}
	if cfg.Generator.Type == "gemini" {
		if cfg.Generator.Gemini == nil {
			cfg.Generator.Gemini = &GeminiConfig{}
		}
		if cfg.Generator.Gemini.APIKeyEnv == "" {
			cfg.Generator.Gemini.APIKeyEnv = "GEMINI_API_KEY"
		}
		if cfg.Generator.Gemini.Model == "" {
			cfg.Generator.Gemini.Model = "gemini-2.0-flash"
		}
	}
	if cfg.Generator.Type == "openai" && cfg.Generator.OpenAI != nil {
		if cfg.Generator.OpenAI.BaseURL == "" {
			cfg.Generator.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Generator.OpenAI.APIKeyEnv == "" {
			cfg.Generator.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Generator.OpenAI.Model == "" {
			cfg.Generator.OpenAI.Model = "gpt-4o-mini"
		}
	}
	if cfg.Generator.Type == "extractive" {
		if cfg.Generator.Extractive == nil {
			cfg.Generator.Extractive = &ExtractiveConfig{}
		}
		if cfg.Generator.Extractive.MaxSentences == 0 {
			cfg.Generator.Extractive.MaxSentences = 5
		}
	}

	if cfg.Retrieval.SimilarityThreshold == nil {
		cfg.Retrieval.SimilarityThreshold = ptr(DefaultSimilarityThreshold)
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 1
	}

	if cfg.Assets.Type == "" {
		cfg.Assets.Type = "local"
	}
	if cfg.Assets.DownloadDir == "" {
		cfg.Assets.DownloadDir = "downloads"
	}
	if cfg.Assets.Type == "local" {
		if cfg.Assets.Local == nil {
			cfg.Assets.Local = &LocalAssetsConfig{}
		}
		if cfg.Assets.Local.Root == "" {
			cfg.Assets.Local.Root = "."
		}
	}
	if cfg.Assets.Type == "minio" && cfg.Assets.Minio != nil {
		if cfg.Assets.Minio.AccessKeyEnv == "" {
			cfg.Assets.Minio.AccessKeyEnv = "MINIO_ACCESS_KEY"
		}
		if cfg.Assets.Minio.SecretKeyEnv == "" {
			cfg.Assets.Minio.SecretKeyEnv = "MINIO_SECRET_KEY"
		}
		if cfg.Assets.Minio.PresignMinutes == 0 {
			cfg.Assets.Minio.PresignMinutes = 15
		}
	}

	if cfg.Cache.Type == "" {
		cfg.Cache.Type = "none"
	}
	if cfg.Cache.Type == "redis" {
		if cfg.Cache.Redis == nil {
			cfg.Cache.Redis = &RedisCacheConfig{}
		}
		if cfg.Cache.Redis.Addr == "" {
			cfg.Cache.Redis.Addr = "localhost:6379"
		}
		if cfg.Cache.Redis.Prefix == "" {
			cfg.Cache.Redis.Prefix = "carsales:answer:"
		}
		if cfg.Cache.Redis.TTLSecs == 0 {
			cfg.Cache.Redis.TTLSecs = 3600
		}
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.File == "" {
		cfg.Log.File = "carsales.log"
	}
}

func ptr[T any](v T) *T { return &v }
