package domain

import (
	"context"
	"io"
	"time"
)

// Attribute is one entry of a car's differences table. Order follows the source.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Car is a single catalog row. ID is the row id the vector store is keyed by.
type Car struct {
	ID            int               `json:"id"`
	Name          string            `json:"nama"`
	Specification string            `json:"spesifikasi"`
	Advantages    string            `json:"keunggulan"`
	Differences   []Attribute       `json:"perbedaan"`
	BrochureURL   string            `json:"url_brosur"`
	ImagePath     string            `json:"gambar,omitempty"`
	BrochurePath  string            `json:"brosur,omitempty"`
	Extra         map[string]string `json:"extra,omitempty"`
}

// SearchResult represents a matching car with a similarity score.
type SearchResult struct {
	Car   Car
	Score float64
}

// Strategy names the retrieval stage that produced a set of matches.
type Strategy string

const (
	StrategyMention  Strategy = "mention"
	StrategySemantic Strategy = "semantic"
	StrategyNone     Strategy = "none"
)

// Match is a car selected for the answer context. Score is only meaningful
// when Scored is true, i.e. the car came from vector search.
type Match struct {
	Car    Car
	Score  float64
	Scored bool
}

// Retrieval is the outcome of the two-stage matching.
type Retrieval struct {
	Strategy Strategy
	Matches  []Match
}

// Answer is what the assistant returns for one question.
type Answer struct {
	Question string
	Text     string
	Strategy Strategy
	Matches  []Match
	Cached   bool
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(ctx context.Context, corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorStore persists car vectors keyed by row id and supports similarity search.
type VectorStore interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, cars []Car, vectors [][]float32) error
	Search(ctx context.Context, vector []float32, topK int) ([]SearchResult, error)
	Records(ctx context.Context) ([]Car, error)
	Clear(ctx context.Context) error
	Close() error
}

// Generator turns a prompt into natural-language text.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Summarizer picks the most representative sentences of a text, in text order.
type Summarizer interface {
	Summarize(text string, maxSentences int) ([]string, error)
}

// AnswerCache stores generated answers by key.
type AnswerCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// AssetInfo describes a stored image or brochure.
type AssetInfo struct {
	Path        string
	Size        int64
	ContentType string
	ModTime     time.Time
}

// AssetStore serves car images and brochures.
type AssetStore interface {
	Stat(ctx context.Context, path string) (AssetInfo, error)
	Open(ctx context.Context, path string) (io.ReadCloser, AssetInfo, error)
	// DownloadURL returns a direct download link, or "" when the store
	// cannot hand out links and content must be streamed.
	DownloadURL(ctx context.Context, path string) (string, error)
}
