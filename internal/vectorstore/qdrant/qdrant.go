package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"carsales/internal/domain"
	"carsales/internal/vectorstore"
)

const scrollPage = 256

var errNotFound = errors.New("qdrant: not found")

// Storage is a minimal REST client to Qdrant.
// It assumes cosine distance and creates the collection if missing.
type Storage struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewStorage(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collection := cfg.Collection
	if collection == "" {
		collection = "cars"
	}
	return &Storage{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: collection,
		client:     &http.Client{Timeout: timeout},
	}
}

type point struct {
	ID      int             `json:"id"`
	Vector  []float32       `json:"vector,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

type payload struct {
	Record domain.Car `json:"record"`
}

func (s *Storage) collectionURL() string {
	return fmt.Sprintf("%s/collections/%s", s.url, s.collection)
}

// Init creates the collection when it does not exist. An existing collection
// with another vector size is recreated.
func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return vectorstore.ErrInvalidDimension
	}
	var info struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	err := s.do(ctx, http.MethodGet, s.collectionURL(), nil, &info)
	switch {
	case errors.Is(err, errNotFound):
	case err != nil:
		return err
	case info.Result.Config.Params.Vectors.Size == dimension:
		s.dimension = dimension
		return nil
	default:
		if err := s.do(ctx, http.MethodDelete, s.collectionURL(), nil, nil); err != nil && !errors.Is(err, errNotFound) {
			return err
		}
	}
	s.dimension = dimension
	return s.create(ctx)
}

func (s *Storage) create(ctx context.Context) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.dimension,
			"distance": "Cosine",
		},
	}
	return s.do(ctx, http.MethodPut, s.collectionURL(), body, nil)
}

func (s *Storage) Upsert(ctx context.Context, cars []domain.Car, vectors [][]float32) error {
	if len(cars) != len(vectors) {
		return vectorstore.ErrLengthMismatch
	}
	points := make([]point, len(cars))
	for i, car := range cars {
		if len(vectors[i]) != s.dimension {
			return vectorstore.ErrDimensionMismatch
		}
		raw, err := json.Marshal(payload{Record: car})
		if err != nil {
			return fmt.Errorf("qdrant: encode car %d: %w", car.ID, err)
		}
		points[i] = point{ID: car.ID, Vector: vectors[i], Payload: raw}
	}
	body := map[string]any{"points": points}
	return s.do(ctx, http.MethodPut, s.collectionURL()+"/points?wait=true", body, nil)
}

func (s *Storage) Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = vectorstore.DefaultTopK
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64         `json:"score"`
			Payload json.RawMessage `json:"payload"`
		} `json:"result"`
	}
	err := s.do(ctx, http.MethodPost, s.collectionURL()+"/points/search", req, &resp)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		var p payload
		if err := json.Unmarshal(r.Payload, &p); err != nil {
			return nil, fmt.Errorf("qdrant: decode payload: %w", err)
		}
		results = append(results, domain.SearchResult{Car: p.Record, Score: r.Score})
	}
	return results, nil
}

// Records pages through the collection with the scroll API.
func (s *Storage) Records(ctx context.Context) ([]domain.Car, error) {
	var out []domain.Car
	var offset any
	for {
		req := map[string]any{
			"limit":        scrollPage,
			"with_payload": true,
			"with_vector":  false,
		}
		if offset != nil {
			req["offset"] = offset
		}
		var resp struct {
			Result struct {
				Points         []point `json:"points"`
				NextPageOffset any     `json:"next_page_offset"`
			} `json:"result"`
		}
		err := s.do(ctx, http.MethodPost, s.collectionURL()+"/points/scroll", req, &resp)
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		for _, p := range resp.Result.Points {
			var pl payload
			if err := json.Unmarshal(p.Payload, &pl); err != nil {
				return nil, fmt.Errorf("qdrant: decode point %d: %w", p.ID, err)
			}
			out = append(out, pl.Record)
		}
		if resp.Result.NextPageOffset == nil {
			return out, nil
		}
		offset = resp.Result.NextPageOffset
	}
}

// Clear drops the collection and recreates it empty when the dimension is known.
func (s *Storage) Clear(ctx context.Context) error {
	if err := s.do(ctx, http.MethodDelete, s.collectionURL(), nil, nil); err != nil && !errors.Is(err, errNotFound) {
		return err
	}
	if s.dimension == 0 {
		return nil
	}
	return s.create(ctx)
}

func (s *Storage) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *Storage) do(ctx context.Context, method, url string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s %s", errNotFound, method, url)
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("qdrant %s %s failed: %s: %s", method, url, resp.Status, strings.TrimSpace(string(msg)))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
