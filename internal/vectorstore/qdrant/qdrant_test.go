package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carsales/internal/domain"
	"carsales/internal/embedding"
	"carsales/internal/vectorstore/storetest"
)

// fakeQdrant implements the slice of the Qdrant REST API the client uses.
type fakeQdrant struct {
	mu       sync.Mutex
	size     int
	exists   bool
	points   map[int]point
	pageSize int
	apiKeys  []string
}

func newFakeQdrant() *fakeQdrant {
	return &fakeQdrant{points: map[int]point{}, pageSize: 2}
}

func (f *fakeQdrant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apiKeys = append(f.apiKeys, r.Header.Get("api-key"))

	path := strings.TrimPrefix(r.URL.Path, "/collections/cars")
	switch {
	case path == "" && r.Method == http.MethodGet:
		if !f.exists {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, map[string]any{"result": map[string]any{
			"config": map[string]any{"params": map[string]any{"vectors": map[string]any{"size": f.size}}},
		}})
	case path == "" && r.Method == http.MethodPut:
		var body struct {
			Vectors struct {
				Size     int    `json:"size"`
				Distance string `json:"distance"`
			} `json:"vectors"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.exists, f.size = true, body.Vectors.Size
		f.points = map[int]point{}
		writeJSON(w, map[string]any{"result": true})
	case path == "" && r.Method == http.MethodDelete:
		if !f.exists {
			http.NotFound(w, r)
			return
		}
		f.exists = false
		f.points = map[int]point{}
		writeJSON(w, map[string]any{"result": true})
	case !f.exists:
		http.NotFound(w, r)
	case path == "/points" && r.Method == http.MethodPut:
		var body struct {
			Points []point `json:"points"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		for _, p := range body.Points {
			f.points[p.ID] = p
		}
		writeJSON(w, map[string]any{"result": map[string]any{"status": "completed"}})
	case path == "/points/search":
		var body struct {
			Vector []float32 `json:"vector"`
			Limit  int       `json:"limit"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		type hit struct {
			ID      int             `json:"id"`
			Score   float64         `json:"score"`
			Payload json.RawMessage `json:"payload"`
		}
		hits := make([]hit, 0, len(f.points))
		for _, p := range f.points {
			hits = append(hits, hit{ID: p.ID, Score: embedding.Dot(p.Vector, body.Vector), Payload: p.Payload})
		}
		sort.Slice(hits, func(i, j int) bool {
			if hits[i].Score != hits[j].Score {
				return hits[i].Score > hits[j].Score
			}
			return hits[i].ID < hits[j].ID
		})
		if len(hits) > body.Limit {
			hits = hits[:body.Limit]
		}
		writeJSON(w, map[string]any{"result": hits})
	case path == "/points/scroll":
		var body struct {
			Offset *int `json:"offset"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		ids := make([]int, 0, len(f.points))
		for id := range f.points {
			if body.Offset == nil || id >= *body.Offset {
				ids = append(ids, id)
			}
		}
		sort.Ints(ids)
		var next any
		if len(ids) > f.pageSize {
			next = ids[f.pageSize]
			ids = ids[:f.pageSize]
		}
		page := make([]point, len(ids))
		for i, id := range ids {
			page[i] = point{ID: id, Payload: f.points[id].Payload}
		}
		writeJSON(w, map[string]any{"result": map[string]any{"points": page, "next_page_offset": next}})
	default:
		http.Error(w, "unexpected "+r.Method+" "+r.URL.Path, http.StatusBadRequest)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestStorage(t *testing.T) {
	storetest.Run(t, func(t *testing.T) domain.VectorStore {
		srv := httptest.NewServer(newFakeQdrant())
		t.Cleanup(srv.Close)
		return NewStorage(Config{URL: srv.URL, Collection: "cars"})
	})
}

func TestRecordsBeforeInit(t *testing.T) {
	srv := httptest.NewServer(newFakeQdrant())
	defer srv.Close()

	s := NewStorage(Config{URL: srv.URL + "/"})
	got, err := s.Records(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestInitRecreatesOnSizeChange(t *testing.T) {
	fake := newFakeQdrant()
	srv := httptest.NewServer(fake)
	defer srv.Close()
	ctx := context.Background()

	s := NewStorage(Config{URL: srv.URL, APIKey: "secret"})
	require.NoError(t, s.Init(ctx, 3))
	cars, vectors := storetest.Cars()
	require.NoError(t, s.Upsert(ctx, cars, vectors))

	// same size keeps points
	require.NoError(t, s.Init(ctx, 3))
	got, err := s.Records(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	require.NoError(t, s.Init(ctx, 4))
	assert.Equal(t, 4, fake.size)
	got, err = s.Records(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	for _, key := range fake.apiKeys {
		assert.Equal(t, "secret", key)
	}
}
