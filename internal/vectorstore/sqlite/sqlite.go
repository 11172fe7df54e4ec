package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	_ "modernc.org/sqlite"

	"carsales/internal/domain"
	"carsales/internal/vectorstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS cars (
	row_id    INTEGER PRIMARY KEY,
	name      TEXT NOT NULL,
	record    TEXT NOT NULL,
	embedding BLOB NOT NULL
);`

// Storage keeps cars and their embeddings in a SQLite file. Similarity is
// computed in process over all rows; a sales catalog is small enough for that.
type Storage struct {
	db        *sql.DB
	dimension int
}

// Open opens (or creates) the index database at path.
func Open(ctx context.Context, path string) (*Storage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	s, err := New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing database, ensuring the schema exists.
func New(ctx context.Context, db *sql.DB) (*Storage, error) {
	if db == nil {
		return nil, errors.New("sqlite: db is nil")
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("sqlite: ensure schema: %w", err)
	}
	s := &Storage{db: db}
	var raw string
	err := db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'dimension'`).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("sqlite: read dimension: %w", err)
	default:
		if s.dimension, err = strconv.Atoi(raw); err != nil {
			return nil, fmt.Errorf("sqlite: bad stored dimension %q: %w", raw, err)
		}
	}
	return s, nil
}

// Init records the vector dimension. Changing it drops existing rows.
func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return vectorstore.ErrInvalidDimension
	}
	if dimension == s.dimension {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM cars`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO meta(key, value) VALUES('dimension', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, strconv.Itoa(dimension)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.dimension = dimension
	return nil
}

func (s *Storage) Upsert(ctx context.Context, cars []domain.Car, vectors [][]float32) error {
	if len(cars) != len(vectors) {
		return vectorstore.ErrLengthMismatch
	}
	for _, v := range vectors {
		if len(v) != s.dimension {
			return vectorstore.ErrDimensionMismatch
		}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cars(row_id, name, record, embedding) VALUES(?, ?, ?, ?)
		ON CONFLICT(row_id) DO UPDATE SET
			name = excluded.name,
			record = excluded.record,
			embedding = excluded.embedding`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, car := range cars {
		record, err := json.Marshal(car)
		if err != nil {
			return fmt.Errorf("sqlite: encode car %d: %w", car.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, car.ID, car.Name, string(record), vectorstore.EncodeVector(vectors[i])); err != nil {
			return fmt.Errorf("sqlite: upsert car %d: %w", car.ID, err)
		}
	}
	return tx.Commit()
}

func (s *Storage) Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT record, embedding FROM cars ORDER BY row_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []vectorstore.Candidate
	for rows.Next() {
		var record string
		var blob []byte
		if err := rows.Scan(&record, &blob); err != nil {
			return nil, err
		}
		var c vectorstore.Candidate
		if err := json.Unmarshal([]byte(record), &c.Car); err != nil {
			return nil, fmt.Errorf("sqlite: decode record: %w", err)
		}
		if c.Vector, err = vectorstore.DecodeVector(blob); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(candidates) > 0 && len(vector) != s.dimension {
		return nil, vectorstore.ErrDimensionMismatch
	}
	return vectorstore.Rank(candidates, vector, topK), nil
}

func (s *Storage) Records(ctx context.Context) ([]domain.Car, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT record FROM cars ORDER BY row_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Car
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, err
		}
		var car domain.Car
		if err := json.Unmarshal([]byte(record), &car); err != nil {
			return nil, fmt.Errorf("sqlite: decode record: %w", err)
		}
		out = append(out, car)
	}
	return out, rows.Err()
}

func (s *Storage) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cars`)
	return err
}

func (s *Storage) Close() error { return s.db.Close() }
