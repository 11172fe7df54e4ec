package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"carsales/internal/domain"
	"carsales/internal/vectorstore"
)

const (
	carPrefix    = "car/"
	dimensionKey = "meta/dimension"
)

// carKey zero-pads the id so key order equals id order.
func carKey(id int) []byte {
	return []byte(fmt.Sprintf("%s%010d", carPrefix, id))
}

type entry struct {
	Car    domain.Car `json:"car"`
	Vector []float32  `json:"vector"`
}

// Storage keeps cars and vectors in an embedded BadgerDB.
type Storage struct {
	db        *badger.DB
	dimension int
}

type loggerAdapter struct {
	logger *slog.Logger
}

func (l *loggerAdapter) Errorf(msg string, items ...any) {
	l.logger.Error(fmt.Sprintf(msg, items...))
}

func (l *loggerAdapter) Warningf(msg string, items ...any) {
	l.logger.Warn(fmt.Sprintf(msg, items...))
}

// Infof is demoted to debug; badger is chatty at info.
func (l *loggerAdapter) Infof(msg string, items ...any) {
	l.logger.Debug(fmt.Sprintf(msg, items...))
}

func (l *loggerAdapter) Debugf(msg string, items ...any) {
	l.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open opens the database directory at path, creating it if needed.
// An empty path with inMemory set gives a throwaway store.
func Open(path string, inMemory bool) (*Storage, error) {
	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("badger: create %s: %w", path, err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = &loggerAdapter{logger: slog.Default().With("component", "badger")}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open: %w", err)
	}
	s := &Storage{db: db}
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(dimensionKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			s.dimension, err = strconv.Atoi(string(val))
			return err
		})
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("badger: read dimension: %w", err)
	}
	return s, nil
}

// Init records the vector dimension. Changing it drops existing cars.
func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return vectorstore.ErrInvalidDimension
	}
	if dimension == s.dimension {
		return nil
	}
	if err := s.Clear(ctx); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(dimensionKey), []byte(strconv.Itoa(dimension)))
	})
	if err != nil {
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
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for i, car := range cars {
		if err := ctx.Err(); err != nil {
			return err
		}
		val, err := json.Marshal(entry{Car: car, Vector: vectors[i]})
		if err != nil {
			return fmt.Errorf("badger: encode car %d: %w", car.ID, err)
		}
		if err := wb.Set(carKey(car.ID), val); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func (s *Storage) scan(ctx context.Context, fn func(entry) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(carPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var e entry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			})
			if err != nil {
				return fmt.Errorf("badger: decode %s: %w", it.Item().Key(), err)
			}
			if err := fn(e); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Storage) Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	var candidates []vectorstore.Candidate
	err := s.scan(ctx, func(e entry) error {
		candidates = append(candidates, vectorstore.Candidate{Car: e.Car, Vector: e.Vector})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(candidates) > 0 && len(vector) != s.dimension {
		return nil, vectorstore.ErrDimensionMismatch
	}
	return vectorstore.Rank(candidates, vector, topK), nil
}

func (s *Storage) Records(ctx context.Context) ([]domain.Car, error) {
	var out []domain.Car
	err := s.scan(ctx, func(e entry) error {
		out = append(out, e.Car)
		return nil
	})
	return out, err
}

func (s *Storage) Clear(context.Context) error {
	return s.db.DropPrefix([]byte(carPrefix))
}

func (s *Storage) Close() error { return s.db.Close() }
