package indexer

import "errors"

var (
	// ErrEmbedderRequired is returned when no embedder is provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrStoreRequired is returned when no vector store is provided.
	ErrStoreRequired = errors.New("vector store required")

	// ErrEmptyCatalog is returned when there is nothing to index.
	ErrEmptyCatalog = errors.New("catalog is empty")
)
