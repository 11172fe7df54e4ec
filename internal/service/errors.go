package service

import "errors"

var (
	// ErrEmptyQuestion is returned by Ask for a blank question.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrNoIndex is returned when the store is empty and no catalog was given to build it from.
	ErrNoIndex = errors.New("vector index is empty and no catalog is configured")

	// ErrGeneratorRequired is returned when no generator is provided.
	ErrGeneratorRequired = errors.New("generator required")
)
