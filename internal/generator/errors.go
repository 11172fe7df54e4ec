// Package generator holds what the language model backends share. The
// backends themselves live in subpackages.
package generator

import "errors"

// ErrEmptyResponse is returned when a model answers with no text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// ErrMissingAPIKey is returned when the configured key variable is unset.
var ErrMissingAPIKey = errors.New("missing API key")
