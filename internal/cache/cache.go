// Package cache stores generated answers so a repeated prompt is not sent to
// the model twice.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
)

// Key derives the cache key for a prompt answered by generator.
func Key(generator, prompt string) string {
	h := sha1.New()
	h.Write([]byte(generator))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (Nop) Set(context.Context, string, string) error         { return nil }
