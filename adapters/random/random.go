// Package random generates API tokens.
package random

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
)

// TokenPrefix marks generated API tokens.
const TokenPrefix = "vm_"

// Source produces random bytes.
type Source interface {
	Read(p []byte) (int, error)
}

// Generator builds tokens from a random source.
type Generator struct {
	src Source
}

// New returns a generator backed by crypto/rand.
func New() Generator {
	return Generator{src: rand.Reader}
}

// NewWithSource returns a generator reading from src.
func NewWithSource(src Source) Generator {
	return Generator{src: src}
}

// Token returns TokenPrefix followed by n random bytes in hex.
func (g Generator) Token(n int) (string, error) {
	if n < 16 {
		return "", errors.New("token needs at least 16 random bytes")
	}
	b := make([]byte, n)
	if _, err := g.src.Read(b); err != nil {
		return "", err
	}
	return TokenPrefix + hex.EncodeToString(b), nil
}
