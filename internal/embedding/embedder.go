// Package embedding turns property text into fixed-length vectors using a
// pretrained sentence encoder served over HTTP.
package embedding

import (
	"context"
	"errors"
)

var (
	ErrMissingAPIKey      = errors.New("embedding API key is not configured")
	ErrRequestFailed      = errors.New("embedding request failed")
	ErrUnexpectedResponse = errors.New("unexpected response format from embedding API")
)

// Embedder encodes a single text into a vector of Dimension() floats.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
	Model() string
}

// Provider is implemented by embedders that talk to a remote service.
type Provider interface {
	Provider() string
}

func providerName(e Embedder) string {
	if p, ok := e.(Provider); ok {
		return p.Provider()
	}
	return "unknown"
}
