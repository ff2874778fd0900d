// Package hashing provides a deterministic, offline embedding service.
// Vectors are derived from a SHA-256 hash chain over the input text:
// not semantically meaningful, but a pure and stable function of the
// input that keeps the assistant degraded-but-available when the
// remote provider is down.
package hashing

import (
	"context"
	"crypto/sha256"

	"github.com/brightlyhq/brightly/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultDimensions matches the remote embedder so fallback vectors
// are comparable in shape.
const DefaultDimensions = 512

// EmbeddingService derives vectors from content hashes.
type EmbeddingService struct {
	dimensions int
}

// NewEmbeddingService creates a hashing embedder of the given vector
// size; zero or negative picks the default.
func NewEmbeddingService(dimensions int) *EmbeddingService {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &EmbeddingService{dimensions: dimensions}
}

// Embed expands a hash chain over text until the vector is filled,
// normalising each byte to [0,1]. Empty input yields the zero vector.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, s.dimensions)
	if text == "" {
		return vec, nil
	}

	digest := sha256.Sum256([]byte(text))
	i := 0
	for i < s.dimensions {
		for _, b := range digest {
			if i >= s.dimensions {
				break
			}
			vec[i] = float32(b) / 255.0
			i++
		}
		digest = sha256.Sum256(digest[:])
	}
	return vec, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return "hash-chain"
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
