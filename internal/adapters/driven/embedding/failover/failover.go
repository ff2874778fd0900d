// Package failover wraps a primary embedding service with a
// deterministic fallback: a failed remote call degrades that single
// request instead of aborting it.
package failover

import (
	"context"
	"fmt"

	"github.com/brightlyhq/brightly/internal/core/ports/driven"
	"github.com/brightlyhq/brightly/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService tries the primary embedder once and falls back to
// the secondary on failure. No inline retries, no nested fallbacks.
type EmbeddingService struct {
	primary  driven.EmbeddingService
	fallback driven.EmbeddingService
}

// New wraps primary with fallback. Both must produce vectors of the
// same dimension.
func New(primary, fallback driven.EmbeddingService) (*EmbeddingService, error) {
	if primary.Dimensions() != fallback.Dimensions() {
		return nil, fmt.Errorf("failover: dimension mismatch: primary %d, fallback %d",
			primary.Dimensions(), fallback.Dimensions())
	}
	return &EmbeddingService{primary: primary, fallback: fallback}, nil
}

// Embed tries the primary once, then the fallback.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := s.primary.Embed(ctx, text)
	if err == nil {
		return vec, nil
	}
	logger.Warn("Primary embedder failed, using %s fallback: %v", s.fallback.ModelName(), err)
	return s.fallback.Embed(ctx, text)
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.primary.Dimensions()
}

// ModelName returns the primary model's name.
func (s *EmbeddingService) ModelName() string {
	return s.primary.ModelName()
}

// Close releases both embedders.
func (s *EmbeddingService) Close() error {
	perr := s.primary.Close()
	ferr := s.fallback.Close()
	if perr != nil {
		return perr
	}
	return ferr
}
