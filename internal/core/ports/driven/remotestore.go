package driven

import (
	"context"

	"github.com/brightlyhq/brightly/internal/core/domain"
)

// RemoteStore is the authoritative, mutable document set the mirror
// tracks. Backed by an object-storage bucket in production and a plain
// directory in development.
type RemoteStore interface {
	// List enumerates every text document with its content.
	List(ctx context.Context) ([]domain.RemoteObject, error)

	// Get fetches a single document by path.
	// Returns domain.ErrNotFound when the path does not exist.
	Get(ctx context.Context, path string) (domain.RemoteObject, error)

	// Put creates or replaces a document.
	Put(ctx context.Context, path, content string) error

	// Delete removes a document.
	// Returns domain.ErrNotFound when the path does not exist.
	Delete(ctx context.Context, path string) error

	// Close releases resources.
	Close() error
}
