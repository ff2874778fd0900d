package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Two implementations exist: a remote provider (OpenAI) and a
// deterministic hashing fallback that keeps the system available when
// the provider is down. Both return a vector of the configured fixed
// dimension for any non-empty input and the zero vector for empty
// input. All embeddings compared in one similarity computation must
// come from the same implementation and dimension.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
