package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRemoteUnavailable indicates the remote document store could not
	// be reached. Sync degrades to the cached local mirror; no local
	// content is ever deleted on a failed fetch.
	ErrRemoteUnavailable = errors.New("remote store unavailable")

	// ErrEmbeddingUnavailable indicates the embedding provider failed.
	// Callers fall back to the deterministic hashing embedder.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGenerationFailed indicates the generative model call failed.
	// Users receive a fixed degraded-service message, never this error.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrSnapshotMissing indicates no persisted index snapshot exists.
	// Treated as empty retrieval context, not a fatal condition.
	ErrSnapshotMissing = errors.New("index snapshot missing")

	// ErrInvalidPassword indicates a dashboard password check failed.
	ErrInvalidPassword = errors.New("invalid password")
)
