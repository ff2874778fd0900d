package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Document represents one text file from the school's document set.
// Documents are identified by their relative path within the remote store.
type Document struct {
	// Path is the relative path, unique within the document set.
	Path string

	// Content is the full raw text.
	Content string

	// Hash is the SHA-256 hex digest of Content.
	Hash string
}

// NewDocument builds a Document and computes its content hash.
func NewDocument(path, content string) Document {
	return Document{
		Path:    path,
		Content: content,
		Hash:    HashContent(content),
	}
}

// HashContent returns the SHA-256 hex digest of text.
// It is the single hashing function used for change detection.
func HashContent(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Passage is a bounded text chunk derived from exactly one document.
// It is the unit of retrieval and is never mutated after creation;
// when a document's hash changes, all its passages are regenerated.
type Passage struct {
	// ID is the unique identifier for the passage.
	ID string

	// DocumentPath links back to the source document.
	DocumentPath string

	// Text is the passage content.
	Text string

	// Position is the ordinal position within the document.
	Position int
}

// Snapshot is an immutable, fully-built state of the vector index.
// It is replaced whole on rebuild, never patched; in-flight queries
// keep reading the snapshot they started with.
type Snapshot struct {
	// Passages holds every indexed passage in insertion order.
	Passages []Passage

	// Vectors holds the embedding for Passages[i] at index i.
	Vectors [][]float32

	// Fingerprint identifies the manifest state the snapshot was built
	// from. A snapshot is only reused while the manifest still matches.
	Fingerprint string

	// BuiltAt is when the build completed.
	BuiltAt time.Time
}

// MemoryEntry is one (question, answer) pair recalled via similarity.
// Embedding may be nil when embedding the question failed; such entries
// are kept for replay but excluded from similarity scoring.
type MemoryEntry struct {
	Question  string
	Answer    string
	Embedding []float32
}

// ConversationTurn is one question/answer exchange, exposed verbatim to
// the caller for UI history.
type ConversationTurn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// RemoteObject is one document as enumerated by the remote store.
type RemoteObject struct {
	// Path is the object key relative to the bucket root.
	Path string

	// Content is the object's text content.
	Content string
}
