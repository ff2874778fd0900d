package driven

import (
	"context"

	"github.com/brightlyhq/brightly/internal/core/domain"
)

// ManifestStore persists the path-to-hash manifest used for change
// detection. Save replaces the whole manifest atomically.
type ManifestStore interface {
	// Load reads the persisted manifest. An absent manifest is returned
	// as an empty map, not an error.
	Load(ctx context.Context) (domain.Manifest, error)

	// Save replaces the manifest with exactly the given mapping.
	Save(ctx context.Context, m domain.Manifest) error
}

// SnapshotStore persists the built vector index as an opaque blob plus
// its manifest fingerprint.
type SnapshotStore interface {
	// Load reads the persisted snapshot.
	// Returns domain.ErrSnapshotMissing when none exists.
	Load(ctx context.Context) (*domain.Snapshot, error)

	// Save replaces the persisted snapshot.
	Save(ctx context.Context, snap *domain.Snapshot) error
}

// SessionStore persists the bounded rolling session log written at
// shutdown. Persistence is best-effort; failures are logged, never
// propagated into request handling.
type SessionStore interface {
	// SaveSession writes the turns of one session under a fresh
	// session id and prunes old sessions beyond the retention limit.
	SaveSession(ctx context.Context, turns []domain.ConversationTurn) error

	// LoadLatest reads the turns of the most recent persisted session.
	// Returns domain.ErrNotFound when no session exists.
	LoadLatest(ctx context.Context) ([]domain.ConversationTurn, error)
}
