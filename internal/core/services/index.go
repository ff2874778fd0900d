package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/brightlyhq/brightly/internal/chunker"
	"github.com/brightlyhq/brightly/internal/core/domain"
	"github.com/brightlyhq/brightly/internal/core/ports/driven"
	"github.com/brightlyhq/brightly/internal/core/ports/driving"
	"github.com/brightlyhq/brightly/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.Index = (*IndexService)(nil)

// DefaultTopK is the number of passages returned per query.
const DefaultTopK = 3

// IndexService maintains the passage index over the mirrored document
// set. Snapshots are immutable and published with a single atomic
// pointer swap: a rebuild runs off the hot path while readers keep
// querying the last installed snapshot (copy-on-build).
type IndexService struct {
	mirror    *MirrorService
	embedder  driven.EmbeddingService
	snapshots driven.SnapshotStore
	splitter  *chunker.Splitter

	current   atomic.Pointer[domain.Snapshot]
	rebuildMu sync.Mutex
}

// NewIndexService creates an index service over the given mirror.
func NewIndexService(
	mirror *MirrorService,
	embedder driven.EmbeddingService,
	snapshots driven.SnapshotStore,
) *IndexService {
	return &IndexService{
		mirror:    mirror,
		embedder:  embedder,
		snapshots: snapshots,
		splitter:  chunker.New(),
	}
}

// Load installs the persisted snapshot if one exists and its
// fingerprint still matches the manifest. A missing, stale or
// unreadable snapshot is not an error; the next Refresh rebuilds.
func (s *IndexService) Load(ctx context.Context) {
	snap, err := s.snapshots.Load(ctx)
	if err != nil {
		logger.Debug("No reusable snapshot: %v", err)
		return
	}
	fingerprint := s.mirror.Manifest(ctx).Fingerprint()
	if snap.Fingerprint != fingerprint {
		logger.Info("Persisted snapshot is stale, rebuild required")
		return
	}
	s.current.Store(snap)
	logger.Info("Loaded snapshot: %d passages, built %s", len(snap.Passages), snap.BuiltAt.Format(time.RFC3339))
}

// Refresh syncs the mirror and rebuilds the snapshot when the document
// set changed, when no snapshot is installed, or when forced. Rebuilds
// are single-flight; concurrent reads are served from the previous
// snapshot until the new one is installed.
func (s *IndexService) Refresh(ctx context.Context, force bool) error {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	changed, err := s.mirror.Sync(ctx)
	if err != nil {
		return fmt.Errorf("mirror sync: %w", err)
	}

	if !changed && !force && s.current.Load() != nil {
		logger.Debug("No changes detected, serving cached snapshot")
		return nil
	}

	snap, err := s.build(ctx)
	if err != nil {
		return fmt.Errorf("build snapshot: %w", err)
	}

	if err := s.snapshots.Save(ctx, snap); err != nil {
		// Persistence is best-effort; the in-memory snapshot still serves.
		logger.Warn("Snapshot persist failed: %v", err)
	}

	s.current.Store(snap)
	logger.Info("Snapshot installed: %d passages", len(snap.Passages))
	return nil
}

// build chunks and embeds every current local document.
func (s *IndexService) build(ctx context.Context) (*domain.Snapshot, error) {
	logger.Section("Index Build")

	docs, err := s.mirror.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	logger.Debug("Building from %d documents", len(docs))

	snap := &domain.Snapshot{
		Fingerprint: s.mirror.Manifest(ctx).Fingerprint(),
	}

	for _, doc := range docs {
		for i, text := range s.splitter.Split(doc.Content) {
			vec, err := s.embedder.Embed(ctx, text)
			if err != nil {
				return nil, fmt.Errorf("embed passage %d of %s: %w", i, doc.Path, err)
			}
			snap.Passages = append(snap.Passages, domain.Passage{
				ID:           uuid.New().String(),
				DocumentPath: doc.Path,
				Text:         text,
				Position:     i,
			})
			snap.Vectors = append(snap.Vectors, vec)
		}
	}

	snap.BuiltAt = time.Now().UTC()
	logger.Debug("Built %d passages", len(snap.Passages))
	return snap, nil
}

// Query returns the top-k passages most similar to text, ties broken
// by insertion order (earlier passage wins). Returns
// domain.ErrSnapshotMissing when no snapshot is installed; callers
// treat that as an empty retrieval context.
func (s *IndexService) Query(ctx context.Context, text string, k int) ([]domain.Passage, error) {
	snap := s.current.Load()
	if snap == nil || len(snap.Passages) == 0 {
		return nil, domain.ErrSnapshotMissing
	}
	if k <= 0 {
		k = DefaultTopK
	}

	query, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	type scored struct {
		idx   int
		score float64
	}
	results := make([]scored, len(snap.Passages))
	for i := range snap.Passages {
		results[i] = scored{idx: i, score: CosineSimilarity(query, snap.Vectors[i])}
	}
	// Stable sort keeps insertion order among equal scores.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if k > len(results) {
		k = len(results)
	}
	passages := make([]domain.Passage, k)
	for i := 0; i < k; i++ {
		passages[i] = snap.Passages[results[i].idx]
	}
	return passages, nil
}

// CosineSimilarity computes the cosine of the angle between two
// vectors. Mismatched lengths, nil vectors and zero norms score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
