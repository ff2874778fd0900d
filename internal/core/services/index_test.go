package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightlyhq/brightly/internal/core/domain"
)

type indexFixture struct {
	index     *IndexService
	remote    *mockRemoteStore
	manifests *mockManifestStore
	snapshots *mockSnapshotStore
	embedder  *stubEmbedder
}

func newIndexFixture(t *testing.T) *indexFixture {
	t.Helper()
	remote := newMockRemoteStore()
	manifests := newMockManifestStore()
	snapshots := &mockSnapshotStore{}
	embedder := newStubEmbedder()
	mirror := NewMirrorService(remote, manifests, t.TempDir())
	return &indexFixture{
		index:     NewIndexService(mirror, embedder, snapshots),
		remote:    remote,
		manifests: manifests,
		snapshots: snapshots,
		embedder:  embedder,
	}
}

func TestRefreshBuildsSnapshot(t *testing.T) {
	f := newIndexFixture(t)
	f.remote.objects["fees.txt"] = "the annual fee is 50000"

	err := f.index.Refresh(context.Background(), false)

	require.NoError(t, err)
	require.NotNil(t, f.snapshots.snap)
	require.Len(t, f.snapshots.snap.Passages, 1)
	assert.Equal(t, "fees.txt", f.snapshots.snap.Passages[0].DocumentPath)
	assert.NotEmpty(t, f.snapshots.snap.Passages[0].ID)
	assert.Equal(t, f.manifests.manifest.Fingerprint(), f.snapshots.snap.Fingerprint)
}

func TestRefreshSkipsRebuildWhenUnchanged(t *testing.T) {
	f := newIndexFixture(t)
	f.remote.objects["fees.txt"] = "the annual fee is 50000"

	require.NoError(t, f.index.Refresh(context.Background(), false))
	require.Equal(t, 1, f.snapshots.saveCalls)

	require.NoError(t, f.index.Refresh(context.Background(), false))
	assert.Equal(t, 1, f.snapshots.saveCalls, "unchanged documents must not trigger a rebuild")
}

func TestRefreshForceRebuildsWhenUnchanged(t *testing.T) {
	f := newIndexFixture(t)
	f.remote.objects["fees.txt"] = "the annual fee is 50000"

	require.NoError(t, f.index.Refresh(context.Background(), false))
	require.NoError(t, f.index.Refresh(context.Background(), true))

	assert.Equal(t, 2, f.snapshots.saveCalls)
}

func TestRefreshRebuildsAfterChange(t *testing.T) {
	f := newIndexFixture(t)
	f.remote.objects["fees.txt"] = "old"
	require.NoError(t, f.index.Refresh(context.Background(), false))

	f.remote.objects["fees.txt"] = "new"
	require.NoError(t, f.index.Refresh(context.Background(), false))

	assert.Equal(t, 2, f.snapshots.saveCalls)
	assert.Equal(t, "new", f.snapshots.snap.Passages[0].Text)
}

func TestRefreshServesOldSnapshotWhileRemoteDown(t *testing.T) {
	f := newIndexFixture(t)
	f.remote.objects["fees.txt"] = "the annual fee is 50000"
	require.NoError(t, f.index.Refresh(context.Background(), false))

	f.remote.listErr = errors.New("connection refused")
	require.NoError(t, f.index.Refresh(context.Background(), false))

	passages, err := f.index.Query(context.Background(), "fees", 1)
	require.NoError(t, err)
	assert.Len(t, passages, 1)
}

func TestRefreshPersistFailureStillInstalls(t *testing.T) {
	f := newIndexFixture(t)
	f.remote.objects["fees.txt"] = "the annual fee is 50000"
	f.snapshots.saveErr = errors.New("disk full")

	require.NoError(t, f.index.Refresh(context.Background(), false))

	passages, err := f.index.Query(context.Background(), "fees", 1)
	require.NoError(t, err)
	assert.Len(t, passages, 1)
}

func TestQueryWithoutSnapshot(t *testing.T) {
	f := newIndexFixture(t)

	_, err := f.index.Query(context.Background(), "fees", 3)

	assert.ErrorIs(t, err, domain.ErrSnapshotMissing)
}

func TestQueryRanksBySimilarity(t *testing.T) {
	f := newIndexFixture(t)
	f.remote.objects["a.txt"] = "alpha"
	f.remote.objects["b.txt"] = "beta"
	f.remote.objects["c.txt"] = "gamma"
	f.embedder.vectors["alpha"] = []float32{1, 0, 0}
	f.embedder.vectors["beta"] = []float32{0, 1, 0}
	f.embedder.vectors["gamma"] = []float32{0.9, 0.1, 0}
	f.embedder.vectors["query"] = []float32{1, 0, 0}

	require.NoError(t, f.index.Refresh(context.Background(), false))

	passages, err := f.index.Query(context.Background(), "query", 2)
	require.NoError(t, err)
	require.Len(t, passages, 2)
	assert.Equal(t, "alpha", passages[0].Text)
	assert.Equal(t, "gamma", passages[1].Text)
}

func TestQueryTiesKeepInsertionOrder(t *testing.T) {
	f := newIndexFixture(t)
	f.remote.objects["a.txt"] = "first"
	f.remote.objects["b.txt"] = "second"
	f.remote.objects["c.txt"] = "third"
	same := []float32{1, 0, 0}
	f.embedder.vectors["first"] = same
	f.embedder.vectors["second"] = same
	f.embedder.vectors["third"] = same
	f.embedder.vectors["query"] = same

	require.NoError(t, f.index.Refresh(context.Background(), false))

	passages, err := f.index.Query(context.Background(), "query", 3)
	require.NoError(t, err)
	require.Len(t, passages, 3)
	assert.Equal(t, "first", passages[0].Text)
	assert.Equal(t, "second", passages[1].Text)
	assert.Equal(t, "third", passages[2].Text)
}

func TestQueryKLargerThanIndex(t *testing.T) {
	f := newIndexFixture(t)
	f.remote.objects["a.txt"] = "only one"

	require.NoError(t, f.index.Refresh(context.Background(), false))

	passages, err := f.index.Query(context.Background(), "anything", 10)
	require.NoError(t, err)
	assert.Len(t, passages, 1)
}

func TestLoadReusesMatchingSnapshot(t *testing.T) {
	f := newIndexFixture(t)
	f.remote.objects["fees.txt"] = "the annual fee is 50000"
	require.NoError(t, f.index.Refresh(context.Background(), false))

	// A fresh service over the same stores picks up the snapshot
	// without rebuilding.
	mirror := NewMirrorService(f.remote, f.manifests, t.TempDir())
	fresh := NewIndexService(mirror, f.embedder, f.snapshots)
	fresh.Load(context.Background())

	passages, err := fresh.Query(context.Background(), "fees", 1)
	require.NoError(t, err)
	assert.Len(t, passages, 1)
}

func TestLoadSkipsStaleSnapshot(t *testing.T) {
	f := newIndexFixture(t)
	f.snapshots.snap = &domain.Snapshot{
		Fingerprint: "stale",
		BuiltAt:     time.Now().UTC(),
		Passages:    []domain.Passage{{ID: "p", Text: "old"}},
		Vectors:     [][]float32{{1, 0, 0}},
	}
	f.manifests.manifest = domain.Manifest{"fees.txt": "abc"}

	f.index.Load(context.Background())

	_, err := f.index.Query(context.Background(), "fees", 1)
	assert.ErrorIs(t, err, domain.ErrSnapshotMissing)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{1, 0}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)

	// Degenerate inputs score zero.
	assert.Zero(t, CosineSimilarity(nil, nil))
	assert.Zero(t, CosineSimilarity([]float32{1}, []float32{1, 0}))
	assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 0}))
}
