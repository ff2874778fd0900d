package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightlyhq/brightly/internal/core/domain"
)

func newTestMirror(t *testing.T) (*MirrorService, *mockRemoteStore, *mockManifestStore) {
	t.Helper()
	remote := newMockRemoteStore()
	manifests := newMockManifestStore()
	return NewMirrorService(remote, manifests, t.TempDir()), remote, manifests
}

func TestSyncFirstRunCopiesEverything(t *testing.T) {
	mirror, remote, manifests := newTestMirror(t)
	remote.objects["fees.txt"] = "fee schedule"
	remote.objects["staff/principal.txt"] = "principal info"

	changed, err := mirror.Sync(context.Background())

	require.NoError(t, err)
	assert.True(t, changed)
	assert.Len(t, manifests.manifest, 2)

	docs, err := mirror.Documents(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "fees.txt", docs[0].Path)
	assert.Equal(t, "fee schedule", docs[0].Content)
	assert.Equal(t, "staff/principal.txt", docs[1].Path)
}

func TestSyncIsIdempotent(t *testing.T) {
	mirror, remote, _ := newTestMirror(t)
	remote.objects["fees.txt"] = "fee schedule"

	changed, err := mirror.Sync(context.Background())
	require.NoError(t, err)
	require.True(t, changed)

	changed, err = mirror.Sync(context.Background())
	require.NoError(t, err)
	assert.False(t, changed, "second sync over an unchanged remote must report no change")
}

func TestSyncDetectsContentChange(t *testing.T) {
	mirror, remote, _ := newTestMirror(t)
	remote.objects["fees.txt"] = "old schedule"
	_, err := mirror.Sync(context.Background())
	require.NoError(t, err)

	remote.objects["fees.txt"] = "new schedule"

	changed, err := mirror.Sync(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)

	docs, err := mirror.Documents(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "new schedule", docs[0].Content)
}

func TestSyncPropagatesDeletion(t *testing.T) {
	mirror, remote, manifests := newTestMirror(t)
	remote.objects["fees.txt"] = "fee schedule"
	remote.objects["events.txt"] = "annual day"
	_, err := mirror.Sync(context.Background())
	require.NoError(t, err)

	delete(remote.objects, "events.txt")

	changed, err := mirror.Sync(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NotContains(t, manifests.manifest, "events.txt")

	docs, err := mirror.Documents(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "fees.txt", docs[0].Path)
}

func TestSyncUnreachableRemoteKeepsMirror(t *testing.T) {
	mirror, remote, manifests := newTestMirror(t)
	remote.objects["fees.txt"] = "fee schedule"
	_, err := mirror.Sync(context.Background())
	require.NoError(t, err)

	remote.listErr = errors.New("connection refused")

	changed, err := mirror.Sync(context.Background())
	require.NoError(t, err, "an unreachable remote is not a sync error")
	assert.False(t, changed)

	// Nothing local is deleted and the manifest survives.
	docs, err := mirror.Documents(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Len(t, manifests.manifest, 1)
}

func TestSyncRestoresMissingLocalFile(t *testing.T) {
	remote := newMockRemoteStore()
	manifests := newMockManifestStore()
	dir := t.TempDir()
	mirror := NewMirrorService(remote, manifests, dir)

	remote.objects["fees.txt"] = "fee schedule"
	_, err := mirror.Sync(context.Background())
	require.NoError(t, err)

	// Simulate an operator deleting the local copy by hand.
	require.NoError(t, os.Remove(filepath.Join(dir, "fees.txt")))

	changed, err := mirror.Sync(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)

	docs, err := mirror.Documents(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestSyncRemovesStrayLocalFile(t *testing.T) {
	remote := newMockRemoteStore()
	manifests := newMockManifestStore()
	dir := t.TempDir()
	mirror := NewMirrorService(remote, manifests, dir)

	// A local copy the manifest knows nothing about, e.g. left behind
	// after a failed manifest save.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ghost.txt"), []byte("stale"), 0o644))

	changed, err := mirror.Sync(context.Background())

	require.NoError(t, err)
	assert.True(t, changed)

	docs, err := mirror.Documents(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs, "remotely-absent document must leave the mirror")
}

func TestSyncDeletionSurvivesLostManifest(t *testing.T) {
	remote := newMockRemoteStore()
	manifests := newMockManifestStore()
	dir := t.TempDir()
	mirror := NewMirrorService(remote, manifests, dir)

	remote.objects["fees.txt"] = "fee schedule"
	remote.objects["events.txt"] = "annual day"
	_, err := mirror.Sync(context.Background())
	require.NoError(t, err)

	// The manifest is wiped out of band and the document is deleted
	// remotely; the next sync must still remove the local copy.
	manifests.manifest = domain.Manifest{}
	delete(remote.objects, "events.txt")

	changed, err := mirror.Sync(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)

	docs, err := mirror.Documents(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "fees.txt", docs[0].Path)
}

func TestSyncManifestSaveFailureIsNotFatal(t *testing.T) {
	mirror, remote, manifests := newTestMirror(t)
	remote.objects["fees.txt"] = "fee schedule"
	manifests.saveErr = errors.New("disk full")

	changed, err := mirror.Sync(context.Background())

	require.NoError(t, err)
	assert.True(t, changed)
}

func TestDocumentsEmptyMirror(t *testing.T) {
	mirror, _, _ := newTestMirror(t)

	docs, err := mirror.Documents(context.Background())

	require.NoError(t, err)
	assert.Empty(t, docs)
}
