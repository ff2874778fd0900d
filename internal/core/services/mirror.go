package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/brightlyhq/brightly/internal/core/domain"
	"github.com/brightlyhq/brightly/internal/core/ports/driven"
	"github.com/brightlyhq/brightly/internal/core/ports/driving"
	"github.com/brightlyhq/brightly/internal/logger"
)

// Ensure MirrorService implements the interface.
var _ driving.Mirror = (*MirrorService)(nil)

// MirrorService maintains a local, hash-verified copy of the remote
// document set. The persisted manifest is the single source of truth
// for change detection: it is read at the start of a sync and replaced
// with exactly the current remote set at the end of a successful one.
type MirrorService struct {
	remote    driven.RemoteStore
	manifests driven.ManifestStore
	dir       string
}

// NewMirrorService creates a mirror service writing local copies under dir.
func NewMirrorService(remote driven.RemoteStore, manifests driven.ManifestStore, dir string) *MirrorService {
	return &MirrorService{
		remote:    remote,
		manifests: manifests,
		dir:       dir,
	}
}

// Sync reconciles the local mirror against the remote listing and
// reports whether any document was added, changed or removed.
//
// When the remote listing is unreachable Sync reports no change and
// keeps the cached mirror intact: stale data is preferred over data
// loss, so nothing local is ever deleted on a failed fetch.
func (s *MirrorService) Sync(ctx context.Context) (bool, error) {
	logger.Section("Mirror Sync")

	objects, err := s.remote.List(ctx)
	if err != nil {
		logger.Warn("Remote listing unreachable, keeping cached mirror: %v", err)
		return false, nil
	}
	logger.Debug("Remote listing: %d documents", len(objects))

	manifest, err := s.manifests.Load(ctx)
	if err != nil {
		logger.Warn("Manifest load failed, treating all documents as new: %v", err)
		manifest = domain.Manifest{}
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return false, fmt.Errorf("create mirror dir: %w", err)
	}

	changed := false
	next := make(domain.Manifest, len(objects))

	for _, obj := range objects {
		doc := domain.NewDocument(obj.Path, obj.Content)
		next[doc.Path] = doc.Hash

		if manifest[doc.Path] == doc.Hash && s.localExists(doc.Path) {
			continue
		}

		if err := s.writeLocal(doc); err != nil {
			return false, fmt.Errorf("write local copy of %s: %w", doc.Path, err)
		}
		logger.Debug("Updated local copy: %s", doc.Path)
		changed = true
	}

	// The removal sweep walks the mirror itself, not the manifest: a
	// stale or empty manifest must not let remotely-deleted documents
	// survive locally.
	locals, err := s.localDocumentPaths()
	if err != nil {
		return false, fmt.Errorf("list local copies: %w", err)
	}
	for _, path := range locals {
		if _, ok := next[path]; ok {
			continue
		}
		if err := os.Remove(s.localPath(path)); err != nil && !os.IsNotExist(err) {
			return false, fmt.Errorf("remove local copy of %s: %w", path, err)
		}
		logger.Debug("Removed local copy: %s", path)
		changed = true
	}

	if err := s.manifests.Save(ctx, next); err != nil {
		// The mirror itself is already consistent; a failed manifest
		// write just means the next sync re-detects the same changes.
		logger.Warn("Manifest save failed: %v", err)
	}

	logger.Info("Mirror sync complete: changed=%t, documents=%d", changed, len(next))
	return changed, nil
}

// Documents returns the current local document set in path order.
func (s *MirrorService) Documents(ctx context.Context) ([]domain.Document, error) {
	var docs []domain.Document

	err := filepath.Walk(s.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".txt") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		docs = append(docs, domain.NewDocument(filepath.ToSlash(rel), string(content)))
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("walk mirror dir: %w", err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

// Manifest returns the persisted manifest, empty when none exists.
func (s *MirrorService) Manifest(ctx context.Context) domain.Manifest {
	m, err := s.manifests.Load(ctx)
	if err != nil {
		logger.Warn("Manifest load failed: %v", err)
		return domain.Manifest{}
	}
	return m
}

// localDocumentPaths lists the relative paths of every text document
// currently in the mirror directory.
func (s *MirrorService) localDocumentPaths() ([]string, error) {
	var paths []string

	err := filepath.Walk(s.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".txt") {
			return nil
		}
		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func (s *MirrorService) localPath(docPath string) string {
	return filepath.Join(s.dir, filepath.FromSlash(docPath))
}

func (s *MirrorService) localExists(docPath string) bool {
	_, err := os.Stat(s.localPath(docPath))
	return err == nil
}

func (s *MirrorService) writeLocal(doc domain.Document) error {
	path := s.localPath(doc.Path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(doc.Content), 0o644)
}
