// Package local provides a directory-backed remote document store for
// development, with an optional filesystem watcher that triggers a
// refresh on out-of-band edits.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/brightlyhq/brightly/internal/core/domain"
	"github.com/brightlyhq/brightly/internal/core/ports/driven"
	"github.com/brightlyhq/brightly/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.RemoteStore = (*Store)(nil)

// DocumentSuffix restricts which files participate in the document set.
const DocumentSuffix = ".txt"

// Store is a remote document store backed by a plain directory.
type Store struct {
	dir     string
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewStore creates a store over dir, creating it if missing.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("local: create dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// List enumerates every text document with its content, in path order.
func (s *Store) List(ctx context.Context) ([]domain.RemoteObject, error) {
	var objects []domain.RemoteObject

	err := filepath.Walk(s.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, DocumentSuffix) {
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
		objects = append(objects, domain.RemoteObject{
			Path:    filepath.ToSlash(rel),
			Content: string(content),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w: %w", s.dir, domain.ErrRemoteUnavailable, err)
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Path < objects[j].Path })
	return objects, nil
}

// Get fetches a single document by path.
func (s *Store) Get(ctx context.Context, path string) (domain.RemoteObject, error) {
	content, err := os.ReadFile(s.localPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.RemoteObject{}, fmt.Errorf("get %s: %w", path, domain.ErrNotFound)
		}
		return domain.RemoteObject{}, fmt.Errorf("get %s: %w", path, err)
	}
	return domain.RemoteObject{Path: path, Content: string(content)}, nil
}

// Put creates or replaces a document.
func (s *Store) Put(ctx context.Context, path, content string) error {
	full := s.localPath(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("put %s: %w", path, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return fmt.Errorf("put %s: %w", path, err)
	}
	return nil
}

// Delete removes a document.
func (s *Store) Delete(ctx context.Context, path string) error {
	if err := os.Remove(s.localPath(path)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("delete %s: %w", path, domain.ErrNotFound)
		}
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

// Watch starts a filesystem watcher over the document directory and
// every subdirectory, calling onChange after a write, create, remove
// or rename of a text file. Directories created later are added to the
// watch. It runs until Close.
func (s *Store) Watch(onChange func()) error {
	if s.watcher != nil {
		return fmt.Errorf("local: watcher already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("local: create watcher: %w", err)
	}
	if err := watchRecursive(watcher, s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("local: watch %s: %w", s.dir, err)
	}

	s.watcher = watcher
	s.done = make(chan struct{})

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						if err := watchRecursive(watcher, event.Name); err != nil {
							logger.Warn("Cannot watch new directory %s: %v", event.Name, err)
						}
						continue
					}
				}
				if !strings.HasSuffix(event.Name, DocumentSuffix) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					logger.Debug("Document change detected: %s %s", event.Op, event.Name)
					onChange()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Watcher error: %v", err)
			case <-s.done:
				return
			}
		}
	}()

	logger.Info("Watching %s for document changes", s.dir)
	return nil
}

// Close stops the watcher if running.
func (s *Store) Close() error {
	if s.watcher == nil {
		return nil
	}
	close(s.done)
	err := s.watcher.Close()
	s.watcher = nil
	return err
}

func (s *Store) localPath(path string) string {
	return filepath.Join(s.dir, filepath.FromSlash(path))
}

// watchRecursive adds dir and every directory below it to the watcher.
func watchRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
