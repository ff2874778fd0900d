package services

import (
	"context"
	"errors"
	"sort"

	"github.com/brightlyhq/brightly/internal/core/domain"
	"github.com/brightlyhq/brightly/internal/core/ports/driven"
)

// mockRemoteStore implements driven.RemoteStore over an in-memory map.
type mockRemoteStore struct {
	objects   map[string]string
	listErr   error
	listCalls int
}

func newMockRemoteStore() *mockRemoteStore {
	return &mockRemoteStore{objects: map[string]string{}}
}

func (m *mockRemoteStore) List(_ context.Context) ([]domain.RemoteObject, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	paths := make([]string, 0, len(m.objects))
	for path := range m.objects {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	out := make([]domain.RemoteObject, 0, len(paths))
	for _, path := range paths {
		out = append(out, domain.RemoteObject{Path: path, Content: m.objects[path]})
	}
	return out, nil
}

func (m *mockRemoteStore) Get(_ context.Context, path string) (domain.RemoteObject, error) {
	content, ok := m.objects[path]
	if !ok {
		return domain.RemoteObject{}, domain.ErrNotFound
	}
	return domain.RemoteObject{Path: path, Content: content}, nil
}

func (m *mockRemoteStore) Put(_ context.Context, path, content string) error {
	m.objects[path] = content
	return nil
}

func (m *mockRemoteStore) Delete(_ context.Context, path string) error {
	if _, ok := m.objects[path]; !ok {
		return domain.ErrNotFound
	}
	delete(m.objects, path)
	return nil
}

func (m *mockRemoteStore) Close() error { return nil }

// mockManifestStore implements driven.ManifestStore in memory.
type mockManifestStore struct {
	manifest domain.Manifest
	loadErr  error
	saveErr  error
}

func newMockManifestStore() *mockManifestStore {
	return &mockManifestStore{manifest: domain.Manifest{}}
}

func (m *mockManifestStore) Load(_ context.Context) (domain.Manifest, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.manifest.Clone(), nil
}

func (m *mockManifestStore) Save(_ context.Context, manifest domain.Manifest) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.manifest = manifest.Clone()
	return nil
}

// mockSnapshotStore implements driven.SnapshotStore in memory.
type mockSnapshotStore struct {
	snap      *domain.Snapshot
	loadErr   error
	saveErr   error
	saveCalls int
}

func (m *mockSnapshotStore) Load(_ context.Context) (*domain.Snapshot, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.snap == nil {
		return nil, domain.ErrSnapshotMissing
	}
	return m.snap, nil
}

func (m *mockSnapshotStore) Save(_ context.Context, snap *domain.Snapshot) error {
	m.saveCalls++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.snap = snap
	return nil
}

// mockSessionStore implements driven.SessionStore in memory.
type mockSessionStore struct {
	saved   [][]domain.ConversationTurn
	saveErr error
}

func (m *mockSessionStore) SaveSession(_ context.Context, turns []domain.ConversationTurn) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, turns)
	return nil
}

func (m *mockSessionStore) LoadLatest(_ context.Context) ([]domain.ConversationTurn, error) {
	if len(m.saved) == 0 {
		return nil, domain.ErrNotFound
	}
	return m.saved[len(m.saved)-1], nil
}

// stubEmbedder returns fixed vectors per input text so similarity
// ordering is controllable from tests. Unknown texts embed to def;
// texts in fail error out.
type stubEmbedder struct {
	vectors map[string][]float32
	def     []float32
	fail    map[string]bool
}

func newStubEmbedder() *stubEmbedder {
	return &stubEmbedder{
		vectors: map[string][]float32{},
		def:     []float32{1, 0, 0},
		fail:    map[string]bool{},
	}
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if s.fail[text] {
		return nil, errors.New("embedding unavailable")
	}
	if vec, ok := s.vectors[text]; ok {
		return vec, nil
	}
	return s.def, nil
}

func (s *stubEmbedder) Dimensions() int   { return len(s.def) }
func (s *stubEmbedder) ModelName() string { return "stub" }
func (s *stubEmbedder) Close() error      { return nil }

// stubLLM returns a fixed completion or error and records the prompts.
type stubLLM struct {
	response string
	err      error

	lastSystemPrompt string
	lastUserPrompt   string
	calls            int
}

func (s *stubLLM) Complete(_ context.Context, systemPrompt, userPrompt string, _ driven.CompleteOptions) (string, error) {
	s.calls++
	s.lastSystemPrompt = systemPrompt
	s.lastUserPrompt = userPrompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubLLM) ModelName() string { return "stub" }
func (s *stubLLM) Close() error      { return nil }
