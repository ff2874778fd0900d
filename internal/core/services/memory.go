package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/brightlyhq/brightly/internal/core/domain"
	"github.com/brightlyhq/brightly/internal/core/ports/driven"
	"github.com/brightlyhq/brightly/internal/logger"
)

// DefaultRecallSize is the number of remembered exchanges returned by
// Retrieve when callers pass no explicit limit.
const DefaultRecallSize = 5

// MaxPersistedTurns bounds the rolling session log written at shutdown.
const MaxPersistedTurns = 50

// SessionMemory is the in-process log of (question, answer, embedding)
// triples used for short-term conversational recall. It is append-only
// and unbounded during a session; truncation to the most recent
// MaxPersistedTurns happens only at persistence time.
type SessionMemory struct {
	embedder driven.EmbeddingService

	mu      sync.Mutex
	entries []domain.MemoryEntry
}

// NewSessionMemory creates an empty session memory.
func NewSessionMemory(embedder driven.EmbeddingService) *SessionMemory {
	return &SessionMemory{embedder: embedder}
}

// Add appends one exchange. Embedding the question is best-effort: on
// failure the entry is kept with a nil embedding so it still persists,
// but it is excluded from similarity scoring.
func (m *SessionMemory) Add(ctx context.Context, question, answer string) {
	vec, err := m.embedder.Embed(ctx, question)
	if err != nil {
		logger.Warn("Memory embedding failed, storing entry without vector: %v", err)
		vec = nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, domain.MemoryEntry{
		Question:  question,
		Answer:    answer,
		Embedding: vec,
	})
}

// Retrieve returns the top-n remembered exchanges most similar to
// question, formatted as Q/A pairs joined by newlines. Ties are broken
// by recency: the later entry wins. Returns the empty string when
// memory is empty or the question cannot be embedded.
func (m *SessionMemory) Retrieve(ctx context.Context, question string, n int) string {
	m.mu.Lock()
	entries := make([]domain.MemoryEntry, len(m.entries))
	copy(entries, m.entries)
	m.mu.Unlock()

	if len(entries) == 0 {
		return ""
	}
	if n <= 0 {
		n = DefaultRecallSize
	}

	query, err := m.embedder.Embed(ctx, question)
	if err != nil {
		logger.Warn("Memory recall embedding failed: %v", err)
		return ""
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, 0, len(entries))
	for i, entry := range entries {
		if entry.Embedding == nil {
			continue
		}
		ranked = append(ranked, scored{idx: i, score: CosineSimilarity(query, entry.Embedding)})
	}
	if len(ranked) == 0 {
		return ""
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score == ranked[j].score {
			return ranked[i].idx > ranked[j].idx
		}
		return ranked[i].score > ranked[j].score
	})

	if n > len(ranked) {
		n = len(ranked)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		entry := entries[ranked[i].idx]
		out[i] = fmt.Sprintf("Q: %s\nA: %s", entry.Question, entry.Answer)
	}
	return strings.Join(out, "\n")
}

// Turns converts the log to conversation turns, truncated to the most
// recent MaxPersistedTurns for persistence.
func (m *SessionMemory) Turns() []domain.ConversationTurn {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.entries
	if len(entries) > MaxPersistedTurns {
		entries = entries[len(entries)-MaxPersistedTurns:]
	}
	turns := make([]domain.ConversationTurn, len(entries))
	for i, e := range entries {
		turns[i] = domain.ConversationTurn{Question: e.Question, Answer: e.Answer}
	}
	return turns
}

// Len returns the number of stored entries.
func (m *SessionMemory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

