package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/brightlyhq/brightly/internal/core/domain"
	"github.com/brightlyhq/brightly/internal/core/ports/driven"
	"github.com/brightlyhq/brightly/internal/core/ports/driving"
	"github.com/brightlyhq/brightly/internal/logger"
)

// Ensure AssistantService implements the interface.
var _ driving.Assistant = (*AssistantService)(nil)

// AssistantService owns the process-scoped conversational state: the
// session memory, the conversation log and the index handle. It has an
// explicit lifecycle: Init at startup, Close at shutdown.
type AssistantService struct {
	router   *Router
	memory   *SessionMemory
	index    *IndexService
	sessions driven.SessionStore

	mu      sync.Mutex
	history []domain.ConversationTurn
}

// NewAssistantService wires an assistant over the given collaborators.
func NewAssistantService(
	router *Router,
	memory *SessionMemory,
	index *IndexService,
	sessions driven.SessionStore,
) *AssistantService {
	return &AssistantService{
		router:   router,
		memory:   memory,
		index:    index,
		sessions: sessions,
	}
}

// Init prepares the assistant: it reuses the persisted snapshot when
// still valid and refreshes the mirror and index. refresh forces a
// sync even when a snapshot was loaded.
func (s *AssistantService) Init(ctx context.Context, refresh bool) error {
	s.index.Load(ctx)
	if !refresh && s.indexReady() {
		return nil
	}
	if err := s.index.Refresh(ctx, false); err != nil {
		return fmt.Errorf("initial refresh: %w", err)
	}
	return nil
}

// Ask routes a question through the handler cascade. Every
// sub-question's exchange is appended to session memory and the
// conversation log before the reply is returned.
func (s *AssistantService) Ask(ctx context.Context, question string) (driving.Reply, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return driving.Reply{}, fmt.Errorf("empty question: %w", domain.ErrInvalidInput)
	}

	turns := s.router.Route(ctx, question)

	answers := make([]string, len(turns))
	for i, turn := range turns {
		answers[i] = turn.Answer
		s.memory.Add(ctx, turn.Question, turn.Answer)
	}

	s.mu.Lock()
	s.history = append(s.history, turns...)
	history := make([]domain.ConversationTurn, len(s.history))
	copy(history, s.history)
	s.mu.Unlock()

	return driving.Reply{
		Answer:  strings.Join(answers, "\n"),
		History: history,
	}, nil
}

// History returns a copy of the conversation log.
func (s *AssistantService) History() []domain.ConversationTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ConversationTurn, len(s.history))
	copy(out, s.history)
	return out
}

// Close persists the bounded session log. Persistence failures are
// logged and swallowed; shutdown never fails on them.
func (s *AssistantService) Close(ctx context.Context) {
	turns := s.memory.Turns()
	if len(turns) == 0 {
		return
	}
	if err := s.sessions.SaveSession(ctx, turns); err != nil {
		logger.Warn("Session persist failed: %v", err)
		return
	}
	logger.Info("Session persisted: %d turns", len(turns))
}

func (s *AssistantService) indexReady() bool {
	return s.index.current.Load() != nil
}
