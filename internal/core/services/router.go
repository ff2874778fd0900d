package services

import (
	"context"
	"regexp"
	"strings"

	"github.com/brightlyhq/brightly/internal/core/domain"
	"github.com/brightlyhq/brightly/internal/logger"
)

// subQuestionPattern splits a compound question on sentence-terminal
// punctuation and the conjunction "and".
var subQuestionPattern = regexp.MustCompile(`[?;]| and `)

var subQuestionSeparators = []string{" and ", ";", "?"}

// SplitSubQuestions breaks a compound question into independent
// sub-questions. Text without any separator passes through whole.
// Splitting on content-"and" is a known over-split kept for parity
// with the deployed behaviour.
func SplitSubQuestions(q string) []string {
	lower := strings.ToLower(q)
	found := false
	for _, sep := range subQuestionSeparators {
		if strings.Contains(lower, sep) {
			found = true
			break
		}
	}
	if !found {
		if t := strings.TrimSpace(q); t != "" {
			return []string{t}
		}
		return nil
	}

	var subs []string
	for _, part := range subQuestionPattern.Split(q, -1) {
		if t := strings.TrimSpace(part); t != "" {
			subs = append(subs, t)
		}
	}
	return subs
}

// Router runs each sub-question through the ordered handler cascade
// and falls back to retrieval-augmented generation. The first handler
// producing an answer wins and terminates routing for that
// sub-question.
type Router struct {
	handlers []Handler
	synth    *Synthesizer
}

// NewRouter creates a router with the fixed cascade order: math,
// greeting, farewell, emotion, identity/capability, meta, then the
// retrieval fallback.
func NewRouter(synth *Synthesizer, emotion *EmotionHandler, meta *MetaHandler) *Router {
	return &Router{
		handlers: []Handler{
			&MathHandler{},
			&GreetingHandler{},
			&FarewellHandler{},
			emotion,
			&IdentityHandler{},
			meta,
		},
		synth: synth,
	}
}

// Route answers one question. Compound questions are split first; each
// sub-question runs the full cascade independently and the answers are
// returned in original order.
func (r *Router) Route(ctx context.Context, question string) []domain.ConversationTurn {
	subs := SplitSubQuestions(question)
	turns := make([]domain.ConversationTurn, 0, len(subs))
	for _, sub := range subs {
		turns = append(turns, domain.ConversationTurn{
			Question: sub,
			Answer:   r.route(ctx, sub),
		})
	}
	return turns
}

func (r *Router) route(ctx context.Context, sub string) string {
	for _, h := range r.handlers {
		if answer, ok := h.Handle(ctx, sub); ok {
			logger.Debug("Handler %q answered %q", h.Name(), sub)
			return answer
		}
	}
	logger.Debug("No fast path matched %q, using retrieval", sub)
	return r.synth.Answer(ctx, sub)
}

var metaPhrases = []string{"what did i just ask", "what did i ask now", "what did i ask"}

// MetaHandler answers "what did I just ask" style questions verbatim
// from the conversation log.
type MetaHandler struct {
	history func() []domain.ConversationTurn
}

// NewMetaHandler creates a meta handler reading from the given
// conversation log accessor.
func NewMetaHandler(history func() []domain.ConversationTurn) *MetaHandler {
	return &MetaHandler{history: history}
}

func (h *MetaHandler) Name() string { return "meta" }

func (h *MetaHandler) Handle(ctx context.Context, question string) (string, bool) {
	lower := strings.ToLower(question)
	matched := false
	for _, phrase := range metaPhrases {
		if strings.Contains(lower, phrase) {
			matched = true
			break
		}
	}
	if !matched {
		return "", false
	}

	turns := h.history()
	if len(turns) == 0 {
		return "You haven't asked me anything yet.", true
	}
	return "You asked: \"" + turns[len(turns)-1].Question + "\"", true
}
