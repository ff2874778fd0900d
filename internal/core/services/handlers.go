package services

import (
	"context"
	"math/rand/v2"
	"regexp"
	"strings"

	"github.com/brightlyhq/brightly/internal/core/ports/driven"
	"github.com/brightlyhq/brightly/internal/logger"
	"github.com/brightlyhq/brightly/internal/mathsolver"
)

// Handler is one stage of the question cascade. Handle reports whether
// it produced an answer; an unmatched handler falls through to the next
// stage.
type Handler interface {
	// Name identifies the handler in logs.
	Name() string

	// Handle attempts to answer the question.
	Handle(ctx context.Context, question string) (answer string, ok bool)
}

// mathPattern matches questions that look like math: operators,
// function names, calculus keywords or an equation.
var mathPattern = regexp.MustCompile(`d/dx|dx|differentiate|derive|integrate|roots|equation|simplify|sin|cos|tan|log|sqrt|=|[\d+\-*/^()]`)

// cannedDefinitions answers common textbook questions without a model
// round-trip.
var cannedDefinitions = map[string]string{
	"quadratic equations": "A quadratic equation is of the form ax² + bx + c = 0. The solutions are x = [-b ± √(b² - 4ac)] / 2a.",
}

// MathHandler answers arithmetic, calculus and equation questions with
// the symbolic solver. A step-by-step explanation is preferred over a
// plain evaluation. Questions that merely look like math but produce
// nothing fall through to the later stages.
type MathHandler struct{}

func (h *MathHandler) Name() string { return "math" }

func (h *MathHandler) Handle(ctx context.Context, question string) (string, bool) {
	lower := strings.ToLower(question)
	for key, definition := range cannedDefinitions {
		if strings.Contains(lower, key) {
			return definition, true
		}
	}
	if !mathPattern.MatchString(question) {
		return "", false
	}
	if answer, ok := mathsolver.Explain(question); ok {
		return answer, true
	}
	if answer, ok := mathsolver.Evaluate(question); ok {
		return answer, true
	}
	return "", false
}

var greetingVocabulary = []string{"hello", "hi", "hey", "good morning", "good afternoon", "good evening"}

// GreetingHandler returns a canned welcome on any greeting phrase.
type GreetingHandler struct{}

func (h *GreetingHandler) Name() string { return "greeting" }

func (h *GreetingHandler) Handle(ctx context.Context, question string) (string, bool) {
	lower := strings.ToLower(question)
	for _, g := range greetingVocabulary {
		if strings.Contains(lower, g) {
			return "Welcome to ABC School! I'm Brightly, your assistant. How can I help you today?", true
		}
	}
	return "", false
}

var farewellVocabulary = []string{"bye", "goodbye", "see you", "farewell"}

// FarewellHandler returns a canned goodbye on any farewell phrase.
type FarewellHandler struct{}

func (h *FarewellHandler) Name() string { return "farewell" }

func (h *FarewellHandler) Handle(ctx context.Context, question string) (string, bool) {
	lower := strings.ToLower(question)
	for _, f := range farewellVocabulary {
		if strings.Contains(lower, f) {
			return "Goodbye! Have a great day 🌟 Come back soon!", true
		}
	}
	return "", false
}

// factualPattern matches words indicating an information request;
// those skip sentiment classification entirely.
var factualPattern = regexp.MustCompile(`\b(what|where|when|how|who|which|fee|fees|address|location|principal|teacher|school|exam|contact|number|subject|student|class|admission)\b`)

// expressiveEmojis already carry their sentiment; no classification
// needed.
var expressiveEmojis = []string{"💡", "😊", "😄", "🎉", "🥳"}

var positiveReplies = []string{
	"That's really kind of you, thank you 😊",
	"Glad to hear that! You're awesome!",
	"That made my day 😄",
	"You're too sweet — thanks a lot!",
	"Aww, I appreciate that 💫",
}

const emotionSystemPrompt = `Detect if this message is Positive (appreciation/humor) or Negative (complaint/anger).
Return only: Positive / Negative / Neutral`

// EmotionHandler classifies emotional messages with a zero-temperature
// single-token model call. Factual questions and already-expressive
// messages are skipped. Neutral sentiment falls through.
type EmotionHandler struct {
	llm driven.LLMService
}

// NewEmotionHandler creates an emotion handler backed by llm.
func NewEmotionHandler(llm driven.LLMService) *EmotionHandler {
	return &EmotionHandler{llm: llm}
}

func (h *EmotionHandler) Name() string { return "emotion" }

func (h *EmotionHandler) Handle(ctx context.Context, question string) (string, bool) {
	if factualPattern.MatchString(strings.ToLower(question)) {
		return "", false
	}
	for _, emoji := range expressiveEmojis {
		if strings.Contains(question, emoji) {
			return "", false
		}
	}

	label, err := h.llm.Complete(ctx, emotionSystemPrompt, "Message: "+question, driven.CompleteOptions{
		MaxTokens:   4,
		Temperature: 0,
	})
	if err != nil {
		logger.Warn("Emotion classification failed: %v", err)
		return "", false
	}

	switch strings.ToLower(strings.TrimSpace(label)) {
	case "positive":
		return positiveReplies[rand.IntN(len(positiveReplies))], true
	case "negative":
		return "I'm sorry if something felt off. Let's fix it together.", true
	}
	return "", false
}

var identityPhrases = []string{"who are you", "your name", "what are you", "who created you"}

var capabilityWords = []string{"provide", "offer", "help", "assist", "what can you"}

var capabilityReplies = []string{
	"I can help you with school details, fees, admissions, exams, and staff information.",
	"I assist with queries about ABC Senior Secondary School — like fees, staff, or classes.",
	"I provide details about school activities, admissions, and academic info.",
	"I'm here to share school-related information and help you find what you need!",
}

// IdentityHandler answers self-identity and capability questions with
// canned descriptions.
type IdentityHandler struct{}

func (h *IdentityHandler) Name() string { return "identity" }

func (h *IdentityHandler) Handle(ctx context.Context, question string) (string, bool) {
	lower := strings.ToLower(question)
	for _, phrase := range identityPhrases {
		if strings.Contains(lower, phrase) {
			return "I'm Brightly — your friendly ABC Senior Secondary School assistant.", true
		}
	}
	for _, word := range capabilityWords {
		if strings.Contains(lower, word) {
			return capabilityReplies[rand.IntN(len(capabilityReplies))], true
		}
	}
	return "", false
}
