package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/brightlyhq/brightly/internal/core/domain"
	"github.com/brightlyhq/brightly/internal/core/ports/driven"
	"github.com/brightlyhq/brightly/internal/logger"
)

// NoDataSentinel is the context placeholder when neither the index nor
// session memory yields anything for a question.
const NoDataSentinel = "No data found."

// DegradedAnswer is what users see when the generative model call
// fails. Raw provider errors never reach a user.
const DegradedAnswer = "I'm having trouble accessing the data at the moment, please try again."

const personaPrompt = `You are Brightly, the official AI assistant of ABC Senior Secondary School, Chennai.

RULES:
- Answer school content ONLY using the retrieved context below, but if the question is about NCERT or general educational material, answer directly without the context.
- If the school info is not in context, say: "I currently don't have that information in my records."
- Allowed topics: school info, facilities, fees, reopening, events, NCERT Physics/Chemistry/Maths (6-12).
- Not allowed: politics, religion, controversial topics. If asked, say:
  "I'm not allowed to discuss that. I can help with school-related queries instead."
- Use emojis of your own wherever possible.
- Always answer maths, physics and chemistry questions even when unrelated to the school.

FORMATTING (chat bubble):
- Use short lines and frequent line breaks.
- One idea per line; no large paragraphs.
- Never exceed 8 lines unless needed.
- Highlight key terms with **bold**.
- Structure longer answers as a **Title / Summary** followed by short bullet points.
- End longer answers with: 🟡 Ask if the user wants more.

FORMULA FORMAT:
**Name**:
\( formula \)
(short meaning)

TONE:
Friendly, simple, helpful, school-appropriate.`

// Synthesizer produces the retrieval-augmented fallback answer: it
// gathers index passages and remembered conversation, assembles one
// prompt and asks the generative model at low temperature.
type Synthesizer struct {
	index  *IndexService
	memory *SessionMemory
	llm    driven.LLMService
}

// NewSynthesizer creates a synthesizer over the given collaborators.
func NewSynthesizer(index *IndexService, memory *SessionMemory, llm driven.LLMService) *Synthesizer {
	return &Synthesizer{
		index:  index,
		memory: memory,
		llm:    llm,
	}
}

// Answer produces a grounded answer for one sub-question. It never
// fails: a missing index degrades to the no-data sentinel and a model
// failure degrades to a fixed message.
func (s *Synthesizer) Answer(ctx context.Context, question string) string {
	logger.Section("Answer Synthesis")

	promptContext := s.gatherContext(ctx, question)
	userPrompt := fmt.Sprintf("CONTEXT:\n%s\n\nUSER QUESTION:\n%s\n\nFINAL ANSWER (apply all rules above):", promptContext, question)

	answer, err := s.llm.Complete(ctx, personaPrompt, userPrompt, driven.CompleteOptions{
		MaxTokens:   600,
		Temperature: 0.2,
	})
	if err != nil {
		logger.Warn("Generation failed: %v", err)
		return DegradedAnswer
	}
	return strings.TrimSpace(answer)
}

// gatherContext merges index passages and conversational recall,
// falling back to the no-data sentinel when both are empty.
func (s *Synthesizer) gatherContext(ctx context.Context, question string) string {
	var b strings.Builder

	passages, err := s.index.Query(ctx, question, DefaultTopK)
	if err != nil {
		if !errors.Is(err, domain.ErrSnapshotMissing) {
			logger.Warn("Index query failed: %v", err)
		}
	}
	for _, p := range passages {
		b.WriteString(p.Text)
		b.WriteString("\n")
	}

	if recalled := s.memory.Retrieve(ctx, question, DefaultRecallSize); recalled != "" {
		b.WriteString("\n--- Previous conversation ---\n")
		b.WriteString(recalled)
	}

	if strings.TrimSpace(b.String()) == "" {
		return NoDataSentinel
	}
	return b.String()
}
