package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMathHandlerArithmetic(t *testing.T) {
	h := &MathHandler{}

	answer, ok := h.Handle(context.Background(), "2+2")

	require.True(t, ok)
	assert.Equal(t, "The result is 4", answer)
}

func TestMathHandlerEquation(t *testing.T) {
	h := &MathHandler{}

	answer, ok := h.Handle(context.Background(), "solve 2x+4=10")

	require.True(t, ok)
	assert.Contains(t, answer, "The value of x is 3")
}

func TestMathHandlerCannedDefinition(t *testing.T) {
	h := &MathHandler{}

	answer, ok := h.Handle(context.Background(), "What are quadratic equations?")

	require.True(t, ok)
	assert.Contains(t, answer, "ax² + bx + c = 0")
}

func TestMathHandlerFallsThroughOnProse(t *testing.T) {
	h := &MathHandler{}

	// "since" matches the pattern but the solver produces nothing.
	_, ok := h.Handle(context.Background(), "since when is the school open")

	assert.False(t, ok)
}

func TestGreetingHandler(t *testing.T) {
	h := &GreetingHandler{}

	answer, ok := h.Handle(context.Background(), "Hello there")
	require.True(t, ok)
	assert.Contains(t, answer, "Welcome to ABC School")

	_, ok = h.Handle(context.Background(), "what are the fees")
	assert.False(t, ok)
}

func TestFarewellHandler(t *testing.T) {
	h := &FarewellHandler{}

	answer, ok := h.Handle(context.Background(), "ok bye")
	require.True(t, ok)
	assert.Contains(t, answer, "Goodbye")

	_, ok = h.Handle(context.Background(), "what are the fees")
	assert.False(t, ok)
}

func TestEmotionHandlerSkipsFactualQuestions(t *testing.T) {
	llm := &stubLLM{response: "Positive"}
	h := NewEmotionHandler(llm)

	_, ok := h.Handle(context.Background(), "what are the fees")

	assert.False(t, ok)
	assert.Zero(t, llm.calls, "factual questions must not reach the classifier")
}

func TestEmotionHandlerSkipsExpressiveEmoji(t *testing.T) {
	llm := &stubLLM{response: "Positive"}
	h := NewEmotionHandler(llm)

	_, ok := h.Handle(context.Background(), "thanks 😊")

	assert.False(t, ok)
	assert.Zero(t, llm.calls)
}

func TestEmotionHandlerPositive(t *testing.T) {
	llm := &stubLLM{response: "Positive"}
	h := NewEmotionHandler(llm)

	answer, ok := h.Handle(context.Background(), "you did great")

	require.True(t, ok)
	assert.Contains(t, positiveReplies, answer)
}

func TestEmotionHandlerNegative(t *testing.T) {
	llm := &stubLLM{response: "Negative"}
	h := NewEmotionHandler(llm)

	answer, ok := h.Handle(context.Background(), "that was terrible")

	require.True(t, ok)
	assert.Equal(t, "I'm sorry if something felt off. Let's fix it together.", answer)
}

func TestEmotionHandlerNeutralFallsThrough(t *testing.T) {
	llm := &stubLLM{response: "Neutral"}
	h := NewEmotionHandler(llm)

	_, ok := h.Handle(context.Background(), "tell me more")

	assert.False(t, ok)
}

func TestEmotionHandlerClassifierFailureFallsThrough(t *testing.T) {
	llm := &stubLLM{err: errors.New("model down")}
	h := NewEmotionHandler(llm)

	_, ok := h.Handle(context.Background(), "tell me more")

	assert.False(t, ok)
}

func TestIdentityHandler(t *testing.T) {
	h := &IdentityHandler{}

	answer, ok := h.Handle(context.Background(), "who are you?")
	require.True(t, ok)
	assert.Contains(t, answer, "Brightly")

	answer, ok = h.Handle(context.Background(), "what can you do for me")
	require.True(t, ok)
	assert.Contains(t, capabilityReplies, answer)

	_, ok = h.Handle(context.Background(), "tell me about the library")
	assert.False(t, ok)
}
