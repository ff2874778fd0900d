package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRecallPrefersSimilarExchange(t *testing.T) {
	embedder := newStubEmbedder()
	embedder.vectors["what are the fees?"] = []float32{1, 0, 0}
	embedder.vectors["who is the principal?"] = []float32{0, 1, 0}
	embedder.vectors["how much do I pay?"] = []float32{1, 0, 0}
	memory := NewSessionMemory(embedder)
	ctx := context.Background()

	memory.Add(ctx, "what are the fees?", "50000 per year")
	memory.Add(ctx, "who is the principal?", "Mrs. Sharma")

	recalled := memory.Retrieve(ctx, "how much do I pay?", 1)

	assert.Equal(t, "Q: what are the fees?\nA: 50000 per year", recalled)
}

func TestMemoryRetrieveEmpty(t *testing.T) {
	memory := NewSessionMemory(newStubEmbedder())

	assert.Empty(t, memory.Retrieve(context.Background(), "anything", 5))
}

func TestMemoryRetrieveJoinsMultiple(t *testing.T) {
	memory := NewSessionMemory(newStubEmbedder())
	ctx := context.Background()

	memory.Add(ctx, "q1", "a1")
	memory.Add(ctx, "q2", "a2")

	recalled := memory.Retrieve(ctx, "query", 5)

	// All vectors are equal, so ties resolve to the later entry first.
	assert.Equal(t, "Q: q2\nA: a2\nQ: q1\nA: a1", recalled)
}

func TestMemoryKeepsEntryWhenEmbeddingFails(t *testing.T) {
	embedder := newStubEmbedder()
	embedder.fail["broken question"] = true
	memory := NewSessionMemory(embedder)
	ctx := context.Background()

	memory.Add(ctx, "broken question", "an answer")
	memory.Add(ctx, "working question", "another answer")

	// Unembedded entries are excluded from recall but still persist.
	recalled := memory.Retrieve(ctx, "query", 5)
	assert.Equal(t, "Q: working question\nA: another answer", recalled)
	assert.Len(t, memory.Turns(), 2)
}

func TestMemoryRetrieveFailsToEmbedQuery(t *testing.T) {
	embedder := newStubEmbedder()
	embedder.fail["query"] = true
	memory := NewSessionMemory(embedder)
	ctx := context.Background()

	memory.Add(ctx, "q1", "a1")

	assert.Empty(t, memory.Retrieve(ctx, "query", 5))
}

func TestMemoryTurnsTruncation(t *testing.T) {
	memory := NewSessionMemory(newStubEmbedder())
	ctx := context.Background()

	for i := 0; i < MaxPersistedTurns+10; i++ {
		memory.Add(ctx, fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	turns := memory.Turns()
	require.Len(t, turns, MaxPersistedTurns)
	assert.Equal(t, "q10", turns[0].Question)
	assert.Equal(t, fmt.Sprintf("q%d", MaxPersistedTurns+9), turns[len(turns)-1].Question)
	assert.Equal(t, MaxPersistedTurns+10, memory.Len())
}
