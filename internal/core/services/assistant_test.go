package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightlyhq/brightly/internal/core/domain"
)

type assistantFixture struct {
	assistant *AssistantService
	index     *indexFixture
	memory    *SessionMemory
	sessions  *mockSessionStore
	llm       *stubLLM
}

func newAssistantFixture(t *testing.T) *assistantFixture {
	t.Helper()
	f := newIndexFixture(t)
	llm := &stubLLM{response: "generated answer"}
	memory := NewSessionMemory(f.embedder)
	synth := NewSynthesizer(f.index, memory, llm)
	emotion := NewEmotionHandler(llm)
	sessions := &mockSessionStore{}

	af := &assistantFixture{index: f, memory: memory, sessions: sessions, llm: llm}
	meta := NewMetaHandler(func() []domain.ConversationTurn { return af.assistant.History() })
	router := NewRouter(synth, emotion, meta)
	af.assistant = NewAssistantService(router, memory, f.index, sessions)
	return af
}

func TestAskEmptyQuestion(t *testing.T) {
	af := newAssistantFixture(t)

	_, err := af.assistant.Ask(context.Background(), "   ")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAskRecordsHistoryAndMemory(t *testing.T) {
	af := newAssistantFixture(t)

	reply, err := af.assistant.Ask(context.Background(), "2+2")

	require.NoError(t, err)
	assert.Equal(t, "The result is 4", reply.Answer)
	require.Len(t, reply.History, 1)
	assert.Equal(t, "2+2", reply.History[0].Question)
	assert.Equal(t, 1, af.memory.Len())
}

func TestAskCompoundQuestionRecordsEverySubQuestion(t *testing.T) {
	af := newAssistantFixture(t)

	reply, err := af.assistant.Ask(context.Background(), "What are the fees? Who is the principal?")

	require.NoError(t, err)
	require.Len(t, reply.History, 2)
	assert.Equal(t, "What are the fees", reply.History[0].Question)
	assert.Equal(t, "Who is the principal", reply.History[1].Question)
	assert.Equal(t, 2, af.memory.Len())
	assert.Equal(t, "generated answer\ngenerated answer", reply.Answer)
}

func TestAskMetaQuestionRecallsPrevious(t *testing.T) {
	af := newAssistantFixture(t)

	_, err := af.assistant.Ask(context.Background(), "2+2")
	require.NoError(t, err)

	reply, err := af.assistant.Ask(context.Background(), "tell me what did I just ask")
	require.NoError(t, err)
	assert.Equal(t, `You asked: "2+2"`, reply.Answer)
}

func TestInitReusesValidSnapshot(t *testing.T) {
	af := newAssistantFixture(t)
	af.index.remote.objects["fees.txt"] = "the annual fee is 50000"
	require.NoError(t, af.index.index.Refresh(context.Background(), false))
	listCalls := af.index.remote.listCalls

	// Init finds the persisted snapshot still valid and skips the
	// remote round-trip entirely.
	require.NoError(t, af.assistant.Init(context.Background(), false))

	assert.Equal(t, listCalls, af.index.remote.listCalls)
}

func TestCloseWritesSession(t *testing.T) {
	af := newAssistantFixture(t)

	_, err := af.assistant.Ask(context.Background(), "2+2")
	require.NoError(t, err)

	af.assistant.Close(context.Background())

	require.Len(t, af.sessions.saved, 1)
	require.Len(t, af.sessions.saved[0], 1)
	assert.Equal(t, "2+2", af.sessions.saved[0][0].Question)
}

func TestCloseEmptySessionIsNotPersisted(t *testing.T) {
	af := newAssistantFixture(t)

	af.assistant.Close(context.Background())

	assert.Empty(t, af.sessions.saved)
}

func TestClosePersistFailureIsSwallowed(t *testing.T) {
	af := newAssistantFixture(t)
	af.sessions.saveErr = errors.New("disk full")

	_, err := af.assistant.Ask(context.Background(), "2+2")
	require.NoError(t, err)

	// Must not panic or propagate.
	af.assistant.Close(context.Background())
}
