// Package driving defines the inbound ports of the assistant core,
// implemented by the services and consumed by the CLI and HTTP surface.
package driving

import (
	"context"

	"github.com/brightlyhq/brightly/internal/core/domain"
)

// Assistant answers questions and keeps the conversation log.
type Assistant interface {
	// Ask routes a question through the handler cascade and returns the
	// answer together with the full conversation history.
	Ask(ctx context.Context, question string) (Reply, error)

	// History returns the conversation log so far.
	History() []domain.ConversationTurn
}

// Reply is the result of one Ask call.
type Reply struct {
	// Answer is the assistant's reply, sub-answers joined by newlines.
	Answer string `json:"answer"`

	// History is the full conversation log including this exchange.
	History []domain.ConversationTurn `json:"history"`
}

// Mirror keeps the local document copy in step with the remote store.
type Mirror interface {
	// Sync reconciles the local mirror against the remote listing and
	// reports whether anything changed.
	Sync(ctx context.Context) (changed bool, err error)
}

// Index serves similarity queries over the passage index.
type Index interface {
	// Refresh syncs the mirror and rebuilds the snapshot when needed.
	// force rebuilds even without detected changes.
	Refresh(ctx context.Context, force bool) error

	// Query returns the top-k passages most similar to text.
	Query(ctx context.Context, text string, k int) ([]domain.Passage, error)
}
