package driven

import "context"

// LLMService provides generative text completion.
//
// Implementations may include OpenAI, Azure OpenAI or any
// chat-completions-compatible endpoint.
type LLMService interface {
	// Complete produces a completion for userPrompt under systemPrompt.
	// Temperature 0 requests deterministic output.
	Complete(ctx context.Context, systemPrompt, userPrompt string, opts CompleteOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}

// CompleteOptions configures text generation behaviour.
type CompleteOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
