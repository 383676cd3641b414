package ai

import "context"

// ProviderType identifies the configured LLM backend
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderGroq   ProviderType = "groq"
)

// ChatService defines the interface for chat completions
type ChatService interface {
	// Complete sends a system prompt and a user prompt and returns the
	// model's text response.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// EmbeddingService defines the interface for text embeddings
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
