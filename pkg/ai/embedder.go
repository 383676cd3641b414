package ai

import (
	"context"
	"log"
	"strings"
)

// MaxEmbeddingInput caps the text sent to the embedding API. Longer inputs
// are truncated rather than rejected.
const MaxEmbeddingInput = 8000

// Embedder wraps an EmbeddingService with the tolerant semantics the import
// pipelines rely on: empty input and upstream failures both yield a nil
// vector instead of an error, so a missing embedding never blocks a row
// from being stored.
type Embedder struct {
	service EmbeddingService
}

// NewEmbedder creates an Embedder around the given service
func NewEmbedder(service EmbeddingService) *Embedder {
	return &Embedder{service: service}
}

// EmbedOrNil returns the embedding for text, or nil when text is empty or
// the upstream call fails. Failures are logged, never propagated.
func (e *Embedder) EmbedOrNil(ctx context.Context, text string) []float32 {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		log.Printf("[Embedder] Skipping empty input")
		return nil
	}
	if len(trimmed) > MaxEmbeddingInput {
		trimmed = trimmed[:MaxEmbeddingInput]
	}

	vector, err := e.service.Embed(ctx, trimmed)
	if err != nil {
		log.Printf("[Embedder] Embedding failed (%d chars): %v", len(trimmed), err)
		return nil
	}
	return vector
}
