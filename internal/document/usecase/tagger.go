package usecase

import (
	"context"
	"log"
	"strings"

	"amurex-backend/pkg/ai"
)

const (
	taggerSystemPrompt = "You label documents. Reply with a comma-separated list of short lowercase tags and nothing else."
	maxTags            = 5
	maxTagInput        = 4000
)

// Tagger asks the model for a handful of topical tags for a document
type Tagger struct {
	chat ai.ChatService
}

func NewTagger(chat ai.ChatService) *Tagger {
	return &Tagger{chat: chat}
}

// Tags returns up to maxTags lowercase tags for the document, or nil when
// the model call fails. Failures are logged, never propagated.
func (t *Tagger) Tags(ctx context.Context, title, text string) []string {
	if len(text) > maxTagInput {
		text = text[:maxTagInput]
	}

	prompt := "Suggest topical tags for this document.\n\nTitle: " + title + "\n\n" + text
	response, err := t.chat.Complete(ctx, taggerSystemPrompt, prompt)
	if err != nil {
		log.Printf("[Tagger] Tagging failed for %q: %v", title, err)
		return nil
	}

	return parseTags(response)
}

// parseTags normalizes a comma-separated model reply into clean tags
func parseTags(response string) []string {
	parts := strings.Split(response, ",")
	tags := make([]string, 0, len(parts))
	seen := make(map[string]bool)

	for _, part := range parts {
		tag := strings.ToLower(strings.TrimSpace(part))
		tag = strings.Trim(tag, ".#\"'")
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
		if len(tags) == maxTags {
			break
		}
	}
	return tags
}
