package usecase

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	emaildomain "amurex-backend/internal/email/domain"
	"amurex-backend/pkg/ai"
)

const categorizerSystemPrompt = "You are an email classifier. Reply with a single number and nothing else."

// maxCategorizeBody caps how much of the message body the prompt carries
const maxCategorizeBody = 2000

// Categorizer assigns one of the user-enabled categories to an email by
// asking the model for a numeric choice.
type Categorizer struct {
	chat ai.ChatService
}

func NewCategorizer(chat ai.ChatService) *Categorizer {
	return &Categorizer{chat: chat}
}

// Categorize returns the chosen category name, or "" when nothing applies.
// enabled filters the global category list; prompt numbering covers the
// enabled categories only, in their fixed declaration order. A model reply
// of 0, out of range, or unparsable, and any upstream failure, all yield
// "" rather than an error.
func (c *Categorizer) Categorize(ctx context.Context, enabled map[string]bool, sender, subject, body string) string {
	candidates := make([]string, 0, len(emaildomain.Categories))
	for _, name := range emaildomain.Categories {
		if enabled[name] {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Classify this email into exactly one of the numbered categories, or answer 0 if none apply.\n\n")
	for i, name := range candidates {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, name)
	}
	if len(body) > maxCategorizeBody {
		body = body[:maxCategorizeBody]
	}
	fmt.Fprintf(&sb, "\nFrom: %s\nSubject: %s\nBody: %s\n\nAnswer with the number only.", sender, subject, body)

	response, err := c.chat.Complete(ctx, categorizerSystemPrompt, sb.String())
	if err != nil {
		log.Printf("[Categorizer] Classification failed for subject %q: %v", subject, err)
		return ""
	}

	choice := firstInteger(response)
	if choice < 1 || choice > len(candidates) {
		return ""
	}
	return candidates[choice-1]
}

// firstInteger extracts the first run of digits from a model reply.
// Returns -1 when the reply contains no digits.
func firstInteger(s string) int {
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			n, _ := strconv.Atoi(s[start:i])
			return n
		}
	}
	if start >= 0 {
		n, _ := strconv.Atoi(s[start:])
		return n
	}
	return -1
}
