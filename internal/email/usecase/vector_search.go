package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	emaildomain "amurex-backend/internal/email/domain"
	"amurex-backend/pkg/fuzzy"
)

// ScoredEmail pairs an email with its search score
type ScoredEmail struct {
	Email *emaildomain.Email `json:"email"`
	Score float64            `json:"score"`
}

// SearchKeyword ranks a user's stored emails against a free-text query
// using fuzzy matching over subject, sender and snippet.
func (u *EmailUsecase) SearchKeyword(userID, query string, limit int) ([]ScoredEmail, error) {
	if limit <= 0 {
		limit = 10
	}

	candidates, err := u.emailRepo.Search(userID, query, limit*5)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		// ILIKE found nothing; fall back to scoring a recent window so
		// typos still match.
		candidates, err = u.emailRepo.ListByUser(userID, 200, 0)
		if err != nil {
			return nil, err
		}
	}

	threshold := fuzzy.ThresholdFor(query)
	scored := make([]ScoredEmail, 0, len(candidates))
	for _, email := range candidates {
		if !fuzzy.Match(query, email.Subject, threshold) &&
			!fuzzy.Match(query, email.Sender, threshold) &&
			!fuzzy.Match(query, email.Snippet, threshold) {
			continue
		}
		score := fuzzy.ScoreEmail(query, email.Subject, email.Sender, email.Snippet)
		if score > 0 {
			scored = append(scored, ScoredEmail{Email: email, Score: score})
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// SearchSemantic embeds the query and ranks stored emails by cosine
// similarity against their saved vectors.
func (u *EmailUsecase) SearchSemantic(ctx context.Context, userID, query string, limit int) ([]ScoredEmail, error) {
	if u.embedder == nil {
		return nil, fmt.Errorf("semantic search is not configured")
	}
	if limit <= 0 {
		limit = 10
	}

	queryVector := u.embedder.EmbedOrNil(ctx, query)
	if queryVector == nil {
		return nil, fmt.Errorf("failed to embed query")
	}

	emails, err := u.emailRepo.ListWithEmbeddings(userID)
	if err != nil {
		return nil, err
	}

	scored := make([]ScoredEmail, 0, len(emails))
	for _, email := range emails {
		var vector []float32
		if err := json.Unmarshal(email.Embedding, &vector); err != nil {
			continue
		}
		score := cosineSimilarity(queryVector, vector)
		if score > 0 {
			scored = append(scored, ScoredEmail{Email: email, Score: score})
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// cosineSimilarity returns the cosine of the angle between two vectors,
// or 0 when the dimensions differ or either vector is zero.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
