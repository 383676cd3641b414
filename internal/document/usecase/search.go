package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	docdomain "amurex-backend/internal/document/domain"
	"amurex-backend/pkg/fuzzy"
)

// ScoredDocument pairs a document with its search score
type ScoredDocument struct {
	Document *docdomain.Document `json:"document"`
	Score    float64             `json:"score"`
}

// SearchKeyword ranks a user's documents against a free-text query using
// fuzzy matching over title and body.
func (u *DocumentUsecase) SearchKeyword(userID, query string, limit int) ([]ScoredDocument, error) {
	if limit <= 0 {
		limit = 10
	}

	candidates, err := u.docRepo.Search(userID, query, limit*5)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		candidates, err = u.docRepo.ListByUser(userID, 200, 0)
		if err != nil {
			return nil, err
		}
	}

	threshold := fuzzy.ThresholdFor(query)
	scored := make([]ScoredDocument, 0, len(candidates))
	for _, doc := range candidates {
		head := doc.Text
		if len(head) > 500 {
			head = head[:500]
		}
		if !fuzzy.Match(query, doc.Title, threshold) && !fuzzy.Match(query, head, threshold) {
			continue
		}
		score := fuzzy.ScoreDocument(query, doc.Title, doc.Text)
		if score > 0 {
			scored = append(scored, ScoredDocument{Document: doc, Score: score})
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

// SearchSemantic embeds the query and ranks documents by cosine similarity
// against their saved vectors.
func (u *DocumentUsecase) SearchSemantic(ctx context.Context, userID, query string, limit int) ([]ScoredDocument, error) {
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

	docs, err := u.docRepo.ListWithEmbeddings(userID)
	if err != nil {
		return nil, err
	}

	scored := make([]ScoredDocument, 0, len(docs))
	for _, doc := range docs {
		var vector []float32
		if err := json.Unmarshal(doc.Embedding, &vector); err != nil {
			continue
		}
		score := cosineSimilarity(queryVector, vector)
		if score > 0 {
			scored = append(scored, ScoredDocument{Document: doc, Score: score})
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
