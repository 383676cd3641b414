package usecase

import (
	"context"
	"encoding/json"
	"testing"

	emaildomain "amurex-backend/internal/email/domain"
	"amurex-backend/pkg/ai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type fixedEmbedding struct {
	vector []float32
}

func (f *fixedEmbedding) Embed(_ context.Context, _ string) ([]float32, error) {
	return f.vector, nil
}

func TestCosineSimilarity(t *testing.T) {
	t.Run("identical vectors", func(t *testing.T) {
		assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)
	})

	t.Run("orthogonal vectors", func(t *testing.T) {
		assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		assert.Equal(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}))
	})

	t.Run("zero vector", func(t *testing.T) {
		assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
	})
}

func embeddedEmail(userID, messageID string, vector []float32) *emaildomain.Email {
	encoded, _ := json.Marshal(vector)
	return &emaildomain.Email{
		UserID:    userID,
		MessageID: messageID,
		Subject:   "subject " + messageID,
		Embedding: datatypes.JSON(encoded),
	}
}

func TestSearchSemanticRanksByCloseness(t *testing.T) {
	emailRepo := newFakeEmailRepo()
	emailRepo.Save(embeddedEmail("u1", "near", []float32{1, 0.1, 0}))
	emailRepo.Save(embeddedEmail("u1", "far", []float32{0.1, 0.2, 1}))

	embedder := ai.NewEmbedder(&fixedEmbedding{vector: []float32{1, 0, 0}})
	uc := NewEmailUsecase(newFakeUserRepo(), emailRepo, &fakeGmail{}, nil, embedder)

	results, err := uc.SearchSemantic(context.Background(), "u1", "query", 10)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "near", results[0].Email.MessageID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearchSemanticWithoutEmbedder(t *testing.T) {
	uc := NewEmailUsecase(newFakeUserRepo(), newFakeEmailRepo(), &fakeGmail{}, nil, nil)

	_, err := uc.SearchSemantic(context.Background(), "u1", "query", 10)

	assert.Error(t, err)
}

func TestSearchKeywordRanksBySubjectMatch(t *testing.T) {
	emailRepo := newFakeEmailRepo()
	emailRepo.Save(&emaildomain.Email{UserID: "u1", MessageID: "m1", Subject: "quarterly budget review", Sender: "cfo@example.com"})
	emailRepo.Save(&emaildomain.Email{UserID: "u1", MessageID: "m2", Subject: "lunch plans", Sender: "friend@example.com"})

	uc := NewEmailUsecase(newFakeUserRepo(), emailRepo, &fakeGmail{}, nil, nil)

	results, err := uc.SearchKeyword("u1", "budget", 10)

	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "m1", results[0].Email.MessageID)
}

func TestSearchKeywordToleratesTypos(t *testing.T) {
	emailRepo := newFakeEmailRepo()
	emailRepo.Save(&emaildomain.Email{UserID: "u1", MessageID: "m1", Subject: "quarterly budget review"})
	emailRepo.Save(&emaildomain.Email{UserID: "u1", MessageID: "m2", Subject: "lunch plans"})

	uc := NewEmailUsecase(newFakeUserRepo(), emailRepo, &fakeGmail{}, nil, nil)

	results, err := uc.SearchKeyword("u1", "budgte", 10)

	require.NoError(t, err)
	require.Len(t, results, 1, "typo within tolerance matches, unrelated mail does not")
	assert.Equal(t, "m1", results[0].Email.MessageID)
}
