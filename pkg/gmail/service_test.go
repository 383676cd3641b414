package gmail

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

func TestClassifyScopeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ScopeStatus
	}{
		{"http 401", &googleapi.Error{Code: 401, Message: "Invalid Credentials"}, ScopeInvalid},
		{"http 403", &googleapi.Error{Code: 403, Message: "Insufficient Permission"}, ScopeInvalid},
		{"http 429", &googleapi.Error{Code: 429, Message: "Rate Limit Exceeded"}, ScopeUnknown},
		{"http 500", &googleapi.Error{Code: 500, Message: "Backend Error"}, ScopeUnknown},
		{"invalid_grant from token endpoint", errors.New(`oauth2: "invalid_grant" "Token has been expired or revoked."`), ScopeInvalid},
		{"access denied text", errors.New("access denied by policy"), ScopeInvalid},
		{"network failure", errors.New("dial tcp: i/o timeout"), ScopeUnknown},
		{"context deadline", errors.New("context deadline exceeded"), ScopeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyScopeError(tt.err).Status)
		})
	}
}

type fakeStore struct {
	clients map[int][2]string
}

func (s *fakeStore) CredentialsForCohort(cohort int) (string, string, error) {
	c, ok := s.clients[cohort]
	if !ok {
		return "", "", errors.New("record not found")
	}
	return c[0], c[1], nil
}

func TestOAuthConfigForCohort(t *testing.T) {
	store := &fakeStore{clients: map[int][2]string{
		2: {"cohort2-id", "cohort2-secret"},
	}}
	svc := NewService("default-id", "default-secret", "http://localhost/callback", store)

	t.Run("cohort with dedicated client", func(t *testing.T) {
		cfg := svc.oauthConfigForCohort(2)
		assert.Equal(t, "cohort2-id", cfg.ClientID)
		assert.Equal(t, "cohort2-secret", cfg.ClientSecret)
	})

	t.Run("unknown cohort falls back to default", func(t *testing.T) {
		cfg := svc.oauthConfigForCohort(9)
		assert.Equal(t, "default-id", cfg.ClientID)
	})

	t.Run("cohort zero uses default without lookup", func(t *testing.T) {
		cfg := svc.oauthConfigForCohort(0)
		assert.Equal(t, "default-id", cfg.ClientID)
	})

	t.Run("nil store uses default", func(t *testing.T) {
		bare := NewService("default-id", "default-secret", "", nil)
		cfg := bare.oauthConfigForCohort(2)
		assert.Equal(t, "default-id", cfg.ClientID)
	})
}

func TestStripHTML(t *testing.T) {
	got := stripHTML("<p>Hello&nbsp;<b>world</b> &amp; friends</p>")
	assert.Equal(t, "Hello world & friends", got)
}
