package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	authdomain "amurex-backend/internal/auth/domain"
	emaildomain "amurex-backend/internal/email/domain"
	gmailpkg "amurex-backend/pkg/gmail"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*authdomain.User
	order []string
}

func newFakeUserRepo(users ...*authdomain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*authdomain.User)}
	for _, u := range users {
		r.users[u.ID] = u
		r.order = append(r.order, u.ID)
	}
	return r
}

func (r *fakeUserRepo) Create(user *authdomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = "user-" + user.Email
	r.users[user.ID] = user
	r.order = append(r.order, user.ID)
	return nil
}

func (r *fakeUserRepo) FindByEmail(email string) (*authdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByID(id string) (*authdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id], nil
}

func (r *fakeUserRepo) Update(user *authdomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) ListGmailConnected() ([]*authdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*authdomain.User
	for _, id := range r.order {
		if u, ok := r.users[id]; ok && u.GmailConnected {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) ListNotionConnected() ([]*authdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*authdomain.User
	for _, id := range r.order {
		if u, ok := r.users[id]; ok && u.NotionConnected {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) CredentialsForCohort(cohort int) (string, string, error) {
	return "", "", errors.New("no such cohort")
}

type fakeEmailRepo struct {
	mu     sync.Mutex
	stored map[string]*emaildomain.Email
}

func newFakeEmailRepo() *fakeEmailRepo {
	return &fakeEmailRepo{stored: make(map[string]*emaildomain.Email)}
}

func (r *fakeEmailRepo) key(userID, messageID string) string { return userID + "/" + messageID }

func (r *fakeEmailRepo) ExistsByMessageID(userID, messageID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.stored[r.key(userID, messageID)]
	return ok, nil
}

func (r *fakeEmailRepo) Save(email *emaildomain.Email) emaildomain.SaveResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := r.key(email.UserID, email.MessageID)
	if _, ok := r.stored[k]; ok {
		return emaildomain.SaveResult{Status: emaildomain.StatusExists}
	}
	r.stored[k] = email
	return emaildomain.SaveResult{Status: emaildomain.StatusInserted}
}

func (r *fakeEmailRepo) ListByUser(userID string, limit, offset int) ([]*emaildomain.Email, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*emaildomain.Email
	for _, e := range r.stored {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEmailRepo) ListWithEmbeddings(userID string) ([]*emaildomain.Email, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*emaildomain.Email
	for _, e := range r.stored {
		if e.UserID == userID && e.Embedding != nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEmailRepo) Search(userID, pattern string, limit int) ([]*emaildomain.Email, error) {
	return r.ListByUser(userID, limit, 0)
}

func (r *fakeEmailRepo) DeleteByUser(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, e := range r.stored {
		if e.UserID == userID {
			delete(r.stored, k)
		}
	}
	return nil
}

type fakeGmail struct {
	check    gmailpkg.ScopeCheck
	emails   map[string][]*emaildomain.Email // keyed by access token
	fetchErr map[string]error
}

func (g *fakeGmail) CheckScopes(_ context.Context, _ int, _, _ string, _ gmailpkg.TokenUpdateFunc) gmailpkg.ScopeCheck {
	return g.check
}

func (g *fakeGmail) FetchRecent(_ context.Context, _ int, accessToken, _ string, _ int, _ gmailpkg.TokenUpdateFunc) ([]*emaildomain.Email, error) {
	if err, ok := g.fetchErr[accessToken]; ok {
		return nil, err
	}
	return g.emails[accessToken], nil
}

func connectedUser(id string) *authdomain.User {
	return &authdomain.User{
		ID:             id,
		Email:          id + "@example.com",
		GmailConnected: true,
		AccessToken:    "token-" + id,
		RefreshToken:   "refresh-" + id,
	}
}

func testEmails(ids ...string) []*emaildomain.Email {
	out := make([]*emaildomain.Email, len(ids))
	for i, id := range ids {
		out[i] = &emaildomain.Email{
			MessageID:  id,
			Subject:    "subject " + id,
			Sender:     "sender@example.com",
			ReceivedAt: time.Now(),
		}
	}
	return out
}

func TestImportForUserNotConnected(t *testing.T) {
	uc := NewEmailUsecase(newFakeUserRepo(), newFakeEmailRepo(), &fakeGmail{}, nil, nil)

	_, err := uc.ImportForUser(context.Background(), &authdomain.User{ID: "u1"})

	assert.Error(t, err)
}

func TestImportForUserInvalidTokenDisconnects(t *testing.T) {
	user := connectedUser("u1")
	userRepo := newFakeUserRepo(user)
	gm := &fakeGmail{check: gmailpkg.ScopeCheck{Status: gmailpkg.ScopeInvalid, Detail: "invalid_grant"}}
	uc := NewEmailUsecase(userRepo, newFakeEmailRepo(), gm, nil, nil)

	_, err := uc.ImportForUser(context.Background(), user)

	require.Error(t, err)
	stored, _ := userRepo.FindByID("u1")
	assert.False(t, stored.GmailConnected, "rejected grant should disconnect the user")
}

func TestImportForUserInconclusiveProbeKeepsConnection(t *testing.T) {
	user := connectedUser("u1")
	userRepo := newFakeUserRepo(user)
	gm := &fakeGmail{check: gmailpkg.ScopeCheck{Status: gmailpkg.ScopeUnknown, Detail: "rate limited"}}
	uc := NewEmailUsecase(userRepo, newFakeEmailRepo(), gm, nil, nil)

	_, err := uc.ImportForUser(context.Background(), user)

	require.Error(t, err)
	stored, _ := userRepo.FindByID("u1")
	assert.True(t, stored.GmailConnected, "transient probe failure must not disconnect")
}

func TestImportForUserSkipsExisting(t *testing.T) {
	user := connectedUser("u1")
	emailRepo := newFakeEmailRepo()
	emailRepo.Save(&emaildomain.Email{UserID: "u1", MessageID: "m1"})

	gm := &fakeGmail{
		check:  gmailpkg.ScopeCheck{Status: gmailpkg.ScopeValid},
		emails: map[string][]*emaildomain.Email{"token-u1": testEmails("m1", "m2", "m3")},
	}
	uc := NewEmailUsecase(newFakeUserRepo(user), emailRepo, gm, nil, nil)

	count, err := uc.ImportForUser(context.Background(), user)

	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// A second run finds everything already stored
	count, err = uc.ImportForUser(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestImportForUserClassifiesWithBody(t *testing.T) {
	user := connectedUser("u1")
	user.EmailTagging = true
	user.CategoryPrefs = datatypes.JSONMap{"work": true}

	chat := &fakeChat{reply: "1"}
	gm := &fakeGmail{
		check: gmailpkg.ScopeCheck{Status: gmailpkg.ScopeValid},
		emails: map[string][]*emaildomain.Email{"token-u1": {{
			MessageID:  "m1",
			Sender:     "boss@example.com",
			Subject:    "standup",
			Snippet:    "short preview",
			Body:       "the full body with the real signal",
			ReceivedAt: time.Now(),
		}}},
	}
	emailRepo := newFakeEmailRepo()
	uc := NewEmailUsecase(newFakeUserRepo(user), emailRepo, gm, NewCategorizer(chat), nil)

	count, err := uc.ImportForUser(context.Background(), user)

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Equal(t, 1, chat.calls)
	assert.Contains(t, chat.prompt, "the full body with the real signal")
	assert.NotContains(t, chat.prompt, "short preview")

	stored := emailRepo.stored["u1/m1"]
	require.NotNil(t, stored)
	require.NotNil(t, stored.Category)
	assert.Equal(t, "work", *stored.Category)
	assert.True(t, stored.IsCategorized)
}

func TestImportAllReportsPerUserOutcomes(t *testing.T) {
	u1 := connectedUser("u1")
	u2 := connectedUser("u2")
	u3 := connectedUser("u3")

	gm := &fakeGmail{
		check: gmailpkg.ScopeCheck{Status: gmailpkg.ScopeValid},
		emails: map[string][]*emaildomain.Email{
			"token-u1": testEmails("a1", "a2"),
			"token-u3": testEmails("c1"),
		},
		fetchErr: map[string]error{"token-u2": errors.New("backend unavailable")},
	}
	uc := NewEmailUsecase(newFakeUserRepo(u1, u2, u3), newFakeEmailRepo(), gm, nil, nil)

	results, err := uc.ImportAll(context.Background())

	require.NoError(t, err)
	require.Len(t, results, 3)

	// Results follow listing order regardless of completion order
	assert.Equal(t, "u1", results[0].UserID)
	assert.Equal(t, "success", results[0].Status)
	assert.Equal(t, 2, results[0].Count)

	assert.Equal(t, "u2", results[1].UserID)
	assert.Equal(t, "error", results[1].Status)
	assert.Contains(t, results[1].Error, "backend unavailable")

	assert.Equal(t, "u3", results[2].UserID)
	assert.Equal(t, "success", results[2].Status)
	assert.Equal(t, 1, results[2].Count)
}
