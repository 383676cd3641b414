package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	authdelivery "amurex-backend/internal/auth/delivery"
	authdomain "amurex-backend/internal/auth/domain"
	emaildomain "amurex-backend/internal/email/domain"
	"amurex-backend/internal/email/usecase"
	gmailpkg "amurex-backend/pkg/gmail"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUserRepo struct {
	users     []*authdomain.User
	listCalls int
	listErr   error
	mu        sync.Mutex
}

func (r *stubUserRepo) Create(*authdomain.User) error                    { return nil }
func (r *stubUserRepo) FindByEmail(string) (*authdomain.User, error)     { return nil, nil }
func (r *stubUserRepo) FindByID(string) (*authdomain.User, error)        { return nil, nil }
func (r *stubUserRepo) Update(*authdomain.User) error                    { return nil }
func (r *stubUserRepo) Delete(string) error                              { return nil }
func (r *stubUserRepo) ListNotionConnected() ([]*authdomain.User, error) { return nil, nil }
func (r *stubUserRepo) CredentialsForCohort(int) (string, string, error) {
	return "", "", errors.New("record not found")
}
func (r *stubUserRepo) ListGmailConnected() ([]*authdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	return r.users, r.listErr
}

type stubEmailRepo struct {
	mu     sync.Mutex
	stored map[string]bool
}

func (r *stubEmailRepo) ExistsByMessageID(userID, messageID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stored[userID+"/"+messageID], nil
}

func (r *stubEmailRepo) Save(email *emaildomain.Email) emaildomain.SaveResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stored == nil {
		r.stored = make(map[string]bool)
	}
	r.stored[email.UserID+"/"+email.MessageID] = true
	return emaildomain.SaveResult{Status: emaildomain.StatusInserted}
}

func (r *stubEmailRepo) ListByUser(string, int, int) ([]*emaildomain.Email, error) { return nil, nil }
func (r *stubEmailRepo) ListWithEmbeddings(string) ([]*emaildomain.Email, error)   { return nil, nil }
func (r *stubEmailRepo) Search(string, string, int) ([]*emaildomain.Email, error)  { return nil, nil }
func (r *stubEmailRepo) DeleteByUser(string) error                                 { return nil }

type stubGmail struct {
	failFor map[string]error
}

func (g *stubGmail) CheckScopes(context.Context, int, string, string, gmailpkg.TokenUpdateFunc) gmailpkg.ScopeCheck {
	return gmailpkg.ScopeCheck{Status: gmailpkg.ScopeValid}
}

func (g *stubGmail) FetchRecent(_ context.Context, _ int, accessToken, _ string, _ int, _ gmailpkg.TokenUpdateFunc) ([]*emaildomain.Email, error) {
	if err, ok := g.failFor[accessToken]; ok {
		return nil, err
	}
	return []*emaildomain.Email{
		{MessageID: "msg-" + accessToken, Subject: "hello", ReceivedAt: time.Now()},
	}, nil
}

type cronResponse struct {
	Success bool                           `json:"success"`
	Results []emaildomain.UserImportResult `json:"results"`
}

func cronTestRouter(secret string, userRepo *stubUserRepo, gm *stubGmail) *gin.Engine {
	gin.SetMode(gin.TestMode)

	uc := usecase.NewEmailUsecase(userRepo, &stubEmailRepo{}, gm, nil, nil)
	handler := NewEmailHandler(uc)

	r := gin.New()
	r.POST("/api/cron/emails", authdelivery.CronAuthMiddleware(secret), handler.CronImport)
	return r
}

func gmailUser(id string) *authdomain.User {
	return &authdomain.User{
		ID:             id,
		GmailConnected: true,
		AccessToken:    "token-" + id,
		RefreshToken:   "refresh-" + id,
	}
}

func TestCronImportRejectsBeforeTouchingStorage(t *testing.T) {
	userRepo := &stubUserRepo{users: []*authdomain.User{gmailUser("u1")}}
	r := cronTestRouter("s3cret", userRepo, &stubGmail{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/cron/emails", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, userRepo.listCalls, "rejected requests must not hit the database")
}

func TestCronImportReportsPerUserFailuresInBand(t *testing.T) {
	userRepo := &stubUserRepo{users: []*authdomain.User{gmailUser("u1"), gmailUser("u2")}}
	gm := &stubGmail{failFor: map[string]error{"token-u2": errors.New("backend unavailable")}}
	r := cronTestRouter("s3cret", userRepo, gm)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/cron/emails", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	r.ServeHTTP(w, req)

	// One user failing is still an HTTP success; the failure is in the body
	require.Equal(t, http.StatusOK, w.Code)

	var resp cronResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Results, 2)

	assert.Equal(t, "u1", resp.Results[0].UserID)
	assert.Equal(t, "success", resp.Results[0].Status)
	assert.Equal(t, 1, resp.Results[0].Count)

	assert.Equal(t, "u2", resp.Results[1].UserID)
	assert.Equal(t, "error", resp.Results[1].Status)
	assert.Contains(t, resp.Results[1].Error, "backend unavailable")
}

func TestCronImportListingFailureIs500(t *testing.T) {
	userRepo := &stubUserRepo{listErr: errors.New("connection refused")}
	r := cronTestRouter("s3cret", userRepo, &stubGmail{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/cron/emails", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
